// internal/app/features/authgoogle/handler.go
package authgoogle

// Terminology: Account Identifiers
//   - UID / uid: the verified Google subject (the id_token "sub" claim)
//   - State: the one-time token that ties the consent redirect to its callback

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	uierrors "github.com/dalemusser/schoolsuite/internal/app/features/errors"
	"github.com/dalemusser/schoolsuite/internal/app/store/oauthstate"
	"github.com/dalemusser/schoolsuite/internal/app/system/auditlog"
	"github.com/dalemusser/schoolsuite/internal/app/system/auth"
	"github.com/dalemusser/schoolsuite/internal/app/system/identity"
	"github.com/dalemusser/schoolsuite/internal/app/system/metrics"
	"github.com/dalemusser/schoolsuite/internal/app/system/normalize"
	"github.com/dalemusser/schoolsuite/internal/app/system/tenancy"
	"github.com/dalemusser/schoolsuite/internal/app/system/timeouts"
	"github.com/dalemusser/schoolsuite/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/urlutil"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// DefaultReturn is where a completed sign-in lands without a return path.
const DefaultReturn = "/dashboard"

// StateStore keeps the one-time states between redirect and callback.
type StateStore interface {
	Save(ctx context.Context, st oauthstate.State) error
	Consume(ctx context.Context, state string) (oauthstate.State, bool, error)
}

// Resolver maps a verified identity to its school and membership.
type Resolver interface {
	Resolve(ctx context.Context, verified identity.Identity, claim tenancy.Claim) (tenancy.Result, error)
}

// ExchangeFunc trades an authorization code for the raw id_token.
type ExchangeFunc func(ctx context.Context, code string) (string, error)

// Handler runs Google's authorization-code flow for clients that cannot
// obtain an ID token themselves.
type Handler struct {
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
	ErrLog     *uierrors.ErrorLogger
	AuditLog   *auditlog.Logger
	Metrics    *metrics.Metrics
	StateStore StateStore
	Verifier   identity.Verifier
	Resolver   Resolver

	// OAuth configuration
	ClientID        string
	ClientSecret    string
	RedirectURL     string // e.g., "https://school.example.com/auth/google/callback"
	WorkspaceDomain string // sent as the "hd" hint when set

	// Exchange defaults to the oauth2 code exchange against Google.
	Exchange ExchangeFunc
}

// Options carries the Google client settings.
type Options struct {
	ClientID        string
	ClientSecret    string
	BaseURL         string
	WorkspaceDomain string
}

// NewHandler creates a new Google code-flow handler.
func NewHandler(
	sessionMgr *auth.SessionManager,
	errLog *uierrors.ErrorLogger,
	audit *auditlog.Logger,
	m *metrics.Metrics,
	stateStore StateStore,
	verifier identity.Verifier,
	resolver Resolver,
	opts Options,
	logger *zap.Logger,
) *Handler {
	h := &Handler{
		Log:             logger,
		SessionMgr:      sessionMgr,
		ErrLog:          errLog,
		AuditLog:        audit,
		Metrics:         m,
		StateStore:      stateStore,
		Verifier:        verifier,
		Resolver:        resolver,
		ClientID:        opts.ClientID,
		ClientSecret:    opts.ClientSecret,
		RedirectURL:     strings.TrimRight(opts.BaseURL, "/") + "/auth/google/callback",
		WorkspaceDomain: normalize.Domain(opts.WorkspaceDomain),
	}
	h.Exchange = h.exchange
	return h
}

// oauth2Config returns the Google OAuth2 configuration.
func (h *Handler) oauth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     h.ClientID,
		ClientSecret: h.ClientSecret,
		RedirectURL:  h.RedirectURL,
		Scopes:       []string{"openid", "email", "profile"},
		Endpoint:     google.Endpoint,
	}
}

// IsConfigured returns true if the code flow can run: it needs the client
// secret and an absolute callback URL built from base_url.
func (h *Handler) IsConfigured() bool {
	return h.ClientID != "" && h.ClientSecret != "" && strings.HasPrefix(h.RedirectURL, "http")
}

// exchange trades code for tokens and returns the id_token Google sent
// alongside the access token.
func (h *Handler) exchange(ctx context.Context, code string) (string, error) {
	tok, err := h.oauth2Config().Exchange(ctx, code)
	if err != nil {
		return "", err
	}
	raw, ok := tok.Extra("id_token").(string)
	if !ok || raw == "" {
		return "", errors.New("token response has no id_token")
	}
	return raw, nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /auth/google                                                             |
| Stores a one-time state and redirects to Google's consent screen.            |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	if !h.IsConfigured() {
		h.Log.Warn("Google code flow not configured")
		redirectToSignIn(w, r, "google_not_configured")
		return
	}

	state, err := generateState()
	if err != nil {
		h.Log.Error("failed to generate OAuth state", zap.Error(err))
		redirectToSignIn(w, r, "internal")
		return
	}

	role := normalize.Role(query.Get(r, "role"))
	if role != "" && !models.ValidRole(role) {
		role = ""
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "save oauth state")
	defer cancel()

	st := oauthstate.State{
		State:      state,
		ReturnURL:  query.Get(r, "return"),
		SchoolName: strings.TrimSpace(query.Get(r, "schoolName")),
		Role:       role,
	}
	if err := h.StateStore.Save(ctx, st); err != nil {
		h.Log.Error("failed to save OAuth state", zap.Error(err))
		redirectToSignIn(w, r, "internal")
		return
	}

	opts := []oauth2.AuthCodeOption{oauth2.SetAuthURLParam("prompt", "select_account")}
	if h.WorkspaceDomain != "" {
		opts = append(opts, oauth2.SetAuthURLParam("hd", h.WorkspaceDomain))
	}
	dest := h.oauth2Config().AuthCodeURL(state, opts...)

	h.Log.Debug("initiating Google code flow",
		zap.String("return_url", st.ReturnURL),
		zap.Bool("school_name_supplied", st.SchoolName != ""))

	http.Redirect(w, r, dest, http.StatusTemporaryRedirect)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /auth/google/callback                                                    |
| Validates the state, exchanges the code, verifies the id_token, resolves     |
| the tenant and issues the session.                                           |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeCallback(w http.ResponseWriter, r *http.Request) {
	if errParam := query.Get(r, "error"); errParam != "" {
		h.Log.Warn("Google OAuth error",
			zap.String("error", errParam),
			zap.String("description", query.Get(r, "error_description")))
		redirectToSignIn(w, r, "google_denied")
		return
	}

	state := query.Get(r, "state")
	if state == "" {
		h.Log.Warn("missing OAuth state parameter")
		redirectToSignIn(w, r, "invalid_state")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "google callback")
	defer cancel()

	st, valid, err := h.StateStore.Consume(ctx, state)
	if err != nil {
		h.Log.Error("failed to consume OAuth state", zap.Error(err))
		redirectToSignIn(w, r, "internal")
		return
	}
	if !valid {
		h.Log.Warn("invalid or expired OAuth state")
		redirectToSignIn(w, r, "invalid_state")
		return
	}

	code := query.Get(r, "code")
	if code == "" {
		h.Log.Warn("missing OAuth code parameter")
		redirectToSignIn(w, r, "invalid_code")
		return
	}

	rawIDToken, err := h.Exchange(ctx, code)
	if err != nil {
		h.Log.Error("failed to exchange OAuth code", zap.Error(err))
		h.Metrics.RecordSignIn(metrics.OutcomeError)
		redirectToSignIn(w, r, "token_exchange")
		return
	}

	verified, err := h.Verifier.Verify(ctx, rawIDToken)
	if errors.Is(err, identity.ErrProviderUnavailable) {
		h.Log.Error("verify id_token from code exchange", zap.Error(err))
		h.Metrics.RecordSignIn(metrics.OutcomeError)
		redirectToSignIn(w, r, "internal")
		return
	}
	if err != nil {
		h.Log.Warn("id_token from code exchange rejected", zap.Error(err))
		h.AuditLog.SignInFailed(ctx, r, "", "", "INVALID_CREDENTIAL")
		h.Metrics.RecordSignIn(metrics.OutcomeInvalid)
		redirectToSignIn(w, r, "invalid_credential")
		return
	}

	// The verified token is the claim: the consistency checks always pass
	// and only the tenancy decisions remain.
	res, err := h.Resolver.Resolve(ctx, verified, tenancy.Claim{
		UID:        verified.UID,
		Email:      verified.Email,
		Name:       verified.Name,
		SchoolName: st.SchoolName,
		Role:       st.Role,
	})
	if err != nil {
		code := tenancy.Code(err)
		if code == "" {
			h.Log.Error("resolve sign-in", zap.Error(err))
			h.Metrics.RecordSignIn(metrics.OutcomeError)
			redirectToSignIn(w, r, "internal")
			return
		}
		h.Log.Info("Google sign-in rejected",
			zap.String("uid", verified.UID),
			zap.String("email", verified.Email),
			zap.String("code", code))
		h.AuditLog.SignInFailed(ctx, r, verified.UID, verified.Email, code)
		h.Metrics.RecordSignIn(strings.ToLower(code))
		redirectToSignIn(w, r, strings.ToLower(code))
		return
	}

	if err := h.SessionMgr.Issue(w, auth.Reference{
		UID:          res.Membership.GoogleUID,
		MembershipID: res.Membership.ID.Hex(),
	}); err != nil {
		h.Log.Error("issue session cookie", zap.Error(err))
		h.Metrics.RecordSignIn(metrics.OutcomeError)
		redirectToSignIn(w, r, "internal")
		return
	}

	if res.SchoolCreated {
		h.AuditLog.SchoolCreated(ctx, r, res.School, res.Membership.GoogleUID)
	}
	if res.MembershipCreated {
		h.AuditLog.MembershipCreated(ctx, r, res.Membership)
	}
	if res.ContactSynced {
		h.AuditLog.MembershipEmailSynced(ctx, r, res.Membership)
	}
	h.AuditLog.SignInSucceeded(ctx, r, res.Membership)
	if res.MembershipCreated {
		h.Metrics.RecordSignIn(metrics.OutcomeCreated)
	} else {
		h.Metrics.RecordSignIn(metrics.OutcomeSuccess)
	}

	h.Log.Info("signed in with Google code flow",
		zap.String("uid", res.Membership.GoogleUID),
		zap.String("membership_id", res.Membership.ID.Hex()),
		zap.String("school_id", res.School.ID.Hex()))

	http.Redirect(w, r, urlutil.SafeReturn(st.ReturnURL, "", DefaultReturn), http.StatusSeeOther)
}

// redirectToSignIn sends the browser back to the sign-in page with a
// lower-case error code.
func redirectToSignIn(w http.ResponseWriter, r *http.Request, code string) {
	dest := fmt.Sprintf("%s?error=%s", auth.SignInPath, url.QueryEscape(code))
	http.Redirect(w, r, dest, http.StatusSeeOther)
}

// generateState creates a cryptographically secure random state.
func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
