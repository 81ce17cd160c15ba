// internal/app/features/authsession/handler.go
package authsession

// Terminology: Account Identifiers
//   - UID / uid / google_uid: the verified Google subject, stable per account
//   - MembershipID / membershipId: the MongoDB ObjectID of the membership record
//   - Domain: the lower-cased text after the last "@" of the verified email

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	uierrors "github.com/dalemusser/schoolsuite/internal/app/features/errors"
	"github.com/dalemusser/schoolsuite/internal/app/system/auditlog"
	"github.com/dalemusser/schoolsuite/internal/app/system/auth"
	"github.com/dalemusser/schoolsuite/internal/app/system/identity"
	"github.com/dalemusser/schoolsuite/internal/app/system/inputval"
	"github.com/dalemusser/schoolsuite/internal/app/system/jsonresp"
	"github.com/dalemusser/schoolsuite/internal/app/system/metrics"
	"github.com/dalemusser/schoolsuite/internal/app/system/ratelimit"
	"github.com/dalemusser/schoolsuite/internal/app/system/tenancy"
	"github.com/dalemusser/schoolsuite/internal/app/system/timeouts"
	"github.com/dalemusser/schoolsuite/internal/domain/models"
	"go.uber.org/zap"
)

// Resolver maps a verified identity to its school and membership.
type Resolver interface {
	Resolve(ctx context.Context, verified identity.Identity, claim tenancy.Claim) (tenancy.Result, error)
}

type Handler struct {
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
	ErrLog     *uierrors.ErrorLogger
	Verifier   identity.Verifier
	Resolver   Resolver
	Limiter    *ratelimit.SignInLimiter // nil disables rate limiting
	AuditLog   *auditlog.Logger
	Metrics    *metrics.Metrics
}

func NewHandler(sessionMgr *auth.SessionManager, verifier identity.Verifier, resolver Resolver,
	limiter *ratelimit.SignInLimiter, audit *auditlog.Logger, m *metrics.Metrics,
	errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Log:        logger,
		SessionMgr: sessionMgr,
		ErrLog:     errLog,
		Verifier:   verifier,
		Resolver:   resolver,
		Limiter:    limiter,
		AuditLog:   audit,
		Metrics:    m,
	}
}

// signInRequest is the POST /auth/session body.
type signInRequest struct {
	UID        string `json:"uid" validate:"required,notblank,max=255"`
	Email      string `json:"email" validate:"required,email,max=320"`
	Name       string `json:"name" validate:"omitempty,max=200"`
	SchoolName string `json:"schoolName" validate:"omitempty,notblank,max=200"`
	Role       string `json:"role" validate:"omitempty,oneof=admin staff"`
	IDToken    string `json:"idToken"`
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /auth/session                                                           |
| Verifies the bearer credential, resolves the tenant and issues the cookie.   |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeSignIn(w http.ResponseWriter, r *http.Request) {
	// The credential is checked before the fields so a request without one
	// is always 401, whatever its body.
	var in signInRequest
	bodyErr := inputval.DecodeJSON(r, &in)

	credential := BearerToken(r)
	if credential == "" {
		credential = strings.TrimSpace(in.IDToken)
	}
	if credential == "" {
		h.Metrics.RecordSignIn(metrics.OutcomeInvalid)
		jsonresp.Error(w, r, http.StatusUnauthorized, jsonresp.CodeUnauthorized, "missing bearer credential")
		return
	}

	if bodyErr == nil {
		bodyErr = inputval.Struct(in)
	}
	if bodyErr != nil {
		h.Metrics.RecordSignIn(metrics.OutcomeRejected)
		if fe, ok := inputval.AsErrors(bodyErr); ok {
			jsonresp.Invalid(w, r, fe)
			return
		}
		jsonresp.Invalid(w, r, inputval.Field("body", bodyErr.Error()))
		return
	}

	if h.Limiter != nil {
		if ok, wait := h.Limiter.Check(r, in.UID); !ok {
			h.Log.Warn("sign-in rate limited",
				zap.String("uid", in.UID),
				zap.String("ip", ratelimit.ClientIP(r)))
			h.AuditLog.SignInRateLimited(r.Context(), r, in.UID)
			h.Metrics.RecordSignIn(metrics.OutcomeRateLimited)
			w.Header().Set("Retry-After", retryAfterSeconds(wait))
			jsonresp.Error(w, r, http.StatusTooManyRequests, jsonresp.CodeRateLimited,
				"too many sign-in attempts, try again later")
			return
		}
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "sign-in")
	defer cancel()

	verified, err := h.Verifier.Verify(ctx, credential)
	if errors.Is(err, identity.ErrProviderUnavailable) {
		h.Metrics.RecordSignIn(metrics.OutcomeError)
		h.ErrLog.LogServerError(w, r, "verify sign-in credential", err)
		return
	}
	if err != nil {
		h.Log.Info("sign-in credential rejected", zap.String("uid", in.UID), zap.Error(err))
		h.AuditLog.SignInFailed(ctx, r, in.UID, in.Email, "INVALID_CREDENTIAL")
		h.Metrics.RecordSignIn(metrics.OutcomeInvalid)
		jsonresp.Error(w, r, http.StatusUnauthorized, jsonresp.CodeUnauthorized, "invalid credential")
		return
	}

	res, err := h.Resolver.Resolve(ctx, verified, tenancy.Claim{
		UID:        in.UID,
		Email:      in.Email,
		Name:       in.Name,
		SchoolName: in.SchoolName,
		Role:       in.Role,
	})
	if err != nil {
		h.resolveFailed(w, r, verified, err)
		return
	}

	if err := h.SessionMgr.Issue(w, auth.Reference{
		UID:          res.Membership.GoogleUID,
		MembershipID: res.Membership.ID.Hex(),
	}); err != nil {
		h.Metrics.RecordSignIn(metrics.OutcomeError)
		h.ErrLog.LogServerError(w, r, "issue session cookie", err)
		return
	}

	h.recordSuccess(ctx, r, res)
	if h.Limiter != nil {
		h.Limiter.Succeeded(in.UID)
	}

	jsonresp.OK(w, r, auth.Session{
		School:     res.School,
		Membership: res.Membership,
		Staff:      res.Staff,
	})
}

func (h *Handler) recordSuccess(ctx context.Context, r *http.Request, res tenancy.Result) {
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

	outcome := metrics.OutcomeSuccess
	if res.MembershipCreated {
		outcome = metrics.OutcomeCreated
	}
	h.Metrics.RecordSignIn(outcome)

	h.Log.Info("signed in",
		zap.String("uid", res.Membership.GoogleUID),
		zap.String("membership_id", res.Membership.ID.Hex()),
		zap.String("school_id", res.School.ID.Hex()),
		zap.Bool("school_created", res.SchoolCreated),
		zap.Bool("membership_created", res.MembershipCreated))
}

// resolveFailed maps a resolver error to its response. Tenancy outcomes
// are expected and logged at Info; anything else is a dependency failure.
func (h *Handler) resolveFailed(w http.ResponseWriter, r *http.Request, verified identity.Identity, err error) {
	code := tenancy.Code(err)
	if code == "" {
		h.Metrics.RecordSignIn(metrics.OutcomeError)
		h.ErrLog.LogServerError(w, r, "resolve sign-in", err)
		return
	}

	h.Log.Info("sign-in rejected",
		zap.String("uid", verified.UID),
		zap.String("email", verified.Email),
		zap.String("code", code),
		zap.Error(err))
	h.AuditLog.SignInFailed(r.Context(), r, verified.UID, verified.Email, code)
	h.Metrics.RecordSignIn(strings.ToLower(code))

	status, body := ErrorResponse(err)
	jsonresp.JSON(w, r, status, body)
}

// ErrorResponse returns the status and JSON body for a resolver error
// that tenancy.Code recognises.
func ErrorResponse(err error) (int, map[string]any) {
	code := tenancy.Code(err)
	body := map[string]any{"error": err.Error(), "code": code}

	var dm *tenancy.DomainMismatchError
	var snf *tenancy.SchoolNotFoundError
	switch {
	case errors.As(err, &dm):
		body["expectedDomain"] = dm.Expected
		body["actualDomain"] = dm.Actual
		return http.StatusForbidden, body
	case errors.As(err, &snf):
		body["domain"] = snf.Domain
		return http.StatusNotFound, body
	case errors.Is(err, tenancy.ErrDomainMissing):
		return http.StatusBadRequest, body
	case errors.Is(err, tenancy.ErrMembershipConflict):
		return http.StatusConflict, body
	}
	// Identity, email and membership rejections.
	return http.StatusForbidden, body
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /auth/session                                                            |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeCurrent(w http.ResponseWriter, r *http.Request) {
	s, ok := auth.CurrentSession(r)
	if !ok {
		jsonresp.Error(w, r, http.StatusUnauthorized, jsonresp.CodeUnauthorized, "not signed in")
		return
	}
	jsonresp.OK(w, r, s)
}

/*─────────────────────────────────────────────────────────────────────────────*
| DELETE /auth/session                                                         |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeSignOut(w http.ResponseWriter, r *http.Request) {
	var m *models.Membership
	if s, ok := auth.CurrentSession(r); ok {
		m = &s.Membership
	}
	h.AuditLog.SignedOut(r.Context(), r, m)
	h.SessionMgr.Clear(w)
	jsonresp.OK(w, r, map[string]bool{"success": true})
}

// BearerToken returns the token from an "Authorization: Bearer" header.
func BearerToken(r *http.Request) string {
	v := strings.TrimSpace(r.Header.Get("Authorization"))
	const prefix = "bearer "
	if len(v) < len(prefix) || !strings.EqualFold(v[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(v[len(prefix):])
}

// retryAfterSeconds rounds up so clients never retry early.
func retryAfterSeconds(d time.Duration) string {
	secs := int64((d + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return strconv.FormatInt(secs, 10)
}
