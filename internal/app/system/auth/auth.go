// internal/app/system/auth/auth.go
package auth

// Terminology: Session
//   - Reference: the signed cookie payload {uid, membershipId}
//   - Session: the live membership reconstructed from a Reference, with its
//     school and optional staff profile

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dalemusser/schoolsuite/internal/app/system/jsonresp"
	"github.com/dalemusser/schoolsuite/internal/app/system/metrics"
	"github.com/dalemusser/schoolsuite/internal/domain/models"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Session constants                                                           |
*─────────────────────────────────────────────────────────────────────────────*/

const (
	DefaultCookieName = "school-suite.session"
	DefaultMaxAge     = 7 * 24 * time.Hour

	SignInPath = "/sign-in"
)

// ErrDependencyUnavailable wraps database failures while reading a session.
var ErrDependencyUnavailable = errors.New("session dependency unavailable")

// publicPaths never require a session.
var publicPaths = map[string]struct{}{
	"/":                     {},
	SignInPath:              {},
	"/auth/session":         {},
	"/auth/google":          {},
	"/auth/google/callback": {},
	"/health":               {},
	"/metrics":              {},
}

// IsPublicPath reports whether path is reachable without a session.
func IsPublicPath(path string) bool {
	_, ok := publicPaths[path]
	return ok
}

/*─────────────────────────────────────────────────────────────────────────────*
| Types                                                                       |
*─────────────────────────────────────────────────────────────────────────────*/

// Reference is the cookie payload.
type Reference struct {
	UID          string `json:"uid"`
	MembershipID string `json:"membershipId"`
}

// Session is what protected handlers see in the request context.
type Session struct {
	School     models.School     `json:"school"`
	Membership models.Membership `json:"membership"`
	Staff      *models.Staff     `json:"staff"`
}

// SchoolID is the tenant every record query is scoped to.
func (s *Session) SchoolID() primitive.ObjectID { return s.School.ID }

// IsAdmin reports whether the membership has the admin role.
func (s *Session) IsAdmin() bool { return s.Membership.IsAdmin() }

// Loader reconstructs a Session from a membership id. It returns (nil, nil)
// when the membership or its school no longer exists.
type Loader interface {
	LoadSession(ctx context.Context, membershipID primitive.ObjectID) (*Session, error)
}

// Config configures the session cookie.
type Config struct {
	HashKey  []byte
	BlockKey []byte // optional; 16, 24 or 32 bytes enables encryption
	Name     string
	Domain   string
	MaxAge   time.Duration
	Secure   bool
}

// SessionManager issues, reads and clears session cookies.
type SessionManager struct {
	codec   *securecookie.SecureCookie
	name    string
	domain  string
	maxAge  time.Duration
	secure  bool
	loader  Loader
	metrics *metrics.Metrics
	log     *zap.Logger
}

// NewSessionManager validates cfg and builds the cookie codec.
func NewSessionManager(cfg Config, logger *zap.Logger) (*SessionManager, error) {
	if len(cfg.HashKey) < 32 {
		return nil, fmt.Errorf("session key must be at least 32 bytes, got %d", len(cfg.HashKey))
	}
	switch len(cfg.BlockKey) {
	case 0, 16, 24, 32:
	default:
		return nil, fmt.Errorf("session block key must be 16, 24 or 32 bytes, got %d", len(cfg.BlockKey))
	}
	if cfg.Name == "" {
		cfg.Name = DefaultCookieName
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = DefaultMaxAge
	}

	var block []byte
	if len(cfg.BlockKey) > 0 {
		block = cfg.BlockKey
	}
	codec := securecookie.New(cfg.HashKey, block)
	codec.SetSerializer(securecookie.JSONEncoder{})
	codec.MaxAge(int(cfg.MaxAge.Seconds()))

	return &SessionManager{
		codec:  codec,
		name:   cfg.Name,
		domain: cfg.Domain,
		maxAge: cfg.MaxAge,
		secure: cfg.Secure,
		log:    logger,
	}, nil
}

// SetLoader wires the membership lookup. It is set after the database
// connects, so the manager can exist before ConnectDB runs.
func (sm *SessionManager) SetLoader(l Loader) { sm.loader = l }

// SetMetrics enables session-read counters.
func (sm *SessionManager) SetMetrics(m *metrics.Metrics) { sm.metrics = m }

// CookieName returns the configured cookie name.
func (sm *SessionManager) CookieName() string { return sm.name }

/*─────────────────────────────────────────────────────────────────────────────*
| Issue / Read / Clear                                                        |
*─────────────────────────────────────────────────────────────────────────────*/

// Issue signs ref and sets it as the session cookie.
func (sm *SessionManager) Issue(w http.ResponseWriter, ref Reference) error {
	value, err := sm.codec.Encode(sm.name, ref)
	if err != nil {
		return fmt.Errorf("encode session cookie: %w", err)
	}
	http.SetCookie(w, sm.cookie(value, int(sm.maxAge.Seconds())))
	return nil
}

// Clear expires the session cookie.
func (sm *SessionManager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, sm.cookie("", -1))
}

func (sm *SessionManager) cookie(value string, maxAge int) *http.Cookie {
	return sessions.NewCookie(sm.name, value, &sessions.Options{
		Path:     "/",
		Domain:   sm.domain,
		MaxAge:   maxAge,
		Secure:   sm.secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// Read returns the live session for the request's cookie. A missing,
// tampered, expired or stale cookie yields (nil, nil). Only database
// failures return an error, wrapped with ErrDependencyUnavailable.
func (sm *SessionManager) Read(r *http.Request) (*Session, error) {
	c, err := r.Cookie(sm.name)
	if err != nil || c.Value == "" {
		sm.metrics.RecordSessionRead(metrics.SessionNone)
		return nil, nil
	}

	var ref Reference
	if err := sm.codec.Decode(sm.name, c.Value, &ref); err != nil {
		sm.log.Warn("session cookie rejected", zap.Error(err))
		sm.metrics.RecordSessionRead(metrics.SessionInvalid)
		return nil, nil
	}
	if ref.UID == "" || ref.MembershipID == "" {
		sm.log.Warn("session cookie missing fields")
		sm.metrics.RecordSessionRead(metrics.SessionInvalid)
		return nil, nil
	}
	oid, err := primitive.ObjectIDFromHex(ref.MembershipID)
	if err != nil {
		sm.log.Warn("session cookie has bad membership id", zap.String("membership_id", ref.MembershipID))
		sm.metrics.RecordSessionRead(metrics.SessionInvalid)
		return nil, nil
	}
	if sm.loader == nil {
		sm.metrics.RecordSessionRead(metrics.SessionError)
		return nil, fmt.Errorf("%w: no session loader configured", ErrDependencyUnavailable)
	}

	s, err := sm.loader.LoadSession(r.Context(), oid)
	if err != nil {
		sm.metrics.RecordSessionRead(metrics.SessionError)
		return nil, fmt.Errorf("%w: %v", ErrDependencyUnavailable, err)
	}
	if s == nil {
		sm.metrics.RecordSessionRead(metrics.SessionInvalid)
		return nil, nil
	}
	if s.Membership.GoogleUID != ref.UID {
		sm.log.Warn("session uid does not match membership",
			zap.String("membership_id", ref.MembershipID))
		sm.metrics.RecordSessionRead(metrics.SessionInvalid)
		return nil, nil
	}
	sm.metrics.RecordSessionRead(metrics.SessionValid)
	return s, nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| Request context                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

type ctxKey string

const currentSessionKey ctxKey = "currentSession"

// CurrentSession returns the session placed by LoadSession.
func CurrentSession(r *http.Request) (*Session, bool) {
	s, ok := r.Context().Value(currentSessionKey).(*Session)
	return s, ok && s != nil
}

// WithTestSession injects s into the request context. It mirrors what
// LoadSession does and exists for handler tests.
func WithTestSession(r *http.Request, s *Session) *http.Request {
	return withSession(r, s)
}

func withSession(r *http.Request, s *Session) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentSessionKey, s))
}

/*─────────────────────────────────────────────────────────────────────────────*
| Middleware                                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

// LoadSession reads the cookie and, when valid, puts the session in the
// request context. A database failure answers 503; a cookie that no longer
// maps to a live membership is cleared.
func (sm *SessionManager) LoadSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, err := sm.Read(r)
		if err != nil {
			sm.log.Error("session read failed", zap.Error(err), zap.String("path", r.URL.Path))
			jsonresp.Unavailable(w, r)
			return
		}
		if s == nil {
			if c, cerr := r.Cookie(sm.name); cerr == nil && c.Value != "" {
				sm.Clear(w)
			}
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, withSession(r, s))
	})
}

// RequireSignedIn ensures a session is in context (set by LoadSession).
// If not signed in and the path is not public:
//   - HTMX: sends HX-Redirect to /sign-in?return=...
//   - HTML: 303 redirect to /sign-in?return=...
//   - API:  401 with a JSON body.
func (sm *SessionManager) RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentSession(r); ok || IsPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}
		unauthorized(w, r)
	})
}

// RequireRole ensures the session's membership has one of the allowed roles.
func (sm *SessionManager) RequireRole(allowed ...string) func(http.Handler) http.Handler {
	set := make(map[string]struct{}, len(allowed))
	for _, role := range allowed {
		set[strings.ToLower(strings.TrimSpace(role))] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s, ok := CurrentSession(r)
			if !ok {
				unauthorized(w, r)
				return
			}
			if _, has := set[strings.ToLower(s.Membership.Role)]; !has {
				forbidden(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Guard is for handlers that render a signed-out state instead of
// redirecting. It returns the session, or a sign-in URL when there is none
// and anonymous access is not allowed. Public paths never get a sign-in URL.
func Guard(r *http.Request, allowAnonymous bool) (*Session, string) {
	if s, ok := CurrentSession(r); ok {
		return s, ""
	}
	if allowAnonymous || IsPublicPath(r.URL.Path) {
		return nil, ""
	}
	return nil, SignInURL(r.URL.RequestURI())
}

// SignInURL builds /sign-in?return=<ret>.
func SignInURL(ret string) string {
	if ret == "" {
		return SignInPath
	}
	return SignInPath + "?return=" + url.QueryEscape(ret)
}

func unauthorized(w http.ResponseWriter, r *http.Request) {
	dest := SignInURL(r.URL.RequestURI())

	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", dest)
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	if wantsHTML(r) {
		http.Redirect(w, r, dest, http.StatusSeeOther)
		return
	}
	jsonresp.Error(w, r, http.StatusUnauthorized, jsonresp.CodeUnauthorized, "sign in required")
}

func forbidden(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", "/forbidden")
		w.WriteHeader(http.StatusForbidden)
		return
	}
	if wantsHTML(r) {
		http.Redirect(w, r, "/forbidden", http.StatusSeeOther)
		return
	}
	jsonresp.Error(w, r, http.StatusForbidden, jsonresp.CodeForbidden, "you do not have access to this resource")
}

func wantsHTML(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}
