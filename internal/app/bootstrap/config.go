// internal/app/bootstrap/config.go
package bootstrap

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/schoolsuite/internal/app/system/auditlog"
	"github.com/dalemusser/schoolsuite/internal/app/system/auth"
	"github.com/dalemusser/schoolsuite/internal/app/system/identity"
	"github.com/dalemusser/schoolsuite/internal/app/system/normalize"
	"github.com/dalemusser/schoolsuite/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for School Suite.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: SCHOOLSUITE_MONGO_URI, SCHOOLSUITE_WORKSPACE_DOMAIN, etc.
//   - Command-line flags: --mongo_uri, --workspace_domain, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "school_suite", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	// Session cookie
	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key, at least 32 bytes (must be strong in production)"},
	{Name: "session_block_key", Default: "", Desc: "Optional session encryption key (16, 24 or 32 bytes)"},
	{Name: "session_name", Default: auth.DefaultCookieName, Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "168h", Desc: "Session cookie lifetime (e.g., 24h, 168h)"},

	// Google sign-in
	{Name: "google_client_id", Default: "", Desc: "Google OAuth2 client ID (ID token audience)"},
	{Name: "google_client_secret", Default: "", Desc: "Google OAuth2 client secret (enables /auth/google)"},
	{Name: "google_issuer", Default: identity.GoogleIssuer, Desc: "OIDC issuer for ID token verification"},
	{Name: "base_url", Default: "", Desc: "Public base URL for the Google callback (e.g., https://school.example.com)"},

	// Tenancy
	{Name: "workspace_domain", Default: "", Desc: "Only allow sign-in from this Google Workspace domain"},
	{Name: "default_role", Default: models.RoleAdmin, Desc: "Role for new memberships that request none: 'admin' or 'staff'"},

	// Audit logging settings
	{Name: "audit_log_auth", Default: auditlog.All, Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_admin", Default: auditlog.All, Desc: "Admin event logging: 'all' (db+log), 'db', 'log', or 'off'"},

	// Sign-in rate limiting
	{Name: "signin_rate_limit", Default: 10, Desc: "Sign-in attempts allowed per IP and per account within the window (0 disables)"},
	{Name: "signin_rate_window", Default: "1m", Desc: "Sign-in rate limit window (e.g., 1m, 5m)"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig merges .env files, config files,
// environment variables (WAFFLE_* for core, SCHOOLSUITE_* for app) and
// flags, with precedence flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "SCHOOLSUITE", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		// Session
		SessionKey:      appValues.String("session_key"),
		SessionBlockKey: appValues.String("session_block_key"),
		SessionName:     appValues.String("session_name"),
		SessionDomain:   appValues.String("session_domain"),
		SessionMaxAge:   appValues.Duration("session_max_age", auth.DefaultMaxAge),

		// Google
		GoogleClientID:     strings.TrimSpace(appValues.String("google_client_id")),
		GoogleClientSecret: appValues.String("google_client_secret"),
		GoogleIssuer:       appValues.String("google_issuer"),
		BaseURL:            strings.TrimRight(appValues.String("base_url"), "/"),

		// Tenancy
		WorkspaceDomain: normalize.Domain(appValues.String("workspace_domain")),
		DefaultRole:     normalize.Role(appValues.String("default_role")),

		// Audit logging
		AuditLogAuth:  appValues.String("audit_log_auth"),
		AuditLogAdmin: appValues.String("audit_log_admin"),

		// Rate limiting
		SignInRateLimit:  appValues.Int("signin_rate_limit"),
		SignInRateWindow: appValues.Duration("signin_rate_window", time.Minute),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Every problem is reported at once so a misconfigured deploy can be fixed
// in one pass.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	var errs []error

	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		errs = append(errs, fmt.Errorf("invalid MongoDB URI: %w", err))
	}
	if strings.TrimSpace(appCfg.MongoDatabase) == "" {
		errs = append(errs, errors.New("mongo_database is required"))
	}

	if len(appCfg.SessionKey) < 32 {
		errs = append(errs, fmt.Errorf("session_key must be at least 32 bytes, got %d", len(appCfg.SessionKey)))
	}
	switch len(appCfg.SessionBlockKey) {
	case 0, 16, 24, 32:
	default:
		errs = append(errs, fmt.Errorf("session_block_key must be empty or 16, 24 or 32 bytes, got %d", len(appCfg.SessionBlockKey)))
	}
	if appCfg.SessionMaxAge <= 0 {
		errs = append(errs, errors.New("session_max_age must be positive"))
	}

	// No client id is allowed: sign-in is then refused until one is set.
	if appCfg.GoogleClientID == "" && appCfg.GoogleClientSecret != "" {
		errs = append(errs, errors.New("google_client_secret requires google_client_id"))
	}
	if appCfg.GoogleClientSecret != "" && !strings.HasPrefix(appCfg.BaseURL, "http") {
		errs = append(errs, errors.New("google_client_secret requires an absolute base_url for the callback"))
	}

	if !models.ValidRole(appCfg.DefaultRole) {
		errs = append(errs, fmt.Errorf("default_role must be %q or %q, got %q", models.RoleAdmin, models.RoleStaff, appCfg.DefaultRole))
	}
	if appCfg.WorkspaceDomain != "" && !validDomain(appCfg.WorkspaceDomain) {
		errs = append(errs, fmt.Errorf("workspace_domain %q is not a domain name", appCfg.WorkspaceDomain))
	}

	if !auditlog.ValidSetting(appCfg.AuditLogAuth) {
		errs = append(errs, fmt.Errorf("audit_log_auth must be all, db, log or off, got %q", appCfg.AuditLogAuth))
	}
	if !auditlog.ValidSetting(appCfg.AuditLogAdmin) {
		errs = append(errs, fmt.Errorf("audit_log_admin must be all, db, log or off, got %q", appCfg.AuditLogAdmin))
	}

	if appCfg.SignInRateLimit < 0 {
		errs = append(errs, errors.New("signin_rate_limit must not be negative"))
	}
	if appCfg.SignInRateLimit > 0 && appCfg.SignInRateWindow <= 0 {
		errs = append(errs, errors.New("signin_rate_window must be positive when rate limiting is on"))
	}

	return errors.Join(errs...)
}

// validDomain accepts lower-case dotted names like "school.edu": at least two
// labels of letters, digits and inner hyphens.
func validDomain(d string) bool {
	labels := strings.Split(d, ".")
	if len(labels) < 2 || len(d) > 253 {
		return false
	}
	for _, l := range labels {
		if l == "" || len(l) > 63 || l[0] == '-' || l[len(l)-1] == '-' {
			return false
		}
		for _, c := range l {
			if !(c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c == '-') {
				return false
			}
		}
	}
	return true
}
