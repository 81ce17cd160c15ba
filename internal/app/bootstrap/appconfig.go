// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// WAFFLE's CoreConfig covers ports, TLS, logging, CORS and body limits.
// AppConfig is everything specific to School Suite: storage, the session
// cookie, Google sign-in, tenancy and audit settings.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session cookie configuration
	SessionKey      string        // HMAC key for signing session cookies, at least 32 bytes
	SessionBlockKey string        // optional AES key (16, 24 or 32 bytes) that encrypts the cookie
	SessionName     string        // cookie name (default: school-suite.session)
	SessionDomain   string        // cookie domain (blank means current host)
	SessionMaxAge   time.Duration // cookie lifetime

	// Google sign-in
	GoogleClientID     string // OAuth client id, also the ID token audience
	GoogleClientSecret string // enables the server-side code flow when set with BaseURL
	GoogleIssuer       string // OIDC issuer used for key discovery
	BaseURL            string // public origin for the code-flow callback (e.g., https://school.example.com)

	// Tenancy
	WorkspaceDomain string // when set, the only Google Workspace domain allowed to sign in
	DefaultRole     string // role given to new memberships that request none

	// Audit logging: "all", "db", "log" or "off"
	AuditLogAuth  string
	AuditLogAdmin string

	// Sign-in rate limiting per client IP and per Google account
	SignInRateLimit  int
	SignInRateWindow time.Duration
}
