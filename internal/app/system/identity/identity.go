// internal/app/system/identity/identity.go
package identity

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"go.uber.org/zap"
)

// GoogleIssuer is the issuer Google signs ID tokens with.
const GoogleIssuer = "https://accounts.google.com"

// ErrInvalidCredential is returned (wrapped) for any credential the
// provider rejects: expired, malformed, wrong audience, bad signature or
// an unverified email.
var ErrInvalidCredential = errors.New("invalid credential")

// ErrProviderUnavailable is returned (wrapped) when the provider's signing
// keys cannot be fetched. It says nothing about the credential itself.
var ErrProviderUnavailable = errors.New("identity provider unavailable")

// Identity is what a verified credential tells us about the caller.
// Email is always provider-verified.
type Identity struct {
	UID   string
	Email string
	Name  string
}

// Verifier validates an opaque bearer credential.
type Verifier interface {
	Verify(ctx context.Context, credential string) (Identity, error)
}

// googleClaims is the subset of Google ID token claims we read.
type googleClaims struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
}

// OIDCVerifier verifies Google ID tokens against the provider's published keys.
type OIDCVerifier struct {
	verifier *oidc.IDTokenVerifier
	log      *zap.Logger
}

// NewOIDCVerifier discovers the provider at issuer and returns a verifier
// that requires clientID as the token audience. Discovery failure is returned
// so startup can fail fast.
func NewOIDCVerifier(ctx context.Context, issuer, clientID string, logger *zap.Logger) (*OIDCVerifier, error) {
	if issuer == "" {
		issuer = GoogleIssuer
	}
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("discover oidc provider %s: %w", issuer, err)
	}
	var meta struct {
		JWKSURL string `json:"jwks_uri"`
	}
	if err := provider.Claims(&meta); err != nil || meta.JWKSURL == "" {
		return nil, fmt.Errorf("oidc provider %s: missing jwks_uri", issuer)
	}
	return NewOIDCVerifierWithKeys(issuer, clientID, oidc.NewRemoteKeySet(ctx, meta.JWKSURL), logger), nil
}

// NewOIDCVerifierWithKeys builds a verifier over an existing key set,
// skipping discovery.
func NewOIDCVerifierWithKeys(issuer, clientID string, keys oidc.KeySet, logger *zap.Logger) *OIDCVerifier {
	return &OIDCVerifier{
		verifier: oidc.NewVerifier(issuer, keySet{keys}, &oidc.Config{ClientID: clientID}),
		log:      logger,
	}
}

// Verify checks the token signature, expiry and audience and returns the
// identity it carries.
func (v *OIDCVerifier) Verify(ctx context.Context, credential string) (Identity, error) {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return Identity{}, fmt.Errorf("%w: empty credential", ErrInvalidCredential)
	}

	// IDTokenVerifier flattens key set errors into text, so fetch failures
	// are reported back through the context.
	fetch := &fetchResult{}
	tok, err := v.verifier.Verify(context.WithValue(ctx, fetchResultKey{}, fetch), credential)
	if err != nil {
		if fetch.err != nil {
			v.log.Warn("id token keys unavailable", zap.Error(fetch.err))
			return Identity{}, fmt.Errorf("%w: %v", ErrProviderUnavailable, fetch.err)
		}
		v.log.Debug("id token rejected", zap.Error(err))
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}

	var c googleClaims
	if err := tok.Claims(&c); err != nil {
		return Identity{}, fmt.Errorf("%w: decode claims: %v", ErrInvalidCredential, err)
	}
	return fromClaims(tok.Subject, c)
}

// fromClaims builds an Identity, rejecting tokens without a subject or a
// verified email.
func fromClaims(subject string, c googleClaims) (Identity, error) {
	if strings.TrimSpace(subject) == "" {
		return Identity{}, fmt.Errorf("%w: missing subject", ErrInvalidCredential)
	}
	if strings.TrimSpace(c.Email) == "" {
		return Identity{}, fmt.Errorf("%w: missing email claim", ErrInvalidCredential)
	}
	if !c.EmailVerified {
		return Identity{}, fmt.Errorf("%w: email not verified", ErrInvalidCredential)
	}
	return Identity{
		UID:   subject,
		Email: strings.TrimSpace(c.Email),
		Name:  strings.TrimSpace(c.Name),
	}, nil
}

type fetchResultKey struct{}

type fetchResult struct{ err error }

// keySet wraps the remote key set and records key fetch failures on the
// fetchResult carried by the verification context.
type keySet struct{ inner oidc.KeySet }

func (k keySet) VerifySignature(ctx context.Context, jwt string) ([]byte, error) {
	payload, err := k.inner.VerifySignature(ctx, jwt)
	if err != nil && isFetchFailure(err) {
		if fr, ok := ctx.Value(fetchResultKey{}).(*fetchResult); ok {
			fr.err = err
		}
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	return payload, err
}

// isFetchFailure matches transport errors and go-oidc's "fetching keys"
// wrapper, which also covers non-200 and undecodable key responses.
func isFetchFailure(err error) bool {
	var ue *url.Error
	return errors.As(err, &ue) ||
		errors.Is(err, context.DeadlineExceeded) ||
		strings.HasPrefix(err.Error(), "fetching keys")
}

// rejectAll is used when no Google client id is configured.
type rejectAll struct{}

// RejectAll returns a Verifier that refuses every credential.
func RejectAll() Verifier { return rejectAll{} }

func (rejectAll) Verify(context.Context, string) (Identity, error) {
	return Identity{}, fmt.Errorf("%w: identity provider not configured", ErrInvalidCredential)
}

// VerifierFunc adapts a function to the Verifier interface.
type VerifierFunc func(ctx context.Context, credential string) (Identity, error)

// Verify calls f.
func (f VerifierFunc) Verify(ctx context.Context, credential string) (Identity, error) {
	return f(ctx, credential)
}
