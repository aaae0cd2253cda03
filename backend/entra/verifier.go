package entra

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// DefaultAuthorityHost is the public-cloud Entra ID login host.
const DefaultAuthorityHost = "https://login.microsoftonline.com"

// signingMethod is the only algorithm accepted for access tokens.
const signingMethod = "RS256"

// KeySource resolves a key ID to the RSA key that signed a token.
type KeySource interface {
	Resolve(ctx context.Context, kid string) (*rsa.PublicKey, error)
}

// Config holds configuration for Verifier
type Config struct {
	TenantID      string
	ClientID      string
	AuthorityHost string

	// AdditionalAudiences are accepted alongside ClientID, for example
	// the api://<client-id> application ID URI.
	AdditionalAudiences []string

	// ClockSkew is the leeway applied to exp and nbf.
	ClockSkew time.Duration
}

func (c Config) authority() string {
	host := c.AuthorityHost
	if host == "" {
		host = DefaultAuthorityHost
	}
	return strings.TrimRight(host, "/")
}

// Issuer returns the tenant-scoped v2.0 issuer URL.
func (c Config) Issuer() string {
	return fmt.Sprintf("%s/%s/v2.0", c.authority(), c.TenantID)
}

// JWKSURL returns the tenant's discovery keys URL.
func (c Config) JWKSURL() string {
	return fmt.Sprintf("%s/%s/discovery/v2.0/keys", c.authority(), c.TenantID)
}

// Verifier validates Entra ID bearer tokens: algorithm, signature, expiry,
// issuer and audience. All checks are mandatory.
type Verifier struct {
	keys      KeySource
	issuer    string
	audiences []string
	skew      time.Duration
	now       func() time.Time
	logger    *zap.Logger
}

// NewVerifier creates a Verifier that resolves signing keys through keys.
func NewVerifier(cfg Config, keys KeySource, logger *zap.Logger) *Verifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	audiences := []string{cfg.ClientID}
	for _, aud := range cfg.AdditionalAudiences {
		if aud != "" && !slices.Contains(audiences, aud) {
			audiences = append(audiences, aud)
		}
	}
	return &Verifier{
		keys:      keys,
		issuer:    cfg.Issuer(),
		audiences: audiences,
		skew:      cfg.ClockSkew,
		now:       time.Now,
		logger:    logger,
	}
}

// Verify validates tokenString and returns its identity. On failure the
// returned error matches exactly one of the Err* reasons.
func (v *Verifier) Verify(ctx context.Context, tokenString string) (*Identity, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return nil, fail(ErrMissingOrMalformedToken, nil)
	}

	// Inspect header and claims before touching the key resolver
	unverified := &tokenClaims{}
	token, _, err := jwt.NewParser().ParseUnverified(tokenString, unverified)
	if err != nil {
		return nil, fail(ErrMissingOrMalformedToken, err)
	}
	if alg := token.Method.Alg(); alg != signingMethod {
		return nil, fail(ErrSignatureInvalid, fmt.Errorf("unexpected signing method: %s", alg))
	}
	kid, _ := token.Header["kid"].(string)
	if kid == "" {
		return nil, fail(ErrUnknownSigningKey, errors.New("kid header not found"))
	}
	if unverified.ExpiresAt == nil {
		return nil, fail(ErrMissingOrMalformedToken, errors.New("exp claim not found"))
	}
	if v.now().After(unverified.ExpiresAt.Add(v.skew)) {
		return nil, fail(ErrExpired, fmt.Errorf("expired at %s", unverified.ExpiresAt.Time.UTC().Format(time.RFC3339)))
	}

	claims := &tokenClaims{}
	_, err = jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) {
			return v.keys.Resolve(ctx, kid)
		},
		jwt.WithValidMethods([]string{signingMethod}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(v.issuer),
		jwt.WithLeeway(v.skew),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		return nil, classify(err)
	}

	if !v.containsAudience(claims.Audience) {
		return nil, fail(ErrAudienceMismatch, fmt.Errorf("got %v", []string(claims.Audience)))
	}

	identity := newIdentity(claims)
	v.logger.Debug("token verified",
		zap.String("sub", identity.Subject()),
		zap.String("tid", identity.TenantID()))
	return identity, nil
}

// classify maps a jwt parse error to a failure reason
func classify(err error) error {
	switch {
	case errors.Is(err, ErrKeyFetchFailed):
		return fail(ErrUpstreamKeyFetch, err)
	case errors.Is(err, ErrSigningKeyNotFound), errors.Is(err, jwt.ErrTokenUnverifiable):
		return fail(ErrUnknownSigningKey, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return fail(ErrSignatureInvalid, err)
	case errors.Is(err, jwt.ErrTokenExpired), errors.Is(err, jwt.ErrTokenNotValidYet):
		return fail(ErrExpired, err)
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return fail(ErrIssuerMismatch, err)
	case errors.Is(err, jwt.ErrTokenInvalidAudience):
		return fail(ErrAudienceMismatch, err)
	default:
		return fail(ErrMissingOrMalformedToken, err)
	}
}

// containsAudience checks if aud contains any accepted audience
func (v *Verifier) containsAudience(aud jwt.ClaimStrings) bool {
	for _, a := range aud {
		if slices.Contains(v.audiences, a) {
			return true
		}
	}
	return false
}
