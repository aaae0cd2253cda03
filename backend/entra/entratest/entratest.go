// Package entratest provides a fake Entra ID tenant for tests: a JWKS
// endpoint backed by a generated RSA key and helpers to mint tokens for it.
package entratest

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"github.com/upb/unified-workspace/backend/entra"
)

// Default identifiers of the fake tenant.
const (
	TenantID = "tenant1"
	ClientID = "client-123"
	KeyID    = "test-kid-1"
)

// Issuer is a fake tenant serving its JWKS over HTTP.
type Issuer struct {
	Server *httptest.Server
	Key    *rsa.PrivateKey
	KID    string

	fetches     atomic.Int64
	unavailable atomic.Bool
}

// NewIssuer starts a JWKS server for a freshly generated key. The server is
// closed when the test ends.
func NewIssuer(t testing.TB) *Issuer {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	iss := &Issuer{Key: key, KID: KeyID}
	iss.Server = httptest.NewServer(http.HandlerFunc(iss.serveJWKS))
	t.Cleanup(iss.Server.Close)
	return iss
}

func (i *Issuer) serveJWKS(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/"+TenantID+"/discovery/v2.0/keys" {
		http.NotFound(w, r)
		return
	}
	i.fetches.Add(1)
	if i.unavailable.Load() {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(entra.JWKS{Keys: []entra.JWK{PublicJWK(i.KID, &i.Key.PublicKey)}})
}

// PublicJWK encodes pub as an RS256 signing JWK.
func PublicJWK(kid string, pub *rsa.PublicKey) entra.JWK {
	return entra.JWK{
		Kid: kid,
		Kty: "RSA",
		Alg: "RS256",
		Use: "sig",
		N:   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
		E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
	}
}

// Config returns verifier configuration pointing at this tenant.
func (i *Issuer) Config() entra.Config {
	return entra.Config{
		TenantID:      TenantID,
		ClientID:      ClientID,
		AuthorityHost: i.Server.URL,
	}
}

// Fetches returns how many times the JWKS endpoint was hit.
func (i *Issuer) Fetches() int {
	return int(i.fetches.Load())
}

// SetUnavailable makes the JWKS endpoint answer 503.
func (i *Issuer) SetUnavailable(down bool) {
	i.unavailable.Store(down)
}

// Resolver returns a KeyResolver for this tenant with a generous fetch rate.
func (i *Issuer) Resolver() *entra.KeyResolver {
	return entra.NewKeyResolver(entra.KeyResolverConfig{
		JWKSURL:    i.Config().JWKSURL(),
		FetchBurst: 100,
	})
}

// Verifier returns a Verifier wired to a new Resolver.
func (i *Issuer) Verifier() *entra.Verifier {
	return entra.NewVerifier(i.Config(), i.Resolver(), nil)
}

// Claims returns a valid claim set for this tenant.
func (i *Issuer) Claims() jwt.MapClaims {
	now := time.Now()
	return jwt.MapClaims{
		"iss":   i.Config().Issuer(),
		"aud":   ClientID,
		"sub":   "subject-1",
		"oid":   "abc",
		"email": "a@b.com",
		"name":  "A B",
		"tid":   TenantID,
		"iat":   now.Unix(),
		"nbf":   now.Unix(),
		"exp":   now.Add(time.Hour).Unix(),
	}
}

// Token signs Claims merged with overrides. A nil override value deletes
// the claim.
func (i *Issuer) Token(t testing.TB, overrides jwt.MapClaims) string {
	t.Helper()
	return Sign(t, i.Key, i.KID, i.merge(overrides))
}

func (i *Issuer) merge(overrides jwt.MapClaims) jwt.MapClaims {
	claims := i.Claims()
	for k, v := range overrides {
		if v == nil {
			delete(claims, k)
			continue
		}
		claims[k] = v
	}
	return claims
}

// Identity mints a token and verifies it, returning a genuine Identity.
func (i *Issuer) Identity(t testing.TB, overrides jwt.MapClaims) *entra.Identity {
	t.Helper()
	id, err := i.Verifier().Verify(t.Context(), i.Token(t, overrides))
	require.NoError(t, err)
	return id
}

// Sign produces an RS256 token for claims with the given key and kid.
func Sign(t testing.TB, key *rsa.PrivateKey, kid string, claims jwt.Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = kid
	s, err := token.SignedString(key)
	require.NoError(t, err)
	return s
}
