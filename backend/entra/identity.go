package entra

import (
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// tokenClaims is the subset of Entra ID access token claims the API reads.
type tokenClaims struct {
	jwt.RegisteredClaims
	ObjectID          string `json:"oid,omitempty"`
	Email             string `json:"email,omitempty"`
	PreferredUsername string `json:"preferred_username,omitempty"`
	Name              string `json:"name,omitempty"`
	TenantID          string `json:"tid,omitempty"`
}

// Identity is the verified claim set of a bearer token.
// Values are only produced by a successful Verifier.Verify and are immutable.
type Identity struct {
	subject   string
	email     string
	name      string
	tenantID  string
	audience  []string
	issuer    string
	expiresAt time.Time
}

func newIdentity(c *tokenClaims) *Identity {
	id := &Identity{
		subject:  c.ObjectID,
		email:    c.Email,
		name:     c.Name,
		tenantID: c.TenantID,
		audience: slices.Clone([]string(c.Audience)),
		issuer:   c.Issuer,
	}
	if id.subject == "" {
		id.subject = c.Subject
	}
	if id.email == "" {
		id.email = c.PreferredUsername
	}
	if c.ExpiresAt != nil {
		id.expiresAt = c.ExpiresAt.Time
	}
	return id
}

// Subject returns the object ID (oid), falling back to sub.
func (i *Identity) Subject() string { return i.subject }

// Email returns email, falling back to preferred_username.
func (i *Identity) Email() string { return i.email }

// Name returns the display name.
func (i *Identity) Name() string { return i.name }

// TenantID returns the tid claim.
func (i *Identity) TenantID() string { return i.tenantID }

// Audience returns a copy of the aud claim.
func (i *Identity) Audience() []string { return slices.Clone(i.audience) }

// Issuer returns the iss claim.
func (i *Identity) Issuer() string { return i.issuer }

// ExpiresAt returns the exp claim.
func (i *Identity) ExpiresAt() time.Time { return i.expiresAt }
