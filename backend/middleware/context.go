package middleware

import (
	"context"

	"github.com/upb/unified-workspace/backend/entra"
)

// Context key type to avoid collisions
type contextKey string

// IdentityKey is the context key for the verified token identity
const IdentityKey contextKey = "identity"

// WithIdentity adds a verified identity to the context
func WithIdentity(ctx context.Context, identity *entra.Identity) context.Context {
	return context.WithValue(ctx, IdentityKey, identity)
}

// IdentityFromContext retrieves the verified identity from context.
// The second result is false for anonymous requests.
func IdentityFromContext(ctx context.Context) (*entra.Identity, bool) {
	identity, ok := ctx.Value(IdentityKey).(*entra.Identity)
	return identity, ok && identity != nil
}
