package session

import "context"

// IdentityProvider performs the interactive and silent flows against the
// identity provider on behalf of the Controller.
type IdentityProvider interface {
	// WaitIdle blocks until no interactive flow is in progress.
	WaitIdle(ctx context.Context) error
	// CachedAccount returns the account restored from the provider's own
	// cache, or nil when nobody is signed in.
	CachedAccount(ctx context.Context) (*Account, error)
	Login(ctx context.Context) (*Account, error)
	Logout(ctx context.Context, account *Account) error
	AcquireTokenSilent(ctx context.Context, account *Account) (string, error)
	AcquireTokenInteractive(ctx context.Context, account *Account) (string, error)
}
