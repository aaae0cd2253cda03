// Package sso hands the shell's access token to the applications it opens.
// The token is written to a store shared with the destination under a
// one-time handoff ID, and the ID travels in the destination URL.
package sso

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/upb/unified-workspace/internal/session"
	"go.uber.org/zap"
)

const (
	// TokenKey names the stored access token
	TokenKey = "msal.token"
	// HandoffParam is the query parameter carrying the handoff ID
	HandoffParam = "sso_handoff"

	DefaultTTL = 2 * time.Minute
)

var (
	ErrNotAuthenticated = errors.New("sso: user is not authenticated")
	ErrTokenUnavailable = errors.New("sso: failed to acquire access token")
)

// Session is the part of the session controller used for handoffs
type Session interface {
	State() session.State
	AccessToken(ctx context.Context) (string, bool)
}

// Opener opens a destination URL
type Opener interface {
	Open(ctx context.Context, url string) error
}

// OpenerFunc adapts a function to Opener
type OpenerFunc func(ctx context.Context, url string) error

// Open calls f
func (f OpenerFunc) Open(ctx context.Context, url string) error {
	return f(ctx, url)
}

// Navigator opens child applications with the current session's token
type Navigator struct {
	session Session
	store   Store
	opener  Opener
	ttl     time.Duration
	logger  *zap.Logger
	newID   func() string
}

// NewNavigator creates a Navigator. A non-positive ttl selects DefaultTTL.
func NewNavigator(s Session, store Store, opener Opener, ttl time.Duration, logger *zap.Logger) *Navigator {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Navigator{
		session: s,
		store:   store,
		opener:  opener,
		ttl:     ttl,
		logger:  logger,
		newID:   uuid.NewString,
	}
}

// NavigateWithSSO obtains a fresh token, stores it for the destination and
// opens rawURL with the handoff ID appended. Nothing is opened unless the
// token was stored.
func (n *Navigator) NavigateWithSSO(ctx context.Context, rawURL string) error {
	dest, err := url.Parse(rawURL)
	if err != nil || !dest.IsAbs() {
		return fmt.Errorf("sso: invalid destination %q", rawURL)
	}

	if !n.session.State().IsAuthenticated() {
		n.logger.Warn("sso navigation refused", zap.String("reason", "not authenticated"))
		return ErrNotAuthenticated
	}

	token, ok := n.session.AccessToken(ctx)
	if !ok {
		n.logger.Error("sso navigation aborted", zap.String("reason", "no access token"))
		return ErrTokenUnavailable
	}

	id := n.newID()
	if err := n.store.Put(ctx, id, token, n.ttl); err != nil {
		return fmt.Errorf("sso: failed to store token: %w", err)
	}

	q := dest.Query()
	q.Set(HandoffParam, id)
	dest.RawQuery = q.Encode()

	if err := n.opener.Open(ctx, dest.String()); err != nil {
		// Nothing will redeem the handoff now.
		if _, terr := n.store.Take(context.WithoutCancel(ctx), id); terr != nil && !errors.Is(terr, ErrHandoffNotFound) {
			n.logger.Warn("failed to discard sso handoff", zap.String("handoff", id), zap.Error(terr))
		}
		return fmt.Errorf("sso: failed to open destination: %w", err)
	}
	n.logger.Info("opened application with sso", zap.String("host", dest.Host), zap.String("handoff", id))
	return nil
}

// Redeem returns the token of handoff id and removes it. Child applications
// call this once with the ID from their URL.
func Redeem(ctx context.Context, store Store, id string) (string, error) {
	if _, err := uuid.Parse(id); err != nil {
		return "", ErrHandoffNotFound
	}
	return store.Take(ctx, id)
}
