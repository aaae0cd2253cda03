// Package session drives sign-in for the workspace shell. A Controller
// holds the current account and loading flag and hands out access tokens,
// delegating the actual flows to an IdentityProvider.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// ErrInteractionInProgress is returned when Login or Logout is called while
// another interactive flow has not finished.
var ErrInteractionInProgress = errors.New("session: interaction already in progress")

// Controller owns the session state of one shell process
type Controller struct {
	provider IdentityProvider
	logger   *zap.Logger
	redirect func(path string)

	mu          sync.Mutex
	state       State
	interacting bool
	subscribers []chan State
}

// Option configures a Controller
type Option func(*Controller)

// WithLogger sets the controller logger
func WithLogger(logger *zap.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithPostLogoutRedirect sets the hook called with "/" after a successful
// sign-out.
func WithPostLogoutRedirect(fn func(path string)) Option {
	return func(c *Controller) {
		c.redirect = fn
	}
}

// NewController creates a Controller in the loading state. Call Init to
// restore any cached account.
func NewController(provider IdentityProvider, opts ...Option) *Controller {
	c := &Controller{
		provider: provider,
		logger:   zap.NewNop(),
		redirect: func(string) {},
		state:    State{IsLoading: true},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Init waits for any in-flight interaction to settle, restores the cached
// account and clears the loading flag.
func (c *Controller) Init(ctx context.Context) error {
	if err := c.provider.WaitIdle(ctx); err != nil {
		return fmt.Errorf("waiting for identity provider: %w", err)
	}

	account, err := c.provider.CachedAccount(ctx)
	if err != nil {
		c.logger.Warn("failed to restore cached account", zap.Error(err))
		account = nil
	}

	c.mu.Lock()
	c.state = State{Account: account, IsLoading: false}
	c.publishLocked()
	c.mu.Unlock()
	return nil
}

// Login runs the interactive sign-in flow. A failure is returned after the
// loading flag is reset; it is never retried.
func (c *Controller) Login(ctx context.Context) error {
	if err := c.beginInteraction(); err != nil {
		return err
	}

	account, err := c.provider.Login(ctx)
	if err == nil && account == nil {
		err = errors.New("identity provider returned no account")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.interacting = false
	c.state.IsLoading = false
	if err != nil {
		c.publishLocked()
		c.logger.Error("login failed", zap.Error(err))
		return fmt.Errorf("login failed: %w", err)
	}
	c.state.Account = account
	c.publishLocked()
	c.logger.Info("signed in", zap.String("username", account.Username))
	return nil
}

// Logout runs the interactive sign-out flow, clears the account and
// redirects to the application root.
func (c *Controller) Logout(ctx context.Context) error {
	if err := c.beginInteraction(); err != nil {
		return err
	}

	c.mu.Lock()
	account := c.state.Account
	c.mu.Unlock()

	err := c.provider.Logout(ctx, account)

	c.mu.Lock()
	c.interacting = false
	c.state.IsLoading = false
	if err == nil {
		c.state.Account = nil
	}
	c.publishLocked()
	c.mu.Unlock()

	if err != nil {
		c.logger.Error("logout failed", zap.Error(err))
		return fmt.Errorf("logout failed: %w", err)
	}
	c.redirect("/")
	return nil
}

// AccessToken returns a fresh access token, trying the silent flow first
// and the interactive flow second. ok is false when no token could be
// obtained, including when nobody is signed in.
func (c *Controller) AccessToken(ctx context.Context) (token string, ok bool) {
	c.mu.Lock()
	account := c.state.Account
	c.mu.Unlock()
	if account == nil {
		return "", false
	}

	token, err := c.provider.AcquireTokenSilent(ctx, account)
	if err == nil && token != "" {
		return token, true
	}
	c.logger.Warn("silent token acquisition failed, attempting interactive", zap.Error(err))

	token, err = c.provider.AcquireTokenInteractive(ctx, account)
	if err != nil || token == "" {
		c.logger.Error("interactive token acquisition failed", zap.Error(err))
		return "", false
	}
	return token, true
}

// State returns the current session snapshot
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Subscribe returns a channel that receives the latest state after every
// change. Slow readers only see the most recent snapshot.
func (c *Controller) Subscribe() <-chan State {
	ch := make(chan State, 1)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscribers = append(c.subscribers, ch)
	ch <- c.snapshotLocked()
	return ch
}

func (c *Controller) beginInteraction() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.interacting {
		return ErrInteractionInProgress
	}
	c.interacting = true
	c.state.IsLoading = true
	c.publishLocked()
	return nil
}

func (c *Controller) snapshotLocked() State {
	s := c.state
	if s.Account != nil {
		a := *s.Account
		s.Account = &a
	}
	return s
}

func (c *Controller) publishLocked() {
	s := c.snapshotLocked()
	for _, ch := range c.subscribers {
		select {
		case <-ch:
		default:
		}
		ch <- s
	}
}
