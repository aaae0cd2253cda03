package session

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// ErrNoCachedToken is returned by the silent flow when nothing usable is
// cached for the account.
var ErrNoCachedToken = errors.New("session: no cached token for account")

// Prompter shows the user what to do during interactive flows
type Prompter interface {
	ShowDeviceCode(ctx context.Context, da *oauth2.DeviceAuthResponse) error
	ShowSignOut(ctx context.Context, endSessionURL string) error
}

// WriterPrompter prints instructions to a terminal
type WriterPrompter struct {
	Out io.Writer
}

// ShowDeviceCode prints the verification URL and user code
func (p WriterPrompter) ShowDeviceCode(_ context.Context, da *oauth2.DeviceAuthResponse) error {
	_, err := fmt.Fprintf(p.Out, "To sign in, open %s and enter the code %s\n", da.VerificationURI, da.UserCode)
	return err
}

// ShowSignOut prints the browser sign-out URL
func (p WriterPrompter) ShowSignOut(_ context.Context, endSessionURL string) error {
	_, err := fmt.Fprintf(p.Out, "Signed out. To end the browser session too, open %s\n", endSessionURL)
	return err
}

// EntraProvider signs in against Microsoft Entra ID. The device code grant
// is the interactive flow and the refresh token grant the silent one.
type EntraProvider struct {
	oauth         *oauth2.Config
	endSessionURL string
	cache         TokenCache
	prompter      Prompter
	logger        *zap.Logger

	// busy holds a token while an interactive flow runs
	busy chan struct{}
}

// NewEntraProvider creates a provider for cfg
func NewEntraProvider(cfg *Config, cache TokenCache, prompter Prompter, logger *zap.Logger) *EntraProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EntraProvider{
		oauth: &oauth2.Config{
			ClientID: cfg.ClientID,
			Endpoint: cfg.Endpoint(),
			Scopes:   cfg.Scopes,
		},
		endSessionURL: cfg.EndSessionURL(),
		cache:         cache,
		prompter:      prompter,
		logger:        logger,
		busy:          make(chan struct{}, 1),
	}
}

// WaitIdle blocks until no interactive flow is running
func (p *EntraProvider) WaitIdle(ctx context.Context) error {
	select {
	case p.busy <- struct{}{}:
		<-p.busy
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// CachedAccount returns the account of the cached session, if any
func (p *EntraProvider) CachedAccount(context.Context) (*Account, error) {
	cached, err := p.cache.Load()
	if err != nil || cached == nil {
		return nil, err
	}
	return cached.Account, nil
}

// Login runs the device code flow and caches the resulting session
func (p *EntraProvider) Login(ctx context.Context) (*Account, error) {
	release, err := p.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	tok, err := p.deviceFlow(ctx)
	if err != nil {
		return nil, err
	}
	account, err := accountFromToken(tok)
	if err != nil {
		return nil, err
	}
	if err := p.cache.Save(&CachedSession{Account: account, Token: tok}); err != nil {
		return nil, err
	}
	return account, nil
}

// Logout forgets the cached session and points the user at the tenant's
// end-session page.
func (p *EntraProvider) Logout(ctx context.Context, _ *Account) error {
	release, err := p.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	if err := p.cache.Clear(); err != nil {
		return err
	}
	return p.prompter.ShowSignOut(ctx, p.endSessionURL)
}

// AcquireTokenSilent returns the cached access token, refreshing it with
// the refresh token when it has expired.
func (p *EntraProvider) AcquireTokenSilent(ctx context.Context, account *Account) (string, error) {
	cached, err := p.cache.Load()
	if err != nil {
		return "", err
	}
	if cached == nil || account == nil || cached.Account.HomeAccountID != account.HomeAccountID {
		return "", ErrNoCachedToken
	}

	tok, err := p.oauth.TokenSource(ctx, cached.Token).Token()
	if err != nil {
		return "", fmt.Errorf("token refresh failed: %w", err)
	}
	if tok.AccessToken != cached.Token.AccessToken {
		p.logger.Debug("access token refreshed", zap.Time("expiry", tok.Expiry))
		if err := p.cache.Save(&CachedSession{Account: cached.Account, Token: tok}); err != nil {
			p.logger.Warn("failed to cache refreshed token", zap.Error(err))
		}
	}
	return tok.AccessToken, nil
}

// AcquireTokenInteractive runs the device code flow again and replaces the
// cached session.
func (p *EntraProvider) AcquireTokenInteractive(ctx context.Context, account *Account) (string, error) {
	release, err := p.acquire(ctx)
	if err != nil {
		return "", err
	}
	defer release()

	tok, err := p.deviceFlow(ctx)
	if err != nil {
		return "", err
	}
	signedIn, err := accountFromToken(tok)
	if err != nil {
		signedIn = account
	}
	if err := p.cache.Save(&CachedSession{Account: signedIn, Token: tok}); err != nil {
		p.logger.Warn("failed to cache token", zap.Error(err))
	}
	return tok.AccessToken, nil
}

func (p *EntraProvider) acquire(ctx context.Context) (func(), error) {
	select {
	case p.busy <- struct{}{}:
		return func() { <-p.busy }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *EntraProvider) deviceFlow(ctx context.Context) (*oauth2.Token, error) {
	da, err := p.oauth.DeviceAuth(ctx)
	if err != nil {
		return nil, fmt.Errorf("device authorization failed: %w", err)
	}
	if err := p.prompter.ShowDeviceCode(ctx, da); err != nil {
		return nil, err
	}
	tok, err := p.oauth.DeviceAccessToken(ctx, da)
	if err != nil {
		return nil, fmt.Errorf("device token exchange failed: %w", err)
	}
	return tok, nil
}

// accountFromToken reads the account from the ID token returned alongside
// tok. The token comes straight from the token endpoint, so its signature
// is not checked here.
func accountFromToken(tok *oauth2.Token) (*Account, error) {
	raw, _ := tok.Extra("id_token").(string)
	if raw == "" {
		return nil, errors.New("token response carried no id_token")
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return nil, fmt.Errorf("failed to parse id_token: %w", err)
	}

	str := func(name string) string {
		v, _ := claims[name].(string)
		return v
	}
	subject := str("oid")
	if subject == "" {
		subject = str("sub")
	}
	username := str("preferred_username")
	if username == "" {
		username = str("email")
	}
	tenant := str("tid")

	return &Account{
		HomeAccountID: subject + "." + tenant,
		Username:      username,
		Name:          str("name"),
		TenantID:      tenant,
	}, nil
}
