package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/oauth2"
)

// fakeTenant serves the device code and token endpoints of one tenant
type fakeTenant struct {
	server    *httptest.Server
	refreshes atomic.Int32
	idToken   string
}

func newFakeTenant(t *testing.T) *fakeTenant {
	t.Helper()
	idToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"oid":                "abc",
		"tid":                "tenant1",
		"name":               "Alice",
		"preferred_username": "alice@example.com",
	}).SignedString([]byte("unused"))
	require.NoError(t, err)

	ft := &fakeTenant{idToken: idToken}
	mux := http.NewServeMux()
	mux.HandleFunc("/tenant1/oauth2/v2.0/devicecode", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]interface{}{
			"device_code":      "dev-code",
			"user_code":        "ABCD-EFGH",
			"verification_uri": "https://microsoft.com/devicelogin",
			"expires_in":       60,
			"interval":         1,
		})
	})
	mux.HandleFunc("/tenant1/oauth2/v2.0/token", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "client-123", r.Form.Get("client_id"))
		switch r.Form.Get("grant_type") {
		case "urn:ietf:params:oauth:grant-type:device_code":
			writeJSON(w, map[string]interface{}{
				"access_token":  "access-1",
				"refresh_token": "refresh-1",
				"token_type":    "Bearer",
				"expires_in":    3600,
				"id_token":      ft.idToken,
			})
		case "refresh_token":
			ft.refreshes.Add(1)
			assert.Equal(t, "refresh-1", r.Form.Get("refresh_token"))
			writeJSON(w, map[string]interface{}{
				"access_token":  "access-2",
				"refresh_token": "refresh-2",
				"token_type":    "Bearer",
				"expires_in":    3600,
			})
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	})
	ft.server = httptest.NewServer(mux)
	t.Cleanup(ft.server.Close)
	return ft
}

func writeJSON(w http.ResponseWriter, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(body)
}

type recordingPrompter struct {
	userCode   string
	signOutURL string
}

func (p *recordingPrompter) ShowDeviceCode(_ context.Context, da *oauth2.DeviceAuthResponse) error {
	p.userCode = da.UserCode
	return nil
}

func (p *recordingPrompter) ShowSignOut(_ context.Context, u string) error {
	p.signOutURL = u
	return nil
}

func newTestProvider(t *testing.T, ft *fakeTenant) (*EntraProvider, *FileTokenCache, *recordingPrompter) {
	t.Helper()
	cfg := &Config{
		TenantID:              "tenant1",
		ClientID:              "client-123",
		AuthorityHost:         ft.server.URL,
		Scopes:                defaultScopes("client-123"),
		PostLogoutRedirectURI: "http://localhost:5173",
	}
	cache := NewFileTokenCache(filepath.Join(t.TempDir(), "session.json"))
	prompter := &recordingPrompter{}
	return NewEntraProvider(cfg, cache, prompter, zaptest.NewLogger(t)), cache, prompter
}

func TestEntraProvider_Login(t *testing.T) {
	ft := newFakeTenant(t)
	p, cache, prompter := newTestProvider(t, ft)

	account, err := p.Login(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "ABCD-EFGH", prompter.userCode)
	assert.Equal(t, &Account{HomeAccountID: "abc.tenant1", Username: "alice@example.com", Name: "Alice", TenantID: "tenant1"}, account)

	cached, err := cache.Load()
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, "access-1", cached.Token.AccessToken)

	restored, err := p.CachedAccount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, account, restored)
}

func TestEntraProvider_AcquireTokenSilent(t *testing.T) {
	t.Run("valid cached token", func(t *testing.T) {
		ft := newFakeTenant(t)
		p, cache, _ := newTestProvider(t, ft)
		require.NoError(t, cache.Save(&CachedSession{Account: alice, Token: &oauth2.Token{
			AccessToken:  "access-1",
			RefreshToken: "refresh-1",
			Expiry:       time.Now().Add(time.Hour),
		}}))

		token, err := p.AcquireTokenSilent(context.Background(), alice)

		require.NoError(t, err)
		assert.Equal(t, "access-1", token)
		assert.Zero(t, ft.refreshes.Load())
	})

	t.Run("expired token is refreshed", func(t *testing.T) {
		ft := newFakeTenant(t)
		p, cache, _ := newTestProvider(t, ft)
		require.NoError(t, cache.Save(&CachedSession{Account: alice, Token: &oauth2.Token{
			AccessToken:  "access-1",
			RefreshToken: "refresh-1",
			Expiry:       time.Now().Add(-time.Minute),
		}}))

		token, err := p.AcquireTokenSilent(context.Background(), alice)

		require.NoError(t, err)
		assert.Equal(t, "access-2", token)
		assert.EqualValues(t, 1, ft.refreshes.Load())

		cached, err := cache.Load()
		require.NoError(t, err)
		assert.Equal(t, "refresh-2", cached.Token.RefreshToken)
	})

	t.Run("expired without refresh token", func(t *testing.T) {
		ft := newFakeTenant(t)
		p, cache, _ := newTestProvider(t, ft)
		require.NoError(t, cache.Save(&CachedSession{Account: alice, Token: &oauth2.Token{
			AccessToken: "access-1",
			Expiry:      time.Now().Add(-time.Minute),
		}}))

		_, err := p.AcquireTokenSilent(context.Background(), alice)
		assert.Error(t, err)
	})

	t.Run("nothing cached for account", func(t *testing.T) {
		ft := newFakeTenant(t)
		p, _, _ := newTestProvider(t, ft)

		_, err := p.AcquireTokenSilent(context.Background(), alice)
		assert.ErrorIs(t, err, ErrNoCachedToken)
	})
}

func TestEntraProvider_Logout(t *testing.T) {
	ft := newFakeTenant(t)
	p, cache, prompter := newTestProvider(t, ft)
	require.NoError(t, cache.Save(&CachedSession{Account: alice, Token: &oauth2.Token{AccessToken: "x"}}))

	require.NoError(t, p.Logout(context.Background(), alice))

	cached, err := cache.Load()
	require.NoError(t, err)
	assert.Nil(t, cached)
	assert.Equal(t, ft.server.URL+"/tenant1/oauth2/v2.0/logout?post_logout_redirect_uri=http%3A%2F%2Flocalhost%3A5173", prompter.signOutURL)
}

func TestEntraProvider_WaitIdle(t *testing.T) {
	ft := newFakeTenant(t)
	p, _, _ := newTestProvider(t, ft)

	require.NoError(t, p.WaitIdle(context.Background()))

	release, err := p.acquire(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, p.WaitIdle(ctx), context.DeadlineExceeded)

	release()
	assert.NoError(t, p.WaitIdle(context.Background()))
}

func TestAccountFromToken(t *testing.T) {
	t.Run("falls back to sub and email", func(t *testing.T) {
		raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub":   "sub-1",
			"email": "bob@example.com",
			"tid":   "t2",
		}).SignedString([]byte("k"))
		require.NoError(t, err)
		tok := (&oauth2.Token{AccessToken: "a"}).WithExtra(map[string]interface{}{"id_token": raw})

		account, err := accountFromToken(tok)

		require.NoError(t, err)
		assert.Equal(t, "sub-1.t2", account.HomeAccountID)
		assert.Equal(t, "bob@example.com", account.Username)
	})

	t.Run("missing id token", func(t *testing.T) {
		_, err := accountFromToken(&oauth2.Token{AccessToken: "a"})
		assert.Error(t, err)
	})
}
