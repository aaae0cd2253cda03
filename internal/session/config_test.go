package session

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		os.Clearenv()
		t.Setenv("WORKSPACE_CLIENT_ID", "client-123")
		t.Setenv("WORKSPACE_TENANT_ID", "tenant1")

		cfg, err := LoadConfig()
		require.NoError(t, err)

		assert.Equal(t, "https://login.microsoftonline.com", cfg.AuthorityHost)
		assert.Equal(t, []string{"openid", "profile", "email", "offline_access", "api://client-123/access_as_user"}, cfg.Scopes)
		assert.Equal(t, "http://localhost:3001", cfg.APIBaseURL)
		assert.Equal(t, "file", cfg.Handoff.Store)
		assert.Equal(t, 2*time.Minute, cfg.Handoff.TTL)
		assert.Equal(t, "https://login.microsoftonline.com/tenant1/oauth2/v2.0/devicecode", cfg.Endpoint().DeviceAuthURL)
		assert.Equal(t, "https://login.microsoftonline.com/tenant1/oauth2/v2.0/logout", cfg.EndSessionURL())
	})

	t.Run("overrides", func(t *testing.T) {
		os.Clearenv()
		t.Setenv("WORKSPACE_CLIENT_ID", "client-123")
		t.Setenv("WORKSPACE_AUTHORITY_HOST", "https://login.microsoftonline.us/")
		t.Setenv("WORKSPACE_SCOPES", "openid, User.Read,")
		t.Setenv("SSO_STORE", "REDIS")
		t.Setenv("SSO_HANDOFF_TTL", "30s")

		cfg, err := LoadConfig()
		require.NoError(t, err)

		assert.Equal(t, "common", cfg.TenantID)
		assert.Equal(t, "https://login.microsoftonline.us", cfg.AuthorityHost)
		assert.Equal(t, []string{"openid", "User.Read"}, cfg.Scopes)
		assert.Equal(t, "redis", cfg.Handoff.Store)
		assert.Equal(t, 30*time.Second, cfg.Handoff.TTL)
	})

	t.Run("client id required", func(t *testing.T) {
		os.Clearenv()

		_, err := LoadConfig()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "WORKSPACE_CLIENT_ID")
	})

	t.Run("unknown store", func(t *testing.T) {
		os.Clearenv()
		t.Setenv("WORKSPACE_CLIENT_ID", "client-123")
		t.Setenv("SSO_STORE", "cookies")

		_, err := LoadConfig()
		assert.Error(t, err)
	})

	t.Run("memory store refused", func(t *testing.T) {
		os.Clearenv()
		t.Setenv("WORKSPACE_CLIENT_ID", "client-123")
		t.Setenv("SSO_STORE", "memory")

		_, err := LoadConfig()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "SSO_STORE=memory")
	})
}
