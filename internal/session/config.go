package session

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/oauth2"
)

const defaultAuthorityHost = "https://login.microsoftonline.com"

// Config holds the workspace shell settings
type Config struct {
	TenantID              string
	ClientID              string
	AuthorityHost         string
	Scopes                []string
	PostLogoutRedirectURI string
	TokenCachePath        string
	APIBaseURL            string
	Handoff               HandoffConfig
}

// HandoffConfig selects the store shared with child applications
type HandoffConfig struct {
	// Store is file or redis. A memory store lives only as long as the
	// process that wrote it, so the shell refuses it; sso.OpenStore still
	// builds one for in-process use.
	Store    string
	Dir      string
	RedisURL string
	TTL      time.Duration
}

// LoadConfig reads the shell configuration from WORKSPACE_* and SSO_*
// environment variables, loading a .env file first when present.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load(".env")

	clientID := os.Getenv("WORKSPACE_CLIENT_ID")
	cfg := &Config{
		TenantID:              getEnv("WORKSPACE_TENANT_ID", "common"),
		ClientID:              clientID,
		AuthorityHost:         strings.TrimRight(getEnv("WORKSPACE_AUTHORITY_HOST", defaultAuthorityHost), "/"),
		Scopes:                getEnvAsList("WORKSPACE_SCOPES", defaultScopes(clientID)),
		PostLogoutRedirectURI: os.Getenv("WORKSPACE_POST_LOGOUT_REDIRECT_URI"),
		TokenCachePath:        getEnv("WORKSPACE_TOKEN_CACHE", defaultCachePath("session.json")),
		APIBaseURL:            strings.TrimRight(getEnv("WORKSPACE_API_URL", "http://localhost:3001"), "/"),
		Handoff: HandoffConfig{
			Store:    strings.ToLower(getEnv("SSO_STORE", "file")),
			Dir:      getEnv("SSO_DIR", defaultCachePath("handoff")),
			RedisURL: getEnv("SSO_REDIS_URL", "redis://localhost:6379/0"),
			TTL:      getEnvAsDuration("SSO_HANDOFF_TTL", 2*time.Minute),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration
func (c *Config) Validate() error {
	if c.ClientID == "" {
		return errors.New("WORKSPACE_CLIENT_ID is required")
	}
	if c.TenantID == "" {
		return errors.New("WORKSPACE_TENANT_ID is required")
	}
	if len(c.Scopes) == 0 {
		return errors.New("at least one scope is required")
	}
	switch c.Handoff.Store {
	case "file", "redis":
	case "memory":
		return errors.New("SSO_STORE=memory cannot hand tokens to another process; use file or redis")
	default:
		return fmt.Errorf("unknown SSO_STORE %q", c.Handoff.Store)
	}
	if c.Handoff.TTL <= 0 {
		return errors.New("SSO_HANDOFF_TTL must be positive")
	}
	return nil
}

// Endpoint returns the OAuth2 endpoints of the tenant
func (c *Config) Endpoint() oauth2.Endpoint {
	base := c.AuthorityHost + "/" + c.TenantID + "/oauth2/v2.0"
	return oauth2.Endpoint{
		AuthURL:       base + "/authorize",
		DeviceAuthURL: base + "/devicecode",
		TokenURL:      base + "/token",
		AuthStyle:     oauth2.AuthStyleInParams,
	}
}

// EndSessionURL returns the browser sign-out URL of the tenant
func (c *Config) EndSessionURL() string {
	u := c.AuthorityHost + "/" + c.TenantID + "/oauth2/v2.0/logout"
	if c.PostLogoutRedirectURI != "" {
		u += "?" + url.Values{"post_logout_redirect_uri": {c.PostLogoutRedirectURI}}.Encode()
	}
	return u
}

func defaultScopes(clientID string) []string {
	scopes := []string{"openid", "profile", "email", "offline_access"}
	if clientID != "" {
		scopes = append(scopes, "api://"+clientID+"/access_as_user")
	}
	return scopes
}

func defaultCachePath(name string) string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "unified-workspace", name)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(valueStr, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
