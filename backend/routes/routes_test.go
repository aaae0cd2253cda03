package routes

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/unified-workspace/backend/app"
	"github.com/upb/unified-workspace/backend/config"
	"github.com/upb/unified-workspace/backend/entra/entratest"
	"go.uber.org/zap"
)

type testServer struct {
	handler http.Handler
	issuer  *entratest.Issuer
}

func newTestServer(t *testing.T, mutate func(*config.Config)) *testServer {
	t.Helper()
	iss := entratest.NewIssuer(t)

	cfg := &config.Config{
		Environment: "development",
		Entra: config.EntraConfig{
			TenantID:       entratest.TenantID,
			ClientID:       entratest.ClientID,
			AuthorityHost:  iss.Server.URL,
			JWKSFetchBurst: 100,
		},
		Storage: config.StorageConfig{
			Backend: config.StorageFile,
			DataDir: t.TempDir(),
		},
		API: config.APIConfig{
			UpstreamFailureStatus: http.StatusUnauthorized,
			CORSAllowedOrigins:    []string{"http://localhost:5173"},
		},
		Observability: config.ObservabilityConfig{LogLevel: "info", MetricsEnabled: true},
	}
	if mutate != nil {
		mutate(cfg)
	}

	deps, err := app.NewDependencies(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = deps.Close(context.Background()) })

	return &testServer{handler: SetupRoutes(deps), issuer: iss}
}

func (s *testServer) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	return w
}

func TestAuthEndpoints(t *testing.T) {
	srv := newTestServer(t, nil)

	t.Run("me returns verified identity", func(t *testing.T) {
		w := srv.do(t, http.MethodGet, "/api/auth/me", srv.issuer.Token(t, nil), "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"id":"abc","email":"a@b.com","name":"A B","tenantId":"tenant1"}`, w.Body.String())
	})

	t.Run("validate returns authenticated user", func(t *testing.T) {
		w := srv.do(t, http.MethodGet, "/api/auth/validate", srv.issuer.Token(t, nil), "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"authenticated":true,"user":{"id":"abc","email":"a@b.com","name":"A B","tenantId":"tenant1"}}`, w.Body.String())
	})

	t.Run("unknown signing key", func(t *testing.T) {
		other, err := rsa.GenerateKey(rand.Reader, 2048)
		require.NoError(t, err)
		token := entratest.Sign(t, other, "rotated-kid", srv.issuer.Claims())

		w := srv.do(t, http.MethodGet, "/api/auth/validate", token, "")

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.JSONEq(t, `{"error":"Invalid or expired token"}`, w.Body.String())
	})

	t.Run("missing token", func(t *testing.T) {
		w := srv.do(t, http.MethodGet, "/api/auth/me", "", "")

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.JSONEq(t, `{"error":"Missing or invalid authorization header"}`, w.Body.String())
	})

	t.Run("wrong audience", func(t *testing.T) {
		token := srv.issuer.Token(t, map[string]interface{}{"aud": "someone-else"})

		w := srv.do(t, http.MethodGet, "/api/auth/me", token, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestUpstreamFailureStatus(t *testing.T) {
	srv := newTestServer(t, func(cfg *config.Config) {
		cfg.API.UpstreamFailureStatus = http.StatusServiceUnavailable
	})
	srv.issuer.SetUnavailable(true)

	w := srv.do(t, http.MethodGet, "/api/auth/me", srv.issuer.Token(t, nil), "")

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"error":"Authentication service unavailable"}`, w.Body.String())
}

func TestDashboardRoutes(t *testing.T) {
	srv := newTestServer(t, nil)

	t.Run("anonymous profile", func(t *testing.T) {
		w := srv.do(t, http.MethodGet, "/api/user/profile", "", "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"success":true,"data":{"id":"1","name":"John Doe","email":"john@example.com"}}`, w.Body.String())
	})

	t.Run("profile from identity", func(t *testing.T) {
		w := srv.do(t, http.MethodGet, "/api/user/profile", srv.issuer.Token(t, nil), "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"success":true,"data":{"id":"abc","name":"A B","email":"a@b.com"}}`, w.Body.String())
	})

	t.Run("invalid token on optional route", func(t *testing.T) {
		w := srv.do(t, http.MethodGet, "/api/user/profile", "not.a.jwt", "")

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("job summary", func(t *testing.T) {
		w := srv.do(t, http.MethodGet, "/api/jobs/summary", "", "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"success":true,"data":{"activeJobs":500,"jobMatchings":2,"expiringJobs":3}}`, w.Body.String())
	})
}

func TestRequireAuthMode(t *testing.T) {
	srv := newTestServer(t, func(cfg *config.Config) {
		cfg.API.RequireAuth = true
	})

	w := srv.do(t, http.MethodGet, "/api/tasks", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = srv.do(t, http.MethodGet, "/api/tasks", srv.issuer.Token(t, nil), "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestTaskLifecycle(t *testing.T) {
	srv := newTestServer(t, nil)

	w := srv.do(t, http.MethodPost, "/api/tasks", "", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"success":false,"error":"Title is required"}`, w.Body.String())

	w = srv.do(t, http.MethodPost, "/api/tasks", "", `{"title":"Review contracts"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	var created struct {
		Data struct {
			ID        string `json:"id"`
			Title     string `json:"title"`
			Completed bool   `json:"completed"`
			CreatedAt string `json:"createdAt"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "Review contracts", created.Data.Title)
	assert.False(t, created.Data.Completed)
	assert.NotEmpty(t, created.Data.CreatedAt)

	w = srv.do(t, http.MethodPatch, "/api/tasks/"+created.Data.ID, "", `{"completed":true}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"completed":true`)
	assert.Contains(t, w.Body.String(), `"title":"Review contracts"`)

	w = srv.do(t, http.MethodGet, "/api/tasks", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), created.Data.ID)

	w = srv.do(t, http.MethodDelete, "/api/tasks/"+created.Data.ID, "", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = srv.do(t, http.MethodPatch, "/api/tasks/"+created.Data.ID, "", `{"completed":false}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"success":false,"error":"Task not found"}`, w.Body.String())

	w = srv.do(t, http.MethodPatch, "/api/tasks/foo", "", `{"completed":true}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"success":false,"error":"Task not found"}`, w.Body.String())

	w = srv.do(t, http.MethodDelete, "/api/tasks/foo", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestQuickLinkLifecycle(t *testing.T) {
	srv := newTestServer(t, nil)

	w := srv.do(t, http.MethodPost, "/api/quick-links", "", `{"name":"Docs"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"success":false,"error":"Name and URL are required"}`, w.Body.String())

	w = srv.do(t, http.MethodPost, "/api/quick-links", "", `{"name":"Docs","url":"https://docs.example.com"}`)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"success":true,"data":{"id":1,"name":"Docs","route":"https://docs.example.com","icon":"FileText","isExternal":true}}`, w.Body.String())

	w = srv.do(t, http.MethodDelete, "/api/quick-links/abc", "", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"success":false,"error":"Invalid ID"}`, w.Body.String())

	w = srv.do(t, http.MethodDelete, "/api/quick-links/99", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"success":false,"error":"Quick link not found"}`, w.Body.String())

	w = srv.do(t, http.MethodDelete, "/api/quick-links/1", "", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = srv.do(t, http.MethodGet, "/api/quick-links", "", "")
	assert.JSONEq(t, `{"success":true,"data":[]}`, w.Body.String())
}

func TestInfrastructureRoutes(t *testing.T) {
	srv := newTestServer(t, nil)

	w := srv.do(t, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = srv.do(t, http.MethodGet, "/readyz", "", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = srv.do(t, http.MethodGet, "/api/nope", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"success":false,"error":"endpoint not found"}`, w.Body.String())

	srv.do(t, http.MethodGet, "/api/jobs/summary", "", "")
	w = srv.do(t, http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `workspace_auth_requests_total{mode="optional",outcome="anonymous"}`)
}

func TestMetricsDisabled(t *testing.T) {
	srv := newTestServer(t, func(cfg *config.Config) {
		cfg.Observability.MetricsEnabled = false
	})

	w := srv.do(t, http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
