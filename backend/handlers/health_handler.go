package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/upb/unified-workspace/backend/entra"
	"github.com/upb/unified-workspace/backend/repositories"
	"github.com/upb/unified-workspace/backend/utils"
	"go.uber.org/zap"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
	Keys      *KeyCacheStatus   `json:"signingKeys,omitempty"`
}

// KeyCacheStatus reports the signing key cache in readiness output
type KeyCacheStatus struct {
	Cached    int    `json:"cached"`
	FetchedAt string `json:"fetchedAt,omitempty"`
}

// KeyStats exposes signing key cache statistics
type KeyStats interface {
	Stats() entra.KeyResolverStats
}

// HealthHandler handles health-related HTTP requests
type HealthHandler struct {
	store  repositories.HealthChecker
	keys   KeyStats
	logger *zap.Logger
}

// NewHealthHandler creates a new HealthHandler. store and keys may be nil.
func NewHealthHandler(store repositories.HealthChecker, keys KeyStats, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		store:  store,
		keys:   keys,
		logger: logger,
	}
}

// HandleHealth handles GET /healthz
// Liveness only: always 200 while the process serves requests
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	_ = utils.WriteOK(w, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// HandleReadiness handles GET /readyz
func (h *HealthHandler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string)
	allHealthy := true

	if err := h.checkStore(ctx); err != nil {
		h.logger.Warn("store health check failed", zap.Error(err))
		checks["store"] = "unhealthy"
		allHealthy = false
	} else {
		checks["store"] = "healthy"
	}

	status := "healthy"
	httpStatus := http.StatusOK
	if !allHealthy {
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	}

	response := HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
	}
	// Key cache state is informational. Keys are fetched lazily, so an
	// empty cache does not make the service unready.
	if h.keys != nil {
		stats := h.keys.Stats()
		response.Keys = &KeyCacheStatus{Cached: stats.CachedKeys}
		if !stats.FetchedAt.IsZero() {
			response.Keys.FetchedAt = stats.FetchedAt.UTC().Format(time.RFC3339)
		}
	}

	if err := utils.WriteJSON(w, httpStatus, utils.Envelope{Success: allHealthy, Data: response}); err != nil {
		h.logger.Error("failed to write readiness response", zap.Error(err))
	}
}

func (h *HealthHandler) checkStore(ctx context.Context) error {
	if h.store == nil {
		return nil
	}
	return h.store.HealthCheck(ctx)
}
