package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/upb/unified-workspace/backend/models"
	"github.com/upb/unified-workspace/backend/services"
	"github.com/upb/unified-workspace/backend/utils"
	"go.uber.org/zap"
)

// QuickLinkService defines the quick link operations used by QuickLinkHandler
type QuickLinkService interface {
	ListQuickLinks(ctx context.Context) ([]*models.QuickLink, error)
	CreateQuickLink(ctx context.Context, input services.CreateQuickLinkInput) (*models.QuickLink, error)
	DeleteQuickLink(ctx context.Context, rawID string) error
}

// QuickLinkHandler handles quick link HTTP requests
type QuickLinkHandler struct {
	service QuickLinkService
	logger  *zap.Logger
}

// NewQuickLinkHandler creates a new QuickLinkHandler
func NewQuickLinkHandler(service QuickLinkService, logger *zap.Logger) *QuickLinkHandler {
	return &QuickLinkHandler{
		service: service,
		logger:  logger,
	}
}

// HandleList handles GET /api/quick-links
func (h *QuickLinkHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	links, err := h.service.ListQuickLinks(r.Context())
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, links)
}

// HandleCreate handles POST /api/quick-links
func (h *QuickLinkHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var input services.CreateQuickLinkInput
	if err := utils.DecodeJSON(r, &input); err != nil {
		HandleDecodeError(w, err, h.logger)
		return
	}

	link, err := h.service.CreateQuickLink(r.Context(), input)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteCreated(w, link)
}

// HandleDelete handles DELETE /api/quick-links/{id}
func (h *QuickLinkHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteQuickLink(r.Context(), chi.URLParam(r, "id")); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, DeletedResponse{Message: "Quick link deleted successfully"})
}
