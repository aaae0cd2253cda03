package handlers

import (
	"net/http"

	"github.com/upb/unified-workspace/backend/entra"
	"github.com/upb/unified-workspace/backend/middleware"
	"github.com/upb/unified-workspace/backend/models"
	"github.com/upb/unified-workspace/backend/utils"
)

// ProfileService defines the read-only dashboard data
type ProfileService interface {
	Profile(identity *entra.Identity) models.User
	JobSummary() models.JobSummary
}

// DashboardHandler serves the profile and job summary
type DashboardHandler struct {
	service ProfileService
}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler(service ProfileService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// HandleProfile handles GET /api/user/profile
func (h *DashboardHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.IdentityFromContext(r.Context())
	_ = utils.WriteOK(w, h.service.Profile(identity))
}

// HandleJobSummary handles GET /api/jobs/summary
func (h *DashboardHandler) HandleJobSummary(w http.ResponseWriter, r *http.Request) {
	_ = utils.WriteOK(w, h.service.JobSummary())
}
