package handlers

import (
	"net/http"

	"github.com/upb/unified-workspace/backend/middleware"
	"github.com/upb/unified-workspace/backend/models"
	"github.com/upb/unified-workspace/backend/services"
	"github.com/upb/unified-workspace/backend/utils"
	"go.uber.org/zap"
)

// ValidateResponse is the body of GET /api/auth/validate
type ValidateResponse struct {
	Authenticated bool                     `json:"authenticated"`
	User          models.AuthenticatedUser `json:"user"`
}

// AuthHandler serves the token inspection endpoints. Both routes sit
// behind the required gate, so a missing identity is a wiring fault.
type AuthHandler struct {
	logger *zap.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(logger *zap.Logger) *AuthHandler {
	return &AuthHandler{logger: logger}
}

// HandleValidate handles GET /api/auth/validate
func (h *AuthHandler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		h.missingIdentity(w)
		return
	}

	if err := utils.WriteJSON(w, http.StatusOK, ValidateResponse{
		Authenticated: true,
		User:          services.AuthenticatedUser(identity),
	}); err != nil {
		h.logger.Error("failed to write validate response", zap.Error(err))
	}
}

// HandleMe handles GET /api/auth/me
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		h.missingIdentity(w)
		return
	}

	if err := utils.WriteJSON(w, http.StatusOK, services.AuthenticatedUser(identity)); err != nil {
		h.logger.Error("failed to write me response", zap.Error(err))
	}
}

func (h *AuthHandler) missingIdentity(w http.ResponseWriter) {
	h.logger.Error("auth endpoint reached without identity")
	_ = utils.WriteAuthError(w, http.StatusInternalServerError, middleware.MsgInternalError)
}
