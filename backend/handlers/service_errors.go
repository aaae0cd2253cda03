package handlers

import (
	"net/http"

	"github.com/upb/unified-workspace/backend/services"
	"github.com/upb/unified-workspace/backend/utils"
	"go.uber.org/zap"
)

// HandleServiceError maps domain errors to envelope responses
func HandleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if err == nil {
		return
	}

	message := services.PublicMessage(err)

	var writeErr error
	switch {
	case services.IsNotFoundError(err):
		writeErr = utils.WriteNotFound(w, message)

	case services.IsValidationError(err):
		writeErr = utils.WriteBadRequest(w, message)

	case services.IsInternalError(err):
		// The wrapped cause stays in the log
		logger.Error("internal server error", zap.Error(err))
		writeErr = utils.WriteInternalServerError(w, message)

	default:
		logger.Error("unhandled error type",
			zap.Error(err),
			zap.String("error_type", string(services.GetErrorType(err))))
		writeErr = utils.WriteInternalServerError(w, "An unexpected error occurred")
	}

	if writeErr != nil {
		logger.Error("failed to write error response", zap.Error(writeErr))
	}
}

// HandleDecodeError answers a request whose body could not be decoded
func HandleDecodeError(w http.ResponseWriter, err error, logger *zap.Logger) {
	logger.Debug("invalid request body", zap.Error(err))
	if err := utils.WriteBadRequest(w, "Invalid request body"); err != nil {
		logger.Error("failed to write bad request response", zap.Error(err))
	}
}
