package handlers

import (
	"net/http"

	"github.com/upb/lifedash/services"
	"github.com/upb/lifedash/utils"
	"go.uber.org/zap"
)

// HandleServiceError maps domain errors to HTTP responses
func HandleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if err == nil {
		return
	}

	details := services.GetErrorDetails(err)
	errType := services.GetErrorType(err)

	var writeErr error
	switch errType {
	case services.ErrorTypeNotFound:
		writeErr = utils.WriteNotFound(w, err.Error())

	case services.ErrorTypeValidation:
		writeErr = utils.WriteBadRequest(w, err.Error(), details)

	case services.ErrorTypeUnauthenticated:
		writeErr = utils.WriteUnauthorized(w, err.Error())

	case services.ErrorTypeForbidden:
		writeErr = utils.WriteForbidden(w, err.Error())

	case services.ErrorTypeModuleLocked, services.ErrorTypeFeatureDisabled:
		writeErr = utils.WriteLocked(w, string(errType), err.Error(), details)

	case services.ErrorTypeCheckFailed:
		// the cause stays in the log; clients only learn the check could not run
		logger.Error("write policy check failed", zap.Error(err))
		writeErr = utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse{
			Error:   "lock_check_failed",
			Message: "Could not verify write policy",
		})

	case services.ErrorTypeInternal:
		logger.Error("internal server error", zap.Error(err))
		writeErr = utils.WriteInternalServerError(w, "An internal error occurred")

	default:
		logger.Error("unhandled error type",
			zap.Error(err),
			zap.String("error_type", string(errType)))
		writeErr = utils.WriteInternalServerError(w, "An unexpected error occurred")
	}

	if writeErr != nil {
		logger.Error("failed to write error response", zap.Error(writeErr))
	}
}

// HandleValidationError handles validation errors from request parsing
func HandleValidationError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if utils.IsValidationError(err) {
		fields := utils.GetValidationFields(err)
		details := make(map[string]interface{})
		for k, v := range fields {
			details[k] = v
		}
		if err := utils.WriteBadRequest(w, "Validation failed", details); err != nil {
			logger.Error("failed to write validation error response", zap.Error(err))
		}
		return
	}

	if err := utils.WriteBadRequest(w, err.Error(), nil); err != nil {
		logger.Error("failed to write validation error response", zap.Error(err))
	}
}
