package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/upb/lifedash/middleware"
	"github.com/upb/lifedash/models"
	"github.com/upb/lifedash/utils"
	"go.uber.org/zap"
)

// requirePrincipal returns the caller or writes a 401
func requirePrincipal(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (*models.Principal, bool) {
	principal := middleware.GetPrincipalFromContext(r.Context())
	if principal == nil {
		logger.Warn("missing principal in context",
			zap.String("request_id", middleware.GetRequestIDFromContext(r.Context())))
		_ = utils.WriteUnauthorized(w, "Authentication required")
		return nil, false
	}
	return principal, true
}

// parseIDParam reads a UUID path parameter or writes a 400
func parseIDParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		_ = utils.WriteBadRequest(w, "Invalid "+name+" format", nil)
		return uuid.Nil, false
	}
	return id, true
}

// parsePagination reads limit and offset query parameters; zero means the repository default
func parsePagination(w http.ResponseWriter, r *http.Request) (limit, offset int, ok bool) {
	query := r.URL.Query()
	for name, dst := range map[string]*int{"limit": &limit, "offset": &offset} {
		raw := query.Get(name)
		if raw == "" {
			continue
		}
		value, err := strconv.Atoi(raw)
		if err != nil || value < 0 {
			_ = utils.WriteBadRequest(w, "Invalid "+name, map[string]interface{}{name: raw})
			return 0, 0, false
		}
		*dst = value
	}
	return limit, offset, true
}

// decodeAndValidate parses a JSON body into dst and runs struct validation
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}, logger *zap.Logger) bool {
	requestID := middleware.GetRequestIDFromContext(r.Context())

	if err := utils.DecodeJSON(r, dst); err != nil {
		logger.Warn("failed to parse request body",
			zap.String("request_id", requestID),
			zap.Error(err))
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return false
	}

	if err := utils.ValidateStruct(dst); err != nil {
		logger.Warn("request validation failed",
			zap.String("request_id", requestID),
			zap.Error(err))
		HandleValidationError(w, err, logger)
		return false
	}
	return true
}
