package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/upb/lifedash/middleware"
	"github.com/upb/lifedash/models"
	"github.com/upb/lifedash/services"
	"github.com/upb/lifedash/services/featureflags"
	"github.com/upb/lifedash/utils"
	"go.uber.org/zap"
)

// FlagSource yields the current flag table
type FlagSource interface {
	Snapshot(ctx context.Context) (models.FeatureFlags, error)
}

// FeatureVisibilityResponse is the visibility of one feature for the caller
type FeatureVisibilityResponse struct {
	Key     models.FeatureKey `json:"key"`
	Visible bool              `json:"visible"`
}

// MeHandler serves the caller's identity and feature visibility
type MeHandler struct {
	flags  FlagSource
	logger *zap.Logger
}

// NewMeHandler creates a new MeHandler
func NewMeHandler(flags FlagSource, logger *zap.Logger) *MeHandler {
	return &MeHandler{
		flags:  flags,
		logger: logger,
	}
}

// HandleMe handles GET /api/v1/me
func (h *MeHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r, h.logger)
	if !ok {
		return
	}
	_ = utils.WriteOK(w, principal)
}

// HandleListFeatures handles GET /api/v1/features
func (h *MeHandler) HandleListFeatures(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r, h.logger)
	if !ok {
		return
	}

	flags, err := h.flags.Snapshot(r.Context())
	if err != nil {
		h.logger.Error("failed to load feature flags",
			zap.String("request_id", middleware.GetRequestIDFromContext(r.Context())),
			zap.Error(err))
		_ = utils.WriteInternalServerError(w, "Failed to load feature flags")
		return
	}

	_ = utils.WriteOK(w, featureflags.Visibility(flags, principal.IsAdmin()))
}

// HandleGetFeature handles GET /api/v1/features/{key}
func (h *MeHandler) HandleGetFeature(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r, h.logger)
	if !ok {
		return
	}

	key := models.FeatureKey(chi.URLParam(r, "key"))
	if !key.Valid() {
		HandleServiceError(w, services.ErrFeatureNotFound, h.logger)
		return
	}

	flags, err := h.flags.Snapshot(r.Context())
	if err != nil {
		h.logger.Error("failed to load feature flags",
			zap.String("request_id", middleware.GetRequestIDFromContext(r.Context())),
			zap.Error(err))
		_ = utils.WriteInternalServerError(w, "Failed to load feature flags")
		return
	}

	_ = utils.WriteOK(w, FeatureVisibilityResponse{
		Key:     key,
		Visible: featureflags.CanSeeFeature(flags, key, principal.IsAdmin()),
	})
}
