package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/upb/lifedash/middleware"
	"github.com/upb/lifedash/models"
	"github.com/upb/lifedash/repositories"
	"github.com/upb/lifedash/services"
	"github.com/upb/lifedash/services/featureflags"
	"github.com/upb/lifedash/utils"
	"go.uber.org/zap"
)

// AuditReader reads persisted audit records
type AuditReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.AuditLog, error)
	List(ctx context.Context, filter models.AuditFilter) ([]*models.AuditLog, error)
}

// AuditHandler serves the admin audit log viewer
type AuditHandler struct {
	reader AuditReader
	flags  FlagSource
	logger *zap.Logger
}

// NewAuditHandler creates a new AuditHandler
func NewAuditHandler(reader AuditReader, flags FlagSource, logger *zap.Logger) *AuditHandler {
	return &AuditHandler{
		reader: reader,
		flags:  flags,
		logger: logger,
	}
}

// viewerVisible writes a refusal unless the audit_viewer feature is visible to the caller
func (h *AuditHandler) viewerVisible(w http.ResponseWriter, r *http.Request) bool {
	principal, ok := requirePrincipal(w, r, h.logger)
	if !ok {
		return false
	}

	flags, err := h.flags.Snapshot(r.Context())
	if err != nil {
		h.logger.Error("failed to load feature flags",
			zap.String("request_id", middleware.GetRequestIDFromContext(r.Context())),
			zap.Error(err))
		_ = utils.WriteInternalServerError(w, "Failed to load feature flags")
		return false
	}

	if !featureflags.CanSeeFeature(flags, models.FeatureAuditViewer, principal.IsAdmin()) {
		HandleServiceError(w, services.ErrForbidden, h.logger)
		return false
	}
	return true
}

// HandleList handles GET /api/v1/audit/logs
// Filters: module, action, actor_id, limit, offset
func (h *AuditHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	if !h.viewerVisible(w, r) {
		return
	}

	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)
	query := r.URL.Query()

	limit, offset, ok := parsePagination(w, r)
	if !ok {
		return
	}

	filter := models.AuditFilter{
		EntityType: query.Get("module"),
		Action:     query.Get("action"),
		Limit:      limit,
		Offset:     offset,
	}
	if raw := query.Get("actor_id"); raw != "" {
		actorID, err := uuid.Parse(raw)
		if err != nil {
			_ = utils.WriteBadRequest(w, "Invalid actor_id format", nil)
			return
		}
		filter.ActorUserID = &actorID
	}

	logs, err := h.reader.List(ctx, filter)
	if err != nil {
		h.logger.Error("failed to list audit logs",
			zap.String("request_id", requestID),
			zap.Error(err))
		_ = utils.WriteInternalServerError(w, "Failed to retrieve audit logs")
		return
	}

	h.logger.Debug("listed audit logs",
		zap.String("request_id", requestID),
		zap.Int("count", len(logs)))

	_ = utils.WriteOK(w, logs)
}

// HandleGet handles GET /api/v1/audit/logs/{id}
func (h *AuditHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	if !h.viewerVisible(w, r) {
		return
	}

	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	log, err := h.reader.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			_ = utils.WriteNotFound(w, "Audit log not found")
			return
		}
		h.logger.Error("failed to get audit log",
			zap.String("request_id", middleware.GetRequestIDFromContext(r.Context())),
			zap.Error(err))
		_ = utils.WriteInternalServerError(w, "Failed to retrieve audit log")
		return
	}

	_ = utils.WriteOK(w, log)
}
