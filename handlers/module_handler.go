package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/upb/lifedash/middleware"
	"github.com/upb/lifedash/models"
	"github.com/upb/lifedash/services/access"
	"github.com/upb/lifedash/utils"
	"go.uber.org/zap"
)

// WriteProbe answers whether the caller may write to a module
type WriteProbe interface {
	CanWrite(ctx context.Context, principal *models.Principal, module models.ModuleKey) (access.WriteContext, error)
}

// LockManager lists and changes module locks
type LockManager interface {
	List(ctx context.Context) ([]*models.ModuleLock, error)
	SetLock(ctx context.Context, actor *models.Principal, module models.ModuleKey, locked bool, reason string) (*models.ModuleLock, error)
}

// SetLockRequest represents a request to lock or unlock a module
type SetLockRequest struct {
	Locked *bool  `json:"locked" validate:"required"`
	Reason string `json:"reason" validate:"max=500"`
}

// ModuleHandler serves the write probe and lock administration
type ModuleHandler struct {
	probe  WriteProbe
	locks  LockManager
	logger *zap.Logger
}

// NewModuleHandler creates a new ModuleHandler
func NewModuleHandler(probe WriteProbe, locks LockManager, logger *zap.Logger) *ModuleHandler {
	return &ModuleHandler{
		probe:  probe,
		locks:  locks,
		logger: logger,
	}
}

// HandleCanWrite handles GET /api/v1/modules/{module}/can-write.
// Anonymous callers get canWrite=false rather than a 401.
func (h *ModuleHandler) HandleCanWrite(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	module, err := utils.ParseModuleKey(chi.URLParam(r, "module"))
	if err != nil {
		_ = utils.WriteBadRequest(w, err.Error(), nil)
		return
	}

	wc, err := h.probe.CanWrite(ctx, middleware.GetPrincipalFromContext(ctx), module)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteJSON(w, http.StatusOK, wc)
}

// HandleListLocks handles GET /api/v1/modules/locks
func (h *ModuleHandler) HandleListLocks(w http.ResponseWriter, r *http.Request) {
	if _, ok := requirePrincipal(w, r, h.logger); !ok {
		return
	}

	locks, err := h.locks.List(r.Context())
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, locks)
}

// HandleSetLock handles PUT /api/v1/modules/{module}/lock
func (h *ModuleHandler) HandleSetLock(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	principal, ok := requirePrincipal(w, r, h.logger)
	if !ok {
		return
	}

	module, err := utils.ParseModuleKey(chi.URLParam(r, "module"))
	if err != nil {
		_ = utils.WriteBadRequest(w, err.Error(), nil)
		return
	}

	var req SetLockRequest
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}

	lock, err := h.locks.SetLock(ctx, principal, module, *req.Locked, req.Reason)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("module lock changed",
		zap.String("request_id", requestID),
		zap.String("module", module.String()),
		zap.Bool("locked", lock.Locked))

	_ = utils.WriteOK(w, lock)
}
