package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/upb/lifedash/models"
	"github.com/upb/lifedash/services/tasks"
	"github.com/upb/lifedash/utils"
	"go.uber.org/zap"
)

// TaskService defines the task operations the handler needs
type TaskService interface {
	List(ctx context.Context, principal *models.Principal, limit, offset int) ([]*models.Task, error)
	Get(ctx context.Context, principal *models.Principal, id uuid.UUID) (*models.Task, error)
	Create(ctx context.Context, principal *models.Principal, in tasks.CreateInput) (*models.Task, error)
	Update(ctx context.Context, principal *models.Principal, id uuid.UUID, in tasks.UpdateInput) (*models.Task, error)
	Delete(ctx context.Context, principal *models.Principal, id uuid.UUID) error
}

// TaskHandler handles task HTTP requests
type TaskHandler struct {
	service TaskService
	logger  *zap.Logger
}

// NewTaskHandler creates a new TaskHandler
func NewTaskHandler(service TaskService, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{
		service: service,
		logger:  logger,
	}
}

// HandleList handles GET /api/v1/tasks
func (h *TaskHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r, h.logger)
	if !ok {
		return
	}
	limit, offset, ok := parsePagination(w, r)
	if !ok {
		return
	}

	list, err := h.service.List(r.Context(), principal, limit, offset)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, list)
}

// HandleGet handles GET /api/v1/tasks/{id}
func (h *TaskHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	task, err := h.service.Get(r.Context(), principal, id)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, task)
}

// HandleCreate handles POST /api/v1/tasks
func (h *TaskHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r, h.logger)
	if !ok {
		return
	}

	var req tasks.CreateInput
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}

	task, err := h.service.Create(r.Context(), principal, req)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteCreated(w, task)
}

// HandleUpdate handles PUT /api/v1/tasks/{id}
func (h *TaskHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	var req tasks.UpdateInput
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}

	task, err := h.service.Update(r.Context(), principal, id, req)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, task)
}

// HandleDelete handles DELETE /api/v1/tasks/{id}
func (h *TaskHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), principal, id); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	utils.WriteNoContent(w)
}
