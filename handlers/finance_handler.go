package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/upb/lifedash/models"
	"github.com/upb/lifedash/services/finance"
	"github.com/upb/lifedash/utils"
	"go.uber.org/zap"
)

// FinanceService defines the finance operations the handler needs
type FinanceService interface {
	ListEntries(ctx context.Context, principal *models.Principal, limit, offset int) ([]*models.FinanceEntry, error)
	GetEntry(ctx context.Context, principal *models.Principal, id uuid.UUID) (*models.FinanceEntry, error)
	CreateEntry(ctx context.Context, principal *models.Principal, in finance.EntryInput) (*models.FinanceEntry, error)
	DeleteEntry(ctx context.Context, principal *models.Principal, id uuid.UUID) error

	ListDebts(ctx context.Context, principal *models.Principal) ([]*models.Debt, error)
	GetDebt(ctx context.Context, principal *models.Principal, id uuid.UUID) (*models.Debt, error)
	CreateDebt(ctx context.Context, principal *models.Principal, in finance.DebtInput) (*models.Debt, error)
	UpdateDebt(ctx context.Context, principal *models.Principal, id uuid.UUID, in finance.DebtUpdate) (*models.Debt, error)
	DeleteDebt(ctx context.Context, principal *models.Principal, id uuid.UUID) error
}

// FinanceHandler handles finance entry and debt HTTP requests
type FinanceHandler struct {
	service FinanceService
	logger  *zap.Logger
}

// NewFinanceHandler creates a new FinanceHandler
func NewFinanceHandler(service FinanceService, logger *zap.Logger) *FinanceHandler {
	return &FinanceHandler{
		service: service,
		logger:  logger,
	}
}

// HandleListEntries handles GET /api/v1/finance-entries
func (h *FinanceHandler) HandleListEntries(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r, h.logger)
	if !ok {
		return
	}
	limit, offset, ok := parsePagination(w, r)
	if !ok {
		return
	}

	entries, err := h.service.ListEntries(r.Context(), principal, limit, offset)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, entries)
}

// HandleGetEntry handles GET /api/v1/finance-entries/{id}
func (h *FinanceHandler) HandleGetEntry(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	entry, err := h.service.GetEntry(r.Context(), principal, id)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, entry)
}

// HandleCreateEntry handles POST /api/v1/finance-entries
func (h *FinanceHandler) HandleCreateEntry(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r, h.logger)
	if !ok {
		return
	}

	var req finance.EntryInput
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}

	entry, err := h.service.CreateEntry(r.Context(), principal, req)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteCreated(w, entry)
}

// HandleDeleteEntry handles DELETE /api/v1/finance-entries/{id}
func (h *FinanceHandler) HandleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteEntry(r.Context(), principal, id); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	utils.WriteNoContent(w)
}

// HandleListDebts handles GET /api/v1/debts
func (h *FinanceHandler) HandleListDebts(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r, h.logger)
	if !ok {
		return
	}

	debts, err := h.service.ListDebts(r.Context(), principal)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, debts)
}

// HandleGetDebt handles GET /api/v1/debts/{id}
func (h *FinanceHandler) HandleGetDebt(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	debt, err := h.service.GetDebt(r.Context(), principal, id)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, debt)
}

// HandleCreateDebt handles POST /api/v1/debts
func (h *FinanceHandler) HandleCreateDebt(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r, h.logger)
	if !ok {
		return
	}

	var req finance.DebtInput
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}

	debt, err := h.service.CreateDebt(r.Context(), principal, req)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteCreated(w, debt)
}

// HandleUpdateDebt handles PUT /api/v1/debts/{id}
func (h *FinanceHandler) HandleUpdateDebt(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	var req finance.DebtUpdate
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}

	debt, err := h.service.UpdateDebt(r.Context(), principal, id, req)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, debt)
}

// HandleDeleteDebt handles DELETE /api/v1/debts/{id}
func (h *FinanceHandler) HandleDeleteDebt(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteDebt(r.Context(), principal, id); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	utils.WriteNoContent(w)
}
