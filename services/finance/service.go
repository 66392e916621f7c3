// Package finance implements the finance entries and debts modules.
package finance

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/upb/lifedash/models"
	"github.com/upb/lifedash/repositories"
	"github.com/upb/lifedash/services"
	"github.com/upb/lifedash/services/gate"
	"github.com/upb/lifedash/services/policy"
	"go.uber.org/zap"
)

// Gate runs authorized mutations
type Gate interface {
	Run(ctx context.Context, principal *models.Principal, req gate.Request, mutate gate.Mutation) (*gate.Result, error)
}

// EntryInput holds a new income or expense line
type EntryInput struct {
	Kind        models.EntryKind `json:"kind" validate:"required,oneof=income expense"`
	Category    string           `json:"category" validate:"required,max=100"`
	AmountCents int64            `json:"amount_cents" validate:"gt=0"`
	OccurredOn  time.Time        `json:"occurred_on" validate:"required"`
	Note        string           `json:"note" validate:"max=500"`
}

// DebtInput holds a new debt
type DebtInput struct {
	Creditor       string     `json:"creditor" validate:"required,max=200"`
	PrincipalCents int64      `json:"principal_cents" validate:"gt=0"`
	DueDate        *time.Time `json:"due_date,omitempty"`
}

// DebtUpdate changes a debt. PaymentCents is subtracted from the balance.
type DebtUpdate struct {
	Creditor     *string    `json:"creditor,omitempty" validate:"omitempty,min=1,max=200"`
	PaymentCents *int64     `json:"payment_cents,omitempty" validate:"omitempty,gt=0"`
	DueDate      *time.Time `json:"due_date,omitempty"`
}

// Service manages finance entries and debts
type Service struct {
	entries repositories.FinanceEntryRepository
	debts   repositories.DebtRepository
	txMgr   repositories.TransactionManager
	gate    Gate
	logger  *zap.Logger
}

// NewService creates a finance service
func NewService(
	entries repositories.FinanceEntryRepository,
	debts repositories.DebtRepository,
	txMgr repositories.TransactionManager,
	g Gate,
	logger *zap.Logger,
) *Service {
	return &Service{
		entries: entries,
		debts:   debts,
		txMgr:   txMgr,
		gate:    g,
		logger:  logger,
	}
}

// ListEntries returns the principal's entries, newest first
func (s *Service) ListEntries(ctx context.Context, principal *models.Principal, limit, offset int) ([]*models.FinanceEntry, error) {
	if err := policy.RequireAuthenticated(principal); err != nil {
		return nil, err
	}
	entries, err := s.entries.ListByOwner(ctx, principal.ID, limit, offset)
	if err != nil {
		return nil, services.WrapInternal("failed to list finance entries", err)
	}
	return entries, nil
}

// GetEntry returns one entry visible to the principal
func (s *Service) GetEntry(ctx context.Context, principal *models.Principal, id uuid.UUID) (*models.FinanceEntry, error) {
	if err := policy.RequireAuthenticated(principal); err != nil {
		return nil, err
	}
	return s.loadEntry(ctx, principal, id)
}

// CreateEntry records an income or expense line
func (s *Service) CreateEntry(ctx context.Context, principal *models.Principal, in EntryInput) (*models.FinanceEntry, error) {
	req := gate.Request{Module: models.ModuleFinanceEntries, Operation: "create"}

	result, err := s.gate.Run(ctx, principal, req, func(ctx context.Context) (*gate.Outcome, error) {
		entry := models.NewFinanceEntry(principal.ID, in.Kind, strings.TrimSpace(in.Category), in.AmountCents, in.OccurredOn)
		entry.Note = in.Note
		if err := s.entries.Create(ctx, entry); err != nil {
			return nil, mapRepoError(err, services.ErrFinanceEntryNotFound, "failed to create finance entry")
		}
		return &gate.Outcome{
			EntityID: entry.ID.String(),
			Metadata: map[string]interface{}{
				"kind":         string(entry.Kind),
				"amount_cents": entry.AmountCents,
			},
			Value: entry,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return result.Value.(*models.FinanceEntry), nil
}

// DeleteEntry removes an entry
func (s *Service) DeleteEntry(ctx context.Context, principal *models.Principal, id uuid.UUID) error {
	req := gate.Request{Module: models.ModuleFinanceEntries, Operation: "delete", EntityID: id.String()}

	_, err := s.gate.Run(ctx, principal, req, func(ctx context.Context) (*gate.Outcome, error) {
		return nil, services.WithTransaction(ctx, s.txMgr, func(ctx context.Context, tx repositories.Transaction) error {
			if _, err := s.loadEntry(ctx, principal, id); err != nil {
				return err
			}
			if err := s.entries.Delete(ctx, id); err != nil {
				return mapRepoError(err, services.ErrFinanceEntryNotFound, "failed to delete finance entry")
			}
			return nil
		})
	})
	return err
}

// ListDebts returns the principal's debts
func (s *Service) ListDebts(ctx context.Context, principal *models.Principal) ([]*models.Debt, error) {
	if err := policy.RequireAuthenticated(principal); err != nil {
		return nil, err
	}
	debts, err := s.debts.ListByOwner(ctx, principal.ID)
	if err != nil {
		return nil, services.WrapInternal("failed to list debts", err)
	}
	return debts, nil
}

// GetDebt returns one debt visible to the principal
func (s *Service) GetDebt(ctx context.Context, principal *models.Principal, id uuid.UUID) (*models.Debt, error) {
	if err := policy.RequireAuthenticated(principal); err != nil {
		return nil, err
	}
	return s.loadDebt(ctx, principal, id)
}

// CreateDebt records a new debt with its balance equal to the principal amount
func (s *Service) CreateDebt(ctx context.Context, principal *models.Principal, in DebtInput) (*models.Debt, error) {
	req := gate.Request{Module: models.ModuleDebts, Operation: "create"}

	result, err := s.gate.Run(ctx, principal, req, func(ctx context.Context) (*gate.Outcome, error) {
		debt := models.NewDebt(principal.ID, strings.TrimSpace(in.Creditor), in.PrincipalCents)
		debt.DueDate = in.DueDate
		if err := s.debts.Create(ctx, debt); err != nil {
			return nil, mapRepoError(err, services.ErrDebtNotFound, "failed to create debt")
		}
		return &gate.Outcome{
			EntityID: debt.ID.String(),
			Metadata: map[string]interface{}{"principal_cents": debt.PrincipalCents},
			Value:    debt,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return result.Value.(*models.Debt), nil
}

// UpdateDebt changes a debt or records a payment against it
func (s *Service) UpdateDebt(ctx context.Context, principal *models.Principal, id uuid.UUID, in DebtUpdate) (*models.Debt, error) {
	req := gate.Request{Module: models.ModuleDebts, Operation: "update", EntityID: id.String()}

	result, err := s.gate.Run(ctx, principal, req, func(ctx context.Context) (*gate.Outcome, error) {
		metadata := make(map[string]interface{})
		debt, err := services.WithTransactionResult(ctx, s.txMgr, func(ctx context.Context, tx repositories.Transaction) (*models.Debt, error) {
			debt, err := s.loadDebt(ctx, principal, id)
			if err != nil {
				return nil, err
			}
			if in.Creditor != nil {
				debt.Creditor = strings.TrimSpace(*in.Creditor)
				metadata["creditor"] = debt.Creditor
			}
			if in.DueDate != nil {
				debt.DueDate = in.DueDate
			}
			if in.PaymentCents != nil {
				if *in.PaymentCents > debt.BalanceCents {
					return nil, services.ErrInvalidInput.
						WithDetail("payment_cents", "exceeds outstanding balance").
						WithDetail("balance_cents", debt.BalanceCents)
				}
				debt.BalanceCents -= *in.PaymentCents
				metadata["payment_cents"] = *in.PaymentCents
				metadata["balance_cents"] = debt.BalanceCents
			}
			debt.UpdatedAt = time.Now()
			if err := s.debts.Update(ctx, debt); err != nil {
				return nil, mapRepoError(err, services.ErrDebtNotFound, "failed to update debt")
			}
			return debt, nil
		})
		if err != nil {
			return nil, err
		}
		if debt.IsSettled() {
			metadata["settled"] = true
		}
		return &gate.Outcome{Metadata: metadata, Value: debt}, nil
	})
	if err != nil {
		return nil, err
	}
	return result.Value.(*models.Debt), nil
}

// DeleteDebt removes a debt
func (s *Service) DeleteDebt(ctx context.Context, principal *models.Principal, id uuid.UUID) error {
	req := gate.Request{Module: models.ModuleDebts, Operation: "delete", EntityID: id.String()}

	_, err := s.gate.Run(ctx, principal, req, func(ctx context.Context) (*gate.Outcome, error) {
		return nil, services.WithTransaction(ctx, s.txMgr, func(ctx context.Context, tx repositories.Transaction) error {
			if _, err := s.loadDebt(ctx, principal, id); err != nil {
				return err
			}
			if err := s.debts.Delete(ctx, id); err != nil {
				return mapRepoError(err, services.ErrDebtNotFound, "failed to delete debt")
			}
			return nil
		})
	})
	return err
}

func (s *Service) loadEntry(ctx context.Context, principal *models.Principal, id uuid.UUID) (*models.FinanceEntry, error) {
	entry, err := s.entries.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, services.ErrFinanceEntryNotFound, "failed to get finance entry")
	}
	if entry.OwnerID != principal.ID && !principal.IsAdmin() {
		return nil, services.ErrFinanceEntryNotFound
	}
	return entry, nil
}

func (s *Service) loadDebt(ctx context.Context, principal *models.Principal, id uuid.UUID) (*models.Debt, error) {
	debt, err := s.debts.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, services.ErrDebtNotFound, "failed to get debt")
	}
	if debt.OwnerID != principal.ID && !principal.IsAdmin() {
		return nil, services.ErrDebtNotFound
	}
	return debt, nil
}

func mapRepoError(err error, notFound *services.DomainError, message string) error {
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return notFound
	case errors.Is(err, repositories.ErrConstraintViolation):
		return services.NewDomainError(services.ErrorTypeValidation, "value violates a data constraint", err)
	default:
		return services.WrapInternal(message, err)
	}
}
