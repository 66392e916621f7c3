package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/upb/lifedash/models"
	"github.com/upb/lifedash/repositories"
	"go.uber.org/zap"
)

const debtColumns = `id, owner_id, creditor, principal_cents, balance_cents, due_date, created_at, updated_at`

// DebtRepository implements the repositories.DebtRepository interface
type DebtRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewDebtRepository creates a new debt repository
func NewDebtRepository(db *DB, logger *zap.Logger) repositories.DebtRepository {
	return &DebtRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new debt
func (r *DebtRepository) Create(ctx context.Context, debt *models.Debt) error {
	query := `
		INSERT INTO debts (` + debtColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	executor := GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, query,
		debt.ID,
		debt.OwnerID,
		debt.Creditor,
		debt.PrincipalCents,
		debt.BalanceCents,
		debt.DueDate,
		debt.CreatedAt,
		debt.UpdatedAt,
	)
	if err != nil {
		if isConstraintViolation(err) {
			return fmt.Errorf("failed to create debt: %w", repositories.ErrConstraintViolation)
		}
		return fmt.Errorf("failed to create debt: %w", err)
	}

	r.logger.Debug("debt created", zap.String("id", debt.ID.String()))
	return nil
}

// GetByID retrieves a debt by ID
func (r *DebtRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Debt, error) {
	query := `SELECT ` + debtColumns + ` FROM debts WHERE id = $1`

	executor := GetExecutor(ctx, r.db)
	debt, err := scanDebt(executor.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("debt not found: %s: %w", id, repositories.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get debt: %w", err)
	}

	return debt, nil
}

// ListByOwner retrieves all debts of a user, earliest due first
func (r *DebtRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*models.Debt, error) {
	query := `
		SELECT ` + debtColumns + `
		FROM debts
		WHERE owner_id = $1
		ORDER BY due_date ASC NULLS LAST, created_at ASC
	`

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list debts: %w", err)
	}
	defer rows.Close()

	debts := make([]*models.Debt, 0)
	for rows.Next() {
		debt, err := scanDebt(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan debt: %w", err)
		}
		debts = append(debts, debt)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating debt rows: %w", err)
	}

	return debts, nil
}

// Update updates an existing debt
func (r *DebtRepository) Update(ctx context.Context, debt *models.Debt) error {
	query := `
		UPDATE debts
		SET creditor = $2, balance_cents = $3, due_date = $4, updated_at = $5
		WHERE id = $1
	`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query,
		debt.ID,
		debt.Creditor,
		debt.BalanceCents,
		debt.DueDate,
		debt.UpdatedAt,
	)
	if err != nil {
		if isConstraintViolation(err) {
			return fmt.Errorf("failed to update debt: %w", repositories.ErrConstraintViolation)
		}
		return fmt.Errorf("failed to update debt: %w", err)
	}

	return requireAffected(result, "debt", debt.ID)
}

// Delete deletes a debt
func (r *DebtRepository) Delete(ctx context.Context, id uuid.UUID) error {
	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, `DELETE FROM debts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete debt: %w", err)
	}

	return requireAffected(result, "debt", id)
}

func scanDebt(row rowScanner) (*models.Debt, error) {
	debt := &models.Debt{}
	err := row.Scan(
		&debt.ID,
		&debt.OwnerID,
		&debt.Creditor,
		&debt.PrincipalCents,
		&debt.BalanceCents,
		&debt.DueDate,
		&debt.CreatedAt,
		&debt.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return debt, nil
}
