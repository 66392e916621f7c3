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

const financeEntryColumns = `id, owner_id, kind, category, amount_cents, occurred_on, note, created_at`

// FinanceEntryRepository implements the repositories.FinanceEntryRepository interface
type FinanceEntryRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewFinanceEntryRepository creates a new finance entry repository
func NewFinanceEntryRepository(db *DB, logger *zap.Logger) repositories.FinanceEntryRepository {
	return &FinanceEntryRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new finance entry
func (r *FinanceEntryRepository) Create(ctx context.Context, entry *models.FinanceEntry) error {
	query := `
		INSERT INTO finance_entries (` + financeEntryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	executor := GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, query,
		entry.ID,
		entry.OwnerID,
		string(entry.Kind),
		entry.Category,
		entry.AmountCents,
		entry.OccurredOn,
		entry.Note,
		entry.CreatedAt,
	)
	if err != nil {
		if isConstraintViolation(err) {
			return fmt.Errorf("failed to create finance entry: %w", repositories.ErrConstraintViolation)
		}
		return fmt.Errorf("failed to create finance entry: %w", err)
	}

	r.logger.Debug("finance entry created", zap.String("id", entry.ID.String()))
	return nil
}

// GetByID retrieves a finance entry by ID
func (r *FinanceEntryRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.FinanceEntry, error) {
	query := `SELECT ` + financeEntryColumns + ` FROM finance_entries WHERE id = $1`

	executor := GetExecutor(ctx, r.db)
	entry, err := scanFinanceEntry(executor.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("finance entry not found: %s: %w", id, repositories.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get finance entry: %w", err)
	}

	return entry, nil
}

// ListByOwner retrieves a user's entries, newest first
func (r *FinanceEntryRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]*models.FinanceEntry, error) {
	query := `
		SELECT ` + financeEntryColumns + `
		FROM finance_entries
		WHERE owner_id = $1
		ORDER BY occurred_on DESC, created_at DESC
		LIMIT $2 OFFSET $3
	`

	limit, offset = normalizePage(limit, offset, 100, 500)

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, ownerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list finance entries: %w", err)
	}
	defer rows.Close()

	entries := make([]*models.FinanceEntry, 0)
	for rows.Next() {
		entry, err := scanFinanceEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan finance entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating finance entry rows: %w", err)
	}

	return entries, nil
}

// Delete deletes a finance entry
func (r *FinanceEntryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, `DELETE FROM finance_entries WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete finance entry: %w", err)
	}

	return requireAffected(result, "finance entry", id)
}

func scanFinanceEntry(row rowScanner) (*models.FinanceEntry, error) {
	entry := &models.FinanceEntry{}
	var kind string
	err := row.Scan(
		&entry.ID,
		&entry.OwnerID,
		&kind,
		&entry.Category,
		&entry.AmountCents,
		&entry.OccurredOn,
		&entry.Note,
		&entry.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	entry.Kind = models.EntryKind(kind)
	return entry, nil
}
