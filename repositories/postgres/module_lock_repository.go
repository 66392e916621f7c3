package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/upb/lifedash/models"
	"github.com/upb/lifedash/repositories"
	"go.uber.org/zap"
)

// ModuleLockRepository implements the repositories.ModuleLockRepository interface
type ModuleLockRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewModuleLockRepository creates a new module lock repository
func NewModuleLockRepository(db *DB, logger *zap.Logger) repositories.ModuleLockRepository {
	return &ModuleLockRepository{
		db:     db,
		logger: logger,
	}
}

// CheckLock calls module_lock_status in one round trip
func (r *ModuleLockRepository) CheckLock(ctx context.Context, moduleKey models.ModuleKey, bypass bool) (*repositories.LockStatus, error) {
	query := `SELECT locked, reason FROM module_lock_status($1, $2)`

	var (
		locked bool
		reason sql.NullString
	)
	executor := GetExecutor(ctx, r.db)
	if err := executor.QueryRowContext(ctx, query, string(moduleKey), bypass).Scan(&locked, &reason); err != nil {
		return nil, fmt.Errorf("failed to check module lock %s: %w", moduleKey, err)
	}

	return &repositories.LockStatus{Locked: locked, Reason: reason.String}, nil
}

// Get retrieves the lock row for a module
func (r *ModuleLockRepository) Get(ctx context.Context, moduleKey models.ModuleKey) (*models.ModuleLock, error) {
	query := `
		SELECT module_key, locked, reason, locked_by, updated_at
		FROM module_locks
		WHERE module_key = $1
	`

	executor := GetExecutor(ctx, r.db)
	lock, err := scanModuleLock(executor.QueryRowContext(ctx, query, string(moduleKey)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get module lock: %w", err)
	}

	return lock, nil
}

// List retrieves all lock rows ordered by module key
func (r *ModuleLockRepository) List(ctx context.Context) ([]*models.ModuleLock, error) {
	query := `
		SELECT module_key, locked, reason, locked_by, updated_at
		FROM module_locks
		ORDER BY module_key
	`

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list module locks: %w", err)
	}
	defer rows.Close()

	locks := make([]*models.ModuleLock, 0)
	for rows.Next() {
		lock, err := scanModuleLock(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan module lock: %w", err)
		}
		locks = append(locks, lock)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating module lock rows: %w", err)
	}

	return locks, nil
}

// Upsert creates or replaces the lock row for a module
func (r *ModuleLockRepository) Upsert(ctx context.Context, lock *models.ModuleLock) error {
	query := `
		INSERT INTO module_locks (module_key, locked, reason, locked_by, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (module_key) DO UPDATE
		SET locked = EXCLUDED.locked,
		    reason = EXCLUDED.reason,
		    locked_by = EXCLUDED.locked_by,
		    updated_at = now()
		RETURNING updated_at
	`

	executor := GetExecutor(ctx, r.db)
	err := executor.QueryRowContext(ctx, query,
		string(lock.ModuleKey),
		lock.Locked,
		lock.Reason,
		lock.LockedBy,
	).Scan(&lock.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert module lock: %w", err)
	}

	r.logger.Info("module lock updated",
		zap.String("module", lock.ModuleKey.String()),
		zap.Bool("locked", lock.Locked),
	)
	return nil
}

func scanModuleLock(row rowScanner) (*models.ModuleLock, error) {
	lock := &models.ModuleLock{}
	var key string
	if err := row.Scan(&key, &lock.Locked, &lock.Reason, &lock.LockedBy, &lock.UpdatedAt); err != nil {
		return nil, err
	}
	lock.ModuleKey = models.ModuleKey(key)
	return lock, nil
}
