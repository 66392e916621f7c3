package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/upb/lifedash/models"
)

var (
	// ErrNotFound is wrapped by repositories when a row does not exist
	ErrNotFound = errors.New("record not found")
	// ErrConstraintViolation is wrapped when the database rejects a row (check or unique constraint)
	ErrConstraintViolation = errors.New("constraint violation")
)

// TransactionManager manages database transactions
type TransactionManager interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) (Transaction, error)

	// InTransaction executes a function within a transaction
	// Automatically commits if function succeeds, rolls back on error
	InTransaction(ctx context.Context, fn func(ctx context.Context, tx Transaction) error) error
}

// Transaction represents a database transaction
type Transaction interface {
	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Context returns the transaction context
	Context() context.Context
}

// LockStatus is the answer of the lock decision procedure
type LockStatus struct {
	Locked bool
	Reason string
}

// ModuleLockRepository handles module lock rows and the lock decision procedure
type ModuleLockRepository interface {
	// CheckLock calls the decision procedure for a module.
	// bypass is the caller's admin bypass; an unknown module is reported as unlocked.
	CheckLock(ctx context.Context, moduleKey models.ModuleKey, bypass bool) (*LockStatus, error)

	// Get retrieves the lock row for a module, nil when no row exists
	Get(ctx context.Context, moduleKey models.ModuleKey) (*models.ModuleLock, error)

	// List retrieves all lock rows
	List(ctx context.Context) ([]*models.ModuleLock, error)

	// Upsert creates or replaces the lock row for a module
	Upsert(ctx context.Context, lock *models.ModuleLock) error
}

// FeatureFlagRepository reads operator-managed feature flag rows
type FeatureFlagRepository interface {
	// List retrieves all flag rows
	List(ctx context.Context) ([]models.FeatureFlag, error)
}

// ProfileRepository reads user profiles, the source of the authoritative role
type ProfileRepository interface {
	// GetByID retrieves a profile, nil when the user has none
	GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error)
}

// AuditRepository handles audit log data operations
type AuditRepository interface {
	// Insert appends a new audit log entry and fills in the server timestamp
	Insert(ctx context.Context, log *models.AuditLog) error

	// GetByID retrieves an audit log by ID
	GetByID(ctx context.Context, id uuid.UUID) (*models.AuditLog, error)

	// List retrieves audit logs matching the filter, newest first
	List(ctx context.Context, filter models.AuditFilter) ([]*models.AuditLog, error)
}

// TaskRepository handles task data operations
type TaskRepository interface {
	Create(ctx context.Context, task *models.Task) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]*models.Task, error)
	Update(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// DebtRepository handles debt data operations
type DebtRepository interface {
	Create(ctx context.Context, debt *models.Debt) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Debt, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*models.Debt, error)
	Update(ctx context.Context, debt *models.Debt) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// FinanceEntryRepository handles income/expense entries
type FinanceEntryRepository interface {
	Create(ctx context.Context, entry *models.FinanceEntry) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.FinanceEntry, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]*models.FinanceEntry, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Repositories aggregates all repository interfaces
type Repositories struct {
	ModuleLocks    ModuleLockRepository
	FeatureFlags   FeatureFlagRepository
	Profiles       ProfileRepository
	AuditLogs      AuditRepository
	Tasks          TaskRepository
	Debts          DebtRepository
	FinanceEntries FinanceEntryRepository
}
