// Package locks reads and manages the central module write locks.
package locks

import (
	"context"
	"strings"

	"github.com/upb/lifedash/models"
	"github.com/upb/lifedash/repositories"
	"github.com/upb/lifedash/services"
	"github.com/upb/lifedash/services/audit"
	"github.com/upb/lifedash/services/policy"
	"go.uber.org/zap"
)

// LockUpdateOperation is the audited operation for lock changes
const LockUpdateOperation = "update"

// LockEntityType is the audit entity type for lock changes
const LockEntityType = "module_locks"

// ActionLogger appends audit records
type ActionLogger interface {
	LogModuleAction(ctx context.Context, action audit.ModuleAction)
}

// LockState is the caller-specific view of a module lock
type LockState struct {
	Locked bool   `json:"locked"`
	Reason string `json:"reason,omitempty"`
}

// Store answers lock questions through the database decision procedure
type Store struct {
	repo   repositories.ModuleLockRepository
	audit  ActionLogger
	logger *zap.Logger
}

// NewStore creates a lock store
func NewStore(repo repositories.ModuleLockRepository, auditLogger ActionLogger, logger *zap.Logger) *Store {
	return &Store{
		repo:   repo,
		audit:  auditLogger,
		logger: logger,
	}
}

// IsModuleLocked asks the decision procedure whether the module is locked for this principal.
// A failed round trip is reported as a check failure, never as unlocked.
func (s *Store) IsModuleLocked(ctx context.Context, principal *models.Principal, module models.ModuleKey) (*LockState, error) {
	if !module.Valid() {
		return nil, services.ErrUnknownModule.WithDetail("module", string(module))
	}

	status, err := s.repo.CheckLock(ctx, module, policy.Bypasses(principal))
	if err != nil {
		s.logger.Warn("module lock check failed",
			zap.String("module", module.String()),
			zap.Error(err),
		)
		return nil, services.WrapLockCheckFailed(err)
	}

	return &LockState{Locked: status.Locked, Reason: status.Reason}, nil
}

// Get returns the lock row for a module, nil when it was never locked
func (s *Store) Get(ctx context.Context, module models.ModuleKey) (*models.ModuleLock, error) {
	if !module.Valid() {
		return nil, services.ErrUnknownModule.WithDetail("module", string(module))
	}
	lock, err := s.repo.Get(ctx, module)
	if err != nil {
		return nil, services.WrapInternal("failed to load module lock", err)
	}
	return lock, nil
}

// List returns every lock row
func (s *Store) List(ctx context.Context) ([]*models.ModuleLock, error) {
	locks, err := s.repo.List(ctx)
	if err != nil {
		return nil, services.WrapInternal("failed to list module locks", err)
	}
	return locks, nil
}

// SetLock locks or unlocks a module. Only admins may change locks; every change is audited.
func (s *Store) SetLock(ctx context.Context, actor *models.Principal, module models.ModuleKey, locked bool, reason string) (*models.ModuleLock, error) {
	if err := policy.RequireAdmin(actor); err != nil {
		return nil, err
	}
	if !module.Valid() {
		return nil, services.ErrUnknownModule.WithDetail("module", string(module))
	}

	reason = strings.TrimSpace(reason)
	if !locked {
		reason = ""
	}
	actorID := actor.ID
	lock := models.NewModuleLock(module, locked, reason, &actorID)

	if err := s.repo.Upsert(ctx, lock); err != nil {
		return nil, services.WrapInternal("failed to update module lock", err)
	}

	s.logger.Info("module lock updated",
		zap.String("module", module.String()),
		zap.Bool("locked", locked),
		zap.String("actor_id", actor.ID.String()),
	)

	metadata := map[string]interface{}{"locked": locked}
	if reason != "" {
		metadata["reason"] = reason
	}
	s.audit.LogModuleAction(ctx, audit.ModuleAction{
		Actor:     actor,
		Module:    LockEntityType,
		Operation: LockUpdateOperation,
		EntityID:  module.String(),
		Metadata:  metadata,
	})

	return lock, nil
}
