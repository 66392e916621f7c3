// Package access resolves whether a principal may write to a module right now.
package access

import (
	"context"

	"github.com/upb/lifedash/models"
	"github.com/upb/lifedash/services"
	"github.com/upb/lifedash/services/featureflags"
	"github.com/upb/lifedash/services/locks"
	"github.com/upb/lifedash/services/policy"
	"go.uber.org/zap"
)

// DenialKind explains why a write was refused
type DenialKind string

const (
	DenialNone            DenialKind = ""
	DenialUnauthenticated DenialKind = "unauthenticated"
	DenialFeatureDisabled DenialKind = "feature_disabled"
	DenialModuleLocked    DenialKind = "module_locked"
	DenialCheckFailed     DenialKind = "check_failed"
)

// WriteContext is the client-facing projection of a decision
type WriteContext struct {
	CanWrite bool `json:"canWrite"`
}

// Decision is the outcome of one resolution
type Decision struct {
	Module   models.ModuleKey
	CanWrite bool
	Denial   DenialKind
	Reason   string
	Cause    error
}

// WriteContext returns the {canWrite} projection
func (d *Decision) WriteContext() WriteContext {
	return WriteContext{CanWrite: d != nil && d.CanWrite}
}

// Err maps a denial onto the domain error taxonomy; nil when writing is allowed
func (d *Decision) Err() error {
	if d == nil {
		return services.ErrUnauthenticated
	}
	switch d.Denial {
	case DenialNone:
		if d.CanWrite {
			return nil
		}
		return services.ErrForbidden
	case DenialUnauthenticated:
		return services.ErrUnauthenticated
	case DenialFeatureDisabled:
		return services.ErrFeatureDisabled.
			WithDetail("module", d.Module.String()).
			WithDetail("reason", d.Reason)
	case DenialModuleLocked:
		return services.ErrModuleLocked.
			WithDetail("module", d.Module.String()).
			WithDetail("reason", d.Reason)
	case DenialCheckFailed:
		if services.IsCheckFailedError(d.Cause) {
			return d.Cause
		}
		return services.WrapLockCheckFailed(d.Cause)
	default:
		return services.ErrInternal
	}
}

// LockChecker answers the per-principal lock question
type LockChecker interface {
	IsModuleLocked(ctx context.Context, principal *models.Principal, module models.ModuleKey) (*locks.LockState, error)
}

// Resolver combines role, feature flags and module locks into a decision
type Resolver struct {
	flags  featureflags.Source
	locks  LockChecker
	logger *zap.Logger
}

// NewResolver creates a write context resolver
func NewResolver(flags featureflags.Source, lockChecker LockChecker, logger *zap.Logger) *Resolver {
	return &Resolver{
		flags:  flags,
		locks:  lockChecker,
		logger: logger,
	}
}

// Resolve decides whether principal may write to module.
// The returned error is reserved for caller bugs (unknown module); every policy
// outcome, check failures included, is carried in the Decision.
func (r *Resolver) Resolve(ctx context.Context, principal *models.Principal, module models.ModuleKey) (*Decision, error) {
	if !module.Valid() {
		return nil, services.ErrUnknownModule.WithDetail("module", string(module))
	}

	decision := &Decision{Module: module}

	if principal == nil {
		decision.Denial = DenialUnauthenticated
		return decision, nil
	}

	if policy.Bypasses(principal) {
		decision.CanWrite = true
		return decision, nil
	}

	if feature, ok := featureflags.FeatureForModule(module); ok {
		flags, err := r.flags.Snapshot(ctx)
		if err != nil {
			r.logger.Warn("feature flag snapshot failed",
				zap.String("module", module.String()),
				zap.Error(err),
			)
			decision.Denial = DenialCheckFailed
			decision.Cause = services.NewDomainError(services.ErrorTypeCheckFailed, services.ErrFeatureCheckFailed.Message, err)
			return decision, nil
		}
		if !featureflags.CanSeeFeature(flags, feature, false) {
			decision.Denial = DenialFeatureDisabled
			decision.Reason = string(feature) + " is disabled"
			return decision, nil
		}
	}

	state, err := r.locks.IsModuleLocked(ctx, principal, module)
	if err != nil {
		decision.Denial = DenialCheckFailed
		decision.Cause = err
		return decision, nil
	}
	if state.Locked {
		decision.Denial = DenialModuleLocked
		decision.Reason = state.Reason
		return decision, nil
	}

	decision.CanWrite = true
	return decision, nil
}
