// Package gate wraps every module mutation with the write policy and the audit trail.
package gate

import (
	"context"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/upb/lifedash/models"
	"github.com/upb/lifedash/services"
	"github.com/upb/lifedash/services/access"
	"github.com/upb/lifedash/services/audit"
	"go.uber.org/zap"
)

// Resolver produces write decisions
type Resolver interface {
	Resolve(ctx context.Context, principal *models.Principal, module models.ModuleKey) (*access.Decision, error)
}

// AuditLogger appends audit records without reporting failures back
type AuditLogger interface {
	LogModuleAction(ctx context.Context, action audit.ModuleAction)
}

// Request names the mutation being attempted
type Request struct {
	Module    models.ModuleKey
	Operation string
	EntityID  string
	Metadata  map[string]interface{}
}

// Outcome is what a successful mutation reports back for the audit record
type Outcome struct {
	EntityID string
	Metadata map[string]interface{}
	Value    interface{}
}

// Mutation performs the domain write. It runs at most once per Run.
type Mutation func(ctx context.Context) (*Outcome, error)

// Result is returned for a permitted and completed mutation
type Result struct {
	Action string
	Value  interface{}
}

// Gate enforces the write policy around mutations
type Gate struct {
	resolver Resolver
	audit    AuditLogger
	logger   *zap.Logger
}

// New creates an authorization gate
func New(resolver Resolver, auditLogger AuditLogger, logger *zap.Logger) *Gate {
	return &Gate{
		resolver: resolver,
		audit:    auditLogger,
		logger:   logger,
	}
}

// Run authorizes req for principal, runs mutate and records the audit entry.
// Denied requests never reach mutate; failed mutations are not audited.
func (g *Gate) Run(ctx context.Context, principal *models.Principal, req Request, mutate Mutation) (*Result, error) {
	operation := strings.TrimSpace(req.Operation)
	if operation == "" {
		return nil, services.ErrInvalidInput.WithDetail("operation", "required")
	}
	action := audit.FormatAction(req.Module.String(), operation)
	fields := []zap.Field{
		zap.String("request_id", middleware.GetReqID(ctx)),
		zap.String("action", action),
	}

	if principal == nil {
		g.logger.Info("write refused", append(fields, zap.String("denial", string(access.DenialUnauthenticated)))...)
		return nil, services.ErrUnauthenticated
	}
	fields = append(fields, zap.String("actor_id", principal.ID.String()))

	decision, err := g.resolver.Resolve(ctx, principal, req.Module)
	if err != nil {
		return nil, err
	}
	if err := decision.Err(); err != nil {
		if decision.Denial == access.DenialCheckFailed {
			g.logger.Error("write policy check failed", append(fields, zap.Error(decision.Cause))...)
		} else {
			g.logger.Info("write refused", append(fields,
				zap.String("denial", string(decision.Denial)),
				zap.String("reason", decision.Reason),
			)...)
		}
		return nil, err
	}

	outcome, err := mutate(ctx)
	if err != nil {
		g.logger.Debug("mutation failed", append(fields, zap.Error(err))...)
		return nil, err
	}
	if outcome == nil {
		outcome = &Outcome{}
	}

	entityID := outcome.EntityID
	if entityID == "" {
		entityID = req.EntityID
	}
	metadata := make(map[string]interface{}, len(req.Metadata)+len(outcome.Metadata))
	for k, v := range req.Metadata {
		metadata[k] = v
	}
	for k, v := range outcome.Metadata {
		metadata[k] = v
	}

	g.audit.LogModuleAction(ctx, audit.ModuleAction{
		Actor:     principal,
		Module:    req.Module.String(),
		Operation: operation,
		EntityID:  entityID,
		Metadata:  metadata,
	})

	g.logger.Info("write completed", append(fields, zap.String("entity_id", entityID))...)

	return &Result{Action: action, Value: outcome.Value}, nil
}

// CanWrite answers the write probe. Every denial, check failures included, is canWrite=false.
func (g *Gate) CanWrite(ctx context.Context, principal *models.Principal, module models.ModuleKey) (access.WriteContext, error) {
	decision, err := g.resolver.Resolve(ctx, principal, module)
	if err != nil {
		return access.WriteContext{}, err
	}
	if decision.Denial == access.DenialCheckFailed {
		g.logger.Warn("write probe check failed",
			zap.String("request_id", middleware.GetReqID(ctx)),
			zap.String("module", module.String()),
			zap.Error(decision.Cause),
		)
	}
	return decision.WriteContext(), nil
}
