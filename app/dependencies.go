package app

import (
	"context"
	"fmt"
	"time"

	"github.com/upb/lifedash/config"
	"github.com/upb/lifedash/handlers"
	"github.com/upb/lifedash/identity"
	"github.com/upb/lifedash/middleware"
	"github.com/upb/lifedash/repositories"
	"github.com/upb/lifedash/repositories/postgres"
	"github.com/upb/lifedash/services/access"
	"github.com/upb/lifedash/services/audit"
	"github.com/upb/lifedash/services/featureflags"
	"github.com/upb/lifedash/services/finance"
	"github.com/upb/lifedash/services/gate"
	"github.com/upb/lifedash/services/locks"
	"github.com/upb/lifedash/services/tasks"
	"go.uber.org/zap"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	DB     *postgres.DB
	Logger *zap.Logger

	RepoFactory *postgres.RepositoryFactory
	Repos       *repositories.Repositories
	TxManager   repositories.TransactionManager

	// Write authorization pipeline
	AuditService *audit.AuditService
	FeatureFlags featureflags.Source
	Locks        *locks.Store
	Resolver     *access.Resolver
	Gate         *gate.Gate

	// Domain services
	Tasks   *tasks.Service
	Finance *finance.Service

	// HTTP
	AuthMiddleware *middleware.AuthMiddleware
	Health         *handlers.HealthHandler
	Me             *handlers.MeHandler
	Modules        *handlers.ModuleHandler
	TaskHandler    *handlers.TaskHandler
	FinanceHandler *handlers.FinanceHandler
	AuditHandler   *handlers.AuditHandler
}

// NewDependencies connects to the configured databases and wires up all application dependencies
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	factory, err := postgres.NewRepositoryFactory(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := factory.GetDB().PingContext(ctx); err != nil {
		_ = factory.Close()
		return nil, fmt.Errorf("failed to initialize database: database ping failed: %w", err)
	}

	if cfg.Server.RunMigrations {
		if err := factory.RunMigrations(); err != nil {
			_ = factory.Close()
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	deps, err := NewDependenciesFromFactory(cfg, factory, logger)
	if err != nil {
		_ = factory.Close()
		return nil, err
	}
	return deps, nil
}

// NewDependenciesFromFactory wires everything above an already open repository factory
func NewDependenciesFromFactory(cfg *config.Config, factory *postgres.RepositoryFactory, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config:      cfg,
		Logger:      logger,
		RepoFactory: factory,
		DB:          factory.GetDB(),
		Repos:       factory.NewRepositories(),
		TxManager:   factory.GetTransactionManager(),
	}

	if err := deps.initAudit(cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize audit logger: %w", err)
	}

	if err := deps.initFeatureFlags(cfg); err != nil {
		deps.stopAudit()
		return nil, fmt.Errorf("failed to initialize feature flags: %w", err)
	}

	deps.initPipeline()

	if err := deps.initAuth(cfg); err != nil {
		deps.stopAudit()
		return nil, fmt.Errorf("failed to initialize auth: %w", err)
	}

	deps.initHandlers()

	logger.Info("all dependencies initialized successfully",
		zap.String("feature_source", cfg.Features.Source),
		zap.Bool("separate_audit_db", factory.GetAuditDB() != nil))
	return deps, nil
}

// initAudit starts the asynchronous audit writer
func (d *Dependencies) initAudit(cfg *config.Config) error {
	d.AuditService = audit.NewAuditService(d.Repos.AuditLogs, d.Logger, audit.Config{
		BufferSize:    cfg.Audit.BufferSize,
		WorkerCount:   cfg.Audit.Workers,
		InsertTimeout: cfg.Audit.InsertTimeout,
	})
	return d.AuditService.Start()
}

// initFeatureFlags loads the static table and optionally layers database rows over it
func (d *Dependencies) initFeatureFlags(cfg *config.Config) error {
	flags, err := featureflags.LoadFile(cfg.Features.File)
	if err != nil {
		return err
	}

	static := featureflags.NewStaticSource(flags)
	if cfg.Features.Source == config.FeatureSourceDatabase {
		d.FeatureFlags = featureflags.NewRepositorySource(static, d.Repos.FeatureFlags, d.Logger)
	} else {
		d.FeatureFlags = static
	}

	d.Logger.Info("feature flags initialized",
		zap.String("source", cfg.Features.Source),
		zap.String("file", cfg.Features.File))
	return nil
}

// initPipeline builds lock store, resolver, gate and the gated domain services
func (d *Dependencies) initPipeline() {
	d.Locks = locks.NewStore(d.Repos.ModuleLocks, d.AuditService, d.Logger)
	d.Resolver = access.NewResolver(d.FeatureFlags, d.Locks, d.Logger)
	d.Gate = gate.New(d.Resolver, d.AuditService, d.Logger)

	d.Tasks = tasks.NewService(d.Repos.Tasks, d.TxManager, d.Gate, d.Logger)
	d.Finance = finance.NewService(d.Repos.FinanceEntries, d.Repos.Debts, d.TxManager, d.Gate, d.Logger)
}

func (d *Dependencies) initAuth(cfg *config.Config) error {
	validator, err := identity.NewValidator(identity.Config{
		Secret:   cfg.Auth.JWTSecret,
		Issuer:   cfg.Auth.Issuer,
		Audience: cfg.Auth.Audience,
		Leeway:   cfg.Auth.Leeway,
	})
	if err != nil {
		return err
	}

	authenticator := identity.NewAuthenticator(validator, d.Repos.Profiles, d.Logger)
	d.AuthMiddleware = middleware.NewAuthMiddleware(authenticator, d.Logger)
	return nil
}

func (d *Dependencies) initHandlers() {
	checks := map[string]handlers.HealthChecker{"database": d.DB}
	if auditDB := d.RepoFactory.GetAuditDB(); auditDB != nil {
		checks["audit_database"] = auditDB
	}

	d.Health = handlers.NewHealthHandler(checks, d.AuditService, d.Logger)
	d.Me = handlers.NewMeHandler(d.FeatureFlags, d.Logger)
	d.Modules = handlers.NewModuleHandler(d.Gate, d.Locks, d.Logger)
	d.TaskHandler = handlers.NewTaskHandler(d.Tasks, d.Logger)
	d.FinanceHandler = handlers.NewFinanceHandler(d.Finance, d.Logger)
	d.AuditHandler = handlers.NewAuditHandler(d.Repos.AuditLogs, d.FeatureFlags, d.Logger)
}

func (d *Dependencies) stopAudit() {
	if d.AuditService == nil {
		return
	}
	if err := d.AuditService.Stop(d.Config.Server.ShutdownTimeout); err != nil {
		d.Logger.Warn("audit logger did not stop cleanly", zap.Error(err))
	}
}

// Close gracefully shuts down all dependencies.
// The audit writer is drained before the database it writes to is closed.
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	if d.AuditService != nil {
		timeout := d.Config.Server.ShutdownTimeout
		if deadline, ok := ctx.Deadline(); ok {
			timeout = time.Until(deadline)
		}
		if err := d.AuditService.Stop(timeout); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop audit logger: %w", err))
		}
	}

	if d.RepoFactory != nil {
		if err := d.RepoFactory.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		} else {
			d.Logger.Info("database connection closed")
		}
	}

	_ = d.Logger.Sync()

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}
	return nil
}
