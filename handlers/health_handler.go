package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/upb/lifedash/services/audit"
	"github.com/upb/lifedash/utils"
	"go.uber.org/zap"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
	Audit     *audit.Stats      `json:"audit,omitempty"`
}

// HealthChecker is a dependency that can report its own health
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// AuditStatsProvider reports the audit worker pool state
type AuditStatsProvider interface {
	GetStats() audit.Stats
}

// HealthHandler handles health-related HTTP requests
type HealthHandler struct {
	checks map[string]HealthChecker
	audit  AuditStatsProvider
	logger *zap.Logger
}

// NewHealthHandler creates a new HealthHandler.
// checks maps a dependency name such as "database" to its checker; nil checkers are skipped.
func NewHealthHandler(checks map[string]HealthChecker, auditStats AuditStatsProvider, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		checks: checks,
		audit:  auditStats,
		logger: logger,
	}
}

// HandleHealth handles GET /healthz
// Liveness only: returns 200 while the process is serving
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	_ = utils.WriteOK(w, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// HandleReadiness handles GET /readyz
func (h *HealthHandler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string)
	allHealthy := true

	for name, checker := range h.checks {
		if checker == nil {
			continue
		}
		if err := checker.HealthCheck(ctx); err != nil {
			h.logger.Warn("dependency health check failed",
				zap.String("dependency", name),
				zap.Error(err))
			checks[name] = "unhealthy"
			allHealthy = false
		} else {
			checks[name] = "healthy"
		}
	}

	response := HealthResponse{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
	}

	if h.audit != nil {
		stats := h.audit.GetStats()
		response.Audit = &stats
		if stats.Started {
			checks["audit_logger"] = "running"
		} else {
			checks["audit_logger"] = "stopped"
			allHealthy = false
		}
	}

	response.Status = "healthy"
	httpStatus := http.StatusOK
	if !allHealthy {
		response.Status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	}

	if err := utils.WriteJSON(w, httpStatus, utils.SuccessResponse{Data: response}); err != nil {
		h.logger.Error("failed to write readiness response", zap.Error(err))
	}
}
