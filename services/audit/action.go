package audit

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/upb/lifedash/models"
)

// ModuleAction describes one permitted mutation
type ModuleAction struct {
	Actor     *models.Principal
	Module    string // module key, or another entity type such as "module_locks"
	Operation string
	EntityID  string
	Metadata  map[string]interface{}
}

// FormatAction builds the audit action name "<module>.<operation>"
func FormatAction(module, operation string) string {
	return module + "." + operation
}

func (a ModuleAction) toAuditLog(info RequestInfo) (*models.AuditLog, error) {
	if a.Actor == nil {
		return nil, errors.New("audit action without actor")
	}
	module := strings.TrimSpace(a.Module)
	operation := strings.TrimSpace(a.Operation)
	if module == "" || operation == "" {
		return nil, errors.New("audit action requires module and operation")
	}

	metadata := make(map[string]interface{}, len(a.Metadata)+3)
	for k, v := range a.Metadata {
		metadata[k] = v
	}
	info.merge(metadata)

	log, err := models.NewAuditLog(a.Actor.ID, FormatAction(module, operation), module).
		WithActorEmail(a.Actor.EmailPtr()).
		WithEntity(a.EntityID).
		WithMetadata(metadata)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", FormatAction(module, operation), err)
	}
	return log, nil
}

// RequestInfo is the request context copied into audit metadata
type RequestInfo struct {
	RequestID string
	ClientIP  string
	UserAgent string
}

func (i RequestInfo) merge(metadata map[string]interface{}) {
	if i.RequestID != "" {
		metadata["request_id"] = i.RequestID
	}
	if i.ClientIP != "" {
		metadata["ip_address"] = i.ClientIP
	}
	if i.UserAgent != "" {
		metadata["user_agent"] = i.UserAgent
	}
}

type requestInfoKey struct{}

// WithRequestInfo stores request details for later audit records
func WithRequestInfo(ctx context.Context, info RequestInfo) context.Context {
	return context.WithValue(ctx, requestInfoKey{}, info)
}

// RequestInfoFrom returns the request details stored in ctx, if any
func RequestInfoFrom(ctx context.Context) RequestInfo {
	if ctx == nil {
		return RequestInfo{}
	}
	info, _ := ctx.Value(requestInfoKey{}).(RequestInfo)
	return info
}
