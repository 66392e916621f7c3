package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AuditLog is an append-only record of a permitted mutation
type AuditLog struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	ActorUserID uuid.UUID       `json:"actor_user_id" db:"actor_user_id"`
	ActorEmail  *string         `json:"actor_email,omitempty" db:"actor_email"`
	Action      string          `json:"action" db:"action"`           // "<module>.<operation>"
	EntityType  string          `json:"entity_type" db:"entity_type"` // module key
	EntityID    *string         `json:"entity_id,omitempty" db:"entity_id"`
	Metadata    json.RawMessage `json:"metadata" db:"metadata"`     // JSONB
	CreatedAt   time.Time       `json:"created_at" db:"created_at"` // assigned by the database
}

// TableName returns the table name for the AuditLog model
func (AuditLog) TableName() string {
	return "audit_logs"
}

// NewAuditLog creates a new AuditLog instance
func NewAuditLog(actorUserID uuid.UUID, action, entityType string) *AuditLog {
	return &AuditLog{
		ID:          uuid.New(),
		ActorUserID: actorUserID,
		Action:      action,
		EntityType:  entityType,
		Metadata:    json.RawMessage(`{}`),
	}
}

// WithActorEmail sets the actor email
func (a *AuditLog) WithActorEmail(email *string) *AuditLog {
	a.ActorEmail = email
	return a
}

// WithEntity sets the entity ID
func (a *AuditLog) WithEntity(entityID string) *AuditLog {
	if entityID != "" {
		a.EntityID = &entityID
	}
	return a
}

// WithMetadata encodes metadata into the record. The record is left
// untouched when the metadata cannot be encoded.
func (a *AuditLog) WithMetadata(metadata map[string]interface{}) (*AuditLog, error) {
	if len(metadata) == 0 {
		return a, nil
	}
	data, err := json.Marshal(metadata)
	if err != nil {
		return a, fmt.Errorf("failed to encode audit metadata: %w", err)
	}
	a.Metadata = data
	return a, nil
}

// AuditFilter narrows an audit log query
type AuditFilter struct {
	EntityType  string
	Action      string
	ActorUserID *uuid.UUID
	Limit       int
	Offset      int
}
