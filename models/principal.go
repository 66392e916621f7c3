package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role is the closed set of roles a principal can hold
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// ParseRole normalizes a raw profile role value.
// Anything that is not a recognised role (including an empty value) maps to RoleUser.
func ParseRole(raw string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleAdmin:
		return RoleAdmin
	default:
		return RoleUser
	}
}

// String returns the role as stored
func (r Role) String() string {
	return string(r)
}

// Principal is the authenticated caller of a request.
// It is built once per request by the auth middleware and never persisted.
type Principal struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email,omitempty"`
	Role  Role      `json:"role"`
}

// NewPrincipal creates a principal with a normalized role
func NewPrincipal(id uuid.UUID, email, rawRole string) *Principal {
	return &Principal{
		ID:    id,
		Email: email,
		Role:  ParseRole(rawRole),
	}
}

// IsAdmin returns true if the principal has the admin role
func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == RoleAdmin
}

// EmailPtr returns the email as a nullable column value
func (p *Principal) EmailPtr() *string {
	if p == nil || p.Email == "" {
		return nil
	}
	email := p.Email
	return &email
}

// Profile is the persisted user profile that carries the authoritative role
type Profile struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
	Role      string    `json:"role" db:"role"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the Profile model
func (Profile) TableName() string {
	return "profiles"
}
