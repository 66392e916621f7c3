package models

import (
	"time"

	"github.com/google/uuid"
)

// ModuleKey names a functional area that can be locked for writes
type ModuleKey string

const (
	ModuleTasks          ModuleKey = "tasks"
	ModuleFinanceEntries ModuleKey = "finance_entries"
	ModuleDebts          ModuleKey = "debts"
	ModuleVehicles       ModuleKey = "vehicles"
	ModuleNotes          ModuleKey = "notes"
)

// ModuleKeys is the closed set of lockable modules
var ModuleKeys = []ModuleKey{
	ModuleTasks,
	ModuleFinanceEntries,
	ModuleDebts,
	ModuleVehicles,
	ModuleNotes,
}

// Valid reports whether the key belongs to the closed set
func (k ModuleKey) Valid() bool {
	for _, known := range ModuleKeys {
		if k == known {
			return true
		}
	}
	return false
}

// String returns the module key as stored
func (k ModuleKey) String() string {
	return string(k)
}

// ModuleLock is the central write-lock row for a module
type ModuleLock struct {
	ModuleKey ModuleKey  `json:"module_key" db:"module_key"`
	Locked    bool       `json:"locked" db:"locked"`
	Reason    *string    `json:"reason,omitempty" db:"reason"`
	LockedBy  *uuid.UUID `json:"locked_by,omitempty" db:"locked_by"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the ModuleLock model
func (ModuleLock) TableName() string {
	return "module_locks"
}

// NewModuleLock creates a lock row for the given module
func NewModuleLock(key ModuleKey, locked bool, reason string, lockedBy *uuid.UUID) *ModuleLock {
	lock := &ModuleLock{
		ModuleKey: key,
		Locked:    locked,
		LockedBy:  lockedBy,
		UpdatedAt: time.Now(),
	}
	if reason != "" {
		lock.Reason = &reason
	}
	return lock
}

// ReasonText returns the lock reason or an empty string
func (l *ModuleLock) ReasonText() string {
	if l == nil || l.Reason == nil {
		return ""
	}
	return *l.Reason
}
