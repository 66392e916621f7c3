package models

// FeatureKey identifies a row in the feature flag table
type FeatureKey string

const (
	FeatureTasksModule   FeatureKey = "tasks_module"
	FeatureFinanceModule FeatureKey = "finance_module"
	FeatureAutoModule    FeatureKey = "auto_module"
	FeatureNotesModule   FeatureKey = "notes_module"
	FeatureAuditViewer   FeatureKey = "audit_viewer"
)

// FeatureKeys lists every known feature key in display order
var FeatureKeys = []FeatureKey{
	FeatureTasksModule,
	FeatureFinanceModule,
	FeatureAutoModule,
	FeatureNotesModule,
	FeatureAuditViewer,
}

// Valid reports whether the key belongs to the closed set
func (k FeatureKey) Valid() bool {
	for _, known := range FeatureKeys {
		if k == known {
			return true
		}
	}
	return false
}

// FeatureFlag is the enablement state of a single feature
type FeatureFlag struct {
	Key       FeatureKey `json:"key" yaml:"key" db:"key"`
	Enabled   bool       `json:"enabled" yaml:"enabled" db:"enabled"`
	AdminOnly bool       `json:"admin_only" yaml:"admin_only" db:"admin_only"`
}

// TableName returns the table name for the FeatureFlag model
func (FeatureFlag) TableName() string {
	return "feature_flags"
}

// FeatureFlags is a point-in-time snapshot of the flag table
type FeatureFlags map[FeatureKey]FeatureFlag

// Clone returns an independent copy of the snapshot
func (f FeatureFlags) Clone() FeatureFlags {
	out := make(FeatureFlags, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}
