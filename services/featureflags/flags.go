// Package featureflags answers which features a caller may see and where the
// flag table comes from.
package featureflags

import "github.com/upb/lifedash/models"

// moduleFeatures maps each lockable module to the feature that gates it
var moduleFeatures = map[models.ModuleKey]models.FeatureKey{
	models.ModuleTasks:          models.FeatureTasksModule,
	models.ModuleFinanceEntries: models.FeatureFinanceModule,
	models.ModuleDebts:          models.FeatureFinanceModule,
	models.ModuleVehicles:       models.FeatureAutoModule,
	models.ModuleNotes:          models.FeatureNotesModule,
}

// Defaults returns the built-in flag table: every feature enabled, the audit viewer admin-only
func Defaults() models.FeatureFlags {
	return models.FeatureFlags{
		models.FeatureTasksModule:   {Key: models.FeatureTasksModule, Enabled: true},
		models.FeatureFinanceModule: {Key: models.FeatureFinanceModule, Enabled: true},
		models.FeatureAutoModule:    {Key: models.FeatureAutoModule, Enabled: true},
		models.FeatureNotesModule:   {Key: models.FeatureNotesModule, Enabled: true},
		models.FeatureAuditViewer:   {Key: models.FeatureAuditViewer, Enabled: true, AdminOnly: true},
	}
}

// CanSeeFeature decides visibility of one feature.
// Unknown keys are hidden; admins see disabled and admin-only features.
func CanSeeFeature(flags models.FeatureFlags, key models.FeatureKey, isAdmin bool) bool {
	flag, ok := flags[key]
	if !ok {
		return false
	}
	if !flag.Enabled {
		return isAdmin
	}
	if flag.AdminOnly {
		return isAdmin
	}
	return true
}

// Visibility evaluates CanSeeFeature for every known feature key
func Visibility(flags models.FeatureFlags, isAdmin bool) map[models.FeatureKey]bool {
	visible := make(map[models.FeatureKey]bool, len(models.FeatureKeys))
	for _, key := range models.FeatureKeys {
		visible[key] = CanSeeFeature(flags, key, isAdmin)
	}
	return visible
}

// FeatureForModule returns the feature gating a module
func FeatureForModule(module models.ModuleKey) (models.FeatureKey, bool) {
	key, ok := moduleFeatures[module]
	return key, ok
}
