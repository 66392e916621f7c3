// Package policy holds the role rules shared by every authorization decision.
// The lock store and the write context resolver both consult Bypasses, so the
// admin bypass exists in exactly one place.
package policy

import (
	"github.com/upb/lifedash/models"
	"github.com/upb/lifedash/services"
)

// Bypasses reports whether the principal skips feature and lock checks
func Bypasses(principal *models.Principal) bool {
	return principal.IsAdmin()
}

// RequireAuthenticated fails with ErrUnauthenticated for a missing principal
func RequireAuthenticated(principal *models.Principal) error {
	if principal == nil {
		return services.ErrUnauthenticated
	}
	return nil
}

// RequireAdmin fails unless the principal is an authenticated admin
func RequireAdmin(principal *models.Principal) error {
	if err := RequireAuthenticated(principal); err != nil {
		return err
	}
	if !principal.IsAdmin() {
		return services.ErrAdminRequired
	}
	return nil
}
