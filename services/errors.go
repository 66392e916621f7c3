package services

import (
	"errors"
	"fmt"
)

// ErrorType represents the type/category of error
type ErrorType string

const (
	ErrorTypeNotFound        ErrorType = "not_found"
	ErrorTypeValidation      ErrorType = "validation"
	ErrorTypeUnauthenticated ErrorType = "unauthenticated"
	ErrorTypeForbidden       ErrorType = "forbidden"
	ErrorTypeFeatureDisabled ErrorType = "feature_disabled"
	ErrorTypeModuleLocked    ErrorType = "module_locked"
	ErrorTypeCheckFailed     ErrorType = "check_failed"
	ErrorTypeInternal        ErrorType = "internal"
)

// DomainError represents a structured error with additional context
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
	Details map[string]interface{}
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// WithDetail returns a copy of the error carrying an extra detail.
// Sentinels are shared, so they are never mutated in place.
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	details := make(map[string]interface{}, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value
	return &DomainError{
		Type:    e.Type,
		Message: e.Message,
		Err:     e.Err,
		Details: details,
	}
}

// NewDomainError creates a new domain error
func NewDomainError(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
		Details: make(map[string]interface{}),
	}
}

// Domain error variables

var (
	// Not Found Errors
	ErrTaskNotFound         = NewDomainError(ErrorTypeNotFound, "task not found", nil)
	ErrDebtNotFound         = NewDomainError(ErrorTypeNotFound, "debt not found", nil)
	ErrFinanceEntryNotFound = NewDomainError(ErrorTypeNotFound, "finance entry not found", nil)
	ErrAuditLogNotFound     = NewDomainError(ErrorTypeNotFound, "audit log not found", nil)
	ErrFeatureNotFound      = NewDomainError(ErrorTypeNotFound, "feature not found", nil)

	// Validation Errors
	ErrInvalidInput  = NewDomainError(ErrorTypeValidation, "invalid input", nil)
	ErrUnknownModule = NewDomainError(ErrorTypeValidation, "unknown module", nil)

	// Authentication Errors
	ErrUnauthenticated = NewDomainError(ErrorTypeUnauthenticated, "authentication required", nil)

	// Permission Errors
	ErrForbidden     = NewDomainError(ErrorTypeForbidden, "access forbidden", nil)
	ErrAdminRequired = NewDomainError(ErrorTypeForbidden, "admin role required", nil)

	// Write policy denials
	ErrFeatureDisabled = NewDomainError(ErrorTypeFeatureDisabled, "module is disabled", nil)
	ErrModuleLocked    = NewDomainError(ErrorTypeModuleLocked, "module is locked for writes", nil)

	// Policy infrastructure failures
	ErrLockCheckFailed    = NewDomainError(ErrorTypeCheckFailed, "module lock check failed", nil)
	ErrFeatureCheckFailed = NewDomainError(ErrorTypeCheckFailed, "feature flag check failed", nil)

	// Internal Errors
	ErrInternal = NewDomainError(ErrorTypeInternal, "internal server error", nil)
)

// Error type checking helper functions

// IsNotFoundError checks if an error is a not found error
func IsNotFoundError(err error) bool {
	return GetErrorType(err) == ErrorTypeNotFound
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return GetErrorType(err) == ErrorTypeValidation
}

// IsUnauthenticatedError checks if an error is an authentication error
func IsUnauthenticatedError(err error) bool {
	return GetErrorType(err) == ErrorTypeUnauthenticated
}

// IsForbiddenError checks if an error is a forbidden error
func IsForbiddenError(err error) bool {
	return GetErrorType(err) == ErrorTypeForbidden
}

// IsLockedError checks if an error is a write-policy denial (module locked or feature disabled)
func IsLockedError(err error) bool {
	t := GetErrorType(err)
	return t == ErrorTypeModuleLocked || t == ErrorTypeFeatureDisabled
}

// IsCheckFailedError checks if an error means the write policy could not be evaluated
func IsCheckFailedError(err error) bool {
	return GetErrorType(err) == ErrorTypeCheckFailed
}

// IsInternalError checks if an error is an internal error
func IsInternalError(err error) bool {
	return GetErrorType(err) == ErrorTypeInternal
}

// GetErrorType returns the ErrorType of a domain error, or empty string if not a domain error
func GetErrorType(err error) ErrorType {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type
	}
	return ""
}

// GetErrorDetails returns the details map of a domain error, or nil if not a domain error
func GetErrorDetails(err error) map[string]interface{} {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Details
	}
	return nil
}

// WrapInternal wraps an error as an internal error
func WrapInternal(message string, err error) error {
	return NewDomainError(ErrorTypeInternal, message, err)
}

// WrapLockCheckFailed wraps a lock store failure so callers fail closed
func WrapLockCheckFailed(err error) error {
	return NewDomainError(ErrorTypeCheckFailed, ErrLockCheckFailed.Message, err)
}
