// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")
	ErrInvalidEntity = errors.New("invalid entity")

	// Validation errors
	ErrValidation      = errors.New("validation error")
	ErrInvalidID       = errors.New("invalid ID")
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrNegativeValue   = errors.New("value cannot be negative")
	ErrValueOutOfRange = errors.New("value out of range")
	ErrFutureTimestamp = errors.New("timestamp cannot be in the future")

	// State errors
	ErrInvalidState    = errors.New("invalid state")
	ErrStateTransition = errors.New("invalid state transition")
	ErrTerminalState   = errors.New("record is in a terminal state")

	// Authorization errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// Data integrity warnings (surfaced, never fatal)
	ErrDataIntegrity = errors.New("data integrity violation")

	// External service / persistence errors
	ErrExternalService    = errors.New("external service error")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timeout")
	ErrPersistence        = errors.New("persistence failure")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "progression", "badge", "drill"
	Op      string // Operation that failed, e.g., "Submit", "Validate"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Explorer domain errors
var (
	ErrExplorerNotFound      = NewDomainError("explorer", "Find", ErrNotFound, "explorer not found")
	ErrExplorerAlreadyExists = NewDomainError("explorer", "Create", ErrAlreadyExists, "explorer already exists")
	ErrExplorerInactive      = NewDomainError("explorer", "CheckStatus", ErrInvalidState, "explorer is not active")
	ErrInvalidPin            = NewDomainError("explorer", "Validate", ErrInvalidInput, "invalid PIN")
	ErrNotMentorOf           = NewDomainError("explorer", "CheckMentor", ErrForbidden, "not the mentor of this explorer")
)

// Progression domain errors
var (
	ErrRecordNotFound      = NewDomainError("progression", "Find", ErrNotFound, "progress record not found")
	ErrEmptyResponse       = NewDomainError("progression", "Submit", ErrEmptyValue, "response text cannot be empty")
	ErrEmptyMentorComment  = NewDomainError("progression", "RequestRevision", ErrEmptyValue, "mentor comment is required")
	ErrRecordTerminal      = NewDomainError("progression", "Submit", ErrTerminalState, "record already completed")
	ErrNotAwaitingReview   = NewDomainError("progression", "Review", ErrStateTransition, "record is not awaiting review")
	ErrNotAwaitingResubmit = NewDomainError("progression", "Resubmit", ErrStateTransition, "record is not awaiting resubmission")
)

// Catalog domain errors
var (
	ErrModuleNotFound      = NewDomainError("catalog", "Find", ErrNotFound, "module not found")
	ErrDefiNotFound        = NewDomainError("catalog", "Find", ErrNotFound, "defi not found")
	ErrUnknownPrerequisite = NewDomainError("catalog", "Resolve", ErrDataIntegrity, "prerequisite references unknown defi")
	ErrDefiLocked          = NewDomainError("catalog", "Resolve", ErrForbidden, "defi prerequisites are not completed")
)

// Drill domain errors
var (
	ErrInvalidScore    = NewDomainError("drill", "Validate", ErrValueOutOfRange, "score must be between 0 and 10")
	ErrInvalidAccuracy = NewDomainError("drill", "Validate", ErrValueOutOfRange, "accuracy must be between 0 and 100")
	ErrInvalidDuration = NewDomainError("drill", "Validate", ErrNegativeValue, "time must be positive")
)

// Badge domain errors
var (
	ErrBadgeNotFound    = NewDomainError("badge", "Find", ErrNotFound, "badge not found")
	ErrUnknownBadgeRule = NewDomainError("badge", "Evaluate", ErrInvalidEntity, "badge has no evaluation rule")
)

// External collaborator errors
var (
	ErrEntitlementUnavailable = NewDomainError("entitlement", "Check", ErrServiceUnavailable, "entitlement service is unavailable")
	ErrEntitlementDenied      = NewDomainError("entitlement", "Check", ErrForbidden, "content access denied")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if the error is an "already exists" error.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrNegativeValue) ||
		errors.Is(err, ErrValueOutOfRange)
}

// IsStateConflict checks if the error is a state-conflict error.
func IsStateConflict(err error) bool {
	return errors.Is(err, ErrInvalidState) ||
		errors.Is(err, ErrStateTransition) ||
		errors.Is(err, ErrTerminalState)
}

// IsPersistence checks if the error is a persistence failure.
// Callers must never treat a persistence failure as "not earned" or
// "not completed" - that would silently lose XP or badges.
func IsPersistence(err error) bool {
	return errors.Is(err, ErrPersistence)
}

// IsDataIntegrity checks if the error is a data-integrity warning.
func IsDataIntegrity(err error) bool {
	return errors.Is(err, ErrDataIntegrity)
}

// IsRetryable checks if the operation can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrPersistence)
}
