/*
errors.go - Centralized error types for the HR engine

PURPOSE:
  All domain error values in one place for consistency and discoverability.
  The API layer classifies them with the helpers below and maps each class
  to an HTTP status.

ERROR CATEGORIES:
  1. Not found       - Referenced User/Department/Leave does not exist
  2. Validation      - Malformed domain value (unknown review decision)
  3. Forbidden       - Actor lacks authority over this exact record
  4. Idempotency     - AlreadyReviewed / AlreadyWithdrawn transition guards
  5. Conflict        - Concurrent write detected by the storage layer

PROPAGATION:
  Every failure aborts the whole logical operation; nothing is retried
  inside the engine. Conflict is retryable by the caller.

USAGE:
  if hr.IsNotFound(err) { ... 404 ... }
  var inv *hr.InvalidDecisionError
  if errors.As(err, &inv) { ... 400 ... }
*/
package hr

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrUserNotFound is returned when a referenced user doesn't exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrDepartmentNotFound is returned when a referenced department doesn't exist.
	ErrDepartmentNotFound = errors.New("department not found")

	// ErrLeaveNotFound is returned when a referenced leave doesn't exist.
	ErrLeaveNotFound = errors.New("leave not found")

	// ErrAlreadyReviewed is returned when a review targets an approval track
	// that has already left the Pending state.
	ErrAlreadyReviewed = errors.New("leave already reviewed")

	// ErrAlreadyWithdrawn is returned when acting on a withdrawn leave.
	ErrAlreadyWithdrawn = errors.New("leave already withdrawn")

	// ErrNotDepartmentManager is returned when a manager review comes from
	// anyone other than the requester's department manager.
	ErrNotDepartmentManager = errors.New("not the requester's department manager")

	// ErrNotRequester is returned when a withdrawal comes from anyone other
	// than the leave's requester.
	ErrNotRequester = errors.New("not the leave requester")

	// ErrUserExists is returned on a username/email uniqueness violation.
	ErrUserExists = errors.New("username or email already taken")

	// ErrDepartmentExists is returned on a department name uniqueness violation.
	ErrDepartmentExists = errors.New("department name already taken")

	// ErrInvalidDecision is the sentinel behind InvalidDecisionError.
	ErrInvalidDecision = errors.New("invalid review decision")

	// ErrConflict is returned when the store detects a concurrent write.
	// Callers may retry the whole operation.
	ErrConflict = errors.New("concurrent modification detected")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InvalidDecisionError reports a review decision outside the allowed set
// for its track.
type InvalidDecisionError struct {
	Track    string // "manager" or "hr"
	Decision string
	Allowed  []string
}

func (e *InvalidDecisionError) Error() string {
	return fmt.Sprintf("%s review decision must be one of %s, got %q",
		e.Track, strings.Join(e.Allowed, ", "), e.Decision)
}

func (e *InvalidDecisionError) Unwrap() error { return ErrInvalidDecision }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrDepartmentNotFound) ||
		errors.Is(err, ErrLeaveNotFound)
}

// IsForbidden returns true if the actor lacks domain authority for the record.
func IsForbidden(err error) bool {
	return errors.Is(err, ErrNotDepartmentManager) ||
		errors.Is(err, ErrNotRequester)
}

// IsValidation returns true for malformed domain values.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidDecision) ||
		errors.Is(err, ErrUserExists) ||
		errors.Is(err, ErrDepartmentExists)
}

// IsConflict returns true if the error is an idempotency guard or a
// concurrent-write detection.
func IsConflict(err error) bool {
	return errors.Is(err, ErrAlreadyReviewed) ||
		errors.Is(err, ErrAlreadyWithdrawn) ||
		errors.Is(err, ErrConflict)
}

// IsRetryable returns true if the error might succeed on retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsClientError returns true if the error is due to invalid client input
// rather than an internal failure.
func IsClientError(err error) bool {
	return IsNotFound(err) || IsForbidden(err) || IsValidation(err) || IsConflict(err)
}
