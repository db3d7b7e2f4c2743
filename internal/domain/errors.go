package domain

import "errors"

// Sentinel errors for the domain layer.
var (
	ErrNotFound = errors.New("domain: not found")
	ErrConflict = errors.New("domain: conflict")
)

// PermissionError is returned when the access resolver denies an action.
// Reason is user-visible and must survive translation at the API boundary.
type PermissionError struct {
	Reason string
}

func (e *PermissionError) Error() string {
	return "domain: permission denied: " + e.Reason
}

// Denied wraps a denial reason in a PermissionError.
func Denied(reason string) error {
	return &PermissionError{Reason: reason}
}

// ValidationError is returned when a request is well-formed but violates a
// domain rule (out-of-range position, duplicate membership, self-targeting).
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "domain: invalid: " + e.Reason
}

// Invalid wraps a rule violation in a ValidationError.
func Invalid(reason string) error {
	return &ValidationError{Reason: reason}
}
