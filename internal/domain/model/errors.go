package model

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by every layer. Callers wrap these with fmt.Errorf
// and the HTTP layer maps them to status codes with errors.Is.
var (
	// ErrValidation means the input was malformed (bad date range, missing field).
	ErrValidation = errors.New("validation error")

	// ErrNotFound means a referenced period, payment or transaction does not
	// exist for the organization.
	ErrNotFound = errors.New("not found")

	// ErrConflict means the operation would break a state invariant
	// (re-matching a matched entity, completing a completed period).
	ErrConflict = errors.New("conflict")
)

// Validationf returns an error wrapping ErrValidation.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// NotFoundf returns an error wrapping ErrNotFound.
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// Conflictf returns an error wrapping ErrConflict.
func Conflictf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}
