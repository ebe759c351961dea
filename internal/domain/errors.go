package domain

import (
	"errors"
	"strings"
)

// Sentinel errors shared across services.
var (
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrTableNotFound      = errors.New("table not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrDuplicateEmail     = errors.New("email already in use")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNoValidInvitees    = errors.New("no valid invitees provided")
	ErrAllAlreadyInvited  = errors.New("all specified users have already been invited")
)

// ValidationError carries the field-level error messages produced by an
// entity's Validate method. The write is never attempted when it is returned.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Errors, "; ")
}

// NewValidationError wraps a non-empty list of validation messages.
func NewValidationError(errs []string) *ValidationError {
	return &ValidationError{Errors: errs}
}
