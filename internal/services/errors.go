// Common service errors. Handlers map these to HTTP status codes by kind
// (errors.Is / errors.As), never by message content.
package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/propdesk/leads-api/internal/validation"
)

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrForbidden indicates the actor may not modify this record
	// (not the owner and not an admin).
	ErrForbidden = errors.New("not authorized to modify this record")

	// ErrConflict indicates an optimistic-concurrency mismatch: the record
	// was modified by another user since the caller last read it.
	ErrConflict = errors.New("record has been modified by another user")

	// ErrInvalidCredentials is returned on a failed login attempt.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrInvalidToken is returned for unknown or expired refresh tokens.
	ErrInvalidToken = errors.New("invalid or expired token")

	// ErrDuplicateEmail is returned when a user email is already taken.
	ErrDuplicateEmail = errors.New("a user with this email already exists")
)

// ValidationError carries per-field rule violations so callers can
// self-correct their input.
type ValidationError struct {
	Fields validation.FieldErrors
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, e.Fields[field]))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// NewValidationError wraps field errors into a ValidationError.
func NewValidationError(fields validation.FieldErrors) *ValidationError {
	return &ValidationError{Fields: fields}
}
