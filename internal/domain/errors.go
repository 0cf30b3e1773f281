package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Stable error kinds. Transport layers map these to status codes with errors.Is.
var (
	// ErrValidation marks malformed or incomplete input.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks a referenced quiz or attempt that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrForbidden marks an authenticated caller acting on a resource it does not own.
	ErrForbidden = errors.New("forbidden")
	// ErrUnauthenticated marks a missing identity where one is required.
	ErrUnauthenticated = errors.New("unauthenticated")
)

var (
	// ErrQuizNotFound indicates the quiz could not be loaded.
	ErrQuizNotFound = fmt.Errorf("quiz %w", ErrNotFound)
	// ErrAttemptNotFound indicates the attempt could not be loaded.
	ErrAttemptNotFound = fmt.Errorf("attempt %w", ErrNotFound)
	// ErrIncompleteSubmission is returned when answers are missing or the count is off.
	ErrIncompleteSubmission = fmt.Errorf("%w: incomplete submission", ErrValidation)
)

// ValidationError carries per-field messages and unwraps to ErrValidation.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError builds a ValidationError with a single field message.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
