package service

import (
	"errors"
	"fmt"

	"github.com/news-publishing-api/internal/policy"
	"github.com/news-publishing-api/internal/validation"
)

var (
	// ErrNotFound is returned for missing records and for records the actor
	// may not see
	ErrNotFound = errors.New("not found")
	// ErrUnauthenticated is returned when an operation needs a signed-in actor
	ErrUnauthenticated = policy.ErrUnauthenticated
	// ErrForbidden is returned when the actor does not own the record
	ErrForbidden = policy.ErrForbidden
)

// ValidationError carries per-field messages for a rejected submission
type ValidationError struct {
	Fields validation.FieldErrors
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Fields.Error()
}

func invalid(fields validation.FieldErrors) *ValidationError {
	return &ValidationError{Fields: fields}
}

func invalidField(field, message string) *ValidationError {
	fields := validation.FieldErrors{}
	fields.Add(field, message)
	return invalid(fields)
}

// ConflictError reports a write that collided with concurrent state.
// Retryable conflicts may succeed if the client resubmits.
type ConflictError struct {
	Field     string
	Message   string
	Retryable bool
}

func (e *ConflictError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}
