// Package domain holds the error taxonomy shared by every bounded context.
package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors classify a DomainError. Handlers map them to HTTP status codes.
var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidState = errors.New("invalid state")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

// DomainError is a classified, human-readable error raised by domain and application code.
type DomainError struct {
	Err     error
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	return e.Message
}

// Unwrap exposes the sentinel so errors.Is works across wrapping layers.
func (e *DomainError) Unwrap() error {
	return e.Err
}

// WithDetail attaches a detail entry and returns the same error.
func (e *DomainError) WithDetail(key string, value any) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// NewNotFoundError reports a missing entity.
func NewNotFoundError(entity, id string) *DomainError {
	return &DomainError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found", entity),
		Details: map[string]any{"resource": entity, "id": id},
	}
}

// NewValidationError reports malformed input on a specific field.
func NewValidationError(field, message string) *DomainError {
	return &DomainError{
		Err:     ErrValidation,
		Message: message,
		Details: map[string]any{"field": field},
	}
}

// NewInvalidStateError reports a forbidden state transition.
func NewInvalidStateError(from, to string) *DomainError {
	return &DomainError{
		Err:     ErrInvalidState,
		Message: fmt.Sprintf("cannot transition from %s to %s", from, to),
		Details: map[string]any{"from": from, "to": to},
	}
}

// NewRuleViolation reports a business precondition failure with a readable reason.
func NewRuleViolation(message string) *DomainError {
	return &DomainError{Err: ErrInvalidState, Message: message}
}

// NewConflictError reports a uniqueness or concurrent-modification conflict.
func NewConflictError(message string) *DomainError {
	return &DomainError{Err: ErrConflict, Message: message}
}

// NewUnauthorizedError reports a failed authentication or signature check.
func NewUnauthorizedError(message string) *DomainError {
	return &DomainError{Err: ErrUnauthorized, Message: message}
}

// NewForbiddenError reports an authenticated caller acting on something it does not own.
func NewForbiddenError(message string) *DomainError {
	return &DomainError{Err: ErrForbidden, Message: message}
}

// IsNotFound reports whether err is classified as not found.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// AsDomainError extracts a DomainError from the chain.
func AsDomainError(err error) (*DomainError, bool) {
	var domErr *DomainError
	if errors.As(err, &domErr) {
		return domErr, true
	}
	return nil, false
}
