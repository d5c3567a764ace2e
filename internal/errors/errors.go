// Package errors consolidates error definitions for the whole project.
//
// It provides sentinel errors for the main failure categories
// (validation, computation, state), category checking helpers, and
// wrapping utilities.
package errors

import (
	"errors"
	"fmt"
)

// ============================================================================
// Sentinel errors for common conditions
// ============================================================================

var (
	// Validation errors
	ErrInvalidEvent  = errors.New("invalid event")
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrInvalidPolicy = errors.New("invalid retention policy")
	ErrMissingField  = errors.New("missing required field")

	// Computation errors
	ErrColumnMismatch = errors.New("column length mismatch")
	ErrColumnNotFound = errors.New("column not found")
	ErrComputation    = errors.New("computation failed")

	// State errors
	ErrEngineClosed   = errors.New("engine is closed")
	ErrWriterClosed   = errors.New("writer is closed")
	ErrQueryClosed    = errors.New("query service is closed")
	ErrRowOutOfRange  = errors.New("row index out of range")
	ErrEmptySnapshot  = errors.New("snapshot contains no rows")
	ErrNotImplemented = errors.New("not implemented")
)

// ============================================================================
// Helper functions for error checking
// ============================================================================

// Is is a convenience wrapper for errors.Is
var Is = errors.Is

// As is a convenience wrapper for errors.As
var As = errors.As

// New is a convenience wrapper for errors.New
var New = errors.New

// IsValidation returns true if err is a validation error.
func IsValidation(err error) bool {
	var verrs *ValidationErrors
	if errors.As(err, &verrs) {
		return true
	}
	return errors.Is(err, ErrInvalidEvent) ||
		errors.Is(err, ErrInvalidConfig) ||
		errors.Is(err, ErrInvalidPolicy) ||
		errors.Is(err, ErrMissingField)
}

// IsComputation returns true if err is a computation error.
func IsComputation(err error) bool {
	return errors.Is(err, ErrColumnMismatch) ||
		errors.Is(err, ErrColumnNotFound) ||
		errors.Is(err, ErrComputation)
}

// IsStateError returns true if err is a state-related error.
func IsStateError(err error) bool {
	return errors.Is(err, ErrEngineClosed) ||
		errors.Is(err, ErrWriterClosed) ||
		errors.Is(err, ErrQueryClosed) ||
		errors.Is(err, ErrRowOutOfRange)
}

// ============================================================================
// Error wrapping utilities
// ============================================================================

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// ============================================================================
// Error constructors with context
// ============================================================================

// NewValidation creates a validation error with context.
func NewValidation(field, reason string) error {
	return fmt.Errorf("invalid %s: %s: %w", field, reason, ErrInvalidEvent)
}

// NewMissingField creates a missing field error.
func NewMissingField(field string) error {
	return fmt.Errorf("%s: %w", field, ErrMissingField)
}

// NewColumnMismatch creates a computation error for diverging column lengths.
func NewColumnMismatch(column string, got, want int) error {
	return fmt.Errorf("column %s has %d rows, expected %d: %w", column, got, want, ErrColumnMismatch)
}

// ============================================================================
// Validation Errors Collection
// ============================================================================

// ValidationErrors collects multiple validation errors.
type ValidationErrors struct {
	Errors []error
}

// NewValidationErrors creates a new ValidationErrors collector.
func NewValidationErrors() *ValidationErrors {
	return &ValidationErrors{}
}

// Add adds an error to the collection.
func (v *ValidationErrors) Add(err error) {
	if err != nil {
		v.Errors = append(v.Errors, err)
	}
}

// AddField adds a field validation error.
func (v *ValidationErrors) AddField(field, reason string) {
	v.Errors = append(v.Errors, NewValidation(field, reason))
}

// AddMissing adds a missing field error.
func (v *ValidationErrors) AddMissing(field string) {
	v.Errors = append(v.Errors, NewMissingField(field))
}

// HasErrors returns true if there are any errors.
func (v *ValidationErrors) HasErrors() bool {
	return len(v.Errors) > 0
}

// Error implements the error interface.
func (v *ValidationErrors) Error() string {
	if len(v.Errors) == 0 {
		return ""
	}
	if len(v.Errors) == 1 {
		return v.Errors[0].Error()
	}

	msg := fmt.Sprintf("validation failed with %d errors:", len(v.Errors))
	for _, err := range v.Errors {
		msg += "\n  - " + err.Error()
	}
	return msg
}

// Err returns nil if no errors, otherwise returns the ValidationErrors.
func (v *ValidationErrors) Err() error {
	if len(v.Errors) == 0 {
		return nil
	}
	return v
}

// Unwrap returns the first error for errors.Is/As support.
func (v *ValidationErrors) Unwrap() error {
	if len(v.Errors) == 0 {
		return nil
	}
	return v.Errors[0]
}
