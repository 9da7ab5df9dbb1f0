// Package errors consolidates error definitions for the heat-map service.
//
// This package provides:
// - Sentinel errors for all error conditions
// - Error category checking functions
// - Error wrapping utilities
// - A typed Outcome for best-effort operations
package errors

import (
	"errors"
	"fmt"
)

// ============================================================================
// Sentinel errors for common conditions
// ============================================================================

var (
	// Validation errors - rejected at the ingest boundary, no partial writes.
	ErrInvalidPayload = errors.New("bad payload")
	ErrMissingField   = errors.New("missing required field")
	ErrInvalidDevice  = errors.New("invalid device id")

	// Not found errors - the requested device has no file yet.
	ErrNotFound       = errors.New("not found")
	ErrSeriesNotFound = errors.New("series not found")
	ErrNamesNotFound  = errors.New("sensor names not found")

	// Read-side reconstruction states. These are reportable conditions,
	// not failures; they surface as explicit states in display output.
	ErrNoTimeColumn    = errors.New("no time column")
	ErrNoSensorColumns = errors.New("no sensor columns")
	ErrNoData          = errors.New("no data yet")

	// Storage errors - a required write failed, the request is aborted.
	ErrStorage = errors.New("storage failure")
)

// ============================================================================
// Helper functions for error checking
// ============================================================================

// Is is a convenience wrapper for errors.Is
var Is = errors.Is

// As is a convenience wrapper for errors.As
var As = errors.As

// IsNotFound returns true if err is a not-found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrSeriesNotFound) ||
		errors.Is(err, ErrNamesNotFound)
}

// IsValidation returns true if err is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidPayload) ||
		errors.Is(err, ErrMissingField) ||
		errors.Is(err, ErrInvalidDevice)
}

// IsStorage returns true if err is a storage failure.
func IsStorage(err error) bool {
	return errors.Is(err, ErrStorage)
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

// NewMissingField creates a missing field error.
func NewMissingField(field string) error {
	return fmt.Errorf("%s: %w", field, ErrMissingField)
}

// NewInvalidPayload creates a payload validation error with context.
func NewInvalidPayload(reason string) error {
	return fmt.Errorf("%s: %w", reason, ErrInvalidPayload)
}

// NewNotFound creates a not-found error with context.
func NewNotFound(entityType, identifier string) error {
	return fmt.Errorf("%s '%s': %w", entityType, identifier, ErrNotFound)
}

// NewStorage wraps an I/O error as a storage failure.
func NewStorage(op string, err error) error {
	return fmt.Errorf("%s: %v: %w", op, err, ErrStorage)
}

// ============================================================================
// Best-effort outcomes
// ============================================================================

// Outcome classifies the result of a best-effort operation. Rotation
// inspection and metadata writes tolerate failure; an Outcome makes that
// tolerance explicit instead of a blanket catch-and-ignore.
type Outcome int

const (
	// OutcomeOK means the operation ran and took effect.
	OutcomeOK Outcome = iota
	// OutcomeSkipped means there was nothing to do (non-fatal).
	OutcomeSkipped
	// OutcomeFailed means the operation failed but the caller may continue.
	OutcomeFailed
)

// String returns a human-readable name for the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeFailed:
		return "failed"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// BestEffort carries the outcome of a best-effort operation together with
// the error that caused a failure, if any.
type BestEffort struct {
	Outcome Outcome
	Err     error
}

// Effected returns a successful best-effort result.
func Effected() BestEffort {
	return BestEffort{Outcome: OutcomeOK}
}

// Skipped returns a nothing-to-do best-effort result.
func Skipped() BestEffort {
	return BestEffort{Outcome: OutcomeSkipped}
}

// Failed returns a failed best-effort result carrying err.
func Failed(err error) BestEffort {
	return BestEffort{Outcome: OutcomeFailed, Err: err}
}

// Applied returns true if the operation ran and took effect.
func (b BestEffort) Applied() bool {
	return b.Outcome == OutcomeOK
}
