// Package common provides shared utilities and types used across the application.
package common

import (
	"context"
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Input errors.
	ErrNameRequired      = errors.New("name is required")
	ErrInvalidDate       = errors.New("invalid date")
	ErrSensitiveData     = errors.New("sensitive data not permitted")
	ErrReservedAttribute = errors.New("attribute key shadows a canonical field")

	// Audit chain errors.
	ErrChainBroken  = errors.New("audit chain broken")
	ErrTailUnstable = errors.New("audit chain tail could not be read consistently")

	// Watchlist errors.
	ErrWatchlistUnavailable = errors.New("watchlist source unavailable")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// ValidationError indicates a malformed or incomplete input record. It
// terminates the pipeline for that record before any state mutation.
type ValidationError struct {
	Err   error
	Field string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %q: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("validation failed: %v", e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError creates a validation error for a specific field.
func NewValidationError(field string, err error) error {
	return &ValidationError{Field: field, Err: err}
}

// IntegrityError indicates an audit chain verification failure or an append
// whose tail could not be read consistently. Never silently retried.
type IntegrityError struct {
	Err error
	Seq int64
}

func (e *IntegrityError) Error() string {
	if e.Seq >= 0 {
		return fmt.Sprintf("integrity failure at seq %d: %v", e.Seq, e.Err)
	}
	return fmt.Sprintf("integrity failure: %v", e.Err)
}

func (e *IntegrityError) Unwrap() error {
	return e.Err
}

// NewIntegrityError creates an integrity error localized to a sequence
// number. Pass seq -1 when no sequence applies.
func NewIntegrityError(seq int64, err error) error {
	return &IntegrityError{Seq: seq, Err: err}
}

// SecurityError indicates detected exposure or mishandling of PII, such as a
// sensitive field that must not reach the audit log in raw form.
type SecurityError struct {
	Err   error
	Field string
}

func (e *SecurityError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("security violation on %q: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("security violation: %v", e.Err)
}

func (e *SecurityError) Unwrap() error {
	return e.Err
}

// NewSecurityError creates a security error for a specific field.
func NewSecurityError(field string, err error) error {
	return &SecurityError{Field: field, Err: err}
}

// ModelError wraps an error propagated unchanged from a downstream risk
// scoring collaborator. The core does not interpret it; it only refrains from
// auditing a verdict when one occurs.
type ModelError struct {
	Err error
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("model error: %v", e.Err)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

// NewModelError wraps a collaborator error.
func NewModelError(err error) error {
	return &ModelError{Err: err}
}

// ErrorKind names the originating error category for a failed pipeline run.
func ErrorKind(err error) string {
	var (
		validationErr *ValidationError
		integrityErr  *IntegrityError
		securityErr   *SecurityError
		modelErr      *ModelError
	)
	switch {
	case errors.As(err, &validationErr):
		return "validation"
	case errors.As(err, &integrityErr):
		return "integrity"
	case errors.As(err, &securityErr):
		return "security"
	case errors.As(err, &modelErr):
		return "model"
	default:
		return "internal"
	}
}

// RetryableError wraps an error with retry-specific metadata.
type RetryableError struct {
	Err       error
	Retryable bool
}

func (e *RetryableError) Error() string {
	return e.Err.Error()
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// IsRetryable determines if an error should trigger a retry. Validation,
// security and integrity failures never retry; transient source failures do.
func IsRetryable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return false
	}

	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.Retryable
	}

	var (
		validationErr *ValidationError
		integrityErr  *IntegrityError
		securityErr   *SecurityError
	)
	if errors.As(err, &validationErr) || errors.As(err, &integrityErr) || errors.As(err, &securityErr) {
		return false
	}

	return errors.Is(err, ErrWatchlistUnavailable)
}
