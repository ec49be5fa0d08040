package common

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKind(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "validation", err: NewValidationError("name", ErrNameRequired), want: "validation"},
		{name: "integrity", err: NewIntegrityError(3, ErrChainBroken), want: "integrity"},
		{name: "security", err: NewSecurityError("ssn", ErrSensitiveData), want: "security"},
		{name: "model", err: NewModelError(errors.New("endpoint down")), want: "model"},
		{name: "plain error", err: errors.New("boom"), want: "internal"},
		{
			name: "wrapped validation",
			err:  fmt.Errorf("outer: %w", NewValidationError("dob", ErrInvalidDate)),
			want: "validation",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorKind(tt.err))
		})
	}
}

func TestTypedErrorsUnwrap(t *testing.T) {
	assert.ErrorIs(t, NewValidationError("name", ErrNameRequired), ErrNameRequired)
	assert.ErrorIs(t, NewIntegrityError(0, ErrChainBroken), ErrChainBroken)
	assert.ErrorIs(t, NewSecurityError("ssn", ErrSensitiveData), ErrSensitiveData)

	inner := errors.New("inner")
	assert.ErrorIs(t, NewModelError(inner), inner)
}

func TestIntegrityErrorMessage(t *testing.T) {
	withSeq := NewIntegrityError(7, ErrChainBroken)
	assert.Contains(t, withSeq.Error(), "seq 7")

	noSeq := NewIntegrityError(-1, ErrChainBroken)
	assert.NotContains(t, noSeq.Error(), "seq")
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "validation never retries", err: NewValidationError("name", ErrNameRequired), want: false},
		{name: "integrity never retries", err: NewIntegrityError(1, ErrChainBroken), want: false},
		{name: "security never retries", err: NewSecurityError("ssn", ErrSensitiveData), want: false},
		{name: "explicit retryable", err: &RetryableError{Err: errors.New("reset"), Retryable: true}, want: true},
		{name: "explicit non-retryable", err: &RetryableError{Err: errors.New("403"), Retryable: false}, want: false},
		{name: "watchlist unavailable", err: fmt.Errorf("load: %w", ErrWatchlistUnavailable), want: true},
		{name: "deadline exceeded", err: context.DeadlineExceeded, want: false},
		{name: "canceled", err: context.Canceled, want: false},
		{name: "unknown error", err: errors.New("mystery"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}
