// Package common provides shared utilities and types used across the application.
package common

import (
	"context"
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Storage errors.
	ErrNotFound = errors.New("not found")

	// Reference data errors.
	ErrNoCountryData   = errors.New("no tariff data for country")
	ErrRateUnavailable = errors.New("exchange rate unavailable")
	ErrCatalog         = errors.New("tariff catalog failure")

	// Upstream errors.
	ErrUpstream        = errors.New("upstream unavailable")
	ErrMalformedRates  = errors.New("malformed exchange rate payload")
	ErrUnexpectedPanic = errors.New("unexpected failure")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// RecoveredError converts a value recovered from a panic into an error.
func RecoveredError(v any) error {
	if err, ok := v.(error); ok {
		return fmt.Errorf("%w: %w", ErrUnexpectedPanic, err)
	}
	return fmt.Errorf("%w: %v", ErrUnexpectedPanic, v)
}

// IsRetryable determines if an error should trigger a retry.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrRateLimit) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.Retryable
	}

	return false
}
