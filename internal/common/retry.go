package common

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/Veraticus/tariff-impact/internal/service"
)

var (
	// ErrRateLimit marks an upstream 429 response.
	ErrRateLimit = errors.New("rate limit exceeded")
	// ErrMaxRetries indicates that all retry attempts have been exhausted.
	ErrMaxRetries = errors.New("max retries exceeded")
)

// Retry defaults applied to zero-valued RetryOptions fields.
const (
	DefaultRetryInitialDelay = 250 * time.Millisecond
	DefaultRetryMaxDelay     = 5 * time.Second
	DefaultRetryMultiplier   = 2.0
)

// RetryableError marks whether a failure may succeed on a later attempt.
// RetryAfter carries an upstream hint such as a Retry-After header.
type RetryableError struct {
	Err        error
	Retryable  bool
	RetryAfter time.Duration
}

func (e *RetryableError) Error() string {
	return e.Err.Error()
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// WithRetry runs operation until it succeeds, returns an error IsRetryable
// rejects, the context ends, or opts.MaxAttempts is reached. A single-attempt
// configuration returns the operation's error unwrapped.
func WithRetry(ctx context.Context, operation func() error, opts service.RetryOptions) error {
	opts = withRetryDefaults(opts)

	var lastErr error
	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		lastErr = operation()
		if lastErr == nil {
			return nil
		}
		if !IsRetryable(lastErr) {
			return lastErr
		}
		if attempt == opts.MaxAttempts {
			break
		}

		delay := retryDelay(opts, attempt, retryAfter(lastErr), rand.Float64)
		LogWarn("Retrying after transient failure", Fields{
			"attempt":      attempt,
			"max_attempts": opts.MaxAttempts,
			"delay":        delay,
			"error":        lastErr.Error(),
		})

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	if opts.MaxAttempts == 1 {
		return lastErr
	}
	return fmt.Errorf("%w after %d attempts: %w", ErrMaxRetries, opts.MaxAttempts, lastErr)
}

func withRetryDefaults(opts service.RetryOptions) service.RetryOptions {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 1
	}
	if opts.InitialDelay <= 0 {
		opts.InitialDelay = DefaultRetryInitialDelay
	}
	if opts.MaxDelay <= 0 {
		opts.MaxDelay = DefaultRetryMaxDelay
	}
	if opts.Multiplier < 1 {
		opts.Multiplier = DefaultRetryMultiplier
	}
	opts.Jitter = math.Max(0, math.Min(opts.Jitter, 1))
	return opts
}

// retryDelay is the wait before attempt+1: exponential from InitialDelay, spread
// by ±Jitter, never below an upstream hint and never above MaxDelay.
func retryDelay(opts service.RetryOptions, attempt int, hint time.Duration, random func() float64) time.Duration {
	delay := float64(opts.InitialDelay) * math.Pow(opts.Multiplier, float64(attempt-1))
	if opts.Jitter > 0 {
		delay *= 1 - opts.Jitter + 2*opts.Jitter*random()
	}
	delay = math.Max(delay, float64(hint))
	return time.Duration(math.Min(delay, float64(opts.MaxDelay)))
}

func retryAfter(err error) time.Duration {
	var re *RetryableError
	if errors.As(err, &re) {
		return re.RetryAfter
	}
	return 0
}
