package chain

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"time"

	satserr "github.com/mrz1836/satsend/pkg/errors"
)

// Sentinel errors for retry classification.
var (
	ErrRetryable = &satserr.SatsendError{
		Code:     "RETRYABLE_ERROR",
		Message:  "retryable error",
		ExitCode: satserr.ExitGeneral,
	}

	ErrTimeout = &satserr.SatsendError{
		Code:     "TIMEOUT",
		Message:  "operation timed out",
		ExitCode: satserr.ExitGeneral,
	}

	ErrRateLimited = &satserr.SatsendError{
		Code:     "RATE_LIMITED",
		Message:  "rate limited",
		ExitCode: satserr.ExitGeneral,
	}
)

// RetryConfig bounds a retry loop.
type RetryConfig struct {
	MaxAttempts int           // total attempts, including the first
	BaseDelay   time.Duration // delay before the first retry
	MaxDelay    time.Duration // backoff ceiling
}

// DefaultRetryConfig is the explorer-fetch policy: 4 attempts with delays
// of 1s, 2s, 4s.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 4,
		BaseDelay:   time.Second,
		MaxDelay:    4 * time.Second,
	}
}

// Retry runs the operation under the default policy.
func Retry[T any](ctx context.Context, operation func() (T, error)) (T, error) {
	return RetryWithConfig(ctx, DefaultRetryConfig(), operation)
}

// RetryWithConfig runs the operation with exponential backoff on retryable
// failures. When a failure carries the backend's Retry-After hint, the next
// attempt waits as instructed instead of backing off, capped at MaxDelay.
func RetryWithConfig[T any](ctx context.Context, cfg RetryConfig, operation func() (T, error)) (T, error) {
	var result T
	var err error

	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		result, err = operation()
		if err == nil {
			return result, nil
		}
		if !IsRetryable(err) {
			return result, err
		}
		if attempt == cfg.MaxAttempts-1 {
			break
		}

		delay := backoffDelay(attempt, cfg.BaseDelay, cfg.MaxDelay)
		if hint, ok := retryDelayHint(err); ok {
			delay = min(hint, cfg.MaxDelay)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return result, ctx.Err()
		case <-timer.C:
		}
	}

	return result, fmt.Errorf("operation failed after %d attempts: %w", cfg.MaxAttempts, err)
}

// backoffDelay doubles per attempt up to the ceiling, with jitter in
// [delay/2, delay) so concurrent fetchers spread out.
func backoffDelay(attempt int, baseDelay, maxDelay time.Duration) time.Duration {
	delay := baseDelay * (1 << attempt)
	if delay > maxDelay {
		delay = maxDelay
	}
	half := delay / 2
	return half + rand.N(half) //nolint:gosec // G404: jitter does not require cryptographic randomness
}

// IsRetryable reports whether the error should trigger another attempt.
// Final outcomes are never retried no matter how they are wrapped: a
// rejected transaction stays rejected and a full order book stays full.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, satserr.ErrTxRejected) || errors.Is(err, satserr.ErrPendingOrdersLimit) {
		return false
	}
	return errors.Is(err, ErrRetryable) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrRateLimited) ||
		errors.Is(err, context.DeadlineExceeded)
}

// rateLimitedError marks a throttled endpoint and carries the backend's
// Retry-After hint.
type rateLimitedError struct {
	endpoint   string
	retryAfter time.Duration
}

func (e *rateLimitedError) Error() string {
	return fmt.Sprintf("%s: %s", ErrRateLimited.Message, e.endpoint)
}

func (e *rateLimitedError) Unwrap() error { return ErrRateLimited }

// RateLimited builds the retryable error for a throttled endpoint.
// retryAfter may be zero when the backend sent no hint.
func RateLimited(endpoint string, retryAfter time.Duration) error {
	return &rateLimitedError{endpoint: endpoint, retryAfter: retryAfter}
}

// retryDelayHint extracts a backend-instructed delay, if any.
func retryDelayHint(err error) (time.Duration, bool) {
	var rl *rateLimitedError
	if errors.As(err, &rl) && rl.retryAfter > 0 {
		return rl.retryAfter, true
	}
	return 0, false
}

// ParseRetryAfter parses a Retry-After header given in seconds. Returns 0
// when absent or unparseable.
func ParseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	seconds, err := strconv.Atoi(header)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

// WrapRetryable marks an error as retryable.
func WrapRetryable(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrRetryable, err)
}
