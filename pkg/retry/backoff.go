package retry

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"
)

// Config defines retry configuration
type Config struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Multiplier     float64
	Jitter         float64 // Random jitter factor (0-1)

	// OnRetry is called before each new attempt with the error that caused it
	OnRetry func(attempt int, err error)
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		MaxRetries:     3,
		InitialBackoff: 250 * time.Millisecond,
		MaxBackoff:     15 * time.Second,
		Multiplier:     2.0,
		Jitter:         0.1,
	}
}

// RetryableError wraps an error that should be retried.
// After, when set, is the minimum wait asked for by the remote side.
type RetryableError struct {
	Err   error
	After time.Duration
}

func (e *RetryableError) Error() string {
	return e.Err.Error()
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// NewRetryableError creates a new retryable error
func NewRetryableError(err error) *RetryableError {
	return &RetryableError{Err: err}
}

// RetryAfter creates a retryable error that waits at least d before the next attempt
func RetryAfter(err error, d time.Duration) *RetryableError {
	return &RetryableError{Err: err, After: d}
}

// IsRetryable checks if an error should be retried
func IsRetryable(err error) bool {
	var retryable *RetryableError
	return errors.As(err, &retryable)
}

// Do executes a function with retry logic
func Do(ctx context.Context, cfg Config, fn func(ctx context.Context) error) error {
	_, err := DoWithResult(ctx, cfg, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// DoWithResult executes a function with retry logic and returns a result
func DoWithResult[T any](ctx context.Context, cfg Config, fn func(ctx context.Context) (T, error)) (T, error) {
	var result T
	var lastErr error

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			if cfg.OnRetry != nil {
				cfg.OnRetry(attempt, lastErr)
			}

			backoff := calculateBackoff(cfg, attempt, hintFrom(lastErr))

			select {
			case <-ctx.Done():
				return result, ctx.Err()
			case <-time.After(backoff):
			}
		}

		var err error
		result, err = fn(ctx)
		if err == nil {
			return result, nil
		}

		lastErr = err

		// Only retry if error is retryable
		if !IsRetryable(err) {
			return result, err
		}
	}

	return result, lastErr
}

func hintFrom(err error) time.Duration {
	var retryable *RetryableError
	if errors.As(err, &retryable) {
		return retryable.After
	}
	return 0
}

func calculateBackoff(cfg Config, attempt int, hint time.Duration) time.Duration {
	backoff := float64(cfg.InitialBackoff) * math.Pow(cfg.Multiplier, float64(attempt-1))

	if cfg.MaxBackoff > 0 && backoff > float64(cfg.MaxBackoff) {
		backoff = float64(cfg.MaxBackoff)
	}

	if cfg.Jitter > 0 {
		jitter := backoff * cfg.Jitter * (rand.Float64()*2 - 1)
		backoff += jitter
	}

	if backoff < 0 {
		backoff = float64(cfg.InitialBackoff)
	}

	// the server hint wins, but is still capped
	if h := float64(hint); h > backoff {
		backoff = h
		if cfg.MaxBackoff > 0 && backoff > float64(cfg.MaxBackoff) {
			backoff = float64(cfg.MaxBackoff)
		}
	}

	return time.Duration(backoff)
}
