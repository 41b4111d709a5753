// Package retry executes operations with exponential backoff and a
// per-profile predicate deciding which failures are worth another try.
package retry

import (
	"context"
	"fmt"
	"math"
	"time"
)

// Policy controls how an operation is retried.
type Policy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	// Retryable classifies an error; a false return stops immediately
	// without waiting.
	Retryable func(error) bool
}

// Delay returns the backoff before retrying after attempt n (0-indexed):
// min(InitialDelay * Multiplier^n, MaxDelay).
func (p Policy) Delay(attempt int) time.Duration {
	d := time.Duration(float64(p.InitialDelay) * math.Pow(p.Multiplier, float64(attempt)))
	if d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

// Error wraps the last failure once all attempts are exhausted.
type Error struct {
	Attempts int
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("all %d attempts failed: %v", e.Attempts, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Do runs op under the policy. It returns the operation's result on
// the first success, the raw error when the failure is not retryable,
// or an *Error once MaxAttempts is reached.
func Do[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, fmt.Errorf("retry cancelled: %w", err)
		}

		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if p.Retryable != nil && !p.Retryable(err) {
			return zero, err
		}

		if attempt < p.MaxAttempts-1 {
			select {
			case <-ctx.Done():
				return zero, fmt.Errorf("retry cancelled: %w", ctx.Err())
			case <-time.After(p.Delay(attempt)):
			}
		}
	}

	return zero, &Error{Attempts: p.MaxAttempts, Err: lastErr}
}
