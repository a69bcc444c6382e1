package photoreal

import (
	"context"
	"errors"
	"time"
)

var ErrRetry = errors.New("retry")

// Backoff blocks until the next attempt may run. It returns ctx.Err() when
// the context ends first.
type Backoff func(context.Context) error

// ExponentialBackoff waits initial * r^N on its N-th call, capped at max
// when max is positive.
func ExponentialBackoff(initial time.Duration, r float64, max time.Duration) Backoff {
	interval := initial
	return func(ctx context.Context) error {
		timer := time.NewTimer(interval)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			interval = time.Duration(float64(interval) * r)
			if max > 0 && interval > max {
				interval = max
			}
			return nil
		}
	}
}

// Immediately lets the first attempt through without waiting.
func Immediately(b Backoff) Backoff {
	first := true
	return func(ctx context.Context) error {
		if first {
			first = false
			return ctx.Err()
		}
		return b(ctx)
	}
}

// Limited stops after attempts calls have been let through.
func Limited(b Backoff, attempts int) Backoff {
	n := 0
	return func(ctx context.Context) error {
		if n >= attempts {
			return errRetriesExhausted
		}
		n++
		return b(ctx)
	}
}

var errRetriesExhausted = errors.New("retries exhausted")

/**
 * @brief Calls f until it succeeds or fails with something other than
 * ErrRetry. When the backoff gives up, the last error from f is returned.
 */
func Blocking[T any](ctx context.Context, b Backoff, f func() (T, error)) (T, error) {
	var last T
	var lastErr error
	for {
		if err := b(ctx); err != nil {
			if lastErr != nil {
				return last, lastErr
			}
			return last, err
		}

		var err error
		last, err = f()
		if err == nil {
			return last, nil
		}
		if !errors.Is(err, ErrRetry) {
			return last, err
		}
		lastErr = err
	}
}
