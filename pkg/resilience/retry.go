package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"
)

// RetryConfig describes an exponential backoff schedule. Zero fields fall
// back to three attempts, 100ms doubling up to 5s, with 20% jitter.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Jitter      float64
	// Retryable reports whether err is worth another attempt. Nil retries
	// everything except context cancellation.
	Retryable func(err error) bool
}

func (c RetryConfig) withDefaults() RetryConfig {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = 100 * time.Millisecond
	}
	if c.MaxDelay < c.BaseDelay {
		c.MaxDelay = max(5*time.Second, c.BaseDelay)
	}
	if c.Jitter <= 0 || c.Jitter > 1 {
		c.Jitter = 0.2
	}
	if c.Retryable == nil {
		c.Retryable = func(err error) bool {
			return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
		}
	}
	return c
}

// delay is the pause after the given failed attempt, counting from 1.
func (c RetryConfig) delay(attempt int) time.Duration {
	d := c.BaseDelay << min(attempt-1, 30)
	if d <= 0 || d > c.MaxDelay {
		d = c.MaxDelay
	}
	spread := float64(d) * c.Jitter
	return time.Duration(float64(d) - spread + 2*spread*rand.Float64())
}

// Retry runs op until it returns a nil error, the error is not retryable,
// attempts run out or ctx ends. The last value op returned is passed back
// together with the error.
func Retry[T any](ctx context.Context, op string, cfg RetryConfig, fn func(ctx context.Context) (T, error)) (T, error) {
	cfg = cfg.withDefaults()
	log := slog.Default().With("component", "retry", "op", op)

	var (
		val T
		err error
	)
	for attempt := 1; ; attempt++ {
		val, err = fn(ctx)
		switch {
		case err == nil:
			if attempt > 1 {
				log.Info("recovered", "attempts", attempt)
			}
			return val, nil
		case !cfg.Retryable(err):
			return val, err
		case attempt == cfg.MaxAttempts:
			return val, fmt.Errorf("%s: giving up after %d attempts: %w", op, attempt, err)
		}

		if ctx.Err() != nil {
			return val, fmt.Errorf("%s: %w (last error: %v)", op, ctx.Err(), err)
		}
		wait := cfg.delay(attempt)
		log.Warn("attempt failed", "attempt", attempt, "wait", wait, "error", err)
		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return val, fmt.Errorf("%s: %w (last error: %v)", op, ctx.Err(), err)
		}
	}
}
