// Package retry holds the one retry mechanism shared by the report poller
// and the rate-limited API wrappers. The two backoff strategies in the
// system (linear fixed-interval polling, capped exponential on 429) are two
// configurations of the same Policy.
package retry

import (
	"context"
	"time"
)

// Policy describes how an operation is retried.
type Policy struct {
	MaxAttempts int
	Backoff     func(attempt int) time.Duration
	Retryable   func(err error) bool
}

// Linear returns a backoff that sleeps the same interval every attempt.
func Linear(interval time.Duration) func(int) time.Duration {
	return func(int) time.Duration { return interval }
}

// Exponential returns a backoff doubling from base, capped at max.
// Attempt numbering starts at 1.
func Exponential(base, max time.Duration) func(int) time.Duration {
	return func(attempt int) time.Duration {
		d := base
		for i := 1; i < attempt; i++ {
			d *= 2
			if d >= max {
				return max
			}
		}
		if d > max {
			return max
		}
		return d
	}
}

// Do runs op up to MaxAttempts times, sleeping Backoff(attempt) between
// attempts. It stops early when op succeeds, when Retryable rejects the
// error, or when the context is cancelled. The last error is returned.
func (p Policy) Do(ctx context.Context, op func() error) error {
	var err error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if err = op(); err == nil {
			return nil
		}
		if p.Retryable != nil && !p.Retryable(err) {
			return err
		}
		if attempt == p.MaxAttempts {
			break
		}
		if serr := Sleep(ctx, p.Backoff(attempt)); serr != nil {
			return serr
		}
	}
	return err
}

// Sleep waits for d or until the context is cancelled.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
