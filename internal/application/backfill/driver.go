package backfill

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Job processes one calendar date.
type Job func(ctx context.Context, date string) error

// Summary is the terminal state of a backfill run.
type Summary struct {
	Succeeded int
	Failed    int
}

func (s Summary) String() string {
	return fmt.Sprintf("%d succeeded, %d failed", s.Succeeded, s.Failed)
}

// Driver walks a date work list newest-first, one job call per date, with a
// fixed delay between dates. A failed date is logged and counted; the run
// continues.
type Driver struct {
	Delay  time.Duration
	Logger zerolog.Logger

	// Sleep is injectable for tests; nil means a context-aware time.Sleep.
	Sleep func(ctx context.Context, d time.Duration) error
}

// WorkList expands [start, end] into ISO dates, newest first, excluding any
// date already present in existing. Both bounds are inclusive.
func WorkList(start, end string, existing []string) ([]string, error) {
	from, err := time.Parse("2006-01-02", start)
	if err != nil {
		return nil, fmt.Errorf("invalid start date %q: %w", start, err)
	}
	to, err := time.Parse("2006-01-02", end)
	if err != nil {
		return nil, fmt.Errorf("invalid end date %q: %w", end, err)
	}
	if to.Before(from) {
		return nil, fmt.Errorf("end date %s is before start date %s", end, start)
	}

	skip := make(map[string]bool, len(existing))
	for _, d := range existing {
		skip[d] = true
	}

	var dates []string
	for d := to; !d.Before(from); d = d.AddDate(0, 0, -1) {
		iso := d.Format("2006-01-02")
		if skip[iso] {
			continue
		}
		dates = append(dates, iso)
	}
	return dates, nil
}

// Run processes each date in order. The delay is applied between dates,
// not after the last one. Context cancellation stops the run early.
func (d *Driver) Run(ctx context.Context, dates []string, job Job) Summary {
	sleep := d.Sleep
	if sleep == nil {
		sleep = waitFor
	}

	// Every run gets a correlation id so interleaved runs stay separable
	// in the logs.
	logger := d.Logger.With().Str("runId", uuid.NewString()).Logger()

	var summary Summary
	started := time.Now()
	for i, date := range dates {
		if i > 0 {
			if err := sleep(ctx, d.Delay); err != nil {
				logger.Warn().Err(err).Msg("Backfill interrupted")
				break
			}
		}

		if err := job(ctx, date); err != nil {
			summary.Failed++
			logger.Error().Err(err).Str("date", date).Msg("Backfill date failed")
		} else {
			summary.Succeeded++
		}

		done := i + 1
		remaining := len(dates) - done
		if remaining > 0 {
			perDate := time.Since(started) / time.Duration(done)
			eta := (perDate + d.Delay) * time.Duration(remaining)
			logger.Info().
				Str("date", date).
				Int("done", done).
				Int("remaining", remaining).
				Str("eta", eta.Round(time.Second).String()).
				Msg("Backfill progress")
		}
	}

	logger.Info().
		Int("succeeded", summary.Succeeded).
		Int("failed", summary.Failed).
		Msg("Backfill complete: " + summary.String())
	return summary
}

func waitFor(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
