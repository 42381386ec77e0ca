package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExponentialBackoffCaps(t *testing.T) {
	b := Exponential(2*time.Second, 32*time.Second)

	assert.Equal(t, 2*time.Second, b(1))
	assert.Equal(t, 4*time.Second, b(2))
	assert.Equal(t, 16*time.Second, b(4))
	assert.Equal(t, 32*time.Second, b(5))
	assert.Equal(t, 32*time.Second, b(10))
}

func TestLinearBackoffIsConstant(t *testing.T) {
	b := Linear(5 * time.Second)
	assert.Equal(t, 5*time.Second, b(1))
	assert.Equal(t, 5*time.Second, b(7))
}

func TestDoStopsOnSuccess(t *testing.T) {
	calls := 0
	p := Policy{MaxAttempts: 5, Backoff: Linear(time.Millisecond)}

	err := p.Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoExhaustsAttempts(t *testing.T) {
	calls := 0
	p := Policy{MaxAttempts: 4, Backoff: Linear(time.Millisecond)}

	err := p.Do(context.Background(), func() error {
		calls++
		return errors.New("still failing")
	})
	require.Error(t, err)
	assert.Equal(t, 4, calls)
}

func TestDoRespectsRetryablePredicate(t *testing.T) {
	terminal := errors.New("terminal")
	calls := 0
	p := Policy{
		MaxAttempts: 5,
		Backoff:     Linear(time.Millisecond),
		Retryable:   func(err error) bool { return !errors.Is(err, terminal) },
	}

	err := p.Do(context.Background(), func() error {
		calls++
		return terminal
	})
	assert.ErrorIs(t, err, terminal)
	assert.Equal(t, 1, calls)
}

func TestDoStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := Policy{MaxAttempts: 3, Backoff: Linear(time.Minute)}
	err := p.Do(ctx, func() error { return errors.New("transient") })
	assert.ErrorIs(t, err, context.Canceled)
}
