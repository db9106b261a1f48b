package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quick(maxRetries int) *Config {
	return &Config{
		MaxRetries:    maxRetries,
		BackoffFactor: 2,
		InitialDelay:  time.Millisecond,
		MaxDelay:      4 * time.Millisecond,
	}
}

func TestRetry_SuccessOnFirstTry(t *testing.T) {
	calls := 0
	err := NewRetrier(quick(3)).Do(context.Background(), func() error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetry_SuccessAfterRetries(t *testing.T) {
	calls := 0
	err := NewRetrier(quick(3)).Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("connection reset")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetry_MaxRetriesExceeded(t *testing.T) {
	want := errors.New("service unavailable")
	calls := 0
	err := NewRetrier(quick(2)).Do(context.Background(), func() error {
		calls++
		return want
	})
	assert.Equal(t, want, err)
	assert.Equal(t, 3, calls)
}

func TestRetry_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := quick(3)
	cfg.InitialDelay = time.Minute
	cfg.MaxDelay = time.Minute

	err := NewRetrier(cfg).Do(ctx, func() error {
		cancel()
		return errors.New("timeout")
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRetry_PermanentStopsImmediately(t *testing.T) {
	want := errors.New("bad request")
	calls := 0
	err := NewRetrier(quick(3)).Do(context.Background(), func() error {
		calls++
		return Permanent(want)
	})
	assert.Equal(t, want, err)
	assert.Equal(t, 1, calls)
	assert.NoError(t, Permanent(nil))
}

func TestRetry_OnRetryReportsWaits(t *testing.T) {
	cfg := quick(3)
	var attempts []int
	var waits []time.Duration
	cfg.OnRetry = func(_ context.Context, attempt int, err error, wait time.Duration) {
		attempts = append(attempts, attempt)
		waits = append(waits, wait)
		assert.EqualError(t, err, "overloaded")
	}

	_ = NewRetrier(cfg).Do(context.Background(), func() error {
		return errors.New("overloaded")
	})

	assert.Equal(t, []int{1, 2, 3}, attempts)
	assert.Equal(t, []time.Duration{time.Millisecond, 2 * time.Millisecond, 4 * time.Millisecond}, waits)
}

func TestBackoff_CappedAtMaxDelay(t *testing.T) {
	r := NewRetrier(&Config{BackoffFactor: 3, InitialDelay: 100 * time.Millisecond, MaxDelay: time.Second})

	assert.Equal(t, 100*time.Millisecond, r.backoff(1))
	assert.Equal(t, 300*time.Millisecond, r.backoff(2))
	assert.Equal(t, 900*time.Millisecond, r.backoff(3))
	assert.Equal(t, time.Second, r.backoff(4))
	assert.Equal(t, time.Second, r.backoff(20))
}

func TestJitter_WithinBound(t *testing.T) {
	r := NewRetrier(&Config{Jitter: 10 * time.Millisecond})
	for i := 0; i < 50; i++ {
		j := r.jitter()
		assert.GreaterOrEqual(t, j, time.Duration(0))
		assert.Less(t, j, 10*time.Millisecond)
	}
	assert.Zero(t, NewRetrier(&Config{}).jitter())
}
