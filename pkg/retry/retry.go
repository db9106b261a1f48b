package retry

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"
)

type Operation = func() error

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying. Do returns the wrapped error
// immediately.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Config describes an exponential backoff. OnRetry, when set, is called
// before each wait with the attempt that just failed (starting at 1).
type Config struct {
	MaxRetries    int
	BackoffFactor float64
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	Jitter        time.Duration
	OnRetry       func(ctx context.Context, attempt int, err error, wait time.Duration)
}

func NewDefaultConfig() *Config {
	return &Config{
		MaxRetries:    3,
		BackoffFactor: 2,
		InitialDelay:  500 * time.Millisecond,
		MaxDelay:      10 * time.Second,
		Jitter:        100 * time.Millisecond,
	}
}

type Retrier struct {
	config *Config
}

func NewRetrier(config *Config) *Retrier {
	if config == nil {
		config = NewDefaultConfig()
	}
	return &Retrier{config: config}
}

// backoff is the base wait before retry number n (starting at 1), capped
// at MaxDelay.
func (r *Retrier) backoff(n int) time.Duration {
	d := float64(r.config.InitialDelay)
	for i := 1; i < n; i++ {
		d *= r.config.BackoffFactor
		if d >= float64(r.config.MaxDelay) {
			return r.config.MaxDelay
		}
	}
	return min(time.Duration(d), r.config.MaxDelay)
}

func (r *Retrier) jitter() time.Duration {
	if r.config.Jitter <= 0 {
		return 0
	}
	return rand.N(r.config.Jitter)
}

// Do runs op until it succeeds, returns a Permanent error, ctx ends or the
// retries are used up. The last error is returned unwrapped.
func (r *Retrier) Do(ctx context.Context, op Operation) error {
	for attempt := 1; ; attempt++ {
		err := op()
		if err == nil {
			return nil
		}

		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.err
		}
		if attempt > r.config.MaxRetries {
			return err
		}

		wait := r.backoff(attempt) + r.jitter()
		if r.config.OnRetry != nil {
			r.config.OnRetry(ctx, attempt, err, wait)
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
