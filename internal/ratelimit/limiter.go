package ratelimit

import (
	"context"
	"math/rand"
	"time"
)

// Limiter blocks the calling flow for a random duration between two
// bounds. It is invoked before every outbound page request and before
// every discovered item is recorded, so request timing never looks bursty.
//
// The Limiter is not safe for concurrent use; the crawl loop that owns it
// is strictly sequential.
type Limiter struct {
	// min and max bound the uniform draw. min == max gives a fixed delay;
	// both zero disables pacing entirely (useful in tests).
	min time.Duration
	max time.Duration

	// rng provides the jitter. Injectable so tests can seed it.
	rng *rand.Rand

	// sleep performs the actual wait. Injectable so tests can observe
	// requested durations without real sleeping.
	sleep func(ctx context.Context, d time.Duration) error
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithRand sets the random source used for jitter.
// Tests use a seeded source for reproducible delay sequences.
func WithRand(rng *rand.Rand) Option {
	return func(l *Limiter) {
		l.rng = rng
	}
}

// WithSleep replaces the sleep function.
// Tests use this to record requested durations without blocking.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(l *Limiter) {
		l.sleep = sleep
	}
}

// New creates a Limiter that waits between min and max per call.
// Bounds are swapped if given in the wrong order and negative bounds are
// clamped to zero, so a Limiter is always safe to use.
func New(min, max time.Duration, opts ...Option) *Limiter {
	if min < 0 {
		min = 0
	}
	if max < 0 {
		max = 0
	}
	if max < min {
		min, max = max, min
	}

	l := &Limiter{
		min:   min,
		max:   max,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec // Jitter needs no cryptographic strength
		sleep: sleepContext,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Wait blocks for a uniformly random duration within the configured
// bounds, or until the context is cancelled. The drawn duration is always
// within [min, max] and never negative.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.sleep(ctx, l.Delay())
}

// Delay draws the next pacing duration without sleeping.
func (l *Limiter) Delay() time.Duration {
	if l.max == 0 {
		return 0
	}
	if l.min == l.max {
		return l.min
	}
	return l.min + time.Duration(l.rng.Int63n(int64(l.max-l.min)+1))
}

// Bounds returns the configured delay bounds.
func (l *Limiter) Bounds() (min, max time.Duration) {
	return l.min, l.max
}

// sleepContext sleeps for d unless the context is cancelled first.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
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
