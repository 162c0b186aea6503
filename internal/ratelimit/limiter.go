package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter is a token bucket refilled continuously at the configured
// requests-per-minute rate. A zero rate disables limiting. Safe for
// concurrent use.
type Limiter struct {
	mu    sync.Mutex
	cap   float64
	level float64
	rate  float64 // tokens per second
	last  time.Time

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// Option adjusts a Limiter at construction time.
type Option func(*Limiter)

// WithClock replaces the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// WithSleeper replaces the waiting primitive, for tests.
func WithSleeper(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(l *Limiter) { l.sleep = sleep }
}

// New constructs a Limiter allowing rpm requests per minute. The bucket
// starts full so a fresh run is not penalized before its first request.
func New(rpm int, opts ...Option) *Limiter {
	l := &Limiter{now: time.Now, sleep: sleepContext}
	for _, opt := range opts {
		opt(l)
	}
	if rpm > 0 {
		l.cap = float64(rpm)
		l.level = float64(rpm)
		l.rate = float64(rpm) / 60.0
	}
	l.last = l.now()
	return l
}

// Wait blocks until one request token is available or ctx is cancelled.
func (l *Limiter) Wait(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		d, ok := l.take()
		if ok {
			return nil
		}
		if err := l.sleep(ctx, d); err != nil {
			return err
		}
	}
}

// Allow reports whether a request token was available without blocking.
func (l *Limiter) Allow() bool {
	_, ok := l.take()
	return ok
}

// take consumes one token if possible, otherwise reports how long until
// one becomes available.
func (l *Limiter) take() (time.Duration, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.rate == 0 {
		return 0, true
	}
	l.refill(l.now())
	if l.level >= 1 {
		l.level--
		return 0, true
	}
	deficit := 1 - l.level
	wait := time.Duration(deficit / l.rate * float64(time.Second))
	if wait < 10*time.Millisecond {
		wait = 10 * time.Millisecond
	}
	return wait, false
}

func (l *Limiter) refill(now time.Time) {
	// A clock that moved backwards counts as no elapsed time.
	if !now.After(l.last) {
		return
	}
	l.level += now.Sub(l.last).Seconds() * l.rate
	if l.level > l.cap {
		l.level = l.cap
	}
	l.last = now
}

// sleepContext sleeps in short steps so cancellation is observed promptly.
func sleepContext(ctx context.Context, d time.Duration) error {
	const step = 200 * time.Millisecond
	for d > 0 {
		s := min(d, step)
		timer := time.NewTimer(s)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		d -= s
	}
	return nil
}
