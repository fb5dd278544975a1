package api

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter tracks throttling state for one remote source.
//
// It layers a consecutive-throttle backoff state machine over a steady
// [rate.Limiter] pace. All state is behind one mutex: concurrent Wait and
// Observe calls are linearized so the throttle count and wait time are
// never read-modified-written from two goroutines at once. One Limiter
// instance must be shared by every caller of the same remote source.
type Limiter struct {
	mu    sync.Mutex
	pacer *rate.Limiter

	base time.Duration
	cap  time.Duration

	throttles   int
	wait        time.Duration
	nextAllowed time.Time
	lastAttempt time.Time
}

// NewLimiter creates a limiter pacing at rps requests per second, with
// backoff starting at base and capped at cap.
func NewLimiter(rps float64, base, cap time.Duration) *Limiter {
	if rps <= 0 {
		rps = 5
	}
	if base <= 0 {
		base = 500 * time.Millisecond
	}
	if cap <= 0 {
		cap = 2 * time.Minute
	}
	return &Limiter{
		pacer: rate.NewLimiter(rate.Limit(rps), 1),
		base:  base,
		cap:   cap,
		wait:  base,
	}
}

// Wait suspends the caller until it is safe to send.
//
// The shared backoff deadline is re-read after every sleep, so a caller
// scheduled before a peer was throttled still honours the latest wait
// time at the moment of actually sending. Cancellation before return
// leaves the limiter state untouched.
func (l *Limiter) Wait(ctx context.Context) error {
	if err := l.pacer.Wait(ctx); err != nil {
		return err
	}

	for {
		l.mu.Lock()
		now := time.Now()
		if !now.Before(l.nextAllowed) {
			l.lastAttempt = now
			l.mu.Unlock()
			return nil
		}
		sleep := l.nextAllowed.Sub(now)
		l.mu.Unlock()

		timer := time.NewTimer(sleep)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Observe updates shared state from a response.
//
// A throttled response increments the consecutive throttle count and
// recomputes the wait time; a retryAfter above zero takes precedence over
// the computed wait for this one retry. Any non-throttled response resets
// the count and the wait time to base.
func (l *Limiter) Observe(throttled bool, retryAfter time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !throttled {
		l.throttles = 0
		l.wait = l.base
		return
	}

	l.throttles++
	l.wait = l.backoff(l.throttles)

	effective := l.wait
	if retryAfter > 0 {
		effective = retryAfter
	}
	next := time.Now().Add(effective)
	if next.After(l.nextAllowed) {
		l.nextAllowed = next
	}
}

// Bump pessimistically records a throttle. Used when a response was lost
// to cancellation before it could be observed, so backoff signal is never
// silently dropped.
func (l *Limiter) Bump() {
	l.Observe(true, 0)
}

// Throttles returns the current consecutive throttle count.
func (l *Limiter) Throttles() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.throttles
}

// CurrentWait returns the wait time computed from the current throttle count.
func (l *Limiter) CurrentWait() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.wait
}

// backoff doubles from base per consecutive throttle, capped. Monotonically
// non-decreasing in n.
func (l *Limiter) backoff(n int) time.Duration {
	d := l.base
	for i := 1; i < n; i++ {
		d *= 2
		if d >= l.cap {
			return l.cap
		}
	}
	if d > l.cap {
		d = l.cap
	}
	return d
}
