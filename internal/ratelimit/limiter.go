// Package ratelimit implements a sliding-window rate limiter used to bound
// outbound requests per catalog source.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"charabase/internal/metrics"
)

// Config holds rate limiter configuration.
type Config struct {
	// MaxRequests is the number of requests admitted per window.
	MaxRequests int
	// Window is the length of the sliding window.
	Window time.Duration
}

// Limiter admits at most MaxRequests calls per Window. It keeps a rolling
// log of admitted-request timestamps; callers within a single process are
// served in arrival order. Not safe for multi-process sharing.
type Limiter struct {
	source string
	max    int
	window time.Duration
	now    func() time.Time
	log    []time.Time
}

// New creates a Limiter for the named source.
func New(source string, cfg Config) *Limiter {
	max := cfg.MaxRequests
	if max <= 0 {
		max = 1
	}
	window := cfg.Window
	if window <= 0 {
		window = time.Second
	}
	return &Limiter{
		source: source,
		max:    max,
		window: window,
		now:    time.Now,
	}
}

// Acquire blocks until the caller may issue a request, or the context ends.
// Admission is re-checked in a loop after each sleep so bursts that arrive
// while waiting are still bounded by the window.
func (l *Limiter) Acquire(ctx context.Context) error {
	start := l.now()
	for {
		now := l.now()
		l.evict(now)
		if len(l.log) < l.max {
			l.log = append(l.log, now)
			if waited := now.Sub(start); waited > time.Millisecond {
				metrics.ObserveRateLimitDelay(l.source, waited)
			}
			return nil
		}
		// Sleep until the oldest admitted request exits the window.
		wait := l.log[0].Add(l.window).Sub(now)
		if wait <= 0 {
			continue
		}
		if err := sleep(ctx, wait); err != nil {
			return fmt.Errorf("rate limit wait: %w", err)
		}
	}
}

// evict drops log entries older than the window.
func (l *Limiter) evict(now time.Time) {
	cutoff := now.Add(-l.window)
	i := 0
	for i < len(l.log) && !l.log[i].After(cutoff) {
		i++
	}
	if i > 0 {
		l.log = append(l.log[:0], l.log[i:]...)
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
