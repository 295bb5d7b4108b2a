// Package retry wraps fallible source calls with exponential backoff,
// distinguishing retryable from fatal failures.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net"
	"net/http"
	"strings"
	"time"
)

// StatusError carries an HTTP status code so the policy can classify
// rate-limit and server failures.
type StatusError struct {
	Code int
	URL  string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d %s from %s", e.Code, http.StatusText(e.Code), e.URL)
}

// Policy controls backoff behavior.
type Policy struct {
	// MaxAttempts bounds the total number of invocations, first try included.
	MaxAttempts int
	// BaseDelay seeds the exponential backoff.
	BaseDelay time.Duration
	// Multiplier scales the delay between attempts.
	Multiplier float64
	// OnRetry fires before each backoff wait. It observes only; it cannot
	// suppress the retry.
	OnRetry func(err error, attempt int, delay time.Duration)
}

// Default returns a policy with the pipeline's usual settings.
func Default() Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		Multiplier:  2,
	}
}

// Do invokes fn until it succeeds, fails with a non-retryable error, or the
// attempt budget is exhausted. The delay before attempt k (k > 1) is
// BaseDelay * Multiplier^(k-1). The last error is returned as-is, never
// wrapped, so callers can inspect it.
func (p Policy) Do(ctx context.Context, fn func() error) error {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	base := p.BaseDelay
	if base <= 0 {
		base = time.Second
	}
	mult := p.Multiplier
	if mult <= 0 {
		mult = 2
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			delay := time.Duration(float64(base) * math.Pow(mult, float64(attempt-1)))
			if p.OnRetry != nil {
				p.OnRetry(lastErr, attempt, delay)
			}
			if err := sleep(ctx, delay); err != nil {
				return lastErr
			}
		}
		err := fn()
		if err == nil {
			return nil
		}
		if !Retryable(err) {
			return err
		}
		lastErr = err
	}
	return lastErr
}

// Retryable reports whether the error is worth retrying: connection resets,
// timeouts, DNS failures, HTTP 429, and HTTP 5xx. Everything else, including
// not-found and malformed input, propagates immediately.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code == http.StatusTooManyRequests || statusErr.Code >= 500
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := err.Error()
	for _, needle := range []string{"connection reset", "connection refused", "broken pipe", "EOF"} {
		if strings.Contains(msg, needle) {
			return true
		}
	}
	return false
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
