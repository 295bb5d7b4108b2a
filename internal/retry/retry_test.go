package retry

import (
	"context"
	"errors"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func fastPolicy(attempts int) Policy {
	return Policy{MaxAttempts: attempts, BaseDelay: time.Millisecond, Multiplier: 2}
}

func TestDo_SucceedsFirstTry(t *testing.T) {
	t.Parallel()
	calls := 0
	err := fastPolicy(3).Do(context.Background(), func() error {
		calls++
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 1, calls)
}

func TestDo_NonRetryableInvokedExactlyOnce(t *testing.T) {
	t.Parallel()
	notFound := &StatusError{Code: http.StatusNotFound, URL: "https://example.com/x"}
	calls := 0
	err := fastPolicy(5).Do(context.Background(), func() error {
		calls++
		return notFound
	})
	require.Equal(t, 1, calls)
	require.Same(t, notFound, err, "original error must be returned unwrapped")
}

func TestDo_RetriesServerErrorsThenReturnsOriginal(t *testing.T) {
	t.Parallel()
	boom := &StatusError{Code: http.StatusBadGateway, URL: "https://example.com/y"}
	calls := 0
	err := fastPolicy(3).Do(context.Background(), func() error {
		calls++
		return boom
	})
	require.Equal(t, 3, calls)
	require.Same(t, boom, err)
}

func TestDo_RecoversAfterTransientFailure(t *testing.T) {
	t.Parallel()
	calls := 0
	err := fastPolicy(3).Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return &StatusError{Code: http.StatusTooManyRequests}
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 3, calls)
}

func TestDo_OnRetryObservesButCannotSuppress(t *testing.T) {
	t.Parallel()
	var seen []int
	var delays []time.Duration
	p := Policy{
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
		Multiplier:  2,
		OnRetry: func(_ error, attempt int, delay time.Duration) {
			seen = append(seen, attempt)
			delays = append(delays, delay)
		},
	}
	calls := 0
	err := p.Do(context.Background(), func() error {
		calls++
		return &StatusError{Code: http.StatusInternalServerError}
	})
	require.Error(t, err)
	require.Equal(t, 3, calls, "observer must not affect the retry loop")
	require.Equal(t, []int{2, 3}, seen)
	// delay(k) = base * mult^(k-1): 2ms before attempt 2, 4ms before attempt 3.
	require.Equal(t, []time.Duration{2 * time.Millisecond, 4 * time.Millisecond}, delays)
}

func TestDo_ContextCancelStopsBackoff(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	boom := &StatusError{Code: http.StatusServiceUnavailable}
	calls := 0
	p := Policy{MaxAttempts: 5, BaseDelay: time.Minute, Multiplier: 2}
	err := p.Do(ctx, func() error {
		calls++
		cancel()
		return boom
	})
	require.Equal(t, 1, calls)
	require.Same(t, boom, err, "last observed error is surfaced on cancellation")
}

func TestRetryable_Classification(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"rate limited", &StatusError{Code: 429}, true},
		{"server error", &StatusError{Code: 503}, true},
		{"not found", &StatusError{Code: 404}, false},
		{"bad request", &StatusError{Code: 400}, false},
		{"dns", &net.DNSError{Err: "no such host", Name: "x"}, true},
		{"timeout", &net.OpError{Op: "dial", Err: timeoutErr{}}, true},
		{"connection reset", errors.New("read tcp: connection reset by peer"), true},
		{"plain", errors.New("schema mismatch"), false},
		{"canceled", context.Canceled, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, Retryable(tc.err))
		})
	}
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }
