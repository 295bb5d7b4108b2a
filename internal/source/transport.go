package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"charabase/internal/metrics"
	"charabase/internal/ratelimit"
	"charabase/internal/retry"
)

// Transport is the shared HTTP plumbing of the source clients: every call
// passes the source's rate limiter, runs under its retry policy, and is
// bounded by a fixed per-call timeout.
type Transport struct {
	name    string
	client  *http.Client
	limiter *ratelimit.Limiter
	policy  retry.Policy
	logger  *zap.Logger
}

// NewTransport builds a Transport for the named source.
func NewTransport(
	name string,
	timeout time.Duration,
	limit ratelimit.Config,
	policy retry.Policy,
	logger *zap.Logger,
) *Transport {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	t := &Transport{
		name:    name,
		client:  &http.Client{Timeout: timeout},
		limiter: ratelimit.New(name, limit),
		logger:  logger,
	}
	policy.OnRetry = func(err error, attempt int, delay time.Duration) {
		metrics.ObserveSourceRetry(name)
		logger.Warn("retrying source call",
			zap.String("source", name),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
	}
	t.policy = policy
	return t
}

// GetJSON fetches url and decodes the response into out.
func (t *Transport) GetJSON(ctx context.Context, url string, out any) error {
	return t.policy.Do(ctx, func() error {
		return t.roundTrip(ctx, http.MethodGet, url, nil, out)
	})
}

// PostJSON sends body as JSON to url and decodes the response into out.
func (t *Transport) PostJSON(ctx context.Context, url string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request body: %w", err)
	}
	return t.policy.Do(ctx, func() error {
		return t.roundTrip(ctx, http.MethodPost, url, payload, out)
	})
}

func (t *Transport) roundTrip(ctx context.Context, method, url string, body []byte, out any) error {
	if err := t.limiter.Acquire(ctx); err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("build %s request: %w", method, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := t.client.Do(req)
	if err != nil {
		metrics.ObserveSourceRequest(t.name, "error")
		return fmt.Errorf("%s %s: %w", method, url, err)
	}
	defer resp.Body.Close()

	metrics.ObserveSourceRequest(t.name, fmt.Sprintf("%d", resp.StatusCode))
	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return &retry.StatusError{Code: resp.StatusCode, URL: url}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", url, err)
	}
	return nil
}
