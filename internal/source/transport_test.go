package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"charabase/internal/ratelimit"
	"charabase/internal/retry"
)

func fastPolicy() retry.Policy {
	return retry.Policy{MaxAttempts: 3, BaseDelay: time.Millisecond, Multiplier: 2}
}

func wideLimit() ratelimit.Config {
	return ratelimit.Config{MaxRequests: 100, Window: time.Second}
}

func TestTransport_GetJSON(t *testing.T) {
	t.Parallel()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"value": 42}`))
	}))
	defer server.Close()

	tr := NewTransport("test", time.Second, wideLimit(), fastPolicy(), nil)
	var out struct {
		Value int `json:"value"`
	}
	require.NoError(t, tr.GetJSON(context.Background(), server.URL, &out))
	require.Equal(t, 42, out.Value)
}

func TestTransport_PostJSONEchoesBody(t *testing.T) {
	t.Parallel()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok": true}`))
	}))
	defer server.Close()

	tr := NewTransport("test", time.Second, wideLimit(), fastPolicy(), nil)
	var out struct {
		OK bool `json:"ok"`
	}
	err := tr.PostJSON(context.Background(), server.URL, map[string]string{"query": "{}"}, &out)
	require.NoError(t, err)
	require.True(t, out.OK)
}

func TestTransport_RetriesServerErrors(t *testing.T) {
	t.Parallel()
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	tr := NewTransport("test", time.Second, wideLimit(), fastPolicy(), nil)
	require.NoError(t, tr.GetJSON(context.Background(), server.URL, &struct{}{}))
	require.Equal(t, 3, calls)
}

func TestTransport_NotFoundIsNotRetried(t *testing.T) {
	t.Parallel()
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	tr := NewTransport("test", time.Second, wideLimit(), fastPolicy(), nil)
	err := tr.GetJSON(context.Background(), server.URL, &struct{}{})

	var statusErr *retry.StatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, http.StatusNotFound, statusErr.Code)
	require.Equal(t, 1, calls)
}
