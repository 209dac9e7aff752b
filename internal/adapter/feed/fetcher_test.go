package feed

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quakescope/globe-data-service/internal/observability"
)

func newTestFetcher(url string) *Fetcher {
	return NewFetcher("usgs", url, 5*time.Second,
		observability.NewMetricsForTesting(),
		slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestFetcher_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		w.Write([]byte(`{"type":"FeatureCollection"}`))
	}))
	defer srv.Close()

	body, err := newTestFetcher(srv.URL).Fetch(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"FeatureCollection"}`, string(body))
}

func TestFetcher_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := newTestFetcher(srv.URL).Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 503")
	assert.Contains(t, err.Error(), "usgs fetch")
}

func TestFetcher_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	f := NewFetcher("usgs", srv.URL, 20*time.Millisecond,
		observability.NewMetricsForTesting(),
		slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err := f.Fetch(context.Background())
	require.Error(t, err)
}

func TestFetcher_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := newTestFetcher(srv.URL)
	for i := 0; i < 3; i++ {
		_, err := f.Fetch(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status 500")
	}

	// Fourth attempt fails fast without reaching the server.
	_, err := f.Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circuit breaker is open")
}
