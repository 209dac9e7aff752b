// Package feed provides the shared HTTP fetch layer for upstream data feeds.
package feed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/quakescope/globe-data-service/internal/observability"
)

// Fetcher wraps a single upstream GET endpoint with a request timeout and a
// circuit breaker. The breaker keeps a flapping upstream from eating the
// whole fetch timeout on every refresh cycle.
type Fetcher struct {
	source     string
	url        string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewFetcher creates a Fetcher for one upstream feed. The source label is
// used in logs and metrics ("usgs", "gvp", "plates").
func NewFetcher(source, url string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Fetcher {
	f := &Fetcher{
		source:     source,
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		metrics:    metrics,
		logger:     logger,
	}
	f.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        source,
		MaxRequests: 1,
		Interval:    2 * time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("feed breaker state changed",
				"source", name, "from", from.String(), "to", to.String())
		},
	})
	return f
}

// Fetch performs one GET against the feed and returns the response body.
func (f *Fetcher) Fetch(ctx context.Context) ([]byte, error) {
	start := time.Now()
	body, err := f.breaker.Execute(func() (any, error) {
		b, err := f.doRequest(ctx)
		if err != nil {
			return nil, err
		}
		return b, nil
	})
	f.metrics.FetchDuration.WithLabelValues(f.source).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("%s fetch: %w", f.source, err)
	}
	return body.([]byte), nil
}

func (f *Fetcher) doRequest(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("upstream status %d: %s", resp.StatusCode, body)
	}

	return io.ReadAll(resp.Body)
}
