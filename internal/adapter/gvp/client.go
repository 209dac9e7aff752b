// Package gvp fetches the Smithsonian Global Volcanism Program volcano list.
package gvp

import (
	"context"
	"log/slog"
	"time"

	"github.com/quakescope/globe-data-service/internal/adapter/feed"
	"github.com/quakescope/globe-data-service/internal/domain"
	"github.com/quakescope/globe-data-service/internal/observability"
)

// Client implements pipeline.VolcanoSource against a GVP volcano list URL.
type Client struct {
	fetcher *feed.Fetcher
}

func NewClient(feedURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		fetcher: feed.NewFetcher("gvp", feedURL, timeout, metrics, logger),
	}
}

func (c *Client) FetchVolcanoes(ctx context.Context) ([]domain.GeoEvent, error) {
	body, err := c.fetcher.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	return domain.ParseVolcanoList(body)
}
