// Package usgs fetches the USGS earthquake GeoJSON summary feed.
package usgs

import (
	"context"
	"log/slog"
	"time"

	"github.com/quakescope/globe-data-service/internal/adapter/feed"
	"github.com/quakescope/globe-data-service/internal/domain"
	"github.com/quakescope/globe-data-service/internal/geo"
	"github.com/quakescope/globe-data-service/internal/observability"
)

// Client implements pipeline.QuakeSource against a USGS summary feed URL.
type Client struct {
	fetcher *feed.Fetcher
}

func NewClient(feedURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		fetcher: feed.NewFetcher("usgs", feedURL, timeout, metrics, logger),
	}
}

// FetchQuakes downloads and parses the feed. Malformed features are reported
// individually and do not fail the fetch.
func (c *Client) FetchQuakes(ctx context.Context) ([]domain.GeoEvent, []geo.FeatureError, error) {
	body, err := c.fetcher.Fetch(ctx)
	if err != nil {
		return nil, nil, err
	}
	events, featureErrs := domain.ParseQuakeFeed(body)
	// Index -1 means the payload itself was unparseable, which is a fetch
	// failure, not a per-feature one.
	if len(featureErrs) == 1 && featureErrs[0].Index == -1 {
		return nil, nil, featureErrs[0].Err
	}
	return events, featureErrs, nil
}
