// Package plates fetches the PB2002 plate-boundary GeoJSON dataset.
package plates

import (
	"context"
	"log/slog"
	"time"

	"github.com/quakescope/globe-data-service/internal/adapter/feed"
	"github.com/quakescope/globe-data-service/internal/domain"
	"github.com/quakescope/globe-data-service/internal/geo"
	"github.com/quakescope/globe-data-service/internal/observability"
)

// Client implements pipeline.BoundarySource. It returns raw polylines;
// antimeridian segmentation happens in the pipeline.
type Client struct {
	fetcher *feed.Fetcher
}

func NewClient(url string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		fetcher: feed.NewFetcher("plates", url, timeout, metrics, logger),
	}
}

func (c *Client) FetchBoundaries(ctx context.Context) ([]geo.LineFeature, error) {
	body, err := c.fetcher.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	return domain.ParseBoundaryCollection(body)
}
