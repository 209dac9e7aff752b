// Package pipeline orchestrates the periodic fetch-process-store refresh loop.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/quakescope/globe-data-service/internal/domain"
	"github.com/quakescope/globe-data-service/internal/geo"
	"github.com/quakescope/globe-data-service/internal/observability"
	"github.com/quakescope/globe-data-service/internal/store"
)

// QuakeSource fetches the earthquake feed and parses it into events.
// Per-feature parse failures are reported alongside the good events.
type QuakeSource interface {
	FetchQuakes(ctx context.Context) ([]domain.GeoEvent, []geo.FeatureError, error)
}

// VolcanoSource fetches the active-volcano list.
type VolcanoSource interface {
	FetchVolcanoes(ctx context.Context) ([]domain.GeoEvent, error)
}

// BoundarySource fetches raw plate-boundary polylines, before segmentation.
type BoundarySource interface {
	FetchBoundaries(ctx context.Context) ([]geo.LineFeature, error)
}

// Publisher emits newly seen earthquake events to a sink.
type Publisher interface {
	PublishBatch(ctx context.Context, events []domain.GeoEvent) error
}

// Refresher runs the refresh loop: fetch all sources, process through the
// geo core, and swap the result into the snapshot store. A source failure
// retains that source's data from the previous snapshot.
type Refresher struct {
	quakes     QuakeSource
	volcanoes  VolcanoSource
	boundaries BoundarySource
	publisher  Publisher
	annotator  domain.Annotator
	st         *store.SnapshotStore
	logger     *slog.Logger
	metrics    *observability.Metrics
	clock      clockwork.Clock

	interval   time.Duration
	windowDays int

	ready atomic.Bool
	seen  map[string]struct{}
}

// Options carries the optional collaborators for a Refresher.
// Publisher and Annotator may be nil, disabling those features.
type Options struct {
	Publisher Publisher
	Annotator domain.Annotator
	Clock     clockwork.Clock
}

// New creates a Refresher. Pass zero-value Options to disable publishing
// and annotation and use the real clock.
func New(q QuakeSource, v VolcanoSource, b BoundarySource, st *store.SnapshotStore,
	logger *slog.Logger, metrics *observability.Metrics,
	interval time.Duration, windowDays int, opts Options) *Refresher {
	clk := opts.Clock
	if clk == nil {
		clk = clockwork.NewRealClock()
	}
	return &Refresher{
		quakes:     q,
		volcanoes:  v,
		boundaries: b,
		publisher:  opts.Publisher,
		annotator:  opts.Annotator,
		st:         st,
		logger:     logger,
		metrics:    metrics,
		clock:      clk,
		interval:   interval,
		windowDays: windowDays,
		seen:       make(map[string]struct{}),
	}
}

// CheckReadiness returns nil once at least one refresh has produced a snapshot.
func (r *Refresher) CheckReadiness(_ context.Context) error {
	if !r.ready.Load() {
		return errors.New("no snapshot has been built yet")
	}
	return nil
}

// Run executes the refresh loop until the context is cancelled. The first
// refresh happens immediately; later ones follow the configured interval.
// A refresh that yields no data at all is retried with exponential backoff.
func (r *Refresher) Run(ctx context.Context) error {
	r.logger.Info("refresher started", "interval", r.interval, "window_days", r.windowDays)
	r.metrics.PipelineRunning.Set(1)
	defer r.metrics.PipelineRunning.Set(0)

	// Exponential backoff: start at 200ms, double each retry, cap at 5s.
	backoff := 200 * time.Millisecond
	maxBackoff := 5 * time.Second

	for {
		if err := r.refresh(ctx); err != nil {
			if ctx.Err() != nil {
				r.logger.Info("refresher stopping", "reason", ctx.Err())
				return nil
			}
			r.logger.Error("refresh produced no data", "error", err)
			if !r.backoffOrStop(ctx, &backoff, maxBackoff) {
				return nil
			}
			continue
		}
		backoff = 200 * time.Millisecond

		select {
		case <-ctx.Done():
			r.logger.Info("refresher stopping", "reason", ctx.Err())
			return nil
		case <-r.clock.After(r.interval):
		}
	}
}

// backoffOrStop sleeps with the current backoff and doubles it.
// Returns false if the refresher should stop.
func (r *Refresher) backoffOrStop(ctx context.Context, backoff *time.Duration, maxBackoff time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	select {
	case <-ctx.Done():
		return false
	case <-r.clock.After(*backoff):
	}
	*backoff = nextBackoff(*backoff, maxBackoff)
	return true
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}
