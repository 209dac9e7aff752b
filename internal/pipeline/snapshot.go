package pipeline

import (
	"context"
	"errors"

	"github.com/quakescope/globe-data-service/internal/domain"
	"github.com/quakescope/globe-data-service/internal/geo"
)

// refresh runs one fetch-process-store cycle. A failing source keeps its
// data from the previous snapshot; refresh errors only when every source
// failed and there is nothing previous to fall back on.
func (r *Refresher) refresh(ctx context.Context) error {
	start := r.clock.Now()
	now := start.UTC()
	window := domain.TimeWindow{
		Start: now.AddDate(0, 0, -r.windowDays),
		End:   now,
	}

	prev := r.st.Current()
	failures := 0

	quakes, ok := r.fetchQuakes(ctx, window)
	if !ok {
		failures++
		if prev != nil {
			quakes = prev.Earthquakes
		}
	}

	volcanoes, ok := r.fetchVolcanoes(ctx)
	if !ok {
		failures++
		if prev != nil {
			volcanoes = prev.Volcanoes
		}
	}

	boundaries, ok := r.fetchBoundaries(ctx)
	if !ok {
		failures++
		if prev != nil {
			boundaries = prev.Boundaries
		}
	}

	if failures == 3 && prev == nil {
		return errors.New("all sources failed on initial refresh")
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	r.publishNew(ctx, quakes)

	r.st.Replace(&domain.Snapshot{
		Earthquakes: quakes,
		Volcanoes:   volcanoes,
		Boundaries:  boundaries,
		Window:      window,
		FetchedAt:   now,
	})
	r.ready.Store(true)

	r.metrics.RefreshesTotal.Inc()
	r.metrics.RefreshDuration.Observe(r.clock.Since(start).Seconds())
	r.logger.Info("snapshot refreshed",
		"earthquakes", len(quakes),
		"volcanoes", len(volcanoes),
		"boundary_segments", len(boundaries),
		"failed_sources", failures,
	)
	return nil
}

// fetchQuakes pulls the earthquake feed, enriches each event, and colors it
// by recency over the window. Returns ok=false when the fetch itself failed.
func (r *Refresher) fetchQuakes(ctx context.Context, window domain.TimeWindow) ([]domain.GeoEvent, bool) {
	events, featureErrs, err := r.quakes.FetchQuakes(ctx)
	if err != nil {
		r.metrics.RefreshErrors.WithLabelValues("usgs").Inc()
		r.logger.Error("earthquake fetch failed", "error", err)
		return nil, false
	}
	for _, fe := range featureErrs {
		r.logger.Warn("skipping malformed earthquake feature", "index", fe.Index, "error", fe.Err)
	}
	r.metrics.MalformedFeatures.WithLabelValues("usgs").Add(float64(len(featureErrs)))
	r.metrics.EventsFetched.WithLabelValues("usgs").Add(float64(len(events)))

	out := make([]domain.GeoEvent, 0, len(events))
	for _, ev := range events {
		ev = domain.EnrichGeoEvent(ev)
		ev.Color = geo.ColorForTime(ev.Time, window.Start, window.End)
		ev = domain.EnrichWithAnnotation(ctx, ev, r.annotatorFor(ev), r.logger)
		out = append(out, ev)
	}
	return out, true
}

// annotatorFor gates annotation to severe and extreme earthquakes so the
// annotation service only sees events worth narrating.
func (r *Refresher) annotatorFor(ev domain.GeoEvent) domain.Annotator {
	if r.annotator == nil || ev.Severity == nil {
		return nil
	}
	if s := *ev.Severity; s != "severe" && s != "extreme" {
		return nil
	}
	return r.annotator
}

func (r *Refresher) fetchVolcanoes(ctx context.Context) ([]domain.GeoEvent, bool) {
	events, err := r.volcanoes.FetchVolcanoes(ctx)
	if err != nil {
		r.metrics.RefreshErrors.WithLabelValues("gvp").Inc()
		r.logger.Error("volcano fetch failed", "error", err)
		return nil, false
	}
	r.metrics.EventsFetched.WithLabelValues("gvp").Add(float64(len(events)))

	out := make([]domain.GeoEvent, 0, len(events))
	for _, ev := range events {
		// Volcano records carry no event time, so they get no recency color.
		out = append(out, domain.EnrichGeoEvent(ev))
	}
	return out, true
}

// fetchBoundaries pulls the plate-boundary polylines and splits any that
// cross the antimeridian so no segment spans the dateline.
func (r *Refresher) fetchBoundaries(ctx context.Context) ([]geo.LineFeature, bool) {
	features, err := r.boundaries.FetchBoundaries(ctx)
	if err != nil {
		r.metrics.RefreshErrors.WithLabelValues("plates").Inc()
		r.logger.Error("boundary fetch failed", "error", err)
		return nil, false
	}

	segments, featureErrs := geo.SegmentAntimeridian(features)
	for _, fe := range featureErrs {
		r.logger.Warn("skipping malformed boundary feature", "index", fe.Index, "error", fe.Err)
	}
	r.metrics.MalformedFeatures.WithLabelValues("plates").Add(float64(len(featureErrs)))
	r.metrics.EventsFetched.WithLabelValues("plates").Add(float64(len(features)))
	r.metrics.BoundarySegments.Set(float64(len(segments)))
	return segments, true
}

// publishNew sends earthquakes not seen in any earlier refresh to the sink,
// then resets the seen set to the current generation. Publish failures are
// logged and dropped; the snapshot swap must not block on the sink.
func (r *Refresher) publishNew(ctx context.Context, quakes []domain.GeoEvent) {
	current := make(map[string]struct{}, len(quakes))
	var fresh []domain.GeoEvent
	for _, ev := range quakes {
		current[ev.ID] = struct{}{}
		if _, seen := r.seen[ev.ID]; !seen {
			fresh = append(fresh, ev)
		}
	}

	if r.publisher != nil && len(fresh) > 0 {
		if err := r.publisher.PublishBatch(ctx, fresh); err != nil {
			r.metrics.PublishErrors.Inc()
			r.logger.Error("publish batch failed", "error", err, "batch_size", len(fresh))
		} else {
			r.metrics.EventsPublished.Add(float64(len(fresh)))
		}
	}

	r.seen = current
}
