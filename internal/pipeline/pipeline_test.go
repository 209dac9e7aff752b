package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quakescope/globe-data-service/internal/domain"
	"github.com/quakescope/globe-data-service/internal/geo"
	"github.com/quakescope/globe-data-service/internal/observability"
	"github.com/quakescope/globe-data-service/internal/store"
)

// --- mocks ---

type mockQuakeSource struct {
	events []domain.GeoEvent
	ferrs  []geo.FeatureError
	err    error
	calls  int
}

func (m *mockQuakeSource) FetchQuakes(_ context.Context) ([]domain.GeoEvent, []geo.FeatureError, error) {
	m.calls++
	return m.events, m.ferrs, m.err
}

type mockVolcanoSource struct {
	events []domain.GeoEvent
	err    error
}

func (m *mockVolcanoSource) FetchVolcanoes(_ context.Context) ([]domain.GeoEvent, error) {
	return m.events, m.err
}

type mockBoundarySource struct {
	features []geo.LineFeature
	err      error
}

func (m *mockBoundarySource) FetchBoundaries(_ context.Context) ([]geo.LineFeature, error) {
	return m.features, m.err
}

type mockPublisher struct {
	batches [][]domain.GeoEvent
	err     error
}

func (m *mockPublisher) PublishBatch(_ context.Context, events []domain.GeoEvent) error {
	if m.err != nil {
		return m.err
	}
	m.batches = append(m.batches, events)
	return nil
}

type countingAnnotator struct {
	calls int
}

func (a *countingAnnotator) Annotate(_ context.Context, ev domain.GeoEvent) (domain.AnnotationResult, error) {
	a.calls++
	return domain.AnnotationResult{Summary: "summary for " + ev.Name}, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func quakeAt(id, name string, lon float64, mag float64, t time.Time) domain.GeoEvent {
	return domain.GeoEvent{
		ID:   id,
		Kind: domain.KindEarthquake,
		Name: name,
		Geo:  domain.Geo{Lat: 10, Lon: lon},
		Time: t,
		Earthquake: &domain.EarthquakeDetails{
			Magnitude: mag,
			MagType:   "mww",
		},
	}
}

func newTestRefresher(q QuakeSource, v VolcanoSource, b BoundarySource, opts Options) (*Refresher, *store.SnapshotStore) {
	st := store.New()
	r := New(q, v, b, st, discardLogger(), observability.NewMetricsForTesting(),
		time.Minute, 30, opts)
	return r, st
}

// --- tests ---

func TestRefresh_BuildsSnapshot(t *testing.T) {
	clk := clockwork.NewFakeClockAt(time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC))
	eventTime := clk.Now().Add(-24 * time.Hour)

	quakes := &mockQuakeSource{events: []domain.GeoEvent{
		quakeAt("us7000abcd", "10km W of Somewhere", 185.0, 5.1, eventTime),
	}}
	volcanoes := &mockVolcanoSource{events: []domain.GeoEvent{
		{Kind: domain.KindVolcano, Name: "Etna", Geo: domain.Geo{Lat: 37.748, Lon: 14.999},
			Volcano: &domain.VolcanoDetails{Number: "211060", Country: "Italy"}},
	}}
	boundaries := &mockBoundarySource{features: []geo.LineFeature{
		{Name: "PA-NA", Points: [][]float64{{170, 50}, {-170, 52}, {-160, 54}}},
	}}

	r, st := newTestRefresher(quakes, volcanoes, boundaries, Options{Clock: clk})

	require.Error(t, r.CheckReadiness(context.Background()))
	require.NoError(t, r.refresh(context.Background()))
	require.NoError(t, r.CheckReadiness(context.Background()))

	snap := st.Current()
	require.NotNil(t, snap)
	require.Len(t, snap.Earthquakes, 1)
	require.Len(t, snap.Volcanoes, 1)

	q := snap.Earthquakes[0]
	assert.Equal(t, -175.0, q.Geo.Lon, "longitude should be normalized")
	require.NotNil(t, q.Severity)
	assert.Equal(t, "severe", *q.Severity)
	assert.NotEmpty(t, q.Color)
	assert.NotEqual(t, geo.SentinelColor, q.Color)

	// The single point before the crossing cannot form a segment, so only
	// the piece after the crossing survives.
	require.Len(t, snap.Boundaries, 1)
	assert.Equal(t, [][]float64{{-170, 52}, {-160, 54}}, snap.Boundaries[0].Points)

	assert.Equal(t, clk.Now().UTC(), snap.Window.End)
	assert.Equal(t, clk.Now().UTC().AddDate(0, 0, -30), snap.Window.Start)
}

func TestRefresh_SourceFailureRetainsPreviousData(t *testing.T) {
	quakes := &mockQuakeSource{events: []domain.GeoEvent{
		quakeAt("us1", "First", 100, 3.0, time.Now().UTC()),
	}}
	volcanoes := &mockVolcanoSource{events: []domain.GeoEvent{
		{Kind: domain.KindVolcano, Name: "Sarychev", Geo: domain.Geo{Lat: 48.092, Lon: 153.2}},
	}}
	boundaries := &mockBoundarySource{}

	r, st := newTestRefresher(quakes, volcanoes, boundaries, Options{})
	require.NoError(t, r.refresh(context.Background()))

	quakes.err = errors.New("usgs: 503")
	volcanoes.events = append(volcanoes.events,
		domain.GeoEvent{Kind: domain.KindVolcano, Name: "Krakatau", Geo: domain.Geo{Lat: -6.102, Lon: 105.423}})
	require.NoError(t, r.refresh(context.Background()))

	snap := st.Current()
	require.NotNil(t, snap)
	assert.Len(t, snap.Earthquakes, 1, "previous earthquakes retained")
	assert.Equal(t, "us1", snap.Earthquakes[0].ID)
	assert.Len(t, snap.Volcanoes, 2, "volcano data still refreshed")
}

func TestRefresh_AllSourcesFailOnInitialRefresh(t *testing.T) {
	boom := errors.New("connection refused")
	r, st := newTestRefresher(
		&mockQuakeSource{err: boom},
		&mockVolcanoSource{err: boom},
		&mockBoundarySource{err: boom},
		Options{},
	)

	require.Error(t, r.refresh(context.Background()))
	assert.Nil(t, st.Current())
	assert.Error(t, r.CheckReadiness(context.Background()))
}

func TestRefresh_PublishesOnlyNewQuakes(t *testing.T) {
	now := time.Now().UTC()
	quakes := &mockQuakeSource{events: []domain.GeoEvent{
		quakeAt("us1", "First", 100, 3.0, now),
	}}
	pub := &mockPublisher{}

	r, _ := newTestRefresher(quakes, &mockVolcanoSource{}, &mockBoundarySource{},
		Options{Publisher: pub})

	require.NoError(t, r.refresh(context.Background()))
	require.Len(t, pub.batches, 1)
	require.Len(t, pub.batches[0], 1)

	quakes.events = append(quakes.events, quakeAt("us2", "Second", 110, 4.0, now))
	require.NoError(t, r.refresh(context.Background()))
	require.Len(t, pub.batches, 2)
	require.Len(t, pub.batches[0], 1)
	require.Len(t, pub.batches[1], 1)
	assert.Equal(t, "us2", pub.batches[1][0].ID)
}

func TestRefresh_PublishFailureDoesNotBlockSnapshot(t *testing.T) {
	quakes := &mockQuakeSource{events: []domain.GeoEvent{
		quakeAt("us1", "First", 100, 3.0, time.Now().UTC()),
	}}
	pub := &mockPublisher{err: errors.New("kafka down")}

	r, st := newTestRefresher(quakes, &mockVolcanoSource{}, &mockBoundarySource{},
		Options{Publisher: pub})

	require.NoError(t, r.refresh(context.Background()))
	require.NotNil(t, st.Current())
	assert.Len(t, st.Current().Earthquakes, 1)
}

func TestRefresh_AnnotatesOnlySevereQuakes(t *testing.T) {
	now := time.Now().UTC()
	quakes := &mockQuakeSource{events: []domain.GeoEvent{
		quakeAt("us1", "Minor one", 100, 3.0, now),
		quakeAt("us2", "Big one", 110, 6.5, now),
	}}
	ann := &countingAnnotator{}

	r, st := newTestRefresher(quakes, &mockVolcanoSource{}, &mockBoundarySource{},
		Options{Annotator: ann})

	require.NoError(t, r.refresh(context.Background()))
	assert.Equal(t, 1, ann.calls)

	snap := st.Current()
	require.Len(t, snap.Earthquakes, 2)
	assert.Empty(t, snap.Earthquakes[0].Annotation)
	assert.Equal(t, "summary for Big one", snap.Earthquakes[1].Annotation)
	assert.Equal(t, "service", snap.Earthquakes[1].AnnotationSource)
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	r, _ := newTestRefresher(&mockQuakeSource{}, &mockVolcanoSource{}, &mockBoundarySource{}, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	// Let the first refresh land, then cancel.
	require.Eventually(t, func() bool {
		return r.CheckReadiness(ctx) == nil
	}, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

func TestNextBackoff(t *testing.T) {
	maxBackoff := 5 * time.Second
	assert.Equal(t, 400*time.Millisecond, nextBackoff(200*time.Millisecond, maxBackoff))
	assert.Equal(t, 5*time.Second, nextBackoff(4*time.Second, maxBackoff))
	assert.Equal(t, 5*time.Second, nextBackoff(5*time.Second, maxBackoff))
}
