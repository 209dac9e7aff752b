package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// refresh pipeline. Source labels are "usgs", "gvp", or "plates".
type Metrics struct {
	RefreshesTotal  prometheus.Counter
	RefreshErrors   *prometheus.CounterVec // labels: source
	RefreshDuration prometheus.Histogram
	PipelineRunning prometheus.Gauge

	// Per-source fetch/transform metrics.
	EventsFetched     *prometheus.CounterVec   // labels: source
	MalformedFeatures *prometheus.CounterVec   // labels: source
	FetchDuration     *prometheus.HistogramVec // labels: source
	BoundarySegments  prometheus.Gauge

	// Kafka publishing metrics.
	EventsPublished prometheus.Counter
	PublishErrors   prometheus.Counter

	// Annotation enrichment metrics.
	AnnotateRequests    *prometheus.CounterVec // labels: outcome={success,error,empty}
	AnnotateCache       *prometheus.CounterVec // labels: result={hit,miss}
	AnnotateAPIDuration prometheus.Histogram
	AnnotateEnabled     prometheus.Gauge
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		RefreshesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "globe_feed",
			Name:      "refreshes_total",
			Help:      "Total completed refresh cycles.",
		}),
		RefreshErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "globe_feed",
			Name:      "refresh_errors_total",
			Help:      "Upstream fetch failures by source.",
		}, []string{"source"}),
		RefreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "globe_feed",
			Name:      "refresh_duration_seconds",
			Help:      "Duration of a complete fetch-transform-store cycle.",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "globe_feed",
			Name:      "pipeline_running",
			Help:      "1 when the refresh loop is active, 0 when shut down.",
		}),
		EventsFetched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "globe_feed",
			Name:      "events_fetched_total",
			Help:      "Records fetched from upstream feeds by source.",
		}, []string{"source"}),
		MalformedFeatures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "globe_feed",
			Name:      "malformed_features_total",
			Help:      "Features skipped for malformed coordinates by source.",
		}, []string{"source"}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "globe_feed",
			Name:      "fetch_duration_seconds",
			Help:      "Upstream feed request duration by source.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"source"}),
		BoundarySegments: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "globe_feed",
			Name:      "boundary_segments",
			Help:      "Segmented plate-boundary polylines in the current snapshot.",
		}),
		EventsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "globe_feed",
			Name:      "events_published_total",
			Help:      "New earthquake events published to the sink topic.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "globe_feed",
			Name:      "publish_errors_total",
			Help:      "Failed Kafka publish batches.",
		}),
		AnnotateRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "globe_feed",
			Name:      "annotate_requests_total",
			Help:      "Annotation service requests by outcome.",
		}, []string{"outcome"}),
		AnnotateCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "globe_feed",
			Name:      "annotate_cache_total",
			Help:      "Annotation cache lookups by result.",
		}, []string{"result"}),
		AnnotateAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "globe_feed",
			Name:      "annotate_api_duration_seconds",
			Help:      "Annotation service request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		AnnotateEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "globe_feed",
			Name:      "annotate_enabled",
			Help:      "1 when annotation enrichment is enabled, 0 otherwise.",
		}),
	}

	prometheus.MustRegister(
		m.RefreshesTotal,
		m.RefreshErrors,
		m.RefreshDuration,
		m.PipelineRunning,
		m.EventsFetched,
		m.MalformedFeatures,
		m.FetchDuration,
		m.BoundarySegments,
		m.EventsPublished,
		m.PublishErrors,
		m.AnnotateRequests,
		m.AnnotateCache,
		m.AnnotateAPIDuration,
		m.AnnotateEnabled,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		RefreshesTotal:      prometheus.NewCounter(prometheus.CounterOpts{Namespace: "globe_feed", Name: "refreshes_total"}),
		RefreshErrors:       prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "globe_feed", Name: "refresh_errors_total"}, []string{"source"}),
		RefreshDuration:     prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "globe_feed", Name: "refresh_duration_seconds"}),
		PipelineRunning:     prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "globe_feed", Name: "pipeline_running"}),
		EventsFetched:       prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "globe_feed", Name: "events_fetched_total"}, []string{"source"}),
		MalformedFeatures:   prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "globe_feed", Name: "malformed_features_total"}, []string{"source"}),
		FetchDuration:       prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "globe_feed", Name: "fetch_duration_seconds"}, []string{"source"}),
		BoundarySegments:    prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "globe_feed", Name: "boundary_segments"}),
		EventsPublished:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "globe_feed", Name: "events_published_total"}),
		PublishErrors:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: "globe_feed", Name: "publish_errors_total"}),
		AnnotateRequests:    prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "globe_feed", Name: "annotate_requests_total"}, []string{"outcome"}),
		AnnotateCache:       prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "globe_feed", Name: "annotate_cache_total"}, []string{"result"}),
		AnnotateAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "globe_feed", Name: "annotate_api_duration_seconds"}),
		AnnotateEnabled:     prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "globe_feed", Name: "annotate_enabled"}),
	}
}
