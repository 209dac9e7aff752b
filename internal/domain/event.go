package domain

import (
	"time"

	"github.com/quakescope/globe-data-service/internal/geo"
)

// EventKind discriminates the variants of GeoEvent.
type EventKind string

const (
	KindEarthquake EventKind = "earthquake"
	KindVolcano    EventKind = "volcano"
)

// Geo is a WGS-84 coordinate pair, longitude in (-180, 180].
type Geo struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// EarthquakeDetails is the earthquake-only payload of a GeoEvent.
type EarthquakeDetails struct {
	Magnitude float64 `json:"magnitude"`
	MagType   string  `json:"mag_type,omitempty"`
	DepthKM   float64 `json:"depth_km"`
	Tsunami   bool    `json:"tsunami,omitempty"`
	DetailURL string  `json:"detail_url,omitempty"`
}

// VolcanoDetails is the volcano-only payload of a GeoEvent.
type VolcanoDetails struct {
	Number       string  `json:"number"`
	Country      string  `json:"country,omitempty"`
	Type         string  `json:"type,omitempty"`
	ElevationM   float64 `json:"elevation_m"`
	LastEruption string  `json:"last_eruption,omitempty"`
}

// GeoEvent is a tagged union over earthquake and volcano records. Kind names
// the variant; exactly one of Earthquake/Volcano is non-nil. The explicit tag
// replaces the field-presence probing the frontend used to tell the two
// apart.
type GeoEvent struct {
	ID   string    `json:"id"`
	Kind EventKind `json:"kind"`
	Name string    `json:"name"`
	Geo  Geo       `json:"geo"`
	Time time.Time `json:"time"`

	Earthquake *EarthquakeDetails `json:"earthquake,omitempty"`
	Volcano    *VolcanoDetails    `json:"volcano,omitempty"`

	// Derived fields, set during enrichment.
	Severity   *string   `json:"severity,omitempty"`
	TimeBucket time.Time `json:"time_bucket"`
	Color      string    `json:"color,omitempty"`

	// Annotation enrichment fields.
	Annotation       string `json:"annotation,omitempty"`
	AnnotationSource string `json:"annotation_source,omitempty"` // "service", "failed", ""

	ProcessedAt time.Time `json:"processed_at"`
}

// TimeWindow is the [Start, End) interval events are recency-colored over.
type TimeWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Snapshot is one processed generation of all three datasets, built by the
// pipeline and served read-only until the next refresh replaces it.
type Snapshot struct {
	Earthquakes []GeoEvent        `json:"earthquakes"`
	Volcanoes   []GeoEvent        `json:"volcanoes"`
	Boundaries  []geo.LineFeature `json:"boundaries"`
	Window      TimeWindow        `json:"window"`
	FetchedAt   time.Time         `json:"fetched_at"`
}
