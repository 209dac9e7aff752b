package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/quakescope/globe-data-service/internal/geo"
)

// quakeFeed mirrors the USGS GeoJSON feed structure.
type quakeFeed struct {
	Features []quakeFeature `json:"features"`
}

type quakeFeature struct {
	ID         string        `json:"id"`
	Properties quakeProps    `json:"properties"`
	Geometry   pointGeometry `json:"geometry"`
}

type quakeProps struct {
	Mag     *float64 `json:"mag"` // null for some analyst-reviewed events
	Place   string   `json:"place"`
	Time    int64    `json:"time"` // epoch milliseconds
	URL     string   `json:"url"`
	Tsunami int      `json:"tsunami"`
	MagType string   `json:"magType"`
	Type    string   `json:"type"` // "earthquake", "quarry blast", ...
}

type pointGeometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"` // [lon, lat, depth-km]
}

// VolcanoRecord mirrors one entry of the GVP Holocene volcano list.
type VolcanoRecord struct {
	VolcanoNumber string  `json:"volcano_number"`
	VolcanoName   string  `json:"volcano_name"`
	Country       string  `json:"country"`
	PrimaryType   string  `json:"primary_volcano_type"`
	LastEruption  string  `json:"last_eruption_year"`
	ElevationM    float64 `json:"elevation"`
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
}

// ParseQuakeFeed deserializes a USGS GeoJSON feed payload into earthquake
// GeoEvents. Malformed features are reported with their index and skipped;
// one bad feature never aborts the rest of the feed.
func ParseQuakeFeed(data []byte) ([]GeoEvent, []geo.FeatureError) {
	var feed quakeFeed
	if err := json.Unmarshal(data, &feed); err != nil {
		return nil, []geo.FeatureError{{Index: -1, Err: fmt.Errorf("parse quake feed: %w", err)}}
	}

	events := make([]GeoEvent, 0, len(feed.Features))
	var errs []geo.FeatureError
	for i, f := range feed.Features {
		event, err := parseQuakeFeature(f)
		if err != nil {
			errs = append(errs, geo.FeatureError{Index: i, Err: err})
			continue
		}
		events = append(events, event)
	}
	return events, errs
}

func parseQuakeFeature(f quakeFeature) (GeoEvent, error) {
	if len(f.Geometry.Coordinates) < 2 {
		return GeoEvent{}, fmt.Errorf("want [lon, lat, depth] geometry, got %d coordinates", len(f.Geometry.Coordinates))
	}
	lon, lat := f.Geometry.Coordinates[0], f.Geometry.Coordinates[1]
	if math.IsNaN(lon) || math.IsInf(lon, 0) || math.IsNaN(lat) || math.IsInf(lat, 0) {
		return GeoEvent{}, fmt.Errorf("non-finite coordinate (%v, %v)", lon, lat)
	}

	var depth float64
	if len(f.Geometry.Coordinates) > 2 {
		depth = f.Geometry.Coordinates[2]
	}
	var mag float64
	if f.Properties.Mag != nil {
		mag = *f.Properties.Mag
	}

	return GeoEvent{
		ID:   f.ID,
		Kind: KindEarthquake,
		Name: f.Properties.Place,
		Geo:  Geo{Lat: lat, Lon: lon},
		Time: time.UnixMilli(f.Properties.Time).UTC(),
		Earthquake: &EarthquakeDetails{
			Magnitude: mag,
			MagType:   f.Properties.MagType,
			DepthKM:   depth,
			Tsunami:   f.Properties.Tsunami != 0,
			DetailURL: f.Properties.URL,
		},
	}, nil
}

// ParseVolcanoList deserializes a GVP volcano list payload into volcano
// GeoEvents. Volcanoes are standing records, not point-in-time events; Time
// is left zero and the pipeline assigns no recency color.
func ParseVolcanoList(data []byte) ([]GeoEvent, error) {
	var records []VolcanoRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse volcano list: %w", err)
	}

	events := make([]GeoEvent, 0, len(records))
	for _, r := range records {
		events = append(events, GeoEvent{
			ID:   r.VolcanoNumber,
			Kind: KindVolcano,
			Name: r.VolcanoName,
			Geo:  Geo{Lat: r.Latitude, Lon: r.Longitude},
			Volcano: &VolcanoDetails{
				Number:       r.VolcanoNumber,
				Country:      r.Country,
				Type:         r.PrimaryType,
				ElevationM:   r.ElevationM,
				LastEruption: r.LastEruption,
			},
		})
	}
	return events, nil
}

// boundaryCollection mirrors a GeoJSON FeatureCollection of plate boundaries.
type boundaryCollection struct {
	Features []boundaryFeature `json:"features"`
}

type boundaryFeature struct {
	Properties map[string]any   `json:"properties"`
	Geometry   boundaryGeometry `json:"geometry"`
}

type boundaryGeometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// ParseBoundaryCollection deserializes a PB2002 GeoJSON payload into geo
// LineFeatures. MultiLineString geometries become one LineFeature per part,
// all sharing the source feature's properties. Coordinates are passed through
// as-is; normalization and crossing checks happen in geo.SegmentAntimeridian.
func ParseBoundaryCollection(data []byte) ([]geo.LineFeature, error) {
	var coll boundaryCollection
	if err := json.Unmarshal(data, &coll); err != nil {
		return nil, fmt.Errorf("parse boundary collection: %w", err)
	}

	var features []geo.LineFeature
	for i, f := range coll.Features {
		name := boundaryName(f.Properties)
		switch f.Geometry.Type {
		case "LineString":
			var points [][]float64
			if err := json.Unmarshal(f.Geometry.Coordinates, &points); err != nil {
				return nil, fmt.Errorf("feature %d (%s): %w", i, name, err)
			}
			features = append(features, geo.LineFeature{Name: name, Properties: f.Properties, Points: points})
		case "MultiLineString":
			var parts [][][]float64
			if err := json.Unmarshal(f.Geometry.Coordinates, &parts); err != nil {
				return nil, fmt.Errorf("feature %d (%s): %w", i, name, err)
			}
			for _, points := range parts {
				features = append(features, geo.LineFeature{Name: name, Properties: f.Properties, Points: points})
			}
		default:
			return nil, fmt.Errorf("feature %d (%s): unsupported geometry type %q", i, name, f.Geometry.Type)
		}
	}
	return features, nil
}

func boundaryName(props map[string]any) string {
	for _, key := range []string{"Name", "name", "BOUNDARY"} {
		if v, ok := props[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// EnrichGeoEvent normalizes, classifies, and stamps a parsed event: longitude
// folded into (-180, 180], severity derived for earthquakes, an hourly time
// bucket assigned, a deterministic ID generated when the source had none, and
// ProcessedAt set from the package clock.
func EnrichGeoEvent(event GeoEvent) GeoEvent {
	event.Geo.Lon = geo.NormalizeLongitude(event.Geo.Lon)
	if event.Kind == KindEarthquake && event.Earthquake != nil {
		event.Severity = deriveSeverity(event.Earthquake.Magnitude)
	}
	event.TimeBucket = deriveTimeBucket(event.Time)
	if event.ID == "" {
		event.ID = generateID(event.Kind, event.Name, event.Geo.Lat, event.Geo.Lon, event.Time)
	}
	event.ProcessedAt = clock.Now()
	return event
}

// deriveSeverity maps magnitude to a severity label using the USGS magnitude
// classes collapsed to the explorer's four filter levels. Returns nil for
// unmeasured (zero or negative) magnitudes; micro-quakes below M0 exist but
// are below any filter's interest.
func deriveSeverity(magnitude float64) *string {
	if magnitude <= 0 {
		return nil
	}

	var s string
	switch {
	case magnitude < 2.5:
		s = "minor"
	case magnitude < 4.5:
		s = "moderate"
	case magnitude < 6.0:
		s = "severe"
	default:
		s = "extreme"
	}
	return &s
}

// deriveTimeBucket truncates the event time to the hour in UTC.
// Returns zero time if the input is zero.
func deriveTimeBucket(t time.Time) time.Time {
	if t.IsZero() {
		return time.Time{}
	}
	return t.UTC().Truncate(time.Hour)
}

// generateID produces a deterministic ID from the event's key fields.
// Reprocessing the same upstream record yields the same ID, which keeps Kafka
// keys and downstream upserts stable across refreshes.
func generateID(kind EventKind, name string, lat, lon float64, t time.Time) string {
	input := fmt.Sprintf("%s|%s|%.4f|%.4f|%d", kind, name, lat, lon, t.UnixMilli())
	hash := sha256.Sum256([]byte(input))
	short := hex.EncodeToString(hash[:8])
	if kind == "" {
		return short
	}
	return string(kind) + "-" + short
}
