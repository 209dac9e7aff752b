package geo

import (
	"fmt"
	"math"
)

// LineFeature is a named polyline with opaque metadata, matching the shape of
// a GeoJSON LineString feature. Points are [longitude, latitude, ...] tuples;
// elements beyond the first two are carried along untouched.
type LineFeature struct {
	Name       string
	Properties map[string]any
	Points     [][]float64
}

// FeatureError reports a malformed feature by its index in the input slice.
type FeatureError struct {
	Index int
	Err   error
}

func (e FeatureError) Error() string {
	return fmt.Sprintf("feature %d: %v", e.Index, e.Err)
}

func (e FeatureError) Unwrap() error { return e.Err }

// crossesAntimeridian judges an antimeridian crossing between two adjacent
// points by magnitude alone: a strict >180° longitude jump. The true test
// would account for direction of travel, but this heuristic is the rendering
// contract for splitting plate boundaries.
func crossesAntimeridian(prevLon, lon float64) bool {
	return math.Abs(lon-prevLon) > 180
}

// SegmentAntimeridian splits each feature into contiguous segments wherever
// adjacent points cross the ±180° meridian, so no segment draws a spurious
// line wrapping the globe.
//
// Longitudes are normalized on a copied point slice before the walk; input
// features are never mutated. The crossing comparison is always between
// original-array neighbors (point i against point i-1), even right after a
// too-short segment was discarded. Segments with fewer than two points are
// dropped, so a 0- or 1-point feature yields nothing and a 2-point feature
// that crosses yields nothing either. Each emitted segment carries the source
// feature's name and a shallow copy of its properties.
//
// Features with malformed points (fewer than two coordinates, or non-finite
// longitude/latitude) are skipped and reported in the returned FeatureError
// slice; the remaining features are processed normally.
func SegmentAntimeridian(features []LineFeature) ([]LineFeature, []FeatureError) {
	var out []LineFeature
	var errs []FeatureError

	for i, f := range features {
		points, err := normalizedPoints(f.Points)
		if err != nil {
			errs = append(errs, FeatureError{Index: i, Err: err})
			continue
		}
		out = append(out, splitFeature(f, points)...)
	}
	return out, errs
}

// normalizedPoints validates every point and returns a copy with normalized
// longitudes. The input slice is left untouched.
func normalizedPoints(points [][]float64) ([][]float64, error) {
	normalized := make([][]float64, len(points))
	for i, p := range points {
		if len(p) < 2 {
			return nil, fmt.Errorf("point %d: want [lon, lat], got %d coordinates", i, len(p))
		}
		lon, lat := p[0], p[1]
		if math.IsNaN(lon) || math.IsInf(lon, 0) || math.IsNaN(lat) || math.IsInf(lat, 0) {
			return nil, fmt.Errorf("point %d: non-finite coordinate (%v, %v)", i, lon, lat)
		}
		q := make([]float64, len(p))
		copy(q, p)
		q[0] = NormalizeLongitude(lon)
		normalized[i] = q
	}
	return normalized, nil
}

// splitFeature walks one feature's points and emits every run of at least two
// points uninterrupted by a crossing.
func splitFeature(f LineFeature, points [][]float64) []LineFeature {
	var segments []LineFeature
	var current [][]float64

	emit := func() {
		if len(current) < 2 {
			return
		}
		segments = append(segments, LineFeature{
			Name:       f.Name,
			Properties: copyProperties(f.Properties),
			Points:     current,
		})
	}

	for i, p := range points {
		if i > 0 && crossesAntimeridian(points[i-1][0], p[0]) {
			emit()
			current = [][]float64{p}
			continue
		}
		current = append(current, p)
	}
	emit()

	return segments
}

func copyProperties(props map[string]any) map[string]any {
	if props == nil {
		return nil
	}
	out := make(map[string]any, len(props))
	for k, v := range props {
		out[k] = v
	}
	return out
}
