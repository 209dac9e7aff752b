package geo

import "math"

// NormalizeLongitude canonicalizes a longitude in degrees into (-180, 180].
// A value of exactly -180 maps to +180; +180 is left unchanged. The shifting
// loop is equivalent to a mod-360 fold but reproduces those boundary cases
// exactly.
//
// Non-finite input (NaN, ±Inf) is a contract violation by the caller and is
// returned unchanged; SegmentAntimeridian is the layer that rejects it with a
// structured error before it can reach rendering.
func NormalizeLongitude(lon float64) float64 {
	if math.IsNaN(lon) || math.IsInf(lon, 0) {
		return lon
	}
	for lon <= -180 {
		lon += 360
	}
	for lon > 180 {
		lon -= 360
	}
	return lon
}
