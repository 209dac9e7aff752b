// Package domain models the hazard datasets behind the globe explorer:
// earthquake events, Holocene volcano records, and tectonic plate boundaries.
//
// # Data Sources
//
// Earthquakes come from the USGS real-time GeoJSON feeds
// (https://earthquake.usgs.gov/earthquakes/feed/v1.0/geojson.php). Each feed
// is a FeatureCollection of Point features; geometry coordinates are
// [longitude, latitude, depth-km] and properties carry magnitude, a
// human-readable place string, the event time in epoch milliseconds, and a
// detail URL. Feature IDs are USGS network codes like "us7000m9g4".
//
// Volcano records come from the Smithsonian Global Volcanism Program (GVP)
// Holocene volcano list. Each record carries the GVP volcano number, name,
// country, primary volcano type, summit elevation in meters, the last known
// eruption (a free-form string like "2021 CE" or "Unknown"), and coordinates.
//
// Plate boundaries are the PB2002 dataset (Bird, 2003): a GeoJSON
// FeatureCollection of LineString and MultiLineString features whose
// properties name the boundary. Boundary polylines routinely span the ±180°
// antimeridian and are split by the geo package before serving.
//
// # Conventions
//
// Longitude is served in (-180, 180]; raw feed values outside that range are
// folded by geo.NormalizeLongitude during enrichment. Latitude is assumed in
// [-90, 90] as supplied.
//
// Severity classification for earthquakes follows the USGS magnitude classes,
// simplified to the four-level scale used by the explorer's filters:
//
//	M < 2.5  minor    (generally not felt)
//	M < 4.5  moderate (felt, minor damage)
//	M < 6.0  severe   (damaging)
//	M ≥ 6.0  extreme  (major)
//
// Volcano list records carry no eruption-intensity measure, so volcano events
// get no severity label.
//
// # ID Generation
//
// Events keep their upstream ID when one is present (USGS codes, GVP volcano
// numbers). Otherwise a deterministic SHA-256 hash of kind|name|lat|lon|time
// is used, so replays and mock regeneration produce stable IDs. See
// [generateID].
package domain
