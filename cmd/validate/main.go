// Command validate performs integrity checks across the raw and processed
// fixtures: it re-runs the raw feeds through the domain and geo packages and
// verifies the processed fixtures match, then checks the geospatial
// invariants every snapshot must hold.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -quake-json data/fixtures/usgs_all_week.geojson \
//	  -volcano-json data/fixtures/gvp_holocene.json \
//	  -plates-json data/fixtures/pb2002_boundaries.json \
//	  -processed-dir data/mock
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/quakescope/globe-data-service/internal/domain"
	"github.com/quakescope/globe-data-service/internal/geo"
)

// Must match the reference time genmock bakes into the fixtures.
var fixtureNow = time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC)

var rgbaPattern = regexp.MustCompile(`^rgba\(-?\d+, -?\d+, -?\d+, 0\.75\)$`)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	quakeJSON := flag.String("quake-json", "", "path to raw USGS GeoJSON feed fixture")
	volcanoJSON := flag.String("volcano-json", "", "path to raw GVP volcano list fixture")
	platesJSON := flag.String("plates-json", "", "path to raw PB2002 boundary fixture")
	processedDir := flag.String("processed-dir", "", "directory containing processed fixtures")
	windowDays := flag.Int("window-days", 30, "recency window size in days")
	flag.Parse()

	if *quakeJSON == "" || *volcanoJSON == "" || *platesJSON == "" || *processedDir == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*quakeJSON, *volcanoJSON, *platesJSON, *processedDir, *windowDays); code != 0 {
		os.Exit(code)
	}
}

func run(quakeJSON, volcanoJSON, platesJSON, processedDir string, windowDays int) int {
	// Set a fixed clock matching genmock for ProcessedAt reproducibility.
	domain.SetClock(clockwork.NewFakeClockAt(fixtureNow))
	defer domain.SetClock(nil)

	fmt.Println("=== Globe Data Fixture Validation ===")
	fmt.Println()

	processedQuakes, err := loadJSON[domain.GeoEvent](filepath.Join(processedDir, "earthquakes_processed.json"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load processed earthquakes: %v\n", err)
		return 1
	}
	processedVolcanoes, err := loadJSON[domain.GeoEvent](filepath.Join(processedDir, "volcanoes_processed.json"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load processed volcanoes: %v\n", err)
		return 1
	}
	segments, err := loadJSON[geo.LineFeature](filepath.Join(processedDir, "boundaries_segmented.json"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load segmented boundaries: %v\n", err)
		return 1
	}

	window := domain.TimeWindow{
		Start: fixtureNow.AddDate(0, 0, -windowDays),
		End:   fixtureNow,
	}

	phases := []*phase{
		validateQuakeTransformation(quakeJSON, processedQuakes, window),
		validateVolcanoTransformation(volcanoJSON, processedVolcanoes),
		validateBoundarySegmentation(platesJSON, segments),
		validateGeoInvariants(processedQuakes, processedVolcanoes, segments),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Records: %d earthquakes, %d volcanoes, %d boundary segments\n",
		len(processedQuakes), len(processedVolcanoes), len(segments))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// validateQuakeTransformation re-runs the raw feed through the real transform
// and compares IDs, severity, and colors against the processed fixture.
func validateQuakeTransformation(rawPath string, processed []domain.GeoEvent, window domain.TimeWindow) *phase {
	p := &phase{name: "earthquake transformation"}

	data, err := os.ReadFile(rawPath)
	if err != nil {
		p.errorf("read raw feed: %v", err)
		return p
	}
	events, featureErrs := domain.ParseQuakeFeed(data)
	expected := make(map[string]domain.GeoEvent, len(events))
	for _, ev := range events {
		ev = domain.EnrichGeoEvent(ev)
		ev.Color = geo.ColorForTime(ev.Time, window.Start, window.End)
		expected[ev.ID] = ev
	}

	if len(processed) != len(events) {
		p.errorf("count mismatch: %d processed, %d parsed from raw (%d malformed skipped)",
			len(processed), len(events), len(featureErrs))
	}

	for _, got := range processed {
		want, ok := expected[got.ID]
		if !ok {
			p.errorf("quake %s: not derivable from raw feed", got.ID)
			continue
		}
		if got.Geo.Lon != want.Geo.Lon {
			p.errorf("quake %s: lon %v, want %v", got.ID, got.Geo.Lon, want.Geo.Lon)
		}
		if got.Color != want.Color {
			p.errorf("quake %s: color %q, want %q", got.ID, got.Color, want.Color)
		}
		if (got.Severity == nil) != (want.Severity == nil) {
			p.errorf("quake %s: severity presence mismatch", got.ID)
		} else if got.Severity != nil && *got.Severity != *want.Severity {
			p.errorf("quake %s: severity %q, want %q", got.ID, *got.Severity, *want.Severity)
		}
	}
	return p
}

func validateVolcanoTransformation(rawPath string, processed []domain.GeoEvent) *phase {
	p := &phase{name: "volcano transformation"}

	data, err := os.ReadFile(rawPath)
	if err != nil {
		p.errorf("read raw list: %v", err)
		return p
	}
	records, err := domain.ParseVolcanoList(data)
	if err != nil {
		p.errorf("parse raw list: %v", err)
		return p
	}

	if len(processed) != len(records) {
		p.errorf("count mismatch: %d processed, %d in raw list", len(processed), len(records))
	}
	for _, got := range processed {
		if got.Kind != domain.KindVolcano {
			p.errorf("volcano %s: kind %q", got.ID, got.Kind)
		}
		if got.Volcano == nil {
			p.errorf("volcano %s: missing volcano details", got.ID)
		}
	}
	return p
}

func validateBoundarySegmentation(rawPath string, segments []geo.LineFeature) *phase {
	p := &phase{name: "boundary segmentation"}

	data, err := os.ReadFile(rawPath)
	if err != nil {
		p.errorf("read raw boundaries: %v", err)
		return p
	}
	features, err := domain.ParseBoundaryCollection(data)
	if err != nil {
		p.errorf("parse raw boundaries: %v", err)
		return p
	}

	want, _ := geo.SegmentAntimeridian(features)
	if len(segments) != len(want) {
		p.errorf("segment count mismatch: %d in fixture, %d from segmentation", len(segments), len(want))
	}
	if got, expect := countPoints(segments), countPoints(want); got != expect {
		p.errorf("segment point count mismatch: %d in fixture, %d from segmentation", got, expect)
	}
	return p
}

func countPoints(features []geo.LineFeature) int {
	n := 0
	for _, f := range features {
		n += len(f.Points)
	}
	return n
}

// validateGeoInvariants checks the properties every processed snapshot must
// hold regardless of input: normalized longitudes, well-formed colors,
// hourly time buckets, and no segment spanning the dateline.
func validateGeoInvariants(quakes, volcanoes []domain.GeoEvent, segments []geo.LineFeature) *phase {
	p := &phase{name: "geospatial invariants"}

	for _, ev := range append(append([]domain.GeoEvent{}, quakes...), volcanoes...) {
		if ev.Geo.Lon <= -180 || ev.Geo.Lon > 180 {
			p.errorf("event %s: lon %v outside (-180, 180]", ev.ID, ev.Geo.Lon)
		}
		if got := geo.NormalizeLongitude(ev.Geo.Lon); got != ev.Geo.Lon {
			p.errorf("event %s: lon %v not a fixed point of normalization (got %v)", ev.ID, ev.Geo.Lon, got)
		}
		if ev.ID == "" {
			p.errorf("event %q: empty ID", ev.Name)
		}
	}

	for _, q := range quakes {
		if q.Color != "" && !rgbaPattern.MatchString(q.Color) {
			p.errorf("quake %s: malformed color %q", q.ID, q.Color)
		}
		if !q.Time.IsZero() && !q.TimeBucket.Equal(q.Time.UTC().Truncate(time.Hour)) {
			p.errorf("quake %s: time bucket %v not hourly truncation of %v", q.ID, q.TimeBucket, q.Time)
		}
	}

	for i, seg := range segments {
		if len(seg.Points) < 2 {
			p.errorf("segment %d (%s): only %d points", i, seg.Name, len(seg.Points))
		}
		for j := 1; j < len(seg.Points); j++ {
			if math.Abs(seg.Points[j][0]-seg.Points[j-1][0]) > 180 {
				p.errorf("segment %d (%s): points %d-%d span the antimeridian", i, seg.Name, j-1, j)
			}
		}
	}
	return p
}

func loadJSON[T any](path string) ([]T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var out []T
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
