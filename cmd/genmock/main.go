// Command genmock reads raw upstream fixtures (a USGS GeoJSON feed, a GVP
// volcano list, and a PB2002 boundary collection) and generates processed
// fixtures using the actual domain and geo packages, so fixture output
// matches real pipeline behavior.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -quake-json data/fixtures/usgs_all_week.geojson \
//	  -volcano-json data/fixtures/gvp_holocene.json \
//	  -plates-json data/fixtures/pb2002_boundaries.json \
//	  -out-dir data/mock
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/quakescope/globe-data-service/internal/domain"
	"github.com/quakescope/globe-data-service/internal/geo"
)

// Fixed reference time for reproducible ProcessedAt stamps and colors.
var fixtureNow = time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	quakeJSON := flag.String("quake-json", "", "path to raw USGS GeoJSON feed fixture")
	volcanoJSON := flag.String("volcano-json", "", "path to raw GVP volcano list fixture")
	platesJSON := flag.String("plates-json", "", "path to raw PB2002 boundary fixture")
	outDir := flag.String("out-dir", "", "output directory for processed fixtures")
	windowDays := flag.Int("window-days", 30, "recency window size in days")
	flag.Parse()

	if *quakeJSON == "" || *volcanoJSON == "" || *platesJSON == "" || *outDir == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -quake-json, -volcano-json, -plates-json, -out-dir")
	}

	// Set a fixed clock for reproducible ProcessedAt timestamps.
	domain.SetClock(clockwork.NewFakeClockAt(fixtureNow))
	defer domain.SetClock(nil)

	window := domain.TimeWindow{
		Start: fixtureNow.AddDate(0, 0, -*windowDays),
		End:   fixtureNow,
	}

	quakes, err := processQuakes(*quakeJSON, window)
	if err != nil {
		return fmt.Errorf("processing %s: %w", *quakeJSON, err)
	}
	log.Printf("earthquakes: %d events", len(quakes))

	volcanoes, err := processVolcanoes(*volcanoJSON)
	if err != nil {
		return fmt.Errorf("processing %s: %w", *volcanoJSON, err)
	}
	log.Printf("volcanoes: %d events", len(volcanoes))

	segments, err := processBoundaries(*platesJSON)
	if err != nil {
		return fmt.Errorf("processing %s: %w", *platesJSON, err)
	}
	log.Printf("boundaries: %d segments", len(segments))

	outputs := map[string]any{
		"earthquakes_processed.json": quakes,
		"volcanoes_processed.json":   volcanoes,
		"boundaries_segmented.json":  segments,
	}
	for name, v := range outputs {
		path := filepath.Join(*outDir, name)
		if err := writeJSON(path, v); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		log.Printf("wrote fixture: %s", path)
	}

	printStats(quakes)
	return nil
}

func processQuakes(path string, window domain.TimeWindow) ([]domain.GeoEvent, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	events, featureErrs := domain.ParseQuakeFeed(data)
	for _, fe := range featureErrs {
		log.Printf("skipping malformed quake feature %d: %v", fe.Index, fe.Err)
	}

	out := make([]domain.GeoEvent, 0, len(events))
	for _, ev := range events {
		ev = domain.EnrichGeoEvent(ev)
		ev.Color = geo.ColorForTime(ev.Time, window.Start, window.End)
		out = append(out, ev)
	}
	return out, nil
}

func processVolcanoes(path string) ([]domain.GeoEvent, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	records, err := domain.ParseVolcanoList(data)
	if err != nil {
		return nil, err
	}

	out := make([]domain.GeoEvent, 0, len(records))
	for _, ev := range records {
		out = append(out, domain.EnrichGeoEvent(ev))
	}
	return out, nil
}

func processBoundaries(path string) ([]geo.LineFeature, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	features, err := domain.ParseBoundaryCollection(data)
	if err != nil {
		return nil, err
	}

	segments, featureErrs := geo.SegmentAntimeridian(features)
	for _, fe := range featureErrs {
		log.Printf("skipping malformed boundary feature %d: %v", fe.Index, fe.Err)
	}
	return segments, nil
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

func printStats(quakes []domain.GeoEvent) {
	severityCounts := map[string]int{}
	for _, q := range quakes {
		if q.Severity != nil {
			severityCounts[*q.Severity]++
		} else {
			severityCounts["unclassified"]++
		}
	}
	log.Printf("severity distribution: minor=%d moderate=%d severe=%d extreme=%d unclassified=%d",
		severityCounts["minor"], severityCounts["moderate"],
		severityCounts["severe"], severityCounts["extreme"],
		severityCounts["unclassified"])
}
