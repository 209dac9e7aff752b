package domain

import "context"

// AnnotationResult is the descriptive text returned by the enrichment service.
type AnnotationResult struct {
	Summary    string
	Model      string
	Confidence float64 // 0.0–1.0 service confidence score
}

// Annotator enriches events with human-readable descriptive text.
type Annotator interface {
	// Annotate produces a short description of the event for the detail panel.
	Annotate(ctx context.Context, event GeoEvent) (AnnotationResult, error)
}
