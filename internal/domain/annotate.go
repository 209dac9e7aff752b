package domain

import (
	"context"
	"log/slog"
)

// EnrichWithAnnotation attempts to enrich an event with descriptive text.
// If annotator is nil or the call fails, the event is returned with
// AnnotationSource set accordingly (graceful degradation): the globe renders
// fine without summaries.
func EnrichWithAnnotation(ctx context.Context, event GeoEvent, annotator Annotator, logger *slog.Logger) GeoEvent {
	if annotator == nil {
		return event
	}

	result, err := annotator.Annotate(ctx, event)
	if err != nil {
		logger.Warn("annotation failed",
			"event_id", event.ID,
			"kind", event.Kind,
			"error", err,
		)
		event.AnnotationSource = "failed"
		return event
	}
	if result.Summary == "" {
		return event
	}

	event.Annotation = result.Summary
	event.AnnotationSource = "service"
	return event
}
