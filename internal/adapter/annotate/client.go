// Package annotate talks to the text-annotation service that produces short
// human-readable summaries for notable events.
package annotate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/quakescope/globe-data-service/internal/domain"
	"github.com/quakescope/globe-data-service/internal/observability"
)

// Client implements domain.Annotator against the annotation HTTP API.
type Client struct {
	token      string
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates an annotation service client.
func NewClient(baseURL, token string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		metrics:    metrics,
		logger:     logger,
	}
}

// Annotate requests a summary for one event.
func (c *Client) Annotate(ctx context.Context, event domain.GeoEvent) (domain.AnnotationResult, error) {
	payload := annotateRequest{
		Kind: string(event.Kind),
		Name: event.Name,
		Lat:  event.Geo.Lat,
		Lon:  event.Geo.Lon,
		Time: event.Time,
	}
	if event.Earthquake != nil {
		payload.Magnitude = event.Earthquake.Magnitude
		payload.DepthKM = event.Earthquake.DepthKM
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return domain.AnnotationResult{}, fmt.Errorf("encode annotate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/summaries", bytes.NewReader(body))
	if err != nil {
		return domain.AnnotationResult{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.AnnotateAPIDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.AnnotateRequests.WithLabelValues("error").Inc()
		return domain.AnnotationResult{}, fmt.Errorf("annotate request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.metrics.AnnotateRequests.WithLabelValues("error").Inc()
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.AnnotationResult{}, fmt.Errorf("annotation API error: status %d: %s", resp.StatusCode, respBody)
	}

	var ar annotateResponse
	if err := json.NewDecoder(resp.Body).Decode(&ar); err != nil {
		c.metrics.AnnotateRequests.WithLabelValues("error").Inc()
		return domain.AnnotationResult{}, fmt.Errorf("decode response: %w", err)
	}

	if ar.Summary == "" {
		c.metrics.AnnotateRequests.WithLabelValues("empty").Inc()
		return domain.AnnotationResult{}, nil
	}

	c.metrics.AnnotateRequests.WithLabelValues("success").Inc()
	return domain.AnnotationResult{
		Summary:    ar.Summary,
		Model:      ar.Model,
		Confidence: ar.Confidence,
	}, nil
}

// Annotation API wire types.

type annotateRequest struct {
	Kind      string    `json:"kind"`
	Name      string    `json:"name"`
	Lat       float64   `json:"lat"`
	Lon       float64   `json:"lon"`
	Time      time.Time `json:"time"`
	Magnitude float64   `json:"magnitude,omitempty"`
	DepthKM   float64   `json:"depth_km,omitempty"`
}

type annotateResponse struct {
	Summary    string  `json:"summary"`
	Model      string  `json:"model"`
	Confidence float64 `json:"confidence"`
}
