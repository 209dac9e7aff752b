// Package httpapi exposes the processed snapshot over a JSON HTTP API,
// alongside health, readiness, and metrics endpoints.
package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/quakescope/globe-data-service/internal/domain"
	"github.com/quakescope/globe-data-service/internal/geo"
	"github.com/quakescope/globe-data-service/internal/store"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// Server exposes the snapshot API plus health, readiness, and metrics routes.
type Server struct {
	httpServer *http.Server
	st         *store.SnapshotStore
	logger     *slog.Logger
}

// NewServer creates the API server. Routes:
//
//	GET /healthz
//	GET /readyz
//	GET /metrics
//	GET /api/v1/earthquakes    ?start=&end=&severity=
//	GET /api/v1/volcanoes
//	GET /api/v1/boundaries
//	GET /api/v1/snapshot
func NewServer(addr string, st *store.SnapshotStore, ready ReadinessChecker, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		st:     st,
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /api/v1/earthquakes", s.handleEarthquakes)
	mux.HandleFunc("GET /api/v1/volcanoes", s.handleVolcanoes)
	mux.HandleFunc("GET /api/v1/boundaries", s.handleBoundaries)
	mux.HandleFunc("GET /api/v1/snapshot", s.handleSnapshot)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

// eventsResponse is the envelope for the earthquake and volcano listings.
type eventsResponse struct {
	Window    domain.TimeWindow `json:"window"`
	FetchedAt time.Time         `json:"fetched_at"`
	Count     int               `json:"count"`
	Events    []domain.GeoEvent `json:"events"`
}

func (s *Server) handleEarthquakes(w http.ResponseWriter, r *http.Request) {
	snap := s.st.Current()
	if snap == nil {
		writeNoSnapshot(w)
		return
	}

	events := snap.Earthquakes
	if sev := r.URL.Query().Get("severity"); sev != "" {
		filtered := make([]domain.GeoEvent, 0, len(events))
		for _, ev := range events {
			if ev.Severity != nil && *ev.Severity == sev {
				filtered = append(filtered, ev)
			}
		}
		events = filtered
	}

	// Callers exploring a custom time range get colors recomputed over it.
	// Unparsable bounds or an empty range fall back to the sentinel color,
	// same as any degenerate window.
	start, end := r.URL.Query().Get("start"), r.URL.Query().Get("end")
	window := snap.Window
	if start != "" && end != "" {
		recolored := make([]domain.GeoEvent, len(events))
		for i, ev := range events {
			ev.Color = geo.ColorForEventTime(ev.Time.UnixMilli(), start, end)
			recolored[i] = ev
		}
		events = recolored
		window = domain.TimeWindow{}
		if t, ok := geo.ParseWindowBound(start); ok {
			window.Start = t
		}
		if t, ok := geo.ParseWindowBound(end); ok {
			window.End = t
		}
	}

	writeJSON(w, http.StatusOK, eventsResponse{
		Window:    window,
		FetchedAt: snap.FetchedAt,
		Count:     len(events),
		Events:    events,
	})
}

func (s *Server) handleVolcanoes(w http.ResponseWriter, r *http.Request) {
	snap := s.st.Current()
	if snap == nil {
		writeNoSnapshot(w)
		return
	}
	writeJSON(w, http.StatusOK, eventsResponse{
		Window:    snap.Window,
		FetchedAt: snap.FetchedAt,
		Count:     len(snap.Volcanoes),
		Events:    snap.Volcanoes,
	})
}

type boundariesResponse struct {
	FetchedAt time.Time         `json:"fetched_at"`
	Count     int               `json:"count"`
	Segments  []geo.LineFeature `json:"segments"`
}

func (s *Server) handleBoundaries(w http.ResponseWriter, r *http.Request) {
	snap := s.st.Current()
	if snap == nil {
		writeNoSnapshot(w)
		return
	}
	writeJSON(w, http.StatusOK, boundariesResponse{
		FetchedAt: snap.FetchedAt,
		Count:     len(snap.Boundaries),
		Segments:  snap.Boundaries,
	})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap := s.st.Current()
	if snap == nil {
		writeNoSnapshot(w)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func writeNoSnapshot(w http.ResponseWriter) {
	writeJSON(w, http.StatusServiceUnavailable, map[string]string{
		"error": "no snapshot available yet",
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
