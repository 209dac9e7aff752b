package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Upstream feed endpoints and the refresh cadence.
	USGSFeedURL     string
	GVPFeedURL      string
	PlatesURL       string
	RefreshInterval time.Duration
	FetchTimeout    time.Duration
	WindowDays      int

	// Optional Kafka sink for newly seen earthquake events.
	KafkaBrokers   []string
	KafkaSinkTopic string
	KafkaEnabled   bool

	// Annotation service configuration.
	AnnotateURL       string
	AnnotateToken     string
	AnnotateEnabled   bool
	AnnotateTimeout   time.Duration
	AnnotateCacheSize int
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	refreshInterval, err := parseDuration("REFRESH_INTERVAL", "5m")
	if err != nil {
		return nil, err
	}

	fetchTimeout, err := parseDuration("FETCH_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}

	annotateTimeout, err := parseDuration("ANNOTATE_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}

	windowDays, err := parseWindowDays()
	if err != nil {
		return nil, err
	}

	annotateCacheSize := parseAnnotateCacheSize()

	annotateToken := os.Getenv("ANNOTATE_TOKEN")
	annotateEnabled := annotateToken != ""
	if v := os.Getenv("ANNOTATE_ENABLED"); v != "" {
		annotateEnabled = v == "true"
	}

	kafkaBrokersRaw := os.Getenv("KAFKA_BROKERS")

	cfg := &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		USGSFeedURL:     envOrDefault("USGS_FEED_URL", "https://earthquake.usgs.gov/earthquakes/feed/v1.0/summary/all_week.geojson"),
		GVPFeedURL:      envOrDefault("GVP_FEED_URL", "https://volcano.si.edu/api/v1/volcanoes/holocene"),
		PlatesURL:       envOrDefault("PLATES_URL", "https://raw.githubusercontent.com/fraxen/tectonicplates/master/GeoJSON/PB2002_boundaries.json"),
		RefreshInterval: refreshInterval,
		FetchTimeout:    fetchTimeout,
		WindowDays:      windowDays,

		KafkaBrokers:   parseBrokers(kafkaBrokersRaw),
		KafkaSinkTopic: envOrDefault("KAFKA_SINK_TOPIC", "globe-quake-events"),
		KafkaEnabled:   kafkaBrokersRaw != "",

		AnnotateURL:       envOrDefault("ANNOTATE_URL", "https://api.quakescope.io/annotate/v1"),
		AnnotateToken:     annotateToken,
		AnnotateEnabled:   annotateEnabled,
		AnnotateTimeout:   annotateTimeout,
		AnnotateCacheSize: annotateCacheSize,
	}

	if cfg.USGSFeedURL == "" {
		return nil, errors.New("USGS_FEED_URL is required")
	}
	if cfg.GVPFeedURL == "" {
		return nil, errors.New("GVP_FEED_URL is required")
	}
	if cfg.PlatesURL == "" {
		return nil, errors.New("PLATES_URL is required")
	}
	if cfg.KafkaEnabled && cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_BROKERS is set but KAFKA_SINK_TOPIC is empty")
	}
	if cfg.AnnotateEnabled && cfg.AnnotateToken == "" {
		return nil, errors.New("ANNOTATE_ENABLED is true but ANNOTATE_TOKEN is not set")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseDuration(key, fallback string) (time.Duration, error) {
	s := envOrDefault(key, fallback)
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, errors.New("invalid " + key)
	}
	return d, nil
}

func parseBrokers(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			brokers = append(brokers, p)
		}
	}
	return brokers
}

func parseWindowDays() (int, error) {
	s := envOrDefault("WINDOW_DAYS", "30")
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > 365 {
		return 0, errors.New("WINDOW_DAYS must be between 1 and 365")
	}
	return n, nil
}

func parseAnnotateCacheSize() int {
	if s := os.Getenv("ANNOTATE_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}
