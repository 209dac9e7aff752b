package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/quakescope/globe-data-service/internal/adapter/annotate"
	"github.com/quakescope/globe-data-service/internal/adapter/gvp"
	"github.com/quakescope/globe-data-service/internal/adapter/httpapi"
	kafkaadapter "github.com/quakescope/globe-data-service/internal/adapter/kafka"
	"github.com/quakescope/globe-data-service/internal/adapter/plates"
	"github.com/quakescope/globe-data-service/internal/adapter/usgs"
	"github.com/quakescope/globe-data-service/internal/config"
	"github.com/quakescope/globe-data-service/internal/domain"
	"github.com/quakescope/globe-data-service/internal/observability"
	"github.com/quakescope/globe-data-service/internal/pipeline"
	"github.com/quakescope/globe-data-service/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	quakeSource := usgs.NewClient(cfg.USGSFeedURL, cfg.FetchTimeout, metrics, logger)
	volcanoSource := gvp.NewClient(cfg.GVPFeedURL, cfg.FetchTimeout, metrics, logger)
	boundarySource := plates.NewClient(cfg.PlatesURL, cfg.FetchTimeout, metrics, logger)

	opts := pipeline.Options{}

	// Annotation enrichment (feature-flagged via ANNOTATE_ENABLED / ANNOTATE_TOKEN).
	var annotator domain.Annotator
	if cfg.AnnotateEnabled {
		client := annotate.NewClient(cfg.AnnotateURL, cfg.AnnotateToken, cfg.AnnotateTimeout, metrics, logger)
		annotator = annotate.NewCachedAnnotator(client, cfg.AnnotateCacheSize, metrics)
		metrics.AnnotateEnabled.Set(1)
		logger.Info("annotation enabled", "cache_size", cfg.AnnotateCacheSize, "timeout", cfg.AnnotateTimeout)
	} else {
		logger.Info("annotation disabled")
	}
	opts.Annotator = annotator

	// Kafka publishing (enabled when KAFKA_BROKERS is set).
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		opts.Publisher = writer
		logger.Info("kafka publishing enabled", "topic", cfg.KafkaSinkTopic, "brokers", cfg.KafkaBrokers)
	} else {
		logger.Info("kafka publishing disabled")
	}

	st := store.New()
	refresher := pipeline.New(quakeSource, volcanoSource, boundarySource, st,
		logger, metrics, cfg.RefreshInterval, cfg.WindowDays, opts)

	srv := httpapi.NewServer(cfg.HTTPAddr, st, refresher, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start refresh loop.
	go func() {
		if err := refresher.Run(ctx); err != nil {
			logger.Error("refresher error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
