package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"

	httpadapter "github.com/couchcryptid/sightings/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/sightings/internal/adapter/kafka"
	"github.com/couchcryptid/sightings/internal/adapter/mapbox"
	"github.com/couchcryptid/sightings/internal/adapter/mongo"
	"github.com/couchcryptid/sightings/internal/adapter/s3store"
	"github.com/couchcryptid/sightings/internal/config"
	"github.com/couchcryptid/sightings/internal/feed"
	"github.com/couchcryptid/sightings/internal/mapview"
	"github.com/couchcryptid/sightings/internal/media"
	"github.com/couchcryptid/sightings/internal/observability"
	"github.com/couchcryptid/sightings/internal/submission"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load .env", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gateway, err := mongo.Connect(ctx, cfg, clock, logger)
	if err != nil {
		logger.Error("failed to connect to report store", "error", err)
		os.Exit(1)
	}
	if err := gateway.EnsureIndexes(ctx); err != nil {
		logger.Warn("failed to ensure indexes", "error", err)
	}

	limits := media.Limits{MaxImages: cfg.MaxImages, MaxImageBytes: cfg.MaxImageBytes}

	// Uploads are feature-flagged via S3_BUCKET.
	var objects media.ObjectStore
	if cfg.UploadsEnabled() {
		store, err := s3store.New(ctx, cfg)
		if err != nil {
			logger.Error("failed to configure object store", "error", err)
			os.Exit(1)
		}
		objects = store
		logger.Info("image uploads enabled", "bucket", cfg.S3Bucket)
	} else {
		logger.Info("image uploads disabled")
	}
	uploader := media.NewUploader(objects, limits, clock, logger, metrics)

	var opts []submission.Option

	// Geocoding is feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN.
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, metrics, logger)
		geocoder, err := mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
		if err != nil {
			logger.Error("failed to create geocode cache", "error", err)
			os.Exit(1)
		}
		opts = append(opts, submission.WithGeocoder(geocoder))
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	var publisher *kafkaadapter.Publisher
	if cfg.EventsEnabled() {
		publisher = kafkaadapter.NewPublisher(cfg, clock, logger)
		opts = append(opts, submission.WithPublisher(publisher))
		logger.Info("report events enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	submitter := submission.NewService(gateway, uploader, clock, logger, metrics, opts...)
	recent := feed.New(gateway, cfg.FeedLimit, cfg.FeedInterval, clock, logger, metrics)
	maps := mapview.NewService(gateway, mapview.NewSettings(cfg), clock, logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, httpadapter.Deps{
		Submitter:    submitter,
		Store:        gateway,
		Feed:         recent,
		Map:          maps,
		Limits:       limits,
		StoreTimeout: cfg.StoreTimeout,
		Clock:        clock,
		Metrics:      metrics,
	}, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	go recent.Run(ctx)

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}
	if err := gateway.Close(shutdownCtx); err != nil {
		logger.Error("report store close error", "error", err)
	}

	logger.Info("shutdown complete")
}
