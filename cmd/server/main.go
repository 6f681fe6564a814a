// Vigil - Insider Threat Detection and Behavioral Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

// Command server runs the Vigil insider-threat detection service: the REST
// API, the detection engine, and the alert store under one supervision tree.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/vigil/internal/alerting"
	"github.com/tomtom215/vigil/internal/anomaly"
	"github.com/tomtom215/vigil/internal/api"
	"github.com/tomtom215/vigil/internal/config"
	"github.com/tomtom215/vigil/internal/detection"
	"github.com/tomtom215/vigil/internal/feature"
	"github.com/tomtom215/vigil/internal/logging"
	"github.com/tomtom215/vigil/internal/metrics"
	"github.com/tomtom215/vigil/internal/supervisor"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logging.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Msg("Starting Vigil")

	db, err := openStore(cfg.Store)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open alert store")
	}
	defer db.Close()

	alertStore := alerting.NewBadgerAlertStore(db)

	// A previously trained model is optional; without one the engine scores
	// on the naive risk score until /api/v1/train is called.
	var model *anomaly.OutlierModel
	if cfg.Model.Dir != "" {
		model, err = anomaly.Load(cfg.Model.Dir)
		switch {
		case err == nil:
			meta := model.Metadata()
			metrics.ModelLoaded.Set(1)
			logging.Info().
				Time("trained_at", meta.TrainedAt).
				Int("samples", meta.NumSamples).
				Msg("Model restored from disk")
		case errors.Is(err, anomaly.ErrModelNotFound):
			logging.Warn().Str("dir", cfg.Model.Dir).Msg("No model artifacts found, scoring in fallback mode")
		default:
			logging.Fatal().Err(err).Msg("Failed to load model")
		}
	}

	var notifier alerting.Notifier
	if cfg.Alerting.WebhookURL != "" {
		notifier = alerting.NewWebhookNotifier(alerting.WebhookConfig{
			WebhookURL: cfg.Alerting.WebhookURL,
			Enabled:    true,
		})
		logging.Info().Msg("Webhook alert delivery enabled")
	}

	engine := detection.NewEngine(detection.Options{
		Temporal: feature.TemporalExtractor{
			BusinessHoursStart: cfg.Baseline.BusinessHoursStart,
			BusinessHoursEnd:   cfg.Baseline.BusinessHoursEnd,
		},
		Geo:    feature.GeoExtractor{MaxSpeedKmh: cfg.Detection.MaxSpeedKmh},
		Policy: alerting.PolicyByName(cfg.Alerting.Policy),
		Store:  alertStore,
		Notifier: notifier,
		Model:    model,
		ModelDir: cfg.Model.Dir,
		ModelConfig: anomaly.Config{
			Contamination: cfg.Model.Contamination,
			EnsembleSize:  cfg.Model.EnsembleSize,
			SubsampleSize: cfg.Model.SubsampleSize,
			Seed:          cfg.Model.Seed,
		},
		LookbackDays:          cfg.Baseline.LookbackDays,
		ExplainTopN:           cfg.Detection.ExplainTopN,
		FallbackRiskThreshold: cfg.Detection.FallbackRiskThreshold,
		RecentBufferSize:      cfg.Detection.RecentBufferSize,
	})

	router := api.NewRouter(engine, alertStore, api.Config{RateLimit: cfg.Server.RateLimit})
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tree := supervisor.New(logging.NewSlogLogger(), supervisor.DefaultConfig())
	tree.Add(engine)
	tree.Add(supervisor.NewHTTPService(server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	errCh := tree.ServeBackground(ctx)
	select {
	case <-ctx.Done():
		logging.Info().Msg("Shutting down, waiting for services to stop")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	if unstopped, _ := tree.UnstoppedServiceReport(); len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
	}
	logging.Info().Msg("Vigil stopped")
}

// openStore opens the BadgerDB alert store, falling back to in-memory mode
// when no path is configured.
func openStore(cfg config.StoreConfig) (*badger.DB, error) {
	var opts badger.Options
	if cfg.Path == "" {
		logging.Warn().Msg("No store path configured, alerts will not survive restarts")
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithLogger(nil)
	return badger.Open(opts)
}
