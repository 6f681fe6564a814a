// Vigil - Insider Threat Detection and Behavioral Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

// Package metrics provides Prometheus instrumentation for Vigil:
// scoring throughput and latency, anomaly and alert counts, model training
// duration, and the state of the loaded model.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EventsScored counts scored events, partitioned by the scoring path.
	// path is "model" or "fallback" (naive risk score, no model loaded).
	EventsScored = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vigil_events_scored_total",
			Help: "Total number of events scored",
		},
		[]string{"path"},
	)

	// AnomaliesFlagged counts events classified as anomalous.
	AnomaliesFlagged = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vigil_anomalies_flagged_total",
			Help: "Total number of events classified as anomalous",
		},
	)

	// AlertsGenerated counts alerts, partitioned by kind and severity.
	AlertsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vigil_alerts_generated_total",
			Help: "Total number of alerts generated",
		},
		[]string{"kind", "severity"},
	)

	// ScoreDuration observes end-to-end scoring latency.
	ScoreDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vigil_score_duration_seconds",
			Help:    "Duration of event scoring in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// TrainDuration observes model training duration.
	TrainDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vigil_train_duration_seconds",
			Help:    "Duration of model training in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300},
		},
	)

	// ModelLoaded reports whether a trained model is currently serving (1/0).
	ModelLoaded = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vigil_model_loaded",
			Help: "Whether a trained outlier model is loaded (1) or scoring falls back to the naive risk score (0)",
		},
	)

	// BaselineEntities reports the number of entities with a behavioral baseline.
	BaselineEntities = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vigil_baseline_entities",
			Help: "Number of entities with a behavioral baseline profile",
		},
	)

	// NotifierErrors counts failed alert deliveries by notifier.
	NotifierErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vigil_notifier_errors_total",
			Help: "Total number of failed alert notification attempts",
		},
		[]string{"notifier"},
	)
)

// ObserveScore records one scoring operation.
func ObserveScore(start time.Time, usedModel bool, isAnomaly bool) {
	path := "fallback"
	if usedModel {
		path = "model"
	}
	EventsScored.WithLabelValues(path).Inc()
	if isAnomaly {
		AnomaliesFlagged.Inc()
	}
	ScoreDuration.Observe(time.Since(start).Seconds())
}

// ObserveAlert records one generated alert.
func ObserveAlert(kind, severity string) {
	AlertsGenerated.WithLabelValues(kind, severity).Inc()
}
