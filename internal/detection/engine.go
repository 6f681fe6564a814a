// Vigil - Insider Threat Detection and Behavioral Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

// Package detection orchestrates the scoring pipeline: feature extraction,
// model scoring, explanation, severity grading, and alert fan-out.
package detection

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/tomtom215/vigil/internal/alerting"
	"github.com/tomtom215/vigil/internal/anomaly"
	"github.com/tomtom215/vigil/internal/explain"
	"github.com/tomtom215/vigil/internal/feature"
	"github.com/tomtom215/vigil/internal/logging"
	"github.com/tomtom215/vigil/internal/metrics"
)

// loginAction marks an event as an authentication event for alert grading.
const loginAction = "LOGIN"

// AlertStore persists generated alerts. Satisfied by alerting.BadgerAlertStore.
type AlertStore interface {
	Save(ctx context.Context, alert *alerting.Alert) error
}

// ScoreResult is the full outcome of scoring one event.
type ScoreResult struct {
	EventID   string               `json:"event_id,omitempty"`
	EntityID  string               `json:"entity_id"`
	Timestamp time.Time            `json:"timestamp"`
	Score     float64              `json:"score"`
	IsAnomaly bool                 `json:"is_anomaly"`
	RiskScore float64              `json:"risk_score"`
	UsedModel bool                 `json:"used_model"`
	Explained *explain.Explanation `json:"explanation,omitempty"`
	Alerts    []*alerting.Alert    `json:"alerts,omitempty"`
}

// Options configures an Engine.
type Options struct {
	Temporal feature.TemporalExtractor
	Geo      feature.GeoExtractor
	Policy   alerting.Policy
	Store    AlertStore
	Notifier alerting.Notifier

	// Model is an optional pre-trained model (e.g. restored from disk).
	Model *anomaly.OutlierModel

	// ModelDir, when set, receives model artifacts after each training run.
	ModelDir string

	ModelConfig  anomaly.Config
	LookbackDays int
	ExplainTopN  int

	// FallbackRiskThreshold classifies events on the naive risk score while
	// no trained model is available.
	FallbackRiskThreshold float64

	RecentBufferSize int
}

// Engine scores events against per-entity baselines and the outlier model,
// grades anomalies into alerts, and keeps a bounded recent-result buffer.
//
// Scoring takes a read lock; Train is the single writer that swaps in the
// new model and baselines atomically, so in-flight scoring always sees a
// consistent (model, baselines) pair.
type Engine struct {
	temporal  feature.TemporalExtractor
	geo       feature.GeoExtractor
	assembler feature.Assembler
	policy    alerting.Policy
	store     AlertStore
	notifier  alerting.Notifier

	modelDir     string
	modelCfg     anomaly.Config
	lookbackDays int
	explainTopN  int
	fallbackRisk float64

	recent *RecentBuffer

	mu        sync.RWMutex
	model     *anomaly.OutlierModel
	profiles  map[string]*feature.BaselineProfile
	lastEvent map[string]feature.Event
}

// NewEngine builds an engine from options. Zero-valued options get safe
// defaults.
func NewEngine(opts Options) *Engine {
	if opts.Policy == nil {
		opts.Policy = alerting.FlagTablePolicy{}
	}
	if opts.ExplainTopN < 1 {
		opts.ExplainTopN = 3
	}
	if opts.FallbackRiskThreshold <= 0 {
		opts.FallbackRiskThreshold = 0.5
	}
	if opts.LookbackDays < 1 {
		opts.LookbackDays = 7
	}
	if opts.RecentBufferSize < 1 {
		opts.RecentBufferSize = 256
	}
	if opts.ModelConfig == (anomaly.Config{}) {
		opts.ModelConfig = anomaly.DefaultConfig()
	}

	e := &Engine{
		temporal:     opts.Temporal,
		geo:          opts.Geo,
		policy:       opts.Policy,
		store:        opts.Store,
		notifier:     opts.Notifier,
		modelDir:     opts.ModelDir,
		modelCfg:     opts.ModelConfig,
		lookbackDays: opts.LookbackDays,
		explainTopN:  opts.ExplainTopN,
		fallbackRisk: opts.FallbackRiskThreshold,
		recent:       NewRecentBuffer(opts.RecentBufferSize),
		model:        opts.Model,
		profiles:     make(map[string]*feature.BaselineProfile),
		lastEvent:    make(map[string]feature.Event),
	}
	if e.model != nil {
		metrics.ModelLoaded.Set(1)
	}
	return e
}

// Score runs one event through the full pipeline. Events for entities with
// no baseline score with neutral behavioral features; without a trained
// model the naive risk score classifies instead.
func (e *Engine) Score(ctx context.Context, ev feature.Event) (*ScoreResult, error) {
	start := time.Now()
	if ev.EntityID == "" {
		return nil, fmt.Errorf("%w: event missing entity_id", anomaly.ErrInvalidInput)
	}
	if ev.Timestamp.IsZero() {
		return nil, fmt.Errorf("%w: event missing timestamp", anomaly.ErrInvalidInput)
	}

	e.mu.RLock()
	profile := e.profiles[ev.EntityID]
	var prev *feature.Event
	if last, ok := e.lastEvent[ev.EntityID]; ok {
		prev = &last
	}
	model := e.model
	e.mu.RUnlock()

	temporal := e.temporal.Extract(ev.Timestamp)
	behavior := feature.ScoreBehavior(ev, profile)
	geo := e.geo.Extract(ev, prev, profile)
	vec := e.assembler.Assemble(temporal, behavior, geo)
	risk, _ := vec.Get(feature.FeatRiskScore)

	result := &ScoreResult{
		EventID:   ev.ID,
		EntityID:  ev.EntityID,
		Timestamp: ev.Timestamp,
		RiskScore: risk,
	}

	if model != nil {
		r, err := model.PredictOne(vec)
		if err != nil {
			return nil, fmt.Errorf("score event: %w", err)
		}
		result.Score = r.Score
		result.IsAnomaly = r.IsAnomaly
		result.UsedModel = true

		if r.IsAnomaly {
			exp, err := explain.Explain(vec, model, e.explainTopN)
			if err != nil {
				logging.Err(err).Str("entity_id", ev.EntityID).Msg("Failed to explain anomaly")
			} else {
				result.Explained = exp
			}
		}
	} else {
		result.Score = risk
		result.IsAnomaly = risk >= e.fallbackRisk
	}

	result.Alerts = e.raiseAlerts(ctx, ev, behavior, geo, result)

	e.mu.Lock()
	e.lastEvent[ev.EntityID] = ev
	e.mu.Unlock()

	e.recent.Add(result)
	metrics.ObserveScore(start, result.UsedModel, result.IsAnomaly)
	return result, nil
}

// raiseAlerts grades the event's anomaly flags through the policy, falling
// back to a behavioral alert when the model flags an event the flag table
// has no opinion on. Store or notifier failures are logged, never fatal:
// losing an alert delivery must not fail the scoring request.
func (e *Engine) raiseAlerts(ctx context.Context, ev feature.Event, behavior feature.BehaviorFeatures, geo feature.GeoFeatures, result *ScoreResult) []*alerting.Alert {
	var decision alerting.Decision
	var kind alerting.Kind

	if strings.ToUpper(ev.Action) == loginAction {
		kind = alerting.KindLogin
		decision = e.policy.GradeLogin(alerting.LoginAnomalies{
			UnusualLocation: geo.IsUnusualCountry || behavior.IsUnusualIP,
			UnusualTime:     behavior.IsUnusualHour,
		})
	} else {
		kind = alerting.KindFile
		decision = e.policy.GradeFile(alerting.FileAnomalies{
			UnusualVolume: behavior.IsLargeDataTransfer || behavior.IsHighAccessFrequency,
			SensitiveData: behavior.IsSensitiveAction,
			UnusualType:   behavior.IsUnusualAction,
		})
	}

	if !decision.Alert && result.IsAnomaly && result.UsedModel {
		kind = alerting.KindBehavioral
		decision = alerting.Decision{
			Alert:       true,
			Severity:    alerting.SeverityMedium,
			Description: "Anomalous activity pattern detected by model",
		}
	}
	if !decision.Alert {
		return nil
	}

	alert := alerting.NewAlert(ev.EntityID, kind, decision, ev.ID, result.Score)
	if e.store != nil {
		if err := e.store.Save(ctx, alert); err != nil {
			logging.Err(err).Str("alert_id", alert.ID).Msg("Failed to persist alert")
		}
	}
	if e.notifier != nil && e.notifier.Enabled() {
		if err := e.notifier.Send(ctx, alert); err != nil {
			logging.Err(err).Str("alert_id", alert.ID).Msg("Failed to deliver alert")
		}
	}
	metrics.ObserveAlert(string(kind), string(decision.Severity))
	return []*alerting.Alert{alert}
}

// Train rebuilds baselines from the event history, retrains the outlier
// model, persists its artifacts, and swaps both in atomically. labels may be
// nil; when present (true = anomaly, aligned with events) the report carries
// evaluation metrics.
func (e *Engine) Train(ctx context.Context, events []feature.Event, labels []bool, now time.Time) (*anomaly.TrainingReport, error) {
	start := time.Now()
	if len(events) == 0 {
		return nil, fmt.Errorf("%w: no training events", anomaly.ErrInvalidInput)
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	profiles := feature.NewBaselineBuilder(e.lookbackDays).Build(events, now)
	geos := e.geo.ExtractBatch(events, profiles)

	vectors := make([]feature.Vector, len(events))
	for i, ev := range events {
		temporal := e.temporal.Extract(ev.Timestamp)
		behavior := feature.ScoreBehavior(ev, profiles[ev.EntityID])
		vectors[i] = e.assembler.Assemble(temporal, behavior, geos[i])
	}

	matrix, err := feature.NewMatrix(vectors)
	if err != nil {
		return nil, fmt.Errorf("assemble training matrix: %w", err)
	}

	model, report, err := anomaly.Train(matrix, labels, e.modelCfg)
	if err != nil {
		return nil, fmt.Errorf("train model: %w", err)
	}

	if e.modelDir != "" {
		if err := model.Save(e.modelDir); err != nil {
			return nil, fmt.Errorf("persist model: %w", err)
		}
	}

	// Each entity's chronologically last event seeds travel detection for
	// the first post-training event.
	lastEvent := make(map[string]feature.Event)
	for _, ev := range events {
		if cur, ok := lastEvent[ev.EntityID]; !ok || ev.Timestamp.After(cur.Timestamp) {
			lastEvent[ev.EntityID] = ev
		}
	}

	e.mu.Lock()
	e.model = model
	e.profiles = profiles
	e.lastEvent = lastEvent
	e.mu.Unlock()

	metrics.TrainDuration.Observe(time.Since(start).Seconds())
	metrics.ModelLoaded.Set(1)
	metrics.BaselineEntities.Set(float64(len(profiles)))

	logging.Info().
		Int("events", len(events)).
		Int("entities", len(profiles)).
		Float64("anomaly_ratio", report.AnomalyRatio).
		Dur("took", time.Since(start)).
		Msg("Model trained")

	return report, nil
}

// SetBaselines replaces the per-entity baselines without touching the model.
func (e *Engine) SetBaselines(profiles map[string]*feature.BaselineProfile) {
	e.mu.Lock()
	e.profiles = profiles
	e.mu.Unlock()
	metrics.BaselineEntities.Set(float64(len(profiles)))
}

// ModelInfo returns the loaded model's metadata, or nil when scoring runs in
// fallback mode.
func (e *Engine) ModelInfo() *anomaly.Metadata {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.model == nil {
		return nil
	}
	meta := e.model.Metadata()
	return &meta
}

// Recent returns the latest scoring results, newest first.
func (e *Engine) Recent() []*ScoreResult {
	return e.recent.Snapshot()
}

// Serve keeps engine gauges fresh until the context is cancelled. It
// satisfies the supervisor's service contract.
func (e *Engine) Serve(ctx context.Context) error {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			e.mu.RLock()
			entities := len(e.profiles)
			loaded := e.model != nil
			e.mu.RUnlock()

			metrics.BaselineEntities.Set(float64(entities))
			if loaded {
				metrics.ModelLoaded.Set(1)
			} else {
				metrics.ModelLoaded.Set(0)
			}
		}
	}
}

func (e *Engine) String() string {
	return "detection-engine"
}
