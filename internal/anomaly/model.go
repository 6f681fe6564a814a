// Vigil - Insider Threat Detection and Behavioral Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

// Package anomaly implements the unsupervised outlier model: an isolation
// forest over standardized feature vectors, with train/predict/save/load
// lifecycle management.
//
// A trained OutlierModel is immutable and safe for concurrent scoring;
// retraining produces a new instance that the caller swaps in atomically.
package anomaly

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/tomtom215/vigil/internal/feature"
)

// ModelKind identifies the ensemble algorithm in persisted metadata.
const ModelKind = "isolation_forest"

// Config holds training hyperparameters.
type Config struct {
	// Contamination is the expected proportion of anomalies in the training
	// data; it calibrates the decision boundary.
	Contamination float64

	// EnsembleSize is the number of isolation trees.
	EnsembleSize int

	// SubsampleSize is the per-tree subsample size, capped at the number of
	// training rows.
	SubsampleSize int

	// Seed makes training reproducible. Scoring is deterministic regardless,
	// since the trained trees are fixed.
	Seed int64
}

// DefaultConfig mirrors the conventional isolation-forest settings.
func DefaultConfig() Config {
	return Config{
		Contamination: 0.05,
		EnsembleSize:  100,
		SubsampleSize: 256,
		Seed:          42,
	}
}

// Metadata describes a trained model.
type Metadata struct {
	ModelKind     string    `json:"model_kind"`
	FeatureNames  []string  `json:"feature_names"`
	Contamination float64   `json:"contamination"`
	EnsembleSize  int       `json:"ensemble_size"`
	TrainedAt     time.Time `json:"trained_at"`
	NumSamples    int       `json:"num_samples"`
}

// Result is the outcome of scoring one vector: a continuous anomaly score
// (higher = more anomalous) and the ensemble's binary classification.
type Result struct {
	Score     float64 `json:"score"`
	IsAnomaly bool    `json:"is_anomaly"`
}

// TrainingReport summarizes a training run. Evaluation is present only when
// labels were supplied, and is for reporting only: labels never influence
// the unsupervised fit.
type TrainingReport struct {
	NumSamples   int         `json:"num_samples"`
	NumFeatures  int         `json:"num_features"`
	AnomalyRatio float64     `json:"anomaly_ratio"`
	Evaluation   *Evaluation `json:"evaluation,omitempty"`
}

// OutlierModel couples a fitted isolation forest with the standardization
// transform and metadata captured at training time.
type OutlierModel struct {
	forest *forest
	scaler *Scaler
	meta   Metadata
}

// Train standardizes the matrix, fits the ensemble, and calibrates the
// decision boundary. Returns ErrInvalidInput for an empty matrix. labels may
// be nil; when present (true = anomaly) they produce evaluation metrics in
// the report.
func Train(m feature.Matrix, labels []bool, cfg Config) (*OutlierModel, *TrainingReport, error) {
	if len(m.Rows) == 0 || len(m.Names) == 0 {
		return nil, nil, fmt.Errorf("%w: empty training matrix", ErrInvalidInput)
	}
	if labels != nil && len(labels) != len(m.Rows) {
		return nil, nil, fmt.Errorf("%w: %d labels for %d rows", ErrInvalidInput, len(labels), len(m.Rows))
	}
	if cfg.Contamination <= 0 || cfg.Contamination >= 0.5 {
		return nil, nil, fmt.Errorf("%w: contamination %g outside (0, 0.5)", ErrInvalidInput, cfg.Contamination)
	}
	if cfg.EnsembleSize < 1 || cfg.SubsampleSize < 2 {
		return nil, nil, fmt.Errorf("%w: ensemble_size %d, subsample_size %d", ErrInvalidInput, cfg.EnsembleSize, cfg.SubsampleSize)
	}

	scaler := FitScaler(m.Rows)
	scaled := scaler.TransformAll(m.Rows)

	rng := rand.New(rand.NewSource(cfg.Seed))
	fr := growForest(scaled, cfg.EnsembleSize, cfg.SubsampleSize, cfg.Contamination, rng)

	names := make([]string, len(m.Names))
	copy(names, m.Names)

	model := &OutlierModel{
		forest: fr,
		scaler: scaler,
		meta: Metadata{
			ModelKind:     ModelKind,
			FeatureNames:  names,
			Contamination: cfg.Contamination,
			EnsembleSize:  cfg.EnsembleSize,
			TrainedAt:     time.Now().UTC(),
			NumSamples:    len(m.Rows),
		},
	}

	// Score the training set for the report (and evaluation, if labeled).
	predicted := make([]bool, len(scaled))
	anomalies := 0
	for i, row := range scaled {
		if fr.score(row) >= fr.Threshold {
			predicted[i] = true
			anomalies++
		}
	}

	report := &TrainingReport{
		NumSamples:   len(m.Rows),
		NumFeatures:  len(m.Names),
		AnomalyRatio: float64(anomalies) / float64(len(m.Rows)),
	}
	if labels != nil {
		report.Evaluation = Evaluate(labels, predicted)
	}

	return model, report, nil
}

// Predict scores a batch of vectors. Every vector must carry all trained
// feature names; extra fields are ignored. Scoring is pure: no state is
// mutated, so concurrent calls may share one model.
func (m *OutlierModel) Predict(vectors []feature.Vector) ([]Result, error) {
	results := make([]Result, len(vectors))
	for i, v := range vectors {
		r, err := m.PredictOne(v)
		if err != nil {
			return nil, fmt.Errorf("vector %d: %w", i, err)
		}
		results[i] = r
	}
	return results, nil
}

// PredictOne scores a single vector.
func (m *OutlierModel) PredictOne(v feature.Vector) (Result, error) {
	row, err := m.reorder(v)
	if err != nil {
		return Result{}, err
	}
	score := m.forest.score(m.scaler.Transform(row))
	return Result{Score: score, IsAnomaly: score >= m.forest.Threshold}, nil
}

// reorder maps the vector's named values onto the training column order,
// failing with ErrFeatureMismatch when a trained feature is missing.
func (m *OutlierModel) reorder(v feature.Vector) ([]float64, error) {
	row := make([]float64, len(m.meta.FeatureNames))
	var missing []string
	for i, name := range m.meta.FeatureNames {
		val, ok := v.Get(name)
		if !ok {
			missing = append(missing, name)
			continue
		}
		row[i] = val
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("%w: missing required signal(s) %v", ErrFeatureMismatch, missing)
	}
	return row, nil
}

// Metadata returns a copy of the model metadata.
func (m *OutlierModel) Metadata() Metadata {
	meta := m.meta
	meta.FeatureNames = append([]string{}, m.meta.FeatureNames...)
	return meta
}

// FeatureNames returns the training-time column order.
func (m *OutlierModel) FeatureNames() []string {
	return append([]string{}, m.meta.FeatureNames...)
}

// Scaler exposes the fitted standardization transform for the explanation
// engine. The returned scaler must be treated as read-only.
func (m *OutlierModel) Scaler() *Scaler {
	return m.scaler
}

// Threshold returns the ensemble's decision boundary.
func (m *OutlierModel) Threshold() float64 {
	return m.forest.Threshold
}
