// Vigil - Insider Threat Detection and Behavioral Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

// Package explain ranks the features of a scored event by how far they
// deviate from the training population, giving analysts a human-readable
// account of why the model flagged an event.
package explain

import (
	"fmt"
	"math"
	"sort"

	"github.com/tomtom215/vigil/internal/anomaly"
	"github.com/tomtom215/vigil/internal/feature"
)

// Contribution describes one feature's deviation from the training baseline.
type Contribution struct {
	FeatureName string `json:"feature_name"`

	// FeatureValue is the raw (unstandardized) value of the feature.
	FeatureValue float64 `json:"feature_value"`

	// StdDeviation is the absolute z-score: how many training standard
	// deviations the value sits from the training mean.
	StdDeviation float64 `json:"std_deviation"`

	// IsAboveNormal is true when the raw value exceeds the training mean.
	IsAboveNormal bool `json:"is_above_normal"`
}

// Explanation carries the most deviant features, ordered most deviant first.
type Explanation struct {
	TopFeatures []Contribution `json:"top_features"`
}

// Explain ranks the vector's features by |z-score| against the model's
// training statistics and returns the top n. The ordering is stable: equal
// deviations keep the model's feature order, so repeated calls on the same
// input yield the same explanation. n < 1 or a vector missing trained
// features returns ErrInvalidInput.
func Explain(v feature.Vector, model *anomaly.OutlierModel, n int) (*Explanation, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: top_n %d", anomaly.ErrInvalidInput, n)
	}
	if model == nil {
		return nil, fmt.Errorf("%w: nil model", anomaly.ErrInvalidInput)
	}

	names := model.FeatureNames()
	scaler := model.Scaler()

	contribs := make([]Contribution, 0, len(names))
	for i, name := range names {
		val, ok := v.Get(name)
		if !ok {
			return nil, fmt.Errorf("%w: vector missing feature %q", anomaly.ErrInvalidInput, name)
		}
		z := (val - scaler.Mean[i]) / scaler.Scale[i]
		contribs = append(contribs, Contribution{
			FeatureName:   name,
			FeatureValue:  val,
			StdDeviation:  math.Abs(z),
			IsAboveNormal: val > scaler.Mean[i],
		})
	}

	sort.SliceStable(contribs, func(a, b int) bool {
		return contribs[a].StdDeviation > contribs[b].StdDeviation
	})

	if n > len(contribs) {
		n = len(contribs)
	}
	return &Explanation{TopFeatures: contribs[:n]}, nil
}
