// Vigil - Insider Threat Detection and Behavioral Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package anomaly

import "math"

// minScale replaces a zero (or numerically negligible) standard deviation so
// constant features pass through unchanged instead of exploding.
const minScale = 1e-9

// Scaler standardizes features to zero mean and unit variance using
// statistics fitted on the training matrix only. It is immutable after
// fitting and safe for concurrent use.
type Scaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// FitScaler computes per-column mean and standard deviation. Columns with
// zero variance get scale 1 so their standardized value is exactly zero.
func FitScaler(rows [][]float64) *Scaler {
	if len(rows) == 0 {
		return &Scaler{}
	}
	width := len(rows[0])
	mean := make([]float64, width)
	scale := make([]float64, width)

	for _, row := range rows {
		for j, v := range row {
			mean[j] += v
		}
	}
	n := float64(len(rows))
	for j := range mean {
		mean[j] /= n
	}

	for _, row := range rows {
		for j, v := range row {
			d := v - mean[j]
			scale[j] += d * d
		}
	}
	for j := range scale {
		scale[j] = math.Sqrt(scale[j] / n)
		if scale[j] < minScale {
			scale[j] = 1
		}
	}

	return &Scaler{Mean: mean, Scale: scale}
}

// Transform standardizes one row: (value - mean) / scale.
func (s *Scaler) Transform(row []float64) []float64 {
	out := make([]float64, len(row))
	for j, v := range row {
		out[j] = (v - s.Mean[j]) / s.Scale[j]
	}
	return out
}

// TransformAll standardizes every row.
func (s *Scaler) TransformAll(rows [][]float64) [][]float64 {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		out[i] = s.Transform(row)
	}
	return out
}

// Width returns the number of features the scaler was fitted on.
func (s *Scaler) Width() int {
	return len(s.Mean)
}
