// Vigil - Insider Threat Detection and Behavioral Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package feature

import "fmt"

// Feature names, in the fixed column order shared by every vector. The
// outlier model records this order at training time and validates it at
// inference, so new features must be appended followed by a retrain.
const (
	FeatHour                  = "hour"
	FeatDayOfWeek             = "day_of_week"
	FeatIsWeekend             = "is_weekend"
	FeatIsBusinessHours       = "is_business_hours"
	FeatIsNight               = "is_night"
	FeatIsUnusualIP           = "is_unusual_ip"
	FeatIsUnusualHour         = "is_unusual_hour"
	FeatDataSizeZScore        = "data_size_zscore"
	FeatIsLargeDataTransfer   = "is_large_data_transfer"
	FeatAccessFrequencyRatio  = "access_frequency_ratio"
	FeatIsHighAccessFrequency = "is_high_access_frequency"
	FeatIsSensitiveAction     = "is_sensitive_action"
	FeatIsUnusualAction       = "is_unusual_action"
	FeatResourceCount         = "resource_count"
	FeatResourceEntropy       = "resource_entropy"
	FeatIsUnusualCountry      = "is_unusual_country"
	FeatDistanceKm            = "distance_km"
	FeatTimeDiffHours         = "time_diff_hours"
	FeatTravelSpeedKmh        = "travel_speed_kmh"
	FeatIsImpossibleTravel    = "is_impossible_travel"
	FeatRiskScore             = "risk_score"
)

// featureOrder is the canonical column order.
var featureOrder = []string{
	FeatHour,
	FeatDayOfWeek,
	FeatIsWeekend,
	FeatIsBusinessHours,
	FeatIsNight,
	FeatIsUnusualIP,
	FeatIsUnusualHour,
	FeatDataSizeZScore,
	FeatIsLargeDataTransfer,
	FeatAccessFrequencyRatio,
	FeatIsHighAccessFrequency,
	FeatIsSensitiveAction,
	FeatIsUnusualAction,
	FeatResourceCount,
	FeatResourceEntropy,
	FeatIsUnusualCountry,
	FeatDistanceKm,
	FeatTimeDiffHours,
	FeatTravelSpeedKmh,
	FeatIsImpossibleTravel,
	FeatRiskScore,
}

// baseRiskFlags always contribute to the naive risk score.
var baseRiskFlags = []string{
	FeatIsUnusualIP,
	FeatIsUnusualHour,
	FeatIsLargeDataTransfer,
	FeatIsHighAccessFrequency,
	FeatIsSensitiveAction,
	FeatIsUnusualAction,
	FeatIsWeekend,
	FeatIsNight,
}

// geoRiskFlags join the risk score only when the event carried geo data.
var geoRiskFlags = []string{
	FeatIsUnusualCountry,
	FeatIsImpossibleTravel,
}

// FeatureNames returns the canonical column order. The returned slice is a
// copy; callers may keep it.
func FeatureNames() []string {
	names := make([]string, len(featureOrder))
	copy(names, featureOrder)
	return names
}

// Vector is a fixed-width, named, ordered numeric feature vector. Names and
// Values are index-aligned. Features absent for a record (e.g. no geo data)
// hold 0.
type Vector struct {
	Names  []string  `json:"names"`
	Values []float64 `json:"values"`
}

// Get returns the value for the named feature.
func (v Vector) Get(name string) (float64, bool) {
	for i, n := range v.Names {
		if n == name {
			return v.Values[i], true
		}
	}
	return 0, false
}

// Len returns the vector width.
func (v Vector) Len() int {
	return len(v.Values)
}

// Assembler merges feature groups into the canonical vector and computes the
// naive aggregate risk score: the mean of the binary risk flags, a bounded
// [0,1] signal independent of the learned model.
type Assembler struct{}

// Assemble builds the full ordered vector for one event.
func (Assembler) Assemble(t TemporalFeatures, b BehaviorFeatures, g GeoFeatures) Vector {
	byName := map[string]float64{
		FeatHour:                  float64(t.Hour),
		FeatDayOfWeek:             float64(t.DayOfWeek),
		FeatIsWeekend:             boolToFloat(t.IsWeekend),
		FeatIsBusinessHours:       boolToFloat(t.IsBusinessHours),
		FeatIsNight:               boolToFloat(t.IsNight),
		FeatIsUnusualIP:           boolToFloat(b.IsUnusualIP),
		FeatIsUnusualHour:         boolToFloat(b.IsUnusualHour),
		FeatDataSizeZScore:        b.DataSizeZScore,
		FeatIsLargeDataTransfer:   boolToFloat(b.IsLargeDataTransfer),
		FeatAccessFrequencyRatio:  b.AccessFrequencyRatio,
		FeatIsHighAccessFrequency: boolToFloat(b.IsHighAccessFrequency),
		FeatIsSensitiveAction:     boolToFloat(b.IsSensitiveAction),
		FeatIsUnusualAction:       boolToFloat(b.IsUnusualAction),
		FeatResourceCount:         b.ResourceCount,
		FeatResourceEntropy:       b.ResourceEntropy,
		FeatIsUnusualCountry:      boolToFloat(g.IsUnusualCountry),
		FeatDistanceKm:            g.DistanceKm,
		FeatTimeDiffHours:         g.TimeDiffHours,
		FeatTravelSpeedKmh:        g.TravelSpeedKmh,
		FeatIsImpossibleTravel:    boolToFloat(g.IsImpossibleTravel),
	}
	byName[FeatRiskScore] = riskScore(byName, g.HasGeo)

	values := make([]float64, len(featureOrder))
	for i, name := range featureOrder {
		values[i] = byName[name]
	}
	return Vector{Names: FeatureNames(), Values: values}
}

// riskScore averages the binary risk flags; geo flags count only when the
// event carried geo data, so geo-less events aren't diluted by zeros they
// could never set.
func riskScore(byName map[string]float64, hasGeo bool) float64 {
	flags := baseRiskFlags
	if hasGeo {
		flags = append(append([]string{}, baseRiskFlags...), geoRiskFlags...)
	}
	var sum float64
	for _, name := range flags {
		sum += byName[name]
	}
	return sum / float64(len(flags))
}

// Matrix is a set of vectors sharing one column order, the shape consumed by
// model training.
type Matrix struct {
	Names []string
	Rows  [][]float64
}

// NewMatrix validates that all vectors share the same column order and stacks
// their values.
func NewMatrix(vectors []Vector) (Matrix, error) {
	if len(vectors) == 0 {
		return Matrix{}, fmt.Errorf("empty vector set")
	}
	names := vectors[0].Names
	rows := make([][]float64, len(vectors))
	for i, v := range vectors {
		if len(v.Names) != len(names) {
			return Matrix{}, fmt.Errorf("vector %d has %d features, want %d", i, len(v.Names), len(names))
		}
		for j, n := range v.Names {
			if n != names[j] {
				return Matrix{}, fmt.Errorf("vector %d column %d is %q, want %q", i, j, n, names[j])
			}
		}
		rows[i] = v.Values
	}
	return Matrix{Names: names, Rows: rows}, nil
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
