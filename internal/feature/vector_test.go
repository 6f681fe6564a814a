// Vigil - Insider Threat Detection and Behavioral Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package feature

import (
	"math"
	"testing"
)

func TestAssembleFixedOrder(t *testing.T) {
	v := Assembler{}.Assemble(TemporalFeatures{}, BehaviorFeatures{}, GeoFeatures{})

	names := FeatureNames()
	if len(v.Names) != len(names) || len(v.Values) != len(names) {
		t.Fatalf("vector width = %d/%d, want %d", len(v.Names), len(v.Values), len(names))
	}
	for i, n := range names {
		if v.Names[i] != n {
			t.Errorf("column %d = %q, want %q", i, v.Names[i], n)
		}
	}
	if v.Names[len(v.Names)-1] != FeatRiskScore {
		t.Errorf("risk_score must be the last column, got %q", v.Names[len(v.Names)-1])
	}
}

func TestAssembleRiskScoreWithoutGeo(t *testing.T) {
	// Night + unusual IP + unusual hour + large transfer: 4 of 8 base flags.
	v := Assembler{}.Assemble(
		TemporalFeatures{Hour: 2, IsNight: true},
		BehaviorFeatures{IsUnusualIP: true, IsUnusualHour: true, IsLargeDataTransfer: true, DataSizeZScore: 3},
		GeoFeatures{},
	)

	risk, _ := v.Get(FeatRiskScore)
	if math.Abs(risk-0.5) > 1e-9 {
		t.Errorf("risk_score = %g, want 4/8 = 0.5", risk)
	}
	if risk < 3.0/8.0 {
		t.Errorf("night + unusual ip + large transfer scenario must score >= 3/8, got %g", risk)
	}
}

func TestAssembleRiskScoreWithGeo(t *testing.T) {
	// Same flags plus geo present with impossible travel: 5 of 10 flags.
	v := Assembler{}.Assemble(
		TemporalFeatures{Hour: 2, IsNight: true},
		BehaviorFeatures{IsUnusualIP: true, IsUnusualHour: true, IsLargeDataTransfer: true},
		GeoFeatures{HasGeo: true, IsImpossibleTravel: true, TravelSpeedKmh: 5000},
	)

	risk, _ := v.Get(FeatRiskScore)
	if math.Abs(risk-0.5) > 1e-9 {
		t.Errorf("risk_score = %g, want 5/10 = 0.5", risk)
	}

	speed, _ := v.Get(FeatTravelSpeedKmh)
	if speed != 5000 {
		t.Errorf("travel_speed_kmh = %g, want 5000", speed)
	}
}

func TestAssembleRiskScoreBounded(t *testing.T) {
	all := Assembler{}.Assemble(
		TemporalFeatures{IsWeekend: true, IsNight: true},
		BehaviorFeatures{
			IsUnusualIP: true, IsUnusualHour: true, IsLargeDataTransfer: true,
			IsHighAccessFrequency: true, IsSensitiveAction: true, IsUnusualAction: true,
		},
		GeoFeatures{HasGeo: true, IsUnusualCountry: true, IsImpossibleTravel: true},
	)
	risk, _ := all.Get(FeatRiskScore)
	if math.Abs(risk-1) > 1e-9 {
		t.Errorf("all flags set: risk_score = %g, want 1", risk)
	}

	none := Assembler{}.Assemble(TemporalFeatures{}, BehaviorFeatures{}, GeoFeatures{})
	risk, _ = none.Get(FeatRiskScore)
	if risk != 0 {
		t.Errorf("no flags set: risk_score = %g, want 0", risk)
	}
}

func TestNewMatrixRejectsMismatchedColumns(t *testing.T) {
	a := Assembler{}.Assemble(TemporalFeatures{}, BehaviorFeatures{}, GeoFeatures{})
	b := a
	b.Names = append([]string{}, a.Names...)
	b.Names[0] = "renamed"

	if _, err := NewMatrix([]Vector{a, b}); err == nil {
		t.Error("expected error for mismatched column names")
	}

	if _, err := NewMatrix(nil); err == nil {
		t.Error("expected error for empty vector set")
	}

	m, err := NewMatrix([]Vector{a, a})
	if err != nil {
		t.Fatalf("NewMatrix: %v", err)
	}
	if len(m.Rows) != 2 || len(m.Names) != a.Len() {
		t.Errorf("matrix shape = %dx%d, want 2x%d", len(m.Rows), len(m.Names), a.Len())
	}
}
