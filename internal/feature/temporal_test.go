// Vigil - Insider Threat Detection and Behavioral Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package feature

import (
	"testing"
	"time"
)

func TestTemporalExtract(t *testing.T) {
	x := DefaultTemporalExtractor()

	tests := []struct {
		name string
		ts   time.Time
		want TemporalFeatures
	}{
		{
			// 2023-01-02 was a Monday.
			name: "monday morning business hours",
			ts:   time.Date(2023, 1, 2, 10, 30, 0, 0, time.UTC),
			want: TemporalFeatures{Hour: 10, DayOfWeek: 0, IsBusinessHours: true},
		},
		{
			name: "monday night",
			ts:   time.Date(2023, 1, 2, 2, 0, 0, 0, time.UTC),
			want: TemporalFeatures{Hour: 2, DayOfWeek: 0, IsNight: true},
		},
		{
			name: "late evening is night",
			ts:   time.Date(2023, 1, 2, 22, 0, 0, 0, time.UTC),
			want: TemporalFeatures{Hour: 22, DayOfWeek: 0, IsNight: true},
		},
		{
			name: "nine pm is not night",
			ts:   time.Date(2023, 1, 2, 21, 59, 0, 0, time.UTC),
			want: TemporalFeatures{Hour: 21, DayOfWeek: 0},
		},
		{
			// 2023-01-07 was a Saturday: weekend suppresses business hours.
			name: "saturday during business hours",
			ts:   time.Date(2023, 1, 7, 10, 0, 0, 0, time.UTC),
			want: TemporalFeatures{Hour: 10, DayOfWeek: 5, IsWeekend: true},
		},
		{
			name: "sunday",
			ts:   time.Date(2023, 1, 8, 14, 0, 0, 0, time.UTC),
			want: TemporalFeatures{Hour: 14, DayOfWeek: 6, IsWeekend: true},
		},
		{
			name: "business hours boundary inclusive",
			ts:   time.Date(2023, 1, 3, 18, 0, 0, 0, time.UTC),
			want: TemporalFeatures{Hour: 18, DayOfWeek: 1, IsBusinessHours: true},
		},
		{
			name: "before business hours",
			ts:   time.Date(2023, 1, 3, 7, 0, 0, 0, time.UTC),
			want: TemporalFeatures{Hour: 7, DayOfWeek: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := x.Extract(tt.ts)
			if got != tt.want {
				t.Errorf("Extract(%v) = %+v, want %+v", tt.ts, got, tt.want)
			}
		})
	}
}
