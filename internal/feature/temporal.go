// Vigil - Insider Threat Detection and Behavioral Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package feature

import "time"

// TemporalFeatures are the time-of-day and day-of-week signals derived from
// an event timestamp.
type TemporalFeatures struct {
	Hour            int
	DayOfWeek       int // 0=Monday .. 6=Sunday
	IsWeekend       bool
	IsNight         bool
	IsBusinessHours bool
}

// TemporalExtractor derives temporal features. Business hours are inclusive
// on both ends and never apply on weekends.
type TemporalExtractor struct {
	BusinessHoursStart int
	BusinessHoursEnd   int
}

// DefaultTemporalExtractor returns an extractor with 08:00-18:00 business hours.
func DefaultTemporalExtractor() TemporalExtractor {
	return TemporalExtractor{BusinessHoursStart: 8, BusinessHoursEnd: 18}
}

// Extract computes temporal features for a timestamp. Timestamps are
// interpreted in UTC so that results do not depend on the host timezone.
func (x TemporalExtractor) Extract(ts time.Time) TemporalFeatures {
	ts = ts.UTC()
	hour := ts.Hour()

	// time.Weekday has 0=Sunday; shift to 0=Monday.
	dayOfWeek := (int(ts.Weekday()) + 6) % 7
	weekend := dayOfWeek >= 5

	return TemporalFeatures{
		Hour:            hour,
		DayOfWeek:       dayOfWeek,
		IsWeekend:       weekend,
		IsNight:         hour < 6 || hour >= 22,
		IsBusinessHours: !weekend && hour >= x.BusinessHoursStart && hour <= x.BusinessHoursEnd,
	}
}
