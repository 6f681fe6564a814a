// Vigil - Insider Threat Detection and Behavioral Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package feature

import "strings"

// unusualActionThreshold marks an action as unusual when it accounts for less
// than this share of the entity's historical actions.
const unusualActionThreshold = 0.1

// largeTransferZScore flags a transfer whose z-score exceeds this value.
const largeTransferZScore = 2.0

// highFrequencyRatio flags a day with more than this multiple of the entity's
// average daily event count.
const highFrequencyRatio = 2.0

// sensitiveActions are flagged independently of entity history.
var sensitiveActions = map[string]bool{
	"DELETE": true,
	"UPDATE": true,
}

// BehaviorFeatures are the per-event deviations from an entity's baseline.
type BehaviorFeatures struct {
	IsUnusualIP           bool
	IsUnusualHour         bool
	DataSizeZScore        float64
	IsLargeDataTransfer   bool
	AccessFrequencyRatio  float64
	IsHighAccessFrequency bool
	IsSensitiveAction     bool
	IsUnusualAction       bool
	ResourceCount         float64
	ResourceEntropy       float64
}

// ScoreBehavior compares an event against its entity's baseline profile.
// It is a pure function of (event, profile). A nil profile (entity without
// history) yields neutral features: no deviation flags, zero z-score.
func ScoreBehavior(ev Event, p *BaselineProfile) BehaviorFeatures {
	f := BehaviorFeatures{
		IsSensitiveAction: sensitiveActions[strings.ToUpper(ev.Action)],
	}
	if p == nil || p.EventCount == 0 {
		return f
	}

	f.IsUnusualIP = ev.SourceIP != "" && !p.CommonIPs[ev.SourceIP]
	f.IsUnusualHour = !p.CommonHours[ev.Timestamp.UTC().Hour()]

	// TransferStd is floored at 1 by the builder, so this never divides by zero.
	f.DataSizeZScore = (ev.ByteCount - p.TransferMean) / p.TransferStd
	f.IsLargeDataTransfer = f.DataSizeZScore > largeTransferZScore

	dayCount := p.DailyCounts[ev.Day()]
	if dayCount == 0 {
		// Day not in the historical batch; the event itself is the first.
		dayCount = 1
	}
	avg := p.AvgDailyEvents
	if avg < 1 {
		avg = 1
	}
	f.AccessFrequencyRatio = float64(dayCount) / avg
	f.IsHighAccessFrequency = f.AccessFrequencyRatio > highFrequencyRatio

	if ev.Action != "" {
		freq, seen := p.ActionFreq[ev.Action]
		f.IsUnusualAction = !seen || freq < unusualActionThreshold
	}

	f.ResourceCount = float64(p.ResourceCount)
	f.ResourceEntropy = p.ResourceEntropy

	return f
}
