// Vigil - Insider Threat Detection and Behavioral Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package feature

import (
	"math"
	"sort"
	"time"
)

const (
	// maxCommonIPs bounds the per-entity common IP set.
	maxCommonIPs = 3

	// maxCommonHours bounds the per-entity common access-hour set.
	maxCommonHours = 10

	// minTransferStd floors the transfer standard deviation so z-scores
	// never divide by zero.
	minTransferStd = 1.0
)

// BaselineProfile holds one entity's "normal" behavior, rebuilt from a batch
// of historical events. A profile is owned by the BaselineBuilder and is
// overwritten wholesale on rebuild, never merged incrementally.
type BaselineProfile struct {
	EntityID string `json:"entity_id"`

	// CommonIPs holds the entity's top-3 most frequent source IPs.
	CommonIPs map[string]bool `json:"common_ips"`

	// CommonHours holds the entity's top-10 most frequent access hours.
	CommonHours map[int]bool `json:"common_hours"`

	// TransferMean and TransferStd describe the entity's byte_count
	// distribution. TransferStd is always >= 1.
	TransferMean float64 `json:"transfer_mean"`
	TransferStd  float64 `json:"transfer_std"`

	// ActionFreq maps each action to its proportion of the entity's events.
	ActionFreq map[string]float64 `json:"action_freq"`

	// CommonCountries holds countries seen more than once for the entity.
	CommonCountries map[string]bool `json:"common_countries"`

	// ResourceEntropy is the Shannon entropy (natural log) of the entity's
	// resource-access distribution. Higher entropy means more diverse access.
	ResourceEntropy float64 `json:"resource_entropy"`

	// ResourceCount is the number of distinct resources accessed.
	ResourceCount int `json:"resource_count"`

	// DailyCounts maps calendar days (UTC, YYYY-MM-DD) to event counts,
	// and AvgDailyEvents is their mean. Used for access-frequency scoring.
	DailyCounts    map[string]int `json:"daily_counts"`
	AvgDailyEvents float64        `json:"avg_daily_events"`

	// EventCount is the number of historical events the profile reflects.
	EventCount int `json:"event_count"`
}

// BaselineBuilder computes per-entity behavioral baselines from historical
// event batches. Building is a batch, single-writer operation; the produced
// profiles are read-only thereafter.
type BaselineBuilder struct {
	lookback time.Duration
}

// NewBaselineBuilder creates a builder with the given lookback window in days.
func NewBaselineBuilder(lookbackDays int) *BaselineBuilder {
	return &BaselineBuilder{lookback: time.Duration(lookbackDays) * 24 * time.Hour}
}

// Build computes a profile for every entity present in the batch. Events
// older than the lookback window (relative to now) are ignored. Entities with
// sparse history get neutral defaults rather than errors, and rebuilding from
// the same batch is idempotent.
func (b *BaselineBuilder) Build(events []Event, now time.Time) map[string]*BaselineProfile {
	cutoff := now.Add(-b.lookback)

	byEntity := make(map[string][]Event)
	for _, ev := range events {
		if ev.EntityID == "" || ev.Timestamp.Before(cutoff) {
			continue
		}
		byEntity[ev.EntityID] = append(byEntity[ev.EntityID], ev)
	}

	profiles := make(map[string]*BaselineProfile, len(byEntity))
	for entityID, evs := range byEntity {
		profiles[entityID] = buildProfile(entityID, evs)
	}
	return profiles
}

func buildProfile(entityID string, events []Event) *BaselineProfile {
	p := &BaselineProfile{
		EntityID:        entityID,
		CommonIPs:       make(map[string]bool),
		CommonHours:     make(map[int]bool),
		TransferStd:     minTransferStd,
		ActionFreq:      make(map[string]float64),
		CommonCountries: make(map[string]bool),
		DailyCounts:     make(map[string]int),
		EventCount:      len(events),
	}
	if len(events) == 0 {
		return p
	}

	ipCounts := make(map[string]int)
	hourCounts := make(map[int]int)
	actionCounts := make(map[string]int)
	resourceCounts := make(map[string]int)
	countryCounts := make(map[string]int)

	var sum, sumSq float64
	for _, ev := range events {
		if ev.SourceIP != "" {
			ipCounts[ev.SourceIP]++
		}
		hourCounts[ev.Timestamp.UTC().Hour()]++
		if ev.Action != "" {
			actionCounts[ev.Action]++
		}
		if ev.Resource != "" {
			resourceCounts[ev.Resource]++
		}
		if ev.HasCountry() {
			countryCounts[ev.Country]++
		}
		p.DailyCounts[ev.Day()]++
		sum += ev.ByteCount
		sumSq += ev.ByteCount * ev.ByteCount
	}

	n := float64(len(events))
	p.TransferMean = sum / n
	variance := sumSq/n - p.TransferMean*p.TransferMean
	if variance > 0 {
		p.TransferStd = math.Max(math.Sqrt(variance), minTransferStd)
	}

	for _, ip := range topKeys(ipCounts, maxCommonIPs) {
		p.CommonIPs[ip] = true
	}
	for _, h := range topInts(hourCounts, maxCommonHours) {
		p.CommonHours[h] = true
	}

	actionTotal := 0
	for _, c := range actionCounts {
		actionTotal += c
	}
	for action, c := range actionCounts {
		p.ActionFreq[action] = float64(c) / float64(actionTotal)
	}

	for country, c := range countryCounts {
		if c > 1 {
			p.CommonCountries[country] = true
		}
	}

	p.ResourceCount = len(resourceCounts)
	p.ResourceEntropy = shannonEntropy(resourceCounts, len(events))

	total := 0
	for _, c := range p.DailyCounts {
		total += c
	}
	p.AvgDailyEvents = float64(total) / float64(len(p.DailyCounts))

	return p
}

// shannonEntropy computes -sum(p*ln(p)) over the count distribution.
// Entries with zero resources contribute nothing.
func shannonEntropy(counts map[string]int, total int) float64 {
	if total == 0 {
		return 0
	}
	var entropy float64
	resourceTotal := 0
	for _, c := range counts {
		resourceTotal += c
	}
	if resourceTotal == 0 {
		return 0
	}
	for _, c := range counts {
		p := float64(c) / float64(resourceTotal)
		entropy -= p * math.Log(p)
	}
	return entropy
}

// topKeys returns up to k keys ordered by count descending. Ties break on the
// key itself so rebuilds from the same batch are deterministic.
func topKeys(counts map[string]int, k int) []string {
	keys := make([]string, 0, len(counts))
	for key := range counts {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if len(keys) > k {
		keys = keys[:k]
	}
	return keys
}

// topInts is topKeys for integer-keyed counts (access hours).
func topInts(counts map[int]int, k int) []int {
	keys := make([]int, 0, len(counts))
	for key := range counts {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if len(keys) > k {
		keys = keys[:k]
	}
	return keys
}
