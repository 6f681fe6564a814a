// Vigil - Insider Threat Detection and Behavioral Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package feature

import (
	"math"
	"sort"
)

// DefaultMaxSpeedKmh is the impossible-travel ceiling: faster than a
// commercial flight.
const DefaultMaxSpeedKmh = 900.0

// GeoFeatures are the location-derived signals for one event.
type GeoFeatures struct {
	// HasGeo reports whether the event carried any geo enrichment; without
	// it every other field stays at its neutral zero value.
	HasGeo bool

	IsUnusualCountry bool

	// Travel metrics relative to the entity's previous event. The first
	// event for an entity has no predecessor and keeps speed 0 / flag false.
	DistanceKm         float64
	TimeDiffHours      float64
	TravelSpeedKmh     float64
	IsImpossibleTravel bool
}

// GeoExtractor derives geographic features from an event, its entity's
// previous event, and the entity's baseline.
type GeoExtractor struct {
	MaxSpeedKmh float64
}

// DefaultGeoExtractor returns an extractor with the 900 km/h ceiling.
func DefaultGeoExtractor() GeoExtractor {
	return GeoExtractor{MaxSpeedKmh: DefaultMaxSpeedKmh}
}

// Extract computes geo features for one event. prev may be nil (first event
// for the entity) and profile may be nil (no history); both degrade to
// neutral values, never errors.
func (x GeoExtractor) Extract(ev Event, prev *Event, p *BaselineProfile) GeoFeatures {
	f := GeoFeatures{HasGeo: ev.HasGeo() || ev.HasCountry()}
	if !f.HasGeo {
		return f
	}

	if ev.HasCountry() && p != nil {
		f.IsUnusualCountry = !p.CommonCountries[ev.Country]
	}

	if prev == nil || !ev.HasGeo() || !prev.HasGeo() {
		return f
	}

	elapsed := ev.Timestamp.Sub(prev.Timestamp).Hours()
	if elapsed <= 0 {
		// Out-of-order or duplicate timestamps: speed is undefined, keep 0.
		return f
	}

	f.DistanceKm = HaversineKm(prev.Latitude, prev.Longitude, ev.Latitude, ev.Longitude)
	f.TimeDiffHours = elapsed
	f.TravelSpeedKmh = f.DistanceKm / elapsed
	f.IsImpossibleTravel = f.TravelSpeedKmh > x.maxSpeed()

	return f
}

// ExtractBatch computes geo features for a batch, pairing each event with its
// entity's chronologically previous event. The input order is preserved in
// the returned slice.
func (x GeoExtractor) ExtractBatch(events []Event, profiles map[string]*BaselineProfile) []GeoFeatures {
	// Chronological index per entity, without mutating the caller's slice.
	order := make([]int, len(events))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return events[order[a]].Timestamp.Before(events[order[b]].Timestamp)
	})

	out := make([]GeoFeatures, len(events))
	lastByEntity := make(map[string]int)
	for _, idx := range order {
		ev := events[idx]
		var prev *Event
		if j, ok := lastByEntity[ev.EntityID]; ok {
			prev = &events[j]
		}
		out[idx] = x.Extract(ev, prev, profiles[ev.EntityID])
		lastByEntity[ev.EntityID] = idx
	}
	return out
}

func (x GeoExtractor) maxSpeed() float64 {
	if x.MaxSpeedKmh > 0 {
		return x.MaxSpeedKmh
	}
	return DefaultMaxSpeedKmh
}

// HaversineKm computes the great-circle distance between two points in
// kilometers.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadiusKm = 6371.0

	lat1Rad := lat1 * math.Pi / 180.0
	lon1Rad := lon1 * math.Pi / 180.0
	lat2Rad := lat2 * math.Pi / 180.0
	lon2Rad := lon2 * math.Pi / 180.0

	dLat := lat2Rad - lat1Rad
	dLon := lon2Rad - lon1Rad

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}
