// Vigil - Insider Threat Detection and Behavioral Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package feature

import (
	"math"
	"testing"
	"time"
)

// NYC and London, roughly 5570 km apart.
var (
	nycLat, nycLon = 40.7128, -74.0060
	lonLat, lonLon = 51.5074, -0.1278
)

func TestHaversineKm(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		wantKm                 float64
		tolerance              float64
	}{
		{"same point", nycLat, nycLon, nycLat, nycLon, 0, 1e-9},
		{"nyc to london", nycLat, nycLon, lonLat, lonLon, 5570, 20},
		{"equator quarter turn", 0, 0, 0, 90, 10007, 15},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HaversineKm(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			if math.Abs(got-tt.wantKm) > tt.tolerance {
				t.Errorf("HaversineKm = %g, want %g ± %g", got, tt.wantKm, tt.tolerance)
			}
		})
	}
}

func TestGeoExtractImpossibleTravel(t *testing.T) {
	x := DefaultGeoExtractor()
	base := time.Date(2023, 1, 2, 12, 0, 0, 0, time.UTC)

	prev := Event{
		EntityID: "alice", Latitude: nycLat, Longitude: nycLon,
		Country: "US", Timestamp: base,
	}
	profile := &BaselineProfile{
		EntityID:        "alice",
		CommonCountries: map[string]bool{"US": true},
		EventCount:      10,
	}

	tests := []struct {
		name           string
		event          Event
		prev           *Event
		wantImpossible bool
		wantSpeedAbove float64
	}{
		{
			name: "london one hour later",
			event: Event{
				EntityID: "alice", Latitude: lonLat, Longitude: lonLon,
				Country: "GB", Timestamp: base.Add(time.Hour),
			},
			prev:           &prev,
			wantImpossible: true,
			wantSpeedAbove: 900,
		},
		{
			name: "london ten hours later is plausible",
			event: Event{
				EntityID: "alice", Latitude: lonLat, Longitude: lonLon,
				Country: "GB", Timestamp: base.Add(10 * time.Hour),
			},
			prev:           &prev,
			wantImpossible: false,
		},
		{
			name: "first event has no predecessor",
			event: Event{
				EntityID: "alice", Latitude: lonLat, Longitude: lonLon,
				Country: "GB", Timestamp: base,
			},
			prev:           nil,
			wantImpossible: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := x.Extract(tt.event, tt.prev, profile)
			if got.IsImpossibleTravel != tt.wantImpossible {
				t.Errorf("IsImpossibleTravel = %v, want %v (speed %g km/h)",
					got.IsImpossibleTravel, tt.wantImpossible, got.TravelSpeedKmh)
			}
			if tt.wantSpeedAbove > 0 && got.TravelSpeedKmh <= tt.wantSpeedAbove {
				t.Errorf("TravelSpeedKmh = %g, want > %g", got.TravelSpeedKmh, tt.wantSpeedAbove)
			}
			if tt.prev == nil && got.TravelSpeedKmh != 0 {
				t.Errorf("first event must have speed 0, got %g", got.TravelSpeedKmh)
			}
		})
	}
}

func TestGeoExtractZeroElapsed(t *testing.T) {
	x := DefaultGeoExtractor()
	ts := time.Date(2023, 1, 2, 12, 0, 0, 0, time.UTC)
	prev := Event{EntityID: "a", Latitude: nycLat, Longitude: nycLon, Timestamp: ts}
	ev := Event{EntityID: "a", Latitude: lonLat, Longitude: lonLon, Timestamp: ts}

	got := x.Extract(ev, &prev, nil)
	if got.TravelSpeedKmh != 0 || got.IsImpossibleTravel {
		t.Errorf("zero elapsed time must yield speed 0, got %+v", got)
	}
}

func TestGeoExtractUnusualCountry(t *testing.T) {
	x := DefaultGeoExtractor()
	profile := &BaselineProfile{
		EntityID:        "alice",
		CommonCountries: map[string]bool{"US": true},
		EventCount:      10,
	}
	ts := time.Date(2023, 1, 2, 12, 0, 0, 0, time.UTC)

	usual := x.Extract(Event{EntityID: "alice", Country: "US", Timestamp: ts}, nil, profile)
	if usual.IsUnusualCountry {
		t.Error("US is common for alice")
	}

	unusual := x.Extract(Event{EntityID: "alice", Country: "KP", Timestamp: ts}, nil, profile)
	if !unusual.IsUnusualCountry {
		t.Error("KP is not common for alice")
	}
}

func TestGeoExtractNoGeoData(t *testing.T) {
	x := DefaultGeoExtractor()
	got := x.Extract(Event{EntityID: "alice", Timestamp: time.Now()}, nil, nil)
	if got.HasGeo {
		t.Error("event without coordinates or country must report HasGeo=false")
	}
	if got != (GeoFeatures{}) {
		t.Errorf("expected all-neutral geo features, got %+v", got)
	}
}

func TestGeoExtractBatchPairsPerEntity(t *testing.T) {
	x := DefaultGeoExtractor()
	base := time.Date(2023, 1, 2, 12, 0, 0, 0, time.UTC)

	events := []Event{
		// Interleaved entities; batch extraction must pair within an entity.
		{EntityID: "a", Latitude: nycLat, Longitude: nycLon, Timestamp: base},
		{EntityID: "b", Latitude: lonLat, Longitude: lonLon, Timestamp: base.Add(10 * time.Minute)},
		{EntityID: "a", Latitude: lonLat, Longitude: lonLon, Timestamp: base.Add(time.Hour)},
	}

	got := x.ExtractBatch(events, nil)

	if got[0].TravelSpeedKmh != 0 {
		t.Errorf("entity a first event speed = %g, want 0", got[0].TravelSpeedKmh)
	}
	if got[1].TravelSpeedKmh != 0 {
		t.Errorf("entity b first event speed = %g, want 0", got[1].TravelSpeedKmh)
	}
	if !got[2].IsImpossibleTravel {
		t.Errorf("entity a NYC->London in 1h must be impossible, got %+v", got[2])
	}
}
