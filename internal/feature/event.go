// Vigil - Insider Threat Detection and Behavioral Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package feature

import (
	"math"
	"time"
)

// CoordinateEpsilon is the threshold for considering coordinates as
// effectively zero. The sentinel value (0, 0) means geolocation data is
// unavailable; direct float equality against 0 is unreliable, so all
// coordinate checks go through this epsilon.
const CoordinateEpsilon = 1e-7

// Event is a single user-activity record (login or file access) as handed
// over by the ingestion layer. Events are immutable once ingested; missing
// optional fields (geo data) carry their zero values and are tolerated
// everywhere with neutral defaults.
type Event struct {
	ID        string    `json:"id,omitempty"`
	EntityID  string    `json:"entity_id"`
	Action    string    `json:"action"`
	Resource  string    `json:"resource"`
	Timestamp time.Time `json:"timestamp"`
	SourceIP  string    `json:"source_ip"`
	ByteCount float64   `json:"byte_count"`

	// Optional geolocation enrichment.
	Country   string  `json:"country,omitempty"`
	Latitude  float64 `json:"latitude,omitempty"`
	Longitude float64 `json:"longitude,omitempty"`
}

// HasGeo reports whether the event carries usable coordinates.
func (e Event) HasGeo() bool {
	return math.Abs(e.Latitude) >= CoordinateEpsilon || math.Abs(e.Longitude) >= CoordinateEpsilon
}

// HasCountry reports whether the event carries country enrichment.
func (e Event) HasCountry() bool {
	return e.Country != ""
}

// Day returns the event's calendar day in UTC, used for daily access counts.
func (e Event) Day() string {
	return e.Timestamp.UTC().Format("2006-01-02")
}
