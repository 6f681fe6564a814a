// Vigil - Insider Threat Detection and Behavioral Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

// Package feature turns raw activity events into fixed-width numeric feature
// vectors for the outlier model.
//
// The pipeline has four stages:
//
//   - TemporalExtractor derives hour/weekday/night/business-hours signals
//     from the event timestamp.
//   - BaselineBuilder computes per-entity reference statistics (common IPs,
//     common hours, transfer mean/std, action frequencies, common countries,
//     resource entropy) from a batch of historical events.
//   - ScoreBehavior and GeoExtractor compare a single event against its
//     entity's baseline, producing deviation flags and z-scores.
//   - Assembler merges all feature groups into one ordered Vector plus a
//     naive aggregate risk score.
//
// All scoring functions here are pure: they read the event and the profile
// and produce features without touching shared state, so they are safe to
// call concurrently.
//
// Entities without history never cause errors; every deviation flag degrades
// to a neutral (false/zero) default.
package feature
