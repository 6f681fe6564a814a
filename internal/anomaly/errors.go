// Vigil - Insider Threat Detection and Behavioral Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package anomaly

import "errors"

var (
	// ErrInvalidInput reports structurally invalid input, e.g. an empty
	// training matrix or top_n < 1.
	ErrInvalidInput = errors.New("invalid input")

	// ErrFeatureMismatch reports a vector whose field set does not match the
	// trained model's feature names. The caller must re-extract features;
	// silently padding would corrupt scores.
	ErrFeatureMismatch = errors.New("feature set does not match trained model")

	// ErrModelNotFound reports missing model artifacts on load. Fatal for
	// model-dependent operations until a model is trained or restored.
	ErrModelNotFound = errors.New("model artifacts not found")

	// ErrModelVersionMismatch reports unreadable or incompatible model
	// metadata on load.
	ErrModelVersionMismatch = errors.New("model metadata unreadable or incompatible")
)
