// Vigil - Insider Threat Detection and Behavioral Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package anomaly

import (
	"fmt"
	"os"
	"path/filepath"

	json "github.com/goccy/go-json"
)

// Model artifact filenames within the model directory.
const (
	forestFile   = "forest.json"
	scalerFile   = "scaler.json"
	metadataFile = "metadata.json"
)

// Save writes the three model artifacts into dir, creating it if needed.
// Each file is published atomically (temp file + rename) so a concurrent
// Load never observes a half-written artifact.
func (m *OutlierModel) Save(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create model dir: %w", err)
	}
	if err := writeJSON(filepath.Join(dir, forestFile), m.forest); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(dir, scalerFile), m.scaler); err != nil {
		return err
	}
	return writeJSON(filepath.Join(dir, metadataFile), m.meta)
}

// Load restores a model saved with Save. Missing artifacts return
// ErrModelNotFound; artifacts that parse but describe a model this code
// cannot score return ErrModelVersionMismatch.
func Load(dir string) (*OutlierModel, error) {
	var meta Metadata
	if err := readJSON(filepath.Join(dir, metadataFile), &meta); err != nil {
		return nil, err
	}
	if meta.ModelKind != ModelKind {
		return nil, fmt.Errorf("%w: model kind %q", ErrModelVersionMismatch, meta.ModelKind)
	}
	if len(meta.FeatureNames) == 0 {
		return nil, fmt.Errorf("%w: no feature names", ErrModelVersionMismatch)
	}

	var fr forest
	if err := readJSON(filepath.Join(dir, forestFile), &fr); err != nil {
		return nil, err
	}
	if len(fr.Trees) == 0 || fr.SubsampleSize < 2 {
		return nil, fmt.Errorf("%w: empty or malformed ensemble", ErrModelVersionMismatch)
	}

	var sc Scaler
	if err := readJSON(filepath.Join(dir, scalerFile), &sc); err != nil {
		return nil, err
	}
	if sc.Width() != len(meta.FeatureNames) || len(sc.Scale) != sc.Width() {
		return nil, fmt.Errorf("%w: scaler width %d does not match %d feature names",
			ErrModelVersionMismatch, sc.Width(), len(meta.FeatureNames))
	}

	return &OutlierModel{forest: &fr, scaler: &sc, meta: meta}, nil
}

func writeJSON(path string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("publish %s: %w", filepath.Base(path), err)
	}
	return nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrModelNotFound, filepath.Base(path))
		}
		return fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrModelVersionMismatch, filepath.Base(path), err)
	}
	return nil
}
