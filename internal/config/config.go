// Vigil - Insider Threat Detection and Behavioral Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

// Package config provides layered configuration for Vigil via Koanf v2.
//
// Sources are applied in order of increasing priority:
//
//  1. Built-in defaults
//  2. Config file (config.yaml, or VIGIL_CONFIG_PATH)
//  3. Environment variables with the VIGIL_ prefix
//
// Environment variable names map to koanf paths by stripping the prefix and
// replacing the first underscore-separated token with a section, e.g.
// VIGIL_SERVER_PORT -> server.port, VIGIL_MODEL_CONTAMINATION -> model.contamination.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for the Vigil server.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Logging   LoggingConfig   `koanf:"logging"`
	Store     StoreConfig     `koanf:"store"`
	Model     ModelConfig     `koanf:"model"`
	Baseline  BaselineConfig  `koanf:"baseline"`
	Detection DetectionConfig `koanf:"detection"`
	Alerting  AlertingConfig  `koanf:"alerting"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	Timeout time.Duration `koanf:"timeout"`

	// RateLimit is the maximum scoring requests per minute per client IP.
	RateLimit int `koanf:"rate_limit"`
}

// LoggingConfig configures the global logger.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// StoreConfig configures the BadgerDB alert store.
type StoreConfig struct {
	// Path is the BadgerDB directory. Empty path runs in-memory (tests, dev).
	Path string `koanf:"path"`
}

// ModelConfig configures the outlier model and its artifact storage.
type ModelConfig struct {
	// Dir is the directory holding the three model artifacts.
	Dir string `koanf:"dir"`

	// Contamination is the expected proportion of anomalies in training data.
	Contamination float64 `koanf:"contamination"`

	// EnsembleSize is the number of isolation trees.
	EnsembleSize int `koanf:"ensemble_size"`

	// SubsampleSize is the per-tree training subsample size.
	SubsampleSize int `koanf:"subsample_size"`

	// Seed makes training reproducible.
	Seed int64 `koanf:"seed"`
}

// BaselineConfig configures behavioral baseline construction.
type BaselineConfig struct {
	// LookbackDays is the historical window used when rebuilding baselines.
	LookbackDays int `koanf:"lookback_days"`

	// BusinessHoursStart and BusinessHoursEnd bound the business-hours flag
	// (inclusive hours, 24h clock).
	BusinessHoursStart int `koanf:"business_hours_start"`
	BusinessHoursEnd   int `koanf:"business_hours_end"`
}

// DetectionConfig configures the scoring engine.
type DetectionConfig struct {
	// MaxSpeedKmh is the impossible-travel speed ceiling.
	MaxSpeedKmh float64 `koanf:"max_speed_kmh"`

	// ExplainTopN is the number of top contributing features reported.
	ExplainTopN int `koanf:"explain_top_n"`

	// FallbackRiskThreshold flags an event as anomalous on the naive risk
	// score when no trained model is loaded.
	FallbackRiskThreshold float64 `koanf:"fallback_risk_threshold"`

	// RecentBufferSize bounds the in-memory ring of recent scoring results.
	RecentBufferSize int `koanf:"recent_buffer_size"`
}

// AlertingConfig configures alert generation and delivery.
type AlertingConfig struct {
	// Policy selects the severity strategy: "flag_table" (canonical) or
	// "reason_count". The two produce different severities for the same
	// inputs and are never mixed.
	Policy string `koanf:"policy"`

	WebhookURL     string        `koanf:"webhook_url"`
	WebhookTimeout time.Duration `koanf:"webhook_timeout"`
}

// defaultConfig returns a Config with all default values. Defaults are applied
// first, then overridden by the config file and environment variables.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:      "0.0.0.0",
			Port:      8480,
			Timeout:   30 * time.Second,
			RateLimit: 600,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Store: StoreConfig{
			Path: "/data/vigil/alerts",
		},
		Model: ModelConfig{
			Dir:           "/data/vigil/model",
			Contamination: 0.05,
			EnsembleSize:  100,
			SubsampleSize: 256,
			Seed:          42,
		},
		Baseline: BaselineConfig{
			LookbackDays:       7,
			BusinessHoursStart: 8,
			BusinessHoursEnd:   18,
		},
		Detection: DetectionConfig{
			MaxSpeedKmh:           900,
			ExplainTopN:           3,
			FallbackRiskThreshold: 0.5,
			RecentBufferSize:      256,
		},
		Alerting: AlertingConfig{
			Policy:         "flag_table",
			WebhookURL:     "",
			WebhookTimeout: 10 * time.Second,
		},
	}
}

// Validate checks configuration invariants after all layers are applied.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in [1, 65535], got %d", c.Server.Port)
	}
	if c.Model.Contamination <= 0 || c.Model.Contamination >= 0.5 {
		return fmt.Errorf("model.contamination must be in (0, 0.5), got %g", c.Model.Contamination)
	}
	if c.Model.EnsembleSize < 1 {
		return fmt.Errorf("model.ensemble_size must be positive, got %d", c.Model.EnsembleSize)
	}
	if c.Model.SubsampleSize < 2 {
		return fmt.Errorf("model.subsample_size must be at least 2, got %d", c.Model.SubsampleSize)
	}
	if c.Baseline.LookbackDays < 1 {
		return fmt.Errorf("baseline.lookback_days must be positive, got %d", c.Baseline.LookbackDays)
	}
	if c.Baseline.BusinessHoursStart < 0 || c.Baseline.BusinessHoursStart > 23 ||
		c.Baseline.BusinessHoursEnd < 0 || c.Baseline.BusinessHoursEnd > 23 {
		return fmt.Errorf("baseline business hours must be in [0, 23]")
	}
	if c.Baseline.BusinessHoursStart >= c.Baseline.BusinessHoursEnd {
		return fmt.Errorf("baseline.business_hours_start must precede business_hours_end")
	}
	if c.Detection.MaxSpeedKmh <= 0 {
		return fmt.Errorf("detection.max_speed_kmh must be positive, got %g", c.Detection.MaxSpeedKmh)
	}
	if c.Detection.ExplainTopN < 1 {
		return fmt.Errorf("detection.explain_top_n must be at least 1, got %d", c.Detection.ExplainTopN)
	}
	if c.Detection.FallbackRiskThreshold < 0 || c.Detection.FallbackRiskThreshold > 1 {
		return fmt.Errorf("detection.fallback_risk_threshold must be in [0, 1], got %g", c.Detection.FallbackRiskThreshold)
	}
	if c.Detection.RecentBufferSize < 1 {
		return fmt.Errorf("detection.recent_buffer_size must be positive, got %d", c.Detection.RecentBufferSize)
	}
	switch c.Alerting.Policy {
	case "flag_table", "reason_count":
	default:
		return fmt.Errorf("alerting.policy must be flag_table or reason_count, got %q", c.Alerting.Policy)
	}
	return nil
}
