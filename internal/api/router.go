// Vigil - Insider Threat Detection and Behavioral Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

// Package api exposes the detection engine over HTTP using Chi. The layer is
// deliberately thin: it adapts requests to core value objects and never holds
// detection logic of its own.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/vigil/internal/alerting"
)

// AlertDirectory is the alert query/resolution surface the API needs.
// Satisfied by alerting.BadgerAlertStore.
type AlertDirectory interface {
	List(ctx context.Context, filter alerting.ListFilter) ([]*alerting.Alert, error)
	Resolve(ctx context.Context, id, resolvedBy string) (*alerting.Alert, error)
}

// Config tunes the HTTP layer.
type Config struct {
	// RateLimit is the maximum requests per minute per client IP on the
	// /api/v1 surface.
	RateLimit int
}

// Router wires the detection engine and alert store into HTTP handlers.
type Router struct {
	engine   Scorer
	alerts   AlertDirectory
	validate *validator.Validate
	cfg      Config
}

// NewRouter creates a router over the given engine and alert directory.
func NewRouter(engine Scorer, alerts AlertDirectory, cfg Config) *Router {
	if cfg.RateLimit < 1 {
		cfg.RateLimit = 600
	}
	return &Router{
		engine:   engine,
		alerts:   alerts,
		validate: validator.New(),
		cfg:      cfg,
	}
}

// Setup builds the HTTP handler tree.
func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", rt.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(httprate.LimitByIP(rt.cfg.RateLimit, time.Minute))

		r.Post("/events/score", rt.handleScore)
		r.Get("/events/recent", rt.handleRecent)
		r.Post("/train", rt.handleTrain)
		r.Get("/model", rt.handleModelInfo)

		r.Get("/alerts", rt.handleListAlerts)
		r.Post("/alerts/{id}/resolve", rt.handleResolveAlert)
	})

	return r
}
