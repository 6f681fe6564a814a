// Vigil - Insider Threat Detection and Behavioral Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/vigil/internal/alerting"
	"github.com/tomtom215/vigil/internal/anomaly"
	"github.com/tomtom215/vigil/internal/detection"
	"github.com/tomtom215/vigil/internal/feature"
	"github.com/tomtom215/vigil/internal/logging"
)

// Scorer is the engine surface the HTTP layer needs. Satisfied by
// detection.Engine.
type Scorer interface {
	Score(ctx context.Context, ev feature.Event) (*detection.ScoreResult, error)
	Train(ctx context.Context, events []feature.Event, labels []bool, now time.Time) (*anomaly.TrainingReport, error)
	Recent() []*detection.ScoreResult
	ModelInfo() *anomaly.Metadata
}

type scoreRequest struct {
	ID        string    `json:"id"`
	EntityID  string    `json:"entity_id" validate:"required"`
	Action    string    `json:"action" validate:"required"`
	Resource  string    `json:"resource"`
	Timestamp time.Time `json:"timestamp" validate:"required"`
	SourceIP  string    `json:"source_ip"`
	ByteCount float64   `json:"byte_count" validate:"gte=0"`
	Country   string    `json:"country"`
	Latitude  float64   `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64   `json:"longitude" validate:"gte=-180,lte=180"`
}

func (r scoreRequest) event() feature.Event {
	return feature.Event{
		ID:        r.ID,
		EntityID:  r.EntityID,
		Action:    r.Action,
		Resource:  r.Resource,
		Timestamp: r.Timestamp,
		SourceIP:  r.SourceIP,
		ByteCount: r.ByteCount,
		Country:   r.Country,
		Latitude:  r.Latitude,
		Longitude: r.Longitude,
	}
}

type trainRequest struct {
	Events []scoreRequest `json:"events" validate:"required,min=1,dive"`

	// Labels optionally mark known anomalies (aligned with Events) for the
	// evaluation section of the training report.
	Labels []bool `json:"labels,omitempty"`
}

type resolveRequest struct {
	ResolvedBy string `json:"resolved_by" validate:"required"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (rt *Router) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) handleScore(w http.ResponseWriter, r *http.Request) {
	var req scoreRequest
	if !rt.decode(w, r, &req) {
		return
	}

	result, err := rt.engine.Score(r.Context(), req.event())
	if err != nil {
		rt.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (rt *Router) handleTrain(w http.ResponseWriter, r *http.Request) {
	var req trainRequest
	if !rt.decode(w, r, &req) {
		return
	}
	if req.Labels != nil && len(req.Labels) != len(req.Events) {
		writeJSON(w, http.StatusBadRequest, errorResponse{"labels must align with events"})
		return
	}

	events := make([]feature.Event, len(req.Events))
	for i, e := range req.Events {
		events[i] = e.event()
	}

	report, err := rt.engine.Train(r.Context(), events, req.Labels, time.Now().UTC())
	if err != nil {
		rt.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (rt *Router) handleRecent(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, rt.engine.Recent())
}

func (rt *Router) handleModelInfo(w http.ResponseWriter, r *http.Request) {
	meta := rt.engine.ModelInfo()
	if meta == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{"no model loaded"})
		return
	}
	writeJSON(w, http.StatusOK, meta)
}

func (rt *Router) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := alerting.ListFilter{
		EntityID: q.Get("entity_id"),
		Severity: alerting.Severity(q.Get("severity")),
	}
	if v := q.Get("unresolved"); v != "" {
		unresolved, err := strconv.ParseBool(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{"unresolved must be a boolean"})
			return
		}
		filter.Unresolved = unresolved
	}
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 {
			writeJSON(w, http.StatusBadRequest, errorResponse{"limit must be a positive integer"})
			return
		}
		filter.Limit = limit
	}

	alerts, err := rt.alerts.List(r.Context(), filter)
	if err != nil {
		rt.writeError(w, err)
		return
	}
	if alerts == nil {
		alerts = []*alerting.Alert{}
	}
	writeJSON(w, http.StatusOK, alerts)
}

func (rt *Router) handleResolveAlert(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if !rt.decode(w, r, &req) {
		return
	}

	alert, err := rt.alerts.Resolve(r.Context(), chi.URLParam(r, "id"), req.ResolvedBy)
	if err != nil {
		rt.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, alert)
}

// decode parses and validates a JSON request body, writing the error
// response itself when the body is unusable.
func (rt *Router) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{"malformed JSON body"})
		return false
	}
	if err := rt.validate.Struct(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{err.Error()})
		return false
	}
	return true
}

// writeError maps core errors onto HTTP status codes.
func (rt *Router) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, anomaly.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, errorResponse{err.Error()})
	case errors.Is(err, anomaly.ErrFeatureMismatch):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{err.Error()})
	case errors.Is(err, anomaly.ErrModelNotFound), errors.Is(err, anomaly.ErrModelVersionMismatch):
		writeJSON(w, http.StatusConflict, errorResponse{err.Error()})
	case errors.Is(err, alerting.ErrAlertNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{err.Error()})
	default:
		logging.Err(err).Msg("Unhandled API error")
		writeJSON(w, http.StatusInternalServerError, errorResponse{"internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Err(err).Msg("Failed to encode response")
	}
}
