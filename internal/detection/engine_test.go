// Vigil - Insider Threat Detection and Behavioral Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package detection

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/vigil/internal/alerting"
	"github.com/tomtom215/vigil/internal/anomaly"
	"github.com/tomtom215/vigil/internal/feature"
)

type mockAlertStore struct {
	mu    sync.Mutex
	saved []*alerting.Alert
	err   error
}

func (m *mockAlertStore) Save(ctx context.Context, alert *alerting.Alert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.saved = append(m.saved, alert)
	return nil
}

func (m *mockAlertStore) alerts() []*alerting.Alert {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*alerting.Alert{}, m.saved...)
}

var testNow = time.Date(2026, 3, 16, 12, 0, 0, 0, time.UTC) // a Monday

// normalHistory builds a week of routine weekday activity for two entities:
// office-hours READ events from a stable IP with ~1 MB transfers.
func normalHistory() []feature.Event {
	var events []feature.Event
	for day := 1; day <= 7; day++ {
		ts := testNow.AddDate(0, 0, -day)
		for _, entity := range []string{"alice", "bob"} {
			for i := 0; i < 12; i++ {
				hour := 9 + i%8
				events = append(events, feature.Event{
					ID:        fmt.Sprintf("%s-%d-%d", entity, day, i),
					EntityID:  entity,
					Action:    "READ",
					Resource:  fmt.Sprintf("/docs/report-%d.pdf", i%4),
					Timestamp: time.Date(ts.Year(), ts.Month(), ts.Day(), hour, 15*(i%4), 0, 0, time.UTC),
					SourceIP:  "10.0.0.1",
					ByteCount: 1_000_000 + float64(i%5)*10_000,
					Country:   "US",
				})
			}
		}
	}
	return events
}

func newTestEngine(t *testing.T, store AlertStore) *Engine {
	t.Helper()
	return NewEngine(Options{
		Temporal: feature.DefaultTemporalExtractor(),
		Geo:      feature.DefaultGeoExtractor(),
		Policy:   alerting.FlagTablePolicy{},
		Store:    store,
	})
}

func TestTrainThenScoreNormalEvent(t *testing.T) {
	store := &mockAlertStore{}
	engine := newTestEngine(t, store)

	report, err := engine.Train(context.Background(), normalHistory(), nil, testNow)
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	if report.NumSamples != len(normalHistory()) {
		t.Errorf("report.NumSamples = %d, want %d", report.NumSamples, len(normalHistory()))
	}
	if engine.ModelInfo() == nil {
		t.Fatal("ModelInfo() nil after training")
	}

	// A routine event: weekday office hours, usual IP, usual volume.
	result, err := engine.Score(context.Background(), feature.Event{
		EntityID:  "alice",
		Action:    "READ",
		Resource:  "/docs/report-1.pdf",
		Timestamp: testNow.Add(-time.Hour),
		SourceIP:  "10.0.0.1",
		ByteCount: 1_000_000,
		Country:   "US",
	})
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if !result.UsedModel {
		t.Error("trained engine must score with the model")
	}
	if result.RiskScore != 0 {
		t.Errorf("routine event risk score = %g, want 0", result.RiskScore)
	}
	if len(result.Alerts) != 0 && result.Alerts[0].Kind != alerting.KindBehavioral {
		t.Errorf("routine event raised %s alert: %+v", result.Alerts[0].Kind, result.Alerts[0])
	}
}

func TestScoreAnomalousFileEvent(t *testing.T) {
	store := &mockAlertStore{}
	engine := newTestEngine(t, store)
	if _, err := engine.Train(context.Background(), normalHistory(), nil, testNow); err != nil {
		t.Fatalf("Train: %v", err)
	}

	// 3 AM, unknown IP, a huge DELETE: night + unusual ip + unusual hour +
	// large transfer + sensitive + unusual action.
	result, err := engine.Score(context.Background(), feature.Event{
		ID:        "ev-bad",
		EntityID:  "alice",
		Action:    "DELETE",
		Resource:  "/finance/payroll.db",
		Timestamp: time.Date(2026, 3, 16, 3, 0, 0, 0, time.UTC),
		SourceIP:  "203.0.113.50",
		ByteCount: 500_000_000,
		Country:   "US",
	})
	if err != nil {
		t.Fatalf("Score: %v", err)
	}

	if result.RiskScore < 3.0/8.0 {
		t.Errorf("risk score = %g, want >= 3/8 for night + unusual ip + large transfer", result.RiskScore)
	}
	if !result.IsAnomaly {
		t.Errorf("extreme event not flagged: score %g", result.Score)
	}
	if result.Explained == nil || len(result.Explained.TopFeatures) == 0 {
		t.Error("flagged event must carry an explanation")
	}

	// Large volume + sensitive action grades critical on the flag table.
	if len(result.Alerts) != 1 {
		t.Fatalf("alerts = %d, want 1", len(result.Alerts))
	}
	alert := result.Alerts[0]
	if alert.Kind != alerting.KindFile || alert.Severity != alerting.SeverityCritical {
		t.Errorf("alert = %s/%s, want file/critical", alert.Kind, alert.Severity)
	}
	if alert.Description != "High volume access to sensitive data" {
		t.Errorf("alert description = %q", alert.Description)
	}
	if alert.EventID != "ev-bad" || alert.EntityID != "alice" {
		t.Errorf("alert identity = %s/%s", alert.EntityID, alert.EventID)
	}

	saved := store.alerts()
	if len(saved) != 1 || saved[0].ID != alert.ID {
		t.Errorf("store holds %d alerts", len(saved))
	}
}

func TestScoreLoginAlert(t *testing.T) {
	store := &mockAlertStore{}
	engine := newTestEngine(t, store)

	profiles := feature.NewBaselineBuilder(7).Build(normalHistory(), testNow)
	engine.SetBaselines(profiles)

	// Login from an unknown country at 3 AM: high severity on the flag table.
	result, err := engine.Score(context.Background(), feature.Event{
		EntityID:  "bob",
		Action:    "LOGIN",
		Timestamp: time.Date(2026, 3, 16, 3, 0, 0, 0, time.UTC),
		SourceIP:  "198.51.100.7",
		Country:   "KP",
	})
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if len(result.Alerts) != 1 {
		t.Fatalf("alerts = %d, want 1", len(result.Alerts))
	}
	alert := result.Alerts[0]
	if alert.Kind != alerting.KindLogin || alert.Severity != alerting.SeverityHigh {
		t.Errorf("alert = %s/%s, want login/high", alert.Kind, alert.Severity)
	}
	if alert.Description != "Login from unusual location at unusual time" {
		t.Errorf("alert description = %q", alert.Description)
	}
}

func TestScoreFallbackWithoutModel(t *testing.T) {
	engine := newTestEngine(t, &mockAlertStore{})
	profiles := feature.NewBaselineBuilder(7).Build(normalHistory(), testNow)
	engine.SetBaselines(profiles)

	// Without a model the naive risk score classifies.
	result, err := engine.Score(context.Background(), feature.Event{
		EntityID:  "alice",
		Action:    "DELETE",
		Timestamp: time.Date(2026, 3, 16, 3, 0, 0, 0, time.UTC),
		SourceIP:  "203.0.113.50",
		ByteCount: 500_000_000,
	})
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if result.UsedModel {
		t.Error("no model loaded, UsedModel must be false")
	}
	if result.Score != result.RiskScore {
		t.Errorf("fallback score = %g, want risk score %g", result.Score, result.RiskScore)
	}
	if !result.IsAnomaly {
		t.Errorf("risk %g above default threshold must flag", result.RiskScore)
	}

	if engine.ModelInfo() != nil {
		t.Error("ModelInfo() must be nil without a model")
	}
}

func TestScoreUnknownEntityNeutral(t *testing.T) {
	engine := newTestEngine(t, &mockAlertStore{})

	// No baseline, no model: a weekday office-hours event stays quiet.
	result, err := engine.Score(context.Background(), feature.Event{
		EntityID:  "stranger",
		Action:    "READ",
		Timestamp: testNow,
		SourceIP:  "10.9.9.9",
		ByteCount: 123,
	})
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if result.RiskScore != 0 || result.IsAnomaly || len(result.Alerts) != 0 {
		t.Errorf("unknown entity result = %+v, want neutral", result)
	}
}

func TestScoreImpossibleTravelRaisesRisk(t *testing.T) {
	engine := newTestEngine(t, &mockAlertStore{})
	profiles := feature.NewBaselineBuilder(7).Build(normalHistory(), testNow)
	engine.SetBaselines(profiles)

	ctx := context.Background()
	base := time.Date(2026, 3, 16, 10, 0, 0, 0, time.UTC)

	// New York, then London one hour later.
	if _, err := engine.Score(ctx, feature.Event{
		EntityID: "alice", Action: "READ", Timestamp: base,
		SourceIP: "10.0.0.1", Country: "US", Latitude: 40.7128, Longitude: -74.0060,
	}); err != nil {
		t.Fatalf("Score(first): %v", err)
	}

	result, err := engine.Score(ctx, feature.Event{
		EntityID: "alice", Action: "READ", Timestamp: base.Add(time.Hour),
		SourceIP: "10.0.0.1", Country: "GB", Latitude: 51.5074, Longitude: -0.1278,
	})
	if err != nil {
		t.Fatalf("Score(second): %v", err)
	}

	// Impossible travel and unusual country both count against the event.
	if result.RiskScore < 0.2 {
		t.Errorf("risk score = %g, want >= 2/10 with impossible travel + unusual country", result.RiskScore)
	}
}

func TestScoreValidation(t *testing.T) {
	engine := newTestEngine(t, &mockAlertStore{})

	if _, err := engine.Score(context.Background(), feature.Event{Timestamp: testNow}); !errors.Is(err, anomaly.ErrInvalidInput) {
		t.Errorf("missing entity_id error = %v, want ErrInvalidInput", err)
	}
	if _, err := engine.Score(context.Background(), feature.Event{EntityID: "x"}); !errors.Is(err, anomaly.ErrInvalidInput) {
		t.Errorf("missing timestamp error = %v, want ErrInvalidInput", err)
	}
	if _, err := engine.Train(context.Background(), nil, nil, testNow); !errors.Is(err, anomaly.ErrInvalidInput) {
		t.Errorf("empty training error = %v, want ErrInvalidInput", err)
	}
}

func TestStoreFailureDoesNotFailScoring(t *testing.T) {
	store := &mockAlertStore{err: errors.New("disk full")}
	engine := newTestEngine(t, store)
	profiles := feature.NewBaselineBuilder(7).Build(normalHistory(), testNow)
	engine.SetBaselines(profiles)

	result, err := engine.Score(context.Background(), feature.Event{
		EntityID:  "alice",
		Action:    "LOGIN",
		Timestamp: time.Date(2026, 3, 16, 3, 0, 0, 0, time.UTC),
		SourceIP:  "203.0.113.50",
		Country:   "KP",
	})
	if err != nil {
		t.Fatalf("Score must not fail on store errors: %v", err)
	}
	if len(result.Alerts) != 1 {
		t.Errorf("alert still returned despite store failure, got %d", len(result.Alerts))
	}
}

func TestRecentBuffer(t *testing.T) {
	buf := NewRecentBuffer(3)
	if buf.Len() != 0 {
		t.Fatalf("empty buffer Len = %d", buf.Len())
	}

	for i := 0; i < 5; i++ {
		buf.Add(&ScoreResult{EventID: fmt.Sprintf("ev-%d", i)})
	}
	if buf.Len() != 3 {
		t.Fatalf("Len = %d, want capacity 3", buf.Len())
	}

	snap := buf.Snapshot()
	want := []string{"ev-4", "ev-3", "ev-2"}
	for i, id := range want {
		if snap[i].EventID != id {
			t.Errorf("snapshot[%d] = %s, want %s", i, snap[i].EventID, id)
		}
	}
}

func TestRecentTracksScores(t *testing.T) {
	engine := newTestEngine(t, &mockAlertStore{})

	for i := 0; i < 3; i++ {
		if _, err := engine.Score(context.Background(), feature.Event{
			EntityID:  "alice",
			Action:    "READ",
			Timestamp: testNow.Add(time.Duration(i) * time.Minute),
		}); err != nil {
			t.Fatalf("Score: %v", err)
		}
	}

	recent := engine.Recent()
	if len(recent) != 3 {
		t.Fatalf("Recent() = %d results, want 3", len(recent))
	}
	if !recent[0].Timestamp.After(recent[2].Timestamp) {
		t.Error("Recent() must be newest first")
	}
}
