// Vigil - Insider Threat Detection and Behavioral Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

// Package alerting turns detected anomaly flags into graded alerts, persists
// them, and fans them out to notifiers.
package alerting

import (
	"time"

	"github.com/google/uuid"
)

// Severity grades an alert for triage.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Kind classifies what kind of activity an alert describes.
type Kind string

const (
	KindLogin      Kind = "login"
	KindFile       Kind = "file"
	KindBehavioral Kind = "behavioral"
)

// Alert is a persisted, triage-ready finding about one entity's activity.
type Alert struct {
	ID          string     `json:"id"`
	EntityID    string     `json:"entity_id"`
	Kind        Kind       `json:"kind"`
	Severity    Severity   `json:"severity"`
	Description string     `json:"description"`
	EventID     string     `json:"event_id,omitempty"`
	Score       float64    `json:"score"`
	Resolved    bool       `json:"resolved"`
	ResolvedBy  string     `json:"resolved_by,omitempty"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// NewAlert builds an unresolved alert with a fresh ID.
func NewAlert(entityID string, kind Kind, d Decision, eventID string, score float64) *Alert {
	return &Alert{
		ID:          uuid.NewString(),
		EntityID:    entityID,
		Kind:        kind,
		Severity:    d.Severity,
		Description: d.Description,
		EventID:     eventID,
		Score:       score,
		CreatedAt:   time.Now().UTC(),
	}
}

// Decision is a policy verdict: whether to alert, how severe, and why.
type Decision struct {
	Alert       bool
	Severity    Severity
	Description string
}

// LoginAnomalies are the flag inputs for grading a login event.
type LoginAnomalies struct {
	UnusualLocation bool
	UnusualTime     bool
}

// FileAnomalies are the flag inputs for grading a file-activity event.
type FileAnomalies struct {
	UnusualVolume bool
	SensitiveData bool
	UnusualType   bool
}

// Policy grades anomaly flags into an alert decision. Implementations must
// be pure: same flags in, same decision out.
type Policy interface {
	GradeLogin(a LoginAnomalies) Decision
	GradeFile(a FileAnomalies) Decision
}

// FlagTablePolicy is the canonical grading policy: a fixed table from flag
// combinations to severity and description.
type FlagTablePolicy struct{}

// GradeLogin grades a login event. Location and time anomalies together
// outrank either alone.
func (FlagTablePolicy) GradeLogin(a LoginAnomalies) Decision {
	switch {
	case a.UnusualLocation && a.UnusualTime:
		return Decision{true, SeverityHigh, "Login from unusual location at unusual time"}
	case a.UnusualLocation:
		return Decision{true, SeverityMedium, "Login from unusual location"}
	case a.UnusualTime:
		return Decision{true, SeverityLow, "Login at unusual time"}
	default:
		return Decision{}
	}
}

// GradeFile grades a file-activity event. Volume combined with sensitive
// data is the worst case; the table is checked top-down, first match wins.
func (FlagTablePolicy) GradeFile(a FileAnomalies) Decision {
	switch {
	case a.UnusualVolume && a.SensitiveData:
		return Decision{true, SeverityCritical, "High volume access to sensitive data"}
	case a.UnusualVolume:
		return Decision{true, SeverityMedium, "Unusually high volume of file activity"}
	case a.UnusualType && a.SensitiveData:
		return Decision{true, SeverityHigh, "Access to unusual sensitive file type"}
	case a.SensitiveData:
		return Decision{true, SeverityLow, "Access to sensitive data"}
	default:
		return Decision{}
	}
}

// ReasonCountPolicy grades purely by how many anomaly flags fired: three or
// more is high, two is medium, one is low. An alternative to the flag table
// for deployments that prefer volume-of-evidence grading.
type ReasonCountPolicy struct{}

func (ReasonCountPolicy) GradeLogin(a LoginAnomalies) Decision {
	return gradeByCount(countFlags(a.UnusualLocation, a.UnusualTime), "Anomalous login activity")
}

func (ReasonCountPolicy) GradeFile(a FileAnomalies) Decision {
	return gradeByCount(countFlags(a.UnusualVolume, a.SensitiveData, a.UnusualType), "Anomalous file activity")
}

func gradeByCount(n int, description string) Decision {
	switch {
	case n >= 3:
		return Decision{true, SeverityHigh, description}
	case n == 2:
		return Decision{true, SeverityMedium, description}
	case n == 1:
		return Decision{true, SeverityLow, description}
	default:
		return Decision{}
	}
}

func countFlags(flags ...bool) int {
	n := 0
	for _, f := range flags {
		if f {
			n++
		}
	}
	return n
}

// PolicyByName returns the configured policy implementation, defaulting to
// the flag table for unknown names.
func PolicyByName(name string) Policy {
	if name == "reason_count" {
		return ReasonCountPolicy{}
	}
	return FlagTablePolicy{}
}
