// Vigil - Insider Threat Detection and Behavioral Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package alerting

import "testing"

func TestFlagTablePolicyGradeLogin(t *testing.T) {
	tests := []struct {
		name  string
		flags LoginAnomalies
		want  Decision
	}{
		{
			"location and time",
			LoginAnomalies{UnusualLocation: true, UnusualTime: true},
			Decision{true, SeverityHigh, "Login from unusual location at unusual time"},
		},
		{
			"location only",
			LoginAnomalies{UnusualLocation: true},
			Decision{true, SeverityMedium, "Login from unusual location"},
		},
		{
			"time only",
			LoginAnomalies{UnusualTime: true},
			Decision{true, SeverityLow, "Login at unusual time"},
		},
		{
			"no flags",
			LoginAnomalies{},
			Decision{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := (FlagTablePolicy{}).GradeLogin(tt.flags); got != tt.want {
				t.Errorf("GradeLogin(%+v) = %+v, want %+v", tt.flags, got, tt.want)
			}
		})
	}
}

func TestFlagTablePolicyGradeFile(t *testing.T) {
	tests := []struct {
		name  string
		flags FileAnomalies
		want  Decision
	}{
		{
			"volume and sensitive",
			FileAnomalies{UnusualVolume: true, SensitiveData: true},
			Decision{true, SeverityCritical, "High volume access to sensitive data"},
		},
		{
			"volume and sensitive and type still critical",
			FileAnomalies{UnusualVolume: true, SensitiveData: true, UnusualType: true},
			Decision{true, SeverityCritical, "High volume access to sensitive data"},
		},
		{
			"volume only",
			FileAnomalies{UnusualVolume: true},
			Decision{true, SeverityMedium, "Unusually high volume of file activity"},
		},
		{
			"unusual sensitive type",
			FileAnomalies{UnusualType: true, SensitiveData: true},
			Decision{true, SeverityHigh, "Access to unusual sensitive file type"},
		},
		{
			"sensitive only",
			FileAnomalies{SensitiveData: true},
			Decision{true, SeverityLow, "Access to sensitive data"},
		},
		{
			"unusual type alone does not alert",
			FileAnomalies{UnusualType: true},
			Decision{},
		},
		{
			"no flags",
			FileAnomalies{},
			Decision{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := (FlagTablePolicy{}).GradeFile(tt.flags); got != tt.want {
				t.Errorf("GradeFile(%+v) = %+v, want %+v", tt.flags, got, tt.want)
			}
		})
	}
}

func TestReasonCountPolicy(t *testing.T) {
	p := ReasonCountPolicy{}

	if got := p.GradeFile(FileAnomalies{UnusualVolume: true, SensitiveData: true, UnusualType: true}); got.Severity != SeverityHigh {
		t.Errorf("three flags = %+v, want high", got)
	}
	if got := p.GradeFile(FileAnomalies{UnusualVolume: true, SensitiveData: true}); got.Severity != SeverityMedium {
		t.Errorf("two flags = %+v, want medium", got)
	}
	if got := p.GradeLogin(LoginAnomalies{UnusualTime: true}); got.Severity != SeverityLow {
		t.Errorf("one flag = %+v, want low", got)
	}
	if got := p.GradeLogin(LoginAnomalies{}); got.Alert {
		t.Errorf("no flags = %+v, want no alert", got)
	}
}

func TestPolicyPurity(t *testing.T) {
	// Same flags in, same decision out, every time.
	for _, p := range []Policy{FlagTablePolicy{}, ReasonCountPolicy{}} {
		flags := FileAnomalies{UnusualVolume: true, SensitiveData: true}
		first := p.GradeFile(flags)
		for i := 0; i < 10; i++ {
			if got := p.GradeFile(flags); got != first {
				t.Fatalf("%T not pure: %+v then %+v", p, first, got)
			}
		}
	}
}

func TestPolicyByName(t *testing.T) {
	if _, ok := PolicyByName("reason_count").(ReasonCountPolicy); !ok {
		t.Error("reason_count must select ReasonCountPolicy")
	}
	if _, ok := PolicyByName("flag_table").(FlagTablePolicy); !ok {
		t.Error("flag_table must select FlagTablePolicy")
	}
	if _, ok := PolicyByName("").(FlagTablePolicy); !ok {
		t.Error("unknown name must fall back to FlagTablePolicy")
	}
}
