package workflow

import (
	"testing"

	"github.com/form270/declare/internal/domain"
)

func TestIsAllowed_MatchesTheFixedGraph(t *testing.T) {
	cases := []struct {
		from, to domain.Status
		want     bool
	}{
		{domain.StatusDraft, domain.StatusValidated, true},
		{domain.StatusDraft, domain.StatusSigned, false},
		{domain.StatusValidated, domain.StatusDraft, true},
		{domain.StatusValidated, domain.StatusAwaitingConsent, true},
		{domain.StatusAwaitingConsent, domain.StatusValidated, true},
		{domain.StatusAwaitingConsent, domain.StatusSigned, true},
		{domain.StatusSigned, domain.StatusSubmitted, true},
		{domain.StatusSigned, domain.StatusAccepted, false},
		{domain.StatusSubmitted, domain.StatusAccepted, true},
		{domain.StatusSubmitted, domain.StatusRejected, true},
		{domain.StatusRejected, domain.StatusDraft, true},
		{domain.StatusRejected, domain.StatusValidated, false},
		{domain.StatusAccepted, domain.StatusDraft, false},
	}
	for _, tc := range cases {
		if got := isAllowed(tc.from, tc.to); got != tc.want {
			t.Errorf("isAllowed(%s -> %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestViolations_ReportReflectsValidity(t *testing.T) {
	v := &violations{}
	report := v.report()
	if report["valid"] != true {
		t.Errorf("empty violations should report valid=true")
	}

	v.add("MISSING_FIELD", "LF_INCOME_TOTAL is absent")
	report = v.report()
	if report["valid"] != false {
		t.Errorf("non-empty violations should report valid=false")
	}
	items, ok := report["violations"].([]string)
	if !ok || len(items) != 1 {
		t.Fatalf("expected one violation message, got %v", report["violations"])
	}
}
