package orchestrator

import (
	"testing"

	"github.com/form270/declare/internal/domain"
)

// TestStatusRank_GatesDraftButNotLaterStatuses exercises the comparison
// ProjectXML makes without needing a live declaration store: draft must
// rank below validated, and every other status must rank at or above it.
func TestStatusRank_GatesDraftButNotLaterStatuses(t *testing.T) {
	if statusRank[domain.StatusDraft] >= statusRank[domain.StatusValidated] {
		t.Fatalf("draft must rank below validated")
	}
	for _, status := range []domain.Status{
		domain.StatusValidated, domain.StatusAwaitingConsent, domain.StatusSigned,
		domain.StatusSubmitted, domain.StatusAccepted, domain.StatusRejected,
	} {
		if statusRank[status] < statusRank[domain.StatusValidated] {
			t.Errorf("status %s ranks below validated, want >=", status)
		}
	}
}
