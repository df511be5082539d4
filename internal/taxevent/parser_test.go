package taxevent

import (
	"testing"

	"github.com/form270/declare/internal/domain"
)

func TestParseRecord_ManualDispatch(t *testing.T) {
	rec := domain.SourceRecord{
		ID:         "src-1",
		Taxpayer:   "taxpayer-1",
		SourceKind: domain.SourceManual,
		RawPayload: []byte(`{"event_type":"rent","event_date":"2025-03-10","amount":"150000","currency":"KZT"}`),
	}
	events, err := ParseRecord(rec)
	if err != nil {
		t.Fatalf("ParseRecord: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("want 1 event, got %d", len(events))
	}
	ev := events[0]
	if ev.EventTypeCode != domain.EVRentNonAgent {
		t.Errorf("event type = %s, want %s", ev.EventTypeCode, domain.EVRentNonAgent)
	}
	if ev.SourceRecord != "src-1" {
		t.Errorf("source record id = %s, want src-1", ev.SourceRecord)
	}
	if ev.Taxpayer != "taxpayer-1" {
		t.Errorf("taxpayer = %s, want taxpayer-1", ev.Taxpayer)
	}
}

func TestParseRecord_UnknownSourceKind(t *testing.T) {
	rec := domain.SourceRecord{SourceKind: domain.SourceKind("unknown")}
	if _, err := ParseRecord(rec); err == nil {
		t.Errorf("expected error for unknown source kind")
	}
}

func TestResolveEventType_LegacyAliasAndPassthrough(t *testing.T) {
	if got := resolveEventType("rent"); got != domain.EVRentNonAgent {
		t.Errorf("alias rent -> %s, want %s", got, domain.EVRentNonAgent)
	}
	if got := resolveEventType(domain.EVPropertySaleKZ); got != domain.EVPropertySaleKZ {
		t.Errorf("canonical code should pass through unchanged, got %s", got)
	}
	if got := resolveEventType("INCOME_LEGACY_UNKNOWN"); got != "INCOME_LEGACY_UNKNOWN" {
		t.Errorf("unresolvable legacy code should pass through unchanged, got %s", got)
	}
}
