package taxevent

import (
	"testing"

	"github.com/form270/declare/internal/domain"
)

func TestCSVParser_ParsesRowsAndCarriesExtraColumns(t *testing.T) {
	payload := "event_type,event_date,amount,currency,counterparty\n" +
		"foreign_dividends,2025-01-15,1200.50,USD,Acme Corp\n" +
		"rent,2025-02-01,50000,KZT,Tenant LLC\n"

	rec := domain.SourceRecord{SourceKind: domain.SourceCSV, RawPayload: []byte(payload)}
	events, err := CSVParser{}.Parse(rec)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("want 2 events, got %d", len(events))
	}
	if events[0].EventTypeCode != domain.EVForeignDividends {
		t.Errorf("event type = %s", events[0].EventTypeCode)
	}
	if events[0].Currency != "USD" {
		t.Errorf("currency = %s", events[0].Currency)
	}
	if events[0].Metadata["counterparty"] != "Acme Corp" {
		t.Errorf("extra column not carried into metadata: %v", events[0].Metadata)
	}
}

func TestCSVParser_InfersEventTypeFromDescriptionWhenColumnAbsent(t *testing.T) {
	payload := "event_date,amount,currency,description\n" +
		"2025-03-01,200000,KZT,аренда квартиры за март\n"

	rec := domain.SourceRecord{SourceKind: domain.SourceCSV, RawPayload: []byte(payload)}
	events, err := CSVParser{}.Parse(rec)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("want 1 event, got %d", len(events))
	}
	if events[0].EventTypeCode != domain.EVRentNonAgent {
		t.Errorf("event type = %s, want inferred rent", events[0].EventTypeCode)
	}
}

func TestCSVParser_FallsBackToLegacyIncomeTypeColumn(t *testing.T) {
	payload := "income_type,event_date,amount,currency\n" +
		"foreign_dividends,2025-01-15,1200.50,USD\n"

	rec := domain.SourceRecord{SourceKind: domain.SourceCSV, RawPayload: []byte(payload)}
	events, err := CSVParser{}.Parse(rec)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("want 1 event, got %d", len(events))
	}
	if events[0].EventTypeCode != domain.EVForeignDividends {
		t.Errorf("event type = %s, want income_type alias resolved", events[0].EventTypeCode)
	}
}

func TestCSVParser_EmptyPayload(t *testing.T) {
	rec := domain.SourceRecord{SourceKind: domain.SourceCSV, RawPayload: []byte("")}
	if _, err := (CSVParser{}).Parse(rec); err == nil {
		t.Errorf("expected error for empty payload")
	}
}
