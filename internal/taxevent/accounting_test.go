package taxevent

import (
	"testing"

	"github.com/form270/declare/internal/domain"
)

func TestAccountingParser_SkipsExpenseDocuments(t *testing.T) {
	payload := `{
		"documents": [
			{"kind": "expense", "date": "2025-05-01", "currency": "KZT", "lines": [{"description": "office rent paid", "amount": "100000"}]},
			{"kind": "sale", "date": "2025-05-02", "currency": "KZT", "lines": [{"description": "apartment sale", "category": "property_sale_kz", "amount": "9000000"}]}
		]
	}`
	rec := domain.SourceRecord{SourceKind: domain.SourceAccounting, RawPayload: []byte(payload)}
	events, err := AccountingParser{}.Parse(rec)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expense document should be skipped, got %d events", len(events))
	}
	if events[0].EventTypeCode != domain.EVPropertySaleKZ {
		t.Errorf("event type = %s, want %s", events[0].EventTypeCode, domain.EVPropertySaleKZ)
	}
}
