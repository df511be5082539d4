package taxevent

import (
	"encoding/json"
	"strings"

	"github.com/form270/declare/internal/declerr"
	"github.com/form270/declare/internal/domain"
)

// accountingExport is the shape an accounting system's export arrives in:
// a batch of documents, each with a kind (income/expense/sale/other) and
// one or more line items (§4.A).
type accountingExport struct {
	Documents []accountingDocument `json:"documents"`
}

type accountingDocument struct {
	Kind     string              `json:"kind"`
	Date     string              `json:"date"`
	Currency string              `json:"currency"`
	Lines    []accountingLine    `json:"lines"`
}

type accountingLine struct {
	Description string `json:"description"`
	Category    string `json:"category"`
	Amount      string `json:"amount"`
}

// expenseDocumentKinds identifies document kinds skipped entirely because
// they record outgoing operations, never taxable income (§4.A).
var expenseDocumentKinds = map[string]bool{
	"expense":          true,
	"purchase":         true,
	"payment_outgoing": true,
}

// AccountingParser handles document/line-item exports from bookkeeping
// systems. Expense documents are skipped; the remaining documents' lines
// map to an event type by explicit category, falling back to keyword
// matching against the line description (§4.A).
type AccountingParser struct{}

func (AccountingParser) Parse(rec domain.SourceRecord) ([]domain.TaxEventInput, error) {
	var export accountingExport
	if err := json.Unmarshal(rec.RawPayload, &export); err != nil {
		return nil, declerr.Parse("taxevent.AccountingParser", "invalid accounting export payload", err)
	}

	var events []domain.TaxEventInput
	for _, doc := range export.Documents {
		if expenseDocumentKinds[strings.ToLower(strings.TrimSpace(doc.Kind))] {
			continue
		}
		date, err := NormalizeDate(doc.Date)
		if err != nil {
			return nil, declerr.Parse("taxevent.AccountingParser", "document date", err)
		}
		currency := NormalizeCurrency(doc.Currency)

		for _, line := range doc.Lines {
			amount, err := NormalizeAmount(line.Amount)
			if err != nil {
				return nil, declerr.Parse("taxevent.AccountingParser", "line amount", err)
			}
			events = append(events, domain.TaxEventInput{
				EventTypeCode: inferAccountingEventType(doc.Kind, line),
				EventDate:     date,
				Amount:        amountPtr(amount),
				Currency:      currency,
				Metadata: map[string]any{
					"description":   line.Description,
					"document_kind": doc.Kind,
				},
			})
		}
	}
	return events, nil
}

func inferAccountingEventType(docKind string, line accountingLine) string {
	if line.Category != "" {
		return resolveEventType(line.Category)
	}
	text := strings.ToLower(line.Description)
	for _, kw := range bankKeywordEventTypes {
		if strings.Contains(text, kw.keyword) {
			return kw.eventType
		}
	}
	if strings.EqualFold(docKind, "sale") {
		return domain.EVPropertySaleKZ
	}
	return domain.EVDomesticOther
}
