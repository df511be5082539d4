package taxevent

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/form270/declare/internal/declerr"
	"github.com/form270/declare/internal/domain"
)

// manualEntry is the shape a manual-entry form submits: one event, already
// close to canonical (§4.A). IncomeType is the legacy field name some
// older forms still submit in place of event_type; it is only consulted
// when event_type is empty.
type manualEntry struct {
	EventType  string          `json:"event_type"`
	IncomeType string          `json:"income_type"`
	EventDate  string          `json:"event_date"`
	Amount     string          `json:"amount"`
	Currency   string          `json:"currency"`
	Note       string          `json:"note"`
	Metadata   json.RawMessage `json:"metadata"`
}

// manualEntryList is the alternate shape a manual-entry form may submit:
// several events from one submission (§4.A).
type manualEntryList struct {
	Events []manualEntry `json:"events"`
}

// ManualParser handles payloads entered directly by a taxpayer or
// preparer, either a single event object or a `{"events": [...]}` list.
type ManualParser struct{}

func (ManualParser) Parse(rec domain.SourceRecord) ([]domain.TaxEventInput, error) {
	var list manualEntryList
	if err := json.Unmarshal(rec.RawPayload, &list); err == nil && len(list.Events) > 0 {
		inputs := make([]domain.TaxEventInput, 0, len(list.Events))
		for _, entry := range list.Events {
			input, err := manualEntryToInput(entry)
			if err != nil {
				return nil, err
			}
			inputs = append(inputs, input)
		}
		return inputs, nil
	}

	var entry manualEntry
	if err := json.Unmarshal(rec.RawPayload, &entry); err != nil {
		return nil, declerr.Parse("taxevent.ManualParser", "invalid manual entry payload", err)
	}
	input, err := manualEntryToInput(entry)
	if err != nil {
		return nil, err
	}
	return []domain.TaxEventInput{input}, nil
}

func manualEntryToInput(entry manualEntry) (domain.TaxEventInput, error) {
	eventType := entry.EventType
	if eventType == "" {
		eventType = entry.IncomeType
	}

	date, err := NormalizeDate(entry.EventDate)
	if err != nil {
		return domain.TaxEventInput{}, declerr.Parse("taxevent.ManualParser", "invalid event_date", err)
	}
	amount, err := NormalizeAmount(entry.Amount)
	if err != nil {
		return domain.TaxEventInput{}, declerr.Parse("taxevent.ManualParser", "invalid amount", err)
	}

	meta := map[string]any{}
	if len(entry.Metadata) > 0 {
		if err := json.Unmarshal(entry.Metadata, &meta); err != nil {
			return domain.TaxEventInput{}, declerr.Parse("taxevent.ManualParser", "invalid metadata", err)
		}
	}
	if entry.Note != "" {
		meta["note"] = entry.Note
	}

	return domain.TaxEventInput{
		EventTypeCode: resolveEventType(eventType),
		EventDate:     date,
		Amount:        amountPtr(amount),
		Currency:      NormalizeCurrency(entry.Currency),
		Metadata:      meta,
	}, nil
}

func amountPtr(d decimal.Decimal) *decimal.Decimal {
	return &d
}
