package taxevent

import (
	"encoding/json"

	"github.com/form270/declare/internal/declerr"
	"github.com/form270/declare/internal/domain"
)

// apiEnvelope is the common shape of a government or partner API payload:
// exactly one of these keys is populated depending on which upstream
// system produced the export. A single-record shape is also accepted for
// APIs that return one event per call (§4.A).
type apiEnvelope struct {
	Incomes []apiRecord `json:"incomes"`
	Items   []apiRecord `json:"items"`
	Records []apiRecord `json:"records"`
	Events  []apiRecord `json:"events"`
	Assets  []apiRecord `json:"assets"`
	Debts   []apiRecord `json:"debts"`

	// Single-record shape.
	EventType string          `json:"event_type"`
	EventDate string          `json:"event_date"`
	Amount    string          `json:"amount"`
	Currency  string          `json:"currency"`
	Metadata  json.RawMessage `json:"metadata"`
}

type apiRecord struct {
	EventType string          `json:"event_type"`
	EventDate string          `json:"event_date"`
	Amount    string          `json:"amount"`
	Currency  string          `json:"currency"`
	Metadata  json.RawMessage `json:"metadata"`
}

// APIParser handles upstream government/partner API exports, which arrive
// wrapped under one of several top-level keys depending on the origin
// system (§4.A).
type APIParser struct{}

func (APIParser) Parse(rec domain.SourceRecord) ([]domain.TaxEventInput, error) {
	var env apiEnvelope
	if err := json.Unmarshal(rec.RawPayload, &env); err != nil {
		return nil, declerr.Parse("taxevent.APIParser", "invalid api payload", err)
	}

	for _, group := range [][]apiRecord{env.Incomes, env.Items, env.Records, env.Events, env.Assets, env.Debts} {
		if len(group) > 0 {
			return recordsToEvents(group)
		}
	}

	if env.EventType != "" || env.Amount != "" {
		return recordsToEvents([]apiRecord{{
			EventType: env.EventType,
			EventDate: env.EventDate,
			Amount:    env.Amount,
			Currency:  env.Currency,
			Metadata:  env.Metadata,
		}})
	}

	return nil, declerr.Parse("taxevent.APIParser", "api payload has no recognizable record shape", nil)
}

// recordsToEvents is shared by every branch of apiEnvelope (incomes,
// items, records, events, assets, debts) rather than giving each branch
// its own mapper: the upstream record shape does not vary by branch name,
// only by which key wraps it, so a per-branch mapper would be identical
// code five times over.
func recordsToEvents(records []apiRecord) ([]domain.TaxEventInput, error) {
	events := make([]domain.TaxEventInput, 0, len(records))
	for _, r := range records {
		date, err := NormalizeDate(r.EventDate)
		if err != nil {
			return nil, declerr.Parse("taxevent.APIParser", "event_date", err)
		}
		amount, err := NormalizeAmount(r.Amount)
		if err != nil {
			return nil, declerr.Parse("taxevent.APIParser", "amount", err)
		}
		meta := map[string]any{}
		if len(r.Metadata) > 0 {
			if err := json.Unmarshal(r.Metadata, &meta); err != nil {
				return nil, declerr.Parse("taxevent.APIParser", "metadata", err)
			}
		}
		events = append(events, domain.TaxEventInput{
			EventTypeCode: resolveEventType(r.EventType),
			EventDate:     date,
			Amount:        amountPtr(amount),
			Currency:      NormalizeCurrency(r.Currency),
			Metadata:      meta,
		})
	}
	return events, nil
}
