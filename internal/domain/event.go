package domain

import (
	"github.com/shopspring/decimal"
)

// TaxEventInput is what a parser (§4.A) produces: a not-yet-persisted event.
// The source taxpayer and source-record id are always copied in by the
// caller, never trusted from the payload itself.
type TaxEventInput struct {
	Taxpayer       string
	SourceRecord   string
	EventTypeCode  string
	EventDate      string // YYYY-MM-DD, UTC
	Amount         *decimal.Decimal
	Currency       string
	Metadata       map[string]any
}

// TaxEvent is a persisted, immutable tax event (§3). TaxYear is derived from
// EventDate at insertion time, never supplied by the caller.
type TaxEvent struct {
	ID            string
	Taxpayer      string
	SourceRecord  string
	EventTypeCode string
	EventDate     string
	Amount        *decimal.Decimal
	Currency      string
	Metadata      map[string]any
	TaxYear       int
}

// AmountOrZero returns the event's amount, or zero when unset — used
// pervasively by the condition and rule engine so callers never need to
// nil-check.
func (e TaxEvent) AmountOrZero() decimal.Decimal {
	if e.Amount == nil {
		return decimal.Zero
	}
	return *e.Amount
}

// MetaLookup performs a dotted-path lookup into Metadata, returning (nil,
// false) for any missing segment — metadata paths never error (§4.D).
func (e TaxEvent) MetaLookup(path string) (any, bool) {
	return lookupPath(e.Metadata, path)
}

func lookupPath(m map[string]any, path string) (any, bool) {
	if m == nil || path == "" {
		return nil, false
	}
	cur := any(m)
	for _, seg := range splitDot(path) {
		cm, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		v, ok := cm[seg]
		if !ok {
			return nil, false
		}
		cur = v
	}
	return cur, true
}

func splitDot(path string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(path); i++ {
		if path[i] == '.' {
			parts = append(parts, path[start:i])
			start = i + 1
		}
	}
	parts = append(parts, path[start:])
	return parts
}
