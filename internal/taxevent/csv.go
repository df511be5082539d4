package taxevent

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/form270/declare/internal/declerr"
	"github.com/form270/declare/internal/domain"
)

// CSVParser handles tabular exports with a header row. Recognized columns
// (case-insensitive, underscores or spaces): event_type, event_date,
// amount, currency, and any others are carried into metadata (§4.A). When
// event_type is absent, the legacy income_type column is tried, then the
// event type is inferred from a description/purpose/note column by the
// same keyword table BankParser uses.
type CSVParser struct{}

func (CSVParser) Parse(rec domain.SourceRecord) ([]domain.TaxEventInput, error) {
	r := csv.NewReader(bytes.NewReader(rec.RawPayload))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		if err == io.EOF {
			return nil, declerr.Parse("taxevent.CSVParser", "empty csv payload", nil)
		}
		return nil, declerr.Parse("taxevent.CSVParser", "invalid csv header", err)
	}
	colIdx := indexHeader(header)

	var events []domain.TaxEventInput
	rowNum := 1
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, declerr.Parse("taxevent.CSVParser", fmt.Sprintf("invalid csv row %d", rowNum), err)
		}
		rowNum++

		ev, err := rowToEvent(row, colIdx, header)
		if err != nil {
			return nil, declerr.Parse("taxevent.CSVParser", fmt.Sprintf("row %d", rowNum), err)
		}
		events = append(events, ev)
	}
	return events, nil
}

func indexHeader(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[normalizeColumn(h)] = i
	}
	return idx
}

func normalizeColumn(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.ReplaceAll(h, " ", "_")
	return h
}

func rowToEvent(row []string, colIdx map[string]int, header []string) (domain.TaxEventInput, error) {
	get := func(col string) string {
		if i, ok := colIdx[col]; ok && i < len(row) {
			return row[i]
		}
		return ""
	}

	date, err := NormalizeDate(get("event_date"))
	if err != nil {
		return domain.TaxEventInput{}, fmt.Errorf("event_date: %w", err)
	}
	amount, err := NormalizeAmount(get("amount"))
	if err != nil {
		return domain.TaxEventInput{}, fmt.Errorf("amount: %w", err)
	}

	meta := map[string]any{}
	known := map[string]bool{"event_type": true, "income_type": true, "event_date": true, "amount": true, "currency": true}
	for col, i := range colIdx {
		if known[col] || i >= len(row) {
			continue
		}
		meta[col] = row[i]
	}

	return domain.TaxEventInput{
		EventTypeCode: resolveRowEventType(get),
		EventDate:     date,
		Amount:        amountPtr(amount),
		Currency:      NormalizeCurrency(get("currency")),
		Metadata:      meta,
	}, nil
}

// resolveRowEventType is a row's event type, in priority order: the
// explicit event_type column, the legacy income_type column, then
// inferred from a description/purpose/note column by keyword (§4.A).
func resolveRowEventType(get func(string) string) string {
	if token := get("event_type"); token != "" {
		return resolveEventType(token)
	}
	if token := get("income_type"); token != "" {
		return resolveEventType(token)
	}
	text := get("description") + " " + get("purpose") + " " + get("note")
	return inferEventTypeFromText(text)
}
