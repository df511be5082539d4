package taxevent

import (
	"bytes"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/form270/declare/internal/domain"
)

func TestExcelParser_ReadsAllSheets(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	sheet1 := f.GetSheetName(0)
	f.SetSheetRow(sheet1, "A1", &[]any{"event_type", "event_date", "amount", "currency"})
	f.SetSheetRow(sheet1, "A2", &[]any{"rent", "2025-01-10", "100000", "KZT"})

	sheet2, err := f.NewSheet("Foreign")
	if err != nil {
		t.Fatalf("NewSheet: %v", err)
	}
	f.SetSheetRow("Foreign", "A1", &[]any{"event_type", "event_date", "amount", "currency"})
	f.SetSheetRow("Foreign", "A2", &[]any{"foreign_dividends", "2025-02-01", "500", "USD"})
	_ = sheet2

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("Write: %v", err)
	}

	rec := domain.SourceRecord{SourceKind: domain.SourceExcel, RawPayload: buf.Bytes()}
	events, err := ExcelParser{}.Parse(rec)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("want 2 events across sheets, got %d", len(events))
	}
}
