package taxevent

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/form270/declare/internal/declerr"
	"github.com/form270/declare/internal/domain"
)

// ExcelParser reads every sheet of an .xlsx workbook as a header-plus-rows
// table, identically to CSVParser's column rules, so a taxpayer can export
// the same workbook either as .csv or .xlsx (§4.A).
type ExcelParser struct{}

func (ExcelParser) Parse(rec domain.SourceRecord) ([]domain.TaxEventInput, error) {
	f, err := excelize.OpenReader(bytes.NewReader(rec.RawPayload))
	if err != nil {
		return nil, declerr.Parse("taxevent.ExcelParser", "invalid xlsx payload", err)
	}
	defer f.Close()

	var events []domain.TaxEventInput
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, declerr.Parse("taxevent.ExcelParser", fmt.Sprintf("sheet %q", sheet), err)
		}
		if len(rows) == 0 {
			continue
		}
		colIdx := indexHeader(rows[0])
		for i, row := range rows[1:] {
			if isBlankRow(row) {
				continue
			}
			ev, err := rowToEvent(row, colIdx, rows[0])
			if err != nil {
				return nil, declerr.Parse("taxevent.ExcelParser", fmt.Sprintf("sheet %q row %d", sheet, i+2), err)
			}
			events = append(events, ev)
		}
	}
	return events, nil
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if c != "" {
			return false
		}
	}
	return true
}
