// Package taxevent implements the Event Parsers of §4.A: one parser per
// source kind (manual, csv, excel, bank, accounting, api), each turning a
// raw payload into zero or more domain.TaxEventInput values against a
// common SourceRecord. Every parser shares the normalization helpers in
// normalize.go so that a given amount or date string is interpreted
// identically regardless of which source it arrived through.
package taxevent

import (
	"fmt"
	"strings"

	"github.com/form270/declare/internal/declerr"
	"github.com/form270/declare/internal/domain"
)

// Parser turns a SourceRecord's raw payload into tax events for a taxpayer.
type Parser interface {
	Parse(rec domain.SourceRecord) ([]domain.TaxEventInput, error)
}

var registry = map[domain.SourceKind]Parser{
	domain.SourceManual:     ManualParser{},
	domain.SourceCSV:        CSVParser{},
	domain.SourceExcel:      ExcelParser{},
	domain.SourceBank:       BankParser{},
	domain.SourceAccounting: AccountingParser{},
	domain.SourceAPI:        APIParser{},
}

// ParseRecord dispatches rec to the parser registered for its SourceKind.
func ParseRecord(rec domain.SourceRecord) ([]domain.TaxEventInput, error) {
	p, ok := registry[rec.SourceKind]
	if !ok {
		return nil, declerr.Unprocessable("taxevent.ParseRecord", fmt.Sprintf("no parser registered for source kind %q", rec.SourceKind))
	}
	events, err := p.Parse(rec)
	if err != nil {
		return nil, err
	}
	for i := range events {
		events[i].SourceRecord = rec.ID
		events[i].Taxpayer = rec.Taxpayer
	}
	return events, nil
}

// legacyEventTypeAliases maps free-form category words and legacy codes,
// as seen in manual entry forms and older exports, to the canonical EV_
// catalog codes. A code that cannot be resolved here is passed through
// unchanged. The event store stores it without checking it against the
// catalog; ruleengine.Run rejects it as a Conflict when a run meets an
// event whose code is not in the seeded vocabulary.
var legacyEventTypeAliases = map[string]string{
	"property_sale_kz":      domain.EVPropertySaleKZ,
	"property_sale_abroad":  domain.EVPropertySaleAbroad,
	"property_sale_other":   domain.EVPropertySaleOther,
	"rent":                  domain.EVRentNonAgent,
	"rent_nonagent":         domain.EVRentNonAgent,
	"assignment":            domain.EVAssignment,
	"ip_other_assets":       domain.EVIPOtherAssets,
	"cfc_profit":            domain.EVCFCProfit,
	"cfc":                   domain.EVCFCProfit,
	"foreign_dividends":     domain.EVForeignDividends,
	"foreign_interest":      domain.EVForeignInterest,
	"foreign_royalty":       domain.EVForeignRoyalty,
	"foreign_employment":    domain.EVForeignEmployment,
	"foreign_pension":       domain.EVForeignPension,
	"foreign_property_sale": domain.EVForeignPropertySale,
	"foreign_securities":    domain.EVForeignSecurities,
	"foreign_business":      domain.EVForeignBusiness,
	"foreign_other":         domain.EVForeignOther,
	"salary_nonagent":       domain.EVDomesticSalaryNonAgent,
	"domestic_royalty":      domain.EVDomesticRoyalty,
	"domestic_interest":     domain.EVDomesticInterest,
	"winning":               domain.EVDomesticWinning,
	"domestic_other_property": domain.EVDomesticOtherProperty,
	"domestic_other":        domain.EVDomesticOther,
	"deduction_standard":    domain.EVDeductionStandard,
	"deduction_other":       domain.EVDeductionOther,
	"adjustment_pension":    domain.EVAdjustmentPension,
	"adjustment_insurance":  domain.EVAdjustmentInsurance,
	"adjustment_medical":    domain.EVAdjustmentMedical,
	"adjustment_other":      domain.EVAdjustmentOther,
	"foreign_tax_paid":      domain.EVForeignTaxPaidGeneral,
	"foreign_tax_paid_cfc":  domain.EVForeignTaxPaidCFC,
	// Legacy INCOME_* codes predate the EV_ vocabulary and are not
	// translated here; a payload carrying one of these passes through
	// unchanged, is stored as is, and is rejected as an unknown event_type
	// by the engine run.
}

// resolveEventType resolves a free-form or legacy category token against
// legacyEventTypeAliases, returning the input unchanged when no alias
// applies.
func resolveEventType(token string) string {
	if canon, ok := legacyEventTypeAliases[token]; ok {
		return canon
	}
	if canon, ok := legacyEventTypeAliases[strings.ToLower(token)]; ok {
		return canon
	}
	return token
}
