// Package seed populates the Rule Catalog (§4.C) with the closed
// vocabulary of event types and logical fields from internal/domain's
// taxonomy, a direct event-to-field mapping rule per event type, and the
// form_270_00/form_270_01 XML field bindings spec.md §6 names explicitly.
// It is the fixture a fresh deployment runs once against an empty catalog.
package seed

import (
	"context"

	"github.com/form270/declare/internal/catalog"
	"github.com/form270/declare/internal/domain"
)

// eventTypes is the full seeded vocabulary, one entry per EV_* constant.
var eventTypes = []domain.EventTypeCode{
	{Code: domain.EVPropertySaleKZ, Description: "sale of property located in Kazakhstan"},
	{Code: domain.EVPropertySaleAbroad, Description: "sale of property located abroad"},
	{Code: domain.EVPropertySaleOther, Description: "sale of other property"},
	{Code: domain.EVForeignDividends, Description: "dividends from a foreign source"},
	{Code: domain.EVForeignInterest, Description: "interest from a foreign source"},
	{Code: domain.EVForeignRoyalty, Description: "royalty from a foreign source"},
	{Code: domain.EVForeignEmployment, Description: "employment income from a foreign source"},
	{Code: domain.EVForeignPension, Description: "pension income from a foreign source"},
	{Code: domain.EVForeignPropertySale, Description: "sale of foreign property"},
	{Code: domain.EVForeignSecurities, Description: "foreign securities income"},
	{Code: domain.EVForeignBusiness, Description: "foreign business income"},
	{Code: domain.EVForeignOther, Description: "other foreign-source income"},
	{Code: domain.EVRentNonAgent, Description: "rent received without a withholding agent"},
	{Code: domain.EVAssignment, Description: "income from assignment of a claim"},
	{Code: domain.EVIPOtherAssets, Description: "income from intellectual property or other assets"},
	{Code: domain.EVCFCProfit, Description: "controlled foreign company profit"},
	{Code: domain.EVDomesticSalaryNonAgent, Description: "salary received without a withholding agent"},
	{Code: domain.EVDomesticRoyalty, Description: "domestic royalty without a withholding agent"},
	{Code: domain.EVDomesticInterest, Description: "domestic interest without a withholding agent"},
	{Code: domain.EVDomesticWinning, Description: "winnings without a withholding agent"},
	{Code: domain.EVDomesticOtherProperty, Description: "other domestic property income without a withholding agent"},
	{Code: domain.EVDomesticOther, Description: "other domestic income without a withholding agent"},
	{Code: domain.EVDeductionStandard, Description: "standard deduction"},
	{Code: domain.EVDeductionOther, Description: "other deduction"},
	{Code: domain.EVAdjustmentPension, Description: "voluntary pension contribution adjustment"},
	{Code: domain.EVAdjustmentInsurance, Description: "insurance premium adjustment"},
	{Code: domain.EVAdjustmentMedical, Description: "medical expense adjustment"},
	{Code: domain.EVAdjustmentOther, Description: "other adjustment"},
	{Code: domain.EVForeignTaxPaidGeneral, Description: "foreign tax paid, eligible for general credit"},
	{Code: domain.EVForeignTaxPaidCFC, Description: "foreign tax paid by a controlled foreign company"},
	{Code: domain.EVNonAgentOther, Description: "uncategorized non-agent income, bank parser fallback"},
}

// logicalFields is the full seeded vocabulary, one entry per LF_* constant.
var logicalFields = []domain.LogicalField{
	{Code: domain.LFIncomePropertyKZ, Description: "property sale income, Kazakhstan"},
	{Code: domain.LFIncomePropertyAbroad, Description: "property sale income, abroad"},
	{Code: domain.LFIncomePropertyOther, Description: "other property sale income"},
	{Code: domain.LFIncomePropertyTotal, Description: "property sale income, total"},
	{Code: domain.LFIncomeForeignDividends, Description: "foreign dividend income"},
	{Code: domain.LFIncomeForeignInterest, Description: "foreign interest income"},
	{Code: domain.LFIncomeForeignRoyalty, Description: "foreign royalty income"},
	{Code: domain.LFIncomeForeignEmployment, Description: "foreign employment income"},
	{Code: domain.LFIncomeForeignPension, Description: "foreign pension income"},
	{Code: domain.LFIncomeForeignPropertySale, Description: "foreign property sale income"},
	{Code: domain.LFIncomeForeignSecurities, Description: "foreign securities income"},
	{Code: domain.LFIncomeForeignBusiness, Description: "foreign business income"},
	{Code: domain.LFIncomeForeignOther, Description: "other foreign income"},
	{Code: domain.LFIncomeForeignTotal, Description: "foreign income, total"},
	{Code: domain.LFIncomeDomesticSalaryNonAgent, Description: "domestic salary, no withholding agent"},
	{Code: domain.LFIncomeDomesticRoyalty, Description: "domestic royalty, no withholding agent"},
	{Code: domain.LFIncomeDomesticInterest, Description: "domestic interest, no withholding agent"},
	{Code: domain.LFIncomeDomesticWinning, Description: "domestic winnings, no withholding agent"},
	{Code: domain.LFIncomeDomesticOtherProperty, Description: "other domestic property income, no withholding agent"},
	{Code: domain.LFIncomeDomesticOther, Description: "other domestic income, no withholding agent"},
	{Code: domain.LFIncomeRentNonAgent, Description: "rent income, no withholding agent"},
	{Code: domain.LFIncomeAssignment, Description: "assignment-of-claim income"},
	{Code: domain.LFIncomeIPOtherAssets, Description: "intellectual property / other asset income"},
	{Code: domain.LFIncomeCFCProfit, Description: "controlled foreign company profit"},
	{Code: domain.LFIncomeTotal, Description: "total income, base total"},
	{Code: domain.LFDeductionStandard, Description: "standard deduction"},
	{Code: domain.LFDeductionOther, Description: "other deduction"},
	{Code: domain.LFDeductionTotal, Description: "deductions, total"},
	{Code: domain.LFAdjustmentPension, Description: "pension contribution adjustment"},
	{Code: domain.LFAdjustmentInsurance, Description: "insurance premium adjustment"},
	{Code: domain.LFAdjustmentMedical, Description: "medical expense adjustment"},
	{Code: domain.LFAdjustmentOther, Description: "other adjustment"},
	{Code: domain.LFAdjustmentTotal, Description: "adjustments, total"},
	{Code: domain.LFForeignTaxCreditGeneral, Description: "foreign tax credit, general"},
	{Code: domain.LFForeignTaxCreditCFC, Description: "foreign tax credit, CFC"},
	{Code: domain.LFTaxableIncome, Description: "taxable income (derived)"},
	{Code: domain.LFIPNCalculated, Description: "individual income tax, calculated (derived)"},
	{Code: domain.LFIPNPayable, Description: "individual income tax, payable (derived)"},
}

// eventToField is the direct event-type -> logical-field mapping seeded as
// one mapping rule each. EVNonAgentOther, the bank parser's fallback for an
// unrecognized non-agent transaction, folds into the "other domestic
// income" bucket rather than getting its own total.
var eventToField = map[string]string{
	domain.EVPropertySaleKZ:           domain.LFIncomePropertyKZ,
	domain.EVPropertySaleAbroad:       domain.LFIncomePropertyAbroad,
	domain.EVPropertySaleOther:        domain.LFIncomePropertyOther,
	domain.EVForeignDividends:         domain.LFIncomeForeignDividends,
	domain.EVForeignInterest:          domain.LFIncomeForeignInterest,
	domain.EVForeignRoyalty:           domain.LFIncomeForeignRoyalty,
	domain.EVForeignEmployment:        domain.LFIncomeForeignEmployment,
	domain.EVForeignPension:           domain.LFIncomeForeignPension,
	domain.EVForeignPropertySale:      domain.LFIncomeForeignPropertySale,
	domain.EVForeignSecurities:        domain.LFIncomeForeignSecurities,
	domain.EVForeignBusiness:          domain.LFIncomeForeignBusiness,
	domain.EVForeignOther:             domain.LFIncomeForeignOther,
	domain.EVRentNonAgent:             domain.LFIncomeRentNonAgent,
	domain.EVAssignment:               domain.LFIncomeAssignment,
	domain.EVIPOtherAssets:            domain.LFIncomeIPOtherAssets,
	domain.EVCFCProfit:                domain.LFIncomeCFCProfit,
	domain.EVDomesticSalaryNonAgent:   domain.LFIncomeDomesticSalaryNonAgent,
	domain.EVDomesticRoyalty:          domain.LFIncomeDomesticRoyalty,
	domain.EVDomesticInterest:         domain.LFIncomeDomesticInterest,
	domain.EVDomesticWinning:          domain.LFIncomeDomesticWinning,
	domain.EVDomesticOtherProperty:    domain.LFIncomeDomesticOtherProperty,
	domain.EVDomesticOther:            domain.LFIncomeDomesticOther,
	domain.EVNonAgentOther:            domain.LFIncomeDomesticOther,
	domain.EVDeductionStandard:        domain.LFDeductionStandard,
	domain.EVDeductionOther:           domain.LFDeductionOther,
	domain.EVAdjustmentPension:        domain.LFAdjustmentPension,
	domain.EVAdjustmentInsurance:      domain.LFAdjustmentInsurance,
	domain.EVAdjustmentMedical:        domain.LFAdjustmentMedical,
	domain.EVAdjustmentOther:          domain.LFAdjustmentOther,
	domain.EVForeignTaxPaidGeneral:    domain.LFForeignTaxCreditGeneral,
	domain.EVForeignTaxPaidCFC:        domain.LFForeignTaxCreditCFC,
}

// headerXMLFields binds the header attributes spec.md §6 names (iin,
// period_year, fio1-3, email, payer_phone_number, the dt_* document-type
// flags, and pril_1..7) to their form_270_00 XML element names. A nil
// LogicalField means the value comes from the declaration header/flags
// rather than an item (the projector reads these the same way).
var headerXMLFields = []string{
	"iin", "period_year", "fio1", "fio2", "fio3", "email", "payer_phone_number",
	"dt_main", "dt_regular", "dt_additional", "dt_notice",
	"pril_1", "pril_2", "pril_3", "pril_4", "pril_5", "pril_6", "pril_7",
}

// mainFormXMLFields is the form_270_01 A-K letter assignment
// (internal/xmlproject.form01FieldOrder repeats this pairing so the
// catalog and the projector never drift apart).
var mainFormXMLFields = []struct {
	xmlName string
	field   string
}{
	{"field_270_01_A", domain.LFIncomePropertyTotal},
	{"field_270_01_B", domain.LFIncomeRentNonAgent},
	{"field_270_01_C", domain.LFIncomeForeignTotal},
	{"field_270_01_D", domain.LFIncomeTotal},
	{"field_270_01_E", domain.LFDeductionTotal},
	{"field_270_01_F", domain.LFAdjustmentTotal},
	{"field_270_01_G", domain.LFTaxableIncome},
	{"field_270_01_H", domain.LFIPNCalculated},
	{"field_270_01_I", domain.LFForeignTaxCreditGeneral},
	{"field_270_01_J", domain.LFForeignTaxCreditCFC},
	{"field_270_01_K", domain.LFIPNPayable},
}

const formCode = "270.00"
const applicationCode = "main"

// Catalog writes the full vocabulary, mapping rules, and XML field maps
// into an empty (or already-seeded — every write is an upsert) catalog.
func Catalog(ctx context.Context, store *catalog.Store) error {
	for _, et := range eventTypes {
		if err := store.PutEventType(ctx, et); err != nil {
			return err
		}
	}
	for _, lf := range logicalFields {
		if err := store.PutLogicalField(ctx, lf); err != nil {
			return err
		}
	}
	for eventCode, field := range eventToField {
		rule := domain.Rule{
			RuleCode: "map_" + eventCode,
			Kind:     domain.RuleMapping,
			Conditions: domain.Condition{
				Field: "event.event_type",
				Op:    domain.OpEq,
				Value: eventCode,
			},
			Actions: []domain.Action{{
				Kind:         domain.ActionMap,
				Target:       field,
				AmountSource: domain.AmountFromEvent,
			}},
			Active: true,
		}
		if _, err := store.PutRule(ctx, rule); err != nil {
			return err
		}
	}

	for _, name := range headerXMLFields {
		m := domain.XmlFieldMap{FormCode: formCode, ApplicationCode: applicationCode, XMLFieldName: name}
		if err := store.PutXmlFieldMap(ctx, m); err != nil {
			return err
		}
	}
	for _, entry := range mainFormXMLFields {
		field := entry.field
		m := domain.XmlFieldMap{FormCode: formCode, ApplicationCode: applicationCode, LogicalField: &field, XMLFieldName: entry.xmlName}
		if err := store.PutXmlFieldMap(ctx, m); err != nil {
			return err
		}
	}
	return nil
}
