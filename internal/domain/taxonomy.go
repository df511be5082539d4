package domain

// Taxonomy constants for the closed set of logical fields and event-type
// codes the base-totals and derived-totals phases of the rule engine
// (§4.F phases 3 and 5) are defined over. These are the seed vocabulary;
// anything not listed here is either seeded separately as a catalog row or,
// if referenced by an event but unknown to the catalog, rejected as a
// structural Conflict at §4.B.
const (
	// Property-sale fields (three), summed into LFIncomePropertyTotal.
	LFIncomePropertyKZ     = "LF_INCOME_PROPERTY_KZ"
	LFIncomePropertyAbroad = "LF_INCOME_PROPERTY_ABROAD"
	LFIncomePropertyOther  = "LF_INCOME_PROPERTY_OTHER"
	LFIncomePropertyTotal  = "LF_INCOME_PROPERTY_TOTAL"

	// Foreign-income fields (nine), summed into LFIncomeForeignTotal.
	LFIncomeForeignDividends    = "LF_INCOME_FOREIGN_DIVIDENDS"
	LFIncomeForeignInterest     = "LF_INCOME_FOREIGN_INTEREST"
	LFIncomeForeignRoyalty      = "LF_INCOME_FOREIGN_ROYALTY"
	LFIncomeForeignEmployment   = "LF_INCOME_FOREIGN_EMPLOYMENT"
	LFIncomeForeignPension      = "LF_INCOME_FOREIGN_PENSION"
	LFIncomeForeignPropertySale = "LF_INCOME_FOREIGN_PROPERTY_SALE"
	LFIncomeForeignSecurities   = "LF_INCOME_FOREIGN_SECURITIES"
	LFIncomeForeignBusiness     = "LF_INCOME_FOREIGN_BUSINESS"
	LFIncomeForeignOther        = "LF_INCOME_FOREIGN_OTHER"
	LFIncomeForeignTotal        = "LF_INCOME_FOREIGN_TOTAL"

	// Six non-agent domestic income categories.
	LFIncomeDomesticSalaryNonAgent = "LF_INCOME_DOMESTIC_SALARY_NONAGENT"
	LFIncomeDomesticRoyalty        = "LF_INCOME_DOMESTIC_ROYALTY"
	LFIncomeDomesticInterest       = "LF_INCOME_DOMESTIC_INTEREST"
	LFIncomeDomesticWinning        = "LF_INCOME_DOMESTIC_WINNING"
	LFIncomeDomesticOtherProperty  = "LF_INCOME_DOMESTIC_OTHER_PROPERTY"
	LFIncomeDomesticOther          = "LF_INCOME_DOMESTIC_OTHER"

	// Remaining primary income categories.
	LFIncomeRentNonAgent  = "LF_INCOME_RENT_NONAGENT"
	LFIncomeAssignment    = "LF_INCOME_ASSIGNMENT"
	LFIncomeIPOtherAssets = "LF_INCOME_IP_OTHER_ASSETS"
	LFIncomeCFCProfit     = "LF_INCOME_CFC_PROFIT"

	LFIncomeTotal = "LF_INCOME_TOTAL"

	// Deductions.
	LFDeductionStandard = "LF_DEDUCTION_STANDARD"
	LFDeductionOther    = "LF_DEDUCTION_OTHER"
	LFDeductionTotal    = "LF_DEDUCTION_TOTAL"

	// Adjustments (four).
	LFAdjustmentPension   = "LF_ADJUSTMENT_PENSION"
	LFAdjustmentInsurance = "LF_ADJUSTMENT_INSURANCE"
	LFAdjustmentMedical   = "LF_ADJUSTMENT_MEDICAL"
	LFAdjustmentOther     = "LF_ADJUSTMENT_OTHER"
	LFAdjustmentTotal     = "LF_ADJUSTMENT_TOTAL"

	// Foreign tax credits.
	LFForeignTaxCreditGeneral = "LF_FOREIGN_TAX_CREDIT_GENERAL"
	LFForeignTaxCreditCFC     = "LF_FOREIGN_TAX_CREDIT_CFC"

	// Derived totals (§4.F phase 5).
	LFTaxableIncome = "LF_TAXABLE_INCOME"
	LFIPNCalculated = "LF_IPN_CALCULATED"
	LFIPNPayable    = "LF_IPN_PAYABLE"
)

// PropertyFields are the three fields summed into LFIncomePropertyTotal.
var PropertyFields = []string{LFIncomePropertyKZ, LFIncomePropertyAbroad, LFIncomePropertyOther}

// ForeignIncomeFields are the nine fields summed into LFIncomeForeignTotal.
var ForeignIncomeFields = []string{
	LFIncomeForeignDividends, LFIncomeForeignInterest, LFIncomeForeignRoyalty,
	LFIncomeForeignEmployment, LFIncomeForeignPension, LFIncomeForeignPropertySale,
	LFIncomeForeignSecurities, LFIncomeForeignBusiness, LFIncomeForeignOther,
}

// DeductionFields are summed into LFDeductionTotal.
var DeductionFields = []string{LFDeductionStandard, LFDeductionOther}

// AdjustmentFields are the four fields summed into LFAdjustmentTotal.
var AdjustmentFields = []string{LFAdjustmentPension, LFAdjustmentInsurance, LFAdjustmentMedical, LFAdjustmentOther}

// DomesticNonAgentFields are the six non-agent domestic income categories.
var DomesticNonAgentFields = []string{
	LFIncomeDomesticSalaryNonAgent, LFIncomeDomesticRoyalty, LFIncomeDomesticInterest,
	LFIncomeDomesticWinning, LFIncomeDomesticOtherProperty, LFIncomeDomesticOther,
}

// PrimaryIncomeFields are the twelve fields summed into LFIncomeTotal (§8.2):
// property-total, rent-non-agent, assignment, IP-other-assets, foreign-total,
// the six domestic non-agent categories, and CFC profit.
func PrimaryIncomeFields() []string {
	fields := []string{LFIncomePropertyTotal, LFIncomeRentNonAgent, LFIncomeAssignment, LFIncomeIPOtherAssets, LFIncomeForeignTotal}
	fields = append(fields, DomesticNonAgentFields...)
	fields = append(fields, LFIncomeCFCProfit)
	return fields
}

// Event-type codes, one per mappable income/deduction/adjustment/credit
// category, plus a generic fallback the bank parser uses when it cannot
// infer a more specific category (§4.A).
const (
	EVPropertySaleKZ         = "EV_PROPERTY_SALE_KZ"
	EVPropertySaleAbroad     = "EV_PROPERTY_SALE_ABROAD"
	EVPropertySaleOther      = "EV_PROPERTY_SALE_OTHER"
	EVForeignDividends       = "EV_FOREIGN_DIVIDENDS"
	EVForeignInterest        = "EV_FOREIGN_INTEREST"
	EVForeignRoyalty         = "EV_FOREIGN_ROYALTY"
	EVForeignEmployment      = "EV_FOREIGN_EMPLOYMENT"
	EVForeignPension         = "EV_FOREIGN_PENSION"
	EVForeignPropertySale    = "EV_FOREIGN_PROPERTY_SALE"
	EVForeignSecurities      = "EV_FOREIGN_SECURITIES"
	EVForeignBusiness        = "EV_FOREIGN_BUSINESS"
	EVForeignOther           = "EV_FOREIGN_OTHER"
	EVRentNonAgent           = "EV_RENT_NONAGENT"
	EVAssignment             = "EV_ASSIGNMENT"
	EVIPOtherAssets          = "EV_IP_OTHER_ASSETS"
	EVCFCProfit              = "EV_CFC_PROFIT"
	EVDomesticSalaryNonAgent = "EV_DOMESTIC_SALARY_NONAGENT"
	EVDomesticRoyalty        = "EV_DOMESTIC_ROYALTY"
	EVDomesticInterest       = "EV_DOMESTIC_INTEREST"
	EVDomesticWinning        = "EV_DOMESTIC_WINNING"
	EVDomesticOtherProperty  = "EV_DOMESTIC_OTHER_PROPERTY"
	EVDomesticOther          = "EV_DOMESTIC_OTHER"
	EVDeductionStandard      = "EV_DEDUCTION_STANDARD"
	EVDeductionOther         = "EV_DEDUCTION_OTHER"
	EVAdjustmentPension      = "EV_ADJUSTMENT_PENSION"
	EVAdjustmentInsurance    = "EV_ADJUSTMENT_INSURANCE"
	EVAdjustmentMedical      = "EV_ADJUSTMENT_MEDICAL"
	EVAdjustmentOther        = "EV_ADJUSTMENT_OTHER"
	EVForeignTaxPaidGeneral  = "EV_FOREIGN_TAX_PAID_GENERAL"
	EVForeignTaxPaidCFC      = "EV_FOREIGN_TAX_PAID_CFC"
	// EVNonAgentOther is the bank parser's fallback when no more specific
	// category can be inferred from the transaction description (§4.A).
	EVNonAgentOther          = "EV_NONAGENT_OTHER"
)
