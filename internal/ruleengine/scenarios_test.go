package ruleengine

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/form270/declare/internal/domain"
)

// TestScenario_S1_ForeignDividendsOnly is the literal S1 end-to-end
// scenario: a single foreign-dividend event flows through base totals,
// derived totals, and the auto-flag phase unchanged.
func TestScenario_S1_ForeignDividendsOnly(t *testing.T) {
	events := []domain.TaxEvent{ev("e1", domain.EVForeignDividends, 500000)}
	rules := RuleSet{
		Mapping:         []domain.Rule{mapRule("r1", domain.EVForeignDividends, domain.LFIncomeForeignDividends)},
		KnownEventTypes: knownTypes(domain.EVForeignDividends),
	}

	ctx, err := Run(events, rules, Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	wantFields := map[string]int64{
		domain.LFIncomeForeignDividends: 500000,
		domain.LFIncomeForeignTotal:     500000,
		domain.LFIncomeTotal:            500000,
		domain.LFTaxableIncome:          500000,
		domain.LFIPNCalculated:          50000,
		domain.LFIPNPayable:             50000,
	}
	for field, want := range wantFields {
		if got := ctx.FieldValues[field]; !got.Equal(decimal.NewFromInt(want)) {
			t.Errorf("%s = %s, want %d", field, got, want)
		}
	}
	for _, flag := range []string{"has_income", "has_foreign_income", "pril_2"} {
		if !ctx.Flags[flag] {
			t.Errorf("expected flag %s set", flag)
		}
	}
}

// TestScenario_S2_ForeignCreditWipesIPN extends S1 with a matching foreign
// tax credit that reduces the payable amount to zero.
func TestScenario_S2_ForeignCreditWipesIPN(t *testing.T) {
	events := []domain.TaxEvent{
		ev("e1", domain.EVForeignDividends, 500000),
		ev("e2", domain.EVForeignTaxPaidGeneral, 50000),
	}
	rules := RuleSet{
		Mapping: []domain.Rule{
			mapRule("r1", domain.EVForeignDividends, domain.LFIncomeForeignDividends),
			mapRule("r2", domain.EVForeignTaxPaidGeneral, domain.LFForeignTaxCreditGeneral),
		},
		KnownEventTypes: knownTypes(domain.EVForeignDividends, domain.EVForeignTaxPaidGeneral),
	}

	ctx, err := Run(events, rules, Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got := ctx.FieldValues[domain.LFForeignTaxCreditGeneral]; !got.Equal(decimal.NewFromInt(50000)) {
		t.Errorf("LF_FOREIGN_TAX_CREDIT_GENERAL = %s, want 50000", got)
	}
	if got := ctx.FieldValues[domain.LFIPNPayable]; !got.Equal(decimal.Zero) {
		t.Errorf("LF_IPN_PAYABLE = %s, want 0", got)
	}
}

// TestScenario_S3_PropertySalePlusDeduction is the literal S3 scenario: a
// property sale and a standard deduction combine into a reduced taxable
// income, with the non-agent appendix flag set.
func TestScenario_S3_PropertySalePlusDeduction(t *testing.T) {
	events := []domain.TaxEvent{
		ev("e1", domain.EVPropertySaleKZ, 1000000),
		ev("e2", domain.EVDeductionStandard, 200000),
	}
	rules := RuleSet{
		Mapping: []domain.Rule{
			mapRule("r1", domain.EVPropertySaleKZ, domain.LFIncomePropertyKZ),
			mapRule("r2", domain.EVDeductionStandard, domain.LFDeductionStandard),
		},
		KnownEventTypes: knownTypes(domain.EVPropertySaleKZ, domain.EVDeductionStandard),
	}

	ctx, err := Run(events, rules, Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	wantFields := map[string]int64{
		domain.LFIncomePropertyKZ:    1000000,
		domain.LFIncomePropertyTotal: 1000000,
		domain.LFDeductionStandard:   200000,
		domain.LFDeductionTotal:      200000,
		domain.LFTaxableIncome:       800000,
		domain.LFIPNCalculated:       80000,
	}
	for field, want := range wantFields {
		if got := ctx.FieldValues[field]; !got.Equal(decimal.NewFromInt(want)) {
			t.Errorf("%s = %s, want %d", field, got, want)
		}
	}
	if !ctx.Flags["pril_1"] {
		t.Errorf("expected pril_1 flag for non-agent property income")
	}
}

// TestProperty_SumConsistency checks invariant 2: LF_INCOME_TOTAL equals
// the sum of the twelve primary income category fields.
func TestProperty_SumConsistency(t *testing.T) {
	events := []domain.TaxEvent{
		ev("e1", domain.EVPropertySaleKZ, 1000000),
		ev("e2", domain.EVRentNonAgent, 300000),
	}
	rules := RuleSet{
		Mapping: []domain.Rule{
			mapRule("r1", domain.EVPropertySaleKZ, domain.LFIncomePropertyKZ),
			mapRule("r2", domain.EVRentNonAgent, domain.LFIncomeRentNonAgent),
		},
		KnownEventTypes: knownTypes(domain.EVPropertySaleKZ, domain.EVRentNonAgent),
	}

	ctx, err := Run(events, rules, Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	sum := decimal.Zero
	for _, field := range domain.PrimaryIncomeFields() {
		sum = sum.Add(ctx.FieldValues[field])
	}
	if got := ctx.FieldValues[domain.LFIncomeTotal]; !got.Equal(sum) {
		t.Errorf("LF_INCOME_TOTAL = %s, want sum of primary income fields %s", got, sum)
	}
}

// TestProperty_TaxableIncomeNeverNegative checks invariant 3: deductions
// larger than income floor taxable income at zero rather than going
// negative.
func TestProperty_TaxableIncomeNeverNegative(t *testing.T) {
	events := []domain.TaxEvent{
		ev("e1", domain.EVRentNonAgent, 100000),
		ev("e2", domain.EVDeductionStandard, 900000),
	}
	rules := RuleSet{
		Mapping: []domain.Rule{
			mapRule("r1", domain.EVRentNonAgent, domain.LFIncomeRentNonAgent),
			mapRule("r2", domain.EVDeductionStandard, domain.LFDeductionStandard),
		},
		KnownEventTypes: knownTypes(domain.EVRentNonAgent, domain.EVDeductionStandard),
	}

	ctx, err := Run(events, rules, Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if ctx.FieldValues[domain.LFTaxableIncome].IsNegative() {
		t.Errorf("LF_TAXABLE_INCOME = %s, must never be negative", ctx.FieldValues[domain.LFTaxableIncome])
	}
	if got := ctx.FieldValues[domain.LFIPNPayable]; !got.Equal(decimal.Zero) {
		t.Errorf("LF_IPN_PAYABLE = %s, want 0 when taxable income floors at 0", got)
	}
}

// TestProperty_IPNFormula checks invariant 4 directly on a taxable income of
// 1,234,567, where the 10% product has a fractional part to round.
func TestProperty_IPNFormula(t *testing.T) {
	events := []domain.TaxEvent{ev("e1", domain.EVRentNonAgent, 1234567)}
	rules := RuleSet{
		Mapping:         []domain.Rule{mapRule("r1", domain.EVRentNonAgent, domain.LFIncomeRentNonAgent)},
		KnownEventTypes: knownTypes(domain.EVRentNonAgent),
	}

	ctx, err := Run(events, rules, Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := ctx.FieldValues[domain.LFTaxableIncome].Mul(decimal.NewFromFloat(0.10)).Round(0)
	if got := ctx.FieldValues[domain.LFIPNCalculated]; !got.Equal(want) {
		t.Errorf("LF_IPN_CALCULATED = %s, want round(taxable * 0.10) = %s", got, want)
	}
}
