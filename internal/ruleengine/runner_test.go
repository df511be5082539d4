package ruleengine

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/form270/declare/internal/domain"
)

func amt(f float64) *decimal.Decimal {
	d := decimal.NewFromFloat(f)
	return &d
}

func ev(id, eventType string, amount float64) domain.TaxEvent {
	return domain.TaxEvent{ID: id, EventTypeCode: eventType, EventDate: "2025-01-01", Amount: amt(amount), TaxYear: 2025}
}

func mapRule(id, eventType, target string) domain.Rule {
	return domain.Rule{
		ID:         id,
		Kind:       domain.RuleMapping,
		Conditions: domain.Condition{Field: "event.event_type", Op: domain.OpEq, Value: eventType},
		Actions:    []domain.Action{{Kind: domain.ActionMap, Target: target, AmountSource: domain.AmountFromEvent}},
	}
}

func knownTypes(codes ...string) map[string]bool {
	m := map[string]bool{}
	for _, c := range codes {
		m[c] = true
	}
	return m
}

func TestRun_RejectsEmptyEventsWithoutAllowEmpty(t *testing.T) {
	_, err := Run(nil, RuleSet{KnownEventTypes: knownTypes()}, Options{})
	if err == nil {
		t.Fatalf("expected error for empty event set")
	}
}

func TestRun_AllowEmptyPermitsZeroEvents(t *testing.T) {
	ctx, err := Run(nil, RuleSet{KnownEventTypes: knownTypes()}, Options{AllowEmpty: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if ctx.Stats.EventsProcessed != 0 {
		t.Errorf("expected 0 events processed")
	}
}

func TestRun_UnknownEventTypeIsConflict(t *testing.T) {
	events := []domain.TaxEvent{ev("e1", "EV_UNKNOWN", 100)}
	_, err := Run(events, RuleSet{KnownEventTypes: knownTypes()}, Options{})
	if err == nil {
		t.Fatalf("expected conflict error for unknown event type")
	}
}

func TestRun_FullPipeline_RentIncomeToIPNPayable(t *testing.T) {
	events := []domain.TaxEvent{ev("e1", domain.EVRentNonAgent, 1000000)}
	rules := RuleSet{
		Mapping:         []domain.Rule{mapRule("r1", domain.EVRentNonAgent, domain.LFIncomeRentNonAgent)},
		KnownEventTypes: knownTypes(domain.EVRentNonAgent),
	}
	ctx, err := Run(events, rules, Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got := ctx.FieldValues[domain.LFIncomeRentNonAgent]; !got.Equal(decimal.NewFromInt(1000000)) {
		t.Errorf("rent field = %s, want 1000000", got)
	}
	if got := ctx.FieldValues[domain.LFIncomeTotal]; !got.Equal(decimal.NewFromInt(1000000)) {
		t.Errorf("income total = %s, want 1000000 (phase 3 base total)", got)
	}
	if got := ctx.FieldValues[domain.LFTaxableIncome]; !got.Equal(decimal.NewFromInt(1000000)) {
		t.Errorf("taxable income = %s, want 1000000 (phase 5 derived total)", got)
	}
	if got := ctx.FieldValues[domain.LFIPNCalculated]; !got.Equal(decimal.NewFromInt(100000)) {
		t.Errorf("ipn calculated = %s, want 100000 (10%%)", got)
	}
	if got := ctx.FieldValues[domain.LFIPNPayable]; !got.Equal(decimal.NewFromInt(100000)) {
		t.Errorf("ipn payable = %s, want 100000", got)
	}
	if !ctx.Flags["has_income"] {
		t.Errorf("expected has_income flag")
	}
	if !ctx.Flags["pril_1"] {
		t.Errorf("expected pril_1 flag for non-agent rent income")
	}
	if ctx.Flags["has_foreign_income"] {
		t.Errorf("did not expect has_foreign_income")
	}
}

func TestRun_ExclusionStopsMapping(t *testing.T) {
	events := []domain.TaxEvent{ev("e1", domain.EVRentNonAgent, 500)}
	rules := RuleSet{
		Exclusion:       []domain.Rule{{ID: "x1", Kind: domain.RuleExclusion, Conditions: domain.Condition{Always: true}}},
		Mapping:         []domain.Rule{mapRule("r1", domain.EVRentNonAgent, domain.LFIncomeRentNonAgent)},
		KnownEventTypes: knownTypes(domain.EVRentNonAgent),
	}
	ctx, err := Run(events, rules, Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !ctx.ExcludedEventIDs["e1"] {
		t.Errorf("expected e1 to be excluded")
	}
	if _, present := ctx.FieldValues[domain.LFIncomeRentNonAgent]; present {
		t.Errorf("excluded event should not have been mapped")
	}
	if ctx.Stats.EventsExcluded != 1 {
		t.Errorf("events_excluded = %d, want 1", ctx.Stats.EventsExcluded)
	}
}

func TestRun_ForeignIncomeSetsFlagsAndAppendix(t *testing.T) {
	events := []domain.TaxEvent{ev("e1", domain.EVForeignDividends, 50000)}
	rules := RuleSet{
		Mapping:         []domain.Rule{mapRule("r1", domain.EVForeignDividends, domain.LFIncomeForeignDividends)},
		KnownEventTypes: knownTypes(domain.EVForeignDividends),
	}
	ctx, err := Run(events, rules, Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !ctx.Flags["has_foreign_income"] || !ctx.Flags["pril_2"] {
		t.Errorf("expected has_foreign_income and pril_2 flags set")
	}
}

func TestRun_BaseTotalNotOverwrittenWhenAlreadySet(t *testing.T) {
	events := []domain.TaxEvent{ev("e1", domain.EVRentNonAgent, 1000)}
	presetRule := domain.Rule{
		ID:         "preset",
		Kind:       domain.RuleMapping,
		Priority:   0,
		Conditions: domain.Condition{Always: true},
		Actions: []domain.Action{{
			Kind: domain.ActionMap, Target: domain.LFIncomeTotal,
			AmountSource: domain.AmountFixed, FixedAmount: decPtr(999),
		}},
	}
	rules := RuleSet{
		Mapping:         []domain.Rule{presetRule, mapRule("r1", domain.EVRentNonAgent, domain.LFIncomeRentNonAgent)},
		KnownEventTypes: knownTypes(domain.EVRentNonAgent),
	}
	ctx, err := Run(events, rules, Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := ctx.FieldValues[domain.LFIncomeTotal]; !got.Equal(decimal.NewFromInt(999)) {
		t.Errorf("LF_INCOME_TOTAL should not be overwritten by phase 3, got %s", got)
	}
}

func decPtr(f float64) *decimal.Decimal {
	d := decimal.NewFromFloat(f)
	return &d
}
