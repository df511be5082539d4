package ruleengine

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/form270/declare/internal/condition"
	"github.com/form270/declare/internal/declerr"
	"github.com/form270/declare/internal/domain"
	"github.com/form270/declare/internal/formula"
	"github.com/form270/declare/internal/money"
)

// RuleSet is the complete, pre-fetched snapshot of active rules a run
// needs, split by kind and already ordered (priority asc, created_at asc)
// by the caller (typically internal/catalog.Store.ActiveRules). The
// runner itself performs no IO — per §5, its inputs are snapshots taken
// before execution, and no suspension point exists inside a run.
type RuleSet struct {
	Exclusion   []domain.Rule
	Mapping     []domain.Rule
	Calculation []domain.Rule
	Flag        []domain.Rule
	// KnownEventTypes is the full seeded event-type vocabulary; an event
	// whose code is absent is a structural Conflict (§4.B, Open Question (b)).
	KnownEventTypes map[string]bool
}

// Options tunes one engine run (§4.F "Failure semantics").
type Options struct {
	// AllowEmpty permits a run over zero events; otherwise an empty event
	// set fails early.
	AllowEmpty bool
}

// Run executes the seven phases over the given events against
// a pre-fetched rule snapshot. events must already be ordered by
// event_date (the caller's responsibility, per §4.F "Ordering guarantees").
func Run(events []domain.TaxEvent, rules RuleSet, opts Options) (*Context, error) {
	if len(events) == 0 && !opts.AllowEmpty {
		return nil, declerr.Unprocessable("ruleengine.Run", "no events for taxpayer-year and allow_empty was not set")
	}

	for _, ev := range events {
		if !rules.KnownEventTypes[ev.EventTypeCode] {
			return nil, declerr.Conflict("ruleengine.Run", fmt.Sprintf("unknown event_type %q referenced by event %s", ev.EventTypeCode, ev.ID))
		}
	}

	ctx := newContext()
	ctx.Stats.EventsProcessed = len(events)

	runExclusion(ctx, events, rules.Exclusion)
	runMapping(ctx, events, rules.Mapping)
	runBaseTotals(ctx)
	runCalculations(ctx, rules.Calculation)
	runDerivedTotals(ctx)
	runConditionalFlags(ctx, rules.Flag)
	runAutoFlags(ctx)

	return ctx, nil
}

// runExclusion is phase 1: the first matching exclusion rule, in rule
// order, marks an event excluded and stops further checks for it.
func runExclusion(ctx *Context, events []domain.TaxEvent, rules []domain.Rule) {
	for _, ev := range events {
		for _, rule := range rules {
			if condition.Match(rule.Conditions, ev) {
				ctx.ExcludedEventIDs[ev.ID] = true
				ctx.Stats.EventsExcluded++
				ctx.Stats.RulesMatched++
				break
			}
		}
	}
}

// runMapping is phase 2: for each non-excluded event in event order, scan
// mapping rules in rule order and fire every matching rule's actions.
func runMapping(ctx *Context, events []domain.TaxEvent, rules []domain.Rule) {
	for _, ev := range events {
		if ctx.ExcludedEventIDs[ev.ID] {
			continue
		}
		for _, rule := range rules {
			if !condition.Match(rule.Conditions, ev) {
				continue
			}
			ctx.Stats.RulesMatched++
			for _, action := range rule.Actions {
				applyMappingAction(ctx, ev, rule, action)
			}
		}
	}
}

func applyMappingAction(ctx *Context, ev domain.TaxEvent, rule domain.Rule, action domain.Action) {
	switch action.Kind {
	case domain.ActionMap:
		amount, err := resolveMapAmount(ev, action)
		if err != nil {
			ctx.Errors = append(ctx.Errors, EngineErr{RuleID: rule.ID, EventID: ev.ID, Message: err.Error()})
			return
		}
		if action.Target == "" {
			ctx.Errors = append(ctx.Errors, EngineErr{RuleID: rule.ID, EventID: ev.ID, Message: "map action has no target logical field"})
			return
		}
		ctx.FieldValues[action.Target] = ctx.FieldValues[action.Target].Add(amount)
		ctx.Mappings = append(ctx.Mappings, Mapping{
			TaxEventID:   ev.ID,
			TaxYear:      ev.TaxYear,
			LogicalField: action.Target,
			Amount:       amount,
			RuleID:       rule.ID,
		})
		ctx.Stats.MappingsCreated++
	case domain.ActionFlag:
		applyFlagAction(ctx, action)
	default:
		ctx.Errors = append(ctx.Errors, EngineErr{RuleID: rule.ID, EventID: ev.ID, Message: fmt.Sprintf("action kind %q not valid in a mapping rule", action.Kind)})
	}
}

func applyFlagAction(ctx *Context, action domain.Action) {
	for k, v := range action.Set {
		ctx.Flags[k] = v
	}
}

// resolveMapAmount computes a map action's contributed amount: the source
// value, times multiplier (if set), optionally rounded (§4.F phase 2).
func resolveMapAmount(ev domain.TaxEvent, action domain.Action) (decimal.Decimal, error) {
	var base decimal.Decimal
	switch action.AmountSource {
	case domain.AmountFromMetadata:
		v, ok := ev.MetaLookup(action.MetadataKey)
		if !ok {
			return decimal.Zero, fmt.Errorf("metadata key %q not present on event", action.MetadataKey)
		}
		d, err := toDecimal(v)
		if err != nil {
			return decimal.Zero, fmt.Errorf("metadata key %q: %w", action.MetadataKey, err)
		}
		base = d
	case domain.AmountFixed:
		if action.FixedAmount == nil {
			return decimal.Zero, fmt.Errorf("amount_source fixed but no fixed_amount set")
		}
		base = *action.FixedAmount
	default: // AmountFromEvent, and the empty/zero value
		base = ev.AmountOrZero()
	}

	if action.Multiplier != nil {
		base = base.Mul(*action.Multiplier)
	}
	if action.Round != nil {
		base = money.RoundTo(base, *action.Round)
	}
	return base, nil
}

func toDecimal(v any) (decimal.Decimal, error) {
	switch t := v.(type) {
	case decimal.Decimal:
		return t, nil
	case string:
		return decimal.NewFromString(t)
	case float64:
		return decimal.NewFromFloat(t), nil
	case int:
		return decimal.NewFromInt(int64(t)), nil
	default:
		return decimal.Zero, fmt.Errorf("value %v is not numeric", v)
	}
}

// runBaseTotals is phase 3: the fixed closed set of subtotal fields,
// computed only when not already present and only when positive (§4.F).
func runBaseTotals(ctx *Context) {
	setIfAbsentAndPositive(ctx, domain.LFIncomePropertyTotal, sumFields(ctx, domain.PropertyFields))
	setIfAbsentAndPositive(ctx, domain.LFIncomeForeignTotal, sumFields(ctx, domain.ForeignIncomeFields))
	setIfAbsentAndPositive(ctx, domain.LFDeductionTotal, sumFields(ctx, domain.DeductionFields))
	setIfAbsentAndPositive(ctx, domain.LFAdjustmentTotal, sumFields(ctx, domain.AdjustmentFields))
	setIfAbsentAndPositive(ctx, domain.LFIncomeTotal, sumFields(ctx, domain.PrimaryIncomeFields()))
}

func sumFields(ctx *Context, codes []string) decimal.Decimal {
	sum := decimal.Zero
	for _, c := range codes {
		sum = sum.Add(ctx.FieldValues[c])
	}
	return sum
}

func setIfAbsentAndPositive(ctx *Context, code string, value decimal.Decimal) {
	if _, present := ctx.FieldValues[code]; present {
		return
	}
	if value.GreaterThan(decimal.Zero) {
		ctx.FieldValues[code] = value
	}
}

// runCalculations is phase 4: calc actions evaluate against current
// field_values and overwrite their target, in rule order.
func runCalculations(ctx *Context, rules []domain.Rule) {
	for _, rule := range rules {
		for _, action := range rule.Actions {
			if action.Kind != domain.ActionCalc || action.Target == "" {
				continue
			}
			value := formula.Eval(action.Formula, formula.FieldMap(ctx.FieldValues))
			if action.Round != nil {
				value = money.RoundTo(value, *action.Round)
			}
			if action.Min != nil {
				value = money.Max(value, *action.Min)
			}
			if action.Max != nil {
				value = money.Min(value, *action.Max)
			}
			ctx.FieldValues[action.Target] = value
			ctx.Calculations = append(ctx.Calculations, Calculation{LogicalField: action.Target, Value: value, RuleID: rule.ID})
			ctx.Stats.RulesMatched++
		}
	}
}

// runDerivedTotals is phase 5: the three derived totals, computed when
// missing or zero (§4.F).
func runDerivedTotals(ctx *Context) {
	if money.IsZeroOrNil(fieldPtr(ctx, domain.LFTaxableIncome)) {
		income := ctx.FieldValues[domain.LFIncomeTotal]
		adjustment := ctx.FieldValues[domain.LFAdjustmentTotal]
		deduction := ctx.FieldValues[domain.LFDeductionTotal]
		ctx.FieldValues[domain.LFTaxableIncome] = money.MaxWithFloor(income.Sub(adjustment).Sub(deduction))
	}
	if money.IsZeroOrNil(fieldPtr(ctx, domain.LFIPNCalculated)) {
		taxable := ctx.FieldValues[domain.LFTaxableIncome]
		rate := decimal.NewFromFloat(0.10)
		ctx.FieldValues[domain.LFIPNCalculated] = money.RoundTo(taxable.Mul(rate), 0)
	}
	if money.IsZeroOrNil(fieldPtr(ctx, domain.LFIPNPayable)) {
		calculated := ctx.FieldValues[domain.LFIPNCalculated]
		creditGeneral := ctx.FieldValues[domain.LFForeignTaxCreditGeneral]
		creditCFC := ctx.FieldValues[domain.LFForeignTaxCreditCFC]
		ctx.FieldValues[domain.LFIPNPayable] = money.MaxWithFloor(calculated.Sub(creditGeneral).Sub(creditCFC))
	}
}

func fieldPtr(ctx *Context, code string) *decimal.Decimal {
	if v, ok := ctx.FieldValues[code]; ok {
		return &v
	}
	return nil
}

// runConditionalFlags is phase 6: flag rules whose conditions match the
// current field_values apply their set merge.
func runConditionalFlags(ctx *Context, rules []domain.Rule) {
	for _, rule := range rules {
		if !condition.MatchFields(rule.Conditions, ctx.FieldValues) {
			continue
		}
		ctx.Stats.RulesMatched++
		for _, action := range rule.Actions {
			if action.Kind == domain.ActionFlag {
				applyFlagAction(ctx, action)
			}
		}
	}
}

// runAutoFlags is phase 7: the closed set of presentation flags derived
// from field totals (§4.F).
func runAutoFlags(ctx *Context) {
	income := ctx.FieldValues[domain.LFIncomeTotal]
	foreign := ctx.FieldValues[domain.LFIncomeForeignTotal]
	cfc := ctx.FieldValues[domain.LFIncomeCFCProfit]
	deduction := ctx.FieldValues[domain.LFDeductionTotal]

	ctx.Flags["has_income"] = income.GreaterThan(decimal.Zero)

	if foreign.GreaterThan(decimal.Zero) {
		ctx.Flags["has_foreign_income"] = true
		ctx.Flags["pril_2"] = true
	}
	if cfc.GreaterThan(decimal.Zero) {
		ctx.Flags["has_cfc"] = true
		ctx.Flags["pril_3"] = true
	}
	ctx.Flags["has_deductions"] = deduction.GreaterThan(decimal.Zero)

	nonAgentPositive := ctx.FieldValues[domain.LFIncomePropertyTotal].GreaterThan(decimal.Zero) ||
		ctx.FieldValues[domain.LFIncomeRentNonAgent].GreaterThan(decimal.Zero) ||
		ctx.FieldValues[domain.LFIncomeDomesticOther].GreaterThan(decimal.Zero)
	ctx.Flags["pril_1"] = nonAgentPositive
}
