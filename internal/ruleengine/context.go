// Package ruleengine implements the seven-phase Rule Engine Runner of
// §4.F: the pure, deterministic interpreter that folds a taxpayer-year's
// tax events plus the active rule catalog into a logical-field amount map
// and a set of declaration flags.
package ruleengine

import (
	"github.com/shopspring/decimal"

	"github.com/form270/declare/internal/domain"
)

// Mapping records one firing of a `map` action (§4.F phase 2).
type Mapping struct {
	TaxEventID   string
	TaxYear      int
	LogicalField string
	Amount       decimal.Decimal
	RuleID       string
}

// Calculation records one firing of a `calc` action (§4.F phase 4).
type Calculation struct {
	LogicalField string
	Value        decimal.Decimal
	RuleID       string
}

// EngineErr is a non-fatal per-rule evaluation failure (§4.F, §7 RuleError).
type EngineErr struct {
	RuleID  string
	EventID string // empty when not event-scoped
	Message string
}

// Stats are the run's summary counters.
type Stats struct {
	EventsProcessed int
	EventsExcluded  int
	RulesMatched    int
	MappingsCreated int
}

// Context is the engine's accumulated state, returned to the caller after
// a run (§4.F "State").
type Context struct {
	FieldValues      map[string]decimal.Decimal
	Mappings         []Mapping
	Calculations     []Calculation
	Flags            map[string]bool
	ExcludedEventIDs map[string]bool
	Errors           []EngineErr
	Stats            Stats
}

func newContext() *Context {
	return &Context{
		FieldValues:      map[string]decimal.Decimal{},
		Flags:            map[string]bool{},
		ExcludedEventIDs: map[string]bool{},
	}
}
