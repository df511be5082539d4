package domain

import "github.com/shopspring/decimal"

// ActionKind enumerates the four action variants a rule's Actions may hold
// (§4.F, §9).
type ActionKind string

const (
	ActionExclude ActionKind = "exclude"
	ActionMap     ActionKind = "map"
	ActionCalc    ActionKind = "calc"
	ActionFlag    ActionKind = "flag"
)

// AmountSourceKind selects where a Map action reads its raw amount from
// before multiplier/rounding are applied.
type AmountSourceKind string

const (
	AmountFromEvent    AmountSourceKind = "event_amount" // default: event.amount
	AmountFromMetadata AmountSourceKind = "metadata"      // event.metadata.<key>
	AmountFixed        AmountSourceKind = "fixed"          // a literal number on the action
)

// Action is the decoded, tagged-variant form of one rule action. Exactly
// one field set is meaningful, selected by Kind.
type Action struct {
	Kind ActionKind `json:"kind"`

	// Map fields.
	Target       string           `json:"target,omitempty"` // logical field written/added to
	AmountSource AmountSourceKind `json:"amount_source,omitempty"`
	MetadataKey  string           `json:"metadata_key,omitempty"`
	FixedAmount  *decimal.Decimal `json:"fixed_amount,omitempty"`
	Multiplier   *decimal.Decimal `json:"multiplier,omitempty"`
	Round        *int32           `json:"round,omitempty"`

	// Calc fields.
	Formula Formula          `json:"formula,omitempty"`
	Min     *decimal.Decimal `json:"min,omitempty"`
	Max     *decimal.Decimal `json:"max,omitempty"`

	// Flag fields (also reachable inline from a Map action, §4.F phase 2).
	Set map[string]bool `json:"set,omitempty"`
}
