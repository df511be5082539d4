package domain

import "time"

// EventTypeCode is a reference entry in the event-type vocabulary; the code
// matches EV_[A-Z_]+.
type EventTypeCode struct {
	Code        string
	Description string
}

// LogicalField is a reference entry for one computable slot in the
// declaration; the code matches LF_[A-Z_]+.
type LogicalField struct {
	Code        string
	Description string
}

// RuleKind distinguishes the four kinds of rule the engine interprets.
type RuleKind string

const (
	RuleExclusion   RuleKind = "exclusion"
	RuleMapping     RuleKind = "mapping"
	RuleCalculation RuleKind = "calculation"
	RuleFlag        RuleKind = "flag"
)

// Rule is one data-driven record in the catalog (§3, §4.C). Conditions and
// Actions are the tagged-variant types defined in this package's
// condition.go and action.go respectively; they are stored here as the
// already-decoded variant (never as an open map), per spec.md §9.
type Rule struct {
	ID         string
	RuleCode   string
	TaxYear    *int // nil = applicable to any year
	Kind       RuleKind
	Conditions Condition
	Actions    []Action
	Priority   int
	Active     bool
	CreatedAt  time.Time
}

// AppliesToYear reports whether the rule is in scope for the given tax year.
func (r Rule) AppliesToYear(year int) bool {
	return r.TaxYear == nil || *r.TaxYear == year
}

// XmlFieldMap binds one logical field (or, when nil, a header attribute) to
// an XML element name within a form/application pair. Unique per (form,
// application, xml_field_name).
type XmlFieldMap struct {
	FormCode        string
	ApplicationCode string
	LogicalField    *string
	XMLFieldName    string
}
