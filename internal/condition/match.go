package condition

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/form270/declare/internal/domain"
)

// Match evaluates a decoded condition tree against a single tax event
// (§4.D). It never errors: an unknown operator or an unresolvable field
// simply evaluates to false, as spec.md requires.
func Match(c domain.Condition, event domain.TaxEvent) bool {
	switch {
	case c.Always:
		return true
	case c.All != nil:
		for _, sub := range c.All {
			if !Match(sub, event) {
				return false
			}
		}
		return true
	case c.Any != nil:
		for _, sub := range c.Any {
			if Match(sub, event) {
				return true
			}
		}
		return false
	default:
		return matchLeaf(c, event)
	}
}

func matchLeaf(c domain.Condition, event domain.TaxEvent) bool {
	value, present := resolveField(c.Field, event)
	return evalLeaf(c, value, present)
}

// MatchFields evaluates a decoded condition tree against a logical-field
// amount map, as phase 6 flag rules require (§4.F) — conditions there
// reference LF_* codes directly rather than event attributes. A field
// absent from fields resolves as not-present, exactly like a missing event
// attribute; it never errors.
func MatchFields(c domain.Condition, fields map[string]decimal.Decimal) bool {
	switch {
	case c.Always:
		return true
	case c.All != nil:
		for _, sub := range c.All {
			if !MatchFields(sub, fields) {
				return false
			}
		}
		return true
	case c.Any != nil:
		for _, sub := range c.Any {
			if MatchFields(sub, fields) {
				return true
			}
		}
		return false
	default:
		v, present := fields[c.Field]
		var value any
		if present {
			value = v.String()
		}
		return evalLeaf(c, value, present)
	}
}

func evalLeaf(c domain.Condition, value any, present bool) bool {
	switch c.Op {
	case domain.OpExists:
		return present
	case domain.OpNotExists:
		return !present
	case domain.OpEq:
		return present && equalLoose(value, c.Value)
	case domain.OpNeq:
		return !present || !equalLoose(value, c.Value)
	case domain.OpIn:
		return present && inList(value, c.Value)
	case domain.OpNotIn:
		return !present || !inList(value, c.Value)
	case domain.OpGt, domain.OpGte, domain.OpLt, domain.OpLte:
		return present && compareNumeric(value, c.Value, c.Op)
	case domain.OpContains:
		return present && strings.Contains(toStr(value), toStr(c.Value))
	case domain.OpStartsWith:
		return present && strings.HasPrefix(toStr(value), toStr(c.Value))
	case domain.OpEndsWith:
		return present && strings.HasSuffix(toStr(value), toStr(c.Value))
	default:
		return false
	}
}

// resolveField resolves "event.<attr>" (including dotted "event.metadata.x")
// against the event, returning (value, found). Metadata paths yield
// (nil, false) rather than erroring when missing, per §4.D.
func resolveField(field string, event domain.TaxEvent) (any, bool) {
	attr := strings.TrimPrefix(field, "event.")

	if attr == "metadata" || strings.HasPrefix(attr, "metadata.") {
		path := strings.TrimPrefix(attr, "metadata.")
		if attr == "metadata" {
			path = ""
		}
		return event.MetaLookup(path)
	}

	switch attr {
	case "event_type":
		return event.EventTypeCode, true
	case "amount":
		if event.Amount == nil {
			return nil, false
		}
		return event.AmountOrZero().String(), true
	case "currency":
		return event.Currency, true
	case "event_date":
		return event.EventDate, true
	case "tax_year":
		return event.TaxYear, true
	case "id":
		return event.ID, true
	case "source_record_id":
		return event.SourceRecord, true
	default:
		return nil, false
	}
}

func toStr(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case int:
		return strconv.Itoa(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func equalLoose(a, b any) bool {
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			return fa == fb
		}
	}
	return toStr(a) == toStr(b)
}

func inList(value, list any) bool {
	items, ok := list.([]any)
	if !ok {
		return false
	}
	for _, item := range items {
		if equalLoose(value, item) {
			return true
		}
	}
	return false
}

func compareNumeric(a, b any, op domain.ConditionOp) bool {
	fa, ok1 := toFloat(a)
	fb, ok2 := toFloat(b)
	if !ok1 || !ok2 {
		return false
	}
	switch op {
	case domain.OpGt:
		return fa > fb
	case domain.OpGte:
		return fa >= fb
	case domain.OpLt:
		return fa < fb
	case domain.OpLte:
		return fa <= fb
	default:
		return false
	}
}
