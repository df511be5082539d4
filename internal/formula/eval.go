// Package formula implements the pure arithmetic/comparison expression
// evaluator of §4.E: Eval resolves a formula tree against the current
// logical-field map, and Decode/ParseLegacy turn catalog JSON or the legacy
// textual SUM()/SUB()/MUL() spelling into the tagged-variant domain.Formula
// tree spec.md §9 calls for.
package formula

import (
	"github.com/shopspring/decimal"

	"github.com/form270/declare/internal/domain"
	"github.com/form270/declare/internal/money"
)

// FieldMap is the logical-field -> amount map the evaluator reads.
type FieldMap map[string]decimal.Decimal

// Get returns the field's value, or zero when the field is missing — a
// missing ref reads as 0, never an error (§4.E).
func (m FieldMap) Get(code string) decimal.Decimal {
	if v, ok := m[code]; ok {
		return v
	}
	return decimal.Zero
}

// Eval resolves formula against fields.
func Eval(f domain.Formula, fields FieldMap) decimal.Decimal {
	switch {
	case f.Literal != nil:
		return *f.Literal
	case f.Ref != "":
		return fields.Get(f.Ref)
	case f.Op != "":
		return evalOp(f, fields)
	default:
		return decimal.Zero
	}
}

func evalOp(f domain.Formula, fields FieldMap) decimal.Decimal {
	switch f.Op {
	case domain.FOpSum:
		sum := decimal.Zero
		for _, a := range f.Args {
			sum = sum.Add(Eval(a, fields))
		}
		return sum
	case domain.FOpSub:
		return arity2(f, fields, func(a, b decimal.Decimal) decimal.Decimal { return a.Sub(b) })
	case domain.FOpMul:
		return arity2(f, fields, func(a, b decimal.Decimal) decimal.Decimal { return a.Mul(b) })
	case domain.FOpDiv:
		return arity2(f, fields, func(a, b decimal.Decimal) decimal.Decimal {
			if b.IsZero() {
				return decimal.Zero
			}
			return a.Div(b)
		})
	case domain.FOpMax:
		return extremum(f, fields, true)
	case domain.FOpMin:
		return extremum(f, fields, false)
	case domain.FOpRound:
		return roundOp(f, fields)
	case domain.FOpFloor:
		return arity1(f, fields, func(a decimal.Decimal) decimal.Decimal { return a.Floor() })
	case domain.FOpCeil:
		return arity1(f, fields, func(a decimal.Decimal) decimal.Decimal { return a.Ceil() })
	case domain.FOpAbs:
		return arity1(f, fields, func(a decimal.Decimal) decimal.Decimal { return a.Abs() })
	case domain.FOpPercent:
		return arity2(f, fields, func(a, b decimal.Decimal) decimal.Decimal {
			return a.Mul(b).Div(decimal.NewFromInt(100))
		})
	case domain.FOpIf:
		return ifOp(f, fields)
	case domain.FOpGt:
		return predicate(f, fields, func(a, b decimal.Decimal) bool { return a.GreaterThan(b) })
	case domain.FOpGte:
		return predicate(f, fields, func(a, b decimal.Decimal) bool { return a.GreaterThanOrEqual(b) })
	case domain.FOpLt:
		return predicate(f, fields, func(a, b decimal.Decimal) bool { return a.LessThan(b) })
	case domain.FOpLte:
		return predicate(f, fields, func(a, b decimal.Decimal) bool { return a.LessThanOrEqual(b) })
	case domain.FOpEq:
		return predicate(f, fields, func(a, b decimal.Decimal) bool { return a.Equal(b) })
	default:
		return decimal.Zero
	}
}

func operand(f domain.Formula, fields FieldMap, idx int) decimal.Decimal {
	if idx >= len(f.Args) {
		return decimal.Zero
	}
	return Eval(f.Args[idx], fields)
}

func arity1(f domain.Formula, fields FieldMap, fn func(decimal.Decimal) decimal.Decimal) decimal.Decimal {
	return fn(operand(f, fields, 0))
}

func arity2(f domain.Formula, fields FieldMap, fn func(a, b decimal.Decimal) decimal.Decimal) decimal.Decimal {
	return fn(operand(f, fields, 0), operand(f, fields, 1))
}

func predicate(f domain.Formula, fields FieldMap, fn func(a, b decimal.Decimal) bool) decimal.Decimal {
	if fn(operand(f, fields, 0), operand(f, fields, 1)) {
		return decimal.NewFromInt(1)
	}
	return decimal.Zero
}

// extremum implements max/min. max is n-ary (or 2-ary) with an implicit
// zero floor; min is n-ary/2-ary with no floor (§4.E).
func extremum(f domain.Formula, fields FieldMap, isMax bool) decimal.Decimal {
	if len(f.Args) == 0 {
		if isMax {
			return decimal.Zero
		}
		return decimal.Zero
	}
	result := Eval(f.Args[0], fields)
	for _, a := range f.Args[1:] {
		v := Eval(a, fields)
		if isMax {
			result = money.Max(result, v)
		} else {
			result = money.Min(result, v)
		}
	}
	if isMax {
		result = money.MaxWithFloor(result)
	}
	return result
}

func roundOp(f domain.Formula, fields FieldMap) decimal.Decimal {
	a := operand(f, fields, 0)
	precision := int32(0)
	if len(f.Args) > 1 {
		p := Eval(f.Args[1], fields)
		precision = int32(p.IntPart())
	}
	return money.RoundTo(a, precision)
}

func ifOp(f domain.Formula, fields FieldMap) decimal.Decimal {
	if f.Cond == nil || f.Then == nil {
		return decimal.Zero
	}
	cond := Eval(*f.Cond, fields)
	if cond.GreaterThan(decimal.Zero) {
		return Eval(*f.Then, fields)
	}
	if f.Else != nil {
		return Eval(*f.Else, fields)
	}
	return decimal.Zero
}
