// Package money holds the fixed-point decimal conventions shared by the
// rule engine and the XML projector: storage scale, rounding mode, and the
// "empty means zero" rendering rule used throughout form 270.00.
package money

import "github.com/shopspring/decimal"

// Scale is the fractional precision (2 digits) every persisted amount and
// declaration item is rounded to.
const Scale = 2

// Round rounds d to Scale using half-up rounding, the policy spec.md §9
// fixes for this module (banker's rounding is not used anywhere).
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Scale)
}

// RoundTo rounds d to the given number of fractional digits, half-up.
// Used by formula "round" operations where the precision is data-driven.
func RoundTo(d decimal.Decimal, places int32) decimal.Decimal {
	return d.Round(places)
}

// Zero is the canonical zero amount.
var Zero = decimal.Zero

// IsZeroOrNil reports whether amt is nil or exactly zero; both render as an
// empty <field/> element in the XML projection (§4.I.3).
func IsZeroOrNil(amt *decimal.Decimal) bool {
	return amt == nil || amt.IsZero()
}

// ToNearestInt renders amt as ASCII digits, rounded half-up to a whole
// number, matching the money formatting rule §4.I.3 uses for every XML
// field: "decimal -> nearest integer as ASCII digits".
func ToNearestInt(amt decimal.Decimal) string {
	return amt.Round(0).StringFixed(0)
}

// Max returns the larger of a and b.
func Max(a, b decimal.Decimal) decimal.Decimal {
	if a.GreaterThan(b) {
		return a
	}
	return b
}

// Min returns the smaller of a and b.
func Min(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}

// MaxWithFloor returns the maximum of d and zero, the "implicit 0 floor"
// the formula evaluator's "max" operation applies (§4.E).
func MaxWithFloor(d decimal.Decimal) decimal.Decimal {
	return Max(d, Zero)
}
