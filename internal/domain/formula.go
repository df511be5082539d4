package domain

import "github.com/shopspring/decimal"

// FormulaOp enumerates the operations the formula evaluator understands
// (§4.E).
type FormulaOp string

const (
	FOpSum     FormulaOp = "sum"
	FOpSub     FormulaOp = "sub"
	FOpMul     FormulaOp = "mul"
	FOpDiv     FormulaOp = "div"
	FOpMax     FormulaOp = "max"
	FOpMin     FormulaOp = "min"
	FOpRound   FormulaOp = "round"
	FOpFloor   FormulaOp = "floor"
	FOpCeil    FormulaOp = "ceil"
	FOpAbs     FormulaOp = "abs"
	FOpPercent FormulaOp = "percent"
	FOpIf      FormulaOp = "if"
	FOpGt      FormulaOp = "gt"
	FOpGte     FormulaOp = "gte"
	FOpLt      FormulaOp = "lt"
	FOpLte     FormulaOp = "lte"
	FOpEq      FormulaOp = "eq"
)

// Formula is the decoded, tagged-variant form of a formula expression
// (§4.E, §9) — never a runtime-open map. Exactly one of Literal, Ref, or Op
// is populated.
type Formula struct {
	// Literal is set when this node is a bare number.
	Literal *decimal.Decimal `json:"literal,omitempty"`
	// Ref is set when this node is {"ref": "LF_*"}.
	Ref string `json:"ref,omitempty"`
	// Op, when non-empty, makes this an operation node.
	Op   FormulaOp `json:"op,omitempty"`
	Args []Formula `json:"args,omitempty"` // a, b / refs for n-ary sum/max/min
	Cond *Formula  `json:"cond,omitempty"` // "if" condition
	Then *Formula  `json:"then,omitempty"` // "if" then-branch
	Else *Formula  `json:"else,omitempty"` // "if" else-branch (optional)
}
