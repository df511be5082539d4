package formula

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/form270/declare/internal/domain"
)

// Decode parses raw catalog JSON into a domain.Formula tree. It accepts a
// bare number literal, a {"ref": "LF_*"} lookup, or an operation object
// {"op": ..., "a":, "b":, "refs": [...], "cond":, "then":, "else":} (§4.E).
func Decode(raw []byte) (domain.Formula, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return domain.Formula{}, fmt.Errorf("formula: empty input")
	}

	if trimmed[0] == '"' {
		// A quoted legacy textual formula, e.g. "SUM(LF_A, LF_B)".
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return domain.Formula{}, fmt.Errorf("formula: invalid quoted formula: %w", err)
		}
		return ParseLegacy(text)
	}

	var asNumber decimal.Decimal
	if err := json.Unmarshal(raw, &asNumber); err == nil {
		return domain.Formula{Literal: &asNumber}, nil
	}

	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return domain.Formula{}, fmt.Errorf("formula: invalid JSON: %w", err)
	}

	if raw, ok := m["ref"]; ok {
		var ref string
		if err := json.Unmarshal(raw, &ref); err != nil {
			return domain.Formula{}, fmt.Errorf("formula: ref must be a string: %w", err)
		}
		return domain.Formula{Ref: ref}, nil
	}

	opRaw, ok := m["op"]
	if !ok {
		return domain.Formula{}, fmt.Errorf("formula: object must have 'ref' or 'op'")
	}
	var opTok string
	if err := json.Unmarshal(opRaw, &opTok); err != nil {
		return domain.Formula{}, fmt.Errorf("formula: op must be a string: %w", err)
	}
	op := domain.FormulaOp(opTok)

	f := domain.Formula{Op: op}

	if refsRaw, ok := m["refs"]; ok {
		var refs []string
		if err := json.Unmarshal(refsRaw, &refs); err != nil {
			return domain.Formula{}, fmt.Errorf("formula: refs must be a string array: %w", err)
		}
		for _, r := range refs {
			f.Args = append(f.Args, domain.Formula{Ref: r})
		}
	}

	for _, key := range []string{"a", "b"} {
		if sub, ok := m[key]; ok {
			arg, err := Decode(sub)
			if err != nil {
				return domain.Formula{}, err
			}
			f.Args = append(f.Args, arg)
		}
	}

	if op == domain.FOpIf {
		cond, err := decodeChild(m, "cond")
		if err != nil {
			return domain.Formula{}, err
		}
		then, err := decodeChild(m, "then")
		if err != nil {
			return domain.Formula{}, err
		}
		f.Cond = cond
		f.Then = then
		if elseRaw, ok := m["else"]; ok {
			elseNode, err := Decode(elseRaw)
			if err != nil {
				return domain.Formula{}, err
			}
			f.Else = &elseNode
		}
	}

	return f, nil
}

func decodeChild(m map[string]json.RawMessage, key string) (*domain.Formula, error) {
	raw, ok := m[key]
	if !ok {
		return nil, fmt.Errorf("formula: 'if' requires %q", key)
	}
	f, err := Decode(raw)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// ParseLegacy parses the legacy textual spelling SUM(...)/SUB(...)/MUL(...)
// into the structured tree, with identical semantics; SUB is left-
// associative (§4.E).
func ParseLegacy(text string) (domain.Formula, error) {
	text = strings.TrimSpace(text)
	open := strings.IndexByte(text, '(')
	if !strings.HasSuffix(text, ")") || open < 0 {
		return domain.Formula{}, fmt.Errorf("formula: malformed legacy expression %q", text)
	}
	name := strings.ToUpper(strings.TrimSpace(text[:open]))
	body := text[open+1 : len(text)-1]
	operandStrs := splitArgs(body)

	args := make([]domain.Formula, 0, len(operandStrs))
	for _, raw := range operandStrs {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		args = append(args, parseOperand(raw))
	}

	switch name {
	case "SUM":
		return domain.Formula{Op: domain.FOpSum, Args: args}, nil
	case "SUB":
		return leftAssociative(domain.FOpSub, args)
	case "MUL":
		return leftAssociative(domain.FOpMul, args)
	default:
		return domain.Formula{}, fmt.Errorf("formula: unknown legacy function %q", name)
	}
}

func leftAssociative(op domain.FormulaOp, args []domain.Formula) (domain.Formula, error) {
	if len(args) == 0 {
		return domain.Formula{}, fmt.Errorf("formula: %s requires at least one operand", op)
	}
	result := args[0]
	for _, next := range args[1:] {
		result = domain.Formula{Op: op, Args: []domain.Formula{result, next}}
	}
	return result, nil
}

func parseOperand(raw string) domain.Formula {
	if d, err := decimal.NewFromString(raw); err == nil {
		return domain.Formula{Literal: &d}
	}
	return domain.Formula{Ref: raw}
}

// splitArgs splits a comma-separated operand list at the top level only
// (there is no nesting in the legacy grammar, but this keeps whitespace
// handling in one place).
func splitArgs(body string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(body); i++ {
		if body[i] == ',' {
			parts = append(parts, body[start:i])
			start = i + 1
		}
	}
	parts = append(parts, body[start:])
	return parts
}

// MustLiteral is a small test/seed-data helper turning a float into a
// Formula literal node.
func MustLiteral(v float64) domain.Formula {
	d := decimal.NewFromFloat(v)
	return domain.Formula{Literal: &d}
}
