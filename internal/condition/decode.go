// Package condition implements the pure JSON-predicate evaluator of §4.D:
// Match decides whether one tax event satisfies a condition tree, and
// Decode turns the catalog's raw JSON into the tagged-variant domain.Condition
// spec.md §9 calls for instead of an open map.
package condition

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/form270/declare/internal/domain"
)

// Decode parses raw catalog JSON into a domain.Condition tree. It accepts
// the three shapes of §4.D: {"always":true}, {"all"/"any":[...]}, and a
// leaf comparison in either explicit ({"field":, "op":, "value":}) or
// compact ({name: {op: value}}) form.
func Decode(raw []byte) (domain.Condition, error) {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return domain.Condition{}, fmt.Errorf("condition: invalid JSON: %w", err)
	}
	return decodeMap(m)
}

func decodeMap(m map[string]json.RawMessage) (domain.Condition, error) {
	if raw, ok := m["always"]; ok {
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return domain.Condition{}, fmt.Errorf("condition: always must be boolean: %w", err)
		}
		return domain.Condition{Always: b}, nil
	}

	if raw, ok := m["all"]; ok {
		subs, err := decodeList(raw)
		if err != nil {
			return domain.Condition{}, err
		}
		return domain.Condition{All: subs}, nil
	}

	if raw, ok := m["any"]; ok {
		subs, err := decodeList(raw)
		if err != nil {
			return domain.Condition{}, err
		}
		return domain.Condition{Any: subs}, nil
	}

	// Explicit leaf: {"field":, "op":, "value":}
	if _, ok := m["field"]; ok {
		var field, op string
		var value any
		if raw, ok := m["field"]; ok {
			_ = json.Unmarshal(raw, &field)
		}
		if raw, ok := m["op"]; ok {
			_ = json.Unmarshal(raw, &op)
		}
		if raw, ok := m["value"]; ok {
			_ = json.Unmarshal(raw, &value)
		}
		canon, ok := domain.CanonicalOp(op)
		if !ok {
			return domain.Condition{}, fmt.Errorf("condition: unknown operator %q", op)
		}
		return domain.Condition{Field: normalizeField(field), Op: canon, Value: value}, nil
	}

	// Compact leaf(s): {name: {op: value}, ...}. Spec allows one compact
	// leaf per object; we support the common case of exactly one key.
	for name, raw := range m {
		var ops map[string]any
		if err := json.Unmarshal(raw, &ops); err != nil {
			return domain.Condition{}, fmt.Errorf("condition: compact leaf %q must be an object: %w", name, err)
		}
		for opTok, value := range ops {
			canon, ok := domain.CanonicalOp(opTok)
			if !ok {
				return domain.Condition{}, fmt.Errorf("condition: unknown operator %q", opTok)
			}
			return domain.Condition{Field: normalizeField(name), Op: canon, Value: value}, nil
		}
	}

	return domain.Condition{}, fmt.Errorf("condition: empty or unrecognized condition object")
}

func decodeList(raw json.RawMessage) ([]domain.Condition, error) {
	var items []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("condition: expected array: %w", err)
	}
	out := make([]domain.Condition, 0, len(items))
	for _, it := range items {
		c, err := decodeMap(it)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// normalizeField auto-prefixes a compact field name with "event." when it
// lacks the prefix already, per §4.D. A bare "LF_*" name is left
// untouched: phase 6 flag rules reference logical fields directly against
// the current field_values, not an event attribute (see
// internal/condition.MatchFields).
func normalizeField(name string) string {
	if strings.HasPrefix(name, "event.") || strings.HasPrefix(name, "LF_") {
		return name
	}
	return "event." + name
}
