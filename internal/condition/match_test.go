package condition

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/form270/declare/internal/domain"
)

func amt(f float64) *decimal.Decimal {
	d := decimal.NewFromFloat(f)
	return &d
}

func TestMatch_Always(t *testing.T) {
	c, err := Decode([]byte(`{"always": true}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !Match(c, domain.TaxEvent{}) {
		t.Errorf("always condition should match any event")
	}
}

func TestMatch_CompactLeaf(t *testing.T) {
	c, err := Decode([]byte(`{"amount": {"gt": 1000}}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	cases := []struct {
		amount *decimal.Decimal
		want   bool
	}{
		{amt(1500), true},
		{amt(1000), false},
		{amt(500), false},
	}
	for _, tc := range cases {
		ev := domain.TaxEvent{Amount: tc.amount}
		if got := Match(c, ev); got != tc.want {
			t.Errorf("Match(amount=%v) = %v, want %v", tc.amount, got, tc.want)
		}
	}
}

func TestMatch_AllAny(t *testing.T) {
	c, err := Decode([]byte(`{"all": [{"event_type": {"eq": "EV_FOREIGN_DIVIDENDS"}}, {"amount": {"gte": 100}}]}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	ev := domain.TaxEvent{EventTypeCode: "EV_FOREIGN_DIVIDENDS", Amount: amt(500000)}
	if !Match(c, ev) {
		t.Errorf("expected all() to match")
	}

	ev.EventTypeCode = "EV_PROPERTY_SALE_KZ"
	if Match(c, ev) {
		t.Errorf("expected all() to fail when one sub-condition fails")
	}
}

func TestMatch_MetadataMissingIsFalseNotError(t *testing.T) {
	c, err := Decode([]byte(`{"metadata.direction": {"eq": "credit"}}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if Match(c, domain.TaxEvent{}) {
		t.Errorf("missing metadata path must not match")
	}
}

func TestMatch_UnknownOperatorIsFalse(t *testing.T) {
	c := domain.Condition{Field: "event.amount", Op: "bogus"}
	if Match(c, domain.TaxEvent{Amount: amt(10)}) {
		t.Errorf("unknown operator must evaluate to false, not error")
	}
}

func TestMatchFields_LeafAndMissing(t *testing.T) {
	c, err := Decode([]byte(`{"LF_INCOME_TOTAL": {"gt": 0}}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	fields := map[string]decimal.Decimal{"LF_INCOME_TOTAL": decimal.NewFromInt(5000)}
	if !MatchFields(c, fields) {
		t.Errorf("expected positive LF_INCOME_TOTAL to match gt 0")
	}
	if MatchFields(c, map[string]decimal.Decimal{}) {
		t.Errorf("missing field should not match")
	}
}

func TestMatch_InNotIn(t *testing.T) {
	c, err := Decode([]byte(`{"event_type": {"in": ["EV_A", "EV_B"]}}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !Match(c, domain.TaxEvent{EventTypeCode: "EV_B"}) {
		t.Errorf("expected in() to match EV_B")
	}
	if Match(c, domain.TaxEvent{EventTypeCode: "EV_C"}) {
		t.Errorf("expected in() to reject EV_C")
	}
}
