package formula

import (
	"testing"

	"github.com/shopspring/decimal"
)

func fields(kv map[string]float64) FieldMap {
	m := FieldMap{}
	for k, v := range kv {
		m[k] = decimal.NewFromFloat(v)
	}
	return m
}

func mustDecode(t *testing.T, raw string) decimal.Decimal {
	t.Helper()
	f, err := Decode([]byte(raw))
	if err != nil {
		t.Fatalf("Decode(%s): %v", raw, err)
	}
	return Eval(f, FieldMap{})
}

func TestEval_SumRefs(t *testing.T) {
	f, err := Decode([]byte(`{"op":"sum","refs":["LF_A","LF_B","LF_C"]}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	got := Eval(f, fields(map[string]float64{"LF_A": 100, "LF_B": 200, "LF_C": 50.5}))
	want := decimal.NewFromFloat(350.5)
	if !got.Equal(want) {
		t.Errorf("sum = %s, want %s", got, want)
	}
}

func TestEval_MissingRefReadsZero(t *testing.T) {
	f, err := Decode([]byte(`{"ref":"LF_MISSING"}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got := Eval(f, FieldMap{}); !got.IsZero() {
		t.Errorf("missing ref should read as 0, got %s", got)
	}
}

func TestEval_DivByZero(t *testing.T) {
	f, err := Decode([]byte(`{"op":"div","a":{"ref":"LF_A"},"b":{"ref":"LF_ZERO"}}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	got := Eval(f, fields(map[string]float64{"LF_A": 100, "LF_ZERO": 0}))
	if !got.IsZero() {
		t.Errorf("div by zero should yield 0, got %s", got)
	}
}

func TestEval_MaxImplicitFloor(t *testing.T) {
	f, err := Decode([]byte(`{"op":"max","a":{"ref":"LF_A"},"b":{"ref":"LF_B"}}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	got := Eval(f, fields(map[string]float64{"LF_A": -50, "LF_B": -20}))
	if !got.IsZero() {
		t.Errorf("max() must floor at 0, got %s", got)
	}
}

func TestEval_IfThenElse(t *testing.T) {
	f, err := Decode([]byte(`{"op":"if","cond":{"ref":"LF_A"},"then":1,"else":0}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	got := Eval(f, fields(map[string]float64{"LF_A": 5}))
	if !got.Equal(decimal.NewFromInt(1)) {
		t.Errorf("if(cond>0) should take then-branch, got %s", got)
	}

	got = Eval(f, fields(map[string]float64{"LF_A": 0}))
	if !got.IsZero() {
		t.Errorf("if(cond<=0) should take else-branch, got %s", got)
	}
}

func TestEval_Round(t *testing.T) {
	f, err := Decode([]byte(`{"op":"round","a":{"ref":"LF_A"},"b":0}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	got := Eval(f, fields(map[string]float64{"LF_A": 123.456}))
	want := decimal.NewFromInt(123)
	if !got.Equal(want) {
		t.Errorf("round = %s, want %s", got, want)
	}
}

func TestParseLegacy_SumSubMul(t *testing.T) {
	cases := []struct {
		text string
		vals map[string]float64
		want decimal.Decimal
	}{
		{"SUM(LF_A, LF_B)", map[string]float64{"LF_A": 10, "LF_B": 20}, decimal.NewFromInt(30)},
		{"SUB(LF_A, LF_B, LF_C)", map[string]float64{"LF_A": 100, "LF_B": 30, "LF_C": 10}, decimal.NewFromInt(60)},
		{"MUL(LF_A, 0.10)", map[string]float64{"LF_A": 1000}, decimal.NewFromInt(100)},
	}
	for _, tc := range cases {
		f, err := ParseLegacy(tc.text)
		if err != nil {
			t.Fatalf("ParseLegacy(%s): %v", tc.text, err)
		}
		got := Eval(f, fields(tc.vals))
		if !got.Equal(tc.want) {
			t.Errorf("%s = %s, want %s", tc.text, got, tc.want)
		}
	}
}
