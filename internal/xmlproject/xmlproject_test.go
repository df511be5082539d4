package xmlproject

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/form270/declare/internal/domain"
)

func TestRender_ContainsRequiredStructure(t *testing.T) {
	decl := domain.Declaration{
		TaxYear: 2025,
		Header: domain.Header{
			IIN: "123456789012", LastName: "Nurlanov", FirstName: "Aidar", MiddleName: "Bekuly",
			Email: "aidar@example.kz", Phone: "+77011234567",
		},
		Flags: map[string]bool{"dt_main": true, "pril_1": true},
	}
	items := []domain.DeclarationItem{
		{LogicalField: domain.LFIncomeTotal, Value: decimal.NewFromInt(1000000)},
		{LogicalField: domain.LFTaxableIncome, Value: decimal.NewFromInt(1000000)},
		{LogicalField: domain.LFIPNCalculated, Value: decimal.NewFromInt(100000)},
		{LogicalField: domain.LFIPNPayable, Value: decimal.NewFromInt(100000)},
	}

	payload, err := Render(decl, items)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	for _, want := range []string{"<?xml", "<fno", "form_270_00", "form_270_01", "123456789012", "100000"} {
		if !strings.Contains(payload, want) {
			t.Errorf("payload missing expected token %q", want)
		}
	}
}

func TestRender_ZeroAmountIsEmptyField(t *testing.T) {
	decl := domain.Declaration{TaxYear: 2025}
	payload, err := Render(decl, nil)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(payload, `<field name="field_270_01_D"/>`) {
		t.Errorf("expected empty field element for zero LF_INCOME_TOTAL, got payload without it:\n%s", payload)
	}
}

func TestRender_DeterministicAcrossRuns(t *testing.T) {
	decl := domain.Declaration{
		TaxYear: 2025,
		Header:  domain.Header{IIN: "1", LastName: "A"},
		Flags:   map[string]bool{"pril_2": true},
	}
	items := []domain.DeclarationItem{{LogicalField: domain.LFIncomeTotal, Value: decimal.NewFromInt(500)}}

	a, err := Render(decl, items)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	b, err := Render(decl, items)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if a != b {
		t.Errorf("Render is not deterministic for identical inputs")
	}
	if ContentHash(a) != ContentHash(b) {
		t.Errorf("ContentHash differs for identical payloads")
	}
}
