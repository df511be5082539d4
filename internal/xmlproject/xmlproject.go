// Package xmlproject is the XML Projector of §4.I: a deterministic
// etree-based serializer turning a declaration and its items into the
// fixed-shape 270.00 XML document, plus the content hash and structural
// self-check that gate every export.
package xmlproject

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"

	"github.com/form270/declare/internal/declerr"
	"github.com/form270/declare/internal/domain"
	"github.com/form270/declare/internal/money"
)

// form01FieldOrder fixes the emission order of the money fields on the
// form_270_01 main sheet (§4.I.6). Letters follow the computation pipeline:
// A-C are the base-total inputs, D is income_total, E-F the two
// subtractions, G-H the first derived pair, I-J the two credits, K the
// final payable — matching the A/D/G/H/K examples spec.md §6 gives.
var form01FieldOrder = []struct {
	xmlName string
	field   string
}{
	{"field_270_01_A", domain.LFIncomePropertyTotal},
	{"field_270_01_B", domain.LFIncomeRentNonAgent},
	{"field_270_01_C", domain.LFIncomeForeignTotal},
	{"field_270_01_D", domain.LFIncomeTotal},
	{"field_270_01_E", domain.LFDeductionTotal},
	{"field_270_01_F", domain.LFAdjustmentTotal},
	{"field_270_01_G", domain.LFTaxableIncome},
	{"field_270_01_H", domain.LFIPNCalculated},
	{"field_270_01_I", domain.LFForeignTaxCreditGeneral},
	{"field_270_01_J", domain.LFForeignTaxCreditCFC},
	{"field_270_01_K", domain.LFIPNPayable},
}

// appendixForms assigns each of the six appendix forms a fixed grid of
// logical fields (§4.I.2, "unused rows... emitted as empty placeholders in
// their declared grid order"). 270.02 is the foreign-income breakdown,
// 270.03 the CFC breakdown, 270.04 the property-sale breakdown, 270.05 the
// domestic non-agent breakdown, 270.06 deductions, 270.07 adjustments.
var appendixForms = []struct {
	formCode string
	fields   []string
}{
	{"form_270_02", domain.ForeignIncomeFields},
	{"form_270_03", []string{domain.LFIncomeCFCProfit}},
	{"form_270_04", domain.PropertyFields},
	{"form_270_05", domain.DomesticNonAgentFields},
	{"form_270_06", domain.DeductionFields},
	{"form_270_07", domain.AdjustmentFields},
}

var headerFlagOrder = []string{
	"dt_main", "dt_regular", "dt_additional", "dt_notice",
	"pril_1", "pril_2", "pril_3", "pril_4", "pril_5", "pril_6", "pril_7",
}

// Render builds the 270.00 XML document for a declaration, given its items
// and flags, and returns the exact bytes that would be persisted as an
// XmlExport payload. It performs no IO: items/flags are supplied by the
// caller as snapshots (§5, "no suspension... inside §4.I serialization").
// The fixed field inventory (§6) carries no date field of its own — the
// only dates in scope are period_year (an integer) and the dt_*/pril_*
// booleans — so there is nothing here for DD.MM.YYYY formatting to apply
// to today.
func Render(decl domain.Declaration, items []domain.DeclarationItem) (string, error) {
	values := map[string]decimal.Decimal{}
	for _, it := range items {
		values[it.LogicalField] = it.Value
	}

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	fno := doc.CreateElement("fno")
	fno.CreateAttr("code", "270.00")
	fno.CreateAttr("formatVersion", "1")
	fno.CreateAttr("version", "2")

	renderHeaderForm(fno, decl)
	renderMainForm(fno, values)
	for _, appendix := range appendixForms {
		renderAppendixForm(fno, appendix.formCode, values, appendix.fields)
	}

	doc.Indent(2)
	payload, err := doc.WriteToString()
	if err != nil {
		return "", declerr.Internal("xmlproject.Render", "serialize document", err)
	}

	if err := selfCheck(payload); err != nil {
		return "", err
	}
	return payload, nil
}

func renderHeaderForm(fno *etree.Element, decl domain.Declaration) {
	form := fno.CreateElement("form")
	form.CreateAttr("name", "form_270_00")
	sheet := form.CreateElement("sheet")
	sheet.CreateAttr("name", "page_270_00_01")

	textField(sheet, "iin", decl.Header.IIN)
	textField(sheet, "period_year", fmt.Sprintf("%d", decl.TaxYear))
	textField(sheet, "fio1", decl.Header.LastName)
	textField(sheet, "fio2", decl.Header.FirstName)
	textField(sheet, "fio3", decl.Header.MiddleName)
	textField(sheet, "email", decl.Header.Email)
	textField(sheet, "payer_phone_number", decl.Header.Phone)

	for _, name := range headerFlagOrder {
		boolField(sheet, name, decl.Flags[name])
	}
}

func renderMainForm(fno *etree.Element, values map[string]decimal.Decimal) {
	form := fno.CreateElement("form")
	form.CreateAttr("name", "form_270_01")
	sheet := form.CreateElement("sheet")
	sheet.CreateAttr("name", "page_270_01_01")

	for _, entry := range form01FieldOrder {
		moneyField(sheet, entry.xmlName, values[entry.field])
	}
}

func renderAppendixForm(fno *etree.Element, formCode string, values map[string]decimal.Decimal, fields []string) {
	form := fno.CreateElement("form")
	form.CreateAttr("name", formCode)
	sheet := form.CreateElement("sheet")
	sheet.CreateAttr("name", formCode+"_01")

	for i, field := range fields {
		name := fmt.Sprintf("%s_row_%02d", formCode, i+1)
		moneyField(sheet, name, values[field])
	}
}

// textField emits <field name="..">value</field>, or an empty element when
// value is blank.
func textField(parent *etree.Element, name, value string) {
	el := parent.CreateElement("field")
	el.CreateAttr("name", name)
	if value != "" {
		el.SetText(value)
	}
}

// boolField renders a dt_*/pril_* indicator: "1" when true, empty otherwise.
func boolField(parent *etree.Element, name string, value bool) {
	el := parent.CreateElement("field")
	el.CreateAttr("name", name)
	if value {
		el.SetText("1")
	}
}

// moneyField applies §4.I.3: decimal -> nearest integer ASCII digits; zero,
// null, or missing renders as an empty element.
func moneyField(parent *etree.Element, name string, value decimal.Decimal) {
	el := parent.CreateElement("field")
	el.CreateAttr("name", name)
	if !money.IsZeroOrNil(&value) {
		el.SetText(money.ToNearestInt(value))
	}
}

// selfCheck is the cheap structural check §4.I requires after generation.
func selfCheck(payload string) error {
	required := []string{"<?xml", "<fno", "form_270_00", "form_270_01"}
	for _, tok := range required {
		if !strings.Contains(payload, tok) {
			return declerr.Internal("xmlproject.selfCheck", fmt.Sprintf("generated document missing required token %q", tok), nil)
		}
	}
	return nil
}

// ContentHash computes the SHA-256 hex digest of the serialized document's
// UTF-8 bytes (§4.I).
func ContentHash(payload string) string {
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}

