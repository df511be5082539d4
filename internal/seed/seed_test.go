package seed

import "testing"

// TestEventToField_EveryKeyIsASeededEventType guards against the mapping
// table and the vocabulary list drifting apart: every event code the
// mapping rules reference must also appear in eventTypes, or the engine
// would reject it as an unknown event type at run time (§4.B).
func TestEventToField_EveryKeyIsASeededEventType(t *testing.T) {
	known := map[string]bool{}
	for _, et := range eventTypes {
		known[et.Code] = true
	}
	for code := range eventToField {
		if !known[code] {
			t.Errorf("eventToField references %q, which is not in eventTypes", code)
		}
	}
}

// TestEventToField_EveryTargetIsASeededLogicalField is the mirror check on
// the mapping rules' write side.
func TestEventToField_EveryTargetIsASeededLogicalField(t *testing.T) {
	known := map[string]bool{}
	for _, lf := range logicalFields {
		known[lf.Code] = true
	}
	for code, field := range eventToField {
		if !known[field] {
			t.Errorf("eventToField[%q] = %q, which is not in logicalFields", code, field)
		}
	}
}

// TestMainFormXMLFields_MatchesProjectorOrder checks that the catalog's
// seed data assigns form_270_01's letters A, D, G, H and K to the same
// logical fields internal/xmlproject's emission order uses for them. The
// expected pairs are written out here; the projector's table is not read,
// and the other letters are not checked.
func TestMainFormXMLFields_MatchesProjectorOrder(t *testing.T) {
	want := map[string]string{
		"field_270_01_A": "LF_INCOME_PROPERTY_TOTAL",
		"field_270_01_D": "LF_INCOME_TOTAL",
		"field_270_01_G": "LF_TAXABLE_INCOME",
		"field_270_01_H": "LF_IPN_CALCULATED",
		"field_270_01_K": "LF_IPN_PAYABLE",
	}
	got := map[string]string{}
	for _, entry := range mainFormXMLFields {
		got[entry.xmlName] = entry.field
	}
	for xmlName, field := range want {
		if got[xmlName] != field {
			t.Errorf("mainFormXMLFields[%q] = %q, want %q", xmlName, got[xmlName], field)
		}
	}
}
