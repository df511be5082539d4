package taxevent

import (
	"testing"

	"github.com/form270/declare/internal/domain"
)

func TestAPIParser_DispatchesAcrossShapes(t *testing.T) {
	cases := []struct {
		name    string
		payload string
		want    int
	}{
		{"incomes", `{"incomes":[{"event_type":"rent","event_date":"2025-01-01","amount":"100","currency":"KZT"}]}`, 1},
		{"records", `{"records":[{"event_type":"rent","event_date":"2025-01-01","amount":"100","currency":"KZT"}]}`, 1},
		{"single", `{"event_type":"rent","event_date":"2025-01-01","amount":"100","currency":"KZT"}`, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := domain.SourceRecord{SourceKind: domain.SourceAPI, RawPayload: []byte(tc.payload)}
			events, err := APIParser{}.Parse(rec)
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if len(events) != tc.want {
				t.Fatalf("got %d events, want %d", len(events), tc.want)
			}
		})
	}
}

func TestAPIParser_NoRecognizableShape(t *testing.T) {
	rec := domain.SourceRecord{SourceKind: domain.SourceAPI, RawPayload: []byte(`{"foo":"bar"}`)}
	if _, err := (APIParser{}).Parse(rec); err == nil {
		t.Errorf("expected error for unrecognized shape")
	}
}
