package taxevent

import "testing"

func TestNormalizeCurrency(t *testing.T) {
	cases := map[string]string{
		"":      "KZT",
		"$":     "USD",
		"usd":   "USD",
		"тенге": "KZT",
		"eur":   "EUR",
		"xyz":   "XYZ",
	}
	for in, want := range cases {
		if got := NormalizeCurrency(in); got != want {
			t.Errorf("NormalizeCurrency(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizeDate(t *testing.T) {
	cases := map[string]string{
		"2025-03-10":          "2025-03-10",
		"10.03.2025":          "2025-03-10",
		"10/03/2025":          "2025-03-10",
		"2025-03-10T00:00:00Z": "2025-03-10",
	}
	for in, want := range cases {
		got, err := NormalizeDate(in)
		if err != nil {
			t.Errorf("NormalizeDate(%q): %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("NormalizeDate(%q) = %q, want %q", in, got, want)
		}
	}
	if _, err := NormalizeDate("not a date"); err == nil {
		t.Errorf("expected error for unparseable date")
	}
}

func TestNormalizeAmount(t *testing.T) {
	cases := map[string]string{
		"1000":        "1000",
		"1,234.56":    "1234.56",
		"1234,56":     "1234.56",
		" 1 000,50 ":  "1000.5",
	}
	for in, want := range cases {
		got, err := NormalizeAmount(in)
		if err != nil {
			t.Errorf("NormalizeAmount(%q): %v", in, err)
			continue
		}
		if got.String() != want {
			t.Errorf("NormalizeAmount(%q) = %s, want %s", in, got, want)
		}
	}
	if _, err := NormalizeAmount(""); err == nil {
		t.Errorf("expected error for empty amount")
	}
}

func TestTaxYearOf(t *testing.T) {
	year, err := TaxYearOf("2025-03-10")
	if err != nil {
		t.Fatalf("TaxYearOf: %v", err)
	}
	if year != 2025 {
		t.Errorf("year = %d, want 2025", year)
	}
}
