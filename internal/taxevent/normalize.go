package taxevent

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// currencyAliases maps human words and symbols to ISO currency codes before
// the case-fold-and-truncate-to-three-letters normalization (§4.A).
var currencyAliases = map[string]string{
	"$":      "USD",
	"USD":    "USD",
	"ДОЛЛАР":  "USD",
	"€":      "EUR",
	"EUR":    "EUR",
	"ЕВРО":    "EUR",
	"₸":      "KZT",
	"KZT":    "KZT",
	"ТЕНГЕ":   "KZT",
	"TENGE":  "KZT",
	"₽":      "RUB",
	"RUB":    "RUB",
	"РУБЛЬ":   "RUB",
	"£":      "GBP",
	"GBP":    "GBP",
}

// NormalizeCurrency case-folds, trims, and resolves aliases; an empty input
// defaults to KZT (§4.A).
func NormalizeCurrency(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "KZT"
	}
	upper := strings.ToUpper(raw)
	if alias, ok := currencyAliases[upper]; ok {
		return alias
	}
	if len(upper) >= 3 {
		return upper[:3]
	}
	return upper
}

// dateLayouts are the accepted input shapes; always converted to
// YYYY-MM-DD UTC (§4.A).
var dateLayouts = []string{
	"2006-01-02",
	"02.01.2006",
	"02/01/2006",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// NormalizeDate parses raw using the accepted layouts and returns a
// YYYY-MM-DD string in UTC.
func NormalizeDate(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("taxevent: empty date")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC().Format("2006-01-02"), nil
		}
	}
	return "", fmt.Errorf("taxevent: unrecognized date format %q", raw)
}

// NormalizeAmount tolerantly parses an amount string, stripping spaces and
// accepting ',' as a decimal separator (§4.A).
func NormalizeAmount(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, fmt.Errorf("taxevent: empty amount")
	}
	raw = strings.ReplaceAll(raw, " ", "")
	raw = strings.ReplaceAll(raw, " ", "") // non-breaking space, common in spreadsheet exports
	// Only treat ',' as a decimal separator when there's no '.' already
	// present (otherwise it is a thousands separator and is dropped).
	if strings.Contains(raw, ",") {
		if strings.Contains(raw, ".") {
			raw = strings.ReplaceAll(raw, ",", "")
		} else {
			raw = strings.ReplaceAll(raw, ",", ".")
		}
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("taxevent: invalid amount %q: %w", raw, err)
	}
	return d, nil
}

// TaxYearOf derives the tax year from a normalized YYYY-MM-DD date.
func TaxYearOf(date string) (int, error) {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return 0, fmt.Errorf("taxevent: bad normalized date %q: %w", date, err)
	}
	return t.Year(), nil
}
