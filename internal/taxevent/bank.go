package taxevent

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/form270/declare/internal/declerr"
	"github.com/form270/declare/internal/domain"
)

// bankStatement is the shape a bank-statement export arrives in: one
// record per statement, a list of transactions each carrying either a
// signed amount or separate credit/debit fields (§4.A).
type bankStatement struct {
	Currency     string              `json:"currency"`
	Transactions []bankTransaction   `json:"transactions"`
}

type bankTransaction struct {
	Date        string `json:"date"`
	Amount      string `json:"amount"`
	Credit      string `json:"credit"`
	Debit       string `json:"debit"`
	Description string `json:"description"`
	Purpose     string `json:"purpose"`
}

// BankParser handles bank-statement exports: each transaction yields at
// most one event. Amount direction is inferred either from a signed
// "amount" field or from separate credit/debit columns; the stored amount
// is always non-negative, and direction is placed into metadata rather
// than discarded. The event type is inferred from the transaction's
// description or purpose text by keyword, defaulting to a generic
// non-agent category when no keyword matches (§4.A).
type BankParser struct{}

var bankKeywordEventTypes = []struct {
	keyword   string
	eventType string
}{
	{"аренда", domain.EVRentNonAgent},
	{"rent", domain.EVRentNonAgent},
	{"дивиденд", domain.EVForeignDividends},
	{"dividend", domain.EVForeignDividends},
	{"roalty", domain.EVDomesticRoyalty},
	{"роялти", domain.EVDomesticRoyalty},
	{"выигрыш", domain.EVDomesticWinning},
	{"winning", domain.EVDomesticWinning},
	{"lottery", domain.EVDomesticWinning},
	{"продажа имущества", domain.EVPropertySaleKZ},
	{"sale of property", domain.EVPropertySaleKZ},
}

func (BankParser) Parse(rec domain.SourceRecord) ([]domain.TaxEventInput, error) {
	var stmt bankStatement
	if err := json.Unmarshal(rec.RawPayload, &stmt); err != nil {
		return nil, declerr.Parse("taxevent.BankParser", "invalid bank statement payload", err)
	}

	currency := NormalizeCurrency(stmt.Currency)
	var events []domain.TaxEventInput
	for i, tx := range stmt.Transactions {
		amount, isCredit, ok, err := bankTxAmount(tx)
		if err != nil {
			return nil, declerr.Parse("taxevent.BankParser", "transaction amount", err)
		}
		if !ok {
			continue
		}
		date, err := NormalizeDate(tx.Date)
		if err != nil {
			return nil, declerr.Parse("taxevent.BankParser", "transaction date", err)
		}

		direction := "debit"
		if isCredit {
			direction = "credit"
		}
		events = append(events, domain.TaxEventInput{
			EventTypeCode: inferBankEventType(tx),
			EventDate:     date,
			Amount:        amountPtr(amount),
			Currency:      currency,
			Metadata: map[string]any{
				"description":       tx.Description,
				"purpose":           tx.Purpose,
				"transaction_index": i,
				"direction":         direction,
			},
		})
	}
	return events, nil
}

// bankTxAmount resolves the signed amount and credit/debit direction from
// either a single signed "amount" field or separate credit/debit fields.
func bankTxAmount(tx bankTransaction) (amount decimal.Decimal, isCredit bool, ok bool, err error) {
	if tx.Credit != "" {
		amount, err = NormalizeAmount(tx.Credit)
		return amount, true, true, err
	}
	if tx.Debit != "" {
		amount, err = NormalizeAmount(tx.Debit)
		return amount, false, true, err
	}
	if tx.Amount == "" {
		return decimal.Zero, false, false, nil
	}
	amount, err = NormalizeAmount(tx.Amount)
	if err != nil {
		return decimal.Zero, false, false, err
	}
	if amount.IsNegative() {
		return amount.Abs(), false, true, nil
	}
	return amount, true, true, nil
}

func inferBankEventType(tx bankTransaction) string {
	return inferEventTypeFromText(tx.Description + " " + tx.Purpose)
}

// inferEventTypeFromText scans free-form text for the shared keyword
// table, returning the generic non-agent fallback when nothing matches.
// Used both by BankParser (description/purpose) and by the tabular
// parsers (csv.go, excel.go) when no explicit event-type column is
// present (§4.A).
func inferEventTypeFromText(text string) string {
	text = strings.ToLower(text)
	for _, kw := range bankKeywordEventTypes {
		if strings.Contains(text, kw.keyword) {
			return kw.eventType
		}
	}
	return domain.EVNonAgentOther
}
