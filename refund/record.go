package refund

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mstgnz/brqpay/ledger"
	"github.com/shopspring/decimal"
)

// PaymentRecord is a read-only view of the payment a refund is booked against
type PaymentRecord interface {
	ID() string
	Amount() decimal.Decimal
	OriginalTransactionKey() string
	PaymentCode() string
	RefundedAmount() decimal.Decimal
}

// Refundable returns what is left to refund on r, never negative
func Refundable(r PaymentRecord) decimal.Decimal {
	left := r.Amount().Sub(r.RefundedAmount())
	if left.IsNegative() {
		return decimal.Zero
	}
	return left
}

// MapRecord adapts a loosely typed payment row, for callers that drive Builder
// and ResponseHandler with payments kept outside the ledger.
// Recognised keys: id, amount, transactions, transaction_method, amount_credit.
type MapRecord map[string]any

func (m MapRecord) ID() string                     { return m.text("id") }
func (m MapRecord) Amount() decimal.Decimal        { return m.number("amount") }
func (m MapRecord) OriginalTransactionKey() string { return m.text("transactions") }
func (m MapRecord) PaymentCode() string            { return strings.ToLower(m.text("transaction_method")) }
func (m MapRecord) RefundedAmount() decimal.Decimal {
	return m.number("amount_credit")
}

func (m MapRecord) text(key string) string {
	switch v := m[key].(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	default:
		return fmt.Sprint(v)
	}
}

func (m MapRecord) number(key string) decimal.Decimal {
	switch v := m[key].(type) {
	case decimal.Decimal:
		return v
	case float64:
		return decimal.NewFromFloat(v)
	case int:
		return decimal.NewFromInt(int64(v))
	case int64:
		return decimal.NewFromInt(v)
	case json.Number:
		d, _ := decimal.NewFromString(v.String())
		return d
	case string:
		d, _ := decimal.NewFromString(strings.TrimSpace(v))
		return d
	}
	return decimal.Zero
}

// LedgerRecord adapts a persisted ledger debit
type LedgerRecord struct {
	tx *ledger.Transaction
}

// NewLedgerRecord wraps tx
func NewLedgerRecord(tx *ledger.Transaction) LedgerRecord {
	return LedgerRecord{tx: tx}
}

func (r LedgerRecord) ID() string                      { return r.tx.ID }
func (r LedgerRecord) Amount() decimal.Decimal         { return r.tx.Amount }
func (r LedgerRecord) OriginalTransactionKey() string  { return r.tx.TransactionKey }
func (r LedgerRecord) PaymentCode() string             { return strings.ToLower(r.tx.ServiceCode) }
func (r LedgerRecord) RefundedAmount() decimal.Decimal { return r.tx.AmountCredit }
