package ledger

import (
	"errors"
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when no ledger entry matches
var ErrNotFound = errors.New("ledger entry not found")

// Type is the kind of engine response an entry records
type Type string

const (
	TypePayment   Type = "payment"
	TypeAuthorize Type = "authorize"
	TypeRefund    Type = "refund"
	TypeGiftcard  Type = "giftcard"
)

// IsDebit reports whether entries of this type move money to the merchant
func (t Type) IsDebit() bool {
	return t == TypePayment || t == TypeGiftcard
}

// Status is the outcome the engine reported for an entry
type Status string

const (
	StatusSuccess   Status = "success"
	StatusPending   Status = "pending"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Transaction is one persisted engine response. Entries are identified by
// (TransactionKey, UniqueIdentifier).
type Transaction struct {
	ID                 string          `json:"id"`
	OrderID            string          `json:"order_id"`
	OrderTransactionID string          `json:"order_transaction_id"`
	OrderNumber        string          `json:"order_number"`
	Type               Type            `json:"type"`
	TransactionKey     string          `json:"transaction_key"`
	UniqueIdentifier   string          `json:"unique_identifier"`
	TransactionType    string          `json:"transaction_type"`
	RelatedTransaction string          `json:"related_transaction,omitempty"`
	ServiceCode        string          `json:"service_code"`
	StatusCode         string          `json:"status_code"`
	Status             Status          `json:"status"`
	Amount             decimal.Decimal `json:"amount"`
	AmountCredit       decimal.Decimal `json:"amount_credit"`
	Currency           string          `json:"currency"`
	IsTest             bool            `json:"is_test"`
	RefundedItems      map[string]int  `json:"refunded_items,omitempty"`
	CreditedRefunds    []string        `json:"credited_refunds,omitempty"`
	CreatedByEngineAt  time.Time       `json:"created_by_engine_at"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// SignedAmount is the amount as seen from the merchant: positive for debits, negative for refunds
func (t *Transaction) SignedAmount() decimal.Decimal {
	if t.Type == TypeRefund {
		return t.AmountCredit.Neg()
	}
	return t.Amount
}

// Identifier returns the unique identifier, defaulting to the transaction key
func (t *Transaction) Identifier() string {
	if t.UniqueIdentifier != "" {
		return t.UniqueIdentifier
	}
	return t.TransactionKey
}

// IsSuccess reports whether the engine reported success
func (t *Transaction) IsSuccess() bool {
	return t.Status == StatusSuccess
}

// RefundableAmount is what is left of a debit after credited refunds
func (t *Transaction) RefundableAmount() decimal.Decimal {
	if !t.Type.IsDebit() {
		return decimal.Zero
	}
	left := t.Amount.Sub(t.AmountCredit)
	if left.IsNegative() {
		return decimal.Zero
	}
	return left
}

// HasCredited reports whether refundKey was already credited onto this entry
func (t *Transaction) HasCredited(refundKey string) bool {
	return slices.Contains(t.CreditedRefunds, refundKey)
}

// Clone returns a deep copy
func (t *Transaction) Clone() *Transaction {
	c := *t
	if t.RefundedItems != nil {
		c.RefundedItems = make(map[string]int, len(t.RefundedItems))
		for k, v := range t.RefundedItems {
			c.RefundedItems[k] = v
		}
	}
	c.CreditedRefunds = slices.Clone(t.CreditedRefunds)
	return &c
}

// merge copies the engine fields of incoming onto t. Credit bookkeeping already on t
// survives when incoming carries none.
func (t *Transaction) merge(incoming *Transaction) {
	t.OrderID = firstNonEmpty(incoming.OrderID, t.OrderID)
	t.OrderTransactionID = firstNonEmpty(incoming.OrderTransactionID, t.OrderTransactionID)
	t.OrderNumber = firstNonEmpty(incoming.OrderNumber, t.OrderNumber)
	t.Type = incoming.Type
	t.TransactionType = incoming.TransactionType
	t.RelatedTransaction = firstNonEmpty(incoming.RelatedTransaction, t.RelatedTransaction)
	t.ServiceCode = firstNonEmpty(incoming.ServiceCode, t.ServiceCode)
	t.StatusCode = incoming.StatusCode
	t.Status = incoming.Status
	t.Amount = incoming.Amount
	t.Currency = firstNonEmpty(incoming.Currency, t.Currency)
	t.IsTest = incoming.IsTest
	if !incoming.CreatedByEngineAt.IsZero() {
		t.CreatedByEngineAt = incoming.CreatedByEngineAt
	}

	if t.Type == TypeRefund || len(incoming.CreditedRefunds) > 0 || !incoming.AmountCredit.IsZero() {
		t.AmountCredit = incoming.AmountCredit
	}
	if len(incoming.RefundedItems) > 0 {
		t.RefundedItems = incoming.RefundedItems
	}
	if len(incoming.CreditedRefunds) > 0 {
		t.CreditedRefunds = incoming.CreditedRefunds
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
