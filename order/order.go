package order

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus is the payment state of an order
type PaymentStatus string

const (
	StatusOpen            PaymentStatus = "open"
	StatusAuthorized      PaymentStatus = "authorized"
	StatusPaid            PaymentStatus = "paid"
	StatusFailed          PaymentStatus = "failed"
	StatusCancelled       PaymentStatus = "cancelled"
	StatusRefunded        PaymentStatus = "refunded"
	StatusPartialRefunded PaymentStatus = "partially_refunded"
	StatusRefundFailed    PaymentStatus = "refund_failed"
)

// IsValid reports whether s is a known payment status
func (s PaymentStatus) IsValid() bool {
	switch s {
	case StatusOpen, StatusAuthorized, StatusPaid, StatusFailed, StatusCancelled,
		StatusRefunded, StatusPartialRefunded, StatusRefundFailed:
		return true
	}
	return false
}

// CanTransitionTo reports whether moving from s to target is allowed.
// Paid orders only move forward through refunds, so a redelivered or late push
// cannot rewind them. A fully refunded order is final.
func (s PaymentStatus) CanTransitionTo(target PaymentStatus) bool {
	if s == target || !target.IsValid() {
		return false
	}

	switch s {
	case StatusOpen, StatusFailed:
		return target == StatusAuthorized || target == StatusPaid || target == StatusFailed || target == StatusCancelled

	case StatusAuthorized:
		return target == StatusPaid || target == StatusFailed || target == StatusCancelled

	case StatusCancelled:
		return target == StatusAuthorized || target == StatusPaid

	case StatusPaid:
		return target == StatusPartialRefunded || target == StatusRefunded || target == StatusRefundFailed

	case StatusPartialRefunded, StatusRefundFailed:
		return target == StatusPartialRefunded || target == StatusRefunded || target == StatusRefundFailed
	}
	return false
}

// Address is the billing address of an order
type Address struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Street    string `json:"street"`
	ZipCode   string `json:"zip_code"`
	City      string `json:"city"`
	Country   string `json:"country"`
	Email     string `json:"email,omitempty"`
}

// LineItem is one product line of an order
type LineItem struct {
	ID        string          `json:"id"`
	Label     string          `json:"label"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	TaxRate   decimal.Decimal `json:"tax_rate"`
}

// Order is the projection of a shop order this service needs to settle payments
type Order struct {
	ID            string            `json:"id"`
	Number        string            `json:"number"`
	TransactionID string            `json:"transaction_id"`
	Currency      string            `json:"currency"`
	Total         decimal.Decimal   `json:"total"`
	ShippingTotal decimal.Decimal   `json:"shipping_total"`
	// PaymentMethod is the method the shop offered at checkout, e.g. "creditcard" or "paybybank".
	PaymentMethod string            `json:"payment_method,omitempty"`
	PaymentStatus PaymentStatus     `json:"payment_status"`
	LineItems     []LineItem        `json:"line_items"`
	Billing       *Address          `json:"billing_address,omitempty"`
	Deliveries    int               `json:"deliveries"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// Transition moves the order to target and reports whether it changed
func (o *Order) Transition(target PaymentStatus) bool {
	if !o.PaymentStatus.CanTransitionTo(target) {
		return false
	}
	o.PaymentStatus = target
	o.UpdatedAt = time.Now().UTC()
	return true
}

// MergeMetadata copies values into the order metadata, overwriting existing keys
func (o *Order) MergeMetadata(values map[string]string) {
	if len(values) == 0 {
		return
	}
	if o.Metadata == nil {
		o.Metadata = make(map[string]string, len(values))
	}
	for k, v := range values {
		o.Metadata[k] = v
	}
}

// LineItem returns the line with the given id
func (o *Order) LineItem(id string) (LineItem, bool) {
	for _, item := range o.LineItems {
		if item.ID == id {
			return item, true
		}
	}
	return LineItem{}, false
}

// ValidateForRefund checks that the order carries what an outbound refund needs.
// Deliveries are only required when the order has shipping costs.
func (o *Order) ValidateForRefund() error {
	if o.Currency == "" {
		return NewIntegrityError(ErrCodeMissingCurrency, "order %s has no currency", o.ID)
	}
	if o.TransactionID == "" {
		return NewIntegrityError(ErrCodeMissingTransaction, "order %s has no payment transaction", o.ID)
	}
	if o.Billing == nil {
		return NewIntegrityError(ErrCodeMissingAddress, "order %s has no billing address", o.ID)
	}
	if o.ShippingTotal.IsPositive() && o.Deliveries == 0 {
		return NewIntegrityError(ErrCodeMissingDeliveries, "order %s has shipping costs but no deliveries", o.ID)
	}
	return nil
}

// Clone returns a deep copy so stores never share mutable state with callers
func (o *Order) Clone() *Order {
	c := *o
	c.LineItems = append([]LineItem(nil), o.LineItems...)
	if o.Billing != nil {
		billing := *o.Billing
		c.Billing = &billing
	}
	if o.Metadata != nil {
		c.Metadata = make(map[string]string, len(o.Metadata))
		for k, v := range o.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}
