package refund

import (
	"github.com/mstgnz/brqpay/order"
	"github.com/shopspring/decimal"
)

// ClientInfo describes the caller that initiated the refund
type ClientInfo struct {
	IP string
}

// RefundData is everything one outbound refund call needs. It is built per call, never stored.
type RefundData struct {
	Order  *order.Order
	Amount decimal.Decimal
	Record PaymentRecord
	// Items maps line item ids to refunded quantities; empty refunds a plain amount.
	Items map[string]int
}
