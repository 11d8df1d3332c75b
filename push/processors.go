package push

import (
	"github.com/mstgnz/brqpay/ledger"
	"github.com/mstgnz/brqpay/order"
)

// PaymentProcessor settles regular payments
type PaymentProcessor struct {
	noopProcessor
}

func (PaymentProcessor) OnSuccess(state *ProcessingState) {
	state.SetStatus(order.StatusPaid)
	state.AddMetadata("serviceCode", state.Request.Method)
	state.AddMetadata("transactionKey", state.Request.Notification.String("BRQ_TRANSACTIONS"))
	state.RecordTransaction(ledger.TypePayment)
}

func (PaymentProcessor) OnFailed(state *ProcessingState) {
	state.SetStatus(order.StatusFailed)
}

func (PaymentProcessor) OnCancel(state *ProcessingState) {
	state.SetStatus(order.StatusCancelled)
}

// AuthorizeProcessor records reservations of deferred-capture methods
type AuthorizeProcessor struct {
	noopProcessor
}

func (AuthorizeProcessor) OnSuccess(state *ProcessingState) {
	state.SetStatus(order.StatusAuthorized)
	state.RecordTransaction(ledger.TypeAuthorize)
}

// RefundProcessor records refunds; failed refunds are kept in the ledger for reconciliation
type RefundProcessor struct {
	noopProcessor
}

func (RefundProcessor) OnSuccess(state *ProcessingState) {
	state.SetStatus(order.StatusRefunded)
	state.RecordTransaction(ledger.TypeRefund)
}

func (RefundProcessor) OnFailed(state *ProcessingState) {
	state.SetStatus(order.StatusRefundFailed)
	state.RecordTransaction(ledger.TypeRefund)
}

func (p RefundProcessor) OnCancel(state *ProcessingState) {
	p.OnFailed(state)
}

// GiftcardProcessor settles giftcard payments
type GiftcardProcessor struct {
	noopProcessor
}

func (GiftcardProcessor) OnSuccess(state *ProcessingState) {
	state.SetStatus(order.StatusPaid)
	state.RecordTransaction(ledger.TypeGiftcard)
}

// GroupProcessor handles the bundle push of a split payment. The child pushes carry the
// order state, so only metadata survives.
type GroupProcessor struct {
	PaymentProcessor
}

func (p GroupProcessor) OnSuccess(state *ProcessingState) {
	p.PaymentProcessor.OnSuccess(state)
	state.Reset()
}

func (GroupProcessor) OnFailed(*ProcessingState) {}
func (GroupProcessor) OnCancel(*ProcessingState) {}
