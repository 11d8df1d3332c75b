package push

import (
	"github.com/mstgnz/brqpay/ledger"
	"github.com/mstgnz/brqpay/order"
)

const klarnaReservationField = "BRQ_SERVICE_KLARNAKP_RESERVATIONNUMBER"

// KlarnaKPProcessor wraps the payment or authorize processor for Klarna pay later.
// A successful data request is a reservation and authorizes the order instead of paying it.
type KlarnaKPProcessor struct {
	inner Processor
}

// NewKlarnaKPProcessor wraps inner
func NewKlarnaKPProcessor(inner Processor) *KlarnaKPProcessor {
	return &KlarnaKPProcessor{inner: inner}
}

func (p *KlarnaKPProcessor) OnSuccess(state *ProcessingState) {
	if state.Request.IsDataRequest() {
		state.SetStatus(order.StatusAuthorized)
		state.RecordTransaction(ledger.TypeAuthorize)
	} else {
		p.inner.OnSuccess(state)
	}
	state.AddMetadata("reservationNumber", state.Request.Notification.String(klarnaReservationField))
}

func (p *KlarnaKPProcessor) OnPending(state *ProcessingState) { p.inner.OnPending(state) }
func (p *KlarnaKPProcessor) OnFailed(state *ProcessingState)  { p.inner.OnFailed(state) }
func (p *KlarnaKPProcessor) OnCancel(state *ProcessingState)  { p.inner.OnCancel(state) }
