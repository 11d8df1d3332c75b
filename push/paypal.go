package push

import "github.com/mstgnz/brqpay/order"

// PayPalProcessor is the payment processor with PayPal's pending quirk: a 791 push
// means the buyer abandoned and is treated as failed.
type PayPalProcessor struct {
	PaymentProcessor
}

func (PayPalProcessor) OnProcessing(state *ProcessingState) {
	if state.Request.StatusCode == CodePendingProcessing {
		state.SetStatus(order.StatusFailed)
	}
}
