package refund

import (
	"context"
	"testing"

	"github.com/mstgnz/brqpay/gateway"
	"github.com/mstgnz/brqpay/ledger"
	"github.com/mstgnz/brqpay/order"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandle_StatusBoundary(t *testing.T) {
	tests := []struct {
		name   string
		amount string
		want   order.PaymentStatus
	}{
		{"partial", "60.00", order.StatusPartialRefunded},
		{"full", "100.00", order.StatusRefunded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, paymentEntry("TX1", "ideal", "100.00"))
			h := NewResponseHandler(f.orders, f.ledger)
			payment, err := f.ledger.Reconstruct(context.Background(), "o1")
			require.NoError(t, err)

			data := RefundData{Order: f.order(t), Amount: dec(tt.amount), Record: NewLedgerRecord(payment.Payments()[0])}
			result, err := h.Handle(context.Background(), data, successResponse("RF1", tt.amount))
			require.NoError(t, err)

			assert.True(t, result.Success)
			assert.Equal(t, ResultSuccess, result.Status)
			assert.Equal(t, "RF1", result.TransactionKey)
			assert.Equal(t, tt.want, result.PaymentStatus)
			assert.Equal(t, tt.want, f.order(t).PaymentStatus)
		})
	}
}

func TestHandle_ReplayDoesNotDoubleCredit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, paymentEntry("TX1", "ideal", "100.00"))
	h := NewResponseHandler(f.orders, f.ledger)
	data := RefundData{
		Order:  f.order(t),
		Amount: dec("60.00"),
		Record: MapRecord{"transactions": "TX1", "transaction_method": "ideal"},
		Items:  map[string]int{"shirt": 1},
	}

	for i := 0; i < 2; i++ {
		result, err := h.Handle(ctx, data, successResponse("RF1", "60.00"))
		require.NoError(t, err)
		assert.Equal(t, order.StatusPartialRefunded, result.PaymentStatus)
	}

	state, err := f.ledger.Reconstruct(ctx, "o1")
	require.NoError(t, err)
	assert.True(t, state.RefundedAmount().Equal(dec("60.00")))
	require.Len(t, state.Refunds(), 1)
	assert.Equal(t, "TX1", state.Refunds()[0].RelatedTransaction)

	payment := state.Payments()[0]
	assert.True(t, payment.AmountCredit.Equal(dec("60.00")))
	assert.Equal(t, map[string]int{"shirt": 1}, payment.RefundedItems)
}

func TestHandle_RefundedItemsAreAdditive(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, paymentEntry("TX1", "afterpay", "100.00"))
	h := NewResponseHandler(f.orders, f.ledger)
	record := MapRecord{"transactions": "TX1", "transaction_method": "afterpay"}

	_, err := h.Handle(ctx, RefundData{Order: f.order(t), Amount: dec("30"), Record: record, Items: map[string]int{"shirt": 1}},
		successResponse("RF1", "30"))
	require.NoError(t, err)
	_, err = h.Handle(ctx, RefundData{Order: f.order(t), Amount: dec("70"), Record: record, Items: map[string]int{"shirt": 1, "book": 1}},
		successResponse("RF2", "70"))
	require.NoError(t, err)

	state, err := f.ledger.Reconstruct(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"shirt": 2, "book": 1}, state.Payments()[0].RefundedItems)
	assert.Equal(t, order.StatusRefunded, f.order(t).PaymentStatus)
}

func TestHandle_PendingAndFailedDoNotMutate(t *testing.T) {
	tests := []struct {
		name       string
		code       int
		wantStatus string
	}{
		{"pending", 791, ResultPending},
		{"on hold", 793, ResultPending},
		{"failed", 490, ResultFailed},
		{"rejected", 690, ResultFailed},
		{"validation", 491, ResultFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			f := newFixture(t, paymentEntry("TX1", "ideal", "100.00"))
			h := NewResponseHandler(f.orders, f.ledger)
			resp := &gateway.TransactionResponse{
				Key: "RF1",
				Status: gateway.Status{
					Code:    gateway.StatusCode{Code: tt.code, Description: "Status"},
					SubCode: gateway.StatusCode{Description: "detail"},
				},
			}

			data := RefundData{Order: f.order(t), Amount: dec("10"), Record: MapRecord{"transactions": "TX1"}}
			result, err := h.Handle(ctx, data, resp)
			require.NoError(t, err)

			assert.False(t, result.Success)
			assert.Equal(t, tt.wantStatus, result.Status)
			assert.Equal(t, "detail", result.Message)

			state, err := f.ledger.Reconstruct(ctx, "o1")
			require.NoError(t, err)
			assert.False(t, state.HasRefunds())
			assert.Equal(t, order.StatusPaid, f.order(t).PaymentStatus)
		})
	}
}

func TestHandle_UnknownPaymentStillRecordsRefund(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	h := NewResponseHandler(f.orders, f.ledger)

	data := RefundData{Order: f.order(t), Amount: dec("20"), Record: MapRecord{"transactions": "GONE"}}
	result, err := h.Handle(ctx, data, successResponse("RF1", "20"))
	require.NoError(t, err)

	assert.True(t, result.Success)
	state, err := f.ledger.Reconstruct(ctx, "o1")
	require.NoError(t, err)
	assert.True(t, state.HasRefunds())
	assert.Equal(t, order.StatusPartialRefunded, f.order(t).PaymentStatus)
}

func TestHandle_SuccessWithoutKey(t *testing.T) {
	f := newFixture(t)
	h := NewResponseHandler(f.orders, f.ledger)

	data := RefundData{Order: f.order(t), Amount: dec("20"), Record: MapRecord{"transactions": "TX1"}}
	_, err := h.Handle(context.Background(), data, successResponse("", "20"))
	assert.Error(t, err)
}

func TestHandle_FallsBackToRequestedAmount(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, paymentEntry("TX1", "ideal", "100.00"))
	h := NewResponseHandler(f.orders, f.ledger)

	resp := successResponse("RF1", "0")
	data := RefundData{Order: f.order(t), Amount: dec("25"), Record: MapRecord{"transactions": "TX1"}}
	result, err := h.Handle(ctx, data, resp)
	require.NoError(t, err)

	assert.True(t, result.Amount.Equal(dec("25")))
	entry, err := f.ledger.Reconstruct(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, ledger.TypeRefund, entry.Refunds()[0].Type)
	assert.True(t, entry.Refunds()[0].AmountCredit.Equal(dec("25")))
}
