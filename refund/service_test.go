package refund

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/mstgnz/brqpay/gateway"
	"github.com/mstgnz/brqpay/order"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGateway struct {
	mu       sync.Mutex
	requests []*gateway.TransactionRequest
	respond  func(req *gateway.TransactionRequest, n int) (*gateway.TransactionResponse, error)
}

func (g *fakeGateway) Refund(_ context.Context, req *gateway.TransactionRequest) (*gateway.TransactionResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.requests = append(g.requests, req)
	return g.respond(req, len(g.requests))
}

func approveAll() *fakeGateway {
	return &fakeGateway{respond: func(req *gateway.TransactionRequest, n int) (*gateway.TransactionResponse, error) {
		return successResponse("RF-"+req.OriginalTransactionKey, req.AmountCredit.String()), nil
	}}
}

func newService(f *fixture, gw Gateway) *Service {
	return NewService(ServiceConfig{Orders: f.orders, Ledger: f.ledger, Gateway: gw})
}

func TestRefund_SinglePayment(t *testing.T) {
	f := newFixture(t, paymentEntry("TX1", "ideal", "100.00"))
	gw := approveAll()

	results, err := newService(f, gw).Refund(context.Background(), Command{
		OrderID: "o1",
		Amount:  dec("60.00"),
		Client:  ClientInfo{IP: "10.0.0.1"},
	})
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.True(t, results[0].Success)
	assert.Equal(t, order.StatusPartialRefunded, results[0].PaymentStatus)
	require.Len(t, gw.requests, 1)
	assert.Equal(t, "TX1", gw.requests[0].OriginalTransactionKey)
	assert.Equal(t, "ideal", gw.requests[0].Service().Name)
	assert.Equal(t, "10.0.0.1", gw.requests[0].ClientIP.Address)
}

func TestRefund_SpreadsNewestFirst(t *testing.T) {
	older := paymentEntry("TX1", "ideal", "30.00")
	newer := paymentEntry("TX2", "visa", "70.00")
	f := newFixture(t, older, newer)
	gw := approveAll()

	results, err := newService(f, gw).Refund(context.Background(), Command{OrderID: "o1", Amount: dec("80.00")})
	require.NoError(t, err)

	require.Len(t, results, 2)
	require.Len(t, gw.requests, 2)
	assert.Equal(t, "TX2", gw.requests[0].OriginalTransactionKey)
	assert.Equal(t, "visa", gw.requests[0].Service().Name)
	assert.Equal(t, 2, gw.requests[0].Service().Version)
	assert.True(t, gw.requests[0].AmountCredit.Equal(dec("70")))
	assert.Equal(t, "TX1", gw.requests[1].OriginalTransactionKey)
	assert.True(t, gw.requests[1].AmountCredit.Equal(dec("10")))
	assert.Equal(t, order.StatusPartialRefunded, f.order(t).PaymentStatus)
}

func TestRefund_StopsAtFirstFailure(t *testing.T) {
	f := newFixture(t, paymentEntry("TX1", "ideal", "30.00"), paymentEntry("TX2", "ideal", "70.00"))
	gw := &fakeGateway{respond: func(req *gateway.TransactionRequest, n int) (*gateway.TransactionResponse, error) {
		return &gateway.TransactionResponse{Status: gateway.Status{Code: gateway.StatusCode{Code: 490, Description: "Failed"}}}, nil
	}}

	results, err := newService(f, gw).Refund(context.Background(), Command{OrderID: "o1", Amount: dec("100.00")})
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, ResultFailed, results[0].Status)
	assert.Equal(t, "490", results[0].Code)
	assert.Len(t, gw.requests, 1)
	assert.Equal(t, order.StatusPaid, f.order(t).PaymentStatus)
}

func TestRefund_TransportErrorIsFailedResult(t *testing.T) {
	f := newFixture(t, paymentEntry("TX1", "ideal", "100.00"))
	gw := &fakeGateway{respond: func(*gateway.TransactionRequest, int) (*gateway.TransactionResponse, error) {
		return nil, errors.New("connection refused")
	}}

	results, err := newService(f, gw).Refund(context.Background(), Command{OrderID: "o1", Amount: dec("10")})
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.False(t, results[0].Success)
	assert.Contains(t, results[0].Message, "connection refused")
}

func TestRefund_Validation(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(*order.Order)
		amount   string
		orderID  string
		wantCode string
		wantErr  error
	}{
		{name: "zero amount", amount: "0", wantCode: order.ErrCodeInvalidAmount},
		{name: "above refundable", amount: "100.01", wantCode: order.ErrCodeInvalidAmount},
		{name: "unknown order", amount: "10", orderID: "nope", wantErr: order.ErrOrderNotFound},
		{name: "no billing", amount: "10", setup: func(o *order.Order) { o.Billing = nil }, wantCode: order.ErrCodeMissingAddress},
		{name: "shipping without deliveries", amount: "10", setup: func(o *order.Order) { o.ShippingTotal = dec("4.95") }, wantCode: order.ErrCodeMissingDeliveries},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, paymentEntry("TX1", "ideal", "100.00"))
			if tt.setup != nil {
				o := f.order(t)
				tt.setup(o)
				require.NoError(t, f.orders.Save(context.Background(), o))
			}
			orderID := tt.orderID
			if orderID == "" {
				orderID = "o1"
			}
			gw := approveAll()

			_, err := newService(f, gw).Refund(context.Background(), Command{OrderID: orderID, Amount: dec(tt.amount)})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.True(t, order.IsErrorCode(err, tt.wantCode), "got %v", err)
			}
			assert.Empty(t, gw.requests)
		})
	}
}

func TestRefund_NothingRefundable(t *testing.T) {
	failedPayment := paymentEntry("TX1", "ideal", "100.00")
	failedPayment.Status = "failed"
	f := newFixture(t, failedPayment)

	_, err := newService(f, approveAll()).Refund(context.Background(), Command{OrderID: "o1", Amount: dec("10")})
	assert.True(t, order.IsErrorCode(err, order.ErrCodeInvalidRefundTarget), "got %v", err)
}

func TestRefund_FullRefundThenNothingLeft(t *testing.T) {
	f := newFixture(t, paymentEntry("TX1", "ideal", "100.00"))
	svc := newService(f, approveAll())

	_, err := svc.Refund(context.Background(), Command{OrderID: "o1", Amount: dec("100.00")})
	require.NoError(t, err)
	assert.Equal(t, order.StatusRefunded, f.order(t).PaymentStatus)

	_, err = svc.Refund(context.Background(), Command{OrderID: "o1", Amount: dec("1")})
	assert.True(t, order.IsErrorCode(err, order.ErrCodeInvalidRefundTarget), "got %v", err)
}

func TestRefund_ValidatesItemsForEveryMethod(t *testing.T) {
	tests := []struct {
		name  string
		items map[string]int
	}{
		{"unknown line", map[string]int{"no-such-line": 1}},
		{"more than ordered", map[string]int{"book": 2}},
		{"zero quantity", map[string]int{"shirt": 0}},
		{"negative quantity", map[string]int{"shirt": -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, paymentEntry("TX1", "ideal", "100.00"))
			gw := approveAll()

			_, err := newService(f, gw).Refund(context.Background(), Command{OrderID: "o1", Amount: dec("10"), Items: tt.items})

			var integrity *order.IntegrityError
			require.ErrorAs(t, err, &integrity)
			assert.Equal(t, order.ErrCodeInvalidRefundTarget, integrity.Code)
			assert.Empty(t, gw.requests)
		})
	}
}

func TestRefund_ItemsCannotBeRefundedTwice(t *testing.T) {
	f := newFixture(t, paymentEntry("TX1", "ideal", "100.00"))
	gw := approveAll()
	svc := newService(f, gw)
	ctx := context.Background()

	results, err := svc.Refund(ctx, Command{OrderID: "o1", Amount: dec("30.00"), Items: map[string]int{"shirt": 1}})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.True(t, results[0].Success)

	_, err = svc.Refund(ctx, Command{OrderID: "o1", Amount: dec("60.00"), Items: map[string]int{"shirt": 2}})
	var integrity *order.IntegrityError
	require.ErrorAs(t, err, &integrity)
	assert.Equal(t, order.ErrCodeInvalidRefundTarget, integrity.Code)
	assert.Len(t, gw.requests, 1)

	results, err = svc.Refund(ctx, Command{OrderID: "o1", Amount: dec("30.00"), Items: map[string]int{"shirt": 1}})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Success)
}

func TestRefund_UsesOrderPaymentMethod(t *testing.T) {
	tests := []struct {
		name        string
		method      string
		settledWith string
		wantService string
		wantVersion int
	}{
		{"paybybank settled with ideal", "paybybank", "ideal", "ideal", 0},
		{"paybybank settled with another bank", "paybybank", "sofort", "paybybank", 0},
		{"creditcard wrapper", "creditcard", "mastercard", "mastercard", 2},
		{"giftcard wrapper", "giftcard", "fashioncheque", "fashioncheque", 1},
		{"no configured method", "", "bancontactmrcash", "bancontactmrcash", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, paymentEntry("TX1", tt.settledWith, "100.00"))
			o := f.order(t)
			o.PaymentMethod = tt.method
			require.NoError(t, f.orders.Save(context.Background(), o))
			gw := approveAll()

			_, err := newService(f, gw).Refund(context.Background(), Command{OrderID: "o1", Amount: dec("10")})
			require.NoError(t, err)

			require.Len(t, gw.requests, 1)
			assert.Equal(t, tt.wantService, gw.requests[0].Service().Name)
			assert.Equal(t, tt.wantVersion, gw.requests[0].Service().Version)
		})
	}
}
