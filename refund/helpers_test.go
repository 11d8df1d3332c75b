package refund

import (
	"context"
	"testing"

	"github.com/mstgnz/brqpay/gateway"
	"github.com/mstgnz/brqpay/ledger"
	"github.com/mstgnz/brqpay/order"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testOrder() *order.Order {
	return &order.Order{
		ID:            "o1",
		Number:        "10001",
		TransactionID: "ot1",
		Currency:      "EUR",
		Total:         dec("100.00"),
		PaymentStatus: order.StatusPaid,
		Billing:       &order.Address{FirstName: "Jan", LastName: "Jansen", Country: "NL"},
		LineItems: []order.LineItem{
			{ID: "shirt", Label: "Shirt", Quantity: 2, UnitPrice: dec("30.005"), TaxRate: dec("21")},
			{ID: "book", Label: "Book", Quantity: 1, UnitPrice: dec("40"), TaxRate: dec("9")},
		},
	}
}

func paymentEntry(key, method, amount string) *ledger.Transaction {
	return &ledger.Transaction{
		OrderID:        "o1",
		Type:           ledger.TypePayment,
		TransactionKey: key,
		ServiceCode:    method,
		StatusCode:     "190",
		Status:         ledger.StatusSuccess,
		Amount:         dec(amount),
		Currency:       "EUR",
	}
}

type fixture struct {
	orders *order.MemoryStore
	ledger *ledger.Ledger
}

func newFixture(t *testing.T, payments ...*ledger.Transaction) *fixture {
	t.Helper()
	ctx := context.Background()
	f := &fixture{orders: order.NewMemoryStore(), ledger: ledger.New(ledger.NewMemoryStore())}
	require.NoError(t, f.orders.Save(ctx, testOrder()))
	for _, tx := range payments {
		_, err := f.ledger.Append(ctx, tx)
		require.NoError(t, err)
	}
	return f
}

func (f *fixture) order(t *testing.T) *order.Order {
	t.Helper()
	o, err := f.orders.Get(context.Background(), "o1")
	require.NoError(t, err)
	return o
}

func successResponse(key, amount string) *gateway.TransactionResponse {
	return &gateway.TransactionResponse{
		Key:          key,
		Status:       gateway.Status{Code: gateway.StatusCode{Code: 190, Description: "Success"}},
		AmountCredit: dec(amount),
		Currency:     "EUR",
	}
}

func params(s gateway.Service) map[string]string {
	out := make(map[string]string)
	for _, p := range s.Parameters {
		out[p.GroupID+"."+p.Name] = p.Value
	}
	return out
}
