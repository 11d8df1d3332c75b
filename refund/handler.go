package refund

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mstgnz/brqpay/gateway"
	"github.com/mstgnz/brqpay/infra/logger"
	"github.com/mstgnz/brqpay/ledger"
	"github.com/mstgnz/brqpay/order"
	"github.com/mstgnz/brqpay/push"
	"github.com/shopspring/decimal"
)

// Result statuses
const (
	ResultSuccess = "success"
	ResultPending = "pending"
	ResultFailed  = "failed"
)

// Result is the caller-facing outcome of one refund call
type Result struct {
	Success        bool                `json:"success"`
	Status         string              `json:"status"`
	Message        string              `json:"message,omitempty"`
	Code           string              `json:"code,omitempty"`
	TransactionKey string              `json:"transaction_key,omitempty"`
	Amount         decimal.Decimal     `json:"amount"`
	PaymentStatus  order.PaymentStatus `json:"payment_status,omitempty"`
}

func failed(message, code string, amount decimal.Decimal) Result {
	return Result{Status: ResultFailed, Message: message, Code: code, Amount: amount}
}

// ResponseHandler applies gateway refund responses to the ledger and the order
type ResponseHandler struct {
	orders order.Store
	ledger *ledger.Ledger
}

// NewResponseHandler creates a ResponseHandler
func NewResponseHandler(orders order.Store, l *ledger.Ledger) *ResponseHandler {
	return &ResponseHandler{orders: orders, ledger: l}
}

// Handle interprets resp for data. Only a successful response mutates state; pending
// responses are completed by the refund push. The returned error reports storage failures.
func (h *ResponseHandler) Handle(ctx context.Context, data RefundData, resp *gateway.TransactionResponse) (Result, error) {
	code := resp.StatusCode()
	switch {
	case code == push.CodeSuccess:
	case strings.HasPrefix(code, "79"):
		return Result{
			Status:         ResultPending,
			Message:        resp.Message(),
			Code:           code,
			TransactionKey: resp.Key,
			Amount:         data.Amount,
		}, nil
	default:
		return failed(resp.Message(), code, data.Amount), nil
	}

	if resp.Key == "" {
		return Result{}, fmt.Errorf("refund: successful response without transaction key")
	}

	o := data.Order
	credit := resp.AmountCredit
	if !credit.IsPositive() {
		credit = data.Amount
	}
	serviceCode := resp.ServiceCode
	if serviceCode == "" {
		serviceCode = data.Record.PaymentCode()
	}
	currency := resp.Currency
	if currency == "" {
		currency = o.Currency
	}

	entry := &ledger.Transaction{
		OrderID:            o.ID,
		OrderTransactionID: o.TransactionID,
		OrderNumber:        o.Number,
		Type:               ledger.TypeRefund,
		TransactionKey:     resp.Key,
		TransactionType:    resp.TransactionType,
		RelatedTransaction: data.Record.OriginalTransactionKey(),
		ServiceCode:        strings.ToLower(serviceCode),
		StatusCode:         code,
		Status:             ledger.StatusSuccess,
		AmountCredit:       credit,
		Currency:           currency,
		IsTest:             resp.IsTest,
		RefundedItems:      data.Items,
	}
	if _, err := h.ledger.Append(ctx, entry); err != nil {
		return Result{}, fmt.Errorf("refund: append ledger: %w", err)
	}

	logCtx := logger.LogContext{OrderID: o.ID, Method: entry.ServiceCode}
	_, err := h.ledger.Credit(ctx, entry.RelatedTransaction, entry.TransactionKey, credit, data.Items)
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		logger.Warn("refunded payment "+entry.RelatedTransaction+" is not in the ledger", logCtx)
	case err != nil:
		return Result{}, fmt.Errorf("refund: credit payment: %w", err)
	}

	state, err := h.ledger.Reconstruct(ctx, o.ID)
	if err != nil {
		return Result{}, fmt.Errorf("refund: reconstruct ledger: %w", err)
	}
	target := order.StatusRefunded
	if state.RefundedAmount().LessThan(o.Total) {
		target = order.StatusPartialRefunded
	}
	if !o.Transition(target) {
		logger.Info(fmt.Sprintf("transition %s -> %s skipped", o.PaymentStatus, target), logCtx)
	}
	if err := h.orders.Save(ctx, o); err != nil {
		return Result{}, fmt.Errorf("refund: save order: %w", err)
	}

	return Result{
		Success:        true,
		Status:         ResultSuccess,
		Code:           code,
		TransactionKey: resp.Key,
		Amount:         credit,
		PaymentStatus:  o.PaymentStatus,
	}, nil
}
