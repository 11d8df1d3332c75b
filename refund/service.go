package refund

import (
	"context"
	"fmt"

	"github.com/mstgnz/brqpay/gateway"
	"github.com/mstgnz/brqpay/infra/logger"
	"github.com/mstgnz/brqpay/ledger"
	"github.com/mstgnz/brqpay/order"
	"github.com/shopspring/decimal"
)

// Gateway sends refund requests
type Gateway interface {
	Refund(ctx context.Context, req *gateway.TransactionRequest) (*gateway.TransactionResponse, error)
}

// Command asks for a refund of Amount on an order
type Command struct {
	OrderID string
	Amount  decimal.Decimal
	Items   map[string]int
	Client  ClientInfo
}

// Service runs outbound refunds: it spreads the amount over the refundable payments of an
// order, sends one request per payment and applies each response.
type Service struct {
	orders  order.Store
	ledger  *ledger.Ledger
	locker  *order.Locker
	builder *Builder
	handler *ResponseHandler
	gateway Gateway
}

// ServiceConfig holds the collaborators of a Service
type ServiceConfig struct {
	Orders  order.Store
	Ledger  *ledger.Ledger
	Locker  *order.Locker
	Builder *Builder
	Gateway Gateway
}

// NewService creates a Service; a nil locker gets a private one
func NewService(cfg ServiceConfig) *Service {
	if cfg.Locker == nil {
		cfg.Locker = &order.Locker{}
	}
	if cfg.Builder == nil {
		cfg.Builder = NewBuilder(BuilderConfig{})
	}
	return &Service{
		orders:  cfg.Orders,
		ledger:  cfg.Ledger,
		locker:  cfg.Locker,
		builder: cfg.Builder,
		handler: NewResponseHandler(cfg.Orders, cfg.Ledger),
		gateway: cfg.Gateway,
	}
}

// Refund refunds cmd.Amount, newest payment first. It stops at the first call that does not
// succeed; the results of every attempted call are returned.
func (s *Service) Refund(ctx context.Context, cmd Command) ([]Result, error) {
	if !cmd.Amount.IsPositive() {
		return nil, order.NewIntegrityError(order.ErrCodeInvalidAmount, "refund amount %s must be positive", cmd.Amount)
	}

	unlock := s.locker.Lock(cmd.OrderID)
	defer unlock()

	o, err := s.orders.Get(ctx, cmd.OrderID)
	if err != nil {
		return nil, fmt.Errorf("refund: load order: %w", err)
	}
	if err := o.ValidateForRefund(); err != nil {
		return nil, err
	}

	state, err := s.ledger.Reconstruct(ctx, o.ID)
	if err != nil {
		return nil, fmt.Errorf("refund: reconstruct ledger: %w", err)
	}
	payments := state.RefundablePayments()
	if len(payments) == 0 {
		return nil, order.NewIntegrityError(order.ErrCodeInvalidRefundTarget, "order %s has no refundable payment", o.ID)
	}

	if err := validateItems(o, cmd.Items, state.RefundedItems()); err != nil {
		return nil, err
	}

	available := decimal.Zero
	for _, tx := range payments {
		available = available.Add(tx.RefundableAmount())
	}
	if cmd.Amount.GreaterThan(available) {
		return nil, order.NewIntegrityError(order.ErrCodeInvalidAmount,
			"refund amount %s exceeds refundable %s", cmd.Amount, available)
	}

	logCtx := logger.LogContext{OrderID: o.ID, Fields: map[string]any{"amount": cmd.Amount.String()}}
	logger.Info("refund started", logCtx)

	var results []Result
	remaining := cmd.Amount
	for i, tx := range payments {
		if !remaining.IsPositive() {
			break
		}
		record := NewLedgerRecord(tx)
		part := decimal.Min(remaining, Refundable(record))
		data := RefundData{Order: o, Amount: part, Record: record}
		if i == 0 {
			data.Items = cmd.Items
		}

		result, err := s.refundRecord(ctx, data, cmd.Client)
		if err != nil {
			return results, err
		}
		results = append(results, result)
		if !result.Success {
			logCtx.Fields["status"] = result.Status
			logger.Warn("refund stopped: "+result.Message, logCtx)
			break
		}
		remaining = remaining.Sub(part)
	}
	return results, nil
}

func (s *Service) refundRecord(ctx context.Context, data RefundData, client ClientInfo) (Result, error) {
	req, err := s.builder.Build(data, client, methodCode(data))
	if err != nil {
		return Result{}, err
	}

	resp, err := s.gateway.Refund(ctx, req)
	if err != nil {
		logger.Error("refund request failed", err, logger.LogContext{OrderID: data.Order.ID, Method: data.Record.PaymentCode()})
		return failed(err.Error(), "", data.Amount), nil
	}
	return s.handler.Handle(ctx, data, resp)
}

// methodCode is the payment method the order was placed with, falling back to the
// method that settled the payment
func methodCode(data RefundData) string {
	if data.Order.PaymentMethod != "" {
		return data.Order.PaymentMethod
	}
	return data.Record.PaymentCode()
}

// validateItems checks that every requested line exists on the order and that the
// quantity plus what earlier refunds returned stays within the ordered quantity
func validateItems(o *order.Order, items, refunded map[string]int) error {
	for id, qty := range items {
		item, ok := o.LineItem(id)
		if !ok {
			return order.NewIntegrityError(order.ErrCodeInvalidRefundTarget, "order %s has no line item %s", o.ID, id)
		}
		if qty <= 0 {
			return order.NewIntegrityError(order.ErrCodeInvalidRefundTarget, "line item %s: quantity %d must be positive", id, qty)
		}
		if left := item.Quantity - refunded[id]; qty > left {
			return order.NewIntegrityError(order.ErrCodeInvalidRefundTarget,
				"line item %s: cannot refund %d, %d of %d left", id, qty, left, item.Quantity)
		}
	}
	return nil
}
