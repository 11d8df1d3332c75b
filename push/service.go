package push

import (
	"context"
	"errors"
	"fmt"

	"github.com/mstgnz/brqpay/infra/logger"
	"github.com/mstgnz/brqpay/ledger"
	"github.com/mstgnz/brqpay/order"
)

// ErrUntrustedNotification is returned when a push fails signature verification
var ErrUntrustedNotification = errors.New("untrusted push notification")

// Outcome reports what a handled push did
type Outcome struct {
	OrderID       string              `json:"order_id,omitempty"`
	Type          RequestType         `json:"type"`
	Status        RequestStatus       `json:"status"`
	Method        string              `json:"method"`
	PaymentStatus order.PaymentStatus `json:"payment_status,omitempty"`
	Transitioned  bool                `json:"transitioned"`
	LedgerWritten bool                `json:"ledger_written"`
	Skipped       bool                `json:"skipped"`
}

// Service turns verified pushes into ledger entries and order transitions
type Service struct {
	verifier *Verifier
	registry *Registry
	orders   order.Store
	ledger   *ledger.Ledger
	locker   *order.Locker
	liveMode bool
}

// ServiceConfig holds the collaborators of a Service
type ServiceConfig struct {
	Verifier *Verifier
	Registry *Registry
	Orders   order.Store
	Ledger   *ledger.Ledger
	Locker   *order.Locker
	LiveMode bool
}

// NewService creates a Service; a nil registry uses DefaultRegistry and a nil locker a private one
func NewService(cfg ServiceConfig) *Service {
	if cfg.Registry == nil {
		cfg.Registry = DefaultRegistry()
	}
	if cfg.Locker == nil {
		cfg.Locker = &order.Locker{}
	}
	return &Service{
		verifier: cfg.Verifier,
		registry: cfg.Registry,
		orders:   cfg.Orders,
		ledger:   cfg.Ledger,
		locker:   cfg.Locker,
		liveMode: cfg.LiveMode,
	}
}

// Handle verifies, classifies and processes n, then persists the result under the order lock
func (s *Service) Handle(ctx context.Context, n *Notification) (*Outcome, error) {
	if !s.verifier.Verify(n) {
		return nil, ErrUntrustedNotification
	}

	req := NewRequest(n)
	state := NewProcessingState(req)
	Process(s.registry.Resolve(req.Type, req.Method), state)

	if req.IsTest() && s.liveMode {
		state.SkipPersistence = true
	}

	outcome := &Outcome{Type: req.Type, Status: req.Status, Method: req.Method}
	orderID, orderNumber := req.OrderRef()
	logCtx := logger.LogContext{
		OrderID: orderID,
		Method:  req.Method,
		Fields: map[string]any{
			"type":          string(req.Type),
			"status_code":   req.StatusCode,
			"status_detail": req.StatusDetail,
		},
	}

	if state.SkipPersistence {
		outcome.Skipped = true
		logger.Info("test push on live configuration ignored", logCtx)
		return outcome, nil
	}
	if !state.Changed() {
		logger.Debug("push has no actionable status", logCtx)
		return outcome, nil
	}

	found, err := order.Lookup(ctx, s.orders, orderID, orderNumber)
	if err != nil {
		return nil, fmt.Errorf("push: find order: %w", err)
	}
	outcome.OrderID = found.ID
	logCtx.OrderID = found.ID

	unlock := s.locker.Lock(found.ID)
	defer unlock()

	o, err := s.orders.Get(ctx, found.ID)
	if err != nil {
		return nil, fmt.Errorf("push: reload order: %w", err)
	}

	o.MergeMetadata(state.Metadata)

	if tx := state.Transaction; tx != nil {
		if err := s.appendTransaction(ctx, o, tx, logCtx); err != nil {
			return nil, err
		}
		outcome.LedgerWritten = true
	}

	if state.Status != nil {
		target := *state.Status
		if target == order.StatusRefunded {
			if target, err = s.refundStatus(ctx, o); err != nil {
				return nil, err
			}
		}
		if o.Transition(target) {
			outcome.Transitioned = true
		} else {
			logger.Info(fmt.Sprintf("transition %s -> %s skipped", o.PaymentStatus, target), logCtx)
		}
	}

	if err := s.orders.Save(ctx, o); err != nil {
		return nil, fmt.Errorf("push: save order: %w", err)
	}

	outcome.PaymentStatus = o.PaymentStatus
	logger.Info("push processed", logCtx)
	return outcome, nil
}

func (s *Service) appendTransaction(ctx context.Context, o *order.Order, tx *ledger.Transaction, logCtx logger.LogContext) error {
	tx.OrderID = o.ID
	tx.OrderTransactionID = o.TransactionID
	if tx.OrderNumber == "" {
		tx.OrderNumber = o.Number
	}
	if tx.Currency == "" {
		tx.Currency = o.Currency
	}

	if _, err := s.ledger.Append(ctx, tx); err != nil {
		return fmt.Errorf("push: append ledger: %w", err)
	}

	if tx.Type != ledger.TypeRefund || !tx.IsSuccess() || tx.RelatedTransaction == "" {
		return nil
	}

	_, err := s.ledger.Credit(ctx, tx.RelatedTransaction, tx.TransactionKey, tx.AmountCredit, tx.RefundedItems)
	if errors.Is(err, ledger.ErrNotFound) {
		logger.Warn("refund push for unknown payment "+tx.RelatedTransaction, logCtx)
		return nil
	}
	if err != nil {
		return fmt.Errorf("push: credit payment: %w", err)
	}
	return nil
}

// refundStatus maps a successful refund to partial or full based on the ledger total
func (s *Service) refundStatus(ctx context.Context, o *order.Order) (order.PaymentStatus, error) {
	state, err := s.ledger.Reconstruct(ctx, o.ID)
	if err != nil {
		return "", fmt.Errorf("push: reconstruct ledger: %w", err)
	}
	if state.RefundedAmount().LessThan(o.Total) {
		return order.StatusPartialRefunded, nil
	}
	return order.StatusRefunded, nil
}
