package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Ledger is the idempotent log of engine responses per order
type Ledger struct {
	store Store
	now   func() time.Time
}

// New creates a Ledger on top of store
func New(store Store) *Ledger {
	return &Ledger{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Append upserts tx. Replaying an entry with the same (TransactionKey, UniqueIdentifier)
// updates the stored entry in place and returns it.
func (l *Ledger) Append(ctx context.Context, tx *Transaction) (*Transaction, error) {
	if tx.TransactionKey == "" {
		return nil, fmt.Errorf("ledger: transaction key is required")
	}
	if tx.UniqueIdentifier == "" {
		tx.UniqueIdentifier = tx.TransactionKey
	}

	now := l.now()
	existing, err := l.store.Find(ctx, tx.TransactionKey, tx.UniqueIdentifier)
	switch {
	case errors.Is(err, ErrNotFound):
		entry := tx.Clone()
		if entry.ID == "" {
			entry.ID = uuid.New().String()
		}
		if entry.CreatedByEngineAt.IsZero() {
			entry.CreatedByEngineAt = now
		}
		entry.CreatedAt = now
		entry.UpdatedAt = now
		if err := l.store.Upsert(ctx, entry); err != nil {
			return nil, fmt.Errorf("ledger: insert %s: %w", tx.TransactionKey, err)
		}
		return entry, nil
	case err != nil:
		return nil, fmt.Errorf("ledger: find %s: %w", tx.TransactionKey, err)
	}

	existing.merge(tx)
	existing.UpdatedAt = now
	if err := l.store.Upsert(ctx, existing); err != nil {
		return nil, fmt.Errorf("ledger: update %s: %w", tx.TransactionKey, err)
	}
	return existing, nil
}

// Reconstruct loads every entry of an order into a SavedTransactionState
func (l *Ledger) Reconstruct(ctx context.Context, orderID string) (*SavedTransactionState, error) {
	entries, err := l.store.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("ledger: list order %s: %w", orderID, err)
	}
	return NewSavedTransactionState(entries), nil
}

// Credit books a refund onto the debit entry carrying paymentKey: the amount is added to its
// credited amount and item quantities are added to its refunded items. Each refundKey is
// applied at most once; the returned bool reports whether anything changed.
func (l *Ledger) Credit(ctx context.Context, paymentKey, refundKey string, amount decimal.Decimal, items map[string]int) (bool, error) {
	if refundKey == "" {
		return false, fmt.Errorf("ledger: refund key is required")
	}

	payment, err := l.findDebit(ctx, paymentKey)
	if err != nil {
		return false, err
	}
	if payment.HasCredited(refundKey) {
		return false, nil
	}

	payment.AmountCredit = payment.AmountCredit.Add(amount)
	if len(items) > 0 {
		if payment.RefundedItems == nil {
			payment.RefundedItems = make(map[string]int, len(items))
		}
		for id, qty := range items {
			payment.RefundedItems[id] += qty
		}
	}
	payment.CreditedRefunds = append(payment.CreditedRefunds, refundKey)
	payment.UpdatedAt = l.now()

	if err := l.store.Upsert(ctx, payment); err != nil {
		return false, fmt.Errorf("ledger: credit %s: %w", paymentKey, err)
	}
	return true, nil
}

func (l *Ledger) findDebit(ctx context.Context, transactionKey string) (*Transaction, error) {
	entries, err := l.store.FindByTransactionKey(ctx, transactionKey)
	if err != nil {
		return nil, fmt.Errorf("ledger: find %s: %w", transactionKey, err)
	}
	for _, tx := range entries {
		if tx.Type.IsDebit() {
			return tx, nil
		}
	}
	return nil, fmt.Errorf("ledger: payment %s: %w", transactionKey, ErrNotFound)
}
