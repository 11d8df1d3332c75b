package ledger

import (
	"slices"
	"sort"

	"github.com/shopspring/decimal"
)

// SavedTransactionState is a read-only view over the ledger entries of one order.
// Entries are ordered by the engine's creation time and deduplicated by unique
// identifier, the latest entry winning.
type SavedTransactionState struct {
	entries        []*Transaction
	payments       []*Transaction
	authorizations []*Transaction
	refunds        []*Transaction
}

// NewSavedTransactionState builds the state from entries in any order
func NewSavedTransactionState(entries []*Transaction) *SavedTransactionState {
	sorted := slices.Clone(entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if !a.CreatedByEngineAt.Equal(b.CreatedByEngineAt) {
			return a.CreatedByEngineAt.Before(b.CreatedByEngineAt)
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})

	last := make(map[string]int, len(sorted))
	for i, tx := range sorted {
		last[tx.Identifier()] = i
	}

	s := &SavedTransactionState{}
	for i, tx := range sorted {
		if last[tx.Identifier()] != i {
			continue
		}
		s.entries = append(s.entries, tx)
		switch {
		case tx.Type.IsDebit():
			s.payments = append(s.payments, tx)
		case tx.Type == TypeAuthorize:
			s.authorizations = append(s.authorizations, tx)
		case tx.Type == TypeRefund:
			s.refunds = append(s.refunds, tx)
		}
	}
	return s
}

// HasPayments reports whether at least one payment succeeded
func (s *SavedTransactionState) HasPayments() bool {
	return slices.ContainsFunc(s.payments, (*Transaction).IsSuccess)
}

// HasRefunds reports whether at least one refund succeeded
func (s *SavedTransactionState) HasRefunds() bool {
	return slices.ContainsFunc(s.refunds, (*Transaction).IsSuccess)
}

// HasAuthorizations reports whether at least one authorization succeeded
func (s *SavedTransactionState) HasAuthorizations() bool {
	return slices.ContainsFunc(s.authorizations, (*Transaction).IsSuccess)
}

// RefundedAmount sums the credit of successful refunds
func (s *SavedTransactionState) RefundedAmount() decimal.Decimal {
	total := decimal.Zero
	for _, tx := range s.refunds {
		if tx.IsSuccess() {
			total = total.Add(tx.AmountCredit)
		}
	}
	return total
}

// PaidAmount sums the amount of successful payments
func (s *SavedTransactionState) PaidAmount() decimal.Decimal {
	total := decimal.Zero
	for _, tx := range s.payments {
		if tx.IsSuccess() {
			total = total.Add(tx.Amount)
		}
	}
	return total
}

// RefundedItems sums the item quantities credited onto successful payments
func (s *SavedTransactionState) RefundedItems() map[string]int {
	out := make(map[string]int)
	for _, tx := range s.payments {
		if !tx.IsSuccess() {
			continue
		}
		for id, qty := range tx.RefundedItems {
			out[id] += qty
		}
	}
	return out
}

func (s *SavedTransactionState) Entries() []*Transaction        { return s.entries }
func (s *SavedTransactionState) Payments() []*Transaction       { return s.payments }
func (s *SavedTransactionState) Authorizations() []*Transaction { return s.authorizations }
func (s *SavedTransactionState) Refunds() []*Transaction        { return s.refunds }

// RefundablePayments returns successful payments with money left to refund, newest first
func (s *SavedTransactionState) RefundablePayments() []*Transaction {
	var out []*Transaction
	for i := len(s.payments) - 1; i >= 0; i-- {
		tx := s.payments[i]
		if tx.IsSuccess() && tx.RefundableAmount().IsPositive() {
			out = append(out, tx)
		}
	}
	return out
}
