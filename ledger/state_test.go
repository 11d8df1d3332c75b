package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func at(minute int) time.Time {
	return time.Date(2024, 1, 1, 10, minute, 0, 0, time.UTC)
}

func TestSavedTransactionState_SortAndDedup(t *testing.T) {
	older := payment("TX1", "50.00")
	older.Status = StatusPending
	older.CreatedByEngineAt = at(5)

	newer := payment("TX1", "50.00")
	newer.CreatedByEngineAt = at(10)

	// delivered out of order: the newer engine response arrives first
	state := NewSavedTransactionState([]*Transaction{newer, older})

	assert.Len(t, state.Payments(), 1)
	assert.Equal(t, StatusSuccess, state.Payments()[0].Status)
	assert.True(t, state.HasPayments())
}

func TestSavedTransactionState_TieBrokenByCreatedAt(t *testing.T) {
	a := payment("TX1", "10.00")
	a.Status = StatusFailed
	a.CreatedByEngineAt = at(1)
	a.CreatedAt = at(3)

	b := payment("TX1", "10.00")
	b.CreatedByEngineAt = at(1)
	b.CreatedAt = at(2)

	state := NewSavedTransactionState([]*Transaction{a, b})

	assert.Equal(t, StatusFailed, state.Payments()[0].Status)
	assert.False(t, state.HasPayments())
}

func TestSavedTransactionState_Partitions(t *testing.T) {
	auth := &Transaction{Type: TypeAuthorize, TransactionKey: "AU1", Status: StatusSuccess, Amount: dec("80.00"), CreatedByEngineAt: at(1)}
	pay := payment("TX1", "80.00")
	pay.CreatedByEngineAt = at(2)
	gift := &Transaction{Type: TypeGiftcard, TransactionKey: "GC1", Status: StatusSuccess, Amount: dec("20.00"), CreatedByEngineAt: at(3)}
	okRefund := refundEntry("RF1", "TX1", "30.00")
	okRefund.CreatedByEngineAt = at(4)
	failedRefund := refundEntry("RF2", "TX1", "10.00")
	failedRefund.Status = StatusFailed
	failedRefund.CreatedByEngineAt = at(5)

	state := NewSavedTransactionState([]*Transaction{failedRefund, okRefund, gift, pay, auth})

	assert.Len(t, state.Payments(), 2)
	assert.Len(t, state.Authorizations(), 1)
	assert.Len(t, state.Refunds(), 2)
	assert.True(t, state.HasAuthorizations())
	assert.True(t, state.HasRefunds())
	assert.True(t, state.PaidAmount().Equal(dec("100.00")))
	assert.True(t, state.RefundedAmount().Equal(dec("30.00")), "failed refunds are not counted")
}

func TestSavedTransactionState_FailedOnly(t *testing.T) {
	failed := refundEntry("RF1", "TX1", "10.00")
	failed.Status = StatusFailed

	state := NewSavedTransactionState([]*Transaction{failed})

	assert.False(t, state.HasRefunds())
	assert.False(t, state.HasPayments())
	assert.True(t, state.RefundedAmount().IsZero())
}

func TestSavedTransactionState_RefundablePayments(t *testing.T) {
	first := payment("TX1", "40.00")
	first.CreatedByEngineAt = at(1)
	second := payment("TX2", "60.00")
	second.CreatedByEngineAt = at(2)
	exhausted := payment("TX3", "10.00")
	exhausted.AmountCredit = dec("10.00")
	exhausted.CreatedByEngineAt = at(3)
	pending := payment("TX4", "5.00")
	pending.Status = StatusPending
	pending.CreatedByEngineAt = at(4)

	state := NewSavedTransactionState([]*Transaction{first, second, exhausted, pending})

	refundable := state.RefundablePayments()
	if assert.Len(t, refundable, 2) {
		assert.Equal(t, "TX2", refundable[0].TransactionKey)
		assert.Equal(t, "TX1", refundable[1].TransactionKey)
	}
}
