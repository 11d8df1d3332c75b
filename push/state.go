package push

import (
	"github.com/mstgnz/brqpay/ledger"
	"github.com/mstgnz/brqpay/order"
)

// ProcessingState accumulates what a processor decided for one push
type ProcessingState struct {
	Request         *Request
	Metadata        map[string]string
	Status          *order.PaymentStatus
	Transaction     *ledger.Transaction
	SkipPersistence bool
}

// NewProcessingState creates an empty state for req
func NewProcessingState(req *Request) *ProcessingState {
	return &ProcessingState{
		Request:  req,
		Metadata: make(map[string]string),
	}
}

// SetStatus sets the target payment status
func (s *ProcessingState) SetStatus(status order.PaymentStatus) {
	s.Status = &status
}

// AddMetadata records a metadata value; empty values are ignored
func (s *ProcessingState) AddMetadata(key, value string) {
	if value == "" {
		return
	}
	s.Metadata[key] = value
}

// Reset drops the status and transaction while keeping metadata
func (s *ProcessingState) Reset() {
	s.Status = nil
	s.Transaction = nil
}

// Changed reports whether processing left anything to persist
func (s *ProcessingState) Changed() bool {
	return s.Status != nil || s.Transaction != nil || len(s.Metadata) > 0
}

// RecordTransaction builds the ledger entry of the push with the given type
func (s *ProcessingState) RecordTransaction(typ ledger.Type) {
	req := s.Request
	n := req.Notification

	related := n.String("BRQ_RELATEDTRANSACTION_REFUND")
	if related == "" {
		related = n.String("BRQ_RELATEDTRANSACTION")
	}
	orderNumber := n.String("BRQ_ORDERNUMBER")
	if orderNumber == "" {
		orderNumber = n.String("BRQ_INVOICENUMBER")
	}

	s.Transaction = &ledger.Transaction{
		OrderNumber:        orderNumber,
		Type:               typ,
		TransactionKey:     n.String("BRQ_TRANSACTIONS"),
		TransactionType:    n.String("BRQ_TRANSACTION_TYPE"),
		RelatedTransaction: related,
		ServiceCode:        req.Method,
		StatusCode:         req.StatusCode,
		Status:             ledgerStatus(req.Status),
		Amount:             n.Decimal("BRQ_AMOUNT"),
		AmountCredit:       n.Decimal("BRQ_AMOUNT_CREDIT"),
		Currency:           n.String("BRQ_CURRENCY"),
		IsTest:             req.IsTest(),
		CreatedByEngineAt:  req.EngineTime(),
	}
}

func ledgerStatus(s RequestStatus) ledger.Status {
	switch s {
	case StatusSuccess:
		return ledger.StatusSuccess
	case StatusFailed:
		return ledger.StatusFailed
	case StatusCancelled:
		return ledger.StatusCancelled
	}
	return ledger.StatusPending
}
