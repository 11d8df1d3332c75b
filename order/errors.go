package order

import (
	"errors"
	"fmt"
)

// ErrOrderNotFound is returned when no order matches the given id or number
var ErrOrderNotFound = errors.New("order not found")

// Integrity error codes
const (
	ErrCodeMissingAddress      = "MISSING_ADDRESS"
	ErrCodeMissingCurrency     = "MISSING_CURRENCY"
	ErrCodeMissingTransaction  = "MISSING_TRANSACTION"
	ErrCodeMissingDeliveries   = "MISSING_DELIVERIES"
	ErrCodeInvalidRefundTarget = "INVALID_REFUND_TARGET"
	ErrCodeInvalidAmount       = "INVALID_AMOUNT"
	ErrCodeDuplicateNumber     = "DUPLICATE_ORDER_NUMBER"
)

// IntegrityError reports order or refund data that cannot be processed as given
type IntegrityError struct {
	Code    string
	Message string
	Err     error
}

func (e *IntegrityError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *IntegrityError) Unwrap() error {
	return e.Err
}

func NewIntegrityError(code, format string, args ...any) *IntegrityError {
	return &IntegrityError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// IsErrorCode checks if an error is an IntegrityError with a specific code
func IsErrorCode(err error, code string) bool {
	var integrityErr *IntegrityError
	if errors.As(err, &integrityErr) {
		return integrityErr.Code == code
	}
	return false
}
