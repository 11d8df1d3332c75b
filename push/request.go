package push

import (
	"strings"
	"time"
)

// RequestStatus is the actionable outcome of a push. The zero value means no handler fires.
type RequestStatus string

const (
	StatusSuccess   RequestStatus = "SUCCESS"
	StatusPending   RequestStatus = "PENDING"
	StatusFailed    RequestStatus = "FAILED"
	StatusCancelled RequestStatus = "CANCELLED"
)

// RequestType is the kind of transaction a push reports
type RequestType string

const (
	TypePayment   RequestType = "PAYMENT"
	TypeAuthorize RequestType = "AUTHORIZE"
	TypeRefund    RequestType = "REFUND"
	TypeGroup     RequestType = "GROUP"
	TypeGiftcard  RequestType = "GIFTCARD"
)

// Gateway status codes
const (
	CodeSuccess             = "190"
	CodeFailed              = "490"
	CodeValidationFailure   = "491"
	CodeTechnicalError      = "492"
	CodeRejected            = "690"
	CodeWaitingOnUserInput  = "790"
	CodePendingProcessing   = "791"
	CodeWaitingOnConsumer   = "792"
	CodeOnHold              = "793"
	CodeCancelledByUser     = "890"
	CodeCancelledByMerchant = "891"
)

var statusByCode = map[string]RequestStatus{
	CodeSuccess:             StatusSuccess,
	CodeFailed:              StatusFailed,
	CodeValidationFailure:   StatusFailed,
	CodeTechnicalError:      StatusFailed,
	CodeRejected:            StatusFailed,
	CodeWaitingOnUserInput:  StatusPending,
	CodePendingProcessing:   StatusPending,
	CodeWaitingOnConsumer:   StatusPending,
	CodeOnHold:              StatusPending,
	CodeCancelledByUser:     StatusCancelled,
	CodeCancelledByMerchant: StatusCancelled,
}

var giftcardMethods = map[string]bool{
	"giftcard":            true,
	"boekenbon":           true,
	"vvvgiftcard":         true,
	"fashioncheque":       true,
	"webshopgiftcard":     true,
	"nationaletuinbon":    true,
	"podiumcadeaukaart":   true,
	"yourgift":            true,
	"fashionucadeaukaart": true,
	"digitalebioscoopbon": true,
}

// methods that reserve on a data request and capture later
var deferredCaptureMethods = map[string]bool{
	"klarnakp": true,
	"afterpay": true,
	"billink":  true,
}

// IsGiftcardMethod reports whether method is a giftcard service
func IsGiftcardMethod(method string) bool {
	return giftcardMethods[strings.ToLower(method)]
}

// StatusFromCode maps a gateway status code to its RequestStatus, "" when unknown
func StatusFromCode(code string) RequestStatus {
	return statusByCode[strings.TrimSpace(code)]
}

// Request is a classified notification
type Request struct {
	Notification *Notification
	Type         RequestType
	Status       RequestStatus
	Method       string
	StatusCode   string
	StatusDetail string
}

// NewRequest classifies n
func NewRequest(n *Notification) *Request {
	typ, status := Classify(n)
	return &Request{
		Notification: n,
		Type:         typ,
		Status:       status,
		Method:       Method(n),
		StatusCode:   n.String("BRQ_STATUSCODE"),
		StatusDetail: n.String("BRQ_STATUSCODE_DETAIL"),
	}
}

// Method returns the lowercased transaction method of n
func Method(n *Notification) string {
	method := n.String("BRQ_TRANSACTION_METHOD")
	if method == "" {
		method = n.String("BRQ_PAYMENT_METHOD")
	}
	return strings.ToLower(method)
}

// Classify derives the transaction type and status of n
func Classify(n *Notification) (RequestType, RequestStatus) {
	status := StatusFromCode(n.String("BRQ_STATUSCODE"))
	method := Method(n)

	switch {
	case strings.Contains(n.String("BRQ_TRANSACTIONS"), ","):
		return TypeGroup, status
	case !n.Decimal("BRQ_AMOUNT_CREDIT").IsZero():
		return TypeRefund, status
	case giftcardMethods[method]:
		return TypeGiftcard, status
	case IsDataRequest(n) && deferredCaptureMethods[method]:
		return TypeAuthorize, status
	}
	return TypePayment, status
}

// IsDataRequest reports whether the push is informational, a reservation rather than a capture
func IsDataRequest(n *Notification) bool {
	return n.String("BRQ_DATAREQUEST") != ""
}

// IsTest reports whether the push belongs to a test transaction
func (r *Request) IsTest() bool {
	return r.Notification.Bool("BRQ_TEST")
}

// IsDataRequest reports whether the push is a data request
func (r *Request) IsDataRequest() bool {
	return IsDataRequest(r.Notification)
}

// OrderRef returns the order id and number the push refers to
func (r *Request) OrderRef() (id, number string) {
	return r.Notification.String("BRQ_INVOICENUMBER"), r.Notification.String("BRQ_ORDERNUMBER")
}

// EngineTime parses BRQ_TIMESTAMP; zero when absent or unparseable
func (r *Request) EngineTime() time.Time {
	raw := r.Notification.String("BRQ_TIMESTAMP")
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range []string{"2006-01-02 15:04:05", time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
