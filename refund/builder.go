package refund

import (
	"strings"

	"github.com/mstgnz/brqpay/gateway"
	"github.com/mstgnz/brqpay/order"
	"github.com/mstgnz/brqpay/push"
)

const refundAction = "Refund"

var cardBrands = map[string]bool{
	"visa":          true,
	"mastercard":    true,
	"maestro":       true,
	"amex":          true,
	"vpay":          true,
	"visaelectron":  true,
	"cartebleue":    true,
	"cartebancaire": true,
	"dankort":       true,
	"nexi":          true,
	"postepay":      true,
}

// BuilderConfig holds the shop-wide settings copied into every refund request
type BuilderConfig struct {
	ReturnURL      string
	ReturnURLError string
	PushURL        string
	// AfterpayLegacy selects the tax-category article shape for afterpay.
	AfterpayLegacy bool
}

// Builder turns RefundData into gateway transaction requests
type Builder struct {
	cfg BuilderConfig
}

// NewBuilder creates a Builder
func NewBuilder(cfg BuilderConfig) *Builder {
	return &Builder{cfg: cfg}
}

// Build creates the refund request of data for the configured payment method methodCode
func (b *Builder) Build(data RefundData, client ClientInfo, methodCode string) (*gateway.TransactionRequest, error) {
	if data.Order == nil {
		return nil, order.NewIntegrityError(order.ErrCodeInvalidRefundTarget, "refund has no order")
	}
	o := data.Order
	if o.Currency == "" {
		return nil, order.NewIntegrityError(order.ErrCodeMissingCurrency, "order %s has no currency", o.ID)
	}
	if data.Record == nil || data.Record.OriginalTransactionKey() == "" {
		return nil, order.NewIntegrityError(order.ErrCodeMissingTransaction, "order %s: refund has no original transaction key", o.ID)
	}
	if !data.Amount.IsPositive() {
		return nil, order.NewIntegrityError(order.ErrCodeInvalidAmount, "refund amount %s must be positive", data.Amount)
	}

	req := &gateway.TransactionRequest{
		Currency:               o.Currency,
		AmountCredit:           data.Amount.Round(2),
		Invoice:                o.Number,
		Order:                  o.Number,
		ReturnURL:              b.cfg.ReturnURL,
		ReturnURLError:         b.cfg.ReturnURLError,
		PushURL:                b.cfg.PushURL,
		ClientIP:               gateway.NewClientIP(client.IP),
		OriginalTransactionKey: data.Record.OriginalTransactionKey(),
	}
	req.AddAdditionalParameter("orderId", o.ID)
	req.AddAdditionalParameter("orderTransactionId", o.TransactionID)

	service := serviceFor(strings.ToLower(methodCode), data.Record)
	if err := b.addArticles(&service, data); err != nil {
		return nil, err
	}
	req.Services.ServiceList = []gateway.Service{service}
	return req, nil
}

// serviceFor picks the gateway service name and version. Cards and giftcards are refunded
// on the brand of the original payment, not on the configured wrapper method.
func serviceFor(method string, record PaymentRecord) gateway.Service {
	code := record.PaymentCode()
	service := gateway.Service{Name: method, Action: refundAction}

	switch {
	case code != "" && (method == "creditcard" || cardBrands[code]):
		service.Name = code
		service.Version = 2
	case code != "" && (method == "giftcard" || push.IsGiftcardMethod(code)):
		service.Name = code
		service.Version = 1
	case method == "paybybank" && code == "ideal":
		service.Name = "ideal"
	}
	return service
}
