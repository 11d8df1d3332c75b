package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/mstgnz/brqpay/infra/response"
	"github.com/mstgnz/brqpay/order"
	"github.com/shopspring/decimal"
)

// OrderServiceInterface defines order intake and lookup
type OrderServiceInterface interface {
	Register(ctx context.Context, o *order.Order) (*order.Order, bool, error)
	Get(ctx context.Context, id string) (*order.Order, error)
}

// OrderRequest is the body of PUT /v1/orders/{orderID}
type OrderRequest struct {
	Number        string          `json:"number" validate:"required,max=64"`
	TransactionID string          `json:"transactionId" validate:"omitempty,max=64"`
	Currency      string          `json:"currency" validate:"required,iso4217"`
	Total         json.Number     `json:"total" validate:"required,numeric"`
	ShippingTotal json.Number     `json:"shippingTotal" validate:"omitempty,numeric"`
	PaymentMethod string          `json:"paymentMethod" validate:"omitempty,max=64"`
	Deliveries    int             `json:"deliveries" validate:"gte=0"`
	LineItems     []LineItemInput `json:"lineItems" validate:"omitempty,dive"`
	Billing       *BillingAddress `json:"billingAddress"`
}

// LineItemInput is one product line of an OrderRequest
type LineItemInput struct {
	ID        string      `json:"id" validate:"required,max=64"`
	Label     string      `json:"label" validate:"max=255"`
	Quantity  int         `json:"quantity" validate:"gt=0"`
	UnitPrice json.Number `json:"unitPrice" validate:"required,numeric"`
	TaxRate   json.Number `json:"taxRate" validate:"omitempty,numeric"`
}

// BillingAddress is the billing address of an OrderRequest
type BillingAddress struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName"`
	Street    string `json:"street"`
	ZipCode   string `json:"zipCode"`
	City      string `json:"city"`
	Country   string `json:"country" validate:"required,iso3166_1_alpha2"`
	Email     string `json:"email" validate:"omitempty,email"`
}

// OrderHandler handles order intake requests
type OrderHandler struct {
	service  OrderServiceInterface
	validate *validator.Validate
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(service OrderServiceInterface, validate *validator.Validate) *OrderHandler {
	return &OrderHandler{service: service, validate: validate}
}

// UpsertOrder registers an order placed by the shop or updates its shop-owned fields
func (h *OrderHandler) UpsertOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	orderID := chi.URLParam(r, "orderID")
	if orderID == "" {
		response.Error(w, http.StatusBadRequest, "Missing order ID", nil)
		return
	}

	var req OrderRequest
	decoder := json.NewDecoder(r.Body)
	decoder.UseNumber()
	if err := decoder.Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.Error(w, http.StatusBadRequest, "Validation error", err)
		return
	}
	o, err := req.toOrder(orderID)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Validation error", err)
		return
	}

	saved, created, err := h.service.Register(ctx, o)
	if err != nil {
		var integrityErr *order.IntegrityError
		if errors.As(err, &integrityErr) {
			response.WriteJSON(w, http.StatusConflict, response.Response{
				Code:    http.StatusConflict,
				Success: false,
				Message: integrityErr.Code,
				Error:   integrityErr.Error(),
			})
			return
		}
		response.Error(w, http.StatusInternalServerError, "Order could not be saved", err)
		return
	}

	status, message := http.StatusOK, "Order updated"
	if created {
		status, message = http.StatusCreated, "Order created"
	}
	response.WriteJSON(w, status, response.Response{
		Code:    status,
		Success: true,
		Message: message,
		Data:    saved,
	})
}

// GetOrder returns an order with its payment status
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.service.Get(r.Context(), chi.URLParam(r, "orderID"))
	if errors.Is(err, order.ErrOrderNotFound) {
		response.Error(w, http.StatusNotFound, "Order not found", err)
		return
	}
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "Failed to load order", err)
		return
	}
	response.Success(w, http.StatusOK, "Order retrieved", o)
}

func (req OrderRequest) toOrder(id string) (*order.Order, error) {
	total, err := nonNegative(req.Total, "total")
	if err != nil {
		return nil, err
	}
	shipping, err := nonNegative(req.ShippingTotal, "shippingTotal")
	if err != nil {
		return nil, err
	}

	o := &order.Order{
		ID:            id,
		Number:        req.Number,
		TransactionID: req.TransactionID,
		Currency:      req.Currency,
		Total:         total,
		ShippingTotal: shipping,
		PaymentMethod: req.PaymentMethod,
		Deliveries:    req.Deliveries,
	}

	seen := make(map[string]bool, len(req.LineItems))
	for _, item := range req.LineItems {
		if seen[item.ID] {
			return nil, errors.New("duplicate line item " + item.ID)
		}
		seen[item.ID] = true

		price, err := nonNegative(item.UnitPrice, "unitPrice")
		if err != nil {
			return nil, err
		}
		rate, err := nonNegative(item.TaxRate, "taxRate")
		if err != nil {
			return nil, err
		}
		o.LineItems = append(o.LineItems, order.LineItem{
			ID:        item.ID,
			Label:     item.Label,
			Quantity:  item.Quantity,
			UnitPrice: price,
			TaxRate:   rate,
		})
	}

	if b := req.Billing; b != nil {
		o.Billing = &order.Address{
			FirstName: b.FirstName,
			LastName:  b.LastName,
			Street:    b.Street,
			ZipCode:   b.ZipCode,
			City:      b.City,
			Country:   b.Country,
			Email:     b.Email,
		}
	}
	return o, nil
}

// nonNegative parses an optional amount; empty is zero
func nonNegative(n json.Number, field string) (decimal.Decimal, error) {
	if n == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(n.String())
	if err != nil {
		return decimal.Zero, errors.New(field + " is not a number")
	}
	if d.IsNegative() {
		return decimal.Zero, errors.New(field + " must not be negative")
	}
	return d, nil
}
