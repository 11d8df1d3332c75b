package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/mstgnz/brqpay/infra/middle"
	"github.com/mstgnz/brqpay/infra/response"
	"github.com/mstgnz/brqpay/order"
	"github.com/mstgnz/brqpay/refund"
	"github.com/shopspring/decimal"
)

// RefundServiceInterface defines the outbound refund operation
type RefundServiceInterface interface {
	Refund(ctx context.Context, cmd refund.Command) ([]refund.Result, error)
}

// RefundRequest is the body of POST /v1/orders/{orderID}/refunds
type RefundRequest struct {
	Amount json.Number    `json:"amount" validate:"required,numeric"`
	Items  map[string]int `json:"items,omitempty" validate:"omitempty,dive,keys,required,endkeys,gt=0"`
}

// RefundHandler handles refund related HTTP requests
type RefundHandler struct {
	service  RefundServiceInterface
	validate *validator.Validate
}

// NewRefundHandler creates a new refund handler
func NewRefundHandler(service RefundServiceInterface, validate *validator.Validate) *RefundHandler {
	return &RefundHandler{service: service, validate: validate}
}

// RefundOrder refunds an amount of an order against its payments
func (h *RefundHandler) RefundOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	orderID := chi.URLParam(r, "orderID")
	if orderID == "" {
		response.Error(w, http.StatusBadRequest, "Missing order ID", nil)
		return
	}

	var req RefundRequest
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
	amount, err := decimal.NewFromString(req.Amount.String())
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Validation error", err)
		return
	}

	results, err := h.service.Refund(ctx, refund.Command{
		OrderID: orderID,
		Amount:  amount,
		Items:   req.Items,
		Client:  refund.ClientInfo{IP: middle.GetClientIP(r)},
	})
	if err != nil {
		var integrityErr *order.IntegrityError
		switch {
		case errors.Is(err, order.ErrOrderNotFound):
			response.Error(w, http.StatusNotFound, "Order not found", err)
		case errors.As(err, &integrityErr):
			response.WriteJSON(w, http.StatusUnprocessableEntity, response.Response{
				Code:    http.StatusUnprocessableEntity,
				Success: false,
				Message: integrityErr.Code,
				Error:   integrityErr.Error(),
			})
		default:
			response.Error(w, http.StatusInternalServerError, "Refund failed", err)
		}
		return
	}

	success := len(results) > 0
	for _, res := range results {
		success = success && res.Success
	}
	message := "Refund processed"
	if !success {
		message = "Refund not completed"
	}
	response.WriteJSON(w, http.StatusOK, response.Response{
		Code:    http.StatusOK,
		Success: success,
		Message: message,
		Data:    map[string]any{"orderId": orderID, "results": results},
	})
}
