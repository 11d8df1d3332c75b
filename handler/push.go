package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/mstgnz/brqpay/infra/logger"
	"github.com/mstgnz/brqpay/infra/response"
	"github.com/mstgnz/brqpay/order"
	"github.com/mstgnz/brqpay/push"
)

const maxPushBody = 1 << 20

// PushServiceInterface defines the push processing operation
type PushServiceInterface interface {
	Handle(ctx context.Context, n *push.Notification) (*push.Outcome, error)
}

// PushHandler receives gateway push notifications
type PushHandler struct {
	service PushServiceInterface
}

// NewPushHandler creates a new push handler
func NewPushHandler(service PushServiceInterface) *PushHandler {
	return &PushHandler{service: service}
}

// HandlePush parses, verifies and applies one push. Untrusted pushes are acknowledged with
// success=false so the gateway stops retrying them.
func (h *PushHandler) HandlePush(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	logCtx := logger.LogContext{RequestID: middleware.GetReqID(r.Context())}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxPushBody))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid push body", err)
		return
	}

	n, err := push.ParseNotification(r.Header.Get("Content-Type"), body)
	if err != nil {
		logger.Warn("malformed push rejected", logCtx)
		response.Error(w, http.StatusBadRequest, "Invalid push body", err)
		return
	}
	logCtx.Method = push.Method(n)

	outcome, err := h.service.Handle(ctx, n)
	switch {
	case errors.Is(err, push.ErrUntrustedNotification):
		logger.Warn("push signature mismatch", logCtx)
		response.WriteJSON(w, http.StatusOK, response.Response{
			Code:    http.StatusOK,
			Success: false,
			Message: "Signature from push is incorrect",
		})
		return
	case errors.Is(err, order.ErrOrderNotFound):
		logger.Warn("push for unknown order", logCtx)
		response.Error(w, http.StatusNotFound, "Order not found", err)
		return
	case err != nil:
		logger.Error("push processing failed", err, logCtx)
		response.Error(w, http.StatusInternalServerError, "Push processing failed", err)
		return
	}

	response.Success(w, http.StatusOK, "Push processed", outcome)
}
