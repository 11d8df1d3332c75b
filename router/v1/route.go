package v1

import (
	"github.com/go-chi/chi/v5"
	"github.com/mstgnz/brqpay/handler"
)

// Handlers are the authenticated API handlers. Logs is nil when audit logging is disabled.
type Handlers struct {
	Order  *handler.OrderHandler
	Refund *handler.RefundHandler
	Logs   *handler.LogsHandler
}

// Routes registers all API routes
func Routes(r chi.Router, h Handlers) {
	r.Route("/orders/{orderID}", func(r chi.Router) {
		r.Put("/", h.Order.UpsertOrder)
		r.Get("/", h.Order.GetOrder)
		r.Post("/refunds", h.Refund.RefundOrder)
		if h.Logs != nil {
			r.Get("/logs", h.Logs.GetOrderLogs)
		}
	})

	if h.Logs != nil {
		r.Route("/logs", func(r chi.Router) {
			r.Get("/{kind}", h.Logs.ListLogs)
			r.Get("/{kind}/errors", h.Logs.GetErrorLogs)
		})
	}
}
