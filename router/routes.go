package router

import (
	"github.com/go-chi/chi/v5"
	"github.com/mstgnz/brqpay/infra/middle"
	v1 "github.com/mstgnz/brqpay/router/v1"
)

// Routes mounts the API under /v1 behind Bearer API key authentication
func Routes(r chi.Router, apiKey string, h v1.Handlers) {
	r.Route("/v1", func(r chi.Router) {
		r.Use(middle.AuthMiddleware(apiKey))
		v1.Routes(r, h)
	})
}
