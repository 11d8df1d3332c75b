package middle

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/mstgnz/brqpay/infra/logger"
	"github.com/mstgnz/brqpay/infra/response"
)

// PanicHandler writes the response for a recovered panic
type PanicHandler func(w http.ResponseWriter, r *http.Request, recovered any)

// PanicRecoveryMiddleware handles panics and converts them to HTTP 500 errors
func PanicRecoveryMiddleware() func(http.Handler) http.Handler {
	return PanicRecoveryWithHandler(internalErrorHandler)
}

// PanicRecoveryWithHandler logs a recovered panic with its request id and stack,
// then lets handler write the response.
func PanicRecoveryWithHandler(handler PanicHandler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				recovered := recover()
				if recovered == nil {
					return
				}
				if recovered == http.ErrAbortHandler {
					panic(recovered)
				}

				logger.Error("Panic recovered", fmt.Errorf("%v", recovered), logger.LogContext{
					RequestID: requestIDFrom(r),
					Fields: map[string]any{
						"method": r.Method,
						"url":    r.URL.String(),
						"stack":  string(debug.Stack()),
					},
				})

				w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
				w.Header().Set("Pragma", "no-cache")
				w.Header().Set("Expires", "0")
				handler(w, r, recovered)
			}()

			next.ServeHTTP(w, r)
		})
	}
}

func internalErrorHandler(w http.ResponseWriter, _ *http.Request, _ any) {
	response.Error(w, http.StatusInternalServerError, "Internal server error", fmt.Errorf("an unexpected error occurred"))
}

// PushPanicHandler answers a push that crashed mid-processing. The gateway only
// stops redelivering on 200, so the 500 makes it retry; the request id is echoed
// so the retry can be matched to the logged stack.
func PushPanicHandler(w http.ResponseWriter, r *http.Request, _ any) {
	requestID := requestIDFrom(r)
	w.Header().Set("X-Request-ID", requestID)
	response.WriteJSON(w, http.StatusInternalServerError, response.Response{
		Code:    http.StatusInternalServerError,
		Success: false,
		Message: "Push processing failed",
		Error:   "push " + requestID + " aborted",
	})
}

// requestIDFrom prefers chi's request id and falls back to the inbound header
func requestIDFrom(r *http.Request) string {
	if id := middleware.GetReqID(r.Context()); id != "" {
		return id
	}
	if id := r.Header.Get("X-Request-ID"); id != "" {
		return id
	}
	return "unknown"
}
