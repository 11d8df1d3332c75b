package middle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mstgnz/brqpay/infra/logger"
	"github.com/mstgnz/brqpay/infra/opensearch"
)

// AuditSink receives one audit entry per push or refund request
type AuditSink interface {
	LogPush(ctx context.Context, entry opensearch.AuditLog) error
	LogRefund(ctx context.Context, entry opensearch.AuditLog) error
}

// responseWriter wraps http.ResponseWriter to capture response data
type responseWriter struct {
	http.ResponseWriter
	body       *bytes.Buffer
	statusCode int
	startTime  time.Time
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{
		ResponseWriter: w,
		body:           &bytes.Buffer{},
		statusCode:     http.StatusOK,
		startTime:      time.Now(),
	}
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.body.Write(b)
	return rw.ResponseWriter.Write(b)
}

func (rw *responseWriter) WriteHeader(statusCode int) {
	rw.statusCode = statusCode
	rw.ResponseWriter.WriteHeader(statusCode)
}

// AuditMiddleware records push and refund traffic in the audit sink. Other paths pass
// through untouched; a nil sink disables auditing.
func AuditMiddleware(sink AuditSink) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			kind := auditKind(r.URL.Path)
			if sink == nil || kind == "" || r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}

			var requestBody []byte
			if r.Body != nil {
				requestBody, _ = io.ReadAll(r.Body)
				r.Body = io.NopCloser(bytes.NewReader(requestBody))
			}

			rw := newResponseWriter(w)
			next.ServeHTTP(rw, r)

			entry := opensearch.AuditLog{
				Timestamp:        rw.startTime.UTC(),
				RequestID:        requestIDFrom(r),
				ClientIP:         GetClientIP(r),
				Payload:          string(requestBody),
				Outcome:          fmt.Sprintf("%d", rw.statusCode),
				ProcessingTimeMs: time.Since(rw.startTime).Milliseconds(),
			}
			if kind == opensearch.KindPush {
				fillPushEntry(&entry, r.Header.Get("Content-Type"), requestBody)
			} else {
				fillRefundEntry(&entry, r.URL.Path, requestBody)
			}
			if errInfo := extractErrorInfo(rw.statusCode, rw.body.Bytes()); errInfo != nil {
				entry.Error = *errInfo
			}

			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()

				var err error
				if kind == opensearch.KindPush {
					err = sink.LogPush(ctx, entry)
				} else {
					err = sink.LogRefund(ctx, entry)
				}
				if err != nil {
					logger.Warn("audit log failed: "+err.Error(), logger.LogContext{
						OrderID:   entry.OrderID,
						RequestID: entry.RequestID,
					})
				}
			}()
		})
	}
}

func auditKind(path string) string {
	switch {
	case strings.HasPrefix(path, PushPath):
		return opensearch.KindPush
	case strings.HasPrefix(path, "/v1/orders/") && strings.HasSuffix(strings.TrimSuffix(path, "/"), "/refunds"):
		return opensearch.KindRefund
	}
	return ""
}

// fillPushEntry copies the identifying BRQ_ fields of a push body into the entry
func fillPushEntry(entry *opensearch.AuditLog, contentType string, body []byte) {
	fields := map[string]string{}

	if strings.Contains(contentType, "application/json") {
		var raw map[string]any
		if err := json.Unmarshal(body, &raw); err == nil {
			for k, v := range raw {
				switch val := v.(type) {
				case string:
					fields[strings.ToUpper(k)] = val
				case float64, bool:
					fields[strings.ToUpper(k)] = fmt.Sprint(val)
				}
			}
		}
	} else if values, err := url.ParseQuery(string(body)); err == nil {
		for k := range values {
			fields[strings.ToUpper(k)] = values.Get(k)
		}
	}

	entry.OrderID = fields["BRQ_INVOICENUMBER"]
	entry.OrderNumber = fields["BRQ_ORDERNUMBER"]
	entry.TransactionKey = fields["BRQ_TRANSACTIONS"]
	entry.StatusCode = fields["BRQ_STATUSCODE"]
	entry.Amount = fields["BRQ_AMOUNT"]
	if credit := fields["BRQ_AMOUNT_CREDIT"]; credit != "" {
		entry.Amount = "-" + credit
	}
	entry.Currency = fields["BRQ_CURRENCY"]
	entry.Method = strings.ToLower(fields["BRQ_TRANSACTION_METHOD"])
	if entry.Method == "" {
		entry.Method = strings.ToLower(fields["BRQ_PAYMENT_METHOD"])
	}
}

// fillRefundEntry reads the order id from /v1/orders/{orderID}/refunds and the amount from the body
func fillRefundEntry(entry *opensearch.AuditLog, path string, body []byte) {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	if len(segments) >= 3 {
		entry.OrderID = segments[2]
	}

	var req struct {
		Amount json.Number `json:"amount"`
	}
	if err := json.Unmarshal(body, &req); err == nil {
		entry.Amount = req.Amount.String()
	}
}

// extractErrorInfo reads the message of a failed response, including acknowledged but
// rejected pushes
func extractErrorInfo(statusCode int, body []byte) *opensearch.ErrorInfo {
	var resp struct {
		Success *bool  `json:"success"`
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		if statusCode >= 400 {
			return &opensearch.ErrorInfo{Code: fmt.Sprintf("%d", statusCode)}
		}
		return nil
	}

	failed := statusCode >= 400 || (resp.Success != nil && !*resp.Success)
	if !failed {
		return nil
	}

	msg := resp.Error
	if msg == "" {
		msg = resp.Message
	}
	return &opensearch.ErrorInfo{Code: fmt.Sprintf("%d", statusCode), Message: msg}
}
