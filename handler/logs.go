package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mstgnz/brqpay/infra/opensearch"
	"github.com/mstgnz/brqpay/infra/response"
)

// LoggerInterface defines the audit log queries
type LoggerInterface interface {
	SearchLogs(ctx context.Context, kind string, query map[string]any) ([]opensearch.AuditLog, error)
	GetOrderLogs(ctx context.Context, kind, orderID string) ([]opensearch.AuditLog, error)
	GetRecentErrorLogs(ctx context.Context, kind string, hours int) ([]opensearch.AuditLog, error)
}

// LogsHandler exposes the push and refund audit trail
type LogsHandler struct {
	logger LoggerInterface
}

// NewLogsHandler creates a new logs handler
func NewLogsHandler(logger LoggerInterface) *LogsHandler {
	return &LogsHandler{logger: logger}
}

// ListLogs lists audit logs of one kind with optional status, method, errorsOnly and hours filters
func (h *LogsHandler) ListLogs(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	kind, ok := h.kind(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	hours := parseHours(q.Get("hours"))
	must := []map[string]any{
		{"range": map[string]any{"timestamp": map[string]any{"gte": fmt.Sprintf("now-%dh", hours)}}},
	}
	if status := q.Get("status"); status != "" {
		must = append(must, map[string]any{"term": map[string]any{"status": status}})
	}
	if method := q.Get("method"); method != "" {
		must = append(must, map[string]any{"term": map[string]any{"method": method}})
	}
	if q.Get("errorsOnly") == "true" {
		must = append(must, map[string]any{"exists": map[string]any{"field": "error.code"}})
	}

	logs, err := h.logger.SearchLogs(ctx, kind, map[string]any{"bool": map[string]any{"must": must}})
	if err != nil {
		h.searchError(w, err)
		return
	}

	response.Success(w, http.StatusOK, "Logs retrieved successfully", map[string]any{
		"kind": kind,
		"filters": map[string]any{
			"hours":      hours,
			"status":     q.Get("status"),
			"method":     q.Get("method"),
			"errorsOnly": q.Get("errorsOnly") == "true",
		},
		"count": len(logs),
		"logs":  logs,
	})
}

// GetOrderLogs returns the push and refund audit trail of one order
func (h *LogsHandler) GetOrderLogs(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	orderID := chi.URLParam(r, "orderID")
	if orderID == "" {
		response.Error(w, http.StatusBadRequest, "orderID parameter is required", nil)
		return
	}

	result := map[string]any{"orderId": orderID}
	for _, kind := range []string{opensearch.KindPush, opensearch.KindRefund} {
		logs, err := h.logger.GetOrderLogs(ctx, kind, orderID)
		if err != nil {
			h.searchError(w, err)
			return
		}
		result[kind] = logs
	}

	response.Success(w, http.StatusOK, "Order logs retrieved successfully", result)
}

// GetErrorLogs returns recent failed events of one kind
func (h *LogsHandler) GetErrorLogs(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	kind, ok := h.kind(w, r)
	if !ok {
		return
	}
	hours := parseHours(r.URL.Query().Get("hours"))

	logs, err := h.logger.GetRecentErrorLogs(ctx, kind, hours)
	if err != nil {
		h.searchError(w, err)
		return
	}

	response.Success(w, http.StatusOK, "Error logs retrieved successfully", map[string]any{
		"kind":  kind,
		"hours": hours,
		"count": len(logs),
		"logs":  logs,
	})
}

func (h *LogsHandler) kind(w http.ResponseWriter, r *http.Request) (string, bool) {
	kind := chi.URLParam(r, "kind")
	switch kind {
	case opensearch.KindPush, opensearch.KindRefund, opensearch.KindSystem:
		return kind, true
	}
	response.Error(w, http.StatusBadRequest, "kind must be push, refund or system", nil)
	return "", false
}

func (h *LogsHandler) searchError(w http.ResponseWriter, err error) {
	if errors.Is(err, opensearch.ErrLoggingDisabled) {
		response.Error(w, http.StatusServiceUnavailable, "Logging service not available", err)
		return
	}
	response.Error(w, http.StatusInternalServerError, "Failed to search logs", err)
}

// parseHours defaults to 24 and caps at one week
func parseHours(raw string) int {
	if h, err := strconv.Atoi(raw); err == nil && h > 0 && h <= 168 {
		return h
	}
	return 24
}
