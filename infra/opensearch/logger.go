package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"
)

// ErrLoggingDisabled is returned by read operations when the audit sink is switched off
var ErrLoggingDisabled = errors.New("logging is disabled")

// AuditLog is one push or refund event as indexed in OpenSearch
type AuditLog struct {
	Timestamp        time.Time `json:"timestamp"`
	Kind             string    `json:"kind"`
	OrderID          string    `json:"order_id,omitempty"`
	OrderNumber      string    `json:"order_number,omitempty"`
	Method           string    `json:"method,omitempty"`
	TransactionKey   string    `json:"transaction_key,omitempty"`
	StatusCode       string    `json:"status_code,omitempty"`
	Status           string    `json:"status,omitempty"`
	Amount           string    `json:"amount,omitempty"`
	Currency         string    `json:"currency,omitempty"`
	RequestID        string    `json:"request_id"`
	ClientIP         string    `json:"client_ip,omitempty"`
	Payload          string    `json:"payload,omitempty"`
	Outcome          string    `json:"outcome,omitempty"`
	ProcessingTimeMs int64     `json:"processing_time_ms"`
	Error            ErrorInfo `json:"error,omitempty"`
}

// ErrorInfo represents error details
type ErrorInfo struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// Logger handles OpenSearch logging operations
type Logger struct {
	client *Client
}

// NewLogger creates a new OpenSearch logger
func NewLogger(client *Client) *Logger {
	return &Logger{
		client: client,
	}
}

// LogPush records an incoming push notification
func (l *Logger) LogPush(ctx context.Context, entry AuditLog) error {
	entry.Kind = KindPush
	return l.logAudit(ctx, entry)
}

// LogRefund records an outgoing refund request and its result
func (l *Logger) LogRefund(ctx context.Context, entry AuditLog) error {
	entry.Kind = KindRefund
	return l.logAudit(ctx, entry)
}

func (l *Logger) logAudit(ctx context.Context, entry AuditLog) error {
	if !l.client.IsEnabled() {
		return nil
	}

	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	if entry.RequestID == "" {
		entry.RequestID = uuid.New().String()
	}
	entry.Payload = SanitizeForLog(entry.Payload)

	return l.index(ctx, l.client.GetLogIndexName(entry.Kind), entry)
}

// LogSystemEvent logs a system event to OpenSearch
func (l *Logger) LogSystemEvent(ctx context.Context, entry any) error {
	if !l.client.IsEnabled() {
		return nil
	}
	return l.index(ctx, l.client.GetLogIndexName(KindSystem), entry)
}

func (l *Logger) index(ctx context.Context, indexName string, doc any) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal log: %w", err)
	}

	req := opensearchapi.IndexRequest{
		Index: indexName,
		Body:  bytes.NewReader(body),
	}

	res, err := req.Do(ctx, l.client.GetClient())
	if err != nil {
		return fmt.Errorf("failed to index log: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("opensearch error: %s", res.String())
	}

	return nil
}

// SearchLogs searches audit logs of one kind, newest first
func (l *Logger) SearchLogs(ctx context.Context, kind string, query map[string]any) ([]AuditLog, error) {
	if !l.client.IsEnabled() {
		return nil, ErrLoggingDisabled
	}

	searchQuery := map[string]any{
		"query": query,
		"sort": []map[string]any{
			{"timestamp": map[string]string{"order": "desc"}},
		},
		"size": 100,
	}

	queryJSON, err := json.Marshal(searchQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal query: %w", err)
	}

	req := opensearchapi.SearchRequest{
		Index: []string{l.client.GetLogIndexName(kind)},
		Body:  bytes.NewReader(queryJSON),
	}

	res, err := req.Do(ctx, l.client.GetClient())
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("opensearch search error: %s", res.String())
	}

	var searchResult struct {
		Hits struct {
			Hits []struct {
				Source AuditLog `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}

	if err := json.NewDecoder(res.Body).Decode(&searchResult); err != nil {
		return nil, fmt.Errorf("failed to decode search results: %w", err)
	}

	logs := make([]AuditLog, len(searchResult.Hits.Hits))
	for i, hit := range searchResult.Hits.Hits {
		logs[i] = hit.Source
	}

	return logs, nil
}

// GetOrderLogs retrieves the audit trail of one order
func (l *Logger) GetOrderLogs(ctx context.Context, kind, orderID string) ([]AuditLog, error) {
	query := map[string]any{
		"term": map[string]any{
			"order_id": orderID,
		},
	}

	return l.SearchLogs(ctx, kind, query)
}

// GetRecentErrorLogs retrieves failed events of the last hours
func (l *Logger) GetRecentErrorLogs(ctx context.Context, kind string, hours int) ([]AuditLog, error) {
	query := map[string]any{
		"bool": map[string]any{
			"must": []map[string]any{
				{
					"range": map[string]any{
						"timestamp": map[string]any{
							"gte": fmt.Sprintf("now-%dh", hours),
						},
					},
				},
				{
					"exists": map[string]any{
						"field": "error.code",
					},
				},
			},
		},
	}

	return l.SearchLogs(ctx, kind, query)
}

var sensitivePatterns = func() []*regexp.Regexp {
	fields := []string{
		"BRQ_SIGNATURE", "ADD_SIGNATURE", "secretKey", "secret_key", "websiteKey",
		"apiKey", "api_key", "password", "token", "authorization",
	}

	patterns := make([]*regexp.Regexp, 0, len(fields)*2)
	for _, field := range fields {
		patterns = append(patterns,
			regexp.MustCompile(fmt.Sprintf(`(?i)"(%s)"\s*:\s*"[^"]*"`, field)),
			regexp.MustCompile(fmt.Sprintf(`(?i)\b(%s)=[^&\s]*`, field)),
		)
	}
	return patterns
}()

// SanitizeForLog masks signatures and credentials in JSON or form payloads
func SanitizeForLog(data string) string {
	result := data
	for i, re := range sensitivePatterns {
		if i%2 == 0 {
			result = re.ReplaceAllString(result, `"$1":"***REDACTED***"`)
		} else {
			result = re.ReplaceAllString(result, `$1=***REDACTED***`)
		}
	}
	return result
}
