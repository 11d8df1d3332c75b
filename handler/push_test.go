package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mstgnz/brqpay/order"
	"github.com/mstgnz/brqpay/push"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockPushService struct {
	handleFunc func(ctx context.Context, n *push.Notification) (*push.Outcome, error)
	received   *push.Notification
}

func (m *mockPushService) Handle(ctx context.Context, n *push.Notification) (*push.Outcome, error) {
	m.received = n
	if m.handleFunc != nil {
		return m.handleFunc(ctx, n)
	}
	return &push.Outcome{OrderID: "o1", Type: push.TypePayment, Status: push.StatusSuccess, PaymentStatus: order.StatusPaid}, nil
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestPushHandler_HandlePush(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		serviceErr  error
		wantStatus  int
		wantSuccess bool
		wantMessage string
	}{
		{
			name:        "form push",
			contentType: "application/x-www-form-urlencoded",
			body:        "BRQ_STATUSCODE=190&BRQ_TRANSACTION_METHOD=ideal&BRQ_INVOICENUMBER=o1",
			wantStatus:  http.StatusOK,
			wantSuccess: true,
			wantMessage: "Push processed",
		},
		{
			name:        "json push",
			contentType: "application/json",
			body:        `{"BRQ_STATUSCODE":"190","BRQ_TRANSACTION_METHOD":"ideal"}`,
			wantStatus:  http.StatusOK,
			wantSuccess: true,
			wantMessage: "Push processed",
		},
		{
			name:        "untrusted push is acknowledged",
			contentType: "application/x-www-form-urlencoded",
			body:        "BRQ_STATUSCODE=190",
			serviceErr:  push.ErrUntrustedNotification,
			wantStatus:  http.StatusOK,
			wantSuccess: false,
			wantMessage: "Signature from push is incorrect",
		},
		{
			name:        "unknown order",
			contentType: "application/x-www-form-urlencoded",
			body:        "BRQ_STATUSCODE=190",
			serviceErr:  order.ErrOrderNotFound,
			wantStatus:  http.StatusNotFound,
			wantMessage: "Order not found",
		},
		{
			name:        "store failure",
			contentType: "application/x-www-form-urlencoded",
			body:        "BRQ_STATUSCODE=190",
			serviceErr:  errors.New("disk full"),
			wantStatus:  http.StatusInternalServerError,
			wantMessage: "Push processing failed",
		},
		{
			name:        "empty body",
			contentType: "application/x-www-form-urlencoded",
			body:        "",
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Invalid push body",
		},
		{
			name:        "broken json",
			contentType: "application/json",
			body:        `{"BRQ_STATUSCODE":`,
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Invalid push body",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockPushService{}
			if tt.serviceErr != nil {
				svc.handleFunc = func(context.Context, *push.Notification) (*push.Outcome, error) {
					return nil, tt.serviceErr
				}
			}
			h := NewPushHandler(svc)

			req := httptest.NewRequest(http.MethodPost, "/push", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", tt.contentType)
			w := httptest.NewRecorder()

			h.HandlePush(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			body := decodeBody(t, w)
			assert.Equal(t, tt.wantSuccess, body["success"])
			assert.Equal(t, tt.wantMessage, body["message"])
		})
	}
}

func TestPushHandler_PassesFieldsInOrder(t *testing.T) {
	svc := &mockPushService{}
	h := NewPushHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/push", strings.NewReader("brq_b=2&BRQ_A=1&ADD_X=%20y"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()

	h.HandlePush(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	require.NotNil(t, svc.received)
	fields := svc.received.Fields()
	require.Len(t, fields, 3)
	assert.Equal(t, "brq_b", fields[0].Key)
	assert.Equal(t, "BRQ_A", fields[1].Key)

	data := decodeBody(t, w)["data"].(map[string]any)
	assert.Equal(t, "paid", data["payment_status"])
}
