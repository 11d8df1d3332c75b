package middle

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("success"))
	})
}

func TestAuthMiddleware(t *testing.T) {
	handler := AuthMiddleware("test-api-key")(okHandler())

	tests := []struct {
		name           string
		authHeader     string
		expectedStatus int
	}{
		{"Valid API key", "Bearer test-api-key", http.StatusOK},
		{"Invalid API key", "Bearer wrong-key", http.StatusUnauthorized},
		{"Missing Authorization header", "", http.StatusUnauthorized},
		{"Invalid format", "Basic test-api-key", http.StatusUnauthorized},
		{"Empty Bearer token", "Bearer ", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}

			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
		})
	}
}

func TestAuthMiddleware_NotConfigured(t *testing.T) {
	handler := AuthMiddleware("")(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer anything")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestRateLimiter(t *testing.T) {
	rl := &RateLimiter{
		visitors: make(map[string]*visitor),
		rate:     2,
		window:   time.Second,
	}

	clientIP := "192.168.1.1"

	assert.True(t, rl.Allow(clientIP), "first request")
	assert.True(t, rl.Allow(clientIP), "second request")
	assert.False(t, rl.Allow(clientIP), "third request should be blocked")
	assert.True(t, rl.Allow("192.168.1.2"), "other clients are independent")

	rl.visitors[clientIP].lastReset = time.Now().Add(-2 * time.Second)
	assert.True(t, rl.Allow(clientIP), "request after window")
}

func TestRateLimiter_Evict(t *testing.T) {
	rl := &RateLimiter{visitors: make(map[string]*visitor), rate: 1, window: time.Second}
	rl.visitors["old"] = &visitor{count: 1, lastReset: time.Now().Add(-time.Minute)}
	rl.visitors["fresh"] = &visitor{count: 1, lastReset: time.Now()}

	rl.evict(time.Now())

	assert.NotContains(t, rl.visitors, "old")
	assert.Contains(t, rl.visitors, "fresh")
}

func TestNewRateLimiter(t *testing.T) {
	t.Setenv("RATE_LIMIT_PER_MINUTE", "7")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rl := NewRateLimiter(ctx)

	assert.Equal(t, 7, rl.rate)
	assert.Equal(t, time.Minute, rl.window)
}

func TestRateLimitMiddleware(t *testing.T) {
	rl := &RateLimiter{
		visitors: make(map[string]*visitor),
		rate:     1,
		window:   time.Second,
	}

	handler := RateLimitMiddleware(rl)(okHandler())

	req1 := httptest.NewRequest(http.MethodGet, "/test", nil)
	req1.RemoteAddr = "192.168.1.1:12345"
	rr1 := httptest.NewRecorder()
	handler.ServeHTTP(rr1, req1)
	assert.Equal(t, http.StatusOK, rr1.Code)

	req2 := httptest.NewRequest(http.MethodGet, "/test", nil)
	req2.RemoteAddr = "192.168.1.1:12346"
	rr2 := httptest.NewRecorder()
	handler.ServeHTTP(rr2, req2)
	assert.Equal(t, http.StatusTooManyRequests, rr2.Code)
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		expected   string
	}{
		{"forwarded_list", map[string]string{"X-Forwarded-For": "10.0.0.1, 10.0.0.2"}, "1.1.1.1:80", "10.0.0.1"},
		{"forwarded_single", map[string]string{"X-Forwarded-For": " 10.0.0.3 "}, "1.1.1.1:80", "10.0.0.3"},
		{"real_ip", map[string]string{"X-Real-IP": "10.0.0.4"}, "1.1.1.1:80", "10.0.0.4"},
		{"remote_v4", nil, "192.168.0.9:5555", "192.168.0.9"},
		{"remote_v6", nil, "[2001:db8::1]:443", "2001:db8::1"},
		{"remote_loopback_v6", nil, "[::1]:443", "127.0.0.1"},
		{"remote_no_port", nil, "192.168.0.10", "192.168.0.10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.expected, GetClientIP(req))
		})
	}
}

func TestSecurityHeadersMiddleware(t *testing.T) {
	handler := SecurityHeadersMiddleware()(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	expectedHeaders := map[string]string{
		"X-Content-Type-Options":  "nosniff",
		"X-Frame-Options":         "DENY",
		"X-XSS-Protection":        "1; mode=block",
		"Content-Security-Policy": "default-src 'none'",
		"Referrer-Policy":         "strict-origin-when-cross-origin",
	}

	for header, expectedValue := range expectedHeaders {
		assert.Equal(t, expectedValue, rr.Header().Get(header), header)
	}
}

func TestIPWhitelistMiddleware(t *testing.T) {
	os.Setenv("IP_WHITELIST", "127.0.0.1,192.168.1.100")
	defer os.Unsetenv("IP_WHITELIST")

	handler := IPWhitelistMiddleware()(okHandler())

	tests := []struct {
		name           string
		clientIP       string
		expectedStatus int
	}{
		{"Whitelisted IP", "127.0.0.1", http.StatusOK},
		{"Another whitelisted IP", "192.168.1.100", http.StatusOK},
		{"Non-whitelisted IP", "192.168.1.99", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			req.RemoteAddr = tt.clientIP + ":12345"

			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
		})
	}
}

func TestRequestValidationMiddleware(t *testing.T) {
	handler := RequestValidationMiddleware()(okHandler())

	tests := []struct {
		name           string
		method         string
		path           string
		contentType    string
		contentLength  int64
		expectedStatus int
	}{
		{"Valid JSON POST", http.MethodPost, "/v1/orders/1/refunds", "application/json", 100, http.StatusOK},
		{"Form POST to API", http.MethodPost, "/v1/orders/1/refunds", "application/x-www-form-urlencoded", 100, http.StatusUnsupportedMediaType},
		{"API POST without content type", http.MethodPost, "/v1/orders/1/refunds", "", 100, http.StatusBadRequest},
		{"Form push", http.MethodPost, "/push", "application/x-www-form-urlencoded", 100, http.StatusOK},
		{"JSON push", http.MethodPost, "/push", "application/json; charset=utf-8", 100, http.StatusOK},
		{"Push without content type", http.MethodPost, "/push", "", 100, http.StatusOK},
		{"Push with text body", http.MethodPost, "/push", "text/plain", 100, http.StatusUnsupportedMediaType},
		{"GET request without content type", http.MethodGet, "/health", "", 0, http.StatusOK},
		{"Request too large", http.MethodPost, "/push", "application/json", 11 * 1024 * 1024, http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader("test body"))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			req.ContentLength = tt.contentLength

			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
		})
	}
}
