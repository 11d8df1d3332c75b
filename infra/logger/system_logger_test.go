package logger

import (
	"bytes"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func quietConfig() SystemLoggerConfig {
	return SystemLoggerConfig{
		EnableConsole: false,
		MinLevel:      LevelDebug,
		Service:       "test-service",
		Version:       "1.0.0",
		Environment:   "test",
	}
}

func TestNewSystemLogger(t *testing.T) {
	cfg := quietConfig()
	cfg.EnableOpenSearch = true

	logger := NewSystemLogger(nil, cfg)

	assert.NotNil(t, logger)
	assert.False(t, logger.enableOpenSearch, "opensearch sink must stay off without a client")
	assert.Equal(t, LevelDebug, logger.minLevel)
	assert.Equal(t, "test-service", logger.service)
	assert.Equal(t, "1.0.0", logger.version)
	assert.Equal(t, "test", logger.environment)
}

func TestSystemLogger_LogLevels(t *testing.T) {
	logger := NewSystemLogger(nil, quietConfig())

	assert.NotPanics(t, func() {
		logger.Debug("debug")
		logger.Info("info")
		logger.Warn("warn")
		logger.Error("error", errors.New("boom"))
		logger.Error("error without err", nil)
	})
}

func TestSystemLogger_ShouldLog(t *testing.T) {
	tests := []struct {
		name     string
		minLevel LogLevel
		level    LogLevel
		expected bool
	}{
		{"debug_at_debug", LevelDebug, LevelDebug, true},
		{"info_at_debug", LevelDebug, LevelInfo, true},
		{"debug_at_info", LevelInfo, LevelDebug, false},
		{"warn_at_info", LevelInfo, LevelWarn, true},
		{"info_at_error", LevelError, LevelInfo, false},
		{"fatal_at_error", LevelError, LevelFatal, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := quietConfig()
			cfg.MinLevel = tt.minLevel
			logger := NewSystemLogger(nil, cfg)
			assert.Equal(t, tt.expected, logger.shouldLog(tt.level))
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected LogLevel
	}{
		{"debug", LevelDebug},
		{" WARN ", LevelWarn},
		{"error", LevelError},
		{"", LevelInfo},
		{"verbose", LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseLevel(tt.input))
		})
	}
}

func TestSystemLogger_ExtractComponent(t *testing.T) {
	logger := NewSystemLogger(nil, quietConfig())

	tests := []struct {
		name     string
		filePath string
		expected string
	}{
		{
			name:     "nested_package",
			filePath: "/path/to/brqpay/infra/storage/sqlite.go",
			expected: "infra/storage",
		},
		{
			name:     "top_level_package",
			filePath: "/path/to/brqpay/push/service.go",
			expected: "push",
		},
		{
			name:     "unknown_file",
			filePath: "/some/other/path/file.go",
			expected: "path",
		},
		{
			name:     "single_part",
			filePath: "file.go",
			expected: "unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, logger.extractComponent(tt.filePath))
		})
	}
}

func TestContextLogger(t *testing.T) {
	systemLogger := NewSystemLogger(nil, quietConfig())

	ctx := LogContext{OrderID: "order-1", Method: "ideal"}
	contextLogger := systemLogger.WithContext(ctx)

	assert.Equal(t, systemLogger, contextLogger.systemLogger)
	assert.Equal(t, ctx, contextLogger.context)

	assert.NotPanics(t, func() {
		contextLogger.Debug("Debug message")
		contextLogger.Info("Info message")
		contextLogger.Warn("Warning message")
		contextLogger.Error("Error message", errors.New("test error"))
	})

	contextLogger.AddField("key", "value").SetRequestID("req-456")

	assert.Equal(t, "req-456", contextLogger.context.RequestID)
	assert.Equal(t, "value", contextLogger.context.Fields["key"])
}

func TestSystemLogger_LogToConsole(t *testing.T) {
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	cfg := quietConfig()
	cfg.EnableConsole = true
	logger := NewSystemLogger(nil, cfg)

	logger.Error("push rejected", errors.New("bad signature"), LogContext{
		OrderID:   "order-42",
		Method:    "ideal",
		RequestID: "0123456789abcdef",
		Fields:    map[string]any{"status_code": "490"},
	})

	w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	_, _ = buf.ReadFrom(r)
	output := buf.String()

	assert.Contains(t, output, "push rejected")
	assert.Contains(t, output, "ERROR")
	assert.Contains(t, output, "order=order-42")
	assert.Contains(t, output, "method=ideal")
	assert.Contains(t, output, "req_id=01234567")
	assert.Contains(t, output, "Error: bad signature")
	assert.Contains(t, output, "status_code: 490")
}

func TestSystemLogger_ErrorDoesNotMutateCallerFields(t *testing.T) {
	logger := NewSystemLogger(nil, quietConfig())
	fields := map[string]any{"a": 1}

	logger.Error("failed", errors.New("x"), LogContext{Fields: fields})

	_, has := fields["error"]
	assert.False(t, has)
}
