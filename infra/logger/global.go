package logger

import (
	"sync"

	"github.com/mstgnz/brqpay/infra/config"
	"github.com/mstgnz/brqpay/infra/opensearch"
)

var (
	globalLogger *SystemLogger
	mu           sync.Mutex
)

// InitGlobalLogger initializes the global system logger. A nil OpenSearch logger keeps
// the global logger console-only.
func InitGlobalLogger(openSearchLogger *opensearch.Logger) {
	mu.Lock()
	defer mu.Unlock()

	if globalLogger != nil {
		return
	}

	appCfg := config.GetAppConfig()
	cfg := SystemLoggerConfig{
		EnableConsole:    true,
		EnableOpenSearch: openSearchLogger != nil,
		MinLevel:         ParseLevel(appCfg.LoggingLevel),
		Service:          "brqpay",
		Version:          "1.0.0",
		Environment:      appCfg.Environment,
	}
	if cfg.Environment == "development" {
		cfg.MinLevel = LevelDebug
	}

	globalLogger = NewSystemLogger(openSearchLogger, cfg)
}

// GetGlobalLogger returns the global logger instance
func GetGlobalLogger() *SystemLogger {
	mu.Lock()
	defer mu.Unlock()

	if globalLogger == nil {
		globalLogger = NewSystemLogger(nil, SystemLoggerConfig{
			EnableConsole: true,
			MinLevel:      LevelInfo,
			Service:       "brqpay",
			Version:       "1.0.0",
			Environment:   "development",
		})
	}
	return globalLogger
}

// Debug logs a debug message using the global logger
func Debug(message string, ctx ...LogContext) {
	GetGlobalLogger().Debug(message, ctx...)
}

// Info logs an info message using the global logger
func Info(message string, ctx ...LogContext) {
	GetGlobalLogger().Info(message, ctx...)
}

// Warn logs a warning message using the global logger
func Warn(message string, ctx ...LogContext) {
	GetGlobalLogger().Warn(message, ctx...)
}

// Error logs an error message using the global logger
func Error(message string, err error, ctx ...LogContext) {
	GetGlobalLogger().Error(message, err, ctx...)
}

// Fatal logs a fatal message using the global logger and exits
func Fatal(message string, err error, ctx ...LogContext) {
	GetGlobalLogger().Fatal(message, err, ctx...)
}

// WithOrder creates a context logger scoped to one order
func WithOrder(orderID string) *ContextLogger {
	return GetGlobalLogger().WithContext(LogContext{OrderID: orderID})
}
