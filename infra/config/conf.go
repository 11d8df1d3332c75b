package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type Config struct {
	Validator *validator.Validate
	// InstanceID identifies this process in audit and system logs.
	InstanceID string
}

// AppConfig represents the application configuration
type AppConfig struct {
	Port        string
	Environment string

	// Gateway credentials and mode
	WebsiteKey string `validate:"required"`
	SecretKey  string `validate:"required"`
	GatewayURL string `validate:"required,url"`
	LiveMode   bool

	// Refund callbacks sent with every outbound request
	ReturnURL      string `validate:"omitempty,url"`
	ReturnURLError string `validate:"omitempty,url"`
	PushURL        string `validate:"omitempty,url"`

	// AfterpayLegacy selects the tax-category article shape for afterpay refunds.
	AfterpayLegacy bool

	APIKey string
	DBPath string `validate:"required"`

	OpenSearchURL    string
	OpenSearchUser   string
	OpenSearchPass   string
	EnableLogging    bool
	LoggingLevel     string
	LogRetentionDays int
}

var (
	instance          *Config
	appConfigInstance *AppConfig
)

func App() *Config {
	if instance == nil {
		instance = &Config{
			Validator:  validator.New(),
			InstanceID: uuid.New().String(),
		}
	}
	return instance
}

// GetAppConfig returns the application configuration
func GetAppConfig() *AppConfig {
	if appConfigInstance == nil {
		appConfigInstance = &AppConfig{
			Port:             GetEnv("APP_PORT", "9999"),
			Environment:      GetEnv("ENVIRONMENT", "development"),
			WebsiteKey:       strings.TrimSpace(GetEnv("BRQ_WEBSITE_KEY", "")),
			SecretKey:        strings.TrimSpace(GetEnv("BRQ_SECRET_KEY", "")),
			GatewayURL:       GetEnv("BRQ_GATEWAY_URL", "https://testcheckout.buckaroo.nl"),
			LiveMode:         strings.EqualFold(GetEnv("BRQ_MODE", "test"), "live"),
			ReturnURL:        GetEnv("BRQ_RETURN_URL", ""),
			ReturnURLError:   GetEnv("BRQ_RETURN_URL_ERROR", ""),
			PushURL:          GetEnv("BRQ_PUSH_URL", ""),
			AfterpayLegacy:   GetBoolEnv("BRQ_AFTERPAY_LEGACY", false),
			APIKey:           GetEnv("API_KEY", ""),
			DBPath:           GetEnv("DB_PATH", "data/brqpay.db"),
			OpenSearchURL:    GetEnv("OPENSEARCH_URL", "http://localhost:9200"),
			OpenSearchUser:   GetEnv("OPENSEARCH_USER", ""),
			OpenSearchPass:   GetEnv("OPENSEARCH_PASSWORD", ""),
			EnableLogging:    GetBoolEnv("ENABLE_OPENSEARCH_LOGGING", false),
			LoggingLevel:     GetEnv("LOGGING_LEVEL", "info"),
			LogRetentionDays: GetIntEnv("LOG_RETENTION_DAYS", 30),
		}
	}
	return appConfigInstance
}

// Validate checks the gateway settings required to verify pushes and send refunds
func (c *AppConfig) Validate() error {
	if err := App().Validator.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// GetEnv returns the value of an environment variable or a default value
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetBoolEnv returns the boolean value of an environment variable or a default value
func GetBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// GetIntEnv returns the integer value of an environment variable or a default value
func GetIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
