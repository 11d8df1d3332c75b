package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

const transactionPath = "/json/Transaction"

// Config represents the configuration of a gateway Client
type Config struct {
	WebsiteKey string
	SecretKey  string
	BaseURL    string
	Timeout    time.Duration
	// HTTPClient overrides the default client built from Timeout.
	HTTPClient *http.Client
}

// Client sends signed transaction requests to the gateway
type Client struct {
	websiteKey string
	secretKey  string
	baseURL    *url.URL
	client     *http.Client
	now        func() time.Time
	nonce      func() string
}

// NewClient validates cfg and creates a Client
func NewClient(cfg Config) (*Client, error) {
	websiteKey := strings.TrimSpace(cfg.WebsiteKey)
	secretKey := strings.TrimSpace(cfg.SecretKey)
	if websiteKey == "" {
		return nil, &InitError{Err: errors.New("website key is required")}
	}
	if secretKey == "" {
		return nil, &InitError{Err: errors.New("secret key is required")}
	}

	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, &InitError{Err: fmt.Errorf("invalid base URL: %w", err)}
	}
	if (base.Scheme != "http" && base.Scheme != "https") || base.Host == "" {
		return nil, &InitError{Err: fmt.Errorf("invalid base URL %q", cfg.BaseURL)}
	}

	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 30 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}

	return &Client{
		websiteKey: websiteKey,
		secretKey:  secretKey,
		baseURL:    base,
		client:     client,
		now:        time.Now,
		nonce:      func() string { return strings.ReplaceAll(uuid.New().String(), "-", "") },
	}, nil
}

// Refund sends a refund transaction and returns the decoded gateway response
func (c *Client) Refund(ctx context.Context, req *TransactionRequest) (*TransactionResponse, error) {
	var resp TransactionResponse
	if err := c.send(ctx, http.MethodPost, transactionPath, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) send(ctx context.Context, method, path string, body, target any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("gateway: marshal request: %w", err)
	}

	endpoint := c.baseURL.JoinPath(path)
	httpReq, err := http.NewRequestWithContext(ctx, method, endpoint.String(), bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("gateway: create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", "brqpay/1.0")
	httpReq.Header.Set("Authorization",
		authorization(c.websiteKey, c.secretKey, method, endpoint, payload, c.now().Unix(), c.nonce()))

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("gateway: request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("gateway: read response: %w", err)
	}

	decodeErr := json.Unmarshal(respBody, target)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if decodeErr != nil || len(respBody) == 0 {
			return fmt.Errorf("gateway: HTTP error %d: %s", resp.StatusCode, string(respBody))
		}
		return nil
	}
	if decodeErr != nil {
		return fmt.Errorf("gateway: decode response: %w", decodeErr)
	}
	return nil
}
