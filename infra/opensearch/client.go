package opensearch

import (
	"context"
	"crypto/tls"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/mstgnz/brqpay/infra/config"
	"github.com/opensearch-project/opensearch-go/v2"
	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"
)

// Log kinds, each stored in its own index
const (
	KindPush   = "push"
	KindRefund = "refund"
	KindSystem = "system"
)

// Client wraps the OpenSearch client
type Client struct {
	client *opensearch.Client
	config *config.AppConfig
}

// NewClient creates a new OpenSearch client. Indices are created up front only when
// logging is enabled.
func NewClient(cfg *config.AppConfig) (*Client, error) {
	opensearchConfig := opensearch.Config{
		Addresses: []string{cfg.OpenSearchURL},
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: true, // self-signed dev clusters
			},
		},
		MaxRetries:    3,
		RetryOnStatus: []int{502, 503, 504, 429},
		RetryBackoff: func(i int) time.Duration {
			return time.Duration(i) * 100 * time.Millisecond
		},
	}

	if cfg.OpenSearchUser != "" && cfg.OpenSearchPass != "" {
		opensearchConfig.Username = cfg.OpenSearchUser
		opensearchConfig.Password = cfg.OpenSearchPass
	}

	client, err := opensearch.NewClient(opensearchConfig)
	if err != nil {
		return nil, err
	}

	osClient := &Client{
		client: client,
		config: cfg,
	}

	if cfg.EnableLogging {
		if err := osClient.setupIndices(context.Background()); err != nil {
			log.Printf("Warning: Failed to setup OpenSearch indices: %v", err)
		}
	}

	return osClient, nil
}

// GetClient returns the underlying OpenSearch client
func (c *Client) GetClient() *opensearch.Client {
	return c.client
}

func (c *Client) setupIndices(ctx context.Context) error {
	var failed []string
	for _, kind := range []string{KindPush, KindRefund, KindSystem} {
		indexName := c.GetLogIndexName(kind)

		exists, err := c.indexExists(ctx, indexName)
		if err != nil {
			failed = append(failed, indexName)
			continue
		}
		if exists {
			continue
		}

		if err := c.createLogIndex(ctx, indexName); err != nil {
			failed = append(failed, indexName)
			continue
		}
		log.Printf("Created OpenSearch index: %s", indexName)
	}

	if len(failed) > 0 {
		return fmt.Errorf("could not prepare indices: %s", strings.Join(failed, ", "))
	}
	return nil
}

func (c *Client) indexExists(ctx context.Context, indexName string) (bool, error) {
	req := opensearchapi.IndicesExistsRequest{
		Index: []string{indexName},
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return false, err
	}
	defer res.Body.Close()

	return res.StatusCode == http.StatusOK, nil
}

// createLogIndex creates an audit index with the mapping shared by push and refund logs
func (c *Client) createLogIndex(ctx context.Context, indexName string) error {
	mapping := `{
		"mappings": {
			"properties": {
				"timestamp":       {"type": "date", "format": "strict_date_optional_time||epoch_millis"},
				"kind":            {"type": "keyword"},
				"order_id":        {"type": "keyword"},
				"order_number":    {"type": "keyword"},
				"method":          {"type": "keyword"},
				"transaction_key": {"type": "keyword"},
				"status_code":     {"type": "keyword"},
				"status":          {"type": "keyword"},
				"amount":          {"type": "keyword"},
				"currency":        {"type": "keyword"},
				"request_id":      {"type": "keyword"},
				"client_ip":       {"type": "ip"},
				"payload":         {"type": "text"},
				"outcome":         {"type": "keyword"},
				"processing_time_ms": {"type": "integer"},
				"error": {
					"type": "object",
					"properties": {
						"code":    {"type": "keyword"},
						"message": {"type": "text"}
					}
				}
			}
		},
		"settings": {
			"number_of_shards": 1,
			"number_of_replicas": 0
		}
	}`

	req := opensearchapi.IndicesCreateRequest{
		Index: indexName,
		Body:  strings.NewReader(mapping),
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("index creation error: %s", res.String())
	}

	return nil
}

// GetLogIndexName returns the index name for a log kind
func (c *Client) GetLogIndexName(kind string) string {
	return "brqpay-" + kind + "-logs"
}

// IsEnabled returns whether OpenSearch logging is enabled
func (c *Client) IsEnabled() bool {
	return c.config.EnableLogging
}
