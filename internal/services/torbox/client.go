package torbox

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/amaumene/strmarr/internal/config"
	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
)

const (
	defaultAPIBaseURL    = "https://api.torbox.app/v1/api"
	defaultSearchBaseURL = "https://search-api.torbox.app"

	maxRequestRetries = 3
)

// Client talks to the TorBox listing and metadata search APIs
type Client struct {
	// APIBaseURL and SearchBaseURL may be overridden before first use
	APIBaseURL    string
	SearchBaseURL string

	apiKey     string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewClient creates a new TorBox client
func NewClient(cfg *config.Config, logger *logrus.Logger) (*Client, error) {
	if cfg.TorBoxAPIKey == "" {
		return nil, fmt.Errorf("TorBox API key is required")
	}

	return &Client{
		APIBaseURL:    defaultAPIBaseURL,
		SearchBaseURL: defaultSearchBaseURL,
		apiKey:        cfg.TorBoxAPIKey,
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		logger:        logger,
	}, nil
}

// APIKey returns the configured TorBox API key
func (c *Client) APIKey() string {
	return c.apiKey
}

// doGet executes a GET request with retries on transport errors and
// retryable status codes, returning the response body and status code
func (c *Client) doGet(ctx context.Context, url string, authorized bool) ([]byte, int, error) {
	var body []byte
	var status int

	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
		}
		if authorized {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("failed to execute request: %w", err)
		}
		defer resp.Body.Close()

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read response body: %w", err)
		}

		status = resp.StatusCode
		if status == http.StatusTooManyRequests || status >= http.StatusInternalServerError {
			return fmt.Errorf("retryable status %d", status)
		}
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxRequestRetries), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, status, err
	}

	return body, status, nil
}
