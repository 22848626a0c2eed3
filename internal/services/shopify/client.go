package shopify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"catalogsync/internal/logger"
	"catalogsync/internal/models"
)

type Client struct {
	httpClient *http.Client
	logger     *logger.Logger
}

func NewClient(timeout time.Duration, logger *logger.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// FetchProducts pulls one page of products from the configured endpoint.
// Every failure is reported as a *FetchError.
func (c *Client) FetchProducts(ctx context.Context, cfg models.SyncConfig) ([]models.ProductRecord, error) {
	if cfg.EndpointURL == "" {
		return nil, &FetchError{Err: errors.New("api_url is not configured")}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.EndpointURL, nil)
	if err != nil {
		return nil, &FetchError{URL: cfg.EndpointURL, Err: fmt.Errorf("failed to create request: %w", err)}
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(AccessTokenHeader, cfg.AccessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{URL: cfg.EndpointURL, Err: fmt.Errorf("failed to make request: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{URL: cfg.EndpointURL, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{
			URL:        cfg.EndpointURL,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("API request failed: %s", truncate(string(body), 512)),
		}
	}

	records, err := DecodeProducts(body)
	if err != nil {
		return nil, &FetchError{URL: cfg.EndpointURL, StatusCode: resp.StatusCode, Err: err}
	}

	c.logger.Debug("Fetched %d products from %s", len(records), cfg.EndpointURL)
	return records, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
