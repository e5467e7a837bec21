// Package azure implements a client for Azure OpenAI chat completions.
package azure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/cenkalti/backoff/v4"

	"github.com/skillforge/skillforge/internal/config"
	"github.com/skillforge/skillforge/internal/loggy"
)

// Client is the Azure OpenAI API client
type Client struct {
	config     config.AzureConfig
	httpClient *http.Client
}

// NewClient creates a new Azure OpenAI client with the provided configuration
func NewClient(cfg config.AzureConfig) *Client {
	return &Client{
		config: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// ChatCompletion sends a chat completions request to the configured
// deployment.
func (c *Client) ChatCompletion(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if req.MaxTokens == 0 {
		req.MaxTokens = c.config.MaxTokens
	}

	url := fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s",
		strings.TrimRight(c.config.Endpoint, "/"), c.config.Deployment, c.config.APIVersion)

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	var resp ChatResponse
	operation := func() error {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return backoff.Permanent(fmt.Errorf("creating request: %w", err))
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("api-key", c.config.APIKey)

		httpResp, err := c.httpClient.Do(httpReq)
		if err != nil {
			return fmt.Errorf("sending request: %w", err)
		}
		defer httpResp.Body.Close()

		respBody, err := io.ReadAll(httpResp.Body)
		if err != nil {
			return fmt.Errorf("reading response: %w", err)
		}

		if httpResp.StatusCode != http.StatusOK {
			var apiErr apiError
			msg := string(respBody)
			if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error.Message != "" {
				msg = apiErr.Error.Message
			}
			err := fmt.Errorf("unexpected status code %d: %s", httpResp.StatusCode, msg)
			// 429 and 5xx are transient; everything else 4xx is permanent.
			if httpResp.StatusCode >= 400 && httpResp.StatusCode < 500 && httpResp.StatusCode != http.StatusTooManyRequests {
				return backoff.Permanent(err)
			}
			loggy.Debug("retrying azure request", "status", httpResp.StatusCode, "deployment", c.config.Deployment)
			return err
		}

		if err := json.Unmarshal(respBody, &resp); err != nil {
			return backoff.Permanent(fmt.Errorf("decoding response: %w", err))
		}
		return nil
	}

	if err := backoff.Retry(operation,
		backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(c.config.MaxRetries)), ctx)); err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return &resp, fmt.Errorf("response contained no choices")
	}
	return &resp, nil
}
