// Package llm provides a minimal OpenAI-compatible chat completions client
// and a tracked variant that records outgoing payloads.
//
// DESIGN: Client is deliberately small - one endpoint, explicit timeouts,
// bounded response reads, truncated error bodies. TrackedClient (tracked.go)
// composes a Client with the capture layer instead of extending it.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultBaseURL targets the OpenAI API.
	DefaultBaseURL = "https://api.openai.com/v1"

	// DefaultTimeout for chat completion calls.
	DefaultTimeout = 60 * time.Second

	// maxResponseSize prevents OOM on unexpectedly large API responses (10MB).
	maxResponseSize = 10 * 1024 * 1024

	// maxErrorBodyLen limits error body in error messages to avoid log bloat.
	maxErrorBodyLen = 500

	chatCompletionsPath = "/chat/completions"
)

// Config contains client construction parameters.
type Config struct {
	// BaseURL of the API, without a trailing slash. Defaults to the OpenAI
	// endpoint.
	BaseURL string

	// APIKey sent as a Bearer token. Required unless the HTTPClient's
	// transport handles auth itself (e.g. SigV4Transport).
	APIKey string

	// Timeout per call. Zero or negative uses DefaultTimeout.
	Timeout time.Duration

	// HTTPClient overrides the default HTTP client. Its transport chain is
	// used as is.
	HTTPClient *http.Client
}

// validate checks required fields and sets defaults.
func (c *Config) validate() error {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.APIKey == "" && c.HTTPClient == nil {
		return fmt.Errorf("api key required")
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return nil
}

// Client calls an OpenAI-compatible chat completions API.
type Client struct {
	baseURL    string
	apiKey     string
	timeout    time.Duration
	httpClient *http.Client
}

// NewClient creates a client from cfg.
func NewClient(cfg Config) (*Client, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid client config: %w", err)
	}

	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{} // timeout via context, not client
	}

	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		timeout:    cfg.Timeout,
		httpClient: hc,
	}, nil
}

// BaseURL returns the configured base URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// CreateChatCompletion sends req to the chat completions endpoint.
func (c *Client) CreateChatCompletion(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("chat request required")
	}
	if req.Model == "" {
		return nil, fmt.Errorf("model required")
	}
	if len(req.Messages) == 0 {
		return nil, fmt.Errorf("at least one message required")
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal chat request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+chatCompletionsPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create chat request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("chat request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read chat response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		errBody := string(respBody)
		if len(errBody) > maxErrorBodyLen {
			errBody = errBody[:maxErrorBodyLen] + "... (truncated)"
		}
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, errBody)
	}

	var chatResp ChatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return nil, fmt.Errorf("failed to parse chat response: %w", err)
	}
	return &chatResp, nil
}
