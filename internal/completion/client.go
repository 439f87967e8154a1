// Package completion talks to a text completion endpoint: one prompt in,
// one candidate text out.
package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/http/httpguts"
)

const DefaultBaseURL = "https://api.openai.com/v1"

// Config configures a Client.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	Choice  ChoicePolicy
}

// Client issues completion requests. It is safe for concurrent use.
type Client struct {
	baseURL string
	apiKey  string
	policy  ChoicePolicy
	client  *http.Client
}

// NewClient validates cfg and builds a client. Errors here are setup
// failures and should abort the run.
func NewClient(cfg Config) (*Client, error) {
	if err := ValidateAPIKey(cfg.APIKey); err != nil {
		return nil, err
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(baseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q", baseURL)
	}

	policy := cfg.Choice
	if policy == "" {
		policy = LastChoice
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  cfg.APIKey,
		policy:  policy,
		client:  &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// ValidateAPIKey checks that key is non-empty and usable in an
// Authorization header.
func ValidateAPIKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("%w: API key is empty", ErrInvalidCredential)
	}
	if !httpguts.ValidHeaderFieldValue("Bearer " + key) {
		return fmt.Errorf("%w: API key contains characters not allowed in a header", ErrInvalidCredential)
	}
	return nil
}

// Complete sends req and returns the selected candidate text. Failures are
// *TransportError, *ServiceError, ErrNoChoice or ErrUnrecognizedResponse.
func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	jsonData, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/completions", bytes.NewReader(jsonData))
	if err != nil {
		return "", &TransportError{Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", &TransportError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &TransportError{Err: fmt.Errorf("failed to read response: %w", err)}
	}

	parsed, err := ParseResponse(body)
	if err != nil {
		return "", fmt.Errorf("status %d: %w", resp.StatusCode, err)
	}
	if parsed.Failed() {
		return "", parsed.Err
	}

	return c.policy.Select(parsed.Choices)
}
