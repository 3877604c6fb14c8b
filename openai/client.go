// Package openai implements the remote service boundary over the OpenAI
// Responses API, supporting both JSON-schema function tools and
// grammar-constrained custom tools.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"

	"github.com/loopworks/cfgbench/core"
)

// DefaultAPIKeyEnvVar is the environment variable name for the OpenAI API key.
const DefaultAPIKeyEnvVar = "OPENAI_API_KEY"

// DefaultBaseURL is the default OpenAI API base URL.
const DefaultBaseURL = "https://api.openai.com/v1"

// responsesPath is the API endpoint for the Responses API.
const responsesPath = "/responses"

// Client is the Responses API client.
// Client is safe for concurrent use.
type Client struct {
	config Config
}

// New creates a new client with the given API key and options.
func New(apiKey string, opts ...Option) *Client {
	cfg := Config{
		APIKey:     core.NewSecret(apiKey),
		BaseURL:    DefaultBaseURL,
		HTTPClient: http.DefaultClient,
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.Timeout > 0 && cfg.HTTPClient == http.DefaultClient {
		cfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{config: cfg}
}

// NewFromEnv creates a client using the OPENAI_API_KEY environment variable.
// Returns core.ErrMissingCredential when the variable is unset, so callers
// can abort before the first network call.
func NewFromEnv(opts ...Option) (*Client, error) {
	apiKey := os.Getenv(DefaultAPIKeyEnvVar)
	if apiKey == "" {
		return nil, core.ErrMissingCredential
	}
	return New(apiKey, opts...), nil
}

// buildHeaders constructs the HTTP headers for an API request.
// The credential is only ever written to the Authorization header.
func (c *Client) buildHeaders() http.Header {
	headers := make(http.Header)

	headers.Set("Authorization", "Bearer "+c.config.APIKey.Expose())
	headers.Set("Content-Type", "application/json")

	if c.config.OrgID != "" {
		headers.Set("OpenAI-Organization", c.config.OrgID)
	}
	if c.config.ProjectID != "" {
		headers.Set("OpenAI-Project", c.config.ProjectID)
	}

	for key, values := range c.config.Headers {
		for _, v := range values {
			headers.Add(key, v)
		}
	}

	return headers
}

// CreateResponse performs one non-streaming round-trip to the Responses API.
func (c *Client) CreateResponse(ctx context.Context, req *core.Request) (*core.Response, error) {
	wireReq, err := buildResponsesRequest(req)
	if err != nil {
		return nil, newDecodeError(err)
	}

	body, err := json.Marshal(wireReq)
	if err != nil {
		return nil, newDecodeError(err)
	}

	url := c.config.BaseURL + responsesPath
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, newNetworkError(err)
	}

	for key, values := range c.buildHeaders() {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}

	resp, err := c.config.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, newNetworkError(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, newNetworkError(err)
	}

	requestID := resp.Header.Get("x-request-id")

	if resp.StatusCode >= 400 {
		return nil, normalizeError(resp.StatusCode, respBody, requestID)
	}

	var wireResp responsesResponse
	if err := json.Unmarshal(respBody, &wireResp); err != nil {
		return nil, newDecodeError(err)
	}

	return mapResponse(&wireResp)
}

// Compile-time check that Client implements core.Service.
var _ core.Service = (*Client)(nil)
