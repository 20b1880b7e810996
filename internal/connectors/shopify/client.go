package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/custodia-labs/storefront-source/internal/core/domain"
	"github.com/custodia-labs/storefront-source/internal/core/ports/driven"
)

// Ensure Client implements the interface.
var _ driven.GraphQLClient = (*Client)(nil)

// maxErrorBody caps how much of a failed response body is kept.
const maxErrorBody = 4 << 10

// Client executes GraphQL documents against one shop's storefront API.
// It is safe for concurrent use.
type Client struct {
	http     *http.Client
	endpoint string
	limiter  *RateLimiter
}

// graphQLRequest is the POST body.
type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

// graphQLResponse is the response envelope.
type graphQLResponse struct {
	Data   map[string]any        `json:"data"`
	Errors []domain.GraphQLError `json:"errors"`
}

// NewClient creates a storefront client for cfg.
func NewClient(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	limiter := NewRateLimiter(cfg.RequestsPerSecond)
	return &Client{
		http: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &transport{
				accessToken: cfg.AccessToken,
				limiter:     limiter,
			},
		},
		endpoint: cfg.URL(),
		limiter:  limiter,
	}, nil
}

// NewClientBuilder returns a driven.ClientBuilder creating storefront clients.
func NewClientBuilder() driven.ClientBuilder {
	return func(opts domain.Options) (driven.GraphQLClient, error) {
		return NewClient(ConfigFromOptions(opts))
	}
}

// Endpoint returns the GraphQL endpoint URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// RateLimiter returns the client's rate limiter.
func (c *Client) RateLimiter() *RateLimiter {
	return c.limiter
}

// Execute posts query with variables and returns the data object.
func (c *Client) Execute(ctx context.Context, query string, variables map[string]any) (map[string]any, error) {
	fail := func(status int, errs []domain.GraphQLError, err error) error {
		return &domain.RequestError{
			Query:      query,
			Variables:  variables,
			StatusCode: status,
			Errors:     errs,
			Err:        err,
		}
	}

	jsonBody, err := json.Marshal(graphQLRequest{Query: query, Variables: variables})
	if err != nil {
		return nil, fail(0, nil, fmt.Errorf("marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fail(0, nil, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fail(0, nil, fmt.Errorf("send request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		if err != nil {
			return nil, fail(resp.StatusCode, nil, fmt.Errorf("status %d: failed to read response", resp.StatusCode))
		}
		// Some error statuses still carry a GraphQL errors array.
		var envelope graphQLResponse
		if json.Unmarshal(body, &envelope) == nil && len(envelope.Errors) > 0 {
			return nil, fail(resp.StatusCode, envelope.Errors, nil)
		}
		return nil, fail(resp.StatusCode, nil, fmt.Errorf("status %d: %s", resp.StatusCode, bytes.TrimSpace(body)))
	}

	var envelope graphQLResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fail(resp.StatusCode, nil, fmt.Errorf("decode response: %w", err))
	}
	if len(envelope.Errors) > 0 {
		return nil, fail(resp.StatusCode, envelope.Errors, nil)
	}
	if envelope.Data == nil {
		envelope.Data = map[string]any{}
	}
	return envelope.Data, nil
}
