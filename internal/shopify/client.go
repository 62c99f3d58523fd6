package shopify

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

	"go.uber.org/zap"

	"github.com/JJCAPPE/inventario-cappellettoshop/internal/config"
	"github.com/JJCAPPE/inventario-cappellettoshop/internal/metrics"
	apperrors "github.com/JJCAPPE/inventario-cappellettoshop/pkg/errors"
)

const (
	serviceName       = "shopify"
	defaultMaxRetries = 3
	// used when a 429 arrives without a usable Retry-After
	defaultRetryAfter = 2 * time.Second
)

type Client struct {
	baseURL     string
	accessToken string
	apiVersion  string
	httpClient  *http.Client
	logger      *zap.Logger
	metrics     *metrics.Metrics
	pacer       *Pacer
	maxRetries  int
}

// Option customises a Client
type Option func(*Client)

// WithMetrics records every request in m
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithMaxRetries sets how many times a 429 response is retried
func WithMaxRetries(n int) Option {
	return func(c *Client) { c.maxRetries = n }
}

// NewClient creates a new Shopify Admin API client (REST and GraphQL)
func NewClient(cfg config.ShopifyConfig, logger *zap.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		// Normalize shop domain - remove https://, http://, and trailing slashes
		shopDomain := cfg.ShopDomain
		shopDomain = strings.TrimPrefix(shopDomain, "https://")
		shopDomain = strings.TrimPrefix(shopDomain, "http://")
		shopDomain = strings.TrimSuffix(shopDomain, "/")
		baseURL = "https://" + shopDomain
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	c := &Client{
		baseURL:     baseURL,
		accessToken: cfg.AccessToken,
		apiVersion:  cfg.APIVersion,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger:     logger,
		pacer:      NewPacer(),
		maxRetries: defaultMaxRetries,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GraphQLRequest represents a GraphQL request
type GraphQLRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables,omitempty"`
}

// GraphQLResponse represents a GraphQL response
type GraphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []GraphQLError  `json:"errors,omitempty"`
}

// GraphQLError represents a GraphQL error
type GraphQLError struct {
	Message string        `json:"message"`
	Path    []interface{} `json:"path,omitempty"`
}

// UserError is a mutation-level validation error
type UserError struct {
	Field   []string `json:"field"`
	Message string   `json:"message"`
}

// Execute executes a GraphQL query/mutation
func (c *Client) Execute(ctx context.Context, query string, variables map[string]interface{}) (*GraphQLResponse, error) {
	reqBody := GraphQLRequest{
		Query:     query,
		Variables: variables,
	}

	resp, err := c.do(ctx, "graphql", http.MethodPost, "graphql.json", nil, reqBody)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.Classify(serviceName, "graphql", err)
	}

	var graphQLResp GraphQLResponse
	if err := json.Unmarshal(body, &graphQLResp); err != nil {
		return nil, &apperrors.ParseError{What: "graphql response", Err: fmt.Errorf("%w, body: %s", err, string(body))}
	}

	if len(graphQLResp.Errors) > 0 {
		errorMessages := make([]string, len(graphQLResp.Errors))
		for i, err := range graphQLResp.Errors {
			errorMessages[i] = err.Message
		}
		return nil, fmt.Errorf("graphQL errors: %s", strings.Join(errorMessages, "; "))
	}

	return &graphQLResp, nil
}

// Throttle waits as long as the last observed rate-limit headers ask for,
// or for fallback when no header has been seen yet.
func (c *Client) Throttle(ctx context.Context, fallback time.Duration) error {
	return c.pacer.Wait(ctx, fallback)
}

func (c *Client) adminURL(path string, query url.Values) string {
	u := fmt.Sprintf("%s/admin/api/%s/%s", c.baseURL, c.apiVersion, strings.TrimPrefix(path, "/"))
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// do sends one Admin API request and returns the response when the status is 2xx.
// 429 responses are retried after Retry-After; every other failure is returned as is.
// The caller closes the body.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, payload interface{}) (*http.Response, error) {
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
	}
	target := c.adminURL(path, query)

	for attempt := 0; ; attempt++ {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, target, reader)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		req.Header.Set("X-Shopify-Access-Token", c.accessToken)

		start := time.Now()
		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.metrics.RecordRemoteRequest(serviceName, op, 0, time.Since(start))
			c.logger.Warn("Shopify request failed", zap.String("operation", op), zap.Error(err))
			return nil, apperrors.Classify(serviceName, op, err)
		}
		c.metrics.RecordRemoteRequest(serviceName, op, resp.StatusCode, time.Since(start))
		c.pacer.Observe(resp.Header)

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return resp, nil
		}

		respBody, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests && attempt < c.maxRetries {
			wait, ok := ParseRetryAfter(resp.Header.Get("Retry-After"))
			if !ok {
				wait = defaultRetryAfter
			}
			c.logger.Warn("Shopify rate limit hit, retrying",
				zap.String("operation", op),
				zap.Int("attempt", attempt+1),
				zap.Duration("retry_after", wait),
			)
			if err := sleep(ctx, wait); err != nil {
				return nil, apperrors.Classify(serviceName, op, err)
			}
			continue
		}

		return nil, &apperrors.RemoteRejection{
			Service:    serviceName,
			Op:         op,
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
		}
	}
}

// doJSON sends a request and decodes the JSON response into out
func (c *Client) doJSON(ctx context.Context, op, method, path string, query url.Values, payload, out interface{}) error {
	resp, err := c.do(ctx, op, method, path, query, payload)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return decodeBody(resp.Body, op, out)
}

func decodeBody(r io.Reader, what string, out interface{}) error {
	body, err := io.ReadAll(r)
	if err != nil {
		return apperrors.Classify(serviceName, what, err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &apperrors.ParseError{What: what + " response", Err: err}
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
