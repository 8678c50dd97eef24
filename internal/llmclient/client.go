// Package llmclient provides the shared HTTP client used by provider wire
// clients: JSON request/response round-trips, retries with exponential
// backoff, standardized error parsing, and circuit breaking.
package llmclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"time"

	"chatgate/internal/httpclient"
)

// Config holds configuration for the LLM client.
type Config struct {
	// ProviderName identifies the provider in error messages.
	ProviderName string

	// BaseURL is the API base URL.
	BaseURL string

	// Retry configuration.
	MaxRetries     int           // retry attempts after the first (default 3)
	InitialBackoff time.Duration // default 1s
	MaxBackoff     time.Duration // default 30s
	BackoffFactor  float64       // default 2.0

	// CircuitBreaker settings; nil disables circuit breaking.
	CircuitBreaker *CircuitBreakerConfig
}

// CircuitBreakerConfig holds circuit breaker settings.
type CircuitBreakerConfig struct {
	FailureThreshold int
	SuccessThreshold int
	Timeout          time.Duration
}

// DefaultConfig returns the default client configuration for a provider.
func DefaultConfig(providerName, baseURL string) Config {
	return Config{
		ProviderName:   providerName,
		BaseURL:        baseURL,
		MaxRetries:     3,
		InitialBackoff: 1 * time.Second,
		MaxBackoff:     30 * time.Second,
		BackoffFactor:  2.0,
		CircuitBreaker: &CircuitBreakerConfig{
			FailureThreshold: 5,
			SuccessThreshold: 2,
			Timeout:          30 * time.Second,
		},
	}
}

// HeaderSetter sets provider-specific headers on an outgoing request.
type HeaderSetter func(req *http.Request)

// Client is the shared HTTP client for provider wire clients.
type Client struct {
	httpClient     *http.Client
	config         Config
	headerSetter   HeaderSetter
	circuitBreaker *circuitBreaker
}

// New creates a client using the default transport.
func New(config Config, headerSetter HeaderSetter) *Client {
	return NewWithHTTPClient(httpclient.NewDefault(), config, headerSetter)
}

// NewWithHTTPClient creates a client around an injected *http.Client. The
// factory passes a proxy-scoped client here when the request configures a
// proxy URL.
func NewWithHTTPClient(hc *http.Client, config Config, headerSetter HeaderSetter) *Client {
	c := &Client{
		httpClient:   hc,
		config:       config,
		headerSetter: headerSetter,
	}
	if config.CircuitBreaker != nil {
		c.circuitBreaker = newCircuitBreaker(
			config.CircuitBreaker.FailureThreshold,
			config.CircuitBreaker.SuccessThreshold,
			config.CircuitBreaker.Timeout,
		)
	}
	return c
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string {
	return c.config.BaseURL
}

// Request is one HTTP exchange to be performed.
type Request struct {
	Method   string
	Endpoint string
	Body     any // JSON-marshaled when non-nil
	Headers  map[string]string
}

// Response is the raw result of an exchange.
type Response struct {
	StatusCode int
	Body       []byte
}

// Do executes a request with retries and circuit breaking, then unmarshals
// the response body into result (when non-nil).
func (c *Client) Do(ctx context.Context, req Request, result any) error {
	resp, err := c.DoRaw(ctx, req)
	if err != nil {
		return err
	}
	if result != nil {
		if err := json.Unmarshal(resp.Body, result); err != nil {
			return transportError(c.config.ProviderName, "failed to unmarshal response: "+err.Error(), err)
		}
	}
	return nil
}

// DoRaw executes a request with retries and circuit breaking, returning the
// raw response.
func (c *Client) DoRaw(ctx context.Context, req Request) (*Response, error) {
	if c.circuitBreaker != nil && !c.circuitBreaker.Allow() {
		return nil, transportError(c.config.ProviderName,
			"circuit breaker is open - provider temporarily unavailable", nil)
	}

	var lastErr error
	maxAttempts := c.config.MaxRetries + 1
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.backoff(attempt)):
			}
		}

		resp, err := c.doRequest(ctx, req)
		if err != nil {
			lastErr = err
			c.recordFailure()
			continue
		}

		if apiErr := parseStatus(c.config.ProviderName, resp); apiErr != nil {
			if apiErr.Temporary() {
				c.recordFailure()
				lastErr = apiErr
				continue
			}
			if resp.StatusCode >= 500 {
				c.recordFailure()
			}
			return nil, apiErr
		}

		c.recordSuccess()
		return resp, nil
	}

	if lastErr != nil {
		return nil, lastErr
	}
	return nil, transportError(c.config.ProviderName, "request failed after retries", nil)
}

// DoStream executes a streaming request and returns the response body.
// Streaming requests are never retried: partial data may already have been
// produced upstream.
func (c *Client) DoStream(ctx context.Context, req Request) (io.ReadCloser, error) {
	if c.circuitBreaker != nil && !c.circuitBreaker.Allow() {
		return nil, transportError(c.config.ProviderName,
			"circuit breaker is open - provider temporarily unavailable", nil)
	}

	httpReq, err := c.buildRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.recordFailure()
		return nil, transportError(c.config.ProviderName, "failed to send request: "+err.Error(), err)
	}

	if resp.StatusCode != http.StatusOK {
		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			body = []byte("failed to read error response")
		}
		_ = resp.Body.Close()

		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			c.recordFailure()
		}
		return nil, parseAPIError(c.config.ProviderName, resp.StatusCode, body)
	}

	c.recordSuccess()
	return resp.Body, nil
}

func parseStatus(provider string, resp *Response) *APIError {
	if resp.StatusCode == http.StatusOK {
		return nil
	}
	return parseAPIError(provider, resp.StatusCode, resp.Body)
}

func (c *Client) recordFailure() {
	if c.circuitBreaker != nil {
		c.circuitBreaker.RecordFailure()
	}
}

func (c *Client) recordSuccess() {
	if c.circuitBreaker != nil {
		c.circuitBreaker.RecordSuccess()
	}
}

func (c *Client) doRequest(ctx context.Context, req Request) (*Response, error) {
	httpReq, err := c.buildRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, transportError(c.config.ProviderName, "failed to send request: "+err.Error(), err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError(c.config.ProviderName, "failed to read response: "+err.Error(), err)
	}

	return &Response{StatusCode: resp.StatusCode, Body: body}, nil
}

func (c *Client) buildRequest(ctx context.Context, req Request) (*http.Request, error) {
	url := c.config.BaseURL + req.Endpoint

	var bodyReader io.Reader
	if req.Body != nil {
		bodyBytes, err := json.Marshal(req.Body)
		if err != nil {
			return nil, transportError(c.config.ProviderName, "failed to marshal request", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, url, bodyReader)
	if err != nil {
		return nil, transportError(c.config.ProviderName, "failed to create request", err)
	}

	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if c.headerSetter != nil {
		c.headerSetter(httpReq)
	}
	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	return httpReq, nil
}

func (c *Client) backoff(attempt int) time.Duration {
	backoff := float64(c.config.InitialBackoff) * math.Pow(c.config.BackoffFactor, float64(attempt-1))
	if backoff > float64(c.config.MaxBackoff) {
		backoff = float64(c.config.MaxBackoff)
	}
	return time.Duration(backoff)
}
