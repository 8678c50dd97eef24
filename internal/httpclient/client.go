// Package httpclient is a centralized HTTP client factory with unified
// transport configuration, including an explicit per-client proxy override.
package httpclient

import (
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"
)

// ClientConfig holds configuration options for creating HTTP clients.
type ClientConfig struct {
	// MaxIdleConns controls the maximum number of idle (keep-alive)
	// connections across all hosts.
	MaxIdleConns int

	// MaxIdleConnsPerHost controls the maximum idle connections per host.
	MaxIdleConnsPerHost int

	// IdleConnTimeout is how long an idle connection remains open.
	IdleConnTimeout time.Duration

	// Timeout limits the total duration of a request, including body read.
	// Zero means no client-side limit (streaming responses need this).
	Timeout time.Duration

	// DialTimeout limits how long a dial waits for a connection.
	DialTimeout time.Duration

	// KeepAlive is the interval between keep-alive probes.
	KeepAlive time.Duration

	// TLSHandshakeTimeout limits the TLS handshake.
	TLSHandshakeTimeout time.Duration

	// ResponseHeaderTimeout limits the wait for response headers.
	ResponseHeaderTimeout time.Duration

	// ProxyURL, when non-empty, routes this client's requests through the
	// given forward proxy. The override is scoped to the constructed client:
	// it never touches process-wide proxy environment variables, so
	// concurrent constructions with different proxies cannot observe each
	// other's setting.
	ProxyURL string
}

// getEnvDuration reads a duration from an environment variable, returning
// the default if unset or invalid. Accepts plain integers (seconds) or Go
// duration strings ("10m", "1h30m").
func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	if secs, err := strconv.Atoi(val); err == nil {
		return time.Duration(secs) * time.Second
	}
	if d, err := time.ParseDuration(val); err == nil {
		return d
	}
	return defaultVal
}

// DefaultConfig returns a ClientConfig with defaults suited to LLM API
// calls. Timeouts match common provider SDK defaults (10 minutes) and can be
// overridden via HTTP_TIMEOUT and HTTP_RESPONSE_HEADER_TIMEOUT (seconds or
// Go duration format).
func DefaultConfig() ClientConfig {
	return ClientConfig{
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   100,
		IdleConnTimeout:       90 * time.Second,
		Timeout:               getEnvDuration("HTTP_TIMEOUT", 600*time.Second),
		DialTimeout:           30 * time.Second,
		KeepAlive:             30 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: getEnvDuration("HTTP_RESPONSE_HEADER_TIMEOUT", 600*time.Second),
	}
}

// New creates an HTTP client from the given configuration. If config is
// nil, DefaultConfig() is used. Returns an error if ProxyURL is set but
// unparseable.
func New(config *ClientConfig) (*http.Client, error) {
	if config == nil {
		cfg := DefaultConfig()
		config = &cfg
	}

	proxy := http.ProxyFromEnvironment
	if config.ProxyURL != "" {
		proxyURL, err := url.Parse(config.ProxyURL)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy URL %q: %w", config.ProxyURL, err)
		}
		proxy = http.ProxyURL(proxyURL)
	}

	transport := &http.Transport{
		Proxy: proxy,
		DialContext: (&net.Dialer{
			Timeout:   config.DialTimeout,
			KeepAlive: config.KeepAlive,
		}).DialContext,
		MaxIdleConns:          config.MaxIdleConns,
		MaxIdleConnsPerHost:   config.MaxIdleConnsPerHost,
		IdleConnTimeout:       config.IdleConnTimeout,
		TLSHandshakeTimeout:   config.TLSHandshakeTimeout,
		ResponseHeaderTimeout: config.ResponseHeaderTimeout,
		ForceAttemptHTTP2:     true,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   config.Timeout,
	}, nil
}

// NewDefault creates a new HTTP client with default configuration.
func NewDefault() *http.Client {
	c, _ := New(nil)
	return c
}

// NewWithProxy creates an HTTP client whose transport routes through
// proxyURL. An empty proxyURL yields the default client.
func NewWithProxy(proxyURL string) (*http.Client, error) {
	cfg := DefaultConfig()
	cfg.ProxyURL = proxyURL
	return New(&cfg)
}
