// Package anthropic implements the Anthropic messages API as a
// core.ModelClient.
package anthropic

import (
	"bufio"
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"

	"chatgate/internal/core"
	"chatgate/internal/httpclient"
	"chatgate/internal/llmclient"
)

const (
	apiVersion       = "2023-06-01"
	defaultMaxTokens = 4096
	maxSSELine       = 1024 * 1024
)

// Config carries the per-client settings resolved by the provider registry.
type Config struct {
	Model       string
	APIKey      string
	BaseURL     string
	ProxyURL    string
	Temperature *float64
	MaxTokens   int
}

// Client implements core.ModelClient over the Anthropic messages endpoint.
type Client struct {
	cfg  Config
	http *llmclient.Client
}

// New builds a client, honoring a per-client proxy override.
func New(cfg Config) (*Client, error) {
	hc, err := httpclient.NewWithProxy(cfg.ProxyURL)
	if err != nil {
		return nil, err
	}
	c := &Client{cfg: cfg}
	c.http = llmclient.NewWithHTTPClient(hc, llmclient.DefaultConfig("anthropic", cfg.BaseURL), c.setHeaders)
	return c, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("x-api-key", c.cfg.APIKey)
	req.Header.Set("anthropic-version", apiVersion)
}

type messagesRequest struct {
	Model       string        `json:"model"`
	MaxTokens   int           `json:"max_tokens"`
	System      string        `json:"system,omitempty"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
	Stream      bool          `json:"stream,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

// buildRequest folds system messages into the dedicated system field; the
// messages array carries only user/assistant turns.
func (c *Client) buildRequest(messages []core.Message, stream bool) messagesRequest {
	req := messagesRequest{
		Model:       c.cfg.Model,
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
		Stream:      stream,
	}
	if req.MaxTokens <= 0 {
		req.MaxTokens = defaultMaxTokens
	}
	for _, m := range messages {
		if m.Role == core.RoleSystem {
			req.System = m.Content
			continue
		}
		req.Messages = append(req.Messages, chatMessage{Role: m.Role, Content: m.Content})
	}
	return req
}

// Invoke sends a messages request and returns the assistant reply.
func (c *Client) Invoke(ctx context.Context, messages []core.Message) (*core.Message, error) {
	var resp messagesResponse
	err := c.http.Do(ctx, llmclient.Request{
		Method:   http.MethodPost,
		Endpoint: "/messages",
		Body:     c.buildRequest(messages, false),
	}, &resp)
	if err != nil {
		return nil, err
	}
	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return &core.Message{Role: core.RoleAssistant, Content: sb.String()}, nil
}

// Stream opens a streaming messages request and forwards text deltas.
func (c *Client) Stream(ctx context.Context, messages []core.Message) (<-chan core.StreamChunk, error) {
	body, err := c.http.DoStream(ctx, llmclient.Request{
		Method:   http.MethodPost,
		Endpoint: "/messages",
		Body:     c.buildRequest(messages, true),
	})
	if err != nil {
		return nil, err
	}
	out := make(chan core.StreamChunk)
	go c.scanStream(ctx, body, out)
	return out, nil
}

// scanStream reads the event stream; content_block_delta events carry text,
// message_stop ends the stream.
func (c *Client) scanStream(ctx context.Context, body io.ReadCloser, out chan<- core.StreamChunk) {
	defer close(out)
	defer body.Close()

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxSSELine)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		switch gjson.Get(payload, "type").String() {
		case "content_block_delta":
			if text := gjson.Get(payload, "delta.text").String(); text != "" {
				if !emit(ctx, out, core.StreamChunk{Content: text}) {
					return
				}
			}
		case "message_stop":
			emit(ctx, out, core.StreamChunk{Done: true})
			return
		case "error":
			emit(ctx, out, core.StreamChunk{Err: &llmclient.APIError{
				Provider: "anthropic",
				Message:  gjson.Get(payload, "error.message").String(),
			}})
			return
		}
	}

	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		emit(ctx, out, core.StreamChunk{Err: err})
		return
	}
	emit(ctx, out, core.StreamChunk{Done: true})
}

func emit(ctx context.Context, out chan<- core.StreamChunk, chunk core.StreamChunk) bool {
	select {
	case out <- chunk:
		return true
	case <-ctx.Done():
		return false
	}
}
