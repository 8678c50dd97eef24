// Package ollama implements the native Ollama chat API as a
// core.ModelClient. Unlike the hosted providers its streaming responses are
// newline-delimited JSON objects rather than SSE frames.
package ollama

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

const maxLine = 1024 * 1024

// Config carries the per-client settings resolved by the provider registry.
// No API key: Ollama servers are unauthenticated.
type Config struct {
	Model       string
	BaseURL     string
	ProxyURL    string
	Temperature *float64
}

// Client implements core.ModelClient over /api/chat.
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
	c.http = llmclient.NewWithHTTPClient(hc, llmclient.DefaultConfig("ollama", cfg.BaseURL), nil)
	return c, nil
}

type chatRequest struct {
	Model    string         `json:"model"`
	Messages []chatMessage  `json:"messages"`
	Stream   bool           `json:"stream"`
	Options  map[string]any `json:"options,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"message"`
	Done bool `json:"done"`
}

func (c *Client) buildRequest(messages []core.Message, stream bool) chatRequest {
	req := chatRequest{
		Model:    c.cfg.Model,
		Stream:   stream,
		Messages: make([]chatMessage, 0, len(messages)),
	}
	if c.cfg.Temperature != nil {
		req.Options = map[string]any{"temperature": *c.cfg.Temperature}
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, chatMessage{Role: m.Role, Content: m.Content})
	}
	return req
}

// Invoke sends a non-streaming chat request.
func (c *Client) Invoke(ctx context.Context, messages []core.Message) (*core.Message, error) {
	var resp chatResponse
	err := c.http.Do(ctx, llmclient.Request{
		Method:   http.MethodPost,
		Endpoint: "/api/chat",
		Body:     c.buildRequest(messages, false),
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &core.Message{Role: core.RoleAssistant, Content: resp.Message.Content}, nil
}

// Stream opens a streaming chat request and forwards message deltas.
func (c *Client) Stream(ctx context.Context, messages []core.Message) (<-chan core.StreamChunk, error) {
	body, err := c.http.DoStream(ctx, llmclient.Request{
		Method:   http.MethodPost,
		Endpoint: "/api/chat",
		Body:     c.buildRequest(messages, true),
	})
	if err != nil {
		return nil, err
	}
	out := make(chan core.StreamChunk)
	go scanStream(ctx, body, out)
	return out, nil
}

// scanStream reads one JSON object per line until a line with done=true.
func scanStream(ctx context.Context, body io.ReadCloser, out chan<- core.StreamChunk) {
	defer close(out)
	defer body.Close()

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLine)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if content := gjson.Get(line, "message.content").String(); content != "" {
			select {
			case out <- core.StreamChunk{Content: content}:
			case <-ctx.Done():
				return
			}
		}
		if gjson.Get(line, "done").Bool() {
			select {
			case out <- core.StreamChunk{Done: true}:
			case <-ctx.Done():
			}
			return
		}
	}

	chunk := core.StreamChunk{Done: true}
	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		chunk = core.StreamChunk{Err: err}
	}
	select {
	case out <- chunk:
	case <-ctx.Done():
	}
}
