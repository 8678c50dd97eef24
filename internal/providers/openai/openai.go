// Package openai implements the OpenAI chat completions protocol. It also
// serves every registry row whose provider speaks the same wire format
// (Azure, DeepSeek, Groq, OpenRouter, xAI and self-hosted gateways).
package openai

import (
	"context"
	"net/http"
	"net/url"

	"chatgate/internal/core"
	"chatgate/internal/httpclient"
	"chatgate/internal/llmclient"
)

// Config carries everything a client instance needs. Provider names the
// registry row for error messages and log lines.
type Config struct {
	Provider    string
	Model       string
	APIKey      string
	BaseURL     string
	ProxyURL    string
	APIVersion  string
	AuthHeader  string // "api-key" for Azure, bearer auth otherwise
	Temperature *float64
	MaxTokens   int
}

// Client speaks the OpenAI chat completions API and implements
// core.ModelClient.
type Client struct {
	cfg  Config
	http *llmclient.Client
}

// New builds a client. A per-client proxy, when configured, overrides the
// process environment for this client only.
func New(cfg Config) (*Client, error) {
	hc, err := httpclient.NewWithProxy(cfg.ProxyURL)
	if err != nil {
		return nil, err
	}
	c := &Client{cfg: cfg}
	c.http = llmclient.NewWithHTTPClient(hc, llmclient.DefaultConfig(cfg.Provider, cfg.BaseURL), c.setHeaders)
	return c, nil
}

func (c *Client) setHeaders(req *http.Request) {
	switch {
	case c.cfg.AuthHeader == "api-key":
		req.Header.Set("api-key", c.cfg.APIKey)
	case c.cfg.APIKey != "":
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}
}

func (c *Client) endpoint() string {
	ep := "/chat/completions"
	if c.cfg.APIVersion != "" {
		ep += "?api-version=" + url.QueryEscape(c.cfg.APIVersion)
	}
	return ep
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Stream      bool          `json:"stream,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

func (c *Client) buildRequest(messages []core.Message, stream bool) chatRequest {
	req := chatRequest{
		Model:       c.cfg.Model,
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
		Stream:      stream,
		Messages:    make([]chatMessage, 0, len(messages)),
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, chatMessage{Role: m.Role, Content: m.Content})
	}
	return req
}

// Invoke sends a chat completion request and returns the assistant message.
func (c *Client) Invoke(ctx context.Context, messages []core.Message) (*core.Message, error) {
	var resp chatResponse
	err := c.http.Do(ctx, llmclient.Request{
		Method:   http.MethodPost,
		Endpoint: c.endpoint(),
		Body:     c.buildRequest(messages, false),
	}, &resp)
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, &llmclient.APIError{Provider: c.cfg.Provider, Message: "response contained no choices"}
	}
	return &core.Message{Role: core.RoleAssistant, Content: resp.Choices[0].Message.Content}, nil
}

// Stream opens a streaming chat completion and emits content deltas on the
// returned channel. The channel closes after a terminal chunk; cancelling
// ctx aborts the underlying request.
func (c *Client) Stream(ctx context.Context, messages []core.Message) (<-chan core.StreamChunk, error) {
	body, err := c.http.DoStream(ctx, llmclient.Request{
		Method:   http.MethodPost,
		Endpoint: c.endpoint(),
		Body:     c.buildRequest(messages, true),
	})
	if err != nil {
		return nil, err
	}
	out := make(chan core.StreamChunk)
	go scanOpenAIStream(ctx, body, out)
	return out, nil
}
