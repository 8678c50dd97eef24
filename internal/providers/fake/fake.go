// Package fake provides an in-process deterministic model client used by
// tests, demos and deployments that want the full pipeline without a
// provider account. The reply is a pure function of the conversation, so a
// streamed response always concatenates to the non-streaming one.
package fake

import (
	"context"
	"fmt"
	"strings"

	"chatgate/internal/core"
)

// Client implements core.ModelClient without any network I/O.
type Client struct {
	model string
}

// New returns a fake client labeled with model.
func New(model string) *Client {
	if model == "" {
		model = "fake-chat"
	}
	return &Client{model: model}
}

func (c *Client) reply(messages []core.Message) string {
	prompt := ""
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == core.RoleUser {
			prompt = messages[i].Content
			break
		}
	}
	return fmt.Sprintf("[%s] This is a simulated response to: %s", c.model, prompt)
}

// Invoke returns the canned assistant reply.
func (c *Client) Invoke(_ context.Context, messages []core.Message) (*core.Message, error) {
	return &core.Message{Role: core.RoleAssistant, Content: c.reply(messages)}, nil
}

// Stream emits the reply word by word followed by a done chunk.
func (c *Client) Stream(ctx context.Context, messages []core.Message) (<-chan core.StreamChunk, error) {
	tokens := strings.SplitAfter(c.reply(messages), " ")
	out := make(chan core.StreamChunk)
	go func() {
		defer close(out)
		for _, tok := range tokens {
			select {
			case out <- core.StreamChunk{Content: tok}:
			case <-ctx.Done():
				return
			}
		}
		select {
		case out <- core.StreamChunk{Done: true}:
		case <-ctx.Done():
		}
	}()
	return out, nil
}
