package openai

import (
	"bufio"
	"context"
	"io"
	"strings"

	"github.com/tidwall/gjson"

	"chatgate/internal/core"
)

const (
	ssePrefix  = "data:"
	sseDone    = "[DONE]"
	maxSSELine = 1024 * 1024
)

// scanOpenAIStream reads SSE data lines from body, forwarding content deltas
// until the server signals [DONE] or a finish reason. It owns body and out.
func scanOpenAIStream(ctx context.Context, body io.ReadCloser, out chan<- core.StreamChunk) {
	defer close(out)
	defer body.Close()

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxSSELine)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, ssePrefix) {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, ssePrefix))
		if payload == sseDone {
			emit(ctx, out, core.StreamChunk{Done: true})
			return
		}
		if content := gjson.Get(payload, "choices.0.delta.content").String(); content != "" {
			if !emit(ctx, out, core.StreamChunk{Content: content}) {
				return
			}
		}
		if finish := gjson.Get(payload, "choices.0.finish_reason").String(); finish != "" {
			emit(ctx, out, core.StreamChunk{Done: true})
			return
		}
	}

	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		emit(ctx, out, core.StreamChunk{Err: err})
		return
	}
	emit(ctx, out, core.StreamChunk{Done: true})
}

// emit sends chunk unless ctx is done; it reports whether the send happened.
func emit(ctx context.Context, out chan<- core.StreamChunk, chunk core.StreamChunk) bool {
	select {
	case out <- chunk:
		return true
	case <-ctx.Done():
		return false
	}
}
