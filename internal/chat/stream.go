package chat

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"chatgate/internal/core"
	"chatgate/internal/providers"
)

// streamBuffer gives the producer a little slack so slow consumers do not
// stall token forwarding on every event.
const streamBuffer = 16

// StreamChat runs the streaming pipeline. Validation and client construction
// happen synchronously so the caller can still answer with a plain HTTP
// error; once the channel is returned every failure is delivered as a
// terminal error event. The channel closes after the terminal event, and
// cancelling ctx releases the producer and the provider stream.
func (s *Service) StreamChat(ctx context.Context, req *core.ChatRequest) (<-chan core.StreamEvent, error) {
	req = req.WithStreaming()
	if err := core.ValidateRequest(req, providers.Supported); err != nil {
		return nil, err
	}

	client, err := s.factory.Client(req.Model, req.GenerationConfig)
	if err != nil {
		return nil, wrapStageError(err)
	}

	events := make(chan core.StreamEvent, streamBuffer)
	go s.streamPipeline(ctx, req, client, events)
	return events, nil
}

// streamPipeline produces the event sequence: start, at most one retrieval,
// tokens, at most one tools, then end. An error event terminates the stream
// in place of whatever remained.
func (s *Service) streamPipeline(ctx context.Context, req *core.ChatRequest, client core.ModelClient, events chan<- core.StreamEvent) {
	defer close(events)

	if !send(ctx, events, core.StartEvent()) {
		return
	}

	messages := AssembleMessages(req)

	var docs []core.RetrievalDoc
	if req.RetrievalEnabled() && s.retriever != nil {
		var err error
		docs, err = s.retrieve(ctx, req, messages)
		if err != nil {
			s.fail(ctx, events, err)
			return
		}
		if len(docs) > 0 {
			if !send(ctx, events, core.RetrievalEvent(docs)) {
				return
			}
			messages = augmentWithDocs(messages, docs)
		}
	}

	chunks, err := client.Stream(ctx, messages)
	if err != nil {
		s.fail(ctx, events, err)
		return
	}

	var reply strings.Builder
	for chunk := range chunks {
		if chunk.Err != nil {
			s.fail(ctx, events, chunk.Err)
			return
		}
		if chunk.Done {
			break
		}
		reply.WriteString(chunk.Content)
		if !send(ctx, events, core.TokenEvent(chunk.Content)) {
			return
		}
	}
	if ctx.Err() != nil {
		return
	}

	if calls := s.executeTools(ctx, req, reply.String()); len(calls) > 0 {
		if !send(ctx, events, core.ToolsEvent(calls)) {
			return
		}
	}

	send(ctx, events, core.EndEvent())
}

// fail logs the stage failure and emits the terminal error event. Typed
// gateway errors keep their code; anything else becomes a stream error.
func (s *Service) fail(ctx context.Context, events chan<- core.StreamEvent, err error) {
	s.logger.ErrorContext(ctx, "stream pipeline failed", slog.Any("error", err))
	var gwErr *core.GatewayError
	if !errors.As(err, &gwErr) {
		err = core.NewStreamError(err)
	}
	send(ctx, events, core.ErrorEvent(err))
}

// send delivers one event unless ctx is done; it reports whether the send
// happened.
func send(ctx context.Context, events chan<- core.StreamEvent, ev core.StreamEvent) bool {
	select {
	case events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
