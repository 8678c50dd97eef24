package chat

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"chatgate/internal/core"
	"chatgate/internal/providers"
	"chatgate/internal/retrieval"
	"chatgate/internal/tools"
)

// Service runs the chat pipeline. The retriever and tool executor are
// collaborators behind interfaces so deployments can swap the backing
// systems without touching the orchestration.
type Service struct {
	factory   *providers.Factory
	retriever retrieval.Retriever
	tools     tools.Executor
	logger    *slog.Logger
}

// NewService wires the orchestrator. retriever and executor may be nil when
// the deployment runs without those stages; requests enabling them then get
// empty results.
func NewService(factory *providers.Factory, retriever retrieval.Retriever, executor tools.Executor, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{factory: factory, retriever: retriever, tools: executor, logger: logger}
}

// Chat runs the non-streaming pipeline: validate, build the client, assemble
// messages, retrieve and rewrite, invoke, then execute tools against the
// reply. Stage failures surface as chat processing errors; validation and
// provider lookup keep their own codes.
func (s *Service) Chat(ctx context.Context, req *core.ChatRequest) (*core.ChatResponse, error) {
	if err := core.ValidateRequest(req, providers.Supported); err != nil {
		return nil, err
	}

	client, err := s.factory.Client(req.Model, req.GenerationConfig)
	if err != nil {
		return nil, wrapStageError(err)
	}

	messages := AssembleMessages(req)

	docs, err := s.retrieve(ctx, req, messages)
	if err != nil {
		return nil, wrapStageError(err)
	}
	messages = augmentWithDocs(messages, docs)

	reply, err := client.Invoke(ctx, messages)
	if err != nil {
		s.logger.ErrorContext(ctx, "model invocation failed",
			slog.String("provider", req.Model.Provider),
			slog.String("model", req.Model.Model),
			slog.Any("error", err))
		return nil, wrapStageError(err)
	}

	toolCalls := s.executeTools(ctx, req, reply.Content)

	return &core.ChatResponse{
		Message:        reply.Content,
		Model:          req.Model.Model,
		Provider:       req.Model.Provider,
		RetrievalDocs:  docs,
		ToolCalls:      toolCalls,
		ConversationID: req.ConversationID,
		Timestamp:      time.Now().UTC(),
	}, nil
}

// Models returns the provider catalog.
func (s *Service) Models() core.ModelCatalog {
	return providers.Catalog()
}

// retrieve runs the retrieval stage when the request enables it.
func (s *Service) retrieve(ctx context.Context, req *core.ChatRequest, messages []core.Message) ([]core.RetrievalDoc, error) {
	if !req.RetrievalEnabled() || s.retriever == nil {
		return nil, nil
	}
	rc := req.RetrievalConfig
	docs, err := s.retriever.Retrieve(ctx, retrieval.Query{
		KnowledgeBaseIDs: rc.KnowledgeBaseIDs,
		Text:             retrievalQuery(req, messages),
		TopK:             rc.TopK,
		ScoreThreshold:   rc.ScoreThreshold,
		Rerank:           rc.Rerank,
	})
	if err != nil {
		return nil, err
	}
	s.logger.DebugContext(ctx, "retrieval stage complete",
		slog.Int("docs", len(docs)),
		slog.Any("knowledge_bases", rc.KnowledgeBaseIDs))
	return docs, nil
}

// executeTools runs each enabled tool against the model reply, honoring the
// tool choice and the per-request call cap. Tool failures are recorded in
// the results, never raised.
func (s *Service) executeTools(ctx context.Context, req *core.ChatRequest, reply string) []core.ToolCall {
	if !req.ToolsEnabled() || s.tools == nil {
		return nil
	}
	mc := req.MCPConfig
	if mc.ToolChoice == core.ToolChoiceNone {
		return nil
	}

	var calls []core.ToolCall
	for _, tool := range mc.Tools {
		if !tool.Enabled {
			continue
		}
		if mc.MaxToolCalls > 0 && len(calls) >= mc.MaxToolCalls {
			break
		}
		calls = append(calls, s.tools.Execute(ctx, tool.Name, tool.Config, reply))
	}
	return calls
}

// wrapStageError folds unexpected stage failures into a chat processing
// error while letting typed gateway errors keep their code and status.
func wrapStageError(err error) error {
	var gwErr *core.GatewayError
	if errors.As(err, &gwErr) {
		return err
	}
	return core.NewChatProcessingError(err)
}
