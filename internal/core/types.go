// Package core provides the request, response, and event types shared by the
// chat gateway, along with validation and error definitions.
package core

import (
	"context"
	"encoding/json"
	"time"
)

// Message roles accepted in chat history.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single provider-agnostic chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ModelConfig selects the provider and model for one request, together with
// the credentials and endpoint overrides needed to construct its client.
type ModelConfig struct {
	Provider   string `json:"provider"`
	Model      string `json:"model"`
	APIKey     string `json:"api_key,omitempty"`
	BaseURL    string `json:"base_url,omitempty"`
	ProxyURL   string `json:"proxy_url,omitempty"`
	APIVersion string `json:"api_version,omitempty"`
	// Credentials is a path to a credential file, accepted on the wire for
	// providers that authenticate that way; no current registry row reads it.
	Credentials string   `json:"credentials,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
}

// GenerationConfig holds sampling parameters forwarded to the model client.
type GenerationConfig struct {
	MaxTokens        int      `json:"max_tokens,omitempty"`
	Temperature      *float64 `json:"temperature,omitempty"`
	TopP             *float64 `json:"top_p,omitempty"`
	FrequencyPenalty *float64 `json:"frequency_penalty,omitempty"`
	PresencePenalty  *float64 `json:"presence_penalty,omitempty"`
}

// RetrievalConfig enables retrieval augmentation for a request.
type RetrievalConfig struct {
	Enabled          bool     `json:"enabled"`
	KnowledgeBaseIDs []string `json:"knowledge_base_ids,omitempty"`
	TopK             int      `json:"top_k,omitempty"`
	ScoreThreshold   float64  `json:"score_threshold,omitempty"`
	Rerank           bool     `json:"rerank,omitempty"`
}

// MCPToolConfig configures one tool in the tool-execution stage.
type MCPToolConfig struct {
	Name    string         `json:"name"`
	Enabled bool           `json:"enabled"`
	Config  map[string]any `json:"config,omitempty"`
}

// UnmarshalJSON defaults Enabled to true so that listing a tool is enough to
// run it; callers opt out with an explicit "enabled": false.
func (t *MCPToolConfig) UnmarshalJSON(data []byte) error {
	type plain MCPToolConfig
	p := plain{Enabled: true}
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*t = MCPToolConfig(p)
	return nil
}

// Tool choice strategies.
const (
	ToolChoiceAuto     = "auto"
	ToolChoiceNone     = "none"
	ToolChoiceRequired = "required"
)

// MCPConfig enables the tool-execution stage for a request.
type MCPConfig struct {
	Enabled      bool            `json:"enabled"`
	Tools        []MCPToolConfig `json:"tools,omitempty"`
	ToolChoice   string          `json:"tool_choice,omitempty"`
	MaxToolCalls int             `json:"max_tool_calls,omitempty"`
}

// ChatRequest is the incoming chat request after JSON binding.
type ChatRequest struct {
	Prompt           string           `json:"prompt,omitempty"`
	Messages         []Message        `json:"messages,omitempty"`
	Model            ModelConfig      `json:"model"`
	GenerationConfig GenerationConfig `json:"generation_config,omitempty"`
	SystemMessage    string           `json:"system_message,omitempty"`
	Stream           bool             `json:"stream,omitempty"`
	RetrievalConfig  *RetrievalConfig `json:"retrieval_config,omitempty"`
	MCPConfig        *MCPConfig       `json:"mcp_config,omitempty"`
	ConversationID   string           `json:"conversation_id,omitempty"`
	UserID           string           `json:"user_id,omitempty"`
}

// WithStreaming returns a shallow copy of the request with Stream set to true.
// This avoids mutating the caller's request object.
func (r *ChatRequest) WithStreaming() *ChatRequest {
	cp := *r
	cp.Stream = true
	return &cp
}

// RetrievalEnabled reports whether the retrieval stage should run.
func (r *ChatRequest) RetrievalEnabled() bool {
	return r.RetrievalConfig != nil && r.RetrievalConfig.Enabled
}

// ToolsEnabled reports whether the tool-execution stage should run.
func (r *ChatRequest) ToolsEnabled() bool {
	return r.MCPConfig != nil && r.MCPConfig.Enabled
}

// RetrievalDoc is one scored document returned by the retrieval collaborator.
type RetrievalDoc struct {
	Content  string         `json:"content"`
	Source   string         `json:"source"`
	Score    float64        `json:"score"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// ToolCall records the outcome of one tool execution.
type ToolCall struct {
	ToolName string `json:"tool_name"`
	Result   string `json:"result"`
	Success  bool   `json:"success"`
}

// Usage represents token usage reported by the provider, when available.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ChatResponse is the completed non-streaming answer.
type ChatResponse struct {
	Message        string         `json:"message"`
	Model          string         `json:"model"`
	Provider       string         `json:"provider"`
	Usage          *Usage         `json:"usage,omitempty"`
	RetrievalDocs  []RetrievalDoc `json:"retrieval_docs,omitempty"`
	ToolCalls      []ToolCall     `json:"tool_calls,omitempty"`
	ConversationID string         `json:"conversation_id,omitempty"`
	Timestamp      time.Time      `json:"timestamp"`
}

// StreamChunk is one incremental fragment produced by a model client stream.
// Exactly one terminal chunk is sent: either Done=true or a non-nil Err.
type StreamChunk struct {
	Content string
	Done    bool
	Err     error
}

// ModelClient is the callable handle bound to one provider+model+credentials.
// Implementations must be safe for concurrent use; handles are cached and
// shared across requests.
type ModelClient interface {
	// Invoke sends the message list and returns the single reply message.
	Invoke(ctx context.Context, messages []Message) (*Message, error)

	// Stream sends the message list and returns a channel of incremental
	// fragments. The channel is closed after the terminal chunk. Cancelling
	// ctx releases the underlying provider stream.
	Stream(ctx context.Context, messages []Message) (<-chan StreamChunk, error)
}

// ProviderModels describes the static model catalog of one provider.
type ProviderModels struct {
	Models      []string `json:"models"`
	Description string   `json:"description"`
}

// ModelCatalog is the read-only listing served by the models surface.
type ModelCatalog struct {
	SupportedProviders []string                  `json:"supported_providers"`
	Models             map[string]ProviderModels `json:"models"`
	Timestamp          time.Time                 `json:"timestamp"`
}
