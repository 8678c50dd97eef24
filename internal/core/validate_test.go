package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func supportedStub(provider string) bool {
	return provider == "openai" || provider == "fake"
}

func validRequest() *ChatRequest {
	return &ChatRequest{
		Prompt: "hello",
		Model:  ModelConfig{Provider: "openai", Model: "gpt-4o"},
	}
}

func TestValidateRequestFillsDefaults(t *testing.T) {
	req := validRequest()
	req.RetrievalConfig = &RetrievalConfig{Enabled: true}
	req.MCPConfig = &MCPConfig{Enabled: true, Tools: []MCPToolConfig{{Name: "search", Enabled: true}}}

	require.NoError(t, ValidateRequest(req, supportedStub))
	assert.Equal(t, DefaultMaxTokens, req.GenerationConfig.MaxTokens)
	assert.Equal(t, DefaultTopK, req.RetrievalConfig.TopK)
	assert.Equal(t, DefaultScoreThreshold, req.RetrievalConfig.ScoreThreshold)
	assert.Equal(t, ToolChoiceAuto, req.MCPConfig.ToolChoice)
	assert.Equal(t, DefaultMaxToolCalls, req.MCPConfig.MaxToolCalls)
}

func TestValidateRequestNormalizesProvider(t *testing.T) {
	req := validRequest()
	req.Model.Provider = "  OpenAI "

	require.NoError(t, ValidateRequest(req, supportedStub))
	assert.Equal(t, "openai", req.Model.Provider)
}

func TestValidateRequestErrors(t *testing.T) {
	temp := 3.5
	topP := 1.5

	tests := []struct {
		name     string
		mutate   func(req *ChatRequest)
		wantCode string
	}{
		{
			name:     "nil-equivalent empty provider",
			mutate:   func(req *ChatRequest) { req.Model.Provider = "" },
			wantCode: CodeValidation,
		},
		{
			name:     "missing model name",
			mutate:   func(req *ChatRequest) { req.Model.Model = "" },
			wantCode: CodeValidation,
		},
		{
			name: "unknown role",
			mutate: func(req *ChatRequest) {
				req.Messages = []Message{{Role: "robot", Content: "beep"}}
			},
			wantCode: CodeValidation,
		},
		{
			name: "empty message content",
			mutate: func(req *ChatRequest) {
				req.Messages = []Message{{Role: RoleUser, Content: ""}}
			},
			wantCode: CodeValidation,
		},
		{
			name:     "unsupported provider",
			mutate:   func(req *ChatRequest) { req.Model.Provider = "bedrock" },
			wantCode: CodeUnsupportedProvider,
		},
		{
			name:     "max_tokens out of range",
			mutate:   func(req *ChatRequest) { req.GenerationConfig.MaxTokens = 64000 },
			wantCode: CodeValidation,
		},
		{
			name:     "temperature out of range",
			mutate:   func(req *ChatRequest) { req.GenerationConfig.Temperature = &temp },
			wantCode: CodeValidation,
		},
		{
			name:     "top_p out of range",
			mutate:   func(req *ChatRequest) { req.GenerationConfig.TopP = &topP },
			wantCode: CodeValidation,
		},
		{
			name: "retrieval top_k out of range",
			mutate: func(req *ChatRequest) {
				req.RetrievalConfig = &RetrievalConfig{Enabled: true, TopK: 50}
			},
			wantCode: CodeValidation,
		},
		{
			name: "bad tool choice",
			mutate: func(req *ChatRequest) {
				req.MCPConfig = &MCPConfig{Enabled: true, ToolChoice: "always"}
			},
			wantCode: CodeValidation,
		},
		{
			name: "unnamed tool",
			mutate: func(req *ChatRequest) {
				req.MCPConfig = &MCPConfig{Enabled: true, Tools: []MCPToolConfig{{Enabled: true}}}
			},
			wantCode: CodeValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(req)

			err := ValidateRequest(req, supportedStub)
			var gwErr *GatewayError
			require.ErrorAs(t, err, &gwErr)
			assert.Equal(t, tt.wantCode, gwErr.Code)
		})
	}
}

func TestValidateRequestNil(t *testing.T) {
	err := ValidateRequest(nil, supportedStub)
	var gwErr *GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, CodeValidation, gwErr.Code)
}
