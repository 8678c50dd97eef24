package core

import (
	"fmt"
	"strings"
)

// Defaults applied to unset request parameters, matching the documented
// request contract.
const (
	DefaultMaxTokens      = 4000
	DefaultTemperature    = 0.7
	DefaultTopK           = 5
	DefaultScoreThreshold = 0.7
	DefaultMaxToolCalls   = 5
)

func validRole(role string) bool {
	switch role {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}

// ValidateRequest checks the request shape and parameter ranges, normalizes
// the provider identifier to lower case, and fills defaults for unset
// optional parameters. supported reports whether a (normalized) provider
// identifier is in the registry. It runs before any client construction and
// reports failures as client errors.
func ValidateRequest(req *ChatRequest, supported func(provider string) bool) error {
	if req == nil {
		return NewValidationError("request body is required")
	}

	for i, msg := range req.Messages {
		if msg.Role == "" || msg.Content == "" {
			return NewValidationError(fmt.Sprintf("messages[%d] must contain role and content fields", i))
		}
		if !validRole(msg.Role) {
			return NewValidationError(fmt.Sprintf("messages[%d] role must be user, assistant, or system", i))
		}
	}

	req.Model.Provider = strings.ToLower(strings.TrimSpace(req.Model.Provider))
	if req.Model.Provider == "" {
		return NewValidationError("model.provider is required")
	}
	if req.Model.Model == "" {
		return NewValidationError("model.model is required")
	}
	if supported != nil && !supported(req.Model.Provider) {
		return NewUnsupportedProviderError(req.Model.Provider)
	}

	if err := validateGeneration(&req.GenerationConfig); err != nil {
		return err
	}
	if req.RetrievalConfig != nil {
		if err := validateRetrieval(req.RetrievalConfig); err != nil {
			return err
		}
	}
	if req.MCPConfig != nil {
		if err := validateMCP(req.MCPConfig); err != nil {
			return err
		}
	}
	return nil
}

func validateGeneration(gen *GenerationConfig) error {
	if gen.MaxTokens == 0 {
		gen.MaxTokens = DefaultMaxTokens
	}
	if gen.MaxTokens < 1 || gen.MaxTokens > 32000 {
		return NewValidationError("generation_config.max_tokens must be in [1, 32000]")
	}
	if gen.Temperature != nil && (*gen.Temperature < 0 || *gen.Temperature > 2) {
		return NewValidationError("generation_config.temperature must be in [0, 2]")
	}
	if gen.TopP != nil && (*gen.TopP < 0 || *gen.TopP > 1) {
		return NewValidationError("generation_config.top_p must be in [0, 1]")
	}
	if gen.FrequencyPenalty != nil && (*gen.FrequencyPenalty < -2 || *gen.FrequencyPenalty > 2) {
		return NewValidationError("generation_config.frequency_penalty must be in [-2, 2]")
	}
	if gen.PresencePenalty != nil && (*gen.PresencePenalty < -2 || *gen.PresencePenalty > 2) {
		return NewValidationError("generation_config.presence_penalty must be in [-2, 2]")
	}
	return nil
}

func validateRetrieval(rc *RetrievalConfig) error {
	if rc.TopK == 0 {
		rc.TopK = DefaultTopK
	}
	if rc.TopK < 1 || rc.TopK > 20 {
		return NewValidationError("retrieval_config.top_k must be in [1, 20]")
	}
	if rc.ScoreThreshold == 0 {
		rc.ScoreThreshold = DefaultScoreThreshold
	}
	if rc.ScoreThreshold < 0 || rc.ScoreThreshold > 1 {
		return NewValidationError("retrieval_config.score_threshold must be in [0, 1]")
	}
	return nil
}

func validateMCP(mc *MCPConfig) error {
	if mc.ToolChoice == "" {
		mc.ToolChoice = ToolChoiceAuto
	}
	switch mc.ToolChoice {
	case ToolChoiceAuto, ToolChoiceNone, ToolChoiceRequired:
	default:
		return NewValidationError("mcp_config.tool_choice must be auto, none, or required")
	}
	if mc.MaxToolCalls == 0 {
		mc.MaxToolCalls = DefaultMaxToolCalls
	}
	if mc.MaxToolCalls < 1 || mc.MaxToolCalls > 10 {
		return NewValidationError("mcp_config.max_tool_calls must be in [1, 10]")
	}
	for i, tool := range mc.Tools {
		if tool.Name == "" {
			return NewValidationError(fmt.Sprintf("mcp_config.tools[%d] must have a name", i))
		}
	}
	return nil
}
