// Package providers holds the static provider registry and the memoizing
// factory that turns a validated ModelConfig into a ready model client.
package providers

import (
	"sort"
	"strings"
	"time"

	"chatgate/internal/core"
)

// ClientType selects which wire client a provider row is served by.
// Several providers expose an OpenAI-compatible API and share one client.
type ClientType string

const (
	ClientOpenAI    ClientType = "openai"
	ClientAnthropic ClientType = "anthropic"
	ClientOllama    ClientType = "ollama"
	ClientFake      ClientType = "fake"
)

// ParamSource describes where a single client parameter comes from: a literal
// value baked into the registry row, or a named field of the request's
// ModelConfig. Exactly one of Const and Field is set.
type ParamSource struct {
	Const any
	Field string
}

func constant(v any) ParamSource { return ParamSource{Const: v} }
func field(name string) ParamSource {
	return ParamSource{Field: name}
}

// ProviderSpec is one row of the registry: everything the factory needs to
// validate a request for this provider and build its client.
type ProviderSpec struct {
	ID         string
	ClientType ClientType

	// RequiredFields are ModelConfig field names (JSON form) that must be
	// non-empty before a client can be built, after fallback credentials
	// have been applied.
	RequiredFields []string

	// ParamMapping maps client parameter names to their sources. Rows are
	// resolved in lexical key order so resolution is reproducible.
	ParamMapping map[string]ParamSource

	// Defaults fill parameters the mapping left empty.
	Defaults map[string]any

	// KnownModels feeds the model catalog; it is advisory, not a whitelist.
	KnownModels []string

	Description string
}

// Field names accepted by ParamSource.Field and RequiredFields. They mirror
// the JSON tags on core.ModelConfig.
const (
	FieldModel       = "model"
	FieldAPIKey      = "api_key"
	FieldBaseURL     = "base_url"
	FieldProxyURL    = "proxy_url"
	FieldAPIVersion  = "api_version"
	FieldTemperature = "temperature"
)

var commonMapping = map[string]ParamSource{
	"model":       field(FieldModel),
	"api_key":     field(FieldAPIKey),
	"base_url":    field(FieldBaseURL),
	"proxy_url":   field(FieldProxyURL),
	"temperature": field(FieldTemperature),
}

func withMapping(extra map[string]ParamSource) map[string]ParamSource {
	m := make(map[string]ParamSource, len(commonMapping)+len(extra))
	for k, v := range commonMapping {
		m[k] = v
	}
	for k, v := range extra {
		m[k] = v
	}
	return m
}

// registry is the static provider table. Lookups are by lowercase ID.
var registry = map[string]ProviderSpec{
	"openai": {
		ID:             "openai",
		ClientType:     ClientOpenAI,
		RequiredFields: []string{FieldAPIKey},
		ParamMapping:   commonMapping,
		Defaults:       map[string]any{"base_url": "https://api.openai.com/v1"},
		KnownModels:    []string{"gpt-4o", "gpt-4o-mini", "gpt-4.1", "gpt-4.1-mini", "o3-mini"},
		Description:    "OpenAI chat completions API",
	},
	"openai-compatible": {
		ID:             "openai-compatible",
		ClientType:     ClientOpenAI,
		RequiredFields: []string{FieldBaseURL},
		ParamMapping:   commonMapping,
		Description:    "Any server speaking the OpenAI chat completions protocol",
	},
	"azure": {
		ID:             "azure",
		ClientType:     ClientOpenAI,
		RequiredFields: []string{FieldAPIKey, FieldBaseURL},
		ParamMapping: withMapping(map[string]ParamSource{
			// Azure calls the base URL an endpoint and versions the API
			// with a query parameter instead of the URL path.
			"base_url":    field(FieldBaseURL),
			"api_version": field(FieldAPIVersion),
			"auth_header": constant("api-key"),
		}),
		Defaults:    map[string]any{"api_version": "2024-02-15-preview"},
		Description: "Azure OpenAI deployments",
	},
	"anthropic": {
		ID:             "anthropic",
		ClientType:     ClientAnthropic,
		RequiredFields: []string{FieldAPIKey},
		ParamMapping:   commonMapping,
		Defaults:       map[string]any{"base_url": "https://api.anthropic.com/v1"},
		KnownModels:    []string{"claude-sonnet-4-20250514", "claude-3-7-sonnet-20250219", "claude-3-5-haiku-20241022"},
		Description:    "Anthropic messages API",
	},
	"deepseek": {
		ID:             "deepseek",
		ClientType:     ClientOpenAI,
		RequiredFields: []string{FieldAPIKey},
		ParamMapping: withMapping(map[string]ParamSource{
			"base_url": constant("https://api.deepseek.com/v1"),
		}),
		KnownModels: []string{"deepseek-chat", "deepseek-reasoner"},
		Description: "DeepSeek (OpenAI-compatible)",
	},
	"groq": {
		ID:             "groq",
		ClientType:     ClientOpenAI,
		RequiredFields: []string{FieldAPIKey},
		ParamMapping: withMapping(map[string]ParamSource{
			"base_url": constant("https://api.groq.com/openai/v1"),
			// Pinned; request temperatures are ignored for groq.
			"temperature": constant(0.5),
		}),
		KnownModels: []string{"llama-3.3-70b-versatile", "llama-3.1-8b-instant"},
		Description: "Groq (OpenAI-compatible)",
	},
	"ollama": {
		ID:           "ollama",
		ClientType:   ClientOllama,
		ParamMapping: commonMapping,
		Defaults:     map[string]any{"base_url": "http://localhost:11434"},
		KnownModels:  []string{"llama3.2", "qwen2.5", "mistral"},
		Description:  "Local Ollama server",
	},
	"openrouter": {
		ID:             "openrouter",
		ClientType:     ClientOpenAI,
		RequiredFields: []string{FieldAPIKey},
		ParamMapping: withMapping(map[string]ParamSource{
			"base_url": constant("https://openrouter.ai/api/v1"),
		}),
		Description: "OpenRouter (OpenAI-compatible)",
	},
	"xai": {
		ID:             "xai",
		ClientType:     ClientOpenAI,
		RequiredFields: []string{FieldAPIKey},
		ParamMapping: withMapping(map[string]ParamSource{
			"base_url": constant("https://api.x.ai/v1"),
		}),
		KnownModels: []string{"grok-3", "grok-3-mini"},
		Description: "xAI (OpenAI-compatible)",
	},
	"fake": {
		ID:           "fake",
		ClientType:   ClientFake,
		ParamMapping: commonMapping,
		KnownModels:  []string{"fake-chat"},
		Description:  "Deterministic in-process model for tests and demos",
	},
}

// Lookup returns the registry row for a provider ID. Matching is
// case-insensitive.
func Lookup(provider string) (ProviderSpec, bool) {
	spec, ok := registry[strings.ToLower(provider)]
	return spec, ok
}

// Supported reports whether a provider ID is in the registry.
func Supported(provider string) bool {
	_, ok := Lookup(provider)
	return ok
}

// IDs returns all registered provider IDs, sorted.
func IDs() []string {
	out := make([]string, 0, len(registry))
	for id := range registry {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Catalog builds the model catalog payload from the registry.
func Catalog() core.ModelCatalog {
	cat := core.ModelCatalog{
		SupportedProviders: IDs(),
		Models:             make(map[string]core.ProviderModels, len(registry)),
		Timestamp:          time.Now().UTC(),
	}
	for id, spec := range registry {
		models := make([]string, len(spec.KnownModels))
		copy(models, spec.KnownModels)
		cat.Models[id] = core.ProviderModels{
			Models:      models,
			Description: spec.Description,
		}
	}
	return cat
}
