package providers

import (
	"fmt"
	"log/slog"

	"chatgate/internal/core"
	"chatgate/internal/providers/anthropic"
	"chatgate/internal/providers/fake"
	"chatgate/internal/providers/ollama"
	"chatgate/internal/providers/openai"
)

// FallbackCredentials supply an API key or base URL for a provider when the
// request carries neither, typically sourced from the server environment.
type FallbackCredentials struct {
	APIKey  string
	BaseURL string
}

// Factory builds model clients from validated model configs, memoizing them
// in an explicit ClientCache rather than package-level state.
type Factory struct {
	cache    *ClientCache
	fallback map[string]FallbackCredentials
	logger   *slog.Logger
}

// NewFactory returns a factory backed by cache. fallback maps provider IDs
// to server-side credentials; it may be nil.
func NewFactory(cache *ClientCache, fallback map[string]FallbackCredentials, logger *slog.Logger) *Factory {
	if cache == nil {
		cache = NewClientCache()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{cache: cache, fallback: fallback, logger: logger}
}

// Client resolves the registry row for cfg.Provider and returns the cached
// client for the resolved parameters, building it on first use.
func (f *Factory) Client(cfg core.ModelConfig, gen core.GenerationConfig) (core.ModelClient, error) {
	spec, ok := Lookup(cfg.Provider)
	if !ok {
		return nil, core.NewUnsupportedProviderError(cfg.Provider)
	}

	if fb, ok := f.fallback[spec.ID]; ok {
		if cfg.APIKey == "" {
			cfg.APIKey = fb.APIKey
		}
		if cfg.BaseURL == "" {
			cfg.BaseURL = fb.BaseURL
		}
	}

	if missing := missingFields(spec, cfg); len(missing) > 0 {
		return nil, core.NewMissingCredentialError(spec.ID, missing[0])
	}

	params, err := ResolveParams(spec, cfg, gen)
	if err != nil {
		return nil, err
	}

	key := cacheKey(spec.ID, cfg.Model, params)
	return f.cache.GetOrCreate(key, func() (core.ModelClient, error) {
		f.logger.Debug("building model client",
			slog.String("provider", spec.ID),
			slog.String("model", cfg.Model))
		return buildClient(spec, params)
	})
}

// buildClient dispatches on the registry row's client type. Each branch
// decodes the parameter bag into the client's own config struct.
func buildClient(spec ProviderSpec, params Params) (core.ModelClient, error) {
	switch spec.ClientType {
	case ClientOpenAI:
		return openai.New(openai.Config{
			Provider:    spec.ID,
			Model:       params.String("model"),
			APIKey:      params.String("api_key"),
			BaseURL:     params.String("base_url"),
			ProxyURL:    params.String("proxy_url"),
			APIVersion:  params.String("api_version"),
			AuthHeader:  params.String("auth_header"),
			Temperature: params.Float("temperature"),
			MaxTokens:   params.Int("max_tokens"),
		})
	case ClientAnthropic:
		return anthropic.New(anthropic.Config{
			Model:       params.String("model"),
			APIKey:      params.String("api_key"),
			BaseURL:     params.String("base_url"),
			ProxyURL:    params.String("proxy_url"),
			Temperature: params.Float("temperature"),
			MaxTokens:   params.Int("max_tokens"),
		})
	case ClientOllama:
		return ollama.New(ollama.Config{
			Model:       params.String("model"),
			BaseURL:     params.String("base_url"),
			ProxyURL:    params.String("proxy_url"),
			Temperature: params.Float("temperature"),
		})
	case ClientFake:
		return fake.New(params.String("model")), nil
	default:
		return nil, fmt.Errorf("providers: no client for type %q", spec.ClientType)
	}
}
