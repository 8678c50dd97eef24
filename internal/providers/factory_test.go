package providers

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatgate/internal/core"
)

func TestLookupIsCaseInsensitive(t *testing.T) {
	for _, name := range []string{"openai", "OpenAI", "OPENAI"} {
		spec, ok := Lookup(name)
		require.True(t, ok, name)
		assert.Equal(t, "openai", spec.ID)
	}

	_, ok := Lookup("bedrock")
	assert.False(t, ok)
}

func TestIDsAreSorted(t *testing.T) {
	ids := IDs()
	require.NotEmpty(t, ids)
	for i := 1; i < len(ids); i++ {
		assert.Less(t, ids[i-1], ids[i])
	}
}

func TestResolveParams(t *testing.T) {
	temp := 0.9

	tests := []struct {
		name     string
		provider string
		cfg      core.ModelConfig
		gen      core.GenerationConfig
		want     map[string]any
	}{
		{
			name:     "openai fills default base url",
			provider: "openai",
			cfg:      core.ModelConfig{Provider: "openai", Model: "gpt-4o", APIKey: "sk-test"},
			want: map[string]any{
				"model":    "gpt-4o",
				"api_key":  "sk-test",
				"base_url": "https://api.openai.com/v1",
			},
		},
		{
			name:     "groq base url and temperature are fixed",
			provider: "groq",
			cfg:      core.ModelConfig{Provider: "groq", Model: "llama-3.1-8b-instant", APIKey: "gsk-test", BaseURL: "https://example.invalid"},
			want: map[string]any{
				"base_url":    "https://api.groq.com/openai/v1",
				"temperature": 0.5,
			},
		},
		{
			name:     "groq pinned temperature beats request temperatures",
			provider: "groq",
			cfg:      core.ModelConfig{Provider: "groq", Model: "llama-3.1-8b-instant", APIKey: "gsk-test", Temperature: &temp},
			gen:      core.GenerationConfig{Temperature: floatPtr(0.1)},
			want: map[string]any{
				"temperature": 0.5,
			},
		},
		{
			name:     "azure maps endpoint and api version",
			provider: "azure",
			cfg:      core.ModelConfig{Provider: "azure", Model: "gpt-4o", APIKey: "az-test", BaseURL: "https://unit.openai.azure.com/openai/v1"},
			want: map[string]any{
				"base_url":    "https://unit.openai.azure.com/openai/v1",
				"api_version": "2024-02-15-preview",
				"auth_header": "api-key",
			},
		},
		{
			name:     "config temperature beats generation temperature",
			provider: "openai",
			cfg:      core.ModelConfig{Provider: "openai", Model: "gpt-4o", APIKey: "sk-test", Temperature: &temp},
			gen:      core.GenerationConfig{Temperature: floatPtr(0.1), MaxTokens: 512},
			want: map[string]any{
				"temperature": 0.9,
				"max_tokens":  512,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, ok := Lookup(tt.provider)
			require.True(t, ok)

			params, err := ResolveParams(spec, tt.cfg, tt.gen)
			require.NoError(t, err)
			for key, want := range tt.want {
				assert.Equal(t, want, params[key], key)
			}
		})
	}
}

func TestFactoryRejectsUnsupportedProvider(t *testing.T) {
	f := NewFactory(NewClientCache(), nil, nil)

	_, err := f.Client(core.ModelConfig{Provider: "bedrock", Model: "titan"}, core.GenerationConfig{})
	require.Error(t, err)

	var gwErr *core.GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, core.CodeUnsupportedProvider, gwErr.Code)
}

func TestFactoryRequiresCredentials(t *testing.T) {
	f := NewFactory(NewClientCache(), nil, nil)

	_, err := f.Client(core.ModelConfig{Provider: "openai", Model: "gpt-4o"}, core.GenerationConfig{})
	require.Error(t, err)

	var gwErr *core.GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, core.CodeMissingCredential, gwErr.Code)
}

func TestFactoryFallbackCredentials(t *testing.T) {
	fallback := map[string]FallbackCredentials{
		"openai": {APIKey: "sk-env"},
	}
	f := NewFactory(NewClientCache(), fallback, nil)

	client, err := f.Client(core.ModelConfig{Provider: "openai", Model: "gpt-4o"}, core.GenerationConfig{})
	require.NoError(t, err)
	assert.NotNil(t, client)
}

func TestFactoryMemoizesClients(t *testing.T) {
	cache := NewClientCache()
	f := NewFactory(cache, nil, nil)

	cfg := core.ModelConfig{Provider: "fake", Model: "fake-chat", APIKey: "key-a"}

	first, err := f.Client(cfg, core.GenerationConfig{})
	require.NoError(t, err)
	second, err := f.Client(cfg, core.GenerationConfig{})
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, cache.Len())

	cfg.APIKey = "key-b"
	third, err := f.Client(cfg, core.GenerationConfig{})
	require.NoError(t, err)
	assert.NotSame(t, first, third)
	assert.Equal(t, 2, cache.Len())
}

func TestClientCacheBuildsOncePerKey(t *testing.T) {
	cache := NewClientCache()

	var mu sync.Mutex
	builds := 0
	build := func() (core.ModelClient, error) {
		mu.Lock()
		builds++
		mu.Unlock()
		return nil, nil
	}

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := cache.GetOrCreate("key", build)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, builds)
}

func TestClientCacheRetriesAfterFailure(t *testing.T) {
	cache := NewClientCache()
	boom := errors.New("boom")

	_, err := cache.GetOrCreate("key", func() (core.ModelClient, error) {
		return nil, boom
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 0, cache.Len())

	client, err := cache.GetOrCreate("key", func() (core.ModelClient, error) {
		return nil, nil
	})
	require.NoError(t, err)
	assert.Nil(t, client)
	assert.Equal(t, 1, cache.Len())
}

func TestCatalog(t *testing.T) {
	cat := Catalog()

	assert.Equal(t, IDs(), cat.SupportedProviders)
	require.Contains(t, cat.Models, "openai")
	assert.NotEmpty(t, cat.Models["openai"].Models)
	assert.False(t, cat.Timestamp.IsZero())
}

func floatPtr(v float64) *float64 { return &v }
