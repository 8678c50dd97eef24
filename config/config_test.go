package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, CacheMemory, cfg.Cache.Backend)
	assert.Equal(t, ToolsStatic, cfg.Tools.Mode)
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
server:
  host: 127.0.0.1
  port: 9090
logging:
  level: debug
  format: pretty
cache:
  backend: none
providers:
  openai:
    api_key: sk-from-file
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, CacheNone, cfg.Cache.Backend)
	assert.Equal(t, "sk-from-file", cfg.Providers["openai"].APIKey)
}

func TestLoadMissingFileIsFine(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9090\n"), 0o600))

	t.Setenv("CHATGATE_PORT", "7070")
	t.Setenv("CHATGATE_CACHE_TTL", "30s")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Cache.TTL)
}

func TestProviderCredentialsFromEnv(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("OLLAMA_BASE_URL", "http://ollama.internal:11434")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "sk-env", cfg.Providers["openai"].APIKey)
	assert.Equal(t, "http://ollama.internal:11434", cfg.Providers["ollama"].BaseURL)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := Default()
	cfg.Cache.Backend = "memcached"
	assert.Error(t, cfg.validate())

	cfg = Default()
	cfg.Cache.Backend = CacheRedis
	assert.Error(t, cfg.validate(), "redis backend without URL")

	cfg = Default()
	cfg.Tools.Mode = "shell"
	assert.Error(t, cfg.validate())

	cfg = Default()
	cfg.Server.Port = 70000
	assert.Error(t, cfg.validate())
}
