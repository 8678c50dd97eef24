// Package config loads gateway settings from an optional YAML file, a .env
// file and the process environment, in increasing order of precedence.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Cache backends.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
	CacheNone   = "none"
)

// Tool executor modes.
const (
	ToolsStatic = "static"
	ToolsMCP    = "mcp"
)

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// LoggingConfig selects log level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "json" or "pretty"
}

// CacheConfig selects the blob cache used for retrieval results.
type CacheConfig struct {
	Backend  string        `yaml:"backend"` // memory, redis or none
	RedisURL string        `yaml:"redis_url"`
	TTL      time.Duration `yaml:"ttl"`
}

// ToolsConfig selects the tool executor backing the tool stage.
type ToolsConfig struct {
	Mode string `yaml:"mode"` // static or mcp
}

// ProviderCredentials are server-side fallbacks applied when a request
// carries no credentials of its own.
type ProviderCredentials struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

// Config is the full gateway configuration.
type Config struct {
	Server    ServerConfig                   `yaml:"server"`
	Logging   LoggingConfig                  `yaml:"logging"`
	Cache     CacheConfig                    `yaml:"cache"`
	Tools     ToolsConfig                    `yaml:"tools"`
	Providers map[string]ProviderCredentials `yaml:"providers"`
}

// Default returns the configuration used when nothing else is specified.
func Default() Config {
	return Config{
		Server:    ServerConfig{Host: "0.0.0.0", Port: 8080},
		Logging:   LoggingConfig{Level: "info", Format: "json"},
		Cache:     CacheConfig{Backend: CacheMemory, TTL: 5 * time.Minute},
		Tools:     ToolsConfig{Mode: ToolsStatic},
		Providers: map[string]ProviderCredentials{},
	}
}

// Load builds the configuration: defaults, then the YAML file at path (if it
// exists), then .env, then environment variables. An empty path skips the
// file step.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// optional file
		case err != nil:
			return cfg, fmt.Errorf("reading config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parsing config file %s: %w", path, err)
			}
		}
	}

	// .env is a development convenience; absence is not an error
	_ = godotenv.Load()

	cfg.applyEnv()
	if cfg.Providers == nil {
		cfg.Providers = map[string]ProviderCredentials{}
	}
	cfg.applyProviderEnv()

	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("CHATGATE_HOST"); v != "" {
		c.Server.Host = v
	}
	if v := os.Getenv("CHATGATE_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("CHATGATE_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("CHATGATE_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv("CHATGATE_CACHE_BACKEND"); v != "" {
		c.Cache.Backend = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		c.Cache.RedisURL = v
	}
	if v := os.Getenv("CHATGATE_CACHE_TTL"); v != "" {
		if ttl, err := time.ParseDuration(v); err == nil {
			c.Cache.TTL = ttl
		}
	}
	if v := os.Getenv("CHATGATE_TOOLS_MODE"); v != "" {
		c.Tools.Mode = v
	}
}

// providerEnvVars maps provider IDs to their conventional environment
// variables for the API key and base URL.
var providerEnvVars = map[string]struct{ key, baseURL string }{
	"openai":     {key: "OPENAI_API_KEY"},
	"anthropic":  {key: "ANTHROPIC_API_KEY"},
	"azure":      {key: "AZURE_OPENAI_API_KEY", baseURL: "AZURE_OPENAI_ENDPOINT"},
	"deepseek":   {key: "DEEPSEEK_API_KEY"},
	"groq":       {key: "GROQ_API_KEY"},
	"openrouter": {key: "OPENROUTER_API_KEY"},
	"xai":        {key: "XAI_API_KEY"},
	"ollama":     {baseURL: "OLLAMA_BASE_URL"},
}

func (c *Config) applyProviderEnv() {
	for provider, vars := range providerEnvVars {
		creds := c.Providers[provider]
		if vars.key != "" && creds.APIKey == "" {
			creds.APIKey = os.Getenv(vars.key)
		}
		if vars.baseURL != "" && creds.BaseURL == "" {
			creds.BaseURL = os.Getenv(vars.baseURL)
		}
		if creds != (ProviderCredentials{}) {
			c.Providers[provider] = creds
		}
	}
}

func (c *Config) validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	switch c.Cache.Backend {
	case CacheMemory, CacheNone:
	case CacheRedis:
		if c.Cache.RedisURL == "" {
			return fmt.Errorf("cache backend %q requires a redis URL", CacheRedis)
		}
	default:
		return fmt.Errorf("unknown cache backend %q", c.Cache.Backend)
	}
	switch c.Tools.Mode {
	case ToolsStatic, ToolsMCP:
	default:
		return fmt.Errorf("unknown tools mode %q", c.Tools.Mode)
	}
	return nil
}
