// Command chatgate runs the LLM chat gateway.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"chatgate/config"
	"chatgate/internal/cache"
	"chatgate/internal/chat"
	"chatgate/internal/logging"
	"chatgate/internal/providers"
	"chatgate/internal/retrieval"
	"chatgate/internal/server"
	"chatgate/internal/tools"
	"chatgate/internal/version"
)

func main() {
	var (
		configPath  = flag.String("config", "config.yaml", "path to the YAML config file")
		showVersion = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Info())
		return
	}

	if err := run(*configPath); err != nil {
		slog.Error("gateway exited", "error", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	retriever, closeCache, err := buildRetriever(cfg, logger)
	if err != nil {
		return err
	}
	defer closeCache()

	executor, closeTools := buildExecutor(cfg)
	defer closeTools()

	factory := providers.NewFactory(providers.NewClientCache(), fallbackCredentials(cfg), logger)
	svc := chat.NewService(factory, retriever, executor, logger)

	srv, err := server.New(server.Config{Host: cfg.Server.Host, Port: cfg.Server.Port}, svc, logger)
	if err != nil {
		return err
	}
	return srv.Run(ctx)
}

// buildRetriever assembles the retrieval stage: the static backend, wrapped
// in a result cache unless caching is disabled.
func buildRetriever(cfg config.Config, logger *slog.Logger) (retrieval.Retriever, func(), error) {
	base := retrieval.NewStaticRetriever()

	var store cache.Cache
	switch cfg.Cache.Backend {
	case config.CacheNone:
		return base, func() {}, nil
	case config.CacheRedis:
		redisCache, err := cache.NewRedisCache(cache.RedisConfig{
			URL: cfg.Cache.RedisURL,
			TTL: cfg.Cache.TTL,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to redis: %w", err)
		}
		logger.Info("retrieval cache enabled", "backend", "redis")
		store = redisCache
	default:
		store = cache.NewMemoryCache()
	}

	closeFn := func() {
		if err := store.Close(); err != nil {
			logger.Warn("closing cache failed", "error", err)
		}
	}
	return retrieval.NewCachedRetriever(base, store, cfg.Cache.TTL), closeFn, nil
}

// buildExecutor assembles the tool stage, instrumented either way.
func buildExecutor(cfg config.Config) (tools.Executor, func()) {
	if cfg.Tools.Mode == config.ToolsMCP {
		mcp := tools.NewMCPExecutor()
		return tools.Instrument(mcp), func() { _ = mcp.Close() }
	}
	return tools.Instrument(tools.NewStaticExecutor()), func() {}
}

func fallbackCredentials(cfg config.Config) map[string]providers.FallbackCredentials {
	out := make(map[string]providers.FallbackCredentials, len(cfg.Providers))
	for provider, creds := range cfg.Providers {
		out[provider] = providers.FallbackCredentials{
			APIKey:  creds.APIKey,
			BaseURL: creds.BaseURL,
		}
	}
	return out
}
