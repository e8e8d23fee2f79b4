package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"basegraph.app/recommender/common/id"
	"basegraph.app/recommender/common/llm"
	"basegraph.app/recommender/common/logger"
	"basegraph.app/recommender/common/otel"
	"basegraph.app/recommender/core/config"
	"basegraph.app/recommender/internal/brain"
	"basegraph.app/recommender/internal/catalog"
	"basegraph.app/recommender/internal/chat"
	"basegraph.app/recommender/internal/session"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Setup(cfg)

	telemetry, err := otel.Setup(ctx, cfg.OTel)
	if err != nil {
		slog.ErrorContext(ctx, "failed to initialize telemetry", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.WarnContext(shutdownCtx, "telemetry shutdown failed", "error", err)
		}
	}()

	ids, err := id.NewGenerator(1)
	if err != nil {
		slog.ErrorContext(ctx, "failed to initialize id generator", "error", err)
		os.Exit(1)
	}
	sessionID := ids.New()
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		SessionID: logger.Ptr(sessionID),
		Component: "recommender.cmd",
	})

	slog.InfoContext(ctx, "recommender starting",
		"env", cfg.Env,
		"llm_provider", cfg.AgentLLM.Provider,
		"llm_model", cfg.AgentLLM.Model,
		"collection", cfg.Typesense.Collection)

	agentClient, err := llm.NewAgentClient(llm.Config{
		Provider: cfg.AgentLLM.Provider,
		APIKey:   cfg.AgentLLM.APIKey,
		BaseURL:  cfg.AgentLLM.BaseURL,
		Model:    cfg.AgentLLM.Model,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to create agent LLM client", "error", err)
		os.Exit(1)
	}

	matchClient, err := llm.New(llm.Config{
		APIKey:  cfg.OpenAI.APIKey,
		BaseURL: cfg.OpenAI.BaseURL,
		Model:   cfg.OpenAI.Model,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to create match LLM client", "error", err)
		os.Exit(1)
	}

	index, closeIndex, err := openIndex(ctx, cfg)
	if err != nil {
		slog.ErrorContext(ctx, "failed to open catalog index", "error", err)
		os.Exit(1)
	}
	defer closeIndex()

	lines := chat.NewLineReader(os.Stdin, os.Stdout)

	coordinator, err := brain.NewCoordinator(brain.CoordinatorConfig{
		SessionID:   sessionID,
		MaxRounds:   cfg.Pipeline.MaxRounds,
		SearchLimit: cfg.Catalog.SearchLimit,
		MaxTokens:   cfg.AgentLLM.MaxTokens,
	}, brain.Dependencies{
		AgentLLM: agentClient,
		MatchLLM: matchClient,
		Index:    index,
		LoadCatalog: func() ([]catalog.Product, error) {
			return catalog.Load(cfg.Catalog.Path)
		},
		Human: lines,
		Out:   os.Stdout,
		IDs:   ids,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to create coordinator", "error", err)
		os.Exit(1)
	}

	// The first interrupt cancels in-flight model and search calls; after
	// that the default handler is restored so a second one kills the process.
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ctx.Done()
		stop()
	}()

	if err := session.NewLoop(lines, os.Stdout, coordinator).Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.ErrorContext(ctx, "session ended", "error", err)
	}
}

// openIndex connects the typesense catalog, wrapped in the redis search
// cache when REDIS_URL is set. A cache that can't be reached is skipped.
func openIndex(ctx context.Context, cfg config.Config) (catalog.Index, func(), error) {
	ts, err := catalog.NewTypesenseIndex(catalog.TypesenseConfig{
		URL:        cfg.Typesense.URL,
		APIKey:     cfg.Typesense.APIKey,
		Collection: cfg.Typesense.Collection,
		Overwrite:  cfg.Catalog.Overwrite,
	})
	if err != nil {
		return nil, nil, err
	}

	if !cfg.Cache.Enabled() {
		return ts, func() {}, nil
	}

	cache, client, err := catalog.NewRedisCache(cfg.Cache.RedisURL)
	if err != nil {
		return nil, nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		slog.WarnContext(ctx, "search cache disabled", "error", err)
		_ = client.Close()
		return ts, func() {}, nil
	}
	slog.InfoContext(ctx, "search cache connected", "ttl", cfg.Cache.TTL)

	closeFn := func() {
		if err := client.Close(); err != nil {
			slog.WarnContext(ctx, "closing redis failed", "error", err)
		}
	}
	return catalog.NewCachedIndex(ts, cache, cfg.Typesense.Collection, cfg.Cache.TTL), closeFn, nil
}
