package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"basegraph.app/recommender/common/logger"
	"basegraph.app/recommender/core/config"
	"basegraph.app/recommender/internal/catalog"
)

// indexer loads the catalog CSV into typesense and exits. The recommender
// does the same lazily; running this ahead of time keeps the first
// conversation fast.
func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Setup(cfg)
	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "recommender.indexer"})

	ts, err := catalog.NewTypesenseIndex(catalog.TypesenseConfig{
		URL:        cfg.Typesense.URL,
		APIKey:     cfg.Typesense.APIKey,
		Collection: cfg.Typesense.Collection,
		Overwrite:  cfg.Catalog.Overwrite,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to create typesense index", "error", err)
		os.Exit(1)
	}

	// A rebuild goes through the search cache so the recommender stops
	// serving hits from the previous collection.
	var index catalog.Index = ts
	if cfg.Cache.Enabled() {
		cache, client, err := catalog.NewRedisCache(cfg.Cache.RedisURL)
		if err != nil {
			slog.ErrorContext(ctx, "failed to create search cache", "error", err)
			os.Exit(1)
		}
		defer client.Close()
		index = catalog.NewCachedIndex(ts, cache, cfg.Typesense.Collection, cfg.Cache.TTL)
	}

	stats, err := index.EnsureIndexed(ctx, func() ([]catalog.Product, error) {
		return catalog.Load(cfg.Catalog.Path)
	})
	if err != nil {
		slog.ErrorContext(ctx, "indexing failed", "error", err, "path", cfg.Catalog.Path)
		os.Exit(1)
	}

	if stats.Created {
		fmt.Printf("Indexed %d products into %s\n", stats.Documents, stats.Collection)
	} else {
		fmt.Printf("Collection %s already holds %d products (set CATALOG_OVERWRITE=true to rebuild)\n",
			stats.Collection, stats.Documents)
	}
}
