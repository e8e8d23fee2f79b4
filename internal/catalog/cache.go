package catalog

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"basegraph.app/recommender/common/logger"
	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "recommender:search:"

// ResultCache stores raw search results by key.
type ResultCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	DeletePrefix(ctx context.Context, prefix string) (int, error)
}

type redisCache struct {
	client *redis.Client
}

// NewRedisCache connects a ResultCache to the redis server at url.
func NewRedisCache(url string) (ResultCache, *redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	return &redisCache{client: client}, client, nil
}

func (c *redisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (c *redisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

// DeletePrefix removes every key starting with prefix, scanning in batches.
func (c *redisCache) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	deleted := 0
	iter := c.client.Scan(ctx, 0, prefix+"*", 100).Iterator()
	var batch []string
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == 100 {
			n, err := c.client.Del(ctx, batch...).Result()
			if err != nil {
				return deleted, err
			}
			deleted += int(n)
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return deleted, err
	}
	if len(batch) > 0 {
		n, err := c.client.Del(ctx, batch...).Result()
		if err != nil {
			return deleted, err
		}
		deleted += int(n)
	}
	return deleted, nil
}

// CachedIndex memoises Search results of the wrapped Index. Entries are
// scoped to one collection and dropped whenever that collection is rebuilt.
// Cache failures are logged and the search goes to the store.
type CachedIndex struct {
	Index
	cache  ResultCache
	prefix string
	ttl    time.Duration
}

func NewCachedIndex(index Index, cache ResultCache, collection string, ttl time.Duration) *CachedIndex {
	return &CachedIndex{
		Index:  index,
		cache:  cache,
		prefix: cacheKeyPrefix + collection + ":",
		ttl:    ttl,
	}
}

// EnsureIndexed indexes through the wrapped Index and flushes the cached
// results when the collection was (re)built.
func (c *CachedIndex) EnsureIndexed(ctx context.Context, load LoadFunc) (IndexStats, error) {
	stats, err := c.Index.EnsureIndexed(ctx, load)
	if err != nil || !stats.Created {
		return stats, err
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "catalog.cache"})
	n, err := c.cache.DeletePrefix(ctx, c.prefix)
	if err != nil {
		// Stale hits would outlive the rebuild, so a failed flush fails indexing.
		return stats, fmt.Errorf("flush search cache: %w", err)
	}
	slog.InfoContext(ctx, "search cache flushed after rebuild",
		"collection", stats.Collection,
		"entries", n)
	return stats, nil
}

func (c *CachedIndex) Search(ctx context.Context, query string, limit int) ([]Hit, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "catalog.cache"})
	key := c.key(query, limit)

	data, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		slog.WarnContext(ctx, "search cache read failed", "error", err)
	}
	if ok {
		var hits []Hit
		if err := json.Unmarshal(data, &hits); err == nil {
			slog.DebugContext(ctx, "search cache hit", "hits", len(hits))
			return hits, nil
		}
		slog.WarnContext(ctx, "discarding corrupt search cache entry", "key", key)
	}

	hits, err := c.Index.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	// Empty results are not cached so a freshly indexed catalog is seen at once.
	if len(hits) == 0 {
		return hits, nil
	}

	data, err = json.Marshal(hits)
	if err != nil {
		return hits, nil
	}
	if err := c.cache.Set(ctx, key, data, c.ttl); err != nil {
		slog.WarnContext(ctx, "search cache write failed", "error", err)
	}
	return hits, nil
}

func (c *CachedIndex) key(query string, limit int) string {
	sum := sha256.Sum256([]byte(query + "|" + strconv.Itoa(limit)))
	return c.prefix + hex.EncodeToString(sum[:])
}
