package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"basegraph.app/recommender/common/logger"
	"github.com/typesense/typesense-go/v4/typesense"
	"github.com/typesense/typesense-go/v4/typesense/api"
	"github.com/typesense/typesense-go/v4/typesense/api/pointer"
)

const importBatchSize = 100

type TypesenseConfig struct {
	URL        string
	APIKey     string
	Collection string
	Overwrite  bool // Drop and rebuild the collection on EnsureIndexed
}

// TypesenseIndex keeps the catalog in a typesense collection.
type TypesenseIndex struct {
	client *typesense.Client
	cfg    TypesenseConfig
}

func NewTypesenseIndex(cfg TypesenseConfig) (*TypesenseIndex, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("typesense URL is required")
	}
	if cfg.Collection == "" {
		return nil, fmt.Errorf("typesense collection is required")
	}

	client := typesense.NewClient(
		typesense.WithServer(cfg.URL),
		typesense.WithAPIKey(cfg.APIKey),
		typesense.WithConnectionTimeout(10*time.Second),
	)

	return &TypesenseIndex{client: client, cfg: cfg}, nil
}

// EnsureIndexed creates and fills the collection unless it already holds
// documents. With Overwrite set the collection is always rebuilt.
func (t *TypesenseIndex) EnsureIndexed(ctx context.Context, load LoadFunc) (IndexStats, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "catalog.typesense"})
	stats := IndexStats{Collection: t.cfg.Collection}

	existing, err := t.client.Collection(t.cfg.Collection).Retrieve(ctx)
	switch {
	case err == nil:
		docs := int64(0)
		if existing.NumDocuments != nil {
			docs = *existing.NumDocuments
		}
		if docs > 0 && !t.cfg.Overwrite {
			slog.InfoContext(ctx, "reusing catalog collection",
				"collection", t.cfg.Collection,
				"documents", docs)
			stats.Documents = int(docs)
			return stats, nil
		}
		if _, err := t.client.Collection(t.cfg.Collection).Delete(ctx); err != nil {
			return stats, fmt.Errorf("drop collection %s: %w", t.cfg.Collection, err)
		}
	case isNotFound(err):
	default:
		return stats, fmt.Errorf("retrieve collection %s: %w", t.cfg.Collection, err)
	}

	products, err := load()
	if err != nil {
		return stats, fmt.Errorf("load catalog: %w", err)
	}
	if len(products) == 0 {
		return stats, ErrEmptyCatalog
	}

	if _, err := t.client.Collections().Create(ctx, t.schema()); err != nil {
		return stats, fmt.Errorf("create collection %s: %w", t.cfg.Collection, err)
	}
	stats.Created = true

	docs := make([]interface{}, 0, len(products))
	for _, p := range products {
		docs = append(docs, productDocument{
			ID:      p.ID,
			Title:   p.Title(),
			Content: p.Content(),
			Row:     int32(p.Row),
		})
	}

	results, err := t.client.Collection(t.cfg.Collection).Documents().Import(ctx, docs, &api.ImportDocumentsParams{
		Action:    pointer.Any(api.Create),
		BatchSize: pointer.Int(importBatchSize),
	})
	if err != nil {
		return stats, fmt.Errorf("import products: %w", err)
	}

	failed := 0
	for _, r := range results {
		if r != nil && !r.Success {
			failed++
			slog.WarnContext(ctx, "product import failed",
				"collection", t.cfg.Collection,
				"error", r.Error)
		}
	}
	stats.Documents = len(docs) - failed

	slog.InfoContext(ctx, "catalog indexed",
		"collection", t.cfg.Collection,
		"documents", stats.Documents,
		"failed", failed)

	if stats.Documents == 0 {
		return stats, fmt.Errorf("import products: all %d documents rejected", failed)
	}
	return stats, nil
}

// Search runs a text query over product titles and content.
func (t *TypesenseIndex) Search(ctx context.Context, query string, limit int) ([]Hit, error) {
	if limit <= 0 {
		limit = 5
	}

	res, err := t.client.Collection(t.cfg.Collection).Documents().Search(ctx, &api.SearchCollectionParams{
		Q:                   pointer.String(query),
		QueryBy:             pointer.String("title,content"),
		PerPage:             pointer.Int(limit),
		DropTokensThreshold: pointer.Int(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", t.cfg.Collection, err)
	}
	if res.Hits == nil {
		return nil, nil
	}

	hits := make([]Hit, 0, len(*res.Hits))
	for _, h := range *res.Hits {
		if h.Document == nil {
			continue
		}
		doc := *h.Document
		hit := Hit{
			ProductID: stringField(doc, "id"),
			Title:     stringField(doc, "title"),
			Content:   stringField(doc, "content"),
		}
		if h.TextMatch != nil {
			hit.Score = float64(*h.TextMatch)
		}
		hits = append(hits, hit)
	}

	slog.DebugContext(ctx, "catalog search completed",
		"query", logger.Truncate(query, 200),
		"hits", len(hits))

	return hits, nil
}

func (t *TypesenseIndex) schema() *api.CollectionSchema {
	return &api.CollectionSchema{
		Name: t.cfg.Collection,
		Fields: []api.Field{
			{Name: "title", Type: "string"},
			{Name: "content", Type: "string"},
			{Name: "row", Type: "int32"},
		},
		DefaultSortingField: pointer.String("row"),
	}
}

type productDocument struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Row     int32  `json:"row"`
}

func isNotFound(err error) bool {
	var httpErr *typesense.HTTPError
	return errors.As(err, &httpErr) && httpErr.Status == http.StatusNotFound
}

func stringField(doc map[string]interface{}, key string) string {
	if v, ok := doc[key].(string); ok {
		return v
	}
	return ""
}
