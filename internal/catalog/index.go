package catalog

import "context"

// Hit is one search result, in the order the store ranked it.
type Hit struct {
	ProductID string  `json:"product_id"`
	Title     string  `json:"title"`
	Content   string  `json:"content"`
	Score     float64 `json:"score"`
}

// IndexStats describes the outcome of EnsureIndexed.
type IndexStats struct {
	Collection string
	Created    bool // false when an existing collection was reused
	Documents  int
}

// LoadFunc supplies the products to index. It is only called when the
// collection has to be (re)built.
type LoadFunc func() ([]Product, error)

// Index is the searchable product corpus.
type Index interface {
	EnsureIndexed(ctx context.Context, load LoadFunc) (IndexStats, error)
	Search(ctx context.Context, query string, limit int) ([]Hit, error)
}
