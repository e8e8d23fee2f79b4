package brain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"basegraph.app/recommender/common/llm"
	"basegraph.app/recommender/common/logger"
	"basegraph.app/recommender/internal/catalog"
	"basegraph.app/recommender/internal/chat"
)

// catalogMatches is the structured answer of the matching call.
type catalogMatches struct {
	Products []catalogMatch `json:"products" jsonschema:"required"`
}

type catalogMatch struct {
	ID      string `json:"id" jsonschema:"required,description=Exact product id from the catalog excerpt"`
	Name    string `json:"name" jsonschema:"required"`
	Details string `json:"details" jsonschema:"required,description=Short summary of the attributes that match"`
}

// Retriever looks preferences up in the catalog and keeps the matching
// products as its reply.
type Retriever struct {
	participant *chat.Participant
	index       catalog.Index
	matcher     llm.Client
	load        catalog.LoadFunc
	limit       int
	indexed     bool
}

func NewRetriever(index catalog.Index, matcher llm.Client, load catalog.LoadFunc, limit int) *Retriever {
	return &Retriever{
		participant: chat.NewParticipant(chat.ParticipantConfig{
			Name:         RetrieverName,
			SystemPrompt: retrieverPrompt,
			InputMode:    chat.InputModeNever,
		}),
		index:   index,
		matcher: matcher,
		load:    load,
		limit:   limit,
	}
}

func (r *Retriever) Participant() *chat.Participant {
	return r.participant
}

// Retrieve answers problem using a search for terms. The reply is empty when
// the catalog can't be read, holds no products or has nothing matching.
func (r *Retriever) Retrieve(ctx context.Context, problem string, terms []string) (*chat.Transcript, error) {
	p := r.participant
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Participant: logger.Ptr(p.Name()),
		Component:   "recommender.brain.retriever",
	})

	ready, err := r.ensureIndexed(ctx)
	if err != nil {
		return nil, err
	}

	p.Hear(coordinatorName, problem)
	if !ready {
		p.Say("")
		return p.Transcript(), nil
	}

	query := strings.Join(terms, " ")
	if strings.TrimSpace(query) == "" {
		query = problem
	}

	hits, err := r.index.Search(ctx, query, r.limit)
	if err != nil {
		return nil, fmt.Errorf("searching catalog: %w", err)
	}
	if len(hits) == 0 {
		slog.InfoContext(ctx, "catalog search found nothing", "query", query)
		p.Say("")
		return p.Transcript(), nil
	}

	var result catalogMatches
	resp, err := r.matcher.Chat(ctx, llm.Request{
		SystemPrompt: p.SystemPrompt(),
		UserPrompt:   matchPrompt(problem, hits),
		SchemaName:   "catalog_matches",
		Schema:       llm.GenerateSchema[catalogMatches](),
		Temperature:  llm.Temp(0),
	}, &result)
	if err != nil {
		return nil, fmt.Errorf("matching catalog hits: %w", err)
	}

	matches := keepKnown(result.Products, hits)

	slog.InfoContext(ctx, "catalog matched",
		"query", query,
		"hits", len(hits),
		"matches", len(matches),
		"dropped", len(result.Products)-len(matches),
		"prompt_tokens", resp.PromptTokens,
		"completion_tokens", resp.CompletionTokens)

	p.Say(formatMatches(matches))
	return p.Transcript(), nil
}

// ensureIndexed builds the index on first use. It reports false without an
// error when the catalog source is unreadable or empty. Any failed attempt
// is retried on the next call.
func (r *Retriever) ensureIndexed(ctx context.Context) (bool, error) {
	if r.indexed {
		return true, nil
	}

	var loadErr error
	stats, err := r.index.EnsureIndexed(ctx, func() ([]catalog.Product, error) {
		products, err := r.load()
		loadErr = err
		return products, err
	})
	switch {
	case loadErr != nil:
		slog.WarnContext(ctx, "catalog unreadable, retrieving nothing", "error", loadErr)
		return false, nil
	case errors.Is(err, catalog.ErrEmptyCatalog):
		slog.WarnContext(ctx, "catalog holds no products, retrieving nothing")
		return false, nil
	case err != nil:
		return false, fmt.Errorf("indexing catalog: %w", err)
	}

	r.indexed = true
	slog.DebugContext(ctx, "catalog index ready",
		"collection", stats.Collection,
		"created", stats.Created,
		"documents", stats.Documents)
	return true, nil
}

func matchPrompt(problem string, hits []catalog.Hit) string {
	var sb strings.Builder
	sb.WriteString(problem)
	sb.WriteString("\n\nCatalog excerpt:\n")
	for _, h := range hits {
		fmt.Fprintf(&sb, "- id: %s | %s\n", h.ProductID, h.Content)
	}
	return sb.String()
}

func keepKnown(matches []catalogMatch, hits []catalog.Hit) []catalogMatch {
	known := make(map[string]bool, len(hits))
	for _, h := range hits {
		known[h.ProductID] = true
	}

	seen := make(map[string]bool, len(matches))
	out := make([]catalogMatch, 0, len(matches))
	for _, m := range matches {
		if !known[m.ID] || seen[m.ID] {
			continue
		}
		seen[m.ID] = true
		out = append(out, m)
	}
	return out
}

func formatMatches(matches []catalogMatch) string {
	lines := make([]string, 0, len(matches))
	for i, m := range matches {
		line := fmt.Sprintf("%d. %s (%s)", i+1, m.Name, m.ID)
		if m.Details != "" {
			line += ": " + m.Details
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
