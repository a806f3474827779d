package retriever

import (
	"context"
	"fmt"

	"linecheck/internal/domain"
	"linecheck/internal/port"
)

// SemanticRetriever embeds a text query and runs it through a LineStore's
// similarity search.
type SemanticRetriever struct {
	store    port.LineStore
	embedder port.Embedder
}

func NewSemanticRetriever(store port.LineStore, embedder port.Embedder) *SemanticRetriever {
	return &SemanticRetriever{
		store:    store,
		embedder: embedder,
	}
}

// QueryVector embeds text with the configured embedder.
func (r *SemanticRetriever) QueryVector(ctx context.Context, text string) ([]float64, error) {
	if r.embedder == nil {
		return nil, fmt.Errorf("semantic search not available: embeddings not configured")
	}

	embeddings, err := r.embedder.Embed(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(embeddings) == 0 || len(embeddings[0]) == 0 {
		return nil, fmt.Errorf("embedding returned empty result")
	}

	vec := make([]float64, len(embeddings[0]))
	for i, f := range embeddings[0] {
		vec[i] = float64(f)
	}
	return vec, nil
}

func (r *SemanticRetriever) Search(ctx context.Context, text string, numCandidates, limit int) ([]domain.ScoredLine, error) {
	vec, err := r.QueryVector(ctx, text)
	if err != nil {
		return nil, err
	}

	params := domain.SearchParams{Vector: vec, NumCandidates: numCandidates, Limit: limit}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	results, err := r.store.Search(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}
	return results, nil
}
