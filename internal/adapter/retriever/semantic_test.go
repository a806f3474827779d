package retriever_test

import (
	"context"
	"testing"

	"linecheck/internal/adapter/embedding"
	"linecheck/internal/adapter/memstore"
	"linecheck/internal/adapter/retriever"
	"linecheck/internal/domain"
)

func TestSemanticRetrieverFindsEmbeddedText(t *testing.T) {
	ctx := context.Background()
	emb := embedding.NewMockEmbedder(16)

	texts := []string{"murder in the dark", "a quiet garden", "the detective arrived"}
	vectors, err := emb.Embed(ctx, texts)
	if err != nil {
		t.Fatal(err)
	}

	store := memstore.NewMemoryStore("stories.lines")
	for i, text := range texts {
		v := make([]float64, len(vectors[i]))
		for j, f := range vectors[i] {
			v[j] = float64(f)
		}
		store.Put(domain.Line{Book: "b", LineNo: i, Text: text, Embedding: v})
	}

	r := retriever.NewSemanticRetriever(store, emb)
	results, err := r.Search(ctx, "a quiet garden", 10, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Line.Text != "a quiet garden" {
		t.Errorf("expected exact text first, got %q", results[0].Line.Text)
	}
}

func TestSemanticRetrieverWithoutEmbedder(t *testing.T) {
	r := retriever.NewSemanticRetriever(memstore.NewMemoryStore("x.y"), nil)
	if _, err := r.Search(context.Background(), "q", 10, 5); err == nil {
		t.Error("expected error without embedder")
	}
}
