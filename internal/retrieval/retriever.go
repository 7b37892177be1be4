// Package retrieval returns the chunks most similar to a query.
package retrieval

import (
	"context"
	"fmt"

	"github.com/hyperjump/annai/internal/embedding"
	"github.com/hyperjump/annai/internal/ingest"
	"github.com/hyperjump/annai/internal/models"
)

// DefaultTopK is the number of chunks injected into the chat prompt.
const DefaultTopK = 3

// Retriever runs similarity search against a knowledge index. It has no side
// effects; the index is read-only during chat operation.
type Retriever struct {
	index    *ingest.KnowledgeIndex
	embedder embedding.Embedder
}

// NewRetriever creates a retriever over the given index and embedder. The
// embedder must be the one the index was built with.
func NewRetriever(index *ingest.KnowledgeIndex, embedder embedding.Embedder) *Retriever {
	return &Retriever{index: index, embedder: embedder}
}

// Retrieve returns up to k chunks ranked by descending similarity to query,
// ties broken by original chunk order. k beyond the index size returns all
// available chunks; an empty index returns an empty slice, not an error.
// Empty queries are allowed and return whatever is nearest by convention.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) ([]models.Chunk, error) {
	if k <= 0 {
		k = DefaultTopK
	}
	if r.index.Size() == 0 {
		return nil, nil
	}
	queryEmbedding, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	hits, err := r.index.Search(ctx, queryEmbedding, k)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	chunks := make([]models.Chunk, 0, len(hits))
	for _, hit := range hits {
		if ch, ok := r.index.Chunk(hit.ID); ok {
			chunks = append(chunks, ch)
		}
	}
	return chunks, nil
}
