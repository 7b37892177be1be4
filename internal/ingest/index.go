package ingest

import (
	"context"

	"github.com/hyperjump/annai/internal/models"
	"github.com/hyperjump/annai/internal/vector"
)

// KnowledgeIndex is the loaded knowledge base: a vector index over chunk
// embeddings plus the chunk contents keyed by ID. It is built once at
// startup and read-only during chat operation.
type KnowledgeIndex struct {
	vectors vector.Index
	byID    map[string]models.Chunk
	ordered []models.Chunk
}

// NewKnowledgeIndex wraps a vector index and the chunks it was built from.
func NewKnowledgeIndex(vectors vector.Index, chunks []models.Chunk) *KnowledgeIndex {
	byID := make(map[string]models.Chunk, len(chunks))
	for _, ch := range chunks {
		byID[ch.ID] = ch
	}
	return &KnowledgeIndex{vectors: vectors, byID: byID, ordered: chunks}
}

// Search returns the top-k nearest chunk IDs for the query embedding.
func (ki *KnowledgeIndex) Search(ctx context.Context, query []float32, k int) ([]*vector.Result, error) {
	return ki.vectors.Search(ctx, query, k)
}

// Chunk returns the chunk with the given ID.
func (ki *KnowledgeIndex) Chunk(id string) (models.Chunk, bool) {
	ch, ok := ki.byID[id]
	return ch, ok
}

// Chunks returns all chunks in original order.
func (ki *KnowledgeIndex) Chunks() []models.Chunk {
	return ki.ordered
}

// Size returns the number of indexed chunks.
func (ki *KnowledgeIndex) Size() int {
	return len(ki.ordered)
}

// Save persists the vector index to path. Chunk contents are persisted
// separately by the builder's chunk store.
func (ki *KnowledgeIndex) Save(path string) error {
	return ki.vectors.Save(path)
}
