// Package vector provides the vector index and similarity search.
package vector

import "context"

// Index defines vector storage and nearest-neighbor search over embeddings.
// Implementations must keep ranking stable: equal scores preserve insertion
// order, so retrieval ties break by original chunk order.
type Index interface {
	Add(ctx context.Context, ids []string, vectors [][]float32) error
	Search(ctx context.Context, query []float32, k int) ([]*Result, error)
	Save(path string) error
	Load(path string) error
	Size() int
	Close() error
}

// Result is a single vector search hit. ID is the chunk ID.
type Result struct {
	ID    string
	Score float64 // inner product; cosine similarity for normalized vectors
}
