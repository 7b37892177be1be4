// Package embedding provides deterministic text embedding for indexing and retrieval.
//
// The default embedder is HashEmbedder, which needs no external model and
// always produces the same vector for the same input. An ONNX-backed embedder
// (all-MiniLM-L6-v2) is available when built with CGO.
package embedding

import "context"

// Embedder produces vector embeddings for text. Implementations must be
// deterministic: identical input yields identical output, both at ingestion
// and at query time.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}
