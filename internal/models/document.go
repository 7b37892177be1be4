// Package models defines core data structures for documents, chunks, and chat state.
package models

// Document is the raw text extracted from one knowledge base source.
// Immutable once produced by ingestion.
type Document struct {
	Source   string            `json:"source"`
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Chunk is a bounded, overlap-padded slice of a Document. Chunks are the
// atomic units stored in and retrieved from the vector index. Source always
// traces back to the originating Document.
type Chunk struct {
	ID         string    `json:"id"`
	Source     string    `json:"source"`
	Content    string    `json:"content"`
	ChunkIndex int       `json:"chunk_index"`
	Embedding  []float32 `json:"-"`
}
