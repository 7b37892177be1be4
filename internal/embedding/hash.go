package embedding

import (
	"context"
	"math"
	"strings"

	"github.com/hyperjump/annai/pkg/utils"
)

// DefaultDimensions matches the all-MiniLM-L6-v2 embedding width so the
// hash embedder and the ONNX embedder produce interchangeable index files.
const DefaultDimensions = 384

// HashEmbedder is a deterministic bag-of-words embedder. Each token is hashed
// into a handful of vector positions, so texts sharing vocabulary land near
// each other and identical texts always produce identical unit vectors.
type HashEmbedder struct {
	dimensions int
}

// NewHashEmbedder returns a deterministic embedder of the given dimensions.
func NewHashEmbedder(dimensions int) *HashEmbedder {
	if dimensions <= 0 {
		dimensions = DefaultDimensions
	}
	return &HashEmbedder{dimensions: dimensions}
}

// Embed returns a unit-length embedding derived from the text's tokens.
func (e *HashEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	emb := make([]float32, e.dimensions)
	tokens := strings.Fields(strings.ToLower(text))
	if len(tokens) == 0 {
		// Empty text still gets a valid, stable vector.
		tokens = []string{""}
	}
	for _, tok := range tokens {
		h := HashString(tok)
		// Spread each token across a few positions with signed weights so
		// collisions do not collapse distinct vocabularies.
		for j := 0; j < 4; j++ {
			pos := (h*(j+3) + j) % e.dimensions
			if pos < 0 {
				pos += e.dimensions
			}
			emb[pos] += float32(math.Sin(float64(h + j*7919)))
		}
	}
	utils.NormalizeL2(emb)
	return emb, nil
}

// EmbedBatch calls Embed for each text.
func (e *HashEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		emb, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		embeddings[i] = emb
	}
	return embeddings, nil
}

// Dimensions returns the embedding dimension.
func (e *HashEmbedder) Dimensions() int {
	return e.dimensions
}

// Close is a no-op for HashEmbedder.
func (e *HashEmbedder) Close() error {
	return nil
}

// HashString returns a deterministic non-negative hash of s.
func HashString(s string) int {
	h := 0
	for _, c := range s {
		h = 31*h + int(c)
	}
	if h < 0 {
		h = -h
	}
	return h
}
