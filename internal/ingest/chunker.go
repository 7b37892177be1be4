// Package ingest builds the knowledge index: document discovery, text
// extraction, chunking, embedding, and index persistence.
package ingest

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/hyperjump/annai/internal/models"
)

// Default chunking parameters. Overlap keeps context that straddles a
// boundary retrievable from both neighboring chunks.
const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 100
)

// Chunker splits document text into overlapping character-bounded chunks,
// preferring paragraph and sentence boundaries over hard cuts.
type Chunker struct {
	chunkSize    int
	chunkOverlap int
}

// NewChunker creates a chunker with the given size and overlap (in bytes).
func NewChunker(chunkSize, chunkOverlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = DefaultChunkOverlap
	}
	return &Chunker{chunkSize: chunkSize, chunkOverlap: chunkOverlap}
}

// Chunk splits doc's content into Chunks carrying the document's source.
// docOrdinal is the document's position in the ingestion batch; IDs are
// deterministic (ordinal, source, index), so rebuilding an unchanged
// knowledge base yields the same IDs. Sources are not assumed unique.
func (c *Chunker) Chunk(doc models.Document, docOrdinal int) []models.Chunk {
	parts := c.split(doc.Content)
	chunks := make([]models.Chunk, 0, len(parts))
	for i, part := range parts {
		chunks = append(chunks, models.Chunk{
			ID:         fmt.Sprintf("%d/%s#%d", docOrdinal, doc.Source, i),
			Source:     doc.Source,
			Content:    part,
			ChunkIndex: i,
		})
	}
	return chunks
}

// split cuts text into pieces of at most chunkSize bytes with chunkOverlap
// bytes carried over between neighbors.
func (c *Chunker) split(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if len(text) <= c.chunkSize {
		return []string{text}
	}
	var parts []string
	start := 0
	for start < len(text) {
		end := start + c.chunkSize
		if end >= len(text) {
			if piece := strings.TrimSpace(text[start:]); piece != "" {
				parts = append(parts, piece)
			}
			break
		}
		cut := c.findBreak(text, start, end)
		if piece := strings.TrimSpace(text[start:cut]); piece != "" {
			parts = append(parts, piece)
		}
		next := cut - c.chunkOverlap
		if next <= start {
			next = cut
		}
		start = next
	}
	return parts
}

// findBreak picks a cut point in (start, end], preferring a paragraph break,
// then a sentence end, then any whitespace, before a hard (rune-aligned) cut.
// Boundaries in the first half of the window are ignored so chunks stay
// reasonably full.
func (c *Chunker) findBreak(text string, start, end int) int {
	window := text[start:end]
	half := len(window) / 2

	if i := strings.LastIndex(window, "\n\n"); i > half {
		return start + i + 2
	}
	for _, sep := range []string{". ", "! ", "? ", "\n"} {
		if i := strings.LastIndex(window, sep); i > half {
			return start + i + len(sep)
		}
	}
	if i := strings.LastIndexByte(window, ' '); i > half {
		return start + i + 1
	}
	// Hard cut: back off to a rune boundary.
	cut := end
	for cut > start && !utf8.RuneStart(text[cut]) {
		cut--
	}
	if cut == start {
		cut = end
	}
	return cut
}
