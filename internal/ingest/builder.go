package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/hyperjump/annai/internal/embedding"
	"github.com/hyperjump/annai/internal/extract"
	"github.com/hyperjump/annai/internal/models"
	"github.com/hyperjump/annai/internal/storage"
	"github.com/hyperjump/annai/internal/vector"
)

// ErrIndexLoad marks a persisted-index load failure. Callers fall back to a
// rebuild instead of surfacing it.
var ErrIndexLoad = errors.New("persisted index load failed")

// Builder builds or loads the knowledge index. The persisted form is a
// SQLite chunk store plus a binary vector file; both must be present and
// consistent for a load to succeed.
type Builder struct {
	store        *storage.ChunkStore
	embedder     embedding.Embedder
	chunker      *Chunker
	extractor    *extract.Extractor
	knowledgeDir string
	vectorPath   string
	logger       *zap.Logger
}

// NewBuilder creates a Builder. knowledgeDir is the source document
// directory; vectorPath is where the embedding file is persisted.
func NewBuilder(
	store *storage.ChunkStore,
	embedder embedding.Embedder,
	chunker *Chunker,
	knowledgeDir, vectorPath string,
	logger *zap.Logger,
) *Builder {
	return &Builder{
		store:        store,
		embedder:     embedder,
		chunker:      chunker,
		extractor:    extract.NewExtractor(),
		knowledgeDir: knowledgeDir,
		vectorPath:   vectorPath,
		logger:       logger,
	}
}

// BuildOrLoad loads the persisted index if present and consistent, otherwise
// rebuilds from the knowledge base directory. The returned index is never
// empty: an empty or missing knowledge base yields the built-in corpus.
func (b *Builder) BuildOrLoad(ctx context.Context) (*KnowledgeIndex, error) {
	ki, err := b.load(ctx)
	if err == nil {
		b.logger.Info("knowledge index loaded",
			zap.String("path", b.vectorPath),
			zap.Int("chunks", ki.Size()))
		return ki, nil
	}
	b.logger.Warn("persisted index unavailable, rebuilding", zap.Error(err))
	return b.Rebuild(ctx)
}

// load reads the persisted vector file and chunk store. Any inconsistency
// (missing file, dimension mismatch, count mismatch, empty store) is an
// ErrIndexLoad so the caller rebuilds.
func (b *Builder) load(ctx context.Context) (*KnowledgeIndex, error) {
	vecIdx, err := vector.NewMemoryIndex(b.embedder.Dimensions())
	if err != nil {
		return nil, err
	}
	if err := vecIdx.Load(b.vectorPath); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIndexLoad, err)
	}
	chunks, err := b.store.ListChunks(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list chunks: %v", ErrIndexLoad, err)
	}
	if len(chunks) == 0 || len(chunks) != vecIdx.Size() {
		return nil, fmt.Errorf("%w: chunk store has %d chunks, vector file has %d",
			ErrIndexLoad, len(chunks), vecIdx.Size())
	}
	return NewKnowledgeIndex(vecIdx, chunks), nil
}

// Rebuild ingests the knowledge base from scratch: extract, chunk, embed,
// and best-effort persist. Persistence failures are logged and swallowed;
// the in-memory index remains usable for the current run.
func (b *Builder) Rebuild(ctx context.Context) (*KnowledgeIndex, error) {
	docs := b.loadDocuments()
	if len(docs) == 0 {
		b.logger.Info("knowledge base empty, using built-in corpus",
			zap.String("dir", b.knowledgeDir))
		docs = fallbackDocuments()
	}

	var chunks []models.Chunk
	for ord, doc := range docs {
		chunks = append(chunks, b.chunker.Chunk(doc, ord)...)
	}

	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Content
	}
	embeddings, err := b.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}
	for i := range chunks {
		chunks[i].Embedding = embeddings[i]
	}

	vecIdx, err := vector.NewMemoryIndex(b.embedder.Dimensions())
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(chunks))
	for i, ch := range chunks {
		ids[i] = ch.ID
	}
	if err := vecIdx.Add(ctx, ids, embeddings); err != nil {
		return nil, fmt.Errorf("index vectors: %w", err)
	}

	if err := b.store.ReplaceAll(ctx, chunks); err != nil {
		b.logger.Warn("chunk store persist failed", zap.Error(err))
	}
	if err := vecIdx.Save(b.vectorPath); err != nil {
		b.logger.Warn("vector index persist failed",
			zap.String("path", b.vectorPath), zap.Error(err))
	}

	b.logger.Info("knowledge index built",
		zap.Int("documents", len(docs)),
		zap.Int("chunks", len(chunks)))
	return NewKnowledgeIndex(vecIdx, chunks), nil
}

// loadDocuments enumerates the knowledge base directory (non-recursive) and
// extracts text from each supported file. Unsupported or unreadable files
// are skipped; ingestion is best-effort, not all-or-nothing.
func (b *Builder) loadDocuments() []models.Document {
	entries, err := os.ReadDir(b.knowledgeDir)
	if err != nil {
		return nil
	}
	var docs []models.Document
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(b.knowledgeDir, entry.Name())
		text, err := b.extractor.Extract(path)
		if err != nil {
			if !errors.Is(err, extract.ErrUnsupported) {
				b.logger.Warn("skipping unreadable file",
					zap.String("path", path), zap.Error(err))
			}
			continue
		}
		docs = append(docs, models.Document{
			Source:   entry.Name(),
			Content:  text,
			Metadata: map[string]string{"source": entry.Name()},
		})
	}
	return docs
}
