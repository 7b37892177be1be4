package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/hyperjump/annai/internal/embedding"
	"github.com/hyperjump/annai/internal/storage"
)

func newTestBuilder(t *testing.T, knowledgeDir string) (*Builder, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewChunkStore(filepath.Join(dir, "chunks.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })
	vectorPath := filepath.Join(dir, "vectors.bin")
	b := NewBuilder(
		store,
		embedding.NewHashEmbedder(32),
		NewChunker(1000, 100),
		knowledgeDir,
		vectorPath,
		zap.NewNop(),
	)
	return b, vectorPath
}

func TestBuilder_MissingKnowledgeBaseUsesFallback(t *testing.T) {
	b, _ := newTestBuilder(t, filepath.Join(t.TempDir(), "does-not-exist"))
	ki, err := b.BuildOrLoad(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if ki.Size() == 0 {
		t.Fatal("index must never be empty")
	}
	for _, ch := range ki.Chunks() {
		if ch.Source != "Internal" {
			t.Errorf("fallback chunk has source %q", ch.Source)
		}
	}
}

func TestBuilder_IngestsTxtFiles(t *testing.T) {
	kb := t.TempDir()
	if err := os.WriteFile(filepath.Join(kb, "paths.txt"), []byte("Cloud engineering is a growth field."), 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(kb, "ignored.csv"), []byte("a,b,c"), 0600); err != nil {
		t.Fatal(err)
	}
	b, _ := newTestBuilder(t, kb)
	ki, err := b.BuildOrLoad(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if ki.Size() != 1 {
		t.Fatalf("got %d chunks", ki.Size())
	}
	if ki.Chunks()[0].Source != "paths.txt" {
		t.Errorf("source %q", ki.Chunks()[0].Source)
	}
}

func TestBuilder_SkipsCorruptFileContinuesBatch(t *testing.T) {
	kb := t.TempDir()
	if err := os.WriteFile(filepath.Join(kb, "broken.pdf"), []byte("not really a pdf"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(kb, "ok.txt"), []byte("Readable content."), 0600); err != nil {
		t.Fatal(err)
	}
	b, _ := newTestBuilder(t, kb)
	ki, err := b.BuildOrLoad(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if ki.Size() != 1 {
		t.Fatalf("expected only the readable file, got %d chunks", ki.Size())
	}
}

func TestBuilder_RebuildIdempotent(t *testing.T) {
	kb := t.TempDir()
	if err := os.WriteFile(filepath.Join(kb, "a.txt"), []byte("Alpha content about careers."), 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(kb, "b.txt"), []byte("Beta content about skills."), 0600); err != nil {
		t.Fatal(err)
	}
	b, _ := newTestBuilder(t, kb)
	ctx := context.Background()
	first, err := b.Rebuild(ctx)
	if err != nil {
		t.Fatal(err)
	}
	second, err := b.Rebuild(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if first.Size() != second.Size() {
		t.Fatalf("sizes differ: %d vs %d", first.Size(), second.Size())
	}
	for i := range first.Chunks() {
		a, b := first.Chunks()[i], second.Chunks()[i]
		if a.ID != b.ID || a.Content != b.Content || a.Source != b.Source {
			t.Errorf("chunk %d differs between rebuilds: %+v vs %+v", i, a, b)
		}
	}
}

func TestBuilder_LoadsPersistedIndex(t *testing.T) {
	kb := t.TempDir()
	if err := os.WriteFile(filepath.Join(kb, "a.txt"), []byte("Persisted content."), 0600); err != nil {
		t.Fatal(err)
	}
	b, _ := newTestBuilder(t, kb)
	ctx := context.Background()
	built, err := b.Rebuild(ctx)
	if err != nil {
		t.Fatal(err)
	}

	// Remove the source so a rebuild would fall back; a successful load
	// proves the persisted index was used.
	if err := os.Remove(filepath.Join(kb, "a.txt")); err != nil {
		t.Fatal(err)
	}
	loaded, err := b.BuildOrLoad(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Size() != built.Size() {
		t.Fatalf("loaded %d chunks, built %d", loaded.Size(), built.Size())
	}
	if loaded.Chunks()[0].Content != "Persisted content." {
		t.Errorf("got %q", loaded.Chunks()[0].Content)
	}
}

func TestBuilder_CorruptVectorFileTriggersRebuild(t *testing.T) {
	kb := t.TempDir()
	if err := os.WriteFile(filepath.Join(kb, "a.txt"), []byte("Fresh content."), 0600); err != nil {
		t.Fatal(err)
	}
	b, vectorPath := newTestBuilder(t, kb)
	ctx := context.Background()
	if _, err := b.Rebuild(ctx); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(vectorPath, []byte("garbage"), 0600); err != nil {
		t.Fatal(err)
	}
	ki, err := b.BuildOrLoad(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if ki.Size() == 0 {
		t.Fatal("rebuild after corrupt vector file produced empty index")
	}
}
