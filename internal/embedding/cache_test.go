package embedding

import (
	"context"
	"testing"
)

func TestCache_GetSet(t *testing.T) {
	c := NewCache(2)
	c.Set("a", []float32{1})
	if v, ok := c.Get("a"); !ok || v[0] != 1 {
		t.Error("expected cached value")
	}
	if _, ok := c.Get("missing"); ok {
		t.Error("unexpected hit")
	}
}

func TestCache_Eviction(t *testing.T) {
	c := NewCache(2)
	c.Set("a", []float32{1})
	c.Set("b", []float32{2})
	c.Set("c", []float32{3})
	if c.Len() != 2 {
		t.Errorf("Len=%d", c.Len())
	}
	if _, ok := c.Get("a"); ok {
		t.Error("oldest entry should have been evicted")
	}
	if _, ok := c.Get("c"); !ok {
		t.Error("newest entry should be present")
	}
}

type countingEmbedder struct {
	*HashEmbedder
	calls int
}

func (c *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	c.calls++
	return c.HashEmbedder.Embed(ctx, text)
}

func TestCachedEmbedder_SkipsRecompute(t *testing.T) {
	inner := &countingEmbedder{HashEmbedder: NewHashEmbedder(16)}
	e := NewCachedEmbedder(inner, 10)
	ctx := context.Background()
	if _, err := e.Embed(ctx, "query"); err != nil {
		t.Fatal(err)
	}
	if _, err := e.Embed(ctx, "query"); err != nil {
		t.Fatal(err)
	}
	if inner.calls != 1 {
		t.Errorf("inner embedder called %d times, want 1", inner.calls)
	}
}
