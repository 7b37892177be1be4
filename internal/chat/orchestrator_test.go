package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/hyperjump/annai/internal/embedding"
	"github.com/hyperjump/annai/internal/ingest"
	"github.com/hyperjump/annai/internal/llm"
	"github.com/hyperjump/annai/internal/models"
	"github.com/hyperjump/annai/internal/retrieval"
	"github.com/hyperjump/annai/internal/vector"
)

type stubClient struct {
	reply string
	err   error
	got   []llm.Message
}

func (s *stubClient) Complete(ctx context.Context, messages []llm.Message) (string, error) {
	s.got = messages
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

func testRetriever(t *testing.T, texts []string) *retrieval.Retriever {
	t.Helper()
	ctx := context.Background()
	embedder := embedding.NewHashEmbedder(64)
	vecIdx, err := vector.NewMemoryIndex(64)
	if err != nil {
		t.Fatal(err)
	}
	chunks := make([]models.Chunk, len(texts))
	ids := make([]string, len(texts))
	vecs := make([][]float32, len(texts))
	for i, text := range texts {
		emb, err := embedder.Embed(ctx, text)
		if err != nil {
			t.Fatal(err)
		}
		ids[i] = fmt.Sprintf("chunk-%d", i)
		chunks[i] = models.Chunk{ID: ids[i], Source: "test", Content: text, ChunkIndex: i}
		vecs[i] = emb
	}
	if err := vecIdx.Add(ctx, ids, vecs); err != nil {
		t.Fatal(err)
	}
	return retrieval.NewRetriever(ingest.NewKnowledgeIndex(vecIdx, chunks), embedder)
}

func TestOrchestrator_Lifecycle(t *testing.T) {
	stub := &stubClient{reply: "advice"}
	o := NewOrchestrator(func(string) (llm.Client, error) { return stub, nil }, 3, nil)

	if o.State() != StateUninitialized {
		t.Fatalf("initial state %v", o.State())
	}
	o.SetIndex(testRetriever(t, []string{"data science careers"}))
	if o.State() != StateReady {
		t.Fatalf("state after SetIndex %v", o.State())
	}

	text, sources := o.Respond(context.Background(), "careers?", nil, "gsk_key", models.Profile{})
	if text != "advice" {
		t.Errorf("got %q", text)
	}
	if len(sources) == 0 {
		t.Error("expected retrieved sources")
	}
	if o.State() != StateActive {
		t.Errorf("state after first respond %v", o.State())
	}

	// A later SetIndex (index rebuild) must not regress the state.
	o.SetIndex(testRetriever(t, []string{"new corpus"}))
	if o.State() != StateActive {
		t.Errorf("state regressed after rebuild: %v", o.State())
	}
}

func TestOrchestrator_RespondBeforeSetIndex(t *testing.T) {
	o := NewOrchestrator(func(string) (llm.Client, error) { return &stubClient{}, nil }, 3, nil)
	text, sources := o.Respond(context.Background(), "q", nil, "gsk_key", models.Profile{})
	if !strings.HasPrefix(text, "❌ System Error:") {
		t.Errorf("got %q", text)
	}
	if len(sources) != 0 {
		t.Errorf("expected no sources, got %d", len(sources))
	}
	if o.State() != StateUninitialized {
		t.Errorf("state %v", o.State())
	}
}

func TestOrchestrator_FactoryFailure(t *testing.T) {
	o := NewOrchestrator(func(string) (llm.Client, error) {
		return nil, errors.New("bad credentials")
	}, 3, nil)
	o.SetIndex(testRetriever(t, []string{"alpha"}))

	text, sources := o.Respond(context.Background(), "q", nil, "gsk_bad", models.Profile{})
	if !strings.Contains(text, "bad credentials") {
		t.Errorf("got %q", text)
	}
	if sources != nil {
		t.Errorf("expected nil sources, got %v", sources)
	}
	if o.State() != StateReady {
		t.Errorf("failed construction must not activate: %v", o.State())
	}
}

func TestOrchestrator_CompletionFailure(t *testing.T) {
	stub := &stubClient{err: errors.New("rate limited")}
	o := NewOrchestrator(func(string) (llm.Client, error) { return stub, nil }, 3, nil)
	o.SetIndex(testRetriever(t, []string{"alpha"}))

	text, sources := o.Respond(context.Background(), "q", nil, "gsk_key", models.Profile{})
	if !strings.Contains(text, "rate limited") {
		t.Errorf("got %q", text)
	}
	if len(sources) != 0 {
		t.Errorf("expected empty sources, got %d", len(sources))
	}
}

func TestOrchestrator_ClientBuiltOnce(t *testing.T) {
	calls := 0
	stub := &stubClient{reply: "ok"}
	o := NewOrchestrator(func(string) (llm.Client, error) {
		calls++
		return stub, nil
	}, 3, nil)
	o.SetIndex(testRetriever(t, []string{"alpha"}))

	for i := 0; i < 3; i++ {
		o.Respond(context.Background(), "q", nil, "gsk_key", models.Profile{})
	}
	if calls != 1 {
		t.Errorf("factory called %d times, want 1", calls)
	}
}

func TestOrchestrator_HistoryAndProfileReachPrompt(t *testing.T) {
	stub := &stubClient{reply: "ok"}
	o := NewOrchestrator(func(string) (llm.Client, error) { return stub, nil }, 3, nil)
	o.SetIndex(testRetriever(t, []string{"alpha"}))

	history := []models.ChatMessage{
		{Role: models.RoleUser, Content: "earlier question"},
		{Role: models.RoleAssistant, Content: "earlier answer"},
	}
	profile := models.Profile{Skills: "Go", Education: "Graduate", Interest: "Backend"}
	o.Respond(context.Background(), "now?", history, "gsk_key", profile)

	if len(stub.got) != 4 {
		t.Fatalf("prompt had %d messages, want 4", len(stub.got))
	}
	if !strings.Contains(stub.got[0].Content, "Skills(Go), Education(Graduate), Interest(Backend)") {
		t.Errorf("profile missing from system message")
	}
	if stub.got[1].Content != "earlier question" || stub.got[3].Content != "now?" {
		t.Errorf("message order wrong: %+v", stub.got)
	}
}
