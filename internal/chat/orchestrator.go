// Package chat coordinates retrieval, prompt assembly, and the language model
// into a single conversational response.
package chat

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/hyperjump/annai/internal/llm"
	"github.com/hyperjump/annai/internal/models"
	"github.com/hyperjump/annai/internal/prompt"
	"github.com/hyperjump/annai/internal/retrieval"
)

// State tracks the orchestrator lifecycle. Active is terminal.
type State int

const (
	StateUninitialized State = iota
	StateReady
	StateActive
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateReady:
		return "ready"
	case StateActive:
		return "active"
	default:
		return "unknown"
	}
}

// ClientFactory builds an LLM client for the given API key. Injected so tests
// can substitute a stub without network access.
type ClientFactory func(apiKey string) (llm.Client, error)

// ErrNoIndex is returned through the fail-soft path when Respond is called
// before SetIndex.
var ErrNoIndex = errors.New("knowledge index not initialized")

// Orchestrator answers queries by retrieving context chunks and completing a
// prompt against the language model. The client is constructed lazily on the
// first query and reused afterwards.
type Orchestrator struct {
	mu        sync.Mutex
	state     State
	retriever *retrieval.Retriever
	client    llm.Client
	factory   ClientFactory
	topK      int
	logger    *zap.Logger
}

// NewOrchestrator creates an orchestrator in the uninitialized state. factory
// must not be nil; topK <= 0 falls back to the retrieval default.
func NewOrchestrator(factory ClientFactory, topK int, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		state:   StateUninitialized,
		factory: factory,
		topK:    topK,
		logger:  logger,
	}
}

// SetIndex attaches the retriever and moves the orchestrator to ready. It may
// be called again after a rebuild; an active orchestrator stays active.
func (o *Orchestrator) SetIndex(retriever *retrieval.Retriever) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.retriever = retriever
	if o.state == StateUninitialized {
		o.state = StateReady
	}
}

// State returns the current lifecycle state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Respond answers a query. All failures are converted into a user-visible
// error string with empty sources; Respond never returns a Go error to the
// caller. On success it returns the model's reply and the chunks that were
// injected as context.
func (o *Orchestrator) Respond(ctx context.Context, query string, history []models.ChatMessage, apiKey string, profile models.Profile) (string, []models.Chunk) {
	text, chunks, err := o.respond(ctx, query, history, apiKey, profile)
	if err != nil {
		o.logger.Warn("chat failed", zap.Error(err))
		return fmt.Sprintf("❌ System Error: %v", err), nil
	}
	return text, chunks
}

func (o *Orchestrator) respond(ctx context.Context, query string, history []models.ChatMessage, apiKey string, profile models.Profile) (string, []models.Chunk, error) {
	o.mu.Lock()
	if o.retriever == nil {
		o.mu.Unlock()
		return "", nil, ErrNoIndex
	}
	retriever := o.retriever
	client := o.client
	o.mu.Unlock()

	if client == nil {
		built, err := o.factory(apiKey)
		if err != nil {
			return "", nil, err
		}
		o.mu.Lock()
		if o.client == nil {
			o.client = built
			o.state = StateActive
		}
		client = o.client
		o.mu.Unlock()
	}

	chunks, err := retriever.Retrieve(ctx, query, o.topK)
	if err != nil {
		return "", nil, err
	}

	messages := prompt.Assemble(profile, chunks, history, query)
	reply, err := client.Complete(ctx, messages)
	if err != nil {
		return "", nil, err
	}
	return reply, chunks, nil
}
