// Package llm provides the language model client used for chat completions.
package llm

import (
	"context"
	"errors"
	"strings"
)

// Message is one role-tagged message in a completion request.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client produces a single non-streaming completion for a message sequence.
type Client interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

// KeyPrefix is the provider's API key prefix.
const KeyPrefix = "gsk_"

// ErrInvalidKey is returned for credentials that fail the format check.
var ErrInvalidKey = errors.New("invalid API key format: must start with \"gsk_\"")

// ValidateKey checks the credential is non-empty and carries the provider
// prefix. It does not verify the key against the provider.
func ValidateKey(key string) error {
	if !strings.HasPrefix(key, KeyPrefix) {
		return ErrInvalidKey
	}
	return nil
}
