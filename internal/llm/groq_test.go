package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestValidateKey(t *testing.T) {
	if err := ValidateKey("gsk_abc123"); err != nil {
		t.Errorf("valid key rejected: %v", err)
	}
	for _, key := range []string{"", "sk-wrong", "GSK_upper"} {
		if err := ValidateKey(key); !errors.Is(err, ErrInvalidKey) {
			t.Errorf("key %q: expected ErrInvalidKey, got %v", key, err)
		}
	}
}

func TestNewGroqClient_RequiresKey(t *testing.T) {
	if _, err := NewGroqClient(GroqConfig{}); err == nil {
		t.Error("expected error for missing API key")
	}
}

func TestGroqClient_Complete(t *testing.T) {
	var gotAuth string
	var gotReq chatCompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotReq)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"Consider backend roles."}}]}`))
	}))
	defer srv.Close()

	c, err := NewGroqClient(GroqConfig{APIKey: "gsk_test", BaseURL: srv.URL})
	if err != nil {
		t.Fatal(err)
	}
	got, err := c.Complete(context.Background(), []Message{
		{Role: "system", Content: "You are a mentor."},
		{Role: "user", Content: "What should I learn?"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if got != "Consider backend roles." {
		t.Errorf("got %q", got)
	}
	if gotAuth != "Bearer gsk_test" {
		t.Errorf("auth header %q", gotAuth)
	}
	if gotReq.Model != DefaultModel {
		t.Errorf("model %q", gotReq.Model)
	}
	if gotReq.Temperature != DefaultTemperature {
		t.Errorf("temperature %f", gotReq.Temperature)
	}
	if len(gotReq.Messages) != 2 || gotReq.Messages[0].Role != "system" {
		t.Errorf("messages %+v", gotReq.Messages)
	}
}

func TestGroqClient_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid API Key","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	c, _ := NewGroqClient(GroqConfig{APIKey: "gsk_bad", BaseURL: srv.URL})
	if _, err := c.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}}); err == nil {
		t.Error("expected error for auth failure")
	}
}

func TestGroqClient_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c, _ := NewGroqClient(GroqConfig{APIKey: "gsk_x", BaseURL: srv.URL})
	if _, err := c.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}}); err == nil {
		t.Error("expected error for empty choices")
	}
}
