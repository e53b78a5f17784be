package llm

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/scicheckagent/scicheck/internal/errs"
	"github.com/scicheckagent/scicheck/internal/model"
)

func TestNew_UnknownProvider(t *testing.T) {
	_, err := New(model.LLMConfig{Provider: "mystery"})

	var ce *errs.ConfigError
	if !errors.As(err, &ce) {
		t.Fatalf("Expected ConfigError, got %v", err)
	}
}

func TestNew_OpenAIRequiresKey(t *testing.T) {
	_, err := New(model.LLMConfig{Provider: "openai"})

	var ce *errs.ConfigError
	if !errors.As(err, &ce) {
		t.Fatalf("Expected ConfigError for missing key, got %v", err)
	}
	if ce.Setting != "llm.api_key" {
		t.Errorf("Expected llm.api_key setting, got %s", ce.Setting)
	}
}

func TestNew_OllamaRequiresModel(t *testing.T) {
	_, err := New(model.LLMConfig{Provider: "ollama"})

	var ce *errs.ConfigError
	if !errors.As(err, &ce) {
		t.Fatalf("Expected ConfigError for missing model, got %v", err)
	}
}

func TestOllamaBackend_Complete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"model":"test","response":" a completion ","done":true}`))
	}))
	defer srv.Close()

	b, err := NewOllamaBackend(model.LLMConfig{Provider: "ollama", Model: "test", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewOllamaBackend failed: %v", err)
	}

	got, err := b.Complete(context.Background(), CompletionRequest{Prompt: "hi"})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if got != "a completion" {
		t.Errorf("Expected trimmed completion, got %q", got)
	}
}

func TestOllamaBackend_Stream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lines := []string{
			`{"response":"Hello"}`,
			`{"response":" world"}`,
			`{"response":"","done":true}`,
		}
		_, _ = w.Write([]byte(strings.Join(lines, "\n")))
	}))
	defer srv.Close()

	b, err := NewOllamaBackend(model.LLMConfig{Provider: "ollama", Model: "test", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewOllamaBackend failed: %v", err)
	}

	ch, err := b.Stream(context.Background(), CompletionRequest{Prompt: "hi"})
	if err != nil {
		t.Fatalf("Stream failed: %v", err)
	}

	var buf strings.Builder
	done := false
	for d := range ch {
		if d.Err != nil {
			t.Fatalf("Unexpected stream error: %v", d.Err)
		}
		if d.Done {
			done = true
			continue
		}
		buf.WriteString(d.Content)
	}

	if !done {
		t.Error("Expected a terminal done frame")
	}
	if buf.String() != "Hello world" {
		t.Errorf("Expected accumulated 'Hello world', got %q", buf.String())
	}
}

func TestOllamaBackend_StreamTruncationIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"response":"partial"}`)) // no done frame
	}))
	defer srv.Close()

	b, err := NewOllamaBackend(model.LLMConfig{Provider: "ollama", Model: "test", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewOllamaBackend failed: %v", err)
	}

	ch, err := b.Stream(context.Background(), CompletionRequest{Prompt: "hi"})
	if err != nil {
		t.Fatalf("Stream failed: %v", err)
	}

	var streamErr error
	for d := range ch {
		if d.Err != nil {
			streamErr = d.Err
		}
	}
	if streamErr == nil {
		t.Fatal("Expected truncated stream to end with an error frame")
	}
	if !errs.IsTransient(streamErr) {
		t.Errorf("Expected transient error, got %v", streamErr)
	}
}

func TestOllamaBackend_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"model not loaded"}`))
	}))
	defer srv.Close()

	b, err := NewOllamaBackend(model.LLMConfig{Provider: "ollama", Model: "test", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewOllamaBackend failed: %v", err)
	}

	_, err = b.Complete(context.Background(), CompletionRequest{Prompt: "hi"})
	if !errs.IsTransient(err) {
		t.Errorf("Expected transient error on HTTP 500, got %v", err)
	}
}
