// Package llm abstracts the text-generation backend behind synchronous and
// streaming completion calls.
package llm

import (
	"context"
	"strings"

	"github.com/scicheckagent/scicheck/internal/errs"
	"github.com/scicheckagent/scicheck/internal/model"
)

// Delta is one incremental fragment of a streaming completion. The stream is
// an ordered sequence of content deltas terminated by exactly one frame with
// Done or Err set.
type Delta struct {
	Content string
	Err     error
	Done    bool
}

// CompletionRequest describes one generation call.
type CompletionRequest struct {
	Prompt      string
	Temperature float32
	MaxTokens   int
}

// Backend is the generation interface every pipeline stage depends on.
type Backend interface {
	// Name returns the backend name.
	Name() string

	// Complete returns one completion string for the prompt.
	Complete(ctx context.Context, req CompletionRequest) (string, error)

	// Stream returns an ordered channel of text deltas. The channel is closed
	// after the terminal Done or Err frame. Cancelling ctx cancels the
	// upstream generation.
	Stream(ctx context.Context, req CompletionRequest) (<-chan Delta, error)
}

// New creates a backend from configuration.
func New(cfg model.LLMConfig) (Backend, error) {
	switch strings.ToLower(cfg.Provider) {
	case "openai", "openrouter":
		return NewOpenAIBackend(cfg)
	case "ollama":
		return NewOllamaBackend(cfg)
	default:
		return nil, &errs.ConfigError{
			Setting: "llm.provider",
			Reason:  "unknown provider " + cfg.Provider + " (supported: openai, openrouter, ollama)",
		}
	}
}
