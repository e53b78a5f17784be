package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/scicheckagent/scicheck/internal/errs"
	"github.com/scicheckagent/scicheck/internal/model"
)

// OpenAIBackend implements Backend on any OpenAI-compatible chat completions
// endpoint, including OpenRouter via a base URL override.
type OpenAIBackend struct {
	client *openai.Client
	cfg    model.LLMConfig
}

// NewOpenAIBackend creates a new OpenAI-compatible backend.
func NewOpenAIBackend(cfg model.LLMConfig) (*OpenAIBackend, error) {
	if cfg.APIKey == "" {
		return nil, &errs.ConfigError{Setting: "llm.api_key", Reason: "API key is required"}
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &OpenAIBackend{
		client: openai.NewClientWithConfig(clientConfig),
		cfg:    cfg,
	}, nil
}

// Name returns the backend name.
func (b *OpenAIBackend) Name() string {
	return "openai"
}

func (b *OpenAIBackend) chatRequest(req CompletionRequest, stream bool) openai.ChatCompletionRequest {
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = b.cfg.MaxTokens
	}

	return openai.ChatCompletionRequest{
		Model: b.model(),
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
		MaxTokens:   maxTokens,
		Temperature: req.Temperature,
		Stream:      stream,
	}
}

func (b *OpenAIBackend) model() string {
	if b.cfg.Model != "" {
		return b.cfg.Model
	}
	return openai.GPT4oMini
}

func (b *OpenAIBackend) timeout() time.Duration {
	if b.cfg.Timeout > 0 {
		return b.cfg.Timeout
	}
	return 90 * time.Second
}

// Complete returns one completion string for the prompt.
func (b *OpenAIBackend) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout())
	defer cancel()

	resp, err := b.client.CreateChatCompletion(ctx, b.chatRequest(req, false))
	if err != nil {
		return "", errs.Transient("openai completion", err)
	}

	if len(resp.Choices) == 0 {
		return "", errs.Transient("openai completion", fmt.Errorf("no choices in response"))
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// Stream returns an ordered channel of text deltas from a streaming chat
// completion. The terminal frame carries Done on normal end-of-stream and Err
// on any failure, including caller cancellation.
func (b *OpenAIBackend) Stream(ctx context.Context, req CompletionRequest) (<-chan Delta, error) {
	stream, err := b.client.CreateChatCompletionStream(ctx, b.chatRequest(req, true))
	if err != nil {
		return nil, errs.Transient("openai stream", err)
	}

	out := make(chan Delta)
	go func() {
		defer close(out)
		defer func() { _ = stream.Close() }()

		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				out <- Delta{Done: true}
				return
			}
			if err != nil {
				out <- Delta{Err: errs.Transient("openai stream", err)}
				return
			}
			if len(resp.Choices) == 0 {
				continue
			}
			content := resp.Choices[0].Delta.Content
			if content == "" {
				continue
			}
			select {
			case out <- Delta{Content: content}:
			case <-ctx.Done():
				out <- Delta{Err: errs.Transient("openai stream", ctx.Err())}
				return
			}
		}
	}()

	return out, nil
}
