package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/scicheckagent/scicheck/internal/errs"
	"github.com/scicheckagent/scicheck/internal/model"
)

// OllamaBackend implements Backend for local Ollama models.
type OllamaBackend struct {
	baseURL    string
	httpClient *http.Client
	cfg        model.LLMConfig
}

type ollamaRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	Stream  bool          `json:"stream"`
	Options ollamaOptions `json:"options,omitempty"`
}

type ollamaOptions struct {
	Temperature float32 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"` // Max tokens
}

type ollamaResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

type ollamaError struct {
	Error string `json:"error"`
}

// NewOllamaBackend creates a new Ollama backend.
func NewOllamaBackend(cfg model.LLMConfig) (*OllamaBackend, error) {
	if cfg.Model == "" {
		return nil, &errs.ConfigError{Setting: "llm.model", Reason: "ollama model must be specified (e.g., llama3.1:8b, mistral)"}
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 120 * time.Second // local models can be slow
	}

	return &OllamaBackend{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		cfg:        cfg,
	}, nil
}

// Name returns the backend name.
func (b *OllamaBackend) Name() string {
	return "ollama"
}

func (b *OllamaBackend) apiRequest(req CompletionRequest, stream bool) ollamaRequest {
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = b.cfg.MaxTokens
	}
	return ollamaRequest{
		Model:  b.cfg.Model,
		Prompt: req.Prompt,
		Stream: stream,
		Options: ollamaOptions{
			Temperature: req.Temperature,
			NumPredict:  maxTokens,
		},
	}
}

func (b *OllamaBackend) post(ctx context.Context, apiReq ollamaRequest) (*http.Response, error) {
	body, err := json.Marshal(apiReq)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/api/generate", b.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := b.httpClient.Do(httpReq)
	if err != nil {
		return nil, errs.Transient("ollama request", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(httpResp.Body)
		_ = httpResp.Body.Close()
		var apiErr ollamaError
		if err := json.Unmarshal(respBody, &apiErr); err == nil && apiErr.Error != "" {
			return nil, errs.Transient("ollama request", fmt.Errorf("API error (%d): %s", httpResp.StatusCode, apiErr.Error))
		}
		return nil, errs.Transient("ollama request", fmt.Errorf("API error (%d): %s", httpResp.StatusCode, string(respBody)))
	}

	return httpResp, nil
}

// Complete returns one completion string for the prompt.
func (b *OllamaBackend) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	httpResp, err := b.post(ctx, b.apiRequest(req, false))
	if err != nil {
		return "", err
	}
	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return "", errs.Transient("ollama response", err)
	}

	var resp ollamaResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}

	return strings.TrimSpace(resp.Response), nil
}

// Stream returns an ordered channel of text deltas. Ollama streams
// newline-delimited JSON objects; the object with done=true ends the stream.
func (b *OllamaBackend) Stream(ctx context.Context, req CompletionRequest) (<-chan Delta, error) {
	httpResp, err := b.post(ctx, b.apiRequest(req, true))
	if err != nil {
		return nil, err
	}

	out := make(chan Delta)
	go func() {
		defer close(out)
		defer func() { _ = httpResp.Body.Close() }()

		scanner := bufio.NewScanner(httpResp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := bytes.TrimSpace(scanner.Bytes())
			if len(line) == 0 {
				continue
			}
			var resp ollamaResponse
			if err := json.Unmarshal(line, &resp); err != nil {
				continue
			}
			if resp.Response != "" {
				select {
				case out <- Delta{Content: resp.Response}:
				case <-ctx.Done():
					out <- Delta{Err: errs.Transient("ollama stream", ctx.Err())}
					return
				}
			}
			if resp.Done {
				out <- Delta{Done: true}
				return
			}
		}
		if err := scanner.Err(); err != nil {
			out <- Delta{Err: errs.Transient("ollama stream", err)}
			return
		}
		// Body ended without a done frame; treat as truncation.
		out <- Delta{Err: errs.Transient("ollama stream", io.ErrUnexpectedEOF)}
	}()

	return out, nil
}
