// Package report streams long-form research reports for claim+question pairs
// and caches the completed text.
package report

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/scicheckagent/scicheck/internal/hash"
	"github.com/scicheckagent/scicheck/internal/llm"
	"github.com/scicheckagent/scicheck/internal/model"
	"github.com/scicheckagent/scicheck/internal/prompt"
	"github.com/scicheckagent/scicheck/internal/store"
)

// Placeholders substituted into the report prompt when an earlier pipeline
// stage has not run for this claim yet.
const (
	PlaceholderNoModelVerdict    = "Verdict not yet generated by AI."
	PlaceholderNoExternalVerdict = "Not yet externally verified."
)

// Synthesizer generates reports, replaying cached ones without a backend
// call.
type Synthesizer struct {
	backend llm.Backend
	store   *store.Store
	logger  *zap.Logger
}

// NewSynthesizer returns a Synthesizer. A nil logger falls back to a no-op
// logger.
func NewSynthesizer(backend llm.Backend, st *store.Store, logger *zap.Logger) *Synthesizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Synthesizer{backend: backend, store: st, logger: logger}
}

// Stream returns a delta channel for the report on (claim, question). A cache
// hit replays the stored text as a single delta followed by the terminal
// frame. On a miss the live stream is forwarded as-is and the accumulated
// text is cached only when the stream ends normally with non-empty content,
// so a failed or empty generation is retried on the next call.
func (s *Synthesizer) Stream(ctx context.Context, claimText, question string) (<-chan llm.Delta, error) {
	claimHash := hash.Text(claimText)
	questionHash := hash.Text(question)

	cached, err := s.store.GetReport(ctx, claimHash, questionHash)
	if err != nil {
		return nil, err
	}
	if cached != nil {
		s.logger.Debug("report cache hit",
			zap.String("claim_hash", claimHash),
			zap.String("question_hash", questionHash))
		out := make(chan llm.Delta, 2)
		out <- llm.Delta{Content: cached.Text}
		out <- llm.Delta{Done: true}
		close(out)
		return out, nil
	}

	upstream, err := s.backend.Stream(ctx, llm.CompletionRequest{
		Prompt:      s.buildPrompt(ctx, claimHash, claimText, question),
		Temperature: 0,
	})
	if err != nil {
		return nil, err
	}

	out := make(chan llm.Delta)
	go func() {
		defer close(out)
		var text strings.Builder
		for delta := range upstream {
			switch {
			case delta.Err != nil:
				out <- delta
				return
			case delta.Done:
				if text.Len() > 0 {
					s.cache(claimHash, questionHash, question, text.String())
				}
				out <- delta
				return
			default:
				text.WriteString(delta.Content)
				out <- delta
			}
		}
	}()
	return out, nil
}

// Generate is the non-streaming variant: it drains Stream and returns the
// full text.
func (s *Synthesizer) Generate(ctx context.Context, claimText, question string) (string, error) {
	stream, err := s.Stream(ctx, claimText, question)
	if err != nil {
		return "", err
	}
	var text strings.Builder
	for delta := range stream {
		if delta.Err != nil {
			return "", delta.Err
		}
		text.WriteString(delta.Content)
	}
	return text.String(), nil
}

func (s *Synthesizer) buildPrompt(ctx context.Context, claimHash, claimText, question string) string {
	modelVerdict := PlaceholderNoModelVerdict
	if mv, err := s.store.GetModelVerdict(ctx, claimHash); err == nil && mv != nil {
		modelVerdict = mv.Verdict + ": " + mv.Justification
	}
	externalVerdict := PlaceholderNoExternalVerdict
	if ev, err := s.store.GetExternalVerdict(ctx, claimHash); err == nil && ev != nil {
		externalVerdict = ev.Verdict
	}
	return prompt.Report(claimText, question, modelVerdict, externalVerdict)
}

func (s *Synthesizer) cache(claimHash, questionHash, question, text string) {
	// Caching runs after the request context may already be done; it must
	// not be cancelled with it.
	err := s.store.PutReport(context.Background(), model.Report{
		ClaimHash:    claimHash,
		QuestionHash: questionHash,
		Question:     question,
		Text:         text,
	})
	if err != nil {
		s.logger.Warn("failed to cache report", zap.Error(err))
	}
}
