// Package verdict generates and parses per-claim model verdicts.
package verdict

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/scicheckagent/scicheck/internal/errs"
	"github.com/scicheckagent/scicheck/internal/hash"
	"github.com/scicheckagent/scicheck/internal/llm"
	"github.com/scicheckagent/scicheck/internal/model"
	"github.com/scicheckagent/scicheck/internal/prompt"
	"github.com/scicheckagent/scicheck/internal/store"
)

// maxAttempts bounds retries against malformed or empty completions.
const maxAttempts = 3

// Generator produces model verdicts for claims, caching by claim hash.
type Generator struct {
	backend llm.Backend
	store   *store.Store
	logger  *zap.Logger
	group   singleflight.Group
}

// NewGenerator returns a Generator. A nil logger falls back to a no-op logger.
func NewGenerator(backend llm.Backend, st *store.Store, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{backend: backend, store: st, logger: logger}
}

// ForClaim returns the verdict for a claim, generating and caching one if the
// store has none. Concurrent callers for the same claim hash share a single
// generation.
func (g *Generator) ForClaim(ctx context.Context, mode model.Mode, claimText string) (*model.ModelVerdict, error) {
	claimHash := hash.Text(claimText)

	cached, err := g.store.GetModelVerdict(ctx, claimHash)
	if err != nil {
		return nil, err
	}
	if cached != nil {
		g.logger.Debug("model verdict cache hit", zap.String("claim_hash", claimHash))
		return cached, nil
	}

	v, err, _ := g.group.Do(claimHash, func() (interface{}, error) {
		// Another flight may have finished while this one queued.
		if cached, err := g.store.GetModelVerdict(ctx, claimHash); err != nil || cached != nil {
			return cached, err
		}
		return g.generate(ctx, mode, claimHash, claimText)
	})
	if err != nil {
		return nil, err
	}
	return v.(*model.ModelVerdict), nil
}

func (g *Generator) generate(ctx context.Context, mode model.Mode, claimHash, claimText string) (*model.ModelVerdict, error) {
	var p *Fields
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		raw, err := g.backend.Complete(ctx, llm.CompletionRequest{
			Prompt:      prompt.Verdict(mode, claimText),
			Temperature: 0,
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil, err
			}
			lastErr = err
			g.logger.Warn("verdict completion failed", zap.Int("attempt", attempt), zap.Error(err))
			continue
		}
		if strings.TrimSpace(raw) == "" {
			lastErr = errs.Transient("verdict completion", fmt.Errorf("empty response"))
			continue
		}
		p, err = ParseResponse(mode, raw)
		if err != nil {
			lastErr = err
			g.logger.Warn("verdict parse failed", zap.Int("attempt", attempt), zap.Error(err))
			continue
		}
		break
	}

	if p == nil {
		// Exhausted. Persist a degraded verdict so the claim does not hammer
		// the backend every time it is viewed.
		g.logger.Error("verdict generation exhausted retries", zap.String("claim_hash", claimHash), zap.Error(lastErr))
		p = &Fields{
			Verdict:       string(model.VerdictInconclusive),
			Justification: "AI analysis failed to produce a valid structured verdict.",
		}
	}

	if len(p.Keywords) == 0 {
		p.Keywords = FallbackKeywords(claimText)
	}

	v := &model.ModelVerdict{
		ClaimHash:     claimHash,
		Verdict:       p.Verdict,
		Justification: p.Justification,
		Sources:       p.Sources,
		Keywords:      p.Keywords,
		Questions:     g.questions(ctx, claimText),
	}
	if err := g.store.PutModelVerdict(ctx, *v); err != nil {
		return nil, fmt.Errorf("cache model verdict: %w", err)
	}
	return v, nil
}

// questions asks for follow-up research questions. Failures are tolerated: a
// verdict without questions is still a verdict.
func (g *Generator) questions(ctx context.Context, claimText string) []string {
	raw, err := g.backend.Complete(ctx, llm.CompletionRequest{
		Prompt:      prompt.Questions(claimText),
		Temperature: 0,
	})
	if err != nil {
		g.logger.Warn("question generation failed", zap.Error(err))
		return nil
	}
	var out []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(line, "0123456789.)- "))
		if len(line) < 10 || !strings.Contains(line, "?") {
			continue
		}
		out = append(out, line)
		if len(out) == 3 {
			break
		}
	}
	return out
}

// FormatVerdict renders a vocabulary value for display, e.g.
// "PARTIALLY_SUPPORTED" becomes "Partially Supported".
func FormatVerdict(v string) string {
	words := strings.Split(strings.ToLower(v), "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
