// Package extract turns free text into a persisted list of explicit claims.
package extract

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/scicheckagent/scicheck/internal/llm"
	"github.com/scicheckagent/scicheck/internal/model"
	"github.com/scicheckagent/scicheck/internal/prompt"
	"github.com/scicheckagent/scicheck/internal/store"
)

// minClaimLength filters noise lines the model sometimes emits alongside real
// claims. Anything shorter than this is never a complete claim.
const minClaimLength = 10

// Extractor runs one extraction completion per text and persists the result.
type Extractor struct {
	backend llm.Backend
	store   *store.Store
	logger  *zap.Logger
}

// New returns an Extractor. A nil logger falls back to a no-op logger.
func New(backend llm.Backend, st *store.Store, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{backend: backend, store: st, logger: logger}
}

// Analyze extracts claims from text under the given mode, creates a new
// analysis and stores the claims under it. An empty claim list is a valid
// outcome and still produces an analysis.
func (e *Extractor) Analyze(ctx context.Context, mode model.Mode, text string) (*model.Analysis, []model.Claim, error) {
	if !mode.Valid() {
		mode = model.ModeGeneral
	}
	if strings.TrimSpace(text) == "" {
		return nil, nil, fmt.Errorf("extract: empty input text")
	}

	raw, err := e.backend.Complete(ctx, llm.CompletionRequest{
		Prompt:      prompt.Extraction(mode, text),
		Temperature: 0,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("extract claims: %w", err)
	}

	texts := ParseClaimList(raw)
	e.logger.Debug("extracted claims", zap.String("mode", string(mode)), zap.Int("count", len(texts)))

	now := time.Now()
	analysis := model.Analysis{
		ID:           uuid.NewString(),
		Mode:         mode,
		CreatedAt:    now,
		LastAccessed: now,
	}
	if err := e.store.CreateAnalysis(ctx, analysis); err != nil {
		return nil, nil, fmt.Errorf("create analysis: %w", err)
	}
	claims, err := e.store.SaveClaims(ctx, analysis.ID, texts)
	if err != nil {
		return nil, nil, fmt.Errorf("save claims: %w", err)
	}

	stored, err := e.store.GetAnalysis(ctx, analysis.ID)
	if err != nil {
		return nil, nil, err
	}
	return stored, claims, nil
}

// ParseClaimList parses a model response into claim texts. It accepts
// numbered lists and bare lines, strips list prefixes, and drops lines that
// cannot be claims: too short, echoed prompt labels, or the no-claims
// sentinel.
func ParseClaimList(raw string) []string {
	var out []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		line = stripListPrefix(line)
		if len(line) < minClaimLength {
			continue
		}
		lower := strings.ToLower(line)
		if strings.HasPrefix(lower, "output:") || strings.HasPrefix(lower, "text:") {
			continue
		}
		if strings.HasPrefix(lower, strings.ToLower(prompt.NoClaimsSentinel)) {
			continue
		}
		out = append(out, line)
	}
	return out
}

// stripListPrefix removes a leading "1." / "12)" style enumerator, if any.
func stripListPrefix(line string) string {
	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	if i == 0 {
		return line
	}
	if i < len(line) && (line[i] == '.' || line[i] == ')') {
		i++
	}
	return strings.TrimSpace(line[i:])
}
