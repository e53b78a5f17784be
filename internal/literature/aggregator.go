package literature

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/scicheckagent/scicheck/internal/hash"
	"github.com/scicheckagent/scicheck/internal/llm"
	"github.com/scicheckagent/scicheck/internal/model"
	"github.com/scicheckagent/scicheck/internal/prompt"
	"github.com/scicheckagent/scicheck/internal/store"
	"github.com/scicheckagent/scicheck/internal/verdict"
)

// throttled pairs a provider with its request limiter. Semantic Scholar's
// anonymous pool throttles well under 1 req/s; the other databases tolerate
// roughly 2 req/s.
type throttled struct {
	provider Provider
	limiter  *rate.Limiter
}

// Aggregator fans a claim's keywords out to the provider roster, merges the
// results, and asks the backend to weigh the claim against them.
type Aggregator struct {
	store     *store.Store
	backend   llm.Backend
	providers []throttled
	perQuery  int
	logger    *zap.Logger
	group     singleflight.Group
}

// userAgentTransport stamps every provider request so the polite pools can
// identify the client.
type userAgentTransport struct {
	agent string
	next  http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", t.agent)
	}
	return t.next.RoundTrip(req)
}

// NewAggregator builds the default provider roster in fixed priority order.
func NewAggregator(st *store.Store, backend llm.Backend, cfg model.ProvidersConfig, httpCfg model.HTTPConfig, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := &http.Client{
		Timeout:   timeout,
		Transport: &userAgentTransport{agent: httpCfg.UserAgent, next: http.DefaultTransport},
	}
	perQuery := cfg.ResultsPerProvider
	if perQuery <= 0 {
		perQuery = 3
	}

	return &Aggregator{
		store:    st,
		backend:  backend,
		perQuery: perQuery,
		logger:   logger,
		providers: []throttled{
			{NewSemanticScholar(client, cfg.SemanticScholarAPIKey), rate.NewLimiter(rate.Every(1100*time.Millisecond), 1)},
			{NewCrossref(client), rate.NewLimiter(rate.Every(500*time.Millisecond), 1)},
			{NewCORE(client, cfg.COREAPIKey), rate.NewLimiter(rate.Every(500*time.Millisecond), 1)},
			{NewPubMed(client), rate.NewLimiter(rate.Every(500*time.Millisecond), 1)},
		},
	}
}

// NewAggregatorWithProviders is the injection point for tests and custom
// rosters. Providers run in slice order without throttling.
func NewAggregatorWithProviders(st *store.Store, backend llm.Backend, providers []Provider, perQuery int, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &Aggregator{store: st, backend: backend, perQuery: perQuery, logger: logger}
	for _, p := range providers {
		a.providers = append(a.providers, throttled{p, rate.NewLimiter(rate.Inf, 1)})
	}
	return a
}

// VerifyExternal returns the external verdict for a claim, searching the
// provider roster and caching the result on first use. Concurrent callers
// for the same claim hash share one search.
func (a *Aggregator) VerifyExternal(ctx context.Context, claimText string) (*model.ExternalVerdict, error) {
	claimHash := hash.Text(claimText)

	cached, err := a.store.GetExternalVerdict(ctx, claimHash)
	if err != nil {
		return nil, err
	}
	if cached != nil {
		a.logger.Debug("external verdict cache hit", zap.String("claim_hash", claimHash))
		return cached, nil
	}

	v, err, _ := a.group.Do(claimHash, func() (interface{}, error) {
		if cached, err := a.store.GetExternalVerdict(ctx, claimHash); err != nil || cached != nil {
			return cached, err
		}
		return a.verify(ctx, claimHash, claimText)
	})
	if err != nil {
		return nil, err
	}
	return v.(*model.ExternalVerdict), nil
}

func (a *Aggregator) verify(ctx context.Context, claimHash, claimText string) (*model.ExternalVerdict, error) {
	keywords := a.keywordsFor(ctx, claimHash, claimText)

	sources := a.search(ctx, keywords)
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	result := &model.ExternalVerdict{ClaimHash: claimHash, Sources: sources}
	if len(sources) == 0 {
		result.Verdict = prompt.NoEvidenceSentinel
	} else {
		text, err := a.backend.Complete(ctx, llm.CompletionRequest{
			Prompt:      prompt.EvidenceSynthesis(claimText, sources),
			Temperature: 0,
		})
		if err != nil {
			return nil, fmt.Errorf("synthesize evidence: %w", err)
		}
		result.Verdict = text
	}

	if err := a.store.PutExternalVerdict(ctx, *result); err != nil {
		return nil, fmt.Errorf("cache external verdict: %w", err)
	}
	return result, nil
}

// keywordsFor prefers the keywords the model verdict already produced for
// this claim; without one, it derives keywords from the claim text directly.
func (a *Aggregator) keywordsFor(ctx context.Context, claimHash, claimText string) []string {
	if mv, err := a.store.GetModelVerdict(ctx, claimHash); err == nil && mv != nil && len(mv.Keywords) > 0 {
		return mv.Keywords
	}
	return verdict.FallbackKeywords(claimText)
}

// search runs the roster sequentially in priority order. A failing provider
// is logged and skipped; only context cancellation stops the walk.
func (a *Aggregator) search(ctx context.Context, keywords []string) []model.Source {
	var merged []model.Source
	for _, t := range a.providers {
		if err := t.limiter.Wait(ctx); err != nil {
			break
		}
		results, err := t.provider.Search(ctx, keywords, a.perQuery)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			a.logger.Warn("provider search failed",
				zap.String("provider", t.provider.Name()),
				zap.Error(err))
			continue
		}
		a.logger.Debug("provider search complete",
			zap.String("provider", t.provider.Name()),
			zap.Int("results", len(results)))
		merged = append(merged, results...)
	}
	return dedupeByURL(merged)
}

// dedupeByURL drops later results that share a URL with an earlier one, so
// the provider priority order decides which record survives. Results without
// a URL cannot collide and all pass through.
func dedupeByURL(sources []model.Source) []model.Source {
	seen := make(map[string]bool, len(sources))
	out := sources[:0]
	for _, src := range sources {
		if src.URL != "" {
			if seen[src.URL] {
				continue
			}
			seen[src.URL] = true
		}
		out = append(out, src)
	}
	return out
}
