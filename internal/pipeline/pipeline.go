// Package pipeline wires the verification stages together behind one
// orchestrator the CLI talks to.
package pipeline

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/scicheckagent/scicheck/internal/article"
	"github.com/scicheckagent/scicheck/internal/errs"
	"github.com/scicheckagent/scicheck/internal/export"
	"github.com/scicheckagent/scicheck/internal/extract"
	"github.com/scicheckagent/scicheck/internal/literature"
	"github.com/scicheckagent/scicheck/internal/llm"
	"github.com/scicheckagent/scicheck/internal/model"
	"github.com/scicheckagent/scicheck/internal/report"
	"github.com/scicheckagent/scicheck/internal/store"
	"github.com/scicheckagent/scicheck/internal/verdict"
	"github.com/scicheckagent/scicheck/internal/worker"
)

// ClaimDetail bundles a claim with everything generated for it so far.
type ClaimDetail struct {
	Claim           model.Claim
	ModelVerdict    *model.ModelVerdict
	ExternalVerdict *model.ExternalVerdict
	Reports         []model.Report
}

// Pipeline coordinates extraction, verdict generation, external verification
// and report synthesis over the shared store.
type Pipeline struct {
	store      *store.Store
	extractor  *extract.Extractor
	generator  *verdict.Generator
	aggregator *literature.Aggregator
	reports    *report.Synthesizer
	fetcher    *article.Fetcher
	retention  model.RetentionConfig
	logger     *zap.Logger
}

// New assembles a Pipeline from a config, sharing one store and one backend
// across all stages.
func New(cfg *model.Config, st *store.Store, backend llm.Backend, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		store:      st,
		extractor:  extract.New(backend, st, logger),
		generator:  verdict.NewGenerator(backend, st, logger),
		aggregator: literature.NewAggregator(st, backend, cfg.Providers, cfg.HTTP, logger),
		reports:    report.NewSynthesizer(backend, st, logger),
		fetcher:    article.NewFetcher(cfg.HTTP, logger),
		retention:  cfg.Retention,
		logger:     logger,
	}
}

// NewWithStages is the injection point for tests.
func NewWithStages(st *store.Store, ex *extract.Extractor, gen *verdict.Generator,
	agg *literature.Aggregator, rep *report.Synthesizer, retention model.RetentionConfig,
	logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		store: st, extractor: ex, generator: gen, aggregator: agg,
		reports: rep, retention: retention, logger: logger,
	}
}

// Analyze extracts claims from raw text and persists a new analysis.
func (p *Pipeline) Analyze(ctx context.Context, mode model.Mode, text string) (*model.Analysis, []model.Claim, error) {
	analysis, claims, err := p.extractor.Analyze(ctx, mode, text)
	if err != nil {
		return nil, nil, err
	}
	p.logger.Info("analysis created",
		zap.String("analysis_id", analysis.ID),
		zap.String("mode", string(mode)),
		zap.Int("claims", len(claims)))
	return analysis, claims, nil
}

// AnalyzeURL fetches an article and analyzes its visible text.
func (p *Pipeline) AnalyzeURL(ctx context.Context, mode model.Mode, rawURL string) (*model.Analysis, []model.Claim, error) {
	if p.fetcher == nil {
		return nil, nil, fmt.Errorf("pipeline: article fetching not configured")
	}
	text, err := p.fetcher.FetchText(ctx, rawURL)
	if err != nil {
		return nil, nil, err
	}
	return p.Analyze(ctx, mode, text)
}

// Claims returns the stored claims of an analysis.
func (p *Pipeline) Claims(ctx context.Context, analysisID string) (*model.Analysis, []model.Claim, error) {
	analysis, err := p.store.GetAnalysis(ctx, analysisID)
	if err != nil {
		return nil, nil, err
	}
	claims, err := p.store.GetClaims(ctx, analysisID)
	if err != nil {
		return nil, nil, err
	}
	return analysis, claims, nil
}

// Detail returns a claim with its model verdict, generating the verdict on
// first access, plus whatever external verdict and reports already exist.
func (p *Pipeline) Detail(ctx context.Context, analysisID string, ordinal int) (*ClaimDetail, error) {
	analysis, err := p.store.GetAnalysis(ctx, analysisID)
	if err != nil {
		return nil, err
	}
	claim, err := p.store.GetClaim(ctx, analysisID, ordinal)
	if err != nil {
		return nil, err
	}

	mv, err := p.generator.ForClaim(ctx, analysis.Mode, claim.Text)
	if err != nil {
		return nil, err
	}

	detail := &ClaimDetail{Claim: *claim, ModelVerdict: mv}
	if ev, err := p.store.GetExternalVerdict(ctx, claim.Hash); err == nil {
		detail.ExternalVerdict = ev
	}
	if reports, err := p.store.ReportsForClaim(ctx, claim.Hash); err == nil {
		detail.Reports = reports
	}
	return detail, nil
}

// VerifyExternal runs literature verification for one claim.
func (p *Pipeline) VerifyExternal(ctx context.Context, analysisID string, ordinal int) (*model.ExternalVerdict, error) {
	claim, err := p.store.GetClaim(ctx, analysisID, ordinal)
	if err != nil {
		return nil, err
	}
	return p.aggregator.VerifyExternal(ctx, claim.Text)
}

// StreamReport streams a research report for one of the claim's generated
// questions, selected by index.
func (p *Pipeline) StreamReport(ctx context.Context, analysisID string, ordinal, questionIndex int) (<-chan llm.Delta, error) {
	detail, err := p.Detail(ctx, analysisID, ordinal)
	if err != nil {
		return nil, err
	}
	questions := detail.ModelVerdict.Questions
	if questionIndex < 0 || questionIndex >= len(questions) {
		return nil, errs.NotFound("question %d of claim %d (have %d)", questionIndex, ordinal, len(questions))
	}
	return p.reports.Stream(ctx, detail.Claim.Text, questions[questionIndex])
}

// StreamReportFor streams a report for a caller-supplied question.
func (p *Pipeline) StreamReportFor(ctx context.Context, analysisID string, ordinal int, question string) (<-chan llm.Delta, error) {
	claim, err := p.store.GetClaim(ctx, analysisID, ordinal)
	if err != nil {
		return nil, err
	}
	return p.reports.Stream(ctx, claim.Text, question)
}

// AvailableReports returns the cached reports of an analysis grouped by
// claim ordinal. Claims without reports are absent from the map.
func (p *Pipeline) AvailableReports(ctx context.Context, analysisID string) (map[int][]model.Report, error) {
	_, claims, err := p.Claims(ctx, analysisID)
	if err != nil {
		return nil, err
	}
	out := make(map[int][]model.Report)
	for _, claim := range claims {
		reports, err := p.store.ReportsForClaim(ctx, claim.Hash)
		if err != nil {
			return nil, err
		}
		if len(reports) > 0 {
			out[claim.Ordinal] = reports
		}
	}
	return out, nil
}

// VerifyAll generates model verdicts for every claim of an analysis with
// bounded parallelism and returns results in claim order.
func (p *Pipeline) VerifyAll(ctx context.Context, analysisID string, workers int) ([]worker.ClaimResult, error) {
	analysis, err := p.store.GetAnalysis(ctx, analysisID)
	if err != nil {
		return nil, err
	}
	claims, err := p.store.GetClaims(ctx, analysisID)
	if err != nil {
		return nil, err
	}

	pool := worker.NewPool(workers)
	results := pool.VerifyClaims(ctx, claims, func(ctx context.Context, c model.Claim) (*model.ModelVerdict, error) {
		return p.generator.ForClaim(ctx, analysis.Mode, c.Text)
	})

	var failures int
	for _, r := range results {
		if r.Err != nil {
			failures++
		}
	}
	p.logger.Info("analysis verified",
		zap.String("analysis_id", analysisID),
		zap.Int("claims", len(results)),
		zap.Int("failures", failures))
	return results, nil
}

// ExportTo renders the state of an analysis with the given exporter. A nil
// or empty ordinals slice exports every claim; otherwise only the named
// ordinals, and an unknown ordinal is an error.
func (p *Pipeline) ExportTo(ctx context.Context, analysisID string, exporter export.Exporter, w io.Writer, ordinals ...int) error {
	analysis, claims, err := p.Claims(ctx, analysisID)
	if err != nil {
		return err
	}
	if len(ordinals) > 0 {
		byOrdinal := make(map[int]model.Claim, len(claims))
		for _, c := range claims {
			byOrdinal[c.Ordinal] = c
		}
		selected := make([]model.Claim, 0, len(ordinals))
		for _, o := range ordinals {
			c, ok := byOrdinal[o]
			if !ok {
				return errs.NotFound("claim %d in analysis %s", o, analysisID)
			}
			selected = append(selected, c)
		}
		claims = selected
	}

	doc := export.Document{AnalysisID: analysis.ID, Mode: analysis.Mode}
	for _, claim := range claims {
		rec := export.Record{Ordinal: claim.Ordinal, ClaimText: claim.Text}
		if mv, err := p.store.GetModelVerdict(ctx, claim.Hash); err == nil {
			rec.ModelVerdict = mv
		}
		if ev, err := p.store.GetExternalVerdict(ctx, claim.Hash); err == nil {
			rec.ExternalVerdict = ev
		}
		if reports, err := p.store.ReportsForClaim(ctx, claim.Hash); err == nil {
			rec.Reports = reports
		}
		doc.Records = append(doc.Records, rec)
	}
	return exporter.Export(ctx, w, doc)
}

// Cleanup sweeps expired cache entries per the retention policy.
func (p *Pipeline) Cleanup(ctx context.Context) (*store.SweepResult, error) {
	return p.store.Sweep(ctx, p.retention)
}
