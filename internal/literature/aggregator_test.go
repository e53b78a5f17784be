package literature

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/scicheckagent/scicheck/internal/hash"
	"github.com/scicheckagent/scicheck/internal/llm"
	"github.com/scicheckagent/scicheck/internal/model"
	"github.com/scicheckagent/scicheck/internal/prompt"
	"github.com/scicheckagent/scicheck/internal/store"
)

type fakeProvider struct {
	name    string
	results []model.Source
	err     error
	calls   int
	gotKw   []string
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Search(_ context.Context, keywords []string, _ int) ([]model.Source, error) {
	f.calls++
	f.gotKw = keywords
	return f.results, f.err
}

type synthBackend struct {
	response string
	calls    int
}

func (b *synthBackend) Name() string { return "synth" }

func (b *synthBackend) Complete(_ context.Context, _ llm.CompletionRequest) (string, error) {
	b.calls++
	return b.response, nil
}

func (b *synthBackend) Stream(_ context.Context, _ llm.CompletionRequest) (<-chan llm.Delta, error) {
	ch := make(chan llm.Delta, 2)
	ch <- llm.Delta{Content: b.response}
	ch <- llm.Delta{Done: true}
	close(ch)
	return ch, nil
}

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(t.TempDir()+"/test.db", time.Minute, nil)
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestVerifyExternalMergesAndDedupes(t *testing.T) {
	s := openTestStore(t)
	first := &fakeProvider{name: "first", results: []model.Source{
		{Title: "Paper A", URL: "https://example.org/a", Provider: "first"},
		{Title: "Paper B", URL: "https://example.org/b", Provider: "first"},
	}}
	second := &fakeProvider{name: "second", results: []model.Source{
		{Title: "Paper A again", URL: "https://example.org/a", Provider: "second"},
	}}
	backend := &synthBackend{response: "SUPPORTED. Both papers agree with the claim."}
	a := NewAggregatorWithProviders(s, backend, []Provider{first, second}, 3, nil)

	v, err := a.VerifyExternal(context.Background(), "Some claim about materials science.")
	if err != nil {
		t.Fatalf("VerifyExternal failed: %v", err)
	}
	if len(v.Sources) != 2 {
		t.Fatalf("Expected 2 deduped sources, got %d", len(v.Sources))
	}
	if v.Sources[0].Provider != "first" || v.Sources[1].Provider != "first" {
		t.Errorf("Expected first provider's records to win, got %v", v.Sources)
	}
	if v.Verdict != backend.response {
		t.Errorf("Expected synthesis text as verdict, got %q", v.Verdict)
	}
}

func TestVerifyExternalNoURLNeverCollides(t *testing.T) {
	s := openTestStore(t)
	p := &fakeProvider{name: "p", results: []model.Source{
		{Title: "Record without link one"},
		{Title: "Record without link two"},
	}}
	a := NewAggregatorWithProviders(s, &synthBackend{response: "ok"}, []Provider{p}, 3, nil)

	v, err := a.VerifyExternal(context.Background(), "A claim with linkless evidence.")
	if err != nil {
		t.Fatalf("VerifyExternal failed: %v", err)
	}
	if len(v.Sources) != 2 {
		t.Errorf("Expected both linkless records kept, got %d", len(v.Sources))
	}
}

func TestVerifyExternalEmptyRosterSentinel(t *testing.T) {
	s := openTestStore(t)
	p := &fakeProvider{name: "empty"}
	backend := &synthBackend{response: "should not be called"}
	a := NewAggregatorWithProviders(s, backend, []Provider{p}, 3, nil)

	v, err := a.VerifyExternal(context.Background(), "A claim no database knows about.")
	if err != nil {
		t.Fatalf("VerifyExternal failed: %v", err)
	}
	if v.Verdict != prompt.NoEvidenceSentinel {
		t.Errorf("Expected sentinel verdict, got %q", v.Verdict)
	}
	if backend.calls != 0 {
		t.Errorf("Expected no synthesis call for empty evidence, got %d", backend.calls)
	}
}

func TestVerifyExternalCaches(t *testing.T) {
	s := openTestStore(t)
	p := &fakeProvider{name: "p", results: []model.Source{{Title: "Paper", URL: "https://example.org/p"}}}
	a := NewAggregatorWithProviders(s, &synthBackend{response: "ok"}, []Provider{p}, 3, nil)

	claim := "A cached claim about photosynthesis."
	if _, err := a.VerifyExternal(context.Background(), claim); err != nil {
		t.Fatalf("VerifyExternal failed: %v", err)
	}
	if _, err := a.VerifyExternal(context.Background(), claim); err != nil {
		t.Fatalf("Cached VerifyExternal failed: %v", err)
	}
	if p.calls != 1 {
		t.Errorf("Expected 1 provider call, got %d", p.calls)
	}
}

func TestVerifyExternalProviderFailureIsolated(t *testing.T) {
	s := openTestStore(t)
	broken := &fakeProvider{name: "broken", err: errors.New("503 from upstream")}
	working := &fakeProvider{name: "working", results: []model.Source{{Title: "Paper", URL: "https://example.org/w"}}}
	a := NewAggregatorWithProviders(s, &synthBackend{response: "ok"}, []Provider{broken, working}, 3, nil)

	v, err := a.VerifyExternal(context.Background(), "A claim that survives one provider outage.")
	if err != nil {
		t.Fatalf("VerifyExternal failed: %v", err)
	}
	if len(v.Sources) != 1 {
		t.Errorf("Expected the working provider's result, got %d sources", len(v.Sources))
	}
	if working.calls != 1 {
		t.Errorf("Expected roster walk to continue past the failure, got %d calls", working.calls)
	}
}

func TestVerifyExternalUsesModelKeywords(t *testing.T) {
	s := openTestStore(t)
	claim := "Graphene conducts electricity better than copper."
	mv := model.ModelVerdict{
		ClaimHash: hash.Text(claim),
		Verdict:   "VERIFIED",
		Keywords:  []string{"graphene", "conductivity", "copper"},
	}
	if err := s.PutModelVerdict(context.Background(), mv); err != nil {
		t.Fatalf("PutModelVerdict failed: %v", err)
	}

	p := &fakeProvider{name: "p", results: []model.Source{{Title: "Paper", URL: "https://example.org/g"}}}
	a := NewAggregatorWithProviders(s, &synthBackend{response: "ok"}, []Provider{p}, 3, nil)

	if _, err := a.VerifyExternal(context.Background(), claim); err != nil {
		t.Fatalf("VerifyExternal failed: %v", err)
	}
	if len(p.gotKw) != 3 || p.gotKw[0] != "graphene" {
		t.Errorf("Expected model verdict keywords, got %v", p.gotKw)
	}
}

func TestDedupeByURLKeepsOrder(t *testing.T) {
	in := []model.Source{
		{Title: "A", URL: "https://x/1"},
		{Title: "B", URL: "https://x/2"},
		{Title: "A dup", URL: "https://x/1"},
		{Title: "C"},
	}
	out := dedupeByURL(in)
	if len(out) != 3 {
		t.Fatalf("Expected 3 sources, got %d", len(out))
	}
	if out[0].Title != "A" || out[1].Title != "B" || out[2].Title != "C" {
		t.Errorf("Unexpected order: %v", out)
	}
}
