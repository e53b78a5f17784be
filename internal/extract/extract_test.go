package extract

import (
	"context"
	"testing"
	"time"

	"github.com/scicheckagent/scicheck/internal/llm"
	"github.com/scicheckagent/scicheck/internal/model"
	"github.com/scicheckagent/scicheck/internal/store"
)

type mockBackend struct {
	response string
	err      error
	calls    int
}

func (m *mockBackend) Name() string { return "mock" }

func (m *mockBackend) Complete(_ context.Context, _ llm.CompletionRequest) (string, error) {
	m.calls++
	return m.response, m.err
}

func (m *mockBackend) Stream(_ context.Context, _ llm.CompletionRequest) (<-chan llm.Delta, error) {
	ch := make(chan llm.Delta, 2)
	ch <- llm.Delta{Content: m.response}
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

func TestParseClaimList(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{
			name: "numbered list",
			raw:  "1. Water boils at 100 degrees Celsius at sea level.\n2. The Earth orbits the Sun once per year.",
			want: []string{
				"Water boils at 100 degrees Celsius at sea level.",
				"The Earth orbits the Sun once per year.",
			},
		},
		{
			name: "bare lines",
			raw:  "Water boils at 100 degrees Celsius at sea level.\n\nThe Earth orbits the Sun once per year.",
			want: []string{
				"Water boils at 100 degrees Celsius at sea level.",
				"The Earth orbits the Sun once per year.",
			},
		},
		{
			name: "parenthesis enumerator",
			raw:  "1) Light travels faster than sound in air.",
			want: []string{"Light travels faster than sound in air."},
		},
		{
			name: "drops short lines",
			raw:  "1. Too short\n2. This claim is certainly long enough to keep.",
			want: []string{"This claim is certainly long enough to keep."},
		},
		{
			name: "keeps minimum length line",
			raw:  "Ice floats",
			want: []string{"Ice floats"},
		},
		{
			name: "drops echoed labels",
			raw:  "Output: here are the claims you asked for\nText: the provided input text repeated\nGlass is an amorphous solid rather than a liquid.",
			want: []string{"Glass is an amorphous solid rather than a liquid."},
		},
		{
			name: "sentinel means empty",
			raw:  "No explicit claims found.",
			want: nil,
		},
		{
			name: "sentinel case insensitive",
			raw:  "no explicit claims found.",
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseClaimList(tt.raw)
			if len(got) != len(tt.want) {
				t.Fatalf("Expected %d claims, got %d: %v", len(tt.want), len(got), got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Claim %d: expected %q, got %q", i, tt.want[i], got[i])
				}
			}
		})
	}
}

func TestAnalyzePersistsClaims(t *testing.T) {
	s := openTestStore(t)
	backend := &mockBackend{response: "1. The human genome contains roughly three billion base pairs.\n2. Mitochondria generate most cellular ATP."}
	e := New(backend, s, nil)

	analysis, claims, err := e.Analyze(context.Background(), model.ModeScientific, "some input text")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if analysis.Mode != model.ModeScientific {
		t.Errorf("Expected mode %q, got %q", model.ModeScientific, analysis.Mode)
	}
	if analysis.CreatedAt.IsZero() || analysis.CreatedAt.Unix() <= 0 {
		t.Errorf("Expected recent creation time, got %v", analysis.CreatedAt)
	}
	if analysis.LastAccessed.IsZero() || analysis.LastAccessed.Unix() <= 0 {
		t.Errorf("Expected recent access time, got %v", analysis.LastAccessed)
	}
	if len(claims) != 2 {
		t.Fatalf("Expected 2 claims, got %d", len(claims))
	}
	if backend.calls != 1 {
		t.Errorf("Expected 1 backend call, got %d", backend.calls)
	}

	stored, err := s.GetClaims(context.Background(), analysis.ID)
	if err != nil {
		t.Fatalf("GetClaims failed: %v", err)
	}
	if len(stored) != 2 {
		t.Fatalf("Expected 2 stored claims, got %d", len(stored))
	}
	if stored[0].Hash == "" || stored[1].Hash == "" {
		t.Error("Expected non-empty claim hashes")
	}
}

func TestAnalyzeEmptyResultStillCreatesAnalysis(t *testing.T) {
	s := openTestStore(t)
	backend := &mockBackend{response: "No explicit claims found."}
	e := New(backend, s, nil)

	analysis, claims, err := e.Analyze(context.Background(), model.ModeGeneral, "nothing testable here")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if len(claims) != 0 {
		t.Errorf("Expected 0 claims, got %d", len(claims))
	}
	if _, err := s.GetAnalysis(context.Background(), analysis.ID); err != nil {
		t.Errorf("Expected analysis to exist: %v", err)
	}
}

func TestAnalyzeEmptyInput(t *testing.T) {
	s := openTestStore(t)
	e := New(&mockBackend{}, s, nil)
	if _, _, err := e.Analyze(context.Background(), model.ModeGeneral, "   "); err == nil {
		t.Error("Expected error for empty input")
	}
}
