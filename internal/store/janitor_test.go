package store

import (
	"context"
	"testing"
	"time"

	"github.com/scicheckagent/scicheck/internal/hash"
	"github.com/scicheckagent/scicheck/internal/model"
)

// backdate rewrites a table's timestamp column so sweep tests can age rows
// without waiting.
func backdate(t *testing.T, s *Store, table, column string, age time.Duration) {
	t.Helper()
	cutoff := time.Now().Add(-age).Unix()
	if _, err := s.db.Exec("UPDATE "+table+" SET "+column+" = ?", cutoff); err != nil {
		t.Fatalf("backdate %s failed: %v", table, err)
	}
}

func TestSweep_RemovesOnlyExpired(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	newTestAnalysis(t, s, "old")
	if err := s.PutModelVerdict(ctx, model.ModelVerdict{ClaimHash: hash.Text("old claim"), Verdict: "VERIFIED"}); err != nil {
		t.Fatalf("PutModelVerdict failed: %v", err)
	}
	backdate(t, s, "analyses", "last_accessed", 10*24*time.Hour)
	backdate(t, s, "model_cache", "updated_at", 100*24*time.Hour)

	// Fresh rows written after backdating must survive.
	newTestAnalysis(t, s, "fresh")
	if err := s.PutModelVerdict(ctx, model.ModelVerdict{ClaimHash: hash.Text("fresh claim"), Verdict: "VERIFIED"}); err != nil {
		t.Fatalf("PutModelVerdict failed: %v", err)
	}

	res, err := s.Sweep(ctx, model.DefaultConfig().Retention)
	if err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}

	if res.Analyses != 1 {
		t.Errorf("Expected 1 expired analysis removed, got %d", res.Analyses)
	}
	if res.Model != 1 {
		t.Errorf("Expected 1 expired model verdict removed, got %d", res.Model)
	}

	if _, err := s.GetAnalysis(ctx, "fresh"); err != nil {
		t.Errorf("Fresh analysis should survive sweep: %v", err)
	}
	mv, err := s.GetModelVerdict(ctx, hash.Text("fresh claim"))
	if err != nil || mv == nil {
		t.Errorf("Fresh verdict should survive sweep: %v %v", mv, err)
	}
	if mvOld, _ := s.GetModelVerdict(ctx, hash.Text("old claim")); mvOld != nil {
		t.Error("Expired verdict should be gone")
	}
}

func TestSweep_ClaimsCascadeWithAnalysis(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	newTestAnalysis(t, s, "doomed")
	if _, err := s.SaveClaims(ctx, "doomed", []string{"a claim that will cascade away"}); err != nil {
		t.Fatalf("SaveClaims failed: %v", err)
	}
	backdate(t, s, "analyses", "last_accessed", 10*24*time.Hour)

	if _, err := s.Sweep(ctx, model.DefaultConfig().Retention); err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}

	claims, err := s.GetClaims(ctx, "doomed")
	if err != nil {
		t.Fatalf("GetClaims failed: %v", err)
	}
	if len(claims) != 0 {
		t.Errorf("Expected claims to cascade with analysis, got %d", len(claims))
	}
}

func TestSweep_VacuumThreshold(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	ret := model.DefaultConfig().Retention
	ret.VacuumThreshold = 1

	if err := s.PutModelVerdict(ctx, model.ModelVerdict{ClaimHash: hash.Text("x"), Verdict: "VERIFIED"}); err != nil {
		t.Fatalf("PutModelVerdict failed: %v", err)
	}
	backdate(t, s, "model_cache", "updated_at", 100*24*time.Hour)

	res, err := s.Sweep(ctx, ret)
	if err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}
	if !res.Vacuumed {
		t.Error("Expected vacuum to run past threshold")
	}

	// Nothing left to remove: no vacuum.
	res, err = s.Sweep(ctx, ret)
	if err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}
	if res.Total() != 0 || res.Vacuumed {
		t.Errorf("Expected empty idle sweep, got %+v", res)
	}
}

func TestSweep_ZeroHorizonSkipsTable(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	newTestAnalysis(t, s, "kept")
	backdate(t, s, "analyses", "last_accessed", 1000*24*time.Hour)

	ret := model.RetentionConfig{} // all horizons zero
	res, err := s.Sweep(ctx, ret)
	if err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}
	if res.Total() != 0 {
		t.Errorf("Expected zero horizons to disable sweeping, got %+v", res)
	}
}
