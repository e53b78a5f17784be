package worker

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/scicheckagent/scicheck/internal/model"
)

func makeClaims(n int) []model.Claim {
	claims := make([]model.Claim, n)
	for i := range claims {
		claims[i] = model.Claim{Ordinal: i, Text: fmt.Sprintf("claim number %d", i)}
	}
	return claims
}

func TestVerifyClaimsOrdering(t *testing.T) {
	pool := NewPool(4)
	claims := makeClaims(10)

	results := pool.VerifyClaims(context.Background(), claims, func(_ context.Context, c model.Claim) (*model.ModelVerdict, error) {
		return &model.ModelVerdict{Verdict: c.Text}, nil
	})

	if len(results) != 10 {
		t.Fatalf("Expected 10 results, got %d", len(results))
	}
	for i, r := range results {
		if r.Ordinal != i {
			t.Errorf("Result %d: expected ordinal %d, got %d", i, i, r.Ordinal)
		}
		if r.Err != nil {
			t.Errorf("Result %d: unexpected error %v", i, r.Err)
		}
		if r.Verdict.Verdict != claims[i].Text {
			t.Errorf("Result %d: expected verdict for %q, got %q", i, claims[i].Text, r.Verdict.Verdict)
		}
	}
}

func TestVerifyClaimsBoundedParallelism(t *testing.T) {
	const workers = 3
	pool := NewPool(workers)

	var active, peak int64
	results := pool.VerifyClaims(context.Background(), makeClaims(20), func(_ context.Context, _ model.Claim) (*model.ModelVerdict, error) {
		n := atomic.AddInt64(&active, 1)
		for {
			p := atomic.LoadInt64(&peak)
			if n <= p || atomic.CompareAndSwapInt64(&peak, p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt64(&active, -1)
		return &model.ModelVerdict{}, nil
	})

	if len(results) != 20 {
		t.Fatalf("Expected 20 results, got %d", len(results))
	}
	if got := atomic.LoadInt64(&peak); got > workers {
		t.Errorf("Expected at most %d concurrent verifications, observed %d", workers, got)
	}
}

func TestVerifyClaimsIsolatesFailures(t *testing.T) {
	pool := NewPool(2)
	failing := errors.New("backend unavailable")

	results := pool.VerifyClaims(context.Background(), makeClaims(4), func(_ context.Context, c model.Claim) (*model.ModelVerdict, error) {
		if c.Ordinal == 2 {
			return nil, failing
		}
		return &model.ModelVerdict{}, nil
	})

	for i, r := range results {
		if i == 2 {
			if !errors.Is(r.Err, failing) {
				t.Errorf("Expected failure for ordinal 2, got %v", r.Err)
			}
			continue
		}
		if r.Err != nil {
			t.Errorf("Result %d: unexpected error %v", i, r.Err)
		}
	}
}

func TestVerifyClaimsZeroWorkersClamped(t *testing.T) {
	pool := NewPool(0)
	results := pool.VerifyClaims(context.Background(), makeClaims(3), func(_ context.Context, _ model.Claim) (*model.ModelVerdict, error) {
		return &model.ModelVerdict{}, nil
	})
	if len(results) != 3 {
		t.Fatalf("Expected 3 results, got %d", len(results))
	}
}

func TestVerifyClaimsCancelled(t *testing.T) {
	pool := NewPool(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := pool.VerifyClaims(ctx, makeClaims(5), func(ctx context.Context, _ model.Claim) (*model.ModelVerdict, error) {
		return nil, ctx.Err()
	})

	var failed int
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	if failed != 5 {
		t.Errorf("Expected all 5 results to fail under cancelled context, got %d", failed)
	}
}
