// Package worker runs per-claim verification with bounded parallelism.
package worker

import (
	"context"
	"sync"

	"github.com/scicheckagent/scicheck/internal/model"
)

// VerifyFunc produces a verdict for one claim.
type VerifyFunc func(ctx context.Context, claim model.Claim) (*model.ModelVerdict, error)

// ClaimResult is the outcome of verifying one claim. Ordinal matches the
// claim's position in the analysis.
type ClaimResult struct {
	Ordinal int
	Verdict *model.ModelVerdict
	Err     error
}

// Pool fans claims out to a fixed number of workers.
type Pool struct {
	workers int
}

// NewPool returns a Pool with at least one worker.
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	return &Pool{workers: workers}
}

// VerifyClaims runs fn for every claim and returns the results ordered by
// claim ordinal. Individual failures land in their result's Err; context
// cancellation stops the pool from picking up further claims, and skipped
// claims carry the context error.
func (p *Pool) VerifyClaims(ctx context.Context, claims []model.Claim, fn VerifyFunc) []ClaimResult {
	results := make([]ClaimResult, len(claims))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < p.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				v, err := fn(ctx, claims[i])
				results[i] = ClaimResult{Ordinal: claims[i].Ordinal, Verdict: v, Err: err}
			}
		}()
	}

	for i := range claims {
		select {
		case <-ctx.Done():
			results[i] = ClaimResult{Ordinal: claims[i].Ordinal, Err: ctx.Err()}
			continue
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	return results
}
