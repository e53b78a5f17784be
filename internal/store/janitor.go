package store

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/scicheckagent/scicheck/internal/model"
)

// SweepResult reports how many rows each table lost during a sweep.
type SweepResult struct {
	Media    int64
	Analyses int64
	Model    int64
	External int64
	Reports  int64
	Vacuumed bool
}

// Total returns the number of rows removed across all tables.
func (r SweepResult) Total() int64 {
	return r.Media + r.Analyses + r.Model + r.External + r.Reports
}

// Sweep deletes entries past each table's retention horizon. Deletion is
// unconditional past the horizon; claims ride along with their analysis via
// the cascading foreign key. When the sweep removed at least the configured
// threshold of rows, a VACUUM pass reclaims space.
func (s *Store) Sweep(ctx context.Context, ret model.RetentionConfig) (*SweepResult, error) {
	now := time.Now()
	res := &SweepResult{}

	sweeps := []struct {
		query   string
		horizon time.Duration
		count   *int64
	}{
		{`DELETE FROM media_cache WHERE created_at < ?`, ret.Media, &res.Media},
		{`DELETE FROM analyses WHERE last_accessed < ?`, ret.Analyses, &res.Analyses},
		{`DELETE FROM model_cache WHERE updated_at < ?`, ret.Model, &res.Model},
		{`DELETE FROM external_cache WHERE updated_at < ?`, ret.External, &res.External},
		{`DELETE FROM report_cache WHERE updated_at < ?`, ret.Report, &res.Reports},
	}

	for _, sw := range sweeps {
		if sw.horizon <= 0 {
			continue
		}
		cutoff := now.Add(-sw.horizon).Unix()
		out, err := s.db.ExecContext(ctx, sw.query, cutoff)
		if err != nil {
			return nil, fmt.Errorf("sweep: %w", err)
		}
		n, err := out.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("sweep rows affected: %w", err)
		}
		*sw.count = n
	}

	// Swept rows may still sit in the memory layer; drop it wholesale rather
	// than tracking which keys died.
	if res.Total() > 0 {
		s.mem.Flush()
	}

	s.logger.Info("cache sweep completed",
		zap.Int64("media", res.Media),
		zap.Int64("analyses", res.Analyses),
		zap.Int64("model", res.Model),
		zap.Int64("external", res.External),
		zap.Int64("reports", res.Reports))

	if ret.VacuumThreshold > 0 && res.Total() >= int64(ret.VacuumThreshold) {
		if _, err := s.db.ExecContext(ctx, "VACUUM"); err != nil {
			// Compaction is an optimization, not a correctness requirement.
			s.logger.Warn("vacuum failed", zap.Error(err))
		} else {
			res.Vacuumed = true
			s.logger.Info("database vacuum performed")
		}
	}

	return res, nil
}
