package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/scicheckagent/scicheck/internal/model"
)

const (
	tableModel    = "model_cache"
	tableExternal = "external_cache"
)

// GetModelVerdict returns the cached model verdict for a claim hash, or
// (nil, nil) on a cache miss.
func (s *Store) GetModelVerdict(ctx context.Context, claimHash string) (*model.ModelVerdict, error) {
	if v, found := s.mem.Get(memKey(tableModel, claimHash)); found {
		mv := v.(model.ModelVerdict)
		return &mv, nil
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT verdict, justification, sources_json, keywords_json, questions_json, updated_at
		FROM model_cache WHERE claim_hash = ?`, claimHash)

	var mv model.ModelVerdict
	var sources, keywords, questions string
	var updated int64
	err := row.Scan(&mv.Verdict, &mv.Justification, &sources, &keywords, &questions, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select model verdict: %w", err)
	}

	mv.ClaimHash = claimHash
	mv.Sources = unmarshalJSON(sources, []string(nil))
	mv.Keywords = unmarshalJSON(keywords, []string(nil))
	mv.Questions = unmarshalJSON(questions, []string(nil))
	mv.UpdatedAt = time.Unix(updated, 0)

	s.mem.SetDefault(memKey(tableModel, claimHash), mv)
	return &mv, nil
}

// PutModelVerdict upserts the model verdict for a claim hash, unconditionally
// overwriting any stale value.
func (s *Store) PutModelVerdict(ctx context.Context, mv model.ModelVerdict) error {
	mv.UpdatedAt = time.Now()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO model_cache (claim_hash, verdict, justification, sources_json, keywords_json, questions_json, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(claim_hash) DO UPDATE SET
			verdict        = excluded.verdict,
			justification  = excluded.justification,
			sources_json   = excluded.sources_json,
			keywords_json  = excluded.keywords_json,
			questions_json = excluded.questions_json,
			updated_at     = excluded.updated_at`,
		mv.ClaimHash, mv.Verdict, mv.Justification,
		marshalJSON(mv.Sources), marshalJSON(mv.Keywords), marshalJSON(mv.Questions),
		mv.UpdatedAt.Unix())
	if err != nil {
		return fmt.Errorf("upsert model verdict: %w", err)
	}

	s.mem.SetDefault(memKey(tableModel, mv.ClaimHash), mv)
	return nil
}

// GetExternalVerdict returns the cached external verdict for a claim hash, or
// (nil, nil) on a cache miss.
func (s *Store) GetExternalVerdict(ctx context.Context, claimHash string) (*model.ExternalVerdict, error) {
	if v, found := s.mem.Get(memKey(tableExternal, claimHash)); found {
		ev := v.(model.ExternalVerdict)
		return &ev, nil
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT verdict, sources_json, updated_at
		FROM external_cache WHERE claim_hash = ?`, claimHash)

	var ev model.ExternalVerdict
	var sources string
	var updated int64
	err := row.Scan(&ev.Verdict, &sources, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select external verdict: %w", err)
	}

	ev.ClaimHash = claimHash
	ev.Sources = unmarshalJSON(sources, []model.Source(nil))
	ev.UpdatedAt = time.Unix(updated, 0)

	s.mem.SetDefault(memKey(tableExternal, claimHash), ev)
	return &ev, nil
}

// PutExternalVerdict upserts the external verdict for a claim hash.
func (s *Store) PutExternalVerdict(ctx context.Context, ev model.ExternalVerdict) error {
	ev.UpdatedAt = time.Now()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO external_cache (claim_hash, verdict, sources_json, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(claim_hash) DO UPDATE SET
			verdict      = excluded.verdict,
			sources_json = excluded.sources_json,
			updated_at   = excluded.updated_at`,
		ev.ClaimHash, ev.Verdict, marshalJSON(ev.Sources), ev.UpdatedAt.Unix())
	if err != nil {
		return fmt.Errorf("upsert external verdict: %w", err)
	}

	s.mem.SetDefault(memKey(tableExternal, ev.ClaimHash), ev)
	return nil
}
