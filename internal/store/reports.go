package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/scicheckagent/scicheck/internal/hash"
	"github.com/scicheckagent/scicheck/internal/model"
)

const (
	tableReport = "report_cache"
	tableMedia  = "media_cache"
)

func reportKey(claimHash, questionHash string) string {
	return claimHash + "|" + questionHash
}

// GetReport returns the cached report for a (claim hash, question hash) pair,
// or (nil, nil) on a cache miss.
func (s *Store) GetReport(ctx context.Context, claimHash, questionHash string) (*model.Report, error) {
	key := reportKey(claimHash, questionHash)
	if v, found := s.mem.Get(memKey(tableReport, key)); found {
		r := v.(model.Report)
		return &r, nil
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT question_text, report_text, updated_at
		FROM report_cache WHERE claim_hash = ? AND question_hash = ?`,
		claimHash, questionHash)

	var r model.Report
	var updated int64
	err := row.Scan(&r.Question, &r.Text, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select report: %w", err)
	}

	r.ClaimHash = claimHash
	r.QuestionHash = questionHash
	r.UpdatedAt = time.Unix(updated, 0)

	s.mem.SetDefault(memKey(tableReport, key), r)
	return &r, nil
}

// PutReport upserts a completed report. Callers must only invoke this after a
// stream terminated normally with non-empty content.
func (s *Store) PutReport(ctx context.Context, r model.Report) error {
	r.UpdatedAt = time.Now()
	rqHash := hash.Pair(r.ClaimHash, r.QuestionHash)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO report_cache (rq_hash, claim_hash, question_hash, question_text, report_text, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(rq_hash) DO UPDATE SET
			question_text = excluded.question_text,
			report_text   = excluded.report_text,
			updated_at    = excluded.updated_at`,
		rqHash, r.ClaimHash, r.QuestionHash, r.Question, r.Text, r.UpdatedAt.Unix())
	if err != nil {
		return fmt.Errorf("upsert report: %w", err)
	}

	s.mem.SetDefault(memKey(tableReport, reportKey(r.ClaimHash, r.QuestionHash)), r)
	return nil
}

// ReportsForClaim returns all cached reports for a claim hash.
func (s *Store) ReportsForClaim(ctx context.Context, claimHash string) ([]model.Report, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT question_hash, question_text, report_text, updated_at
		FROM report_cache WHERE claim_hash = ? ORDER BY updated_at`, claimHash)
	if err != nil {
		return nil, fmt.Errorf("select reports: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var reports []model.Report
	for rows.Next() {
		r := model.Report{ClaimHash: claimHash}
		var updated int64
		if err := rows.Scan(&r.QuestionHash, &r.Question, &r.Text, &updated); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		r.UpdatedAt = time.Unix(updated, 0)
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

// GetMedia returns the cached media extraction for a file hash, or (nil, nil)
// on a cache miss.
func (s *Store) GetMedia(ctx context.Context, fileHash string) (*model.MediaEntry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT media_type, extracted_text, created_at
		FROM media_cache WHERE file_hash = ?`, fileHash)

	var e model.MediaEntry
	var kind string
	var created int64
	err := row.Scan(&kind, &e.Text, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select media: %w", err)
	}

	e.FileHash = fileHash
	e.Kind = model.MediaKind(kind)
	e.CreatedAt = time.Unix(created, 0)
	return &e, nil
}

// PutMedia upserts a media extraction result.
func (s *Store) PutMedia(ctx context.Context, e model.MediaEntry) error {
	e.CreatedAt = time.Now()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO media_cache (file_hash, media_type, extracted_text, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(file_hash) DO UPDATE SET
			media_type     = excluded.media_type,
			extracted_text = excluded.extracted_text,
			created_at     = excluded.created_at`,
		e.FileHash, string(e.Kind), e.Text, e.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("upsert media: %w", err)
	}
	return nil
}
