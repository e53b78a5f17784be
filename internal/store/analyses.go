package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/scicheckagent/scicheck/internal/errs"
	"github.com/scicheckagent/scicheck/internal/hash"
	"github.com/scicheckagent/scicheck/internal/model"
)

// CreateAnalysis persists a new analysis record.
func (s *Store) CreateAnalysis(ctx context.Context, a model.Analysis) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO analyses (analysis_id, mode, created_at, last_accessed)
		VALUES (?, ?, ?, ?)`,
		a.ID, string(a.Mode), a.CreatedAt.Unix(), a.LastAccessed.Unix())
	if err != nil {
		return fmt.Errorf("insert analysis: %w", err)
	}
	return nil
}

// GetAnalysis returns the analysis for id and bumps its last-access time so
// the retention sweep sees it as live.
func (s *Store) GetAnalysis(ctx context.Context, id string) (*model.Analysis, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT analysis_id, mode, created_at, last_accessed
		FROM analyses WHERE analysis_id = ?`, id)

	var a model.Analysis
	var mode string
	var created, accessed int64
	if err := row.Scan(&a.ID, &mode, &created, &accessed); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errs.NotFound("analysis %s", id)
		}
		return nil, fmt.Errorf("select analysis: %w", err)
	}
	a.Mode = model.Mode(mode)
	a.CreatedAt = time.Unix(created, 0)
	a.LastAccessed = time.Unix(accessed, 0)

	_, err := s.db.ExecContext(ctx,
		`UPDATE analyses SET last_accessed = ? WHERE analysis_id = ?`,
		time.Now().Unix(), id)
	if err != nil {
		return nil, fmt.Errorf("touch analysis: %w", err)
	}

	return &a, nil
}

// SaveClaims replaces the claim list for an analysis in one transaction,
// ordinal-ordered and content-hashed.
func (s *Store) SaveClaims(ctx context.Context, analysisID string, texts []string) ([]model.Claim, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM claims WHERE analysis_id = ?`, analysisID); err != nil {
		return nil, fmt.Errorf("clear claims: %w", err)
	}

	now := time.Now().Unix()
	claims := make([]model.Claim, 0, len(texts))
	for i, text := range texts {
		c := model.Claim{
			AnalysisID: analysisID,
			Ordinal:    i,
			Text:       text,
			Hash:       hash.Text(text),
		}
		claimID := hash.Bytes([]byte(fmt.Sprintf("%s|%d|%s", analysisID, i, text)))
		_, err := tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO claims (claim_id, analysis_id, ordinal, claim_text, claim_hash, created_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			claimID, analysisID, i, text, c.Hash, now)
		if err != nil {
			return nil, fmt.Errorf("insert claim %d: %w", i, err)
		}
		claims = append(claims, c)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit claims: %w", err)
	}
	return claims, nil
}

// GetClaims returns all claims for an analysis in ordinal order.
func (s *Store) GetClaims(ctx context.Context, analysisID string) ([]model.Claim, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT analysis_id, ordinal, claim_text, claim_hash
		FROM claims WHERE analysis_id = ? ORDER BY ordinal`, analysisID)
	if err != nil {
		return nil, fmt.Errorf("select claims: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var claims []model.Claim
	for rows.Next() {
		var c model.Claim
		if err := rows.Scan(&c.AnalysisID, &c.Ordinal, &c.Text, &c.Hash); err != nil {
			return nil, fmt.Errorf("scan claim: %w", err)
		}
		claims = append(claims, c)
	}
	return claims, rows.Err()
}

// GetClaim returns the claim at ordinal within an analysis.
func (s *Store) GetClaim(ctx context.Context, analysisID string, ordinal int) (*model.Claim, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT analysis_id, ordinal, claim_text, claim_hash
		FROM claims WHERE analysis_id = ? AND ordinal = ?`, analysisID, ordinal)

	var c model.Claim
	if err := row.Scan(&c.AnalysisID, &c.Ordinal, &c.Text, &c.Hash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errs.NotFound("claim %d in analysis %s", ordinal, analysisID)
		}
		return nil, fmt.Errorf("select claim: %w", err)
	}
	return &c, nil
}
