package storage

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/rohankatakam/slatewise/internal/errors"
	"github.com/rohankatakam/slatewise/internal/models"
)

const evidenceColumns = `id, game_id, category, source, source_url, headline, snippet,
	full_content, relevance_score, citations, created_at`

const whyFactorColumns = `id, game_id, category, feature_value, contribution, description,
	key_facts, citations, favored_team, uncertainty_flags, created_at`

// Evidence operations

func (s *SQLStore) CreateEvidence(ctx context.Context, ev *models.Evidence) error {
	if ev.GameID == "" {
		return errors.ValidationError("evidence requires a game id")
	}
	if ev.ID == "" {
		ev.ID = newID()
	}
	if ev.Citations == nil {
		ev.Citations = models.StringList{}
	}
	ev.CreatedAt = now()

	query := `INSERT INTO evidence (` + evidenceColumns + `)
		VALUES (:id, :game_id, :category, :source, :source_url, :headline, :snippet,
			:full_content, :relevance_score, :citations, :created_at)`
	if _, err := s.db.NamedExecContext(ctx, query, ev); err != nil {
		return errors.DatabaseError(err, "create evidence")
	}
	return nil
}

// GetEvidence returns a game's evidence in insertion order
func (s *SQLStore) GetEvidence(ctx context.Context, gameID string) ([]*models.Evidence, error) {
	evidence := []*models.Evidence{}
	query := s.q(`SELECT ` + evidenceColumns + ` FROM evidence WHERE game_id = ? ORDER BY seq`)
	if err := s.db.SelectContext(ctx, &evidence, query, gameID); err != nil {
		return nil, errors.DatabaseError(err, "get evidence")
	}
	return evidence, nil
}

// Why factor operations

func (s *SQLStore) ListWhyFactors(ctx context.Context, gameID string) ([]*models.WhyFactor, error) {
	factors := []*models.WhyFactor{}
	query := s.q(`SELECT ` + whyFactorColumns + ` FROM why_factors WHERE game_id = ? ORDER BY seq`)
	if err := s.db.SelectContext(ctx, &factors, query, gameID); err != nil {
		return nil, errors.DatabaseError(err, "list why factors")
	}
	return factors, nil
}

func (s *SQLStore) CreateWhyFactors(ctx context.Context, factors []*models.WhyFactor) error {
	return insertWhyFactors(ctx, s.db, factors)
}

func (s *SQLStore) DeleteWhyFactors(ctx context.Context, gameID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, s.q(`DELETE FROM why_factors WHERE game_id = ?`), gameID)
	if err != nil {
		return 0, errors.DatabaseError(err, "delete why factors")
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// ReplaceWhyFactors swaps a game's why factors atomically
func (s *SQLStore) ReplaceWhyFactors(ctx context.Context, gameID string, factors []*models.WhyFactor) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.DatabaseError(err, "begin transaction")
	}
	defer tx.Rollback()

	if err := replaceWhyFactors(ctx, tx, gameID, factors); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return errors.DatabaseError(err, "commit why factors")
	}
	return nil
}

func replaceWhyFactors(ctx context.Context, tx *sqlx.Tx, gameID string, factors []*models.WhyFactor) error {
	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM why_factors WHERE game_id = ?`), gameID); err != nil {
		return errors.DatabaseError(err, "delete why factors")
	}
	for _, f := range factors {
		f.GameID = gameID
	}
	return insertWhyFactors(ctx, tx, factors)
}

func insertWhyFactors(ctx context.Context, ext sqlx.ExtContext, factors []*models.WhyFactor) error {
	query := `INSERT INTO why_factors (` + whyFactorColumns + `)
		VALUES (:id, :game_id, :category, :feature_value, :contribution, :description,
			:key_facts, :citations, :favored_team, :uncertainty_flags, :created_at)`

	created := now()
	for _, f := range factors {
		if f.GameID == "" {
			return errors.ValidationError("why factor requires a game id")
		}
		if f.ID == "" {
			f.ID = newID()
		}
		if f.KeyFacts == nil {
			f.KeyFacts = models.StringList{}
		}
		if f.Citations == nil {
			f.Citations = models.StringList{}
		}
		if f.UncertaintyFlags == nil {
			f.UncertaintyFlags = models.StringList{}
		}
		f.CreatedAt = created

		if _, err := sqlx.NamedExecContext(ctx, ext, query, f); err != nil {
			return errors.DatabaseError(err, "insert why factor")
		}
	}
	return nil
}
