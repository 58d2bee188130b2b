package storage

import (
	"context"
	"database/sql"
	stderrors "errors"
	"strings"

	"github.com/rohankatakam/slatewise/internal/errors"
	"github.com/rohankatakam/slatewise/internal/models"
)

// Framework operations

// CreateFramework stores fw with version = max(version)+1. fw.IsActive is
// honoured by deactivating every other framework in the same transaction.
func (s *SQLStore) CreateFramework(ctx context.Context, fw *models.Framework) error {
	if strings.TrimSpace(fw.Name) == "" {
		return errors.ValidationError("framework name is required")
	}
	for factor, weight := range fw.Weights {
		if weight < 0 || weight > 100 {
			return errors.ValidationErrorf("weight for %s must be between 0 and 100, got %v", factor, weight)
		}
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.DatabaseError(err, "begin transaction")
	}
	defer tx.Rollback()

	var maxVersion sql.NullInt64
	if err := tx.GetContext(ctx, &maxVersion, `SELECT MAX(version) FROM frameworks`); err != nil {
		return errors.DatabaseError(err, "read framework version")
	}

	if fw.ID == "" {
		fw.ID = newID()
	}
	if fw.Weights == nil {
		fw.Weights = models.Weights{}
	}
	if fw.Rules == nil {
		fw.Rules = models.StringList{}
	}
	fw.Version = int(maxVersion.Int64) + 1
	fw.CreatedAt = now()

	if fw.IsActive {
		if _, err := tx.ExecContext(ctx, tx.Rebind(`UPDATE frameworks SET is_active = ? WHERE is_active = ?`), false, true); err != nil {
			return errors.DatabaseError(err, "deactivate frameworks")
		}
	}

	query := `
		INSERT INTO frameworks (id, name, weights, rules, version, is_active, created_at)
		VALUES (:id, :name, :weights, :rules, :version, :is_active, :created_at)
	`
	if _, err := tx.NamedExecContext(ctx, query, fw); err != nil {
		return errors.DatabaseError(err, "create framework")
	}

	if err := tx.Commit(); err != nil {
		return errors.DatabaseError(err, "commit framework")
	}
	return nil
}

func (s *SQLStore) GetFramework(ctx context.Context, id string) (*models.Framework, error) {
	var fw models.Framework
	err := s.db.GetContext(ctx, &fw, s.q(`SELECT * FROM frameworks WHERE id = ?`), id)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NotFoundf("framework %s not found", id)
		}
		return nil, errors.DatabaseError(err, "get framework")
	}
	return &fw, nil
}

func (s *SQLStore) ListFrameworks(ctx context.Context) ([]*models.Framework, error) {
	frameworks := []*models.Framework{}
	if err := s.db.SelectContext(ctx, &frameworks, `SELECT * FROM frameworks ORDER BY version`); err != nil {
		return nil, errors.DatabaseError(err, "list frameworks")
	}
	return frameworks, nil
}

func (s *SQLStore) GetActiveFramework(ctx context.Context) (*models.Framework, error) {
	var fw models.Framework
	query := s.q(`SELECT * FROM frameworks WHERE is_active = ? ORDER BY version DESC LIMIT 1`)
	if err := s.db.GetContext(ctx, &fw, query, true); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NotFound("no active framework")
		}
		return nil, errors.DatabaseError(err, "get active framework")
	}
	return &fw, nil
}

// ActivateFramework makes id the only active framework
func (s *SQLStore) ActivateFramework(ctx context.Context, id string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.DatabaseError(err, "begin transaction")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, tx.Rebind(`UPDATE frameworks SET is_active = ? WHERE is_active = ?`), false, true); err != nil {
		return errors.DatabaseError(err, "deactivate frameworks")
	}

	res, err := tx.ExecContext(ctx, tx.Rebind(`UPDATE frameworks SET is_active = ? WHERE id = ?`), true, id)
	if err != nil {
		return errors.DatabaseError(err, "activate framework")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NotFoundf("framework %s not found", id)
	}

	if err := tx.Commit(); err != nil {
		return errors.DatabaseError(err, "commit activation")
	}
	return nil
}
