package storage

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rohankatakam/slatewise/internal/errors"
	"github.com/rohankatakam/slatewise/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

// SQLStore implements Store on top of sqlx for both PostgreSQL and SQLite.
// Queries are written with ? placeholders and rebound per driver.
type SQLStore struct {
	db      *sqlx.DB
	dialect string
	logger  *logrus.Logger
}

var _ Store = (*SQLStore)(nil)

// NewPostgresStore creates a new PostgreSQL storage
func NewPostgresStore(dsn string, logger *logrus.Logger) (*SQLStore, error) {
	db, err := sqlx.Connect("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &SQLStore{db: db, dialect: DialectPostgres, logger: orDefault(logger)}, nil
}

// NewSQLiteStore creates a new SQLite storage. path may be ":memory:".
func NewSQLiteStore(path string, logger *logrus.Logger) (*SQLStore, error) {
	dsn := "file::memory:?_foreign_keys=on"
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
		dsn = fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL", path)
	}

	db, err := sqlx.Connect("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to sqlite: %w", err)
	}

	// SQLite allows a single writer; one connection also keeps an
	// in-memory database alive across calls.
	db.SetMaxOpenConns(1)

	return &SQLStore{db: db, dialect: DialectSQLite, logger: orDefault(logger)}, nil
}

func orDefault(logger *logrus.Logger) *logrus.Logger {
	if logger == nil {
		return logrus.StandardLogger()
	}
	return logger
}

// Dialect returns "postgres" or "sqlite"
func (s *SQLStore) Dialect() string {
	return s.dialect
}

// Migrate creates tables and indexes if they do not exist
func (s *SQLStore) Migrate(ctx context.Context) error {
	schema := sqliteSchema
	if s.dialect == DialectPostgres {
		schema = postgresSchema
	}

	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return errors.DatabaseError(err, "migrate schema")
		}
	}

	s.logger.WithField("dialect", s.dialect).Debug("schema migrated")
	return nil
}

// Ping checks the connection
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection
func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) q(query string) string {
	return s.db.Rebind(query)
}

func now() time.Time {
	return time.Now().UTC()
}

func newID() string {
	return uuid.New().String()
}

// Slate operations

func (s *SQLStore) CreateSlate(ctx context.Context, slate *models.Slate) error {
	if strings.TrimSpace(slate.Name) == "" {
		return errors.ValidationError("slate name is required")
	}
	if slate.ID == "" {
		slate.ID = newID()
	}
	slate.CreatedAt = now()

	query := `
		INSERT INTO slates (id, name, sport, week_label, created_at)
		VALUES (:id, :name, :sport, :week_label, :created_at)
	`
	if _, err := s.db.NamedExecContext(ctx, query, slate); err != nil {
		return errors.DatabaseError(err, "create slate")
	}
	return nil
}

func (s *SQLStore) GetSlate(ctx context.Context, id string) (*models.Slate, error) {
	var slate models.Slate
	err := s.db.GetContext(ctx, &slate, s.q(`SELECT * FROM slates WHERE id = ?`), id)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NotFoundf("slate %s not found", id)
		}
		return nil, errors.DatabaseError(err, "get slate")
	}
	return &slate, nil
}

func (s *SQLStore) ListSlates(ctx context.Context) ([]*models.Slate, error) {
	slates := []*models.Slate{}
	err := s.db.SelectContext(ctx, &slates, `SELECT * FROM slates ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, errors.DatabaseError(err, "list slates")
	}
	return slates, nil
}

func (s *SQLStore) DeleteSlate(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.q(`DELETE FROM slates WHERE id = ?`), id)
	if err != nil {
		return errors.DatabaseError(err, "delete slate")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NotFoundf("slate %s not found", id)
	}
	return nil
}

// Game operations

func (s *SQLStore) CreateGame(ctx context.Context, game *models.Game) error {
	if strings.TrimSpace(game.HomeTeam) == "" || strings.TrimSpace(game.AwayTeam) == "" {
		return errors.ValidationError("home and away team are required")
	}
	if game.ID == "" {
		game.ID = newID()
	}
	if game.Status == "" {
		game.Status = models.StatusPending
	}
	game.CreatedAt = now()
	game.UpdatedAt = game.CreatedAt

	query := `
		INSERT INTO games (id, slate_id, home_team, away_team, home_canonical, away_canonical,
			kickoff_at, spread, spread_favored, total, home_moneyline, away_moneyline,
			pick, pick_line, confidence_low, confidence_high, status, framework_version,
			created_at, updated_at)
		VALUES (:id, :slate_id, :home_team, :away_team, :home_canonical, :away_canonical,
			:kickoff_at, :spread, :spread_favored, :total, :home_moneyline, :away_moneyline,
			:pick, :pick_line, :confidence_low, :confidence_high, :status, :framework_version,
			:created_at, :updated_at)
	`
	if _, err := s.db.NamedExecContext(ctx, query, game); err != nil {
		return errors.DatabaseError(err, "create game")
	}
	return nil
}

func (s *SQLStore) GetGame(ctx context.Context, id string) (*models.Game, error) {
	var game models.Game
	err := s.db.GetContext(ctx, &game, s.q(`SELECT * FROM games WHERE id = ?`), id)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NotFoundf("game %s not found", id)
		}
		return nil, errors.DatabaseError(err, "get game")
	}
	return &game, nil
}

func (s *SQLStore) ListGamesBySlate(ctx context.Context, slateID string) ([]*models.Game, error) {
	games := []*models.Game{}
	query := s.q(`SELECT * FROM games WHERE slate_id = ? ORDER BY kickoff_at, created_at, id`)
	if err := s.db.SelectContext(ctx, &games, query, slateID); err != nil {
		return nil, errors.DatabaseError(err, "list games")
	}
	return games, nil
}

// UpdateGame applies the non-nil fields of update and returns the stored game
func (s *SQLStore) UpdateGame(ctx context.Context, id string, update models.GameUpdate) (*models.Game, error) {
	if err := s.updateGame(ctx, s.db, id, update); err != nil {
		return nil, err
	}
	return s.GetGame(ctx, id)
}

// PersistAnalysis writes an analysis outcome and the game's replacement
// why factors in one transaction. Either both land or neither does.
func (s *SQLStore) PersistAnalysis(ctx context.Context, id string, update models.GameUpdate, factors []*models.WhyFactor) (*models.Game, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, errors.DatabaseError(err, "begin transaction")
	}
	defer tx.Rollback()

	if err := s.updateGame(ctx, tx, id, update); err != nil {
		return nil, err
	}
	if err := replaceWhyFactors(ctx, tx, id, factors); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, errors.DatabaseError(err, "commit analysis")
	}
	return s.GetGame(ctx, id)
}

func (s *SQLStore) updateGame(ctx context.Context, ext sqlx.ExecerContext, id string, update models.GameUpdate) error {
	var sets []string
	var args []interface{}
	set := func(column string, value interface{}) {
		sets = append(sets, column+" = ?")
		args = append(args, value)
	}

	if update.HomeTeam != nil {
		name := strings.TrimSpace(*update.HomeTeam)
		if name == "" {
			return errors.ValidationError("home team cannot be empty")
		}
		set("home_team", name)
	}
	if update.AwayTeam != nil {
		name := strings.TrimSpace(*update.AwayTeam)
		if name == "" {
			return errors.ValidationError("away team cannot be empty")
		}
		set("away_team", name)
	}
	if update.Spread != nil {
		set("spread", *update.Spread)
	}
	if update.SpreadFavored != nil {
		set("spread_favored", *update.SpreadFavored)
	}
	if update.Total != nil {
		set("total", *update.Total)
	}
	if update.HomeMoneyline != nil {
		set("home_moneyline", *update.HomeMoneyline)
	}
	if update.AwayMoneyline != nil {
		set("away_moneyline", *update.AwayMoneyline)
	}

	if update.ClearPick {
		set("pick", nil)
		set("pick_line", nil)
		set("confidence_low", nil)
		set("confidence_high", nil)
	} else {
		if update.Pick != nil {
			set("pick", *update.Pick)
		}
		if update.PickLine != nil {
			set("pick_line", *update.PickLine)
		}
		if update.ConfidenceLow != nil {
			set("confidence_low", *update.ConfidenceLow)
		}
		if update.ConfidenceHigh != nil {
			set("confidence_high", *update.ConfidenceHigh)
		}
	}
	if update.Status != nil {
		if !update.Status.Valid() {
			return errors.ValidationErrorf("invalid game status %q", *update.Status)
		}
		set("status", string(*update.Status))
	}
	if update.FrameworkVersion != nil {
		set("framework_version", *update.FrameworkVersion)
	}
	set("updated_at", now())

	args = append(args, id)
	query := s.q(fmt.Sprintf(`UPDATE games SET %s WHERE id = ?`, strings.Join(sets, ", ")))

	res, err := ext.ExecContext(ctx, query, args...)
	if err != nil {
		return errors.DatabaseError(err, "update game")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NotFoundf("game %s not found", id)
	}
	return nil
}

func (s *SQLStore) DeleteGame(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.q(`DELETE FROM games WHERE id = ?`), id)
	if err != nil {
		return errors.DatabaseError(err, "delete game")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NotFoundf("game %s not found", id)
	}
	return nil
}
