package storage

import (
	"context"

	"github.com/rohankatakam/slatewise/internal/errors"
	"github.com/rohankatakam/slatewise/internal/models"
)

// Common errors
var (
	// ErrNotFound matches every not-found error returned by the store via errors.Is
	ErrNotFound = errors.NotFound("not found")
)

// SlateStore persists slates
type SlateStore interface {
	CreateSlate(ctx context.Context, slate *models.Slate) error
	GetSlate(ctx context.Context, id string) (*models.Slate, error)
	ListSlates(ctx context.Context) ([]*models.Slate, error)
	DeleteSlate(ctx context.Context, id string) error
}

// GameStore persists games and their current pick
type GameStore interface {
	CreateGame(ctx context.Context, game *models.Game) error
	GetGame(ctx context.Context, id string) (*models.Game, error)
	ListGamesBySlate(ctx context.Context, slateID string) ([]*models.Game, error)
	UpdateGame(ctx context.Context, id string, update models.GameUpdate) (*models.Game, error)
	// PersistAnalysis applies update and replaces the game's why factors in one transaction
	PersistAnalysis(ctx context.Context, id string, update models.GameUpdate, factors []*models.WhyFactor) (*models.Game, error)
	DeleteGame(ctx context.Context, id string) error
}

// EvidenceStore persists research evidence and the why-factor breakdown per game
type EvidenceStore interface {
	CreateEvidence(ctx context.Context, ev *models.Evidence) error
	GetEvidence(ctx context.Context, gameID string) ([]*models.Evidence, error)

	ListWhyFactors(ctx context.Context, gameID string) ([]*models.WhyFactor, error)
	CreateWhyFactors(ctx context.Context, factors []*models.WhyFactor) error
	DeleteWhyFactors(ctx context.Context, gameID string) (int64, error)
	// ReplaceWhyFactors deletes and inserts inside one transaction
	ReplaceWhyFactors(ctx context.Context, gameID string, factors []*models.WhyFactor) error
}

// FrameworkStore persists versioned weight frameworks
type FrameworkStore interface {
	// CreateFramework assigns the next version number
	CreateFramework(ctx context.Context, fw *models.Framework) error
	GetFramework(ctx context.Context, id string) (*models.Framework, error)
	ListFrameworks(ctx context.Context) ([]*models.Framework, error)
	// GetActiveFramework returns ErrNotFound when no framework is active
	GetActiveFramework(ctx context.Context) (*models.Framework, error)
	ActivateFramework(ctx context.Context, id string) error
}

// Store defines the storage interface
type Store interface {
	SlateStore
	GameStore
	EvidenceStore
	FrameworkStore

	// Migrate creates the schema if it does not exist
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
