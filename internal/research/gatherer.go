// Package research asks the configured LLM for matchup findings and stores
// them as evidence for the analysis engine.
package research

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rohankatakam/slatewise/internal/errors"
	"github.com/rohankatakam/slatewise/internal/models"
	"github.com/rohankatakam/slatewise/internal/storage"
)

// Completer is the JSON completion service findings come from
type Completer interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Store is the slice of storage the gatherer needs
type Store interface {
	GetGame(ctx context.Context, id string) (*models.Game, error)
	UpdateGame(ctx context.Context, id string, update models.GameUpdate) (*models.Game, error)
	CreateEvidence(ctx context.Context, ev *models.Evidence) error
}

var _ Store = storage.Store(nil)

// Gatherer researches one game at a time
type Gatherer struct {
	completer Completer
	store     Store
	source    string // default evidence source, usually the provider name
	timeout   time.Duration
	logger    *slog.Logger
}

// NewGatherer creates a gatherer. source labels evidence whose findings
// carry no source of their own; timeout <= 0 means no bound.
func NewGatherer(completer Completer, store Store, source string, timeout time.Duration) *Gatherer {
	if source == "" {
		source = "llm"
	}
	return &Gatherer{
		completer: completer,
		store:     store,
		source:    source,
		timeout:   timeout,
		logger:    slog.Default().With("component", "research"),
	}
}

type Finding struct {
	Category  string   `json:"category"`
	Headline  string   `json:"headline"`
	Snippet   string   `json:"snippet"`
	Content   string   `json:"content"`
	Source    string   `json:"source"`
	SourceURL string   `json:"sourceUrl"`
	Relevance *float64 `json:"relevance"`
	Citations []string `json:"citations"`
}

type findingsResponse struct {
	Findings *[]Finding `json:"findings"`
}

// Gather stores every finding for the game as evidence. A game without a
// pick moves to enriching for the call and back to pending afterwards. A
// game that already carries a pick (ready, locked or override) keeps its
// status and pick; the new evidence feeds its next analysis.
func (g *Gatherer) Gather(ctx context.Context, gameID string) ([]*models.Evidence, error) {
	if g.completer == nil {
		return nil, errors.ConfigError("research requires an llm provider")
	}

	game, err := g.store.GetGame(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("load game: %w", err)
	}

	if game.HasPick() {
		stored, err := g.gather(ctx, game)
		if err != nil {
			return nil, err
		}
		g.logger.Info("research stored", "game_id", gameID, "evidence", len(stored), "status", game.Status)
		return stored, nil
	}

	enriching := models.StatusEnriching
	if _, err := g.store.UpdateGame(ctx, gameID, models.GameUpdate{Status: &enriching}); err != nil {
		return nil, fmt.Errorf("mark enriching: %w", err)
	}

	stored, err := g.gather(ctx, game)
	if err != nil {
		// Restore with a fresh context; ctx may be the reason we failed
		restoreCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if _, rerr := g.store.UpdateGame(restoreCtx, gameID, models.GameUpdate{Status: &game.Status}); rerr != nil {
			g.logger.Error("failed to restore game status", "game_id", gameID, "error", rerr)
		}
		return nil, err
	}

	pending := models.StatusPending
	if _, err := g.store.UpdateGame(ctx, gameID, models.GameUpdate{Status: &pending}); err != nil {
		return nil, fmt.Errorf("mark pending: %w", err)
	}

	g.logger.Info("research stored", "game_id", gameID, "evidence", len(stored))
	return stored, nil
}

func (g *Gatherer) gather(ctx context.Context, game *models.Game) ([]*models.Evidence, error) {
	callCtx := ctx
	if g.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	raw, err := g.completer.CompleteJSON(callCtx, systemPrompt, userPrompt(game))
	if err != nil {
		return nil, errors.ExternalError(err, "research completion failed")
	}

	findings, err := ParseFindings(raw)
	if err != nil {
		return nil, errors.ExternalError(err, "research response malformed")
	}

	stored := make([]*models.Evidence, 0, len(findings))
	for _, f := range findings {
		ev := g.toEvidence(game.ID, f)
		if ev == nil {
			continue
		}
		if err := g.store.CreateEvidence(ctx, ev); err != nil {
			return nil, fmt.Errorf("store evidence: %w", err)
		}
		stored = append(stored, ev)
	}
	return stored, nil
}

// toEvidence returns nil for findings with no text at all
func (g *Gatherer) toEvidence(gameID string, f Finding) *models.Evidence {
	if strings.TrimSpace(f.Headline+f.Snippet+f.Content) == "" {
		return nil
	}

	source := strings.TrimSpace(f.Source)
	if source == "" {
		source = g.source
	}

	relevance := 0.5
	if f.Relevance != nil {
		relevance = clampUnit(*f.Relevance)
	}

	citations := models.StringList(f.Citations)
	if citations == nil {
		citations = models.StringList{}
	}

	return &models.Evidence{
		GameID:         gameID,
		Category:       strings.TrimSpace(f.Category),
		Source:         source,
		SourceURL:      f.SourceURL,
		Headline:       f.Headline,
		Snippet:        f.Snippet,
		FullContent:    f.Content,
		RelevanceScore: relevance,
		Citations:      citations,
	}
}

// ParseFindings decodes a research response. A missing findings array is an
// error; an empty one is not.
func ParseFindings(raw string) ([]Finding, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")

	var resp findingsResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return nil, fmt.Errorf("decode findings: %w", err)
	}
	if resp.Findings == nil {
		return nil, fmt.Errorf("response has no findings array")
	}
	return *resp.Findings, nil
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
