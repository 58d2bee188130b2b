package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"time"

	"github.com/rohankatakam/slatewise/internal/models"
	"github.com/rohankatakam/slatewise/internal/storage"
	"golang.org/x/sync/errgroup"
)

const inconclusiveFlag = "Inconclusive evidence"

// Options configures an Engine
type Options struct {
	Completer        Completer     // nil disables AI scoring
	Cache            ScoreCache    // nil disables the score cache
	ScoringTimeout   time.Duration // bound on one AI scoring call
	SlateConcurrency int           // games analyzed in parallel by AnalyzeSlate; <= 1 is sequential
	Metrics          *Metrics
}

// Engine analyzes games and persists picks and why factors
type Engine struct {
	games      storage.GameStore
	evidence   storage.EvidenceStore
	frameworks storage.FrameworkStore

	scorer      *Scorer
	locks       *keyLock
	concurrency int
	metrics     *Metrics
	logger      *slog.Logger
}

// NewEngine creates an analysis engine over the given stores
func NewEngine(games storage.GameStore, evidence storage.EvidenceStore, frameworks storage.FrameworkStore, opts Options) *Engine {
	return &Engine{
		games:       games,
		evidence:    evidence,
		frameworks:  frameworks,
		scorer:      NewScorer(opts.Completer, opts.Cache, opts.ScoringTimeout, opts.Metrics),
		locks:       newKeyLock(),
		concurrency: opts.SlateConcurrency,
		metrics:     opts.Metrics,
		logger:      slog.Default().With("component", "analysis"),
	}
}

// AnalyzeGame scores a game's evidence under the active framework without
// persisting anything. A missing game or active framework is a NotFound error.
func (e *Engine) AnalyzeGame(ctx context.Context, gameID string) (*Result, error) {
	game, err := e.games.GetGame(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("load game: %w", err)
	}

	framework, err := e.frameworks.GetActiveFramework(ctx)
	if err != nil {
		return nil, fmt.Errorf("load active framework: %w", err)
	}

	evidence, err := e.evidence.GetEvidence(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("load evidence: %w", err)
	}

	scores, path := e.scorer.ScoreEvidence(ctx, evidence, game.HomeTeam, game.AwayTeam)

	result := Aggregate(framework.Weights, scores, game.HomeTeam, game.AwayTeam)
	result.GameID = game.ID
	result.ScoringPath = path
	result.FrameworkVersion = framework.Version
	if result.FrameworkVersion == 0 {
		result.FrameworkVersion = 1
	}
	if !result.Insufficient() {
		result.PickLine = PickLine(game, result.PickTeam)
	}

	return result, nil
}

// AnalyzeAndUpdateGame analyzes a game and persists the pick and why factors.
// At most one call per game runs at a time.
func (e *Engine) AnalyzeAndUpdateGame(ctx context.Context, gameID string) (*GameAnalysis, error) {
	unlock := e.locks.Lock(gameID)
	defer unlock()

	start := time.Now()
	analysis, err := e.analyzeAndUpdate(ctx, gameID)
	switch {
	case err != nil:
		e.metrics.observeAnalysis("error", time.Since(start))
	case analysis.Result.Insufficient():
		e.metrics.observeAnalysis("insufficient", time.Since(start))
	default:
		e.metrics.observeAnalysis("pick", time.Since(start))
	}
	return analysis, err
}

func (e *Engine) analyzeAndUpdate(ctx context.Context, gameID string) (*GameAnalysis, error) {
	result, err := e.AnalyzeGame(ctx, gameID)
	if err != nil {
		return nil, err
	}

	game, err := e.games.PersistAnalysis(ctx, gameID, gameUpdateFor(result), whyFactorRecords(gameID, result.WhyFactors))
	if err != nil {
		return nil, fmt.Errorf("persist analysis: %w", err)
	}

	e.logger.Info("game analyzed",
		"game_id", gameID,
		"pick", result.Pick,
		"confidence_low", result.ConfidenceLow,
		"confidence_high", result.ConfidenceHigh,
		"scoring_path", result.ScoringPath,
		"factors", len(result.WhyFactors))

	return &GameAnalysis{Game: game, Result: result}, nil
}

// AnalyzeSlate analyzes every game in a slate. One game's failure is recorded
// and never aborts the rest; only failing to list the slate is an error.
func (e *Engine) AnalyzeSlate(ctx context.Context, slateID string) (*SlateAnalysis, error) {
	games, err := e.games.ListGamesBySlate(ctx, slateID)
	if err != nil {
		return nil, fmt.Errorf("list slate games: %w", err)
	}

	analyses := make([]*GameAnalysis, len(games))
	failures := make([]error, len(games))

	analyzeOne := func(i int) {
		analysis, err := e.AnalyzeAndUpdateGame(ctx, games[i].ID)
		if err != nil {
			e.logger.Warn("slate game analysis failed", "slate_id", slateID, "game_id", games[i].ID, "error", err)
			failures[i] = err
			e.metrics.observeSlateGame(false)
			return
		}
		analyses[i] = analysis
		e.metrics.observeSlateGame(true)
	}

	if e.concurrency <= 1 {
		for i := range games {
			analyzeOne(i)
		}
	} else {
		var g errgroup.Group
		g.SetLimit(e.concurrency)
		for i := range games {
			g.Go(func() error {
				analyzeOne(i)
				return nil
			})
		}
		_ = g.Wait()
	}

	out := &SlateAnalysis{
		SlateID:  slateID,
		Analyzed: []*GameAnalysis{},
		Failures: []GameFailure{},
	}
	for i, game := range games {
		if failures[i] != nil {
			out.Failures = append(out.Failures, GameFailure{GameID: game.ID, Error: failures[i].Error()})
			continue
		}
		out.Analyzed = append(out.Analyzed, analyses[i])
	}

	e.logger.Info("slate analyzed",
		"slate_id", slateID,
		"games", len(games),
		"analyzed", len(out.Analyzed),
		"failed", len(out.Failures))

	return out, nil
}

func gameUpdateFor(result *Result) models.GameUpdate {
	if result.Insufficient() {
		pending := models.StatusPending
		return models.GameUpdate{ClearPick: true, Status: &pending}
	}

	ready := models.StatusReady
	pick := result.Pick
	pickLine := result.PickLine
	low, high := result.ConfidenceLow, result.ConfidenceHigh
	version := result.FrameworkVersion
	return models.GameUpdate{
		Pick:             &pick,
		PickLine:         &pickLine,
		ConfidenceLow:    &low,
		ConfidenceHigh:   &high,
		Status:           &ready,
		FrameworkVersion: &version,
	}
}

func whyFactorRecords(gameID string, factors []WhyFactor) []*models.WhyFactor {
	records := make([]*models.WhyFactor, 0, len(factors))
	for _, f := range factors {
		flags := models.StringList{}
		if f.FavoredTeam == models.SideNeutral {
			flags = append(flags, inconclusiveFlag)
		}
		records = append(records, &models.WhyFactor{
			GameID:           gameID,
			Category:         f.Category,
			FeatureValue:     f.FeatureValue,
			Contribution:     f.Contribution,
			Description:      fmt.Sprintf("[Weight: %s%%] %s", formatNumber(f.Weight), f.Description),
			KeyFacts:         models.StringList(nonNil(f.KeyFacts)),
			Citations:        models.StringList(nonNil(f.Citations)),
			FavoredTeam:      f.FavoredTeam,
			UncertaintyFlags: flags,
		})
	}
	return records
}

// PickLine describes the line taken with a pick: the spread from the picked
// side ("-3.5", "+3.5", "PK") when known, else its moneyline ("ML +150").
func PickLine(game *models.Game, side models.Side) string {
	if game.Spread != nil && (game.SpreadFavored == string(models.SideHome) || game.SpreadFavored == string(models.SideAway)) {
		points := math.Abs(*game.Spread)
		if points == 0 {
			return "PK"
		}
		if string(side) == game.SpreadFavored {
			return "-" + formatNumber(points)
		}
		return "+" + formatNumber(points)
	}

	moneyline := game.HomeMoneyline
	if side == models.SideAway {
		moneyline = game.AwayMoneyline
	}
	if moneyline != nil {
		return fmt.Sprintf("ML %+d", *moneyline)
	}
	return ""
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
