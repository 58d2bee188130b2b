package analysis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rohankatakam/slatewise/internal/models"
)

// Completer is the AI text-scoring service
type Completer interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// ScoreCache stores AI factor scores between runs
type ScoreCache interface {
	Get(ctx context.Context, key string, target interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}) error
}

const scoreCachePrefix = "slatewise:scores:"

// ScoreCachePattern matches every cached factor-score entry
const ScoreCachePattern = scoreCachePrefix + "*"

// Scorer turns evidence into factor scores, through the AI service when one
// is configured and through HeuristicScores otherwise.
type Scorer struct {
	completer Completer
	cache     ScoreCache
	timeout   time.Duration
	metrics   *Metrics
	logger    *slog.Logger
}

// NewScorer creates a scorer. completer and cache may be nil.
func NewScorer(completer Completer, cache ScoreCache, timeout time.Duration, metrics *Metrics) *Scorer {
	return &Scorer{
		completer: completer,
		cache:     cache,
		timeout:   timeout,
		metrics:   metrics,
		logger:    slog.Default().With("component", "scorer"),
	}
}

// ScoreEvidence scores evidence for a matchup. AI failures fall back to the
// heuristic and are never returned.
func (s *Scorer) ScoreEvidence(ctx context.Context, evidence []*models.Evidence, homeTeam, awayTeam string) ([]FactorScore, ScoringPath) {
	if len(evidence) == 0 {
		return []FactorScore{}, PathNone
	}

	if s.completer != nil {
		scores, path, err := s.scoreWithAI(ctx, evidence, homeTeam, awayTeam)
		if err == nil {
			s.metrics.observeScoring(path)
			return scores, path
		}
		s.logger.Warn("AI scoring failed, using heuristic fallback",
			"error", err,
			"home", homeTeam,
			"away", awayTeam,
			"evidence", len(evidence))
		s.metrics.observeScoringFailure()
	}

	s.metrics.observeScoring(PathHeuristic)
	return HeuristicScores(evidence, homeTeam, awayTeam), PathHeuristic
}

func (s *Scorer) scoreWithAI(ctx context.Context, evidence []*models.Evidence, homeTeam, awayTeam string) ([]FactorScore, ScoringPath, error) {
	systemPrompt := buildScoringSystemPrompt()
	userPrompt := buildScoringUserPrompt(evidence, homeTeam, awayTeam)
	key := scoreCacheKey(systemPrompt, userPrompt)

	if s.cache != nil {
		var cached []FactorScore
		hit, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			s.logger.Debug("score cache read failed", "error", err)
		} else if hit {
			return cached, PathCached, nil
		}
	}

	callCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	response, err := s.completer.CompleteJSON(callCtx, systemPrompt, userPrompt)
	if err != nil {
		return nil, PathAI, fmt.Errorf("complete: %w", err)
	}
	if err := callCtx.Err(); err != nil {
		return nil, PathAI, fmt.Errorf("complete: %w", err)
	}

	scores, err := ParseFactorScores(response)
	if err != nil {
		return nil, PathAI, err
	}
	s.logger.Debug("AI scoring complete", "factors", len(scores), "duration", time.Since(start))

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, scores); err != nil {
			s.logger.Debug("score cache write failed", "error", err)
		}
	}

	return scores, PathAI, nil
}

func scoreCacheKey(systemPrompt, userPrompt string) string {
	sum := sha256.Sum256([]byte(systemPrompt + "\x00" + userPrompt))
	return scoreCachePrefix + hex.EncodeToString(sum[:])
}

type rawFactorScore struct {
	Category  string          `json:"category"`
	HomeScore json.RawMessage `json:"homeScore"`
	AwayScore json.RawMessage `json:"awayScore"`
	Reasoning json.RawMessage `json:"reasoning"`
	KeyFacts  json.RawMessage `json:"keyFacts"`
	Citations json.RawMessage `json:"citations"`
}

// ParseFactorScores parses a model response of the form {"factors": [...]}.
// Scores are clamped to [0,10] and default to 5 when absent or not a number.
// A response without a factors array is malformed.
func ParseFactorScores(response string) ([]FactorScore, error) {
	var payload struct {
		Factors *[]rawFactorScore `json:"factors"`
	}
	if err := json.Unmarshal([]byte(stripCodeFence(response)), &payload); err != nil {
		return nil, fmt.Errorf("parse scoring response: %w", err)
	}
	if payload.Factors == nil {
		return nil, fmt.Errorf("parse scoring response: missing factors")
	}

	scores := make([]FactorScore, 0, len(*payload.Factors))
	for _, raw := range *payload.Factors {
		if raw.Category == "" {
			continue
		}
		scores = append(scores, FactorScore{
			Category:  raw.Category,
			HomeScore: clamp(numberOr(raw.HomeScore, neutralScore), minScore, maxScore),
			AwayScore: clamp(numberOr(raw.AwayScore, neutralScore), minScore, maxScore),
			Reasoning: stringOr(raw.Reasoning),
			KeyFacts:  stringsOr(raw.KeyFacts),
			Citations: stringsOr(raw.Citations),
		})
	}
	return scores, nil
}

func numberOr(raw json.RawMessage, fallback float64) float64 {
	var v *float64
	if len(raw) == 0 || json.Unmarshal(raw, &v) != nil || v == nil {
		return fallback
	}
	return *v
}

func stringOr(raw json.RawMessage) string {
	var v string
	if len(raw) == 0 || json.Unmarshal(raw, &v) != nil {
		return ""
	}
	return v
}

func stringsOr(raw json.RawMessage) []string {
	var v []string
	if len(raw) == 0 || json.Unmarshal(raw, &v) != nil || v == nil {
		return []string{}
	}
	return v
}

// stripCodeFence removes a ```json ... ``` wrapper some models add in JSON mode
func stripCodeFence(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```")
	if i := strings.IndexByte(trimmed, '\n'); i >= 0 {
		trimmed = trimmed[i+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(trimmed), "```"))
}
