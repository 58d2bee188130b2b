package analysis

import (
	"github.com/rohankatakam/slatewise/internal/models"
)

// FactorScore is one factor's home/away score on a 0-10 scale.
// 0 strongly favors away, 10 strongly favors home, 5 is neutral.
type FactorScore struct {
	Category  string   `json:"category"`
	HomeScore float64  `json:"homeScore"`
	AwayScore float64  `json:"awayScore"`
	Reasoning string   `json:"reasoning"`
	KeyFacts  []string `json:"keyFacts"`
	Citations []string `json:"citations"`
}

// ScoringPath records which scorer produced the factor scores
type ScoringPath string

const (
	PathNone      ScoringPath = "none"
	PathAI        ScoringPath = "ai"
	PathCached    ScoringPath = "cached"
	PathHeuristic ScoringPath = "heuristic"
)

// WhyFactor is one factor of the breakdown before it is persisted
type WhyFactor struct {
	Category     string      `json:"category"`
	Weight       float64     `json:"weight"`
	FeatureValue float64     `json:"featureValue"`
	Contribution float64     `json:"contribution"`
	Description  string      `json:"description"`
	KeyFacts     []string    `json:"keyFacts"`
	Citations    []string    `json:"citations"`
	FavoredTeam  models.Side `json:"favoredTeam"`
}

// Result is the outcome of analyzing one game. An empty Pick means there was
// not enough evidence; that result must never be stored as a real pick.
type Result struct {
	GameID           string      `json:"gameId"`
	Pick             string      `json:"pick"`
	PickTeam         models.Side `json:"pickTeam"`
	PickLine         string      `json:"pickLine,omitempty"`
	ConfidenceLow    int         `json:"confidenceLow"`
	ConfidenceHigh   int         `json:"confidenceHigh"`
	WhyFactors       []WhyFactor `json:"whyFactors"`
	TotalHomeScore   float64     `json:"totalHomeScore"`
	TotalAwayScore   float64     `json:"totalAwayScore"`
	TotalWeight      float64     `json:"totalWeight"`
	FrameworkVersion int         `json:"frameworkVersion"`
	ScoringPath      ScoringPath `json:"scoringPath"`
}

// Insufficient reports whether the result is the insufficient-evidence sentinel
func (r *Result) Insufficient() bool {
	return r.Pick == ""
}

// GameAnalysis pairs an analysis result with the game as persisted afterwards
type GameAnalysis struct {
	Game   *models.Game `json:"game"`
	Result *Result      `json:"result"`
}

// GameFailure records one game of a slate that could not be analyzed
type GameFailure struct {
	GameID string `json:"gameId"`
	Error  string `json:"error"`
}

// SlateAnalysis holds the successfully analyzed games of a slate, in slate order
type SlateAnalysis struct {
	SlateID  string          `json:"slateId"`
	Analyzed []*GameAnalysis `json:"analyzed"`
	Failures []GameFailure   `json:"failures"`
}
