package analysis

import (
	"math"

	"github.com/rohankatakam/slatewise/internal/models"
)

const (
	homeFieldBonus        = 1.5
	homeFieldFeatureValue = 7.0
	favoredThreshold      = 0.05

	baseConfidence     = 55.0
	confidenceSlope    = 40.0
	minBaseConfidence  = 50.0
	maxBaseConfidence  = 90.0
	confidenceHalfBand = 8.0
	minConfidenceLow   = 30.0
	maxConfidenceHigh  = 95.0
	minPossibleDiff    = 0.1

	noEvidenceDescription = "No specific evidence available for this factor"
)

var homeFieldKeyFacts = []string{
	"Home teams benefit from crowd support and familiarity",
	"Visiting teams absorb travel and routine disruption",
}

// tally is the fold state while aggregating factors
type tally struct {
	home    float64
	away    float64
	weight  float64
	factors []WhyFactor
}

// scoreHomeField returns the home-only bonus for a positive homeField weight.
// Home field is asymmetric: the away side never receives a contribution.
func scoreHomeField(weight float64) (float64, WhyFactor) {
	bonus := weight / 100 * homeFieldBonus
	return bonus, WhyFactor{
		Category:     FactorHomeField,
		Weight:       weight,
		FeatureValue: homeFieldFeatureValue,
		Contribution: bonus,
		Description:  "Home field advantage",
		KeyFacts:     append([]string(nil), homeFieldKeyFacts...),
		Citations:    []string{},
		FavoredTeam:  models.SideHome,
	}
}

// scoreGenericFactor scores one weighted factor. A nil score still carries its
// weight into the total so unscored factors dilute confidence.
func scoreGenericFactor(factor string, weight float64, score *FactorScore) (float64, float64, WhyFactor) {
	if score == nil {
		return 0, 0, WhyFactor{
			Category:     factor,
			Weight:       weight,
			FeatureValue: neutralScore,
			Contribution: 0,
			Description:  noEvidenceDescription,
			KeyFacts:     []string{},
			Citations:    []string{},
			FavoredTeam:  models.SideNeutral,
		}
	}

	home := score.HomeScore / 10 * (weight / 100)
	away := score.AwayScore / 10 * (weight / 100)
	net := home - away

	favored := models.SideNeutral
	switch {
	case net > favoredThreshold:
		favored = models.SideHome
	case net < -favoredThreshold:
		favored = models.SideAway
	}

	return home, away, WhyFactor{
		Category:     factor,
		Weight:       weight,
		FeatureValue: (score.HomeScore + score.AwayScore) / 2,
		Contribution: net,
		Description:  score.Reasoning,
		KeyFacts:     nonNil(score.KeyFacts),
		Citations:    nonNil(score.Citations),
		FavoredTeam:  favored,
	}
}

// findScore returns the first score whose category equals factor exactly
func findScore(scores []FactorScore, factor string) *FactorScore {
	for i := range scores {
		if scores[i].Category == factor {
			return &scores[i]
		}
	}
	return nil
}

// Aggregate combines factor scores under weights into a pick and confidence band
func Aggregate(weights models.Weights, scores []FactorScore, homeTeam, awayTeam string) *Result {
	var t tally

	homeFieldWeight := weights[FactorHomeField]
	if homeFieldWeight > 0 {
		bonus, why := scoreHomeField(homeFieldWeight)
		t.home += bonus
		t.weight += homeFieldWeight
		t.factors = append(t.factors, why)
	}

	for _, entry := range orderedWeights(weights) {
		if entry.factor == FactorHomeField || entry.weight <= 0 {
			continue
		}
		home, away, why := scoreGenericFactor(entry.factor, entry.weight, findScore(scores, entry.factor))
		t.home += home
		t.away += away
		t.weight += entry.weight
		t.factors = append(t.factors, why)
	}

	if len(scores) == 0 && homeFieldWeight <= 0 {
		return insufficientEvidence()
	}

	diff := t.home - t.away
	// Ties favor home.
	pickTeam, pick := models.SideHome, homeTeam
	if diff < 0 {
		pickTeam, pick = models.SideAway, awayTeam
	}

	low, high := confidenceBand(diff, t.weight)

	return &Result{
		Pick:           pick,
		PickTeam:       pickTeam,
		ConfidenceLow:  low,
		ConfidenceHigh: high,
		WhyFactors:     t.factors,
		TotalHomeScore: round2(t.home),
		TotalAwayScore: round2(t.away),
		TotalWeight:    t.weight,
	}
}

// confidenceBand applies the three clamps in order: base to [50,90], then
// low to [30,100] and high to [0,95].
func confidenceBand(diff, totalWeight float64) (int, int) {
	maxPossibleDiff := totalWeight / 100
	normalizedDiff := math.Abs(diff) / math.Max(maxPossibleDiff, minPossibleDiff)

	base := clamp(baseConfidence+normalizedDiff*confidenceSlope, minBaseConfidence, maxBaseConfidence)
	low := math.Round(clamp(base-confidenceHalfBand, minConfidenceLow, 100))
	high := math.Round(clamp(base+confidenceHalfBand, 0, maxConfidenceHigh))

	return int(low), int(high)
}

func insufficientEvidence() *Result {
	return &Result{
		Pick:           "",
		PickTeam:       models.SideHome,
		ConfidenceLow:  0,
		ConfidenceHigh: 0,
		WhyFactors: []WhyFactor{{
			Category:     "baseline",
			FeatureValue: neutralScore,
			Contribution: 0,
			Description:  "Insufficient evidence to make a pick. Gather research for this game and re-run the analysis.",
			KeyFacts:     []string{},
			Citations:    []string{},
			FavoredTeam:  models.SideNeutral,
		}},
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
