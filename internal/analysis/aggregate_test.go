package analysis

import (
	"math"
	"testing"

	"github.com/rohankatakam/slatewise/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregate_HomeFieldOnly(t *testing.T) {
	weights := models.Weights{FactorHomeField: 10, FactorQBRating: 90}

	result := Aggregate(weights, nil, homeTeam, awayTeam)

	assert.Equal(t, homeTeam, result.Pick)
	assert.Equal(t, models.SideHome, result.PickTeam)
	assert.Equal(t, 100.0, result.TotalWeight)
	assert.Equal(t, 0.15, result.TotalHomeScore)
	assert.Equal(t, 0.0, result.TotalAwayScore)

	// normalizedDiff = 0.15 / 1.0 -> base 61
	assert.Equal(t, 53, result.ConfidenceLow)
	assert.Equal(t, 69, result.ConfidenceHigh)

	require.Len(t, result.WhyFactors, 2)
	hf := result.WhyFactors[0]
	assert.Equal(t, FactorHomeField, hf.Category)
	assert.Equal(t, 7.0, hf.FeatureValue)
	assert.Equal(t, models.SideHome, hf.FavoredTeam)
	assert.Len(t, hf.KeyFacts, 2)

	qb := result.WhyFactors[1]
	assert.Equal(t, FactorQBRating, qb.Category)
	assert.Equal(t, models.SideNeutral, qb.FavoredTeam)
	assert.Equal(t, 5.0, qb.FeatureValue)
	assert.Equal(t, 0.0, qb.Contribution)
	assert.Equal(t, noEvidenceDescription, qb.Description)
}

func TestAggregate_AwayInjuryFavorsHome(t *testing.T) {
	scores := HeuristicScores(injuryEvidence(), homeTeam, awayTeam)

	result := Aggregate(models.Weights{FactorQBRating: 100}, scores, homeTeam, awayTeam)

	assert.Equal(t, homeTeam, result.Pick)
	require.Len(t, result.WhyFactors, 1)
	qb := result.WhyFactors[0]
	assert.Equal(t, FactorQBRating, qb.Category)
	assert.Equal(t, models.SideHome, qb.FavoredTeam)
	assert.InDelta(t, 0.1, qb.Contribution, 1e-9)
	assert.Equal(t, 4.5, qb.FeatureValue)
	assert.Equal(t, 0.5, result.TotalHomeScore)
	assert.Equal(t, 0.4, result.TotalAwayScore)
}

func TestAggregate_AwayPick(t *testing.T) {
	scores := []FactorScore{{Category: FactorDefense, HomeScore: 2, AwayScore: 8}}

	result := Aggregate(models.Weights{FactorDefense: 50}, scores, homeTeam, awayTeam)

	assert.Equal(t, awayTeam, result.Pick)
	assert.Equal(t, models.SideAway, result.PickTeam)
	assert.Equal(t, models.SideAway, result.WhyFactors[0].FavoredTeam)
	assert.InDelta(t, -0.3, result.WhyFactors[0].Contribution, 1e-9)
}

func TestAggregate_TieFavorsHome(t *testing.T) {
	scores := []FactorScore{{Category: FactorQBRating, HomeScore: 5, AwayScore: 5}}

	result := Aggregate(models.Weights{FactorQBRating: 50}, scores, homeTeam, awayTeam)

	assert.Equal(t, result.TotalHomeScore, result.TotalAwayScore)
	assert.Equal(t, models.SideHome, result.PickTeam)
	assert.Equal(t, homeTeam, result.Pick)
	assert.Equal(t, 47, result.ConfidenceLow)
	assert.Equal(t, 63, result.ConfidenceHigh)
}

func TestAggregate_ZeroWeightFactorDoesNotChangePick(t *testing.T) {
	scores := []FactorScore{
		{Category: FactorQBRating, HomeScore: 7, AwayScore: 4},
		{Category: FactorDefense, HomeScore: 1, AwayScore: 9},
	}
	base := models.Weights{FactorHomeField: 10, FactorQBRating: 40}
	diluted := models.Weights{FactorHomeField: 10, FactorQBRating: 40, FactorDefense: 0, "refereeCrew": 0}

	a := Aggregate(base, scores, homeTeam, awayTeam)
	b := Aggregate(diluted, scores, homeTeam, awayTeam)

	assert.Equal(t, a.Pick, b.Pick)
	assert.Equal(t, a.ConfidenceLow, b.ConfidenceLow)
	assert.Equal(t, a.ConfidenceHigh, b.ConfidenceHigh)
	assert.Equal(t, a.WhyFactors, b.WhyFactors)
}

func TestAggregate_InsufficientEvidence(t *testing.T) {
	weights := models.Weights{FactorHomeField: 0, FactorQBRating: 0, FactorDefense: 0}

	result := Aggregate(weights, nil, homeTeam, awayTeam)

	assert.True(t, result.Insufficient())
	assert.Equal(t, "", result.Pick)
	assert.Equal(t, models.SideHome, result.PickTeam)
	assert.Equal(t, 0, result.ConfidenceLow)
	assert.Equal(t, 0, result.ConfidenceHigh)
	assert.Equal(t, 0.0, result.TotalHomeScore)
	assert.Equal(t, 0.0, result.TotalAwayScore)
	require.Len(t, result.WhyFactors, 1)
	assert.Equal(t, "baseline", result.WhyFactors[0].Category)
}

func TestAggregate_InsufficientEvenWithWeights(t *testing.T) {
	// Weighted factors but nothing scored and no home field
	result := Aggregate(models.Weights{FactorQBRating: 60, FactorDefense: 40}, []FactorScore{}, homeTeam, awayTeam)
	assert.True(t, result.Insufficient())
}

func TestAggregate_ExactCategoryMatchOnly(t *testing.T) {
	// "qb" is not the weight key "qbRating", so the factor stays unscored
	scores := []FactorScore{{Category: "qb", HomeScore: 10, AwayScore: 0}}

	result := Aggregate(models.Weights{FactorQBRating: 100}, scores, homeTeam, awayTeam)

	require.Len(t, result.WhyFactors, 1)
	assert.Equal(t, noEvidenceDescription, result.WhyFactors[0].Description)
	assert.Equal(t, 0.0, result.TotalHomeScore)
	assert.False(t, result.Insufficient(), "a score exists, so the sentinel does not apply")
}

func TestAggregate_FirstMatchingScoreWins(t *testing.T) {
	scores := []FactorScore{
		{Category: FactorQBRating, HomeScore: 8, AwayScore: 2, Reasoning: "first"},
		{Category: FactorQBRating, HomeScore: 1, AwayScore: 9, Reasoning: "second"},
	}

	result := Aggregate(models.Weights{FactorQBRating: 100}, scores, homeTeam, awayTeam)

	assert.Equal(t, "first", result.WhyFactors[0].Description)
	assert.Equal(t, homeTeam, result.Pick)
}

func TestAggregate_UnknownFactorScored(t *testing.T) {
	scores := []FactorScore{{Category: "refereeCrew", HomeScore: 9, AwayScore: 1}}

	result := Aggregate(models.Weights{"refereeCrew": 20}, scores, homeTeam, awayTeam)

	require.Len(t, result.WhyFactors, 1)
	assert.Equal(t, models.SideHome, result.WhyFactors[0].FavoredTeam)
	assert.Equal(t, 20.0, result.TotalWeight)
}

func TestConfidenceBand_Bounds(t *testing.T) {
	for _, totalWeight := range []float64{0, 0.5, 1, 10, 50, 100, 250, 1000} {
		for diff := -20.0; diff <= 20.0; diff += 0.05 {
			low, high := confidenceBand(diff, totalWeight)
			assert.GreaterOrEqual(t, low, 30)
			assert.LessOrEqual(t, high, 95)
			assert.LessOrEqual(t, low, high)
		}
	}
}

func TestConfidenceBand_Values(t *testing.T) {
	tests := []struct {
		name        string
		diff        float64
		totalWeight float64
		wantLow     int
		wantHigh    int
	}{
		{"no difference", 0, 100, 47, 63},
		{"maximum difference saturates", 1, 100, 82, 95},
		{"tiny weight uses floor", 0.01, 0, 51, 67},
		{"negative difference is symmetric", -0.15, 100, 53, 69},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			low, high := confidenceBand(tt.diff, tt.totalWeight)
			assert.Equal(t, tt.wantLow, low)
			assert.Equal(t, tt.wantHigh, high)
		})
	}
}

func TestScoreHomeField(t *testing.T) {
	bonus, why := scoreHomeField(20)
	assert.True(t, math.Abs(bonus-0.3) < 1e-9)
	assert.Equal(t, 20.0, why.Weight)
	assert.Equal(t, models.SideHome, why.FavoredTeam)
}
