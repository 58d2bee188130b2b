package analysis

import (
	"fmt"
	"testing"

	"github.com/rohankatakam/slatewise/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	homeTeam = "Tigers"
	awayTeam = "Bulldogs"
)

func TestHeuristicScores_AwayInjury(t *testing.T) {
	evidence := []*models.Evidence{{
		Category: "qb injury",
		Source:   "beat writer",
		Headline: "Bulldogs QB injured in practice",
	}}

	scores := HeuristicScores(evidence, homeTeam, awayTeam)
	require.Len(t, scores, 1)

	s := scores[0]
	assert.Equal(t, FactorQBRating, s.Category)
	assert.Equal(t, 5.0, s.HomeScore)
	assert.Equal(t, 4.0, s.AwayScore)
	assert.Equal(t, "Based on 1 evidence items in qb injury", s.Reasoning)
	assert.Equal(t, []string{"Bulldogs QB injured in practice"}, s.KeyFacts)
	assert.Equal(t, []string{"beat writer"}, s.Citations)
}

func TestHeuristicScores_Sentiment(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		wantHome float64
		wantAway float64
	}{
		{"positive home", "Tigers defense is excellent", 6, 5},
		{"negative home", "Tigers defense is weak", 4, 5},
		{"both patterns cancel", "Tigers defense is strong but thin and weak", 5, 5},
		{"both teams mentioned", "Tigers and Bulldogs both excellent", 5, 5},
		{"no team mentioned", "an excellent defense", 5, 5},
		{"case insensitive", "TIGERS DEFENSE DOMINANT", 6, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			evidence := []*models.Evidence{{Category: "Defense", FullContent: tt.text}}
			scores := HeuristicScores(evidence, homeTeam, awayTeam)
			require.Len(t, scores, 1)
			assert.Equal(t, tt.wantHome, scores[0].HomeScore)
			assert.Equal(t, tt.wantAway, scores[0].AwayScore)
		})
	}
}

func TestHeuristicScores_TextPrecedence(t *testing.T) {
	// Full content wins over snippet and headline
	evidence := []*models.Evidence{{
		Category:    "defense",
		Headline:    "Tigers excellent",
		Snippet:     "Tigers excellent",
		FullContent: "Tigers weak",
	}}

	scores := HeuristicScores(evidence, homeTeam, awayTeam)
	require.Len(t, scores, 1)
	assert.Equal(t, 4.0, scores[0].HomeScore)
}

func TestHeuristicScores_ClampedToRange(t *testing.T) {
	var evidence []*models.Evidence
	for i := 0; i < 12; i++ {
		evidence = append(evidence,
			&models.Evidence{Category: "defense", Snippet: "Tigers excellent"},
			&models.Evidence{Category: "defense", Snippet: "Bulldogs weak"},
		)
	}

	scores := HeuristicScores(evidence, homeTeam, awayTeam)
	require.Len(t, scores, 1)
	assert.Equal(t, 10.0, scores[0].HomeScore)
	assert.Equal(t, 0.0, scores[0].AwayScore)
	assert.Equal(t, "Based on 24 evidence items in defense", scores[0].Reasoning)
}

func TestHeuristicScores_FactsAndCitationsBounded(t *testing.T) {
	var evidence []*models.Evidence
	for i := 0; i < 5; i++ {
		evidence = append(evidence, &models.Evidence{
			Category: "coaching",
			Headline: fmt.Sprintf("headline %d", i%4),
			Source:   fmt.Sprintf("source %d", i%2),
		})
	}
	evidence = append(evidence, &models.Evidence{Category: "coaching"})

	scores := HeuristicScores(evidence, homeTeam, awayTeam)
	require.Len(t, scores, 1)
	assert.Equal(t, []string{"headline 0", "headline 1", "headline 2"}, scores[0].KeyFacts)
	assert.Equal(t, []string{"source 0", "source 1"}, scores[0].Citations)
}

func TestHeuristicScores_UnmappedCategoryDropped(t *testing.T) {
	evidence := []*models.Evidence{
		{Category: "", Headline: "Tigers excellent"},
		{Category: "vibes", Headline: "Tigers excellent"},
		{Category: "Weather", Headline: "Rain expected"},
	}

	scores := HeuristicScores(evidence, homeTeam, awayTeam)
	require.Len(t, scores, 1)
	assert.Equal(t, FactorWeather, scores[0].Category)
}

func TestHeuristicScores_Deterministic(t *testing.T) {
	evidence := []*models.Evidence{
		{Category: "QB", Headline: "Tigers QB healthy", Source: "a"},
		{Category: "defense", Headline: "Bulldogs defense struggling", Source: "b"},
		{Category: "Injuries", Headline: "Tigers WR questionable", Source: "c"},
		{Category: "motivation", Headline: "Rivalry game", Source: "d"},
	}

	first := HeuristicScores(evidence, homeTeam, awayTeam)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, HeuristicScores(evidence, homeTeam, awayTeam))
	}
}

func TestHeuristicScores_SameFactorFromTwoCategories(t *testing.T) {
	evidence := []*models.Evidence{
		{Category: "QB", Headline: "Tigers QB excellent"},
		{Category: "quarterback battle", Headline: "Tigers QB weak"},
	}

	scores := HeuristicScores(evidence, homeTeam, awayTeam)
	require.Len(t, scores, 2)
	assert.Equal(t, FactorQBRating, scores[0].Category)
	assert.Equal(t, FactorQBRating, scores[1].Category)
	assert.Equal(t, 6.0, scores[0].HomeScore)
	assert.Equal(t, 4.0, scores[1].HomeScore)
}
