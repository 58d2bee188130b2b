package analysis

import (
	"testing"

	"github.com/rohankatakam/slatewise/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapCategoryToFactor(t *testing.T) {
	tests := []struct {
		category string
		want     string
		ok       bool
	}{
		{"QB", FactorQBRating, true},
		{"Quarterback play", FactorQBRating, true},
		{"qb injury", FactorQBRating, true}, // qb is declared before injuries
		{"Defensive line", FactorDefense, true},
		{"Injury report", FactorInjuries, true},
		{"SOS", FactorStrengthOfSchedule, true},
		{"remaining schedule", FactorStrengthOfSchedule, true},
		{"HomeField", FactorHomeField, true},
		{"rivalry week", FactorMotivation, true},
		{"transfer portal", FactorPortal, true},
		{"head coach", FactorCoaching, true},
		{"Weather", FactorWeather, true},
		{"line movement", FactorMarketMovement, true},
		{"sharp odds", FactorMarketMovement, true},
		{"general", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.category, func(t *testing.T) {
			got, ok := MapCategoryToFactor(tt.category)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCategorize(t *testing.T) {
	evidence := []*models.Evidence{
		{ID: "1", Category: "QB"},
		{ID: "2", Category: "Defense"},
		{ID: "3", Category: ""},
		{ID: "4", Category: "qb"},
	}

	groups := Categorize(evidence)
	require.Len(t, groups, 3)

	assert.Equal(t, "qb", groups[0].Category)
	assert.Equal(t, "defense", groups[1].Category)
	assert.Equal(t, DefaultCategory, groups[2].Category)

	require.Len(t, groups[0].Evidence, 2)
	assert.Equal(t, "1", groups[0].Evidence[0].ID)
	assert.Equal(t, "4", groups[0].Evidence[1].ID)
}

func TestCategorize_Empty(t *testing.T) {
	assert.Empty(t, Categorize(nil))
}

func TestOrderedWeights(t *testing.T) {
	weights := models.Weights{
		"zeta":        5,
		"homeField":   10,
		"qbRating":    30,
		"alpha":       5,
		"injuries":    20,
		"defense":     0,
		"refereeCrew": 5,
	}

	var names []string
	for _, e := range orderedWeights(weights) {
		names = append(names, e.factor)
	}

	assert.Equal(t, []string{"qbRating", "defense", "homeField", "injuries", "alpha", "refereeCrew", "zeta"}, names)
}
