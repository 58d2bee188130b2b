package analysis

import (
	"sort"
	"strings"

	"github.com/rohankatakam/slatewise/internal/models"
)

// Known factor names. Frameworks may carry any other key as well.
const (
	FactorQBRating           = "qbRating"
	FactorDefense            = "defense"
	FactorStrengthOfSchedule = "strengthOfSchedule"
	FactorMotivation         = "motivation"
	FactorMarketMovement     = "marketMovement"
	FactorHomeField          = "homeField"
	FactorInjuries           = "injuries"
	FactorPortal             = "portal"
	FactorCoaching           = "coaching"
	FactorWeather            = "weather"
)

// KnownFactors lists the factors in display order
var KnownFactors = []string{
	FactorQBRating,
	FactorDefense,
	FactorStrengthOfSchedule,
	FactorMotivation,
	FactorMarketMovement,
	FactorHomeField,
	FactorInjuries,
	FactorPortal,
	FactorCoaching,
	FactorWeather,
}

// DefaultCategory is used for evidence without a category
const DefaultCategory = "general"

type factorKeywords struct {
	factor   string
	keywords []string
}

// Matched in order; the first factor with a keyword contained in the category wins.
var factorTable = []factorKeywords{
	{FactorQBRating, []string{"qb", "quarterback"}},
	{FactorDefense, []string{"defense", "defensive"}},
	{FactorInjuries, []string{"injury", "injuries"}},
	{FactorStrengthOfSchedule, []string{"sos", "schedule"}},
	{FactorHomeField, []string{"home", "homefield"}},
	{FactorMotivation, []string{"motivation", "rivalry"}},
	{FactorPortal, []string{"portal", "transfer"}},
	{FactorCoaching, []string{"coaching", "coach"}},
	{FactorWeather, []string{"weather"}},
	{FactorMarketMovement, []string{"market", "odds", "line"}},
}

// MapCategoryToFactor maps a free-text evidence category to a scoring factor
func MapCategoryToFactor(category string) (string, bool) {
	lower := strings.ToLower(category)
	for _, entry := range factorTable {
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				return entry.factor, true
			}
		}
	}
	return "", false
}

// CategoryGroup is the evidence sharing one lower-cased category
type CategoryGroup struct {
	Category string
	Evidence []*models.Evidence
}

// Categorize groups evidence by lower-cased category. Groups come back in
// first-seen order and keep input order inside each group.
func Categorize(evidence []*models.Evidence) []CategoryGroup {
	var groups []CategoryGroup
	index := make(map[string]int)

	for _, ev := range evidence {
		category := strings.ToLower(ev.Category)
		if category == "" {
			category = DefaultCategory
		}

		i, ok := index[category]
		if !ok {
			i = len(groups)
			index[category] = i
			groups = append(groups, CategoryGroup{Category: category})
		}
		groups[i].Evidence = append(groups[i].Evidence, ev)
	}

	return groups
}

type weightEntry struct {
	factor string
	weight float64
}

// orderedWeights iterates known factors first, then unknown keys alphabetically
func orderedWeights(weights models.Weights) []weightEntry {
	entries := make([]weightEntry, 0, len(weights))
	seen := make(map[string]bool, len(KnownFactors))

	for _, factor := range KnownFactors {
		seen[factor] = true
		if w, ok := weights[factor]; ok {
			entries = append(entries, weightEntry{factor, w})
		}
	}

	var unknown []string
	for factor := range weights {
		if !seen[factor] {
			unknown = append(unknown, factor)
		}
	}
	sort.Strings(unknown)
	for _, factor := range unknown {
		entries = append(entries, weightEntry{factor, weights[factor]})
	}

	return entries
}
