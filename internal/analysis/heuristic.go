package analysis

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/rohankatakam/slatewise/internal/models"
)

const (
	neutralScore = 5.0
	minScore     = 0.0
	maxScore     = 10.0
	maxKeyFacts  = 3
	maxCitations = 3
)

var (
	positivePattern = regexp.MustCompile(`strong|excellent|advantage|dominant|leading|top|best|improved|healthy|returning|win`)
	negativePattern = regexp.MustCompile(`weak|poor|struggling|injury|injured|out|missing|loss|concern|problem|questionable`)
)

// HeuristicScores scores evidence with keyword sentiment. It is deterministic
// for identical input and never calls out.
func HeuristicScores(evidence []*models.Evidence, homeTeam, awayTeam string) []FactorScore {
	home := strings.ToLower(homeTeam)
	away := strings.ToLower(awayTeam)

	var scores []FactorScore
	for _, group := range Categorize(evidence) {
		factor, ok := MapCategoryToFactor(group.Category)
		if !ok {
			continue
		}

		homeScore, awayScore := neutralScore, neutralScore
		keyFacts := newBoundedSet(maxKeyFacts)
		citations := newBoundedSet(maxCitations)

		for _, ev := range group.Evidence {
			text := strings.ToLower(ev.Text())
			mentionsHome := strings.Contains(text, home)
			mentionsAway := strings.Contains(text, away)

			var delta float64
			if positivePattern.MatchString(text) {
				delta++
			}
			if negativePattern.MatchString(text) {
				delta--
			}

			switch {
			case mentionsHome && !mentionsAway:
				homeScore += delta
			case mentionsAway && !mentionsHome:
				awayScore += delta
			}

			keyFacts.add(ev.Headline)
			citations.add(ev.Source)
		}

		scores = append(scores, FactorScore{
			Category:  factor,
			HomeScore: clamp(homeScore, minScore, maxScore),
			AwayScore: clamp(awayScore, minScore, maxScore),
			Reasoning: fmt.Sprintf("Based on %d evidence items in %s", len(group.Evidence), group.Category),
			KeyFacts:  keyFacts.items,
			Citations: citations.items,
		})
	}

	return scores
}

// boundedSet keeps up to limit distinct non-empty strings in first-seen order
type boundedSet struct {
	limit int
	seen  map[string]bool
	items []string
}

func newBoundedSet(limit int) *boundedSet {
	return &boundedSet{limit: limit, seen: make(map[string]bool), items: []string{}}
}

func (s *boundedSet) add(v string) {
	if v == "" || s.seen[v] || len(s.items) >= s.limit {
		return
	}
	s.seen[v] = true
	s.items = append(s.items, v)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
