package analysis

import (
	"fmt"
	"strings"

	"github.com/rohankatakam/slatewise/internal/models"
)

const (
	maxPromptEvidence = 20
	maxEvidenceChars  = 500
)

// Categories the model is asked to score
var aiCandidateFactors = []string{
	FactorQBRating,
	FactorDefense,
	FactorInjuries,
	FactorStrengthOfSchedule,
	FactorMotivation,
	FactorPortal,
	FactorCoaching,
}

const scoringSystemPrompt = `You are a sports handicapping analyst. You score research evidence for one matchup.

For every factor category the evidence is relevant to, return a homeScore and an awayScore
on a 0-10 scale: 0 strongly favors the away team, 10 strongly favors the home team, 5 is neutral.

Only use these category names, spelled exactly: %s.
Skip categories the evidence says nothing about.

Respond with JSON only, in this shape:
{"factors": [{"category": "qbRating", "homeScore": 6, "awayScore": 4, "reasoning": "...", "keyFacts": ["..."], "citations": ["..."]}]}`

func buildScoringSystemPrompt() string {
	return fmt.Sprintf(scoringSystemPrompt, strings.Join(aiCandidateFactors, ", "))
}

func buildScoringUserPrompt(evidence []*models.Evidence, homeTeam, awayTeam string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Matchup: %s (away) at %s (home)\n\nEvidence:\n", awayTeam, homeTeam)

	for i, ev := range evidence {
		if i >= maxPromptEvidence {
			break
		}
		category := ev.Category
		if category == "" {
			category = DefaultCategory
		}
		fmt.Fprintf(&sb, "%d. [%s] (source: %s) %s\n", i+1, category, ev.Source, truncateRunes(ev.Text(), maxEvidenceChars))
	}

	return sb.String()
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
