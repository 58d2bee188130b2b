package research

import (
	"fmt"
	"math"
	"strings"

	"github.com/rohankatakam/slatewise/internal/models"
)

const systemPrompt = `You are a college football research assistant preparing a handicapping brief.
Report recent, verifiable facts about the matchup: quarterback play, injuries, defense,
strength of schedule, motivation, transfer portal activity, coaching, weather and line movement.
Respond with JSON only:
{"findings": [{"category": "...", "headline": "...", "snippet": "...", "content": "...",
  "source": "...", "sourceUrl": "...", "relevance": 0.0-1.0, "citations": ["..."]}]}
Use an empty findings array when nothing relevant is known. Never invent sources.`

func userPrompt(game *models.Game) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Matchup: %s (away) at %s (home)\n", game.AwayTeam, game.HomeTeam)
	if game.KickoffAt != nil {
		fmt.Fprintf(&b, "Kickoff: %s\n", game.KickoffAt.UTC().Format("2006-01-02 15:04 MST"))
	}
	if game.Spread != nil {
		fmt.Fprintf(&b, "Spread: %s favored by %g\n", favoredName(game), math.Abs(*game.Spread))
	}
	if game.Total != nil {
		fmt.Fprintf(&b, "Total: %g\n", *game.Total)
	}
	b.WriteString("List the findings that matter most for picking a side.")
	return b.String()
}

func favoredName(game *models.Game) string {
	if game.SpreadFavored == string(models.SideAway) {
		return game.AwayTeam
	}
	return game.HomeTeam
}
