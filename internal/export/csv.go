// Package export writes slate picks in spreadsheet-friendly formats.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/rohankatakam/slatewise/internal/models"
)

var header = []string{
	"slate", "away", "home", "spread", "favored", "total",
	"away_ml", "home_ml", "pick", "pick_line", "confidence", "status", "framework_version",
}

// WriteSlateCSV writes a header row and one row per game in the given order
func WriteSlateCSV(w io.Writer, slate *models.Slate, games []*models.Game) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, g := range games {
		if err := cw.Write(row(slate, g)); err != nil {
			return fmt.Errorf("write csv row for game %s: %w", g.ID, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

func row(slate *models.Slate, g *models.Game) []string {
	favored := ""
	switch models.Side(g.SpreadFavored) {
	case models.SideHome, models.SideAway:
		favored = g.TeamFor(models.Side(g.SpreadFavored))
	}

	return []string{
		slate.Name,
		g.AwayTeam,
		g.HomeTeam,
		decimal(g.Spread),
		favored,
		decimal(g.Total),
		moneyline(g.AwayMoneyline),
		moneyline(g.HomeMoneyline),
		str(g.Pick),
		str(g.PickLine),
		confidence(g.ConfidenceLow, g.ConfidenceHigh),
		string(g.Status),
		integer(g.FrameworkVersion),
	}
}

func decimal(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func moneyline(v *int) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%+d", *v)
}

func integer(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func str(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func confidence(low, high *int) string {
	if low == nil || high == nil {
		return ""
	}
	return fmt.Sprintf("%d-%d%%", *low, *high)
}
