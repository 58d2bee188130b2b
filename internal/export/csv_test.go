package export

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/rohankatakam/slatewise/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestWriteSlateCSV(t *testing.T) {
	slate := &models.Slate{ID: "s1", Name: "Week 7"}
	games := []*models.Game{
		{
			ID:               "g1",
			HomeTeam:         "Tigers",
			AwayTeam:         "Bulldogs",
			Spread:           ptr(6.5),
			SpreadFavored:    "away",
			Total:            ptr(48.0),
			HomeMoneyline:    ptr(210),
			AwayMoneyline:    ptr(-250),
			Pick:             ptr("Tigers"),
			PickLine:         ptr("+6.5"),
			ConfidenceLow:    ptr(53),
			ConfidenceHigh:   ptr(69),
			Status:           models.StatusReady,
			FrameworkVersion: ptr(2),
		},
		{
			ID:       "g2",
			HomeTeam: "Ducks, Oregon",
			AwayTeam: "Huskies",
			Status:   models.StatusPending,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteSlateCSV(&buf, slate, games))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, header, records[0])
	assert.Equal(t, []string{
		"Week 7", "Bulldogs", "Tigers", "6.5", "Bulldogs", "48",
		"-250", "+210", "Tigers", "+6.5", "53-69%", "ready", "2",
	}, records[1])
	assert.Equal(t, []string{
		"Week 7", "Huskies", "Ducks, Oregon", "", "", "",
		"", "", "", "", "", "pending", "",
	}, records[2])
}

func TestWriteSlateCSV_EmptySlate(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSlateCSV(&buf, &models.Slate{Name: "Bye week"}, nil))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 1)
}
