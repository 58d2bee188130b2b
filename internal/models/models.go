package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// GameStatus is the lifecycle state of a game's pick
type GameStatus string

const (
	StatusPending   GameStatus = "pending"
	StatusEnriching GameStatus = "enriching"
	StatusReady     GameStatus = "ready"
	StatusLocked    GameStatus = "locked"
	StatusOverride  GameStatus = "override"
)

// Valid reports whether s is one of the known statuses
func (s GameStatus) Valid() bool {
	switch s {
	case StatusPending, StatusEnriching, StatusReady, StatusLocked, StatusOverride:
		return true
	}
	return false
}

// Side identifies one team of a matchup
type Side string

const (
	SideHome    Side = "home"
	SideAway    Side = "away"
	SideNeutral Side = "neutral"
)

// Slate is a named collection of upcoming games
type Slate struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Sport     string    `json:"sport" db:"sport"`
	WeekLabel string    `json:"week_label" db:"week_label"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Game is one matchup plus the engine's current pick for it
type Game struct {
	ID            string     `json:"id" db:"id"`
	SlateID       string     `json:"slate_id" db:"slate_id"`
	HomeTeam      string     `json:"home_team" db:"home_team"`
	AwayTeam      string     `json:"away_team" db:"away_team"`
	HomeCanonical string     `json:"home_canonical,omitempty" db:"home_canonical"`
	AwayCanonical string     `json:"away_canonical,omitempty" db:"away_canonical"`
	KickoffAt     *time.Time `json:"kickoff_at,omitempty" db:"kickoff_at"`

	// Betting lines
	Spread        *float64 `json:"spread,omitempty" db:"spread"`
	SpreadFavored string   `json:"spread_favored,omitempty" db:"spread_favored"` // "home" or "away"
	Total         *float64 `json:"total,omitempty" db:"total"`
	HomeMoneyline *int     `json:"home_moneyline,omitempty" db:"home_moneyline"`
	AwayMoneyline *int     `json:"away_moneyline,omitempty" db:"away_moneyline"`

	// Engine output
	Pick             *string    `json:"pick" db:"pick"`
	PickLine         *string    `json:"pick_line" db:"pick_line"`
	ConfidenceLow    *int       `json:"confidence_low" db:"confidence_low"`
	ConfidenceHigh   *int       `json:"confidence_high" db:"confidence_high"`
	Status           GameStatus `json:"status" db:"status"`
	FrameworkVersion *int       `json:"framework_version" db:"framework_version"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// HasPick reports whether the game currently carries a pick
func (g *Game) HasPick() bool {
	return g.Pick != nil && *g.Pick != ""
}

// TeamFor returns the team name on the given side
func (g *Game) TeamFor(side Side) string {
	if side == SideAway {
		return g.AwayTeam
	}
	return g.HomeTeam
}

// GameUpdate carries a partial update. Nil fields are left untouched; ClearPick
// nulls pick, pick line and the confidence band.
type GameUpdate struct {
	HomeTeam         *string
	AwayTeam         *string
	Spread           *float64
	SpreadFavored    *string
	Total            *float64
	HomeMoneyline    *int
	AwayMoneyline    *int
	Pick             *string
	PickLine         *string
	ConfidenceLow    *int
	ConfidenceHigh   *int
	Status           *GameStatus
	FrameworkVersion *int
	ClearPick        bool
}

// Evidence is one research finding tied to a game
type Evidence struct {
	ID             string     `json:"id" db:"id"`
	GameID         string     `json:"game_id" db:"game_id"`
	Category       string     `json:"category" db:"category"`
	Source         string     `json:"source" db:"source"`
	SourceURL      string     `json:"source_url,omitempty" db:"source_url"`
	Headline       string     `json:"headline" db:"headline"`
	Snippet        string     `json:"snippet,omitempty" db:"snippet"`
	FullContent    string     `json:"full_content,omitempty" db:"full_content"`
	RelevanceScore float64    `json:"relevance_score" db:"relevance_score"`
	Citations      StringList `json:"citations" db:"citations"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
}

// Text returns the most complete body available: full content, else snippet, else headline
func (e *Evidence) Text() string {
	switch {
	case e.FullContent != "":
		return e.FullContent
	case e.Snippet != "":
		return e.Snippet
	default:
		return e.Headline
	}
}

// Framework is a named, versioned weight configuration
type Framework struct {
	ID        string     `json:"id" db:"id"`
	Name      string     `json:"name" db:"name"`
	Weights   Weights    `json:"weights" db:"weights"`
	Rules     StringList `json:"rules" db:"rules"`
	Version   int        `json:"version" db:"version"`
	IsActive  bool       `json:"is_active" db:"is_active"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}

// WhyFactor is one persisted row of the analysis breakdown for a game
type WhyFactor struct {
	ID               string     `json:"id" db:"id"`
	GameID           string     `json:"game_id" db:"game_id"`
	Category         string     `json:"category" db:"category"`
	FeatureValue     float64    `json:"feature_value" db:"feature_value"`
	Contribution     float64    `json:"contribution" db:"contribution"`
	Description      string     `json:"description" db:"description"`
	KeyFacts         StringList `json:"key_facts" db:"key_facts"`
	Citations        StringList `json:"citations" db:"citations"`
	FavoredTeam      Side       `json:"favored_team" db:"favored_team"`
	UncertaintyFlags StringList `json:"uncertainty_flags" db:"uncertainty_flags"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
}

// StringList is stored as a JSON array in a TEXT column
type StringList []string

// Value implements driver.Valuer
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (l *StringList) Scan(src interface{}) error {
	data, err := columnBytes(src)
	if err != nil {
		return fmt.Errorf("scan string list: %w", err)
	}
	if len(data) == 0 {
		*l = StringList{}
		return nil
	}
	var out []string
	if err := json.Unmarshal(data, &out); err != nil {
		return fmt.Errorf("scan string list: %w", err)
	}
	*l = out
	return nil
}

// Weights maps a factor name to its percentage weight (0-100)
type Weights map[string]float64

// Value implements driver.Valuer
func (w Weights) Value() (driver.Value, error) {
	if w == nil {
		return "{}", nil
	}
	b, err := json.Marshal(map[string]float64(w))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (w *Weights) Scan(src interface{}) error {
	data, err := columnBytes(src)
	if err != nil {
		return fmt.Errorf("scan weights: %w", err)
	}
	out := map[string]float64{}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &out); err != nil {
			return fmt.Errorf("scan weights: %w", err)
		}
	}
	*w = out
	return nil
}

func columnBytes(src interface{}) ([]byte, error) {
	switch v := src.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("unsupported column type %T", src)
	}
}
