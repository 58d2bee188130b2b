package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rohankatakam/slatewise/internal/analysis"
	"github.com/rohankatakam/slatewise/internal/audit"
	"github.com/rohankatakam/slatewise/internal/export"
	"github.com/rohankatakam/slatewise/internal/models"
)

// Slates

func (s *Server) listSlates(c *gin.Context) {
	slates, err := s.store.ListSlates(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, slates)
}

type createSlateRequest struct {
	Name      string `json:"name"`
	Sport     string `json:"sport"`
	WeekLabel string `json:"week_label"`
}

func (s *Server) createSlate(c *gin.Context) {
	var req createSlateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}

	slate := &models.Slate{Name: req.Name, Sport: req.Sport, WeekLabel: req.WeekLabel}
	if err := s.store.CreateSlate(c.Request.Context(), slate); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, slate)
}

func (s *Server) getSlate(c *gin.Context) {
	slate, err := s.store.GetSlate(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, slate)
}

func (s *Server) deleteSlate(c *gin.Context) {
	if err := s.store.DeleteSlate(c.Request.Context(), c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) analyzeSlate(c *gin.Context) {
	ctx := c.Request.Context()
	slateID := c.Param("id")
	if _, err := s.store.GetSlate(ctx, slateID); err != nil {
		s.fail(c, err)
		return
	}

	result, err := s.engine.AnalyzeSlate(ctx, slateID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) exportSlate(c *gin.Context) {
	ctx := c.Request.Context()
	slate, err := s.store.GetSlate(ctx, c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	games, err := s.store.ListGamesBySlate(ctx, slate.ID)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "slate-"+slate.ID+".csv"))
	c.Status(http.StatusOK)
	if err := export.WriteSlateCSV(c.Writer, slate, games); err != nil {
		s.logger.WithError(err).WithField("slate_id", slate.ID).Error("CSV export failed")
	}
}

// Games

func (s *Server) listGames(c *gin.Context) {
	ctx := c.Request.Context()
	slateID := c.Param("id")
	if _, err := s.store.GetSlate(ctx, slateID); err != nil {
		s.fail(c, err)
		return
	}

	games, err := s.store.ListGamesBySlate(ctx, slateID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, games)
}

type gameRequest struct {
	HomeTeam      *string  `json:"home_team"`
	AwayTeam      *string  `json:"away_team"`
	HomeCanonical string   `json:"home_canonical"`
	AwayCanonical string   `json:"away_canonical"`
	Spread        *float64 `json:"spread"`
	SpreadFavored *string  `json:"spread_favored"`
	Total         *float64 `json:"total"`
	HomeMoneyline *int     `json:"home_moneyline"`
	AwayMoneyline *int     `json:"away_moneyline"`
}

func (r gameRequest) validFavored() bool {
	if r.SpreadFavored == nil || *r.SpreadFavored == "" {
		return true
	}
	side := models.Side(*r.SpreadFavored)
	return side == models.SideHome || side == models.SideAway
}

func (s *Server) createGame(c *gin.Context) {
	ctx := c.Request.Context()
	slateID := c.Param("id")

	var req gameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}
	if !req.validFavored() {
		badRequest(c, "spread_favored must be home or away")
		return
	}
	if _, err := s.store.GetSlate(ctx, slateID); err != nil {
		s.fail(c, err)
		return
	}

	game := &models.Game{
		SlateID:       slateID,
		HomeTeam:      deref(req.HomeTeam),
		AwayTeam:      deref(req.AwayTeam),
		HomeCanonical: req.HomeCanonical,
		AwayCanonical: req.AwayCanonical,
		Spread:        req.Spread,
		SpreadFavored: deref(req.SpreadFavored),
		Total:         req.Total,
		HomeMoneyline: req.HomeMoneyline,
		AwayMoneyline: req.AwayMoneyline,
	}
	if err := s.store.CreateGame(ctx, game); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, game)
}

func (s *Server) getGame(c *gin.Context) {
	game, err := s.store.GetGame(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, game)
}

// updateGame edits teams and lines; picks only change through analyze, lock and override
func (s *Server) updateGame(c *gin.Context) {
	var req gameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}
	if !req.validFavored() {
		badRequest(c, "spread_favored must be home or away")
		return
	}

	game, err := s.store.UpdateGame(c.Request.Context(), c.Param("id"), models.GameUpdate{
		HomeTeam:      req.HomeTeam,
		AwayTeam:      req.AwayTeam,
		Spread:        req.Spread,
		SpreadFavored: req.SpreadFavored,
		Total:         req.Total,
		HomeMoneyline: req.HomeMoneyline,
		AwayMoneyline: req.AwayMoneyline,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, game)
}

func (s *Server) deleteGame(c *gin.Context) {
	if err := s.store.DeleteGame(c.Request.Context(), c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) analyzeGame(c *gin.Context) {
	result, err := s.engine.AnalyzeAndUpdateGame(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) researchGame(c *gin.Context) {
	if s.researcher == nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "research requires an llm provider"})
		return
	}

	evidence, err := s.researcher.Gather(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stored": len(evidence), "evidence": evidence})
}

func (s *Server) lockGame(c *gin.Context) {
	ctx := c.Request.Context()
	game, err := s.store.GetGame(ctx, c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	if !game.HasPick() {
		badRequest(c, "game has no pick to lock")
		return
	}

	previous := *game
	locked := models.StatusLocked
	game, err = s.store.UpdateGame(ctx, game.ID, models.GameUpdate{Status: &locked})
	if err != nil {
		s.fail(c, err)
		return
	}
	s.recordPick(c, audit.ActionLock, &previous, game)
	c.JSON(http.StatusOK, game)
}

type overrideRequest struct {
	Pick     string  `json:"pick"`
	PickLine *string `json:"pick_line"`
}

func (s *Server) overrideGame(c *gin.Context) {
	ctx := c.Request.Context()

	var req overrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}

	game, err := s.store.GetGame(ctx, c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	// Override replaces an analyzed pick; its confidence band carries over
	if !game.HasPick() {
		badRequest(c, "game has no analyzed pick to override")
		return
	}

	pick := strings.TrimSpace(req.Pick)
	var side models.Side
	switch pick {
	case game.HomeTeam:
		side = models.SideHome
	case game.AwayTeam:
		side = models.SideAway
	default:
		badRequest(c, fmt.Sprintf("pick must be %q or %q", game.HomeTeam, game.AwayTeam))
		return
	}

	line := analysis.PickLine(game, side)
	if req.PickLine != nil {
		line = *req.PickLine
	}

	previous := *game
	override := models.StatusOverride
	game, err = s.store.UpdateGame(ctx, game.ID, models.GameUpdate{
		Pick:     &pick,
		PickLine: &line,
		Status:   &override,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	s.recordPick(c, audit.ActionOverride, &previous, game)
	c.JSON(http.StatusOK, game)
}

// Evidence

func (s *Server) listEvidence(c *gin.Context) {
	ctx := c.Request.Context()
	gameID := c.Param("id")
	if _, err := s.store.GetGame(ctx, gameID); err != nil {
		s.fail(c, err)
		return
	}

	evidence, err := s.store.GetEvidence(ctx, gameID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, evidence)
}

type evidenceRequest struct {
	Category       string   `json:"category"`
	Source         string   `json:"source"`
	SourceURL      string   `json:"source_url"`
	Headline       string   `json:"headline"`
	Snippet        string   `json:"snippet"`
	FullContent    string   `json:"full_content"`
	RelevanceScore *float64 `json:"relevance_score"`
	Citations      []string `json:"citations"`
}

func (s *Server) createEvidence(c *gin.Context) {
	ctx := c.Request.Context()
	gameID := c.Param("id")

	var req evidenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}
	if req.Headline == "" && req.Snippet == "" && req.FullContent == "" {
		badRequest(c, "evidence needs a headline, snippet or full_content")
		return
	}
	if _, err := s.store.GetGame(ctx, gameID); err != nil {
		s.fail(c, err)
		return
	}

	relevance := 0.5
	if req.RelevanceScore != nil {
		relevance = *req.RelevanceScore
	}
	if relevance < 0 || relevance > 1 {
		badRequest(c, "relevance_score must be between 0 and 1")
		return
	}

	ev := &models.Evidence{
		GameID:         gameID,
		Category:       req.Category,
		Source:         req.Source,
		SourceURL:      req.SourceURL,
		Headline:       req.Headline,
		Snippet:        req.Snippet,
		FullContent:    req.FullContent,
		RelevanceScore: relevance,
		Citations:      req.Citations,
	}
	if err := s.store.CreateEvidence(ctx, ev); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, ev)
}

func (s *Server) listWhyFactors(c *gin.Context) {
	ctx := c.Request.Context()
	gameID := c.Param("id")
	if _, err := s.store.GetGame(ctx, gameID); err != nil {
		s.fail(c, err)
		return
	}

	factors, err := s.store.ListWhyFactors(ctx, gameID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, factors)
}

// Frameworks

func (s *Server) listFrameworks(c *gin.Context) {
	frameworks, err := s.store.ListFrameworks(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, frameworks)
}

type frameworkRequest struct {
	Name     string         `json:"name"`
	Weights  models.Weights `json:"weights"`
	Rules    []string       `json:"rules"`
	Activate bool           `json:"activate"`
}

func (s *Server) createFramework(c *gin.Context) {
	var req frameworkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}

	fw := &models.Framework{
		Name:     req.Name,
		Weights:  req.Weights,
		Rules:    req.Rules,
		IsActive: req.Activate,
	}
	if err := s.store.CreateFramework(c.Request.Context(), fw); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, fw)
}

func (s *Server) activeFramework(c *gin.Context) {
	fw, err := s.store.GetActiveFramework(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, fw)
}

func (s *Server) activateFramework(c *gin.Context) {
	ctx := c.Request.Context()
	if err := s.store.ActivateFramework(ctx, c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}

	fw, err := s.store.GetFramework(ctx, c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, fw)
}

// Audit

// recordPick appends to the audit trail; a write failure never fails the request
func (s *Server) recordPick(c *gin.Context, action string, before, after *models.Game) {
	if s.opts.Audit == nil {
		return
	}
	event := audit.PickEvent{
		Action:         action,
		GameID:         after.ID,
		Matchup:        after.AwayTeam + " at " + after.HomeTeam,
		PreviousPick:   deref(before.Pick),
		PreviousStatus: string(before.Status),
		Pick:           deref(after.Pick),
		PickLine:       deref(after.PickLine),
		Client:         c.ClientIP(),
	}
	if err := s.opts.Audit.Record(event); err != nil {
		s.logger.WithError(err).WithField("game_id", after.ID).Warn("Failed to record pick audit event")
	}
}

func (s *Server) listPickEvents(c *gin.Context) {
	if s.opts.Audit == nil {
		c.JSON(http.StatusOK, []audit.PickEvent{})
		return
	}
	events, err := s.opts.Audit.ReadAll()
	if err != nil {
		s.fail(c, err)
		return
	}
	gameID := c.Query("game_id")
	if gameID == "" {
		c.JSON(http.StatusOK, events)
		return
	}
	filtered := []audit.PickEvent{}
	for _, e := range events {
		if e.GameID == gameID {
			filtered = append(filtered, e)
		}
	}
	c.JSON(http.StatusOK, filtered)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
