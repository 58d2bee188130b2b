package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rohankatakam/slatewise/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCompleter is a scripted AI service
type fakeCompleter struct {
	mu         sync.Mutex
	calls      int
	lastUser   string
	response   string
	err        error
	waitForCtx bool
}

func (f *fakeCompleter) CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	f.mu.Lock()
	f.calls++
	f.lastUser = userPrompt
	f.mu.Unlock()

	if f.waitForCtx {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return f.response, f.err
}

func (f *fakeCompleter) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// memoryCache is an in-process ScoreCache
type memoryCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: make(map[string][]byte)}
}

func (c *memoryCache) Get(ctx context.Context, key string, target interface{}) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, target)
}

func (c *memoryCache) Set(ctx context.Context, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = raw
	return nil
}

func injuryEvidence() []*models.Evidence {
	return []*models.Evidence{{
		Category: "qb injury",
		Source:   "beat writer",
		Headline: "Bulldogs QB injured in practice",
	}}
}

func TestScoreEvidence_EmptyEvidenceMakesNoCalls(t *testing.T) {
	completer := &fakeCompleter{response: `{"factors": []}`}
	scorer := NewScorer(completer, nil, time.Second, nil)

	scores, path := scorer.ScoreEvidence(context.Background(), nil, homeTeam, awayTeam)
	assert.Empty(t, scores)
	assert.NotNil(t, scores)
	assert.Equal(t, PathNone, path)
	assert.Equal(t, 0, completer.callCount())
}

func TestScoreEvidence_AIPath(t *testing.T) {
	completer := &fakeCompleter{response: `{"factors": [
		{"category": "qbRating", "homeScore": 7, "awayScore": 3, "reasoning": "Bulldogs starter out",
		 "keyFacts": ["QB out"], "citations": ["https://news.example/qb"]}
	]}`}
	scorer := NewScorer(completer, nil, time.Second, nil)

	scores, path := scorer.ScoreEvidence(context.Background(), injuryEvidence(), homeTeam, awayTeam)
	assert.Equal(t, PathAI, path)
	require.Len(t, scores, 1)
	assert.Equal(t, FactorScore{
		Category:  "qbRating",
		HomeScore: 7,
		AwayScore: 3,
		Reasoning: "Bulldogs starter out",
		KeyFacts:  []string{"QB out"},
		Citations: []string{"https://news.example/qb"},
	}, scores[0])
}

func TestScoreEvidence_FallsBackToHeuristic(t *testing.T) {
	tests := []struct {
		name      string
		completer *fakeCompleter
	}{
		{"network error", &fakeCompleter{err: errors.New("connection refused")}},
		{"malformed json", &fakeCompleter{response: `{"factors": [`}},
		{"missing factors key", &fakeCompleter{response: `{"scores": []}`}},
		{"timeout", &fakeCompleter{waitForCtx: true}},
	}

	want := HeuristicScores(injuryEvidence(), homeTeam, awayTeam)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scorer := NewScorer(tt.completer, nil, 20*time.Millisecond, nil)

			scores, path := scorer.ScoreEvidence(context.Background(), injuryEvidence(), homeTeam, awayTeam)
			assert.Equal(t, PathHeuristic, path)
			assert.Equal(t, want, scores)
			assert.Equal(t, 1, tt.completer.callCount())
		})
	}
}

func TestScoreEvidence_NoCompleterUsesHeuristic(t *testing.T) {
	scorer := NewScorer(nil, nil, time.Second, nil)

	scores, path := scorer.ScoreEvidence(context.Background(), injuryEvidence(), homeTeam, awayTeam)
	assert.Equal(t, PathHeuristic, path)
	require.Len(t, scores, 1)
	assert.Equal(t, 4.0, scores[0].AwayScore)
}

func TestScoreEvidence_CacheHitSkipsCompleter(t *testing.T) {
	completer := &fakeCompleter{response: `{"factors": [{"category": "defense", "homeScore": 6, "awayScore": 5}]}`}
	cache := newMemoryCache()
	scorer := NewScorer(completer, cache, time.Second, nil)
	ctx := context.Background()

	first, path := scorer.ScoreEvidence(ctx, injuryEvidence(), homeTeam, awayTeam)
	assert.Equal(t, PathAI, path)

	second, path := scorer.ScoreEvidence(ctx, injuryEvidence(), homeTeam, awayTeam)
	assert.Equal(t, PathCached, path)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, completer.callCount())
}

func TestParseFactorScores(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     []FactorScore
		wantErr  bool
	}{
		{
			name:     "clamps out of range scores",
			response: `{"factors": [{"category": "defense", "homeScore": 14, "awayScore": -2}]}`,
			want: []FactorScore{{Category: "defense", HomeScore: 10, AwayScore: 0,
				KeyFacts: []string{}, Citations: []string{}}},
		},
		{
			name:     "defaults invalid and missing scores to neutral",
			response: `{"factors": [{"category": "coaching", "homeScore": "high", "awayScore": null}]}`,
			want: []FactorScore{{Category: "coaching", HomeScore: 5, AwayScore: 5,
				KeyFacts: []string{}, Citations: []string{}}},
		},
		{
			name:     "tolerates wrongly typed lists",
			response: `{"factors": [{"category": "portal", "homeScore": 6, "awayScore": 4, "reasoning": 3, "keyFacts": "one"}]}`,
			want: []FactorScore{{Category: "portal", HomeScore: 6, AwayScore: 4,
				KeyFacts: []string{}, Citations: []string{}}},
		},
		{
			name:     "strips code fence",
			response: "```json\n{\"factors\": [{\"category\": \"qbRating\", \"homeScore\": 8, \"awayScore\": 2}]}\n```",
			want: []FactorScore{{Category: "qbRating", HomeScore: 8, AwayScore: 2,
				KeyFacts: []string{}, Citations: []string{}}},
		},
		{
			name:     "skips entries without a category",
			response: `{"factors": [{"homeScore": 8}]}`,
			want:     []FactorScore{},
		},
		{
			name:     "empty factors is valid",
			response: `{"factors": []}`,
			want:     []FactorScore{},
		},
		{name: "missing factors", response: `{}`, wantErr: true},
		{name: "not json", response: `the Tigers look good`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFactorScores(tt.response)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildScoringUserPrompt_Bounds(t *testing.T) {
	long := strings.Repeat("x", 800)
	var evidence []*models.Evidence
	for i := 0; i < 25; i++ {
		evidence = append(evidence, &models.Evidence{Category: "qb", Source: "wire", FullContent: long})
	}

	prompt := buildScoringUserPrompt(evidence, homeTeam, awayTeam)

	assert.Contains(t, prompt, "20. [qb] (source: wire)")
	assert.NotContains(t, prompt, "21. [qb]")
	assert.NotContains(t, prompt, strings.Repeat("x", 501))
	assert.Contains(t, prompt, strings.Repeat("x", 500))
	assert.Contains(t, prompt, "Bulldogs (away) at Tigers (home)")
}

func TestBuildScoringSystemPrompt_ListsCandidates(t *testing.T) {
	prompt := buildScoringSystemPrompt()
	for _, factor := range aiCandidateFactors {
		assert.Contains(t, prompt, factor)
	}
}
