package analysis

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the engine's Prometheus collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	analyses        *prometheus.CounterVec
	scoringPaths    *prometheus.CounterVec
	scoringFailures prometheus.Counter
	analysisLatency prometheus.Histogram
	slateGames      *prometheus.CounterVec
}

// NewMetrics registers the engine metrics on registry. A nil registry returns nil.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		return nil
	}
	auto := promauto.With(registry)

	return &Metrics{
		analyses: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "slatewise",
			Subsystem: "analysis",
			Name:      "games_total",
			Help:      "Game analyses by outcome (pick, insufficient, error)",
		}, []string{"outcome"}),
		scoringPaths: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "slatewise",
			Subsystem: "analysis",
			Name:      "scoring_path_total",
			Help:      "Factor scoring runs by path (ai, cached, heuristic)",
		}, []string{"path"}),
		scoringFailures: auto.NewCounter(prometheus.CounterOpts{
			Namespace: "slatewise",
			Subsystem: "analysis",
			Name:      "ai_scoring_failures_total",
			Help:      "AI scoring calls that failed or timed out and fell back to the heuristic",
		}),
		analysisLatency: auto.NewHistogram(prometheus.HistogramOpts{
			Namespace: "slatewise",
			Subsystem: "analysis",
			Name:      "game_duration_seconds",
			Help:      "Duration of analyze-and-persist for one game",
			Buckets:   prometheus.DefBuckets,
		}),
		slateGames: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "slatewise",
			Subsystem: "analysis",
			Name:      "slate_games_total",
			Help:      "Games processed by slate analysis by result (ok, failed)",
		}, []string{"result"}),
	}
}

func (m *Metrics) observeAnalysis(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.analyses.WithLabelValues(outcome).Inc()
	m.analysisLatency.Observe(elapsed.Seconds())
}

func (m *Metrics) observeScoring(path ScoringPath) {
	if m == nil {
		return
	}
	m.scoringPaths.WithLabelValues(string(path)).Inc()
}

func (m *Metrics) observeScoringFailure() {
	if m == nil {
		return
	}
	m.scoringFailures.Inc()
}

func (m *Metrics) observeSlateGame(ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "failed"
	}
	m.slateGames.WithLabelValues(result).Inc()
}
