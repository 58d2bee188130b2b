// Package api exposes slates, games, evidence, frameworks and analysis over
// a gin REST router.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rohankatakam/slatewise/internal/analysis"
	"github.com/rohankatakam/slatewise/internal/audit"
	"github.com/rohankatakam/slatewise/internal/models"
	"github.com/rohankatakam/slatewise/internal/storage"
	"github.com/sirupsen/logrus"
)

// Researcher gathers evidence for one game
type Researcher interface {
	Gather(ctx context.Context, gameID string) ([]*models.Evidence, error)
}

// HealthChecker is an optional dependency probed by /healthz
type HealthChecker func(ctx context.Context) error

// Options configures the HTTP layer
type Options struct {
	AllowedOrigins []string
	RequestsPerMin int                 // per client IP, <= 0 disables limiting
	Metrics        prometheus.Gatherer // nil serves no /metrics
	Checks         map[string]HealthChecker
	Audit          *audit.Log // nil disables the pick audit trail
}

// Server wires the REST handlers to the store and the analysis engine
type Server struct {
	store      storage.Store
	engine     *analysis.Engine
	researcher Researcher // nil when no llm provider is configured
	opts       Options
	logger     *logrus.Logger
	router     *gin.Engine
}

// NewServer builds the router. researcher may be nil.
func NewServer(store storage.Store, engine *analysis.Engine, researcher Researcher, opts Options, logger *logrus.Logger) *Server {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	s := &Server{
		store:      store,
		engine:     engine,
		researcher: researcher,
		opts:       opts,
		logger:     logger,
	}
	s.router = s.routes()
	return s
}

// Handler returns the root http.Handler
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(s.logger))

	if len(s.opts.AllowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     s.opts.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
			ExposeHeaders:    []string{"Content-Disposition"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	r.GET("/healthz", s.health)
	if s.opts.Metrics != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.opts.Metrics, promhttp.HandlerOpts{})))
	}

	api := r.Group("/api")
	if s.opts.RequestsPerMin > 0 {
		api.Use(newIPLimiter(s.opts.RequestsPerMin).middleware())
	}

	api.GET("/slates", s.listSlates)
	api.POST("/slates", s.createSlate)
	api.GET("/slates/:id", s.getSlate)
	api.DELETE("/slates/:id", s.deleteSlate)
	api.GET("/slates/:id/games", s.listGames)
	api.POST("/slates/:id/games", s.createGame)
	api.POST("/slates/:id/analyze", s.analyzeSlate)
	api.GET("/slates/:id/export", s.exportSlate)

	api.GET("/games/:id", s.getGame)
	api.PATCH("/games/:id", s.updateGame)
	api.DELETE("/games/:id", s.deleteGame)
	api.GET("/games/:id/evidence", s.listEvidence)
	api.POST("/games/:id/evidence", s.createEvidence)
	api.GET("/games/:id/why-factors", s.listWhyFactors)
	api.POST("/games/:id/analyze", s.analyzeGame)
	api.POST("/games/:id/research", s.researchGame)
	api.POST("/games/:id/lock", s.lockGame)
	api.POST("/games/:id/override", s.overrideGame)
	api.GET("/audit/picks", s.listPickEvents)

	api.GET("/frameworks", s.listFrameworks)
	api.POST("/frameworks", s.createFramework)
	api.GET("/frameworks/active", s.activeFramework)
	api.POST("/frameworks/:id/activate", s.activateFramework)

	return r
}

// Run serves on addr until ctx is cancelled, then drains in-flight requests
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", addr).Info("HTTP server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	s.logger.Info("Shutting down HTTP server")
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	status := http.StatusOK
	checks := gin.H{}

	if err := s.store.Ping(ctx); err != nil {
		status = http.StatusServiceUnavailable
		checks["database"] = err.Error()
	} else {
		checks["database"] = "ok"
	}

	for name, check := range s.opts.Checks {
		if err := check(ctx); err != nil {
			status = http.StatusServiceUnavailable
			checks[name] = err.Error()
			continue
		}
		checks[name] = "ok"
	}

	state := "ok"
	if status != http.StatusOK {
		state = "degraded"
	}
	c.JSON(status, gin.H{"status": state, "checks": checks})
}
