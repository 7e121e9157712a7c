package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/dashsets/docsetctl/internal/observability"
	"github.com/dashsets/docsetctl/internal/updater"
)

const serviceVersion = "0.1.0"

// Config is the serve-mode runtime configuration.
type Config struct {
	ListenAddr  string
	CorsOrigins []string
	Interval    time.Duration
}

// Server runs scheduled update cycles and exposes the status API.
type Server struct {
	cfg       Config
	engine    *updater.Engine
	registry  *updater.Registry
	history   *history
	startedAt time.Time
}

func New(cfg Config, engine *updater.Engine, registry *updater.Registry) *Server {
	return &Server{
		cfg:       cfg,
		engine:    engine,
		registry:  registry,
		history:   newHistory(defaultHistoryLimit),
		startedAt: time.Now(),
	}
}

// Run serves until ctx is cancelled, running one cycle immediately and
// then one per interval.
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    s.cfg.ListenAddr,
		Handler: s.router(),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.cfg.ListenAddr).Msg("api listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	go s.cycleLoop(ctx)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func (s *Server) cycleLoop(ctx context.Context) {
	s.runCycle(ctx, "startup")

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runCycle(ctx, "interval")
		}
	}
}

func (s *Server) runCycle(ctx context.Context, trigger string, ids ...string) []updater.Result {
	started := time.Now()
	results := s.engine.RunCycle(ctx, ids...)
	s.history.add(RunRecord{
		StartedAt:  started,
		FinishedAt: time.Now(),
		Trigger:    trigger,
		Results:    toResultRecords(results),
	})
	return results
}

func (s *Server) router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(log.Logger))
	r.Use(observability.RequestMetricsMiddleware())
	if len(s.cfg.CorsOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins: s.cfg.CorsOrigins,
			AllowMethods: []string{"GET", "POST"},
			AllowHeaders: []string{"Origin", "Content-Type"},
			MaxAge:       12 * time.Hour,
		}))
	}
	s.registerRoutes(r)
	return r
}
