package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"etymon/internal/config"
	"etymon/internal/gamification"
	"etymon/internal/history"
	"etymon/internal/leaderboard"
	"etymon/internal/logging"
	"etymon/internal/lookup"
)

// Deps carries the services the HTTP layer fronts.
type Deps struct {
	Lookups     *lookup.Service
	Engine      *gamification.Engine
	History     *history.Store
	Leaderboard *leaderboard.View
	Logger      *slog.Logger
}

// Server owns the HTTP listener and routes.
type Server struct {
	cfg    *config.Config
	deps   Deps
	logger *slog.Logger
	http   *http.Server
}

// New builds the server and its router.
func New(cfg *config.Config, deps Deps) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("server: config required")
	}
	if deps.Lookups == nil || deps.Engine == nil || deps.History == nil || deps.Leaderboard == nil {
		return nil, errors.New("server: all services required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	s := &Server{
		cfg:    cfg,
		deps:   deps,
		logger: logging.NewComponentLogger(logger, "server"),
	}
	s.http = &http.Server{
		Addr:              cfg.Server.Bind,
		Handler:           s.router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// ListenAndServe blocks until the listener fails or Shutdown is called.
func (s *Server) ListenAndServe() error {
	s.logger.Info("http server listening", logging.String("bind", s.cfg.Server.Bind))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(s.requestID())
	r.Use(s.requestLogger())
	r.Use(s.corsMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")
	api.Use(s.authMiddleware())
	{
		api.GET("/details", s.handleDetails)
		api.GET("/summary", s.handleSummary)
		api.GET("/image", s.handleImage)
		api.POST("/image", s.handleImage)
		api.GET("/tts", s.handleTTS)
		api.POST("/tts", s.handleTTS)

		api.GET("/gamification", s.handleGetGamification)
		api.POST("/gamification", s.handlePostGamification)
		api.POST("/gamification/merge", s.handleMergeGamification)

		api.GET("/leaderboard", s.handleLeaderboard)

		api.GET("/history", s.handleListHistory)
		api.POST("/history", s.handleAppendHistory)
		api.DELETE("/history", s.handleDeleteHistory)
		api.DELETE("/history/all", s.handleClearHistory)
	}
	return r
}
