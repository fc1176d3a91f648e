package core

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"

	"github.com/amoylab/cryptogrammer/internal/common/config"
	"github.com/amoylab/cryptogrammer/internal/game"
	"github.com/amoylab/cryptogrammer/internal/notifier"
	"github.com/amoylab/cryptogrammer/internal/transport"
	"github.com/amoylab/cryptogrammer/pkg/metrics"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

type (
	// Server represents the session server
	Server struct {
		logger *zap.Logger
		cfg    *config.ServerConfig
		router *gin.Engine
		http   *http.Server
		// registry owns every session and membership
		registry *game.Registry
		// hub owns every websocket connection
		hub      *transport.Hub
		handler  *Handler
		reaper   *Reaper
		notifier notifier.Notifier
		metrics  *metrics.Metrics

		started      atomic.Bool
		reaperCtx    context.Context
		reaperCancel context.CancelFunc
		reaperDone   chan struct{}
	}

	// SessionStats is the body of the stats endpoint
	SessionStats struct {
		Sessions    int `json:"sessions"`
		Connections int `json:"connections"`
	}
)

// NewServer wires the registry, transport, handler and reaper
func NewServer(logger *zap.Logger, cfg *config.ServerConfig, n notifier.Notifier) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("server config is required")
	}
	if n == nil {
		n = notifier.NoopNotifier{}
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New(cfg.Metrics)
	}

	store := game.NewStore(
		game.WithIDDigits(cfg.Session.IDDigits),
		game.WithMaxIDAttempts(cfg.Session.MaxIDAttempts),
	)
	registry := game.NewRegistry(store, game.NewMembership())

	hub := transport.NewHub(logger, cfg.Transport, m)
	var t transport.Transport = hub
	if cfg.Debug.LogBroadcasts {
		t = transport.NewLoggingTransport(hub, logger)
	}

	handler := NewHandler(logger, registry, t, WithNotifier(n), WithMetrics(m))
	hub.SetDispatcher(handler)

	reaperCtx, reaperCancel := context.WithCancel(context.Background())
	s := &Server{
		logger:       logger.Named("core.server"),
		cfg:          cfg,
		router:       gin.New(),
		registry:     registry,
		hub:          hub,
		handler:      handler,
		reaper:       NewReaper(logger, registry, t, cfg.Session, n, m),
		notifier:     n,
		metrics:      m,
		reaperCtx:    reaperCtx,
		reaperCancel: reaperCancel,
		reaperDone:   make(chan struct{}),
	}
	s.http = &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: s.router,
	}

	s.router.Use(s.recoveryMiddleware())
	s.router.Use(s.loggerMiddleware())
	if cfg.Tracing.Enabled {
		s.router.Use(otelgin.Middleware(cfg.Tracing.ServiceName))
	}
	if m != nil {
		s.router.Use(m.Middleware())
	}
	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	s.router.GET("/health_check", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Health check passed.",
		})
	})

	api := s.router.Group("/api", s.corsMiddleware(s.cfg.Transport.AllowOrigins))
	api.GET("/sessions/stats", s.handleStats)
	api.OPTIONS("/sessions/stats", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	if s.metrics != nil {
		s.router.GET(s.cfg.Metrics.Path, gin.WrapH(s.metrics.Handler()))
	}

	s.router.GET(s.cfg.Transport.Path, func(c *gin.Context) {
		s.hub.ServeWS(c.Writer, c.Request)
	})
}

func (s *Server) handleStats(c *gin.Context) {
	sessions, _ := s.registry.Stats()
	c.JSON(http.StatusOK, SessionStats{
		Sessions:    sessions,
		Connections: s.hub.Len(),
	})
}

// Handler returns the HTTP handler serving every route
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start runs the reaper and serves HTTP until Shutdown is called
func (s *Server) Start() error {
	s.started.Store(true)
	go func() {
		defer close(s.reaperDone)
		s.reaper.Run(s.reaperCtx)
	}()

	s.logger.Info("starting session server",
		zap.Int("port", s.cfg.Port),
		zap.String("ws_path", s.cfg.Transport.Path))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown stops the reaper, closes every websocket with a going-away
// frame, then stops the HTTP server and the notifier
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down session server")

	s.reaperCancel()
	if s.started.Load() {
		select {
		case <-s.reaperDone:
		case <-ctx.Done():
		}
	}

	var errs []error
	if err := s.hub.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("close websocket hub: %w", err))
	}
	if err := s.http.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("shutdown http server: %w", err))
	}
	if err := s.notifier.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close notifier: %w", err))
	}
	return errors.Join(errs...)
}
