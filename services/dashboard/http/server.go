package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/02loveslollipop/ble-gateway-viewer/internal/metrics"
	"github.com/02loveslollipop/ble-gateway-viewer/internal/session"
	"github.com/02loveslollipop/ble-gateway-viewer/internal/transport"
	"github.com/02loveslollipop/ble-gateway-viewer/services/dashboard/config"
)

// Server bundles router and dependencies for the dashboard API.
type Server struct {
	cfg     config.Config
	session *session.Session
	metrics *metrics.Metrics
	logger  zerolog.Logger
	engine  *gin.Engine

	listPorts func() ([]string, error)
	stream    streamTiming
}

// New constructs a server with routes and middleware.
func New(cfg config.Config, sess *session.Session, m *metrics.Metrics, logger zerolog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(requestLogger(logger))
	engine.Use(corsMiddleware())

	server := &Server{
		cfg:       cfg,
		session:   sess,
		metrics:   m,
		logger:    logger,
		engine:    engine,
		listPorts: transport.ListPorts,
		stream:    defaultStreamTiming,
	}
	server.registerRoutes()
	server.registerV1Routes()
	return server
}

// Engine exposes the underlying gin engine (for tests).
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Run starts the HTTP server and blocks until shutdown.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.ListenAddr(),
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", func(c *gin.Context) {
		st := s.session.State()
		c.JSON(http.StatusOK, gin.H{"status": "ok", "connected": st.Connected})
	})

	if s.metrics != nil {
		s.engine.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}
}

func requestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		event := logger.Debug()
		if c.Writer.Status() >= http.StatusInternalServerError {
			event = logger.Warn()
		}
		event.
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("HTTP request")
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func apiVersionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-API-Version", "v1")
		c.Next()
	}
}
