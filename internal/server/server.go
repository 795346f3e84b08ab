// Package server exposes the calculator over HTTP.
//
//	POST /calculate  run a calculation
//	POST /tool       execute a tool call
//	GET  /schema     tool schema for agent registration
//	GET  /health     liveness check
//	GET  /metrics    Prometheus metrics
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"golang.org/x/time/rate"

	"github.com/njchilds90/gointegral/calculator"
	"github.com/njchilds90/gointegral/internal/config"
	"github.com/njchilds90/gointegral/internal/metrics"
)

const serviceName = "gointegral"

type Server struct {
	cfg     config.ServerConfig
	calc    *calculator.Calculator
	metrics *metrics.Metrics
	logger  *slog.Logger
	limiter *rate.Limiter
	engine  *gin.Engine
	server  *http.Server
}

func New(cfg config.ServerConfig, calc *calculator.Calculator, m *metrics.Metrics, logger *slog.Logger) *Server {
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	s := &Server{
		cfg:     cfg,
		calc:    calc,
		metrics: m,
		logger:  logger,
		limiter: rate.NewLimiter(limit, cfg.RateBurst),
	}

	s.engine = gin.New()
	s.engine.Use(gin.Recovery())
	s.engine.Use(otelgin.Middleware(serviceName))
	s.engine.Use(s.requestIDMiddleware())
	s.engine.Use(s.loggingMiddleware())
	s.engine.Use(s.rateLimitMiddleware())
	s.engine.Use(s.bodyLimitMiddleware())
	s.registerRoutes()
	return s
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) registerRoutes() {
	s.engine.POST("/calculate", s.handleCalculate)
	s.engine.POST("/tool", s.handleTool)
	s.engine.GET("/schema", s.handleSchema)
	s.engine.GET("/health", s.handleHealth)
	s.engine.GET("/metrics", gin.WrapH(s.metrics.Handler()))
}

// Start binds the port and serves in the background.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	s.server = &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       s.cfg.ReadTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}
	go func() {
		s.logger.Info("HTTP server starting", "addr", ln.Addr().String())
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server error", "error", err)
		}
	}()
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	s.logger.Info("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}
