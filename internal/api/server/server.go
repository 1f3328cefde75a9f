package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/feral-file/flightstake-indexer/internal/adapter"
	"github.com/feral-file/flightstake-indexer/internal/api/gateway"
	"github.com/feral-file/flightstake-indexer/internal/api/middleware"
	"github.com/feral-file/flightstake-indexer/internal/api/rest"
	"github.com/feral-file/flightstake-indexer/internal/logger"
	"github.com/feral-file/flightstake-indexer/internal/metrics"
)

// HubPath is where the live-update hub is mounted
const HubPath = "/hub"

// Config holds the server configuration
type Config struct {
	Debug        bool
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// Server wraps the HTTP server
type Server struct {
	config     Config
	gateway    gateway.Gateway
	metrics    *metrics.Metrics
	hub        adapter.SignalRServer
	httpServer *http.Server
}

// New creates a new API server. metrics and hub are optional.
func New(cfg Config, gw gateway.Gateway, m *metrics.Metrics, hub adapter.SignalRServer) *Server {
	return &Server{
		config:  cfg,
		gateway: gw,
		metrics: m,
		hub:     hub,
	}
}

// Handler builds the routing tree: the hub on a plain mux, everything else on gin
func (s *Server) Handler() http.Handler {
	if s.config.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.SetupCORS())

	rest.SetupRoutes(router, rest.NewHandler(s.gateway))

	if s.metrics != nil {
		router.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}

	mux := http.NewServeMux()
	if s.hub != nil {
		s.hub.MapHTTP(mux, HubPath)
	}
	mux.Handle("/", router)

	return mux
}

// Start serves until Shutdown is called
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	logger.Info("Starting API server", zap.String("address", addr))

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	logger.Info("Shutting down API server")

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown server: %w", err)
		}
	}

	return nil
}
