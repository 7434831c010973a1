package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nodestack/internal/config"
	"nodestack/internal/constants"
	"nodestack/internal/db"
	"nodestack/internal/graph"
	"nodestack/internal/logger"
	"nodestack/internal/registry"
	"nodestack/internal/types"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// HealthSource exposes the engine's latest snapshot to the API layer
type HealthSource interface {
	Snapshot() *types.Snapshot
}

// RestartRunner plans and executes restarts for a set of changed services
type RestartRunner interface {
	Run(ctx context.Context, changed []string, profileChanges map[string]types.ChangeKind) (*types.RestartResult, error)
}

// RuntimeStatus reports container runtime reachability
type RuntimeStatus interface {
	IsAvailable(ctx context.Context) bool
}

// Config holds the server configuration
type Config struct {
	Host            string        `toml:"host"`
	Port            int           `toml:"port"`
	ReadTimeout     time.Duration `toml:"read_timeout"`
	WriteTimeout    time.Duration `toml:"write_timeout"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout"`
	AllowOrigins    []string      `toml:"allow_origins"`
	LogLevel        string        `toml:"log_level"`
}

// DefaultConfig returns the default server configuration
func DefaultConfig() *Config {
	return &Config{
		Host:            "localhost",
		Port:            constants.DefaultServerPort,
		ReadTimeout:     constants.DefaultServerReadTimeout,
		WriteTimeout:    constants.DefaultServerWriteTimeout,
		ShutdownTimeout: constants.DefaultServerShutdownTimeout,
		AllowOrigins:    []string{"*"},
		LogLevel:        "info",
	}
}

// ConfigFrom maps the loaded stack configuration onto a server Config,
// falling back to defaults for anything unset
func ConfigFrom(sc config.ServerConfig) *Config {
	cfg := DefaultConfig()
	if sc.Host != "" {
		cfg.Host = sc.Host
	}
	if sc.Port != 0 {
		cfg.Port = sc.Port
	}
	if sc.ReadTimeout != 0 {
		cfg.ReadTimeout = sc.ReadTimeout.Std()
	}
	if sc.WriteTimeout != 0 {
		cfg.WriteTimeout = sc.WriteTimeout.Std()
	}
	if sc.ShutdownTimeout != 0 {
		cfg.ShutdownTimeout = sc.ShutdownTimeout.Std()
	}
	if len(sc.AllowOrigins) > 0 {
		cfg.AllowOrigins = sc.AllowOrigins
	}
	if sc.LogLevel != "" {
		cfg.LogLevel = sc.LogLevel
	}
	return cfg
}

// Server is the HTTP API over the health engine and restart orchestrator
type Server struct {
	config    *Config
	echo      *echo.Echo
	registry  *registry.Registry
	graph     *graph.Graph
	health    HealthSource
	restarts  RestartRunner
	runtime   RuntimeStatus
	history   *db.HistoryRepository
	database  *db.DB
	hub       *Hub
	startTime time.Time
}

// New creates a server wired to its collaborators. history and database
// may be nil when restart history persistence is disabled.
func New(cfg *Config, reg *registry.Registry, g *graph.Graph, health HealthSource, restarts RestartRunner, rt RuntimeStatus, history *db.HistoryRepository, database *db.DB) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	if cfg.LogLevel != "" {
		logger.SetLevel(cfg.LogLevel)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = ErrorHandler

	return &Server{
		config:    cfg,
		echo:      e,
		registry:  reg,
		graph:     g,
		health:    health,
		restarts:  restarts,
		runtime:   rt,
		history:   history,
		database:  database,
		hub:       NewHub(),
		startTime: time.Now(),
	}
}

// Echo returns the Echo instance
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// Hub returns the websocket broadcast hub. Wire it to the health
// engine's subscriber list to push snapshots to connected clients.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Handler returns the HTTP handler with middleware and routes installed
func (s *Server) Handler() http.Handler {
	s.setupMiddleware()
	s.setupRoutes()
	return s.echo
}

// Start runs the server and blocks until shutdown
func (s *Server) Start(ctx context.Context) error {
	s.setupMiddleware()
	s.setupRoutes()

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	logger.Infof("Starting API server on %s", addr)

	srv := &http.Server{
		Addr:         addr,
		Handler:      s.echo,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	errChan := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("failed to start server: %w", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case <-quit:
		logger.Info("Shutting down server...")
	case <-ctx.Done():
		logger.Info("Context cancelled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	s.hub.Close()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	logger.Info("Server stopped gracefully")
	return nil
}

func (s *Server) setupMiddleware() {
	s.echo.Use(logger.RequestLogger())
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: s.config.AllowOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
	}))
}
