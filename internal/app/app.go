// Package app wires the stack manager together: configuration, the
// service registry and dependency graph, the container runtime, the
// health engine, the restart orchestrator and the API server.
package app

import (
	"context"
	"fmt"
	"path/filepath"

	"nodestack/internal/compose"
	"nodestack/internal/config"
	"nodestack/internal/db"
	"nodestack/internal/graph"
	"nodestack/internal/health"
	"nodestack/internal/logger"
	"nodestack/internal/orchestrator"
	"nodestack/internal/registry"
	"nodestack/internal/runtime"
	"nodestack/internal/server"
	"nodestack/internal/types"
	"nodestack/internal/watcher"
	"nodestack/internal/xdg"
)

// App represents the assembled stack manager
type App struct {
	Config       *config.Config
	ConfigPath   string
	Registry     *registry.Registry
	Graph        *graph.Graph
	DB           *db.DB
	History      *db.HistoryRepository
	Runtime      runtime.Runtime
	Collector    *runtime.Collector
	Engine       *health.Engine
	Orchestrator *orchestrator.Orchestrator
	Watcher      *watcher.Watcher
	Server       *server.Server
}

// DefaultConfigPath returns the XDG-compliant stack config location
func DefaultConfigPath() (string, error) {
	dir, err := xdg.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "stack.toml"), nil
}

// New builds the application from the configuration at path. Every
// construction error here is fatal: a stack manager with a broken
// registry or graph must not start.
func New(configPath string) (*App, error) {
	if configPath == "" {
		var err error
		configPath, err = DefaultConfigPath()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve config path: %w", err)
		}
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	a := &App{
		Config:     cfg,
		ConfigPath: configPath,
	}

	a.Registry = registry.FromConfig(cfg)

	a.Graph, err = graph.Build(a.Registry)
	if err != nil {
		return nil, fmt.Errorf("failed to build dependency graph: %w", err)
	}

	// Surface dependency cycles at startup, not at the first restart
	if _, err := a.Graph.TopologicalOrder(a.Registry.Names()); err != nil {
		return nil, fmt.Errorf("invalid dependency graph: %w", err)
	}

	if cfg.Runtime.ComposeFile != "" {
		if err := a.crossCheckCompose(cfg.Runtime.ComposeFile); err != nil {
			return nil, err
		}
	}

	database, err := db.New(db.DefaultConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := database.Migrate(); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	a.DB = database
	a.History = db.NewHistoryRepository(database)

	docker := runtime.NewDockerRuntime(&runtime.DefaultCommandExecutor{})
	docker.CommandTimeout = cfg.Runtime.CommandTimeout.Std()
	docker.RestartTimeout = cfg.Runtime.RestartTimeout.Std()
	a.Runtime = docker
	a.Collector = runtime.NewCollector(a.Runtime, a.Registry)

	a.Engine = health.NewEngine(a.Registry, a.Graph, a.Collector, cfg.Health)
	a.Orchestrator = orchestrator.New(a.Registry, a.Graph, a.Collector, cfg.Restart)

	a.Server = server.New(
		server.ConfigFrom(cfg.Server),
		a.Registry,
		a.Graph,
		a.Engine,
		a.Orchestrator,
		a.Runtime,
		a.History,
		a.DB,
	)

	// Push each cycle's snapshot to websocket clients
	a.Engine.Subscribe(a.Server.Hub().Broadcast)

	a.Watcher = watcher.New(configPath, a.Registry, a.onConfigChange)

	return a, nil
}

// crossCheckCompose verifies every registered container exists in the
// compose file so typos surface at startup instead of as permanently
// stopped services.
func (a *App) crossCheckCompose(path string) error {
	file, err := compose.Parse(path)
	if err != nil {
		return fmt.Errorf("failed to parse compose file: %w", err)
	}
	for _, svc := range a.Registry.All() {
		if !file.HasService(svc.Container) {
			return fmt.Errorf("container %q of service %q not declared in %s", svc.Container, svc.Name, path)
		}
	}
	return nil
}

// onConfigChange turns a detected config diff into an executed restart
// plan and records the outcome.
func (a *App) onConfigChange(changed []string, profileChanges map[string]types.ChangeKind) {
	ctx := context.Background()

	result, err := a.Orchestrator.Run(ctx, changed, profileChanges)
	if err != nil {
		logger.WithError(err).Error("Config-change restart failed to plan")
		return
	}
	if err := a.History.Record(ctx, result); err != nil {
		logger.WithError(err).Warn("Failed to record restart history")
	}
}

// Run starts the health engine, the config watcher and the API server,
// and blocks until the context is cancelled or the server exits.
func (a *App) Run(ctx context.Context) error {
	defer a.Close()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go a.Engine.Run(runCtx)

	go func() {
		if err := a.Watcher.Run(runCtx); err != nil {
			logger.WithError(err).Error("Config watcher stopped")
		}
	}()

	return a.Server.Start(runCtx)
}

// Close releases held resources
func (a *App) Close() {
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close database")
		}
	}
}
