// Package db provides database connectivity for the restart history store
package db

import (
	"context"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"nodestack/internal/constants"
	"nodestack/internal/xdg"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Config represents database configuration
type Config struct {
	// Driver specifies the database driver (sqlite3)
	Driver string
	// DSN is the data source name
	DSN string
	// MaxOpenConns is the maximum number of open connections
	MaxOpenConns int
	// MaxIdleConns is the maximum number of idle connections
	MaxIdleConns int
	// ConnMaxLifetime is the maximum lifetime of a connection
	ConnMaxLifetime time.Duration
	// ConnMaxIdleTime is the maximum idle time of a connection
	ConnMaxIdleTime time.Duration
}

// getDefaultDatabasePath returns the XDG-compliant database path
func getDefaultDatabasePath() string {
	dataDir, err := xdg.DataDir()
	if err != nil {
		// Fallback to ~/.local/share/nodestack
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, ".local", "share", "nodestack", "nodestack.db")
	}
	return filepath.Join(dataDir, "nodestack.db")
}

// DefaultConfig returns a default SQLite configuration
func DefaultConfig() *Config {
	return &Config{
		Driver:          "sqlite3",
		DSN:             getDefaultDatabasePath(),
		MaxOpenConns:    constants.DefaultMaxOpenConnections,
		MaxIdleConns:    constants.DefaultMaxIdleConnections,
		ConnMaxLifetime: constants.DefaultConnectionLifetime,
		ConnMaxIdleTime: constants.DefaultIdleTimeout,
	}
}

// DB wraps sqlx.DB with additional functionality
type DB struct {
	*sqlx.DB
	config *Config
}

// New creates a new database connection
func New(cfg *Config) (*DB, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	// Ensure directory exists for SQLite
	if cfg.Driver == "sqlite3" {
		dir := filepath.Dir(cfg.DSN)
		if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sqlx.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Enable foreign keys for SQLite
	if cfg.Driver == "sqlite3" {
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
	}

	return &DB{
		DB:     db,
		config: cfg,
	}, nil
}

// Migrate runs database migrations
func (db *DB) Migrate() error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	var dbInstance database.Driver
	switch db.config.Driver {
	case "sqlite3":
		dbInstance, err = sqlite3.WithInstance(db.DB.DB, &sqlite3.Config{})
		if err != nil {
			return fmt.Errorf("failed to create sqlite3 driver instance: %w", err)
		}
	default:
		return fmt.Errorf("unsupported database driver: %s", db.config.Driver)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, db.config.Driver, dbInstance)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.DB.Close()
}

// HealthCheck performs a health check on the database
func (db *DB) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	var result int
	if err := db.GetContext(ctx, &result, "SELECT 1"); err != nil {
		return fmt.Errorf("database query failed: %w", err)
	}

	return nil
}
