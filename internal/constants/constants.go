// Package constants defines application-wide constants to avoid magic numbers
package constants

import "time"

// Network and Port Constants
const (
	// DefaultServerPort is the default port for the nodestack API server
	DefaultServerPort = 8585
)

// File System Permissions
const (
	// DirPermissions is the standard directory permissions for nodestack directories
	DirPermissions = 0755

	// FilePermissions is the standard file permissions for nodestack config files
	FilePermissions = 0644
)

// Database Configuration
const (
	// DefaultMaxOpenConnections is the default maximum number of database connections
	DefaultMaxOpenConnections = 25

	// DefaultMaxIdleConnections is the default maximum number of idle database connections
	DefaultMaxIdleConnections = 5

	// DefaultConnectionLifetime is the default database connection lifetime
	DefaultConnectionLifetime = 5 * time.Minute

	// DefaultIdleTimeout is the default database idle connection timeout
	DefaultIdleTimeout = 1 * time.Minute
)

// HTTP Configuration
const (
	// DefaultHTTPClientTimeout is the default timeout for HTTP client requests
	DefaultHTTPClientTimeout = 30 * time.Second

	// DefaultServerReadTimeout is the default server read timeout
	DefaultServerReadTimeout = 10 * time.Second

	// DefaultServerWriteTimeout is the default server write timeout
	DefaultServerWriteTimeout = 10 * time.Second

	// DefaultServerShutdownTimeout is the default server graceful shutdown timeout
	DefaultServerShutdownTimeout = 30 * time.Second
)

// Pagination Constants
const (
	// DefaultPageSize is the default number of items per page in paginated responses
	DefaultPageSize = 20

	// MaxPageSize is the maximum allowed page size to prevent resource exhaustion
	MaxPageSize = 100
)

// Health Check Configuration
const (
	// DefaultCheckInterval is the default period between health check cycles
	DefaultCheckInterval = 30 * time.Second

	// DefaultCycleTimeout is the overall deadline for one health check cycle
	DefaultCycleTimeout = 60 * time.Second

	// DefaultProbeTimeout is the hard timeout for a single probe attempt
	DefaultProbeTimeout = 5 * time.Second

	// DefaultProbeRetries is the number of probe attempts per cycle
	DefaultProbeRetries = 3

	// DefaultBackoffBase is the initial delay between probe retries
	DefaultBackoffBase = 500 * time.Millisecond

	// DefaultBackoffMax caps the exponential retry backoff
	DefaultBackoffMax = 4 * time.Second

	// DefaultProbeWorkers bounds the number of concurrent service probes
	DefaultProbeWorkers = 8
)

// Runtime and Restart Configuration
const (
	// DefaultRuntimeCommandTimeout is the timeout for container runtime commands
	DefaultRuntimeCommandTimeout = 30 * time.Second

	// DefaultRestartTimeout is the timeout for a single container restart
	DefaultRestartTimeout = 60 * time.Second

	// DefaultRestartDelay is the pause between sequential restarts
	DefaultRestartDelay = 2 * time.Second

	// DefaultVersionCacheTTL is how long runtime version lookups stay cached
	DefaultVersionCacheTTL = 5 * time.Minute
)

// Network Port Validation
const (
	// MinPortNumber is the minimum valid TCP port number
	MinPortNumber = 1

	// MaxPortNumber is the maximum valid TCP port number
	MaxPortNumber = 65535
)
