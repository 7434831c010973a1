// Package types provides common type definitions
package types

import "time"

// Protocol identifies how a service is probed
type Protocol string

const (
	// ProtocolStreamRPC is a JSON-RPC-over-websocket node endpoint
	ProtocolStreamRPC Protocol = "stream-rpc"
	// ProtocolHTTP is an HTTP endpoint with a health path
	ProtocolHTTP Protocol = "http"
	// ProtocolTCP is a raw socket endpoint
	ProtocolTCP Protocol = "tcp"
	// ProtocolStore is a relational store readiness endpoint
	ProtocolStore Protocol = "store"
)

// HealthStatus represents the classified health of a service
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
	HealthStatusStopped   HealthStatus = "stopped"
	HealthStatusSyncing   HealthStatus = "syncing"
	HealthStatusError     HealthStatus = "error"
)

// DependencyHealth reports the liveness of one declared dependency
type DependencyHealth struct {
	Name     string `json:"name"`
	Healthy  bool   `json:"healthy"`
	Required bool   `json:"required"`
}

// DependencyStatus aggregates dependency liveness for one service
type DependencyStatus struct {
	AllHealthy   bool               `json:"all_healthy"`
	Dependencies []DependencyHealth `json:"dependencies"`
}

// HealthRecord is the per-cycle check result for one service.
// Records are ephemeral: each cycle produces a fresh snapshot that
// replaces the previous one, nothing is persisted.
type HealthRecord struct {
	Status           HealthStatus     `json:"status"`
	LastCheck        time.Time        `json:"last_check"`
	DockerState      string           `json:"docker_state,omitempty"`
	UptimeSeconds    *int64           `json:"uptime_seconds"`
	Version          *string          `json:"version"`
	Error            string           `json:"error,omitempty"`
	DependencyStatus DependencyStatus `json:"dependency_status"`
}

// ServiceHealth pairs a service's static identity with its latest record
type ServiceHealth struct {
	Name        string       `json:"name"`
	DisplayName string       `json:"display_name"`
	Profile     string       `json:"profile"`
	Critical    bool         `json:"critical"`
	Record      HealthRecord `json:"record"`
}

// Snapshot is one complete health pass over the registry
type Snapshot struct {
	TakenAt  time.Time       `json:"taken_at"`
	Services []ServiceHealth `json:"services"`
}

// ByName returns the entry for a service, if present in the snapshot
func (s *Snapshot) ByName(name string) (ServiceHealth, bool) {
	for _, svc := range s.Services {
		if svc.Name == name {
			return svc, true
		}
	}
	return ServiceHealth{}, false
}
