package client

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"nodestack/internal/registry"
	"nodestack/internal/types"
)

// HealthSnapshot is the full-snapshot response shape
type HealthSnapshot struct {
	TakenAt  time.Time             `json:"taken_at"`
	Services []types.ServiceHealth `json:"services"`
	Total    int                   `json:"total"`
}

// ProfileServices is the profile resolution response shape
type ProfileServices struct {
	Profile   string                       `json:"profile"`
	Legacy    bool                         `json:"legacy"`
	Canonical []string                     `json:"canonical"`
	Services  []registry.ServiceDescriptor `json:"services"`
	Total     int                          `json:"total"`
}

// SystemStatus is the system status response shape
type SystemStatus struct {
	Status       string         `json:"status"`
	Uptime       string         `json:"uptime"`
	Services     int            `json:"services"`
	Profiles     int            `json:"profiles"`
	LastCycle    *time.Time     `json:"last_cycle,omitempty"`
	StatusCounts map[string]int `json:"status_counts"`
	Components   struct {
		Runtime  string `json:"runtime"`
		Database string `json:"database"`
	} `json:"components"`
}

// GetHealth fetches the latest health snapshot
func (c *Client) GetHealth(ctx context.Context) (*HealthSnapshot, error) {
	var snap HealthSnapshot
	if err := c.get(ctx, "/api/health", &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// GetServiceHealth fetches the latest record for one service
func (c *Client) GetServiceHealth(ctx context.Context, name string) (*types.ServiceHealth, error) {
	var svc types.ServiceHealth
	if err := c.get(ctx, fmt.Sprintf("/api/health/%s", url.PathEscape(name)), &svc); err != nil {
		return nil, err
	}
	return &svc, nil
}

// GetProfiles lists the canonical profile ids
func (c *Client) GetProfiles(ctx context.Context) ([]string, error) {
	var resp struct {
		Profiles []string `json:"profiles"`
	}
	if err := c.get(ctx, "/api/profiles", &resp); err != nil {
		return nil, err
	}
	return resp.Profiles, nil
}

// ResolveProfile resolves a profile id, legacy aliases included, to its
// member services
func (c *Client) ResolveProfile(ctx context.Context, id string) (*ProfileServices, error) {
	var resp ProfileServices
	if err := c.get(ctx, fmt.Sprintf("/api/profiles/%s/services", url.PathEscape(id)), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetStatus fetches the overall system status
func (c *Client) GetStatus(ctx context.Context) (*SystemStatus, error) {
	var status SystemStatus
	if err := c.get(ctx, "/api/status", &status); err != nil {
		return nil, err
	}
	return &status, nil
}
