package server

import (
	"time"

	"nodestack/internal/db"
	"nodestack/internal/registry"
	"nodestack/internal/types"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is the full snapshot of service health
type HealthResponse struct {
	TakenAt  time.Time             `json:"taken_at"`
	Services []types.ServiceHealth `json:"services"`
	Total    int                   `json:"total"`
}

// ProfileServicesResponse lists the services a profile id resolves to
type ProfileServicesResponse struct {
	Profile   string                       `json:"profile"`
	Legacy    bool                         `json:"legacy"`
	Canonical []string                     `json:"canonical"`
	Services  []registry.ServiceDescriptor `json:"services"`
	Total     int                          `json:"total"`
}

// RestartRequest asks for a restart of the named services. Services not
// registered in this process are reported as skipped, not rejected.
// ProfileChanges marks services whose profile appeared or disappeared;
// those are accounted as skipped in the plan.
type RestartRequest struct {
	Services       []string                    `json:"services" validate:"required"`
	ProfileChanges map[string]types.ChangeKind `json:"profile_changes,omitempty"`
}

// RestartHistoryResponse is a page of recorded restart plans
type RestartHistoryResponse struct {
	Plans    []db.RestartPlanRow `json:"plans"`
	Total    int                 `json:"total"`
	Page     int                 `json:"page"`
	PageSize int                 `json:"page_size"`
}

// RestartDetailResponse is one recorded plan with its per-service items
type RestartDetailResponse struct {
	Plan  db.RestartPlanRow   `json:"plan"`
	Items []db.RestartItemRow `json:"items"`
}

// SystemStatusResponse represents the overall system status
type SystemStatusResponse struct {
	Status       string            `json:"status"`
	Uptime       string            `json:"uptime"`
	Services     int               `json:"services"`
	Profiles     int               `json:"profiles"`
	LastCycle    *time.Time        `json:"last_cycle,omitempty"`
	StatusCounts map[string]int    `json:"status_counts"`
	Components   ComponentStatuses `json:"components"`
}

// ComponentStatuses reports the health of the server's own dependencies
type ComponentStatuses struct {
	Runtime  string `json:"runtime"`
	Database string `json:"database"`
}
