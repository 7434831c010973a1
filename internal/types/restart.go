package types

import "time"

// ChangeKind classifies a detected change to a service or profile
type ChangeKind string

const (
	// ChangeProfileAdded means a profile was newly installed; its services
	// are started by the runtime, not restarted by us
	ChangeProfileAdded ChangeKind = "profile-added"
	// ChangeProfileRemoved means a profile is being torn down externally
	ChangeProfileRemoved ChangeKind = "profile-removed"
	// ChangeConfiguration means an existing service's configuration changed
	// and the process must be restarted to pick it up
	ChangeConfiguration ChangeKind = "configuration-change"
)

// SkipReason explains why a changed service was left out of a restart plan
type SkipReason string

const (
	SkipReasonProfileAdded   SkipReason = "profile added, started by runtime"
	SkipReasonProfileRemoved SkipReason = "profile removed, torn down externally"
	SkipReasonNotRegistered  SkipReason = "not registered in this process"
)

// SkippedService is a plan member that will not be restarted
type SkippedService struct {
	Name   string     `json:"name"`
	Reason SkipReason `json:"reason"`
}

// RestartPlan is a dependency-ordered sequence of services to restart
type RestartPlan struct {
	ID      string           `json:"id"`
	Order   []string         `json:"order"`
	Skipped []SkippedService `json:"skipped"`
}

// RestartFailure records one failed restart within a plan
type RestartFailure struct {
	Name  string `json:"name"`
	Error string `json:"error"`
}

// RestartResult partitions a plan's outcome. A failed item never aborts
// the remaining plan; every member is attempted and accounted for.
type RestartResult struct {
	PlanID      string           `json:"plan_id"`
	StartedAt   time.Time        `json:"started_at"`
	CompletedAt time.Time        `json:"completed_at"`
	Restarted   []string         `json:"restarted"`
	Failed      []RestartFailure `json:"failed"`
	Skipped     []SkippedService `json:"skipped"`
}
