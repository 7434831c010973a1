// Package orchestrator plans and executes selective service restarts.
// Execution is strictly sequential: ordering guarantees come from walking
// the dependency-sorted plan one element at a time with an inter-step
// delay, and that is a correctness requirement, not a tuning choice.
package orchestrator

import (
	"context"
	"time"

	"github.com/google/uuid"

	"nodestack/internal/config"
	"nodestack/internal/graph"
	"nodestack/internal/logger"
	"nodestack/internal/metrics"
	"nodestack/internal/registry"
	"nodestack/internal/types"
)

// Restarter issues the actual restart command for one service
type Restarter interface {
	Restart(ctx context.Context, name string) error
}

// Orchestrator computes and runs restart plans
type Orchestrator struct {
	registry  *registry.Registry
	graph     *graph.Graph
	restarter Restarter
	cfg       config.RestartConfig

	// sleep is swapped out in tests
	sleep func(time.Duration)
}

// New creates a restart orchestrator
func New(reg *registry.Registry, g *graph.Graph, restarter Restarter, cfg config.RestartConfig) *Orchestrator {
	return &Orchestrator{
		registry:  reg,
		graph:     g,
		restarter: restarter,
		cfg:       cfg,
		sleep:     time.Sleep,
	}
}

// PlanRestart classifies the changed services and orders the ones that
// need a process restart. Services whose profile was just added are
// started by the runtime and services of a removed profile are torn down
// externally; both are skipped, not restarted.
func (o *Orchestrator) PlanRestart(changed []string, profileChanges map[string]types.ChangeKind) (*types.RestartPlan, error) {
	plan := &types.RestartPlan{ID: uuid.NewString()}

	var included []string
	for _, name := range changed {
		if !o.registry.Has(name) {
			// A name this process has no descriptor for can only come
			// from a newly installed profile; the runtime starts it
			plan.Skipped = append(plan.Skipped, types.SkippedService{
				Name:   name,
				Reason: types.SkipReasonNotRegistered,
			})
			continue
		}
		switch o.classify(name, profileChanges) {
		case types.ChangeProfileAdded:
			plan.Skipped = append(plan.Skipped, types.SkippedService{
				Name:   name,
				Reason: types.SkipReasonProfileAdded,
			})
		case types.ChangeProfileRemoved:
			plan.Skipped = append(plan.Skipped, types.SkippedService{
				Name:   name,
				Reason: types.SkipReasonProfileRemoved,
			})
		default:
			included = append(included, name)
		}
	}

	order, err := o.graph.TopologicalOrder(included)
	if err != nil {
		// A cycle is fatal for this plan; falling back to an arbitrary
		// order could restart dependents before their dependencies
		return nil, err
	}
	plan.Order = order

	return plan, nil
}

// classify determines what kind of change a service is part of
func (o *Orchestrator) classify(name string, profileChanges map[string]types.ChangeKind) types.ChangeKind {
	if svc, ok := o.registry.Get(name); ok {
		if kind, ok := profileChanges[svc.Profile]; ok {
			return kind
		}
	}
	return types.ChangeConfiguration
}

// Execute runs the plan sequentially, dependencies first. A failed
// restart is recorded and the remaining plan continues; there is no
// mid-plan abort.
func (o *Orchestrator) Execute(ctx context.Context, plan *types.RestartPlan) *types.RestartResult {
	result := &types.RestartResult{
		PlanID:    plan.ID,
		StartedAt: time.Now(),
		Restarted: []string{},
		Failed:    []types.RestartFailure{},
		Skipped:   plan.Skipped,
	}

	for i, name := range plan.Order {
		log := logger.WithFields(logger.Fields{"plan": plan.ID, "service": name})
		log.Info("restarting service")

		if err := o.restarter.Restart(ctx, name); err != nil {
			log.WithError(err).Error("restart failed")
			result.Failed = append(result.Failed, types.RestartFailure{
				Name:  name,
				Error: err.Error(),
			})
			metrics.RestartResults.WithLabelValues(name, "failed").Inc()
		} else {
			log.Info("restart complete")
			result.Restarted = append(result.Restarted, name)
			metrics.RestartResults.WithLabelValues(name, "restarted").Inc()
		}

		// Space restarts out so the host is not overloaded
		if i < len(plan.Order)-1 {
			o.sleep(o.cfg.Delay.Std())
		}
	}

	for _, skipped := range plan.Skipped {
		metrics.RestartResults.WithLabelValues(skipped.Name, "skipped").Inc()
	}

	result.CompletedAt = time.Now()
	return result
}

// Run plans and executes a restart for a changed set in one call
func (o *Orchestrator) Run(ctx context.Context, changed []string, profileChanges map[string]types.ChangeKind) (*types.RestartResult, error) {
	plan, err := o.PlanRestart(changed, profileChanges)
	if err != nil {
		return nil, err
	}
	return o.Execute(ctx, plan), nil
}
