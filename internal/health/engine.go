package health

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"nodestack/internal/config"
	"nodestack/internal/graph"
	"nodestack/internal/logger"
	"nodestack/internal/metrics"
	"nodestack/internal/registry"
	"nodestack/internal/runtime"
	"nodestack/internal/types"
)

// StatusCollector is the runtime surface the engine needs: one bulk
// refresh per cycle plus per-name liveness, uptime and version reads.
type StatusCollector interface {
	Refresh(ctx context.Context) error
	ProcessOf(name string) (types.Process, bool)
	IsLive(name string) bool
	UptimeOf(ctx context.Context, name string) *int64
	VersionOf(ctx context.Context, name string) *string
}

var _ StatusCollector = (*runtime.Collector)(nil)

// Engine runs health check cycles over the registry. Probes within a
// cycle run with bounded parallelism; the finished snapshot replaces the
// previous one atomically so readers always see a consistent pass.
type Engine struct {
	registry  *registry.Registry
	graph     *graph.Graph
	collector StatusCollector
	cfg       config.HealthConfig

	snapshot atomic.Pointer[types.Snapshot]

	// proberFor is swapped out in tests
	proberFor func(types.Protocol) Prober

	mu          sync.Mutex
	subscribers []func(*types.Snapshot)
}

// NewEngine creates a health engine
func NewEngine(reg *registry.Registry, g *graph.Graph, collector StatusCollector, cfg config.HealthConfig) *Engine {
	e := &Engine{
		registry:  reg,
		graph:     g,
		collector: collector,
		cfg:       cfg,
		proberFor: ProberFor,
	}
	e.snapshot.Store(&types.Snapshot{})
	return e
}

// Snapshot returns the latest complete health pass. It never blocks on a
// running cycle.
func (e *Engine) Snapshot() *types.Snapshot {
	return e.snapshot.Load()
}

// Subscribe registers a callback invoked with every completed snapshot
func (e *Engine) Subscribe(fn func(*types.Snapshot)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.subscribers = append(e.subscribers, fn)
}

// Run executes check cycles every interval until the context is done.
// The first cycle starts immediately.
func (e *Engine) Run(ctx context.Context) {
	ticker := time.NewTicker(e.cfg.Interval.Std())
	defer ticker.Stop()

	e.RunCycle(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.RunCycle(ctx)
		}
	}
}

// RunCycle performs one full health pass and publishes the snapshot.
// Probes still pending when the cycle deadline expires are abandoned and
// their services keep the record from the previous snapshot.
func (e *Engine) RunCycle(ctx context.Context) *types.Snapshot {
	started := time.Now()
	cycleCtx, cancel := context.WithTimeout(ctx, e.cfg.CycleTimeout.Std())
	defer cancel()

	// One bulk runtime query shared by every probe in this cycle. On
	// failure the previous correlation stays in effect: stale liveness
	// beats failing the whole pass.
	if err := e.collector.Refresh(cycleCtx); err != nil {
		logger.WithError(err).Warn("runtime status refresh failed, using previous state")
	}

	services := e.registry.All()
	records := make([]types.ServiceHealth, len(services))

	jobs := make(chan int)
	var wg sync.WaitGroup

	workers := e.cfg.Workers
	if workers < 1 {
		workers = 1
	}

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				svc := services[i]
				records[i] = types.ServiceHealth{
					Name:        svc.Name,
					DisplayName: svc.DisplayName,
					Profile:     svc.Profile,
					Critical:    svc.Critical,
					Record:      e.checkService(cycleCtx, svc),
				}
			}
		}()
	}

	for i := range services {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	// Carry forward the previous record for services whose probe was
	// abandoned by the cycle deadline
	previous := e.snapshot.Load()
	for i := range records {
		if records[i].Record.Status == types.HealthStatusError && cycleCtx.Err() != nil {
			if prior, ok := previous.ByName(records[i].Name); ok && !prior.Record.LastCheck.IsZero() {
				records[i].Record = prior.Record
			}
		}
	}

	sort.Slice(records, func(i, j int) bool { return records[i].Name < records[j].Name })

	snapshot := &types.Snapshot{TakenAt: time.Now(), Services: records}
	e.snapshot.Store(snapshot)

	metrics.CycleDuration.Observe(time.Since(started).Seconds())
	for _, svc := range records {
		metrics.ProbeResults.WithLabelValues(svc.Name, string(svc.Record.Status)).Inc()
	}

	e.mu.Lock()
	subscribers := make([]func(*types.Snapshot), len(e.subscribers))
	copy(subscribers, e.subscribers)
	e.mu.Unlock()
	for _, fn := range subscribers {
		fn(snapshot)
	}

	return snapshot
}

// checkService produces the health record for one service in this cycle
func (e *Engine) checkService(ctx context.Context, svc registry.ServiceDescriptor) types.HealthRecord {
	record := types.HealthRecord{
		LastCheck:        time.Now(),
		DependencyStatus: e.dependencyStatus(svc),
	}

	proc, known := e.collector.ProcessOf(svc.Name)
	if known {
		record.DockerState = string(proc.State)
	}

	// No live process: report stopped and skip the probe entirely
	if !known || !proc.State.Live() {
		record.Status = types.HealthStatusStopped
		return record
	}

	err := e.probeWithRetry(ctx, svc)
	if err == nil {
		record.Status = types.HealthStatusHealthy
		record.UptimeSeconds = e.collector.UptimeOf(ctx, svc.Name)
		record.Version = e.collector.VersionOf(ctx, svc.Name)
		return record
	}

	if ctx.Err() != nil {
		// Abandoned by the cycle deadline; the caller substitutes the
		// previous record
		record.Status = types.HealthStatusError
		record.Error = ctx.Err().Error()
		return record
	}

	status, signature := classifyFailure(svc, err)
	record.Status = status
	record.Error = err.Error()
	if signature != "" {
		logger.WithFields(logger.Fields{
			"service":   svc.Name,
			"signature": signature,
		}).Debug("probe failure classified as syncing")
	}

	return record
}

// probeWithRetry attempts the protocol probe up to the retry budget,
// spacing attempts with capped exponential backoff. Each attempt has its
// own hard timeout.
func (e *Engine) probeWithRetry(ctx context.Context, svc registry.ServiceDescriptor) error {
	prober := e.proberFor(svc.Protocol)

	var lastErr error
	delay := e.cfg.BackoffBase.Std()

	for attempt := 1; attempt <= e.cfg.Retries; attempt++ {
		metrics.ProbeAttempts.WithLabelValues(svc.Name).Inc()

		attemptCtx, cancel := context.WithTimeout(ctx, e.cfg.ProbeTimeout.Std())
		lastErr = prober.Probe(attemptCtx, svc)
		cancel()

		if lastErr == nil {
			return nil
		}

		if attempt == e.cfg.Retries {
			break
		}

		select {
		case <-ctx.Done():
			return lastErr
		case <-time.After(delay):
		}

		delay *= 2
		if delay > e.cfg.BackoffMax.Std() {
			delay = e.cfg.BackoffMax.Std()
		}
	}

	return lastErr
}

// dependencyStatus annotates the liveness of every declared dependency.
// This is independent of the service's own probe outcome: a service can
// be healthy itself while a dependency is down, and both facts are
// reported.
func (e *Engine) dependencyStatus(svc registry.ServiceDescriptor) types.DependencyStatus {
	deps := e.graph.DependenciesOf(svc.Name)

	status := types.DependencyStatus{
		AllHealthy:   true,
		Dependencies: make([]types.DependencyHealth, 0, len(deps)),
	}

	for _, dep := range deps {
		live := e.collector.IsLive(dep)
		status.Dependencies = append(status.Dependencies, types.DependencyHealth{
			Name:     dep,
			Healthy:  live,
			Required: true,
		})
		if !live {
			status.AllHealthy = false
		}
	}

	return status
}
