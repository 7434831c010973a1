package health

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nodestack/internal/config"
	"nodestack/internal/graph"
	"nodestack/internal/registry"
	"nodestack/internal/types"
)

// fakeCollector is an in-memory StatusCollector
type fakeCollector struct {
	mu        sync.Mutex
	processes map[string]types.Process
	uptime    map[string]int64
	version   map[string]string
}

func newFakeCollector() *fakeCollector {
	return &fakeCollector{
		processes: map[string]types.Process{},
		uptime:    map[string]int64{},
		version:   map[string]string{},
	}
}

func (c *fakeCollector) setRunning(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.processes[name] = types.Process{Name: name, State: types.ProcessStateRunning}
}

func (c *fakeCollector) setExited(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.processes[name] = types.Process{Name: name, State: types.ProcessStateExited}
}

func (c *fakeCollector) Refresh(ctx context.Context) error { return nil }

func (c *fakeCollector) ProcessOf(name string) (types.Process, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.processes[name]
	return p, ok
}

func (c *fakeCollector) IsLive(name string) bool {
	p, ok := c.ProcessOf(name)
	return ok && p.State.Live()
}

func (c *fakeCollector) UptimeOf(ctx context.Context, name string) *int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.uptime[name]; ok {
		return &v
	}
	return nil
}

func (c *fakeCollector) VersionOf(ctx context.Context, name string) *string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.version[name]; ok {
		return &v
	}
	return nil
}

// fakeProber counts attempts and returns scripted results
type fakeProber struct {
	attempts atomic.Int64
	err      error
	block    bool
}

func (p *fakeProber) Probe(ctx context.Context, svc registry.ServiceDescriptor) error {
	p.attempts.Add(1)
	if p.block {
		<-ctx.Done()
		return ctx.Err()
	}
	return p.err
}

func testEngine(t *testing.T, services map[string]config.ServiceConfig) (*Engine, *fakeCollector, *fakeProber) {
	t.Helper()

	cfg := config.Default()
	cfg.Services = services
	require.NoError(t, cfg.Validate())

	reg := registry.FromConfig(cfg)
	g, err := graph.Build(reg)
	require.NoError(t, err)

	collector := newFakeCollector()
	prober := &fakeProber{}

	hc := config.HealthConfig{
		Interval:     config.Duration(time.Second),
		CycleTimeout: config.Duration(2 * time.Second),
		ProbeTimeout: config.Duration(100 * time.Millisecond),
		Retries:      3,
		BackoffBase:  config.Duration(time.Millisecond),
		BackoffMax:   config.Duration(2 * time.Millisecond),
		Workers:      4,
	}

	e := NewEngine(reg, g, collector, hc)
	e.proberFor = func(types.Protocol) Prober { return prober }
	return e, collector, prober
}

func tcpService(deps ...string) config.ServiceConfig {
	return config.ServiceConfig{
		Endpoint:  "localhost:9000",
		Protocol:  "tcp",
		Profile:   "test",
		DependsOn: deps,
	}
}

func TestRunCycleHealthyService(t *testing.T) {
	e, collector, _ := testEngine(t, map[string]config.ServiceConfig{
		"gateway": tcpService(),
	})
	collector.setRunning("gateway")
	collector.uptime["gateway"] = 120
	collector.version["gateway"] = "1.2.3"

	snap := e.RunCycle(context.Background())
	require.Len(t, snap.Services, 1)

	svc := snap.Services[0]
	assert.Equal(t, types.HealthStatusHealthy, svc.Record.Status)
	require.NotNil(t, svc.Record.UptimeSeconds)
	assert.Equal(t, int64(120), *svc.Record.UptimeSeconds)
	require.NotNil(t, svc.Record.Version)
	assert.Equal(t, "1.2.3", *svc.Record.Version)
	assert.Equal(t, "running", svc.Record.DockerState)
}

// TestRunCycleRetryBudget checks that an unhealthy probe is attempted
// exactly the configured number of times, no more.
func TestRunCycleRetryBudget(t *testing.T) {
	e, collector, prober := testEngine(t, map[string]config.ServiceConfig{
		"gateway": tcpService(),
	})
	collector.setRunning("gateway")
	prober.err = errors.New("tcp connect failed: no route to host")

	snap := e.RunCycle(context.Background())

	require.Len(t, snap.Services, 1)
	assert.Equal(t, types.HealthStatusUnhealthy, snap.Services[0].Record.Status)
	assert.Equal(t, int64(3), prober.attempts.Load())
	assert.Contains(t, snap.Services[0].Record.Error, "no route to host")
}

// TestRunCycleStoppedServiceSkipsProbe checks that a non-live container
// is reported stopped without spending the probe budget on it.
func TestRunCycleStoppedServiceSkipsProbe(t *testing.T) {
	e, collector, prober := testEngine(t, map[string]config.ServiceConfig{
		"gateway": tcpService(),
	})
	collector.setExited("gateway")

	snap := e.RunCycle(context.Background())

	assert.Equal(t, types.HealthStatusStopped, snap.Services[0].Record.Status)
	assert.Equal(t, "exited", snap.Services[0].Record.DockerState)
	assert.Zero(t, prober.attempts.Load())
}

func TestRunCycleUnknownContainerIsStopped(t *testing.T) {
	e, _, prober := testEngine(t, map[string]config.ServiceConfig{
		"gateway": tcpService(),
	})

	snap := e.RunCycle(context.Background())

	assert.Equal(t, types.HealthStatusStopped, snap.Services[0].Record.Status)
	assert.Empty(t, snap.Services[0].Record.DockerState)
	assert.Zero(t, prober.attempts.Load())
}

// TestRunCycleDependencyAnnotation checks that a service healthy in
// itself still reports a dead dependency, and that both facts appear in
// the same record.
func TestRunCycleDependencyAnnotation(t *testing.T) {
	e, collector, _ := testEngine(t, map[string]config.ServiceConfig{
		"kaspad":  tcpService(),
		"indexer": tcpService("kaspad"),
	})
	collector.setExited("kaspad")
	collector.setRunning("indexer")

	snap := e.RunCycle(context.Background())

	indexer, ok := snap.ByName("indexer")
	require.True(t, ok)
	assert.Equal(t, types.HealthStatusHealthy, indexer.Record.Status)
	assert.False(t, indexer.Record.DependencyStatus.AllHealthy)
	require.Len(t, indexer.Record.DependencyStatus.Dependencies, 1)
	assert.Equal(t, "kaspad", indexer.Record.DependencyStatus.Dependencies[0].Name)
	assert.False(t, indexer.Record.DependencyStatus.Dependencies[0].Healthy)

	kaspad, ok := snap.ByName("kaspad")
	require.True(t, ok)
	assert.Equal(t, types.HealthStatusStopped, kaspad.Record.Status)
}

// TestRunCycleSyncingClassification checks the full path from probe
// failure to the syncing status for a critical stream-rpc service.
func TestRunCycleSyncingClassification(t *testing.T) {
	e, collector, prober := testEngine(t, map[string]config.ServiceConfig{
		"kaspad": {
			Endpoint: "localhost:16110",
			Protocol: "stream-rpc",
			Profile:  "kaspa-node",
			Critical: true,
		},
	})
	collector.setRunning("kaspad")
	prober.err = errors.New("rpc dial failed: connect: connection refused")

	snap := e.RunCycle(context.Background())

	assert.Equal(t, types.HealthStatusSyncing, snap.Services[0].Record.Status)
}

// TestRunCycleCarriesForwardAbandonedProbes checks that a probe cut off
// by the cycle deadline keeps the service's previous record instead of
// publishing a transient error.
func TestRunCycleCarriesForwardAbandonedProbes(t *testing.T) {
	e, collector, prober := testEngine(t, map[string]config.ServiceConfig{
		"gateway": tcpService(),
	})
	collector.setRunning("gateway")

	first := e.RunCycle(context.Background())
	require.Equal(t, types.HealthStatusHealthy, first.Services[0].Record.Status)

	prober.block = true
	e.cfg.CycleTimeout = config.Duration(50 * time.Millisecond)

	second := e.RunCycle(context.Background())
	assert.Equal(t, types.HealthStatusHealthy, second.Services[0].Record.Status)
	assert.Equal(t, first.Services[0].Record.LastCheck, second.Services[0].Record.LastCheck)
}

func TestSnapshotReplacedAtomically(t *testing.T) {
	e, collector, _ := testEngine(t, map[string]config.ServiceConfig{
		"gateway": tcpService(),
	})
	collector.setRunning("gateway")

	initial := e.Snapshot()
	require.NotNil(t, initial)
	assert.Empty(t, initial.Services)

	published := e.RunCycle(context.Background())
	assert.Same(t, published, e.Snapshot())
}

func TestSubscribersReceiveEverySnapshot(t *testing.T) {
	e, collector, _ := testEngine(t, map[string]config.ServiceConfig{
		"gateway": tcpService(),
	})
	collector.setRunning("gateway")

	var got []*types.Snapshot
	e.Subscribe(func(s *types.Snapshot) { got = append(got, s) })

	first := e.RunCycle(context.Background())
	second := e.RunCycle(context.Background())

	require.Len(t, got, 2)
	assert.Same(t, first, got[0])
	assert.Same(t, second, got[1])
}

func TestRunCycleSortsByName(t *testing.T) {
	e, collector, _ := testEngine(t, map[string]config.ServiceConfig{
		"zeta":  tcpService(),
		"alpha": tcpService(),
		"mid":   tcpService(),
	})
	collector.setRunning("zeta")

	snap := e.RunCycle(context.Background())

	require.Len(t, snap.Services, 3)
	assert.Equal(t, "alpha", snap.Services[0].Name)
	assert.Equal(t, "mid", snap.Services[1].Name)
	assert.Equal(t, "zeta", snap.Services[2].Name)
}
