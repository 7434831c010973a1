package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nodestack/internal/config"
	"nodestack/internal/graph"
	"nodestack/internal/registry"
	"nodestack/internal/types"
)

type fakeHealthSource struct {
	snapshot *types.Snapshot
}

func (f *fakeHealthSource) Snapshot() *types.Snapshot { return f.snapshot }

type fakeRestartRunner struct {
	changed []string
	ctxErr  error
	result  *types.RestartResult
	err     error
}

func (f *fakeRestartRunner) Run(ctx context.Context, changed []string, profileChanges map[string]types.ChangeKind) (*types.RestartResult, error) {
	f.changed = changed
	f.ctxErr = ctx.Err()
	return f.result, f.err
}

type fakeRuntimeStatus struct {
	available bool
}

func (f *fakeRuntimeStatus) IsAvailable(ctx context.Context) bool { return f.available }

type serverFixture struct {
	handler http.Handler
	health  *fakeHealthSource
	runner  *fakeRestartRunner
	runtime *fakeRuntimeStatus
}

func newFixture(t *testing.T) *serverFixture {
	t.Helper()

	cfg := config.Default()
	cfg.Profiles.Legacy = map[string]interface{}{"core": "kaspa-node"}
	cfg.Services = map[string]config.ServiceConfig{
		"kaspad": {
			Endpoint: "localhost:16110",
			Protocol: "stream-rpc",
			Profile:  "kaspa-node",
			Critical: true,
		},
		"indexer": {
			Endpoint:  "localhost:8080",
			Protocol:  "http",
			Profile:   "indexing",
			DependsOn: []string{"kaspad"},
		},
	}
	require.NoError(t, cfg.Validate())

	reg := registry.FromConfig(cfg)
	g, err := graph.Build(reg)
	require.NoError(t, err)

	health := &fakeHealthSource{}
	runner := &fakeRestartRunner{result: &types.RestartResult{PlanID: "plan-1"}}
	rt := &fakeRuntimeStatus{available: true}

	srv := New(DefaultConfig(), reg, g, health, runner, rt, nil, nil)
	return &serverFixture{
		handler: srv.Handler(),
		health:  health,
		runner:  runner,
		runtime: rt,
	}
}

func (f *serverFixture) request(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func sampleSnapshot() *types.Snapshot {
	return &types.Snapshot{
		TakenAt: time.Now().UTC(),
		Services: []types.ServiceHealth{
			{
				Name:    "indexer",
				Profile: "indexing",
				Record:  types.HealthRecord{Status: types.HealthStatusHealthy},
			},
			{
				Name:     "kaspad",
				Profile:  "kaspa-node",
				Critical: true,
				Record:   types.HealthRecord{Status: types.HealthStatusSyncing},
			},
		},
	}
}

func TestLiveness(t *testing.T) {
	f := newFixture(t)
	rec := f.request(http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestGetHealthBeforeFirstCycle(t *testing.T) {
	f := newFixture(t)
	rec := f.request(http.MethodGet, "/api/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Zero(t, resp.Total)
	assert.Empty(t, resp.Services)
}

func TestGetHealth(t *testing.T) {
	f := newFixture(t)
	f.health.snapshot = sampleSnapshot()

	rec := f.request(http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Total)
	assert.Equal(t, "indexer", resp.Services[0].Name)
}

func TestGetServiceHealth(t *testing.T) {
	f := newFixture(t)
	f.health.snapshot = sampleSnapshot()

	rec := f.request(http.MethodGet, "/api/health/kaspad", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	var svc types.ServiceHealth
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &svc))
	assert.Equal(t, "kaspad", svc.Name)
	assert.Equal(t, types.HealthStatusSyncing, svc.Record.Status)
}

func TestGetServiceHealthUnknown(t *testing.T) {
	f := newFixture(t)
	f.health.snapshot = sampleSnapshot()

	rec := f.request(http.MethodGet, "/api/health/ghost", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "SERVICE_NOT_FOUND")
}

func TestGetServiceHealthInvalidName(t *testing.T) {
	f := newFixture(t)

	rec := f.request(http.MethodGet, "/api/health/bad%20name", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListProfiles(t *testing.T) {
	f := newFixture(t)
	rec := f.request(http.MethodGet, "/api/profiles", "")

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Profiles []string `json:"profiles"`
		Total    int      `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Total)
	assert.Contains(t, resp.Profiles, "kaspa-node")
	assert.Contains(t, resp.Profiles, "indexing")
}

func TestGetProfileServicesCanonical(t *testing.T) {
	f := newFixture(t)
	rec := f.request(http.MethodGet, "/api/profiles/indexing/services", "")

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp ProfileServicesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Legacy)
	require.Len(t, resp.Services, 1)
	assert.Equal(t, "indexer", resp.Services[0].Name)
}

func TestGetProfileServicesLegacyAlias(t *testing.T) {
	f := newFixture(t)
	rec := f.request(http.MethodGet, "/api/profiles/core/services", "")

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp ProfileServicesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Legacy)
	assert.Equal(t, []string{"kaspa-node"}, resp.Canonical)
	require.Len(t, resp.Services, 1)
	assert.Equal(t, "kaspad", resp.Services[0].Name)
}

func TestGetProfileServicesUnknownIsEmpty(t *testing.T) {
	f := newFixture(t)
	rec := f.request(http.MethodGet, "/api/profiles/ghost/services", "")

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp ProfileServicesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Zero(t, resp.Total)
	assert.Empty(t, resp.Services)
}

func TestRestart(t *testing.T) {
	f := newFixture(t)
	rec := f.request(http.MethodPost, "/api/restart", `{"services":["kaspad","indexer"]}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"kaspad", "indexer"}, f.runner.changed)

	var result types.RestartResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "plan-1", result.PlanID)
}

// TestRestartRunsAfterClientDisconnect verifies a started plan keeps
// running when the request context is already canceled, as with a client
// that hung up or a server write timeout.
func TestRestartRunsAfterClientDisconnect(t *testing.T) {
	f := newFixture(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	req := httptest.NewRequest(http.MethodPost, "/api/restart",
		strings.NewReader(`{"services":["kaspad","indexer"]}`)).WithContext(ctx)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"kaspad", "indexer"}, f.runner.changed)
	assert.NoError(t, f.runner.ctxErr)
}

func TestRestartRequiresServices(t *testing.T) {
	f := newFixture(t)
	rec := f.request(http.MethodPost, "/api/restart", `{"services":[]}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Nil(t, f.runner.changed)
}

func TestRestartRejectsInvalidName(t *testing.T) {
	f := newFixture(t)
	rec := f.request(http.MethodPost, "/api/restart", `{"services":["bad name!"]}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Nil(t, f.runner.changed)
}

func TestStatus(t *testing.T) {
	f := newFixture(t)
	f.health.snapshot = sampleSnapshot()

	rec := f.request(http.MethodGet, "/api/status", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp SystemStatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 2, resp.Services)
	assert.Equal(t, 2, resp.Profiles)
	assert.NotNil(t, resp.LastCycle)
	assert.Equal(t, 1, resp.StatusCounts["healthy"])
	assert.Equal(t, 1, resp.StatusCounts["syncing"])
	assert.Equal(t, "available", resp.Components.Runtime)
	assert.Equal(t, "disabled", resp.Components.Database)
}

func TestStatusDegradedWithoutRuntime(t *testing.T) {
	f := newFixture(t)
	f.runtime.available = false

	rec := f.request(http.MethodGet, "/api/status", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp SystemStatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "degraded", resp.Status)
	assert.Equal(t, "unavailable", resp.Components.Runtime)
}

// TestErrorHandlerMapsCycleError verifies a dependency cycle surfaces
// with its taxonomy code and a 400 instead of a generic 500.
func TestErrorHandlerMapsCycleError(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/restart", nil)
	rec := httptest.NewRecorder()

	ErrorHandler(&graph.CycleError{Member: "kaspad"}, e.NewContext(req, rec))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "DEPENDENCY_CYCLE")
}
