package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nodestack/internal/types"
)

func TestNewDefaultsScheme(t *testing.T) {
	c, err := New("localhost:8585")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8585", c.baseURL)
}

func TestNewKeepsExplicitScheme(t *testing.T) {
	c, err := New("https://stack.example.com")
	require.NoError(t, err)
	assert.Equal(t, "https://stack.example.com", c.baseURL)
}

func TestIsServerRunning(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c, err := New(srv.URL)
	require.NoError(t, err)
	assert.True(t, c.IsServerRunning(context.Background()))
}

func TestIsServerRunningDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c, err := New(srv.URL)
	require.NoError(t, err)
	assert.False(t, c.IsServerRunning(context.Background()))
}

func TestGetHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/health", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"services": []map[string]interface{}{
				{"name": "kaspad", "record": map[string]interface{}{"status": "healthy"}},
			},
			"total": 1,
		})
	}))
	defer srv.Close()

	c, err := New(srv.URL)
	require.NoError(t, err)

	snap, err := c.GetHealth(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Total)
	require.Len(t, snap.Services, 1)
	assert.Equal(t, "kaspad", snap.Services[0].Name)
	assert.Equal(t, types.HealthStatusHealthy, snap.Services[0].Record.Status)
}

func TestGetServiceHealthEscapesName(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		json.NewEncoder(w).Encode(types.ServiceHealth{Name: "kaspad"})
	}))
	defer srv.Close()

	c, err := New(srv.URL)
	require.NoError(t, err)

	_, err = c.GetServiceHealth(context.Background(), "kaspad")
	require.NoError(t, err)
	assert.Equal(t, "/api/health/kaspad", gotPath)
}

func TestRestartSendsServices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/restart", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req struct {
			Services []string `json:"services"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"kaspad", "indexer"}, req.Services)

		json.NewEncoder(w).Encode(types.RestartResult{
			PlanID:    "plan-1",
			Restarted: []string{"kaspad", "indexer"},
		})
	}))
	defer srv.Close()

	c, err := New(srv.URL)
	require.NoError(t, err)

	result, err := c.Restart(context.Background(), []string{"kaspad", "indexer"})
	require.NoError(t, err)
	assert.Equal(t, "plan-1", result.PlanID)
	assert.Equal(t, []string{"kaspad", "indexer"}, result.Restarted)
}

func TestAPIErrorUsesServerMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]interface{}{
				"code":    "SERVICE_NOT_FOUND",
				"message": "service not found: ghost",
			},
		})
	}))
	defer srv.Close()

	c, err := New(srv.URL)
	require.NoError(t, err)

	_, err = c.GetServiceHealth(context.Background(), "ghost")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "service not found: ghost")
}

func TestAPIErrorFallsBackToStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c, err := New(srv.URL)
	require.NoError(t, err)

	_, err = c.GetStatus(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestGetRestartHistory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/restarts", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "10", r.URL.Query().Get("page_size"))

		json.NewEncoder(w).Encode(RestartHistory{
			Plans:    []RestartPlanSummary{{ID: "plan-1"}},
			Total:    11,
			Page:     2,
			PageSize: 10,
		})
	}))
	defer srv.Close()

	c, err := New(srv.URL)
	require.NoError(t, err)

	history, err := c.GetRestartHistory(context.Background(), 2, 10)
	require.NoError(t, err)
	assert.Equal(t, 11, history.Total)
	require.Len(t, history.Plans, 1)
	assert.Equal(t, "plan-1", history.Plans[0].ID)
}
