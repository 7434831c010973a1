package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"nodestack/internal/types"
)

// RestartPlanSummary is one persisted restart plan summary
type RestartPlanSummary struct {
	ID          string    `json:"id"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
	Restarted   int       `json:"restarted"`
	Failed      int       `json:"failed"`
	Skipped     int       `json:"skipped"`
}

// RestartHistory is a page of recorded restart plans
type RestartHistory struct {
	Plans    []RestartPlanSummary `json:"plans"`
	Total    int                  `json:"total"`
	Page     int                  `json:"page"`
	PageSize int                  `json:"page_size"`
}

// Restart asks the server to restart the named services in dependency
// order and returns the per-service outcome
func (c *Client) Restart(ctx context.Context, services []string) (*types.RestartResult, error) {
	req := struct {
		Services []string `json:"services"`
	}{Services: services}

	resp, err := c.doRequest(ctx, http.MethodPost, "/api/restart", req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp)
	}

	var result types.RestartResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &result, nil
}

// GetRestartHistory fetches a page of recorded restart plans
func (c *Client) GetRestartHistory(ctx context.Context, page, pageSize int) (*RestartHistory, error) {
	path := fmt.Sprintf("/api/restarts?page=%d&page_size=%d", page, pageSize)
	var history RestartHistory
	if err := c.get(ctx, path, &history); err != nil {
		return nil, err
	}
	return &history, nil
}

// GetRestart fetches one recorded plan with its per-service items
func (c *Client) GetRestart(ctx context.Context, planID string) (map[string]interface{}, error) {
	var detail map[string]interface{}
	if err := c.get(ctx, fmt.Sprintf("/api/restarts/%s", url.PathEscape(planID)), &detail); err != nil {
		return nil, err
	}
	return detail, nil
}
