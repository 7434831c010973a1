// Package client is the HTTP client for the nodestack API server, used
// by the CLI when a server is already running.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"nodestack/internal/constants"
)

// Client represents the HTTP client for the nodestack server
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new client instance
func New(serverURL string) (*Client, error) {
	// A bare host:port parses with the host as the scheme, so the
	// scheme has to be defaulted before parsing
	if !strings.Contains(serverURL, "://") {
		serverURL = "http://" + serverURL
	}

	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server URL: %w", err)
	}

	return &Client{
		baseURL: u.String(),
		httpClient: &http.Client{
			Timeout: constants.DefaultHTTPClientTimeout,
		},
	}, nil
}

// DefaultServerURL returns the URL of a locally running server
func DefaultServerURL() string {
	return fmt.Sprintf("http://localhost:%d", constants.DefaultServerPort)
}

// IsServerRunning checks whether the server answers its liveness probe
func (c *Client) IsServerRunning(ctx context.Context) bool {
	shortCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	resp, err := c.doRequest(shortCtx, http.MethodGet, "/health", nil)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// doRequest performs an HTTP request against the server
func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}

// get performs a GET and decodes a JSON response into out
func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	resp, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return apiError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// apiError turns a non-2xx response into an error, preferring the
// server's own error message when the body carries one
func apiError(resp *http.Response) error {
	var payload struct {
		Error interface{} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil && payload.Error != nil {
		switch e := payload.Error.(type) {
		case string:
			return fmt.Errorf("server error: %s", e)
		case map[string]interface{}:
			if msg, ok := e["message"].(string); ok {
				return fmt.Errorf("server error: %s", msg)
			}
		}
	}
	return fmt.Errorf("server error: %s", resp.Status)
}
