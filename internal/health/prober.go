// Package health runs per-service liveness probes and classifies the
// results into health records.
package health

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // postgres driver for store probes

	"nodestack/internal/registry"
	"nodestack/internal/types"
)

// Prober attempts a single probe against a service. Implementations
// differ only in how one attempt is made; retry, backoff and failure
// classification are shared by the engine.
type Prober interface {
	Probe(ctx context.Context, svc registry.ServiceDescriptor) error
}

// ProberFor returns the prober for a protocol
func ProberFor(protocol types.Protocol) Prober {
	switch protocol {
	case types.ProtocolStreamRPC:
		return &StreamRPCProber{}
	case types.ProtocolHTTP:
		return &HTTPProber{}
	case types.ProtocolTCP:
		return &TCPProber{}
	case types.ProtocolStore:
		return &StoreProber{}
	default:
		return &TCPProber{}
	}
}

// StreamRPCProber probes JSON-RPC-over-websocket node endpoints with a
// ping call. Any well-formed reply counts as success; the node answering
// the socket at all is the liveness signal.
type StreamRPCProber struct{}

type rpcRequest struct {
	ID     int    `json:"id"`
	Method string `json:"method"`
}

func (p *StreamRPCProber) Probe(ctx context.Context, svc registry.ServiceDescriptor) error {
	endpoint := url.URL{Scheme: "ws", Host: svc.Endpoint}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, endpoint.String(), nil)
	if err != nil {
		return fmt.Errorf("rpc dial failed: %w", err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetReadDeadline(deadline)
		conn.SetWriteDeadline(deadline)
	}

	if err := conn.WriteJSON(rpcRequest{ID: 1, Method: "ping"}); err != nil {
		return fmt.Errorf("rpc ping write failed: %w", err)
	}

	var reply map[string]interface{}
	if err := conn.ReadJSON(&reply); err != nil {
		return fmt.Errorf("rpc ping read failed: %w", err)
	}

	return nil
}

// HTTPProber issues a GET against the service's health path. Any status
// below 500 counts as success; 4xx means the server is up and answering.
type HTTPProber struct{}

func (p *HTTPProber) Probe(ctx context.Context, svc registry.ServiceDescriptor) error {
	path := svc.HealthPath
	if path == "" {
		path = "/"
	}

	target := url.URL{Scheme: "http", Host: svc.Endpoint, Path: path}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return fmt.Errorf("health request failed: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("health request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("health endpoint returned %d", resp.StatusCode)
	}

	return nil
}

// TCPProber performs a raw connect-and-close against the endpoint
type TCPProber struct{}

func (p *TCPProber) Probe(ctx context.Context, svc registry.ServiceDescriptor) error {
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", svc.Endpoint)
	if err != nil {
		return fmt.Errorf("tcp connect failed: %w", err)
	}
	return conn.Close()
}

// StoreProber runs a readiness query against a relational store. Without
// a DSN it degrades to a plain socket connect.
type StoreProber struct{}

func (p *StoreProber) Probe(ctx context.Context, svc registry.ServiceDescriptor) error {
	if svc.DSN == "" {
		tcp := TCPProber{}
		return tcp.Probe(ctx, svc)
	}

	db, err := sqlx.Open("postgres", svc.DSN)
	if err != nil {
		return fmt.Errorf("store open failed: %w", err)
	}
	defer db.Close()

	db.SetConnMaxLifetime(time.Minute)

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("store ping failed: %w", err)
	}

	var one int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("store readiness query failed: %w", err)
	}

	return nil
}
