package server

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"nodestack/internal/logger"
	"nodestack/internal/types"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const socketWriteTimeout = 10 * time.Second

// WebSocket upgrader configuration
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")

		// Allow connections without origin header (e.g., CLI tools)
		if origin == "" {
			return true
		}

		allowedOrigins := []string{
			"http://localhost",
			"https://localhost",
			"http://127.0.0.1",
			"https://127.0.0.1",
			"http://[::1]",
			"https://[::1]",
		}

		for _, allowed := range allowedOrigins {
			if strings.HasPrefix(origin, allowed) {
				return true
			}
		}

		logger.WithFields(logger.Fields{
			"origin": origin,
			"remote": r.RemoteAddr,
		}).Warn("WebSocket connection rejected - invalid origin")

		return false
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// SnapshotMessage is the frame pushed to websocket clients after each
// health cycle
type SnapshotMessage struct {
	Type     string          `json:"type"` // 'snapshot'
	Snapshot *types.Snapshot `json:"snapshot"`
}

// Hub fans health snapshots out to connected websocket clients. A slow
// or dead client is dropped rather than blocking the broadcast.
type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]bool
	closed  bool
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{clients: make(map[*websocket.Conn]bool)}
}

func (h *Hub) register(ws *websocket.Conn) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[ws] = true
	return true
}

func (h *Hub) unregister(ws *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, ws)
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Broadcast pushes a snapshot to every connected client. Intended to be
// registered as a health engine subscriber.
func (h *Hub) Broadcast(snap *types.Snapshot) {
	msg := SnapshotMessage{Type: "snapshot", Snapshot: snap}

	h.mu.Lock()
	defer h.mu.Unlock()
	for ws := range h.clients {
		ws.SetWriteDeadline(time.Now().Add(socketWriteTimeout))
		if err := ws.WriteJSON(msg); err != nil {
			logger.WithError(err).Debug("Dropping websocket client")
			ws.Close()
			delete(h.clients, ws)
		}
	}
}

// Close disconnects all clients and rejects new registrations
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for ws := range h.clients {
		ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(time.Second))
		ws.Close()
		delete(h.clients, ws)
	}
}

// handleHealthSocket upgrades the connection and streams snapshots until
// the client disconnects. The latest snapshot is sent immediately so a
// client never waits a full cycle for its first frame.
func (s *Server) handleHealthSocket(c echo.Context) error {
	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		logger.WithError(err).Error("Failed to upgrade WebSocket connection")
		return err
	}
	defer ws.Close()

	if !s.hub.register(ws) {
		return nil
	}
	defer s.hub.unregister(ws)

	if snap := s.health.Snapshot(); snap != nil {
		ws.SetWriteDeadline(time.Now().Add(socketWriteTimeout))
		if err := ws.WriteJSON(SnapshotMessage{Type: "snapshot", Snapshot: snap}); err != nil {
			return nil
		}
	}

	// Drain client frames; the read loop only exists to observe the close
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			return nil
		}
	}
}
