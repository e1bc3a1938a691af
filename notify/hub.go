// notify/hub.go
package notify

import (
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"learning-platform/models"
)

var liveConnections = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "learning_platform",
	Name:      "websocket_connections",
	Help:      "Open notification websocket connections.",
})

// Hub tracks open websocket connections per user and fans in-app
// notifications out to them as they are created.
type Hub struct {
	mu    sync.Mutex
	conns map[int]map[*websocket.Conn]bool
}

func NewHub() *Hub {
	return &Hub{conns: make(map[int]map[*websocket.Conn]bool)}
}

func (h *Hub) Register(userID int, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.conns[userID] == nil {
		h.conns[userID] = make(map[*websocket.Conn]bool)
	}
	h.conns[userID][conn] = true
	liveConnections.Inc()
}

func (h *Hub) Unregister(userID int, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.conns[userID][conn] {
		liveConnections.Dec()
	}
	delete(h.conns[userID], conn)
	if len(h.conns[userID]) == 0 {
		delete(h.conns, userID)
	}
}

// Push writes the notification to every connection the user has open.
// Dead connections are dropped on write failure.
func (h *Hub) Push(userID int, n *models.Notification) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.conns[userID] {
		if err := conn.WriteJSON(n); err != nil {
			slog.Warn("websocket push failed", "user_id", userID, "error", err)
			conn.Close()
			delete(h.conns[userID], conn)
			liveConnections.Dec()
		}
	}
	if len(h.conns[userID]) == 0 {
		delete(h.conns, userID)
	}
}

// ConnCount reports how many connections a user has open.
func (h *Hub) ConnCount(userID int) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns[userID])
}

// Close shuts every tracked connection, used during server shutdown.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for userID, conns := range h.conns {
		for conn := range conns {
			conn.Close()
			liveConnections.Dec()
		}
		delete(h.conns, userID)
	}
}
