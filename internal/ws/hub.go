package ws

import (
	"encoding/json"
	"sync"

	"mining_webapp/internal/logger"

	"github.com/prometheus/client_golang/prometheus"
)

var Connections = prometheus.NewGauge(prometheus.GaugeOpts{
	Name: "ws_mining_connections",
	Help: "Open mining websocket connections",
})

func init() {
	prometheus.MustRegister(Connections)
}

// Hub tracks open sockets per user so state changes made over HTTP reach them too.
type Hub struct {
	mu      sync.RWMutex
	clients map[int64]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[int64]map[*Client]struct{})}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[c.UserID]
	if !ok {
		set = make(map[*Client]struct{})
		h.clients[c.UserID] = set
	}
	set[c] = struct{}{}
	Connections.Inc()
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[c.UserID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.clients, c.UserID)
	}
	Connections.Dec()
}

// Count returns the number of open sockets of a user.
func (h *Hub) Count(userID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// Push sends an update to every socket of userID. Slow clients drop the message.
func (h *Hub) Push(userID int64, data any) {
	if h == nil {
		return
	}
	msg, err := json.Marshal(Response{Type: MsgUpdate, Success: true, Data: data})
	if err != nil {
		logger.Error("ws: marshal update", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients[userID] {
		c.trySend(msg)
	}
}
