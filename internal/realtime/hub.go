package realtime

import (
	"context"
	"errors"
	"log"
	"sync"

	"pulse/internal/observability"

	"github.com/gofiber/websocket/v2"
)

// Max total feed connections per instance.
const maxTotalConns = 10000

// Hub tracks the websocket clients watching the live feed. Feed delivery is
// fan-out to everyone; there is no per-user routing.
type Hub struct {
	mu       sync.RWMutex
	clients  map[*Client]struct{}
	shutdown chan struct{}
}

// NewHub creates an empty feed hub.
func NewHub() *Hub {
	return &Hub{
		clients:  make(map[*Client]struct{}),
		shutdown: make(chan struct{}),
	}
}

// Register attaches a new connection to the hub.
func (h *Hub) Register(conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.clients) >= maxTotalConns {
		return nil, errors.New("server connection limit reached")
	}

	client := newClient(h, conn)
	h.clients[client] = struct{}{}
	observability.RealtimeClients.Set(float64(len(h.clients)))
	return client, nil
}

// Unregister detaches a connection. Safe to call more than once per client.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		observability.RealtimeClients.Set(float64(len(h.clients)))
	}
}

// BroadcastAll sends message to every connected feed client.
func (h *Hub) BroadcastAll(message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		c.TrySend(message)
	}
}

// ClientCount reports the number of attached connections.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Shutdown gracefully closes all websocket connections.
func (h *Hub) Shutdown(_ context.Context) error {
	close(h.shutdown)

	h.mu.Lock()
	for client := range h.clients {
		if client.Conn == nil {
			continue
		}
		if err := client.Conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "Server shutting down")); err != nil {
			log.Printf("failed to write close message: %v", err)
		}
		if err := client.Conn.Close(); err != nil {
			log.Printf("failed to close websocket: %v", err)
		}
	}
	h.clients = make(map[*Client]struct{})
	observability.RealtimeClients.Set(0)
	h.mu.Unlock()

	return nil
}
