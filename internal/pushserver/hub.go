package pushserver

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// Hub manages push connections and their gate subscriptions.
type Hub struct {
	clients    map[*Client]bool
	groups     map[string]map[*Client]bool // gate -> clients
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex
	logger     *zap.Logger
}

// NewHub creates a new Hub.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		groups:     make(map[string]map[*Client]bool),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run processes hub events. Call this in a goroutine.
// Returns when context is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.logger.Info("hub shutting down")
			close(h.done)
			h.shutdown()
			return

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				// Remove from all gates
				for gate := range client.gates {
					if clients, ok := h.groups[gate]; ok {
						delete(clients, client)
						if len(clients) == 0 {
							delete(h.groups, gate)
						}
					}
				}
				close(client.send)
			}
			h.mu.Unlock()
			h.logger.Debug("client unregistered", zap.String("connID", client.connID))
		}
	}
}

// register adds client before its pumps start, so Join never sees a live
// client that is missing from h.clients. It reports false once the hub has
// shut down.
func (h *Hub) register(client *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	select {
	case <-h.done:
		return false
	default:
	}
	h.clients[client] = true
	h.logger.Debug("client registered", zap.String("connID", client.connID))
	return true
}

// shutdown closes all client connections.
func (h *Hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
	h.groups = make(map[string]map[*Client]bool)
}

// Join subscribes a client to a gate. Clients already unregistered, whose
// send channel is closed, are ignored.
func (h *Hub) Join(client *Client, gate string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.clients[client] {
		return
	}

	if h.groups[gate] == nil {
		h.groups[gate] = make(map[*Client]bool)
	}
	h.groups[gate][client] = true
	client.gates[gate] = true

	h.logger.Debug("client joined gate",
		zap.String("connID", client.connID),
		zap.String("gate", gate),
	)
}

// Leave unsubscribes a client from a gate.
func (h *Hub) Leave(client *Client, gate string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.groups[gate]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.groups, gate)
		}
	}
	delete(client.gates, gate)

	h.logger.Debug("client left gate",
		zap.String("connID", client.connID),
		zap.String("gate", gate),
	)
}

// ActiveGates returns all gates with at least one subscriber, sorted.
func (h *Hub) ActiveGates() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	gates := make([]string, 0, len(h.groups))
	for gate, clients := range h.groups {
		if len(clients) > 0 {
			gates = append(gates, gate)
		}
	}
	sort.Strings(gates)
	return gates
}

// Subscribers returns the number of clients subscribed to gate.
func (h *Hub) Subscribers(gate string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groups[gate])
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// BroadcastGate sends frame to every client subscribed to gate and returns
// how many clients accepted it.
func (h *Hub) BroadcastGate(gate string, frame []byte) int {
	h.mu.RLock()
	sent, slow := h.deliverLocked(h.groups[gate], frame)
	h.mu.RUnlock()

	h.dropSlow(slow)
	return sent
}

// BroadcastAll sends frame to every connected client.
func (h *Hub) BroadcastAll(frame []byte) int {
	h.mu.RLock()
	sent, slow := h.deliverLocked(h.clients, frame)
	h.mu.RUnlock()

	h.dropSlow(slow)
	return sent
}

// deliverLocked enqueues frame without blocking. Send channels are only
// closed under the write lock, so holding the read lock keeps them open.
func (h *Hub) deliverLocked(clients map[*Client]bool, frame []byte) (int, []*Client) {
	sent := 0
	var slow []*Client
	for client := range clients {
		select {
		case client.send <- frame:
			sent++
		default:
			slow = append(slow, client)
		}
	}
	return sent, slow
}

// dropSlow schedules disconnects for clients whose buffer is full.
func (h *Hub) dropSlow(clients []*Client) {
	for _, client := range clients {
		h.logger.Debug("client buffer full, disconnecting", zap.String("connID", client.connID))
		go func(c *Client) {
			select {
			case h.unregister <- c:
			case <-h.done:
			}
		}(client)
	}
}
