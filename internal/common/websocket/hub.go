package websocket

import "sync"

type Hub struct {
	clients map[string]*Client
	mu      sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
	}
}

func (h *Hub) AddClient(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.ID] = c
}

// CloseClient removes the client and closes its send channel in one critical
// section. Sends hold the read lock for the duration of the channel send, so a
// concurrent close can never hit an in-flight send. Safe to call twice.
func (h *Hub) CloseClient(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	client, ok := h.clients[id]
	if !ok {
		return
	}
	delete(h.clients, id)
	close(client.Send)
}

// SendToClient delivers a message to one connected client. Returns false when
// the client is not connected or its send buffer is full; a stuck client is
// evicted so it cannot back up publishers.
func (h *Hub) SendToClient(id string, message []byte) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	client, ok := h.clients[id]
	if !ok {
		return false
	}

	select {
	case client.Send <- message:
		return true
	default:
		go h.CloseClient(id)
		return false
	}
}

func (h *Hub) Broadcast(message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		select {
		case client.Send <- message:
		default:
			go h.CloseClient(client.ID)
		}
	}
}
