package sse

import (
	"fmt"
	"log"
	"sync"
)

// Event is one server-sent event.
type Event struct {
	EventType string `json:"event"`
	Data      string `json:"data"`
}

// Client is a connected dashboard session.
type Client struct {
	ID     string
	UserID string
	Role   string
	Events chan Event
}

// Hub fans events out to connected clients.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

// GlobalHub is the process-wide hub instance.
var GlobalHub = NewHub()

func NewHub() *Hub {
	return &Hub{clients: make(map[string]*Client)}
}

// Register adds a client.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client.ID] = client
	log.Printf("[SSE] Client registered: id=%s user=%s (total: %d)", client.ID, client.UserID, len(h.clients))
}

// Unregister removes a client and closes its channel.
func (h *Hub) Unregister(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if client, ok := h.clients[clientID]; ok {
		close(client.Events)
		delete(h.clients, clientID)
		log.Printf("[SSE] Client unregistered: id=%s (total: %d)", clientID, len(h.clients))
	}
}

// Broadcast sends an event to all connected clients. Slow clients with a
// full buffer are skipped rather than blocking the sender.
func (h *Hub) Broadcast(event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		select {
		case client.Events <- event:
		default:
			log.Printf("[SSE] Client %s buffer full, skipping event", client.ID)
		}
	}
}

// PublishFileUpdate announces a committed routing transition so role
// dashboards refresh their inboxes.
func PublishFileUpdate(fileID, action, toRole string) {
	data := fmt.Sprintf(`{"file_id":"%s","action":"%s","to_role":"%s"}`, fileID, action, toRole)
	GlobalHub.Broadcast(Event{
		EventType: "file_update",
		Data:      data,
	})
}
