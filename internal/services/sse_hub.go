package services

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// SSEHub manages Server-Sent Events connections for dashboard notifications
type SSEHub struct {
	// Map of entity keys to channels
	// Key format: "entity_type:entity_id", e.g. "user:42"
	clients map[string]map[chan []byte]bool
	mu      sync.RWMutex
}

// NewSSEHub creates a new SSE hub
func NewSSEHub() *SSEHub {
	return &SSEHub{
		clients: make(map[string]map[chan []byte]bool),
	}
}

// RegisterClient registers a new SSE client for an entity
func (h *SSEHub) RegisterClient(entityType, entityID string) chan []byte {
	h.mu.Lock()
	defer h.mu.Unlock()

	key := fmt.Sprintf("%s:%s", entityType, entityID)
	clientChan := make(chan []byte, 32)

	if h.clients[key] == nil {
		h.clients[key] = make(map[chan []byte]bool)
	}
	h.clients[key][clientChan] = true

	logrus.Infof("SSE client registered for %s (total clients: %d)", key, len(h.clients[key]))
	return clientChan
}

// UnregisterClient unregisters an SSE client
func (h *SSEHub) UnregisterClient(entityType, entityID string, clientChan chan []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	key := fmt.Sprintf("%s:%s", entityType, entityID)
	if h.clients[key] == nil {
		return
	}
	if _, ok := h.clients[key][clientChan]; !ok {
		return
	}
	delete(h.clients[key], clientChan)
	close(clientChan)

	if len(h.clients[key]) == 0 {
		delete(h.clients, key)
	}

	logrus.Infof("SSE client unregistered for %s (remaining clients: %d)", key, len(h.clients[key]))
}

// Broadcast sends a named event to every client of an entity and returns how many received it.
// Clients with a full buffer are skipped.
func (h *SSEHub) Broadcast(entityType, entityID, event string, payload interface{}) int {
	data, err := json.Marshal(payload)
	if err != nil {
		logrus.Errorf("Failed to marshal %s event for SSE: %v", event, err)
		return 0
	}
	message := []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", event, data))

	h.mu.RLock()
	defer h.mu.RUnlock()

	key := fmt.Sprintf("%s:%s", entityType, entityID)
	delivered := 0
	for clientChan := range h.clients[key] {
		select {
		case clientChan <- message:
			delivered++
		default:
			logrus.Warnf("SSE client channel full, skipping: %s", key)
		}
	}
	return delivered
}

// GetClientCount returns the number of clients for a specific entity
func (h *SSEHub) GetClientCount(entityType, entityID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	key := fmt.Sprintf("%s:%s", entityType, entityID)
	return len(h.clients[key])
}

// SendHeartbeat sends a heartbeat comment to keep connections alive
func (h *SSEHub) SendHeartbeat(entityType, entityID string) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	key := fmt.Sprintf("%s:%s", entityType, entityID)
	heartbeat := []byte(fmt.Sprintf(": heartbeat %s\n\n", time.Now().Format(time.RFC3339)))
	for clientChan := range h.clients[key] {
		select {
		case clientChan <- heartbeat:
		default:
		}
	}
}
