package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/apex/log"

	"nsv-dashboard/metrics"
	"nsv-dashboard/models"
)

// Hub manages WebSocket connections and broadcasting
type Hub struct {
	// Registered clients
	clients map[*Client]bool

	// Outbound messages to all clients
	broadcast chan []byte

	// Register requests from clients
	Register chan *Client

	// Unregister requests from clients
	Unregister chan *Client

	// Closed to stop the run loop
	stopChan chan struct{}

	// Mutex for thread-safe operations
	mutex sync.RWMutex

	// Statistics
	lastEventSeq     int
	connectedClients int
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		stopChan:   make(chan struct{}),
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mutex.Lock()
			h.clients[client] = true
			h.connectedClients = len(h.clients)
			h.mutex.Unlock()
			metrics.ConnectedDashboards.Set(float64(h.connectedClients))
			log.Infof("Dashboard connected. Total clients: %d", h.connectedClients)

		case client := <-h.Unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.connectedClients = len(h.clients)
			}
			h.mutex.Unlock()
			metrics.ConnectedDashboards.Set(float64(h.connectedClients))
			log.Infof("Dashboard disconnected. Total clients: %d", h.connectedClients)

		case message := <-h.broadcast:
			h.mutex.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.connectedClients = len(h.clients)
			h.mutex.Unlock()
			metrics.ConnectedDashboards.Set(float64(h.connectedClients))

		case <-h.stopChan:
			h.mutex.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.connectedClients = 0
			h.mutex.Unlock()
			metrics.ConnectedDashboards.Set(0)
			return
		}
	}
}

// Stop shuts the run loop down and drops all clients.
func (h *Hub) Stop() {
	close(h.stopChan)
}

// Broadcast sends one typed event to every connected dashboard. Marshal
// failures are logged and dropped; a view event must never propagate an
// error back into state mutation.
func (h *Hub) Broadcast(msgType string, data interface{}) {
	message := models.BroadcastMessage{
		Type:      msgType,
		Data:      data,
		Timestamp: time.Now(),
	}

	payload, err := json.Marshal(message)
	if err != nil {
		log.Errorf("Failed to marshal %s broadcast: %v", msgType, err)
		return
	}

	h.mutex.Lock()
	h.lastEventSeq++
	h.mutex.Unlock()

	select {
	case h.broadcast <- payload:
	case <-h.stopChan:
	}
}

// GetStats returns current hub statistics
func (h *Hub) GetStats() (int, int) {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return h.connectedClients, h.lastEventSeq
}
