package progress

import (
	"encoding/json"
	"sync"

	"deepscan/internal/logger"

	"github.com/gorilla/websocket"
)

// Event is one scored track, broadcast to connected viewers as JSON.
type Event struct {
	ID     string  `json:"id"`
	Pred   float32 `json:"pred"`
	Target float32 `json:"target"`
}

// Hub fans scored-track events out to websocket viewers watching a run.
type Hub struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan []byte
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	mutex      sync.RWMutex
	logger     *logger.Logger
}

// NewHub creates the hub; Run must be started before viewers connect.
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan []byte),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		logger:     log,
	}
}

// Run processes registrations and broadcasts until the process exits.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			h.mutex.Unlock()
			h.logger.Info("Viewer connected. Total: %d", h.ClientCount())

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.Close()
			}
			h.mutex.Unlock()
			h.logger.Info("Viewer disconnected. Total: %d", h.ClientCount())

		case message := <-h.broadcast:
			h.mutex.RLock()
			for client := range h.clients {
				err := client.WriteMessage(websocket.TextMessage, message)
				if err != nil {
					h.logger.Error("Error sending message: %v", err)
					delete(h.clients, client)
					client.Close()
				}
			}
			h.mutex.RUnlock()
		}
	}
}

// TrackScored broadcasts one event; implements the runner observer.
func (h *Hub) TrackScored(id string, pred, target float32) {
	msg, err := json.Marshal(Event{ID: id, Pred: pred, Target: target})
	if err != nil {
		h.logger.Error("Failed to encode progress event: %v", err)
		return
	}
	h.Broadcast(msg)
}

// Broadcast sends a raw message to every viewer.
func (h *Hub) Broadcast(message []byte) {
	h.broadcast <- message
}

// Register adds a viewer connection.
func (h *Hub) Register(client *websocket.Conn) {
	h.register <- client
}

// Unregister removes a viewer connection.
func (h *Hub) Unregister(client *websocket.Conn) {
	h.unregister <- client
}

// ClientCount returns the number of connected viewers.
func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}
