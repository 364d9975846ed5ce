package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Message types pushed to dashboard clients
const (
	MessageStats = "stats"
	MessageAlert = "alert"
	MessagePong  = "pong"
	MessageError = "error"
)

// WebSocketMessage represents a message sent over WebSocket
type WebSocketMessage struct {
	Type      string          `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// ClientMessage is what a dashboard client may send
type ClientMessage struct {
	Type            string `json:"type"` // "ping", "subscribe", "unsubscribe", "lookback"
	Metric          string `json:"metric,omitempty"`
	LookbackSeconds int    `json:"lookback_seconds,omitempty"`
}

// AlertPayload is the data of an "alert" message
type AlertPayload struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

// ClientConnection represents a connected WebSocket client
type ClientConnection struct {
	ID    string
	Conn  *websocket.Conn
	Send  chan WebSocketMessage
	Close chan struct{}
}

// WebSocketHub fans dashboard updates out to every connected client
type WebSocketHub struct {
	clients    map[string]*ClientConnection
	broadcast  chan WebSocketMessage
	register   chan *ClientConnection
	unregister chan string
	mu         sync.RWMutex
	log        *zap.Logger
	now        func() time.Time
}

// NewWebSocketHub creates a hub; call Run to start delivering messages
func NewWebSocketHub(log *zap.Logger) *WebSocketHub {
	if log == nil {
		log = zap.NewNop()
	}
	return &WebSocketHub{
		clients:    make(map[string]*ClientConnection),
		broadcast:  make(chan WebSocketMessage, 256),
		register:   make(chan *ClientConnection),
		unregister: make(chan string),
		log:        log,
		now:        time.Now,
	}
}

// Run manages the hub's event loop until ctx is cancelled
func (h *WebSocketHub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for id, client := range h.clients {
				delete(h.clients, id)
				close(client.Send)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			total := len(h.clients)
			h.mu.Unlock()
			h.log.Info("client connected", zap.String("client", client.ID), zap.Int("total", total))

		case clientID := <-h.unregister:
			h.mu.Lock()
			if client, exists := h.clients[clientID]; exists {
				delete(h.clients, clientID)
				close(client.Send)
			}
			total := len(h.clients)
			h.mu.Unlock()
			h.log.Info("client disconnected", zap.String("client", clientID), zap.Int("total", total))

		case msg := <-h.broadcast:
			h.mu.RLock()
			for _, client := range h.clients {
				select {
				case client.Send <- msg:
				default:
					// Client's send channel is full, skip this message
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Register adds a new client to the hub
func (h *WebSocketHub) Register(ctx context.Context, client *ClientConnection) {
	select {
	case h.register <- client:
	case <-ctx.Done():
	}
}

// Unregister removes a client from the hub
func (h *WebSocketHub) Unregister(ctx context.Context, clientID string) {
	select {
	case h.unregister <- clientID:
	case <-ctx.Done():
	}
}

// Publish marshals data and queues it for every client. A full queue drops
// the message rather than stalling the caller.
func (h *WebSocketHub) Publish(msgType string, data any) {
	raw, err := json.Marshal(data)
	if err != nil {
		h.log.Error("marshal message", zap.String("type", msgType), zap.Error(err))
		return
	}

	msg := WebSocketMessage{
		Type:      msgType,
		Timestamp: h.now(),
		Data:      raw,
	}
	select {
	case h.broadcast <- msg:
	default:
		h.log.Debug("broadcast queue full, dropping message", zap.String("type", msgType))
	}
}

// ClientCount returns the number of connected clients
func (h *WebSocketHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// SendMessage sends a message to a specific client
func (h *WebSocketHub) SendMessage(clientID string, msg WebSocketMessage) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	client, exists := h.clients[clientID]
	if !exists {
		return false
	}
	select {
	case client.Send <- msg:
		return true
	default:
		return false
	}
}

// HubNotifier pushes alerts to dashboard clients as "alert" messages
type HubNotifier struct {
	Hub *WebSocketHub
}

func (n HubNotifier) Notify(title, message string) {
	if n.Hub == nil {
		return
	}
	n.Hub.Publish(MessageAlert, AlertPayload{Title: title, Message: message})
}
