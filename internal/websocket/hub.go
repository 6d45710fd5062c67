package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"smartbin-backend/internal/models"
)

// Roles that receive dashboard updates.
var dashboardRoles = []string{"operator", "admin"}

// Hub maintains active WebSocket connections and broadcasts messages
type Hub struct {
	clients map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	reply      chan *Client
	done       chan struct{}

	logger zerolog.Logger
	mu     sync.RWMutex
}

// Message is the envelope pushed to dashboard clients.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// NewHub creates a new Hub instance
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		reply:      make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger.With().Str("component", "websocket").Logger(),
	}
}

// Run starts the hub's main loop and closes every client when ctx ends.
// Only Run closes a client's send channel.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for c := range h.clients {
				close(c.send)
				delete(h.clients, c)
			}
			h.mu.Unlock()
			return

		case client := <-h.reply:
			h.mu.RLock()
			if _, ok := h.clients[client]; ok {
				select {
				case client.send <- pongMessage():
				default:
				}
			}
			h.mu.RUnlock()

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = struct{}{}
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Info().
				Str("user_id", client.UserID).
				Str("role", client.UserRole).
				Int("clients", total).
				Msg("✅ client connected")

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.logger.Info().
					Str("user_id", client.UserID).
					Int("clients", len(h.clients)).
					Msg("🔴 client disconnected")
			}
			h.mu.Unlock()
		}
	}
}

// BroadcastToRole sends a message to all users with a specific role.
// Clients whose buffer is full miss the message.
func (h *Hub) BroadcastToRole(role string, data interface{}) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		h.logger.Error().Err(err).Msg("❌ failed to marshal broadcast message")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		if client.UserRole != role {
			continue
		}
		select {
		case client.send <- dataBytes:
		default:
			h.logger.Warn().Str("user_id", client.UserID).Msg("⚠️ client buffer full, skipping")
		}
	}
}

// OnTelemetry pushes a relayed record to every dashboard.
func (h *Hub) OnTelemetry(_ context.Context, rec models.TelemetryRecord) {
	msg := Message{Type: "telemetry_update", Data: rec.ToTelemetryResponse()}
	for _, role := range dashboardRoles {
		h.BroadcastToRole(role, msg)
	}
}

func pongMessage() []byte {
	data, _ := json.Marshal(Message{Type: "pong", Data: time.Now().UTC().Format(time.RFC3339)})
	return data
}

// GetClientCount returns the number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
