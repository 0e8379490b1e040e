package websocket

import (
	"context"
	"sync"

	"github.com/OldStager01/healthcare-records/internal/logger"
	"github.com/OldStager01/healthcare-records/internal/metrics"
	"github.com/OldStager01/healthcare-records/pkg/config"
)

type broadcast struct {
	topic Topic
	data  []byte
}

type directMessage struct {
	client *Client
	data   []byte
}

// Hub tracks connected clients and fans topic messages out to them. The
// client set is only modified by Run.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan broadcast
	direct     chan directMessage
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex
	settings   *WebSocketSettings
	metrics    *metrics.Metrics
}

func NewHub(cfg *config.WebSocketConfig, m *metrics.Metrics) *Hub {
	if m == nil {
		m = metrics.Get()
	}
	settings := NewWebSocketSettings(cfg)

	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan broadcast, settings.BroadcastBuffer),
		direct:     make(chan directMessage, settings.BroadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		settings:   settings,
		metrics:    m,
	}
}

// Run serves the hub until ctx is cancelled, then disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			h.metrics.SetWebSocketClients(0)
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			n := len(h.clients)
			h.mu.Unlock()
			h.metrics.SetWebSocketClients(n)
			logger.WithUser(client.username).Infof("WebSocket client connected (total: %d)", n)

		case client := <-h.unregister:
			h.remove(client)

		case msg := <-h.direct:
			h.mu.RLock()
			if h.clients[msg.client] {
				select {
				case msg.client.send <- msg.data:
				default:
				}
			}
			h.mu.RUnlock()

		case msg := <-h.broadcast:
			var slow []*Client
			h.mu.RLock()
			for client := range h.clients {
				if !client.Subscribed(msg.topic) {
					continue
				}
				select {
				case client.send <- msg.data:
				default:
					slow = append(slow, client)
				}
			}
			h.mu.RUnlock()

			for _, client := range slow {
				logger.WithUser(client.username).Warn("WebSocket client too slow, disconnecting")
				h.remove(client)
			}
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	_, ok := h.clients[client]
	if ok {
		delete(h.clients, client)
		close(client.send)
	}
	n := len(h.clients)
	h.mu.Unlock()

	if ok {
		h.metrics.SetWebSocketClients(n)
		logger.WithUser(client.username).Infof("WebSocket client disconnected (total: %d)", n)
	}
}

// BroadcastToTopic queues data for every client subscribed to topic. It never
// blocks; when the queue is full the message is dropped.
func (h *Hub) BroadcastToTopic(topic Topic, data []byte) {
	select {
	case h.broadcast <- broadcast{topic: topic, data: data}:
	default:
		logger.Warn("Broadcast channel full, dropping message")
	}
}

// sendTo queues data for a single client. Sends are routed through Run so they
// never race with the client's send channel being closed.
func (h *Hub) sendTo(client *Client, data []byte) {
	select {
	case h.direct <- directMessage{client: client, data: data}:
	case <-h.done:
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) Settings() *WebSocketSettings {
	return h.settings
}
