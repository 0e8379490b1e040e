package websocket

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/OldStager01/healthcare-records/api/middleware"
	"github.com/OldStager01/healthcare-records/internal/logger"
)

type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	send     chan []byte
	username string
	isAdmin  bool

	mu     sync.RWMutex
	topics map[Topic]bool
}

func NewClient(hub *Hub, conn *websocket.Conn, username string, isAdmin bool) *Client {
	return &Client{
		hub:      hub,
		conn:     conn,
		send:     make(chan []byte, hub.settings.ClientBuffer),
		username: username,
		isAdmin:  isAdmin,
		topics:   make(map[Topic]bool),
	}
}

func (c *Client) Subscribed(topic Topic) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.topics[topic]
}

// subscribe returns a reason when the topic is refused.
func (c *Client) subscribe(name string) (Topic, string) {
	topic, ok := ParseTopic(name)
	if !ok {
		return "", "unknown topic"
	}
	if adminTopics[topic] && !c.isAdmin {
		return topic, "admin access required"
	}

	c.mu.Lock()
	c.topics[topic] = true
	c.mu.Unlock()
	return topic, ""
}

func (c *Client) unsubscribe(name string) Topic {
	topic := Topic(name)
	c.mu.Lock()
	delete(c.topics, topic)
	c.mu.Unlock()
	return topic
}

func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	settings := c.hub.settings
	c.conn.SetReadLimit(settings.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(settings.PongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(settings.PongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Errorf("WebSocket error: %v", err)
			}
			break
		}

		var msg IncomingMessage
		if err := json.Unmarshal(message, &msg); err == nil {
			c.handleMessage(&msg)
		}
	}
}

func (c *Client) WritePump() {
	settings := c.hub.settings
	ticker := time.NewTicker(settings.PingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(settings.WriteWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			// One JSON document per frame.
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(settings.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleMessage(msg *IncomingMessage) {
	switch msg.Type {
	case "subscribe":
		topic, reason := c.subscribe(msg.Topic)
		if reason != "" {
			c.sendUpdate(SubscriptionUpdate{Action: "rejected", Topic: topic, Error: reason})
			return
		}
		logger.WithUser(c.username).Debugf("Client subscribed to %s", topic)
		c.sendUpdate(SubscriptionUpdate{Action: "subscribed", Topic: topic})
	case "unsubscribe":
		topic := c.unsubscribe(msg.Topic)
		c.sendUpdate(SubscriptionUpdate{Action: "unsubscribed", Topic: topic})
	}
}

func (c *Client) sendUpdate(update SubscriptionUpdate) {
	update.Type = "subscription_update"
	update.Timestamp = time.Now()

	data, err := json.Marshal(update)
	if err != nil {
		logger.Errorf("Failed to marshal subscription update: %v", err)
		return
	}
	c.hub.sendTo(c, data)
}

// ServeWebSocket upgrades an authenticated request. Initial topics can be
// given as ?topics=patients,predictions.
func ServeWebSocket(hub *Hub) gin.HandlerFunc {
	settings := hub.settings
	upgrader := websocket.Upgrader{
		ReadBufferSize:  settings.ReadBufferSize,
		WriteBufferSize: settings.WriteBufferSize,
	}

	return func(c *gin.Context) {
		if hub.ClientCount() >= settings.MaxConnections {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "too many live feed connections"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Errorf("WebSocket upgrade failed: %v", err)
			return
		}

		client := NewClient(hub, conn, middleware.GetUsername(c), middleware.IsAdmin(c))
		for _, name := range strings.Split(c.Query("topics"), ",") {
			if name = strings.TrimSpace(name); name != "" {
				client.subscribe(name)
			}
		}

		if !hub.Register(client) {
			conn.Close()
			return
		}

		go client.WritePump()
		go client.ReadPump()
	}
}
