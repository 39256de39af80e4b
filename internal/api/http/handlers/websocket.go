package handlers

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/tidekv/engine/internal/logger"
	"github.com/tidekv/engine/internal/storage/kv"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 64 * 1024

	sendBufferSize      = 256
	broadcastBufferSize = 1024
)

// Message types exchanged with websocket clients
const (
	MessageSubscribe    = "subscribe"
	MessageUnsubscribe  = "unsubscribe"
	MessageSubscribed   = "subscribed"
	MessageUnsubscribed = "unsubscribed"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type    string          `json:"type"`
	Topic   string          `json:"topic,omitempty"`
	Payload json.RawMessage `json:"payload"`
}

// TopicsPayload is the payload of subscription messages
type TopicsPayload struct {
	Topics []string `json:"topics"`
}

// Client represents a WebSocket client connection
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	topics map[string]bool // Subscribed topics, empty means everything
	mu     sync.RWMutex
	log    zerolog.Logger
}

type directMessage struct {
	client *Client
	data   []byte
}

// Hub fans store events out to websocket clients. It implements kv.Listener;
// events are dropped rather than blocking the store when the hub falls behind.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan *WSMessage
	direct     chan directMessage
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	startOnce  sync.Once
	closeOnce  sync.Once
	mu         sync.RWMutex
	log        zerolog.Logger
}

var _ kv.Listener = (*Hub)(nil)

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan *WSMessage, broadcastBufferSize),
		direct:     make(chan directMessage),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		log:        logger.WithComponent("websocket.hub"),
	}
}

// Start launches the hub loop once
func (h *Hub) Start() {
	h.startOnce.Do(func() {
		go h.run()
	})
}

// Close stops the hub and disconnects every client
func (h *Hub) Close() {
	h.closeOnce.Do(func() {
		close(h.done)
	})
}

// Clients returns the number of connected clients
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// OnEvent publishes a store event to subscribed clients
func (h *Hub) OnEvent(ev kv.Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to marshal store event")
		return
	}
	h.Broadcast(&WSMessage{
		Type:    "kv." + string(ev.Type),
		Topic:   KeyTopic(ev.Key),
		Payload: payload,
	})
}

// KeyTopic returns the topic carrying events for key
func KeyTopic(key string) string {
	return "kv." + key
}

// Broadcast sends a message to all subscribed clients
func (h *Hub) Broadcast(msg *WSMessage) {
	select {
	case h.broadcast <- msg:
	default:
		h.log.Warn().Str("topic", msg.Topic).Msg("Broadcast channel full, dropping message")
	}
}

func (h *Hub) run() {
	for {
		select {
		case <-h.done:
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			h.log.Debug().Msg("Hub stopped")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			n := len(h.clients)
			h.mu.Unlock()
			h.log.Debug().Int("clients", n).Msg("Client registered")

		case client := <-h.unregister:
			h.remove(client)

		case m := <-h.direct:
			h.mu.RLock()
			registered := h.clients[m.client]
			h.mu.RUnlock()
			if registered {
				h.deliver(m.client, m.data)
			}

		case message := <-h.broadcast:
			data := h.messageToBytes(message)
			if data == nil {
				continue
			}

			h.mu.RLock()
			targets := make([]*Client, 0, len(h.clients))
			for client := range h.clients {
				if client.subscribed(message.Topic) {
					targets = append(targets, client)
				}
			}
			h.mu.RUnlock()

			for _, client := range targets {
				h.deliver(client, data)
			}
		}
	}
}

// deliver queues data for client, dropping the client when its buffer is full.
// Only the hub loop calls it.
func (h *Hub) deliver(client *Client, data []byte) {
	select {
	case client.send <- data:
	default:
		h.log.Warn().Msg("Client send buffer full, disconnecting")
		h.remove(client)
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	n := len(h.clients)
	h.mu.Unlock()
	h.log.Debug().Int("clients", n).Msg("Client unregistered")
}

// messageToBytes converts a WSMessage to JSON bytes
func (h *Hub) messageToBytes(msg *WSMessage) []byte {
	data, err := json.Marshal(msg)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to marshal WebSocket message")
		return nil
	}
	return data
}

func (c *Client) subscribed(topic string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.topics) == 0 || c.topics[topic]
}

// readPump pumps messages from the WebSocket connection to the hub
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.log.Warn().Err(err).Msg("Failed to set read deadline")
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Error().Err(err).Msg("WebSocket error")
			}
			return
		}

		var msg WSMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			c.log.Debug().Err(err).Msg("Ignoring malformed client message")
			continue
		}
		c.handleMessage(&msg)
	}
}

// writePump pumps messages from the hub to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if !ok {
				if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
					c.log.Debug().Err(err).Msg("Failed to write close message")
				}
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage processes subscription changes and acknowledges them
func (c *Client) handleMessage(msg *WSMessage) {
	var payload TopicsPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		c.log.Debug().Err(err).Str("type", msg.Type).Msg("Ignoring client message with bad payload")
		return
	}

	var ack string
	switch msg.Type {
	case MessageSubscribe:
		c.mu.Lock()
		for _, topic := range payload.Topics {
			c.topics[topic] = true
		}
		c.mu.Unlock()
		ack = MessageSubscribed
		c.log.Debug().Strs("topics", payload.Topics).Msg("Client subscribed to topics")

	case MessageUnsubscribe:
		c.mu.Lock()
		for _, topic := range payload.Topics {
			delete(c.topics, topic)
		}
		c.mu.Unlock()
		ack = MessageUnsubscribed
		c.log.Debug().Strs("topics", payload.Topics).Msg("Client unsubscribed from topics")

	default:
		return
	}

	raw, _ := json.Marshal(payload)
	data := c.hub.messageToBytes(&WSMessage{Type: ack, Payload: raw})
	select {
	case c.hub.direct <- directMessage{client: c, data: data}:
	case <-c.hub.done:
	}
}

// ServeWebSocket handles WebSocket requests from clients
func ServeWebSocket(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-hub.done:
			writeError(w, http.StatusServiceUnavailable, "event stream is closed")
			return
		default:
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			hub.log.Error().Err(err).Msg("Failed to upgrade connection")
			return
		}

		client := &Client{
			hub:    hub,
			conn:   conn,
			send:   make(chan []byte, sendBufferSize),
			topics: make(map[string]bool),
			log:    logger.WithComponent("websocket.client").With().Str("remote_addr", r.RemoteAddr).Logger(),
		}

		select {
		case hub.register <- client:
		case <-hub.done:
			_ = conn.Close()
			return
		}

		go client.writePump()
		go client.readPump()
	}
}
