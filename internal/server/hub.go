package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/djh20/lfs-leaderboard/internal/bus"
)

var (
	upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}

	pingInterval = 30 * time.Second
	pongWait     = 60 * time.Second
	writeTimeout = 10 * time.Second
)

// FeedMessage is sent to websocket subscribers
type FeedMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

type subscribeRequest struct {
	Type  string `json:"type"`
	Track string `json:"track"`
}

// FeedClient is one websocket subscriber
type FeedClient struct {
	ID    string
	Conn  *websocket.Conn
	Send  chan []byte
	Hub   *Hub
	Track string // empty means all tracks

	mu     sync.RWMutex
	closed bool
}

func (c *FeedClient) track() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Track
}

// enqueue queues a message without blocking. It reports false once Send is
// closed or full.
func (c *FeedClient) enqueue(message []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.Send <- message:
		return true
	default:
		return false
	}
}

func (c *FeedClient) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.Send)
	}
}

// Hub pushes recorded laps to websocket subscribers
type Hub struct {
	clients    map[*FeedClient]bool
	broadcast  chan bus.LapEvent
	register   chan *FeedClient
	unregister chan *FeedClient
	bus        bus.Bus
	logger     *zap.Logger
	done       chan struct{}
	mu         sync.RWMutex
}

// NewHub creates a hub fed by the lap bus
func NewHub(lapBus bus.Bus, logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[*FeedClient]bool),
		broadcast:  make(chan bus.LapEvent, 256),
		register:   make(chan *FeedClient),
		unregister: make(chan *FeedClient),
		bus:        lapBus,
		logger:     logger.With(zap.String("component", "ws")),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's event loop
func (h *Hub) Run(ctx context.Context) error {
	unsubscribe, err := h.bus.Subscribe(func(event bus.LapEvent) {
		select {
		case h.broadcast <- event:
		default:
			h.logger.Warn("Lap feed backlog full, dropping event", zap.String("id", event.ID))
		}
	})
	if err != nil {
		return err
	}
	defer unsubscribe()

	h.logger.Info("Hub started")

	for {
		select {
		case <-ctx.Done():
			h.stop()
			return nil

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("Client connected", zap.String("id", client.ID), zap.Int("clients", count))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.close()
			}
			count := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("Client disconnected", zap.String("id", client.ID), zap.Int("clients", count))

		case event := <-h.broadcast:
			data, err := json.Marshal(FeedMessage{Type: "lap", Data: event})
			if err != nil {
				h.logger.Warn("Failed to marshal lap event", zap.Error(err))
				continue
			}

			h.mu.Lock()
			for client := range h.clients {
				if track := client.track(); track != "" && track != event.Lap.TrackCode {
					continue
				}
				if !client.enqueue(data) {
					// send buffer full
					delete(h.clients, client)
					client.close()
				}
			}
			h.mu.Unlock()
		}
	}
}

func (h *Hub) stop() {
	close(h.done)
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		client.close()
		client.Conn.Close()
		delete(h.clients, client)
	}
}

// ClientCount returns the number of connected subscribers
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Serve upgrades an HTTP request and registers the subscriber
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, track string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("Upgrade failed", zap.Error(err))
		return
	}

	client := &FeedClient{
		ID:    uuid.NewString(),
		Conn:  conn,
		Send:  make(chan []byte, 64),
		Hub:   h,
		Track: track,
	}
	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump()
}

// ReadPump handles incoming messages from the subscriber
func (c *FeedClient) ReadPump() {
	defer func() {
		select {
		case c.Hub.unregister <- c:
		case <-c.Hub.done:
		}
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(4096)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.logger.Debug("Read error", zap.String("id", c.ID), zap.Error(err))
			}
			return
		}

		var req subscribeRequest
		if err := json.Unmarshal(message, &req); err != nil {
			continue
		}
		switch req.Type {
		case "subscribe":
			c.mu.Lock()
			c.Track = req.Track
			c.mu.Unlock()
		case "ping":
			c.enqueue([]byte(`{"type":"pong"}`))
		}
	}
}

// WritePump handles outgoing messages to the subscriber
func (c *FeedClient) WritePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
