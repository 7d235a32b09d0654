package notifier

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Envelope is what a websocket client receives for every event
type Envelope struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Hub is a Publisher over websocket connections. Each connection subscribes
// to a fixed set of groups when it is opened.
type Hub struct {
	mu         sync.RWMutex
	groups     map[string]map[*client]struct{}
	upgrader   websocket.Upgrader
	sendBuffer int
}

type client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	groups []string
}

// NewHub creates a hub whose connections queue up to sendBuffer events
func NewHub(sendBuffer int) *Hub {
	if sendBuffer <= 0 {
		sendBuffer = 64
	}
	return &Hub{
		groups: make(map[string]map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // callers are authenticated before the upgrade
			},
		},
		sendBuffer: sendBuffer,
	}
}

// Publish queues the event on every connection in group. A connection whose
// queue is full misses the event.
func (h *Hub) Publish(group, event string, payload interface{}) {
	b, err := json.Marshal(Envelope{Event: event, Data: payload})
	if err != nil {
		zap.S().Errorw("failed to marshal event", "event", event, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.groups[strings.ToLower(group)] {
		select {
		case c.send <- b:
		default:
			zap.S().Warnw("dropping event for slow client",
				"group", group,
				"event", event)
		}
	}
}

// Subscribers returns how many connections listen on group
func (h *Hub) Subscribers(group string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groups[strings.ToLower(group)])
}

// Serve upgrades the request and blocks until the connection goes away
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, groups []string) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	c := &client{
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, h.sendBuffer),
		groups: groups,
	}
	h.register(c)
	zap.S().Infow("client connected to /ws/events", "groups", groups)

	go c.writePump()
	c.readPump()
	return nil
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, g := range c.groups {
		g = strings.ToLower(g)
		if h.groups[g] == nil {
			h.groups[g] = make(map[*client]struct{})
		}
		h.groups[g][c] = struct{}{}
	}
}

// unregister must run once per client, it closes the send queue
func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, g := range c.groups {
		g = strings.ToLower(g)
		delete(h.groups[g], c)
		if len(h.groups[g]) == 0 {
			delete(h.groups, g)
		}
	}
	close(c.send)
}

// readPump only exists to process pongs and notice the client leaving
func (c *client) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
		zap.S().Infow("client disconnected from /ws/events", "groups", c.groups)
	}()
	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.NextReader(); err != nil {
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
