package services

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/vitalcircle/vitalcircle/utils"
)

// Realtime event types pushed to patients.
const (
	EventClinicianAction = "clinician_action"
	EventAchievement     = "achievement"
	EventNudge           = "nudge"
)

const (
	wsWriteWait      = 10 * time.Second
	wsPongWait       = 60 * time.Second
	wsPingPeriod     = 25 * time.Second
	wsMaxMessageSize = 512
	wsSendBuffer     = 16
)

// Notifier delivers an event to every live connection of a user.
type Notifier interface {
	Publish(userID uint, eventType string, data any) int
}

// Event is the JSON frame written to websocket clients.
type Event struct {
	Type   string    `json:"type"`
	Data   any       `json:"data"`
	SentAt time.Time `json:"sent_at"`
}

// WSClient is one websocket connection. Writes go through send so only the write pump touches the socket.
type WSClient struct {
	ID     string
	UserID uint

	conn      *websocket.Conn
	hub       *RealtimeHub
	send      chan []byte
	closeOnce sync.Once
}

// RealtimeHub fans events out to the websocket connections of each user.
type RealtimeHub struct {
	mu      sync.RWMutex
	clients map[uint]map[*WSClient]struct{}
	closed  bool
}

// NewRealtimeHub creates an empty hub.
func NewRealtimeHub() *RealtimeHub {
	return &RealtimeHub{clients: make(map[uint]map[*WSClient]struct{})}
}

// NewClient wraps an upgraded connection for userID and registers it.
func (h *RealtimeHub) NewClient(userID uint, conn *websocket.Conn) *WSClient {
	c := &WSClient{
		ID:     uuid.NewString(),
		UserID: userID,
		conn:   conn,
		hub:    h,
		send:   make(chan []byte, wsSendBuffer),
	}
	h.register(c)
	return c
}

func (h *RealtimeHub) register(c *WSClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		c.close()
		return
	}
	if h.clients[c.UserID] == nil {
		h.clients[c.UserID] = make(map[*WSClient]struct{})
	}
	h.clients[c.UserID][c] = struct{}{}
	utils.Sugar.Debugw("ws client connected", "client_id", c.ID, "user_id", c.UserID)
}

// Unregister removes the client and closes its connection. Safe to call more than once.
func (h *RealtimeHub) Unregister(c *WSClient) {
	h.mu.Lock()
	if set := h.clients[c.UserID]; set != nil {
		delete(set, c)
		if len(set) == 0 {
			delete(h.clients, c.UserID)
		}
	}
	h.mu.Unlock()
	c.close()
}

// Publish queues the event for every connection of userID and returns how many accepted it.
// A connection whose buffer is full is dropped.
func (h *RealtimeHub) Publish(userID uint, eventType string, data any) int {
	msg, err := json.Marshal(Event{Type: eventType, Data: data, SentAt: time.Now().UTC()})
	if err != nil {
		utils.Sugar.Warnw("ws event marshal failed", "type", eventType, "error", err)
		return 0
	}

	h.mu.RLock()
	var stalled []*WSClient
	delivered := 0
	for c := range h.clients[userID] {
		select {
		case c.send <- msg:
			delivered++
		default:
			stalled = append(stalled, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range stalled {
		utils.Sugar.Warnw("ws client too slow, disconnecting", "client_id", c.ID, "user_id", userID)
		h.Unregister(c)
	}
	return delivered
}

// Connected returns the number of live connections for userID.
func (h *RealtimeHub) Connected(userID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// Close disconnects every client and rejects new ones.
func (h *RealtimeHub) Close() {
	h.mu.Lock()
	h.closed = true
	all := h.clients
	h.clients = make(map[uint]map[*WSClient]struct{})
	h.mu.Unlock()

	for _, set := range all {
		for c := range set {
			c.close()
		}
	}
}

func (c *WSClient) close() {
	c.closeOnce.Do(func() {
		close(c.send)
	})
}

// Serve runs the client until the connection ends. It blocks in the read loop; incoming
// messages are discarded, only control frames matter.
func (c *WSClient) Serve() {
	go c.writePump()
	defer c.hub.Unregister(c)

	c.conn.SetReadLimit(wsMaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				utils.Sugar.Debugw("ws read ended", "client_id", c.ID, "error", err)
			}
			return
		}
	}
}

func (c *WSClient) writePump() {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
