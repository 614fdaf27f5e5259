package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/hilthontt/converse/internal/infrastructure/metrics"
)

const defaultSendBuffer = 64

// Client is one physical connection. Its single read loop dispatches inbound
// events in arrival order; the write pump drains the buffered send channel.
type Client struct {
	ID   string
	conn *connWrapper
	send chan *WSMessage
	done chan struct{}

	mu     sync.Mutex
	userID string
}

func NewClient(conn *websocket.Conn, sendBuffer int, writeTimeout time.Duration) *Client {
	if sendBuffer <= 0 {
		sendBuffer = defaultSendBuffer
	}
	return &Client{
		ID:   uuid.NewString(),
		conn: newConnWrapper(conn, writeTimeout),
		// buffered to avoid dead-locks on slow clients
		send: make(chan *WSMessage, sendBuffer),
		done: make(chan struct{}),
	}
}

// UserID returns the bound identity, or "" while Unidentified.
func (c *Client) UserID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userID
}

func (c *Client) bind(userID string) {
	c.mu.Lock()
	c.userID = userID
	c.mu.Unlock()
}

// trySend queues the payload without blocking. False means the buffer was
// full and the payload was dropped.
func (c *Client) trySend(msg *WSMessage) bool {
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (c *Client) ReadPump(core *Core) {
	defer core.Disconnect(c)

	for {
		_, raw, err := c.conn.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				core.logger.Debugw("ws read error", "connId", c.ID, "error", err)
			}
			break
		}

		var ev InboundEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			metrics.ProtocolErrors.Inc()
			core.logger.Debugw("dropping malformed frame", "connId", c.ID, "error", err)
			continue
		}

		core.Dispatch(c, &ev)
	}
}

func (c *Client) WritePump() {
	defer func() {
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}
