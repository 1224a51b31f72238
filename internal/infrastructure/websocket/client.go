package websocket

import (
	"sync"

	"github.com/gorilla/websocket"

	"lapakchat/pkg/logger"
)

// Client represents one connected user on one WebSocket connection.
type Client struct {
	UserID string
	Conn   *websocket.Conn
	Send   chan []byte

	mu     sync.Mutex
	closed bool
}

// enqueue hands a payload to the write pump without blocking. It reports
// false only when the buffer is full; a closed client swallows the
// payload, since its disconnect is already underway.
func (c *Client) enqueue(payload []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return true
	}
	select {
	case c.Send <- payload:
		return true
	default:
		return false
	}
}

// closeSend shuts the send channel exactly once. Broadcasts racing the
// disconnect go through enqueue, which holds the same mutex, so nothing
// can write to the channel after it closes.
func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.Send)
	}
}

// ReadPump reads frames from the connection and hands them to the
// protocol handler until the connection drops, then unregisters.
func (c *Client) ReadPump(m *Manager, handle func(client *Client, payload []byte)) {
	defer func() {
		m.Unregister <- c
		c.Conn.Close()
	}()

	for {
		_, payload, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("WebSocket: read error for %s: %v", c.UserID, err)
			}
			break
		}

		handle(c, payload)
	}
}

// WritePump drains the send buffer to the connection.
func (c *Client) WritePump() {
	defer c.Conn.Close()

	for {
		payload, ok := <-c.Send
		if !ok {
			c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}

		if err := c.Conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			logger.Warn("WebSocket: write error for %s: %v", c.UserID, err)
			return
		}
	}
}
