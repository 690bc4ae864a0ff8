package realtime

import (
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
)

// Client is one live websocket connection. It owns the outbound buffer and
// the per-connection view state; the hub routes to it through the Conn
// interface.
type Client struct {
	userID   string
	username string
	conn     *websocket.Conn
	send     chan any
	view     ViewState

	mu     sync.Mutex
	closed bool
}

func NewClient(conn *websocket.Conn, userID, username string) *Client {
	return &Client{
		userID:   userID,
		username: username,
		conn:     conn,
		send:     make(chan any, 256),
	}
}

func (c *Client) UserID() string { return c.userID }

// Enqueue hands a payload to the writer. Slow consumers get payloads
// dropped rather than blocking the sender's event loop.
func (c *Client) Enqueue(v any) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- v:
		return true
	default:
		return false
	}
}

func (c *Client) IsViewingChannel(channelID string) bool {
	return c.view.IsViewingChannel(channelID)
}

func (c *Client) IsViewingDM(peerID string) bool {
	return c.view.IsViewingDM(peerID)
}

func (c *Client) SetViewChannel(channelID string) { c.view.SetChannel(channelID) }

func (c *Client) SetViewDM(peerID string) { c.view.SetDM(peerID) }

func (c *Client) Close() {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
	c.mu.Unlock()
}

// WritePump drains the send channel to the socket and keeps the connection
// alive with pings. Runs in its own goroutine per connection.
func (c *Client) WritePump(pingInterval, writeDeadline time.Duration) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				_ = c.conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
					time.Now().Add(time.Second))
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := c.conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(time.Second)); err != nil {
				return
			}
		}
	}
}
