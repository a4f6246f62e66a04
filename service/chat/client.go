package chat

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"CampusChat/logger"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 25 * time.Second
)

// Client represents one live connection to the gateway.
// A single user may have multiple devices/connections, each maintained
// separately; UserID is bound once the peer announces itself via user_join.
type Client struct {
	ConnID string          // unique connection id (snowflake, local to this gateway)
	UserID string          // owning user; empty until user_join
	WS     *websocket.Conn // nil in unit tests
	Send   chan []byte     // outbound queue, consumed by a single writer goroutine

	mu     sync.Mutex
	closed bool
	done   chan struct{} // closed on Close; signals the writer to exit
}

func NewClient(connID string, ws *websocket.Conn, sendQueueSize int) *Client {
	return &Client{
		ConnID: connID,
		WS:     ws,
		Send:   make(chan []byte, sendQueueSize),
		done:   make(chan struct{}),
	}
}

// Deliver enqueues a payload without blocking. A full queue means a slow
// client and a closed client is already gone; either way the frame is
// dropped rather than stalling or failing the fan-out path. Fan-out workers
// run from subscriber snapshots that may predate a disconnect, so delivery
// after Close must stay a silent drop.
func (c *Client) Deliver(payload []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.Send <- payload:
	default:
		logger.Warnf("[client] slow client, frame dropped conn=%s user=%s", c.ConnID, c.UserID)
	}
}

// Close marks the connection down exactly once and signals the writer to
// exit. Send is never closed: late deliveries from in-flight fan-out jobs
// land against the closed flag instead of a closed channel.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.done)
}

// writePump is the single writer for the connection: it serializes frames
// from Send and keeps the peer alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		if c.WS != nil {
			_ = c.WS.Close()
		}
	}()

	for {
		select {
		case <-c.done:
			_ = c.WS.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case payload := <-c.Send:
			_ = c.WS.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.WS.WriteMessage(websocket.TextMessage, payload); err != nil {
				logger.Infof("[client] write failed conn=%s err=%v", c.ConnID, err)
				return
			}
		case <-ticker.C:
			_ = c.WS.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.WS.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
