package chat

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	sendBuffer = 256
)

// Client is one live session: exactly one websocket tied to one
// authenticated user. All writes go through the send queue and a single
// write pump; gorilla conns do not tolerate concurrent writers.
type Client struct {
	ConnID string
	UserID string

	ws   *websocket.Conn
	send chan []byte
	done chan struct{}

	closeOnce    sync.Once
	teardownOnce sync.Once
}

func newClient(userID string, ws *websocket.Conn) *Client {
	return &Client{
		ConnID: uuid.NewString(),
		UserID: userID,
		ws:     ws,
		send:   make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
	}
}

// deliver queues a payload without blocking. A closed session or a full
// queue reports false; the caller treats that as the target being offline.
func (c *Client) deliver(payload []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- payload:
		return true
	case <-c.done:
		return false
	default:
		return false
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case payload := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

// Close tears down the transport. Safe to call any number of times; only the
// first does anything.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		if c.ws != nil {
			_ = c.ws.Close()
		}
	})
}
