package chat

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"parley/logger"
	"parley/tools/api"
	"parley/tools/errs"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

const maxFrameSize = 1 << 20 // 1MB

// Gateway accepts websocket connections, validates the handshake identity,
// registers the session and feeds inbound events to the router.
type Gateway struct {
	reg    *Registry
	router *Router
}

func NewGateway(reg *Registry, router *Router) *Gateway {
	return &Gateway{reg: reg, router: router}
}

// HandleWS is the gin handler for GET /ws?userId=<id>.
func (g *Gateway) HandleWS(c *gin.Context) {
	userID := strings.TrimSpace(c.Query("userId"))
	if userID == "" {
		// No identity, no session. Rejected before the upgrade so nothing
		// is ever registered.
		api.Fail(c, errs.ErrArgs.WithDetail("userId query parameter is required"))
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Infof("[ws] upgrade failed user=%s err=%v", userID, err)
		return
	}

	client := newClient(userID, ws)
	g.reg.Register(client)
	go client.writePump()
	logger.Infof("[ws] connected user=%s conn=%s", client.UserID, client.ConnID)

	// Everyone, including the new session, sees the updated online set.
	g.router.BroadcastPresence()

	g.readLoop(client)
	g.teardown(client)
}

func (g *Gateway) readLoop(client *Client) {
	ws := client.ws
	ws.SetReadLimit(maxFrameSize)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		mt, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				logger.Infof("[ws] peer closed user=%s conn=%s", client.UserID, client.ConnID)
			} else if ne, ok := err.(net.Error); ok && ne.Timeout() {
				logger.Infof("[ws] read timeout user=%s conn=%s", client.UserID, client.ConnID)
			} else {
				logger.Infof("[ws] read error user=%s conn=%s err=%v", client.UserID, client.ConnID, err)
			}
			return
		}
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}

		ev, err := parseInbound(data, client.UserID)
		if err != nil {
			sample := data
			if len(sample) > 256 {
				sample = sample[:256]
			}
			logger.Warnf("[ws] dropping frame user=%s err=%v sample=%q", client.UserID, err, sample)
			continue
		}

		if err := g.router.Notify(context.Background(), ev); err != nil {
			// A failed fan-out or receipt write never takes the session down.
			logger.Warnf("[ws] notify failed user=%s err=%v", client.UserID, err)
		}
	}
}

// teardown runs the Closed-state side effects exactly once per session:
// close the transport, drop the presence mapping, broadcast the new set.
func (g *Gateway) teardown(client *Client) {
	client.teardownOnce.Do(func() {
		client.Close()
		g.reg.Unregister(client)
		g.router.BroadcastPresence()
		logger.Infof("[ws] disconnected user=%s conn=%s", client.UserID, client.ConnID)
	})
}
