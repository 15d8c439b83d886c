package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"parley/module/chat/model"
)

type wsFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func newTestGateway(t *testing.T, dir Directory) (*httptest.Server, *Router) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	reg := NewRegistry()
	router := NewRouter(reg, dir)
	gw := NewGateway(reg, router)

	engine := gin.New()
	engine.GET("/ws", gw.HandleWS)

	srv := httptest.NewServer(engine)
	t.Cleanup(srv.Close)
	return srv, router
}

func dialWS(t *testing.T, srv *httptest.Server, userID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	if userID != "" {
		url += "?userId=" + userID
	}
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) wsFrame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	var f wsFrame
	require.NoError(t, json.Unmarshal(raw, &f))
	return f
}

func readOnlineSet(t *testing.T, conn *websocket.Conn) []string {
	t.Helper()
	f := readFrame(t, conn)
	require.Equal(t, EventGetOnlineUsers, f.Event)
	var online []string
	require.NoError(t, json.Unmarshal(f.Data, &online))
	return online
}

func expectSilence(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(300*time.Millisecond)))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
}

func TestGatewayRejectsAnonymousHandshake(t *testing.T) {
	req := require.New(t)
	srv, _ := newTestGateway(t, newFakeDirectory())

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	req.Error(err)
	req.Equal(http.StatusBadRequest, resp.StatusCode)
}

func TestGatewayPresenceLifecycle(t *testing.T) {
	req := require.New(t)
	srv, router := newTestGateway(t, newFakeDirectory())

	// u1 connects and sees itself online.
	a := dialWS(t, srv, "u1")
	req.Equal([]string{"u1"}, readOnlineSet(t, a))

	// u2 connects; both sides observe the same set.
	b := dialWS(t, srv, "u2")
	req.Equal([]string{"u1", "u2"}, readOnlineSet(t, b))
	req.Equal([]string{"u1", "u2"}, readOnlineSet(t, a))

	// Direct message to u2 arrives exactly once.
	msg := &model.Message{SenderID: "u1", ReceiverID: "u2", Text: "hello"}
	req.NoError(router.Notify(context.Background(), NewMessage{Msg: msg}))

	f := readFrame(t, b)
	req.Equal(EventNewMessage, f.Event)
	var got model.Message
	req.NoError(json.Unmarshal(f.Data, &got))
	req.Equal("hello", got.Text)
	req.Equal("u1", got.SenderID)

	// u2 disconnects; u1 sees the shrunken set.
	req.NoError(b.Close())
	req.Equal([]string{"u1"}, readOnlineSet(t, a))

	// A message to the now-offline u2 is dropped silently.
	req.NoError(router.Notify(context.Background(), NewMessage{Msg: msg}))
	expectSilence(t, a)
}

func TestGatewayInboundTypingRouted(t *testing.T) {
	req := require.New(t)
	srv, _ := newTestGateway(t, newFakeDirectory())

	a := dialWS(t, srv, "u1")
	b := dialWS(t, srv, "u2")
	readOnlineSet(t, a)
	readOnlineSet(t, a)
	readOnlineSet(t, b)

	req.NoError(a.WriteMessage(websocket.TextMessage,
		[]byte(`{"event":"typing","data":{"receiverId":"u2"}}`)))

	f := readFrame(t, b)
	req.Equal(EventTyping, f.Event)
	var notice struct {
		SenderID string `json:"senderId"`
	}
	req.NoError(json.Unmarshal(f.Data, &notice))
	req.Equal("u1", notice.SenderID)
}

func TestGatewayMalformedFrameKeepsSessionAlive(t *testing.T) {
	req := require.New(t)
	srv, _ := newTestGateway(t, newFakeDirectory())

	a := dialWS(t, srv, "u1")
	b := dialWS(t, srv, "u2")
	readOnlineSet(t, a)
	readOnlineSet(t, a)
	readOnlineSet(t, b)

	// Garbage, then a frame missing its required field: both dropped.
	req.NoError(a.WriteMessage(websocket.TextMessage, []byte(`not json at all`)))
	req.NoError(a.WriteMessage(websocket.TextMessage, []byte(`{"event":"typing","data":{}}`)))

	// The session survived and still routes.
	req.NoError(a.WriteMessage(websocket.TextMessage,
		[]byte(`{"event":"typing","data":{"receiverId":"u2"}}`)))
	f := readFrame(t, b)
	req.Equal(EventTyping, f.Event)
}

func TestGatewayReconnectSupersedes(t *testing.T) {
	req := require.New(t)
	srv, router := newTestGateway(t, newFakeDirectory())

	a1 := dialWS(t, srv, "u1")
	readOnlineSet(t, a1)

	// Same user reconnects; the new handle wins.
	a2 := dialWS(t, srv, "u1")
	req.Equal([]string{"u1"}, readOnlineSet(t, a2))

	msg := &model.Message{SenderID: "u2", ReceiverID: "u1", Text: "ping"}
	req.NoError(router.Notify(context.Background(), NewMessage{Msg: msg}))

	f := readFrame(t, a2)
	req.Equal(EventNewMessage, f.Event)

	// The old connection closing must not knock the new one offline. Its
	// teardown still broadcasts presence, which u1 remains part of.
	req.NoError(a1.Close())
	req.Equal([]string{"u1"}, readOnlineSet(t, a2))
	req.NoError(router.Notify(context.Background(), NewMessage{Msg: msg}))
	f = readFrame(t, a2)
	req.Equal(EventNewMessage, f.Event)
}
