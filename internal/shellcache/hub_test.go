package shellcache

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialHub(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHubBroadcast(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(hub)
	defer srv.Close()

	a := dialHub(t, srv)
	b := dialHub(t, srv)
	require.Eventually(t, func() bool { return hub.Clients() == 2 }, time.Second, 10*time.Millisecond)

	hub.Broadcast(MsgUpdateAvailable)

	for _, conn := range []*websocket.Conn{a, b} {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		assert.Equal(t, MsgUpdateAvailable, string(data))
	}
}

func TestHubDeliversPageMessages(t *testing.T) {
	hub := NewHub()
	got := make(chan string, 1)
	hub.OnMessage(func(ctx context.Context, msg string) error {
		got <- msg
		return nil
	})
	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dialHub(t, srv)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(MsgSkipWaiting)))

	select {
	case msg := <-got:
		assert.Equal(t, MsgSkipWaiting, msg)
	case <-time.After(time.Second):
		t.Fatal("message was not delivered")
	}
}

func TestHubForgetsClosedPages(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dialHub(t, srv)
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 10*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool { return hub.Clients() == 0 }, time.Second, 10*time.Millisecond)

	// No clients: broadcasting is a no-op.
	hub.Broadcast(MsgUpdated)
}
