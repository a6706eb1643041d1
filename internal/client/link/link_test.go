package link

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/cloudzz-dev/roomchat/internal/protocol"
)

func TestNextBackoffDoublesToCap(t *testing.T) {
	d := baseBackoff
	var got []time.Duration
	for i := 0; i < 6; i++ {
		d = nextBackoff(d)
		got = append(got, d)
	}
	require.Equal(t, []time.Duration{
		time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		10 * time.Second,
		10 * time.Second,
	}, got)
}

func nextEvent(t *testing.T, m *Manager) Event {
	t.Helper()
	select {
	case ev := <-m.Events():
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for link event")
		return nil
	}
}

// The server drops the first connection right after greeting it, so
// the client must walk connecting → connected → connecting → connected
// with the join re-sent each time.
func TestReconnectReplaysJoinAndKeepsEventOrder(t *testing.T) {
	upgrader := websocket.Upgrader{}
	var connCount atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)

		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		ev, err := protocol.DecodeClientEvent(data)
		require.NoError(t, err)
		require.Equal(t, protocol.Join{Identity: "alice"}, ev)

		n := connCount.Add(1)
		greeting, err := protocol.EncodeServerEvent(protocol.NewMessage{
			Message: protocol.Message{Author: "server", Body: "hello", SentAt: time.Unix(int64(n), 0).UTC()},
		})
		require.NoError(t, err)
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, greeting))

		if n == 1 {
			conn.Close()
			return
		}
		// Keep the second connection open until the client closes it.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	m := New(url, zerolog.Nop())
	m.base = 10 * time.Millisecond
	m.Open("alice")
	defer m.Close()

	require.Equal(t, StateEvent{State: Connecting}, nextEvent(t, m))
	require.Equal(t, StateEvent{State: Connected}, nextEvent(t, m))

	ev := nextEvent(t, m)
	first, ok := ev.(ServerEvent)
	require.True(t, ok)
	require.Equal(t, "hello", first.Event.(protocol.NewMessage).Message.Body)

	require.Equal(t, StateEvent{State: Connecting}, nextEvent(t, m))
	require.Equal(t, StateEvent{State: Connected}, nextEvent(t, m))

	ev = nextEvent(t, m)
	second, ok := ev.(ServerEvent)
	require.True(t, ok)
	require.Equal(t, "hello", second.Event.(protocol.NewMessage).Message.Body)
}

func TestCloseCancelsPendingRetry(t *testing.T) {
	m := New("ws://127.0.0.1:0", zerolog.Nop())
	m.base = time.Hour
	m.dial = func(string) (*websocket.Conn, error) {
		return nil, websocket.ErrBadHandshake
	}

	m.Open("alice")
	require.Equal(t, StateEvent{State: Connecting}, nextEvent(t, m))

	m.Close()
	require.Equal(t, StateEvent{State: Disconnected}, nextEvent(t, m))

	// The hour-long backoff was pending; no retry may fire now.
	select {
	case ev := <-m.Events():
		t.Fatalf("unexpected event after close: %#v", ev)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestOpenWhileOpenIsIgnored(t *testing.T) {
	m := New("ws://127.0.0.1:0", zerolog.Nop())
	m.base = time.Hour
	m.dial = func(string) (*websocket.Conn, error) {
		return nil, websocket.ErrBadHandshake
	}

	m.Open("alice")
	m.Open("alice")

	require.Equal(t, StateEvent{State: Connecting}, nextEvent(t, m))
	select {
	case ev := <-m.Events():
		t.Fatalf("second open spawned a loop: %#v", ev)
	case <-time.After(100 * time.Millisecond):
	}
	m.Close()
}
