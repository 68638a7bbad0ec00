package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// echoServer upgrades each request and echoes text frames back until
// the shutdown channel closes.
func echoServer(t *testing.T, shutdown <-chan struct{}) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				mt, data, err := conn.ReadMessage()
				if err != nil {
					return
				}
				if err := conn.WriteMessage(mt, data); err != nil {
					return
				}
			}
		}()

		select {
		case <-shutdown:
			conn.Close()
		case <-done:
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wsURI(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestWebSocket(t *testing.T) {
	t.Run("SendAndReceive", func(t *testing.T) {
		srv := echoServer(t, make(chan struct{}))
		ws := NewWebSocket(DefaultConfig())

		received := make(chan []byte, 1)
		ws.OnMessage(func(p []byte) { received <- p })

		if err := ws.Connect(context.Background(), wsURI(srv)); err != nil {
			t.Fatalf("Connect: %v", err)
		}
		defer ws.Reset()

		if err := ws.Send([]byte(`{"msg":1}`)); err != nil {
			t.Fatalf("Send: %v", err)
		}

		select {
		case p := <-received:
			if string(p) != `{"msg":1}` {
				t.Errorf("received %q", p)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("no frame received")
		}
	})

	t.Run("OnCloseFiresOnceOnServerClose", func(t *testing.T) {
		shutdown := make(chan struct{})
		srv := echoServer(t, shutdown)
		ws := NewWebSocket(DefaultConfig())

		var mu sync.Mutex
		closes := 0
		closed := make(chan struct{}, 2)
		ws.OnClose(func() {
			mu.Lock()
			closes++
			mu.Unlock()
			closed <- struct{}{}
		})

		if err := ws.Connect(context.Background(), wsURI(srv)); err != nil {
			t.Fatalf("Connect: %v", err)
		}

		close(shutdown)

		select {
		case <-closed:
		case <-time.After(5 * time.Second):
			t.Fatal("OnClose never fired")
		}

		// Give a second spurious invocation time to show up.
		time.Sleep(50 * time.Millisecond)
		mu.Lock()
		defer mu.Unlock()
		if closes != 1 {
			t.Errorf("OnClose fired %d times, want 1", closes)
		}
	})

	t.Run("ResetDoesNotFireOnClose", func(t *testing.T) {
		srv := echoServer(t, make(chan struct{}))
		ws := NewWebSocket(DefaultConfig())

		ws.OnClose(func() { t.Error("OnClose fired for Reset") })

		if err := ws.Connect(context.Background(), wsURI(srv)); err != nil {
			t.Fatalf("Connect: %v", err)
		}
		ws.Reset()
		time.Sleep(50 * time.Millisecond)
	})

	t.Run("SendWithoutConnect", func(t *testing.T) {
		ws := NewWebSocket(DefaultConfig())
		if err := ws.Send([]byte("{}")); err != ErrNotConnected {
			t.Errorf("Send = %v, want ErrNotConnected", err)
		}
	})

	t.Run("ConnectFailure", func(t *testing.T) {
		ws := NewWebSocket(Config{HandshakeTimeout: 200 * time.Millisecond})
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := ws.Connect(ctx, "ws://127.0.0.1:1"); err == nil {
			t.Error("Connect to closed port succeeded")
		}
	})
}
