package transport

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Transport errors.
var (
	ErrNotConnected = errors.New("transport not connected")
)

// Default websocket timings.
const (
	// DefaultHandshakeTimeout bounds the websocket upgrade.
	DefaultHandshakeTimeout = 10 * time.Second

	// DefaultWriteTimeout bounds a single frame write.
	DefaultWriteTimeout = 10 * time.Second
)

// Config configures the websocket transport.
type Config struct {
	// HandshakeTimeout bounds the websocket upgrade handshake.
	HandshakeTimeout time.Duration

	// WriteTimeout bounds each frame write.
	WriteTimeout time.Duration
}

// DefaultConfig returns the default websocket configuration.
func DefaultConfig() Config {
	return Config{
		HandshakeTimeout: DefaultHandshakeTimeout,
		WriteTimeout:     DefaultWriteTimeout,
	}
}

// WebSocket is the gorilla websocket implementation of Transport.
type WebSocket struct {
	config Config

	mu      sync.Mutex
	conn    *websocket.Conn
	writeMu sync.Mutex // gorilla allows one concurrent writer

	onMessage func(payload []byte)
	onClose   func()
}

// NewWebSocket creates a websocket transport with the given config.
func NewWebSocket(config Config) *WebSocket {
	if config.HandshakeTimeout == 0 {
		config.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if config.WriteTimeout == 0 {
		config.WriteTimeout = DefaultWriteTimeout
	}
	return &WebSocket{config: config}
}

// OnMessage sets the inbound frame callback.
func (ws *WebSocket) OnMessage(fn func(payload []byte)) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.onMessage = fn
}

// OnClose sets the connection-loss callback.
func (ws *WebSocket) OnClose(fn func()) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.onClose = fn
}

// Connect dials the broker. Any previous socket is discarded silently.
func (ws *WebSocket) Connect(ctx context.Context, uri string) error {
	ws.Reset()

	dialer := websocket.Dialer{HandshakeTimeout: ws.config.HandshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, uri, nil)
	if err != nil {
		return err
	}

	ws.mu.Lock()
	ws.conn = conn
	onMessage := ws.onMessage
	ws.mu.Unlock()

	go ws.readLoop(conn, onMessage)
	return nil
}

// Send writes one text frame.
func (ws *WebSocket) Send(payload []byte) error {
	ws.mu.Lock()
	conn := ws.conn
	ws.mu.Unlock()

	if conn == nil {
		return ErrNotConnected
	}

	ws.writeMu.Lock()
	defer ws.writeMu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(ws.config.WriteTimeout))
	return conn.WriteMessage(websocket.TextMessage, payload)
}

// Reset discards the current socket without firing OnClose.
func (ws *WebSocket) Reset() {
	ws.mu.Lock()
	conn := ws.conn
	ws.conn = nil
	ws.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
}

// readLoop delivers inbound frames until the socket fails. The close
// callback fires only if this loop's socket is still the current one,
// so a Reset-initiated teardown stays silent.
func (ws *WebSocket) readLoop(conn *websocket.Conn, onMessage func([]byte)) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		if onMessage != nil {
			onMessage(data)
		}
	}

	ws.mu.Lock()
	current := ws.conn == conn
	if current {
		ws.conn = nil
	}
	onClose := ws.onClose
	ws.mu.Unlock()

	conn.Close()
	if current && onClose != nil {
		onClose()
	}
}
