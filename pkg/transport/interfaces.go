package transport

import (
	"context"
)

// Transport is a full-duplex frame connection to the broker.
// Implemented by WebSocket.
type Transport interface {
	// Connect dials the broker at the given URI. A previously
	// established socket is discarded first.
	Connect(ctx context.Context, uri string) error

	// Send writes one frame. It returns an error if the transport is
	// not connected or the write fails.
	Send(payload []byte) error

	// Reset tears down the current socket, if any, without firing the
	// close callback.
	Reset()

	// OnMessage sets the inbound frame callback. Must be set before
	// Connect; frames are delivered sequentially from one read loop.
	OnMessage(fn func(payload []byte))

	// OnClose sets the connection-loss callback, fired at most once per
	// established connection.
	OnClose(fn func())
}

// Compile-time interface satisfaction check.
var _ Transport = (*WebSocket)(nil)
