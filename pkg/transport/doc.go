// Package transport provides the persistent full-duplex connection a
// link holds to its broker.
//
// The protocol runs JSON frames over a websocket. Transport is the
// interface the connection manager consumes; WebSocket is the gorilla
// websocket implementation of it.
//
// # Ownership and lifecycle
//
// The connection manager exclusively owns the transport. Each call to
// Connect dials a fresh underlying socket; the previous socket, if any,
// is discarded and never reused across reconnects. Inbound frames are
// delivered on the OnMessage callback from a single read loop, and
// OnClose fires exactly once per established connection when the peer
// closes or the read loop fails. Reset tears the socket down without
// firing OnClose, for teardown paths the manager initiates itself.
package transport
