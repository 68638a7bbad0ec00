// Package connection manages a link's session lifecycle against the
// broker.
//
// This package handles:
//   - The handshake → transport → keepalive sequence
//   - Linear backoff for reconnection attempts
//   - Keepalive scheduling while connected
//   - Automatic reconnection on connection loss
//
// # Connect-forever contract
//
// Manager.Run never reports connectivity failure to its caller: the
// SDK's contract is "stay connected". Every handshake or dial failure
// is logged, waited out, and retried; the only way out of the loop is
// canceling the context (or Close), which is the explicit shutdown path.
//
// # Reconnection strategy
//
// The retry delay ramps linearly: it starts at zero and each attempt
// adds one second, capped at 60 seconds. The ramp is deliberately linear
// rather than exponential — worst-case retry latency stays bounded at
// one minute while still backing off an unreachable broker. The delay
// resets to zero only on confirmed success, so a flapping broker is not
// hammered.
//
// # Reconnect semantics
//
// Session tokens are not reusable: every reconnect runs a fresh
// handshake. On transport loss the keepalive task is stopped before the
// handshake retry begins, so no liveness frame can be written to a dead
// socket during the retry window.
package connection
