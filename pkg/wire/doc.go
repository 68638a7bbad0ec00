// Package wire defines the JSON message envelope exchanged with the
// broker.
//
// Every frame is a single JSON object. An empty object "{}" is a
// liveness frame: brokers and links exchange it as a keepalive and as a
// minimal acknowledgment. A non-empty frame carries a message id, an
// acknowledgment of the peer's last message id, and request/response
// lists:
//
//	{
//	  "msg": 12,
//	  "ack": 11,
//	  "requests":  [ {"rid": 1, "method": "subscribe", ...}, ... ],
//	  "responses": [ {"rid": 1, "stream": "open", ...}, ... ]
//	}
//
// Requests are method-tagged; the methods this SDK dispatches are
// subscribe, unsubscribe, list, close, set, remove and invoke. Responses
// carry a stream state ("initialize", "open", "closed") and a list of
// updates whose shape is method-specific.
//
// Subscription value updates travel in responses with rid 0, each update
// being a [sid, value, timestamp] triple.
//
// The envelope format itself is specified by the protocol; this package
// carries just enough structure for the link to route frames.
package wire
