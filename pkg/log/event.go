package log

import (
	"time"
)

// Event is one protocol trace record. CBOR encoding uses integer keys
// for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// ConnectionID uniquely identifies the connection session (UUID).
	// It changes on every reconnect.
	ConnectionID string `cbor:"2,keyasint"`

	// Direction indicates frame flow relative to the link.
	Direction Direction `cbor:"3,keyasint"`

	// Layer where the event was captured.
	Layer Layer `cbor:"4,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"5,keyasint"`

	// DsID is the link's durable identity, when known.
	DsID string `cbor:"6,keyasint,omitempty"`

	// BrokerURI is the broker endpoint for this session.
	BrokerURI string `cbor:"7,keyasint,omitempty"`

	// Type-specific payload (at most one is set).
	Frame       *FrameEvent       `cbor:"8,keyasint,omitempty"`  // transport layer
	Message     *MessageEvent     `cbor:"9,keyasint,omitempty"`  // decoded envelope
	StateChange *StateChangeEvent `cbor:"10,keyasint,omitempty"` // connection state
	Error       *ErrorEventData   `cbor:"11,keyasint,omitempty"` // errors at any layer
}

// Direction indicates the direction of frame flow.
type Direction uint8

const (
	// DirectionIn indicates a frame received from the broker.
	DirectionIn Direction = 0
	// DirectionOut indicates a frame sent to the broker.
	DirectionOut Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// Layer indicates which layer captured the event.
type Layer uint8

const (
	// LayerTransport is the websocket framing layer (raw payloads).
	LayerTransport Layer = 0
	// LayerWire is the envelope layer (decoded messages).
	LayerWire Layer = 1
	// LayerLink is the orchestration layer (dispatch, registries).
	LayerLink Layer = 2
)

// String returns the layer name.
func (l Layer) String() string {
	switch l {
	case LayerTransport:
		return "TRANSPORT"
	case LayerWire:
		return "WIRE"
	case LayerLink:
		return "LINK"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryMessage indicates a protocol message frame.
	CategoryMessage Category = 0
	// CategoryControl indicates a liveness or handshake exchange.
	CategoryControl Category = 1
	// CategoryState indicates a connection state change.
	CategoryState Category = 2
	// CategoryError indicates an error event.
	CategoryError Category = 3
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryMessage:
		return "MESSAGE"
	case CategoryControl:
		return "CONTROL"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// FrameEvent captures a raw frame at the transport layer.
type FrameEvent struct {
	// Size is the payload size in bytes.
	Size int `cbor:"1,keyasint"`

	// Data is the raw payload (may be truncated for large frames).
	Data []byte `cbor:"2,keyasint,omitempty"`

	// Truncated indicates Data was cut short.
	Truncated bool `cbor:"3,keyasint,omitempty"`
}

// MessageEvent captures a decoded envelope at the wire layer.
type MessageEvent struct {
	// Msg and Ack are the envelope's sequence ids.
	Msg int32 `cbor:"1,keyasint,omitempty"`
	Ack int32 `cbor:"2,keyasint,omitempty"`

	// Methods lists the request methods the envelope carried.
	Methods []string `cbor:"3,keyasint,omitempty"`

	// Rids lists the request ids the envelope carried.
	Rids []int32 `cbor:"4,keyasint,omitempty"`

	// Liveness marks an empty "{}" frame.
	Liveness bool `cbor:"5,keyasint,omitempty"`
}

// StateChangeEvent captures a connection state transition.
type StateChangeEvent struct {
	// From and To are connection state names.
	From string `cbor:"1,keyasint"`
	To   string `cbor:"2,keyasint"`

	// Attempt is the reconnect attempt count, if reconnecting.
	Attempt int `cbor:"3,keyasint,omitempty"`

	// Delay is the backoff delay chosen for the next retry.
	Delay time.Duration `cbor:"4,keyasint,omitempty"`
}

// ErrorEventData captures an error at any layer.
type ErrorEventData struct {
	// Op names the operation that failed (handshake, dial, send, ...).
	Op string `cbor:"1,keyasint"`

	// Message is the error text.
	Message string `cbor:"2,keyasint"`
}
