package wire

import (
	"fmt"
)

// Method identifies the operation a request asks for.
type Method string

// Request methods.
const (
	MethodList        Method = "list"
	MethodSubscribe   Method = "subscribe"
	MethodUnsubscribe Method = "unsubscribe"
	MethodClose       Method = "close"
	MethodSet         Method = "set"
	MethodRemove      Method = "remove"
	MethodInvoke      Method = "invoke"
)

// IsValid reports whether the method is one this SDK understands.
func (m Method) IsValid() bool {
	switch m {
	case MethodList, MethodSubscribe, MethodUnsubscribe, MethodClose,
		MethodSet, MethodRemove, MethodInvoke:
		return true
	}
	return false
}

// Stream states carried in responses.
const (
	StreamInitialize = "initialize"
	StreamOpen       = "open"
	StreamClosed     = "closed"
)

// Message is one frame's envelope.
type Message struct {
	// Msg is this message's sequence id.
	Msg int32 `json:"msg,omitempty"`

	// Ack acknowledges the peer's last received message id.
	Ack int32 `json:"ack,omitempty"`

	// Salt is a rotating value some brokers include for re-auth.
	Salt string `json:"salt,omitempty"`

	// Requests carries requester-to-responder operations.
	Requests []Request `json:"requests,omitempty"`

	// Responses carries responder-to-requester results and updates.
	Responses []Response `json:"responses,omitempty"`
}

// IsLiveness reports whether the frame carries no payload, i.e. it is a
// pure keepalive/acknowledgment frame.
func (m *Message) IsLiveness() bool {
	return len(m.Requests) == 0 && len(m.Responses) == 0
}

// Request is one operation within a message.
type Request struct {
	// Rid is the request id; stream responses reference it.
	Rid int32 `json:"rid"`

	// Method selects the operation.
	Method Method `json:"method"`

	// Path addresses a node for list/set/remove/invoke.
	Path string `json:"path,omitempty"`

	// Paths carries path→sid pairs for subscribe.
	Paths []SubscribePath `json:"paths,omitempty"`

	// Sids lists subscription ids for unsubscribe.
	Sids []int32 `json:"sids,omitempty"`

	// Value is the payload for set.
	Value any `json:"value,omitempty"`

	// Params carries invoke parameters.
	Params map[string]any `json:"params,omitempty"`
}

// Validate checks the request's method-specific required fields.
func (r *Request) Validate() error {
	if !r.Method.IsValid() {
		return fmt.Errorf("invalid method %q", r.Method)
	}
	switch r.Method {
	case MethodSubscribe:
		if len(r.Paths) == 0 {
			return fmt.Errorf("subscribe request without paths")
		}
	case MethodUnsubscribe:
		if len(r.Sids) == 0 {
			return fmt.Errorf("unsubscribe request without sids")
		}
	case MethodList, MethodSet, MethodRemove, MethodInvoke:
		if r.Path == "" {
			return fmt.Errorf("%s request without path", r.Method)
		}
	}
	return nil
}

// SubscribePath pairs a node path with the sid the broker assigned.
type SubscribePath struct {
	Path string `json:"path"`
	Sid  int32  `json:"sid"`
}

// Response is one result within a message. Responses with rid 0 are
// subscription value updates.
type Response struct {
	Rid     int32  `json:"rid"`
	Stream  string `json:"stream,omitempty"`
	Updates []any  `json:"updates,omitempty"`
}
