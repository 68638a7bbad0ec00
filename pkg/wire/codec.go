package wire

import (
	"encoding/json"
	"fmt"
)

// Liveness is the empty frame exchanged as a keepalive and minimal
// acknowledgment.
func Liveness() []byte {
	return []byte("{}")
}

// EncodeMessage encodes a message envelope to its JSON frame.
func EncodeMessage(m *Message) ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to encode message: %w", err)
	}
	return data, nil
}

// DecodeMessage decodes a JSON frame into a message envelope and
// validates every request it carries.
func DecodeMessage(data []byte) (*Message, error) {
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to decode message: %w", err)
	}
	for i := range m.Requests {
		if err := m.Requests[i].Validate(); err != nil {
			return nil, fmt.Errorf("invalid request %d: %w", i, err)
		}
	}
	return &m, nil
}
