package wire

import (
	"testing"
)

func TestDecodeMessage(t *testing.T) {
	t.Run("LivenessFrame", func(t *testing.T) {
		m, err := DecodeMessage(Liveness())
		if err != nil {
			t.Fatalf("DecodeMessage: %v", err)
		}
		if !m.IsLiveness() {
			t.Error("empty frame not recognized as liveness")
		}
	})

	t.Run("SubscribeRequest", func(t *testing.T) {
		frame := []byte(`{
			"msg": 3,
			"requests": [
				{"rid": 2, "method": "subscribe",
				 "paths": [{"path": "/data", "sid": 0}]}
			]
		}`)
		m, err := DecodeMessage(frame)
		if err != nil {
			t.Fatalf("DecodeMessage: %v", err)
		}
		if len(m.Requests) != 1 {
			t.Fatalf("requests = %d, want 1", len(m.Requests))
		}
		req := m.Requests[0]
		if req.Method != MethodSubscribe {
			t.Errorf("method = %q, want subscribe", req.Method)
		}
		if len(req.Paths) != 1 || req.Paths[0].Path != "/data" || req.Paths[0].Sid != 0 {
			t.Errorf("paths = %v", req.Paths)
		}
	})

	t.Run("InvalidMethodRejected", func(t *testing.T) {
		frame := []byte(`{"requests": [{"rid": 1, "method": "explode"}]}`)
		if _, err := DecodeMessage(frame); err == nil {
			t.Error("unknown method accepted")
		}
	})

	t.Run("MissingRequiredFieldsRejected", func(t *testing.T) {
		cases := map[string]string{
			"SubscribeNoPaths": `{"requests": [{"rid": 1, "method": "subscribe"}]}`,
			"UnsubscribeNoSids": `{"requests": [{"rid": 1, "method": "unsubscribe"}]}`,
			"ListNoPath":        `{"requests": [{"rid": 1, "method": "list"}]}`,
			"SetNoPath":         `{"requests": [{"rid": 1, "method": "set", "value": 1}]}`,
		}
		for name, frame := range cases {
			t.Run(name, func(t *testing.T) {
				if _, err := DecodeMessage([]byte(frame)); err == nil {
					t.Error("invalid request accepted")
				}
			})
		}
	})
}

func TestEncodeMessage(t *testing.T) {
	m := &Message{
		Msg: 7,
		Ack: 6,
		Responses: []Response{
			{Rid: 0, Updates: []any{[]any{int32(1), 42.0, "2020-01-01T00:00:00Z"}}},
			{Rid: 4, Stream: StreamClosed},
		},
	}
	data, err := EncodeMessage(m)
	if err != nil {
		t.Fatalf("EncodeMessage: %v", err)
	}

	back, err := DecodeMessage(data)
	if err != nil {
		t.Fatalf("DecodeMessage: %v", err)
	}
	if back.Msg != 7 || back.Ack != 6 {
		t.Errorf("msg/ack = %d/%d, want 7/6", back.Msg, back.Ack)
	}
	if len(back.Responses) != 2 || back.Responses[1].Stream != StreamClosed {
		t.Errorf("responses = %v", back.Responses)
	}
}
