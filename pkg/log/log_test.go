package log

import (
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
)

func sampleEvent(connID string, dir Direction) Event {
	return Event{
		Timestamp:    time.Now(),
		ConnectionID: connID,
		Direction:    dir,
		Layer:        LayerWire,
		Category:     CategoryMessage,
		DsID:         "example-link-abc",
		Message: &MessageEvent{
			Msg:     3,
			Ack:     2,
			Methods: []string{"subscribe"},
			Rids:    []int32{1},
		},
	}
}

func TestEventCodec(t *testing.T) {
	ev := sampleEvent(uuid.NewString(), DirectionIn)

	data, err := EncodeEvent(ev)
	if err != nil {
		t.Fatalf("EncodeEvent: %v", err)
	}
	back, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("DecodeEvent: %v", err)
	}

	if back.ConnectionID != ev.ConnectionID {
		t.Errorf("conn id = %q, want %q", back.ConnectionID, ev.ConnectionID)
	}
	if back.Message == nil || back.Message.Msg != 3 {
		t.Errorf("message payload = %+v", back.Message)
	}
	if len(back.Message.Methods) != 1 || back.Message.Methods[0] != "subscribe" {
		t.Errorf("methods = %v", back.Message.Methods)
	}
}

func TestFileLoggerRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "protocol.log")

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger: %v", err)
	}

	connA := uuid.NewString()
	connB := uuid.NewString()
	logger.Log(sampleEvent(connA, DirectionIn))
	logger.Log(sampleEvent(connB, DirectionOut))
	logger.Log(sampleEvent(connA, DirectionOut))
	if err := logger.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Log after close is ignored.
	logger.Log(sampleEvent(connA, DirectionIn))

	t.Run("ReadAll", func(t *testing.T) {
		r, err := NewReader(path)
		if err != nil {
			t.Fatalf("NewReader: %v", err)
		}
		defer r.Close()

		count := 0
		for {
			_, err := r.Next()
			if err == io.EOF {
				break
			}
			if err != nil {
				t.Fatalf("Next: %v", err)
			}
			count++
		}
		if count != 3 {
			t.Errorf("read %d events, want 3", count)
		}
	})

	t.Run("Filtered", func(t *testing.T) {
		dir := DirectionOut
		r, err := NewFilteredReader(path, Filter{ConnectionID: connA, Direction: &dir})
		if err != nil {
			t.Fatalf("NewFilteredReader: %v", err)
		}
		defer r.Close()

		ev, err := r.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if ev.ConnectionID != connA || ev.Direction != DirectionOut {
			t.Errorf("filtered event = %+v", ev)
		}
		if _, err := r.Next(); err != io.EOF {
			t.Errorf("expected EOF, got %v", err)
		}
	})
}

func TestMultiLogger(t *testing.T) {
	var a, b []Event
	ml := NewMultiLogger(
		loggerFunc(func(e Event) { a = append(a, e) }),
		loggerFunc(func(e Event) { b = append(b, e) }),
	)
	ml.Log(sampleEvent(uuid.NewString(), DirectionIn))

	if len(a) != 1 || len(b) != 1 {
		t.Errorf("fan-out counts = %d/%d, want 1/1", len(a), len(b))
	}
}

// loggerFunc adapts a func to the Logger interface for tests.
type loggerFunc func(Event)

func (f loggerFunc) Log(e Event) { f(e) }
