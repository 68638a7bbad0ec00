package connection

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestKeepAliveSendsFrames(t *testing.T) {
	var sends atomic.Int64
	ka := NewKeepAlive(5*time.Millisecond, func() error {
		sends.Add(1)
		return nil
	}, nil)

	ka.Start(context.Background())
	defer ka.Stop()

	// The initial frame goes out synchronously.
	if got := sends.Load(); got < 1 {
		t.Fatalf("sends after Start = %d, want at least 1", got)
	}

	deadline := time.After(1 * time.Second)
	for sends.Load() < 3 {
		select {
		case <-deadline:
			t.Fatalf("only %d frames sent within deadline", sends.Load())
		case <-time.After(time.Millisecond):
		}
	}
}

func TestKeepAliveStopIsSynchronous(t *testing.T) {
	var sends atomic.Int64
	ka := NewKeepAlive(time.Millisecond, func() error {
		sends.Add(1)
		return nil
	}, nil)

	ka.Start(context.Background())
	time.Sleep(10 * time.Millisecond)
	ka.Stop()

	if ka.IsRunning() {
		t.Error("IsRunning() = true after Stop")
	}

	// No new frame may be scheduled once Stop has returned.
	after := sends.Load()
	time.Sleep(20 * time.Millisecond)
	if got := sends.Load(); got != after {
		t.Errorf("sends grew from %d to %d after Stop", after, got)
	}
}

func TestKeepAliveStopBeforeStartSuppressesIt(t *testing.T) {
	var sends atomic.Int64
	ka := NewKeepAlive(time.Millisecond, func() error {
		sends.Add(1)
		return nil
	}, nil)

	ka.Stop()
	ka.Start(context.Background())

	if ka.IsRunning() {
		t.Error("IsRunning() = true after a pre-start Stop")
	}
	time.Sleep(10 * time.Millisecond)
	if got := sends.Load(); got != 0 {
		t.Errorf("sends = %d after a suppressed start, want 0", got)
	}
}

func TestKeepAliveStopIdempotent(t *testing.T) {
	ka := NewKeepAlive(time.Millisecond, func() error { return nil }, nil)
	ka.Start(context.Background())
	ka.Stop()
	ka.Stop()
}

func TestKeepAliveContextCancelStopsLoop(t *testing.T) {
	var sends atomic.Int64
	ctx, cancel := context.WithCancel(context.Background())
	ka := NewKeepAlive(time.Millisecond, func() error {
		sends.Add(1)
		return nil
	}, nil)

	ka.Start(ctx)
	cancel()
	time.Sleep(10 * time.Millisecond)

	after := sends.Load()
	time.Sleep(20 * time.Millisecond)
	if got := sends.Load(); got != after {
		t.Errorf("sends grew from %d to %d after context cancel", after, got)
	}
}

func TestKeepAliveSendFailureKeepsTicking(t *testing.T) {
	var sends atomic.Int64
	ka := NewKeepAlive(time.Millisecond, func() error {
		sends.Add(1)
		return context.DeadlineExceeded
	}, nil)

	ka.Start(context.Background())
	defer ka.Stop()

	deadline := time.After(1 * time.Second)
	for sends.Load() < 3 {
		select {
		case <-deadline:
			t.Fatalf("only %d sends within deadline, task stopped on error", sends.Load())
		case <-time.After(time.Millisecond):
		}
	}
}
