package connection

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultKeepAliveInterval is the default time between liveness frames.
const DefaultKeepAliveInterval = 30 * time.Second

// KeepAlive periodically sends a liveness frame until stopped. It is a
// one-shot cooperative task: Stop is synchronous and final, so once it
// returns no further frame is sent, and a Stop observed before Start
// suppresses the start entirely.
//
// A send failure is not an error condition here. Writing to a dead
// transport is the normal trigger for the transport's close path, which
// the connection manager handles; the scheduler just keeps ticking
// until it is stopped.
type KeepAlive struct {
	interval time.Duration
	send     func() error
	logger   *slog.Logger

	// mu serializes sends against Stop, which is what makes
	// cancellation synchronous.
	mu      sync.Mutex
	running bool
	stopped bool
	stopCh  chan struct{}
}

// NewKeepAlive creates a keepalive task invoking send every interval.
// A nil logger disables logging.
func NewKeepAlive(interval time.Duration, send func() error, logger *slog.Logger) *KeepAlive {
	if interval <= 0 {
		interval = DefaultKeepAliveInterval
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &KeepAlive{
		interval: interval,
		send:     send,
		logger:   logger,
	}
}

// Start begins the repeating task. An initial frame is sent immediately.
// Starting an already started or already stopped task is a no-op.
func (ka *KeepAlive) Start(ctx context.Context) {
	ka.mu.Lock()
	if ka.running || ka.stopped {
		ka.mu.Unlock()
		return
	}
	ka.running = true
	ka.stopCh = make(chan struct{})
	stopCh := ka.stopCh
	ka.mu.Unlock()

	ka.sendFrame()
	go ka.loop(ctx, stopCh)
}

// Stop cancels the task. After Stop returns, no new frame is sent; an
// in-flight send may still complete.
func (ka *KeepAlive) Stop() {
	ka.mu.Lock()
	defer ka.mu.Unlock()

	ka.stopped = true
	if !ka.running {
		return
	}
	ka.running = false
	close(ka.stopCh)
}

// IsRunning reports whether the task is active.
func (ka *KeepAlive) IsRunning() bool {
	ka.mu.Lock()
	defer ka.mu.Unlock()
	return ka.running
}

func (ka *KeepAlive) loop(ctx context.Context, stopCh <-chan struct{}) {
	ticker := time.NewTicker(ka.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case <-ticker.C:
			ka.sendFrame()
		}
	}
}

// sendFrame sends one liveness frame unless the task has been stopped.
func (ka *KeepAlive) sendFrame() {
	ka.mu.Lock()
	defer ka.mu.Unlock()

	if !ka.running {
		return
	}
	ka.logger.Debug("sending liveness frame")
	if err := ka.send(); err != nil {
		ka.logger.Debug("liveness send failed", "err", err)
	}
}
