package connection

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iot-dsa/dslink-go/pkg/handshake"
	dslog "github.com/iot-dsa/dslink-go/pkg/log"
	"github.com/iot-dsa/dslink-go/pkg/transport"
	"github.com/iot-dsa/dslink-go/pkg/wire"
)

// State represents the connection lifecycle state.
type State uint8

const (
	// StateIdle indicates the manager has not started.
	StateIdle State = iota

	// StateHandshaking indicates a broker handshake is in progress.
	StateHandshaking

	// StateConnectingTransport indicates the websocket dial is in
	// progress.
	StateConnectingTransport

	// StateConnected indicates an active session.
	StateConnected

	// StateClosed indicates the manager has shut down.
	StateClosed
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateHandshaking:
		return "HANDSHAKING"
	case StateConnectingTransport:
		return "CONNECTING_TRANSPORT"
	case StateConnected:
		return "CONNECTED"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// Config configures a connection manager.
type Config struct {
	// Handshake performs the broker handshake on every (re)connect.
	Handshake handshake.Runner

	// Transport is the full-duplex connection the manager exclusively
	// owns.
	Transport transport.Transport

	// KeepAliveInterval is the time between liveness frames.
	// Defaults to 30 seconds.
	KeepAliveInterval time.Duration

	// Backoff customizes the retry ramp (tests use millisecond steps).
	Backoff BackoffConfig

	// Logger receives application logs. Nil disables logging.
	Logger *slog.Logger

	// Events receives protocol trace events. Nil disables tracing.
	Events dslog.Logger
}

// Manager owns the handshake → transport → keepalive lifecycle. Run
// keeps the link connected until the context is canceled; connectivity
// failures are never surfaced to the caller.
type Manager struct {
	handshake handshake.Runner
	transport transport.Transport
	backoff   *Backoff
	interval  time.Duration
	logger    *slog.Logger
	events    dslog.Logger

	mu        sync.Mutex
	state     State
	keepAlive *KeepAlive
	connID    string

	// connClosed records that the current transport connection has
	// already dropped. A close can arrive between a successful dial
	// and the session setup; the flag keeps that setup from starting
	// a keepalive nothing would ever stop.
	connClosed bool

	// closeCh receives transport-loss notifications.
	closeCh chan struct{}

	// Callbacks.
	onMessage     func(payload []byte)
	onConnected   func(res *handshake.Result)
	onStateChange func(old, new State)
}

// NewManager creates a connection manager.
func NewManager(config Config) *Manager {
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	var events dslog.Logger = config.Events
	if events == nil {
		events = dslog.NoopLogger{}
	}
	return &Manager{
		handshake: config.Handshake,
		transport: config.Transport,
		backoff:   NewBackoffWithConfig(config.Backoff),
		interval:  config.KeepAliveInterval,
		logger:    logger,
		events:    events,
		state:     StateIdle,
		closeCh:   make(chan struct{}, 1),
	}
}

// OnMessage sets the inbound frame dispatcher. Without one, the manager
// answers every inbound frame with a liveness acknowledgment.
func (m *Manager) OnMessage(fn func(payload []byte)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onMessage = fn
}

// OnConnected sets a callback invoked after each successful connect.
func (m *Manager) OnConnected(fn func(res *handshake.Result)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onConnected = fn
}

// OnStateChange sets a callback for state transitions.
func (m *Manager) OnStateChange(fn func(old, new State)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onStateChange = fn
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Attempts returns the connect attempts since the last success.
func (m *Manager) Attempts() int {
	return m.backoff.Attempts()
}

// Send writes one frame to the broker.
func (m *Manager) Send(payload []byte) error {
	return m.transport.Send(payload)
}

// Run connects and keeps the link connected until ctx is canceled.
// It never returns a connectivity error: handshake and dial failures
// are logged and retried with linear backoff, and every transport loss
// re-runs the full handshake (session tokens are single-use).
func (m *Manager) Run(ctx context.Context) {
	m.transport.OnMessage(m.handleMessage)
	m.transport.OnClose(m.handleClose)

	for {
		if !m.connect(ctx) {
			break
		}

		select {
		case <-ctx.Done():
			m.teardown()
			return
		case <-m.closeCh:
			m.logger.Info("disconnected")
			// Keepalive was stopped in handleClose; re-handshake.
		}
	}

	m.teardown()
}

// connect retries until a session is established or ctx is canceled.
// Returns false only on cancellation.
func (m *Manager) connect(ctx context.Context) bool {
	for {
		if ctx.Err() != nil {
			return false
		}

		// The new delay applies if this attempt fails.
		delay := m.backoff.Next()

		m.setState(StateHandshaking)
		res, err := m.handshake.Run(ctx)
		if err == nil {
			m.setState(StateConnectingTransport)
			m.mu.Lock()
			m.connClosed = false
			m.mu.Unlock()
			if err = m.transport.Connect(ctx, res.WsURL); err == nil {
				m.established(ctx, res)
				return true
			}
			m.emitError("dial", err)
		} else {
			m.emitError("handshake", err)
		}

		if ctx.Err() != nil {
			return false
		}
		m.logger.Warn("failed to connect, attempting reconnect",
			"delay", delay, "attempt", m.backoff.Attempts(), "err", err)

		select {
		case <-ctx.Done():
			return false
		case <-time.After(delay):
		}
	}
}

// established transitions to Connected: keepalive starts and the ramp
// resets only now, on confirmed success.
func (m *Manager) established(ctx context.Context, res *handshake.Result) {
	ka := NewKeepAlive(m.interval, func() error {
		return m.transport.Send(wire.Liveness())
	}, m.logger)

	m.mu.Lock()
	if m.connClosed {
		// The transport dropped before the session finished starting.
		// The close signal is already queued, so hand straight back to
		// the reconnect loop with no keepalive to orphan.
		m.mu.Unlock()
		m.logger.Info("connection lost during session setup")
		return
	}
	m.keepAlive = ka
	m.connID = uuid.NewString()
	m.mu.Unlock()

	m.setState(StateConnected)
	ka.Start(ctx)
	m.backoff.Reset()

	m.logger.Info("connected", "ds_id", res.DsID)

	m.mu.Lock()
	onConnected := m.onConnected
	m.mu.Unlock()
	if onConnected != nil {
		onConnected(res)
	}
}

// handleClose runs on transport loss. The keepalive task is stopped
// before the reconnect sequence is signaled, so no liveness frame can
// be scheduled onto the dead socket during the retry window.
func (m *Manager) handleClose() {
	m.mu.Lock()
	m.connClosed = true
	ka := m.keepAlive
	m.keepAlive = nil
	m.mu.Unlock()

	if ka != nil {
		ka.Stop()
	}

	select {
	case m.closeCh <- struct{}{}:
	default:
		// A reconnect is already pending.
	}
}

// handleMessage routes an inbound frame to the dispatcher. The default
// behavior, with no dispatcher attached, is to acknowledge with a
// liveness frame.
func (m *Manager) handleMessage(payload []byte) {
	m.mu.Lock()
	onMessage := m.onMessage
	connID := m.connID
	m.mu.Unlock()

	m.events.Log(dslog.Event{
		Timestamp:    time.Now(),
		ConnectionID: connID,
		Direction:    dslog.DirectionIn,
		Layer:        dslog.LayerTransport,
		Category:     dslog.CategoryMessage,
		Frame:        &dslog.FrameEvent{Size: len(payload)},
	})

	if onMessage != nil {
		onMessage(payload)
		return
	}
	if err := m.transport.Send(wire.Liveness()); err != nil {
		m.logger.Debug("liveness ack failed", "err", err)
	}
}

// teardown stops the keepalive task and discards the socket.
func (m *Manager) teardown() {
	m.mu.Lock()
	ka := m.keepAlive
	m.keepAlive = nil
	m.mu.Unlock()

	if ka != nil {
		ka.Stop()
	}
	m.transport.Reset()
	m.setState(StateClosed)
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	old := m.state
	m.state = s
	connID := m.connID
	onStateChange := m.onStateChange
	m.mu.Unlock()

	if old == s {
		return
	}

	m.events.Log(dslog.Event{
		Timestamp:    time.Now(),
		ConnectionID: connID,
		Direction:    dslog.DirectionOut,
		Layer:        dslog.LayerLink,
		Category:     dslog.CategoryState,
		StateChange:  &dslog.StateChangeEvent{From: old.String(), To: s.String(), Attempt: m.backoff.Attempts()},
	})

	if onStateChange != nil {
		onStateChange(old, s)
	}
}

func (m *Manager) emitError(op string, err error) {
	m.mu.Lock()
	connID := m.connID
	m.mu.Unlock()

	m.events.Log(dslog.Event{
		Timestamp:    time.Now(),
		ConnectionID: connID,
		Direction:    dslog.DirectionOut,
		Layer:        dslog.LayerLink,
		Category:     dslog.CategoryError,
		Error:        &dslog.ErrorEventData{Op: op, Message: err.Error()},
	})
}
