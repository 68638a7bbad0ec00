package log

// Logger is the interface applications implement to receive protocol log
// events. Pass NoopLogger to disable logging.
type Logger interface {
	// Log records a protocol event. Implementations must be thread-safe
	// and should not block; a slow sink stalls the connection loops.
	Log(event Event)
}

// NoopLogger discards all events. Safe for concurrent use and usable as
// a zero value.
type NoopLogger struct{}

// Log discards the event.
func (NoopLogger) Log(Event) {}

// Compile-time interface satisfaction check.
var _ Logger = NoopLogger{}
