// Package log provides protocol-level event logging for links.
//
// Application logging in this SDK goes through log/slog; this package is
// for structured protocol traces: handshakes, frames, dispatched
// requests, connection state changes and errors, captured as Event
// records that tooling can replay offline.
//
// Events are encoded as CBOR with integer keys, so a long-running link
// can trace every frame with little overhead. FileLogger appends events
// to a file, Reader streams them back (optionally filtered), SlogAdapter
// mirrors events to an slog.Logger for development, and MultiLogger
// fans out to several sinks at once.
//
// Pass NoopLogger (or nil where a constructor allows it) to disable
// tracing entirely.
package log
