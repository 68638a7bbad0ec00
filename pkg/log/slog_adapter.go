package log

import (
	"context"
	"log/slog"
)

// SlogAdapter mirrors protocol events to an slog.Logger at debug level.
// Useful in development to watch frames alongside application logs.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates an adapter writing to the given slog.Logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event to the slog logger.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("conn_id", event.ConnectionID),
		slog.String("direction", event.Direction.String()),
		slog.String("layer", event.Layer.String()),
		slog.String("category", event.Category.String()),
	}

	if event.DsID != "" {
		attrs = append(attrs, slog.String("ds_id", event.DsID))
	}
	if event.BrokerURI != "" {
		attrs = append(attrs, slog.String("broker", event.BrokerURI))
	}

	switch {
	case event.Frame != nil:
		attrs = append(attrs,
			slog.Int("frame_size", event.Frame.Size),
			slog.Bool("truncated", event.Frame.Truncated),
		)
	case event.Message != nil:
		attrs = append(attrs,
			slog.Int("msg", int(event.Message.Msg)),
			slog.Int("ack", int(event.Message.Ack)),
			slog.Bool("liveness", event.Message.Liveness),
		)
		if len(event.Message.Methods) > 0 {
			attrs = append(attrs, slog.Any("methods", event.Message.Methods))
		}
	case event.StateChange != nil:
		attrs = append(attrs,
			slog.String("from", event.StateChange.From),
			slog.String("to", event.StateChange.To),
		)
		if event.StateChange.Attempt > 0 {
			attrs = append(attrs,
				slog.Int("attempt", event.StateChange.Attempt),
				slog.Duration("delay", event.StateChange.Delay),
			)
		}
	case event.Error != nil:
		attrs = append(attrs,
			slog.String("op", event.Error.Op),
			slog.String("err", event.Error.Message),
		)
	}

	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "protocol event", attrs...)
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)
