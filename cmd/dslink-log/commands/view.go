// Package commands implements the dslink-log CLI commands.
package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/iot-dsa/dslink-go/pkg/log"
)

// ParseLayerFlag parses a layer name from the command line.
func ParseLayerFlag(s string) (log.Layer, error) {
	switch strings.ToLower(s) {
	case "transport":
		return log.LayerTransport, nil
	case "wire":
		return log.LayerWire, nil
	case "link":
		return log.LayerLink, nil
	default:
		return 0, fmt.Errorf("unknown layer %q (transport, wire, link)", s)
	}
}

// ParseDirectionFlag parses a direction name from the command line.
func ParseDirectionFlag(s string) (log.Direction, error) {
	switch strings.ToLower(s) {
	case "in":
		return log.DirectionIn, nil
	case "out":
		return log.DirectionOut, nil
	default:
		return 0, fmt.Errorf("unknown direction %q (in, out)", s)
	}
}

// ParseCategoryFlag parses a category name from the command line.
func ParseCategoryFlag(s string) (log.Category, error) {
	switch strings.ToLower(s) {
	case "message":
		return log.CategoryMessage, nil
	case "control":
		return log.CategoryControl, nil
	case "state":
		return log.CategoryState, nil
	case "error":
		return log.CategoryError, nil
	default:
		return 0, fmt.Errorf("unknown category %q (message, control, state, error)", s)
	}
}

// View writes matching events from a trace file in a human-readable
// line format.
func View(w io.Writer, path string, filter log.Filter) error {
	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return err
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read trace: %w", err)
		}
		formatEvent(w, event)
	}
}

// formatEvent writes one human-readable event line plus detail lines.
func formatEvent(w io.Writer, event log.Event) {
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")
	connID := shortenConnID(event.ConnectionID)

	fmt.Fprintf(w, "%s [conn:%s] %-3s %-9s %s\n",
		ts, connID, event.Direction, event.Layer, typeLabel(event))

	switch {
	case event.Frame != nil:
		fmt.Fprintf(w, "  size=%d", event.Frame.Size)
		if event.Frame.Truncated {
			fmt.Fprint(w, " (truncated)")
		}
		fmt.Fprintln(w)

	case event.Message != nil:
		m := event.Message
		if m.Liveness {
			fmt.Fprintln(w, "  liveness")
			break
		}
		fmt.Fprintf(w, "  msg=%d ack=%d", m.Msg, m.Ack)
		if len(m.Methods) > 0 {
			fmt.Fprintf(w, " methods=%s", strings.Join(m.Methods, ","))
		}
		if len(m.Rids) > 0 {
			fmt.Fprintf(w, " rids=%v", m.Rids)
		}
		fmt.Fprintln(w)

	case event.StateChange != nil:
		sc := event.StateChange
		fmt.Fprintf(w, "  %s -> %s", sc.From, sc.To)
		if sc.Attempt > 0 {
			fmt.Fprintf(w, " attempt=%d delay=%s", sc.Attempt, sc.Delay)
		}
		fmt.Fprintln(w)

	case event.Error != nil:
		fmt.Fprintf(w, "  op=%s: %s\n", event.Error.Op, event.Error.Message)
	}
}

func typeLabel(event log.Event) string {
	switch {
	case event.Frame != nil:
		return "Frame"
	case event.Message != nil:
		return "Message"
	case event.StateChange != nil:
		return "State"
	case event.Error != nil:
		return "Error"
	default:
		return event.Category.String()
	}
}

// shortenConnID trims a UUID to its first segment for readability.
func shortenConnID(id string) string {
	if id == "" {
		return "--------"
	}
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
