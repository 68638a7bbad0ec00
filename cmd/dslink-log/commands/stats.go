package commands

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/iot-dsa/dslink-go/pkg/log"
)

// statsAccumulator tallies a trace file.
type statsAccumulator struct {
	total       int
	inbound     int
	outbound    int
	byLayer     map[string]int
	byCategory  map[string]int
	connections map[string]struct{}
	reconnects  int
	errors      int
	first       time.Time
	last        time.Time
}

func newStatsAccumulator() *statsAccumulator {
	return &statsAccumulator{
		byLayer:     make(map[string]int),
		byCategory:  make(map[string]int),
		connections: make(map[string]struct{}),
	}
}

func (s *statsAccumulator) add(event log.Event) {
	s.total++
	if event.Direction == log.DirectionIn {
		s.inbound++
	} else {
		s.outbound++
	}
	s.byLayer[event.Layer.String()]++
	s.byCategory[event.Category.String()]++
	if event.ConnectionID != "" {
		s.connections[event.ConnectionID] = struct{}{}
	}
	if sc := event.StateChange; sc != nil && sc.To == "HANDSHAKING" && sc.Attempt > 1 {
		s.reconnects++
	}
	if event.Error != nil {
		s.errors++
	}
	if s.first.IsZero() || event.Timestamp.Before(s.first) {
		s.first = event.Timestamp
	}
	if event.Timestamp.After(s.last) {
		s.last = event.Timestamp
	}
}

// Stats reads a whole trace file and prints summary counts.
func Stats(w io.Writer, path string) error {
	reader, err := log.NewReader(path)
	if err != nil {
		return err
	}
	defer reader.Close()

	acc := newStatsAccumulator()
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("read trace: %w", err)
		}
		acc.add(event)
	}

	fmt.Fprintf(w, "Events:      %d (%d in, %d out)\n", acc.total, acc.inbound, acc.outbound)
	if acc.total > 0 {
		fmt.Fprintf(w, "Time span:   %s to %s (%s)\n",
			acc.first.UTC().Format(time.RFC3339),
			acc.last.UTC().Format(time.RFC3339),
			acc.last.Sub(acc.first).Round(time.Millisecond))
	}
	fmt.Fprintf(w, "Connections: %d\n", len(acc.connections))
	fmt.Fprintf(w, "Reconnects:  %d\n", acc.reconnects)
	fmt.Fprintf(w, "Errors:      %d\n", acc.errors)

	fmt.Fprintln(w, "By layer:")
	printCounts(w, acc.byLayer)
	fmt.Fprintln(w, "By category:")
	printCounts(w, acc.byCategory)
	return nil
}

func printCounts(w io.Writer, counts map[string]int) {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "  %-10s %d\n", k, counts[k])
	}
}
