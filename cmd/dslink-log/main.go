// Command dslink-log is a tool for viewing and analyzing DSA protocol
// trace files.
//
// Trace files are created by links configured with an event log path
// (the -event-log flag of dslink-example, or link.Config.EventLogPath).
//
// Usage:
//
//	dslink-log <command> [flags] <file.dlog>
//
// Commands:
//
//	view     View a trace file in human-readable format
//	export   Export a trace file to JSONL
//	stats    Show statistics about a trace file
//
// Examples:
//
//	# View all events
//	dslink-log view session.dlog
//
//	# View only state changes
//	dslink-log view -category state session.dlog
//
//	# View only inbound transport frames
//	dslink-log view -direction in -layer transport session.dlog
//
//	# Export to JSONL for further processing
//	dslink-log export session.dlog > session.jsonl
//
//	# Show statistics
//	dslink-log stats session.dlog
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/iot-dsa/dslink-go/cmd/dslink-log/commands"
	dslog "github.com/iot-dsa/dslink-go/pkg/log"
)

const usage = `dslink-log - DSA protocol trace analyzer

Usage:
  dslink-log <command> [flags] <file.dlog>

Commands:
  view     View a trace file in human-readable format
  export   Export a trace file to JSONL
  stats    Show statistics about a trace file

Use "dslink-log <command> -help" for more information about a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "view":
		runView(args)
	case "export":
		runExport(args)
	case "stats":
		runStats(args)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

// parseFilter turns the shared filter flags into a log filter.
func parseFilter(layer, direction, category, connID string) (dslog.Filter, error) {
	var filter dslog.Filter
	filter.ConnectionID = connID

	if layer != "" {
		l, err := commands.ParseLayerFlag(layer)
		if err != nil {
			return filter, err
		}
		filter.Layer = &l
	}
	if direction != "" {
		d, err := commands.ParseDirectionFlag(direction)
		if err != nil {
			return filter, err
		}
		filter.Direction = &d
	}
	if category != "" {
		c, err := commands.ParseCategoryFlag(category)
		if err != nil {
			return filter, err
		}
		filter.Category = &c
	}
	return filter, nil
}

func filterFlags(fs *flag.FlagSet) (layer, direction, category, connID *string) {
	layer = fs.String("layer", "", "Filter by layer (transport, wire, link)")
	direction = fs.String("direction", "", "Filter by direction (in, out)")
	category = fs.String("category", "", "Filter by category (message, control, state, error)")
	connID = fs.String("conn-id", "", "Filter by connection id")
	return
}

func logPath(fs *flag.FlagSet) string {
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: trace file path required")
		fs.Usage()
		os.Exit(1)
	}
	return fs.Arg(0)
}

func runView(args []string) {
	fs := flag.NewFlagSet("view", flag.ExitOnError)
	layer, direction, category, connID := filterFlags(fs)
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	filter, err := parseFilter(*layer, *direction, *category, *connID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := commands.View(os.Stdout, logPath(fs), filter); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runExport(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	layer, direction, category, connID := filterFlags(fs)
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	filter, err := parseFilter(*layer, *direction, *category, *connID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := commands.Export(os.Stdout, logPath(fs), filter); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runStats(args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if err := commands.Stats(os.Stdout, logPath(fs)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
