// Command dslink-example is a reference DSA responder link.
//
// It connects to a broker (configured or discovered via mDNS), exposes
// a small demo node tree, persists it across restarts, and optionally
// offers an interactive console for inspecting and mutating the tree
// while connected.
//
// Usage:
//
//	dslink-example [flags]
//
// Flags:
//
//	-config string     Configuration file path (YAML)
//	-name string       Link name, the dsId prefix (default "dslink-example")
//	-broker string     Broker /conn endpoint; empty discovers via mDNS
//	-token string      Broker auth token
//	-nodes string      Persisted tree file (default "nodes.json")
//	-key string        Identity keypair file (default ".dslink.key")
//	-no-save           Disable tree persistence
//	-log-level string  Log level: debug, info, warn, error (default "info")
//	-event-log string  Write protocol trace events to a CBOR log file
//	-interactive       Start the interactive console
//
// Examples:
//
//	# Connect to a local broker
//	dslink-example -broker http://localhost:8080/conn
//
//	# Discover a broker on the LAN and trace the session
//	dslink-example -event-log session.dlog -log-level debug
//
//	# Poke at the tree while connected
//	dslink-example -broker http://localhost:8080/conn -interactive
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iot-dsa/dslink-go/pkg/link"
)

var flags struct {
	configFile  string
	name        string
	broker      string
	token       string
	nodesPath   string
	keyPath     string
	noSave      bool
	logLevel    string
	eventLog    string
	interactive bool
}

func init() {
	flag.StringVar(&flags.configFile, "config", "", "Configuration file path (YAML)")
	flag.StringVar(&flags.name, "name", "dslink-example", "Link name, the dsId prefix")
	flag.StringVar(&flags.broker, "broker", "", "Broker /conn endpoint; empty discovers via mDNS")
	flag.StringVar(&flags.token, "token", "", "Broker auth token")
	flag.StringVar(&flags.nodesPath, "nodes", "nodes.json", "Persisted tree file")
	flag.StringVar(&flags.keyPath, "key", ".dslink.key", "Identity keypair file")
	flag.BoolVar(&flags.noSave, "no-save", false, "Disable tree persistence")
	flag.StringVar(&flags.logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	flag.StringVar(&flags.eventLog, "event-log", "", "Write protocol trace events to a CBOR log file")
	flag.BoolVar(&flags.interactive, "interactive", false, "Start the interactive console")
}

func main() {
	flag.Parse()

	cfg, err := buildConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	level, err := cfg.SlogLevel()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	cfg.Logger = logger

	l, err := link.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create link: %v\n", err)
		os.Exit(1)
	}

	seedDemoNodes(l)

	logger.Info("starting link", "ds_id", l.DsID(), "broker", cfg.Broker)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		l.Run(ctx)
		close(done)
	}()

	if flags.interactive {
		console, err := newConsole(l)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to start console: %v\n", err)
			os.Exit(1)
		}
		console.run(ctx, cancel)
	} else {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig.String())
	}

	cancel()
	<-done
	logger.Info("link stopped")
}

// buildConfig reads the config file if given, then lets explicitly set
// flags override it.
func buildConfig() (link.Config, error) {
	cfg := link.DefaultConfig()
	cfg.Responder = true

	if flags.configFile != "" {
		loaded, err := link.LoadConfig(flags.configFile)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
		cfg.Responder = true
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "name":
			cfg.Name = flags.name
		case "broker":
			cfg.Broker = flags.broker
		case "token":
			cfg.Token = flags.token
		case "nodes":
			cfg.NodesPath = flags.nodesPath
		case "key":
			cfg.KeyPath = flags.keyPath
		case "no-save":
			cfg.NoSave = flags.noSave
		case "log-level":
			cfg.LogLevel = flags.logLevel
		case "event-log":
			cfg.EventLogPath = flags.eventLog
		}
	})

	if cfg.Name == "dslink" {
		cfg.Name = flags.name
	}
	return cfg, nil
}

// seedDemoNodes installs a small demo structure unless a persisted tree
// already provides one.
func seedDemoNodes(l *link.Link) {
	root := l.Tree().Root()
	if root.HasChild("demo") {
		return
	}

	demo, err := root.CreateChild("demo")
	if err != nil {
		return
	}

	temp, err := demo.CreateChild("temperature")
	if err == nil {
		temp.SetType("number")
		temp.SetValue(21.5)
		temp.SetAttribute("@unit", "°C")
	}

	started, err := demo.CreateChild("started")
	if err == nil {
		started.SetType("string")
		started.SetValue(time.Now().Format(time.RFC3339))
		started.SetTransient(true)
	}
}
