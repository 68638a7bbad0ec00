package link

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/iot-dsa/dslink-go/pkg/connection"
	"github.com/iot-dsa/dslink-go/pkg/handshake"
	dslog "github.com/iot-dsa/dslink-go/pkg/log"
	"github.com/iot-dsa/dslink-go/pkg/transport"
)

// ErrNoRole indicates a link configured as neither requester nor
// responder. There is no sensible default, so construction refuses.
var ErrNoRole = errors.New("link must be a requester, a responder, or both")

// Config configures a link. Zero values are filled in by Validate.
type Config struct {
	// Name is the link name; the durable dsId is derived from it.
	Name string `yaml:"name"`

	// Broker is the broker's handshake endpoint, e.g.
	// "http://localhost:8080/conn". Empty means discover a broker on
	// the local network via mDNS.
	Broker string `yaml:"broker"`

	// Token is an optional broker auth token.
	Token string `yaml:"token"`

	// Requester and Responder declare the link's roles. At least one
	// must be set.
	Requester bool `yaml:"requester"`
	Responder bool `yaml:"responder"`

	// KeepAliveInterval is the time between liveness frames.
	// Default: 30s.
	KeepAliveInterval time.Duration `yaml:"keepAliveInterval"`

	// NodesPath is the persisted tree file. Default: "nodes.json".
	// The backup lives next to it with a ".bak" suffix.
	NodesPath string `yaml:"nodesPath"`

	// KeyPath is the identity keypair file. Default: ".dslink.key".
	KeyPath string `yaml:"keyPath"`

	// NoSave disables tree persistence entirely.
	NoSave bool `yaml:"noSave"`

	// LogLevel is "debug", "info", "warn" or "error". Default: "info".
	LogLevel string `yaml:"logLevel"`

	// EventLogPath, when set, writes protocol trace events to a CBOR
	// log file readable with dslink-log.
	EventLogPath string `yaml:"eventLogPath"`

	// Logger receives application logs. Nil disables logging.
	Logger *slog.Logger `yaml:"-"`

	// Events receives protocol trace events. Nil means EventLogPath
	// decides; with neither set, tracing is off.
	Events dslog.Logger `yaml:"-"`

	// Handshake overrides the built-in handshake (used in tests).
	Handshake handshake.Runner `yaml:"-"`

	// Transport overrides the websocket transport (used in tests).
	Transport transport.Transport `yaml:"-"`

	// Backoff customizes the reconnect ramp (used in tests).
	Backoff connection.BackoffConfig `yaml:"-"`
}

// DefaultConfig returns a configuration with defaults filled in. The
// role flags stay unset; the caller has to pick at least one.
func DefaultConfig() Config {
	return Config{
		Name:              "dslink",
		KeepAliveInterval: connection.DefaultKeepAliveInterval,
		NodesPath:         "nodes.json",
		KeyPath:           ".dslink.key",
		LogLevel:          "info",
	}
}

// LoadConfig reads a YAML configuration file over the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// UnmarshalYAML fills the config from a YAML mapping, leaving defaults
// in place for absent keys. Durations are written as strings like
// "30s"; yaml.v3 has no native time.Duration support.
func (c *Config) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Name              string `yaml:"name"`
		Broker            string `yaml:"broker"`
		Token             string `yaml:"token"`
		Requester         bool   `yaml:"requester"`
		Responder         bool   `yaml:"responder"`
		KeepAliveInterval string `yaml:"keepAliveInterval"`
		NodesPath         string `yaml:"nodesPath"`
		KeyPath           string `yaml:"keyPath"`
		NoSave            bool   `yaml:"noSave"`
		LogLevel          string `yaml:"logLevel"`
		EventLogPath      string `yaml:"eventLogPath"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}

	if raw.Name != "" {
		c.Name = raw.Name
	}
	if raw.Broker != "" {
		c.Broker = raw.Broker
	}
	if raw.Token != "" {
		c.Token = raw.Token
	}
	c.Requester = raw.Requester
	c.Responder = raw.Responder
	c.NoSave = raw.NoSave
	if raw.KeepAliveInterval != "" {
		d, err := time.ParseDuration(raw.KeepAliveInterval)
		if err != nil {
			return fmt.Errorf("keepAliveInterval: %w", err)
		}
		c.KeepAliveInterval = d
	}
	if raw.NodesPath != "" {
		c.NodesPath = raw.NodesPath
	}
	if raw.KeyPath != "" {
		c.KeyPath = raw.KeyPath
	}
	if raw.LogLevel != "" {
		c.LogLevel = raw.LogLevel
	}
	if raw.EventLogPath != "" {
		c.EventLogPath = raw.EventLogPath
	}
	return nil
}

// Validate checks invariants and fills in missing defaults.
func (c *Config) Validate() error {
	if !c.Requester && !c.Responder {
		return ErrNoRole
	}
	if c.Name == "" {
		c.Name = "dslink"
	}
	if c.KeepAliveInterval <= 0 {
		c.KeepAliveInterval = connection.DefaultKeepAliveInterval
	}
	if c.NodesPath == "" {
		c.NodesPath = "nodes.json"
	}
	if c.KeyPath == "" {
		c.KeyPath = ".dslink.key"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// SlogLevel maps the configured log level to a slog.Level.
func (c *Config) SlogLevel() (slog.Level, error) {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", c.LogLevel)
	}
}
