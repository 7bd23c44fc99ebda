// Kunhua Huang 2026

package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ecstasoy/hellowire/pkg/exchange"
	"github.com/ecstasoy/hellowire/pkg/message"
	"github.com/ecstasoy/hellowire/pkg/transport"
)

type Config struct {
	Listener  ListenerConfig  `yaml:"listener"`
	Connector ConnectorConfig `yaml:"connector"`
	Log       LogConfig       `yaml:"log"`
}

type ListenerConfig struct {
	Address        string   `yaml:"address"`
	Backlog        int      `yaml:"backlog"`
	ReusePort      bool     `yaml:"reuse_port"`
	Variant        string   `yaml:"variant"`  // single-shot/repeat
	Dispatch       string   `yaml:"dispatch"` // sequential/concurrent
	MaxConnections int      `yaml:"max_connections"`
	RateLimit      int64    `yaml:"rate_limit"` // new exchanges per second, 0 disables
	RateBurst      int64    `yaml:"rate_burst"`
	BufferSize     int      `yaml:"buffer_size"`
	ReadTimeout    Duration `yaml:"read_timeout"`
	WriteTimeout   Duration `yaml:"write_timeout"`
	MetricsAddress string   `yaml:"metrics_address"`
}

type ConnectorConfig struct {
	Address      string   `yaml:"address"`
	Message      string   `yaml:"message"`
	TrailingNUL  bool     `yaml:"trailing_nul"`
	Reads        int      `yaml:"reads"`
	BufferSize   int      `yaml:"buffer_size"`
	DialTimeout  Duration `yaml:"dial_timeout"`
	ReadTimeout  Duration `yaml:"read_timeout"`
	WriteTimeout Duration `yaml:"write_timeout"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // console/json
}

type Duration struct{ time.Duration }

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	dd, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = dd
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}

// Default returns the historical fixed endpoints and payloads.
func Default() *Config {
	return &Config{
		Listener: ListenerConfig{
			Address:    ":8080",
			Backlog:    3,
			ReusePort:  true,
			Variant:    exchange.SingleShot.String(),
			Dispatch:   transport.DispatchSequential.String(),
			BufferSize: message.DefaultBufferSize,
		},
		Connector: ConnectorConfig{
			Address:    "127.0.0.1:8080",
			Message:    message.Request,
			Reads:      2,
			BufferSize: message.DefaultBufferSize,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads a YAML file on top of Default, so a file only needs the keys it
// changes.
func Load(path string) (*Config, error) {
	cfg := Default()

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	if c.Listener.Address == "" {
		errs = append(errs, errors.New("listener.address must not be empty"))
	}
	if c.Listener.Backlog < 0 {
		errs = append(errs, fmt.Errorf("listener.backlog must be >= 0, got %d", c.Listener.Backlog))
	}
	if _, err := exchange.ParseVariant(c.Listener.Variant); err != nil {
		errs = append(errs, fmt.Errorf("listener.variant: %w", err))
	}
	if _, err := ParseDispatch(c.Listener.Dispatch); err != nil {
		errs = append(errs, fmt.Errorf("listener.dispatch: %w", err))
	}
	if c.Listener.MaxConnections < 0 {
		errs = append(errs, fmt.Errorf("listener.max_connections must be >= 0, got %d", c.Listener.MaxConnections))
	}
	if c.Listener.RateLimit < 0 || c.Listener.RateBurst < 0 {
		errs = append(errs, errors.New("listener rate limits must be >= 0"))
	}
	if c.Listener.BufferSize <= 0 {
		errs = append(errs, fmt.Errorf("listener.buffer_size must be > 0, got %d", c.Listener.BufferSize))
	}
	if c.Listener.ReadTimeout.Duration < 0 || c.Listener.WriteTimeout.Duration < 0 {
		errs = append(errs, errors.New("listener timeouts must be >= 0"))
	}

	if c.Connector.Address == "" {
		errs = append(errs, errors.New("connector.address must not be empty"))
	}
	if c.Connector.Reads < 0 {
		errs = append(errs, fmt.Errorf("connector.reads must be >= 0, got %d", c.Connector.Reads))
	}
	if c.Connector.BufferSize <= 0 {
		errs = append(errs, fmt.Errorf("connector.buffer_size must be > 0, got %d", c.Connector.BufferSize))
	}
	if c.Connector.DialTimeout.Duration < 0 ||
		c.Connector.ReadTimeout.Duration < 0 ||
		c.Connector.WriteTimeout.Duration < 0 {
		errs = append(errs, errors.New("connector timeouts must be >= 0"))
	}

	switch c.Log.Format {
	case "", "console", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be console or json, got %q", c.Log.Format))
	}

	return errors.Join(errs...)
}

func ParseDispatch(s string) (transport.DispatchMode, error) {
	switch s {
	case "", "sequential":
		return transport.DispatchSequential, nil
	case "concurrent":
		return transport.DispatchConcurrent, nil
	default:
		return 0, fmt.Errorf("unknown dispatch mode %q", s)
	}
}

// ServerOptions maps the listener section onto transport options.
func (l ListenerConfig) ServerOptions() ([]transport.ServerOption, error) {
	mode, err := ParseDispatch(l.Dispatch)
	if err != nil {
		return nil, err
	}

	return []transport.ServerOption{
		transport.WithBacklog(l.Backlog),
		transport.WithReusePort(l.ReusePort),
		transport.WithDispatch(mode),
		transport.WithMaxConnections(l.MaxConnections),
		transport.WithServerTimeout(l.ReadTimeout.Duration, l.WriteTimeout.Duration),
	}, nil
}

// ClientOptions maps the connector section onto transport options.
func (c ConnectorConfig) ClientOptions() []transport.ClientOption {
	return []transport.ClientOption{
		transport.WithDialTimeout(c.DialTimeout.Duration),
		transport.WithReadTimeout(c.ReadTimeout.Duration),
		transport.WithWriteTimeout(c.WriteTimeout.Duration),
		transport.WithBufferSize(c.BufferSize),
	}
}
