package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ecstasoy/hellowire/pkg/transport"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	require.Equal(t, ":8080", cfg.Listener.Address)
	require.Equal(t, 3, cfg.Listener.Backlog)
	require.True(t, cfg.Listener.ReusePort)
	require.Equal(t, "single-shot", cfg.Listener.Variant)
	require.Equal(t, "sequential", cfg.Listener.Dispatch)
	require.Equal(t, 1024, cfg.Listener.BufferSize)

	require.Equal(t, "127.0.0.1:8080", cfg.Connector.Address)
	require.Equal(t, "Hello from client", cfg.Connector.Message)
	require.False(t, cfg.Connector.TrailingNUL)
	require.Equal(t, 2, cfg.Connector.Reads)
	require.Zero(t, cfg.Connector.DialTimeout.Duration)

	require.NoError(t, cfg.Validate())
}

func TestLoad_OverlaysDefaults(t *testing.T) {
	path := writeFile(t, `
listener:
  address: "127.0.0.1:9090"
  variant: repeat
  dispatch: concurrent
  max_connections: 4
  read_timeout: 2s
connector:
  trailing_nul: true
  dial_timeout: 500ms
log:
  format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "127.0.0.1:9090", cfg.Listener.Address)
	require.Equal(t, "repeat", cfg.Listener.Variant)
	require.Equal(t, "concurrent", cfg.Listener.Dispatch)
	require.Equal(t, 4, cfg.Listener.MaxConnections)
	require.Equal(t, 2*time.Second, cfg.Listener.ReadTimeout.Duration)
	// untouched keys keep their defaults
	require.Equal(t, 3, cfg.Listener.Backlog)
	require.Equal(t, "127.0.0.1:8080", cfg.Connector.Address)

	require.True(t, cfg.Connector.TrailingNUL)
	require.Equal(t, 500*time.Millisecond, cfg.Connector.DialTimeout.Duration)
	require.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)

	_, err = Load(writeFile(t, "listener:\n  read_timeout: soon\n"))
	require.ErrorContains(t, err, `invalid duration "soon"`)

	_, err = Load(writeFile(t, "listener:\n  variant: sometimes\n"))
	require.ErrorContains(t, err, "listener.variant")
}

func TestValidate(t *testing.T) {
	tests := map[string]struct {
		mutate func(*Config)
		errMsg string
	}{
		"empty listener address": {
			mutate: func(c *Config) { c.Listener.Address = "" },
			errMsg: "listener.address must not be empty",
		},
		"negative backlog": {
			mutate: func(c *Config) { c.Listener.Backlog = -1 },
			errMsg: "listener.backlog must be >= 0, got -1",
		},
		"bad dispatch": {
			mutate: func(c *Config) { c.Listener.Dispatch = "parallel" },
			errMsg: `listener.dispatch: unknown dispatch mode "parallel"`,
		},
		"negative rate limit": {
			mutate: func(c *Config) { c.Listener.RateLimit = -5 },
			errMsg: "listener rate limits must be >= 0",
		},
		"zero buffer": {
			mutate: func(c *Config) { c.Connector.BufferSize = 0 },
			errMsg: "connector.buffer_size must be > 0, got 0",
		},
		"negative reads": {
			mutate: func(c *Config) { c.Connector.Reads = -2 },
			errMsg: "connector.reads must be >= 0, got -2",
		},
		"negative timeout": {
			mutate: func(c *Config) { c.Connector.ReadTimeout.Duration = -time.Second },
			errMsg: "connector timeouts must be >= 0",
		},
		"bad log format": {
			mutate: func(c *Config) { c.Log.Format = "xml" },
			errMsg: `log.format must be console or json, got "xml"`,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			require.EqualError(t, cfg.Validate(), tt.errMsg)
		})
	}
}

func TestListenerConfig_ServerOptions(t *testing.T) {
	cfg := Default().Listener
	cfg.Dispatch = "concurrent"
	cfg.Backlog = 7
	cfg.MaxConnections = 2
	cfg.WriteTimeout.Duration = time.Second

	options, err := cfg.ServerOptions()
	require.NoError(t, err)

	opts := transport.DefaultServerOptions()
	for _, o := range options {
		o(opts)
	}

	require.Equal(t, 7, opts.Backlog)
	require.Equal(t, transport.DispatchConcurrent, opts.Dispatch)
	require.Equal(t, 2, opts.MaxConnections)
	require.Equal(t, time.Second, opts.WriteTimeout)
	require.Zero(t, opts.ReadTimeout)

	cfg.Dispatch = "parallel"
	_, err = cfg.ServerOptions()
	require.Error(t, err)
}

func TestConnectorConfig_ClientOptions(t *testing.T) {
	cfg := Default().Connector
	cfg.DialTimeout.Duration = time.Second
	cfg.BufferSize = 64

	opts := transport.DefaultClientOptions()
	for _, o := range cfg.ClientOptions() {
		o(opts)
	}

	require.Equal(t, time.Second, opts.DialTimeout)
	require.Equal(t, 64, opts.ReadBufferSize)
	require.Zero(t, opts.ReadTimeout)
}

func writeFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "hellowire.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}
