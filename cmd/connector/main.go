// Kunhua Huang 2026

// Command connector performs one request/response exchange with the listener
// and prints the replies.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/ecstasoy/hellowire/pkg/config"
	"github.com/ecstasoy/hellowire/pkg/connector"
	"github.com/ecstasoy/hellowire/pkg/logging"
)

func main() {
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:   "connector",
		Usage:  "send the request to the listener and print what comes back",
		Writer: out,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "path to a YAML config file"},
			&cli.StringFlag{Name: "address", Usage: "listener address (default \"127.0.0.1:8080\")"},
			&cli.StringFlag{Name: "message", Usage: "request payload"},
			&cli.BoolFlag{Name: "trailing-nul", Usage: "append a zero byte to the request"},
			&cli.IntFlag{Name: "reads", Usage: "number of reads after sending (default 2)"},
			&cli.DurationFlag{Name: "dial-timeout", Usage: "connect timeout, 0 for none"},
			&cli.DurationFlag{Name: "read-timeout", Usage: "per-read timeout, 0 for none"},
			&cli.StringFlag{Name: "log-level", Usage: "trace, debug, info, warn or error"},
			&cli.StringFlag{Name: "log-format", Usage: "console or json"},
		},
		Action: run,
	}
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg := config.Default()

	if path := c.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if c.IsSet("address") {
		cfg.Connector.Address = c.String("address")
	}
	if c.IsSet("message") {
		cfg.Connector.Message = c.String("message")
	}
	if c.IsSet("trailing-nul") {
		cfg.Connector.TrailingNUL = c.Bool("trailing-nul")
	}
	if c.IsSet("reads") {
		cfg.Connector.Reads = c.Int("reads")
	}
	if c.IsSet("dial-timeout") {
		cfg.Connector.DialTimeout.Duration = c.Duration("dial-timeout")
	}
	if c.IsSet("read-timeout") {
		cfg.Connector.ReadTimeout.Duration = c.Duration("read-timeout")
	}
	if c.IsSet("log-level") {
		cfg.Log.Level = c.String("log-level")
	}
	if c.IsSet("log-format") {
		cfg.Log.Format = c.String("log-format")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	if err := logging.Setup(cfg.Log.Level, cfg.Log.Format, c.App.ErrWriter); err != nil {
		return err
	}

	conn := connector.New(cfg.Connector, c.App.Writer)
	conn.SetLogger(logging.Logger)

	_, err = conn.Run(c.Context)
	return err
}
