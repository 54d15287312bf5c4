// Package cli is the agent command line: create, resolve and serve.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/jessevdk/go-flags"

	"github.com/y-pakorn/friendwithbets/internal/app"
	"github.com/y-pakorn/friendwithbets/internal/config"
	"github.com/y-pakorn/friendwithbets/pkg/logger"
)

var (
	stdin  io.Reader = os.Stdin
	stdout io.Writer = os.Stdout

	// loadApp is replaced in tests.
	loadApp = func() (*app.App, error) {
		cfg, err := config.Load()
		if err != nil {
			return nil, err
		}
		if err := logger.NewGlobal(cfg.App.LogLevel, cfg.App.LogPretty); err != nil {
			return nil, fmt.Errorf("logger: %w", err)
		}
		return app.New(cfg)
	}
)

// Run parses args and executes the selected command.
func Run(args []string) error {
	opts := &Options{}
	var first string
	if len(args) > 0 {
		first = args[0]
	}
	opts.Init(first)

	parser := flags.NewParser(opts, flags.HelpFlag|flags.PassDoubleDash)
	_, err := parser.ParseArgs(args)
	return err
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
