// Command selvage loads a Valentina pattern, evaluates every piece and
// reports on it.
package main

import (
	"errors"
	"flag"
	"log/slog"
	"os"

	"github.com/chazu/selvage/pkg/config"
)

func main() {
	cfg, err := config.Load(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		slog.Error("invalid arguments", "error", err)
		os.Exit(2)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	if err := NewApp(cfg, logger).Run(os.Stdout); err != nil {
		logger.Error("selvage failed", "error", err)
		os.Exit(1)
	}
}
