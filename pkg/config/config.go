// Package config loads the command line configuration. Values come from
// flags, with environment variables (optionally from a .env file) as
// defaults.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

const (
	EnvLogLevel        = "SELVAGE_LOG_LEVEL"
	EnvMeasurementsDir = "SELVAGE_MEASUREMENTS_DIR"
)

// ErrUsage is returned when the arguments cannot be used.
var ErrUsage = errors.New("usage error")

type Config struct {
	// Input is the .val pattern to load.
	Input string
	// Output, when set, is where the loaded pattern is written back.
	Output string

	MeasurementDirs []string
	LogLevel        slog.Level
	Validate        bool
	JSON            bool
}

// Load parses args (without the program name). Diagnostics for bad flags
// are written to stderr.
func Load(args []string, stderr io.Writer) (*Config, error) {
	_ = godotenv.Load()

	fs := flag.NewFlagSet("selvage", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: selvage [flags] pattern.val")
		fs.PrintDefaults()
	}

	cfg := &Config{}
	var dirs, level string
	fs.StringVar(&cfg.Output, "o", "", "write the pattern back to this file")
	fs.StringVar(&dirs, "measurements-dir", os.Getenv(EnvMeasurementsDir), "extra directories searched for measurement files, separated by "+string(os.PathListSeparator))
	fs.StringVar(&level, "log-level", firstNonEmpty(os.Getenv(EnvLogLevel), "info"), "log level: debug, info, warn or error")
	fs.BoolVar(&cfg.Validate, "validate", false, "report structural and geometric problems")
	fs.BoolVar(&cfg.JSON, "json", false, "print the summary as JSON")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUsage, err)
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return nil, fmt.Errorf("%w: expected one pattern file, got %d arguments", ErrUsage, fs.NArg())
	}
	cfg.Input = fs.Arg(0)

	if err := cfg.LogLevel.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		return nil, fmt.Errorf("%w: -log-level: %w", ErrUsage, err)
	}
	for _, d := range filepath.SplitList(dirs) {
		if d = strings.TrimSpace(d); d != "" {
			cfg.MeasurementDirs = append(cfg.MeasurementDirs, d)
		}
	}
	return cfg, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
