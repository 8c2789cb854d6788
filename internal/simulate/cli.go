package simulate

import (
	"fmt"
	"io"
	"os"

	"github.com/okian/podium/pkg/logger"
)

const logFilePermission = 0600

// SetupLogging configures logging to stdout and, when logFile is set, to
// that file as well. It returns a function closing the file.
func SetupLogging(logFile string, verbose bool) (func() error, error) {
	level := "info"
	if verbose {
		level = "debug"
	}
	if logFile == "" {
		if err := logger.InitWith(logger.Options{Format: logger.FormatText, Output: os.Stdout, Level: level}); err != nil {
			return nil, fmt.Errorf("failed to initialize logger: %w", err)
		}
		return func() error { return nil }, nil
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}
	out := io.MultiWriter(os.Stdout, file)
	if err := logger.InitWith(logger.Options{Format: logger.FormatText, Output: out, Level: level}); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return file.Close, nil
}

// ShowHelp prints usage information for the simulator.
func ShowHelp() {
	_, _ = os.Stdout.WriteString(`Podium Judging Simulator
========================

Drives a running podium service through a synthetic judging session and
verifies the rankings it serves.

Usage:
  go run ./cmd/simulate [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -fixture string
        Competition fixture used as the template (default "internal/fixture/testdata/pageant.yaml")
  -contestants int
        Extra generated contestants (default 50)
  -workers int
        Number of concurrent submitters (default CPU cores * 2)
  -rate float
        Score submissions per second, 0 for unlimited (default 0)
  -seed uint
        Seed for generated score values (default 1)
  -timeout duration
        HTTP request timeout (default 30s)
  -output string
        Output file for submitted scores
  -log string
        Log file for simulator output
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Simulate against a local service
  go run ./cmd/simulate

  # Larger field under a rate limit
  go run ./cmd/simulate -contestants 500 -rate 200 -workers 16
`)
}
