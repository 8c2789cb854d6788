package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/podium/internal/simulate"
	"github.com/okian/podium/pkg/logger"
)

// Default configuration constants.
const (
	defaultFixture     = "internal/fixture/testdata/pageant.yaml"
	defaultContestants = 50
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultTimeout     = 30 * time.Second
	defaultRunTimeout  = 10 * time.Minute
)

func main() {
	var (
		baseURL     = flag.String("url", "http://localhost:9080", "Base URL of the service")
		fixturePath = flag.String("fixture", defaultFixture, "Competition fixture used as the template")
		contestants = flag.Int("contestants", defaultContestants, "Extra generated contestants")
		workers     = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent submitters")
		ratePerSec  = flag.Float64("rate", 0, "Score submissions per second, 0 for unlimited")
		seed        = flag.Uint64("seed", 1, "Seed for generated score values")
		timeout     = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		outputFile  = flag.String("output", "", "Output file for submitted scores")
		logFile     = flag.String("log", "", "Log file for simulator output")
		verbose     = flag.Bool("verbose", false, "Enable verbose logging")
		help        = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		simulate.ShowHelp()
		return
	}

	closeLog, err := simulate.SetupLogging(*logFile, *verbose)
	if err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = closeLog() }()

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	cfg := &simulate.Config{
		BaseURL:       *baseURL,
		FixturePath:   *fixturePath,
		Contestants:   *contestants,
		Workers:       *workers,
		RatePerSecond: *ratePerSec,
		Seed:          *seed,
		Timeout:       *timeout,
		OutputFile:    *outputFile,
		Verbose:       *verbose,
	}

	if _, err := simulate.Run(ctx, cfg); err != nil {
		logger.Get().Error(ctx, "simulation failed", logger.Error(err))
		_ = closeLog()
		cancel()
		os.Exit(1)
	}
}
