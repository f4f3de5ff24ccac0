package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/loadtest"
)

// Default configuration constants.
const (
	defaultStars           = 1000
	defaultPoints          = 400
	defaultStarsPerRequest = 10
	defaultTransitFraction = 0.5
	defaultWorkers         = 2 // multiplier for runtime.NumCPU()
	defaultTimeout         = 30 * time.Second
	defaultTestTimeout     = 10 * time.Minute
)

func main() {
	var (
		baseURL    = flag.String("url", "http://localhost:5000", "Base URL of the service")
		stars      = flag.Int("stars", defaultStars, "Number of synthetic stars")
		points     = flag.Int("points", defaultPoints, "Observations per star")
		batch      = flag.Int("batch", defaultStarsPerRequest, "Stars per request")
		transit    = flag.Float64("transit", defaultTransitFraction, "Share of stars with a transit")
		workers    = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout    = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		seed       = flag.Uint64("seed", 0, "Generator seed")
		outputFile = flag.String("output", "", "Write the generated stars as JSON")
		logFile    = flag.String("log", "", "Log file for test output")
		verbose    = flag.Bool("verbose", false, "Enable verbose logging")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		loadtest.ShowHelp()
		return
	}

	closeLog, err := loadtest.SetupLogging(*logFile, *verbose)
	if err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = closeLog() }()

	ctx, cancel := context.WithTimeout(context.Background(), defaultTestTimeout)
	defer cancel()

	cfg := &loadtest.Config{
		BaseURL:         *baseURL,
		Stars:           *stars,
		Points:          *points,
		StarsPerRequest: *batch,
		TransitFraction: *transit,
		Workers:         *workers,
		Timeout:         *timeout,
		Seed:            *seed,
		OutputFile:      *outputFile,
		Verbose:         *verbose,
	}
	if _, err := loadtest.Run(ctx, cfg); err != nil {
		os.Stderr.WriteString("Test failed: " + err.Error() + "\n")
		cancel()
		_ = closeLog()
		os.Exit(1)
	}
}
