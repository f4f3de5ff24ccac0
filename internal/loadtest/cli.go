package loadtest

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/pkg/logger"
)

// SetupLogging sends log output to stdout and to logFile. An empty logFile
// gets a timestamped name. The returned func closes the file.
func SetupLogging(logFile string, verbose bool) (func() error, error) {
	if logFile == "" {
		logFile = "predict_load_" + time.Now().Format("20060102_150405") + ".log"
	}
	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}
	if err := logger.Init(logger.WithWriter(io.MultiWriter(os.Stdout, file))); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		_ = logger.SetLevelString("debug")
	}
	return file.Close, nil
}

// ShowHelp prints usage information for the load tool.
func ShowHelp() {
	os.Stdout.WriteString(`exoscan predict load tool
=========================

Generates synthetic light curves, half of them with a box-shaped transit,
posts them to /predict concurrently and reports latency and how far the
transit stars outscore the flat ones.

Usage:
  go run ./cmd/predict-load [options]

Options:
  -url string        Base URL of the service (default "http://localhost:5000")
  -stars int         Number of synthetic stars (default 1000)
  -points int        Observations per star (default 400)
  -batch int         Stars per request (default 10)
  -transit float     Share of stars with a transit (default 0.5)
  -workers int       Number of concurrent workers (default CPU cores * 2)
  -timeout duration  HTTP request timeout (default 30s)
  -seed uint         Generator seed, 0 derives one from the run id
  -output string     Write the generated stars as JSON
  -log string        Log file (default: predict_load_TIMESTAMP.log)
  -verbose           Enable verbose logging
  -help              Show this help message

Examples:
  go run ./cmd/predict-load -stars 5000 -workers 16
  go run ./cmd/predict-load -seed 42 -output stars.json
`)
}
