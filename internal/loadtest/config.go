package loadtest

import (
	"errors"
	"time"
)

// Config holds configuration for a load run.
type Config struct {
	BaseURL         string        // Base URL of the service
	Stars           int           // Number of synthetic stars
	Points          int           // Observations per star
	StarsPerRequest int           // Stars packed into one /predict body
	TransitFraction float64       // Share of stars carrying a transit dip
	Workers         int           // Number of concurrent workers
	Timeout         time.Duration // HTTP request timeout
	Seed            uint64        // Generator seed; 0 picks one from the run id
	OutputFile      string        // Optional JSON dump of the generated stars
	Verbose         bool          // Enable verbose logging
}

// Validate rejects configurations the runner cannot execute.
func (c *Config) Validate() error {
	switch {
	case c.BaseURL == "":
		return errors.New("base url is required")
	case c.Stars <= 0:
		return errors.New("stars must be positive")
	case c.Points < minPoints:
		return errors.New("points must be at least 16")
	case c.StarsPerRequest <= 0:
		return errors.New("stars per request must be positive")
	case c.TransitFraction < 0 || c.TransitFraction > 1:
		return errors.New("transit fraction must be within [0,1]")
	case c.Workers <= 0:
		return errors.New("workers must be positive")
	}
	return nil
}

// Stats holds run statistics.
type Stats struct {
	RunID              string
	StarsGenerated     int
	RequestsSubmitted  int
	RequestsSuccessful int
	RequestsFailed     int
	StarsScored        int
	Latency            LatencySummary
	Separation         Separation
	StartTime          time.Time
	EndTime            time.Time
	Duration           time.Duration
}
