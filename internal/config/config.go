// Package config defines process configuration for the exoscan server, CLI and workers.
//
// Conventions:
// - New builds a Config with defaults; Load layers .env, YAML and EXOSCAN_* env vars on top.
// - Errors returned from Load wrap ErrLoadConfig or ErrInvalidConfig.
package config

import (
	"fmt"
	"runtime"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat selects text or json output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":5000".
	Addr string `koanf:"addr"`
	// CORSOrigins lists origins allowed to call the API from a browser.
	CORSOrigins []string `koanf:"cors_origins"`
	// MaxRequestRows caps the number of observation rows accepted per request.
	MaxRequestRows int `koanf:"max_request_rows"`
	// PersistRequests stores the vectors and scores of /predict and /features
	// requests. Off by default so ad hoc requests never replace batch vectors.
	PersistRequests bool `koanf:"persist_requests"`

	// ModelPath points at the YAML classifier artifact.
	ModelPath string `koanf:"model_path"`

	// WorkerCount sets the number of pipeline workers.
	WorkerCount int `koanf:"worker_count"`
	// QueueSize bounds the in-memory star job queue.
	QueueSize int `koanf:"queue_size"`

	// CatalogURL is the TAP sync endpoint of the exoplanet archive.
	CatalogURL       string `koanf:"catalog_url"`
	CatalogTimeoutMS int    `koanf:"catalog_timeout_ms"`
	CatalogRetries   int    `koanf:"catalog_retries"`
	// CatalogCacheDir enables the on-disk catalog cache when set.
	CatalogCacheDir string `koanf:"catalog_cache_dir"`

	// SamplesDB is an optional SQLite file holding ingested observations.
	SamplesDB string `koanf:"samples_db"`
	// FeaturesDSN is an optional Postgres DSN for persisted feature vectors.
	FeaturesDSN string `koanf:"features_dsn"`

	TemporalAddress   string `koanf:"temporal_address"`
	TemporalTaskQueue string `koanf:"temporal_task_queue"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		LogFormat:         "text",
		Addr:              ":5000",
		CORSOrigins:       []string{"http://localhost:5173"},
		MaxRequestRows:    200_000,
		ModelPath:         "model.yaml",
		WorkerCount:       runtime.NumCPU(),
		QueueSize:         1024,
		CatalogURL:        "https://exoplanetarchive.ipac.caltech.edu/TAP/sync",
		CatalogTimeoutMS:  10_000,
		CatalogRetries:    3,
		TemporalAddress:   "localhost:7233",
		TemporalTaskQueue: "exoscan-batch",
	}
}

// CatalogTimeout returns the catalog request timeout as a duration.
func (c *Config) CatalogTimeout() time.Duration {
	return time.Duration(c.CatalogTimeoutMS) * time.Millisecond
}

// Validate checks the invariants the rest of the process relies on.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.MaxRequestRows <= 0:
		return fmt.Errorf("%w: max_request_rows must be positive", ErrInvalidConfig)
	case c.WorkerCount <= 0:
		return fmt.Errorf("%w: worker_count must be positive", ErrInvalidConfig)
	case c.QueueSize <= 0:
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	case c.CatalogRetries < 0:
		return fmt.Errorf("%w: catalog_retries must not be negative", ErrInvalidConfig)
	case c.LogFormat != "text" && c.LogFormat != "json":
		return fmt.Errorf("%w: log_format must be text or json", ErrInvalidConfig)
	}
	return nil
}
