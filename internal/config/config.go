// Package config defines service configuration structures and loading hooks.
//
// Conventions:
//   - Provide New() to build a Config with defaults and Load(ctx) to layer
//     file and environment values on top.
//   - External errors are wrapped with this package's sentinel kinds.
package config

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/okian/seirsim/internal/domain/epidemic"
)

// Run store backends.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory run queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of simulation workers.
	WorkerCount int `koanf:"worker_count"`

	// MemoSize bounds the fingerprint memo of submitted runs.
	MemoSize int `koanf:"memo_size"`

	// RunStore selects where runs are kept: memory or sqlite.
	RunStore string `koanf:"run_store"`

	// SQLitePath is the database file used when RunStore is sqlite.
	SQLitePath string `koanf:"sqlite_path"`

	// MaxRuns bounds the in-memory run store; <= 0 keeps every run.
	MaxRuns int `koanf:"max_runs"`

	// MaxListLimit caps GET /runs?limit.
	MaxListLimit int `koanf:"max_list_limit"`

	// MaxHorizonDays rejects longer requests; DefaultHorizonDays fills
	// requests that leave the horizon out.
	MaxHorizonDays     int `koanf:"max_horizon_days"`
	DefaultHorizonDays int `koanf:"default_horizon_days"`

	// StartDate is the default calendar date of day 0 (YYYY-MM-DD), empty
	// for none.
	StartDate string `koanf:"start_date"`

	// Epidemic holds the default model parameters of a request.
	Epidemic epidemic.Parameters `koanf:"epidemic"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		LogFormat:          "text",
		Addr:               ":9080",
		QueueSize:          1024,
		WorkerCount:        runtime.NumCPU(),
		MemoSize:           10_000,
		RunStore:           StoreMemory,
		SQLitePath:         "seirsim.db",
		MaxRuns:            10_000,
		MaxListLimit:       100,
		MaxHorizonDays:     3650,
		DefaultHorizonDays: 730,
		Epidemic:           epidemic.DefaultParameters(),
	}
}

// Validate reports the first invalid setting wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.MaxHorizonDays <= 0:
		return fmt.Errorf("%w: max_horizon_days must be positive, got %d", ErrInvalidConfig, c.MaxHorizonDays)
	case c.DefaultHorizonDays <= 0 || c.DefaultHorizonDays > c.MaxHorizonDays:
		return fmt.Errorf("%w: default_horizon_days must be in (0, %d], got %d",
			ErrInvalidConfig, c.MaxHorizonDays, c.DefaultHorizonDays)
	case c.MaxListLimit <= 0:
		return fmt.Errorf("%w: max_list_limit must be positive, got %d", ErrInvalidConfig, c.MaxListLimit)
	}

	switch c.RunStore {
	case StoreMemory:
	case StoreSQLite:
		if strings.TrimSpace(c.SQLitePath) == "" {
			return fmt.Errorf("%w: sqlite_path must be set for the sqlite run store", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown run_store %q", ErrInvalidConfig, c.RunStore)
	}

	if c.StartDate != "" {
		if _, err := time.Parse("2006-01-02", c.StartDate); err != nil {
			return fmt.Errorf("%w: start_date %q is not YYYY-MM-DD", ErrInvalidConfig, c.StartDate)
		}
	}
	if err := c.Epidemic.Validate(); err != nil {
		return fmt.Errorf("%w: epidemic: %w", ErrInvalidConfig, err)
	}
	return nil
}
