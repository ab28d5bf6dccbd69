// Package cli runs batches of scenarios from the command line.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/okian/seirsim/pkg/logger"
)

// SetupLogging sends logs to stderr so stdout carries only the summary.
func SetupLogging(verbose bool) error {
	if err := logger.InitWithOptions(logger.WithWriter(os.Stderr)); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	level := "warn"
	if verbose {
		level = "debug"
	}
	return logger.SetLevelString(level)
}

// ShowHelp prints usage information for the scenario tool.
func ShowHelp(w io.Writer) {
	_, _ = io.WriteString(w, `seirsim scenario runner
=======================

Runs one or more SEIR scenarios side by side and prints their summaries.

Usage:
  go run ./cmd/seirsim [options]

Options:
  -scenario string
        YAML file of named scenarios (default: a single baseline run)
  -policy string
        Policy of the single run without a scenario file: none, static,
        dynamic or combined, using the reference settings (default "none")
  -horizon int
        Override the horizon of every scenario in days
  -format string
        Summary format: table, json or csv (default "table")
  -output string
        Write the full series to this file (.csv for CSV, JSON otherwise)
  -timeout duration
        Bound on the whole batch (default 5m)
  -verbose
        Enable debug logging on stderr
  -help
        Show this help message

Scenario file:
  defaults:
    horizon_days: 730
    parameters: {seasonal_amplitude: 0.3}
  scenarios:
    - name: baseline
    - name: reactive
      request:
        policy:
          kind: dynamic
          dynamic: {on_threshold: 3.8, off_threshold: 1, intensity: 0.6}

Examples:
  # Compare the reference policies
  go run ./cmd/seirsim -policy dynamic -horizon 365

  # Run a scenario file and keep the series as CSV
  go run ./cmd/seirsim -scenario scenarios.yaml -output out/series.csv
`)
}
