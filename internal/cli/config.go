package cli

import (
	"fmt"
	"time"

	"github.com/okian/seirsim/internal/domain/policy"
)

// Output formats of the summary.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatCSV   = "csv"
)

// Config holds the command line settings of a batch run.
type Config struct {
	ScenarioFile string        // YAML file of named scenarios
	HorizonDays  int           // Overrides every scenario's horizon when > 0
	Policy       string        // Policy of the single scenario run without a file
	Format       string        // Summary format: table, json or csv
	OutputFile   string        // File receiving the full series, empty for none
	Timeout      time.Duration // Bound on the whole batch
	Verbose      bool          // Enable debug logging
}

// Validate checks the flags that can be checked before any file is read.
func (c *Config) Validate() error {
	switch c.Format {
	case FormatTable, FormatJSON, FormatCSV:
	default:
		return fmt.Errorf("%w: %q (want table, json or csv)", ErrInvalidFormat, c.Format)
	}
	if c.HorizonDays < 0 {
		return fmt.Errorf("horizon must not be negative, got %d", c.HorizonDays)
	}
	if c.Policy != "" {
		if _, err := policy.ParseKind(c.Policy); err != nil {
			return err
		}
	}
	return nil
}
