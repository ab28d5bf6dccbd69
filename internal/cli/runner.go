package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	service "github.com/okian/seirsim/internal/app"
	"github.com/okian/seirsim/internal/domain/policy"
	"github.com/okian/seirsim/internal/domain/types"
	"github.com/okian/seirsim/pkg/logger"
)

const (
	directoryPermission = 0750
	maxScenarios        = 256
)

// Run executes a batch of scenarios and writes their summaries to out.
// It returns ErrScenariosFailed, after printing, when any scenario failed.
func Run(ctx context.Context, config *Config, out io.Writer) error {
	if err := config.Validate(); err != nil {
		return err
	}
	if config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, config.Timeout)
		defer cancel()
	}
	log := logger.Get().Named("cli")
	began := time.Now()

	svc := service.New(service.WithLogger(log), service.WithMaxScenarios(maxScenarios))
	scenarios, err := buildScenarios(config, svc)
	if err != nil {
		return err
	}

	log.Info(ctx, "running scenarios",
		logger.Int("scenarios", len(scenarios)),
		logger.String("file", config.ScenarioFile),
		logger.String("format", config.Format))

	outcomes, err := svc.Compare(ctx, scenarios)
	if err != nil {
		return fmt.Errorf("compare scenarios: %w", err)
	}

	if err := WriteSummary(out, config.Format, outcomes); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	if config.OutputFile != "" {
		if err := saveSeries(ctx, config.OutputFile, outcomes); err != nil {
			return err
		}
	}

	failed := 0
	var errs []error
	for _, o := range outcomes {
		if o.Err != nil {
			failed++
			errs = append(errs, fmt.Errorf("%s: %w", o.Name, o.Err))
		}
	}
	log.Info(ctx, "scenarios finished",
		logger.Int("succeeded", len(outcomes)-failed),
		logger.Int("failed", failed),
		logger.Duration("took", time.Since(began)))
	if failed > 0 {
		return fmt.Errorf("%w: %w", ErrScenariosFailed, errors.Join(errs...))
	}
	return nil
}

// buildScenarios reads the scenario file or builds the single -policy run,
// then applies the horizon override.
func buildScenarios(config *Config, svc *service.Service) ([]types.Scenario, error) {
	base := svc.Defaults()
	var scenarios []types.Scenario
	if config.ScenarioFile != "" {
		var err error
		if scenarios, err = LoadScenarios(config.ScenarioFile, base); err != nil {
			return nil, err
		}
	} else {
		kind, err := policy.ParseKind(config.Policy)
		if err != nil {
			return nil, err
		}
		scenarios = []types.Scenario{singleScenario(base, kind)}
	}

	if config.HorizonDays > 0 {
		for i := range scenarios {
			scenarios[i].Request.HorizonDays = config.HorizonDays
		}
	}
	return scenarios, nil
}

// saveSeries writes every series to filename, as CSV when the name ends in
// .csv and as JSON otherwise.
func saveSeries(ctx context.Context, filename string, outcomes []types.Outcome) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close file", logger.Error(err))
		}
	}()

	format := FormatJSON
	if strings.EqualFold(filepath.Ext(filename), ".csv") {
		format = FormatCSV
	}
	if err := WriteSeries(file, format, outcomes); err != nil {
		return fmt.Errorf("failed to write series: %w", err)
	}

	logger.Get().Info(ctx, "series saved to file", logger.String("filename", filename))
	return nil
}
