package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/seirsim/internal/cli"
)

const defaultTimeout = 5 * time.Minute

func main() {
	var (
		scenarioFile = flag.String("scenario", "", "YAML file of named scenarios")
		policyKind   = flag.String("policy", "none", "Policy of the single run without a scenario file")
		horizon      = flag.Int("horizon", 0, "Override the horizon of every scenario in days")
		format       = flag.String("format", cli.FormatTable, "Summary format: table, json or csv")
		outputFile   = flag.String("output", "", "Write the full series to this file")
		timeout      = flag.Duration("timeout", defaultTimeout, "Bound on the whole batch")
		verbose      = flag.Bool("verbose", false, "Enable verbose logging")
		help         = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		cli.ShowHelp(os.Stdout)
		return
	}

	if err := cli.SetupLogging(*verbose); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	config := &cli.Config{
		ScenarioFile: *scenarioFile,
		HorizonDays:  *horizon,
		Policy:       *policyKind,
		Format:       *format,
		OutputFile:   *outputFile,
		Timeout:      *timeout,
		Verbose:      *verbose,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := cli.Run(ctx, config, os.Stdout)
	stop()
	if err != nil {
		os.Stderr.WriteString("seirsim: " + err.Error() + "\n")
		if errors.Is(err, cli.ErrScenariosFailed) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
