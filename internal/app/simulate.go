package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/okian/seirsim/internal/domain/model"
	"github.com/okian/seirsim/internal/domain/policy"
	"github.com/okian/seirsim/internal/domain/simerr"
	"github.com/okian/seirsim/internal/domain/simulation"
	"github.com/okian/seirsim/internal/domain/types"
	"github.com/okian/seirsim/pkg/logger"
	"github.com/okian/seirsim/pkg/metrics"
)

// Simulate validates req as given and runs it to the end. Callers that
// accept partial input merge it onto Defaults first. Every call builds its
// own policy, so calls may run concurrently.
func (s *Service) Simulate(ctx context.Context, req model.Request) (*simulation.Series, error) {
	if err := req.Validate(s.maxHorizon); err != nil {
		metrics.RecordRunError(simerr.Label(err))
		return nil, err
	}
	return s.execute(ctx, req)
}

// Compare runs every scenario concurrently and returns their outcomes in
// input order. A failing scenario does not stop the others; its error is
// carried on its outcome.
func (s *Service) Compare(ctx context.Context, scenarios []types.Scenario) ([]types.Outcome, error) {
	const op = "service.compare"
	switch {
	case len(scenarios) == 0:
		return nil, simerr.WrapKind(op, simerr.ErrConfiguration, ErrNoScenarios)
	case len(scenarios) > s.maxScenarios:
		return nil, simerr.WrapKind(op, simerr.ErrConfiguration,
			fmt.Errorf("%w: %d exceeds the limit of %d", ErrTooManyRuns, len(scenarios), s.maxScenarios))
	}

	out := make([]types.Outcome, len(scenarios))
	var wg sync.WaitGroup
	for i, sc := range scenarios {
		name := strings.TrimSpace(sc.Name)
		if name == "" {
			name = fmt.Sprintf("scenario-%d", i+1)
		}
		wg.Add(1)
		go func(i int, name string, req model.Request) {
			defer wg.Done()
			series, err := s.Simulate(ctx, req)
			out[i] = types.NewOutcome(name, series, err)
		}(i, name, sc.Request)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, simerr.WrapKind(op, simerr.ErrCancelled, err)
	}
	s.logger.Debug(ctx, "comparison finished", logger.Int("scenarios", len(out)))
	return out, nil
}

// execute runs a validated request and records its metrics.
func (s *Service) execute(ctx context.Context, req model.Request) (*simulation.Series, error) {
	began := time.Now()
	kind := string(req.Policy.Kind)
	if kind == "" {
		kind = string(policy.KindNone)
	}

	pol, err := policy.New(req.Policy, req.HorizonDays, policy.WithLogger(s.logger))
	if err != nil {
		metrics.RecordRunError(simerr.Label(err))
		return nil, err
	}
	opts := []simulation.Option{simulation.WithLogger(s.logger)}
	if start, _ := req.Start(); !start.IsZero() {
		opts = append(opts, simulation.WithStartDate(start))
	}

	series, err := simulation.Run(ctx, req.Parameters, pol, req.HorizonDays, opts...)
	took := float64(time.Since(began).Microseconds()) / 1000
	if err != nil {
		metrics.RecordRun(kind, "failed", took, 0)
		metrics.RecordRunError(simerr.Label(err))
		s.logger.Debug(ctx, "run failed", logger.String("policy", kind), logger.Error(err))
		return nil, err
	}

	metrics.RecordRun(string(series.Policy()), "succeeded", took, req.HorizonDays)
	metrics.RecordPolicyEngagements(engagements(pol))
	if n := series.Population(); n > 0 {
		metrics.RecordPeakCritical(series.Summary().PeakCritical / n)
	}
	return series, nil
}

// engagements is the number of windows a reactive policy opened during its run.
func engagements(pol policy.Policy) int {
	switch p := pol.(type) {
	case *policy.DynamicThreshold:
		return p.Engagements()
	case *policy.Combined:
		return p.Dynamic.Engagements()
	default:
		return 0
	}
}
