// Package simulation drives one epidemic run day by day: it combines seasonal
// forcing with the intervention policy, advances the compartments and records
// a snapshot per day into a Series.
package simulation

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/okian/seirsim/internal/domain/epidemic"
	"github.com/okian/seirsim/internal/domain/policy"
	"github.com/okian/seirsim/internal/domain/simerr"
	"github.com/okian/seirsim/pkg/logger"
)

// Run simulates horizon days from the seeded initial state and returns
// horizon+1 snapshots (day 0 through day horizon).
//
// pol must not be shared with another concurrent run; it is reset before the
// first day. A nil pol means no intervention. On error no series is returned.
func Run(ctx context.Context, params epidemic.Parameters, pol policy.Policy, horizon int, opts ...Option) (*Series, error) {
	const op = "simulation.run"
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if horizon <= 0 {
		return nil, simerr.Invalid(op, "horizon must be positive, got %d", horizon)
	}
	integ, err := epidemic.NewIntegrator(params)
	if err != nil {
		return nil, err
	}
	if pol == nil {
		pol = policy.None{}
	}
	pol.Reset()

	began := time.Now()
	o.log.Debug(ctx, "run started",
		logger.Int("horizon", horizon),
		logger.String("policy", string(pol.Kind())),
		logger.Float64("r0", params.R0))

	forcing := params.Forcing()
	base := params.BaseTransmission()
	series := newSeries(params.Population, pol.Kind(), horizon+1)
	state := integ.Start(epidemic.Seed(params))
	observed := 0.0

	for day := 0; day <= horizon; day++ {
		if err := ctx.Err(); err != nil {
			return nil, simerr.AtDay(op, day, simerr.WrapKind(op, simerr.ErrCancelled, err))
		}

		seasonal := forcing.At(day)
		mult := pol.Evaluate(day, observed)
		if math.IsNaN(mult) || mult < 0 || mult > policy.NoReduction {
			return nil, simerr.AtDay(op, day, simerr.WrapKind(op, simerr.ErrInvariantViolation,
				fmt.Errorf("policy %s returned multiplier %v", pol.Kind(), mult)))
		}
		beta := base * seasonal * mult

		snap := Snapshot{
			Day:                   day,
			S:                     state.S,
			E:                     state.E,
			I:                     state.I,
			R:                     state.R,
			CriticalOccupancy:     state.CriticalOccupancy,
			EffectiveTransmission: beta,
			Seasonal:              seasonal,
			Intervention:          mult,
			Engaged:               policy.Engaged(pol, day, mult),
		}
		if !o.start.IsZero() {
			snap.Date = o.start.AddDate(0, 0, day)
		}
		series.append(snap)

		if day == horizon {
			break
		}
		next, err := integ.Step(state, beta)
		if err != nil {
			return nil, simerr.AtDay(op, day, err)
		}
		observed = state.CriticalOccupancy
		state = next
	}

	sum := series.Summary()
	o.log.Debug(ctx, "run finished",
		logger.Int("days", series.Len()),
		logger.Float64("peak_critical", sum.PeakCritical),
		logger.Int("peak_critical_day", sum.PeakCriticalDay),
		logger.Int("intervention_days", sum.InterventionDays),
		logger.Duration("took", time.Since(began)))
	return series, nil
}
