// Package epidemic holds the compartmental model: parameters, seasonal forcing,
// the compartment state and the RK4 integrator that advances it one day at a time.
package epidemic

import (
	"math"

	"github.com/okian/seirsim/internal/domain/simerr"
)

// Default model constants. Durations are in days.
const (
	defaultR0                      = 2.25
	defaultLatentDays              = 4.6
	defaultInfectiousDays          = 5.0
	defaultImmunityDays            = 365.0
	defaultHospitalizationFraction = 0.044
	defaultCriticalFraction        = 0.3
	defaultCriticalLagDays         = 6
	defaultCriticalStayDays        = 10
	defaultPopulation              = 10_000.0
	defaultSeedInfectiousFraction  = 1.0 / defaultPopulation

	// DaysPerYear is the period of the seasonal forcing.
	DaysPerYear = 365
)

// Parameters is the immutable configuration of one simulation.
type Parameters struct {
	R0                      float64 `json:"r0" yaml:"r0" koanf:"r0"`
	LatentDays              float64 `json:"latent_days" yaml:"latent_days" koanf:"latent_days"`
	InfectiousDays          float64 `json:"infectious_days" yaml:"infectious_days" koanf:"infectious_days"`
	ImmunityDays            float64 `json:"immunity_days" yaml:"immunity_days" koanf:"immunity_days"`
	HospitalizationFraction float64 `json:"hospitalization_fraction" yaml:"hospitalization_fraction" koanf:"hospitalization_fraction"`
	CriticalFraction        float64 `json:"critical_fraction" yaml:"critical_fraction" koanf:"critical_fraction"`
	SeasonalAmplitude       float64 `json:"seasonal_amplitude" yaml:"seasonal_amplitude" koanf:"seasonal_amplitude"`
	SeasonalPhase           float64 `json:"seasonal_phase" yaml:"seasonal_phase" koanf:"seasonal_phase"`
	Population              float64 `json:"population" yaml:"population" koanf:"population"`
	SeedInfectiousFraction  float64 `json:"seed_infectious_fraction" yaml:"seed_infectious_fraction" koanf:"seed_infectious_fraction"`
	CriticalLagDays         int     `json:"critical_lag_days" yaml:"critical_lag_days" koanf:"critical_lag_days"`
	CriticalStayDays        int     `json:"critical_stay_days" yaml:"critical_stay_days" koanf:"critical_stay_days"`
}

// DefaultParameters returns the reference parameter set.
func DefaultParameters() Parameters {
	return Parameters{
		R0:                      defaultR0,
		LatentDays:              defaultLatentDays,
		InfectiousDays:          defaultInfectiousDays,
		ImmunityDays:            defaultImmunityDays,
		HospitalizationFraction: defaultHospitalizationFraction,
		CriticalFraction:        defaultCriticalFraction,
		Population:              defaultPopulation,
		SeedInfectiousFraction:  defaultSeedInfectiousFraction,
		CriticalLagDays:         defaultCriticalLagDays,
		CriticalStayDays:        defaultCriticalStayDays,
	}
}

// Validate checks every bound and returns a configuration error naming the first bad field.
func (p Parameters) Validate() error {
	const op = "epidemic.validate"
	positive := []struct {
		name string
		v    float64
	}{
		{"r0", p.R0},
		{"latent_days", p.LatentDays},
		{"infectious_days", p.InfectiousDays},
		{"immunity_days", p.ImmunityDays},
		{"population", p.Population},
	}
	for _, f := range positive {
		if !finite(f.v) || f.v <= 0 {
			return simerr.Invalid(op, "%s must be a positive finite number, got %v", f.name, f.v)
		}
	}
	unit := []struct {
		name string
		v    float64
	}{
		{"hospitalization_fraction", p.HospitalizationFraction},
		{"critical_fraction", p.CriticalFraction},
		{"seasonal_amplitude", p.SeasonalAmplitude},
	}
	for _, f := range unit {
		if !finite(f.v) || f.v < 0 || f.v > 1 {
			return simerr.Invalid(op, "%s must be within [0,1], got %v", f.name, f.v)
		}
	}
	if !finite(p.SeedInfectiousFraction) || p.SeedInfectiousFraction <= 0 || p.SeedInfectiousFraction >= 1 {
		return simerr.Invalid(op, "seed_infectious_fraction must be within (0,1), got %v", p.SeedInfectiousFraction)
	}
	if !finite(p.SeasonalPhase) {
		return simerr.Invalid(op, "seasonal_phase must be finite, got %v", p.SeasonalPhase)
	}
	if p.CriticalLagDays < 0 {
		return simerr.Invalid(op, "critical_lag_days must be non-negative, got %d", p.CriticalLagDays)
	}
	if p.CriticalStayDays < 1 {
		return simerr.Invalid(op, "critical_stay_days must be at least 1, got %d", p.CriticalStayDays)
	}
	return nil
}

// Sigma is the rate E -> I.
func (p Parameters) Sigma() float64 { return 1 / p.LatentDays }

// Gamma is the rate I -> R.
func (p Parameters) Gamma() float64 { return 1 / p.InfectiousDays }

// Waning is the rate R -> S.
func (p Parameters) Waning() float64 { return 1 / p.ImmunityDays }

// BaseTransmission is beta before seasonal forcing and distancing.
func (p Parameters) BaseTransmission() float64 { return p.R0 * p.Gamma() }

// CriticalScale is the share of infectious outflow that ends up in critical care.
func (p Parameters) CriticalScale() float64 {
	return p.HospitalizationFraction * p.CriticalFraction * p.Gamma()
}

// Forcing returns the seasonal forcing configured by p.
func (p Parameters) Forcing() Forcing {
	return Forcing{Amplitude: p.SeasonalAmplitude, Phase: p.SeasonalPhase}
}

// SeasonalFromPeak converts a winter peak R0 and a proportional summer decline
// into the mean R0 and the relative amplitude used by Forcing.
// A decline of 0.3 means summer R0 is 70% of the winter peak.
func SeasonalFromPeak(maxR0, summerDecline float64) (meanR0, amplitude float64) {
	half := summerDecline / 2
	meanR0 = maxR0 * (1 - half)
	if meanR0 == 0 {
		return 0, 0
	}
	return meanR0, maxR0 * half / meanR0
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
