package epidemic

import "math"

// ConservationTolerance bounds |S+E+I+R-N|/N after every step.
const ConservationTolerance = 1e-9

// State is the compartment vector at one instant. Values are head counts in
// the same unit as Parameters.Population.
type State struct {
	S                 float64 `json:"s"`
	E                 float64 `json:"e"`
	I                 float64 `json:"i"`
	R                 float64 `json:"r"`
	CriticalOccupancy float64 `json:"critical_occupancy"`
}

// Seed returns the day-0 state: the seed fraction infectious, everyone else susceptible.
func Seed(p Parameters) State {
	i := p.Population * p.SeedInfectiousFraction
	return State{S: p.Population - i, I: i}
}

// Total is S+E+I+R.
func (s State) Total() float64 { return s.S + s.E + s.I + s.R }

// Scale multiplies every field by f.
func (s State) Scale(f float64) State {
	return State{S: s.S * f, E: s.E * f, I: s.I * f, R: s.R * f, CriticalOccupancy: s.CriticalOccupancy * f}
}

// ConservationError is the relative drift of the total from n.
func (s State) ConservationError(n float64) float64 {
	return math.Abs(s.Total()-n) / n
}

// Negative reports whether any field is below zero.
func (s State) Negative() bool {
	return s.S < 0 || s.E < 0 || s.I < 0 || s.R < 0 || s.CriticalOccupancy < 0
}

func (s State) finite() bool {
	return finite(s.S) && finite(s.E) && finite(s.I) && finite(s.R)
}

// clamp zeroes components that integration error pushed below zero.
func (s State) clamp() State {
	s.S = math.Max(s.S, 0)
	s.E = math.Max(s.E, 0)
	s.I = math.Max(s.I, 0)
	s.R = math.Max(s.R, 0)
	return s
}
