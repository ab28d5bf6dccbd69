package epidemic

import (
	"fmt"
	"math"

	"github.com/okian/seirsim/internal/domain/simerr"
)

const (
	// stepDays is the span of one Step.
	stepDays = 1.0
	// maxStiffness bounds substep*rate so every RK4 substep stays in the
	// stable, sign-preserving part of its region.
	maxStiffness = 0.5
	// maxSubsteps caps the work of one Step.
	maxSubsteps = 1 << 16
)

// Integrator advances a State by one day with classical RK4, split into as
// many substeps as the fastest rate needs. It owns the
// short history of I needed for critical occupancy, so one Integrator serves
// exactly one run.
type Integrator struct {
	n        float64
	sigma    float64
	gamma    float64
	waning   float64
	critical float64
	lag      int
	stay     int
	hist     *history
}

// NewIntegrator validates p and prepares an integrator for a single run.
func NewIntegrator(p Parameters) (*Integrator, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Integrator{
		n:        p.Population,
		sigma:    p.Sigma(),
		gamma:    p.Gamma(),
		waning:   p.Waning(),
		critical: p.CriticalScale(),
		lag:      p.CriticalLagDays,
		stay:     p.CriticalStayDays,
		hist:     newHistory(p.CriticalLagDays + p.CriticalStayDays),
	}, nil
}

// Start resets the history and records the day-0 state.
func (g *Integrator) Start(s State) State {
	g.hist.reset()
	g.hist.push(s.I)
	s.CriticalOccupancy = g.occupancy()
	return s
}

// Step advances s by one day under effective transmission rate beta.
func (g *Integrator) Step(s State, beta float64) (State, error) {
	const op = "epidemic.step"
	if !finite(beta) || beta < 0 {
		return State{}, simerr.WrapKind(op, simerr.ErrNumericalDomain, fmt.Errorf("effective transmission %v", beta))
	}
	if !finite(g.n) || g.n <= 0 {
		return State{}, simerr.WrapKind(op, simerr.ErrNumericalDomain, fmt.Errorf("population %v", g.n))
	}

	n, err := g.substeps(beta)
	if err != nil {
		return State{}, simerr.WrapKind(op, simerr.ErrNumericalDomain, err)
	}
	y := vec{s.S, s.E, s.I, s.R}
	h := stepDays / float64(n)
	for range n {
		y = g.rk4(y, beta, h)
	}

	next := State{S: y[0], E: y[1], I: y[2], R: y[3]}
	if !next.finite() {
		return State{}, simerr.WrapKind(op, simerr.ErrNumericalDomain, fmt.Errorf("non-finite state %+v", next))
	}
	next = next.clamp()
	if drift := next.ConservationError(g.n); drift > ConservationTolerance {
		return State{}, simerr.WrapKind(op, simerr.ErrInvariantViolation,
			fmt.Errorf("population drift %.3e exceeds %.0e (total %v, expected %v)", drift, ConservationTolerance, next.Total(), g.n))
	}

	g.hist.push(next.I)
	next.CriticalOccupancy = g.occupancy()
	if next.CriticalOccupancy < 0 {
		return State{}, simerr.WrapKind(op, simerr.ErrInvariantViolation, fmt.Errorf("negative critical occupancy %v", next.CriticalOccupancy))
	}
	return next, nil
}

// substeps is the number of RK4 substeps that keeps h*rate within
// maxStiffness for every rate of the system.
func (g *Integrator) substeps(beta float64) (int, error) {
	fastest := max(beta, g.sigma, g.gamma, g.waning)
	need := math.Ceil(stepDays * fastest / maxStiffness)
	if need > maxSubsteps {
		return 0, fmt.Errorf("%w: fastest rate %v/day needs more than %d substeps", ErrTooStiff, fastest, maxSubsteps)
	}
	return max(1, int(need)), nil
}

func (g *Integrator) rk4(y vec, beta, h float64) vec {
	k1 := g.deriv(y, beta)
	k2 := g.deriv(y.add(k1, h/2), beta)
	k3 := g.deriv(y.add(k2, h/2), beta)
	k4 := g.deriv(y.add(k3, h), beta)
	for i := range y {
		y[i] += h / 6 * (k1[i] + 2*k2[i] + 2*k3[i] + k4[i])
	}
	return y
}

// occupancy is h*c*gamma summed over I from lag to lag+stay-1 days ago.
func (g *Integrator) occupancy() float64 {
	return g.critical * g.hist.window(g.lag, g.stay)
}

type vec [4]float64

func (v vec) add(d vec, f float64) vec {
	return vec{v[0] + f*d[0], v[1] + f*d[1], v[2] + f*d[2], v[3] + f*d[3]}
}

func (g *Integrator) deriv(y vec, beta float64) vec {
	s, e, i, r := y[0], y[1], y[2], y[3]
	infection := beta * s * i / g.n
	return vec{
		-infection + g.waning*r,
		infection - g.sigma*e,
		g.sigma*e - g.gamma*i,
		g.gamma*i - g.waning*r,
	}
}
