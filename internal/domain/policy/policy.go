// Package policy decides the social-distancing multiplier applied to transmission each day.
//
// A Policy is owned by exactly one run: DynamicThreshold keeps its engagement
// bit on the instance, so concurrent runs must each build their own via New.
package policy

import (
	"strings"

	"github.com/okian/seirsim/internal/domain/simerr"
)

// NoReduction is the multiplier when distancing is off.
const NoReduction = 1.0

// Kind names a policy variant.
type Kind string

// Policy kinds.
const (
	KindNone     Kind = "none"
	KindStatic   Kind = "static"
	KindDynamic  Kind = "dynamic"
	KindCombined Kind = "combined"
)

// Policy returns the distancing multiplier for a day given the critical-care
// occupancy observed so far. Evaluate never fails.
type Policy interface {
	Evaluate(day int, occupancy float64) float64
	// Reset returns the policy to its pre-run state.
	Reset()
	Kind() Kind
}

// Engager is implemented by policies whose decision depends on internal state.
type Engager interface {
	Engaged() bool
}

// Engaged reports whether p is intervening on day, where multiplier is what
// p.Evaluate just returned for it. Stateful policies answer through Engager
// and static windows through Active, so a policy engaged at full intensity
// still counts.
func Engaged(p Policy, day int, multiplier float64) bool {
	switch p := p.(type) {
	case *StaticWindow:
		return p.Active(day)
	case *Combined:
		return p.Static.Active(day) || p.Dynamic.Engaged()
	case Engager:
		return p.Engaged()
	default:
		return multiplier < NoReduction
	}
}

// ParseKind accepts a kind name case-insensitively; empty means none.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case "", KindNone:
		return KindNone, nil
	case KindStatic, KindDynamic, KindCombined:
		return k, nil
	default:
		return "", simerr.Invalid("policy.parse_kind", "unknown policy kind %q", s)
	}
}

// None never reduces transmission.
type None struct{}

// Evaluate always returns NoReduction.
func (None) Evaluate(int, float64) float64 { return NoReduction }

// Reset is a no-op.
func (None) Reset() {}

// Kind returns KindNone.
func (None) Kind() Kind { return KindNone }

// Combined applies the stronger of a calendar window and a reactive threshold.
type Combined struct {
	Static  *StaticWindow
	Dynamic *DynamicThreshold
}

// Evaluate always consults the dynamic policy so its hysteresis state tracks
// occupancy even while the static window is active.
func (c *Combined) Evaluate(day int, occupancy float64) float64 {
	d := c.Dynamic.Evaluate(day, occupancy)
	s := c.Static.Evaluate(day, occupancy)
	if s < d {
		return s
	}
	return d
}

// Reset resets the dynamic part.
func (c *Combined) Reset() { c.Dynamic.Reset() }

// Kind returns KindCombined.
func (c *Combined) Kind() Kind { return KindCombined }

// Engaged reports whether the dynamic part is engaged.
func (c *Combined) Engaged() bool { return c.Dynamic.Engaged() }
