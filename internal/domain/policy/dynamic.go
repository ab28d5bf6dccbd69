package policy

import (
	"context"

	"github.com/okian/seirsim/pkg/logger"
)

// DynamicThreshold engages distancing when occupancy reaches On and releases
// it when occupancy falls to Off. On must exceed Off.
type DynamicThreshold struct {
	On        float64
	Off       float64
	Intensity float64

	engaged     bool
	engagements int
	log         logger.Logger
}

// NewDynamicThreshold validates the thresholds. The log may be nil.
func NewDynamicThreshold(on, off, intensity float64, log logger.Logger) (*DynamicThreshold, error) {
	const op = "policy.dynamic"
	if !finite(on) || !finite(off) {
		return nil, invalid(op, "thresholds must be finite, got on=%v off=%v", on, off)
	}
	if off < 0 {
		return nil, invalid(op, "off_threshold must be non-negative, got %v", off)
	}
	if on <= off {
		return nil, invalid(op, "on_threshold (%v) must exceed off_threshold (%v)", on, off)
	}
	if err := checkIntensity(op, intensity); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Nop()
	}
	return &DynamicThreshold{On: on, Off: off, Intensity: intensity, log: log}, nil
}

// Evaluate applies the hysteresis rule. Day 0 never starts engaged.
func (d *DynamicThreshold) Evaluate(day int, occupancy float64) float64 {
	if day <= 0 {
		d.engaged = false
		return NoReduction
	}
	switch {
	case !d.engaged && occupancy >= d.On:
		d.engaged = true
		d.engagements++
		d.log.Debug(context.Background(), "distancing engaged",
			logger.Int("day", day), logger.Float64("occupancy", occupancy))
	case d.engaged && occupancy <= d.Off:
		d.engaged = false
		d.log.Debug(context.Background(), "distancing released",
			logger.Int("day", day), logger.Float64("occupancy", occupancy))
	}
	if d.engaged {
		return d.Intensity
	}
	return NoReduction
}

// Engaged reports the current state.
func (d *DynamicThreshold) Engaged() bool { return d.engaged }

// Engagements counts off->on transitions since the last Reset.
func (d *DynamicThreshold) Engagements() int { return d.engagements }

// Reset disengages and clears the transition counter.
func (d *DynamicThreshold) Reset() {
	d.engaged = false
	d.engagements = 0
}

// Kind returns KindDynamic.
func (d *DynamicThreshold) Kind() Kind { return KindDynamic }
