package policy

// StaticWindow applies a fixed intensity on a calendar window [Start, Start+Duration).
type StaticWindow struct {
	Start     int
	Duration  int
	Intensity float64
}

// NewStaticWindow validates the window and clips it to the horizon.
func NewStaticWindow(start, duration int, intensity float64, horizon int) (*StaticWindow, error) {
	const op = "policy.static"
	if start < 0 {
		return nil, invalid(op, "start_day must be non-negative, got %d", start)
	}
	if duration < 0 {
		return nil, invalid(op, "duration_days must be non-negative, got %d", duration)
	}
	if err := checkIntensity(op, intensity); err != nil {
		return nil, err
	}
	if horizon > 0 {
		if start > horizon {
			start = horizon
		}
		if start+duration > horizon {
			duration = horizon - start
		}
	}
	return &StaticWindow{Start: start, Duration: duration, Intensity: intensity}, nil
}

// Active reports whether day falls inside the window.
func (w *StaticWindow) Active(day int) bool {
	return day >= w.Start && day < w.Start+w.Duration
}

// Evaluate ignores occupancy.
func (w *StaticWindow) Evaluate(day int, _ float64) float64 {
	if w.Active(day) {
		return w.Intensity
	}
	return NoReduction
}

// Reset is a no-op; the window has no state.
func (w *StaticWindow) Reset() {}

// Kind returns KindStatic.
func (w *StaticWindow) Kind() Kind { return KindStatic }
