package simulation

import (
	"encoding/json"
	"time"

	"github.com/okian/seirsim/internal/domain/policy"
)

// Snapshot is the state at the start of a day together with the transmission
// that was applied during that day.
type Snapshot struct {
	Day                   int       `json:"day"`
	Date                  time.Time `json:"date,omitzero"`
	S                     float64   `json:"s"`
	E                     float64   `json:"e"`
	I                     float64   `json:"i"`
	R                     float64   `json:"r"`
	CriticalOccupancy     float64   `json:"critical_occupancy"`
	EffectiveTransmission float64   `json:"effective_transmission"`
	Seasonal              float64   `json:"seasonal"`
	Intervention          float64   `json:"intervention"`
	Engaged               bool      `json:"engaged"`
}

// Summary condenses a series into the figures the reports compare.
type Summary struct {
	PeakCritical       float64 `json:"peak_critical"`
	PeakCriticalDay    int     `json:"peak_critical_day"`
	PeakInfectious     float64 `json:"peak_infectious"`
	PeakInfectiousDay  int     `json:"peak_infectious_day"`
	CumulativeInfected float64 `json:"cumulative_infected"`
	InterventionDays   int     `json:"intervention_days"`
}

// Series is the ordered output of one run. It is append-only while the run
// is in progress and read-only afterwards.
type Series struct {
	population float64
	policy     policy.Kind
	snaps      []Snapshot
	summary    Summary
}

func newSeries(population float64, kind policy.Kind, capacity int) *Series {
	return &Series{population: population, policy: kind, snaps: make([]Snapshot, 0, capacity)}
}

func (s *Series) append(snap Snapshot) {
	if len(s.snaps) == 0 || snap.CriticalOccupancy > s.summary.PeakCritical {
		s.summary.PeakCritical = snap.CriticalOccupancy
		s.summary.PeakCriticalDay = snap.Day
	}
	if len(s.snaps) == 0 || snap.I > s.summary.PeakInfectious {
		s.summary.PeakInfectious = snap.I
		s.summary.PeakInfectiousDay = snap.Day
	}
	if snap.Engaged {
		s.summary.InterventionDays++
	}
	if s.population > 0 {
		s.summary.CumulativeInfected = 1 - snap.S/s.population
	}
	s.snaps = append(s.snaps, snap)
}

// Len is the number of snapshots.
func (s *Series) Len() int { return len(s.snaps) }

// At returns the i-th snapshot; it panics when i is out of range.
func (s *Series) At(i int) Snapshot { return s.snaps[i] }

// Snapshots returns a copy of all snapshots in day order.
func (s *Series) Snapshots() []Snapshot {
	out := make([]Snapshot, len(s.snaps))
	copy(out, s.snaps)
	return out
}

// Each calls fn for every snapshot in day order until fn returns false.
func (s *Series) Each(fn func(Snapshot) bool) {
	for _, snap := range s.snaps {
		if !fn(snap) {
			return
		}
	}
}

// Summary returns the peak and total figures.
func (s *Series) Summary() Summary { return s.summary }

// Population is N for the run.
func (s *Series) Population() float64 { return s.population }

// Policy is the kind of intervention the run used.
func (s *Series) Policy() policy.Kind { return s.policy }

// Fractions returns a copy with compartments and occupancy expressed as
// shares of the population.
func (s *Series) Fractions() *Series {
	out := newSeries(1, s.policy, len(s.snaps))
	if s.population <= 0 {
		return out
	}
	f := 1 / s.population
	for _, snap := range s.snaps {
		snap.S *= f
		snap.E *= f
		snap.I *= f
		snap.R *= f
		snap.CriticalOccupancy *= f
		out.append(snap)
	}
	return out
}

type seriesJSON struct {
	Population float64     `json:"population"`
	Policy     policy.Kind `json:"policy"`
	Summary    Summary     `json:"summary"`
	Snapshots  []Snapshot  `json:"snapshots"`
}

// MarshalJSON encodes the series with its summary.
func (s *Series) MarshalJSON() ([]byte, error) {
	return json.Marshal(seriesJSON{
		Population: s.population,
		Policy:     s.policy,
		Summary:    s.summary,
		Snapshots:  s.snaps,
	})
}

// UnmarshalJSON rebuilds a series; the summary is recomputed from the snapshots.
func (s *Series) UnmarshalJSON(data []byte) error {
	var raw seriesJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = *newSeries(raw.Population, raw.Policy, len(raw.Snapshots))
	for _, snap := range raw.Snapshots {
		s.append(snap)
	}
	return nil
}
