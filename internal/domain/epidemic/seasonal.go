package epidemic

import "math"

// Forcing scales transmission over the year.
type Forcing struct {
	Amplitude float64 // relative swing around the mean, within [0,1]
	Phase     float64 // day of year of the transmission peak
}

// At returns 1 + A*cos(2*pi*(day-phase)/365).
// The day is reduced modulo the period first, so At(d) == At(d+365) exactly.
func (f Forcing) At(day int) float64 {
	if f.Amplitude == 0 {
		return 1
	}
	d := day % DaysPerYear
	if d < 0 {
		d += DaysPerYear
	}
	return 1 + f.Amplitude*math.Cos(2*math.Pi*(float64(d)-f.Phase)/DaysPerYear)
}
