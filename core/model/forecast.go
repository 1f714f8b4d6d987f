package model

import (
	"fmt"
	"time"
)

// ForecastSample is one fixed-duration bucket of forecasted PV output.
type ForecastSample struct {
	Timestamp time.Time `json:"timestamp"`
	EnergyWh  float64   `json:"energy_wh"`
}

// Series is an ordered sequence of forecast samples covering a planning
// horizon. Samples must be contiguous, equally spaced and sorted ascending.
type Series []ForecastSample

// Validate checks the series invariants for the given bucket duration.
func (s Series) Validate(step time.Duration) error {
	if len(s) == 0 {
		return fmt.Errorf("forecast series is empty")
	}
	if step <= 0 {
		return fmt.Errorf("bucket duration must be positive")
	}
	for i, smp := range s {
		if smp.EnergyWh < 0 {
			return fmt.Errorf("negative energy %.2f Wh at %s", smp.EnergyWh, smp.Timestamp.Format(time.RFC3339))
		}
		if i == 0 {
			continue
		}
		if want := s[i-1].Timestamp.Add(step); !smp.Timestamp.Equal(want) {
			return fmt.Errorf("forecast gap: expected bucket at %s, got %s",
				want.Format(time.RFC3339), smp.Timestamp.Format(time.RFC3339))
		}
	}
	return nil
}

// Energies returns the per-bucket energy values in series order.
func (s Series) Energies() []float64 {
	out := make([]float64, len(s))
	for i, smp := range s {
		out[i] = smp.EnergyWh
	}
	return out
}

// TotalEnergy returns the summed forecast energy over the horizon.
func (s Series) TotalEnergy() float64 {
	total := 0.0
	for _, smp := range s {
		total += smp.EnergyWh
	}
	return total
}

// Day returns midnight of the day the series starts on, in the series'
// own location.
func (s Series) Day() time.Time {
	if len(s) == 0 {
		return time.Time{}
	}
	t := s[0].Timestamp
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
