package scheduler

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/kilianp07/solarflex/core/model"
)

// Engine places deferrable loads on the forecast buckets where solar output
// is highest. Devices are scored independently against the full series: a
// placed device's draw is not deducted before scoring the next one, so the
// engine optimises per-device alignment, not joint capacity packing.
//
// Scheduling is a pure function of its inputs. The engine reads no clock,
// uses no randomness and iterates devices in ascending id order, so
// identical inputs always yield an identical schedule.
type Engine struct {
	Config Config
}

// New validates the configuration and returns an Engine.
func New(cfg Config) (*Engine, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{Config: cfg}, nil
}

// Step returns the configured bucket duration.
func (e *Engine) Step() time.Duration {
	return time.Duration(e.Config.SlotDurationMinutes) * time.Minute
}

// Schedule assigns one contiguous run to every feasible device and reports
// the rest as infeasible. A malformed series or device definition aborts the
// whole invocation with a *ConfigurationError.
func (e *Engine) Schedule(series model.Series, devices []model.Device) (model.Schedule, error) {
	step := e.Step()
	if err := series.Validate(step); err != nil {
		return model.Schedule{}, configErr("forecast", "%v", err)
	}
	seen := make(map[string]struct{}, len(devices))
	for _, d := range devices {
		if err := d.Validate(); err != nil {
			return model.Schedule{}, configErr(d.ID, "%v", err)
		}
		if _, dup := seen[d.ID]; dup {
			return model.Schedule{}, configErr(d.ID, "duplicate device id")
		}
		seen[d.ID] = struct{}{}
	}

	ordered := make([]model.Device, len(devices))
	copy(ordered, devices)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	energies := series.Energies()
	sched := model.Schedule{Day: series.Day()}
	for _, d := range ordered {
		run, ok := e.place(series, energies, d, step)
		if !ok {
			sched.Infeasible = append(sched.Infeasible, model.InfeasibleDevice{
				DeviceID: d.ID,
				Reason:   model.ReasonWindowTooShort,
			})
			continue
		}
		sched.Runs = append(sched.Runs, run)
	}
	return sched, nil
}

// place enumerates every contiguous placement of the device inside its
// effective window and keeps the one overlapping the most forecast energy.
// Ties resolve to the earliest start.
func (e *Engine) place(series model.Series, energies []float64, d model.Device, step time.Duration) (model.ScheduledRun, bool) {
	win := d.EffectiveWindow()
	from := win.Start.On(series[0].Timestamp)
	to := win.End.On(series[0].Timestamp)

	lo := 0
	for lo < len(series) && series[lo].Timestamp.Before(from) {
		lo++
	}
	hi := len(series)
	for hi > lo && series[hi-1].Timestamp.Add(step).After(to) {
		hi--
	}

	n := d.RequiredBuckets
	if hi-lo < n {
		return model.ScheduledRun{}, false
	}

	best := -1
	bestScore := 0.0
	for i := lo; i+n <= hi; i++ {
		score := floats.Sum(energies[i : i+n])
		if best < 0 || score > bestScore {
			best, bestScore = i, score
		}
	}

	start := series[best].Timestamp
	return model.ScheduledRun{
		DeviceID: d.ID,
		Start:    start,
		End:      start.Add(time.Duration(n) * step),
		PowerKW:  d.PowerKW,
		EnergyWh: bestScore,
	}, true
}
