package metrics

import "time"

// PlanEvent summarises one scheduling invocation.
type PlanEvent struct {
	PlanID          string
	Day             time.Time
	ScheduledRuns   int
	InfeasibleLoads int
	ForecastWh      float64
	Elapsed         time.Duration
	Time            time.Time
}

// RunEvent records one placed device run.
type RunEvent struct {
	PlanID   string
	DeviceID string
	Start    time.Time
	End      time.Time
	PowerKW  float64
	EnergyWh float64
}

// PlannerSink records scheduling outcomes for observability purposes.
type PlannerSink interface {
	RecordPlan(ev PlanEvent) error
	RecordRuns(runs []RunEvent) error
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) RecordPlan(PlanEvent) error  { return nil }
func (NopSink) RecordRuns([]RunEvent) error { return nil }
