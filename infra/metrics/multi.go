package metrics

import coremetrics "github.com/kilianp07/solarflex/core/metrics"

// MultiSink fans planning events out to multiple sinks.
type MultiSink struct {
	Sinks []coremetrics.PlannerSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...coremetrics.PlannerSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordPlan forwards the event to all sinks, returning the first error
// encountered.
func (m *MultiSink) RecordPlan(ev coremetrics.PlanEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordPlan(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordRuns forwards the run records to all sinks.
func (m *MultiSink) RecordRuns(runs []coremetrics.RunEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordRuns(runs); err != nil {
			return err
		}
	}
	return nil
}
