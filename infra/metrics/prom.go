package metrics

import (
	coremetrics "github.com/kilianp07/solarflex/core/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// PromSink records planning events in Prometheus metrics.
type PromSink struct {
	plans      prometheus.Counter
	runs       *prometheus.CounterVec
	infeasible prometheus.Counter
	forecast   prometheus.Gauge
	elapsed    prometheus.Histogram
}

// NewPromSink registers planner metrics on the default Prometheus
// registerer. The Prometheus server should be started separately using
// cfg.PrometheusAddr.
func NewPromSink(cfg coremetrics.Config) (coremetrics.PlannerSink, error) {
	return NewPromSinkWithRegistry(cfg, prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(_ coremetrics.Config, reg prometheus.Registerer) (coremetrics.PlannerSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{
		plans: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "planner_plans_total",
			Help: "Total number of computed plans",
		}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "planner_scheduled_runs_total",
			Help: "Total number of scheduled device runs",
		}, []string{"device_id"}),
		infeasible: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "planner_infeasible_devices_total",
			Help: "Total number of devices reported infeasible",
		}),
		forecast: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "planner_forecast_energy_wh",
			Help: "Forecasted PV energy of the latest plan horizon",
		}),
		elapsed: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "planner_plan_duration_seconds",
			Help:    "Time spent computing a plan, weather fetch included",
			Buckets: prometheus.DefBuckets,
		}),
	}
	for _, c := range []prometheus.Collector{s.plans, s.runs, s.infeasible, s.forecast, s.elapsed} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return nil, err
			}
		}
	}
	return s, nil
}

// RecordPlan updates the plan-level counters and gauges.
func (s *PromSink) RecordPlan(ev coremetrics.PlanEvent) error {
	s.plans.Inc()
	s.infeasible.Add(float64(ev.InfeasibleLoads))
	s.forecast.Set(ev.ForecastWh)
	s.elapsed.Observe(ev.Elapsed.Seconds())
	return nil
}

// RecordRuns increments the per-device run counter.
func (s *PromSink) RecordRuns(runs []coremetrics.RunEvent) error {
	for _, r := range runs {
		s.runs.WithLabelValues(r.DeviceID).Inc()
	}
	return nil
}
