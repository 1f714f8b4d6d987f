package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	apischedule "github.com/kilianp07/solarflex/api/schedule"
	"github.com/kilianp07/solarflex/config"
	"github.com/kilianp07/solarflex/core/catalog"
	coremetrics "github.com/kilianp07/solarflex/core/metrics"
	"github.com/kilianp07/solarflex/core/model"
	"github.com/kilianp07/solarflex/core/planstore"
	"github.com/kilianp07/solarflex/core/pvmodel"
	"github.com/kilianp07/solarflex/core/scheduler"
	"github.com/kilianp07/solarflex/infra/logger"
	"github.com/kilianp07/solarflex/infra/metrics"
	"github.com/kilianp07/solarflex/infra/mqtt"
	"github.com/kilianp07/solarflex/infra/weather"
	"github.com/kilianp07/solarflex/internal/eventbus"
)

// Provider supplies the raw meteorological forecast for a calendar day.
type Provider interface {
	Fetch(ctx context.Context, day time.Time) ([]pvmodel.MeteoPoint, error)
	Location() *time.Location
}

// PlanComputed is published on the event bus after each successful
// scheduling invocation.
type PlanComputed struct {
	PlanID   string
	Forecast model.Series
	Schedule model.Schedule
	Elapsed  time.Duration
}

// Service orchestrates the forecast pipeline and the scheduling engine.
// The PV model is built once here and never mutated afterwards; the engine
// itself only ever sees the predicted series.
type Service struct {
	cfg      *config.Config
	provider Provider
	pv       *pvmodel.Model
	engine   *scheduler.Engine
	devices  []model.Device
	store    planstore.Store
	sink     coremetrics.PlannerSink
	ann      mqtt.Announcer
	bus      *eventbus.Bus
	log      logger.Logger
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	provider, err := weather.NewClient(cfg.Weather)
	if err != nil {
		return nil, fmt.Errorf("weather client: %w", err)
	}

	var ann mqtt.Announcer
	if cfg.MQTT.Enabled {
		ann, err = mqtt.NewPahoAnnouncer(cfg.MQTT)
		if err != nil {
			return nil, fmt.Errorf("mqtt announcer: %w", err)
		}
	}
	return newService(cfg, provider, ann)
}

// newService wires the remaining components. Split from New so tests can
// inject a fake provider and announcer.
func newService(cfg *config.Config, provider Provider, ann mqtt.Announcer) (*Service, error) {
	logg := logger.New("service")

	pv, err := pvmodel.New(cfg.PVModel)
	if err != nil {
		return nil, fmt.Errorf("pv model: %w", err)
	}
	engine, err := scheduler.New(cfg.Scheduler)
	if err != nil {
		return nil, fmt.Errorf("scheduler: %w", err)
	}
	devices, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	var sinks []coremetrics.PlannerSink
	if cfg.Metrics.PrometheusEnabled {
		sink, err := metrics.NewPromSink(cfg.Metrics)
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	if cfg.Metrics.InfluxEnabled {
		sinks = append(sinks, metrics.NewInfluxSinkWithFallback(
			cfg.Metrics.InfluxURL, cfg.Metrics.InfluxToken, cfg.Metrics.InfluxOrg, cfg.Metrics.InfluxBucket))
	}
	var sink coremetrics.PlannerSink = coremetrics.NopSink{}
	if len(sinks) == 1 {
		sink = sinks[0]
	} else if len(sinks) > 1 {
		sink = metrics.NewMultiSink(sinks...)
	}

	return &Service{
		cfg:      cfg,
		provider: provider,
		pv:       pv,
		engine:   engine,
		devices:  devices,
		store:    planstore.NewMemoryStore(),
		sink:     sink,
		ann:      ann,
		bus:      eventbus.New(),
		log:      logg,
	}, nil
}

// Run starts the service and blocks until the context is cancelled. The
// schedule is recomputed immediately and then on every refresh tick.
func (s *Service) Run(ctx context.Context) error {
	events := s.bus.Subscribe()
	go s.consume(events)

	if s.cfg.API.Enabled {
		go func() {
			if err := s.serveAPI(ctx); err != nil {
				s.log.Errorf("api server: %v", err)
			}
		}()
	}
	if s.cfg.Metrics.PrometheusEnabled {
		go func() {
			if err := metrics.StartPromServer(ctx, s.cfg.Metrics.PrometheusAddr); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	ticker := time.NewTicker(time.Duration(s.cfg.RefreshMinutes) * time.Minute)
	defer ticker.Stop()
	for {
		day := time.Now().In(s.provider.Location()).AddDate(0, 0, 1)
		if err := s.PlanOnce(ctx, day); err != nil {
			s.log.Errorf("plan: %v", err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// PlanOnce fetches the meteo forecast, predicts PV production and schedules
// the catalog for the given day. The result is stored for the API and
// published on the event bus.
func (s *Service) PlanOnce(ctx context.Context, day time.Time) error {
	started := time.Now()
	points, err := s.provider.Fetch(ctx, day)
	if err != nil {
		return fmt.Errorf("weather fetch: %w", err)
	}
	series, err := s.pv.Predict(points, s.engine.Step())
	if err != nil {
		return fmt.Errorf("pv prediction: %w", err)
	}
	sched, err := s.engine.Schedule(series, s.devices)
	if err != nil {
		return fmt.Errorf("schedule: %w", err)
	}

	planID := uuid.NewString()
	s.store.Set(planstore.Snapshot{
		PlanID:     planID,
		ComputedAt: time.Now(),
		Forecast:   series,
		Schedule:   sched,
	})
	s.bus.Publish(PlanComputed{
		PlanID:   planID,
		Forecast: series,
		Schedule: sched,
		Elapsed:  time.Since(started),
	})
	s.log.Infof("plan %s for %s: %d runs, %d infeasible",
		planID, sched.Day.Format("2006-01-02"), len(sched.Runs), len(sched.Infeasible))
	return nil
}

// consume records metrics and announces schedules off the planning path.
func (s *Service) consume(events <-chan eventbus.Event) {
	for ev := range events {
		pc, ok := ev.(PlanComputed)
		if !ok {
			continue
		}
		if err := s.sink.RecordPlan(coremetrics.PlanEvent{
			PlanID:          pc.PlanID,
			Day:             pc.Schedule.Day,
			ScheduledRuns:   len(pc.Schedule.Runs),
			InfeasibleLoads: len(pc.Schedule.Infeasible),
			ForecastWh:      pc.Forecast.TotalEnergy(),
			Elapsed:         pc.Elapsed,
			Time:            time.Now(),
		}); err != nil {
			s.log.Errorf("record plan: %v", err)
		}
		runs := make([]coremetrics.RunEvent, 0, len(pc.Schedule.Runs))
		for _, r := range pc.Schedule.Runs {
			runs = append(runs, coremetrics.RunEvent{
				PlanID:   pc.PlanID,
				DeviceID: r.DeviceID,
				Start:    r.Start,
				End:      r.End,
				PowerKW:  r.PowerKW,
				EnergyWh: r.EnergyWh,
			})
		}
		if err := s.sink.RecordRuns(runs); err != nil {
			s.log.Errorf("record runs: %v", err)
		}
		if s.ann != nil {
			if err := s.ann.AnnounceSchedule(pc.PlanID, pc.Schedule); err != nil {
				s.log.Errorf("announce schedule: %v", err)
			}
		}
	}
}

func (s *Service) serveAPI(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle("/api/schedule", apischedule.NewHandler(s.store))
	mux.Handle("/api/forecast", apischedule.NewForecastHandler(s.store))
	srv := &http.Server{Addr: s.cfg.API.Addr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Errorf("api shutdown: %v", err)
		}
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Latest exposes the most recent planning snapshot.
func (s *Service) Latest() (planstore.Snapshot, bool) {
	return s.store.Latest()
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	s.bus.Close()
	if s.ann != nil {
		s.ann.Close()
	}
	return nil
}
