package scheduler

import (
	"bytes"
	"encoding/json"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/kilianp07/solarflex/core/model"
)

var day = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

func series(startMin int, energies ...float64) model.Series {
	s := make(model.Series, len(energies))
	for i, e := range energies {
		s[i] = model.ForecastSample{
			Timestamp: day.Add(time.Duration(startMin+i*30) * time.Minute),
			EnergyWh:  e,
		}
	}
	return s
}

func device(id string, buckets int, start, end model.ClockTime) model.Device {
	return model.Device{
		ID:              id,
		PowerKW:         1,
		RequiredBuckets: buckets,
		Window:          model.ClockWindow{Start: start, End: end},
		Contiguous:      true,
	}
}

func newEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := New(Config{SlotDurationMinutes: 30})
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	return e
}

func TestSchedulePicksPeakPair(t *testing.T) {
	// 4 buckets from 08:00, device needs 2 contiguous buckets anywhere
	// inside them: the 5+10 pair must win.
	e := newEngine(t)
	s := series(480, 0, 5, 10, 2)
	d := device("oven", 2, 480, 600)

	sched, err := e.Schedule(s, []model.Device{d})
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if len(sched.Runs) != 1 || len(sched.Infeasible) != 0 {
		t.Fatalf("unexpected result %+v", sched)
	}
	run := sched.Runs[0]
	wantStart := day.Add(510 * time.Minute) // 08:30
	if !run.Start.Equal(wantStart) {
		t.Fatalf("start %v want %v", run.Start, wantStart)
	}
	if !run.End.Equal(wantStart.Add(time.Hour)) {
		t.Fatalf("end %v", run.End)
	}
	if run.EnergyWh != 15 {
		t.Fatalf("energy %v want 15", run.EnergyWh)
	}
}

func TestScheduleWindowTooShort(t *testing.T) {
	// device needs 3 buckets but its window only spans 2
	e := newEngine(t)
	s := series(480, 1, 2, 3, 4)
	d := device("dryer", 3, 480, 540)

	sched, err := e.Schedule(s, []model.Device{d})
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if len(sched.Runs) != 0 {
		t.Fatalf("expected no runs, got %+v", sched.Runs)
	}
	if len(sched.Infeasible) != 1 || sched.Infeasible[0].Reason != model.ReasonWindowTooShort {
		t.Fatalf("expected WINDOW_TOO_SHORT, got %+v", sched.Infeasible)
	}
}

func TestScheduleTieBreaksEarliest(t *testing.T) {
	e := newEngine(t)
	s := series(480, 5, 5, 0, 5, 5)
	d := device("pump", 2, 480, 720)

	sched, err := e.Schedule(s, []model.Device{d})
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if len(sched.Runs) != 1 {
		t.Fatalf("expected one run, got %+v", sched)
	}
	if !sched.Runs[0].Start.Equal(day.Add(480 * time.Minute)) {
		t.Fatalf("tie should pick earliest start, got %v", sched.Runs[0].Start)
	}
}

func TestScheduleFinishByNarrowsWindow(t *testing.T) {
	e := newEngine(t)
	s := series(480, 0, 1, 2, 10, 10)
	d := device("heater", 2, 480, 630)
	deadline := model.ClockTime(570) // 09:30: only the first two buckets qualify
	d.FinishBy = &deadline

	sched, err := e.Schedule(s, []model.Device{d})
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if len(sched.Runs) != 1 {
		t.Fatalf("expected one run, got %+v", sched)
	}
	run := sched.Runs[0]
	if !run.End.Equal(day.Add(570 * time.Minute)) {
		t.Fatalf("run must finish by the deadline, ends %v", run.End)
	}
	if run.EnergyWh != 3 {
		t.Fatalf("energy %v want 3", run.EnergyWh)
	}
}

func TestScheduleTotality(t *testing.T) {
	e := newEngine(t)
	s := series(480, 3, 1, 4, 1, 5)
	devices := []model.Device{
		device("a", 2, 480, 630),
		device("b", 10, 480, 630), // cannot fit
		device("c", 1, 480, 630),
	}

	sched, err := e.Schedule(s, devices)
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	placed := map[string]bool{}
	for _, r := range sched.Runs {
		placed[r.DeviceID] = true
	}
	for _, inf := range sched.Infeasible {
		if placed[inf.DeviceID] {
			t.Fatalf("device %s in both lists", inf.DeviceID)
		}
		placed[inf.DeviceID] = true
	}
	if len(placed) != len(devices) {
		t.Fatalf("expected all %d devices accounted for, got %d", len(devices), len(placed))
	}
}

func TestScheduleOptimality(t *testing.T) {
	// brute-force every placement and check the engine never does worse
	e := newEngine(t)
	s := series(0, 0, 2, 7, 3, 9, 9, 1, 0)
	d := device("mill", 3, 0, 240)

	sched, err := e.Schedule(s, []model.Device{d})
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if len(sched.Runs) != 1 {
		t.Fatalf("expected one run")
	}
	got := sched.Runs[0].EnergyWh

	best := -1.0
	for i := 0; i+3 <= len(s); i++ {
		sum := s[i].EnergyWh + s[i+1].EnergyWh + s[i+2].EnergyWh
		if sum > best {
			best = sum
		}
	}
	if got != best {
		t.Fatalf("engine score %v, brute force %v", got, best)
	}
}

func TestScheduleDeterminism(t *testing.T) {
	e := newEngine(t)
	s := series(480, 1, 1, 2, 2, 3, 3)
	devices := []model.Device{
		device("z", 2, 480, 660),
		device("a", 2, 480, 660),
		device("m", 4, 480, 540),
	}

	first, err := e.Schedule(s, devices)
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	second, err := e.Schedule(s, devices)
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("schedules differ:\n%+v\n%+v", first, second)
	}
	b1, _ := json.Marshal(first)
	b2, _ := json.Marshal(second)
	if !bytes.Equal(b1, b2) {
		t.Fatalf("serialized schedules differ")
	}
	// output ordering follows device id, not input order
	if first.Runs[0].DeviceID != "a" || first.Runs[1].DeviceID != "z" {
		t.Fatalf("runs not in id order: %+v", first.Runs)
	}
}

func TestScheduleMonotonicInfeasibility(t *testing.T) {
	e := newEngine(t)
	s := series(480, 1, 2, 3, 4)
	d := device("fan", 3, 480, 540)

	sched, err := e.Schedule(s, []model.Device{d})
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if len(sched.Infeasible) != 1 {
		t.Fatalf("expected infeasible baseline")
	}

	// narrower window stays infeasible
	d.Window.End = 510
	sched, err = e.Schedule(s, []model.Device{d})
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if len(sched.Infeasible) != 1 {
		t.Fatalf("narrowed window must remain infeasible")
	}
}

func TestScheduleConfigurationErrors(t *testing.T) {
	e := newEngine(t)
	good := series(480, 1, 2, 3)

	if _, err := e.Schedule(model.Series{}, nil); err == nil {
		t.Fatalf("expected error for empty forecast")
	}

	gap := series(480, 1, 2, 3)
	gap[2].Timestamp = gap[2].Timestamp.Add(30 * time.Minute)
	_, err := e.Schedule(gap, nil)
	var cerr *ConfigurationError
	if !errors.As(err, &cerr) || cerr.Subject != "forecast" {
		t.Fatalf("expected forecast configuration error, got %v", err)
	}

	bad := device("x", 0, 480, 540)
	if _, err := e.Schedule(good, []model.Device{bad}); err == nil {
		t.Fatalf("expected error for zero runtime")
	}

	dup := []model.Device{device("x", 1, 480, 540), device("x", 1, 480, 540)}
	_, err = e.Schedule(good, dup)
	if !errors.As(err, &cerr) || cerr.Subject != "x" {
		t.Fatalf("expected duplicate id error, got %v", err)
	}
}

func TestScheduleWindowOutsideSeries(t *testing.T) {
	e := newEngine(t)
	s := series(480, 1, 2, 3)
	d := device("night", 2, 1200, 1320)

	sched, err := e.Schedule(s, []model.Device{d})
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if len(sched.Infeasible) != 1 {
		t.Fatalf("window outside the series must be infeasible")
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	if _, err := New(Config{SlotDurationMinutes: -1}); err == nil {
		t.Fatalf("expected error")
	}
	e, err := New(Config{})
	if err != nil {
		t.Fatalf("defaults should apply: %v", err)
	}
	if e.Step() != 30*time.Minute {
		t.Fatalf("default step %v", e.Step())
	}
}
