package schedule

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kilianp07/solarflex/core/model"
	"github.com/kilianp07/solarflex/core/planstore"
)

func populatedStore() *planstore.MemoryStore {
	store := planstore.NewMemoryStore()
	start := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)
	store.Set(planstore.Snapshot{
		PlanID:     "p1",
		ComputedAt: start,
		Forecast: model.Series{
			{Timestamp: start, EnergyWh: 100},
			{Timestamp: start.Add(30 * time.Minute), EnergyWh: 200},
		},
		Schedule: model.Schedule{
			Day: start,
			Runs: []model.ScheduledRun{
				{DeviceID: "pump-1", Start: start, End: start.Add(time.Hour), PowerKW: 1.5, EnergyWh: 300},
			},
			Infeasible: []model.InfeasibleDevice{
				{DeviceID: "heater-9", Reason: model.ReasonWindowTooShort},
			},
		},
	})
	return store
}

func TestScheduleHandler_Basic(t *testing.T) {
	h := NewHandler(populatedStore())
	rr := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/schedule", nil)
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d", rr.Code)
	}
	var out struct {
		PlanID   string         `json:"plan_id"`
		Schedule model.Schedule `json:"schedule"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.PlanID != "p1" || len(out.Schedule.Runs) != 1 || len(out.Schedule.Infeasible) != 1 {
		t.Fatalf("unexpected output %#v", out)
	}
	if out.Schedule.Infeasible[0].Reason != model.ReasonWindowTooShort {
		t.Fatalf("reason %q", out.Schedule.Infeasible[0].Reason)
	}
}

func TestScheduleHandler_Empty(t *testing.T) {
	h := NewHandler(planstore.NewMemoryStore())
	rr := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/schedule", nil)
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status %d", rr.Code)
	}
}

func TestScheduleHandler_MethodNotAllowed(t *testing.T) {
	h := NewHandler(populatedStore())
	rr := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/schedule", nil)
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status %d", rr.Code)
	}
}

func TestForecastHandler_Basic(t *testing.T) {
	h := NewForecastHandler(populatedStore())
	rr := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/forecast", nil)
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d", rr.Code)
	}
	var out model.Series
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != 2 || out[1].EnergyWh != 200 {
		t.Fatalf("unexpected forecast %#v", out)
	}
}

func TestForecastHandler_Empty(t *testing.T) {
	h := NewForecastHandler(planstore.NewMemoryStore())
	rr := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/forecast", nil)
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status %d", rr.Code)
	}
}
