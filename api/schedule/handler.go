package schedule

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/kilianp07/solarflex/core/model"
	"github.com/kilianp07/solarflex/core/planstore"
)

// NewHandler returns an HTTP handler exposing the latest schedule via
// GET /api/schedule.
func NewHandler(store planstore.Store) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		sn, ok := store.Latest()
		if !ok {
			http.Error(w, "no schedule computed yet", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		out := struct {
			PlanID     string         `json:"plan_id"`
			ComputedAt time.Time      `json:"computed_at"`
			Schedule   model.Schedule `json:"schedule"`
		}{sn.PlanID, sn.ComputedAt, sn.Schedule}
		if err := json.NewEncoder(w).Encode(out); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	})
}

// NewForecastHandler returns an HTTP handler exposing the forecast series
// the latest schedule was computed from via GET /api/forecast.
func NewForecastHandler(store planstore.Store) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		sn, ok := store.Latest()
		if !ok {
			http.Error(w, "no forecast available yet", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(sn.Forecast); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	})
}
