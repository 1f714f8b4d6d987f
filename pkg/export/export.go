package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"time"

	"github.com/kilianp07/solarflex/core/model"
)

// WriteJSON writes the schedule to w in JSON format.
func WriteJSON(w io.Writer, sched model.Schedule) error {
	enc := json.NewEncoder(w)
	return enc.Encode(sched)
}

// WriteCSV writes the schedule to w in CSV format. Placed devices carry
// their run interval, infeasible ones carry the reason.
func WriteCSV(w io.Writer, sched model.Schedule) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"device_id", "status", "start", "end", "power_kw", "energy_wh", "reason"}); err != nil {
		return err
	}
	for _, run := range sched.Runs {
		rec := []string{
			run.DeviceID,
			"scheduled",
			run.Start.Format(time.RFC3339),
			run.End.Format(time.RFC3339),
			strconv.FormatFloat(run.PowerKW, 'f', -1, 64),
			strconv.FormatFloat(run.EnergyWh, 'f', -1, 64),
			"",
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	for _, inf := range sched.Infeasible {
		rec := []string{inf.DeviceID, "infeasible", "", "", "", "", string(inf.Reason)}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
