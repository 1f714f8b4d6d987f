package model

import "time"

// InfeasibleReason explains why a device could not be placed.
type InfeasibleReason string

// ReasonWindowTooShort marks a device whose effective window holds no
// contiguous placement of the required length.
const ReasonWindowTooShort InfeasibleReason = "WINDOW_TOO_SHORT"

// ScheduledRun is the planned run interval for one device.
type ScheduledRun struct {
	DeviceID string    `json:"device_id"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	PowerKW  float64   `json:"power_kw"`
	// EnergyWh is the forecasted solar energy overlapping the run.
	EnergyWh float64 `json:"energy_wh"`
}

// InfeasibleDevice records a device that could not be scheduled.
type InfeasibleDevice struct {
	DeviceID string           `json:"device_id"`
	Reason   InfeasibleReason `json:"reason"`
}

// Schedule is the engine's output: one run per placed device plus the list
// of devices that could not be placed. Every input device appears in exactly
// one of the two lists.
type Schedule struct {
	Day        time.Time          `json:"day"`
	Runs       []ScheduledRun     `json:"runs"`
	Infeasible []InfeasibleDevice `json:"infeasible"`
}
