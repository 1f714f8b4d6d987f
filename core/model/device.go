package model

import (
	"fmt"
	"time"
)

// ClockTime is a time of day expressed as minutes since midnight.
// The value 1440 denotes end of day and is only valid as a window end.
type ClockTime int

// ParseClock parses a "HH:MM" string into a ClockTime. "24:00" is accepted
// as end of day.
func ParseClock(s string) (ClockTime, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("invalid clock time %q", s)
	}
	if m < 0 || m > 59 || h < 0 || h > 24 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("invalid clock time %q", s)
	}
	return ClockTime(h*60 + m), nil
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// On resolves the clock time onto the calendar day of t, in t's location.
func (c ClockTime) On(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location()).Add(time.Duration(c) * time.Minute)
}

// ClockWindow is a [Start, End) time-of-day range.
type ClockWindow struct {
	Start ClockTime `json:"start"`
	End   ClockTime `json:"end"`
}

// Device describes one deferrable load from the catalog.
type Device struct {
	ID              string      `json:"id"`
	PowerKW         float64     `json:"power_kw"`
	RequiredBuckets int         `json:"required_buckets"`
	Window          ClockWindow `json:"window"`
	// FinishBy narrows the operating window with a hard completion deadline.
	FinishBy *ClockTime `json:"finish_by,omitempty"`
	// Contiguous requires the runtime to be a single unbroken block.
	// Split runs are not supported, so this must be true.
	Contiguous bool `json:"contiguous"`
}

// Validate checks that the device definition is internally consistent.
func (d Device) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("device id is empty")
	}
	if d.PowerKW <= 0 {
		return fmt.Errorf("power_kw must be positive, got %.2f", d.PowerKW)
	}
	if d.RequiredBuckets < 1 {
		return fmt.Errorf("required_buckets must be at least 1, got %d", d.RequiredBuckets)
	}
	if d.Window.Start >= d.Window.End {
		return fmt.Errorf("operating window %s-%s is inverted or empty", d.Window.Start, d.Window.End)
	}
	if !d.Contiguous {
		return fmt.Errorf("split runs are not supported")
	}
	return nil
}

// EffectiveWindow returns the operating window narrowed by the finish-by
// deadline, if one is set. The result may be empty, which makes the device
// infeasible rather than invalid.
func (d Device) EffectiveWindow() ClockWindow {
	win := d.Window
	if d.FinishBy != nil && *d.FinishBy < win.End {
		win.End = *d.FinishBy
	}
	return win
}
