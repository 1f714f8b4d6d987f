package catalog

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/solarflex/core/model"
)

// deviceSpec is the on-disk form of a device definition. Clock times are
// written as "HH:MM" strings.
type deviceSpec struct {
	ID              string  `json:"id" yaml:"id"`
	PowerKW         float64 `json:"power_kw" yaml:"power_kw"`
	RequiredBuckets int     `json:"required_buckets" yaml:"required_buckets"`
	WindowStart     string  `json:"window_start" yaml:"window_start"`
	WindowEnd       string  `json:"window_end" yaml:"window_end"`
	FinishBy        string  `json:"finish_by,omitempty" yaml:"finish_by,omitempty"`
}

type catalogFile struct {
	Devices []deviceSpec `json:"devices" yaml:"devices"`
}

// Load reads a device catalog from a JSON or YAML file.
func Load(path string) ([]model.Device, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	return Decode(f, ext)
}

// Decode parses a catalog from r in the given format ("yaml" or "json") and
// validates every device. Feasibility against a concrete forecast is the
// scheduler's job; Decode only rejects definitions that are malformed on
// their own.
func Decode(r io.Reader, format string) ([]model.Device, error) {
	var cf catalogFile
	switch strings.ToLower(format) {
	case "yaml", "yml":
		if err := yaml.NewDecoder(r).Decode(&cf); err != nil {
			return nil, fmt.Errorf("decode catalog: %w", err)
		}
	case "json":
		if err := json.NewDecoder(r).Decode(&cf); err != nil {
			return nil, fmt.Errorf("decode catalog: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported catalog format: %s", format)
	}

	devices := make([]model.Device, 0, len(cf.Devices))
	seen := make(map[string]struct{}, len(cf.Devices))
	for _, ds := range cf.Devices {
		d, err := ds.toDevice()
		if err != nil {
			return nil, fmt.Errorf("device %q: %w", ds.ID, err)
		}
		if _, dup := seen[d.ID]; dup {
			return nil, fmt.Errorf("device %q: duplicate id", d.ID)
		}
		seen[d.ID] = struct{}{}
		devices = append(devices, d)
	}
	return devices, nil
}

func (ds deviceSpec) toDevice() (model.Device, error) {
	start, err := model.ParseClock(ds.WindowStart)
	if err != nil {
		return model.Device{}, fmt.Errorf("window_start: %w", err)
	}
	end, err := model.ParseClock(ds.WindowEnd)
	if err != nil {
		return model.Device{}, fmt.Errorf("window_end: %w", err)
	}
	d := model.Device{
		ID:              ds.ID,
		PowerKW:         ds.PowerKW,
		RequiredBuckets: ds.RequiredBuckets,
		Window:          model.ClockWindow{Start: start, End: end},
		Contiguous:      true,
	}
	if ds.FinishBy != "" {
		fb, err := model.ParseClock(ds.FinishBy)
		if err != nil {
			return model.Device{}, fmt.Errorf("finish_by: %w", err)
		}
		d.FinishBy = &fb
	}
	if err := d.Validate(); err != nil {
		return model.Device{}, err
	}
	return d, nil
}
