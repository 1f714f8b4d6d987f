package scheduler

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config defines planning parameters loaded from configuration.
type Config struct {
	// SlotDurationMinutes is the bucket resolution shared by the forecast
	// and the schedule.
	SlotDurationMinutes int `json:"slot_duration_minutes" yaml:"slot_duration_minutes"`
}

// SetDefaults applies the 30-minute bucket resolution used on site.
func (c *Config) SetDefaults() {
	if c.SlotDurationMinutes == 0 {
		c.SlotDurationMinutes = 30
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	if c.SlotDurationMinutes <= 0 {
		return configErr("engine", "slot_duration_minutes must be positive, got %d", c.SlotDurationMinutes)
	}
	return nil
}

// LoadConfig loads Config from a JSON or YAML file.
func LoadConfig(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	ext := strings.ToLower(filepath.Ext(path))
	var cfg Config
	switch ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &cfg)
	case ".json":
		err = json.Unmarshal(b, &cfg)
	default:
		return Config{}, fmt.Errorf("unsupported config format: %s", ext)
	}
	return cfg, err
}

// DecodeConfig reads from r to decode a Config.
func DecodeConfig(r io.Reader, format string) (Config, error) {
	var cfg Config
	switch strings.ToLower(format) {
	case "yaml", "yml":
		if err := yaml.NewDecoder(r).Decode(&cfg); err != nil {
			return cfg, err
		}
	case "json":
		if err := json.NewDecoder(r).Decode(&cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported format: %s", format)
	}
	return cfg, nil
}
