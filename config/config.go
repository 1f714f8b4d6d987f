package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	coremetrics "github.com/kilianp07/solarflex/core/metrics"
	"github.com/kilianp07/solarflex/core/pvmodel"
	"github.com/kilianp07/solarflex/core/scheduler"
	"github.com/kilianp07/solarflex/infra/mqtt"
	"github.com/kilianp07/solarflex/infra/weather"
)

// APIConfig defines the HTTP surface exposing schedule and forecast.
type APIConfig struct {
	Enabled bool   `json:"enabled"`
	Addr    string `json:"addr"`
}

// SetDefaults applies sane defaults.
func (c *APIConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
}

type Config struct {
	Weather   weather.Config     `json:"weather"`
	PVModel   pvmodel.Config     `json:"pv_model"`
	Scheduler scheduler.Config   `json:"scheduler"`
	Metrics   coremetrics.Config `json:"metrics"`
	MQTT      mqtt.Config        `json:"mqtt"`
	API       APIConfig          `json:"api"`
	// CatalogPath locates the device catalog file (YAML or JSON).
	CatalogPath string `json:"catalog_path"`
	// RefreshMinutes is the replanning interval while the service runs.
	RefreshMinutes int `json:"refresh_minutes"`
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("SF_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "sf_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.Weather.SetDefaults()
	cfg.PVModel.SetDefaults()
	cfg.Scheduler.SetDefaults()
	cfg.Metrics.SetDefaults()
	cfg.MQTT.SetDefaults()
	cfg.API.SetDefaults()
	if cfg.RefreshMinutes <= 0 {
		cfg.RefreshMinutes = 15
	}
	if cfg.CatalogPath == "" {
		return nil, fmt.Errorf("catalog_path is required")
	}
	if err := cfg.Weather.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.PVModel.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Scheduler.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
