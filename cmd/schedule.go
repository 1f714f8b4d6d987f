package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kilianp07/solarflex/core/catalog"
	"github.com/kilianp07/solarflex/core/model"
	"github.com/kilianp07/solarflex/core/scheduler"
	"github.com/kilianp07/solarflex/pkg/export"
)

var (
	forecastPath string
	catalogPath  string
	schedPath    string
	outFormat    string
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Compute a one-shot schedule from a forecast file and a catalog",
	RunE:  scheduleOnce,
}

func init() {
	scheduleCmd.Flags().StringVar(&forecastPath, "forecast", "", "JSON file with the forecast series")
	scheduleCmd.Flags().StringVar(&catalogPath, "catalog", "", "device catalog file (YAML or JSON)")
	scheduleCmd.Flags().StringVar(&schedPath, "scheduler-config", "", "scheduler config file, defaults apply if omitted")
	scheduleCmd.Flags().StringVar(&outFormat, "format", "csv", "output format: csv or json")
	rootCmd.AddCommand(scheduleCmd)
}

func scheduleOnce(cmd *cobra.Command, args []string) error {
	if forecastPath == "" || catalogPath == "" {
		return fmt.Errorf("--forecast and --catalog are required")
	}

	b, err := os.ReadFile(forecastPath)
	if err != nil {
		return fmt.Errorf("read forecast: %w", err)
	}
	var series model.Series
	if err := json.Unmarshal(b, &series); err != nil {
		return fmt.Errorf("decode forecast: %w", err)
	}

	devices, err := catalog.Load(catalogPath)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	var cfg scheduler.Config
	if schedPath != "" {
		if cfg, err = scheduler.LoadConfig(schedPath); err != nil {
			return fmt.Errorf("load scheduler config: %w", err)
		}
	}
	engine, err := scheduler.New(cfg)
	if err != nil {
		return err
	}

	sched, err := engine.Schedule(series, devices)
	if err != nil {
		return err
	}

	switch outFormat {
	case "csv":
		return export.WriteCSV(os.Stdout, sched)
	case "json":
		return export.WriteJSON(os.Stdout, sched)
	default:
		return fmt.Errorf("unsupported format: %s", outFormat)
	}
}
