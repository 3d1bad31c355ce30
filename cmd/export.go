package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/batterysim/config"
	"github.com/kilianp07/batterysim/core/model"
	"github.com/kilianp07/batterysim/core/sim"
	"github.com/kilianp07/batterysim/infra/logger"
	"github.com/kilianp07/batterysim/pkg/export"
)

var (
	exportCSVPath  string
	exportJSONPath string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Run one vehicle and write the telemetry to CSV/JSON files",
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportCSVPath, "csv", "", "write telemetry CSV to this path")
	exportCmd.Flags().StringVar(&exportJSONPath, "json", "", "write a plot bundle JSON to this path")
	rootCmd.AddCommand(exportCmd)
}

// memorySink captures everything for post-run export.
type memorySink struct {
	mu      sync.Mutex
	records []model.TelemetryRecord
	events  []model.AnomalyEvent
}

func (m *memorySink) WriteTelemetry(_ context.Context, records []model.TelemetryRecord) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, records...)
	return len(records), nil
}

func (m *memorySink) WriteEvents(_ context.Context, events []model.AnomalyEvent) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, events...)
	return len(events), nil
}

func (m *memorySink) Close() error { return nil }

func runExport(cmd *cobra.Command, args []string) error {
	if exportCSVPath == "" && exportJSONPath == "" {
		return fmt.Errorf("nothing to do: pass --csv and/or --json")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	vehicleID := cfg.Simulation.Vehicles[0]

	engine, err := sim.New(sim.Options{
		VehicleID:         vehicleID,
		Profile:           cfg.Simulation.Profile,
		Days:              cfg.Simulation.Days,
		Seed:              cfg.Simulation.Seed,
		Start:             cfg.StartTime(),
		Archetype:         sim.Archetype(cfg.Simulation.Archetype),
		AnnualFadePercent: cfg.Simulation.AnnualFadePercent,
		Anomalies:         cfg.Simulation.Anomalies,
	}, logger.New("export"))
	if err != nil {
		return err
	}

	capture := &memorySink{}
	summary, err := engine.Run(ctx, capture)
	if err != nil {
		return err
	}

	if exportCSVPath != "" {
		if err := writeFile(exportCSVPath, func(f *os.File) error {
			return export.WriteCSV(f, capture.records)
		}); err != nil {
			return err
		}
	}
	if exportJSONPath != "" {
		bundle := export.BuildPlotBundle(vehicleID, capture.records, nil, capture.events)
		if err := writeFile(exportJSONPath, func(f *os.File) error {
			return export.WriteJSON(f, bundle)
		}); err != nil {
			return err
		}
	}

	fmt.Printf("%s: exported %d records, %d anomaly events\n", vehicleID, summary.Records, len(capture.events))
	return nil
}

func writeFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	if err := write(f); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
