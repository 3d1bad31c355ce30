package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/kilianp07/batterysim/config"
)

func TestRunFleetInMemory(t *testing.T) {
	cfg := config.Config{}
	cfg.Simulation.Vehicles = []string{"VEH001", "VEH002"}
	cfg.Simulation.Profile = "commuter"
	cfg.Simulation.Days = 1
	cfg.Simulation.Seed = 9
	cfg.SetDefaults()

	summaries, err := New(cfg, nil).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("expected 2 summaries, got %d", len(summaries))
	}
	if summaries[0].VehicleID != "VEH001" || summaries[1].VehicleID != "VEH002" {
		t.Fatalf("summaries out of vehicle order: %+v", summaries)
	}
	for _, s := range summaries {
		if s.Records != 86400 {
			t.Fatalf("vehicle %s: %d records, want 86400", s.VehicleID, s.Records)
		}
	}
}

func TestRunWritesSQLite(t *testing.T) {
	cfg := config.Config{}
	cfg.Simulation.Vehicles = []string{"VEH001"}
	cfg.Simulation.Profile = "common_driver"
	cfg.Simulation.Days = 1
	cfg.Sinks.SQLite.Enabled = true
	cfg.Sinks.SQLite.Path = filepath.Join(t.TempDir(), "out.db")
	cfg.SetDefaults()

	summaries, err := New(cfg, nil).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summaries[0].RowsWritten != 86400 {
		t.Fatalf("rows written = %d, want 86400", summaries[0].RowsWritten)
	}
}
