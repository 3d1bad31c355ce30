package sim

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/kilianp07/batterysim/core/behavior"
	"github.com/kilianp07/batterysim/core/model"
)

type captureSink struct {
	records []model.TelemetryRecord
	events  []model.AnomalyEvent
}

func (c *captureSink) WriteTelemetry(_ context.Context, records []model.TelemetryRecord) (int, error) {
	c.records = append(c.records, records...)
	return len(records), nil
}

func (c *captureSink) WriteEvents(_ context.Context, events []model.AnomalyEvent) (int, error) {
	c.events = append(c.events, events...)
	return len(events), nil
}

func (c *captureSink) Close() error { return nil }

func runEngine(t *testing.T, opts Options) (Summary, *captureSink) {
	t.Helper()
	e, err := New(opts, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	out := &captureSink{}
	summary, err := e.Run(context.Background(), out)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return summary, out
}

func TestNewRejectsUnknownVehicle(t *testing.T) {
	_, err := New(Options{VehicleID: "VEH999", Profile: "commuter"}, nil)
	if !errors.Is(err, model.ErrUnknownVehicle) {
		t.Fatalf("expected ErrUnknownVehicle, got %v", err)
	}
}

func TestNewRejectsUnknownProfile(t *testing.T) {
	_, err := New(Options{VehicleID: "VEH001", Profile: "road_rager"}, nil)
	if !errors.Is(err, behavior.ErrUnknownProfile) {
		t.Fatalf("expected ErrUnknownProfile, got %v", err)
	}
}

func TestRunProducesOneRecordPerSecond(t *testing.T) {
	summary, out := runEngine(t, Options{
		VehicleID: "VEH001",
		Profile:   "commuter",
		Days:      1,
		Seed:      7,
	})

	if len(out.records) != secondsPerDay {
		t.Fatalf("expected %d records, got %d", secondsPerDay, len(out.records))
	}
	if summary.Records != secondsPerDay || summary.RowsWritten != secondsPerDay {
		t.Fatalf("summary counters off: %+v", summary)
	}
	if !out.records[0].Time.Before(out.records[1].Time) {
		t.Fatal("records not in time order")
	}
}

func TestRunKeepsStateWithinBounds(t *testing.T) {
	_, out := runEngine(t, Options{
		VehicleID: "VEH002",
		Profile:   "spontaneous",
		Days:      3,
		Seed:      11,
		Anomalies: true,
	})

	for i, r := range out.records {
		if r.SoCPercent < 0 || r.SoCPercent > 100 {
			t.Fatalf("record %d: SoC %f out of bounds", i, r.SoCPercent)
		}
		if r.SoHPercent < 70 || r.SoHPercent > 100 {
			t.Fatalf("record %d: SoH %f out of bounds", i, r.SoHPercent)
		}
		if r.MinCellTemp > r.MaxCellTemp {
			t.Fatalf("record %d: cell temp spread inverted", i)
		}
	}
}

func TestRunDeterministicForFixedSeed(t *testing.T) {
	opts := Options{
		VehicleID: "VEH001",
		Profile:   "night_owl",
		Days:      2,
		Seed:      42,
		Anomalies: true,
	}
	sumA, outA := runEngine(t, opts)
	sumB, outB := runEngine(t, opts)

	if !reflect.DeepEqual(outA.records, outB.records) {
		t.Fatal("identically seeded runs produced different telemetry")
	}
	if len(outA.events) != len(outB.events) {
		t.Fatalf("event counts differ: %d vs %d", len(outA.events), len(outB.events))
	}
	if !reflect.DeepEqual(sumA, sumB) {
		t.Fatalf("summaries differ:\n%+v\n%+v", sumA, sumB)
	}
}

func TestCautiousKeepsHigherFloorThanSpontaneous(t *testing.T) {
	cautious, _ := runEngine(t, Options{
		VehicleID: "VEH001", Profile: "cautious", Days: 5, Seed: 3,
	})
	spontaneous, _ := runEngine(t, Options{
		VehicleID: "VEH001", Profile: "spontaneous", Days: 5, Seed: 3,
	})

	if cautious.MinSoC <= spontaneous.MinSoC {
		t.Fatalf("cautious floor %f should exceed spontaneous floor %f",
			cautious.MinSoC, spontaneous.MinSoC)
	}
}

func TestArchetypeCommuterDrivesTwiceOnWeekdays(t *testing.T) {
	// Monday 2025-01-06.
	_, out := runEngine(t, Options{
		VehicleID: "VEH001",
		Profile:   "commuter",
		Days:      1,
		Seed:      5,
		Archetype: ArchetypeCommuter,
	})

	stretches := 0
	driving := false
	for _, r := range out.records {
		if r.IsDriving && !driving {
			stretches++
		}
		driving = r.IsDriving
	}
	if stretches < 2 {
		t.Fatalf("expected at least two commute legs, saw %d driving stretches", stretches)
	}
}

func TestAmbientTemperatureCurve(t *testing.T) {
	if got := AmbientTemperature(6); math.Abs(got-20) > 1e-9 {
		t.Fatalf("6h ambient = %f, want 20", got)
	}
	if got := AmbientTemperature(12); math.Abs(got-30) > 1e-9 {
		t.Fatalf("noon ambient = %f, want 30", got)
	}
	if got := AmbientTemperature(0); math.Abs(got-10) > 1e-9 {
		t.Fatalf("midnight ambient = %f, want 10", got)
	}
}

func TestRunHonorsContextCancellation(t *testing.T) {
	e, err := New(Options{VehicleID: "VEH001", Profile: "commuter", Days: 30, Seed: 1}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := e.Run(ctx, &captureSink{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
