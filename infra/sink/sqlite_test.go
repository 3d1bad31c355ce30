package sink

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/kilianp07/batterysim/core/model"
)

func newTestSQLite(t *testing.T) *SQLiteSink {
	t.Helper()
	s, err := NewSQLiteSink(filepath.Join(t.TempDir(), "telemetry.db"), nil)
	if err != nil {
		t.Fatalf("NewSQLiteSink: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testRecords(n int) []model.TelemetryRecord {
	records := make([]model.TelemetryRecord, n)
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	for i := range records {
		records[i] = model.TelemetryRecord{
			Time:        base.Add(time.Duration(i) * time.Second),
			VehicleID:   "VEH001",
			SoCPercent:  80,
			SoHPercent:  100,
			Voltage:     380,
			Temperature: 25,
			DataQuality: 100,
		}
	}
	return records
}

func TestSQLiteWriteTelemetry(t *testing.T) {
	s := newTestSQLite(t)

	n, err := s.WriteTelemetry(context.Background(), testRecords(10))
	if err != nil {
		t.Fatalf("WriteTelemetry: %v", err)
	}
	if n != 10 {
		t.Fatalf("wrote %d rows, want 10", n)
	}
}

func TestSQLiteDeduplicatesReplays(t *testing.T) {
	s := newTestSQLite(t)
	records := testRecords(5)

	if _, err := s.WriteTelemetry(context.Background(), records); err != nil {
		t.Fatalf("first write: %v", err)
	}
	n, err := s.WriteTelemetry(context.Background(), records)
	if err != nil {
		t.Fatalf("replay write: %v", err)
	}
	if n != 0 {
		t.Fatalf("replay wrote %d rows, want 0", n)
	}
}

func TestSQLiteWriteEvents(t *testing.T) {
	s := newTestSQLite(t)

	events := []model.AnomalyEvent{
		{
			ID:        "ev-1",
			VehicleID: "VEH001",
			EventType: "thermal_event",
			StartTime: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
			EndTime:   time.Date(2025, 6, 1, 12, 10, 0, 0, time.UTC),
			Severity:  model.SeverityHigh,
		},
	}
	n, err := s.WriteEvents(context.Background(), events)
	if err != nil {
		t.Fatalf("WriteEvents: %v", err)
	}
	if n != 1 {
		t.Fatalf("wrote %d events, want 1", n)
	}

	// Same primary key replays silently.
	n, err = s.WriteEvents(context.Background(), events)
	if err != nil || n != 0 {
		t.Fatalf("replay: n=%d err=%v", n, err)
	}
}

func TestSQLiteEmptyBatchIsNoop(t *testing.T) {
	s := newTestSQLite(t)
	n, err := s.WriteTelemetry(context.Background(), nil)
	if err != nil || n != 0 {
		t.Fatalf("empty batch: n=%d err=%v", n, err)
	}
}
