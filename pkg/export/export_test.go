package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/kilianp07/batterysim/core/model"
)

func sampleRecords() []model.TelemetryRecord {
	base := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	return []model.TelemetryRecord{
		{Time: base, VehicleID: "VEH001", SoCPercent: 80, Temperature: 25, Voltage: 380, IsDriving: true, SpeedKmh: 40},
		{Time: base.Add(time.Second), VehicleID: "VEH001", SoCPercent: 79.9, Temperature: 25.1, Voltage: 379.5},
	}
}

func TestWriteCSVRoundTrips(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sampleRecords()); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	rows, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "time" || rows[1][1] != "VEH001" {
		t.Fatalf("unexpected layout: %v", rows[:2])
	}
	if rows[1][13] != "true" {
		t.Fatalf("is_charging/is_driving columns misplaced: %v", rows[1])
	}
}

func TestPlotBundleParallelSeries(t *testing.T) {
	b := BuildPlotBundle("VEH001", sampleRecords(), nil, nil)
	if len(b.Time) != 2 || len(b.SoC) != 2 || len(b.Temperature) != 2 {
		t.Fatalf("series lengths diverge: %+v", b)
	}
	if b.SoC[1] != 79.9 {
		t.Fatalf("SoC series out of order: %v", b.SoC)
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, BuildPlotBundle("VEH001", sampleRecords(), nil, nil)); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	var decoded PlotBundle
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.VehicleID != "VEH001" || len(decoded.Time) != 2 {
		t.Fatalf("decoded bundle mismatched: %+v", decoded)
	}
}
