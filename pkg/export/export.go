// Package export renders generated telemetry into files for offline
// analysis: flat CSV, and a JSON bundle of parallel series ready for
// plotting.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/kilianp07/batterysim/core/model"
	"github.com/kilianp07/batterysim/core/thermal"
)

var csvHeader = []string{
	"time", "vehicle_id", "soc_percent", "soh_percent",
	"voltage", "current", "temperature", "max_cell_temp", "min_cell_temp",
	"power_kw", "energy_kwh", "range_km",
	"is_charging", "is_driving", "speed_kmh", "ambient_temp", "data_quality",
}

// WriteCSV streams records as CSV with a header row.
func WriteCSV(w io.Writer, records []model.TelemetryRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for i, r := range records {
		row := []string{
			r.Time.UTC().Format(time.RFC3339),
			r.VehicleID,
			formatFloat(r.SoCPercent),
			formatFloat(r.SoHPercent),
			formatFloat(r.Voltage),
			formatFloat(r.Current),
			formatFloat(r.Temperature),
			formatFloat(r.MaxCellTemp),
			formatFloat(r.MinCellTemp),
			formatFloat(r.PowerKW),
			formatFloat(r.EnergyKWh),
			formatFloat(r.EstimatedRangeKm),
			strconv.FormatBool(r.IsCharging),
			strconv.FormatBool(r.IsDriving),
			formatFloat(r.SpeedKmh),
			formatFloat(r.AmbientTemp),
			strconv.Itoa(r.DataQuality),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// PlotBundle holds the series a plotting frontend needs as parallel arrays,
// plus the thermal protection history of the run.
type PlotBundle struct {
	VehicleID string `json:"vehicle_id"`

	Time        []string  `json:"time"`
	SoC         []float64 `json:"soc"`
	Temperature []float64 `json:"temperature"`
	Current     []float64 `json:"current"`
	PowerKW     []float64 `json:"power_kw"`

	ThermalEvents []thermal.Event      `json:"thermal_events,omitempty"`
	Anomalies     []model.AnomalyEvent `json:"anomalies,omitempty"`
}

// BuildPlotBundle converts records (and optional event histories) into
// parallel series.
func BuildPlotBundle(vehicleID string, records []model.TelemetryRecord, thermalEvents []thermal.Event, anomalies []model.AnomalyEvent) PlotBundle {
	b := PlotBundle{
		VehicleID:     vehicleID,
		Time:          make([]string, 0, len(records)),
		SoC:           make([]float64, 0, len(records)),
		Temperature:   make([]float64, 0, len(records)),
		Current:       make([]float64, 0, len(records)),
		PowerKW:       make([]float64, 0, len(records)),
		ThermalEvents: thermalEvents,
		Anomalies:     anomalies,
	}
	for _, r := range records {
		b.Time = append(b.Time, r.Time.UTC().Format(time.RFC3339))
		b.SoC = append(b.SoC, r.SoCPercent)
		b.Temperature = append(b.Temperature, r.Temperature)
		b.Current = append(b.Current, r.Current)
		b.PowerKW = append(b.PowerKW, r.PowerKW)
	}
	return b
}

// WriteJSON renders the bundle as indented JSON.
func WriteJSON(w io.Writer, bundle PlotBundle) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(bundle)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
