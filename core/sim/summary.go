package sim

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary aggregates a run: volume counters plus descriptive statistics over
// the generated state-of-charge and temperature series.
type Summary struct {
	VehicleID string `json:"vehicle_id"`
	Profile   string `json:"profile"`
	Days      int    `json:"days"`

	Records     int `json:"records"`
	RowsWritten int `json:"rows_written"`

	ChargeSessions   int `json:"charge_sessions"`
	ThermalShutdowns int `json:"thermal_shutdowns"`
	AnomalyEvents    int `json:"anomaly_events"`

	MeanSoC float64 `json:"mean_soc"`
	MinSoC  float64 `json:"min_soc"`
	MaxSoC  float64 `json:"max_soc"`

	MeanTemp float64 `json:"mean_temp"`
	MaxTemp  float64 `json:"max_temp"`
}

func (s *Summary) finalize(socSeries, tempSeries []float64) {
	if len(socSeries) > 0 {
		s.MeanSoC = stat.Mean(socSeries, nil)
		s.MinSoC = floats.Min(socSeries)
		s.MaxSoC = floats.Max(socSeries)
	}
	if len(tempSeries) > 0 {
		s.MeanTemp = stat.Mean(tempSeries, nil)
		s.MaxTemp = floats.Max(tempSeries)
	}
}
