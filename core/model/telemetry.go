package model

import "time"

// TelemetryRecord is one per-second sample of a vehicle's battery state.
// Anomaly injection happens before records reach a sink; sinks must treat
// batches as read-only.
type TelemetryRecord struct {
	Time             time.Time `json:"time"`
	VehicleID        string    `json:"vehicle_id"`
	SoCPercent       float64   `json:"soc_percent"`
	SoHPercent       float64   `json:"soh_percent"`
	Voltage          float64   `json:"voltage"`
	Current          float64   `json:"current"`
	Temperature      float64   `json:"temperature"`
	MaxCellTemp      float64   `json:"max_cell_temp"`
	MinCellTemp      float64   `json:"min_cell_temp"`
	PowerKW          float64   `json:"power_kw"`
	EnergyKWh        float64   `json:"energy_kwh"`
	EstimatedRangeKm float64   `json:"estimated_range_km"`
	IsCharging       bool      `json:"is_charging"`
	IsDriving        bool      `json:"is_driving"`
	SpeedKmh         float64   `json:"speed_kmh"`
	AmbientTemp      float64   `json:"ambient_temp"`
	DataQuality      int       `json:"data_quality"`
}

// Severity tiers for anomaly events.
const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// AnomalyEvent describes an injected anomaly and the telemetry window it
// covers.
type AnomalyEvent struct {
	ID              string             `json:"id"`
	VehicleID       string             `json:"vehicle_id"`
	EventType       string             `json:"event_type"`
	StartTime       time.Time          `json:"start_time"`
	EndTime         time.Time          `json:"end_time"`
	Severity        string             `json:"severity"`
	Description     string             `json:"description"`
	AffectedMetrics []string           `json:"affected_metrics"`
	Parameters      map[string]float64 `json:"parameters"`
}
