package sink

import (
	"context"
	"fmt"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"

	"github.com/kilianp07/batterysim/core/logger"
	"github.com/kilianp07/batterysim/core/model"
	coresink "github.com/kilianp07/batterysim/core/sink"
)

const (
	telemetryMeasurement = "battery_telemetry"
	eventMeasurement     = "battery_anomaly"
)

// InfluxConfig holds the connection settings for an InfluxDB 2.x sink.
type InfluxConfig struct {
	URL    string `json:"url"`
	Token  string `json:"token"`
	Org    string `json:"org"`
	Bucket string `json:"bucket"`
}

// InfluxSink writes telemetry points into an InfluxDB bucket using the
// blocking write API.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink connects to InfluxDB and verifies the server is healthy
// before accepting writes.
func NewInfluxSink(cfg InfluxConfig, log logger.Logger) (*InfluxSink, error) {
	if log == nil {
		log = logger.Nop()
	}
	client := influxdb2.NewClient(cfg.URL, cfg.Token)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := client.Health(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("influxdb health check: %w", err)
	}
	if health.Status != "pass" {
		client.Close()
		return nil, fmt.Errorf("influxdb unhealthy: %s", health.Status)
	}

	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		log:      log,
	}, nil
}

// NewInfluxSinkWithFallback returns a working Influx sink, or a NopSink when
// the server cannot be reached, so a simulation run never fails on a missing
// dashboard backend.
func NewInfluxSinkWithFallback(cfg InfluxConfig, log logger.Logger) coresink.TelemetrySink {
	if log == nil {
		log = logger.Nop()
	}
	s, err := NewInfluxSink(cfg, log)
	if err != nil {
		log.Warnf("influxdb unavailable, discarding influx writes: %v", err)
		return coresink.NopSink{}
	}
	return s
}

func (s *InfluxSink) WriteTelemetry(ctx context.Context, records []model.TelemetryRecord) (int, error) {
	for i, r := range records {
		point := influxdb2.NewPoint(
			telemetryMeasurement,
			map[string]string{"vehicle_id": r.VehicleID},
			map[string]interface{}{
				"soc":           r.SoCPercent,
				"soh":           r.SoHPercent,
				"voltage":       r.Voltage,
				"current":       r.Current,
				"temperature":   r.Temperature,
				"max_cell_temp": r.MaxCellTemp,
				"min_cell_temp": r.MinCellTemp,
				"power_kw":      r.PowerKW,
				"energy_kwh":    r.EnergyKWh,
				"range_km":      r.EstimatedRangeKm,
				"is_charging":   r.IsCharging,
				"is_driving":    r.IsDriving,
				"speed_kmh":     r.SpeedKmh,
				"ambient_temp":  r.AmbientTemp,
				"data_quality":  r.DataQuality,
			},
			r.Time,
		)
		if err := s.writeAPI.WritePoint(ctx, point); err != nil {
			return i, fmt.Errorf("write telemetry point: %w", err)
		}
	}
	return len(records), nil
}

func (s *InfluxSink) WriteEvents(ctx context.Context, events []model.AnomalyEvent) (int, error) {
	for i, ev := range events {
		point := influxdb2.NewPoint(
			eventMeasurement,
			map[string]string{
				"vehicle_id": ev.VehicleID,
				"event_type": ev.EventType,
				"severity":   ev.Severity,
			},
			map[string]interface{}{
				"description":      ev.Description,
				"duration_seconds": ev.EndTime.Sub(ev.StartTime).Seconds(),
			},
			ev.StartTime,
		)
		if err := s.writeAPI.WritePoint(ctx, point); err != nil {
			return i, fmt.Errorf("write event point: %w", err)
		}
	}
	return len(events), nil
}

func (s *InfluxSink) Close() error {
	s.client.Close()
	return nil
}
