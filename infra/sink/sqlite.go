// Package sink provides the storage and streaming backends for generated
// telemetry: SQLite files, InfluxDB buckets and MQTT topics.
package sink

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/kilianp07/batterysim/core/logger"
	"github.com/kilianp07/batterysim/core/model"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS telemetry (
	vehicle_id     TEXT NOT NULL,
	ts             INTEGER NOT NULL,
	soc            REAL,
	soh            REAL,
	voltage        REAL,
	current        REAL,
	temperature    REAL,
	max_cell_temp  REAL,
	min_cell_temp  REAL,
	power_kw       REAL,
	energy_kwh     REAL,
	range_km       REAL,
	is_charging    INTEGER,
	is_driving     INTEGER,
	speed_kmh      REAL,
	ambient_temp   REAL,
	data_quality   INTEGER,
	UNIQUE(vehicle_id, ts)
);
CREATE TABLE IF NOT EXISTS anomaly_events (
	id          TEXT PRIMARY KEY,
	vehicle_id  TEXT NOT NULL,
	event_type  TEXT NOT NULL,
	start_ts    INTEGER NOT NULL,
	end_ts      INTEGER NOT NULL,
	severity    TEXT,
	description TEXT
);
CREATE INDEX IF NOT EXISTS idx_telemetry_vehicle_ts ON telemetry(vehicle_id, ts);
`

// SQLiteSink persists batches into a local SQLite file. Batches are written
// in one transaction; replayed rows are dropped by the (vehicle_id, ts)
// uniqueness constraint, so reruns do not double-count.
type SQLiteSink struct {
	db  *sql.DB
	log logger.Logger
}

// NewSQLiteSink opens (or creates) the database at path and ensures the
// schema.
func NewSQLiteSink(path string, log logger.Logger) (*SQLiteSink, error) {
	if log == nil {
		log = logger.Nop()
	}
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply sqlite schema: %w", err)
	}
	return &SQLiteSink{db: db, log: log}, nil
}

func (s *SQLiteSink) WriteTelemetry(ctx context.Context, records []model.TelemetryRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin telemetry tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO telemetry (
		vehicle_id, ts, soc, soh, voltage, current, temperature,
		max_cell_temp, min_cell_temp, power_kw, energy_kwh, range_km,
		is_charging, is_driving, speed_kmh, ambient_temp, data_quality
	) VALUES (`+placeholders(17)+`)`)
	if err != nil {
		return 0, fmt.Errorf("prepare telemetry insert: %w", err)
	}
	defer stmt.Close()

	written := 0
	for _, r := range records {
		res, err := stmt.ExecContext(ctx,
			r.VehicleID, r.Time.Unix(), r.SoCPercent, r.SoHPercent,
			r.Voltage, r.Current, r.Temperature,
			r.MaxCellTemp, r.MinCellTemp, r.PowerKW, r.EnergyKWh, r.EstimatedRangeKm,
			boolToInt(r.IsCharging), boolToInt(r.IsDriving),
			r.SpeedKmh, r.AmbientTemp, r.DataQuality,
		)
		if err != nil {
			return written, fmt.Errorf("insert telemetry row: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil {
			written += int(n)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit telemetry tx: %w", err)
	}
	return written, nil
}

func (s *SQLiteSink) WriteEvents(ctx context.Context, events []model.AnomalyEvent) (int, error) {
	if len(events) == 0 {
		return 0, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin events tx: %w", err)
	}
	defer tx.Rollback()

	written := 0
	for _, ev := range events {
		res, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO anomaly_events
			(id, vehicle_id, event_type, start_ts, end_ts, severity, description)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			ev.ID, ev.VehicleID, ev.EventType,
			ev.StartTime.Unix(), ev.EndTime.Unix(), ev.Severity, ev.Description,
		)
		if err != nil {
			return written, fmt.Errorf("insert anomaly event: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil {
			written += int(n)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit events tx: %w", err)
	}
	return written, nil
}

func (s *SQLiteSink) Close() error {
	return s.db.Close()
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
