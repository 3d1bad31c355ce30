package sim

import (
	"time"

	"github.com/kilianp07/batterysim/core/anomaly"
	"github.com/kilianp07/batterysim/core/model"
)

// Daily fault-injection odds.
const (
	thermalEventProb     = 0.05
	sensorGlitchProb     = 0.10
	chargingAnomalyProb  = 0.08
	rapidDegradationProb = 0.02
)

// injectDailyAnomalies rolls each fault family once per day and overlays the
// winners onto the day's records in place. Returned events describe what was
// injected.
func (e *Engine) injectDailyAnomalies(date time.Time, records []model.TelemetryRecord) []model.AnomalyEvent {
	events := make([]model.AnomalyEvent, 0, 4)

	if e.rng.Float64() < thermalEventProb {
		if ev, ok := e.injectThermalEvent(date, records); ok {
			events = append(events, ev)
		}
	}
	if e.rng.Float64() < sensorGlitchProb {
		if ev, ok := e.injectSensorGlitch(date, records); ok {
			events = append(events, ev)
		}
	}
	if e.rng.Float64() < chargingAnomalyProb {
		if ev, ok := e.injectChargingAnomaly(date, records); ok {
			events = append(events, ev)
		}
	}
	if e.rng.Float64() < rapidDegradationProb {
		if ev, ok := e.injectRapidDegradation(date, records); ok {
			events = append(events, ev)
		}
	}
	return events
}

// injectThermalEvent overlays a temperature excursion onto a driving period.
// Days without driving stay clean.
func (e *Engine) injectThermalEvent(date time.Time, records []model.TelemetryRecord) (model.AnomalyEvent, bool) {
	drivingIdx := make([]int, 0, len(records)/4)
	for i, r := range records {
		if r.IsDriving {
			drivingIdx = append(drivingIdx, i)
		}
	}
	if len(drivingIdx) == 0 {
		return model.AnomalyEvent{}, false
	}

	start := drivingIdx[e.rng.Intn(len(drivingIdx))]
	duration := 180 + e.rng.Intn(421) // 180-600 s
	severities := []string{model.SeverityLow, model.SeverityMedium, model.SeverityHigh}
	severity := severities[e.rng.Intn(len(severities))]

	series, event := e.injector.ThermalEvent(
		e.opts.VehicleID,
		date.Add(time.Duration(start)*time.Second),
		duration,
		records[start].Temperature,
		severity,
	)
	for i, v := range series {
		idx := start + i
		if idx >= len(records) {
			break
		}
		delta := v - records[idx].Temperature
		records[idx].Temperature = v
		records[idx].MaxCellTemp += delta
		records[idx].MinCellTemp += delta
	}
	return event, true
}

func (e *Engine) injectSensorGlitch(date time.Time, records []model.TelemetryRecord) (model.AnomalyEvent, bool) {
	if len(records) == 0 {
		return model.AnomalyEvent{}, false
	}
	duration := 1 + e.rng.Intn(5)
	start := e.rng.Intn(len(records))
	flavors := []string{anomaly.GlitchSpike, anomaly.GlitchDropout, anomaly.GlitchNoise}
	flavor := flavors[e.rng.Intn(len(flavors))]

	series, event := e.injector.SensorGlitch(
		e.opts.VehicleID,
		date.Add(time.Duration(start)*time.Second),
		duration,
		records[start].Voltage,
		flavor,
	)
	for i, v := range series {
		idx := start + i
		if idx >= len(records) {
			break
		}
		records[idx].Voltage = v
		records[idx].DataQuality = 50
	}
	return event, true
}

// injectChargingAnomaly distorts the first charging stretch of the day.
func (e *Engine) injectChargingAnomaly(date time.Time, records []model.TelemetryRecord) (model.AnomalyEvent, bool) {
	start, end := -1, -1
	for i, r := range records {
		if r.IsCharging {
			if start < 0 {
				start = i
			}
			end = i + 1
		} else if start >= 0 {
			break
		}
	}
	if start < 0 {
		return model.AnomalyEvent{}, false
	}

	expected := make([]float64, end-start)
	for i := range expected {
		expected[i] = records[start+i].Current
	}
	flavors := []string{anomaly.ChargingSlow, anomaly.ChargingIntermittent, anomaly.ChargingNone}
	flavor := flavors[e.rng.Intn(len(flavors))]

	series, event := e.injector.ChargingAnomaly(
		e.opts.VehicleID,
		date.Add(time.Duration(start)*time.Second),
		expected,
		flavor,
	)
	for i, v := range series {
		records[start+i].Current = v
		records[start+i].PowerKW = v * records[start+i].Voltage / 1000
	}
	return event, true
}

// injectRapidDegradation accelerates health loss for up to an hour and
// carries the final health back into the battery model so the remaining run
// feels it.
func (e *Engine) injectRapidDegradation(date time.Time, records []model.TelemetryRecord) (model.AnomalyEvent, bool) {
	if len(records) == 0 {
		return model.AnomalyEvent{}, false
	}
	start := e.rng.Intn(len(records))
	duration := 3600
	if duration > len(records)-start {
		duration = len(records) - start
	}
	factor := 2 + e.rng.Float64()*3
	normalRatePerSecond := e.opts.AnnualFadePercent / 365 / secondsPerDay

	series, event := e.injector.RapidDegradation(
		e.opts.VehicleID,
		date.Add(time.Duration(start)*time.Second),
		duration,
		records[start].SoHPercent,
		normalRatePerSecond,
		factor,
	)
	for i, v := range series {
		records[start+i].SoHPercent = v
	}
	if len(series) > 0 {
		e.battery.SetSoH(series[len(series)-1])
		// Health loss sticks for the rest of the day too.
		for i := start + len(series); i < len(records); i++ {
			if records[i].SoHPercent > series[len(series)-1] {
				records[i].SoHPercent = series[len(series)-1]
			}
		}
	}
	return event, true
}
