// Package anomaly synthesizes battery fault signatures: thermal events,
// capacity fade, sensor glitches, rapid degradation and charging faults.
// Generated series can be overlaid onto clean telemetry.
package anomaly

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/batterysim/core/model"
)

// Event type identifiers carried on model.AnomalyEvent.
const (
	TypeThermal          = "thermal_event"
	TypeCapacityFade     = "capacity_fade"
	TypeSensorGlitch     = "sensor_glitch"
	TypeRapidDegradation = "rapid_degradation"
	TypeChargingAnomaly  = "charging_anomaly"
)

// Glitch flavors accepted by SensorGlitch.
const (
	GlitchSpike   = "spike"
	GlitchDropout = "dropout"
	GlitchNoise   = "noise"
)

// Charging fault flavors accepted by ChargingAnomaly.
const (
	ChargingSlow         = "slow_charge"
	ChargingIntermittent = "intermittent"
	ChargingNone         = "no_charge"
)

// Generator synthesizes anomaly series. It owns its random stream so
// concurrent vehicle simulations never share state.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator creates a Generator. A nil rng falls back to a time-seeded
// stream.
func NewGenerator(rng *rand.Rand) *Generator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Generator{rng: rng}
}

// thermalParams maps event severity onto heating rate and peak overshoot.
func thermalParams(severity string) (ratePerMin, peakDelta float64) {
	switch severity {
	case model.SeverityLow:
		return 0.5, 10
	case model.SeverityMedium:
		return 1.0, 20
	case model.SeverityHigh:
		return 2.0, 30
	case model.SeverityCritical:
		return 3.0, 40
	default:
		return 1.0, 20
	}
}

// ThermalEvent produces a temperature excursion: a noisy linear rise to the
// severity's peak over the first half, then an exponential cooldown back
// toward the normal operating temperature.
func (g *Generator) ThermalEvent(vehicleID string, start time.Time, durationSeconds int, normalTemp float64, severity string) ([]float64, model.AnomalyEvent) {
	rate, peakDelta := thermalParams(severity)
	peak := normalTemp + peakDelta

	series := make([]float64, durationSeconds)
	rise := durationSeconds / 2
	fallDuration := float64(durationSeconds - rise)

	for t := 0; t < durationSeconds; t++ {
		if t < rise {
			temp := normalTemp + rate*float64(t)/60*(1+g.rng.NormFloat64()*0.05)
			if temp > peak {
				temp = peak
			}
			series[t] = temp
		} else {
			elapsed := float64(t - rise)
			series[t] = normalTemp + (peak-normalTemp)*math.Exp(-elapsed/(fallDuration/3)) + g.rng.NormFloat64()
		}
	}

	event := model.AnomalyEvent{
		ID:              uuid.NewString(),
		VehicleID:       vehicleID,
		EventType:       TypeThermal,
		StartTime:       start,
		EndTime:         start.Add(time.Duration(durationSeconds) * time.Second),
		Severity:        severity,
		Description:     fmt.Sprintf("thermal excursion peaking at %.1f°C", peak),
		AffectedMetrics: []string{"temperature"},
		Parameters: map[string]float64{
			"rate_c_per_min": rate,
			"peak_c":         peak,
		},
	}
	return series, event
}

// CapacityFade produces a per-day state-of-health series declining at a
// noisy daily rate derived from the annual rate, with occasional bad days
// fading twice as fast. Health never drops below the retirement floor.
func (g *Generator) CapacityFade(vehicleID string, start time.Time, days int, startSoH, annualRatePercent float64) ([]float64, model.AnomalyEvent) {
	series := make([]float64, days)
	soh := startSoH
	dailyRate := annualRatePercent / 365

	for d := 0; d < days; d++ {
		fade := dailyRate * (1 + g.rng.NormFloat64()*0.1)
		if g.rng.Float64() < 0.10 {
			fade *= 2
		}
		soh -= fade
		if soh < 70 {
			soh = 70
		}
		series[d] = soh
	}

	total := startSoH - soh
	severity := model.SeverityLow
	if total >= 5 {
		severity = model.SeverityMedium
	}

	event := model.AnomalyEvent{
		ID:              uuid.NewString(),
		VehicleID:       vehicleID,
		EventType:       TypeCapacityFade,
		StartTime:       start,
		EndTime:         start.Add(time.Duration(days) * 24 * time.Hour),
		Severity:        severity,
		Description:     fmt.Sprintf("capacity fade of %.2f%% over %d days", total, days),
		AffectedMetrics: []string{"soh", "capacity"},
		Parameters: map[string]float64{
			"annual_rate_percent": annualRatePercent,
			"total_fade_percent":  total,
		},
	}
	return series, event
}

// SensorGlitch produces a short corrupted reading sequence of the given
// flavor around a normal value: a decaying spike, a dropout near zero, or
// heavy gaussian noise.
func (g *Generator) SensorGlitch(vehicleID string, start time.Time, durationSamples int, normalValue float64, glitchType string) ([]float64, model.AnomalyEvent) {
	series := make([]float64, durationSamples)

	switch glitchType {
	case GlitchSpike:
		magnitude := normalValue * (5 + g.rng.Float64()*5)
		for i := 0; i < durationSamples; i++ {
			decay := math.Exp(-float64(i) / (float64(durationSamples) / 3))
			series[i] = normalValue + (magnitude-normalValue)*decay
		}
	case GlitchDropout:
		for i := 0; i < durationSamples; i++ {
			series[i] = g.rng.Float64() * normalValue * 0.1
		}
	default: // noise
		for i := 0; i < durationSamples; i++ {
			series[i] = normalValue + g.rng.NormFloat64()*normalValue*0.5
		}
	}

	event := model.AnomalyEvent{
		ID:              uuid.NewString(),
		VehicleID:       vehicleID,
		EventType:       TypeSensorGlitch,
		StartTime:       start,
		EndTime:         start.Add(time.Duration(durationSamples) * time.Second),
		Severity:        model.SeverityLow,
		Description:     fmt.Sprintf("sensor glitch (%s) over %d samples", glitchType, durationSamples),
		AffectedMetrics: []string{"voltage", "current"},
		Parameters: map[string]float64{
			"normal_value": normalValue,
		},
	}
	return series, event
}

// RapidDegradation produces a per-second state-of-health decline accelerated
// by the given factor over the normal per-second rate.
func (g *Generator) RapidDegradation(vehicleID string, start time.Time, durationSeconds int, startSoH, normalRatePerSecond, factor float64) ([]float64, model.AnomalyEvent) {
	series := make([]float64, durationSeconds)
	soh := startSoH

	for t := 0; t < durationSeconds; t++ {
		soh -= normalRatePerSecond * factor * (1 + g.rng.NormFloat64()*0.1)
		if soh < 70 {
			soh = 70
		}
		series[t] = soh
	}

	severity := model.SeverityMedium
	if factor > 3 {
		severity = model.SeverityHigh
	}

	event := model.AnomalyEvent{
		ID:              uuid.NewString(),
		VehicleID:       vehicleID,
		EventType:       TypeRapidDegradation,
		StartTime:       start,
		EndTime:         start.Add(time.Duration(durationSeconds) * time.Second),
		Severity:        severity,
		Description:     fmt.Sprintf("degradation accelerated %.1fx", factor),
		AffectedMetrics: []string{"soh"},
		Parameters: map[string]float64{
			"factor": factor,
		},
	}
	return series, event
}

// ChargingAnomaly distorts an expected charging-current series: persistent
// slow delivery, a 30-second on/off cycle, or no delivery at all.
func (g *Generator) ChargingAnomaly(vehicleID string, start time.Time, expected []float64, anomalyType string) ([]float64, model.AnomalyEvent) {
	series := make([]float64, len(expected))

	switch anomalyType {
	case ChargingSlow:
		factor := 0.3 + g.rng.Float64()*0.3
		for i, c := range expected {
			series[i] = c * factor * (1 + g.rng.NormFloat64()*0.05)
		}
	case ChargingIntermittent:
		for i, c := range expected {
			if (i/30)%2 == 0 {
				series[i] = c * (1 + g.rng.NormFloat64()*0.02)
			} else {
				series[i] = 0
			}
		}
	default: // no_charge
		// series stays zero
	}

	severity := model.SeverityLow
	if anomalyType == ChargingNone {
		severity = model.SeverityMedium
	}

	event := model.AnomalyEvent{
		ID:              uuid.NewString(),
		VehicleID:       vehicleID,
		EventType:       TypeChargingAnomaly,
		StartTime:       start,
		EndTime:         start.Add(time.Duration(len(expected)) * time.Second),
		Severity:        severity,
		Description:     fmt.Sprintf("charging anomaly: %s", anomalyType),
		AffectedMetrics: []string{"current", "power"},
		Parameters:      map[string]float64{},
	}
	return series, event
}

// Injection asks InjectAnomalies to overlay a synthesized series onto one
// telemetry metric starting at a sample index.
type Injection struct {
	Type       string // TypeThermal or TypeSensorGlitch
	StartIndex int
	Duration   int     // samples
	Severity   string  // thermal only
	Normal     float64 // baseline value for the synthesized series
	GlitchType string  // sensor glitch only
}

// InjectAnomalies overlays synthesized series onto a copy of the base
// telemetry map (metric name to sample series). Injections that start outside
// the series still produce an event but mutate nothing; overlays running past
// the end are truncated. The returned events list is never nil.
func (g *Generator) InjectAnomalies(vehicleID string, start time.Time, base map[string][]float64, injections []Injection) (map[string][]float64, []model.AnomalyEvent) {
	out := make(map[string][]float64, len(base))
	for k, v := range base {
		cp := make([]float64, len(v))
		copy(cp, v)
		out[k] = cp
	}

	events := make([]model.AnomalyEvent, 0, len(injections))
	for _, inj := range injections {
		var (
			series []float64
			event  model.AnomalyEvent
			metric string
		)
		eventStart := start.Add(time.Duration(inj.StartIndex) * time.Second)

		switch inj.Type {
		case TypeThermal:
			series, event = g.ThermalEvent(vehicleID, eventStart, inj.Duration, inj.Normal, inj.Severity)
			metric = "temperature"
		case TypeSensorGlitch:
			series, event = g.SensorGlitch(vehicleID, eventStart, inj.Duration, inj.Normal, inj.GlitchType)
			metric = "voltage"
		default:
			continue
		}
		events = append(events, event)

		target, ok := out[metric]
		if !ok || inj.StartIndex < 0 || inj.StartIndex >= len(target) {
			continue
		}
		for i, v := range series {
			idx := inj.StartIndex + i
			if idx >= len(target) {
				break
			}
			target[idx] = v
		}
	}
	return out, events
}
