// Package battery models a single EV battery pack: open-circuit voltage
// curve, internal resistance, thermal dynamics and safety gating.
package battery

import (
	"math"
	"time"

	"github.com/kilianp07/batterysim/core/logger"
	"github.com/kilianp07/batterysim/core/model"
	"github.com/kilianp07/batterysim/core/thermal"
)

const (
	coolingCoefficient   = 0.001 // Newton cooling rate
	specificHeatJPerKgK  = 1000  // approximate for a lithium-ion pack
	chargingInefficiency = 0.05  // fraction of charge power lost as heat
	coldCapacityFactor   = 0.8   // usable capacity below 0°C
)

// Model owns the mutable battery state of one simulated vehicle. It is a
// sequential fold: ApplyCurrent must be called once per time step, in order.
type Model struct {
	spec model.VehicleSpec

	soc         float64 // percent, always within [0,100]
	soh         float64 // percent, non-increasing
	temperature float64 // °C
	voltage     float64
	current     float64
	ambientTemp float64

	effectiveCapacityKWh float64
	safety               *thermal.Manager
}

// New creates a Model with the common initial condition: 80% SoC, 25°C,
// full health.
func New(spec model.VehicleSpec, log logger.Logger) *Model {
	return NewWithState(spec, 80.0, 25.0, 100.0, log)
}

// NewWithState creates a Model with an explicit starting point.
func NewWithState(spec model.VehicleSpec, initialSoC, initialTemp, soh float64, log logger.Logger) *Model {
	m := &Model{
		spec:        spec,
		soc:         clamp(initialSoC, 0, 100),
		soh:         clamp(soh, 0, 100),
		temperature: initialTemp,
		ambientTemp: 20.0,
		safety:      thermal.NewManager(spec.VehicleID, thermal.DefaultThresholds(), log),
	}
	m.effectiveCapacityKWh = spec.NominalCapacityKWh * (m.soh / 100.0)
	m.voltage = m.OpenCircuitVoltage(m.soc)
	return m
}

// SoC returns the current state of charge in percent.
func (m *Model) SoC() float64 { return m.soc }

// SoH returns the current state of health in percent.
func (m *Model) SoH() float64 { return m.soh }

// Temperature returns the pack temperature in °C.
func (m *Model) Temperature() float64 { return m.temperature }

// EffectiveCapacityKWh returns the capacity after health and cold derating.
func (m *Model) EffectiveCapacityKWh() float64 { return m.effectiveCapacityKWh }

// Safety exposes the thermal protection manager.
func (m *Model) Safety() *thermal.Manager { return m.safety }

// SetAmbientTemp sets the ambient temperature used for cooling.
func (m *Model) SetAmbientTemp(t float64) { m.ambientTemp = t }

// AmbientTemp returns the ambient temperature.
func (m *Model) AmbientTemp() float64 { return m.ambientTemp }

// SetSoH applies battery ageing. Health never increases and is floored at
// 70%, matching the capacity fade model.
func (m *Model) SetSoH(soh float64) {
	if soh > m.soh {
		return
	}
	m.soh = clamp(soh, 70, 100)
	m.refreshCapacity()
}

// OpenCircuitVoltage maps SoC onto the pack voltage range using a
// piecewise-linear lithium-ion curve: steep below 10%, flat through the
// middle, steep above 90%.
func (m *Model) OpenCircuitVoltage(soc float64) float64 {
	socNorm := clamp(soc, 0, 100) / 100.0

	var voltageNorm float64
	switch {
	case socNorm < 0.1:
		voltageNorm = (socNorm / 0.1) * 0.2
	case socNorm < 0.9:
		voltageNorm = 0.2 + ((socNorm-0.1)/0.8)*0.6
	default:
		voltageNorm = 0.8 + ((socNorm-0.9)/0.1)*0.2
	}

	voltageRange := m.spec.MaxVoltage - m.spec.MinVoltage
	return m.spec.MinVoltage + voltageNorm*voltageRange
}

// VoltageUnderLoad returns the terminal voltage at the given current,
// V = OCV - I*R, clamped to the pack's valid range.
func (m *Model) VoltageUnderLoad(current float64) float64 {
	ocv := m.OpenCircuitVoltage(m.soc)
	terminal := ocv - current*m.spec.InternalResistance
	return clamp(terminal, m.spec.MinVoltage, m.spec.MaxVoltage)
}

// ApplyCurrent advances the battery by dt seconds under the requested
// current (positive = charging). The request is first reduced by the more
// conservative of thermal-safety and temperature derating limits, then by
// the CC-CV taper when charging above 80% SoC. It returns the actual
// current, the terminal voltage and the power in watts. All quantities are
// clamped; the hot path never fails.
func (m *Model) ApplyCurrent(requested float64, dt float64, ts time.Time) (actualCurrent, voltage, power float64) {
	check := m.safety.CheckTemperature(m.temperature, ts)
	thermalLimit := check.PowerLimit

	tempDerate := 1.0
	if m.temperature > 45 {
		tempDerate = math.Max(0.5, 1.0-(m.temperature-45)/20)
	} else if m.temperature < 0 {
		tempDerate = math.Max(0.3, 1.0+m.temperature/20)
	}

	// The more conservative limit wins.
	powerLimit := math.Min(tempDerate, thermalLimit)

	if requested > 0 { // charging
		maxCurrent := m.spec.MaxChargeCurrent * powerLimit
		if m.soc > 80 {
			// CC-CV taper from 80% to 100% SoC.
			taper := 1.0 - (m.soc-80)/20
			maxCurrent *= math.Max(0.1, taper)
		}
		m.current = math.Min(requested, maxCurrent)
	} else { // discharging or idle
		maxCurrent := m.spec.MaxDischargeCurrent * powerLimit
		m.current = math.Max(requested, maxCurrent)
	}

	m.voltage = m.VoltageUnderLoad(m.current)
	power = m.voltage * m.current

	m.updateSoC(dt)
	m.updateThermal(dt, power, ts)

	return m.current, m.voltage, power
}

func (m *Model) updateSoC(dt float64) {
	power := m.VoltageUnderLoad(m.current) * m.current // W
	energyChangeWh := power * dt / 3600.0
	socChange := energyChangeWh / (m.effectiveCapacityKWh * 1000) * 100
	m.soc = clamp(m.soc+socChange, 0, 100)
}

func (m *Model) updateThermal(dt, power float64, ts time.Time) {
	// I²R losses, plus inefficiency heat while charging.
	heatGenerated := m.current * m.current * m.spec.InternalResistance
	if power > 0 {
		heatGenerated += math.Abs(power) * chargingInefficiency
	}
	heatRemoved := coolingCoefficient * (m.temperature - m.ambientTemp)

	thermalMassJ := m.spec.ThermalMass * specificHeatJPerKgK
	m.temperature += (heatGenerated - heatRemoved) * dt / thermalMassJ

	m.safety.CheckTemperature(m.temperature, ts)
	m.refreshCapacity()
}

func (m *Model) refreshCapacity() {
	m.effectiveCapacityKWh = m.spec.NominalCapacityKWh * (m.soh / 100.0)
	if m.temperature < 0 {
		m.effectiveCapacityKWh *= coldCapacityFactor
	}
}

// State is a rounded snapshot of the battery, shaped like the values a
// telemetry gateway would report.
type State struct {
	SoCPercent       float64
	SoHPercent       float64
	Voltage          float64
	Current          float64
	Temperature      float64
	PowerW           float64
	EnergyKWh        float64
	EstimatedRangeKm float64
	ThermalStatus    thermal.Status
	ThermalShutdown  bool
}

// GetState snapshots the battery with one-decimal sensor rounding.
func (m *Model) GetState() State {
	return State{
		SoCPercent:       round1(m.soc),
		SoHPercent:       round1(m.soh),
		Voltage:          round1(m.voltage),
		Current:          round1(m.current),
		Temperature:      round1(m.temperature),
		PowerW:           round1(m.voltage * m.current),
		EnergyKWh:        math.Round(m.effectiveCapacityKWh*m.soc/100*100) / 100,
		EstimatedRangeKm: round1(m.estimateRange()),
		ThermalStatus:    m.safety.Status(),
		ThermalShutdown:  m.safety.ShutdownActive(),
	}
}

func (m *Model) estimateRange() float64 {
	consumption := m.spec.ConsumptionWhPerKm()
	if consumption <= 0 {
		return 0
	}
	remainingWh := m.effectiveCapacityKWh * 1000 * (m.soc / 100)
	return remainingWh / consumption
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
