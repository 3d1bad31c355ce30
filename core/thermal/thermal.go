// Package thermal implements the multi-level thermal protection state
// machine that gates battery power delivery.
package thermal

import (
	"fmt"
	"time"

	"github.com/kilianp07/batterysim/core/logger"
)

// Status is the battery thermal protection level.
type Status int

const (
	StatusNormal Status = iota
	StatusWarning
	StatusCritical
	StatusShutdown
)

// String returns a human-readable representation of the status.
func (s Status) String() string {
	switch s {
	case StatusNormal:
		return "normal"
	case StatusWarning:
		return "warning"
	case StatusCritical:
		return "critical"
	case StatusShutdown:
		return "shutdown"
	default:
		return "unknown"
	}
}

// Thresholds holds the temperatures separating protection levels. The
// recovery threshold is deliberately below the shutdown threshold so the
// machine exits shutdown with hysteresis instead of oscillating.
type Thresholds struct {
	WarningTemp  float64 `json:"warning_temp"`
	CriticalTemp float64 `json:"critical_temp"`
	ShutdownTemp float64 `json:"shutdown_temp"`
	RecoveryTemp float64 `json:"recovery_temp"`
}

// DefaultThresholds follow lithium-ion pack safety practice.
func DefaultThresholds() Thresholds {
	return Thresholds{
		WarningTemp:  50.0,
		CriticalTemp: 55.0,
		ShutdownTemp: 60.0,
		RecoveryTemp: 45.0,
	}
}

// Check is the outcome of one temperature evaluation.
type Check struct {
	Temperature    float64
	Status         Status
	PowerLimit     float64 // 1.0 = unrestricted, 0.0 = shutdown
	ActionRequired bool
	Message        string
	Timestamp      time.Time
}

// Event is a recorded thermal transition.
type Event struct {
	Type        string
	Temperature float64
	Timestamp   time.Time
	Message     string
}

// Manager tracks thermal status for one battery pack. Apart from the
// shutdown/recovery hysteresis bit, the status is a pure function of the
// temperature passed to CheckTemperature.
type Manager struct {
	vehicleID      string
	thresholds     Thresholds
	status         Status
	shutdownActive bool
	warningCount   int
	history        *eventRing
	log            logger.Logger
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any)         {}
func (nopLogger) Debugw(string, map[string]any) {}
func (nopLogger) Infof(string, ...any)          {}
func (nopLogger) Warnf(string, ...any)          {}
func (nopLogger) Errorf(string, ...any)         {}

// NewManager creates a Manager with the given thresholds. A nil logger
// silences thermal logging.
func NewManager(vehicleID string, th Thresholds, log logger.Logger) *Manager {
	if log == nil {
		log = nopLogger{}
	}
	return &Manager{
		vehicleID:  vehicleID,
		thresholds: th,
		status:     StatusNormal,
		history:    newEventRing(historyCapacity),
		log:        log,
	}
}

// Status returns the current protection level.
func (m *Manager) Status() Status { return m.status }

// ShutdownActive reports whether the pack is locked out waiting for recovery.
func (m *Manager) ShutdownActive() bool { return m.shutdownActive }

// WarningCount returns the number of warning evaluations since the last
// return to normal.
func (m *Manager) WarningCount() int { return m.warningCount }

// CheckTemperature evaluates the temperature and returns the resulting
// status and power limit. Transitions are appended to the bounded history.
func (m *Manager) CheckTemperature(temp float64, ts time.Time) Check {
	previous := m.status
	res := Check{
		Temperature: temp,
		Status:      StatusNormal,
		PowerLimit:  1.0,
		Timestamp:   ts,
	}

	// Shutdown latch: stay locked out until the pack cools to recovery.
	if m.shutdownActive {
		if temp <= m.thresholds.RecoveryTemp {
			m.shutdownActive = false
			m.status = StatusNormal
			msg := fmt.Sprintf("temperature recovered to %.1f°C, resuming normal operation", temp)
			m.log.Infof("[%s] %s", m.vehicleID, msg)
			m.logEvent("recovery", temp, ts, msg)
			res.Message = msg
		} else {
			res.Status = StatusShutdown
			res.PowerLimit = 0.0
			res.ActionRequired = true
			res.Message = fmt.Sprintf("shutdown active, waiting for temp <= %.1f°C", m.thresholds.RecoveryTemp)
			return res
		}
	}

	switch {
	case temp >= m.thresholds.ShutdownTemp:
		m.status = StatusShutdown
		m.shutdownActive = true
		res.Status = StatusShutdown
		res.PowerLimit = 0.0
		res.ActionRequired = true
		msg := fmt.Sprintf("emergency shutdown: temperature %.1f°C exceeds %.1f°C", temp, m.thresholds.ShutdownTemp)
		m.log.Errorf("[%s] %s", m.vehicleID, msg)
		m.logEvent("shutdown", temp, ts, msg)
		res.Message = msg

	case temp >= m.thresholds.CriticalTemp:
		m.status = StatusCritical
		res.Status = StatusCritical
		res.PowerLimit = 0.3
		res.ActionRequired = true
		msg := fmt.Sprintf("critical: temperature %.1f°C approaching shutdown (%.1f°C)", temp, m.thresholds.ShutdownTemp)
		m.log.Errorf("[%s] %s", m.vehicleID, msg)
		m.logEvent("critical", temp, ts, msg)
		res.Message = msg

	case temp >= m.thresholds.WarningTemp:
		m.status = StatusWarning
		res.Status = StatusWarning
		res.PowerLimit = 0.7
		m.warningCount++
		msg := fmt.Sprintf("warning: temperature %.1f°C exceeds warning threshold (%.1f°C)", temp, m.thresholds.WarningTemp)
		// Log every 10th warning to avoid flooding.
		if m.warningCount%10 == 1 {
			m.log.Warnf("[%s] %s (count: %d)", m.vehicleID, msg, m.warningCount)
		}
		m.logEvent("warning", temp, ts, msg)
		res.Message = msg

	default:
		m.status = StatusNormal
		res.Status = StatusNormal
		if previous != StatusNormal {
			m.warningCount = 0
			msg := fmt.Sprintf("temperature normal at %.1f°C", temp)
			m.log.Infof("[%s] %s", m.vehicleID, msg)
			res.Message = msg
		}
	}

	return res
}

// ShouldAllowCharging applies the charging-specific temperature policy,
// which is stricter than the driving limits.
func (m *Manager) ShouldAllowCharging(temp float64) (bool, string) {
	if m.shutdownActive {
		return false, "thermal shutdown active"
	}
	if temp >= m.thresholds.CriticalTemp {
		return false, fmt.Sprintf("temperature too high (%.1f°C)", temp)
	}
	if temp >= m.thresholds.WarningTemp {
		return true, fmt.Sprintf("slow charging only, elevated temperature (%.1f°C)", temp)
	}
	return true, "normal charging allowed"
}

// Report summarises the thermal state and recent transitions.
type Report struct {
	VehicleID      string
	Status         Status
	ShutdownActive bool
	WarningCount   int
	Thresholds     Thresholds
	RecentEvents   []Event
	TotalEvents    int
}

// GetReport returns the thermal status summary with the last 10 events.
func (m *Manager) GetReport() Report {
	return Report{
		VehicleID:      m.vehicleID,
		Status:         m.status,
		ShutdownActive: m.shutdownActive,
		WarningCount:   m.warningCount,
		Thresholds:     m.thresholds,
		RecentEvents:   m.history.Last(10),
		TotalEvents:    m.history.Total(),
	}
}

// Reset restores the manager to its initial state. Used by tests and when a
// simulated vehicle is recycled.
func (m *Manager) Reset() {
	m.status = StatusNormal
	m.shutdownActive = false
	m.warningCount = 0
	m.history = newEventRing(historyCapacity)
	m.log.Infof("[%s] thermal safety system reset", m.vehicleID)
}

func (m *Manager) logEvent(eventType string, temp float64, ts time.Time, msg string) {
	m.history.Append(Event{
		Type:        eventType,
		Temperature: temp,
		Timestamp:   ts,
		Message:     msg,
	})
}
