// Package metrics exposes simulation counters to Prometheus.
package metrics

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kilianp07/batterysim/core/logger"
	"github.com/kilianp07/batterysim/core/sim"
)

// PromMetrics carries the run-level counters.
type PromMetrics struct {
	records          *prometheus.CounterVec
	anomalies        *prometheus.CounterVec
	thermalShutdowns *prometheus.CounterVec
	chargeSessions   *prometheus.CounterVec
	runDuration      prometheus.Histogram
}

// NewPromMetrics builds and registers the collectors. Re-registering on a
// shared registry reuses the existing collectors instead of failing, so
// multiple engines can report through one registry.
func NewPromMetrics(reg prometheus.Registerer) (*PromMetrics, error) {
	m := &PromMetrics{
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "batterysim_records_generated_total",
			Help: "Telemetry records generated per vehicle.",
		}, []string{"vehicle_id"}),
		anomalies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "batterysim_anomalies_injected_total",
			Help: "Anomaly events injected per vehicle.",
		}, []string{"vehicle_id"}),
		thermalShutdowns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "batterysim_thermal_shutdowns_total",
			Help: "Thermal shutdowns triggered per vehicle.",
		}, []string{"vehicle_id"}),
		chargeSessions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "batterysim_charge_sessions_total",
			Help: "Charge sessions started per vehicle.",
		}, []string{"vehicle_id"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "batterysim_run_duration_seconds",
			Help:    "Wall-clock duration of simulation runs.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
	}

	collectors := []prometheus.Collector{
		m.records, m.anomalies, m.thermalShutdowns, m.chargeSessions, m.runDuration,
	}
	for i, c := range collectors {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				switch existing := are.ExistingCollector.(type) {
				case *prometheus.CounterVec:
					switch i {
					case 0:
						m.records = existing
					case 1:
						m.anomalies = existing
					case 2:
						m.thermalShutdowns = existing
					case 3:
						m.chargeSessions = existing
					}
				case prometheus.Histogram:
					m.runDuration = existing
				}
				continue
			}
			return nil, fmt.Errorf("register collector: %w", err)
		}
	}
	return m, nil
}

// ObserveRun folds a finished run into the counters.
func (m *PromMetrics) ObserveRun(s sim.Summary, elapsed time.Duration) {
	m.records.WithLabelValues(s.VehicleID).Add(float64(s.Records))
	m.anomalies.WithLabelValues(s.VehicleID).Add(float64(s.AnomalyEvents))
	m.thermalShutdowns.WithLabelValues(s.VehicleID).Add(float64(s.ThermalShutdowns))
	m.chargeSessions.WithLabelValues(s.VehicleID).Add(float64(s.ChargeSessions))
	m.runDuration.Observe(elapsed.Seconds())
}

// Serve exposes the registry on addr under /metrics. It blocks until the
// server stops.
func Serve(addr string, reg *prometheus.Registry, log logger.Logger) error {
	if log == nil {
		log = logger.Nop()
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	log.Infof("metrics listening on %s", addr)
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return srv.ListenAndServe()
}
