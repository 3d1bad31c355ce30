package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kilianp07/batterysim/core/sim"
)

func TestObserveRunCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewPromMetrics(reg)
	if err != nil {
		t.Fatalf("NewPromMetrics: %v", err)
	}

	m.ObserveRun(sim.Summary{
		VehicleID:        "VEH001",
		Records:          86400,
		AnomalyEvents:    3,
		ThermalShutdowns: 1,
		ChargeSessions:   2,
	}, 4*time.Second)

	got := testutil.ToFloat64(m.records.WithLabelValues("VEH001"))
	if got != 86400 {
		t.Fatalf("records counter = %f, want 86400", got)
	}
	if got := testutil.ToFloat64(m.chargeSessions.WithLabelValues("VEH001")); got != 2 {
		t.Fatalf("charge sessions counter = %f, want 2", got)
	}
}

func TestReRegistrationReusesCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	a, err := NewPromMetrics(reg)
	if err != nil {
		t.Fatalf("first registration: %v", err)
	}
	b, err := NewPromMetrics(reg)
	if err != nil {
		t.Fatalf("second registration: %v", err)
	}

	a.ObserveRun(sim.Summary{VehicleID: "VEH002", Records: 10}, time.Second)
	b.ObserveRun(sim.Summary{VehicleID: "VEH002", Records: 5}, time.Second)

	got := testutil.ToFloat64(a.records.WithLabelValues("VEH002"))
	if got != 15 {
		t.Fatalf("shared counter = %f, want 15", got)
	}
}
