// Package app wires configuration, sinks, metrics and engines into a
// runnable service.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/kilianp07/batterysim/config"
	"github.com/kilianp07/batterysim/core/logger"
	"github.com/kilianp07/batterysim/core/sim"
	"github.com/kilianp07/batterysim/core/sink"
	"github.com/kilianp07/batterysim/infra/metrics"
	infrasink "github.com/kilianp07/batterysim/infra/sink"
)

// seedStride separates per-vehicle random streams derived from one base
// seed.
const seedStride = 1_000_003

// Service runs the configured fleet simulation.
type Service struct {
	cfg config.Config
	log logger.Logger
}

// New builds a Service.
func New(cfg config.Config, log logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{cfg: cfg, log: log}
}

// Run simulates every configured vehicle concurrently and returns their run
// summaries in vehicle order. All vehicles share the sinks; each gets its
// own random stream so fleet results stay reproducible regardless of
// scheduling.
func (s *Service) Run(ctx context.Context) ([]sim.Summary, error) {
	out, err := s.buildSink()
	if err != nil {
		return nil, err
	}
	defer out.Close()

	var promMetrics *metrics.PromMetrics
	if s.cfg.Metrics.Enabled {
		registry := prometheus.NewRegistry()
		promMetrics, err = metrics.NewPromMetrics(registry)
		if err != nil {
			return nil, fmt.Errorf("init metrics: %w", err)
		}
		go func() {
			if err := metrics.Serve(s.cfg.Metrics.Addr, registry, s.log); err != nil {
				s.log.Errorf("metrics server stopped: %v", err)
			}
		}()
	}

	vehicles := s.cfg.Simulation.Vehicles
	summaries := make([]sim.Summary, len(vehicles))

	g, ctx := errgroup.WithContext(ctx)
	for i, vehicleID := range vehicles {
		i, vehicleID := i, vehicleID
		g.Go(func() error {
			engine, err := sim.New(sim.Options{
				VehicleID:         vehicleID,
				Profile:           s.cfg.Simulation.Profile,
				Days:              s.cfg.Simulation.Days,
				Seed:              s.cfg.Simulation.Seed + int64(i)*seedStride,
				Start:             s.cfg.StartTime(),
				Archetype:         sim.Archetype(s.cfg.Simulation.Archetype),
				AnnualFadePercent: s.cfg.Simulation.AnnualFadePercent,
				Anomalies:         s.cfg.Simulation.Anomalies,
			}, s.log)
			if err != nil {
				return fmt.Errorf("vehicle %s: %w", vehicleID, err)
			}

			started := time.Now()
			summary, err := engine.Run(ctx, out)
			if err != nil {
				return fmt.Errorf("vehicle %s: %w", vehicleID, err)
			}
			summaries[i] = summary

			if promMetrics != nil {
				promMetrics.ObserveRun(summary, time.Since(started))
			}
			s.log.Infof("vehicle %s done: %d records, %d charge sessions, min SoC %.1f%%",
				vehicleID, summary.Records, summary.ChargeSessions, summary.MinSoC)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return summaries, nil
}

// buildSink assembles the configured sinks. With none enabled the run still
// works; only the summary survives.
func (s *Service) buildSink() (sink.TelemetrySink, error) {
	var sinks []sink.TelemetrySink

	if s.cfg.Sinks.SQLite.Enabled {
		sq, err := infrasink.NewSQLiteSink(s.cfg.Sinks.SQLite.Path, s.log)
		if err != nil {
			return nil, fmt.Errorf("build sqlite sink: %w", err)
		}
		sinks = append(sinks, sq)
	}
	if s.cfg.Sinks.Influx.Enabled {
		sinks = append(sinks, infrasink.NewInfluxSinkWithFallback(s.cfg.Sinks.Influx.InfluxConfig(), s.log))
	}
	if s.cfg.Sinks.MQTT.Enabled {
		mq, err := infrasink.NewMQTTSink(s.cfg.Sinks.MQTT.MQTTConfig(), s.log)
		if err != nil {
			return nil, fmt.Errorf("build mqtt sink: %w", err)
		}
		sinks = append(sinks, mq)
	}

	switch len(sinks) {
	case 0:
		return sink.NopSink{}, nil
	case 1:
		return sinks[0], nil
	default:
		return sink.NewMultiSink(sinks...), nil
	}
}
