// Package sink defines where generated telemetry lands. Implementations
// live under infra/sink.
package sink

import (
	"context"
	"errors"

	"github.com/kilianp07/batterysim/core/model"
)

// TelemetrySink receives batches of telemetry records and anomaly events.
// Write methods return the number of rows actually persisted, which may be
// lower than the batch size when a backend deduplicates.
type TelemetrySink interface {
	WriteTelemetry(ctx context.Context, records []model.TelemetryRecord) (int, error)
	WriteEvents(ctx context.Context, events []model.AnomalyEvent) (int, error)
	Close() error
}

// NopSink discards everything. Useful when only the run summary matters.
type NopSink struct{}

func (NopSink) WriteTelemetry(_ context.Context, records []model.TelemetryRecord) (int, error) {
	return len(records), nil
}

func (NopSink) WriteEvents(_ context.Context, events []model.AnomalyEvent) (int, error) {
	return len(events), nil
}

func (NopSink) Close() error { return nil }

// MultiSink fans every batch out to all children. The reported row count is
// the maximum across children; write errors are joined, not short-circuited,
// so a failing backend does not starve the others.
type MultiSink struct {
	sinks []TelemetrySink
}

// NewMultiSink wraps the given sinks. With no children it behaves like
// NopSink.
func NewMultiSink(sinks ...TelemetrySink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

func (m *MultiSink) WriteTelemetry(ctx context.Context, records []model.TelemetryRecord) (int, error) {
	var errs []error
	written := len(records)
	if len(m.sinks) > 0 {
		written = 0
	}
	for _, s := range m.sinks {
		n, err := s.WriteTelemetry(ctx, records)
		if err != nil {
			errs = append(errs, err)
		}
		if n > written {
			written = n
		}
	}
	return written, errors.Join(errs...)
}

func (m *MultiSink) WriteEvents(ctx context.Context, events []model.AnomalyEvent) (int, error) {
	var errs []error
	written := len(events)
	if len(m.sinks) > 0 {
		written = 0
	}
	for _, s := range m.sinks {
		n, err := s.WriteEvents(ctx, events)
		if err != nil {
			errs = append(errs, err)
		}
		if n > written {
			written = n
		}
	}
	return written, errors.Join(errs...)
}

func (m *MultiSink) Close() error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
