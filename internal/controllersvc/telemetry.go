// SPDX-License-Identifier: BSD-3-Clause

package controllersvc

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// telemetry holds the Controller's tracer/meter and the instruments it
// feeds every tick, following the teacher's optional-tracing pattern:
// otel.Tracer/otel.Meter return no-op implementations until a process
// registers an SDK, so this never requires a collector to be present.
type telemetry struct {
	tracer trace.Tracer
	meter  metric.Meter

	ticksTotal        metric.Int64Counter
	tickDuration      metric.Float64Histogram
	faultEntriesTotal metric.Int64Counter
}

func newTelemetry(serviceName string) (*telemetry, error) {
	t := &telemetry{
		tracer: otel.Tracer(serviceName),
		meter:  otel.Meter(serviceName),
	}

	var err error
	t.ticksTotal, err = t.meter.Int64Counter(
		"kilnd_controller_ticks_total",
		metric.WithDescription("Total number of controller loop ticks executed"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("controllersvc: ticks counter: %w", err)
	}

	t.tickDuration, err = t.meter.Float64Histogram(
		"kilnd_controller_tick_duration_seconds",
		metric.WithDescription("Wall-clock duration of one controller loop tick"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("controllersvc: tick duration histogram: %w", err)
	}

	t.faultEntriesTotal, err = t.meter.Int64Counter(
		"kilnd_controller_fault_entries_total",
		metric.WithDescription("Total number of times the run state entered Fault"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("controllersvc: fault entries counter: %w", err)
	}

	return t, nil
}

func (t *telemetry) startTick(ctx context.Context) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "controllersvc.tick")
}
