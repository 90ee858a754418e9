// Package telemetry provides OpenTelemetry instrumentation for the sync server.
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// SyncMetricsMeterName is the name used for the sync metrics meter
const SyncMetricsMeterName = "github.com/bandroom-dev/bandroom-sync-server/sync"

// SyncMetrics holds the OpenTelemetry instruments for sync job metrics
type SyncMetrics struct {
	jobDuration  metric.Float64Histogram
	unitOutcomes metric.Int64Counter
	activeJobs   metric.Int64UpDownCounter
}

// NewSyncMetrics creates a new SyncMetrics instance with the given meter provider.
// If provider is nil, it returns nil (no-op metrics).
func NewSyncMetrics(provider metric.MeterProvider) (*SyncMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(SyncMetricsMeterName)

	jobDuration, err := meter.Float64Histogram(
		"bandroom_sync_job_duration_seconds",
		metric.WithDescription("Duration of sync jobs from start to terminal state"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	unitOutcomes, err := meter.Int64Counter(
		"bandroom_sync_unit_outcomes_total",
		metric.WithDescription("Resolved work units by outcome"),
		metric.WithUnit("{unit}"),
	)
	if err != nil {
		return nil, err
	}

	activeJobs, err := meter.Int64UpDownCounter(
		"bandroom_sync_active_jobs",
		metric.WithDescription("Sync jobs currently running"),
		metric.WithUnit("{job}"),
	)
	if err != nil {
		return nil, err
	}

	return &SyncMetrics{
		jobDuration:  jobDuration,
		unitOutcomes: unitOutcomes,
		activeJobs:   activeJobs,
	}, nil
}

// RecordJobStart records the start of a sync job
func (m *SyncMetrics) RecordJobStart(ctx context.Context, kind string) {
	if m == nil || m.activeJobs == nil {
		return
	}

	m.activeJobs.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

// RecordJobEnd records a sync job reaching a terminal state
func (m *SyncMetrics) RecordJobEnd(ctx context.Context, kind, status string, duration time.Duration) {
	if m == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("kind", kind),
		attribute.String("status", status),
	}

	if m.activeJobs != nil {
		m.activeJobs.Add(ctx, -1, metric.WithAttributes(attribute.String("kind", kind)))
	}
	if m.jobDuration != nil {
		m.jobDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
	}
}

// RecordUnitOutcome records one resolved work unit
func (m *SyncMetrics) RecordUnitOutcome(ctx context.Context, kind, outcome string) {
	if m == nil || m.unitOutcomes == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("kind", kind),
		attribute.String("outcome", outcome),
	}

	m.unitOutcomes.Add(ctx, 1, metric.WithAttributes(attrs...))
}
