package ports

import "context"

// MetricsCollector records quantitative observability signals. The
// interface is intentionally generic so adapters can back onto Prometheus,
// StatsD, or vendor-specific SDKs. Standard metric names include:
//   - Counters:
//     tcmigrate_runs_total{status="completed|partially_completed|failed|cancelled"}
//     tcmigrate_operations_total{operation_type="...", status="success|failure"}
//     tcmigrate_items_total{status="migrated|skipped|failed"}
//   - Gauges:
//     tcmigrate_active_runs
//   - Histograms:
//     tcmigrate_run_duration_seconds
//     tcmigrate_operation_duration_seconds{operation_type="..."}
//     tcmigrate_item_duration_seconds
type MetricsCollector interface {
	IncCounter(ctx context.Context, name string, labels map[string]string)
	SetGauge(ctx context.Context, name string, value float64, labels map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, labels map[string]string)
}

// Tracer manages in-process tracing spans. Span names follow the
// convention `<component>.<operation>` (e.g. `resolver.resolve`,
// `executor.execute`, `pipeline.migrate_item`).
type Tracer interface {
	StartSpan(ctx context.Context, name string, attributes ...interface{}) (context.Context, Span)
}

// Span represents an active tracing span.
type Span interface {
	SetAttribute(key string, value interface{})
	SetStatus(status SpanStatus, message string)
	End()
}

// SpanStatus provides strongly typed span result semantics.
type SpanStatus string

const (
	SpanStatusOK    SpanStatus = "ok"
	SpanStatusError SpanStatus = "error"
)
