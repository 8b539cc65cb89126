package observability

import (
	"context"
	"time"

	"github.com/tcmigrate/core/internal/ports"
)

// LoggingTracer implements ports.Tracer by rendering each span as a pair
// of structured log entries: one at start, one at End carrying the span's
// duration, status, and accumulated attributes.
type LoggingTracer struct {
	logger ports.Logger
}

// NewLoggingTracer constructs a tracer over logger. logger may be nil, in
// which case spans are tracked but never rendered.
func NewLoggingTracer(logger ports.Logger) *LoggingTracer {
	return &LoggingTracer{logger: logger}
}

// StartSpan begins a span and logs its opening entry.
func (t *LoggingTracer) StartSpan(ctx context.Context, name string, attributes ...interface{}) (context.Context, ports.Span) {
	if t.logger != nil {
		t.logger.Debug(ctx, "span started", append([]interface{}{"span", name}, attributes...)...)
	}
	return ctx, &logSpan{
		tracer: t,
		ctx:    ctx,
		name:   name,
		start:  time.Now(),
		fields: append([]interface{}{}, attributes...),
		status: ports.SpanStatusOK,
	}
}

type logSpan struct {
	tracer  *LoggingTracer
	ctx     context.Context
	name    string
	start   time.Time
	fields  []interface{}
	status  ports.SpanStatus
	message string
	ended   bool
}

// SetAttribute records one key/value pair on the span.
func (s *logSpan) SetAttribute(key string, value interface{}) {
	s.fields = append(s.fields, key, value)
}

// SetStatus records the span's outcome.
func (s *logSpan) SetStatus(status ports.SpanStatus, message string) {
	s.status = status
	s.message = message
}

// End closes the span and logs its closing entry. Ending twice is a no-op.
func (s *logSpan) End() {
	if s.ended {
		return
	}
	s.ended = true
	if s.tracer.logger == nil {
		return
	}
	fields := append([]interface{}{
		"span", s.name,
		"status", string(s.status),
		"duration_ms", time.Since(s.start).Milliseconds(),
	}, s.fields...)
	if s.message != "" {
		fields = append(fields, "message", s.message)
	}
	if s.status == ports.SpanStatusError {
		s.tracer.logger.Warn(s.ctx, "span ended", fields...)
		return
	}
	s.tracer.logger.Debug(s.ctx, "span ended", fields...)
}

var _ ports.Tracer = (*LoggingTracer)(nil)
