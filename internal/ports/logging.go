package ports

import (
	"context"

	"github.com/google/uuid"
)

// Logger defines the migration core's structured logging contract. All log
// calls are key/value pairs, must be safe for concurrent use, and should
// automatically enrich entries with a run id when present in context.
// Common fields include:
//   - run_id (the active migration run)
//   - layer (domain|application|infrastructure)
//   - component (resolver, executor, pipeline, validator, events)
//   - operation_type / test_case_id
//   - duration_ms for timed operations
type Logger interface {
	Debug(ctx context.Context, msg string, fields ...interface{})
	Info(ctx context.Context, msg string, fields ...interface{})
	Warn(ctx context.Context, msg string, fields ...interface{})
	Error(ctx context.Context, msg string, fields ...interface{})
	With(fields ...interface{}) Logger
}

type correlationIDKey struct{}

// WithCorrelationID attaches the active run id to the context so downstream
// layers can emit correlated logs and events.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey{}, id)
}

// GetCorrelationID extracts the run id from context. It returns an empty
// string when none has been set—callers should treat that as "uncorrelated".
func GetCorrelationID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(correlationIDKey{}).(string); ok {
		return id
	}
	return ""
}

// GenerateCorrelationID produces a new random UUID string, the same form
// the controller uses for a run id.
func GenerateCorrelationID() string {
	return uuid.NewString()
}
