// Package executor runs a resolved plan level by level, retrying each
// operation's execute boundary
// with exponential backoff and jitter, and serializing writes into the
// shared OperationContext.
package executor

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/tcmigrate/core/internal/domain/migration"
	"github.com/tcmigrate/core/internal/ports"
)

// defaultRetryPolicy applies when an Operation carries no override.
var defaultRetryPolicy = migration.RetryPolicy{MaxAttempts: 1, BaseDelayMS: 100, MaxDelayMS: 5000}

// Executor implements ports.OperationExecutor.
type Executor struct {
	logger      ports.Logger
	metrics     ports.MetricsCollector
	tracer      ports.Tracer
	events      ports.EventPublisher
	parallelism int
}

// Option configures an Executor instance.
type Option func(*Executor)

// WithLogger injects a logger into the executor.
func WithLogger(logger ports.Logger) Option {
	return func(e *Executor) { e.logger = logger }
}

// WithMetrics injects a metrics collector.
func WithMetrics(metrics ports.MetricsCollector) Option {
	return func(e *Executor) { e.metrics = metrics }
}

// WithTracer injects a tracer for per-operation spans.
func WithTracer(tracer ports.Tracer) Option {
	return func(e *Executor) { e.tracer = tracer }
}

// WithEvents injects an event publisher.
func WithEvents(events ports.EventPublisher) Option {
	return func(e *Executor) { e.events = events }
}

// WithParallelism overrides per-level concurrency; 0 means unbounded
// within the level.
func WithParallelism(n int) Option {
	return func(e *Executor) { e.parallelism = n }
}

// New constructs an Executor.
func New(opts ...Option) *Executor {
	e := &Executor{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExecuteOperation runs op.Execute up to its retry policy's MaxAttempts,
// backing off exponentially between attempts. It never returns a bare
// error for a failed operation: failure is reported via
// OperationResult.Success=false, per the executeOperation contract.
func (e *Executor) ExecuteOperation(ctx context.Context, op migration.Operation, runCtx *migration.OperationContext) migration.OperationResult {
	policy := defaultRetryPolicy
	if op.RetryPolicy != nil {
		policy = *op.RetryPolicy
	}
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = 1
	}

	start := time.Now()
	var span ports.Span
	if e.tracer != nil {
		var spanCtx context.Context
		spanCtx, span = e.tracer.StartSpan(ctx, "executor.execute", "operation_type", op.Type)
		if spanCtx != nil {
			ctx = spanCtx
		}
		defer span.End()
	}

	var lastErr error
	delay := time.Duration(policy.BaseDelayMS) * time.Millisecond
	maxDelay := time.Duration(policy.MaxDelayMS) * time.Millisecond

	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return e.finishOperation(ctx, span, start, migration.OperationResult{OperationType: op.Type, Success: false, Error: migration.StopErrorFromContext(err), Attempts: attempt})
		}

		data, err := op.Execute(ctx, runCtx)
		if err == nil {
			e.logIfPresent(ctx, "debug", "operation succeeded", "operation_type", op.Type, "attempts", attempt)
			return e.finishOperation(ctx, span, start, migration.OperationResult{OperationType: op.Type, Success: true, Data: data, Attempts: attempt})
		}
		lastErr = err

		if attempt < policy.MaxAttempts {
			e.publish(ctx, ports.EventOperationRetrying, map[string]interface{}{"operation_type": op.Type, "attempt": attempt, "error": err.Error()})
			wait := addJitter(delay)
			select {
			case <-ctx.Done():
				return e.finishOperation(ctx, span, start, migration.OperationResult{OperationType: op.Type, Success: false, Error: migration.StopErrorFromContext(ctx.Err()), Attempts: attempt})
			case <-time.After(wait):
			}
			delay = nextDelay(delay, maxDelay)
		}
	}

	e.publish(ctx, ports.EventOperationFailed, map[string]interface{}{"operation_type": op.Type, "error": lastErr.Error(), "attempts": policy.MaxAttempts})
	return e.finishOperation(ctx, span, start, migration.OperationResult{OperationType: op.Type, Success: false, Error: lastErr, Attempts: policy.MaxAttempts})
}

// finishOperation records the operation's metrics and span outcome on every
// result path before the result is returned to the caller.
func (e *Executor) finishOperation(ctx context.Context, span ports.Span, start time.Time, result migration.OperationResult) migration.OperationResult {
	status := "success"
	if !result.Success {
		status = "failure"
	}
	e.recordMetrics(ctx, result.OperationType, status, time.Since(start))
	if span != nil {
		span.SetAttribute("attempts", result.Attempts)
		if result.Success {
			span.SetStatus(ports.SpanStatusOK, status)
		} else {
			span.SetStatus(ports.SpanStatusError, result.Error.Error())
		}
	}
	return result
}

func (e *Executor) recordMetrics(ctx context.Context, opType, status string, duration time.Duration) {
	if e.metrics == nil {
		return
	}
	labels := map[string]string{
		"operation_type": opType,
		"status":         status,
	}
	e.metrics.IncCounter(ctx, "tcmigrate_operations_total", labels)
	e.metrics.ObserveHistogram(ctx, "tcmigrate_operation_duration_seconds", duration.Seconds(), labels)
}

// ExecuteLevel runs every operation named in level concurrently, writing
// each successful result into runCtx.results as it completes.
func (e *Executor) ExecuteLevel(ctx context.Context, level ports.ExecutionLevel, plan *ports.ExecutionPlan, runCtx *migration.OperationContext, continueOnError bool) ([]migration.OperationResult, error) {
	results := make([]migration.OperationResult, len(level.Types))

	parallelism := e.parallelism
	if parallelism <= 0 {
		parallelism = len(level.Types)
	}
	if parallelism <= 0 {
		parallelism = 1
	}
	sem := make(chan struct{}, parallelism)

	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	for i, opType := range level.Types {
		op, ok := plan.Operations[opType]
		if !ok {
			return results, migration.NewGraphInvalidError("operation type missing from plan", map[string]interface{}{"type": opType})
		}
		wg.Add(1)
		go func(idx int, operation migration.Operation) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				mu.Lock()
				if firstErr == nil {
					firstErr = migration.StopErrorFromContext(ctx.Err())
				}
				mu.Unlock()
				return
			}

			e.publish(ctx, ports.EventOperationStarted, map[string]interface{}{"operation_type": operation.Type})
			result := e.ExecuteOperation(ctx, operation, runCtx)
			results[idx] = result

			if result.Success {
				if err := runCtx.SetResult(operation.Type, result.Data); err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = err
					}
					mu.Unlock()
					return
				}
				e.publish(ctx, ports.EventOperationCompleted, map[string]interface{}{"operation_type": operation.Type, "attempts": result.Attempts})
				return
			}

			if !continueOnError {
				mu.Lock()
				if firstErr == nil {
					firstErr = result.Error
				}
				mu.Unlock()
			}
		}(i, op)
	}

	wg.Wait()
	return results, firstErr
}

// ExecutePlan runs every level in order, stopping after the first level
// that produces an error unless continueOnError is set.
func (e *Executor) ExecutePlan(ctx context.Context, plan *ports.ExecutionPlan, runCtx *migration.OperationContext, continueOnError bool) ([]migration.OperationResult, error) {
	var all []migration.OperationResult
	for _, level := range plan.Levels {
		if err := ctx.Err(); err != nil {
			return all, migration.StopErrorFromContext(err)
		}
		results, err := e.ExecuteLevel(ctx, level, plan, runCtx, continueOnError)
		all = append(all, results...)
		if err != nil && !continueOnError {
			return all, err
		}
	}
	return all, nil
}

func (e *Executor) publish(ctx context.Context, eventType string, payload map[string]interface{}) {
	if e.events == nil {
		return
	}
	if err := e.events.Publish(ctx, executorEvent{eventType: eventType, payload: payload}); err != nil {
		e.logIfPresent(ctx, "warn", "failed to publish executor event", "event_type", eventType, "error", err)
	}
}

func (e *Executor) logIfPresent(ctx context.Context, level, msg string, fields ...interface{}) {
	if e.logger == nil {
		return
	}
	switch level {
	case "debug":
		e.logger.Debug(ctx, msg, fields...)
	case "warn":
		e.logger.Warn(ctx, msg, fields...)
	default:
		e.logger.Info(ctx, msg, fields...)
	}
}

type executorEvent struct {
	eventType string
	payload   interface{}
}

func (e executorEvent) EventType() string    { return e.eventType }
func (e executorEvent) Payload() interface{} { return e.payload }

func nextDelay(current, max time.Duration) time.Duration {
	next := current * 2
	if next > max {
		return max
	}
	return next
}

func addJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return d
	}
	jitter := float64(d) * 0.1
	return d + time.Duration(rand.Float64()*jitter*2-jitter)
}

var _ ports.OperationExecutor = (*Executor)(nil)
