package executor

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tcmigrate/core/internal/domain/migration"
	"github.com/tcmigrate/core/internal/infrastructure/observability"
	"github.com/tcmigrate/core/internal/ports"
)

func newRunCtx() *migration.OperationContext {
	return migration.NewOperationContext(&migration.MigrateTestCasesInput{}, nil, nil, migration.RunMetadata{RunID: "run-1"})
}

func TestExecuteOperationRetriesThenSucceeds(t *testing.T) {
	e := New()
	var attempts int32

	op := migration.Operation{
		OperationDefinition: migration.OperationDefinition{
			Type:        "flaky",
			RetryPolicy: &migration.RetryPolicy{MaxAttempts: 3, BaseDelayMS: 1, MaxDelayMS: 2},
		},
		Execute: func(ctx context.Context, rc *migration.OperationContext) (interface{}, error) {
			n := atomic.AddInt32(&attempts, 1)
			if n < 3 {
				return nil, errors.New("transient")
			}
			return "ok", nil
		},
	}

	result := e.ExecuteOperation(context.Background(), op, newRunCtx())
	assert.True(t, result.Success)
	assert.Equal(t, 3, result.Attempts)
	assert.Equal(t, "ok", result.Data)
}

func TestExecuteOperationExhaustsRetries(t *testing.T) {
	e := New()
	op := migration.Operation{
		OperationDefinition: migration.OperationDefinition{
			Type:        "always-fails",
			RetryPolicy: &migration.RetryPolicy{MaxAttempts: 2, BaseDelayMS: 1, MaxDelayMS: 2},
		},
		Execute: func(ctx context.Context, rc *migration.OperationContext) (interface{}, error) {
			return nil, errors.New("boom")
		},
	}

	result := e.ExecuteOperation(context.Background(), op, newRunCtx())
	assert.False(t, result.Success)
	assert.Equal(t, 2, result.Attempts)
	require.Error(t, result.Error)
}

func TestExecuteOperationRecordsMetricsPerOutcome(t *testing.T) {
	metrics := observability.NewCollector()
	e := New(WithMetrics(metrics), WithTracer(observability.NewLoggingTracer(nil)))

	ok := migration.Operation{
		OperationDefinition: migration.OperationDefinition{Type: "works"},
		Execute: func(ctx context.Context, rc *migration.OperationContext) (interface{}, error) {
			return nil, nil
		},
	}
	bad := migration.Operation{
		OperationDefinition: migration.OperationDefinition{
			Type:        "breaks",
			RetryPolicy: &migration.RetryPolicy{MaxAttempts: 2, BaseDelayMS: 1, MaxDelayMS: 2},
		},
		Execute: func(ctx context.Context, rc *migration.OperationContext) (interface{}, error) {
			return nil, errors.New("boom")
		},
	}

	e.ExecuteOperation(context.Background(), ok, newRunCtx())
	e.ExecuteOperation(context.Background(), bad, newRunCtx())

	okLabels := map[string]string{"operation_type": "works", "status": "success"}
	badLabels := map[string]string{"operation_type": "breaks", "status": "failure"}
	assert.Equal(t, 1.0, metrics.CounterValue("tcmigrate_operations_total", okLabels))
	assert.Equal(t, 1.0, metrics.CounterValue("tcmigrate_operations_total", badLabels))
	assert.Equal(t, 1, metrics.HistogramCount("tcmigrate_operation_duration_seconds", okLabels))
	assert.Equal(t, 1, metrics.HistogramCount("tcmigrate_operation_duration_seconds", badLabels))
}

func TestExecutePlanWritesResultsInOrder(t *testing.T) {
	e := New()
	runCtx := newRunCtx()

	plan := &ports.ExecutionPlan{
		Levels: []ports.ExecutionLevel{
			{Index: 0, Types: []string{"a"}},
			{Index: 1, Types: []string{"b"}},
		},
		Operations: map[string]migration.Operation{
			"a": {
				OperationDefinition: migration.OperationDefinition{Type: "a"},
				Execute: func(ctx context.Context, rc *migration.OperationContext) (interface{}, error) {
					return "a-value", nil
				},
			},
			"b": {
				OperationDefinition: migration.OperationDefinition{Type: "b"},
				Execute: func(ctx context.Context, rc *migration.OperationContext) (interface{}, error) {
					v, ok := rc.Result("a")
					require.True(t, ok)
					return v.(string) + "-b", nil
				},
			},
		},
		TotalOperations: 2,
	}

	results, err := e.ExecutePlan(context.Background(), plan, runCtx, false)
	require.NoError(t, err)
	require.Len(t, results, 2)

	bValue, ok := runCtx.Result("b")
	require.True(t, ok)
	assert.Equal(t, "a-value-b", bValue)
}

func TestExecutePlanStopsOnErrorWithoutContinueOnError(t *testing.T) {
	e := New()
	runCtx := newRunCtx()

	plan := &ports.ExecutionPlan{
		Levels: []ports.ExecutionLevel{
			{Index: 0, Types: []string{"fails"}},
			{Index: 1, Types: []string{"never-runs"}},
		},
		Operations: map[string]migration.Operation{
			"fails": {
				OperationDefinition: migration.OperationDefinition{Type: "fails"},
				Execute: func(ctx context.Context, rc *migration.OperationContext) (interface{}, error) {
					return nil, errors.New("boom")
				},
			},
			"never-runs": {
				OperationDefinition: migration.OperationDefinition{Type: "never-runs"},
				Execute: func(ctx context.Context, rc *migration.OperationContext) (interface{}, error) {
					t.Fatal("should not run")
					return nil, nil
				},
			},
		},
		TotalOperations: 2,
	}

	_, err := e.ExecutePlan(context.Background(), plan, runCtx, false)
	require.Error(t, err)
}
