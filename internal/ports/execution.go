package ports

import (
	"context"

	"github.com/tcmigrate/core/internal/domain/migration"
)

// OperationResolver constructs a dependency-aware execution plan from the
// operations the plan builder assembled. It is responsible for cycle
// detection, duplicate guarding, and leveling into parallel-safe batches.
// Returned plans must satisfy every DependencyGraph invariant.
type OperationResolver interface {
	Resolve(ctx context.Context, operations []migration.Operation) (*ExecutionPlan, error)
}

// ExecutionPlan is a leveled, validated ordering of operations ready for
// the executor to run.
type ExecutionPlan struct {
	Levels          []ExecutionLevel
	Operations      map[string]migration.Operation
	TotalOperations int
}

// ExecutionLevel is one batch of operation types safe to run concurrently.
type ExecutionLevel struct {
	Index int
	Types []string
}

// OperationExecutor drives operation execution while enforcing retry,
// parallelism within a level, cancellation, and the one-writer-per-key
// contract on OperationContext.results. Implementations must:
//   - Run operations within a level concurrently, serially across levels.
//   - Respect ctx cancellation between levels and before dispatching each
//     operation.
//   - Translate infrastructure failures into migration.DomainError codes.
//   - Emit observability signals via injected ports (logger, events, metrics).
type OperationExecutor interface {
	// ExecuteOperation performs up to the operation's configured max retry
	// attempts, backing off exponentially between them. It never panics or
	// returns a bare error for a failed operation; failure is reported via
	// OperationResult.Success=false.
	ExecuteOperation(ctx context.Context, op migration.Operation, runCtx *migration.OperationContext) migration.OperationResult

	// ExecuteLevel runs every operation in one level concurrently and
	// returns their results in the order given.
	ExecuteLevel(ctx context.Context, level ExecutionLevel, plan *ExecutionPlan, runCtx *migration.OperationContext, continueOnError bool) ([]migration.OperationResult, error)

	// ExecutePlan runs every level of plan in order, writing each
	// operation's result into runCtx before the next level starts.
	ExecutePlan(ctx context.Context, plan *ExecutionPlan, runCtx *migration.OperationContext, continueOnError bool) ([]migration.OperationResult, error)
}
