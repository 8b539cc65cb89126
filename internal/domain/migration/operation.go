package migration

import "context"

// RetryPolicy overrides the executor's default retry behaviour for a single
// operation type.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelayMS int
	MaxDelayMS  int
}

// OperationDefinition is pure, hashable metadata describing one node in the
// operation graph. It carries no behaviour and is safe to compare by value.
type OperationDefinition struct {
	Type           string
	Name           string
	DependsOn      []string
	RequiredParams []string
	RetryPolicy    *RetryPolicy
}

// OperationFunc is the side-effecting capability an Operation executes. It
// receives the shared run context and returns whatever value downstream
// operations should see under this operation's type tag.
type OperationFunc func(ctx context.Context, runCtx *OperationContext) (interface{}, error)

// Operation pairs an OperationDefinition with its execution capability.
type Operation struct {
	OperationDefinition
	Execute OperationFunc
}

// OperationResult captures the outcome of running one operation through the
// executor's retry loop.
type OperationResult struct {
	OperationType string
	Success       bool
	Data          interface{}
	Error         error
	Attempts      int
}
