// Package resolver implements the operation resolver: turning a flat
// list of Operations into a validated, leveled ExecutionPlan.
package resolver

import (
	"context"

	"github.com/tcmigrate/core/internal/domain/graph"
	"github.com/tcmigrate/core/internal/domain/migration"
	"github.com/tcmigrate/core/internal/ports"
)

// Resolver implements ports.OperationResolver using the DependencyGraph.
type Resolver struct{}

// New returns a ready-to-use Resolver. The resolver is stateless.
func New() *Resolver {
	return &Resolver{}
}

// Resolve builds the dependency graph over ops, validates it, and returns
// the leveled plan the executor consumes.
func (r *Resolver) Resolve(ctx context.Context, ops []migration.Operation) (*ports.ExecutionPlan, error) {
	g := graph.New()
	byType := make(map[string]migration.Operation, len(ops))

	for _, op := range ops {
		if err := g.AddNode(op.OperationDefinition); err != nil {
			return nil, err
		}
		byType[op.Type] = op
	}

	if err := g.Build(ctx); err != nil {
		return nil, err
	}

	levels := make([]ports.ExecutionLevel, len(g.Levels))
	for i, level := range g.Levels {
		levels[i] = ports.ExecutionLevel{Index: level.Index, Types: level.Types}
	}

	return &ports.ExecutionPlan{
		Levels:          levels,
		Operations:      byType,
		TotalOperations: len(ops),
	}, nil
}

var _ ports.OperationResolver = (*Resolver)(nil)
