package resolver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tcmigrate/core/internal/domain/migration"
)

func noopOp(opType string, dependsOn ...string) migration.Operation {
	return migration.Operation{
		OperationDefinition: migration.OperationDefinition{Type: opType, Name: opType, DependsOn: dependsOn},
		Execute: func(ctx context.Context, rc *migration.OperationContext) (interface{}, error) {
			return nil, nil
		},
	}
}

func TestResolveOrdersLevels(t *testing.T) {
	r := New()
	ops := []migration.Operation{
		noopOp("authenticate_source"),
		noopOp("authenticate_target"),
		noopOp("get_source_project", "authenticate_source"),
		noopOp("get_target_project", "authenticate_target"),
		noopOp("create_test_case", "get_source_project", "get_target_project"),
	}

	plan, err := r.Resolve(context.Background(), ops)
	require.NoError(t, err)
	require.Len(t, plan.Levels, 3)
	assert.ElementsMatch(t, []string{"authenticate_source", "authenticate_target"}, plan.Levels[0].Types)
	assert.ElementsMatch(t, []string{"get_source_project", "get_target_project"}, plan.Levels[1].Types)
	assert.ElementsMatch(t, []string{"create_test_case"}, plan.Levels[2].Types)
	assert.Equal(t, 5, plan.TotalOperations)
}

func TestResolveRejectsMissingDependency(t *testing.T) {
	r := New()
	ops := []migration.Operation{noopOp("a", "missing")}

	_, err := r.Resolve(context.Background(), ops)
	require.Error(t, err)
	var derr *migration.DomainError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, migration.ErrCodeMissingDependency, derr.Code)
}
