package planner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tcmigrate/core/internal/domain/migration"
	"github.com/tcmigrate/core/internal/infrastructure/providers/memory"
	"github.com/tcmigrate/core/internal/infrastructure/resolver"
)

func newProviders() (*memory.Source, *memory.Target) {
	source := memory.NewSource(migration.ProviderInfo{ID: "src"}, migration.ProviderCapabilities{Attachments: true}, nil)
	source.SeedProject(migration.Project{Key: "PROJ"}, []migration.TestCase{
		{ID: "TC-1", Status: migration.StatusReady},
		{ID: "TC-2", Status: migration.StatusReady},
	})
	target := memory.NewTarget(migration.ProviderInfo{ID: "dst"}, migration.ProviderCapabilities{}, nil)
	target.SeedProject(migration.Project{Key: "PROJ"})
	return source, target
}

func baseInput() *migration.MigrateTestCasesInput {
	return &migration.MigrateTestCasesInput{
		SourceSystemID: "src",
		TargetSystemID: "dst",
		ProjectKey:     "PROJ",
	}
}

func opTypes(ops []migration.Operation) map[string]migration.OperationDefinition {
	out := make(map[string]migration.OperationDefinition, len(ops))
	for _, op := range ops {
		out[op.Type] = op.OperationDefinition
	}
	return out
}

func TestBuildBulkPlan(t *testing.T) {
	t.Parallel()

	source, target := newProviders()
	ops, err := New().Build(context.Background(), baseInput(), source, target, nil)
	require.NoError(t, err)

	byType := opTypes(ops)
	require.Len(t, ops, 6)
	require.Contains(t, byType, "authenticate_source")
	require.Contains(t, byType, "authenticate_target")
	require.Equal(t, []string{"authenticate_source"}, byType["get_source_project"].DependsOn)
	require.Equal(t, []string{"authenticate_target"}, byType["get_target_project"].DependsOn)
	require.Equal(t, []string{"get_source_project"}, byType["get_test_cases"].DependsOn)

	terminal := byType["create_test_cases"]
	require.ElementsMatch(t, []string{"authenticate_target", "get_target_project", "get_test_cases"}, terminal.DependsOn)
	require.Contains(t, terminal.RequiredParams, "projectKey")
}

func TestBuildPerIDPlanWithAttachments(t *testing.T) {
	t.Parallel()

	source, target := newProviders()
	input := baseInput()
	input.TestCaseIDs = []string{"TC-1", "TC-2"}
	input.Options.IncludeAttachments = true

	ops, err := New().Build(context.Background(), input, source, target, nil)
	require.NoError(t, err)

	byType := opTypes(ops)
	require.NotContains(t, byType, "get_test_cases", "per-id plans must not also bulk fetch")
	for _, id := range input.TestCaseIDs {
		require.Equal(t, []string{"get_source_project"}, byType["get_test_case_"+id].DependsOn)
		require.Equal(t, []string{"get_test_case_" + id}, byType["get_attachments_"+id].DependsOn)
	}

	terminal := byType["create_test_cases"]
	require.ElementsMatch(t, []string{
		"authenticate_target", "get_target_project",
		"get_test_case_TC-1", "get_attachments_TC-1",
		"get_test_case_TC-2", "get_attachments_TC-2",
	}, terminal.DependsOn)
}

func TestBuildNilInputRejected(t *testing.T) {
	t.Parallel()

	source, target := newProviders()
	_, err := New().Build(context.Background(), nil, source, target, nil)
	require.Error(t, err)
	require.Equal(t, migration.ErrCodeConfiguration, migration.AsDomainError(err).Code)
}

func TestBuildPlanResolvesWithCreateLast(t *testing.T) {
	t.Parallel()

	source, target := newProviders()
	input := baseInput()
	input.TestCaseIDs = []string{"TC-1"}
	input.Options.IncludeAttachments = true

	ops, err := New().Build(context.Background(), input, source, target, nil)
	require.NoError(t, err)

	plan, err := resolver.New().Resolve(context.Background(), ops)
	require.NoError(t, err)
	require.Equal(t, len(ops), plan.TotalOperations)

	last := plan.Levels[len(plan.Levels)-1]
	require.Equal(t, []string{"create_test_cases"}, last.Types)

	position := make(map[string]int)
	for i, level := range plan.Levels {
		for _, opType := range level.Types {
			position[opType] = i
		}
	}
	for _, op := range ops {
		for _, dep := range op.DependsOn {
			require.Less(t, position[dep], position[op.Type], "%s must run before %s", dep, op.Type)
		}
	}
}
