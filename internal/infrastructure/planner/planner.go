// Package planner implements the plan builder: turning a validated run
// request and the two providers' published API contracts into the flat
// list of Operations the resolver will order.
package planner

import (
	"context"
	"fmt"

	"github.com/tcmigrate/core/internal/domain/migration"
)

// Builder assembles the operation list for one run.
type Builder struct{}

// New returns a ready-to-use Builder. The builder is stateless.
func New() *Builder {
	return &Builder{}
}

// Build constructs the operation list for one run:
//   - always authenticate_source, authenticate_target, get_source_project,
//     get_target_project (project fetches depend on their authenticate);
//   - if TestCaseIDs is non-empty, one get_test_case_<id> per id, plus
//     get_attachments_<id> when attachments are requested;
//   - otherwise a single bulk get_test_cases;
//   - a terminal create_test_cases depending on authenticate_target,
//     get_target_project, and every fetch operation.
func (b *Builder) Build(ctx context.Context, input *migration.MigrateTestCasesInput, source migration.SourceProvider, target migration.TargetProvider, runPipeline migration.OperationFunc) ([]migration.Operation, error) {
	if input == nil {
		return nil, migration.NewConfigurationError("input must not be nil")
	}

	var ops []migration.Operation

	ops = append(ops, migration.Operation{
		OperationDefinition: migration.OperationDefinition{Type: "authenticate_source", Name: "authenticate source"},
		Execute: func(ctx context.Context, rc *migration.OperationContext) (interface{}, error) {
			conn, err := source.TestConnection(ctx)
			if err != nil {
				return nil, migration.NewConnectivityError(input.SourceSystemID, err)
			}
			if !conn.Connected {
				return nil, migration.NewConnectivityError(input.SourceSystemID, fmt.Errorf("%s", conn.Message))
			}
			return conn, nil
		},
	})

	ops = append(ops, migration.Operation{
		OperationDefinition: migration.OperationDefinition{Type: "authenticate_target", Name: "authenticate target"},
		Execute: func(ctx context.Context, rc *migration.OperationContext) (interface{}, error) {
			conn, err := target.TestConnection(ctx)
			if err != nil {
				return nil, migration.NewConnectivityError(input.TargetSystemID, err)
			}
			if !conn.Connected {
				return nil, migration.NewConnectivityError(input.TargetSystemID, fmt.Errorf("%s", conn.Message))
			}
			return conn, nil
		},
	})

	ops = append(ops, migration.Operation{
		OperationDefinition: migration.OperationDefinition{
			Type:      "get_source_project",
			Name:      "fetch source project",
			DependsOn: []string{"authenticate_source"},
		},
		Execute: func(ctx context.Context, rc *migration.OperationContext) (interface{}, error) {
			return source.GetProject(ctx, input.ProjectKey)
		},
	})

	ops = append(ops, migration.Operation{
		OperationDefinition: migration.OperationDefinition{
			Type:      "get_target_project",
			Name:      "fetch target project",
			DependsOn: []string{"authenticate_target"},
		},
		Execute: func(ctx context.Context, rc *migration.OperationContext) (interface{}, error) {
			return target.GetProject(ctx, input.ProjectKey)
		},
	})

	var fetchTypes []string

	if len(input.TestCaseIDs) > 0 {
		for _, id := range input.TestCaseIDs {
			id := id
			fetchType := "get_test_case_" + id
			fetchTypes = append(fetchTypes, fetchType)
			ops = append(ops, migration.Operation{
				OperationDefinition: migration.OperationDefinition{
					Type:      fetchType,
					Name:      "fetch test case " + id,
					DependsOn: []string{"get_source_project"},
				},
				Execute: func(ctx context.Context, rc *migration.OperationContext) (interface{}, error) {
					return source.GetTestCase(ctx, input.ProjectKey, id)
				},
			})

			if input.Options.IncludeAttachments {
				attachType := "get_attachments_" + id
				fetchTypes = append(fetchTypes, attachType)
				ops = append(ops, migration.Operation{
					OperationDefinition: migration.OperationDefinition{
						Type:      attachType,
						Name:      "fetch attachments for " + id,
						DependsOn: []string{fetchType},
					},
					Execute: func(ctx context.Context, rc *migration.OperationContext) (interface{}, error) {
						return source.GetTestCaseAttachments(ctx, id)
					},
				})
			}
		}
	} else {
		fetchTypes = append(fetchTypes, "get_test_cases")
		ops = append(ops, migration.Operation{
			OperationDefinition: migration.OperationDefinition{
				Type:      "get_test_cases",
				Name:      "bulk fetch test cases",
				DependsOn: []string{"get_source_project"},
			},
			Execute: func(ctx context.Context, rc *migration.OperationContext) (interface{}, error) {
				return source.GetTestCases(ctx, input.ProjectKey)
			},
		})
	}

	terminalDeps := append([]string{"authenticate_target", "get_target_project"}, fetchTypes...)
	ops = append(ops, migration.Operation{
		OperationDefinition: migration.OperationDefinition{
			Type:           "create_test_cases",
			Name:           "migrate test cases to target",
			DependsOn:      terminalDeps,
			RequiredParams: []string{"projectKey"},
		},
		// The actual per-item map/transform/create/attachments/history
		// sequence lives in the pipeline package; this node's Execute is
		// wired up by the migration controller, which has access to the
		// pipeline and the fetch results.
		Execute: nil,
	})

	return ops, nil
}
