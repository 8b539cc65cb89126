package ports

import (
	"context"

	"github.com/tcmigrate/core/internal/domain/migration"
)

// RunStore persists migration run state so status-polling callers can
// observe progress from a process other than the one driving execution.
// Implementations should be durable (e.g. file- or database-backed) and
// safe for concurrent reads/writes.
type RunStore interface {
	Save(ctx context.Context, result *migration.MigrationResult) error
	Get(ctx context.Context, runID string) (*migration.MigrationResult, error)
	List(ctx context.Context) ([]*migration.MigrationResult, error)
	Delete(ctx context.Context, runID string) error
}

// Validator runs the field-compatibility and pre-flight checks
// (capability checks, field-type compatibility matrix, required-parameter
// checks) before the controller builds a plan.
type Validator interface {
	ValidateRun(ctx context.Context, input *migration.MigrateTestCasesInput, source migration.SourceProvider, target migration.TargetProvider) ([]*migration.DomainError, error)
	ValidateFieldCompatibility(sourceField, targetField migration.FieldDefinition, level migration.ValidationLevel) *migration.DomainError
	ValidateTestCase(tc migration.TestCase, targetFields []migration.FieldDefinition, targetCaps migration.ProviderCapabilities, level migration.ValidationLevel) []*migration.DomainError
}
