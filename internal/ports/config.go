package ports

import (
	"context"

	"github.com/tcmigrate/core/internal/domain/migration"
)

// RunConfigLoader loads a MigrateTestCasesInput from an external source
// such as the filesystem or an embedded asset. Implementations must be
// deterministic, respect context cancellation, and translate
// infrastructure failures into migration.DomainError codes.
//
// Error mapping expectations:
//   - io/fs.ErrNotExist, other file-read failures and YAML syntax
//     failures → ErrCodeConfiguration
//   - schema validation failures → ErrCodeValidation
//   - context cancellation/deadline → ErrCodeCancelled or ErrCodeTimeout
//
// RunConfigLoader is consumed exclusively by application-layer use cases;
// domain packages never depend on concrete infrastructure concerns.
type RunConfigLoader interface {
	// Load materialises a fully validated run request from the provided
	// location.
	Load(ctx context.Context, path string) (*migration.MigrateTestCasesInput, error)

	// Validate performs a lightweight syntactic check without constructing
	// the full request, for fast CLI-side feedback.
	Validate(ctx context.Context, path string) error
}
