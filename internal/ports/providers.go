package ports

import "github.com/tcmigrate/core/internal/domain/migration"

// SourceProviderRegistry resolves a registered SourceProvider by system id.
// Infrastructure adapters populate the registry at startup, while the
// application layer resolves providers by the ids named in a run request.
// Registries must be safe for concurrent use.
type SourceProviderRegistry interface {
	Register(systemID string, provider migration.SourceProvider) error
	Get(systemID string) (migration.SourceProvider, error)
	List() []string
}

// TargetProviderRegistry mirrors SourceProviderRegistry for target systems.
type TargetProviderRegistry interface {
	Register(systemID string, provider migration.TargetProvider) error
	Get(systemID string) (migration.TargetProvider, error)
	List() []string
}
