// Package registry implements the source/target provider registries: the
// lookup-by-system-id boundary ports.SourceProviderRegistry and
// ports.TargetProviderRegistry describe.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/tcmigrate/core/internal/domain/migration"
	"github.com/tcmigrate/core/internal/ports"
)

// SourceRegistry implements ports.SourceProviderRegistry.
type SourceRegistry struct {
	mu        sync.RWMutex
	providers map[string]migration.SourceProvider
}

// NewSourceRegistry returns an empty SourceRegistry.
func NewSourceRegistry() *SourceRegistry {
	return &SourceRegistry{providers: make(map[string]migration.SourceProvider)}
}

// Register adds a provider under systemID. It is an error to register the
// same id twice.
func (r *SourceRegistry) Register(systemID string, provider migration.SourceProvider) error {
	if systemID == "" {
		return fmt.Errorf("systemID must not be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.providers[systemID]; exists {
		return fmt.Errorf("source provider %q already registered", systemID)
	}
	r.providers[systemID] = provider
	return nil
}

// Get resolves systemID to its provider.
func (r *SourceRegistry) Get(systemID string) (migration.SourceProvider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[systemID]
	if !ok {
		return nil, migration.NewProviderNotFoundError(systemID)
	}
	return p, nil
}

// List returns every registered system id, sorted.
func (r *SourceRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.providers))
	for id := range r.providers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

var _ ports.SourceProviderRegistry = (*SourceRegistry)(nil)

// TargetRegistry implements ports.TargetProviderRegistry.
type TargetRegistry struct {
	mu        sync.RWMutex
	providers map[string]migration.TargetProvider
}

// NewTargetRegistry returns an empty TargetRegistry.
func NewTargetRegistry() *TargetRegistry {
	return &TargetRegistry{providers: make(map[string]migration.TargetProvider)}
}

// Register adds a provider under systemID. It is an error to register the
// same id twice.
func (r *TargetRegistry) Register(systemID string, provider migration.TargetProvider) error {
	if systemID == "" {
		return fmt.Errorf("systemID must not be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.providers[systemID]; exists {
		return fmt.Errorf("target provider %q already registered", systemID)
	}
	r.providers[systemID] = provider
	return nil
}

// Get resolves systemID to its provider.
func (r *TargetRegistry) Get(systemID string) (migration.TargetProvider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[systemID]
	if !ok {
		return nil, migration.NewProviderNotFoundError(systemID)
	}
	return p, nil
}

// List returns every registered system id, sorted.
func (r *TargetRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.providers))
	for id := range r.providers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

var _ ports.TargetProviderRegistry = (*TargetRegistry)(nil)
