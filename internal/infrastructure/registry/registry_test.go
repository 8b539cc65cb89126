package registry

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tcmigrate/core/internal/domain/migration"
	"github.com/tcmigrate/core/internal/infrastructure/providers/memory"
)

func TestSourceRegistryRejectsDuplicateRegistration(t *testing.T) {
	t.Parallel()

	r := NewSourceRegistry()
	src := memory.NewSource(migration.ProviderInfo{ID: "jira"}, migration.ProviderCapabilities{}, nil)

	require.NoError(t, r.Register("jira", src))
	require.Error(t, r.Register("jira", src))
}

func TestSourceRegistryGetUnknownReturnsProviderNotFound(t *testing.T) {
	t.Parallel()

	r := NewSourceRegistry()
	_, err := r.Get("missing")
	require.Error(t, err)

	var derr *migration.DomainError
	require.ErrorAs(t, err, &derr)
	require.Equal(t, migration.ErrCodeProviderNotFound, derr.Code)
}

func TestTargetRegistryListIsSorted(t *testing.T) {
	t.Parallel()

	r := NewTargetRegistry()
	require.NoError(t, r.Register("zephyr", memory.NewTarget(migration.ProviderInfo{ID: "zephyr"}, migration.ProviderCapabilities{}, nil)))
	require.NoError(t, r.Register("testrail", memory.NewTarget(migration.ProviderInfo{ID: "testrail"}, migration.ProviderCapabilities{}, nil)))

	require.Equal(t, []string{"testrail", "zephyr"}, r.List())
}
