package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tcmigrate/core/internal/domain/migration"
)

func TestTargetRollbackUndoesWritesMadeInTransaction(t *testing.T) {
	t.Parallel()

	target := NewTarget(migration.ProviderInfo{ID: "mem"}, migration.ProviderCapabilities{Transactions: true}, nil)
	ctx := context.Background()

	txnID, err := target.BeginTransaction(ctx)
	require.NoError(t, err)

	created, err := target.CreateTestCase(ctx, "PROJ", migration.TestCase{Name: "in flight"})
	require.NoError(t, err)
	require.Contains(t, target.Cases(), created.ID)

	require.NoError(t, target.RollbackTransaction(ctx, txnID))
	require.NotContains(t, target.Cases(), created.ID)
}

func TestTargetCommitKeepsWrites(t *testing.T) {
	t.Parallel()

	target := NewTarget(migration.ProviderInfo{ID: "mem"}, migration.ProviderCapabilities{Transactions: true}, nil)
	ctx := context.Background()

	txnID, err := target.BeginTransaction(ctx)
	require.NoError(t, err)

	created, err := target.CreateTestCase(ctx, "PROJ", migration.TestCase{Name: "committed"})
	require.NoError(t, err)

	require.NoError(t, target.CommitTransaction(ctx, txnID))
	require.Contains(t, target.Cases(), created.ID)
}

func TestSourceGetAttachmentContentReturnsSeededBytes(t *testing.T) {
	t.Parallel()

	source := NewSource(migration.ProviderInfo{ID: "mem"}, migration.ProviderCapabilities{}, nil)
	source.SeedAttachment("TC-1", migration.Attachment{ID: "a1", FileName: "log.txt", Content: []byte("hello")})

	content, err := source.GetAttachmentContent(context.Background(), "PROJ", "a1")
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), content)
}
