package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tcmigrate/core/internal/domain/migration"
)

type fakeSource struct {
	attachments map[string][]migration.Attachment
	history     map[string][]migration.HistoryEntry
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		attachments: make(map[string][]migration.Attachment),
		history:     make(map[string][]migration.HistoryEntry),
	}
}

func (f *fakeSource) TestConnection(context.Context) (migration.Connection, error) {
	return migration.Connection{Connected: true}, nil
}
func (f *fakeSource) GetAPIContract(context.Context) (migration.APIContract, error) {
	return migration.APIContract{}, nil
}
func (f *fakeSource) GetProjects(context.Context) ([]migration.Project, error) { return nil, nil }
func (f *fakeSource) GetProject(context.Context, string) (migration.Project, error) {
	return migration.Project{}, nil
}
func (f *fakeSource) GetTestCases(context.Context, string) ([]migration.TestCase, error) {
	return nil, nil
}
func (f *fakeSource) GetTestCase(context.Context, string, string) (migration.TestCase, error) {
	return migration.TestCase{}, nil
}
func (f *fakeSource) GetTestCaseAttachments(ctx context.Context, id string) ([]migration.Attachment, error) {
	return f.attachments[id], nil
}
func (f *fakeSource) GetAttachmentContent(ctx context.Context, projectKey, attachmentID string) ([]byte, error) {
	return []byte("content"), nil
}
func (f *fakeSource) GetTestCaseHistory(ctx context.Context, id string) ([]migration.HistoryEntry, error) {
	return f.history[id], nil
}
func (f *fakeSource) Capabilities() migration.ProviderCapabilities {
	return migration.ProviderCapabilities{}
}
func (f *fakeSource) Fields() []migration.FieldDefinition  { return nil }
func (f *fakeSource) ProviderInfo() migration.ProviderInfo { return migration.ProviderInfo{} }

type fakeTarget struct {
	failCreateUntil int
	createCalls     int
	created         []migration.TestCase
	attachments     map[string][]migration.Attachment
	history         map[string][]migration.HistoryEntry
	attachErr       error
	historyErr      error
	withIDSupported bool
	reassignID      bool
}

func newFakeTarget() *fakeTarget {
	return &fakeTarget{
		attachments: make(map[string][]migration.Attachment),
		history:     make(map[string][]migration.HistoryEntry),
	}
}

func (f *fakeTarget) TestConnection(context.Context) (migration.Connection, error) {
	return migration.Connection{Connected: true}, nil
}
func (f *fakeTarget) GetAPIContract(context.Context) (migration.APIContract, error) {
	return migration.APIContract{}, nil
}
func (f *fakeTarget) GetProjects(context.Context) ([]migration.Project, error) { return nil, nil }
func (f *fakeTarget) GetProject(context.Context, string) (migration.Project, error) {
	return migration.Project{}, nil
}
func (f *fakeTarget) CreateTestCase(ctx context.Context, projectKey string, tc migration.TestCase) (migration.TestCase, error) {
	f.createCalls++
	if f.createCalls <= f.failCreateUntil {
		return migration.TestCase{}, errors.New("transient create failure")
	}
	out := tc
	out.ID = tc.ID + "-target"
	if f.reassignID {
		out.ID = "reassigned"
	}
	f.created = append(f.created, out)
	return out, nil
}
func (f *fakeTarget) CreateTestCaseWithID(ctx context.Context, projectKey string, tc migration.TestCase) (migration.TestCase, bool, error) {
	if !f.withIDSupported {
		return migration.TestCase{}, false, nil
	}
	f.created = append(f.created, tc)
	return tc, true, nil
}
func (f *fakeTarget) AddTestCaseAttachment(ctx context.Context, id string, att migration.Attachment) error {
	if f.attachErr != nil {
		return f.attachErr
	}
	f.attachments[id] = append(f.attachments[id], att)
	return nil
}
func (f *fakeTarget) AddTestCaseHistory(ctx context.Context, id string, entries []migration.HistoryEntry) error {
	if f.historyErr != nil {
		return f.historyErr
	}
	f.history[id] = entries
	return nil
}
func (f *fakeTarget) Capabilities() migration.ProviderCapabilities {
	return migration.ProviderCapabilities{}
}
func (f *fakeTarget) Fields() []migration.FieldDefinition               { return nil }
func (f *fakeTarget) ProviderInfo() migration.ProviderInfo              { return migration.ProviderInfo{} }
func (f *fakeTarget) BeginTransaction(context.Context) (string, error)  { return "", nil }
func (f *fakeTarget) CommitTransaction(context.Context, string) error   { return nil }
func (f *fakeTarget) RollbackTransaction(context.Context, string) error { return nil }

func TestProcessHappyPath(t *testing.T) {
	t.Parallel()

	p := New(nil, nil, nil)
	source := newFakeSource()
	source.attachments["TC-1"] = []migration.Attachment{{ID: "a1", FileName: "log.txt", ContentType: "text/plain"}}
	source.history["TC-1"] = []migration.HistoryEntry{{ID: "h1", FieldName: "status"}}
	target := newFakeTarget()
	tc := migration.TestCase{ID: "TC-1", Name: "Login works"}

	result, err := p.Process(context.Background(), tc, "PROJ", migration.Options{IncludeAttachments: true, IncludeHistory: true}, source, target)
	require.NoError(t, err)
	require.Equal(t, migration.ItemMigrated, result.Detail.Status)
	require.Equal(t, "TC-1-target", result.Detail.TargetID)
	require.Equal(t, 1, result.Detail.AttachmentsOK)
	require.True(t, result.Detail.HistoryOK)
}

func TestProcessRetriesTransientFailureThenSucceeds(t *testing.T) {
	t.Parallel()

	p := New(nil, nil, nil)
	source := newFakeSource()
	target := newFakeTarget()
	target.failCreateUntil = 2

	tc := migration.TestCase{ID: "TC-1"}
	opts := migration.Options{MaxRetries: 3, RetryDelayMS: 1}

	result, err := p.Process(context.Background(), tc, "PROJ", opts, source, target)
	require.NoError(t, err)
	require.Equal(t, migration.ItemMigrated, result.Detail.Status)
	require.Equal(t, 2, result.Detail.RetryCount)
}

func TestProcessFailsAfterExhaustingRetries(t *testing.T) {
	t.Parallel()

	p := New(nil, nil, nil)
	source := newFakeSource()
	target := newFakeTarget()
	target.failCreateUntil = 100

	tc := migration.TestCase{ID: "TC-1"}
	opts := migration.Options{MaxRetries: 2, RetryDelayMS: 1}

	result, err := p.Process(context.Background(), tc, "PROJ", opts, source, target)
	require.NoError(t, err)
	require.Equal(t, migration.ItemFailed, result.Detail.Status)
	require.NotEmpty(t, result.Detail.Error)
}

func TestProcessDryRunSkipsWrites(t *testing.T) {
	t.Parallel()

	p := New(nil, nil, nil)
	source := newFakeSource()
	target := newFakeTarget()
	tc := migration.TestCase{ID: "TC-1"}

	result, err := p.Process(context.Background(), tc, "PROJ", migration.Options{DryRun: true}, source, target)
	require.NoError(t, err)
	require.Equal(t, migration.ItemMigrated, result.Detail.Status)
	require.Zero(t, target.createCalls)
}

func TestProcessRecordsFailedSubMigrations(t *testing.T) {
	t.Parallel()

	p := New(nil, nil, nil)
	source := newFakeSource()
	source.attachments["TC-1"] = []migration.Attachment{{ID: "a1", FileName: "log.txt"}}
	source.history["TC-1"] = []migration.HistoryEntry{{ID: "h1", FieldName: "status"}}
	target := newFakeTarget()
	target.attachErr = errors.New("attachment store unavailable")
	target.historyErr = errors.New("history endpoint unavailable")

	tc := migration.TestCase{ID: "TC-1"}
	opts := migration.Options{IncludeAttachments: true, IncludeHistory: true}

	result, err := p.Process(context.Background(), tc, "PROJ", opts, source, target)
	require.NoError(t, err)
	require.Equal(t, migration.ItemMigrated, result.Detail.Status, "sub-migration failures must not fail the item")
	require.Zero(t, result.Detail.AttachmentsOK)
	require.Equal(t, 1, result.Detail.AttachmentsFailed)
	require.False(t, result.Detail.HistoryOK)
	require.True(t, result.Detail.HistoryFailed)
	require.Len(t, result.Detail.Warnings, 2)
}

func TestProcessWarnsOnIDReassignment(t *testing.T) {
	t.Parallel()

	p := New(nil, nil, nil)
	source := newFakeSource()
	target := newFakeTarget()
	target.reassignID = true
	tc := migration.TestCase{ID: "TC-1"}

	result, err := p.Process(context.Background(), tc, "PROJ", migration.Options{PreserveIDs: true}, source, target)
	require.NoError(t, err)
	require.Contains(t, result.Detail.Warnings[0], "reassigned id")
}
