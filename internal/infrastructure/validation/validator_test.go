package validation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tcmigrate/core/internal/domain/migration"
)

type stubSource struct {
	conn   migration.Connection
	fields []migration.FieldDefinition
	caps   migration.ProviderCapabilities
}

func (s stubSource) TestConnection(context.Context) (migration.Connection, error) { return s.conn, nil }
func (s stubSource) GetAPIContract(context.Context) (migration.APIContract, error) {
	return migration.APIContract{}, nil
}
func (s stubSource) GetProjects(context.Context) ([]migration.Project, error) { return nil, nil }
func (s stubSource) GetProject(context.Context, string) (migration.Project, error) {
	return migration.Project{}, nil
}
func (s stubSource) GetTestCases(context.Context, string) ([]migration.TestCase, error) {
	return nil, nil
}
func (s stubSource) GetTestCase(context.Context, string, string) (migration.TestCase, error) {
	return migration.TestCase{}, nil
}
func (s stubSource) GetTestCaseAttachments(context.Context, string) ([]migration.Attachment, error) {
	return nil, nil
}
func (s stubSource) GetAttachmentContent(context.Context, string, string) ([]byte, error) {
	return nil, nil
}
func (s stubSource) GetTestCaseHistory(context.Context, string) ([]migration.HistoryEntry, error) {
	return nil, nil
}
func (s stubSource) Capabilities() migration.ProviderCapabilities { return s.caps }
func (s stubSource) Fields() []migration.FieldDefinition          { return s.fields }
func (s stubSource) ProviderInfo() migration.ProviderInfo         { return migration.ProviderInfo{} }

type stubTarget struct {
	stubSource
}

func (s stubTarget) CreateTestCase(context.Context, string, migration.TestCase) (migration.TestCase, error) {
	return migration.TestCase{}, nil
}
func (s stubTarget) CreateTestCaseWithID(context.Context, string, migration.TestCase) (migration.TestCase, bool, error) {
	return migration.TestCase{}, false, nil
}
func (s stubTarget) AddTestCaseAttachment(context.Context, string, migration.Attachment) error {
	return nil
}
func (s stubTarget) AddTestCaseHistory(context.Context, string, []migration.HistoryEntry) error {
	return nil
}
func (s stubTarget) BeginTransaction(context.Context) (string, error)  { return "", nil }
func (s stubTarget) CommitTransaction(context.Context, string) error   { return nil }
func (s stubTarget) RollbackTransaction(context.Context, string) error { return nil }

func baseInput() *migration.MigrateTestCasesInput {
	return &migration.MigrateTestCasesInput{
		SourceSystemID: "src",
		TargetSystemID: "dst",
		ProjectKey:     "PROJ",
		Options:        migration.Options{ValidationLevel: migration.ValidationStrict},
	}
}

func TestValidateRunStrictRejectsIncompatibleTypes(t *testing.T) {
	t.Parallel()

	source := stubSource{
		conn:   migration.Connection{Connected: true},
		fields: []migration.FieldDefinition{{Name: "score", Type: migration.FieldTypeNumber}},
	}
	target := stubTarget{stubSource{
		conn:   migration.Connection{Connected: true},
		fields: []migration.FieldDefinition{{Name: "score", Type: migration.FieldTypeBoolean, Required: true}},
	}}

	v := New(nil)
	findings, err := v.ValidateRun(context.Background(), baseInput(), source, target)
	require.Error(t, err)
	var derr *migration.DomainError
	require.ErrorAs(t, err, &derr)
	require.Equal(t, migration.ErrCodeIncompatibleField, derr.Code)
	require.NotEmpty(t, findings)
}

func TestValidateRunLenientDemotesToWarning(t *testing.T) {
	t.Parallel()

	source := stubSource{
		conn:   migration.Connection{Connected: true},
		fields: []migration.FieldDefinition{{Name: "score", Type: migration.FieldTypeNumber}},
	}
	target := stubTarget{stubSource{
		conn:   migration.Connection{Connected: true},
		fields: []migration.FieldDefinition{{Name: "score", Type: migration.FieldTypeBoolean}},
	}}

	input := baseInput()
	input.Options.ValidationLevel = migration.ValidationLenient

	v := New(nil)
	findings, err := v.ValidateRun(context.Background(), input, source, target)
	require.NoError(t, err)
	require.NotEmpty(t, findings)
	require.Equal(t, migration.SeverityWarning, findings[len(findings)-1].Severity)
}

func TestValidateRunDemotesUnsupportedTransactions(t *testing.T) {
	t.Parallel()

	source := stubSource{conn: migration.Connection{Connected: true}}
	target := stubTarget{stubSource{conn: migration.Connection{Connected: true}}}

	input := baseInput()
	input.Options.TransactionMode = migration.TransactionAtomic

	v := New(nil)
	findings, err := v.ValidateRun(context.Background(), input, source, target)
	require.NoError(t, err)
	require.Equal(t, migration.TransactionIndependent, input.Options.TransactionMode)

	var demoted bool
	for _, f := range findings {
		if f.Code == "TRANSACTIONS_UNSUPPORTED" {
			demoted = true
		}
	}
	require.True(t, demoted)
}

func TestValidateTestCaseFlagsMissingRequiredField(t *testing.T) {
	t.Parallel()

	v := New(nil)
	tc := migration.TestCase{ID: "TC-1", CustomFields: map[string]interface{}{}}
	targetFields := []migration.FieldDefinition{{Name: "owner", Required: true, Type: migration.FieldTypeString}}

	findings := v.ValidateTestCase(tc, targetFields, migration.ProviderCapabilities{}, migration.ValidationStrict)
	require.Len(t, findings, 1)
	require.Equal(t, migration.SeverityError, findings[0].Severity)
}
