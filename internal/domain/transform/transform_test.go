package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tcmigrate/core/internal/domain/migration"
)

func TestMapFieldsRenamesKeys(t *testing.T) {
	e := New()
	in := map[string]interface{}{"old_priority": "high", "untouched": 1}
	out := e.MapFields(in, map[string]string{"old_priority": "priority"})
	assert.Equal(t, "high", out["priority"])
	assert.Equal(t, 1, out["untouched"])
	_, exists := out["old_priority"]
	assert.False(t, exists)
}

func TestApplyConcatenateAndUppercase(t *testing.T) {
	e := New()
	tc := migration.TestCase{
		CustomFields: map[string]interface{}{"label": "bug"},
	}
	chains := []migration.FieldTransformation{
		{
			SourceField: "label",
			TargetField: "label",
			Chain: []migration.AtomicTransform{
				{Kind: migration.TransformConcatenate, Value: "jira-", Suffix: false},
				{Kind: migration.TransformUppercase},
			},
		},
	}

	result, outcomes := e.Apply(tc, chains)
	require.Len(t, outcomes, 1)
	assert.True(t, outcomes[0].Applied)
	assert.Equal(t, KindApplied, outcomes[0].Kind)
	assert.Equal(t, "JIRA-BUG", result.CustomFields["label"])
}

func TestApplyMissingSourceSkipsWithWarning(t *testing.T) {
	e := New()
	tc := migration.TestCase{CustomFields: map[string]interface{}{}}
	chains := []migration.FieldTransformation{
		{SourceField: "missing", TargetField: "out", Chain: []migration.AtomicTransform{{Kind: migration.TransformUppercase}}},
	}

	_, outcomes := e.Apply(tc, chains)
	require.Len(t, outcomes, 1)
	assert.False(t, outcomes[0].Applied)
	assert.Equal(t, KindSkipped, outcomes[0].Kind)
	assert.NotEmpty(t, outcomes[0].Warning)
}

func TestApplyMapWithoutDefaultFails(t *testing.T) {
	e := New()
	tc := migration.TestCase{CustomFields: map[string]interface{}{"sev": "urgent"}}
	chains := []migration.FieldTransformation{
		{
			SourceField: "sev",
			TargetField: "sev",
			Chain: []migration.AtomicTransform{
				{Kind: migration.TransformMap, Values: map[string]string{"low": "P3"}},
			},
		},
	}

	_, outcomes := e.Apply(tc, chains)
	require.Len(t, outcomes, 1)
	assert.False(t, outcomes[0].Applied)
	assert.Equal(t, KindFailed, outcomes[0].Kind)
	assert.Contains(t, outcomes[0].Warning, "no mapping")
}

func TestApplyDottedPathWritesNestedField(t *testing.T) {
	e := New()
	tc := migration.TestCase{CustomFields: map[string]interface{}{"priority": "high"}}
	chains := []migration.FieldTransformation{
		{
			SourceField: "priority",
			TargetField: "meta.priority",
			Chain:       []migration.AtomicTransform{{Kind: migration.TransformLowercase}},
		},
	}

	result, outcomes := e.Apply(tc, chains)
	require.True(t, outcomes[0].Applied)
	meta, ok := result.CustomFields["meta"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "high", meta["priority"])
}

func TestApplyTruncateWithEllipsis(t *testing.T) {
	e := New()
	tc := migration.TestCase{CustomFields: map[string]interface{}{"desc": "a very long description"}}
	chains := []migration.FieldTransformation{
		{
			SourceField: "desc",
			TargetField: "desc",
			Chain:       []migration.AtomicTransform{{Kind: migration.TransformTruncate, MaxLength: 6, AddEllipsis: true}},
		},
	}

	result, _ := e.Apply(tc, chains)
	assert.Equal(t, "a very…", result.CustomFields["desc"])
}
