// Package config loads a run request from a YAML file on disk: which
// source/target provider to use, the project to migrate, and the options
// bundle. The on-disk shape lives outside the migration core so the core
// never depends on a file format.
package config

import (
	"github.com/tcmigrate/core/internal/domain/migration"
)

// RunConfig is the YAML document cmd/tcmigrate loads to build a
// MigrateTestCasesInput and resolve the two providers to use.
type RunConfig struct {
	SourceSystemID string     `yaml:"sourceSystemId" validate:"required,provider_id"`
	TargetSystemID string     `yaml:"targetSystemId" validate:"required,provider_id"`
	ProjectKey     string     `yaml:"projectKey" validate:"required,project_key"`
	TestCaseIDs    []string   `yaml:"testCaseIds,omitempty"`
	Options        RunOptions `yaml:"options,omitempty"`
}

// RunOptions mirrors migration.Options in its on-disk form.
type RunOptions struct {
	IncludeAttachments   bool                     `yaml:"includeAttachments,omitempty"`
	IncludeHistory       bool                     `yaml:"includeHistory,omitempty"`
	PreserveIDs          bool                     `yaml:"preserveIds,omitempty"`
	DryRun               bool                     `yaml:"dryRun,omitempty"`
	FieldMappings        map[string]string        `yaml:"fieldMappings,omitempty"`
	FieldTransformations []RunFieldTransformation `yaml:"fieldTransformations,omitempty" validate:"omitempty,dive"`
	Filters              RunFilters               `yaml:"filters,omitempty"`
	BatchSize            int                      `yaml:"batchSize,omitempty" validate:"omitempty,min=0"`
	ContinueOnError      bool                     `yaml:"continueOnError,omitempty"`
	MaxRetries           int                      `yaml:"maxRetries,omitempty" validate:"omitempty,min=0,max=20"`
	RetryDelayMS         int                      `yaml:"retryDelayMs,omitempty" validate:"omitempty,min=0"`
	TimeoutSeconds       int                      `yaml:"timeoutSeconds,omitempty" validate:"omitempty,min=0"`
	TransactionMode      string                   `yaml:"transactionMode,omitempty" validate:"omitempty,oneof=atomic independent"`
	ValidationLevel      string                   `yaml:"validationLevel,omitempty" validate:"omitempty,oneof=strict lenient none"`
}

// RunFieldTransformation is the on-disk form of one transformation chain:
// a source path, a target path, and the ordered atomic steps to apply.
type RunFieldTransformation struct {
	SourceField string             `yaml:"sourceField" validate:"required"`
	TargetField string             `yaml:"targetField" validate:"required"`
	Chain       []RunTransformStep `yaml:"chain" validate:"required,min=1,dive"`
}

// RunTransformStep is one atomic transformation. Only the keys relevant to
// its kind are read; end and defaultValue are pointers so "absent" stays
// distinguishable from a zero value.
type RunTransformStep struct {
	Kind string `yaml:"kind" validate:"required,oneof=concatenate replace slice map truncate uppercase lowercase capitalize"`

	Value    string `yaml:"value,omitempty"`
	Position string `yaml:"position,omitempty" validate:"omitempty,oneof=prefix suffix"`

	Search     string `yaml:"search,omitempty"`
	Replace    string `yaml:"replace,omitempty"`
	ReplaceAll bool   `yaml:"replaceAll,omitempty"`

	Start int  `yaml:"start,omitempty"`
	End   *int `yaml:"end,omitempty"`

	Values       map[string]string `yaml:"values,omitempty"`
	DefaultValue *string           `yaml:"defaultValue,omitempty"`

	MaxLength   int  `yaml:"maxLength,omitempty"`
	AddEllipsis bool `yaml:"addEllipsis,omitempty"`
}

func (s RunTransformStep) toDomain() migration.AtomicTransform {
	out := migration.AtomicTransform{
		Kind:        migration.TransformKind(s.Kind),
		Value:       s.Value,
		Suffix:      s.Position == "suffix",
		Search:      s.Search,
		Replace:     s.Replace,
		ReplaceAll:  s.ReplaceAll,
		Start:       s.Start,
		End:         -1,
		Values:      s.Values,
		MaxLength:   s.MaxLength,
		AddEllipsis: s.AddEllipsis,
	}
	if s.End != nil {
		out.End = *s.End
	}
	if s.DefaultValue != nil {
		out.DefaultValue = *s.DefaultValue
		out.HasDefault = true
	}
	return out
}

// RunFilters mirrors migration.Filters in its on-disk form.
type RunFilters struct {
	IDs           []string `yaml:"ids,omitempty"`
	Statuses      []string `yaml:"statuses,omitempty" validate:"omitempty,dive,oneof=draft ready deprecated archived"`
	Priorities    []string `yaml:"priorities,omitempty" validate:"omitempty,dive,oneof=low medium high critical"`
	Folders       []string `yaml:"folders,omitempty"`
	Tags          []string `yaml:"tags,omitempty"`
	ModifiedSince int64    `yaml:"modifiedSince,omitempty"`
	CreatedBy     string   `yaml:"createdBy,omitempty"`
}

// ToInput converts the on-disk RunConfig into the domain's
// MigrateTestCasesInput. The config is assumed to have already passed
// structural validation.
func (c RunConfig) ToInput() *migration.MigrateTestCasesInput {
	opts := migration.Options{
		IncludeAttachments:   c.Options.IncludeAttachments,
		IncludeHistory:       c.Options.IncludeHistory,
		PreserveIDs:          c.Options.PreserveIDs,
		DryRun:               c.Options.DryRun,
		FieldMappings:        c.Options.FieldMappings,
		FieldTransformations: toTransformations(c.Options.FieldTransformations),
		Filters: migration.Filters{
			IDs:           c.Options.Filters.IDs,
			Statuses:      toStatuses(c.Options.Filters.Statuses),
			Priorities:    toPriorities(c.Options.Filters.Priorities),
			Folders:       c.Options.Filters.Folders,
			Tags:          c.Options.Filters.Tags,
			ModifiedSince: c.Options.Filters.ModifiedSince,
			CreatedBy:     c.Options.Filters.CreatedBy,
		},
		BatchSize:       c.Options.BatchSize,
		ContinueOnError: c.Options.ContinueOnError,
		MaxRetries:      c.Options.MaxRetries,
		RetryDelayMS:    c.Options.RetryDelayMS,
		TimeoutSeconds:  c.Options.TimeoutSeconds,
		TransactionMode: migration.TransactionMode(c.Options.TransactionMode),
		ValidationLevel: migration.ValidationLevel(c.Options.ValidationLevel),
	}.ApplyDefaults()

	return &migration.MigrateTestCasesInput{
		SourceSystemID: c.SourceSystemID,
		TargetSystemID: c.TargetSystemID,
		ProjectKey:     c.ProjectKey,
		TestCaseIDs:    c.TestCaseIDs,
		Options:        opts,
	}
}

func toTransformations(in []RunFieldTransformation) []migration.FieldTransformation {
	if in == nil {
		return nil
	}
	out := make([]migration.FieldTransformation, len(in))
	for i, ft := range in {
		chain := make([]migration.AtomicTransform, len(ft.Chain))
		for j, step := range ft.Chain {
			chain[j] = step.toDomain()
		}
		out[i] = migration.FieldTransformation{
			SourceField: ft.SourceField,
			TargetField: ft.TargetField,
			Chain:       chain,
		}
	}
	return out
}

func toStatuses(in []string) []migration.Status {
	if in == nil {
		return nil
	}
	out := make([]migration.Status, len(in))
	for i, s := range in {
		out[i] = migration.Status(s)
	}
	return out
}

func toPriorities(in []string) []migration.Priority {
	if in == nil {
		return nil
	}
	out := make([]migration.Priority, len(in))
	for i, s := range in {
		out[i] = migration.Priority(s)
	}
	return out
}
