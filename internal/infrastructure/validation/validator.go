// Package validation implements the pre-flight validator: capability
// and field-compatibility checks that run before the first side-effecting
// operation, plus per-test-case checks the pipeline consults while
// processing items.
package validation

import (
	"context"
	"fmt"

	"github.com/tcmigrate/core/internal/domain/migration"
	"github.com/tcmigrate/core/internal/ports"
)

// compatibility is the cross-provider data-type compatibility matrix.
// compatibility[source][target] == true means a value of the source field
// type can be written into a field of the target type.
var compatibility = map[migration.FieldType]map[migration.FieldType]bool{
	migration.FieldTypeString: {
		migration.FieldTypeString: true, migration.FieldTypeText: true,
		migration.FieldTypeDate: true, migration.FieldTypeEnum: true,
		migration.FieldTypeArray: true, migration.FieldTypeObject: true,
	},
	migration.FieldTypeText: {
		migration.FieldTypeString: true, migration.FieldTypeText: true,
	},
	migration.FieldTypeNumber: {
		migration.FieldTypeString: true, migration.FieldTypeText: true, migration.FieldTypeNumber: true,
	},
	migration.FieldTypeBoolean: {
		migration.FieldTypeString: true, migration.FieldTypeText: true,
		migration.FieldTypeNumber: true, migration.FieldTypeBoolean: true,
	},
	migration.FieldTypeDate: {
		migration.FieldTypeString: true, migration.FieldTypeText: true, migration.FieldTypeDate: true,
	},
	migration.FieldTypeEnum: {
		migration.FieldTypeString: true, migration.FieldTypeText: true, migration.FieldTypeEnum: true,
	},
	migration.FieldTypeArray: {
		migration.FieldTypeString: true, migration.FieldTypeText: true, migration.FieldTypeArray: true,
	},
	migration.FieldTypeObject: {
		migration.FieldTypeString: true, migration.FieldTypeText: true, migration.FieldTypeObject: true,
	},
}

// Validator implements ports.Validator.
type Validator struct {
	logger ports.Logger
}

// New returns a Validator. logger may be nil.
func New(logger ports.Logger) *Validator {
	return &Validator{logger: logger}
}

// ValidateRun performs the full pre-flight: capability checks against the
// requested options, followed by the field compatibility matrix between
// every source/target field pair with a matching name. Findings below
// SeverityError are warnings and never fail the run; a non-nil returned
// error means a fatal, pre-run condition (graph never built, no provider
// call made).
func (v *Validator) ValidateRun(ctx context.Context, input *migration.MigrateTestCasesInput, source migration.SourceProvider, target migration.TargetProvider) ([]*migration.DomainError, error) {
	if input == nil {
		return nil, migration.NewConfigurationError("input must not be nil")
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}

	var findings []*migration.DomainError

	sourceCaps := source.Capabilities()
	targetCaps := target.Capabilities()
	level := input.Options.ValidationLevel
	if level == "" {
		level = migration.ValidationStrict
	}

	if input.Options.IncludeAttachments && (!sourceCaps.Attachments || !targetCaps.Attachments) {
		findings = append(findings, migration.NewCapabilityMissingError("attachments"))
	}
	if input.Options.IncludeHistory && (!sourceCaps.History || !targetCaps.History) {
		findings = append(findings, migration.NewCapabilityMissingError("history"))
	}

	if input.Options.TransactionMode == migration.TransactionAtomic && !targetCaps.Transactions {
		// Demote to independent with a warning rather than fail the run
		// outright; transactions are an optional target capability.
		demoted := migration.NewValidationError("transactionMode", "target does not support transactions; demoting atomic to independent")
		demoted.Severity = migration.SeverityWarning
		demoted.Code = "TRANSACTIONS_UNSUPPORTED"
		findings = append(findings, demoted)
		input.Options.TransactionMode = migration.TransactionIndependent
	}

	if targetCaps.MaxAttachmentBytes > 0 && sourceCaps.MaxAttachmentBytes > 0 && targetCaps.MaxAttachmentBytes < sourceCaps.MaxAttachmentBytes {
		warn := migration.NewValidationError("attachments.maxBytes", "target attachment size limit is smaller than source")
		warn.Severity = migration.SeverityWarning
		findings = append(findings, warn)
	}
	if targetCaps.MaxBatchSize > 0 && input.Options.BatchSize > targetCaps.MaxBatchSize {
		warn := migration.NewValidationError("batchSize", "target batch size limit is smaller than the requested batch size")
		warn.Severity = migration.SeverityWarning
		findings = append(findings, warn)
	}
	if targetCaps.RateLimitPerMinute > 0 && sourceCaps.RateLimitPerMinute > 0 && targetCaps.RateLimitPerMinute < sourceCaps.RateLimitPerMinute {
		warn := migration.NewValidationError("rateLimit", "target enforces a more restrictive rate limit than source")
		warn.Severity = migration.SeverityWarning
		findings = append(findings, warn)
	}

	fieldFindings, err := v.validateFieldMatrix(ctx, source, target, level)
	if err != nil {
		return findings, err
	}
	findings = append(findings, fieldFindings...)

	for _, f := range findings {
		if f.Severity == migration.SeverityError {
			return findings, f
		}
	}

	return findings, nil
}

// validateFieldMatrix compares every source field against a target field of
// the same name: presence, required-ness, data-type compatibility, and enum
// value-range compatibility.
func (v *Validator) validateFieldMatrix(ctx context.Context, source migration.SourceProvider, target migration.TargetProvider, level migration.ValidationLevel) ([]*migration.DomainError, error) {
	if err := ctx.Err(); err != nil {
		return nil, migration.StopErrorFromContext(err)
	}
	if level == migration.ValidationNone {
		warn := migration.NewValidationError("", "field compatibility checks skipped (validationLevel=none)")
		warn.Severity = migration.SeverityWarning
		return []*migration.DomainError{warn}, nil
	}

	targetByName := make(map[string]migration.FieldDefinition)
	for _, f := range target.Fields() {
		targetByName[f.Name] = f
	}

	var findings []*migration.DomainError
	for _, tf := range targetByName {
		if !tf.Required {
			continue
		}
		if _, ok := findSourceField(source.Fields(), tf.Name); !ok {
			findings = append(findings, migration.NewValidationError(tf.Name, "required target field has no matching source field").WithDetails(nil))
		}
	}

	for _, sf := range source.Fields() {
		tf, ok := targetByName[sf.Name]
		if !ok {
			continue
		}
		if finding := v.ValidateFieldCompatibility(sf, tf, level); finding != nil {
			findings = append(findings, finding)
		}
	}
	return findings, nil
}

func findSourceField(fields []migration.FieldDefinition, name string) (migration.FieldDefinition, bool) {
	for _, f := range fields {
		if f.Name == name {
			return f, true
		}
	}
	return migration.FieldDefinition{}, false
}

// ValidateFieldCompatibility checks one source/target field pair against
// the data-type compatibility matrix and, for enums, value-range
// compatibility. Returns nil when the pair is fully compatible. The
// returned error's Severity reflects validationLevel: strict incompatible
// types are errors, lenient are warnings (missing-required-field is always
// an error, handled by the caller).
func (v *Validator) ValidateFieldCompatibility(sourceField, targetField migration.FieldDefinition, level migration.ValidationLevel) *migration.DomainError {
	allowed := compatibility[sourceField.Type]
	if !allowed[targetField.Type] {
		err := migration.NewValidationError(targetField.Name, fmt.Sprintf("incompatible field types: source %q -> target %q", sourceField.Type, targetField.Type))
		err.Code = migration.ErrCodeIncompatibleField
		if level == migration.ValidationLenient {
			err.Severity = migration.SeverityWarning
		}
		return err
	}

	if targetField.Type == migration.FieldTypeEnum && len(targetField.AllowedValues) > 0 && sourceField.Type == migration.FieldTypeEnum {
		if !hasOverlap(sourceField.AllowedValues, targetField.AllowedValues) {
			err := migration.NewValidationError(targetField.Name, "source enum values do not overlap target's allowed values")
			if level == migration.ValidationLenient {
				err.Severity = migration.SeverityWarning
			}
			return err
		}
	}

	return nil
}

func hasOverlap(a, b []string) bool {
	set := make(map[string]struct{}, len(b))
	for _, v := range b {
		set[v] = struct{}{}
	}
	for _, v := range a {
		if _, ok := set[v]; ok {
			return true
		}
	}
	return len(a) == 0
}

// ValidateTestCase runs the per-item checks: required values present,
// string length within target's maxLength, enum membership, and
// attachment size/MIME compatibility. Violations are returned as warnings
// at ValidationLenient/None and errors at ValidationStrict.
func (v *Validator) ValidateTestCase(tc migration.TestCase, targetFields []migration.FieldDefinition, targetCaps migration.ProviderCapabilities, level migration.ValidationLevel) []*migration.DomainError {
	var findings []*migration.DomainError
	strict := level == migration.ValidationStrict

	for _, tf := range targetFields {
		value, present := tc.CustomFields[tf.Name]
		if tf.Required && (!present || value == nil || value == "") {
			findings = append(findings, itemError(tc.ID, tf.Name, "required field missing", strict))
			continue
		}
		if !present {
			continue
		}
		if s, ok := value.(string); ok {
			if tf.MaxLength > 0 && len(s) > tf.MaxLength {
				findings = append(findings, itemError(tc.ID, tf.Name, "value exceeds target maxLength", strict))
			}
			if tf.Type == migration.FieldTypeEnum && len(tf.AllowedValues) > 0 && !contains(tf.AllowedValues, s) {
				findings = append(findings, itemError(tc.ID, tf.Name, "value is not in target's allowed values", strict))
			}
		}
	}

	for _, att := range tc.Attachments {
		if targetCaps.MaxAttachmentBytes > 0 && att.Size > targetCaps.MaxAttachmentBytes {
			findings = append(findings, itemError(tc.ID, "attachments", fmt.Sprintf("attachment %q exceeds target size limit", att.FileName), strict))
		}
		if len(targetCaps.SupportedMIMETypes) > 0 && !contains(targetCaps.SupportedMIMETypes, att.ContentType) {
			findings = append(findings, itemError(tc.ID, "attachments", fmt.Sprintf("attachment %q has unsupported MIME type %q", att.FileName, att.ContentType), strict))
		}
	}

	return findings
}

func itemError(testCaseID, field, message string, strict bool) *migration.DomainError {
	err := migration.NewValidationError(field, message)
	err.TestCaseID = testCaseID
	if !strict {
		err.Severity = migration.SeverityWarning
	}
	return err
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

var _ ports.Validator = (*Validator)(nil)
