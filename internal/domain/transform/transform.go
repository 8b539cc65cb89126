// Package transform applies ordered field-transformation chains to a test
// case's custom fields using dotted-path access.
package transform

import (
	"fmt"
	"strings"

	"github.com/tcmigrate/core/internal/domain/migration"
)

// Kind classifies why a chain did or didn't apply, so callers can tally
// applied/skipped/failed counts separately in the run summary instead of
// only knowing pass/fail.
type Kind string

const (
	KindApplied Kind = "applied"
	KindSkipped Kind = "skipped" // no value at the source path
	KindFailed  Kind = "failed"  // the chain itself errored
)

// Outcome reports what happened when one FieldTransformation chain was
// applied to a test case.
type Outcome struct {
	SourceField string
	TargetField string
	Applied     bool
	Kind        Kind
	Warning     string
}

// Engine applies field mappings and transformation chains to test cases.
type Engine struct{}

// New returns a ready-to-use Engine. The engine is stateless.
func New() *Engine {
	return &Engine{}
}

// MapFields renames custom-field keys per fieldMappings (keys renamed,
// values preserved), the first step of the item pipeline.
func (e *Engine) MapFields(fields map[string]interface{}, mappings map[string]string) map[string]interface{} {
	if len(mappings) == 0 {
		return fields
	}
	out := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		if renamed, ok := mappings[k]; ok {
			out[renamed] = v
			continue
		}
		out[k] = v
	}
	return out
}

// Apply runs each FieldTransformation chain against tc's custom fields,
// in order, mutating a copy and returning it alongside one Outcome per
// chain. A transformation failure never aborts the run: it is recorded as
// a warning and the chain is skipped.
func (e *Engine) Apply(tc migration.TestCase, chains []migration.FieldTransformation) (migration.TestCase, []Outcome) {
	result := tc.Clone()
	if result.CustomFields == nil {
		result.CustomFields = make(map[string]interface{})
	}
	outcomes := make([]Outcome, 0, len(chains))

	for _, chain := range chains {
		outcome := Outcome{SourceField: chain.SourceField, TargetField: chain.TargetField}

		value, ok := getPath(result.CustomFields, chain.SourceField)
		if !ok {
			outcome.Kind = KindSkipped
			outcome.Warning = fmt.Sprintf("no value at %q, transformation skipped", chain.SourceField)
			outcomes = append(outcomes, outcome)
			continue
		}

		transformed, err := runChain(value, chain.Chain)
		if err != nil {
			outcome.Kind = KindFailed
			outcome.Warning = fmt.Sprintf("transformation chain for %q failed: %v", chain.SourceField, err)
			outcomes = append(outcomes, outcome)
			continue
		}

		setPath(result.CustomFields, chain.TargetField, transformed)
		outcome.Applied = true
		outcome.Kind = KindApplied
		outcomes = append(outcomes, outcome)
	}

	return result, outcomes
}

// runChain applies each atomic transformation in sequence, threading the
// output of one into the input of the next.
func runChain(value interface{}, chain []migration.AtomicTransform) (interface{}, error) {
	current := value
	for _, step := range chain {
		next, err := applyAtomic(current, step)
		if err != nil {
			return nil, err
		}
		current = next
	}
	return current, nil
}

func applyAtomic(value interface{}, t migration.AtomicTransform) (interface{}, error) {
	switch t.Kind {
	case migration.TransformConcatenate:
		s := toString(value)
		if t.Suffix {
			return s + t.Value, nil
		}
		return t.Value + s, nil

	case migration.TransformReplace:
		s := toString(value)
		if t.ReplaceAll {
			return strings.ReplaceAll(s, t.Search, t.Replace), nil
		}
		return strings.Replace(s, t.Search, t.Replace, 1), nil

	case migration.TransformSlice:
		s := toString(value)
		start := t.Start
		end := t.End
		if end < 0 || end > len(s) {
			end = len(s)
		}
		if start < 0 {
			start = 0
		}
		if start > len(s) || start > end {
			return "", nil
		}
		return s[start:end], nil

	case migration.TransformMap:
		s := toString(value)
		if mapped, ok := t.Values[s]; ok {
			return mapped, nil
		}
		if t.HasDefault {
			return t.DefaultValue, nil
		}
		return nil, fmt.Errorf("no mapping for value %q and no default set", s)

	case migration.TransformTruncate:
		s := toString(value)
		if len(s) <= t.MaxLength {
			return s, nil
		}
		cut := s[:t.MaxLength]
		if t.AddEllipsis {
			cut += "…"
		}
		return cut, nil

	case migration.TransformUppercase:
		return strings.ToUpper(toString(value)), nil

	case migration.TransformLowercase:
		return strings.ToLower(toString(value)), nil

	case migration.TransformCapitalize:
		s := toString(value)
		if s == "" {
			return s, nil
		}
		return strings.ToUpper(s[:1]) + s[1:], nil

	default:
		return nil, fmt.Errorf("unknown transformation kind %q", t.Kind)
	}
}

func toString(v interface{}) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// getPath reads a dotted path (e.g. "customFields.priority") from a nested
// map. A missing intermediate or leaf key reports ok=false.
func getPath(fields map[string]interface{}, path string) (interface{}, bool) {
	if path == "" {
		return nil, false
	}
	parts := strings.Split(path, ".")
	var current interface{} = fields
	for _, part := range parts {
		m, ok := current.(map[string]interface{})
		if !ok {
			return nil, false
		}
		v, exists := m[part]
		if !exists {
			return nil, false
		}
		current = v
	}
	return current, true
}

// setPath writes value at a dotted path, creating intermediate maps as
// needed.
func setPath(fields map[string]interface{}, path string, value interface{}) {
	if path == "" {
		return
	}
	parts := strings.Split(path, ".")
	current := fields
	for i, part := range parts {
		if i == len(parts)-1 {
			current[part] = value
			return
		}
		next, ok := current[part].(map[string]interface{})
		if !ok {
			next = make(map[string]interface{})
			current[part] = next
		}
		current = next
	}
}
