package migration

// TransformKind enumerates the supported atomic transformation operators.
type TransformKind string

const (
	TransformConcatenate TransformKind = "concatenate"
	TransformReplace     TransformKind = "replace"
	TransformSlice       TransformKind = "slice"
	TransformMap         TransformKind = "map"
	TransformTruncate    TransformKind = "truncate"
	TransformUppercase   TransformKind = "uppercase"
	TransformLowercase   TransformKind = "lowercase"
	TransformCapitalize  TransformKind = "capitalize"
)

// AtomicTransform is one step in a FieldTransformation's chain. Only the
// fields relevant to Kind are read; the rest are ignored.
type AtomicTransform struct {
	Kind TransformKind

	// concatenate
	Value  string
	Suffix bool // false = prefix, true = suffix

	// replace
	Search     string
	Replace    string
	ReplaceAll bool

	// slice
	Start int
	End   int // -1 means "to the end"

	// map
	Values       map[string]string
	DefaultValue string
	HasDefault   bool

	// truncate
	MaxLength   int
	AddEllipsis bool
}

// FieldTransformation renames and reshapes one field as a test case moves
// from source to target.
type FieldTransformation struct {
	SourceField string
	TargetField string
	Chain       []AtomicTransform
}
