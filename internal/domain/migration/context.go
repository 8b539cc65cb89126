package migration

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// RunMetadata captures immutable facts about a run, set once at start.
type RunMetadata struct {
	RunID     string
	StartTime time.Time
	SourceID  string
	TargetID  string
}

// OperationContext is the per-run shared state threaded through every
// operation. Input and provider references are immutable for the lifetime of
// the run; Results is a write-once-per-key map, enforced by SetResult,
// because the operation type-tag namespace guarantees exactly one writer per
// key (see DependencyGraph/Executor).
type OperationContext struct {
	Input    *MigrateTestCasesInput
	Source   SourceProvider
	Target   TargetProvider
	Metadata RunMetadata

	mu      sync.RWMutex
	results map[string]interface{}
}

// NewOperationContext constructs a context ready for the executor to run
// operations against.
func NewOperationContext(input *MigrateTestCasesInput, source SourceProvider, target TargetProvider, meta RunMetadata) *OperationContext {
	return &OperationContext{
		Input:    input,
		Source:   source,
		Target:   target,
		Metadata: meta,
		results:  make(map[string]interface{}),
	}
}

// Result returns the value a prior operation produced under opType, if any.
func (c *OperationContext) Result(opType string) (interface{}, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.results[opType]
	return v, ok
}

// SetResult records the output of opType. It is an error to call it twice
// for the same type: each operation type is its own namespace key, so a
// second write indicates a caller bug, not legitimate re-execution.
func (c *OperationContext) SetResult(opType string, value interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.results[opType]; exists {
		return fmt.Errorf("operation result for %q already recorded", opType)
	}
	c.results[opType] = value
	return nil
}

// SourceProvider is the capability set the core consumes from the source
// test-management system. Implementations are out of scope for the core;
// this is the interface boundary described in the system's external
// interfaces section.
type SourceProvider interface {
	TestConnection(ctx context.Context) (Connection, error)
	GetAPIContract(ctx context.Context) (APIContract, error)
	GetProjects(ctx context.Context) ([]Project, error)
	GetProject(ctx context.Context, key string) (Project, error)
	GetTestCases(ctx context.Context, projectKey string) ([]TestCase, error)
	GetTestCase(ctx context.Context, projectKey, id string) (TestCase, error)
	GetTestCaseAttachments(ctx context.Context, id string) ([]Attachment, error)
	GetAttachmentContent(ctx context.Context, projectKey, attachmentID string) ([]byte, error)
	GetTestCaseHistory(ctx context.Context, id string) ([]HistoryEntry, error)
	Capabilities() ProviderCapabilities
	Fields() []FieldDefinition
	ProviderInfo() ProviderInfo
}

// TargetProvider is the capability set the core consumes from the target
// test-management system.
type TargetProvider interface {
	TestConnection(ctx context.Context) (Connection, error)
	GetAPIContract(ctx context.Context) (APIContract, error)
	GetProjects(ctx context.Context) ([]Project, error)
	GetProject(ctx context.Context, key string) (Project, error)
	CreateTestCase(ctx context.Context, projectKey string, tc TestCase) (TestCase, error)
	CreateTestCaseWithID(ctx context.Context, projectKey string, tc TestCase) (TestCase, bool, error)
	AddTestCaseAttachment(ctx context.Context, id string, attachment Attachment) error
	AddTestCaseHistory(ctx context.Context, id string, entries []HistoryEntry) error
	Capabilities() ProviderCapabilities
	Fields() []FieldDefinition
	ProviderInfo() ProviderInfo
	BeginTransaction(ctx context.Context) (string, error)
	CommitTransaction(ctx context.Context, txnID string) error
	RollbackTransaction(ctx context.Context, txnID string) error
}

// Connection reports the result of a connectivity probe.
type Connection struct {
	Connected bool
	Message   string
}

// APIContract enumerates the operations a provider publishes.
type APIContract struct {
	Operations map[string]OperationDefinition
}

// Project identifies a container of test cases within a provider.
type Project struct {
	Key  string
	Name string
}

// ProviderCapabilities declares the optional features a provider supports.
type ProviderCapabilities struct {
	Attachments        bool
	History            bool
	Transactions       bool
	PreserveIDs        bool
	MaxAttachmentBytes int64
	SupportedMIMETypes []string
	MaxBatchSize       int
	RateLimitPerMinute int
}

// FieldDefinition describes one field a provider exposes, used by the
// validator's compatibility matrix.
type FieldDefinition struct {
	Name          string
	Type          FieldType
	Required      bool
	MaxLength     int
	AllowedValues []string
}

// FieldType enumerates the data types the compatibility matrix recognises.
type FieldType string

const (
	FieldTypeString  FieldType = "string"
	FieldTypeText    FieldType = "text"
	FieldTypeNumber  FieldType = "number"
	FieldTypeBoolean FieldType = "boolean"
	FieldTypeDate    FieldType = "date"
	FieldTypeEnum    FieldType = "enum"
	FieldTypeArray   FieldType = "array"
	FieldTypeObject  FieldType = "object"
)

// ProviderInfo carries descriptive, non-functional metadata about a provider.
type ProviderInfo struct {
	ID      string
	Name    string
	Version string
}
