// Package memory implements SourceProvider and TargetProvider over plain Go
// maps. It is the reference/test-double backend the CLI demo and the
// controller's integration tests run against — concrete and inspectable,
// with real transaction-scoped write tracking on the target side.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/tcmigrate/core/internal/domain/migration"
)

// Source is an in-memory SourceProvider seeded at construction time.
type Source struct {
	mu          sync.RWMutex
	info        migration.ProviderInfo
	caps        migration.ProviderCapabilities
	fields      []migration.FieldDefinition
	projects    map[string]migration.Project
	cases       map[string][]migration.TestCase // projectKey -> cases
	attachments map[string][]migration.Attachment
	content     map[string][]byte // attachmentID -> bytes
	history     map[string][]migration.HistoryEntry
}

// NewSource constructs an empty in-memory source provider.
func NewSource(info migration.ProviderInfo, caps migration.ProviderCapabilities, fields []migration.FieldDefinition) *Source {
	return &Source{
		info:        info,
		caps:        caps,
		fields:      fields,
		projects:    make(map[string]migration.Project),
		cases:       make(map[string][]migration.TestCase),
		attachments: make(map[string][]migration.Attachment),
		content:     make(map[string][]byte),
		history:     make(map[string][]migration.HistoryEntry),
	}
}

// SeedProject registers a project and its test cases for later retrieval.
func (s *Source) SeedProject(project migration.Project, cases []migration.TestCase) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects[project.Key] = project
	s.cases[project.Key] = cases
}

// SeedAttachment registers an attachment (with content) against a test case id.
func (s *Source) SeedAttachment(testCaseID string, att migration.Attachment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attachments[testCaseID] = append(s.attachments[testCaseID], att)
	if att.Content != nil {
		s.content[att.ID] = att.Content
	}
}

// SeedHistory registers history entries against a test case id.
func (s *Source) SeedHistory(testCaseID string, entries []migration.HistoryEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history[testCaseID] = append(s.history[testCaseID], entries...)
}

func (s *Source) TestConnection(context.Context) (migration.Connection, error) {
	return migration.Connection{Connected: true}, nil
}

func (s *Source) GetAPIContract(context.Context) (migration.APIContract, error) {
	return migration.APIContract{}, nil
}

func (s *Source) GetProjects(context.Context) ([]migration.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]migration.Project, 0, len(s.projects))
	for _, p := range s.projects {
		out = append(out, p)
	}
	return out, nil
}

func (s *Source) GetProject(_ context.Context, key string) (migration.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.projects[key]
	if !ok {
		return migration.Project{}, fmt.Errorf("project %q not found", key)
	}
	return p, nil
}

func (s *Source) GetTestCases(_ context.Context, projectKey string) ([]migration.TestCase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]migration.TestCase(nil), s.cases[projectKey]...), nil
}

func (s *Source) GetTestCase(_ context.Context, projectKey, id string) (migration.TestCase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, tc := range s.cases[projectKey] {
		if tc.ID == id {
			return tc, nil
		}
	}
	return migration.TestCase{}, fmt.Errorf("test case %q not found in project %q", id, projectKey)
}

func (s *Source) GetTestCaseAttachments(_ context.Context, id string) ([]migration.Attachment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]migration.Attachment(nil), s.attachments[id]...), nil
}

func (s *Source) GetAttachmentContent(_ context.Context, _ string, attachmentID string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	content, ok := s.content[attachmentID]
	if !ok {
		return nil, fmt.Errorf("attachment %q has no stored content", attachmentID)
	}
	return content, nil
}

func (s *Source) GetTestCaseHistory(_ context.Context, id string) ([]migration.HistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]migration.HistoryEntry(nil), s.history[id]...), nil
}

func (s *Source) Capabilities() migration.ProviderCapabilities { return s.caps }
func (s *Source) Fields() []migration.FieldDefinition          { return s.fields }
func (s *Source) ProviderInfo() migration.ProviderInfo         { return s.info }

var _ migration.SourceProvider = (*Source)(nil)

// Target is an in-memory TargetProvider. Created test cases, attachments,
// and history are held in maps so a caller (or a test) can inspect the
// final state after a run.
type Target struct {
	mu          sync.Mutex
	info        migration.ProviderInfo
	caps        migration.ProviderCapabilities
	fields      []migration.FieldDefinition
	nextID      int
	projects    map[string]migration.Project
	cases       map[string]migration.TestCase // id -> case
	attachments map[string][]migration.Attachment
	history     map[string][]migration.HistoryEntry
	txns        map[string][]string // txnID -> ids created within it
	activeTxn   string
}

// NewTarget constructs an empty in-memory target provider.
func NewTarget(info migration.ProviderInfo, caps migration.ProviderCapabilities, fields []migration.FieldDefinition) *Target {
	return &Target{
		info:        info,
		caps:        caps,
		fields:      fields,
		projects:    make(map[string]migration.Project),
		cases:       make(map[string]migration.TestCase),
		attachments: make(map[string][]migration.Attachment),
		history:     make(map[string][]migration.HistoryEntry),
		txns:        make(map[string][]string),
	}
}

// SeedProject registers a project the target already knows about.
func (t *Target) SeedProject(project migration.Project) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.projects[project.Key] = project
}

// Cases returns a snapshot of every test case created so far, keyed by id.
func (t *Target) Cases() map[string]migration.TestCase {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]migration.TestCase, len(t.cases))
	for k, v := range t.cases {
		out[k] = v
	}
	return out
}

func (t *Target) TestConnection(context.Context) (migration.Connection, error) {
	return migration.Connection{Connected: true}, nil
}

func (t *Target) GetAPIContract(context.Context) (migration.APIContract, error) {
	return migration.APIContract{}, nil
}

func (t *Target) GetProjects(context.Context) ([]migration.Project, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]migration.Project, 0, len(t.projects))
	for _, p := range t.projects {
		out = append(out, p)
	}
	return out, nil
}

func (t *Target) GetProject(_ context.Context, key string) (migration.Project, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.projects[key]
	if !ok {
		return migration.Project{}, fmt.Errorf("project %q not found", key)
	}
	return p, nil
}

func (t *Target) CreateTestCase(_ context.Context, _ string, tc migration.TestCase) (migration.TestCase, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.nextID++
	out := tc
	out.ID = fmt.Sprintf("TGT-%d", t.nextID)
	t.cases[out.ID] = out
	if t.activeTxn != "" {
		t.txns[t.activeTxn] = append(t.txns[t.activeTxn], out.ID)
	}
	return out, nil
}

func (t *Target) CreateTestCaseWithID(_ context.Context, _ string, tc migration.TestCase) (migration.TestCase, bool, error) {
	if !t.caps.PreserveIDs {
		return migration.TestCase{}, false, nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.cases[tc.ID]; exists {
		return migration.TestCase{}, true, fmt.Errorf("test case %q already exists in target", tc.ID)
	}
	t.cases[tc.ID] = tc
	if t.activeTxn != "" {
		t.txns[t.activeTxn] = append(t.txns[t.activeTxn], tc.ID)
	}
	return tc, true, nil
}

func (t *Target) AddTestCaseAttachment(_ context.Context, id string, attachment migration.Attachment) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.cases[id]; !ok {
		return fmt.Errorf("test case %q not found in target", id)
	}
	t.attachments[id] = append(t.attachments[id], attachment)
	return nil
}

func (t *Target) AddTestCaseHistory(_ context.Context, id string, entries []migration.HistoryEntry) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.cases[id]; !ok {
		return fmt.Errorf("test case %q not found in target", id)
	}
	t.history[id] = append(t.history[id], entries...)
	return nil
}

func (t *Target) Capabilities() migration.ProviderCapabilities { return t.caps }
func (t *Target) Fields() []migration.FieldDefinition          { return t.fields }
func (t *Target) ProviderInfo() migration.ProviderInfo         { return t.info }

// BeginTransaction opens a logical transaction scope when the provider
// advertises Transactions support. Writes made under it are tracked so
// RollbackTransaction can undo them.
func (t *Target) BeginTransaction(context.Context) (string, error) {
	if !t.caps.Transactions {
		return "", fmt.Errorf("target does not support transactions")
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.nextID++
	txnID := fmt.Sprintf("TXN-%d", t.nextID)
	t.txns[txnID] = nil
	t.activeTxn = txnID
	return txnID, nil
}

func (t *Target) CommitTransaction(_ context.Context, txnID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.txns, txnID)
	if t.activeTxn == txnID {
		t.activeTxn = ""
	}
	return nil
}

func (t *Target) RollbackTransaction(_ context.Context, txnID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, id := range t.txns[txnID] {
		delete(t.cases, id)
		delete(t.attachments, id)
		delete(t.history, id)
	}
	delete(t.txns, txnID)
	if t.activeTxn == txnID {
		t.activeTxn = ""
	}
	return nil
}

var _ migration.TargetProvider = (*Target)(nil)
