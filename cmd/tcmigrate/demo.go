package main

import (
	"github.com/tcmigrate/core/internal/domain/migration"
	"github.com/tcmigrate/core/internal/infrastructure/providers/memory"
	"github.com/tcmigrate/core/internal/infrastructure/registry"
)

// buildRegistries wires the in-memory reference providers under the
// "jira" and "testrail" system ids, the pair every sample run config in
// this repo uses. Real provider adapters (HTTP clients, auth, pagination)
// are outside the migration core's scope; these registries are what a
// deployment would replace with its own Register calls.
func buildRegistries() (*registry.SourceRegistry, *registry.TargetRegistry) {
	sources := registry.NewSourceRegistry()
	targets := registry.NewTargetRegistry()

	source := memory.NewSource(
		migration.ProviderInfo{ID: "jira", Name: "Jira (demo)", Version: "demo"},
		migration.ProviderCapabilities{
			Attachments: true, History: true, Transactions: false,
			PreserveIDs: false, MaxAttachmentBytes: 10 << 20,
			SupportedMIMETypes: []string{"text/plain", "image/png"},
			MaxBatchSize:       100, RateLimitPerMinute: 600,
		},
		[]migration.FieldDefinition{
			{Name: "summary", Type: migration.FieldTypeString, Required: true, MaxLength: 255},
			{Name: "priority", Type: migration.FieldTypeEnum, AllowedValues: []string{"low", "medium", "high", "critical"}},
		},
	)
	source.SeedProject(migration.Project{Key: "DEMO", Name: "Demo Project"}, []migration.TestCase{
		{
			ID: "JIRA-1", Name: "Login succeeds with valid credentials", Status: migration.StatusReady, Priority: migration.PriorityHigh,
			Steps:        []migration.Step{{Action: "Enter valid credentials", ExpectedResult: "User is redirected to the dashboard"}},
			CustomFields: map[string]interface{}{"summary": "Login succeeds with valid credentials", "priority": "high"},
		},
		{
			ID: "JIRA-2", Name: "Password reset email is delivered", Status: migration.StatusReady, Priority: migration.PriorityMedium,
			Steps:        []migration.Step{{Action: "Request a password reset", ExpectedResult: "An email arrives within one minute"}},
			CustomFields: map[string]interface{}{"summary": "Password reset email is delivered", "priority": "medium"},
		},
		{
			ID: "JIRA-3", Name: "Archived case is excluded by default filters", Status: migration.StatusArchived, Priority: migration.PriorityLow,
			CustomFields: map[string]interface{}{"summary": "Archived case is excluded by default filters", "priority": "low"},
		},
	})
	source.SeedAttachment("JIRA-1", migration.Attachment{
		ID: "ATT-1", FileName: "login-screenshot.png", ContentType: "image/png", Content: []byte("demo-bytes"), Size: 10,
	})
	source.SeedHistory("JIRA-1", []migration.HistoryEntry{
		{ID: "HIST-1", Timestamp: 1700000000, Author: "qa-lead", FieldName: "status", OldValue: "draft", NewValue: "ready", ChangeType: "status_change"},
	})
	_ = sources.Register("jira", source)

	target := memory.NewTarget(
		migration.ProviderInfo{ID: "testrail", Name: "TestRail (demo)", Version: "demo"},
		migration.ProviderCapabilities{
			Attachments: true, History: true, Transactions: true,
			PreserveIDs: false, MaxAttachmentBytes: 25 << 20,
			SupportedMIMETypes: []string{"text/plain", "image/png"},
			MaxBatchSize:       50, RateLimitPerMinute: 300,
		},
		[]migration.FieldDefinition{
			{Name: "summary", Type: migration.FieldTypeString, Required: true, MaxLength: 255},
			{Name: "priority", Type: migration.FieldTypeEnum, AllowedValues: []string{"low", "medium", "high", "critical"}},
		},
	)
	target.SeedProject(migration.Project{Key: "DEMO", Name: "Demo Project"})
	_ = targets.Register("testrail", target)

	return sources, targets
}
