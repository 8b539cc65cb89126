// Package pipeline implements the per-test-case processing pipeline: the
// fixed sequence map -> transform -> create -> attachments -> history,
// with a bounded retry loop around the create call.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/tcmigrate/core/internal/domain/migration"
	"github.com/tcmigrate/core/internal/domain/transform"
	"github.com/tcmigrate/core/internal/ports"
)

// Pipeline processes one source test case at a time against a target
// provider. It is stateless and safe for concurrent use across items.
type Pipeline struct {
	transform *transform.Engine
	logger    ports.Logger
	events    ports.EventPublisher
}

// New constructs a Pipeline. logger and events may be nil.
func New(transformEngine *transform.Engine, logger ports.Logger, events ports.EventPublisher) *Pipeline {
	if transformEngine == nil {
		transformEngine = transform.New()
	}
	return &Pipeline{transform: transformEngine, logger: logger, events: events}
}

// Result is the outcome of processing one test case, combining the
// externally reported ItemDetail with the transform outcomes the
// controller tallies into Summary.
type Result struct {
	Detail            migration.ItemDetail
	TransformOutcomes []transform.Outcome
}

// Process runs the fixed pipeline sequence for one test case: field
// mapping, transformation, create (with retry), attachments, and history.
// It never returns an error for a business failure — outcomes are carried
// in Result.Detail.Status/Error; a non-nil error return indicates the run
// was cancelled and processing did not complete.
func (p *Pipeline) Process(ctx context.Context, tc migration.TestCase, projectKey string, opts migration.Options, source migration.SourceProvider, target migration.TargetProvider) (Result, error) {
	detail := migration.ItemDetail{TestCaseID: tc.ID, Name: tc.Name, Status: migration.ItemInProgress}

	mapped := tc.Clone()
	mapped.CustomFields = p.transform.MapFields(mapped.CustomFields, opts.FieldMappings)

	transformed, outcomes := p.transform.Apply(mapped, opts.FieldTransformations)
	for i, outcome := range outcomes {
		if outcome.Applied {
			detail.Transformed = append(detail.Transformed, outcomes[i].TargetField)
		} else if outcome.Warning != "" {
			detail.Warnings = append(detail.Warnings, outcome.Warning)
		}
	}

	if opts.DryRun {
		detail.Status = migration.ItemMigrated
		detail.TargetID = transformed.ID
		detail.Warnings = append(detail.Warnings, "dry run: no write performed")
		return Result{Detail: detail, TransformOutcomes: outcomes}, nil
	}

	created, err := p.createWithRetry(ctx, &detail, projectKey, transformed, opts, target)
	if err != nil {
		if code := migration.AsDomainError(err).Code; code == migration.ErrCodeCancelled || code == migration.ErrCodeTimeout {
			return Result{Detail: detail, TransformOutcomes: outcomes}, err
		}
		detail.Status = migration.ItemFailed
		detail.Error = err.Error()
		return Result{Detail: detail, TransformOutcomes: outcomes}, nil
	}

	detail.Status = migration.ItemMigrated
	detail.TargetID = created.ID

	if opts.IncludeAttachments {
		p.migrateAttachments(ctx, &detail, tc.ID, created.ID, projectKey, source, target)
	}
	if opts.IncludeHistory {
		p.migrateHistory(ctx, &detail, tc.ID, created.ID, source, target)
	}

	return Result{Detail: detail, TransformOutcomes: outcomes}, nil
}

// createWithRetry performs up to maxRetries+1 attempts at creating the test
// case in target, transitioning detail.Status IN_PROGRESS -> RETRYING ->
// IN_PROGRESS between attempts, and preferring CreateTestCaseWithID when
// preserveIds was requested.
func (p *Pipeline) createWithRetry(ctx context.Context, detail *migration.ItemDetail, projectKey string, tc migration.TestCase, opts migration.Options, target migration.TargetProvider) (migration.TestCase, error) {
	maxAttempts := opts.MaxRetries + 1
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	delay := time.Duration(opts.RetryDelayMS) * time.Millisecond

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return migration.TestCase{}, migration.StopErrorFromContext(err)
		}

		created, err := p.createOnce(ctx, projectKey, tc, opts, detail, target)
		if err == nil {
			detail.RetryCount = attempt - 1
			return created, nil
		}
		lastErr = err
		detail.RetryCount = attempt - 1

		if attempt < maxAttempts {
			detail.Status = migration.ItemRetrying
			p.publish(ctx, ports.EventItemRetrying, map[string]interface{}{"test_case_id": tc.ID, "attempt": attempt, "error": err.Error()})
			select {
			case <-ctx.Done():
				return migration.TestCase{}, migration.StopErrorFromContext(ctx.Err())
			case <-time.After(delay):
			}
			detail.Status = migration.ItemInProgress
		}
	}

	return migration.TestCase{}, migration.NewItemFailureError(tc.ID, "create test case failed after retries", lastErr)
}

func (p *Pipeline) createOnce(ctx context.Context, projectKey string, tc migration.TestCase, opts migration.Options, detail *migration.ItemDetail, target migration.TargetProvider) (migration.TestCase, error) {
	if opts.PreserveIDs {
		if created, supported, err := target.CreateTestCaseWithID(ctx, projectKey, tc); supported {
			if err != nil {
				return migration.TestCase{}, err
			}
			if created.ID != tc.ID {
				detail.Warnings = append(detail.Warnings, fmt.Sprintf("target reassigned id: requested %q, got %q", tc.ID, created.ID))
			}
			return created, nil
		}
	}

	created, err := target.CreateTestCase(ctx, projectKey, tc)
	if err != nil {
		return migration.TestCase{}, err
	}
	if opts.PreserveIDs && created.ID != tc.ID {
		detail.Warnings = append(detail.Warnings, fmt.Sprintf("target reassigned id: requested %q, got %q", tc.ID, created.ID))
	}
	return created, nil
}

// migrateAttachments fetches every attachment the source holds for
// sourceID, posts each to the target, and tallies migrated vs failed; a
// failed attachment never aborts the item.
func (p *Pipeline) migrateAttachments(ctx context.Context, detail *migration.ItemDetail, sourceID, targetID, projectKey string, source migration.SourceProvider, target migration.TargetProvider) {
	attachments, err := source.GetTestCaseAttachments(ctx, sourceID)
	if err != nil {
		detail.Warnings = append(detail.Warnings, fmt.Sprintf("fetching attachments failed: %v", err))
		return
	}
	for _, att := range attachments {
		if ctx.Err() != nil {
			return
		}
		if len(att.Content) == 0 {
			if content, err := source.GetAttachmentContent(ctx, projectKey, att.ID); err == nil {
				att.Content = content
			}
		}
		if err := target.AddTestCaseAttachment(ctx, targetID, att); err != nil {
			detail.AttachmentsFailed++
			detail.Warnings = append(detail.Warnings, fmt.Sprintf("attachment %q failed: %v", att.FileName, err))
			continue
		}
		detail.AttachmentsOK++
	}
}

// migrateHistory fetches the source's history for sourceID and posts the
// whole list as one call, recording the outcome atomically: either all
// entries are counted migrated or the whole batch counts failed.
func (p *Pipeline) migrateHistory(ctx context.Context, detail *migration.ItemDetail, sourceID, targetID string, source migration.SourceProvider, target migration.TargetProvider) {
	entries, err := source.GetTestCaseHistory(ctx, sourceID)
	if err != nil {
		detail.HistoryFailed = true
		detail.Warnings = append(detail.Warnings, fmt.Sprintf("fetching history failed: %v", err))
		return
	}
	if len(entries) == 0 {
		return
	}
	if err := target.AddTestCaseHistory(ctx, targetID, entries); err != nil {
		detail.HistoryFailed = true
		detail.Warnings = append(detail.Warnings, fmt.Sprintf("history migration failed: %v", err))
		return
	}
	detail.HistoryOK = true
}

func (p *Pipeline) publish(ctx context.Context, eventType string, payload map[string]interface{}) {
	if p.events == nil {
		return
	}
	_ = p.events.Publish(ctx, pipelineEvent{eventType: eventType, payload: payload})
}

type pipelineEvent struct {
	eventType string
	payload   interface{}
}

func (e pipelineEvent) EventType() string    { return e.eventType }
func (e pipelineEvent) Payload() interface{} { return e.payload }
