// Package migration implements the migration controller: the run's
// lifecycle state machine, batching, pause/resume/cancel, transaction
// coordination, and event emission. It drives the validator, plan
// builder, operation resolver, operation executor, and test-case pipeline
// in that order.
package migration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/tcmigrate/core/internal/domain/migration"
	"github.com/tcmigrate/core/internal/domain/transform"
	"github.com/tcmigrate/core/internal/infrastructure/pipeline"
	"github.com/tcmigrate/core/internal/infrastructure/planner"
	"github.com/tcmigrate/core/internal/ports"
)

// Controller drives one migration run end to end: validate, plan, resolve,
// execute, with the per-item batch loop living inside the create_test_cases
// node's closure so it can see both the fetch results and the pipeline.
type Controller struct {
	validator ports.Validator
	resolver  ports.OperationResolver
	executor  ports.OperationExecutor
	planner   *planner.Builder
	pipeline  *pipeline.Pipeline
	events    ports.EventPublisher
	logger    ports.Logger
	metrics   ports.MetricsCollector
	store     ports.RunStore

	activeRuns atomic.Int64
}

// Option configures optional Controller collaborators.
type Option func(*Controller)

// WithMetrics injects a metrics collector for run- and item-level series.
func WithMetrics(metrics ports.MetricsCollector) Option {
	return func(c *Controller) { c.metrics = metrics }
}

// WithRunStore injects a store terminal run results are persisted to, so
// status-polling callers can observe finished runs.
func WithRunStore(store ports.RunStore) Option {
	return func(c *Controller) { c.store = store }
}

// New constructs a Controller. planBuilder, itemPipeline, events, and
// logger may be nil; sensible defaults are used.
func New(validator ports.Validator, resolver ports.OperationResolver, executor ports.OperationExecutor, planBuilder *planner.Builder, itemPipeline *pipeline.Pipeline, events ports.EventPublisher, logger ports.Logger, opts ...Option) *Controller {
	if planBuilder == nil {
		planBuilder = planner.New()
	}
	if itemPipeline == nil {
		itemPipeline = pipeline.New(nil, logger, events)
	}
	c := &Controller{
		validator: validator,
		resolver:  resolver,
		executor:  executor,
		planner:   planBuilder,
		pipeline:  itemPipeline,
		events:    events,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run drives a migration to a terminal status synchronously. handle
// controls pause/resume/cancel from another goroutine while Run is
// in-flight; pass a fresh NewHandle() if the caller has no need to pause.
// Run returns a non-nil error only for a nil input, which the caller must
// treat as a programming error; every other failure (a rejected validation,
// a plan that cannot be built) and every business outcome — including
// FAILED, CANCELLED, and the rollback states — is reported via the returned
// MigrationResult, never as a Go error.
func (c *Controller) Run(ctx context.Context, input *migration.MigrateTestCasesInput, source migration.SourceProvider, target migration.TargetProvider, handle *Handle) (*migration.MigrationResult, error) {
	if input == nil {
		return nil, migration.NewConfigurationError("input must not be nil")
	}
	if handle == nil {
		handle = NewHandle()
	}

	runID := uuid.NewString()
	ctx = ports.WithCorrelationID(ctx, runID)

	if input.Options.TimeoutSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(input.Options.TimeoutSeconds)*time.Second)
		defer cancel()
	}

	result := &migration.MigrationResult{
		RunID:          runID,
		SourceSystemID: input.SourceSystemID,
		TargetSystemID: input.TargetSystemID,
		Status:         migration.StatusPending,
		Summary:        migration.NewSummary(),
		StartedAt:      time.Now(),
	}

	c.setActiveRuns(ctx, c.activeRuns.Add(1))
	c.emit(ctx, ports.EventRunStarted, map[string]interface{}{"run_id": runID})
	c.setStatus(ctx, result, migration.StatusValidating)

	findings, err := c.validator.ValidateRun(ctx, input, source, target)
	for _, f := range findings {
		result.Errors = append(result.Errors, f.Error())
	}
	if err != nil {
		c.emit(ctx, ports.EventValidationFailed, map[string]interface{}{"run_id": runID, "error": err.Error()})
		return c.fail(ctx, result, err), nil
	}
	input.Options = input.Options.ApplyDefaults()

	runCtx := migration.NewOperationContext(input, source, target, migration.RunMetadata{
		RunID: runID, StartTime: result.StartedAt, SourceID: input.SourceSystemID, TargetID: input.TargetSystemID,
	})

	batch := &batchRun{controller: c, result: result, handle: handle, input: input, source: source, target: target}

	ops, err := c.planner.Build(ctx, input, source, target, nil)
	if err != nil {
		return c.fail(ctx, result, err), nil
	}
	if !wireCreatePhase(ops, batch.run) {
		return c.fail(ctx, result, migration.NewGraphInvalidError("create_test_cases node missing from plan", nil)), nil
	}

	plan, err := c.resolver.Resolve(ctx, ops)
	if err != nil {
		return c.fail(ctx, result, err), nil
	}

	c.setStatus(ctx, result, migration.StatusRunning)

	if _, err := c.executor.ExecutePlan(ctx, plan, runCtx, false); err != nil {
		return c.fail(ctx, result, err), nil
	}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		result.Errors = append(result.Errors, migration.NewTimeoutError(ctx.Err()).Error())
	}
	c.finalizeTransaction(ctx, result, batch)
	result.CompletedAt = time.Now()
	result.RecalculateProgress()
	c.emitTerminal(ctx, result)
	c.finishRun(ctx, result)
	return result, nil
}

// finishRun records the run-level metrics and persists the terminal result
// for status-polling callers. Called on every terminal path.
func (c *Controller) finishRun(ctx context.Context, result *migration.MigrationResult) {
	c.setActiveRuns(ctx, c.activeRuns.Add(-1))
	if c.metrics != nil {
		labels := map[string]string{"status": strings.ToLower(string(result.Status))}
		c.metrics.IncCounter(ctx, "tcmigrate_runs_total", labels)
		c.metrics.ObserveHistogram(ctx, "tcmigrate_run_duration_seconds", result.CompletedAt.Sub(result.StartedAt).Seconds(), labels)
	}
	if c.store != nil {
		if err := c.store.Save(ctx, result); err != nil && c.logger != nil {
			c.logger.Warn(ctx, "failed to persist run result", "run_id", result.RunID, "error", err)
		}
	}
}

func (c *Controller) setActiveRuns(ctx context.Context, n int64) {
	if c.metrics == nil {
		return
	}
	c.metrics.SetGauge(ctx, "tcmigrate_active_runs", float64(n), nil)
}

func (c *Controller) recordItemMetrics(ctx context.Context, status migration.ItemStatus, duration time.Duration) {
	if c.metrics == nil {
		return
	}
	labels := map[string]string{"status": strings.ToLower(string(status))}
	c.metrics.IncCounter(ctx, "tcmigrate_items_total", labels)
	c.metrics.ObserveHistogram(ctx, "tcmigrate_item_duration_seconds", duration.Seconds(), labels)
}

// wireCreatePhase replaces the planner's placeholder create_test_cases
// Execute (nil — the planner has no access to the pipeline) with the
// controller's batch closure. Returns false if no such node exists.
func wireCreatePhase(ops []migration.Operation, execute migration.OperationFunc) bool {
	for i := range ops {
		if ops[i].Type == "create_test_cases" {
			ops[i].Execute = execute
			return true
		}
	}
	return false
}

// batchRun holds the state one create_test_cases invocation accumulates:
// the transaction id (if any) and whether it ended up demoted or failed.
type batchRun struct {
	controller *Controller
	result     *migration.MigrationResult
	handle     *Handle
	input      *migration.MigrateTestCasesInput
	source     migration.SourceProvider
	target     migration.TargetProvider

	txnID         string
	txnActive     bool
	txnBeginErr   error
	stoppedEarly  bool
	stoppedCancel bool
	lastFailed    bool
}

// run is the create_test_cases operation's Execute function. It never
// returns a Go error for a business failure: every outcome is recorded on
// b.result so the executor's plan-level success/failure never overrides the
// carefully computed MigrationStatus.
func (b *batchRun) run(ctx context.Context, rc *migration.OperationContext) (interface{}, error) {
	c := b.controller
	opts := b.input.Options

	cases, err := gatherTestCases(b.input, rc)
	if err != nil {
		b.result.Errors = append(b.result.Errors, err.Error())
		return nil, nil
	}
	cases = applyFilters(cases, opts.Filters)
	b.result.TotalCount = len(cases)
	c.emit(ctx, ports.EventTestCasesLoaded, map[string]interface{}{"run_id": b.result.RunID, "count": len(cases)})

	targetFields := b.target.Fields()
	targetCaps := b.target.Capabilities()

	if opts.TransactionMode == migration.TransactionAtomic && !opts.DryRun {
		txnID, err := b.target.BeginTransaction(ctx)
		if err != nil {
			b.txnBeginErr = err
			b.result.Errors = append(b.result.Errors, migration.NewTransactionError("begin transaction failed", err).Error())
		} else {
			b.txnID = txnID
			b.txnActive = true
		}
	}

	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = len(cases)
	}
	if batchSize <= 0 {
		batchSize = 1
	}

	for start := 0; start < len(cases); start += batchSize {
		if b.handle.checkpoint(ctx, func(reason string) {
			c.emit(ctx, ports.EventRunPaused, map[string]interface{}{"run_id": b.result.RunID, "reason": reason})
			c.setStatus(ctx, b.result, migration.StatusPaused)
		}, func() {
			c.emit(ctx, ports.EventRunResumed, map[string]interface{}{"run_id": b.result.RunID})
			c.setStatus(ctx, b.result, migration.StatusRunning)
		}) {
			b.stoppedEarly = true
			b.stoppedCancel = true
			break
		}

		end := start + batchSize
		if end > len(cases) {
			end = len(cases)
		}
		for _, tc := range cases[start:end] {
			c.processOne(ctx, b, tc, targetFields, targetCaps)
			if b.lastFailed && !opts.ContinueOnError {
				b.stoppedEarly = true
				break
			}
		}
		b.result.RecalculateProgress()
		c.emit(ctx, ports.EventBatchCompleted, map[string]interface{}{
			"run_id": b.result.RunID, "processed": b.result.Processed(), "total": b.result.TotalCount,
		})
		c.emit(ctx, ports.EventProgressUpdated, map[string]interface{}{"run_id": b.result.RunID, "progress": b.result.Progress})
		if b.stoppedEarly {
			break
		}
	}

	if b.stoppedEarly {
		for _, tc := range cases[b.result.Processed():] {
			b.result.Skipped = append(b.result.Skipped, migration.ItemDetail{
				TestCaseID: tc.ID, Name: tc.Name, Status: migration.ItemSkipped, Error: "run stopped before this item was processed",
			})
			b.result.SkippedCount++
			b.result.Summary.ByStatus[tc.Status]++
			b.result.Summary.ByPriority[tc.Priority]++
		}
	}

	return nil, nil
}

// processOne runs the per-item validation and pipeline sequence for one
// test case and tallies the outcome into b.result.
func (c *Controller) processOne(ctx context.Context, b *batchRun, tc migration.TestCase, targetFields []migration.FieldDefinition, targetCaps migration.ProviderCapabilities) {
	level := b.input.Options.ValidationLevel
	b.lastFailed = false
	itemStart := time.Now()

	if findings := c.validator.ValidateTestCase(tc, targetFields, targetCaps, level); findings != nil {
		for _, f := range findings {
			if f.Severity == migration.SeverityError {
				detail := migration.ItemDetail{TestCaseID: tc.ID, Name: tc.Name, Status: migration.ItemSkipped, Error: f.Error()}
				b.result.Skipped = append(b.result.Skipped, detail)
				b.result.SkippedCount++
				b.result.Summary.ByStatus[tc.Status]++
				b.result.Summary.ByPriority[tc.Priority]++
				c.emit(ctx, ports.EventItemSkipped, map[string]interface{}{"test_case_id": tc.ID, "reason": f.Error()})
				c.emit(ctx, ports.EventItemProcessed, map[string]interface{}{"test_case_id": tc.ID, "status": string(migration.ItemSkipped)})
				c.recordItemMetrics(ctx, migration.ItemSkipped, time.Since(itemStart))
				return
			}
		}
	}

	res, err := c.pipeline.Process(ctx, tc, b.input.ProjectKey, b.input.Options, b.source, b.target)
	if err != nil {
		// Cancellation mid-item: the item never reached a terminal state.
		b.result.Skipped = append(b.result.Skipped, migration.ItemDetail{TestCaseID: tc.ID, Name: tc.Name, Status: migration.ItemSkipped, Error: err.Error()})
		b.result.SkippedCount++
		b.result.Summary.ByStatus[tc.Status]++
		b.result.Summary.ByPriority[tc.Priority]++
		c.recordItemMetrics(ctx, migration.ItemSkipped, time.Since(itemStart))
		return
	}

	for _, outcome := range res.TransformOutcomes {
		switch outcome.Kind {
		case transform.KindApplied:
			b.result.Summary.TransformationsApplied++
		case transform.KindSkipped:
			b.result.Summary.TransformationsSkipped++
		case transform.KindFailed:
			b.result.Summary.TransformationsFailed++
		}
	}
	b.result.Summary.AttachmentsMigrated += res.Detail.AttachmentsOK
	b.result.Summary.AttachmentsFailed += res.Detail.AttachmentsFailed
	if res.Detail.HistoryOK {
		b.result.Summary.HistoryMigrated++
	}
	if res.Detail.HistoryFailed {
		b.result.Summary.HistoryFailed++
	}
	b.result.Summary.ByStatus[tc.Status]++
	b.result.Summary.ByPriority[tc.Priority]++

	switch res.Detail.Status {
	case migration.ItemMigrated:
		b.result.Migrated = append(b.result.Migrated, res.Detail)
		b.result.MigratedCount++
		c.emit(ctx, ports.EventItemMigrated, map[string]interface{}{"test_case_id": tc.ID, "target_id": res.Detail.TargetID})
	default:
		b.result.Failed = append(b.result.Failed, res.Detail)
		b.result.FailedCount++
		b.lastFailed = true
		c.emit(ctx, ports.EventItemFailed, map[string]interface{}{"test_case_id": tc.ID, "error": res.Detail.Error})
	}
	c.emit(ctx, ports.EventItemProcessed, map[string]interface{}{"test_case_id": tc.ID, "status": string(res.Detail.Status)})
	c.recordItemMetrics(ctx, res.Detail.Status, time.Since(itemStart))
}

// setStatus records a lifecycle transition and announces it, so external
// monitors can follow the state machine without polling the result.
func (c *Controller) setStatus(ctx context.Context, result *migration.MigrationResult, status migration.MigrationStatus) {
	result.Status = status
	c.emit(ctx, ports.EventStatusChanged, map[string]interface{}{"run_id": result.RunID, "status": string(status)})
}

// finalizeTransaction commits or rolls back an atomic-mode transaction and
// sets the run's terminal status accordingly.
func (c *Controller) finalizeTransaction(ctx context.Context, result *migration.MigrationResult, b *batchRun) {
	switch {
	case b.handle.Cancelled() || b.stoppedCancel:
		result.Status = migration.StatusCancelled
	case b.txnActive && result.FailedCount > 0:
		result.Status = migration.StatusRollbackInProgress
		c.emit(ctx, ports.EventRunFailed, map[string]interface{}{"run_id": result.RunID, "reason": "rolling back after item failures"})
		if err := b.target.RollbackTransaction(ctx, b.txnID); err != nil {
			result.Errors = append(result.Errors, migration.NewTransactionError("rollback failed", err).Error())
			result.Status = migration.StatusRollbackFailed
		} else {
			result.Status = migration.StatusRollbackCompleted
		}
	case b.txnActive:
		if err := b.target.CommitTransaction(ctx, b.txnID); err != nil {
			result.Errors = append(result.Errors, migration.NewTransactionError("commit failed", err).Error())
			result.Status = migration.StatusFailed
		} else {
			result.Status = migration.StatusCompleted
		}
	case result.FailedCount > 0 && result.MigratedCount > 0:
		result.Status = migration.StatusPartiallyCompleted
	case result.FailedCount > 0 && result.MigratedCount == 0:
		result.Status = migration.StatusFailed
	default:
		result.Status = migration.StatusCompleted
	}
}

// gatherTestCases extracts the fetch results the planner's get_test_case_*
// or get_test_cases operations left in rc, per how input.TestCaseIDs was set.
func gatherTestCases(input *migration.MigrateTestCasesInput, rc *migration.OperationContext) ([]migration.TestCase, error) {
	if len(input.TestCaseIDs) == 0 {
		v, ok := rc.Result("get_test_cases")
		if !ok {
			return nil, migration.NewGraphInvalidError("bulk fetch result missing from run context", nil)
		}
		cases, ok := v.([]migration.TestCase)
		if !ok {
			return nil, migration.NewGraphInvalidError("bulk fetch result had unexpected type", nil)
		}
		return cases, nil
	}

	cases := make([]migration.TestCase, 0, len(input.TestCaseIDs))
	for _, id := range input.TestCaseIDs {
		v, ok := rc.Result(fmt.Sprintf("get_test_case_%s", id))
		if !ok {
			return nil, migration.NewGraphInvalidError("fetch result missing for test case "+id, nil)
		}
		tc, ok := v.(migration.TestCase)
		if !ok {
			return nil, migration.NewGraphInvalidError("fetch result had unexpected type for test case "+id, nil)
		}
		cases = append(cases, tc)
	}
	return cases, nil
}

// applyFilters narrows cases to those matching every non-empty filter
// field the domain model can express (status and priority; folder/tag/
// created-by/modified-since filters apply at the provider query boundary,
// not here, since TestCase carries no such fields post-fetch).
func applyFilters(cases []migration.TestCase, f migration.Filters) []migration.TestCase {
	if len(f.Statuses) == 0 && len(f.Priorities) == 0 {
		return cases
	}
	out := make([]migration.TestCase, 0, len(cases))
	for _, tc := range cases {
		if len(f.Statuses) > 0 && !containsStatus(f.Statuses, tc.Status) {
			continue
		}
		if len(f.Priorities) > 0 && !containsPriority(f.Priorities, tc.Priority) {
			continue
		}
		out = append(out, tc)
	}
	return out
}

func containsStatus(list []migration.Status, v migration.Status) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func containsPriority(list []migration.Priority, v migration.Priority) bool {
	for _, p := range list {
		if p == v {
			return true
		}
	}
	return false
}

func (c *Controller) fail(ctx context.Context, result *migration.MigrationResult, err error) *migration.MigrationResult {
	derr := migration.AsDomainError(err)
	result.Errors = append(result.Errors, derr.Error())
	result.CompletedAt = time.Now()
	switch derr.Code {
	case migration.ErrCodeCancelled, migration.ErrCodeTimeout:
		// A cancel/timeout observed before or during plan execution is the
		// same cooperative-cancel path as a batch-boundary stop: it is not
		// a configuration or graph defect, so it never becomes FAILED.
		result.Status = migration.StatusCancelled
	default:
		result.Status = migration.StatusFailed
	}
	c.emitTerminal(ctx, result)
	c.finishRun(ctx, result)
	return result
}

func (c *Controller) emit(ctx context.Context, eventType string, payload map[string]interface{}) {
	if c.events == nil {
		return
	}
	_ = c.events.Publish(ctx, controllerEvent{eventType: eventType, payload: payload})
}

func (c *Controller) emitTerminal(ctx context.Context, result *migration.MigrationResult) {
	eventType := ports.EventRunCompleted
	switch result.Status {
	case migration.StatusFailed, migration.StatusRollbackFailed:
		eventType = ports.EventRunFailed
	case migration.StatusCancelled:
		eventType = ports.EventRunCancelled
	}
	c.emit(ctx, eventType, map[string]interface{}{
		"run_id": result.RunID, "status": string(result.Status), "progress": result.Progress,
	})
}

type controllerEvent struct {
	eventType string
	payload   interface{}
}

func (e controllerEvent) EventType() string    { return e.eventType }
func (e controllerEvent) Payload() interface{} { return e.payload }
