package ports

import "context"

const (
	// EventRunStarted is emitted when a migration run begins validation.
	EventRunStarted = "run.started"
	// EventRunCompleted is emitted after a run reaches a terminal success state.
	EventRunCompleted = "run.completed"
	// EventRunFailed is emitted when a run terminates in FAILED.
	EventRunFailed = "run.failed"
	// EventRunPaused is emitted when a run transitions to PAUSED.
	EventRunPaused = "run.paused"
	// EventRunResumed is emitted when a paused run resumes.
	EventRunResumed = "run.resumed"
	// EventRunCancelled is emitted when a run is cancelled.
	EventRunCancelled = "run.cancelled"
	// EventStatusChanged is emitted on every lifecycle status transition.
	EventStatusChanged = "run.status_changed"
	// EventProgressUpdated is emitted when the run's progress percentage advances.
	EventProgressUpdated = "run.progress_updated"
	// EventTestCasesLoaded is emitted once the source test cases are gathered and filtered.
	EventTestCasesLoaded = "run.test_cases_loaded"
	// EventBatchCompleted is emitted after each batch of items finishes processing.
	EventBatchCompleted = "batch.completed"
	// EventOperationStarted is emitted before an operation begins execution.
	EventOperationStarted = "operation.started"
	// EventOperationCompleted is emitted when an operation finishes successfully.
	EventOperationCompleted = "operation.completed"
	// EventOperationFailed is emitted when an operation exhausts its retries.
	EventOperationFailed = "operation.failed"
	// EventOperationRetrying is emitted before each retry attempt.
	EventOperationRetrying = "operation.retrying"
	// EventItemProcessed is emitted when one test case reaches a terminal
	// per-item state, regardless of outcome.
	EventItemProcessed = "item.processed"
	// EventItemMigrated is emitted when one test case is created in the target.
	EventItemMigrated = "item.migrated"
	// EventItemRetrying is emitted before each per-item create retry attempt.
	EventItemRetrying = "item.retrying"
	// EventItemSkipped is emitted when one test case is skipped.
	EventItemSkipped = "item.skipped"
	// EventItemFailed is emitted when one test case fails terminally.
	EventItemFailed = "item.failed"
	// EventValidationFailed is emitted when the validator rejects the run.
	EventValidationFailed = "validation.failed"
)

// DomainEvent represents a significant occurrence within the migration
// core. Events carry structured payloads downstream subscribers use for
// logging, progress rendering, or external integrations.
type DomainEvent interface {
	EventType() string
	Payload() interface{}
}

// EventPublisher distributes events to interested subscribers on a
// best-effort basis. Dispatch is synchronous—Publish blocks until all
// handlers run—but a handler's failure never aborts the run and never
// prevents delivery to the remaining subscribers. Implementations must be
// thread-safe.
type EventPublisher interface {
	Publish(ctx context.Context, event DomainEvent) error
	Subscribe(eventType string, handler EventHandler) (Subscription, error)
}

// EventHandler processes an event of a specific type. Handlers should
// avoid panicking; failures should be surfaced via returned errors so the
// publisher can log diagnostics and continue delivering to the remaining
// subscribers.
type EventHandler func(context.Context, DomainEvent) error

// Subscription represents a registered handler. Callers must invoke
// Unsubscribe to stop receiving events and release resources.
type Subscription interface {
	Unsubscribe()
}
