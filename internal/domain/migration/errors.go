// Package migration defines the core entities of the migration execution
// core: test cases, operations, run state, and the error taxonomy shared by
// every layer above it.
package migration

import (
	"context"
	"errors"
	"fmt"
)

// ErrorCode identifies a well-known error category raised anywhere in the
// migration core. Codes mirror the taxonomy in the system's error design
// notes and let callers branch on category without string matching.
type ErrorCode string

const (
	ErrCodeConfiguration     ErrorCode = "CONFIGURATION_ERROR"
	ErrCodeProviderNotFound  ErrorCode = "PROVIDER_NOT_FOUND"
	ErrCodeConnectivity      ErrorCode = "CONNECTIVITY_ERROR"
	ErrCodeCapabilityMissing ErrorCode = "CAPABILITY_MISSING"
	ErrCodeGraphInvalid      ErrorCode = "GRAPH_INVALID"
	ErrCodeTransient         ErrorCode = "TRANSIENT_ERROR"
	ErrCodeItemFailure       ErrorCode = "ITEM_FAILURE"
	ErrCodeTransaction       ErrorCode = "TRANSACTION_ERROR"
	ErrCodeValidation        ErrorCode = "VALIDATION_ERROR"
	ErrCodeIncompatibleField ErrorCode = "INCOMPATIBLE_FIELD_TYPE"
	ErrCodeMissingDependency ErrorCode = "MISSING_DEPENDENCY"
	ErrCodeCancelled         ErrorCode = "CANCELLED"
	ErrCodeTimeout           ErrorCode = "TIMEOUT"
	ErrCodeInternal          ErrorCode = "INTERNAL_ERROR"
)

// Severity classifies how an error should affect the run.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// DomainError is a typed, structured error carried across every layer of the
// migration core. It never depends on infrastructure concerns.
type DomainError struct {
	Code       ErrorCode
	Message    string
	Field      string
	TestCaseID string
	Severity   Severity
	Cause      error
	Details    map[string]interface{}
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the wrapped cause for errors.Is / errors.As.
func (e *DomainError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is allows errors.Is comparisons against other DomainErrors by code.
func (e *DomainError) Is(target error) bool {
	var other *DomainError
	if !errors.As(target, &other) {
		return false
	}
	return e.Code == other.Code
}

// WithDetails returns a copy of the error enriched with additional
// contextual fields.
func (e *DomainError) WithDetails(details map[string]interface{}) *DomainError {
	if e == nil {
		return nil
	}
	merged := make(map[string]interface{}, len(e.Details)+len(details))
	for k, v := range e.Details {
		merged[k] = v
	}
	for k, v := range details {
		merged[k] = v
	}
	clone := *e
	clone.Details = merged
	return &clone
}

func newError(code ErrorCode, message string, cause error) *DomainError {
	return &DomainError{Code: code, Message: message, Severity: SeverityError, Cause: cause}
}

// NewConfigurationError reports a fatal, pre-run configuration problem.
func NewConfigurationError(message string) *DomainError {
	return newError(ErrCodeConfiguration, message, nil)
}

// NewProviderNotFoundError reports an unknown provider id.
func NewProviderNotFoundError(providerID string) *DomainError {
	return newError(ErrCodeProviderNotFound, "provider not found", nil).WithDetails(map[string]interface{}{"provider_id": providerID})
}

// NewConnectivityError reports a failed testConnection/validateConnection call.
func NewConnectivityError(providerID string, cause error) *DomainError {
	return newError(ErrCodeConnectivity, "provider connectivity check failed", cause).WithDetails(map[string]interface{}{"provider_id": providerID})
}

// NewCapabilityMissingError reports a required feature the provider lacks.
// Severity is Error by default; callers at ValidationLenient demote it.
func NewCapabilityMissingError(capability string) *DomainError {
	return newError(ErrCodeCapabilityMissing, fmt.Sprintf("required capability %q is not supported", capability), nil)
}

// NewGraphInvalidError reports a missing dependency, cycle, or unreachable node.
func NewGraphInvalidError(message string, details map[string]interface{}) *DomainError {
	return newError(ErrCodeGraphInvalid, message, nil).WithDetails(details)
}

// NewMissingDependencyError reports a dependsOn entry with no matching node.
func NewMissingDependencyError(opType, missing string) *DomainError {
	return newError(ErrCodeMissingDependency, "operation depends on an unknown type", nil).
		WithDetails(map[string]interface{}{"operation_type": opType, "missing_dependency": missing})
}

// NewTransientError reports a retryable infrastructure failure.
func NewTransientError(message string, cause error) *DomainError {
	return newError(ErrCodeTransient, message, cause)
}

// NewItemFailureError reports a failure scoped to one test case.
func NewItemFailureError(testCaseID, message string, cause error) *DomainError {
	err := newError(ErrCodeItemFailure, message, cause)
	err.TestCaseID = testCaseID
	return err
}

// NewTransactionError reports a begin/commit/rollback failure.
func NewTransactionError(message string, cause error) *DomainError {
	return newError(ErrCodeTransaction, message, cause)
}

// NewValidationError reports a pre-flight or per-item validation violation.
func NewValidationError(field, message string) *DomainError {
	err := newError(ErrCodeValidation, message, nil)
	err.Field = field
	return err
}

// NewTimeoutError reports a cooperative-cancel triggered by a configured deadline.
func NewTimeoutError(cause error) *DomainError {
	return newError(ErrCodeTimeout, "operation timed out", cause)
}

// NewCancelledError reports a cooperative cancellation.
func NewCancelledError(cause error) *DomainError {
	return newError(ErrCodeCancelled, "run cancelled", cause)
}

// StopErrorFromContext converts a context termination into the matching
// domain error: a configured deadline becomes Timeout, anything else
// (explicit Cancel, parent cancellation) becomes Cancelled. Both are
// observed through the same cooperative-cancel path.
func StopErrorFromContext(err error) *DomainError {
	if errors.Is(err, context.DeadlineExceeded) {
		return NewTimeoutError(err)
	}
	return NewCancelledError(err)
}

// AsDomainError unwraps err into a *DomainError, wrapping it as an internal
// error if it is not already one.
func AsDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var derr *DomainError
	if errors.As(err, &derr) {
		return derr
	}
	return newError(ErrCodeInternal, err.Error(), err)
}
