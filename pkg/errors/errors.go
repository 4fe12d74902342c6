package errors

import (
	"errors"
	"fmt"
)

// Category classifies a pipeline failure for run-log records, notification
// wording, and retry decisions.
type Category string

const (
	// CategoryDataUnavailable marks a transient data-source failure after the
	// retry budget is exhausted. Downstream consumers degrade, not fail.
	CategoryDataUnavailable Category = "data_unavailable"
	// CategoryInsufficientContent marks a synthesis failure on its one hard
	// input. Fatal to the run; distribution never runs.
	CategoryInsufficientContent Category = "insufficient_content"
	// CategoryDistributionFailed marks an exhausted publish attempt. Fatal
	// under publish mode, degraded otherwise.
	CategoryDistributionFailed Category = "distribution_failed"
	// CategoryUpstreamFailed marks a stage skipped because a required input
	// never materialized.
	CategoryUpstreamFailed Category = "upstream_failed"
	// CategoryTimeout marks a stage that exceeded its deadline.
	CategoryTimeout Category = "timeout"
	// CategoryRunInProgress marks a refused invocation while another run
	// holds the day's lock.
	CategoryRunInProgress Category = "run_already_in_progress"
	// CategoryStorageUnavailable marks a run-log append failure. Downgraded
	// to a diagnostic, never escalated.
	CategoryStorageUnavailable Category = "storage_unavailable"
	// CategoryInternal covers recovered panics and other stage faults that
	// fit no taxonomy bucket.
	CategoryInternal Category = "internal"
)

// StageError represents a failure inside a single pipeline stage. Stage
// boundaries convert every fault into one of these; nothing else escapes to
// the orchestrator.
type StageError struct {
	Stage     string
	Category  Category
	Message   string
	Err       error
	Retryable bool
}

// NewStageError constructs a StageError for the given stage and category.
func NewStageError(stage string, category Category, err error) error {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &StageError{Stage: stage, Category: category, Message: message, Err: err}
}

// NewRetryableStageError marks the failure as transient so retry policies
// keep attempting it.
func NewRetryableStageError(stage string, category Category, err error) error {
	e := NewStageError(stage, category, err).(*StageError)
	e.Retryable = true
	return e
}

func (e *StageError) Error() string {
	if e == nil {
		return ""
	}
	if e.Stage != "" {
		return fmt.Sprintf("stage %s: %s: %s", e.Stage, e.Category, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Category, e.Message)
}

// Unwrap exposes the underlying error.
func (e *StageError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ParseError represents a YAML parsing failure with optional line metadata.
type ParseError struct {
	Path    string
	Line    int
	Message string
	Err     error
}

// NewParseError constructs a ParseError.
func NewParseError(path string, line int, err error) error {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &ParseError{Path: path, Line: line, Message: message, Err: err}
}

func (e *ParseError) Error() string {
	if e == nil {
		return ""
	}
	if e.Line > 0 {
		return fmt.Sprintf("parse error: %s:%d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("parse error: %s: %s", e.Path, e.Message)
}

// Unwrap exposes the underlying error.
func (e *ParseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ValidationError captures configuration or graph validation issues raised
// before any stage runs. Intentionally fatal.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// NewValidationError constructs a ValidationError.
func NewValidationError(field, message string, err error) error {
	return &ValidationError{Field: field, Message: message, Err: err}
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Field != "" {
		return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// Unwrap exposes the underlying error.
func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// LockError reports a refused run because another invocation holds the
// advisory date lock.
type LockError struct {
	Date string
	Err  error
}

// NewLockError constructs a LockError for the given run date.
func NewLockError(date string, err error) error {
	return &LockError{Date: date, Err: err}
}

func (e *LockError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: a run for %s is already in progress", CategoryRunInProgress, e.Date)
}

// Unwrap exposes the underlying error.
func (e *LockError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// CategoryOf extracts the taxonomy category from err, defaulting to
// CategoryInternal for untyped faults.
func CategoryOf(err error) Category {
	var stageErr *StageError
	if errors.As(err, &stageErr) {
		return stageErr.Category
	}
	var lockErr *LockError
	if errors.As(err, &lockErr) {
		return CategoryRunInProgress
	}
	return CategoryInternal
}

// IsRetryable reports whether the retry policy should keep attempting the
// operation that produced err.
func IsRetryable(err error) bool {
	var stageErr *StageError
	if errors.As(err, &stageErr) {
		return stageErr.Retryable
	}
	return false
}
