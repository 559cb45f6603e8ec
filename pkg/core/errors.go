package core

import (
	"errors"
	"fmt"
)

// Validation and lookup errors
var (
	ErrInvalidTaskID    = errors.New("replica: invalid task id (must be alphanumeric, start with letter)")
	ErrTaskIDTooLong    = errors.New("replica: task id too long")
	ErrTaskNotFound     = errors.New("replica: task not found")
	ErrTaskRunning      = errors.New("replica: task is already running")
	ErrUnknownTask      = errors.New("replica: no pipeline registered for task")
	ErrInvalidDateRange = errors.New("replica: invalid date range")
	ErrInvalidSchedule  = errors.New("replica: invalid schedule")
)

// SourceUnavailableError marks a best-effort source that could not be read.
// Pipelines degrade to defaults instead of failing when they see it.
type SourceUnavailableError struct {
	Source string
	Err    error
}

func (e *SourceUnavailableError) Error() string {
	return fmt.Sprintf("source %s unavailable: %v", e.Source, e.Err)
}

func (e *SourceUnavailableError) Unwrap() error {
	return e.Err
}

// SourceUnavailable wraps err as a SourceUnavailableError for source.
func SourceUnavailable(source string, err error) error {
	return &SourceUnavailableError{Source: source, Err: err}
}

// PipelineError marks a failure of a primary source or precondition; the whole
// pipeline invocation fails.
type PipelineError struct {
	Stage string
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// Fatal wraps err as a PipelineError raised at stage.
func Fatal(stage string, err error) error {
	return &PipelineError{Stage: stage, Err: err}
}
