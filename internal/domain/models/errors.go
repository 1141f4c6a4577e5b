package models

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation           = errors.New("validation error")
	ErrStateConflict        = errors.New("state conflict")
	ErrTaskGated            = errors.New("task has incomplete sub-tasks")
	ErrMissingRequiredTasks = errors.New("missing required tasks")
	ErrPersistence          = errors.New("persistence failure")
	ErrNotFound             = errors.New("not found")
)

// ValidationError reports malformed input. Nothing was written.
type ValidationError struct {
	Field  string
	Reason string
}

// NewValidationError creates a ValidationError
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation error: " + e.Reason
	}
	return fmt.Sprintf("validation error: %s %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// StateConflictError reports an operation that is illegal for the entity's current state
type StateConflictError struct {
	Entity    string
	ID        int64
	State     string
	Operation string
}

func (e *StateConflictError) Error() string {
	return fmt.Sprintf("cannot %s %s %d in state %s", e.Operation, e.Entity, e.ID, e.State)
}

func (e *StateConflictError) Is(target error) bool { return target == ErrStateConflict }

// TaskGatedError is returned when a result is recorded on a task whose sub-tasks are not all completed
type TaskGatedError struct {
	TaskID          int64
	TaskName        string
	PendingSubTasks []string
}

func (e *TaskGatedError) Error() string {
	return fmt.Sprintf("task %q is gated by incomplete sub-tasks: %s", e.TaskName, strings.Join(e.PendingSubTasks, ", "))
}

func (e *TaskGatedError) Is(target error) bool {
	return target == ErrTaskGated || target == ErrStateConflict
}

// MissingRequiredTasksError blocks inspection completion and names the offending tasks
type MissingRequiredTasksError struct {
	InspectionID int64
	Names        []string
}

func (e *MissingRequiredTasksError) Error() string {
	return fmt.Sprintf("inspection %d is missing results for required tasks: %s", e.InspectionID, strings.Join(e.Names, ", "))
}

func (e *MissingRequiredTasksError) Is(target error) bool { return target == ErrMissingRequiredTasks }

// PersistenceError wraps a failed read or write. The transaction was rolled back.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }

// NotFoundError reports a missing entity
type NotFoundError struct {
	Entity string
	ID     int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }
