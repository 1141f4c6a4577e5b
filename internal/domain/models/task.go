package models

import (
	"fmt"
	"sort"
	"time"
)

// Task is one checkable item within an inspection. A task with sub-tasks is decomposed
// and only accepts a result once every sub-task is completed.
type Task struct {
	ID           int64       `json:"id" db:"id"`
	InspectionID int64       `json:"inspection_id" db:"inspection_id"`
	Name         string      `json:"name" db:"name"`
	Description  *string     `json:"description,omitempty" db:"description"`
	Expectation  Expectation `json:"expectation"`
	Target       *TargetRef  `json:"target,omitempty"`
	Required     bool        `json:"required" db:"required"`
	Position     int         `json:"position" db:"position"`
	SubTasks     []*SubTask  `json:"sub_tasks,omitempty"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`
}

// IsDecomposed reports whether the task has sub-tasks
func (t *Task) IsDecomposed() bool {
	return len(t.SubTasks) > 0
}

// PendingSubTasks returns the names of sub-tasks not yet completed, in position order
func (t *Task) PendingSubTasks() []string {
	var names []string
	for _, st := range SortSubTasks(t.SubTasks) {
		if !st.IsCompleted() {
			names = append(names, st.Name)
		}
	}
	return names
}

// CheckGate rejects result recording while any sub-task is incomplete
func (t *Task) CheckGate() error {
	if pending := t.PendingSubTasks(); len(pending) > 0 {
		return &TaskGatedError{TaskID: t.ID, TaskName: t.Name, PendingSubTasks: pending}
	}
	return nil
}

// IsPassing evaluates a measurement against the task's own expectation
func (t *Task) IsPassing(m Measurement) bool {
	return t.Expectation.IsPassing(m)
}

// CheckConfigured rejects result recording against an expectation that cannot be judged,
// such as a numeric task stored without a range. The template needs fixing; the
// equipment has not failed.
func (t *Task) CheckConfigured() error {
	if t.Expectation.Configured() {
		return nil
	}
	return NewValidationError("expectation", fmt.Sprintf("task %d %q has a misconfigured %s expectation", t.ID, t.Name, t.Expectation.Kind))
}

// Validate checks a task definition before it is stored
func (t *Task) Validate() error {
	if t.Name == "" {
		return NewValidationError("name", "is required")
	}
	if err := t.Expectation.Validate(); err != nil {
		return err
	}
	if t.Target != nil {
		if err := t.Target.Validate(); err != nil {
			return err
		}
	}
	for _, st := range t.SubTasks {
		if st.Name == "" {
			return NewValidationError("sub_tasks.name", "is required")
		}
		if err := st.Expectation.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// SortTasks orders tasks by position, then ID
func SortTasks(tasks []*Task) []*Task {
	out := append([]*Task(nil), tasks...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// SortSubTasks orders sub-tasks by position, then ID
func SortSubTasks(subTasks []*SubTask) []*SubTask {
	out := append([]*SubTask(nil), subTasks...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].ID < out[j].ID
	})
	return out
}
