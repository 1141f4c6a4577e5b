package models

import (
	"fmt"
	"time"
)

// InspectionStatus represents the lifecycle state of an inspection
type InspectionStatus string

const (
	InspectionStatusDraft     InspectionStatus = "draft"   // created manually, not yet visible to operators
	InspectionStatusPending   InspectionStatus = "pending" // visible, no result recorded yet
	InspectionStatusActive    InspectionStatus = "active"
	InspectionStatusCompleted InspectionStatus = "completed"
	InspectionStatusFailed    InspectionStatus = "failed"
	InspectionStatusArchived  InspectionStatus = "archived" // retention flag after completed/failed
)

// IsValid returns true if the status is a recognized value
func (s InspectionStatus) IsValid() bool {
	switch s {
	case InspectionStatusDraft, InspectionStatusPending, InspectionStatusActive,
		InspectionStatusCompleted, InspectionStatusFailed, InspectionStatusArchived:
		return true
	}
	return false
}

// IsTerminal reports whether the workflow has ended and results are frozen
func (s InspectionStatus) IsTerminal() bool {
	return s == InspectionStatusCompleted || s == InspectionStatusFailed || s == InspectionStatusArchived
}

// CanTransitionTo checks the legal direction of travel:
// draft -> pending -> active, draft -> active, active -> completed|failed,
// completed|failed -> archived.
func (s InspectionStatus) CanTransitionTo(target InspectionStatus) bool {
	switch s {
	case InspectionStatusDraft:
		return target == InspectionStatusPending || target == InspectionStatusActive
	case InspectionStatusPending:
		return target == InspectionStatusActive
	case InspectionStatusActive:
		return target == InspectionStatusCompleted || target == InspectionStatusFailed
	case InspectionStatusCompleted, InspectionStatusFailed:
		return target == InspectionStatusArchived
	}
	return false
}

// Rollup holds the derived counters refreshed after every task or sub-task mutation.
// It never changes the inspection status.
type Rollup struct {
	TotalTasks       int  `json:"total_tasks" db:"total_tasks"`
	TasksWithResult  int  `json:"tasks_with_result" db:"tasks_with_result"`
	PassingTasks     int  `json:"passing_tasks" db:"passing_tasks"`
	FailingTasks     int  `json:"failing_tasks" db:"failing_tasks"`
	RequiredTasks    int  `json:"required_tasks" db:"required_tasks"`
	RequiredPassing  int  `json:"required_passing" db:"required_passing"`
	TotalSubTasks    int  `json:"total_sub_tasks" db:"total_sub_tasks"`
	CompletedSubTask int  `json:"completed_sub_tasks" db:"completed_sub_tasks"`
	ReadyToComplete  bool `json:"ready_to_complete" db:"ready_to_complete"`
}

// Inspection is one scheduled or ad hoc execution of a checklist against equipment
type Inspection struct {
	ID            int64            `json:"id" db:"id"`
	TemplateID    *int64           `json:"template_id,omitempty" db:"template_id"`
	Title         string           `json:"title" db:"title"`
	Status        InspectionStatus `json:"status" db:"status"`
	ScheduledBy   *int64           `json:"scheduled_by,omitempty" db:"scheduled_by"`
	AssignedTo    *int64           `json:"assigned_to,omitempty" db:"assigned_to"`
	CompletedBy   *int64           `json:"completed_by,omitempty" db:"completed_by"`
	ScheduledDate time.Time        `json:"scheduled_date" db:"scheduled_date"`
	CompletedDate *time.Time       `json:"completed_date,omitempty" db:"completed_date"`
	Notes         *string          `json:"notes,omitempty" db:"notes"`
	Rollup        Rollup           `json:"rollup"`
	CreatedAt     time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at" db:"updated_at"`
}

// TransitionTo validates and applies a status transition
func (i *Inspection) TransitionTo(target InspectionStatus, at time.Time) error {
	if !i.Status.CanTransitionTo(target) {
		return &StateConflictError{
			Entity:    "inspection",
			ID:        i.ID,
			State:     string(i.Status),
			Operation: fmt.Sprintf("transition to %s", target),
		}
	}
	i.Status = target
	i.UpdatedAt = at
	return nil
}

// EnsureEditable rejects mutations on a terminal inspection
func (i *Inspection) EnsureEditable(operation string) error {
	if i.Status.IsTerminal() {
		return &StateConflictError{Entity: "inspection", ID: i.ID, State: string(i.Status), Operation: operation}
	}
	return nil
}

// PromoteOnFirstResult moves a draft or pending inspection to active.
// It reports whether the status changed.
func (i *Inspection) PromoteOnFirstResult(at time.Time) bool {
	if i.Status == InspectionStatusDraft || i.Status == InspectionStatusPending {
		i.Status = InspectionStatusActive
		i.UpdatedAt = at
		return true
	}
	return false
}

// ComputeRollup derives counters from the task tree and the latest result per task
func ComputeRollup(tasks []*Task, latest map[int64]*Result) Rollup {
	var r Rollup
	requiredMet := true
	for _, t := range tasks {
		r.TotalTasks++
		r.TotalSubTasks += len(t.SubTasks)
		for _, st := range t.SubTasks {
			if st.IsCompleted() {
				r.CompletedSubTask++
			}
		}
		res, ok := latest[t.ID]
		if ok {
			r.TasksWithResult++
			if res.IsPassing {
				r.PassingTasks++
			} else {
				r.FailingTasks++
			}
		}
		if t.Required {
			r.RequiredTasks++
			if ok && res.IsPassing {
				r.RequiredPassing++
			} else {
				requiredMet = false
			}
		}
	}
	r.ReadyToComplete = requiredMet
	return r
}

// CompletionOutcome decides the final status for an active inspection.
//
// Every required task must have a latest result, otherwise MissingRequiredTasksError lists
// them. The outcome is failed when any required task's latest result is failing and
// completed otherwise. Non-required tasks never change the outcome.
func CompletionOutcome(inspectionID int64, tasks []*Task, latest map[int64]*Result) (InspectionStatus, error) {
	var missing []string
	anyRequiredFailing := false
	for _, t := range SortTasks(tasks) {
		if !t.Required {
			continue
		}
		res, ok := latest[t.ID]
		if !ok {
			missing = append(missing, t.Name)
			continue
		}
		if !res.IsPassing {
			anyRequiredFailing = true
		}
	}
	if len(missing) > 0 {
		return "", &MissingRequiredTasksError{InspectionID: inspectionID, Names: missing}
	}
	if anyRequiredFailing {
		return InspectionStatusFailed, nil
	}
	return InspectionStatusCompleted, nil
}

// DateOf truncates t to its UTC calendar date
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
