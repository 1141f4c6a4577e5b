package models

import (
	"fmt"
	"time"
)

// Frequency controls how often a template spawns inspections
type Frequency string

const (
	FrequencyOneTime Frequency = "one-time"
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

// IsValid returns true if the frequency is a recognized value
func (f Frequency) IsValid() bool {
	switch f {
	case FrequencyOneTime, FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
		return true
	}
	return false
}

// InspectionTemplate is a reusable blueprint. It never transitions itself.
type InspectionTemplate struct {
	ID          int64           `json:"id" db:"id"`
	Name        string          `json:"name" db:"name"`
	Description *string         `json:"description,omitempty" db:"description"`
	Frequency   Frequency       `json:"frequency" db:"frequency"`
	StartDate   *time.Time      `json:"start_date,omitempty" db:"start_date"`
	EndDate     *time.Time      `json:"end_date,omitempty" db:"end_date"`
	AssignedTo  *int64          `json:"assigned_to,omitempty" db:"assigned_to"`
	CreatedBy   int64           `json:"created_by" db:"created_by"`
	Active      bool            `json:"active" db:"active"`
	Tasks       []*TemplateTask `json:"tasks"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
}

// TemplateTask is a task blueprint; it shares validation semantics with Task
type TemplateTask struct {
	ID          int64              `json:"id" db:"id"`
	TemplateID  int64              `json:"template_id" db:"template_id"`
	Name        string             `json:"name" db:"name"`
	Description *string            `json:"description,omitempty" db:"description"`
	Expectation Expectation        `json:"expectation"`
	Target      *TargetRef         `json:"target,omitempty"`
	Required    bool               `json:"required" db:"required"`
	Position    int                `json:"position" db:"position"`
	SubTasks    []*TemplateSubTask `json:"sub_tasks,omitempty"`
}

// TemplateSubTask is a sub-task blueprint
type TemplateSubTask struct {
	ID             int64       `json:"id" db:"id"`
	TemplateTaskID int64       `json:"template_task_id" db:"template_task_id"`
	Name           string      `json:"name" db:"name"`
	Position       int         `json:"position" db:"position"`
	Expectation    Expectation `json:"expectation"`
}

// Validate checks the template definition
func (t *InspectionTemplate) Validate() error {
	if t.Name == "" {
		return NewValidationError("name", "is required")
	}
	if !t.Frequency.IsValid() {
		return NewValidationError("frequency", fmt.Sprintf("unknown frequency %q", t.Frequency))
	}
	if t.StartDate != nil && t.EndDate != nil && DateOf(*t.EndDate).Before(DateOf(*t.StartDate)) {
		return NewValidationError("end_date", "must not be before start_date")
	}
	for _, tt := range t.Tasks {
		task := tt.blueprint()
		if err := task.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// anchor is the date weekly and monthly schedules are measured from
func (t *InspectionTemplate) anchor() time.Time {
	if t.StartDate != nil {
		return DateOf(*t.StartDate)
	}
	return DateOf(t.CreatedAt)
}

// InWindow reports whether date falls inside the template's start/end window
func (t *InspectionTemplate) InWindow(date time.Time) bool {
	d := DateOf(date)
	if t.StartDate != nil && d.Before(DateOf(*t.StartDate)) {
		return false
	}
	if t.EndDate != nil && d.After(DateOf(*t.EndDate)) {
		return false
	}
	return true
}

// IsDue answers whether the template needs an instance on date.
// hasInstance reports whether any instance of a one-time template already exists.
func (t *InspectionTemplate) IsDue(date time.Time, hasInstance bool) bool {
	if !t.Active || !t.InWindow(date) {
		return false
	}
	d := DateOf(date)
	switch t.Frequency {
	case FrequencyDaily:
		return true
	case FrequencyWeekly:
		return d.Weekday() == t.anchor().Weekday()
	case FrequencyMonthly:
		day := t.anchor().Day()
		if last := daysIn(d.Year(), d.Month()); day > last {
			day = last
		}
		return d.Day() == day
	case FrequencyOneTime:
		return !hasInstance
	}
	return false
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Spawn builds a pending inspection for date with tasks copied from the blueprints
func (t *InspectionTemplate) Spawn(date, now time.Time) (*Inspection, []*Task) {
	templateID := t.ID
	inspection := &Inspection{
		TemplateID:    &templateID,
		Title:         t.Name,
		Status:        InspectionStatusPending,
		AssignedTo:    t.AssignedTo,
		ScheduledDate: DateOf(date),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	createdBy := t.CreatedBy
	inspection.ScheduledBy = &createdBy

	tasks := make([]*Task, 0, len(t.Tasks))
	for _, tt := range t.Tasks {
		task := tt.blueprint()
		task.CreatedAt = now
		for _, st := range task.SubTasks {
			st.UpdatedAt = now
		}
		tasks = append(tasks, task)
	}
	return inspection, tasks
}

// blueprint converts the template task into an unsaved instance task
func (tt *TemplateTask) blueprint() *Task {
	task := &Task{
		Name:        tt.Name,
		Description: tt.Description,
		Expectation: tt.Expectation.Normalize(),
		Required:    tt.Required,
		Position:    tt.Position,
	}
	if tt.Target != nil {
		target := *tt.Target
		task.Target = &target
	}
	for _, ts := range tt.SubTasks {
		task.SubTasks = append(task.SubTasks, &SubTask{
			Name:        ts.Name,
			Position:    ts.Position,
			Expectation: ts.Expectation.Normalize(),
			Status:      SubTaskStatusPending,
		})
	}
	return task
}
