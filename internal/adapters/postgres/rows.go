package postgres

import (
	"time"

	"github.com/hsdfat8/drivetrack/internal/domain/models"
)

// expectationColumns is the flattened form of models.Expectation
type expectationColumns struct {
	ValidationType  string   `db:"validation_type"`
	ExpectedBoolean *bool    `db:"expected_boolean"`
	ExpectedMin     *float64 `db:"expected_min"`
	ExpectedMax     *float64 `db:"expected_max"`
	Unit            string   `db:"unit"`
}

func expectationToColumns(e models.Expectation) expectationColumns {
	return expectationColumns{
		ValidationType:  string(e.Kind),
		ExpectedBoolean: e.Boolean,
		ExpectedMin:     e.Min,
		ExpectedMax:     e.Max,
		Unit:            e.Unit,
	}
}

func (c expectationColumns) expectation() models.Expectation {
	return models.Expectation{
		Kind:    models.ValidationKind(c.ValidationType),
		Boolean: c.ExpectedBoolean,
		Min:     c.ExpectedMin,
		Max:     c.ExpectedMax,
		Unit:    c.Unit,
	}
}

// targetColumns is the flattened weak reference to a drive or part
type targetColumns struct {
	TargetKind *string `db:"target_kind"`
	TargetID   *int64  `db:"target_id"`
}

func targetToColumns(ref *models.TargetRef) targetColumns {
	if ref == nil {
		return targetColumns{}
	}
	kind := string(ref.Kind)
	id := ref.ID
	return targetColumns{TargetKind: &kind, TargetID: &id}
}

func (c targetColumns) target() *models.TargetRef {
	if c.TargetKind == nil || c.TargetID == nil {
		return nil
	}
	return &models.TargetRef{Kind: models.TargetKind(*c.TargetKind), ID: *c.TargetID}
}

// measurementColumns is the flattened form of models.Measurement
type measurementColumns struct {
	BooleanValue *bool    `db:"boolean_value"`
	NumericValue *float64 `db:"numeric_value"`
}

func measurementToColumns(m models.Measurement) measurementColumns {
	return measurementColumns{BooleanValue: m.Boolean, NumericValue: m.Numeric}
}

func (c measurementColumns) measurement() models.Measurement {
	return models.Measurement{Boolean: c.BooleanValue, Numeric: c.NumericValue}
}

type inspectionRow struct {
	ID            int64      `db:"id"`
	TemplateID    *int64     `db:"template_id"`
	Title         string     `db:"title"`
	Status        string     `db:"status"`
	ScheduledBy   *int64     `db:"scheduled_by"`
	AssignedTo    *int64     `db:"assigned_to"`
	CompletedBy   *int64     `db:"completed_by"`
	ScheduledDate time.Time  `db:"scheduled_date"`
	CompletedDate *time.Time `db:"completed_date"`
	Notes         *string    `db:"notes"`
	models.Rollup
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

const inspectionColumns = `id, template_id, title, status, scheduled_by, assigned_to, completed_by,
		       scheduled_date, completed_date, notes, total_tasks, tasks_with_result, passing_tasks,
		       failing_tasks, required_tasks, required_passing, total_sub_tasks, completed_sub_tasks,
		       ready_to_complete, created_at, updated_at`

func inspectionToRow(i *models.Inspection) *inspectionRow {
	return &inspectionRow{
		ID:            i.ID,
		TemplateID:    i.TemplateID,
		Title:         i.Title,
		Status:        string(i.Status),
		ScheduledBy:   i.ScheduledBy,
		AssignedTo:    i.AssignedTo,
		CompletedBy:   i.CompletedBy,
		ScheduledDate: i.ScheduledDate,
		CompletedDate: i.CompletedDate,
		Notes:         i.Notes,
		Rollup:        i.Rollup,
		CreatedAt:     i.CreatedAt,
		UpdatedAt:     i.UpdatedAt,
	}
}

func (r *inspectionRow) model() *models.Inspection {
	return &models.Inspection{
		ID:            r.ID,
		TemplateID:    r.TemplateID,
		Title:         r.Title,
		Status:        models.InspectionStatus(r.Status),
		ScheduledBy:   r.ScheduledBy,
		AssignedTo:    r.AssignedTo,
		CompletedBy:   r.CompletedBy,
		ScheduledDate: r.ScheduledDate.UTC(),
		CompletedDate: utcPtr(r.CompletedDate),
		Notes:         r.Notes,
		Rollup:        r.Rollup,
		CreatedAt:     r.CreatedAt.UTC(),
		UpdatedAt:     r.UpdatedAt.UTC(),
	}
}

type taskRow struct {
	ID           int64   `db:"id"`
	InspectionID int64   `db:"inspection_id"`
	Name         string  `db:"name"`
	Description  *string `db:"description"`
	expectationColumns
	targetColumns
	Required  bool      `db:"required"`
	Position  int       `db:"position"`
	CreatedAt time.Time `db:"created_at"`
}

const taskColumns = `id, inspection_id, name, description, validation_type, expected_boolean,
		       expected_min, expected_max, unit, target_kind, target_id, required, position, created_at`

func taskToRow(t *models.Task) *taskRow {
	return &taskRow{
		ID:                 t.ID,
		InspectionID:       t.InspectionID,
		Name:               t.Name,
		Description:        t.Description,
		expectationColumns: expectationToColumns(t.Expectation),
		targetColumns:      targetToColumns(t.Target),
		Required:           t.Required,
		Position:           t.Position,
		CreatedAt:          t.CreatedAt,
	}
}

func (r *taskRow) model() *models.Task {
	return &models.Task{
		ID:           r.ID,
		InspectionID: r.InspectionID,
		Name:         r.Name,
		Description:  r.Description,
		Expectation:  r.expectation(),
		Target:       r.target(),
		Required:     r.Required,
		Position:     r.Position,
		CreatedAt:    r.CreatedAt.UTC(),
	}
}

type subTaskRow struct {
	ID       int64  `db:"id"`
	TaskID   int64  `db:"task_id"`
	Name     string `db:"name"`
	Position int    `db:"position"`
	expectationColumns
	Status string `db:"status"`
	measurementColumns
	Notes       *string    `db:"notes"`
	CompletedBy *int64     `db:"completed_by"`
	CompletedAt *time.Time `db:"completed_at"`
	UpdatedAt   time.Time  `db:"updated_at"`
}

const subTaskColumns = `id, task_id, name, position, validation_type, expected_boolean, expected_min,
		       expected_max, unit, status, boolean_value, numeric_value, notes, completed_by,
		       completed_at, updated_at`

func subTaskToRow(s *models.SubTask) *subTaskRow {
	return &subTaskRow{
		ID:                 s.ID,
		TaskID:             s.TaskID,
		Name:               s.Name,
		Position:           s.Position,
		expectationColumns: expectationToColumns(s.Expectation),
		Status:             string(s.Status),
		measurementColumns: measurementToColumns(s.Recorded),
		Notes:              s.Notes,
		CompletedBy:        s.CompletedBy,
		CompletedAt:        s.CompletedAt,
		UpdatedAt:          s.UpdatedAt,
	}
}

func (r *subTaskRow) model() *models.SubTask {
	return &models.SubTask{
		ID:          r.ID,
		TaskID:      r.TaskID,
		Name:        r.Name,
		Position:    r.Position,
		Expectation: r.expectation(),
		Status:      models.SubTaskStatus(r.Status),
		Recorded:    r.measurement(),
		Notes:       r.Notes,
		CompletedBy: r.CompletedBy,
		CompletedAt: utcPtr(r.CompletedAt),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
}

type resultRow struct {
	ID           int64 `db:"id"`
	InspectionID int64 `db:"inspection_id"`
	TaskID       int64 `db:"task_id"`
	PerformedBy  int64 `db:"performed_by"`
	measurementColumns
	IsPassing  bool      `db:"is_passing"`
	Notes      *string   `db:"notes"`
	RecordedAt time.Time `db:"recorded_at"`
}

const resultColumns = `id, inspection_id, task_id, performed_by, boolean_value, numeric_value,
		       is_passing, notes, recorded_at`

func resultToRow(r *models.Result) *resultRow {
	return &resultRow{
		ID:                 r.ID,
		InspectionID:       r.InspectionID,
		TaskID:             r.TaskID,
		PerformedBy:        r.PerformedBy,
		measurementColumns: measurementToColumns(r.Recorded),
		IsPassing:          r.IsPassing,
		Notes:              r.Notes,
		RecordedAt:         r.RecordedAt,
	}
}

func (r *resultRow) model() *models.Result {
	return &models.Result{
		ID:           r.ID,
		InspectionID: r.InspectionID,
		TaskID:       r.TaskID,
		PerformedBy:  r.PerformedBy,
		Recorded:     r.measurement(),
		IsPassing:    r.IsPassing,
		Notes:        r.Notes,
		RecordedAt:   r.RecordedAt.UTC(),
	}
}

type templateTaskRow struct {
	ID          int64   `db:"id"`
	TemplateID  int64   `db:"template_id"`
	Name        string  `db:"name"`
	Description *string `db:"description"`
	expectationColumns
	targetColumns
	Required bool `db:"required"`
	Position int  `db:"position"`
}

type templateSubTaskRow struct {
	ID             int64  `db:"id"`
	TemplateTaskID int64  `db:"template_task_id"`
	Name           string `db:"name"`
	Position       int    `db:"position"`
	expectationColumns
}

type maintenanceRow struct {
	ID int64 `db:"id"`
	targetColumns
	Title         string     `db:"title"`
	Description   *string    `db:"description"`
	Status        string     `db:"status"`
	Checklist     string     `db:"checklist"` // JSONB
	PerformedBy   *int64     `db:"performed_by"`
	ScheduledDate *time.Time `db:"scheduled_date"`
	CompletedAt   *time.Time `db:"completed_at"`
	CreatedAt     time.Time  `db:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at"`
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
