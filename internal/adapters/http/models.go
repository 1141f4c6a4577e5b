package http

import (
	"fmt"
	"time"

	"github.com/hsdfat8/drivetrack/internal/domain/models"
	"github.com/hsdfat8/drivetrack/internal/domain/ports"
)

// DateLayout is the wire format of calendar dates
const DateLayout = "2006-01-02"

// ProblemDetails represents an error response following RFC 7807
type ProblemDetails struct {
	Type            string   `json:"type,omitempty"`
	Title           string   `json:"title,omitempty"`
	Status          int      `json:"status"`
	Detail          string   `json:"detail,omitempty"`
	Instance        string   `json:"instance,omitempty"`
	MissingTasks    []string `json:"missing_tasks,omitempty"`
	PendingSubTasks []string `json:"pending_sub_tasks,omitempty"`
	Retryable       bool     `json:"retryable,omitempty"`
}

// SubTaskResultRequest is the body of POST /subtasks/:id/result
type SubTaskResultRequest struct {
	Kind         models.ValidationKind `json:"kind" binding:"required"`
	BooleanValue *bool                 `json:"boolean_value,omitempty"`
	NumericValue *float64              `json:"numeric_value,omitempty"`
	Notes        *string               `json:"notes,omitempty"`
	Correction   bool                  `json:"correction,omitempty"`
}

// TaskResultRequest is the body of POST /tasks/:id/result
type TaskResultRequest struct {
	BooleanValue *bool    `json:"boolean_value,omitempty"`
	NumericValue *float64 `json:"numeric_value,omitempty"`
	Notes        *string  `json:"notes,omitempty"`
}

// SubTaskInput describes one sub-task of a new task
type SubTaskInput struct {
	Name        string             `json:"name"`
	Position    int                `json:"position,omitempty"`
	Expectation models.Expectation `json:"expectation"`
}

// TaskInput describes one task of a new inspection or template
type TaskInput struct {
	Name        string             `json:"name"`
	Description *string            `json:"description,omitempty"`
	Expectation models.Expectation `json:"expectation"`
	Target      *models.TargetRef  `json:"target,omitempty"`
	Required    bool               `json:"required"`
	Position    int                `json:"position,omitempty"`
	SubTasks    []SubTaskInput     `json:"sub_tasks,omitempty"`
}

// CreateInspectionRequest is the body of POST /inspections
type CreateInspectionRequest struct {
	Title         string      `json:"title" binding:"required"`
	ScheduledDate string      `json:"scheduled_date,omitempty"`
	AssignedTo    *int64      `json:"assigned_to,omitempty"`
	Notes         *string     `json:"notes,omitempty"`
	Tasks         []TaskInput `json:"tasks"`
}

// RescheduleRequest is the body of PATCH /inspections/:id/schedule
type RescheduleRequest struct {
	ScheduledDate *string `json:"scheduled_date,omitempty"`
	AssignedTo    *int64  `json:"assigned_to,omitempty"`
}

// CreateTemplateRequest is the body of POST /templates
type CreateTemplateRequest struct {
	Name        string           `json:"name" binding:"required"`
	Description *string          `json:"description,omitempty"`
	Frequency   models.Frequency `json:"frequency" binding:"required"`
	StartDate   *string          `json:"start_date,omitempty"`
	EndDate     *string          `json:"end_date,omitempty"`
	AssignedTo  *int64           `json:"assigned_to,omitempty"`
	Tasks       []TaskInput      `json:"tasks"`
}

// ChecklistItemRequest is one checklist line on the wire
type ChecklistItemRequest struct {
	ID     string                     `json:"id,omitempty"`
	Text   string                     `json:"text"`
	Status models.ChecklistItemStatus `json:"status,omitempty"`
	Notes  *string                    `json:"notes,omitempty"`
}

// CreateMaintenanceRequest is the body of POST /maintenance
type CreateMaintenanceRequest struct {
	Title         string                 `json:"title" binding:"required"`
	Description   *string                `json:"description,omitempty"`
	Target        *models.TargetRef      `json:"target,omitempty"`
	ScheduledDate *string                `json:"scheduled_date,omitempty"`
	PerformedBy   *int64                 `json:"performed_by,omitempty"`
	Checklist     []ChecklistItemRequest `json:"checklist,omitempty"`
}

// ReplaceChecklistRequest is the body of PUT /maintenance/:id/checklist
type ReplaceChecklistRequest struct {
	Items []ChecklistItemRequest `json:"items"`
}

// ChecklistItemUpdateRequest is the body of PATCH /maintenance/:id/checklist/:itemId
type ChecklistItemUpdateRequest struct {
	Status models.ChecklistItemStatus `json:"status" binding:"required"`
	Notes  *string                    `json:"notes,omitempty"`
}

// MaintenanceStatusRequest is the body of PATCH /maintenance/:id/status
type MaintenanceStatusRequest struct {
	Status models.MaintenanceStatus `json:"status" binding:"required"`
}

// GenerateResponse reports a scheduler run
type GenerateResponse struct {
	Date      string `json:"date"`
	Generated int    `json:"generated"`
}

// HealthResponse reports service health
type HealthResponse struct {
	Status   string                `json:"status"`
	Service  string                `json:"service"`
	Database ports.ConnectionStats `json:"database"`
}

func (r SubTaskResultRequest) measurement() models.Measurement {
	return models.Measurement{Boolean: r.BooleanValue, Numeric: r.NumericValue}
}

func (r TaskResultRequest) measurement() models.Measurement {
	return models.Measurement{Boolean: r.BooleanValue, Numeric: r.NumericValue}
}

func (in TaskInput) toTask() *models.Task {
	task := &models.Task{
		Name:        in.Name,
		Description: in.Description,
		Expectation: in.Expectation,
		Target:      in.Target,
		Required:    in.Required,
		Position:    in.Position,
	}
	for _, st := range in.SubTasks {
		task.SubTasks = append(task.SubTasks, &models.SubTask{
			Name:        st.Name,
			Position:    st.Position,
			Expectation: st.Expectation,
		})
	}
	return task
}

func (in TaskInput) toTemplateTask() *models.TemplateTask {
	tt := &models.TemplateTask{
		Name:        in.Name,
		Description: in.Description,
		Expectation: in.Expectation,
		Target:      in.Target,
		Required:    in.Required,
		Position:    in.Position,
	}
	for _, st := range in.SubTasks {
		tt.SubTasks = append(tt.SubTasks, &models.TemplateSubTask{
			Name:        st.Name,
			Position:    st.Position,
			Expectation: st.Expectation,
		})
	}
	return tt
}

func checklistInputs(items []ChecklistItemRequest) []ports.ChecklistItemInput {
	out := make([]ports.ChecklistItemInput, 0, len(items))
	for _, item := range items {
		out = append(out, ports.ChecklistItemInput{
			ID:     item.ID,
			Text:   item.Text,
			Status: item.Status,
			Notes:  item.Notes,
		})
	}
	return out
}

// parseDate parses a YYYY-MM-DD field as a UTC date
func parseDate(field, value string) (time.Time, error) {
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, models.NewValidationError(field, fmt.Sprintf("must be a %s date", DateLayout))
	}
	return t.UTC(), nil
}

func parseOptionalDate(field string, value *string) (*time.Time, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	t, err := parseDate(field, *value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
