package ports

import (
	"context"
	"time"

	"github.com/hsdfat8/drivetrack/internal/domain/models"
)

// InspectionService is the primary port of the compliance engine
type InspectionService interface {
	// RecordSubTaskResult records an answer on a sub-task and refreshes the inspection rollup
	RecordSubTaskResult(ctx context.Context, request *RecordSubTaskResultRequest) (*models.SubTask, error)

	// ToggleSubTaskStatus flips a sub-task between pending and completed
	ToggleSubTaskStatus(ctx context.Context, subTaskID, actorID int64) (*models.SubTask, error)

	// RecordTaskResult appends a result to a task; decomposed tasks are gated on their sub-tasks
	RecordTaskResult(ctx context.Context, request *RecordTaskResultRequest) (*models.Result, error)

	// CompleteInspection closes an active inspection as completed or failed
	CompleteInspection(ctx context.Context, inspectionID, actorID int64) (*models.Inspection, error)

	// CreateInspection creates an ad hoc draft inspection with its task tree
	CreateInspection(ctx context.Context, request *CreateInspectionRequest) (*InspectionDetail, error)

	// PublishInspection makes a draft visible to operators
	PublishInspection(ctx context.Context, inspectionID, actorID int64) (*models.Inspection, error)

	// ArchiveInspection flags a completed or failed inspection for retention
	ArchiveInspection(ctx context.Context, inspectionID, actorID int64) (*models.Inspection, error)

	// RescheduleInspection moves the scheduled date or assignee of a non-terminal inspection
	RescheduleInspection(ctx context.Context, request *RescheduleRequest) (*models.Inspection, error)

	// GetInspectionDetail returns the read view of an inspection
	GetInspectionDetail(ctx context.Context, inspectionID int64) (*InspectionDetail, error)
}

// SchedulerService manages templates and spawns their instances
type SchedulerService interface {
	// CreateTemplate stores a template with its blueprints
	CreateTemplate(ctx context.Context, template *models.InspectionTemplate) (*models.InspectionTemplate, error)

	// GenerateScheduledInspections spawns every instance due on asOf and returns how many were created.
	// Templates that fail are skipped; their errors are joined in the returned error.
	GenerateScheduledInspections(ctx context.Context, asOf time.Time) (int, error)
}

// PerformanceService aggregates operator performance from settled inspection history
type PerformanceService interface {
	// ComputeOperatorPerformance computes and stores the snapshot of one user
	ComputeOperatorPerformance(ctx context.Context, userID int64, windowDays int) (*models.OperatorPerformance, error)

	// RunPerformanceBatch computes snapshots for every operator
	RunPerformanceBatch(ctx context.Context, windowDays int) ([]*models.OperatorPerformance, error)

	// GetUsersNeedingAttention returns the latest snapshots in warning, critical or inactive
	GetUsersNeedingAttention(ctx context.Context) ([]*models.OperatorPerformance, error)
}

// MaintenanceService manages maintenance records and their checklists
type MaintenanceService interface {
	CreateRecord(ctx context.Context, request *CreateMaintenanceRequest) (*models.MaintenanceRecord, error)
	GetRecord(ctx context.Context, id int64) (*models.MaintenanceRecord, error)
	ReplaceChecklist(ctx context.Context, id int64, items []ChecklistItemInput) (*models.MaintenanceRecord, error)
	UpdateChecklistItem(ctx context.Context, request *UpdateChecklistItemRequest) (*models.MaintenanceRecord, error)
	SetStatus(ctx context.Context, id int64, status models.MaintenanceStatus) (*models.MaintenanceRecord, error)
	Report(ctx context.Context) (*MaintenanceReport, error)
}

// RecordSubTaskResultRequest represents a sub-task answer
type RecordSubTaskResultRequest struct {
	SubTaskID int64                 // Required
	Kind      models.ValidationKind // Required: must match the sub-task's kind
	Value     models.Measurement    // Required for yes_no and numeric
	Notes     *string               // Optional
	ActorID   int64                 // Required: performing user
	// Correction allows an editor to fix a sub-task on a completed or failed inspection
	Correction bool
}

// RecordTaskResultRequest represents a task answer
type RecordTaskResultRequest struct {
	TaskID  int64
	Value   models.Measurement
	Notes   *string
	ActorID int64
}

// CreateInspectionRequest represents an ad hoc inspection
type CreateInspectionRequest struct {
	Title         string
	ScheduledDate time.Time
	AssignedTo    *int64
	Notes         *string
	ActorID       int64
	Tasks         []*models.Task
}

// RescheduleRequest moves an inspection
type RescheduleRequest struct {
	InspectionID  int64
	ScheduledDate *time.Time
	AssignedTo    *int64
	ActorID       int64
}

// CreateMaintenanceRequest represents a new maintenance record
type CreateMaintenanceRequest struct {
	Title         string
	Description   *string
	Target        *models.TargetRef
	ScheduledDate *time.Time
	PerformedBy   *int64
	Checklist     []ChecklistItemInput
}

// ChecklistItemInput is a checklist line supplied by a caller; ID is generated when empty
type ChecklistItemInput struct {
	ID     string
	Text   string
	Status models.ChecklistItemStatus
	Notes  *string
}

// UpdateChecklistItemRequest changes one checklist line
type UpdateChecklistItemRequest struct {
	RecordID int64
	ItemID   string
	Status   models.ChecklistItemStatus
	Notes    *string
}

// InspectionDetail is the read view of an inspection with its task tree
type InspectionDetail struct {
	Inspection *models.Inspection          `json:"inspection"`
	Tasks      []*TaskDetail               `json:"tasks"`
	History    []*models.InspectionHistory `json:"history"`
}

// TaskDetail is one task with its sub-tasks, current answer and history
type TaskDetail struct {
	Task          *models.Task      `json:"task"`
	SubTasks      []*SubTaskDetail  `json:"sub_tasks"`
	Latest        *models.Result    `json:"latest,omitempty"`
	Results       models.ResultLog  `json:"results"`
	Target        *models.Equipment `json:"target,omitempty"`
	TargetMissing bool              `json:"target_missing"`
}

// SubTaskDetail pairs a sub-task with its compliance classification
type SubTaskDetail struct {
	SubTask    *models.SubTask   `json:"sub_task"`
	Compliance models.Compliance `json:"compliance"`
}

// MaintenanceReport summarises checklist progress across maintenance records
type MaintenanceReport struct {
	Records   int                     `json:"records"`
	Malformed int                     `json:"malformed"`
	Totals    models.ChecklistSummary `json:"totals"`
}
