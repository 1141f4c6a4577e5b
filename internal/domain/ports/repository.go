package ports

import (
	"context"
	"time"

	"github.com/hsdfat8/drivetrack/internal/domain/models"
)

// InspectionRepository defines data access for inspection records.
// Lookups of a missing row return *models.NotFoundError.
type InspectionRepository interface {
	// Create inserts an inspection and assigns its ID
	Create(ctx context.Context, inspection *models.Inspection) error

	// CreateScheduled inserts a template instance unless one already exists for the
	// same template and scheduled date. It reports whether a row was inserted.
	CreateScheduled(ctx context.Context, inspection *models.Inspection) (bool, error)

	// GetByID retrieves an inspection without locking
	GetByID(ctx context.Context, id int64) (*models.Inspection, error)

	// GetForUpdate retrieves an inspection and locks it until the transaction ends
	GetForUpdate(ctx context.Context, id int64) (*models.Inspection, error)

	// Update writes status, schedule, completion and rollup fields
	Update(ctx context.Context, inspection *models.Inspection) error

	// CountByTemplate counts instances of a template
	CountByTemplate(ctx context.Context, templateID int64) (int, error)

	// ListAssignedBetween retrieves inspections assigned to a user scheduled in [from, to]
	ListAssignedBetween(ctx context.Context, userID int64, from, to time.Time) ([]*models.Inspection, error)
}

// TaskRepository defines data access for instance tasks. Sub-tasks are stored separately.
type TaskRepository interface {
	// Create inserts a task and assigns its ID
	Create(ctx context.Context, task *models.Task) error

	// GetByID retrieves a task without its sub-tasks
	GetByID(ctx context.Context, id int64) (*models.Task, error)

	// ListByInspection retrieves the tasks of an inspection in position order
	ListByInspection(ctx context.Context, inspectionID int64) ([]*models.Task, error)
}

// SubTaskRepository defines data access for sub-tasks
type SubTaskRepository interface {
	// Create inserts a sub-task and assigns its ID
	Create(ctx context.Context, subTask *models.SubTask) error

	// GetByID retrieves a sub-task
	GetByID(ctx context.Context, id int64) (*models.SubTask, error)

	// Update writes status, recorded values, completer and notes
	Update(ctx context.Context, subTask *models.SubTask) error

	// ListByInspection retrieves every sub-task under an inspection's tasks
	ListByInspection(ctx context.Context, inspectionID int64) ([]*models.SubTask, error)
}

// ResultRepository is the append-only task result log
type ResultRepository interface {
	// Append adds a result and assigns its ID
	Append(ctx context.Context, result *models.Result) error

	// ListByInspection retrieves the whole log of an inspection
	ListByInspection(ctx context.Context, inspectionID int64) (models.ResultLog, error)

	// ListByPerformerBetween retrieves results recorded by a user in [from, to]
	ListByPerformerBetween(ctx context.Context, userID int64, from, to time.Time) (models.ResultLog, error)

	// LastRecordedBy returns the time of the user's most recent result, or nil
	LastRecordedBy(ctx context.Context, userID int64) (*time.Time, error)
}

// TemplateRepository defines data access for inspection templates and their blueprints
type TemplateRepository interface {
	// Create inserts the template with its task and sub-task blueprints
	Create(ctx context.Context, template *models.InspectionTemplate) error

	// GetByID retrieves a template with its blueprints
	GetByID(ctx context.Context, id int64) (*models.InspectionTemplate, error)

	// GetForUpdate retrieves a template and locks it so concurrent generation runs serialize
	GetForUpdate(ctx context.Context, id int64) (*models.InspectionTemplate, error)

	// ListActive retrieves every active template with its blueprints
	ListActive(ctx context.Context) ([]*models.InspectionTemplate, error)
}

// MaintenanceRepository defines data access for maintenance records
type MaintenanceRepository interface {
	// Create inserts a record and assigns its ID
	Create(ctx context.Context, record *models.MaintenanceRecord) error

	// GetByID retrieves a record without locking
	GetByID(ctx context.Context, id int64) (*models.MaintenanceRecord, error)

	// GetForUpdate retrieves a record and locks it until the transaction ends
	GetForUpdate(ctx context.Context, id int64) (*models.MaintenanceRecord, error)

	// Update writes status, checklist and completion fields
	Update(ctx context.Context, record *models.MaintenanceRecord) error

	// ListChecklistPayloads returns the stored checklist payload of every record, keyed by record ID
	ListChecklistPayloads(ctx context.Context) (map[int64][]byte, error)
}

// PerformanceRepository stores computed operator performance snapshots
type PerformanceRepository interface {
	// Upsert replaces the snapshot for the same user and period
	Upsert(ctx context.Context, snapshot *models.OperatorPerformance) error

	// GetLatest retrieves the most recent snapshot of a user
	GetLatest(ctx context.Context, userID int64) (*models.OperatorPerformance, error)

	// ListLatest retrieves the most recent snapshot of every user
	ListLatest(ctx context.Context) ([]*models.OperatorPerformance, error)
}
