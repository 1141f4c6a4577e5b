package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hsdfat8/drivetrack/internal/domain/models"
	"github.com/hsdfat8/drivetrack/internal/domain/ports"
)

// inspectionRepository implements the InspectionRepository interface using PostgreSQL
type inspectionRepository struct {
	db dbExecutor
}

// NewInspectionRepository creates a new PostgreSQL inspection repository
func NewInspectionRepository(db dbExecutor) ports.InspectionRepository {
	return &inspectionRepository{db: db}
}

const insertInspection = `
		INSERT INTO inspections (
			template_id, title, status, scheduled_by, assigned_to, completed_by,
			scheduled_date, completed_date, notes, total_tasks, tasks_with_result, passing_tasks,
			failing_tasks, required_tasks, required_passing, total_sub_tasks, completed_sub_tasks,
			ready_to_complete, created_at, updated_at
		) VALUES (
			:template_id, :title, :status, :scheduled_by, :assigned_to, :completed_by,
			:scheduled_date, :completed_date, :notes, :total_tasks, :tasks_with_result, :passing_tasks,
			:failing_tasks, :required_tasks, :required_passing, :total_sub_tasks, :completed_sub_tasks,
			:ready_to_complete, :created_at, :updated_at
		)`

// Create inserts an inspection
func (r *inspectionRepository) Create(ctx context.Context, inspection *models.Inspection) error {
	if err := insertReturningID(ctx, r.db, insertInspection+" RETURNING id", inspectionToRow(inspection), &inspection.ID); err != nil {
		return fmt.Errorf("failed to create inspection: %w", err)
	}
	return nil
}

// CreateScheduled inserts a template instance; the unique (template_id, scheduled_date)
// index makes a concurrent duplicate a no-op
func (r *inspectionRepository) CreateScheduled(ctx context.Context, inspection *models.Inspection) (bool, error) {
	query := insertInspection + `
		ON CONFLICT (template_id, scheduled_date) WHERE template_id IS NOT NULL DO NOTHING
		RETURNING id`

	err := insertReturningID(ctx, r.db, query, inspectionToRow(inspection), &inspection.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to create scheduled inspection: %w", err)
	}
	return true, nil
}

// GetByID retrieves an inspection
func (r *inspectionRepository) GetByID(ctx context.Context, id int64) (*models.Inspection, error) {
	query := `SELECT ` + inspectionColumns + ` FROM inspections WHERE id = $1`

	var row inspectionRow
	if err := getOne(ctx, r.db, &row, "inspection", id, query, id); err != nil {
		return nil, err
	}
	return row.model(), nil
}

// GetForUpdate retrieves an inspection holding its row lock until the transaction ends
func (r *inspectionRepository) GetForUpdate(ctx context.Context, id int64) (*models.Inspection, error) {
	query := `SELECT ` + inspectionColumns + ` FROM inspections WHERE id = $1 FOR UPDATE`

	var row inspectionRow
	if err := getOne(ctx, r.db, &row, "inspection", id, query, id); err != nil {
		return nil, err
	}
	return row.model(), nil
}

// Update writes the mutable inspection fields
func (r *inspectionRepository) Update(ctx context.Context, inspection *models.Inspection) error {
	query := `
		UPDATE inspections
		SET status = :status,
		    assigned_to = :assigned_to,
		    completed_by = :completed_by,
		    scheduled_date = :scheduled_date,
		    completed_date = :completed_date,
		    notes = :notes,
		    total_tasks = :total_tasks,
		    tasks_with_result = :tasks_with_result,
		    passing_tasks = :passing_tasks,
		    failing_tasks = :failing_tasks,
		    required_tasks = :required_tasks,
		    required_passing = :required_passing,
		    total_sub_tasks = :total_sub_tasks,
		    completed_sub_tasks = :completed_sub_tasks,
		    ready_to_complete = :ready_to_complete,
		    updated_at = :updated_at
		WHERE id = :id
	`

	result, err := r.db.NamedExecContext(ctx, query, inspectionToRow(inspection))
	if err != nil {
		return fmt.Errorf("failed to update inspection: %w", err)
	}
	return expectRowAffected(result, "inspection", inspection.ID)
}

// CountByTemplate counts instances spawned from a template
func (r *inspectionRepository) CountByTemplate(ctx context.Context, templateID int64) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM inspections WHERE template_id = $1`, templateID)
	if err != nil {
		return 0, fmt.Errorf("failed to count inspections by template: %w", err)
	}
	return count, nil
}

// ListAssignedBetween retrieves a user's inspections scheduled from the day of from up to to
func (r *inspectionRepository) ListAssignedBetween(ctx context.Context, userID int64, from, to time.Time) ([]*models.Inspection, error) {
	query := `
		SELECT ` + inspectionColumns + `
		FROM inspections
		WHERE assigned_to = $1 AND scheduled_date >= $2 AND scheduled_date <= $3
		ORDER BY id
	`

	var rows []*inspectionRow
	if err := r.db.SelectContext(ctx, &rows, query, userID, models.DateOf(from), to); err != nil {
		return nil, fmt.Errorf("failed to list assigned inspections: %w", err)
	}

	inspections := make([]*models.Inspection, 0, len(rows))
	for _, row := range rows {
		inspections = append(inspections, row.model())
	}
	return inspections, nil
}
