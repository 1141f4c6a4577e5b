package postgres

import (
	"context"
	"fmt"

	"github.com/hsdfat8/drivetrack/internal/domain/models"
	"github.com/hsdfat8/drivetrack/internal/domain/ports"
)

// taskRepository implements the TaskRepository interface using PostgreSQL
type taskRepository struct {
	db dbExecutor
}

// NewTaskRepository creates a new PostgreSQL task repository
func NewTaskRepository(db dbExecutor) ports.TaskRepository {
	return &taskRepository{db: db}
}

// Create inserts a task. Sub-tasks are inserted through the sub-task repository.
func (r *taskRepository) Create(ctx context.Context, task *models.Task) error {
	query := `
		INSERT INTO tasks (
			inspection_id, name, description, validation_type, expected_boolean,
			expected_min, expected_max, unit, target_kind, target_id, required, position, created_at
		) VALUES (
			:inspection_id, :name, :description, :validation_type, :expected_boolean,
			:expected_min, :expected_max, :unit, :target_kind, :target_id, :required, :position, :created_at
		) RETURNING id
	`

	if err := insertReturningID(ctx, r.db, query, taskToRow(task), &task.ID); err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

// GetByID retrieves a task without its sub-tasks
func (r *taskRepository) GetByID(ctx context.Context, id int64) (*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`

	var row taskRow
	if err := getOne(ctx, r.db, &row, "task", id, query, id); err != nil {
		return nil, err
	}
	return row.model(), nil
}

// ListByInspection retrieves the tasks of an inspection in position order
func (r *taskRepository) ListByInspection(ctx context.Context, inspectionID int64) ([]*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE inspection_id = $1 ORDER BY position, id`

	var rows []*taskRow
	if err := r.db.SelectContext(ctx, &rows, query, inspectionID); err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	tasks := make([]*models.Task, 0, len(rows))
	for _, row := range rows {
		tasks = append(tasks, row.model())
	}
	return tasks, nil
}

// subTaskRepository implements the SubTaskRepository interface using PostgreSQL
type subTaskRepository struct {
	db dbExecutor
}

// NewSubTaskRepository creates a new PostgreSQL sub-task repository
func NewSubTaskRepository(db dbExecutor) ports.SubTaskRepository {
	return &subTaskRepository{db: db}
}

// Create inserts a sub-task
func (r *subTaskRepository) Create(ctx context.Context, subTask *models.SubTask) error {
	query := `
		INSERT INTO sub_tasks (
			task_id, name, position, validation_type, expected_boolean, expected_min,
			expected_max, unit, status, boolean_value, numeric_value, notes, completed_by,
			completed_at, updated_at
		) VALUES (
			:task_id, :name, :position, :validation_type, :expected_boolean, :expected_min,
			:expected_max, :unit, :status, :boolean_value, :numeric_value, :notes, :completed_by,
			:completed_at, :updated_at
		) RETURNING id
	`

	if err := insertReturningID(ctx, r.db, query, subTaskToRow(subTask), &subTask.ID); err != nil {
		return fmt.Errorf("failed to create sub-task: %w", err)
	}
	return nil
}

// GetByID retrieves a sub-task
func (r *subTaskRepository) GetByID(ctx context.Context, id int64) (*models.SubTask, error) {
	query := `SELECT ` + subTaskColumns + ` FROM sub_tasks WHERE id = $1`

	var row subTaskRow
	if err := getOne(ctx, r.db, &row, "sub-task", id, query, id); err != nil {
		return nil, err
	}
	return row.model(), nil
}

// Update writes status, both recorded values, completer and notes in one statement
func (r *subTaskRepository) Update(ctx context.Context, subTask *models.SubTask) error {
	query := `
		UPDATE sub_tasks
		SET status = :status,
		    boolean_value = :boolean_value,
		    numeric_value = :numeric_value,
		    notes = :notes,
		    completed_by = :completed_by,
		    completed_at = :completed_at,
		    updated_at = :updated_at
		WHERE id = :id
	`

	result, err := r.db.NamedExecContext(ctx, query, subTaskToRow(subTask))
	if err != nil {
		return fmt.Errorf("failed to update sub-task: %w", err)
	}
	return expectRowAffected(result, "sub-task", subTask.ID)
}

// ListByInspection retrieves every sub-task under an inspection's tasks
func (r *subTaskRepository) ListByInspection(ctx context.Context, inspectionID int64) ([]*models.SubTask, error) {
	query := `
		SELECT st.id, st.task_id, st.name, st.position, st.validation_type, st.expected_boolean,
		       st.expected_min, st.expected_max, st.unit, st.status, st.boolean_value, st.numeric_value,
		       st.notes, st.completed_by, st.completed_at, st.updated_at
		FROM sub_tasks st
		JOIN tasks t ON t.id = st.task_id
		WHERE t.inspection_id = $1
		ORDER BY st.task_id, st.position, st.id
	`

	var rows []*subTaskRow
	if err := r.db.SelectContext(ctx, &rows, query, inspectionID); err != nil {
		return nil, fmt.Errorf("failed to list sub-tasks: %w", err)
	}

	subTasks := make([]*models.SubTask, 0, len(rows))
	for _, row := range rows {
		subTasks = append(subTasks, row.model())
	}
	return subTasks, nil
}
