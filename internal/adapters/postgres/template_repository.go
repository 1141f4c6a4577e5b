package postgres

import (
	"context"
	"fmt"

	"github.com/hsdfat8/drivetrack/internal/domain/models"
	"github.com/hsdfat8/drivetrack/internal/domain/ports"
	"github.com/lib/pq"
)

// templateRepository implements the TemplateRepository interface using PostgreSQL
type templateRepository struct {
	db dbExecutor
}

// NewTemplateRepository creates a new PostgreSQL template repository
func NewTemplateRepository(db dbExecutor) ports.TemplateRepository {
	return &templateRepository{db: db}
}

const templateColumns = `id, name, description, frequency, start_date, end_date, assigned_to, created_by, active, created_at`

// Create inserts the template and its blueprints. Callers run it inside a transaction.
func (r *templateRepository) Create(ctx context.Context, template *models.InspectionTemplate) error {
	query := `
		INSERT INTO inspection_templates (
			name, description, frequency, start_date, end_date, assigned_to, created_by, active, created_at
		) VALUES (
			:name, :description, :frequency, :start_date, :end_date, :assigned_to, :created_by, :active, :created_at
		) RETURNING id
	`
	if err := insertReturningID(ctx, r.db, query, template, &template.ID); err != nil {
		return fmt.Errorf("failed to create template: %w", err)
	}

	taskQuery := `
		INSERT INTO template_tasks (
			template_id, name, description, validation_type, expected_boolean, expected_min,
			expected_max, unit, target_kind, target_id, required, position
		) VALUES (
			:template_id, :name, :description, :validation_type, :expected_boolean, :expected_min,
			:expected_max, :unit, :target_kind, :target_id, :required, :position
		) RETURNING id
	`
	subTaskQuery := `
		INSERT INTO template_sub_tasks (
			template_task_id, name, position, validation_type, expected_boolean, expected_min,
			expected_max, unit
		) VALUES (
			:template_task_id, :name, :position, :validation_type, :expected_boolean, :expected_min,
			:expected_max, :unit
		) RETURNING id
	`
	for _, tt := range template.Tasks {
		tt.TemplateID = template.ID
		row := &templateTaskRow{
			TemplateID:         tt.TemplateID,
			Name:               tt.Name,
			Description:        tt.Description,
			expectationColumns: expectationToColumns(tt.Expectation),
			targetColumns:      targetToColumns(tt.Target),
			Required:           tt.Required,
			Position:           tt.Position,
		}
		if err := insertReturningID(ctx, r.db, taskQuery, row, &tt.ID); err != nil {
			return fmt.Errorf("failed to create template task: %w", err)
		}
		for _, ts := range tt.SubTasks {
			ts.TemplateTaskID = tt.ID
			subRow := &templateSubTaskRow{
				TemplateTaskID:     ts.TemplateTaskID,
				Name:               ts.Name,
				Position:           ts.Position,
				expectationColumns: expectationToColumns(ts.Expectation),
			}
			if err := insertReturningID(ctx, r.db, subTaskQuery, subRow, &ts.ID); err != nil {
				return fmt.Errorf("failed to create template sub-task: %w", err)
			}
		}
	}
	return nil
}

// GetByID retrieves a template with its blueprints
func (r *templateRepository) GetByID(ctx context.Context, id int64) (*models.InspectionTemplate, error) {
	return r.get(ctx, id, `SELECT `+templateColumns+` FROM inspection_templates WHERE id = $1`)
}

// GetForUpdate retrieves a template and locks its row
func (r *templateRepository) GetForUpdate(ctx context.Context, id int64) (*models.InspectionTemplate, error) {
	return r.get(ctx, id, `SELECT `+templateColumns+` FROM inspection_templates WHERE id = $1 FOR UPDATE`)
}

// ListActive retrieves every active template with its blueprints
func (r *templateRepository) ListActive(ctx context.Context) ([]*models.InspectionTemplate, error) {
	query := `SELECT ` + templateColumns + ` FROM inspection_templates WHERE active ORDER BY id`

	var templates []*models.InspectionTemplate
	if err := r.db.SelectContext(ctx, &templates, query); err != nil {
		return nil, fmt.Errorf("failed to list active templates: %w", err)
	}
	if err := r.attachBlueprints(ctx, templates); err != nil {
		return nil, err
	}
	return templates, nil
}

func (r *templateRepository) get(ctx context.Context, id int64, query string) (*models.InspectionTemplate, error) {
	var template models.InspectionTemplate
	if err := getOne(ctx, r.db, &template, "template", id, query, id); err != nil {
		return nil, err
	}
	if err := r.attachBlueprints(ctx, []*models.InspectionTemplate{&template}); err != nil {
		return nil, err
	}
	return &template, nil
}

// attachBlueprints loads the task and sub-task blueprints of the given templates in two queries
func (r *templateRepository) attachBlueprints(ctx context.Context, templates []*models.InspectionTemplate) error {
	if len(templates) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(templates))
	byID := make(map[int64]*models.InspectionTemplate, len(templates))
	for _, t := range templates {
		t.CreatedAt = t.CreatedAt.UTC()
		t.StartDate = utcPtr(t.StartDate)
		t.EndDate = utcPtr(t.EndDate)
		t.Tasks = []*models.TemplateTask{}
		ids = append(ids, t.ID)
		byID[t.ID] = t
	}

	var taskRows []*templateTaskRow
	err := r.db.SelectContext(ctx, &taskRows, `
		SELECT id, template_id, name, description, validation_type, expected_boolean, expected_min,
		       expected_max, unit, target_kind, target_id, required, position
		FROM template_tasks
		WHERE template_id = ANY($1)
		ORDER BY template_id, position, id
	`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to list template tasks: %w", err)
	}

	var subRows []*templateSubTaskRow
	err = r.db.SelectContext(ctx, &subRows, `
		SELECT ts.id, ts.template_task_id, ts.name, ts.position, ts.validation_type,
		       ts.expected_boolean, ts.expected_min, ts.expected_max, ts.unit
		FROM template_sub_tasks ts
		JOIN template_tasks tt ON tt.id = ts.template_task_id
		WHERE tt.template_id = ANY($1)
		ORDER BY ts.template_task_id, ts.position, ts.id
	`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to list template sub-tasks: %w", err)
	}

	subsByTask := make(map[int64][]*models.TemplateSubTask)
	for _, row := range subRows {
		subsByTask[row.TemplateTaskID] = append(subsByTask[row.TemplateTaskID], &models.TemplateSubTask{
			ID:             row.ID,
			TemplateTaskID: row.TemplateTaskID,
			Name:           row.Name,
			Position:       row.Position,
			Expectation:    row.expectation(),
		})
	}
	for _, row := range taskRows {
		template, ok := byID[row.TemplateID]
		if !ok {
			continue
		}
		template.Tasks = append(template.Tasks, &models.TemplateTask{
			ID:          row.ID,
			TemplateID:  row.TemplateID,
			Name:        row.Name,
			Description: row.Description,
			Expectation: row.expectation(),
			Target:      row.target(),
			Required:    row.Required,
			Position:    row.Position,
			SubTasks:    subsByTask[row.ID],
		})
	}
	return nil
}
