package memory

import (
	"context"

	"github.com/hsdfat8/drivetrack/internal/domain/models"
)

type templateRepository struct {
	s session
}

func (r *templateRepository) Create(ctx context.Context, template *models.InspectionTemplate) error {
	return r.s.update(func(st *state) error {
		template.ID = st.nextID("templates")
		for _, tt := range template.Tasks {
			tt.ID = st.nextID("template_tasks")
			tt.TemplateID = template.ID
			for _, ts := range tt.SubTasks {
				ts.ID = st.nextID("template_sub_tasks")
				ts.TemplateTaskID = tt.ID
			}
		}
		st.templates[template.ID] = copyTemplate(template)
		return nil
	})
}

func (r *templateRepository) GetByID(ctx context.Context, id int64) (*models.InspectionTemplate, error) {
	var out *models.InspectionTemplate
	err := r.s.view(func(st *state) error {
		template, ok := st.templates[id]
		if !ok {
			return &models.NotFoundError{Entity: "template", ID: id}
		}
		out = copyTemplate(template)
		return nil
	})
	return out, err
}

func (r *templateRepository) GetForUpdate(ctx context.Context, id int64) (*models.InspectionTemplate, error) {
	return r.GetByID(ctx, id)
}

func (r *templateRepository) ListActive(ctx context.Context) ([]*models.InspectionTemplate, error) {
	var out []*models.InspectionTemplate
	err := r.s.view(func(st *state) error {
		for _, template := range st.templates {
			if template.Active {
				out = append(out, copyTemplate(template))
			}
		}
		return nil
	})
	sortByID(out, func(t *models.InspectionTemplate) int64 { return t.ID })
	return out, err
}
