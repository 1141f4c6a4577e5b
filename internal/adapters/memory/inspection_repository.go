package memory

import (
	"context"
	"time"

	"github.com/hsdfat8/drivetrack/internal/domain/models"
)

type inspectionRepository struct {
	s session
}

func (r *inspectionRepository) Create(ctx context.Context, inspection *models.Inspection) error {
	return r.s.update(func(st *state) error {
		inspection.ID = st.nextID("inspections")
		st.inspections[inspection.ID] = copyInspection(inspection)
		return nil
	})
}

func (r *inspectionRepository) CreateScheduled(ctx context.Context, inspection *models.Inspection) (bool, error) {
	inserted := false
	err := r.s.update(func(st *state) error {
		if inspection.TemplateID != nil {
			for _, existing := range st.inspections {
				if existing.TemplateID != nil && *existing.TemplateID == *inspection.TemplateID &&
					existing.ScheduledDate.Equal(inspection.ScheduledDate) {
					return nil
				}
			}
		}
		inspection.ID = st.nextID("inspections")
		st.inspections[inspection.ID] = copyInspection(inspection)
		inserted = true
		return nil
	})
	return inserted, err
}

func (r *inspectionRepository) GetByID(ctx context.Context, id int64) (*models.Inspection, error) {
	var out *models.Inspection
	err := r.s.view(func(st *state) error {
		inspection, ok := st.inspections[id]
		if !ok {
			return &models.NotFoundError{Entity: "inspection", ID: id}
		}
		out = copyInspection(inspection)
		return nil
	})
	return out, err
}

// GetForUpdate is GetByID; the open write transaction already excludes other writers
func (r *inspectionRepository) GetForUpdate(ctx context.Context, id int64) (*models.Inspection, error) {
	return r.GetByID(ctx, id)
}

func (r *inspectionRepository) Update(ctx context.Context, inspection *models.Inspection) error {
	return r.s.update(func(st *state) error {
		if _, ok := st.inspections[inspection.ID]; !ok {
			return &models.NotFoundError{Entity: "inspection", ID: inspection.ID}
		}
		st.inspections[inspection.ID] = copyInspection(inspection)
		return nil
	})
}

func (r *inspectionRepository) CountByTemplate(ctx context.Context, templateID int64) (int, error) {
	count := 0
	err := r.s.view(func(st *state) error {
		for _, inspection := range st.inspections {
			if inspection.TemplateID != nil && *inspection.TemplateID == templateID {
				count++
			}
		}
		return nil
	})
	return count, err
}

func (r *inspectionRepository) ListAssignedBetween(ctx context.Context, userID int64, from, to time.Time) ([]*models.Inspection, error) {
	var out []*models.Inspection
	start := models.DateOf(from)
	err := r.s.view(func(st *state) error {
		for _, inspection := range st.inspections {
			if inspection.AssignedTo == nil || *inspection.AssignedTo != userID {
				continue
			}
			if inspection.ScheduledDate.Before(start) || inspection.ScheduledDate.After(to) {
				continue
			}
			out = append(out, copyInspection(inspection))
		}
		return nil
	})
	sortByID(out, func(i *models.Inspection) int64 { return i.ID })
	return out, err
}
