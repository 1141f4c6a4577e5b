package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hsdfat8/drivetrack/internal/domain/models"
	"github.com/hsdfat8/drivetrack/internal/domain/ports"
	"github.com/hsdfat8/drivetrack/internal/logger"
)

// schedulerService implements the SchedulerService interface
type schedulerService struct {
	db        ports.DatabaseAdapter
	equipment ports.EquipmentLookup
	options
}

// NewSchedulerService creates a new template scheduler
func NewSchedulerService(db ports.DatabaseAdapter, equipment ports.EquipmentLookup, opts ...Option) ports.SchedulerService {
	return &schedulerService{
		db:        db,
		equipment: equipment,
		options:   newOptions(opts),
	}
}

// CreateTemplate validates and stores a template with its blueprints
func (s *schedulerService) CreateTemplate(ctx context.Context, template *models.InspectionTemplate) (*models.InspectionTemplate, error) {
	if template == nil {
		return nil, models.NewValidationError("template", "is required")
	}
	if template.CreatedBy <= 0 {
		return nil, models.NewValidationError("created_by", "is required")
	}
	if err := template.Validate(); err != nil {
		return nil, err
	}
	for _, tt := range template.Tasks {
		if tt.Target == nil {
			continue
		}
		_, found, err := s.equipment.Lookup(ctx, *tt.Target)
		if err != nil {
			return nil, persistErr("resolve target", err)
		}
		if !found {
			return nil, models.NewValidationError("target", fmt.Sprintf("%s does not exist", tt.Target.String()))
		}
	}

	template.CreatedAt = s.now()
	for i, tt := range template.Tasks {
		tt.Expectation = tt.Expectation.Normalize()
		if tt.Position == 0 {
			tt.Position = i
		}
		for j, ts := range tt.SubTasks {
			ts.Expectation = ts.Expectation.Normalize()
			if ts.Position == 0 {
				ts.Position = j
			}
		}
	}

	err := runInTx(ctx, s.db, "create_template", func(tx ports.Transaction, hooks *txHooks) error {
		if err := tx.GetTemplateRepository().Create(ctx, template); err != nil {
			return persistErr("create template", err)
		}
		return nil
	})
	if err != nil {
		logFailure(s.getLogger(), "CreateTemplate", err, "name", template.Name)
		return nil, err
	}

	s.getLogger().Infow("Template created", "template_id", template.ID, "name", template.Name, "frequency", template.Frequency)
	return template, nil
}

// GenerateScheduledInspections spawns the instances due on asOf's calendar date.
// Running it again for the same date creates nothing.
func (s *schedulerService) GenerateScheduledInspections(ctx context.Context, asOf time.Time) (int, error) {
	date := models.DateOf(asOf)
	s.getLogger().Infow("GenerateScheduledInspections started", "date", date.Format("2006-01-02"))

	templates, err := s.db.GetTemplateRepository().ListActive(ctx)
	if err != nil {
		s.getLogger().Errorw("Failed to list active templates", "error", err)
		return 0, persistErr("list templates", err)
	}

	// a failing template is skipped so the others still get their instances
	created := 0
	var failures []error
	for _, candidate := range templates {
		if ctx.Err() != nil {
			failures = append(failures, ctx.Err())
			break
		}
		if !candidate.InWindow(date) {
			continue
		}
		spawned, err := s.spawn(ctx, candidate.ID, date)
		if err != nil {
			logFailure(s.getLogger(), "GenerateScheduledInspections", err, "template_id", candidate.ID)
			failures = append(failures, fmt.Errorf("template %d: %w", candidate.ID, err))
			continue
		}
		if spawned {
			created++
			logger.InspectionsGeneratedTotal.WithLabelValues(string(candidate.Frequency)).Inc()
		}
	}

	s.getLogger().Infow("GenerateScheduledInspections completed", "date", date.Format("2006-01-02"),
		"templates", len(templates), "created", created, "failed", len(failures))
	return created, errors.Join(failures...)
}

// spawn creates one instance of a template for date inside its own transaction
func (s *schedulerService) spawn(ctx context.Context, templateID int64, date time.Time) (bool, error) {
	spawned := false
	err := runInTx(ctx, s.db, "generate_inspection", func(tx ports.Transaction, hooks *txHooks) error {
		template, err := tx.GetTemplateRepository().GetForUpdate(ctx, templateID)
		if err != nil {
			return persistErr("lock template", err)
		}

		hasInstance := false
		if template.Frequency == models.FrequencyOneTime {
			count, err := tx.GetInspectionRepository().CountByTemplate(ctx, template.ID)
			if err != nil {
				return persistErr("count instances", err)
			}
			hasInstance = count > 0
		}
		if !template.IsDue(date, hasInstance) {
			return nil
		}

		now := s.now()
		inspection, tasks := template.Spawn(date, now)
		inserted, err := tx.GetInspectionRepository().CreateScheduled(ctx, inspection)
		if err != nil {
			return persistErr("create scheduled inspection", err)
		}
		if !inserted {
			s.getLogger().Debugw("Instance already exists", "template_id", template.ID, "date", date.Format("2006-01-02"))
			return nil
		}
		if err := createTaskTree(ctx, tx, inspection.ID, tasks); err != nil {
			return err
		}
		if err := recordHistory(ctx, tx, &models.InspectionHistory{
			InspectionID: inspection.ID,
			ChangeType:   models.ChangeTypeCreate,
			ChangedAt:    now,
			ChangedBy:    template.CreatedBy,
			NewStatus:    inspection.Status,
			Details:      stringPtr(fmt.Sprintf("generated from template %d", template.ID)),
		}); err != nil {
			return err
		}
		hooks.refreshRollup(inspection.ID)
		spawned = true
		return nil
	})
	return spawned, err
}
