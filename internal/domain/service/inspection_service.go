package service

import (
	"context"
	"fmt"
	"time"

	"github.com/hsdfat8/drivetrack/internal/domain/models"
	"github.com/hsdfat8/drivetrack/internal/domain/ports"
	"github.com/hsdfat8/drivetrack/internal/logger"
)

// inspectionService implements the InspectionService interface
type inspectionService struct {
	db        ports.DatabaseAdapter
	users     ports.UserDirectory
	equipment ports.EquipmentLookup
	options
}

// NewInspectionService creates a new inspection engine instance
func NewInspectionService(
	db ports.DatabaseAdapter,
	users ports.UserDirectory,
	equipment ports.EquipmentLookup,
	opts ...Option,
) ports.InspectionService {
	return &inspectionService{
		db:        db,
		users:     users,
		equipment: equipment,
		options:   newOptions(opts),
	}
}

// RecordSubTaskResult records an answer on a sub-task.
// Terminal inspections only accept it as a correction by an editor.
func (s *inspectionService) RecordSubTaskResult(ctx context.Context, req *ports.RecordSubTaskResultRequest) (*models.SubTask, error) {
	if req == nil || req.SubTaskID <= 0 || req.ActorID <= 0 {
		return nil, models.NewValidationError("request", "sub_task_id and actor are required")
	}
	s.getLogger().Infow("RecordSubTaskResult started", "sub_task_id", req.SubTaskID, "kind", req.Kind, "actor_id", req.ActorID, "correction", req.Correction)

	var (
		updated *models.SubTask
		class   models.Classification
	)
	err := runInTx(ctx, s.db, "record_sub_task_result", func(tx ports.Transaction, hooks *txHooks) error {
		st, inspection, err := s.lockSubTask(ctx, tx, req.SubTaskID)
		if err != nil {
			return err
		}

		changeType := models.ChangeTypeSubTask
		if inspection.Status.IsTerminal() {
			if err := s.authorizeCorrection(ctx, inspection, req); err != nil {
				return err
			}
			changeType = models.ChangeTypeCorrection
		}

		now := s.now()
		class, err = st.RecordResult(req.Kind, req.Value, req.Notes, req.ActorID, now)
		if err != nil {
			return err
		}
		if err := tx.GetSubTaskRepository().Update(ctx, st); err != nil {
			return persistErr("update sub-task", err)
		}
		if err := s.promote(ctx, tx, inspection, req.ActorID, now); err != nil {
			return err
		}
		details := fmt.Sprintf("sub-task %d %q recorded %s, status %s", st.ID, st.Name, class, st.Status)
		if err := recordHistory(ctx, tx, &models.InspectionHistory{
			InspectionID: inspection.ID,
			ChangeType:   changeType,
			ChangedAt:    now,
			ChangedBy:    req.ActorID,
			NewStatus:    inspection.Status,
			Details:      &details,
		}); err != nil {
			return err
		}
		hooks.refreshRollup(inspection.ID)
		updated = st
		return nil
	})
	if err != nil {
		s.logFailure("RecordSubTaskResult", err, "sub_task_id", req.SubTaskID)
		return nil, err
	}

	logger.ResultsRecordedTotal.WithLabelValues(string(req.Kind), string(class)).Inc()
	s.getLogger().Infow("RecordSubTaskResult completed", "sub_task_id", updated.ID, "classification", class, "status", updated.Status)
	return updated, nil
}

// ToggleSubTaskStatus flips a sub-task between pending and completed
func (s *inspectionService) ToggleSubTaskStatus(ctx context.Context, subTaskID, actorID int64) (*models.SubTask, error) {
	if subTaskID <= 0 || actorID <= 0 {
		return nil, models.NewValidationError("request", "sub_task_id and actor are required")
	}
	s.getLogger().Infow("ToggleSubTaskStatus started", "sub_task_id", subTaskID, "actor_id", actorID)

	var updated *models.SubTask
	err := runInTx(ctx, s.db, "toggle_sub_task", func(tx ports.Transaction, hooks *txHooks) error {
		st, inspection, err := s.lockSubTask(ctx, tx, subTaskID)
		if err != nil {
			return err
		}
		if err := inspection.EnsureEditable("toggle sub-task on"); err != nil {
			return err
		}

		now := s.now()
		if err := st.Toggle(actorID, now); err != nil {
			return err
		}
		if err := tx.GetSubTaskRepository().Update(ctx, st); err != nil {
			return persistErr("update sub-task", err)
		}
		if st.IsCompleted() {
			if err := s.promote(ctx, tx, inspection, actorID, now); err != nil {
				return err
			}
		}
		details := fmt.Sprintf("sub-task %d %q toggled to %s", st.ID, st.Name, st.Status)
		if err := recordHistory(ctx, tx, &models.InspectionHistory{
			InspectionID: inspection.ID,
			ChangeType:   models.ChangeTypeSubTask,
			ChangedAt:    now,
			ChangedBy:    actorID,
			NewStatus:    inspection.Status,
			Details:      &details,
		}); err != nil {
			return err
		}
		hooks.refreshRollup(inspection.ID)
		updated = st
		return nil
	})
	if err != nil {
		s.logFailure("ToggleSubTaskStatus", err, "sub_task_id", subTaskID)
		return nil, err
	}

	s.getLogger().Infow("ToggleSubTaskStatus completed", "sub_task_id", updated.ID, "status", updated.Status)
	return updated, nil
}

// RecordTaskResult appends a result to a task and refreshes the rollup
func (s *inspectionService) RecordTaskResult(ctx context.Context, req *ports.RecordTaskResultRequest) (*models.Result, error) {
	if req == nil || req.TaskID <= 0 || req.ActorID <= 0 {
		return nil, models.NewValidationError("request", "task_id and actor are required")
	}
	s.getLogger().Infow("RecordTaskResult started", "task_id", req.TaskID, "actor_id", req.ActorID)

	var (
		result *models.Result
		kind   models.ValidationKind
		class  models.Classification
	)
	err := runInTx(ctx, s.db, "record_task_result", func(tx ports.Transaction, hooks *txHooks) error {
		task, err := tx.GetTaskRepository().GetByID(ctx, req.TaskID)
		if err != nil {
			return persistErr("load task", err)
		}
		inspection, err := tx.GetInspectionRepository().GetForUpdate(ctx, task.InspectionID)
		if err != nil {
			return persistErr("lock inspection", err)
		}
		if err := inspection.EnsureEditable("record a task result on"); err != nil {
			return err
		}
		if err := loadTask(ctx, tx, task); err != nil {
			return err
		}
		if err := task.CheckGate(); err != nil {
			logger.GatedRejectionsTotal.Inc()
			return err
		}

		if err := task.CheckConfigured(); err != nil {
			return err
		}

		kind = task.Expectation.Kind
		if err := models.ValidateMeasurement(kind, req.Value); err != nil {
			return err
		}
		now := s.now()
		value := req.Value.ForKind(kind)
		class = models.Evaluate(task.Expectation, value)
		result = &models.Result{
			InspectionID: inspection.ID,
			TaskID:       task.ID,
			PerformedBy:  req.ActorID,
			Recorded:     value,
			IsPassing:    class == models.ClassificationPassing,
			Notes:        req.Notes,
			RecordedAt:   now,
		}
		if err := tx.GetResultRepository().Append(ctx, result); err != nil {
			return persistErr("append result", err)
		}
		if err := s.promote(ctx, tx, inspection, req.ActorID, now); err != nil {
			return err
		}
		details := fmt.Sprintf("task %d %q result passing=%t", task.ID, task.Name, result.IsPassing)
		if err := recordHistory(ctx, tx, &models.InspectionHistory{
			InspectionID: inspection.ID,
			ChangeType:   models.ChangeTypeResult,
			ChangedAt:    now,
			ChangedBy:    req.ActorID,
			NewStatus:    inspection.Status,
			Details:      &details,
		}); err != nil {
			return err
		}
		hooks.refreshRollup(inspection.ID)
		return nil
	})
	if err != nil {
		s.logFailure("RecordTaskResult", err, "task_id", req.TaskID)
		return nil, err
	}

	logger.ResultsRecordedTotal.WithLabelValues(string(kind), string(class)).Inc()
	s.getLogger().Infow("RecordTaskResult completed", "task_id", result.TaskID, "result_id", result.ID, "is_passing", result.IsPassing)
	return result, nil
}

// CompleteInspection closes an active inspection. The outcome is failed when any
// required task's latest result is failing.
func (s *inspectionService) CompleteInspection(ctx context.Context, inspectionID, actorID int64) (*models.Inspection, error) {
	if inspectionID <= 0 || actorID <= 0 {
		return nil, models.NewValidationError("request", "inspection_id and actor are required")
	}
	s.getLogger().Infow("CompleteInspection started", "inspection_id", inspectionID, "actor_id", actorID)

	var completed *models.Inspection
	err := runInTx(ctx, s.db, "complete_inspection", func(tx ports.Transaction, hooks *txHooks) error {
		inspection, err := tx.GetInspectionRepository().GetForUpdate(ctx, inspectionID)
		if err != nil {
			return persistErr("lock inspection", err)
		}
		if inspection.Status != models.InspectionStatusActive {
			return &models.StateConflictError{Entity: "inspection", ID: inspection.ID, State: string(inspection.Status), Operation: "complete"}
		}
		tasks, err := loadTaskTree(ctx, tx, inspection.ID)
		if err != nil {
			return err
		}
		log, err := tx.GetResultRepository().ListByInspection(ctx, inspection.ID)
		if err != nil {
			return persistErr("load results", err)
		}
		latest := log.Latest()
		outcome, err := models.CompletionOutcome(inspection.ID, tasks, latest)
		if err != nil {
			return err
		}

		now := s.now()
		previous := inspection.Status
		if err := inspection.TransitionTo(outcome, now); err != nil {
			return err
		}
		inspection.CompletedBy = &actorID
		inspection.CompletedDate = &now
		inspection.Rollup = models.ComputeRollup(tasks, latest)
		if err := tx.GetInspectionRepository().Update(ctx, inspection); err != nil {
			return persistErr("update inspection", err)
		}
		if err := recordHistory(ctx, tx, &models.InspectionHistory{
			InspectionID:   inspection.ID,
			ChangeType:     models.ChangeTypeTransition,
			ChangedAt:      now,
			ChangedBy:      actorID,
			PreviousStatus: &previous,
			NewStatus:      inspection.Status,
		}); err != nil {
			return err
		}
		completed = inspection
		return nil
	})
	if err != nil {
		logger.InspectionCompletionsTotal.WithLabelValues("rejected").Inc()
		s.logFailure("CompleteInspection", err, "inspection_id", inspectionID)
		return nil, err
	}

	logger.InspectionCompletionsTotal.WithLabelValues(string(completed.Status)).Inc()
	s.getLogger().Infow("CompleteInspection completed", "inspection_id", completed.ID, "status", completed.Status)
	return completed, nil
}

// CreateInspection creates an ad hoc draft inspection with its task tree
func (s *inspectionService) CreateInspection(ctx context.Context, req *ports.CreateInspectionRequest) (*ports.InspectionDetail, error) {
	if req == nil || req.ActorID <= 0 {
		return nil, models.NewValidationError("actor", "is required")
	}
	if req.Title == "" {
		return nil, models.NewValidationError("title", "is required")
	}
	for _, task := range req.Tasks {
		if err := task.Validate(); err != nil {
			return nil, err
		}
		if task.Target != nil {
			if err := s.ensureTargetExists(ctx, *task.Target); err != nil {
				return nil, err
			}
		}
	}
	s.getLogger().Infow("CreateInspection started", "title", req.Title, "tasks", len(req.Tasks), "actor_id", req.ActorID)

	scheduled := req.ScheduledDate
	if scheduled.IsZero() {
		scheduled = s.now()
	}
	var inspectionID int64
	err := runInTx(ctx, s.db, "create_inspection", func(tx ports.Transaction, hooks *txHooks) error {
		now := s.now()
		inspection := &models.Inspection{
			Title:         req.Title,
			Status:        models.InspectionStatusDraft,
			ScheduledBy:   &req.ActorID,
			AssignedTo:    req.AssignedTo,
			ScheduledDate: models.DateOf(scheduled),
			Notes:         req.Notes,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := tx.GetInspectionRepository().Create(ctx, inspection); err != nil {
			return persistErr("create inspection", err)
		}
		for i, task := range req.Tasks {
			if task.Position == 0 {
				task.Position = i
			}
			task.CreatedAt = now
			for j, st := range task.SubTasks {
				st.Status = models.SubTaskStatusPending
				st.Recorded = models.Measurement{}
				st.UpdatedAt = now
				if st.Position == 0 {
					st.Position = j
				}
			}
		}
		if err := createTaskTree(ctx, tx, inspection.ID, req.Tasks); err != nil {
			return err
		}
		if err := recordHistory(ctx, tx, &models.InspectionHistory{
			InspectionID: inspection.ID,
			ChangeType:   models.ChangeTypeCreate,
			ChangedAt:    now,
			ChangedBy:    req.ActorID,
			NewStatus:    inspection.Status,
		}); err != nil {
			return err
		}
		hooks.refreshRollup(inspection.ID)
		inspectionID = inspection.ID
		return nil
	})
	if err != nil {
		s.logFailure("CreateInspection", err, "title", req.Title)
		return nil, err
	}

	s.getLogger().Infow("CreateInspection completed", "inspection_id", inspectionID)
	return s.GetInspectionDetail(ctx, inspectionID)
}

// PublishInspection moves a draft to pending so operators can see it
func (s *inspectionService) PublishInspection(ctx context.Context, inspectionID, actorID int64) (*models.Inspection, error) {
	return s.transition(ctx, "publish_inspection", inspectionID, actorID, models.InspectionStatusPending)
}

// ArchiveInspection flags a completed or failed inspection for retention
func (s *inspectionService) ArchiveInspection(ctx context.Context, inspectionID, actorID int64) (*models.Inspection, error) {
	return s.transition(ctx, "archive_inspection", inspectionID, actorID, models.InspectionStatusArchived)
}

func (s *inspectionService) transition(ctx context.Context, operation string, inspectionID, actorID int64, target models.InspectionStatus) (*models.Inspection, error) {
	if inspectionID <= 0 || actorID <= 0 {
		return nil, models.NewValidationError("request", "inspection_id and actor are required")
	}
	var updated *models.Inspection
	err := runInTx(ctx, s.db, operation, func(tx ports.Transaction, hooks *txHooks) error {
		inspection, err := tx.GetInspectionRepository().GetForUpdate(ctx, inspectionID)
		if err != nil {
			return persistErr("lock inspection", err)
		}
		now := s.now()
		previous := inspection.Status
		if err := inspection.TransitionTo(target, now); err != nil {
			return err
		}
		if err := tx.GetInspectionRepository().Update(ctx, inspection); err != nil {
			return persistErr("update inspection", err)
		}
		if err := recordHistory(ctx, tx, &models.InspectionHistory{
			InspectionID:   inspection.ID,
			ChangeType:     models.ChangeTypeTransition,
			ChangedAt:      now,
			ChangedBy:      actorID,
			PreviousStatus: &previous,
			NewStatus:      target,
		}); err != nil {
			return err
		}
		updated = inspection
		return nil
	})
	if err != nil {
		s.logFailure(operation, err, "inspection_id", inspectionID, "target", target)
		return nil, err
	}
	s.getLogger().Infow("Inspection transitioned", "inspection_id", updated.ID, "status", updated.Status, "actor_id", actorID)
	return updated, nil
}

// RescheduleInspection moves the date or assignee of a non-terminal inspection
func (s *inspectionService) RescheduleInspection(ctx context.Context, req *ports.RescheduleRequest) (*models.Inspection, error) {
	if req == nil || req.InspectionID <= 0 || req.ActorID <= 0 {
		return nil, models.NewValidationError("request", "inspection_id and actor are required")
	}
	if req.ScheduledDate == nil && req.AssignedTo == nil {
		return nil, models.NewValidationError("request", "scheduled_date or assigned_to is required")
	}

	var updated *models.Inspection
	err := runInTx(ctx, s.db, "reschedule_inspection", func(tx ports.Transaction, hooks *txHooks) error {
		inspection, err := tx.GetInspectionRepository().GetForUpdate(ctx, req.InspectionID)
		if err != nil {
			return persistErr("lock inspection", err)
		}
		if err := inspection.EnsureEditable("reschedule"); err != nil {
			return err
		}
		now := s.now()
		if req.ScheduledDate != nil {
			inspection.ScheduledDate = models.DateOf(*req.ScheduledDate)
		}
		if req.AssignedTo != nil {
			inspection.AssignedTo = req.AssignedTo
		}
		inspection.UpdatedAt = now
		if err := tx.GetInspectionRepository().Update(ctx, inspection); err != nil {
			return persistErr("update inspection", err)
		}
		details := fmt.Sprintf("scheduled %s", inspection.ScheduledDate.Format("2006-01-02"))
		if inspection.AssignedTo != nil {
			details += fmt.Sprintf(", assigned to %d", *inspection.AssignedTo)
		}
		if err := recordHistory(ctx, tx, &models.InspectionHistory{
			InspectionID: inspection.ID,
			ChangeType:   models.ChangeTypeSchedule,
			ChangedAt:    now,
			ChangedBy:    req.ActorID,
			NewStatus:    inspection.Status,
			Details:      &details,
		}); err != nil {
			return err
		}
		updated = inspection
		return nil
	})
	if err != nil {
		s.logFailure("RescheduleInspection", err, "inspection_id", req.InspectionID)
		return nil, err
	}
	return updated, nil
}

// GetInspectionDetail reads the inspection tree from a consistent snapshot.
// Targets that no longer exist are flagged rather than failing the read.
func (s *inspectionService) GetInspectionDetail(ctx context.Context, inspectionID int64) (*ports.InspectionDetail, error) {
	var detail *ports.InspectionDetail
	err := runReadOnly(ctx, s.db, "get_inspection_detail", func(tx ports.Transaction) error {
		inspection, err := tx.GetInspectionRepository().GetByID(ctx, inspectionID)
		if err != nil {
			return persistErr("load inspection", err)
		}
		tasks, err := loadTaskTree(ctx, tx, inspectionID)
		if err != nil {
			return err
		}
		log, err := tx.GetResultRepository().ListByInspection(ctx, inspectionID)
		if err != nil {
			return persistErr("load results", err)
		}
		history, err := tx.GetHistoryRepository().GetHistoryByInspection(ctx, inspectionID, 0, 0)
		if err != nil {
			return persistErr("load history", err)
		}

		latest := log.Latest()
		detail = &ports.InspectionDetail{Inspection: inspection, History: history}
		for _, task := range tasks {
			td := &ports.TaskDetail{
				Task:    task,
				Latest:  latest[task.ID],
				Results: log.ForTask(task.ID),
			}
			for _, st := range task.SubTasks {
				td.SubTasks = append(td.SubTasks, &ports.SubTaskDetail{SubTask: st, Compliance: st.Compliance()})
			}
			if task.Target != nil {
				equipment, found, err := s.equipment.Lookup(ctx, *task.Target)
				if err != nil {
					return persistErr("resolve target", err)
				}
				if found {
					td.Target = equipment
				} else {
					td.TargetMissing = true
					s.getLogger().Debugw("Task target no longer exists", "task_id", task.ID, "target", task.Target.String())
				}
			}
			detail.Tasks = append(detail.Tasks, td)
		}
		return nil
	})
	if err != nil {
		s.logFailure("GetInspectionDetail", err, "inspection_id", inspectionID)
		return nil, err
	}
	return detail, nil
}

// lockSubTask resolves the owning inspection, locks it, then re-reads the sub-task under the lock
func (s *inspectionService) lockSubTask(ctx context.Context, tx ports.Transaction, subTaskID int64) (*models.SubTask, *models.Inspection, error) {
	st, err := tx.GetSubTaskRepository().GetByID(ctx, subTaskID)
	if err != nil {
		return nil, nil, persistErr("load sub-task", err)
	}
	task, err := tx.GetTaskRepository().GetByID(ctx, st.TaskID)
	if err != nil {
		return nil, nil, persistErr("load task", err)
	}
	inspection, err := tx.GetInspectionRepository().GetForUpdate(ctx, task.InspectionID)
	if err != nil {
		return nil, nil, persistErr("lock inspection", err)
	}
	st, err = tx.GetSubTaskRepository().GetByID(ctx, subTaskID)
	if err != nil {
		return nil, nil, persistErr("reload sub-task", err)
	}
	return st, inspection, nil
}

// authorizeCorrection allows a sub-task edit on a completed or failed inspection only
// through the explicit editor flow
func (s *inspectionService) authorizeCorrection(ctx context.Context, inspection *models.Inspection, req *ports.RecordSubTaskResultRequest) error {
	if !req.Correction || inspection.Status == models.InspectionStatusArchived {
		return inspection.EnsureEditable("record a sub-task result on")
	}
	user, err := s.users.GetUser(ctx, req.ActorID)
	if err != nil {
		return persistErr("resolve actor", err)
	}
	if !user.CanEditCompleted() {
		return &models.StateConflictError{
			Entity:    "inspection",
			ID:        inspection.ID,
			State:     string(inspection.Status),
			Operation: fmt.Sprintf("correct sub-task as %s", user.Role),
		}
	}
	return nil
}

// promote moves a draft or pending inspection to active on its first recorded answer
func (s *inspectionService) promote(ctx context.Context, tx ports.Transaction, inspection *models.Inspection, actorID int64, now time.Time) error {
	previous := inspection.Status
	if !inspection.PromoteOnFirstResult(now) {
		return nil
	}
	if err := tx.GetInspectionRepository().Update(ctx, inspection); err != nil {
		return persistErr("promote inspection", err)
	}
	return recordHistory(ctx, tx, &models.InspectionHistory{
		InspectionID:   inspection.ID,
		ChangeType:     models.ChangeTypeTransition,
		ChangedAt:      now,
		ChangedBy:      actorID,
		PreviousStatus: statusPtr(previous),
		NewStatus:      inspection.Status,
		Details:        stringPtr("first result recorded"),
	})
}

func (s *inspectionService) ensureTargetExists(ctx context.Context, ref models.TargetRef) error {
	_, found, err := s.equipment.Lookup(ctx, ref)
	if err != nil {
		return persistErr("resolve target", err)
	}
	if !found {
		return models.NewValidationError("target", fmt.Sprintf("%s does not exist", ref.String()))
	}
	return nil
}

// logFailure logs validation and state errors as warnings and everything else as errors
func (s *inspectionService) logFailure(operation string, err error, keysAndValues ...any) {
	logFailure(s.getLogger(), operation, err, keysAndValues...)
}

// createTaskTree inserts tasks and their sub-tasks under an inspection
func createTaskTree(ctx context.Context, tx ports.Transaction, inspectionID int64, tasks []*models.Task) error {
	for _, task := range tasks {
		task.InspectionID = inspectionID
		if err := tx.GetTaskRepository().Create(ctx, task); err != nil {
			return persistErr("create task", err)
		}
		for _, st := range task.SubTasks {
			st.TaskID = task.ID
			if err := tx.GetSubTaskRepository().Create(ctx, st); err != nil {
				return persistErr("create sub-task", err)
			}
		}
	}
	return nil
}
