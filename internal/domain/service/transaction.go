package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/hsdfat8/drivetrack/internal/domain/models"
	"github.com/hsdfat8/drivetrack/internal/domain/ports"
	"github.com/hsdfat8/drivetrack/internal/logger"
)

// txHooks collects work the transaction boundary runs after the mutation and before commit
type txHooks struct {
	rollups []int64
}

// refreshRollup schedules a rollup recompute for an inspection
func (h *txHooks) refreshRollup(inspectionID int64) {
	for _, id := range h.rollups {
		if id == inspectionID {
			return
		}
	}
	h.rollups = append(h.rollups, inspectionID)
}

// runInTx runs fn in a read-write transaction, then the registered rollup hooks, then commits.
// Any error rolls everything back.
func runInTx(ctx context.Context, db ports.DatabaseAdapter, operation string, fn func(tx ports.Transaction, hooks *txHooks) error) error {
	start := time.Now()
	status := "ok"
	defer func() {
		logger.TransactionDuration.WithLabelValues(operation, status).Observe(time.Since(start).Seconds())
	}()

	tx, err := db.BeginTransaction(ctx)
	if err != nil {
		status = "error"
		return &models.PersistenceError{Op: "begin " + operation, Err: err}
	}
	defer tx.Rollback(ctx)

	hooks := &txHooks{}
	if err := fn(tx, hooks); err != nil {
		status = "rejected"
		return err
	}
	for _, id := range hooks.rollups {
		if err := refreshRollup(ctx, tx, id); err != nil {
			status = "error"
			return err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		status = "error"
		return &models.PersistenceError{Op: "commit " + operation, Err: err}
	}
	return nil
}

// runReadOnly runs fn against a consistent snapshot without taking write locks
func runReadOnly(ctx context.Context, db ports.DatabaseAdapter, operation string, fn func(tx ports.Transaction) error) error {
	tx, err := db.BeginReadOnly(ctx)
	if err != nil {
		return &models.PersistenceError{Op: "begin " + operation, Err: err}
	}
	defer tx.Rollback(ctx)
	return fn(tx)
}

// refreshRollup recomputes the derived counters of an inspection. It never changes status.
func refreshRollup(ctx context.Context, tx ports.Transaction, inspectionID int64) error {
	inspection, err := tx.GetInspectionRepository().GetForUpdate(ctx, inspectionID)
	if err != nil {
		return persistErr("load inspection for rollup", err)
	}
	tasks, err := loadTaskTree(ctx, tx, inspectionID)
	if err != nil {
		return err
	}
	log, err := tx.GetResultRepository().ListByInspection(ctx, inspectionID)
	if err != nil {
		return persistErr("load results for rollup", err)
	}
	inspection.Rollup = models.ComputeRollup(tasks, log.Latest())
	if err := tx.GetInspectionRepository().Update(ctx, inspection); err != nil {
		return persistErr("update rollup", err)
	}
	return nil
}

// loadTaskTree assembles an inspection's tasks with their sub-tasks attached
func loadTaskTree(ctx context.Context, tx ports.Transaction, inspectionID int64) ([]*models.Task, error) {
	tasks, err := tx.GetTaskRepository().ListByInspection(ctx, inspectionID)
	if err != nil {
		return nil, persistErr("load tasks", err)
	}
	subTasks, err := tx.GetSubTaskRepository().ListByInspection(ctx, inspectionID)
	if err != nil {
		return nil, persistErr("load sub-tasks", err)
	}
	byTask := make(map[int64][]*models.SubTask, len(tasks))
	for _, st := range subTasks {
		byTask[st.TaskID] = append(byTask[st.TaskID], st)
	}
	for _, t := range tasks {
		t.SubTasks = models.SortSubTasks(byTask[t.ID])
	}
	return models.SortTasks(tasks), nil
}

// loadTask loads one task with its sub-tasks
func loadTask(ctx context.Context, tx ports.Transaction, task *models.Task) error {
	subTasks, err := tx.GetSubTaskRepository().ListByInspection(ctx, task.InspectionID)
	if err != nil {
		return persistErr("load sub-tasks", err)
	}
	var own []*models.SubTask
	for _, st := range subTasks {
		if st.TaskID == task.ID {
			own = append(own, st)
		}
	}
	task.SubTasks = models.SortSubTasks(own)
	return nil
}

func recordHistory(ctx context.Context, tx ports.Transaction, entry *models.InspectionHistory) error {
	if err := tx.GetHistoryRepository().RecordChange(ctx, entry); err != nil {
		return persistErr("record history", err)
	}
	return nil
}

// persistErr classifies a repository error. Domain errors pass through unchanged.
func persistErr(op string, err error) error {
	if errors.Is(err, models.ErrNotFound) || errors.Is(err, models.ErrValidation) || errors.Is(err, models.ErrStateConflict) {
		return err
	}
	return &models.PersistenceError{Op: op, Err: err}
}

func statusPtr(s models.InspectionStatus) *models.InspectionStatus { return &s }

func stringPtr(s string) *string { return &s }

func sortPerformance(list []*models.OperatorPerformance) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].PerformanceScore != list[j].PerformanceScore {
			return list[i].PerformanceScore < list[j].PerformanceScore
		}
		return list[i].UserID < list[j].UserID
	})
}

func logFailure(l logger.Logger, operation string, err error, keysAndValues ...any) {
	args := append([]any{"error", err}, keysAndValues...)
	if errors.Is(err, models.ErrPersistence) {
		l.Errorw(operation+" failed", args...)
		return
	}
	l.Warnw(operation+" rejected", args...)
}
