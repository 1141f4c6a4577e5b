package service

import (
	"context"
	"time"

	"github.com/hsdfat8/drivetrack/internal/domain/models"
	"github.com/hsdfat8/drivetrack/internal/domain/ports"
	"github.com/hsdfat8/drivetrack/internal/logger"
)

// performanceService implements the PerformanceService interface
type performanceService struct {
	db    ports.DatabaseAdapter
	store ports.PerformanceRepository
	users ports.UserDirectory
	cache ports.AttentionCache // Optional
	options
}

// NewPerformanceService creates a new operator performance aggregator.
// cache may be nil.
func NewPerformanceService(
	db ports.DatabaseAdapter,
	store ports.PerformanceRepository,
	users ports.UserDirectory,
	cache ports.AttentionCache,
	opts ...Option,
) ports.PerformanceService {
	return &performanceService{
		db:      db,
		store:   store,
		users:   users,
		cache:   cache,
		options: newOptions(opts),
	}
}

// ComputeOperatorPerformance recomputes one user's snapshot from source history and stores it.
// The read runs on a read-only snapshot so live recording is never blocked.
func (s *performanceService) ComputeOperatorPerformance(ctx context.Context, userID int64, windowDays int) (*models.OperatorPerformance, error) {
	if userID <= 0 {
		return nil, models.NewValidationError("user_id", "must be positive")
	}
	if windowDays < 0 {
		return nil, models.NewValidationError("window", "must not be negative")
	}
	if windowDays == 0 {
		windowDays = s.windowDays
	}
	if _, err := s.users.GetUser(ctx, userID); err != nil {
		return nil, persistErr("resolve user", err)
	}

	snapshot, err := s.compute(ctx, userID, windowDays, s.now())
	if err != nil {
		logFailure(s.getLogger(), "ComputeOperatorPerformance", err, "user_id", userID)
		return nil, err
	}
	if err := s.store.Upsert(ctx, snapshot); err != nil {
		s.getLogger().Errorw("Failed to store performance snapshot", "user_id", userID, "error", err)
		return nil, persistErr("store performance snapshot", err)
	}
	s.invalidateAttention(ctx)

	s.getLogger().Infow("Operator performance computed",
		"user_id", userID,
		"window_days", windowDays,
		"score", snapshot.PerformanceScore,
		"status", snapshot.Status,
	)
	return snapshot, nil
}

// RunPerformanceBatch recomputes every operator and drops the cached attention list
func (s *performanceService) RunPerformanceBatch(ctx context.Context, windowDays int) ([]*models.OperatorPerformance, error) {
	operators, err := s.users.ListOperators(ctx)
	if err != nil {
		s.getLogger().Errorw("Failed to list operators", "error", err)
		return nil, persistErr("list operators", err)
	}
	s.getLogger().Infow("RunPerformanceBatch started", "operators", len(operators), "window_days", windowDays)

	// one clock reading for the whole batch keeps every snapshot on the same period
	now := s.now()
	if windowDays <= 0 {
		windowDays = s.windowDays
	}

	byStatus := map[models.PerformanceStatus]int{}
	snapshots := make([]*models.OperatorPerformance, 0, len(operators))
	for _, op := range operators {
		snapshot, err := s.compute(ctx, op.ID, windowDays, now)
		if err != nil {
			logFailure(s.getLogger(), "RunPerformanceBatch", err, "user_id", op.ID)
			return nil, err
		}
		if err := s.store.Upsert(ctx, snapshot); err != nil {
			s.getLogger().Errorw("Failed to store performance snapshot", "user_id", op.ID, "error", err)
			return nil, persistErr("store performance snapshot", err)
		}
		byStatus[snapshot.Status]++
		snapshots = append(snapshots, snapshot)
	}

	for _, status := range []models.PerformanceStatus{models.PerformanceActive, models.PerformanceWarning, models.PerformanceCritical, models.PerformanceInactive} {
		logger.OperatorsByStatus.WithLabelValues(string(status)).Set(float64(byStatus[status]))
	}
	s.invalidateAttention(ctx)

	s.getLogger().Infow("RunPerformanceBatch completed", "snapshots", len(snapshots), "warning", byStatus[models.PerformanceWarning],
		"critical", byStatus[models.PerformanceCritical], "inactive", byStatus[models.PerformanceInactive])
	return snapshots, nil
}

// invalidateAttention drops the cached attention list after a snapshot write.
// Cache errors are logged only; the store stays authoritative.
func (s *performanceService) invalidateAttention(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.getLogger().Warnw("Failed to invalidate attention cache", "error", err)
	}
}

// GetUsersNeedingAttention returns the most recent snapshot of every user whose status is
// warning, critical or inactive, lowest score first
func (s *performanceService) GetUsersNeedingAttention(ctx context.Context) ([]*models.OperatorPerformance, error) {
	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx)
		switch {
		case err != nil:
			s.getLogger().Warnw("Attention cache read failed", "error", err)
		case ok:
			logger.CacheHitTotal.WithLabelValues("hit").Inc()
			return cached, nil
		default:
			logger.CacheHitTotal.WithLabelValues("miss").Inc()
		}
	}

	latest, err := s.store.ListLatest(ctx)
	if err != nil {
		s.getLogger().Errorw("Failed to list performance snapshots", "error", err)
		return nil, persistErr("list performance snapshots", err)
	}
	attention := make([]*models.OperatorPerformance, 0)
	for _, snapshot := range latest {
		if snapshot.Status.NeedsAttention() {
			attention = append(attention, snapshot)
		}
	}
	sortPerformance(attention)

	if s.cache != nil {
		if err := s.cache.Set(ctx, attention); err != nil {
			s.getLogger().Warnw("Attention cache write failed", "error", err)
		}
	}
	return attention, nil
}

// compute collects the raw counts for one user over [now-windowDays, now]
func (s *performanceService) compute(ctx context.Context, userID int64, windowDays int, now time.Time) (*models.OperatorPerformance, error) {
	start := now.AddDate(0, 0, -windowDays)
	in := models.PerformanceInput{
		UserID:         userID,
		PeriodStart:    start,
		PeriodEnd:      now,
		InactivityDays: s.inactivityDays,
	}

	err := runReadOnly(ctx, s.db, "compute_performance", func(tx ports.Transaction) error {
		inspections, err := tx.GetInspectionRepository().ListAssignedBetween(ctx, userID, start, now)
		if err != nil {
			return persistErr("list assigned inspections", err)
		}
		for _, inspection := range inspections {
			if inspection.Status == models.InspectionStatusDraft {
				continue
			}
			in.Assigned++
			switch closedOutcome(inspection) {
			case models.InspectionStatusCompleted:
				in.Completed++
			case models.InspectionStatusFailed:
				in.Failed++
			default:
				in.Pending++
			}
			if inspection.CompletedBy != nil && *inspection.CompletedBy == userID && inspection.CompletedDate != nil {
				in.LastActivity = latestOf(in.LastActivity, *inspection.CompletedDate)
			}
		}

		results, err := tx.GetResultRepository().ListByPerformerBetween(ctx, userID, start, now)
		if err != nil {
			return persistErr("list results", err)
		}
		// the current answer per inspection and task counts once
		type key struct{ inspection, task int64 }
		current := map[key]*models.Result{}
		for _, r := range results.Sorted() {
			current[key{r.InspectionID, r.TaskID}] = r
		}
		for _, r := range current {
			in.TotalResults++
			if r.IsPassing {
				in.PassingResults++
			}
		}

		last, err := tx.GetResultRepository().LastRecordedBy(ctx, userID)
		if err != nil {
			return persistErr("last activity", err)
		}
		if last != nil && !last.After(now) {
			in.LastActivity = latestOf(in.LastActivity, *last)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return models.ScorePerformance(in), nil
}

// closedOutcome returns completed or failed for a closed inspection, including archived
// ones, whose outcome is read back from the final rollup
func closedOutcome(inspection *models.Inspection) models.InspectionStatus {
	switch inspection.Status {
	case models.InspectionStatusCompleted, models.InspectionStatusFailed:
		return inspection.Status
	case models.InspectionStatusArchived:
		if inspection.Rollup.RequiredPassing < inspection.Rollup.RequiredTasks {
			return models.InspectionStatusFailed
		}
		return models.InspectionStatusCompleted
	}
	return inspection.Status
}

func latestOf(current *time.Time, candidate time.Time) *time.Time {
	if current == nil || candidate.After(*current) {
		return &candidate
	}
	return current
}
