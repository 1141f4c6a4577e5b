package postgres

import (
	"context"
	"fmt"

	"github.com/hsdfat8/drivetrack/internal/domain/models"
	"github.com/hsdfat8/drivetrack/internal/domain/ports"
)

// performanceRepository stores operator performance snapshots in PostgreSQL
type performanceRepository struct {
	db dbExecutor
}

// NewPerformanceRepository creates a new PostgreSQL performance snapshot repository
func NewPerformanceRepository(db dbExecutor) ports.PerformanceRepository {
	return &performanceRepository{db: db}
}

const performanceColumns = `id, user_id, period_start, period_end, assigned_inspections, completed_inspections,
		       failed_inspections, pending_inspections, completion_rate, pass_rate, performance_score,
		       status, notes, last_activity_at, computed_at`

// Upsert replaces the snapshot for the same user and period wholesale
func (r *performanceRepository) Upsert(ctx context.Context, snapshot *models.OperatorPerformance) error {
	query := `
		INSERT INTO operator_performance (
			user_id, period_start, period_end, assigned_inspections, completed_inspections,
			failed_inspections, pending_inspections, completion_rate, pass_rate, performance_score,
			status, notes, last_activity_at, computed_at
		) VALUES (
			:user_id, :period_start, :period_end, :assigned_inspections, :completed_inspections,
			:failed_inspections, :pending_inspections, :completion_rate, :pass_rate, :performance_score,
			:status, :notes, :last_activity_at, :computed_at
		)
		ON CONFLICT (user_id, period_start, period_end) DO UPDATE SET
			assigned_inspections = EXCLUDED.assigned_inspections,
			completed_inspections = EXCLUDED.completed_inspections,
			failed_inspections = EXCLUDED.failed_inspections,
			pending_inspections = EXCLUDED.pending_inspections,
			completion_rate = EXCLUDED.completion_rate,
			pass_rate = EXCLUDED.pass_rate,
			performance_score = EXCLUDED.performance_score,
			status = EXCLUDED.status,
			notes = EXCLUDED.notes,
			last_activity_at = EXCLUDED.last_activity_at,
			computed_at = EXCLUDED.computed_at
		RETURNING id
	`

	if err := insertReturningID(ctx, r.db, query, snapshot, &snapshot.ID); err != nil {
		return fmt.Errorf("failed to upsert performance snapshot: %w", err)
	}
	return nil
}

// GetLatest retrieves the snapshot with the latest period end for a user
func (r *performanceRepository) GetLatest(ctx context.Context, userID int64) (*models.OperatorPerformance, error) {
	query := `
		SELECT ` + performanceColumns + `
		FROM operator_performance
		WHERE user_id = $1
		ORDER BY period_end DESC, id DESC
		LIMIT 1
	`

	var snapshot models.OperatorPerformance
	if err := getOne(ctx, r.db, &snapshot, "performance snapshot for user", userID, query, userID); err != nil {
		return nil, err
	}
	normalizePerformance(&snapshot)
	return &snapshot, nil
}

// ListLatest retrieves the latest snapshot of every user
func (r *performanceRepository) ListLatest(ctx context.Context) ([]*models.OperatorPerformance, error) {
	query := `
		SELECT DISTINCT ON (user_id) ` + performanceColumns + `
		FROM operator_performance
		ORDER BY user_id, period_end DESC, id DESC
	`

	var snapshots []*models.OperatorPerformance
	if err := r.db.SelectContext(ctx, &snapshots, query); err != nil {
		return nil, fmt.Errorf("failed to list latest performance snapshots: %w", err)
	}
	for _, s := range snapshots {
		normalizePerformance(s)
	}
	return snapshots, nil
}

func normalizePerformance(s *models.OperatorPerformance) {
	s.PeriodStart = s.PeriodStart.UTC()
	s.PeriodEnd = s.PeriodEnd.UTC()
	s.ComputedAt = s.ComputedAt.UTC()
	s.LastActivityAt = utcPtr(s.LastActivityAt)
}
