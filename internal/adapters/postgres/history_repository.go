package postgres

import (
	"context"
	"fmt"

	"github.com/hsdfat8/drivetrack/internal/domain/models"
	"github.com/hsdfat8/drivetrack/internal/domain/ports"
)

// historyRepository implements the HistoryRepository interface using PostgreSQL
type historyRepository struct {
	db dbExecutor
}

// NewHistoryRepository creates a new PostgreSQL history repository
func NewHistoryRepository(db dbExecutor) ports.HistoryRepository {
	return &historyRepository{db: db}
}

// RecordChange records a change to an inspection or its task tree
func (r *historyRepository) RecordChange(ctx context.Context, history *models.InspectionHistory) error {
	query := `
		INSERT INTO inspection_history (
			inspection_id, change_type, changed_at, changed_by,
			previous_status, new_status, details
		) VALUES (
			:inspection_id, :change_type, :changed_at, :changed_by,
			:previous_status, :new_status, :details
		) RETURNING id
	`

	if err := insertReturningID(ctx, r.db, query, history, &history.ID); err != nil {
		return fmt.Errorf("failed to record change: %w", err)
	}
	return nil
}

// GetHistoryByInspection retrieves change history for one inspection, oldest first.
// A limit of zero or less returns everything from offset.
func (r *historyRepository) GetHistoryByInspection(ctx context.Context, inspectionID int64, offset, limit int) ([]*models.InspectionHistory, error) {
	query := `
		SELECT id, inspection_id, change_type, changed_at, changed_by,
		       previous_status, new_status, details
		FROM inspection_history
		WHERE inspection_id = $1
		ORDER BY changed_at, id
		OFFSET $2
	`
	args := []interface{}{inspectionID, offset}
	if limit > 0 {
		query += ` LIMIT $3`
		args = append(args, limit)
	}

	var history []*models.InspectionHistory
	if err := r.db.SelectContext(ctx, &history, query, args...); err != nil {
		return nil, fmt.Errorf("failed to get history by inspection: %w", err)
	}
	for _, h := range history {
		h.ChangedAt = h.ChangedAt.UTC()
	}
	return history, nil
}
