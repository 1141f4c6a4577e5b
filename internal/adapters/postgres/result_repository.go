package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hsdfat8/drivetrack/internal/domain/models"
	"github.com/hsdfat8/drivetrack/internal/domain/ports"
)

// resultRepository implements the append-only ResultRepository using PostgreSQL
type resultRepository struct {
	db dbExecutor
}

// NewResultRepository creates a new PostgreSQL result repository
func NewResultRepository(db dbExecutor) ports.ResultRepository {
	return &resultRepository{db: db}
}

// Append adds a result. Existing rows are never updated.
func (r *resultRepository) Append(ctx context.Context, result *models.Result) error {
	query := `
		INSERT INTO task_results (
			inspection_id, task_id, performed_by, boolean_value, numeric_value,
			is_passing, notes, recorded_at
		) VALUES (
			:inspection_id, :task_id, :performed_by, :boolean_value, :numeric_value,
			:is_passing, :notes, :recorded_at
		) RETURNING id
	`

	if err := insertReturningID(ctx, r.db, query, resultToRow(result), &result.ID); err != nil {
		return fmt.Errorf("failed to append result: %w", err)
	}
	return nil
}

// ListByInspection retrieves the whole result log of an inspection
func (r *resultRepository) ListByInspection(ctx context.Context, inspectionID int64) (models.ResultLog, error) {
	query := `
		SELECT ` + resultColumns + `
		FROM task_results
		WHERE inspection_id = $1
		ORDER BY recorded_at, id
	`
	return r.list(ctx, query, inspectionID)
}

// ListByPerformerBetween retrieves results a user recorded in [from, to]
func (r *resultRepository) ListByPerformerBetween(ctx context.Context, userID int64, from, to time.Time) (models.ResultLog, error) {
	query := `
		SELECT ` + resultColumns + `
		FROM task_results
		WHERE performed_by = $1 AND recorded_at >= $2 AND recorded_at <= $3
		ORDER BY recorded_at, id
	`
	return r.list(ctx, query, userID, from, to)
}

// LastRecordedBy returns when the user last recorded a result
func (r *resultRepository) LastRecordedBy(ctx context.Context, userID int64) (*time.Time, error) {
	var last sql.NullTime
	err := r.db.GetContext(ctx, &last, `SELECT MAX(recorded_at) FROM task_results WHERE performed_by = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get last result time: %w", err)
	}
	if !last.Valid {
		return nil, nil
	}
	at := last.Time.UTC()
	return &at, nil
}

func (r *resultRepository) list(ctx context.Context, query string, args ...interface{}) (models.ResultLog, error) {
	var rows []*resultRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}

	log := make(models.ResultLog, 0, len(rows))
	for _, row := range rows {
		log = append(log, row.model())
	}
	return log, nil
}
