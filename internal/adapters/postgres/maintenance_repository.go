package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hsdfat8/drivetrack/internal/domain/models"
	"github.com/hsdfat8/drivetrack/internal/domain/ports"
)

// maintenanceRepository implements the MaintenanceRepository interface using PostgreSQL.
// The checklist is stored as a JSONB array on the record row.
type maintenanceRepository struct {
	db dbExecutor
}

// NewMaintenanceRepository creates a new PostgreSQL maintenance repository
func NewMaintenanceRepository(db dbExecutor) ports.MaintenanceRepository {
	return &maintenanceRepository{db: db}
}

const maintenanceColumns = `id, target_kind, target_id, title, description, status, checklist,
		       performed_by, scheduled_date, completed_at, created_at, updated_at`

func maintenanceToRow(record *models.MaintenanceRecord) (*maintenanceRow, error) {
	items := record.Checklist
	if items == nil {
		items = []models.ChecklistItem{}
	}
	payload, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("failed to encode checklist: %w", err)
	}
	return &maintenanceRow{
		ID:            record.ID,
		targetColumns: targetToColumns(record.Target),
		Title:         record.Title,
		Description:   record.Description,
		Status:        string(record.Status),
		Checklist:     string(payload),
		PerformedBy:   record.PerformedBy,
		ScheduledDate: record.ScheduledDate,
		CompletedAt:   record.CompletedAt,
		CreatedAt:     record.CreatedAt,
		UpdatedAt:     record.UpdatedAt,
	}, nil
}

func (r *maintenanceRow) model() (*models.MaintenanceRecord, error) {
	record := &models.MaintenanceRecord{
		ID:            r.ID,
		Target:        r.target(),
		Title:         r.Title,
		Description:   r.Description,
		Status:        models.MaintenanceStatus(r.Status),
		Checklist:     []models.ChecklistItem{},
		PerformedBy:   r.PerformedBy,
		ScheduledDate: utcPtr(r.ScheduledDate),
		CompletedAt:   utcPtr(r.CompletedAt),
		CreatedAt:     r.CreatedAt.UTC(),
		UpdatedAt:     r.UpdatedAt.UTC(),
	}
	if len(r.Checklist) > 0 {
		if err := json.Unmarshal([]byte(r.Checklist), &record.Checklist); err != nil {
			return nil, fmt.Errorf("failed to decode checklist of maintenance %d: %w", r.ID, err)
		}
	}
	return record, nil
}

// Create inserts a record
func (r *maintenanceRepository) Create(ctx context.Context, record *models.MaintenanceRecord) error {
	row, err := maintenanceToRow(record)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO maintenance_records (
			target_kind, target_id, title, description, status, checklist,
			performed_by, scheduled_date, completed_at, created_at, updated_at
		) VALUES (
			:target_kind, :target_id, :title, :description, :status, :checklist,
			:performed_by, :scheduled_date, :completed_at, :created_at, :updated_at
		) RETURNING id
	`
	if err := insertReturningID(ctx, r.db, query, row, &record.ID); err != nil {
		return fmt.Errorf("failed to create maintenance record: %w", err)
	}
	return nil
}

// GetByID retrieves a record
func (r *maintenanceRepository) GetByID(ctx context.Context, id int64) (*models.MaintenanceRecord, error) {
	return r.get(ctx, id, `SELECT `+maintenanceColumns+` FROM maintenance_records WHERE id = $1`)
}

// GetForUpdate retrieves a record and locks its row
func (r *maintenanceRepository) GetForUpdate(ctx context.Context, id int64) (*models.MaintenanceRecord, error) {
	return r.get(ctx, id, `SELECT `+maintenanceColumns+` FROM maintenance_records WHERE id = $1 FOR UPDATE`)
}

func (r *maintenanceRepository) get(ctx context.Context, id int64, query string) (*models.MaintenanceRecord, error) {
	var row maintenanceRow
	if err := getOne(ctx, r.db, &row, "maintenance", id, query, id); err != nil {
		return nil, err
	}
	return row.model()
}

// Update writes status, checklist and completion fields
func (r *maintenanceRepository) Update(ctx context.Context, record *models.MaintenanceRecord) error {
	row, err := maintenanceToRow(record)
	if err != nil {
		return err
	}
	query := `
		UPDATE maintenance_records
		SET status = :status,
		    checklist = :checklist,
		    performed_by = :performed_by,
		    completed_at = :completed_at,
		    updated_at = :updated_at
		WHERE id = :id
	`
	result, err := r.db.NamedExecContext(ctx, query, row)
	if err != nil {
		return fmt.Errorf("failed to update maintenance record: %w", err)
	}
	return expectRowAffected(result, "maintenance", record.ID)
}

// ListChecklistPayloads returns the raw checklist column of every record
func (r *maintenanceRepository) ListChecklistPayloads(ctx context.Context) (map[int64][]byte, error) {
	var rows []struct {
		ID        int64  `db:"id"`
		Checklist string `db:"checklist"`
	}
	if err := r.db.SelectContext(ctx, &rows, `SELECT id, checklist FROM maintenance_records ORDER BY id`); err != nil {
		return nil, fmt.Errorf("failed to list checklist payloads: %w", err)
	}

	payloads := make(map[int64][]byte, len(rows))
	for _, row := range rows {
		payloads[row.ID] = []byte(row.Checklist)
	}
	return payloads, nil
}
