package memory

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hsdfat8/drivetrack/internal/domain/models"
)

type maintenanceRepository struct {
	s session
}

func encodeChecklist(items []models.ChecklistItem) ([]byte, error) {
	if items == nil {
		items = []models.ChecklistItem{}
	}
	payload, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("failed to encode checklist: %w", err)
	}
	return payload, nil
}

func decode(stored *storedMaintenance) (*models.MaintenanceRecord, error) {
	rec := *stored.record
	rec.Description = copyString(stored.record.Description)
	rec.Target = copyTarget(stored.record.Target)
	rec.PerformedBy = copyInt64(stored.record.PerformedBy)
	rec.ScheduledDate = copyTime(stored.record.ScheduledDate)
	rec.CompletedAt = copyTime(stored.record.CompletedAt)
	rec.Checklist = []models.ChecklistItem{}
	if len(stored.payload) > 0 {
		if err := json.Unmarshal(stored.payload, &rec.Checklist); err != nil {
			return nil, fmt.Errorf("failed to decode checklist of maintenance %d: %w", rec.ID, err)
		}
	}
	return &rec, nil
}

func (r *maintenanceRepository) store(st *state, record *models.MaintenanceRecord) error {
	payload, err := encodeChecklist(record.Checklist)
	if err != nil {
		return err
	}
	row := *record
	row.Checklist = nil
	row.Description = copyString(record.Description)
	row.Target = copyTarget(record.Target)
	row.PerformedBy = copyInt64(record.PerformedBy)
	row.ScheduledDate = copyTime(record.ScheduledDate)
	row.CompletedAt = copyTime(record.CompletedAt)
	st.maintenance[record.ID] = &storedMaintenance{record: &row, payload: payload}
	return nil
}

func (r *maintenanceRepository) Create(ctx context.Context, record *models.MaintenanceRecord) error {
	return r.s.update(func(st *state) error {
		record.ID = st.nextID("maintenance")
		return r.store(st, record)
	})
}

func (r *maintenanceRepository) GetByID(ctx context.Context, id int64) (*models.MaintenanceRecord, error) {
	var out *models.MaintenanceRecord
	err := r.s.view(func(st *state) error {
		stored, ok := st.maintenance[id]
		if !ok {
			return &models.NotFoundError{Entity: "maintenance", ID: id}
		}
		var err error
		out, err = decode(stored)
		return err
	})
	return out, err
}

func (r *maintenanceRepository) GetForUpdate(ctx context.Context, id int64) (*models.MaintenanceRecord, error) {
	return r.GetByID(ctx, id)
}

func (r *maintenanceRepository) Update(ctx context.Context, record *models.MaintenanceRecord) error {
	return r.s.update(func(st *state) error {
		if _, ok := st.maintenance[record.ID]; !ok {
			return &models.NotFoundError{Entity: "maintenance", ID: record.ID}
		}
		return r.store(st, record)
	})
}

func (r *maintenanceRepository) ListChecklistPayloads(ctx context.Context) (map[int64][]byte, error) {
	out := make(map[int64][]byte)
	err := r.s.view(func(st *state) error {
		for id, stored := range st.maintenance {
			out[id] = append([]byte(nil), stored.payload...)
		}
		return nil
	})
	return out, err
}
