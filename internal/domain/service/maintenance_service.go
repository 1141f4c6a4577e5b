package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/hsdfat8/drivetrack/internal/domain/models"
	"github.com/hsdfat8/drivetrack/internal/domain/ports"
)

// maintenanceService implements the MaintenanceService interface
type maintenanceService struct {
	db        ports.DatabaseAdapter
	equipment ports.EquipmentLookup
	options
}

// NewMaintenanceService creates a new maintenance checklist service
func NewMaintenanceService(db ports.DatabaseAdapter, equipment ports.EquipmentLookup, opts ...Option) ports.MaintenanceService {
	return &maintenanceService{
		db:        db,
		equipment: equipment,
		options:   newOptions(opts),
	}
}

// CreateRecord stores a maintenance record. A supplied checklist drives its status from the start.
func (s *maintenanceService) CreateRecord(ctx context.Context, req *ports.CreateMaintenanceRequest) (*models.MaintenanceRecord, error) {
	if req == nil || req.Title == "" {
		return nil, models.NewValidationError("title", "is required")
	}
	if req.Target != nil {
		if err := req.Target.Validate(); err != nil {
			return nil, err
		}
		_, found, err := s.equipment.Lookup(ctx, *req.Target)
		if err != nil {
			return nil, persistErr("resolve target", err)
		}
		if !found {
			return nil, models.NewValidationError("target", fmt.Sprintf("%s does not exist", req.Target.String()))
		}
	}

	now := s.now()
	record := &models.MaintenanceRecord{
		Title:         req.Title,
		Description:   req.Description,
		Target:        req.Target,
		Status:        models.MaintenanceStatusPending,
		PerformedBy:   req.PerformedBy,
		ScheduledDate: req.ScheduledDate,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := record.ReplaceChecklist(checklistFromInput(req.Checklist), now); err != nil {
		return nil, err
	}

	err := runInTx(ctx, s.db, "create_maintenance", func(tx ports.Transaction, hooks *txHooks) error {
		if err := tx.GetMaintenanceRepository().Create(ctx, record); err != nil {
			return persistErr("create maintenance record", err)
		}
		return nil
	})
	if err != nil {
		logFailure(s.getLogger(), "CreateRecord", err, "title", req.Title)
		return nil, err
	}
	s.getLogger().Infow("Maintenance record created", "record_id", record.ID, "checklist_items", len(record.Checklist), "status", record.Status)
	return record, nil
}

// GetRecord retrieves a maintenance record
func (s *maintenanceService) GetRecord(ctx context.Context, id int64) (*models.MaintenanceRecord, error) {
	var record *models.MaintenanceRecord
	err := runReadOnly(ctx, s.db, "get_maintenance", func(tx ports.Transaction) error {
		var err error
		record, err = tx.GetMaintenanceRepository().GetByID(ctx, id)
		if err != nil {
			return persistErr("load maintenance record", err)
		}
		return nil
	})
	return record, err
}

// ReplaceChecklist swaps the whole checklist and re-derives status
func (s *maintenanceService) ReplaceChecklist(ctx context.Context, id int64, items []ports.ChecklistItemInput) (*models.MaintenanceRecord, error) {
	return s.mutate(ctx, "replace_checklist", id, func(record *models.MaintenanceRecord) error {
		return record.ReplaceChecklist(checklistFromInput(items), s.now())
	})
}

// UpdateChecklistItem changes one checklist line and re-derives status
func (s *maintenanceService) UpdateChecklistItem(ctx context.Context, req *ports.UpdateChecklistItemRequest) (*models.MaintenanceRecord, error) {
	if req == nil || req.ItemID == "" {
		return nil, models.NewValidationError("item_id", "is required")
	}
	return s.mutate(ctx, "update_checklist_item", req.RecordID, func(record *models.MaintenanceRecord) error {
		return record.UpdateChecklistItem(req.ItemID, req.Status, req.Notes, s.now())
	})
}

// SetStatus applies a manual status edit; records driven by a checklist reject it
func (s *maintenanceService) SetStatus(ctx context.Context, id int64, status models.MaintenanceStatus) (*models.MaintenanceRecord, error) {
	return s.mutate(ctx, "set_maintenance_status", id, func(record *models.MaintenanceRecord) error {
		return record.SetStatus(status, s.now())
	})
}

func (s *maintenanceService) mutate(ctx context.Context, operation string, id int64, fn func(record *models.MaintenanceRecord) error) (*models.MaintenanceRecord, error) {
	if id <= 0 {
		return nil, models.NewValidationError("id", "must be positive")
	}
	var updated *models.MaintenanceRecord
	err := runInTx(ctx, s.db, operation, func(tx ports.Transaction, hooks *txHooks) error {
		record, err := tx.GetMaintenanceRepository().GetForUpdate(ctx, id)
		if err != nil {
			return persistErr("lock maintenance record", err)
		}
		if err := fn(record); err != nil {
			return err
		}
		if err := tx.GetMaintenanceRepository().Update(ctx, record); err != nil {
			return persistErr("update maintenance record", err)
		}
		updated = record
		return nil
	})
	if err != nil {
		logFailure(s.getLogger(), operation, err, "record_id", id)
		return nil, err
	}
	s.getLogger().Infow("Maintenance record updated", "operation", operation, "record_id", id, "status", updated.Status)
	return updated, nil
}

// Report counts checklist lines across all records. A payload that cannot be parsed
// counts as zero and is reported as malformed.
func (s *maintenanceService) Report(ctx context.Context) (*ports.MaintenanceReport, error) {
	var payloads map[int64][]byte
	err := runReadOnly(ctx, s.db, "maintenance_report", func(tx ports.Transaction) error {
		var err error
		payloads, err = tx.GetMaintenanceRepository().ListChecklistPayloads(ctx)
		if err != nil {
			return persistErr("list checklist payloads", err)
		}
		return nil
	})
	if err != nil {
		s.getLogger().Errorw("Maintenance report failed", "error", err)
		return nil, err
	}

	ids := make([]int64, 0, len(payloads))
	for id := range payloads {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	report := &ports.MaintenanceReport{Records: len(ids)}
	for _, id := range ids {
		summary, err := models.SummarizeChecklistJSON(payloads[id])
		if err != nil {
			s.getLogger().Warnw("Skipping malformed checklist payload", "record_id", id, "error", err)
			report.Malformed++
			continue
		}
		report.Totals.Add(summary)
	}
	return report, nil
}

func checklistFromInput(items []ports.ChecklistItemInput) []models.ChecklistItem {
	out := make([]models.ChecklistItem, 0, len(items))
	for _, in := range items {
		id := in.ID
		if id == "" {
			id = uuid.NewString()
		}
		out = append(out, models.ChecklistItem{ID: id, Text: in.Text, Status: in.Status, Notes: in.Notes})
	}
	return out
}
