package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// MaintenanceStatus is the status of a maintenance record
type MaintenanceStatus string

const (
	MaintenanceStatusPending    MaintenanceStatus = "pending"
	MaintenanceStatusInProgress MaintenanceStatus = "in_progress"
	MaintenanceStatusCompleted  MaintenanceStatus = "completed"
)

// IsValid returns true if the status is a recognized value
func (s MaintenanceStatus) IsValid() bool {
	switch s {
	case MaintenanceStatusPending, MaintenanceStatusInProgress, MaintenanceStatusCompleted:
		return true
	}
	return false
}

// ChecklistItemStatus is the state of one maintenance checklist line
type ChecklistItemStatus string

const (
	ChecklistItemPending   ChecklistItemStatus = "pending"
	ChecklistItemCompleted ChecklistItemStatus = "completed"
	ChecklistItemFailed    ChecklistItemStatus = "failed"
)

// IsValid returns true if the status is a recognized value
func (s ChecklistItemStatus) IsValid() bool {
	switch s {
	case ChecklistItemPending, ChecklistItemCompleted, ChecklistItemFailed:
		return true
	}
	return false
}

// ChecklistItem is one free-form line of a maintenance checklist
type ChecklistItem struct {
	ID     string              `json:"id"`
	Text   string              `json:"text"`
	Status ChecklistItemStatus `json:"status"`
	Notes  *string             `json:"notes,omitempty"`
}

// MaintenanceRecord is a unit of maintenance work, optionally driven by an ordered checklist
type MaintenanceRecord struct {
	ID            int64             `json:"id" db:"id"`
	Target        *TargetRef        `json:"target,omitempty"`
	Title         string            `json:"title" db:"title"`
	Description   *string           `json:"description,omitempty" db:"description"`
	Status        MaintenanceStatus `json:"status" db:"status"`
	Checklist     []ChecklistItem   `json:"checklist"`
	PerformedBy   *int64            `json:"performed_by,omitempty" db:"performed_by"`
	ScheduledDate *time.Time        `json:"scheduled_date,omitempty" db:"scheduled_date"`
	CompletedAt   *time.Time        `json:"completed_at,omitempty" db:"completed_at"`
	CreatedAt     time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at" db:"updated_at"`
}

// DeriveMaintenanceStatus computes the record status from its checklist.
// The second result is false for an empty checklist, where status stays manual.
//
// All completed gives completed, all pending gives pending, anything else
// (a failed line or a mix) gives in_progress.
func DeriveMaintenanceStatus(items []ChecklistItem) (MaintenanceStatus, bool) {
	if len(items) == 0 {
		return "", false
	}
	completed, pending := 0, 0
	for _, it := range items {
		switch it.Status {
		case ChecklistItemCompleted:
			completed++
		case ChecklistItemPending:
			pending++
		}
	}
	switch {
	case completed == len(items):
		return MaintenanceStatusCompleted, true
	case pending == len(items):
		return MaintenanceStatusPending, true
	default:
		return MaintenanceStatusInProgress, true
	}
}

// IsChecklistDriven reports whether status is derived rather than set by hand
func (m *MaintenanceRecord) IsChecklistDriven() bool {
	return len(m.Checklist) > 0
}

// SetStatus applies a manual status edit. It is rejected once a checklist exists.
func (m *MaintenanceRecord) SetStatus(status MaintenanceStatus, at time.Time) error {
	if !status.IsValid() {
		return NewValidationError("status", fmt.Sprintf("unknown maintenance status %q", status))
	}
	if m.IsChecklistDriven() {
		return &StateConflictError{Entity: "maintenance", ID: m.ID, State: "checklist-driven " + string(m.Status), Operation: "set status manually on"}
	}
	m.applyStatus(status, at)
	return nil
}

// ReplaceChecklist swaps the whole checklist and re-derives status
func (m *MaintenanceRecord) ReplaceChecklist(items []ChecklistItem, at time.Time) error {
	seen := make(map[string]bool, len(items))
	for i := range items {
		if items[i].Text == "" {
			return NewValidationError("checklist.text", "is required")
		}
		if items[i].Status == "" {
			items[i].Status = ChecklistItemPending
		}
		if !items[i].Status.IsValid() {
			return NewValidationError("checklist.status", fmt.Sprintf("unknown item status %q", items[i].Status))
		}
		if items[i].ID == "" || seen[items[i].ID] {
			return NewValidationError("checklist.id", "must be present and unique")
		}
		seen[items[i].ID] = true
	}
	m.Checklist = items
	m.rederive(at)
	return nil
}

// UpdateChecklistItem changes one line and re-derives status
func (m *MaintenanceRecord) UpdateChecklistItem(itemID string, status ChecklistItemStatus, notes *string, at time.Time) error {
	if !status.IsValid() {
		return NewValidationError("status", fmt.Sprintf("unknown item status %q", status))
	}
	for i := range m.Checklist {
		if m.Checklist[i].ID == itemID {
			m.Checklist[i].Status = status
			if notes != nil {
				m.Checklist[i].Notes = notes
			}
			m.rederive(at)
			return nil
		}
	}
	return NewValidationError("item_id", fmt.Sprintf("checklist item %s not found", itemID))
}

func (m *MaintenanceRecord) rederive(at time.Time) {
	if status, ok := DeriveMaintenanceStatus(m.Checklist); ok {
		m.applyStatus(status, at)
		return
	}
	m.UpdatedAt = at
}

func (m *MaintenanceRecord) applyStatus(status MaintenanceStatus, at time.Time) {
	m.Status = status
	m.UpdatedAt = at
	if status == MaintenanceStatusCompleted {
		if m.CompletedAt == nil {
			m.CompletedAt = &at
		}
	} else {
		m.CompletedAt = nil
	}
}

// ChecklistSummary counts checklist lines by status
type ChecklistSummary struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
	Pending   int `json:"pending"`
}

// Add accumulates another summary
func (s *ChecklistSummary) Add(o ChecklistSummary) {
	s.Total += o.Total
	s.Completed += o.Completed
	s.Failed += o.Failed
	s.Pending += o.Pending
}

// SummarizeChecklist counts the items by status
func SummarizeChecklist(items []ChecklistItem) ChecklistSummary {
	s := ChecklistSummary{Total: len(items)}
	for _, it := range items {
		switch it.Status {
		case ChecklistItemCompleted:
			s.Completed++
		case ChecklistItemFailed:
			s.Failed++
		default:
			s.Pending++
		}
	}
	return s
}

// SummarizeChecklistJSON parses a stored checklist payload and counts it
func SummarizeChecklistJSON(raw []byte) (ChecklistSummary, error) {
	if len(raw) == 0 {
		return ChecklistSummary{}, nil
	}
	var items []ChecklistItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return ChecklistSummary{}, fmt.Errorf("malformed checklist payload: %w", err)
	}
	return SummarizeChecklist(items), nil
}
