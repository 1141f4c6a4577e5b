package models

import "time"

// ChangeType represents the kind of change recorded against an inspection
type ChangeType string

const (
	ChangeTypeCreate     ChangeType = "CREATE"
	ChangeTypeTransition ChangeType = "TRANSITION"
	ChangeTypeResult     ChangeType = "RESULT"
	ChangeTypeSubTask    ChangeType = "SUB_TASK"
	ChangeTypeCorrection ChangeType = "CORRECTION"
	ChangeTypeSchedule   ChangeType = "SCHEDULE"
)

// InspectionHistory is an audit entry for one change to an inspection or its task tree
type InspectionHistory struct {
	ID             int64             `json:"id" db:"id"`
	InspectionID   int64             `json:"inspection_id" db:"inspection_id"`
	ChangeType     ChangeType        `json:"change_type" db:"change_type"`
	ChangedAt      time.Time         `json:"changed_at" db:"changed_at"`
	ChangedBy      int64             `json:"changed_by" db:"changed_by"`
	PreviousStatus *InspectionStatus `json:"previous_status,omitempty" db:"previous_status"`
	NewStatus      InspectionStatus  `json:"new_status" db:"new_status"`
	Details        *string           `json:"details,omitempty" db:"details"`
}
