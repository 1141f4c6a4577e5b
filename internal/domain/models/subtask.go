package models

import "time"

// SubTaskStatus is the completion state of a checklist item
type SubTaskStatus string

const (
	SubTaskStatusPending   SubTaskStatus = "pending"
	SubTaskStatusCompleted SubTaskStatus = "completed"
)

// Compliance is the fine-grained classification of a sub-task's current answer
type Compliance string

const (
	CompliancePendingAction Compliance = "pending_action"
	CompliancePendingResult Compliance = "pending_result"
	CompliancePassing       Compliance = "passing"
	ComplianceFailing       Compliance = "failing"
	ComplianceWarning       Compliance = "warning"
	ComplianceComplete      Compliance = "complete" // completion-only items
	ComplianceMisconfigured Compliance = "misconfigured"
	ComplianceUnknown       Compliance = "unknown"
)

// SubTask is one checklist item under a task
type SubTask struct {
	ID          int64         `json:"id" db:"id"`
	TaskID      int64         `json:"task_id" db:"task_id"`
	Name        string        `json:"name" db:"name"`
	Position    int           `json:"position" db:"position"`
	Expectation Expectation   `json:"expectation"`
	Status      SubTaskStatus `json:"status" db:"status"`
	Recorded    Measurement   `json:"recorded"`
	Notes       *string       `json:"notes,omitempty" db:"notes"`
	CompletedBy *int64        `json:"completed_by,omitempty" db:"completed_by"`
	CompletedAt *time.Time    `json:"completed_at,omitempty" db:"completed_at"`
	UpdatedAt   time.Time     `json:"updated_at" db:"updated_at"`
}

// Complete marks the sub-task done by performer at the given time
func (s *SubTask) Complete(performedBy int64, at time.Time) {
	s.Status = SubTaskStatusCompleted
	s.CompletedBy = &performedBy
	s.CompletedAt = &at
	s.UpdatedAt = at
}

// ResetToPending clears status, completer, time and both recorded values together
func (s *SubTask) ResetToPending(at time.Time) {
	s.Status = SubTaskStatusPending
	s.CompletedBy = nil
	s.CompletedAt = nil
	s.Recorded = Measurement{}
	s.UpdatedAt = at
}

// Toggle flips completion. Completing a valued item this way is only allowed when
// its recorded value already passes; otherwise the value must be recorded.
func (s *SubTask) Toggle(performedBy int64, at time.Time) error {
	if s.Status == SubTaskStatusCompleted {
		s.ResetToPending(at)
		return nil
	}
	if s.Expectation.Kind != ValidationKindNone && !s.Expectation.IsPassing(s.Recorded) {
		return NewValidationError("status", "a passing value must be recorded before "+string(s.Expectation.Kind)+" sub-task "+s.Name+" can be completed")
	}
	s.Complete(performedBy, at)
	return nil
}

// RecordResult stores an answer and derives completion from it.
//
// For completion-only items the call toggles completion. For valued items the matching
// field is set, the other is forced to nil, and the item is completed only when the
// value passes; a failing or warning value leaves it pending for rework.
func (s *SubTask) RecordResult(kind ValidationKind, m Measurement, notes *string, performedBy int64, at time.Time) (Classification, error) {
	if kind != s.Expectation.Kind {
		return "", NewValidationError("type", "sub-task "+s.Name+" expects "+string(s.Expectation.Kind)+", got "+string(kind))
	}
	if err := ValidateMeasurement(kind, m); err != nil {
		return "", err
	}
	if notes != nil {
		s.Notes = notes
	}

	if kind == ValidationKindNone {
		if err := s.Toggle(performedBy, at); err != nil {
			return "", err
		}
		return ClassificationPassing, nil
	}

	s.Recorded = m.ForKind(kind)
	class := Evaluate(s.Expectation, s.Recorded)
	if class == ClassificationPassing {
		s.Complete(performedBy, at)
	} else {
		s.Status = SubTaskStatusPending
		s.CompletedBy = nil
		s.CompletedAt = nil
		s.UpdatedAt = at
	}
	return class, nil
}

// Compliance classifies the current answer with more detail than Status
func (s *SubTask) Compliance() Compliance {
	if s.Expectation.Kind == ValidationKindNone {
		if s.Status == SubTaskStatusCompleted {
			return ComplianceComplete
		}
		return CompliancePendingAction
	}
	if s.Expectation.Kind != ValidationKindYesNo && s.Expectation.Kind != ValidationKindNumeric {
		return ComplianceUnknown
	}
	if !s.Expectation.Configured() {
		return ComplianceMisconfigured
	}
	if s.Status == SubTaskStatusPending && s.Recorded.Empty() {
		return CompliancePendingAction
	}

	switch Evaluate(s.Expectation, s.Recorded) {
	case ClassificationPassing:
		return CompliancePassing
	case ClassificationFailing:
		return ComplianceFailing
	case ClassificationWarning:
		return ComplianceWarning
	case ClassificationMisconfigured:
		return ComplianceMisconfigured
	case ClassificationPendingResult:
		return CompliancePendingResult
	default:
		return ComplianceUnknown
	}
}

// IsCompleted reports whether the sub-task is done
func (s *SubTask) IsCompleted() bool {
	return s.Status == SubTaskStatusCompleted
}
