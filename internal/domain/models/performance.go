package models

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// PerformanceStatus is the attention classification of an operator
type PerformanceStatus string

const (
	PerformanceActive   PerformanceStatus = "active"
	PerformanceWarning  PerformanceStatus = "warning"
	PerformanceCritical PerformanceStatus = "critical"
	PerformanceInactive PerformanceStatus = "inactive"
)

// NeedsAttention is true for every status other than active
func (s PerformanceStatus) NeedsAttention() bool {
	return s == PerformanceWarning || s == PerformanceCritical || s == PerformanceInactive
}

// Scoring thresholds, rates are percentages.
const (
	CompletionWeight       = 0.6
	PassWeight             = 0.4
	CriticalScoreBelow     = 50.0
	WarningScoreBelow      = 75.0
	WarningCompletionBelow = 60.0
	LowPassRateBelow       = 75.0
	DefaultWindowDays      = 30
	DefaultInactivityDays  = 7
)

// OperatorPerformance is one computed snapshot for a user over a window
type OperatorPerformance struct {
	ID                   int64             `json:"id,omitempty" db:"id" bson:"-"`
	UserID               int64             `json:"user_id" db:"user_id" bson:"user_id"`
	PeriodStart          time.Time         `json:"period_start" db:"period_start" bson:"period_start"`
	PeriodEnd            time.Time         `json:"period_end" db:"period_end" bson:"period_end"`
	AssignedInspections  int               `json:"assigned_inspections" db:"assigned_inspections" bson:"assigned_inspections"`
	CompletedInspections int               `json:"completed_inspections" db:"completed_inspections" bson:"completed_inspections"`
	FailedInspections    int               `json:"failed_inspections" db:"failed_inspections" bson:"failed_inspections"`
	PendingInspections   int               `json:"pending_inspections" db:"pending_inspections" bson:"pending_inspections"`
	CompletionRate       float64           `json:"completion_rate" db:"completion_rate" bson:"completion_rate"`
	PassRate             float64           `json:"pass_rate" db:"pass_rate" bson:"pass_rate"`
	PerformanceScore     float64           `json:"performance_score" db:"performance_score" bson:"performance_score"`
	Status               PerformanceStatus `json:"status" db:"status" bson:"status"`
	Notes                string            `json:"notes" db:"notes" bson:"notes"`
	LastActivityAt       *time.Time        `json:"last_activity_at,omitempty" db:"last_activity_at" bson:"last_activity_at,omitempty"`
	ComputedAt           time.Time         `json:"computed_at" db:"computed_at" bson:"computed_at"`
}

// PerformanceInput holds the raw counts one aggregation run collected from history
type PerformanceInput struct {
	UserID         int64
	PeriodStart    time.Time
	PeriodEnd      time.Time
	Assigned       int
	Completed      int
	Failed         int
	Pending        int
	PassingResults int
	TotalResults   int
	LastActivity   *time.Time
	InactivityDays int
}

// ScorePerformance turns collected counts into a snapshot. It is a pure function of its input.
func ScorePerformance(in PerformanceInput) *OperatorPerformance {
	inactivityDays := in.InactivityDays
	if inactivityDays <= 0 {
		inactivityDays = DefaultInactivityDays
	}

	completionRate := percent(in.Completed, in.Assigned)
	passRate := percent(in.PassingResults, in.TotalResults)
	score := round2(CompletionWeight*completionRate + PassWeight*passRate)

	status := PerformanceActive
	switch {
	case score < CriticalScoreBelow:
		status = PerformanceCritical
	case score < WarningScoreBelow || completionRate < WarningCompletionBelow:
		status = PerformanceWarning
	}

	var notes []string
	idleDays := -1
	if in.Assigned == 0 {
		notes = append(notes, "No inspections assigned")
	} else {
		if in.LastActivity == nil {
			idleDays = math.MaxInt32
		} else {
			idleDays = int(in.PeriodEnd.Sub(*in.LastActivity).Hours() / 24)
		}
		if completionRate < WarningCompletionBelow {
			notes = append(notes, fmt.Sprintf("Low completion rate: %.2f%%", completionRate))
		}
		if in.TotalResults > 0 && passRate < LowPassRateBelow {
			notes = append(notes, fmt.Sprintf("Low pass rate: %.2f%%", passRate))
		}
		if idleDays > inactivityDays {
			status = PerformanceInactive
			if in.LastActivity == nil {
				notes = append(notes, "No recorded activity in window")
			} else {
				notes = append(notes, fmt.Sprintf("No activity for %d days", idleDays))
			}
		}
	}

	return &OperatorPerformance{
		UserID:               in.UserID,
		PeriodStart:          in.PeriodStart,
		PeriodEnd:            in.PeriodEnd,
		AssignedInspections:  in.Assigned,
		CompletedInspections: in.Completed,
		FailedInspections:    in.Failed,
		PendingInspections:   in.Pending,
		CompletionRate:       completionRate,
		PassRate:             passRate,
		PerformanceScore:     score,
		Status:               status,
		Notes:                strings.Join(notes, "; "),
		LastActivityAt:       in.LastActivity,
		ComputedAt:           in.PeriodEnd,
	}
}

func percent(part, whole int) float64 {
	if whole <= 0 {
		return 0
	}
	return round2(float64(part) / float64(whole) * 100)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
