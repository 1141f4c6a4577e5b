package models

import (
	"sort"
	"time"
)

// Result is one recorded answer against a task. Results are appended, never rewritten;
// the most recent per inspection and task is the current answer.
type Result struct {
	ID           int64       `json:"id" db:"id"`
	InspectionID int64       `json:"inspection_id" db:"inspection_id"`
	TaskID       int64       `json:"task_id" db:"task_id"`
	PerformedBy  int64       `json:"performed_by" db:"performed_by"`
	Recorded     Measurement `json:"recorded"`
	IsPassing    bool        `json:"is_passing" db:"is_passing"`
	Notes        *string     `json:"notes,omitempty" db:"notes"`
	RecordedAt   time.Time   `json:"recorded_at" db:"recorded_at"`
}

// ResultLog is the raw, ordered result history
type ResultLog []*Result

// Sorted returns the log ordered by recording time, then ID
func (l ResultLog) Sorted() ResultLog {
	out := append(ResultLog(nil), l...)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].RecordedAt.Equal(out[j].RecordedAt) {
			return out[i].RecordedAt.Before(out[j].RecordedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Latest projects the log onto the current answer per task
func (l ResultLog) Latest() map[int64]*Result {
	latest := make(map[int64]*Result)
	for _, r := range l.Sorted() {
		latest[r.TaskID] = r
	}
	return latest
}

// ForTask returns the history of one task in recording order
func (l ResultLog) ForTask(taskID int64) ResultLog {
	var out ResultLog
	for _, r := range l.Sorted() {
		if r.TaskID == taskID {
			out = append(out, r)
		}
	}
	return out
}
