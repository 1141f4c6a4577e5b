package memory

import (
	"time"

	"github.com/hsdfat8/drivetrack/internal/domain/models"
)

// Copy helpers keep callers from mutating stored state through returned pointers.

func copyBool(b *bool) *bool {
	if b == nil {
		return nil
	}
	v := *b
	return &v
}

func copyFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}

func copyInt64(i *int64) *int64 {
	if i == nil {
		return nil
	}
	v := *i
	return &v
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func copyStatus(s *models.InspectionStatus) *models.InspectionStatus {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func copyTarget(r *models.TargetRef) *models.TargetRef {
	if r == nil {
		return nil
	}
	v := *r
	return &v
}

func copyExpectation(e models.Expectation) models.Expectation {
	return models.Expectation{
		Kind:    e.Kind,
		Boolean: copyBool(e.Boolean),
		Min:     copyFloat(e.Min),
		Max:     copyFloat(e.Max),
		Unit:    e.Unit,
	}
}

func copyMeasurement(m models.Measurement) models.Measurement {
	return models.Measurement{Boolean: copyBool(m.Boolean), Numeric: copyFloat(m.Numeric)}
}

func copyInspection(i *models.Inspection) *models.Inspection {
	c := *i
	c.TemplateID = copyInt64(i.TemplateID)
	c.ScheduledBy = copyInt64(i.ScheduledBy)
	c.AssignedTo = copyInt64(i.AssignedTo)
	c.CompletedBy = copyInt64(i.CompletedBy)
	c.CompletedDate = copyTime(i.CompletedDate)
	c.Notes = copyString(i.Notes)
	return &c
}

// copyTask copies the task row only; sub-tasks live in their own table
func copyTask(t *models.Task) *models.Task {
	c := *t
	c.Description = copyString(t.Description)
	c.Expectation = copyExpectation(t.Expectation)
	c.Target = copyTarget(t.Target)
	c.SubTasks = nil
	return &c
}

func copySubTask(s *models.SubTask) *models.SubTask {
	c := *s
	c.Expectation = copyExpectation(s.Expectation)
	c.Recorded = copyMeasurement(s.Recorded)
	c.Notes = copyString(s.Notes)
	c.CompletedBy = copyInt64(s.CompletedBy)
	c.CompletedAt = copyTime(s.CompletedAt)
	return &c
}

func copyResult(r *models.Result) *models.Result {
	c := *r
	c.Recorded = copyMeasurement(r.Recorded)
	c.Notes = copyString(r.Notes)
	return &c
}

func copyTemplate(t *models.InspectionTemplate) *models.InspectionTemplate {
	c := *t
	c.Description = copyString(t.Description)
	c.StartDate = copyTime(t.StartDate)
	c.EndDate = copyTime(t.EndDate)
	c.AssignedTo = copyInt64(t.AssignedTo)
	c.Tasks = make([]*models.TemplateTask, 0, len(t.Tasks))
	for _, tt := range t.Tasks {
		ct := *tt
		ct.Description = copyString(tt.Description)
		ct.Expectation = copyExpectation(tt.Expectation)
		ct.Target = copyTarget(tt.Target)
		ct.SubTasks = make([]*models.TemplateSubTask, 0, len(tt.SubTasks))
		for _, ts := range tt.SubTasks {
			cs := *ts
			cs.Expectation = copyExpectation(ts.Expectation)
			ct.SubTasks = append(ct.SubTasks, &cs)
		}
		c.Tasks = append(c.Tasks, &ct)
	}
	return &c
}

func copyHistory(h *models.InspectionHistory) *models.InspectionHistory {
	c := *h
	c.PreviousStatus = copyStatus(h.PreviousStatus)
	c.Details = copyString(h.Details)
	return &c
}

func copyPerformance(p *models.OperatorPerformance) *models.OperatorPerformance {
	c := *p
	c.LastActivityAt = copyTime(p.LastActivityAt)
	return &c
}
