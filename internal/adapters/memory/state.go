package memory

import (
	"github.com/hsdfat8/drivetrack/internal/domain/models"
)

type performanceKey struct {
	userID      int64
	periodStart int64
	periodEnd   int64
}

// storedMaintenance keeps the checklist as its serialized payload, as the SQL store does
type storedMaintenance struct {
	record  *models.MaintenanceRecord // Checklist is nil here
	payload []byte
}

// state is one complete version of the database
type state struct {
	inspections map[int64]*models.Inspection
	tasks       map[int64]*models.Task
	subTasks    map[int64]*models.SubTask
	results     []*models.Result
	templates   map[int64]*models.InspectionTemplate
	history     []*models.InspectionHistory
	maintenance map[int64]*storedMaintenance
	performance map[performanceKey]*models.OperatorPerformance
	sequences   map[string]int64
}

func newState() *state {
	return &state{
		inspections: make(map[int64]*models.Inspection),
		tasks:       make(map[int64]*models.Task),
		subTasks:    make(map[int64]*models.SubTask),
		templates:   make(map[int64]*models.InspectionTemplate),
		maintenance: make(map[int64]*storedMaintenance),
		performance: make(map[performanceKey]*models.OperatorPerformance),
		sequences:   make(map[string]int64),
	}
}

// nextID returns the next value of a named sequence
func (s *state) nextID(name string) int64 {
	s.sequences[name]++
	return s.sequences[name]
}

// clone deep-copies the state so a transaction can work on it in isolation
func (s *state) clone() *state {
	c := newState()
	for id, v := range s.inspections {
		c.inspections[id] = copyInspection(v)
	}
	for id, v := range s.tasks {
		c.tasks[id] = copyTask(v)
	}
	for id, v := range s.subTasks {
		c.subTasks[id] = copySubTask(v)
	}
	c.results = make([]*models.Result, 0, len(s.results))
	for _, v := range s.results {
		c.results = append(c.results, copyResult(v))
	}
	for id, v := range s.templates {
		c.templates[id] = copyTemplate(v)
	}
	c.history = make([]*models.InspectionHistory, 0, len(s.history))
	for _, v := range s.history {
		c.history = append(c.history, copyHistory(v))
	}
	for id, v := range s.maintenance {
		rec := *v.record
		rec.Description = copyString(v.record.Description)
		rec.Target = copyTarget(v.record.Target)
		rec.PerformedBy = copyInt64(v.record.PerformedBy)
		rec.ScheduledDate = copyTime(v.record.ScheduledDate)
		rec.CompletedAt = copyTime(v.record.CompletedAt)
		c.maintenance[id] = &storedMaintenance{record: &rec, payload: append([]byte(nil), v.payload...)}
	}
	for k, v := range s.performance {
		c.performance[k] = copyPerformance(v)
	}
	for k, v := range s.sequences {
		c.sequences[k] = v
	}
	return c
}
