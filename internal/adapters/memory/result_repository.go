package memory

import (
	"context"
	"time"

	"github.com/hsdfat8/drivetrack/internal/domain/models"
)

type resultRepository struct {
	s session
}

func (r *resultRepository) Append(ctx context.Context, result *models.Result) error {
	return r.s.update(func(st *state) error {
		result.ID = st.nextID("results")
		st.results = append(st.results, copyResult(result))
		return nil
	})
}

func (r *resultRepository) ListByInspection(ctx context.Context, inspectionID int64) (models.ResultLog, error) {
	var out models.ResultLog
	err := r.s.view(func(st *state) error {
		for _, result := range st.results {
			if result.InspectionID == inspectionID {
				out = append(out, copyResult(result))
			}
		}
		return nil
	})
	return out.Sorted(), err
}

func (r *resultRepository) ListByPerformerBetween(ctx context.Context, userID int64, from, to time.Time) (models.ResultLog, error) {
	var out models.ResultLog
	err := r.s.view(func(st *state) error {
		for _, result := range st.results {
			if result.PerformedBy != userID || result.RecordedAt.Before(from) || result.RecordedAt.After(to) {
				continue
			}
			out = append(out, copyResult(result))
		}
		return nil
	})
	return out.Sorted(), err
}

func (r *resultRepository) LastRecordedBy(ctx context.Context, userID int64) (*time.Time, error) {
	var last *time.Time
	err := r.s.view(func(st *state) error {
		for _, result := range st.results {
			if result.PerformedBy != userID {
				continue
			}
			if last == nil || result.RecordedAt.After(*last) {
				at := result.RecordedAt
				last = &at
			}
		}
		return nil
	})
	return last, err
}

type historyRepository struct {
	s session
}

func (r *historyRepository) RecordChange(ctx context.Context, history *models.InspectionHistory) error {
	return r.s.update(func(st *state) error {
		history.ID = st.nextID("history")
		st.history = append(st.history, copyHistory(history))
		return nil
	})
}

func (r *historyRepository) GetHistoryByInspection(ctx context.Context, inspectionID int64, offset, limit int) ([]*models.InspectionHistory, error) {
	var out []*models.InspectionHistory
	err := r.s.view(func(st *state) error {
		for _, h := range st.history {
			if h.InspectionID == inspectionID {
				out = append(out, copyHistory(h))
			}
		}
		return nil
	})
	return paginate(out, offset, limit), err
}
