package memory

import (
	"context"

	"github.com/hsdfat8/drivetrack/internal/domain/models"
)

type performanceRepository struct {
	s session
}

func keyOf(p *models.OperatorPerformance) performanceKey {
	return performanceKey{userID: p.UserID, periodStart: p.PeriodStart.UnixNano(), periodEnd: p.PeriodEnd.UnixNano()}
}

// Upsert replaces the snapshot for the same user and period, keeping its ID
func (r *performanceRepository) Upsert(ctx context.Context, snapshot *models.OperatorPerformance) error {
	return r.s.update(func(st *state) error {
		key := keyOf(snapshot)
		if existing, ok := st.performance[key]; ok {
			snapshot.ID = existing.ID
		} else {
			snapshot.ID = st.nextID("performance")
		}
		st.performance[key] = copyPerformance(snapshot)
		return nil
	})
}

func (r *performanceRepository) GetLatest(ctx context.Context, userID int64) (*models.OperatorPerformance, error) {
	var out *models.OperatorPerformance
	err := r.s.view(func(st *state) error {
		latest := latestPerUser(st)
		snapshot, ok := latest[userID]
		if !ok {
			return &models.NotFoundError{Entity: "performance snapshot for user", ID: userID}
		}
		out = copyPerformance(snapshot)
		return nil
	})
	return out, err
}

func (r *performanceRepository) ListLatest(ctx context.Context) ([]*models.OperatorPerformance, error) {
	var out []*models.OperatorPerformance
	err := r.s.view(func(st *state) error {
		for _, snapshot := range latestPerUser(st) {
			out = append(out, copyPerformance(snapshot))
		}
		return nil
	})
	sortByID(out, func(p *models.OperatorPerformance) int64 { return p.UserID })
	return out, err
}

func latestPerUser(st *state) map[int64]*models.OperatorPerformance {
	latest := make(map[int64]*models.OperatorPerformance)
	for _, snapshot := range st.performance {
		current, ok := latest[snapshot.UserID]
		if !ok || newer(snapshot, current) {
			latest[snapshot.UserID] = snapshot
		}
	}
	return latest
}

func newer(a, b *models.OperatorPerformance) bool {
	if !a.PeriodEnd.Equal(b.PeriodEnd) {
		return a.PeriodEnd.After(b.PeriodEnd)
	}
	return a.ID > b.ID
}
