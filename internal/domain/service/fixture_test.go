package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hsdfat8/drivetrack/internal/adapters/memory"
	"github.com/hsdfat8/drivetrack/internal/domain/models"
	"github.com/hsdfat8/drivetrack/internal/domain/ports"
	"github.com/stretchr/testify/require"
)

const (
	operatorID   int64 = 1
	supervisorID int64 = 2
	driveID      int64 = 10
)

type fixture struct {
	db        *memory.Adapter
	now       time.Time
	inspect   ports.InspectionService
	scheduler ports.SchedulerService
	perf      ports.PerformanceService
	maint     ports.MaintenanceService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{db: memory.NewAdapter(), now: time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)}
	f.db.Directory().AddUser(&models.User{ID: operatorID, Name: "Olu", Role: models.RoleOperator, Active: true})
	f.db.Directory().AddUser(&models.User{ID: supervisorID, Name: "Sam", Role: models.RoleSupervisor, Active: true})
	f.db.Directory().AddEquipment(&models.Equipment{Kind: models.TargetKindDrive, ID: driveID, Name: "Conveyor drive"})

	clock := WithClock(func() time.Time { return f.now })
	users := f.db.GetUserDirectory()
	equipment := f.db.GetEquipmentLookup()
	f.inspect = NewInspectionService(f.db, users, equipment, clock)
	f.scheduler = NewSchedulerService(f.db, equipment, clock)
	f.perf = NewPerformanceService(f.db, f.db.GetPerformanceRepository(), users, nil, clock)
	f.maint = NewMaintenanceService(f.db, equipment, clock)
	return f
}

func (f *fixture) advance(d time.Duration) {
	f.now = f.now.Add(d)
}

// createActive creates an ad hoc inspection assigned to the operator and publishes it
func (f *fixture) createActive(t *testing.T, tasks ...*models.Task) *ports.InspectionDetail {
	t.Helper()
	ctx := context.Background()
	assignee := operatorID
	detail, err := f.inspect.CreateInspection(ctx, &ports.CreateInspectionRequest{
		Title:         "Line 3 weekly",
		ScheduledDate: f.now,
		AssignedTo:    &assignee,
		ActorID:       supervisorID,
		Tasks:         tasks,
	})
	require.NoError(t, err)
	_, err = f.inspect.PublishInspection(ctx, detail.Inspection.ID, supervisorID)
	require.NoError(t, err)
	return detail
}

func (f *fixture) inspection(t *testing.T, id int64) *models.Inspection {
	t.Helper()
	got, err := f.db.GetInspectionRepository().GetByID(context.Background(), id)
	require.NoError(t, err)
	return got
}

func flatTask(name string, required bool, e models.Expectation) *models.Task {
	return &models.Task{Name: name, Required: required, Expectation: e}
}

func yes() models.Measurement { return models.Measurement{Boolean: models.BoolPtr(true)} }

func no() models.Measurement { return models.Measurement{Boolean: models.BoolPtr(false)} }

func num(v float64) models.Measurement { return models.Measurement{Numeric: models.FloatPtr(v)} }

// failingCommitAdapter fails every read-write commit after rolling back
type failingCommitAdapter struct {
	*memory.Adapter
}

func (a *failingCommitAdapter) BeginTransaction(ctx context.Context) (ports.Transaction, error) {
	tx, err := a.Adapter.BeginTransaction(ctx)
	if err != nil {
		return nil, err
	}
	return &failingCommitTx{Transaction: tx}, nil
}

type failingCommitTx struct {
	ports.Transaction
}

func (t *failingCommitTx) Commit(ctx context.Context) error {
	_ = t.Transaction.Rollback(ctx)
	return errors.New("connection reset")
}
