package service

import (
	"context"
	"errors"
	"testing"

	"github.com/hsdfat8/drivetrack/internal/domain/models"
	"github.com/hsdfat8/drivetrack/internal/domain/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordSubTaskResult_YesNo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	detail := f.createActive(t, &models.Task{
		Name:        "Guarding",
		Expectation: models.ExpectCompletion(),
		SubTasks:    []*models.SubTask{{Name: "Guard fitted", Expectation: models.ExpectYesNo(true)}},
	})
	stID := detail.Tasks[0].SubTasks[0].SubTask.ID

	st, err := f.inspect.RecordSubTaskResult(ctx, &ports.RecordSubTaskResultRequest{
		SubTaskID: stID, Kind: models.ValidationKindYesNo, Value: yes(), ActorID: operatorID,
	})
	require.NoError(t, err)
	assert.Equal(t, models.SubTaskStatusCompleted, st.Status)
	assert.Equal(t, models.CompliancePassing, st.Compliance())

	inspection := f.inspection(t, detail.Inspection.ID)
	assert.Equal(t, models.InspectionStatusActive, inspection.Status, "first result promotes to active")
	assert.Equal(t, 1, inspection.Rollup.CompletedSubTask)

	st, err = f.inspect.RecordSubTaskResult(ctx, &ports.RecordSubTaskResultRequest{
		SubTaskID: stID, Kind: models.ValidationKindYesNo, Value: no(), ActorID: operatorID,
	})
	require.NoError(t, err)
	assert.Equal(t, models.SubTaskStatusPending, st.Status)
	assert.Equal(t, models.ComplianceFailing, st.Compliance())
	assert.Equal(t, 0, f.inspection(t, detail.Inspection.ID).Rollup.CompletedSubTask)
}

func TestRecordSubTaskResult_Numeric(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	detail := f.createActive(t, &models.Task{
		Name:        "Motor",
		Expectation: models.ExpectCompletion(),
		SubTasks:    []*models.SubTask{{Name: "Temperature", Expectation: models.ExpectRange(10, 20, "C")}},
	})
	stID := detail.Tasks[0].SubTasks[0].SubTask.ID

	cases := []struct {
		value      float64
		compliance models.Compliance
		status     models.SubTaskStatus
	}{
		{15, models.CompliancePassing, models.SubTaskStatusCompleted},
		{25, models.ComplianceWarning, models.SubTaskStatusPending},
		{5, models.ComplianceFailing, models.SubTaskStatusPending},
	}
	for _, c := range cases {
		st, err := f.inspect.RecordSubTaskResult(ctx, &ports.RecordSubTaskResultRequest{
			SubTaskID: stID, Kind: models.ValidationKindNumeric, Value: num(c.value), ActorID: operatorID,
		})
		require.NoError(t, err)
		assert.Equal(t, c.compliance, st.Compliance(), "value %v", c.value)
		assert.Equal(t, c.status, st.Status, "value %v", c.value)
	}
}

func TestToggleSubTaskStatus_ResetClearsValues(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	detail := f.createActive(t, &models.Task{
		Name:        "Motor",
		Expectation: models.ExpectCompletion(),
		SubTasks: []*models.SubTask{
			{Name: "Temperature", Expectation: models.ExpectRange(10, 20, "C")},
			{Name: "Wipe down", Expectation: models.ExpectCompletion()},
		},
	})
	tempID := detail.Tasks[0].SubTasks[0].SubTask.ID
	wipeID := detail.Tasks[0].SubTasks[1].SubTask.ID

	_, err := f.inspect.RecordSubTaskResult(ctx, &ports.RecordSubTaskResultRequest{
		SubTaskID: tempID, Kind: models.ValidationKindNumeric, Value: num(12), ActorID: operatorID,
	})
	require.NoError(t, err)

	st, err := f.inspect.ToggleSubTaskStatus(ctx, tempID, operatorID)
	require.NoError(t, err)
	assert.Equal(t, models.SubTaskStatusPending, st.Status)
	assert.True(t, st.Recorded.Empty())
	assert.Nil(t, st.CompletedBy)

	_, err = f.inspect.ToggleSubTaskStatus(ctx, tempID, operatorID)
	assert.True(t, errors.Is(err, models.ErrValidation), "a valued sub-task needs a passing value first")

	st, err = f.inspect.ToggleSubTaskStatus(ctx, wipeID, operatorID)
	require.NoError(t, err)
	assert.Equal(t, models.ComplianceComplete, st.Compliance())
}

func TestRecordTaskResult_GatedBySubTasks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	detail := f.createActive(t, &models.Task{
		Name:        "Pump",
		Required:    true,
		Expectation: models.ExpectYesNo(true),
		SubTasks: []*models.SubTask{
			{Name: "Seal", Expectation: models.ExpectCompletion(), Position: 1},
			{Name: "Bearing", Expectation: models.ExpectCompletion(), Position: 2},
		},
	})
	task := detail.Tasks[0]

	_, err := f.inspect.ToggleSubTaskStatus(ctx, task.SubTasks[0].SubTask.ID, operatorID)
	require.NoError(t, err)

	_, err = f.inspect.RecordTaskResult(ctx, &ports.RecordTaskResultRequest{TaskID: task.Task.ID, Value: yes(), ActorID: operatorID})
	var gated *models.TaskGatedError
	require.True(t, errors.As(err, &gated))
	assert.Equal(t, []string{"Bearing"}, gated.PendingSubTasks)
	assert.True(t, errors.Is(err, models.ErrStateConflict))

	_, err = f.inspect.ToggleSubTaskStatus(ctx, task.SubTasks[1].SubTask.ID, operatorID)
	require.NoError(t, err)

	result, err := f.inspect.RecordTaskResult(ctx, &ports.RecordTaskResultRequest{TaskID: task.Task.ID, Value: yes(), ActorID: operatorID})
	require.NoError(t, err)
	assert.True(t, result.IsPassing)
	assert.Nil(t, result.Recorded.Numeric)
}

func TestRecordTaskResult_ValidatesValue(t *testing.T) {
	f := newFixture(t)
	detail := f.createActive(t, flatTask("Pressure", true, models.ExpectRange(1, 2, "bar")))

	_, err := f.inspect.RecordTaskResult(context.Background(), &ports.RecordTaskResultRequest{
		TaskID: detail.Tasks[0].Task.ID, Value: yes(), ActorID: operatorID,
	})
	assert.True(t, errors.Is(err, models.ErrValidation))
	assert.Equal(t, models.InspectionStatusPending, f.inspection(t, detail.Inspection.ID).Status, "rejected writes change nothing")
}

func TestRecordTaskResult_RejectsMisconfiguredTask(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	detail := f.createActive(t, flatTask("Brakes", true, models.ExpectYesNo(true)))

	// imported data can carry a numeric task without a range
	tx, err := f.db.BeginTransaction(ctx)
	require.NoError(t, err)
	broken := &models.Task{
		InspectionID: detail.Inspection.ID,
		Name:         "Oil level",
		Required:     true,
		Position:     1,
		Expectation:  models.Expectation{Kind: models.ValidationKindNumeric},
	}
	require.NoError(t, tx.GetTaskRepository().Create(ctx, broken))
	require.NoError(t, tx.Commit(ctx))

	_, err = f.inspect.RecordTaskResult(ctx, &ports.RecordTaskResultRequest{TaskID: detail.Tasks[0].Task.ID, Value: yes(), ActorID: operatorID})
	require.NoError(t, err)

	_, err = f.inspect.RecordTaskResult(ctx, &ports.RecordTaskResultRequest{TaskID: broken.ID, Value: num(15), ActorID: operatorID})
	var verr *models.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Reason, "Oil level")
	assert.Contains(t, verr.Reason, "misconfigured numeric")

	rtx, err := f.db.BeginReadOnly(ctx)
	require.NoError(t, err)
	results, err := rtx.GetResultRepository().ListByInspection(ctx, detail.Inspection.ID)
	require.NoError(t, err)
	require.NoError(t, rtx.Rollback(ctx))
	assert.Len(t, results.ForTask(broken.ID), 0, "no failing row is stored for a misconfigured task")

	_, err = f.inspect.CompleteInspection(ctx, detail.Inspection.ID, operatorID)
	var missing *models.MissingRequiredTasksError
	require.True(t, errors.As(err, &missing), "the inspection is not failed on a template defect")
	assert.Equal(t, []string{"Oil level"}, missing.Names)
	assert.Equal(t, models.InspectionStatusActive, f.inspection(t, detail.Inspection.ID).Status)
}

func TestCompleteInspection(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*fixture, *ports.InspectionDetail) {
		f := newFixture(t)
		detail := f.createActive(t,
			flatTask("Brakes", true, models.ExpectYesNo(true)),
			flatTask("Paint", false, models.ExpectYesNo(true)),
			flatTask("Oil level", true, models.ExpectRange(10, 20, "mm")),
		)
		return f, detail
	}
	record := func(t *testing.T, f *fixture, taskID int64, m models.Measurement) {
		_, err := f.inspect.RecordTaskResult(ctx, &ports.RecordTaskResultRequest{TaskID: taskID, Value: m, ActorID: operatorID})
		require.NoError(t, err)
	}

	t.Run("missing required task", func(t *testing.T) {
		f, detail := setup(t)
		record(t, f, detail.Tasks[0].Task.ID, yes())

		_, err := f.inspect.CompleteInspection(ctx, detail.Inspection.ID, operatorID)
		var missing *models.MissingRequiredTasksError
		require.True(t, errors.As(err, &missing))
		assert.Equal(t, []string{"Oil level"}, missing.Names)
		assert.Equal(t, models.InspectionStatusActive, f.inspection(t, detail.Inspection.ID).Status)
	})

	t.Run("all required passing", func(t *testing.T) {
		f, detail := setup(t)
		record(t, f, detail.Tasks[0].Task.ID, yes())
		record(t, f, detail.Tasks[2].Task.ID, num(15))
		record(t, f, detail.Tasks[1].Task.ID, no())

		inspection, err := f.inspect.CompleteInspection(ctx, detail.Inspection.ID, operatorID)
		require.NoError(t, err)
		assert.Equal(t, models.InspectionStatusCompleted, inspection.Status, "non-required failure never flips the outcome")
		require.NotNil(t, inspection.CompletedBy)
		assert.Equal(t, operatorID, *inspection.CompletedBy)
		assert.NotNil(t, inspection.CompletedDate)
		assert.Equal(t, 1, inspection.Rollup.FailingTasks)
	})

	t.Run("latest required result failing", func(t *testing.T) {
		f, detail := setup(t)
		record(t, f, detail.Tasks[0].Task.ID, yes())
		record(t, f, detail.Tasks[2].Task.ID, num(15))
		f.advance(1)
		record(t, f, detail.Tasks[2].Task.ID, num(25))

		inspection, err := f.inspect.CompleteInspection(ctx, detail.Inspection.ID, operatorID)
		require.NoError(t, err)
		assert.Equal(t, models.InspectionStatusFailed, inspection.Status)
	})

	t.Run("not active", func(t *testing.T) {
		f, detail := setup(t)
		_, err := f.inspect.CompleteInspection(ctx, detail.Inspection.ID, operatorID)
		assert.True(t, errors.Is(err, models.ErrStateConflict))
	})
}

func TestTerminalInspectionRejectsEdits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	detail := f.createActive(t, &models.Task{
		Name:        "Belt",
		Required:    true,
		Expectation: models.ExpectCompletion(),
		SubTasks:    []*models.SubTask{{Name: "Tension", Expectation: models.ExpectRange(1, 5, "mm")}},
	})
	task := detail.Tasks[0]
	stID := task.SubTasks[0].SubTask.ID

	_, err := f.inspect.RecordSubTaskResult(ctx, &ports.RecordSubTaskResultRequest{SubTaskID: stID, Kind: models.ValidationKindNumeric, Value: num(3), ActorID: operatorID})
	require.NoError(t, err)
	_, err = f.inspect.RecordTaskResult(ctx, &ports.RecordTaskResultRequest{TaskID: task.Task.ID, ActorID: operatorID})
	require.NoError(t, err)
	_, err = f.inspect.CompleteInspection(ctx, detail.Inspection.ID, operatorID)
	require.NoError(t, err)

	_, err = f.inspect.RecordTaskResult(ctx, &ports.RecordTaskResultRequest{TaskID: task.Task.ID, ActorID: operatorID})
	assert.True(t, errors.Is(err, models.ErrStateConflict))

	_, err = f.inspect.ToggleSubTaskStatus(ctx, stID, operatorID)
	assert.True(t, errors.Is(err, models.ErrStateConflict))

	date := f.now.AddDate(0, 0, 1)
	_, err = f.inspect.RescheduleInspection(ctx, &ports.RescheduleRequest{InspectionID: detail.Inspection.ID, ScheduledDate: &date, ActorID: supervisorID})
	assert.True(t, errors.Is(err, models.ErrStateConflict))

	correction := &ports.RecordSubTaskResultRequest{SubTaskID: stID, Kind: models.ValidationKindNumeric, Value: num(4), ActorID: operatorID}
	_, err = f.inspect.RecordSubTaskResult(ctx, correction)
	assert.True(t, errors.Is(err, models.ErrStateConflict), "plain edits are rejected")

	correction.Correction = true
	_, err = f.inspect.RecordSubTaskResult(ctx, correction)
	assert.True(t, errors.Is(err, models.ErrStateConflict), "operators cannot correct")

	correction.ActorID = supervisorID
	st, err := f.inspect.RecordSubTaskResult(ctx, correction)
	require.NoError(t, err)
	assert.Equal(t, models.FloatPtr(4), st.Recorded.Numeric)
	assert.Equal(t, models.InspectionStatusCompleted, f.inspection(t, detail.Inspection.ID).Status, "correction does not reopen")

	archived, err := f.inspect.ArchiveInspection(ctx, detail.Inspection.ID, supervisorID)
	require.NoError(t, err)
	assert.Equal(t, models.InspectionStatusArchived, archived.Status)

	_, err = f.inspect.RecordSubTaskResult(ctx, correction)
	assert.True(t, errors.Is(err, models.ErrStateConflict), "archived inspections take no corrections")
}

func TestCreateInspectionChecksTargets(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	missing := flatTask("Gearbox", true, models.ExpectYesNo(true))
	missing.Target = &models.TargetRef{Kind: models.TargetKindPart, ID: 404}
	_, err := f.inspect.CreateInspection(ctx, &ports.CreateInspectionRequest{Title: "x", ActorID: supervisorID, Tasks: []*models.Task{missing}})
	assert.True(t, errors.Is(err, models.ErrValidation))

	bad := flatTask("Gearbox", true, models.Expectation{Kind: models.ValidationKindNumeric, Min: models.FloatPtr(1)})
	_, err = f.inspect.CreateInspection(ctx, &ports.CreateInspectionRequest{Title: "x", ActorID: supervisorID, Tasks: []*models.Task{bad}})
	assert.True(t, errors.Is(err, models.ErrValidation))

	ok := flatTask("Gearbox", true, models.ExpectYesNo(true))
	ok.Target = &models.TargetRef{Kind: models.TargetKindDrive, ID: driveID}
	detail, err := f.inspect.CreateInspection(ctx, &ports.CreateInspectionRequest{Title: "x", ActorID: supervisorID, Tasks: []*models.Task{ok}})
	require.NoError(t, err)
	assert.Equal(t, models.InspectionStatusDraft, detail.Inspection.Status)
	require.NotNil(t, detail.Tasks[0].Target)
	assert.Equal(t, "Conveyor drive", detail.Tasks[0].Target.Name)
	assert.Len(t, detail.History, 1)
}

func TestInspectionDetailToleratesDanglingTarget(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := flatTask("Gearbox", true, models.ExpectYesNo(true))
	task.Target = &models.TargetRef{Kind: models.TargetKindDrive, ID: driveID}
	detail := f.createActive(t, task)

	f.db.Directory().RemoveEquipment(*task.Target)

	got, err := f.inspect.GetInspectionDetail(ctx, detail.Inspection.ID)
	require.NoError(t, err)
	assert.True(t, got.Tasks[0].TargetMissing)
	assert.Nil(t, got.Tasks[0].Target)
}

func TestResultHistoryIsAppendOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	detail := f.createActive(t, flatTask("Brakes", true, models.ExpectYesNo(true)))
	taskID := detail.Tasks[0].Task.ID

	for _, m := range []models.Measurement{no(), yes()} {
		_, err := f.inspect.RecordTaskResult(ctx, &ports.RecordTaskResultRequest{TaskID: taskID, Value: m, ActorID: operatorID})
		require.NoError(t, err)
		f.advance(1)
	}

	got, err := f.inspect.GetInspectionDetail(ctx, detail.Inspection.ID)
	require.NoError(t, err)
	assert.Len(t, got.Tasks[0].Results, 2)
	assert.True(t, got.Tasks[0].Latest.IsPassing)
	assert.Equal(t, 1, got.Inspection.Rollup.PassingTasks)
	assert.True(t, got.Inspection.Rollup.ReadyToComplete)
}

func TestPublishOnlyFromDraft(t *testing.T) {
	f := newFixture(t)
	detail := f.createActive(t, flatTask("Brakes", true, models.ExpectYesNo(true)))
	_, err := f.inspect.PublishInspection(context.Background(), detail.Inspection.ID, supervisorID)
	assert.True(t, errors.Is(err, models.ErrStateConflict))
}

func TestFailedCommitLeavesStateUnchanged(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	detail := f.createActive(t, flatTask("Brakes", true, models.ExpectYesNo(true)))

	failing := NewInspectionService(&failingCommitAdapter{Adapter: f.db}, f.db.GetUserDirectory(), f.db.GetEquipmentLookup())
	_, err := failing.RecordTaskResult(ctx, &ports.RecordTaskResultRequest{TaskID: detail.Tasks[0].Task.ID, Value: yes(), ActorID: operatorID})
	assert.True(t, errors.Is(err, models.ErrPersistence))

	got, err := f.inspect.GetInspectionDetail(ctx, detail.Inspection.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InspectionStatusPending, got.Inspection.Status)
	assert.Empty(t, got.Tasks[0].Results)
	assert.Equal(t, 0, got.Inspection.Rollup.TasksWithResult)
}
