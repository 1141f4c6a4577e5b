package models

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInspectionStatusTransitions(t *testing.T) {
	tests := []struct {
		from InspectionStatus
		to   InspectionStatus
		ok   bool
	}{
		{InspectionStatusDraft, InspectionStatusPending, true},
		{InspectionStatusDraft, InspectionStatusActive, true},
		{InspectionStatusPending, InspectionStatusActive, true},
		{InspectionStatusActive, InspectionStatusCompleted, true},
		{InspectionStatusActive, InspectionStatusFailed, true},
		{InspectionStatusCompleted, InspectionStatusArchived, true},
		{InspectionStatusFailed, InspectionStatusArchived, true},
		{InspectionStatusDraft, InspectionStatusCompleted, false},
		{InspectionStatusPending, InspectionStatusCompleted, false},
		{InspectionStatusActive, InspectionStatusDraft, false},
		{InspectionStatusActive, InspectionStatusArchived, false},
		{InspectionStatusCompleted, InspectionStatusActive, false},
		{InspectionStatusArchived, InspectionStatusCompleted, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			i := &Inspection{ID: 1, Status: tt.from}
			err := i.TransitionTo(tt.to, testNow)
			if tt.ok {
				require.NoError(t, err)
				assert.Equal(t, tt.to, i.Status)
				return
			}
			assert.True(t, errors.Is(err, ErrStateConflict))
			assert.Equal(t, tt.from, i.Status)
		})
	}
}

func TestInspectionEnsureEditable(t *testing.T) {
	for _, s := range []InspectionStatus{InspectionStatusCompleted, InspectionStatusFailed, InspectionStatusArchived} {
		i := &Inspection{ID: 3, Status: s}
		assert.True(t, errors.Is(i.EnsureEditable("record result on"), ErrStateConflict), s)
	}
	for _, s := range []InspectionStatus{InspectionStatusDraft, InspectionStatusPending, InspectionStatusActive} {
		i := &Inspection{ID: 3, Status: s}
		assert.NoError(t, i.EnsureEditable("record result on"), s)
	}
}

func TestPromoteOnFirstResult(t *testing.T) {
	i := &Inspection{Status: InspectionStatusPending}
	assert.True(t, i.PromoteOnFirstResult(testNow))
	assert.Equal(t, InspectionStatusActive, i.Status)
	assert.False(t, i.PromoteOnFirstResult(testNow))
}

func result(taskID int64, passing bool, at time.Time) *Result {
	return &Result{TaskID: taskID, IsPassing: passing, RecordedAt: at}
}

func TestCompletionOutcome(t *testing.T) {
	tasks := []*Task{
		{ID: 1, Name: "Brakes", Required: true, Position: 1},
		{ID: 2, Name: "Paint", Required: false, Position: 2},
		{ID: 3, Name: "Oil", Required: true, Position: 0},
	}

	t.Run("missing required results lists names", func(t *testing.T) {
		_, err := CompletionOutcome(9, tasks, ResultLog{result(1, true, testNow)}.Latest())
		var missing *MissingRequiredTasksError
		require.True(t, errors.As(err, &missing))
		assert.Equal(t, []string{"Oil"}, missing.Names)

		_, err = CompletionOutcome(9, tasks, nil)
		require.True(t, errors.As(err, &missing))
		assert.Equal(t, []string{"Oil", "Brakes"}, missing.Names)
	})

	t.Run("all required passing", func(t *testing.T) {
		status, err := CompletionOutcome(9, tasks, ResultLog{result(1, true, testNow), result(3, true, testNow)}.Latest())
		require.NoError(t, err)
		assert.Equal(t, InspectionStatusCompleted, status)
	})

	t.Run("non-required failure does not flip outcome", func(t *testing.T) {
		log := ResultLog{result(1, true, testNow), result(3, true, testNow), result(2, false, testNow)}
		status, err := CompletionOutcome(9, tasks, log.Latest())
		require.NoError(t, err)
		assert.Equal(t, InspectionStatusCompleted, status)
	})

	t.Run("latest required result failing", func(t *testing.T) {
		log := ResultLog{
			result(1, false, testNow.Add(time.Minute)),
			result(1, true, testNow),
			result(3, true, testNow),
		}
		status, err := CompletionOutcome(9, tasks, log.Latest())
		require.NoError(t, err)
		assert.Equal(t, InspectionStatusFailed, status)
	})
}

func TestComputeRollup(t *testing.T) {
	done := &SubTask{ID: 1, Status: SubTaskStatusCompleted}
	open := &SubTask{ID: 2, Status: SubTaskStatusPending}
	tasks := []*Task{
		{ID: 1, Required: true, SubTasks: []*SubTask{done, open}},
		{ID: 2, Required: false},
	}

	r := ComputeRollup(tasks, ResultLog{result(2, false, testNow)}.Latest())
	assert.Equal(t, Rollup{
		TotalTasks:       2,
		TasksWithResult:  1,
		FailingTasks:     1,
		RequiredTasks:    1,
		TotalSubTasks:    2,
		CompletedSubTask: 1,
	}, r)

	r = ComputeRollup(tasks, ResultLog{result(1, true, testNow)}.Latest())
	assert.True(t, r.ReadyToComplete)
	assert.Equal(t, 1, r.RequiredPassing)
}

func TestResultLogLatest(t *testing.T) {
	log := ResultLog{
		{ID: 2, TaskID: 1, IsPassing: false, RecordedAt: testNow},
		{ID: 1, TaskID: 1, IsPassing: true, RecordedAt: testNow},
		{ID: 3, TaskID: 2, IsPassing: true, RecordedAt: testNow.Add(-time.Hour)},
	}
	latest := log.Latest()
	assert.Equal(t, int64(2), latest[1].ID)
	assert.Len(t, log.ForTask(1), 2)
	assert.Equal(t, int64(1), log.ForTask(1)[0].ID)
}

func TestTaskCheckGate(t *testing.T) {
	task := &Task{ID: 4, Name: "Pump", SubTasks: []*SubTask{
		{ID: 1, Name: "seal", Position: 1, Status: SubTaskStatusPending},
		{ID: 2, Name: "bearing", Position: 0, Status: SubTaskStatusCompleted},
	}}

	err := task.CheckGate()
	var gated *TaskGatedError
	require.True(t, errors.As(err, &gated))
	assert.Equal(t, []string{"seal"}, gated.PendingSubTasks)
	assert.True(t, errors.Is(err, ErrStateConflict))

	task.SubTasks[0].Status = SubTaskStatusCompleted
	assert.NoError(t, task.CheckGate())

	flat := &Task{ID: 5, Name: "Flat"}
	assert.NoError(t, flat.CheckGate())
}

func TestTaskCheckConfigured(t *testing.T) {
	ok := &Task{ID: 1, Name: "Oil level", Expectation: ExpectRange(10, 20, "mm")}
	assert.NoError(t, ok.CheckConfigured())

	noRange := &Task{ID: 2, Name: "Oil level", Expectation: Expectation{Kind: ValidationKindNumeric}}
	err := noRange.CheckConfigured()
	assert.True(t, errors.Is(err, ErrValidation))
	assert.Contains(t, err.Error(), "misconfigured numeric")

	noBoolean := &Task{ID: 3, Name: "Guard fitted", Expectation: Expectation{Kind: ValidationKindYesNo}}
	assert.Error(t, noBoolean.CheckConfigured())

	assert.NoError(t, (&Task{ID: 4, Name: "Wipe down", Expectation: ExpectCompletion()}).CheckConfigured())
}

func TestDateOf(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*3600)
	d := DateOf(time.Date(2024, 1, 7, 1, 30, 0, 0, loc))
	assert.Equal(t, time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC), d)
}
