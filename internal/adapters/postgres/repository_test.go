package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/hsdfat8/drivetrack/internal/domain/models"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(mockDB, "sqlmock")
	return sqlxDB, mock
}

var inspectionColumnNames = []string{
	"id", "template_id", "title", "status", "scheduled_by", "assigned_to", "completed_by",
	"scheduled_date", "completed_date", "notes", "total_tasks", "tasks_with_result", "passing_tasks",
	"failing_tasks", "required_tasks", "required_passing", "total_sub_tasks", "completed_sub_tasks",
	"ready_to_complete", "created_at", "updated_at",
}

func inspectionRows(id int64, status models.InspectionStatus, scheduled time.Time) *sqlmock.Rows {
	assignee := int64(7)
	return sqlmock.NewRows(inspectionColumnNames).AddRow(
		id, nil, "Line 3 weekly", string(status), nil, assignee, nil,
		scheduled, nil, nil, 3, 1, 1, 0, 2, 1, 4, 2,
		false, scheduled, scheduled,
	)
}

func TestInspectionRepository_GetByID(t *testing.T) {
	db, mock := setupTestDB(t)
	defer db.Close()

	repo := NewInspectionRepository(db)
	scheduled := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT (.+) FROM inspections WHERE id = (.+)").
		WithArgs(int64(42)).
		WillReturnRows(inspectionRows(42, models.InspectionStatusActive, scheduled))

	inspection, err := repo.GetByID(context.Background(), 42)

	require.NoError(t, err)
	assert.Equal(t, int64(42), inspection.ID)
	assert.Equal(t, models.InspectionStatusActive, inspection.Status)
	assert.Equal(t, scheduled, inspection.ScheduledDate)
	require.NotNil(t, inspection.AssignedTo)
	assert.Equal(t, int64(7), *inspection.AssignedTo)
	assert.Equal(t, 3, inspection.Rollup.TotalTasks)
	assert.Equal(t, 2, inspection.Rollup.RequiredTasks)
	assert.Equal(t, 2, inspection.Rollup.CompletedSubTask)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInspectionRepository_GetByID_NotFound(t *testing.T) {
	db, mock := setupTestDB(t)
	defer db.Close()

	repo := NewInspectionRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM inspections WHERE id = (.+)").
		WithArgs(int64(99)).
		WillReturnError(sql.ErrNoRows)

	inspection, err := repo.GetByID(context.Background(), 99)

	assert.Nil(t, inspection)
	assert.True(t, errors.Is(err, models.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInspectionRepository_GetForUpdate_Locks(t *testing.T) {
	db, mock := setupTestDB(t)
	defer db.Close()

	repo := NewInspectionRepository(db)
	scheduled := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT (.+) FROM inspections WHERE id = (.+) FOR UPDATE").
		WithArgs(int64(42)).
		WillReturnRows(inspectionRows(42, models.InspectionStatusPending, scheduled))

	_, err := repo.GetForUpdate(context.Background(), 42)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInspectionRepository_CreateScheduled(t *testing.T) {
	templateID := int64(5)
	newInspection := func() *models.Inspection {
		return &models.Inspection{
			TemplateID:    &templateID,
			Title:         "Daily walkdown",
			Status:        models.InspectionStatusPending,
			ScheduledDate: time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC),
		}
	}

	t.Run("inserted", func(t *testing.T) {
		db, mock := setupTestDB(t)
		defer db.Close()

		mock.ExpectPrepare("INSERT INTO inspections (.+) ON CONFLICT \\(template_id, scheduled_date\\)").
			ExpectQuery().
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))

		inspection := newInspection()
		inserted, err := NewInspectionRepository(db).CreateScheduled(context.Background(), inspection)

		require.NoError(t, err)
		assert.True(t, inserted)
		assert.Equal(t, int64(11), inspection.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("already exists", func(t *testing.T) {
		db, mock := setupTestDB(t)
		defer db.Close()

		mock.ExpectPrepare("INSERT INTO inspections").
			ExpectQuery().
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		inspection := newInspection()
		inserted, err := NewInspectionRepository(db).CreateScheduled(context.Background(), inspection)

		require.NoError(t, err)
		assert.False(t, inserted)
		assert.Zero(t, inspection.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestInspectionRepository_Update(t *testing.T) {
	inspection := &models.Inspection{ID: 42, Status: models.InspectionStatusCompleted}

	t.Run("success", func(t *testing.T) {
		db, mock := setupTestDB(t)
		defer db.Close()

		mock.ExpectExec("UPDATE inspections").
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, NewInspectionRepository(db).Update(context.Background(), inspection))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		db, mock := setupTestDB(t)
		defer db.Close()

		mock.ExpectExec("UPDATE inspections").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := NewInspectionRepository(db).Update(context.Background(), inspection)
		assert.True(t, errors.Is(err, models.ErrNotFound))
	})

	t.Run("database error", func(t *testing.T) {
		db, mock := setupTestDB(t)
		defer db.Close()

		mock.ExpectExec("UPDATE inspections").
			WillReturnError(errors.New("connection reset"))

		err := NewInspectionRepository(db).Update(context.Background(), inspection)
		assert.Error(t, err)
		assert.False(t, errors.Is(err, models.ErrNotFound))
	})
}

func TestInspectionRepository_ListAssignedBetween(t *testing.T) {
	db, mock := setupTestDB(t)
	defer db.Close()

	from := time.Date(2024, 2, 3, 10, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT (.+) FROM inspections WHERE assigned_to = (.+)").
		WithArgs(int64(7), time.Date(2024, 2, 3, 0, 0, 0, 0, time.UTC), to).
		WillReturnRows(inspectionRows(1, models.InspectionStatusCompleted, to))

	inspections, err := NewInspectionRepository(db).ListAssignedBetween(context.Background(), 7, from, to)

	require.NoError(t, err)
	assert.Len(t, inspections, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubTaskRepository_GetByID(t *testing.T) {
	db, mock := setupTestDB(t)
	defer db.Close()

	updated := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{
		"id", "task_id", "name", "position", "validation_type", "expected_boolean", "expected_min",
		"expected_max", "unit", "status", "boolean_value", "numeric_value", "notes", "completed_by",
		"completed_at", "updated_at",
	}).AddRow(3, 2, "Temperature", 0, "numeric", nil, 10.0, 20.0, "C", "completed", nil, 15.0, nil, int64(7), updated, updated)

	mock.ExpectQuery("SELECT (.+) FROM sub_tasks WHERE id = (.+)").
		WithArgs(int64(3)).
		WillReturnRows(rows)

	st, err := NewSubTaskRepository(db).GetByID(context.Background(), 3)

	require.NoError(t, err)
	assert.Equal(t, models.ValidationKindNumeric, st.Expectation.Kind)
	assert.True(t, st.Expectation.Configured())
	require.NotNil(t, st.Recorded.Numeric)
	assert.Equal(t, 15.0, *st.Recorded.Numeric)
	assert.Nil(t, st.Recorded.Boolean)
	assert.Equal(t, models.CompliancePassing, st.Compliance())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResultRepository_Append(t *testing.T) {
	db, mock := setupTestDB(t)
	defer db.Close()

	mock.ExpectPrepare("INSERT INTO task_results").
		ExpectQuery().
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(9))

	result := &models.Result{InspectionID: 1, TaskID: 2, PerformedBy: 7, Recorded: models.Measurement{Boolean: models.BoolPtr(true)}, IsPassing: true}
	err := NewResultRepository(db).Append(context.Background(), result)

	require.NoError(t, err)
	assert.Equal(t, int64(9), result.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResultRepository_LastRecordedBy(t *testing.T) {
	t.Run("no results", func(t *testing.T) {
		db, mock := setupTestDB(t)
		defer db.Close()

		mock.ExpectQuery("SELECT MAX\\(recorded_at\\) FROM task_results").
			WithArgs(int64(7)).
			WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(nil))

		last, err := NewResultRepository(db).LastRecordedBy(context.Background(), 7)
		require.NoError(t, err)
		assert.Nil(t, last)
	})

	t.Run("has results", func(t *testing.T) {
		db, mock := setupTestDB(t)
		defer db.Close()

		at := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
		mock.ExpectQuery("SELECT MAX\\(recorded_at\\) FROM task_results").
			WithArgs(int64(7)).
			WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(at))

		last, err := NewResultRepository(db).LastRecordedBy(context.Background(), 7)
		require.NoError(t, err)
		require.NotNil(t, last)
		assert.Equal(t, at, *last)
	})
}

func TestHistoryRepository_GetHistoryByInspection(t *testing.T) {
	db, mock := setupTestDB(t)
	defer db.Close()

	at := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{
		"id", "inspection_id", "change_type", "changed_at", "changed_by", "previous_status", "new_status", "details",
	}).
		AddRow(1, 42, "CREATE", at, 2, nil, "draft", nil).
		AddRow(2, 42, "TRANSITION", at, 2, "draft", "pending", nil)

	mock.ExpectQuery("SELECT (.+) FROM inspection_history WHERE inspection_id = (.+) ORDER BY changed_at, id OFFSET (.+)").
		WithArgs(int64(42), 0).
		WillReturnRows(rows)

	history, err := NewHistoryRepository(db).GetHistoryByInspection(context.Background(), 42, 0, 0)

	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, models.ChangeTypeTransition, history[1].ChangeType)
	require.NotNil(t, history[1].PreviousStatus)
	assert.Equal(t, models.InspectionStatusDraft, *history[1].PreviousStatus)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMaintenanceRepository_GetByID_DecodesChecklist(t *testing.T) {
	db, mock := setupTestDB(t)
	defer db.Close()

	at := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{
		"id", "target_kind", "target_id", "title", "description", "status", "checklist",
		"performed_by", "scheduled_date", "completed_at", "created_at", "updated_at",
	}).AddRow(4, "drive", 10, "Quarterly service", nil, "in_progress",
		`[{"id":"a","text":"Grease bearings","status":"completed"},{"id":"b","text":"Check belt","status":"pending"}]`,
		nil, nil, nil, at, at)

	mock.ExpectQuery("SELECT (.+) FROM maintenance_records WHERE id = (.+)").
		WithArgs(int64(4)).
		WillReturnRows(rows)

	record, err := NewMaintenanceRepository(db).GetByID(context.Background(), 4)

	require.NoError(t, err)
	require.Len(t, record.Checklist, 2)
	assert.Equal(t, models.ChecklistItemCompleted, record.Checklist[0].Status)
	require.NotNil(t, record.Target)
	assert.Equal(t, models.TargetRef{Kind: models.TargetKindDrive, ID: 10}, *record.Target)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMaintenanceRepository_ListChecklistPayloads(t *testing.T) {
	db, mock := setupTestDB(t)
	defer db.Close()

	mock.ExpectQuery("SELECT id, checklist FROM maintenance_records").
		WillReturnRows(sqlmock.NewRows([]string{"id", "checklist"}).
			AddRow(1, `[]`).
			AddRow(2, `{broken`))

	payloads, err := NewMaintenanceRepository(db).ListChecklistPayloads(context.Background())

	require.NoError(t, err)
	assert.Equal(t, map[int64][]byte{1: []byte(`[]`), 2: []byte(`{broken`)}, payloads)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPerformanceRepository_Upsert(t *testing.T) {
	db, mock := setupTestDB(t)
	defer db.Close()

	mock.ExpectPrepare("INSERT INTO operator_performance (.+) ON CONFLICT \\(user_id, period_start, period_end\\) DO UPDATE").
		ExpectQuery().
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))

	snapshot := &models.OperatorPerformance{UserID: 7, Status: models.PerformanceActive}
	err := NewPerformanceRepository(db).Upsert(context.Background(), snapshot)

	require.NoError(t, err)
	assert.Equal(t, int64(3), snapshot.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEquipmentLookup(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		db, mock := setupTestDB(t)
		defer db.Close()

		at := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
		mock.ExpectQuery("FROM parts WHERE id = (.+)").
			WithArgs(int64(5)).
			WillReturnRows(sqlmock.NewRows([]string{"kind", "id", "name", "serial_number", "drive_id", "updated_at"}).
				AddRow("part", 5, "Bearing", nil, 10, at))

		equipment, found, err := NewEquipmentLookup(db).Lookup(context.Background(), models.TargetRef{Kind: models.TargetKindPart, ID: 5})
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, "Bearing", equipment.Name)
		require.NotNil(t, equipment.DriveID)
		assert.Equal(t, int64(10), *equipment.DriveID)
	})

	t.Run("deleted", func(t *testing.T) {
		db, mock := setupTestDB(t)
		defer db.Close()

		mock.ExpectQuery("FROM drives WHERE id = (.+)").
			WithArgs(int64(10)).
			WillReturnError(sql.ErrNoRows)

		equipment, found, err := NewEquipmentLookup(db).Lookup(context.Background(), models.TargetRef{Kind: models.TargetKindDrive, ID: 10})
		require.NoError(t, err)
		assert.False(t, found)
		assert.Nil(t, equipment)
	})
}

func TestPostgresTransaction_RollbackAfterCommit(t *testing.T) {
	db, mock := setupTestDB(t)
	defer db.Close()

	adapter := NewPostgresAdapterWithDB(db, nil)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE sub_tasks").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := adapter.BeginTransaction(ctx)
	require.NoError(t, err)
	err = tx.GetSubTaskRepository().Update(ctx, &models.SubTask{ID: 3, Status: models.SubTaskStatusPending})
	require.NoError(t, err)
	require.NoError(t, tx.Commit(ctx))
	assert.NoError(t, tx.Rollback(ctx), "rollback after commit is a no-op")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresTransaction_Rollback(t *testing.T) {
	db, mock := setupTestDB(t)
	defer db.Close()

	adapter := NewPostgresAdapterWithDB(db, nil)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectRollback()

	tx, err := adapter.BeginReadOnly(ctx)
	require.NoError(t, err)
	assert.NoError(t, tx.Rollback(ctx))
	assert.NoError(t, tx.Rollback(ctx))
	assert.NoError(t, mock.ExpectationsWereMet())
}
