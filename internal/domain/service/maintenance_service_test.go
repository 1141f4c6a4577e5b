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

func TestCreateRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("without checklist", func(t *testing.T) {
		record, err := f.maint.CreateRecord(ctx, &ports.CreateMaintenanceRequest{Title: "Replace belt"})
		require.NoError(t, err)
		assert.Equal(t, models.MaintenanceStatusPending, record.Status)

		record, err = f.maint.SetStatus(ctx, record.ID, models.MaintenanceStatusCompleted)
		require.NoError(t, err)
		assert.Equal(t, models.MaintenanceStatusCompleted, record.Status)
		assert.NotNil(t, record.CompletedAt)
	})

	t.Run("with checklist", func(t *testing.T) {
		record, err := f.maint.CreateRecord(ctx, &ports.CreateMaintenanceRequest{
			Title:  "Quarterly service",
			Target: &models.TargetRef{Kind: models.TargetKindDrive, ID: driveID},
			Checklist: []ports.ChecklistItemInput{
				{Text: "Grease bearings"},
				{Text: "Check belt tension", Status: models.ChecklistItemCompleted},
			},
		})
		require.NoError(t, err)
		require.Len(t, record.Checklist, 2)
		assert.NotEmpty(t, record.Checklist[0].ID)
		assert.NotEqual(t, record.Checklist[0].ID, record.Checklist[1].ID)
		assert.Equal(t, models.ChecklistItemPending, record.Checklist[0].Status)
		assert.Equal(t, models.MaintenanceStatusInProgress, record.Status)

		stored, err := f.maint.GetRecord(ctx, record.ID)
		require.NoError(t, err)
		assert.Equal(t, record.Checklist, stored.Checklist)
	})

	t.Run("validation", func(t *testing.T) {
		_, err := f.maint.CreateRecord(ctx, &ports.CreateMaintenanceRequest{})
		assert.True(t, errors.Is(err, models.ErrValidation))

		_, err = f.maint.CreateRecord(ctx, &ports.CreateMaintenanceRequest{
			Title:  "Unknown part",
			Target: &models.TargetRef{Kind: models.TargetKindPart, ID: 404},
		})
		assert.True(t, errors.Is(err, models.ErrValidation))
	})
}

func TestChecklistDrivesStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	record, err := f.maint.CreateRecord(ctx, &ports.CreateMaintenanceRequest{
		Title: "Quarterly service",
		Checklist: []ports.ChecklistItemInput{
			{ID: "grease", Text: "Grease bearings"},
			{ID: "belt", Text: "Check belt tension"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, models.MaintenanceStatusPending, record.Status)

	_, err = f.maint.SetStatus(ctx, record.ID, models.MaintenanceStatusCompleted)
	assert.True(t, errors.Is(err, models.ErrStateConflict), "checklist-driven records reject manual status")

	record, err = f.maint.UpdateChecklistItem(ctx, &ports.UpdateChecklistItemRequest{RecordID: record.ID, ItemID: "grease", Status: models.ChecklistItemCompleted})
	require.NoError(t, err)
	assert.Equal(t, models.MaintenanceStatusInProgress, record.Status)

	record, err = f.maint.UpdateChecklistItem(ctx, &ports.UpdateChecklistItemRequest{RecordID: record.ID, ItemID: "belt", Status: models.ChecklistItemCompleted})
	require.NoError(t, err)
	assert.Equal(t, models.MaintenanceStatusCompleted, record.Status)
	assert.NotNil(t, record.CompletedAt)

	_, err = f.maint.UpdateChecklistItem(ctx, &ports.UpdateChecklistItemRequest{RecordID: record.ID, ItemID: "missing", Status: models.ChecklistItemCompleted})
	assert.True(t, errors.Is(err, models.ErrValidation))

	record, err = f.maint.ReplaceChecklist(ctx, record.ID, []ports.ChecklistItemInput{{ID: "new", Text: "Inspect coupling"}})
	require.NoError(t, err)
	assert.Equal(t, models.MaintenanceStatusPending, record.Status)
	assert.Nil(t, record.CompletedAt)

	_, err = f.maint.SetStatus(ctx, 999, models.MaintenanceStatusCompleted)
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestMaintenanceReport(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.maint.CreateRecord(ctx, &ports.CreateMaintenanceRequest{
		Title: "Quarterly service",
		Checklist: []ports.ChecklistItemInput{
			{Text: "Grease bearings", Status: models.ChecklistItemCompleted},
			{Text: "Check belt tension", Status: models.ChecklistItemFailed},
			{Text: "Clean filter"},
		},
	})
	require.NoError(t, err)
	broken, err := f.maint.CreateRecord(ctx, &ports.CreateMaintenanceRequest{Title: "Replace belt"})
	require.NoError(t, err)
	f.db.SeedChecklistPayload(broken.ID, []byte(`[{"id": "a", "text":`))

	report, err := f.maint.Report(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Records)
	assert.Equal(t, 1, report.Malformed)
	assert.Equal(t, models.ChecklistSummary{Total: 3, Completed: 1, Failed: 1, Pending: 1}, report.Totals)
}
