package models

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func timePtr(t time.Time) *time.Time { return &t }

func TestTemplateIsDue(t *testing.T) {
	tests := []struct {
		name        string
		template    InspectionTemplate
		date        time.Time
		hasInstance bool
		want        bool
	}{
		{
			name:     "daily",
			template: InspectionTemplate{Frequency: FrequencyDaily, Active: true, StartDate: timePtr(day(2024, 1, 1))},
			date:     day(2024, 1, 9),
			want:     true,
		},
		{
			name:     "weekly same weekday",
			template: InspectionTemplate{Frequency: FrequencyWeekly, Active: true, StartDate: timePtr(day(2024, 1, 7))},
			date:     day(2024, 1, 14),
			want:     true,
		},
		{
			name:     "weekly other weekday",
			template: InspectionTemplate{Frequency: FrequencyWeekly, Active: true, StartDate: timePtr(day(2024, 1, 7))},
			date:     day(2024, 1, 15),
			want:     false,
		},
		{
			name:     "monthly same day",
			template: InspectionTemplate{Frequency: FrequencyMonthly, Active: true, StartDate: timePtr(day(2024, 1, 15))},
			date:     day(2024, 4, 15),
			want:     true,
		},
		{
			name:     "monthly clamps to short month",
			template: InspectionTemplate{Frequency: FrequencyMonthly, Active: true, StartDate: timePtr(day(2024, 1, 31))},
			date:     day(2024, 2, 29),
			want:     true,
		},
		{
			name:     "monthly not due mid month",
			template: InspectionTemplate{Frequency: FrequencyMonthly, Active: true, StartDate: timePtr(day(2024, 1, 31))},
			date:     day(2024, 3, 30),
			want:     false,
		},
		{
			name:     "one-time without instance",
			template: InspectionTemplate{Frequency: FrequencyOneTime, Active: true},
			date:     day(2024, 5, 1),
			want:     true,
		},
		{
			name:        "one-time with instance",
			template:    InspectionTemplate{Frequency: FrequencyOneTime, Active: true},
			date:        day(2024, 5, 1),
			hasInstance: true,
			want:        false,
		},
		{
			name:     "before start",
			template: InspectionTemplate{Frequency: FrequencyDaily, Active: true, StartDate: timePtr(day(2024, 2, 1))},
			date:     day(2024, 1, 31),
			want:     false,
		},
		{
			name:     "after end",
			template: InspectionTemplate{Frequency: FrequencyDaily, Active: true, EndDate: timePtr(day(2024, 2, 1))},
			date:     day(2024, 2, 2),
			want:     false,
		},
		{
			name:     "inactive",
			template: InspectionTemplate{Frequency: FrequencyDaily},
			date:     day(2024, 2, 2),
			want:     false,
		},
		{
			name:     "weekly anchored on creation",
			template: InspectionTemplate{Frequency: FrequencyWeekly, Active: true, CreatedAt: time.Date(2024, 1, 3, 17, 0, 0, 0, time.UTC)},
			date:     day(2024, 1, 10),
			want:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.template.IsDue(tt.date, tt.hasInstance))
		})
	}
}

func TestTemplateValidate(t *testing.T) {
	tmpl := &InspectionTemplate{Name: "Weekly drive check", Frequency: FrequencyWeekly,
		StartDate: timePtr(day(2024, 1, 7)), EndDate: timePtr(day(2024, 1, 6))}
	assert.True(t, errors.Is(tmpl.Validate(), ErrValidation))

	tmpl.EndDate = timePtr(day(2024, 1, 7))
	assert.NoError(t, tmpl.Validate())

	tmpl.Frequency = "hourly"
	assert.True(t, errors.Is(tmpl.Validate(), ErrValidation))

	tmpl.Frequency = FrequencyDaily
	tmpl.Tasks = []*TemplateTask{{Name: "Pressure", Expectation: ExpectRange(5, 1, "bar")}}
	assert.True(t, errors.Is(tmpl.Validate(), ErrValidation))
}

func TestTemplateSpawn(t *testing.T) {
	assignee := int64(12)
	tmpl := &InspectionTemplate{
		ID:         5,
		Name:       "Drive check",
		Frequency:  FrequencyWeekly,
		AssignedTo: &assignee,
		CreatedBy:  3,
		Active:     true,
		Tasks: []*TemplateTask{
			{
				ID:          1,
				Name:        "Bearings",
				Expectation: ExpectYesNo(true),
				Target:      &TargetRef{Kind: TargetKindDrive, ID: 44},
				Required:    true,
				SubTasks: []*TemplateSubTask{
					{Name: "Noise", Expectation: ExpectCompletion()},
				},
			},
		},
	}

	inspection, tasks := tmpl.Spawn(time.Date(2024, 1, 14, 13, 0, 0, 0, time.UTC), testNow)
	assert.Equal(t, InspectionStatusPending, inspection.Status)
	assert.Equal(t, day(2024, 1, 14), inspection.ScheduledDate)
	require.NotNil(t, inspection.TemplateID)
	assert.Equal(t, int64(5), *inspection.TemplateID)
	assert.Equal(t, &assignee, inspection.AssignedTo)

	require.Len(t, tasks, 1)
	assert.True(t, tasks[0].Required)
	require.Len(t, tasks[0].SubTasks, 1)
	assert.Equal(t, SubTaskStatusPending, tasks[0].SubTasks[0].Status)

	// the spawned target is a copy
	tasks[0].Target.ID = 99
	assert.Equal(t, int64(44), tmpl.Tasks[0].Target.ID)
}
