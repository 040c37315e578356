package scheduling

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vetbook/models"
)

func TestValidateScheduleStructure(t *testing.T) {
	valid := models.WeeklySchedule{
		"monday": {
			{StartTime: "09:00", EndTime: "12:00"},
			{StartTime: "13:00", EndTime: "17:00"},
		},
		"friday": {{StartTime: "08:30", EndTime: "12:30"}},
	}
	assert.NoError(t, ValidateScheduleStructure(valid))
}

func TestValidateScheduleStructureRejections(t *testing.T) {
	cases := []struct {
		name     string
		schedule models.WeeklySchedule
	}{
		{"unknown day", models.WeeklySchedule{
			"funday": {{StartTime: "09:00", EndTime: "12:00"}},
		}},
		{"capitalized day", models.WeeklySchedule{
			"Monday": {{StartTime: "09:00", EndTime: "12:00"}},
		}},
		{"malformed start", models.WeeklySchedule{
			"monday": {{StartTime: "9am", EndTime: "12:00"}},
		}},
		{"malformed end", models.WeeklySchedule{
			"monday": {{StartTime: "09:00", EndTime: "noon"}},
		}},
		{"start after end", models.WeeklySchedule{
			"monday": {{StartTime: "12:00", EndTime: "09:00"}},
		}},
		{"zero length", models.WeeklySchedule{
			"monday": {{StartTime: "09:00", EndTime: "09:00"}},
		}},
		{"shorter than minimum", models.WeeklySchedule{
			"monday": {{StartTime: "09:00", EndTime: "09:15"}},
		}},
		{"overlapping windows", models.WeeklySchedule{
			"monday": {
				{StartTime: "09:00", EndTime: "12:00"},
				{StartTime: "11:00", EndTime: "14:00"},
			},
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateScheduleStructure(tc.schedule)
			require.Error(t, err)
			var validationErr *ValidationError
			assert.ErrorAs(t, err, &validationErr)
		})
	}
}

func TestValidateScheduleStructureTouchingWindowsAllowed(t *testing.T) {
	schedule := models.WeeklySchedule{
		"monday": {
			{StartTime: "09:00", EndTime: "12:00"},
			{StartTime: "12:00", EndTime: "15:00"},
		},
	}
	assert.NoError(t, ValidateScheduleStructure(schedule))
}

func TestValidateScheduleEditRemovingBookedDay(t *testing.T) {
	// One future Monday appointment; the new schedule drops monday entirely.
	existing := []models.Appointment{scheduledAppt("a1", at(10, 0), 30)}
	newSchedule := models.WeeklySchedule{
		"tuesday": {{StartTime: "09:00", EndTime: "17:00"}},
	}

	report := ValidateScheduleEdit(newSchedule, existing)
	assert.False(t, report.Valid)
	require.Len(t, report.Conflicting, 1)
	assert.Equal(t, "a1", report.Conflicting[0].ID)
}

func TestValidateScheduleEditShrunkWindow(t *testing.T) {
	// The 10:00 appointment survives a shrink to 10:00-12:00 but not 10:30-12:00.
	existing := []models.Appointment{scheduledAppt("a1", at(10, 0), 30)}

	ok := ValidateScheduleEdit(models.WeeklySchedule{
		"monday": {{StartTime: "10:00", EndTime: "12:00"}},
	}, existing)
	assert.True(t, ok.Valid)

	bad := ValidateScheduleEdit(models.WeeklySchedule{
		"monday": {{StartTime: "10:30", EndTime: "12:00"}},
	}, existing)
	assert.False(t, bad.Valid)
	assert.Len(t, bad.Conflicting, 1)
}

func TestValidateScheduleEditExpiredRecurrence(t *testing.T) {
	// The proposed monday window's recurrence ends before the existing
	// monday appointment, so that appointment is stranded.
	existing := []models.Appointment{scheduledAppt("a1", at(10, 0), 30)}
	end := sundayEve
	report := ValidateScheduleEdit(models.WeeklySchedule{
		"monday": {{
			StartTime: "09:00",
			EndTime:   "12:00",
			Recurring: true,
			Pattern:   &models.RecurringPattern{Frequency: models.FrequencyWeekly, EndDate: &end},
		}},
	}, existing)
	assert.False(t, report.Valid)
	require.Len(t, report.Conflicting, 1)
	assert.Equal(t, "a1", report.Conflicting[0].ID)
}

func TestValidateScheduleEditIgnoresCancelled(t *testing.T) {
	cancelled := scheduledAppt("a1", at(10, 0), 30)
	cancelled.Status = models.StatusCancelled

	report := ValidateScheduleEdit(models.WeeklySchedule{
		"tuesday": {{StartTime: "09:00", EndTime: "17:00"}},
	}, []models.Appointment{cancelled})
	assert.True(t, report.Valid)
	assert.Empty(t, report.Conflicting)
}

func TestValidateScheduleEditEmptyCommitments(t *testing.T) {
	report := ValidateScheduleEdit(models.WeeklySchedule{}, nil)
	assert.True(t, report.Valid)
}
