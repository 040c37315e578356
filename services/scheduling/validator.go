package scheduling

import (
	"fmt"

	"vetbook/models"
)

// MinSlotDuration is the shortest working window a schedule may carry.
const MinSlotDuration = 30

// ScheduleEditReport is the outcome of checking a proposed schedule against
// a doctor's existing commitments.
type ScheduleEditReport struct {
	Valid       bool                 `json:"isValid"`
	Conflicting []models.Appointment `json:"conflictingAppointments,omitempty"`
}

var validDays = func() map[string]bool {
	m := make(map[string]bool, len(models.WeekdayKeys))
	for _, d := range models.WeekdayKeys {
		m[d] = true
	}
	return m
}()

// ValidateScheduleStructure checks a weekly schedule for internal
// consistency: known lowercase day keys, well-formed "HH:MM" strings,
// start < end, windows of at least MinSlotDuration minutes, and no two
// windows of the same day overlapping. Pairwise per day; k is small.
func ValidateScheduleStructure(schedule models.WeeklySchedule) error {
	for day, slots := range schedule {
		if !validDays[day] {
			return &ValidationError{Field: "schedule", Message: fmt.Sprintf("unknown day key %q", day)}
		}
		for i, slot := range slots {
			startM, ok := parseClock(slot.StartTime)
			if !ok {
				return &ValidationError{Field: day, Message: fmt.Sprintf("malformed start time %q", slot.StartTime)}
			}
			endM, ok := parseClock(slot.EndTime)
			if !ok {
				return &ValidationError{Field: day, Message: fmt.Sprintf("malformed end time %q", slot.EndTime)}
			}
			if startM >= endM {
				return &ValidationError{Field: day, Message: fmt.Sprintf("slot %s-%s must start before it ends", slot.StartTime, slot.EndTime)}
			}
			if endM-startM < MinSlotDuration {
				return &ValidationError{Field: day, Message: fmt.Sprintf("slot %s-%s is shorter than %d minutes", slot.StartTime, slot.EndTime, MinSlotDuration)}
			}
			for j := 0; j < i; j++ {
				otherStart := timeToMinutes(slots[j].StartTime)
				otherEnd := timeToMinutes(slots[j].EndTime)
				if startM < otherEnd && otherStart < endM {
					return &ValidationError{Field: day, Message: fmt.Sprintf("slots %s-%s and %s-%s overlap", slots[j].StartTime, slots[j].EndTime, slot.StartTime, slot.EndTime)}
				}
			}
		}
	}
	return nil
}

// ValidateScheduleEdit checks every non-cancelled appointment of the doctor
// against the proposed schedule: its weekday and time of day must fall within
// one of the NEW windows for that day. Any appointment left outside makes the
// whole edit invalid; application is all-or-nothing.
func ValidateScheduleEdit(newSchedule models.WeeklySchedule, existing []models.Appointment) ScheduleEditReport {
	var conflicting []models.Appointment
	for _, appt := range existing {
		if appt.IsCancelled() {
			continue
		}
		if !fitsSchedule(newSchedule, appt) {
			conflicting = append(conflicting, appt)
		}
	}
	return ScheduleEditReport{Valid: len(conflicting) == 0, Conflicting: conflicting}
}

func fitsSchedule(schedule models.WeeklySchedule, appt models.Appointment) bool {
	reqStart := minuteOfDay(appt.DateTime)
	reqEnd := reqStart + appt.Duration
	for _, slot := range schedule.SlotsFor(appt.DateTime) {
		if !windowActiveOn(slot, appt.DateTime) {
			continue
		}
		if reqStart >= timeToMinutes(slot.StartTime) && reqEnd <= timeToMinutes(slot.EndTime) {
			return true
		}
	}
	return false
}
