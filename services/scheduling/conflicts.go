package scheduling

import (
	"time"

	"vetbook/models"
)

// FindConflicts returns every existing appointment that blocks the candidate:
// same doctor, neither side cancelled, id not excluded (the reschedule case),
// and overlapping [DateTime, DateTime+Duration) intervals. Pure; callers
// decide what to do with the result.
func FindConflicts(candidate models.Appointment, existing []models.Appointment, excludeID string) []models.Appointment {
	if candidate.IsCancelled() {
		return nil
	}
	candStart := candidate.DateTime
	candEnd := candidate.End()

	var conflicts []models.Appointment
	for _, appt := range existing {
		if appt.DoctorID != candidate.DoctorID {
			continue
		}
		if appt.IsCancelled() {
			continue
		}
		if excludeID != "" && appt.ID == excludeID {
			continue
		}
		if overlaps(candStart, candEnd, appt.DateTime, appt.End()) {
			conflicts = append(conflicts, appt)
		}
	}
	return conflicts
}

// WithinSchedule reports whether the requested interval falls entirely inside
// one working window of the doctor's schedule for that weekday, with the
// window's recurrence pattern active on that date. A request spanning two
// adjacent windows is rejected even if they are contiguous.
func WithinSchedule(doc models.Doctor, dateTime time.Time, duration int) bool {
	reqStart := minuteOfDay(dateTime)
	reqEnd := reqStart + duration

	for _, slot := range doc.Schedule.SlotsFor(dateTime) {
		if !windowActiveOn(slot, dateTime) {
			continue
		}
		startM := timeToMinutes(slot.StartTime)
		endM := timeToMinutes(slot.EndTime)
		if reqStart >= startM && reqEnd <= endM {
			return true
		}
	}
	return false
}
