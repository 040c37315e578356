package scheduling

import (
	"sort"
	"time"

	"vetbook/models"
)

// DefaultGranularity is the slot spacing in minutes when none is configured.
const DefaultGranularity = 30

// AvailableSlots expands the doctor's weekly schedule into concrete bookable
// start times over horizonDays starting today. A slot is kept when it sits
// inside a working window, is strictly in the future (an instant equal to now
// counts as past), and its granularity-sized interval overlaps no existing
// non-cancelled appointment. The result is sorted ascending.
func AvailableSlots(doc models.Doctor, existing []models.Appointment, now time.Time, horizonDays, granularity int) []time.Time {
	if granularity <= 0 {
		granularity = DefaultGranularity
	}

	var slots []time.Time
	for offset := 0; offset < horizonDays; offset++ {
		day := now.AddDate(0, 0, offset)
		for _, window := range doc.Schedule.SlotsFor(day) {
			if !windowActiveOn(window, day) {
				continue
			}
			startM := timeToMinutes(window.StartTime)
			endM := timeToMinutes(window.EndTime)
			for _, mark := range minuteMarks(startM, endM, granularity) {
				t := clockAt(day, mark)
				if !t.After(now) {
					continue
				}
				if slotBlocked(doc.ID, t, granularity, existing) {
					continue
				}
				slots = append(slots, t)
			}
		}
	}

	sort.Slice(slots, func(i, j int) bool { return slots[i].Before(slots[j]) })
	return slots
}

// CountAvailableSlots, HasAvailability and NextAvailableSlot are views over
// the same expansion, not separate algorithms.

func CountAvailableSlots(doc models.Doctor, existing []models.Appointment, now time.Time, horizonDays, granularity int) int {
	return len(AvailableSlots(doc, existing, now, horizonDays, granularity))
}

func HasAvailability(doc models.Doctor, existing []models.Appointment, now time.Time, horizonDays, granularity int) bool {
	return len(AvailableSlots(doc, existing, now, horizonDays, granularity)) > 0
}

func NextAvailableSlot(doc models.Doctor, existing []models.Appointment, now time.Time, horizonDays, granularity int) (time.Time, bool) {
	slots := AvailableSlots(doc, existing, now, horizonDays, granularity)
	if len(slots) == 0 {
		return time.Time{}, false
	}
	return slots[0], true
}

func slotBlocked(doctorID string, start time.Time, granularity int, existing []models.Appointment) bool {
	end := start.Add(time.Duration(granularity) * time.Minute)
	for _, appt := range existing {
		if appt.DoctorID != doctorID || appt.IsCancelled() {
			continue
		}
		if overlaps(start, end, appt.DateTime, appt.End()) {
			return true
		}
	}
	return false
}

// windowActiveOn applies the window's recurrence pattern to a concrete date.
// A window without a pattern recurs every week. Bi-weekly windows follow ISO
// week parity, monthly ones the first occurrence of the weekday in the month,
// and an end date cuts recurrence off entirely.
func windowActiveOn(window models.TimeSlot, day time.Time) bool {
	if !window.Recurring || window.Pattern == nil {
		return true
	}
	p := window.Pattern
	if p.EndDate != nil && day.After(*p.EndDate) {
		return false
	}
	switch p.Frequency {
	case models.FrequencyBiWeekly:
		interval := p.Interval
		if interval <= 0 {
			interval = 1
		}
		_, week := day.ISOWeek()
		return week%(2*interval) == 0
	case models.FrequencyMonthly:
		return day.Day() <= 7
	default: // weekly
		return true
	}
}
