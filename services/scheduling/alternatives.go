package scheduling

import (
	"time"

	"vetbook/models"
)

// SuggestAlternatives proposes up to max conflict-free start times on the
// same calendar day as the preferred time, drawn from the doctor's working
// windows at 30-minute granularity. Candidates are chronological and the
// search stops as soon as max is reached.
func SuggestAlternatives(doc models.Doctor, preferred time.Time, duration int, existing []models.Appointment, max int, now time.Time) []time.Time {
	if max <= 0 {
		return nil
	}

	var suggestions []time.Time
	for _, window := range doc.Schedule.SlotsFor(preferred) {
		if !windowActiveOn(window, preferred) {
			continue
		}
		startM := timeToMinutes(window.StartTime)
		endM := timeToMinutes(window.EndTime)
		for m := startM; m+duration <= endM; m += DefaultGranularity {
			t := clockAt(preferred, m)
			if !t.After(now) {
				continue
			}
			candidate := models.Appointment{
				DoctorID: doc.ID,
				DateTime: t,
				Duration: duration,
				Status:   models.StatusScheduled,
			}
			if len(FindConflicts(candidate, existing, "")) > 0 {
				continue
			}
			suggestions = append(suggestions, t)
			if len(suggestions) == max {
				return suggestions
			}
		}
	}
	return suggestions
}
