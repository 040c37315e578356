package models

import "time"

// Recurrence frequencies supported by a recurring timeslot.
const (
	FrequencyWeekly   = "weekly"
	FrequencyBiWeekly = "bi-weekly"
	FrequencyMonthly  = "monthly"
)

// RecurringPattern describes how a timeslot repeats over calendar weeks.
type RecurringPattern struct {
	Frequency string     `bson:"frequency" json:"frequency"` // "weekly", "bi-weekly" or "monthly"
	Interval  int        `bson:"interval" json:"interval"`
	EndDate   *time.Time `bson:"endDate,omitempty" json:"endDate,omitempty"`
}

// TimeSlot is one working window within a day of a doctor's weekly schedule.
// Times are local wall-clock "HH:MM" 24-hour strings.
type TimeSlot struct {
	StartTime string            `bson:"startTime" json:"startTime"`
	EndTime   string            `bson:"endTime" json:"endTime"`
	Recurring bool              `bson:"recurring" json:"recurring"`
	Pattern   *RecurringPattern `bson:"pattern,omitempty" json:"pattern,omitempty"`
}

// WeeklySchedule maps lowercase English weekday names ("monday" .. "sunday")
// to that day's working windows. A missing or empty day means the doctor
// does not work that day.
type WeeklySchedule map[string][]TimeSlot

// Doctor is the provider being scheduled against.
type Doctor struct {
	ID              string         `bson:"id" json:"id"`
	Name            string         `bson:"name" json:"name"`
	Specializations []string       `bson:"specializations" json:"specializations"`
	Schedule        WeeklySchedule `bson:"schedule" json:"schedule"`
	Rating          float64        `bson:"rating" json:"rating"`
	YearsExperience int            `bson:"yearsExperience" json:"yearsExperience"`
	Languages       []string       `bson:"languages" json:"languages"`
	CreatedAt       time.Time      `bson:"createdAt" json:"createdAt,omitzero"`
	UpdatedAt       time.Time      `bson:"updatedAt" json:"updatedAt,omitzero"`
}

// SlotsFor returns the working windows for the weekday of the given date.
func (s WeeklySchedule) SlotsFor(day time.Time) []TimeSlot {
	return s[WeekdayKey(day)]
}

// WeekdayKey returns the lowercase weekday name used as a schedule map key.
func WeekdayKey(day time.Time) string {
	switch day.Weekday() {
	case time.Monday:
		return "monday"
	case time.Tuesday:
		return "tuesday"
	case time.Wednesday:
		return "wednesday"
	case time.Thursday:
		return "thursday"
	case time.Friday:
		return "friday"
	case time.Saturday:
		return "saturday"
	default:
		return "sunday"
	}
}

// WeekdayKeys lists the valid schedule map keys.
var WeekdayKeys = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}
