package scheduling

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Pure wall-clock arithmetic over "HH:MM" 24-hour strings and half-open
// [start, end) intervals. Malformed time strings are a caller contract
// violation; ValidateScheduleStructure keeps them out of doctor schedules.

// parseClock parses "HH:MM" into minutes since midnight.
func parseClock(hhmm string) (int, bool) {
	h, m, ok := strings.Cut(hhmm, ":")
	if !ok || len(h) != 2 || len(m) != 2 {
		return 0, false
	}
	hour, err := strconv.Atoi(h)
	if err != nil || hour < 0 || hour > 23 {
		return 0, false
	}
	minute, err := strconv.Atoi(m)
	if err != nil || minute < 0 || minute > 59 {
		return 0, false
	}
	return hour*60 + minute, true
}

func timeToMinutes(hhmm string) int {
	mins, _ := parseClock(hhmm)
	return mins
}

func minutesToTime(mins int) string {
	return fmt.Sprintf("%02d:%02d", mins/60, mins%60)
}

// clockAt anchors minutes-since-midnight onto a calendar date.
func clockAt(day time.Time, mins int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), mins/60, mins%60, 0, 0, day.Location())
}

// minuteOfDay returns the wall-clock minute mark of an absolute timestamp.
func minuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// overlaps reports whether [s1, e1) and [s2, e2) intersect. Strict
// inequality on both ends: touching endpoints never overlap.
func overlaps(s1, e1, s2, e2 time.Time) bool {
	return s1.Before(e2) && s2.Before(e1)
}

// minuteMarks generates the minute marks at the given step within
// [start, end) where a full step still fits before end.
func minuteMarks(start, end, step int) []int {
	var marks []int
	for m := start; m+step <= end; m += step {
		marks = append(marks, m)
	}
	return marks
}
