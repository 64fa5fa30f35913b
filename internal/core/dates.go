// Package core holds the habit domain model and the pure date, schedule
// and summary logic everything else is built on.
//
// This file contains the week and day-key helpers. Weeks start on Sunday
// throughout the application, and every completion lookup goes through a
// day-granularity YYYY-MM-DD key so time-of-day and timezone differences
// never leak into equality checks.
package core

import "time"

// DateKeyLayout is the canonical day-granularity key format.
const DateKeyLayout = "2006-01-02"

// DateKey returns the canonical YYYY-MM-DD key for the given instant.
// The time component is discarded.
func DateKey(t time.Time) string {
	return t.Format(DateKeyLayout)
}

// ParseDateKey parses a YYYY-MM-DD key back into a midnight UTC time.
func ParseDateKey(key string) (time.Time, error) {
	return time.Parse(DateKeyLayout, key)
}

// StartOfDay truncates the given instant to midnight in its location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// WeekStart returns the Sunday starting the week containing t, at midnight.
func WeekStart(t time.Time) time.Time {
	d := StartOfDay(t)
	return d.AddDate(0, 0, -int(d.Weekday()))
}

// WeekDates returns the 7 dates of the Sunday-starting week containing t,
// Sunday first through Saturday last.
func WeekDates(t time.Time) []time.Time {
	start := WeekStart(t)
	out := make([]time.Time, 7)
	for i := range out {
		out[i] = start.AddDate(0, 0, i)
	}
	return out
}

// CurrentWeekDates returns the dates of the week containing today.
func CurrentWeekDates() []time.Time {
	return WeekDates(time.Now())
}

// SameWeek reports whether a and b fall in the same Sunday-starting week.
func SameWeek(a, b time.Time) bool {
	return WeekStart(a).Equal(WeekStart(b))
}

// DaysBetween enumerates every calendar day from start through end
// inclusive, in ascending order. Returns nil when end precedes start.
func DaysBetween(start, end time.Time) []time.Time {
	s := StartOfDay(start)
	e := StartOfDay(end)
	if e.Before(s) {
		return nil
	}
	var out []time.Time
	for d := s; !d.After(e); d = d.AddDate(0, 0, 1) {
		out = append(out, d)
	}
	return out
}
