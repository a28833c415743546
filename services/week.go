package services

import "time"

// WeekNumber encodes a timestamp as ISO year*100 + ISO week (e.g. 202636).
// Ledger rows and submissions are stamped with this value so weekly totals
// can be recomputed without timezone-sensitive epoch math.
func WeekNumber(t time.Time) int {
	year, week := t.ISOWeek()
	return year*100 + week
}

// CurrentWeekNumber returns the week number for the current instant.
func CurrentWeekNumber() int {
	return WeekNumber(time.Now())
}
