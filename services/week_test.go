package services

import (
	"testing"
	"time"
)

func TestWeekNumber(t *testing.T) {
	cases := []struct {
		date time.Time
		want int
	}{
		// Thursday of the first ISO week.
		{time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC), 202601},
		// Monday 2024-12-30 belongs to ISO week 1 of 2025.
		{time.Date(2024, 12, 30, 0, 0, 0, 0, time.UTC), 202501},
		// Friday 2021-01-01 belongs to ISO week 53 of 2020.
		{time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC), 202053},
		{time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), 202636},
	}
	for _, tc := range cases {
		if got := WeekNumber(tc.date); got != tc.want {
			t.Fatalf("week number for %s: got %d want %d", tc.date.Format("2006-01-02"), got, tc.want)
		}
	}
}

func TestPreviousWeekNumber(t *testing.T) {
	if got := previousWeekNumber(202636); got != 202635 {
		t.Fatalf("mid-year: got %d want 202635", got)
	}
	// 2020 had 53 ISO weeks.
	if got := previousWeekNumber(202101); got != 202053 {
		t.Fatalf("rollover into 53-week year: got %d want 202053", got)
	}
	// 2023 had 52.
	if got := previousWeekNumber(202401); got != 202352 {
		t.Fatalf("rollover into 52-week year: got %d want 202352", got)
	}
}
