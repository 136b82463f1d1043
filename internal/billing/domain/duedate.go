package domain

import "time"

// DueDateFor returns the instant a period's bill falls due: end of the
// configured day of month in UTC. Day 0 means the last day of the month and
// days past a short month clamp to its final day.
func DueDateFor(period Period, dueDay int) time.Time {
	first := time.Date(period.Year, time.Month(period.Month), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)

	day := dueDay
	if day <= 0 || day > last.Day() {
		day = last.Day()
	}

	return time.Date(period.Year, time.Month(period.Month), day, 23, 59, 59, 0, time.UTC)
}
