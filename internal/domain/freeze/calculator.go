// Package freeze holds membership freeze requests and the calendar arithmetic behind them.
package freeze

import "time"

const day = 24 * time.Hour

// CalculateFreezeEndDate returns start moved forward by days calendar days.
func CalculateFreezeEndDate(start time.Time, days int) time.Time {
	return start.AddDate(0, 0, days)
}

// CalculateTotalFrozenDays counts the UTC calendar days from start to end.
// Callers must ensure end falls on a later date than start.
func CalculateTotalFrozenDays(start, end time.Time) int {
	return int(calendarDate(end).Sub(calendarDate(start)) / day)
}

// ExtendExpirationByFreezeDays pushes expiredAt back by exactly frozenDays calendar days.
func ExtendExpirationByFreezeDays(expiredAt time.Time, frozenDays int) time.Time {
	return expiredAt.AddDate(0, 0, frozenDays)
}

func calendarDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
