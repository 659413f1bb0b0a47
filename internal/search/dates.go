package search

import (
	"time"

	"github.com/theogognf/toi/pkg/types"
)

// DayRange returns the inclusive bounds, to the second, of the calendar
// span containing day. Weeks run Sunday through Saturday. An empty span
// means a single day.
func DayRange(day time.Time, on types.FallsOn) (from, to time.Time) {
	from, next := span(day, on)
	return from, next.Add(-time.Second)
}

// span returns the start of the calendar span containing day and the start
// of the following one.
func span(day time.Time, on types.FallsOn) (from, next time.Time) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	switch on {
	case types.FallsOnWeek:
		from = start.AddDate(0, 0, -int(start.Weekday()))
		next = from.AddDate(0, 0, 7)
	case types.FallsOnMonth:
		from = start.AddDate(0, 0, 1-start.Day())
		next = from.AddDate(0, 1, 0)
	default:
		from = start
		next = start.AddDate(0, 0, 1)
	}
	return from, next
}

// DateRange is DayRange for DATE columns.
func DateRange(day types.Date, on types.FallsOn) (from, to types.Date) {
	f, t := DayRange(day.Time, on)
	return types.NewDate(f.Year(), f.Month(), f.Day()), types.NewDate(t.Year(), t.Month(), t.Day())
}
