package domain

import "time"

// CalendarDay returns the calendar date of t as seen in loc, encoded as
// midnight UTC so it round-trips through DATE columns unchanged.
func CalendarDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// daysBetween counts calendar days from a to b using the dates only, so DST
// shifts never turn one day into 0 or 2.
func daysBetween(a, b time.Time) int {
	da := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	db := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}

// NextStreak returns the consecutive-day streak after activity on today.
// Both dates must already be calendar days in the same reference zone.
//
//	never active        -> 1
//	same day            -> previous (already counted)
//	exactly one day gap -> previous + 1
//	anything else       -> 1 (includes lastActive in the future)
func NextStreak(previous int, lastActive *time.Time, today time.Time) int {
	if lastActive == nil {
		return 1
	}
	switch daysBetween(*lastActive, today) {
	case 0:
		return previous
	case 1:
		return previous + 1
	default:
		return 1
	}
}
