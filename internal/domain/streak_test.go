package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func dayPtr(s string) *time.Time {
	t := day(s)
	return &t
}

func TestNextStreak(t *testing.T) {
	assert.Equal(t, 6, NextStreak(5, dayPtr("2024-01-10"), day("2024-01-11")))
	assert.Equal(t, 1, NextStreak(5, dayPtr("2024-01-10"), day("2024-01-13")))
	assert.Equal(t, 1, NextStreak(0, nil, day("2024-01-10")))
	assert.Equal(t, 5, NextStreak(5, dayPtr("2024-01-10"), day("2024-01-10")))
}

func TestNextStreakFutureLastActiveResets(t *testing.T) {
	assert.Equal(t, 1, NextStreak(9, dayPtr("2024-01-12"), day("2024-01-10")))
}

func TestNextStreakAcrossMonthBoundary(t *testing.T) {
	assert.Equal(t, 3, NextStreak(2, dayPtr("2024-02-29"), day("2024-03-01")))
}

func TestCalendarDayUsesReferenceZone(t *testing.T) {
	loc := time.FixedZone("UTC+7", 7*3600)
	// 20:00 UTC on the 10th is already the 11th at UTC+7
	ts := time.Date(2024, 1, 10, 20, 0, 0, 0, time.UTC)

	got := CalendarDay(ts, loc)
	assert.Equal(t, 11, got.Day())
	assert.Equal(t, 0, got.Hour())

	assert.Equal(t, 10, CalendarDay(ts, time.UTC).Day())
}
