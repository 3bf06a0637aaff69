package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoursePercentage(t *testing.T) {
	assert.Equal(t, 0, CoursePercentage(0, 0))
	assert.Equal(t, 0, CoursePercentage(0, 4))
	assert.Equal(t, 50, CoursePercentage(1, 2))
	assert.Equal(t, 33, CoursePercentage(1, 3))
	assert.Equal(t, 67, CoursePercentage(2, 3))
	assert.Equal(t, 100, CoursePercentage(3, 3))
	assert.Equal(t, 99, CoursePercentage(199, 200))
	assert.Equal(t, 1, CoursePercentage(1, 300))
}

func TestNextEnrollmentMovesForwardOnly(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	e := Enrollment{Status: EnrollmentNotStarted}

	prevPercent := 0
	prevStatus := 0
	order := map[EnrollmentStatus]int{EnrollmentNotStarted: 0, EnrollmentInProgress: 1, EnrollmentCompleted: 2}
	for completed := 0; completed <= 4; completed++ {
		e = NextEnrollment(e, CoursePercentage(completed, 4), now).Apply(e)
		assert.GreaterOrEqual(t, e.PercentProgress, prevPercent)
		assert.GreaterOrEqual(t, order[e.Status], prevStatus)
		prevPercent = e.PercentProgress
		prevStatus = order[e.Status]
	}
	assert.Equal(t, EnrollmentCompleted, e.Status)
	require.NotNil(t, e.CompletedAt)
	assert.True(t, e.CompletedAt.Equal(now))
}

func TestNextEnrollmentKeepsOriginalCompletionTime(t *testing.T) {
	first := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	e := Enrollment{Status: EnrollmentCompleted, PercentProgress: 100, CompletedAt: &first}

	patch := NextEnrollment(e, 100, first.Add(48*time.Hour))
	assert.False(t, patch.CompletedAt.Set)

	e = patch.Apply(e)
	assert.True(t, e.CompletedAt.Equal(first))
}

func TestCourseProgressComplete(t *testing.T) {
	assert.False(t, NewCourseProgress(0, 0).Complete())
	assert.False(t, NewCourseProgress(1, 2).Complete())
	assert.True(t, NewCourseProgress(2, 2).Complete())
}
