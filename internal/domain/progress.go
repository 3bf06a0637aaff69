package domain

import (
	"math"
	"time"
)

// CoursePercentage returns round(completed/total*100), 0 for an empty course.
func CoursePercentage(completed, total int) int {
	if total <= 0 || completed <= 0 {
		return 0
	}
	if completed >= total {
		return 100
	}
	percent := int(math.Round(float64(completed) / float64(total) * 100))
	switch {
	case percent >= 100:
		// only a fully completed course may read as 100
		return 99
	case percent == 0:
		return 1
	}
	return percent
}

// EnrollmentStatusFor maps a percentage onto the enrollment state machine.
func EnrollmentStatusFor(percent int) EnrollmentStatus {
	switch {
	case percent >= 100:
		return EnrollmentCompleted
	case percent > 0:
		return EnrollmentInProgress
	default:
		return EnrollmentNotStarted
	}
}

// NextEnrollment recomputes the derived enrollment fields for percent and
// returns the patch that moves current there. CompletedAt is stamped only on
// the transition into completed and is kept while the enrollment stays completed.
func NextEnrollment(current Enrollment, percent int, now time.Time) EnrollmentPatch {
	status := EnrollmentStatusFor(percent)
	patch := EnrollmentPatch{
		Status:          &status,
		PercentProgress: &percent,
	}
	switch {
	case status == EnrollmentCompleted && current.Status != EnrollmentCompleted:
		at := now
		patch.CompletedAt = SetTime(&at)
	case status != EnrollmentCompleted && current.CompletedAt != nil:
		patch.CompletedAt = SetTime(nil)
	}
	return patch
}

// Apply returns e with the patch fields written over it.
func (p EnrollmentPatch) Apply(e Enrollment) Enrollment {
	if p.Status != nil {
		e.Status = *p.Status
	}
	if p.PercentProgress != nil {
		e.PercentProgress = *p.PercentProgress
	}
	if p.CompletedAt.Set {
		e.CompletedAt = p.CompletedAt.Value
	}
	return e
}

// CourseProgress is the aggregate reported after a lesson transition.
type CourseProgress struct {
	CompletedLessons int `json:"completedLessons"`
	TotalLessons     int `json:"totalLessons"`
	Percentage       int `json:"percentage"`
}

// NewCourseProgress derives the percentage from the counts.
func NewCourseProgress(completed, total int) CourseProgress {
	return CourseProgress{
		CompletedLessons: completed,
		TotalLessons:     total,
		Percentage:       CoursePercentage(completed, total),
	}
}

// Complete reports whether every lesson of a non-empty course is done.
func (p CourseProgress) Complete() bool {
	return p.TotalLessons > 0 && p.CompletedLessons >= p.TotalLessons
}
