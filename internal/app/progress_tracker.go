package app

import (
	"context"
	"time"

	"progression-service/internal/domain"
)

type progressTx interface {
	CatalogReader
	EnrollmentRepository
	ProgressRepository
}

func requireEnrollment(ctx context.Context, tx EnrollmentRepository, userID, courseID int64) (domain.Enrollment, error) {
	enrollment, err := tx.Enrollment(ctx, userID, courseID)
	if err != nil {
		return domain.Enrollment{}, err
	}
	if enrollment == nil {
		return domain.Enrollment{}, domain.ErrNotEnrolled
	}
	return *enrollment, nil
}

func alreadyCompleted(p domain.LessonProgress) error {
	return &domain.AlreadyCompletedError{
		LessonID:    p.LessonID,
		StartedAt:   p.StartedAt,
		CompletedAt: p.CompletedAt,
	}
}

// recomputeCourseProgress derives the course percentage from the completed
// lesson count and writes the enrollment forward, returning the enrollment as
// stored afterwards.
func recomputeCourseProgress(ctx context.Context, tx progressTx, enrollment domain.Enrollment, now time.Time) (domain.CourseProgress, domain.Enrollment, error) {
	completed, err := tx.CountCompletedLessons(ctx, enrollment.UserID, enrollment.CourseID)
	if err != nil {
		return domain.CourseProgress{}, enrollment, err
	}
	total, err := tx.CountLessons(ctx, enrollment.CourseID)
	if err != nil {
		return domain.CourseProgress{}, enrollment, err
	}

	progress := domain.NewCourseProgress(completed, total)
	patch := domain.NextEnrollment(enrollment, progress.Percentage, now)
	if patch.Empty() {
		return progress, enrollment, nil
	}

	updated, err := tx.UpdateEnrollment(ctx, enrollment.UserID, enrollment.CourseID, patch)
	if err != nil {
		return domain.CourseProgress{}, enrollment, err
	}
	return progress, updated, nil
}
